package uploads

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FileKind identifies which of the two implementation inputs a stored
// workbook is.
type FileKind string

const (
	FileKindAllowance FileKind = "ALLOWANCE"
	FileKindStaff     FileKind = "STAFF"
)

// SourceFile is the audit record of an uploaded workbook. The binary
// content lives in object storage under Key; this row ties it to the
// company and the implementation task it produced.
type SourceFile struct {
	ID        uuid.UUID  `gorm:"type:uuid;column:id;not null;primaryKey" json:"id"`
	CompanyID string     `gorm:"type:varchar(100);column:company_id;not null;index" json:"companyId"`
	TaskID    *uuid.UUID `gorm:"type:uuid;column:task_id;index" json:"taskId"`
	Kind      FileKind   `gorm:"type:varchar(20);column:kind;not null" json:"kind"`
	Name      string     `gorm:"type:varchar(255);column:name;not null" json:"name"`
	Key       string     `gorm:"type:varchar(255);column:key;not null;uniqueIndex" json:"key"`
	Size      int64      `gorm:"column:size;not null" json:"size"`
	MimeType  string     `gorm:"type:varchar(100);column:mime_type;not null" json:"mimeType"`
	CreatedAt time.Time  `gorm:"column:created_at;not null" json:"createdAt"`
}

func (f *SourceFile) TableName() string {
	return "source_files"
}

// BeforeCreate assigns a fresh id when none is set.
func (f *SourceFile) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID, err = uuid.NewRandom()
	}
	return err
}
