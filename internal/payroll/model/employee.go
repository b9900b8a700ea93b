package model

import (
	"github.com/google/uuid"
)

// Employee represents an employee record in the HR schema. Employees exist
// before the implementation pipeline runs; phase 1 fills in the grading,
// national-ID and bank fields and stamps ImplementedByTaskID so a reset can
// clear exactly the fields the pipeline wrote.
type Employee struct {
	BaseModel
	CompanyID   string `gorm:"type:varchar(100);column:company_id;not null;uniqueIndex:idx_employees_company_staff" json:"companyId"`
	StaffNumber string `gorm:"type:varchar(50);column:staff_number;not null;uniqueIndex:idx_employees_company_staff" json:"staffNumber"`
	FullName    string `gorm:"type:varchar(255);column:full_name;not null" json:"fullName"`

	// Grading fields set by phase 1 of the implementation pipeline.
	Band  string `gorm:"type:varchar(50);column:band" json:"band"`
	Level string `gorm:"type:varchar(50);column:level" json:"level"`
	Notch string `gorm:"type:varchar(50);column:notch" json:"notch"`

	// National Identification Authority (Ghana Card) number.
	NIANumber string `gorm:"type:varchar(50);column:nia_number" json:"niaNumber"`

	BankName      string `gorm:"type:varchar(255);column:bank_name" json:"bankName"`
	BankBranch    string `gorm:"type:varchar(255);column:bank_branch" json:"bankBranch"`
	AccountNumber string `gorm:"type:varchar(50);column:account_number" json:"accountNumber"`

	// ImplementedByTaskID records which implementation run populated the
	// fields above. Nil means the record was never touched by the pipeline.
	ImplementedByTaskID *uuid.UUID `gorm:"type:uuid;column:implemented_by_task_id;index" json:"implementedByTaskId"`
}

func (e *Employee) TableName() string {
	return "employees"
}
