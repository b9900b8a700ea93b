package model

import (
	"time"

	"github.com/ekowhinson/HRMS-sub007/internal/implementation/ingest"
)

// TaskStatus represents the lifecycle state of an implementation run.
type TaskStatus string

const (
	TaskStatusAnalyzed  TaskStatus = "ANALYZED"  // Analysis stored, waiting for confirmation
	TaskStatusRunning   TaskStatus = "RUNNING"   // Phase executor is working through phases 1-5
	TaskStatusCompleted TaskStatus = "COMPLETED" // All phases finished
	TaskStatusFailed    TaskStatus = "FAILED"    // A fatal error aborted the run
)

// RowIssue identifies a problem with a single roster row, with enough
// context to find the row in the source workbook.
type RowIssue struct {
	Sheet   string `json:"sheet,omitempty"`
	Row     int    `json:"row,omitempty"`
	Staff   string `json:"staff,omitempty"`
	Message string `json:"message"`
}

// AnalysisSummary is the dry-run projection produced by the analyzer.
// It previews what execution would create without touching payroll tables.
type AnalysisSummary struct {
	EmployeeCount       int                 `json:"employee_count"`
	SheetCounts         map[string]int      `json:"sheet_counts"`
	ComponentsToCreate  int                 `json:"components_to_create"`
	TaxBracketsToCreate int                 `json:"tax_brackets_to_create"`
	SSNITRatesToCreate  int                 `json:"ssnit_rates_to_create"`
	ProvidentFundCount  int                 `json:"provident_fund_count"`
	UnionMemberCounts   map[string]int      `json:"union_member_counts"`
	RentDeductionCount  int                 `json:"rent_deduction_count"`
	BandsFound          map[string][]string `json:"bands_found"`
	Errors              []RowIssue          `json:"errors"`
	Warnings            []RowIssue          `json:"warnings"`
}

// ExecutionResult is the terminal outcome of a run: per-phase counters plus
// the accumulated row-level errors. The full error list is persisted; the
// progress endpoint caps what it returns for display.
type ExecutionResult struct {
	EmployeesGraded       int        `json:"employees_graded"`
	NIANumbersUpdated     int        `json:"nia_numbers_updated"`
	BankAccountsUpdated   int        `json:"bank_accounts_updated"`
	ComponentsCreated     int        `json:"components_created"`
	TaxBracketsCreated    int        `json:"tax_brackets_created"`
	SSNITRatesCreated     int        `json:"ssnit_rates_created"`
	OvertimeConfigCreated bool       `json:"overtime_config_created"`
	SalariesCreated       int        `json:"salaries_created"`
	TransactionsCreated   int        `json:"transactions_created"`
	Errors                []RowIssue `json:"errors"`
}

// ImplementationTask is one run of the payroll implementation pipeline,
// from analysis through terminal completion. It is the single source of
// truth for polling clients: progress counters only advance and the log is
// append-only, so concurrent reads need no extra locking.
type ImplementationTask struct {
	BaseModel
	CompanyID string     `gorm:"type:varchar(100);column:company_id;not null;index" json:"companyId"`
	Status    TaskStatus `gorm:"type:varchar(20);column:status;not null;index" json:"status"`

	// Analysis and Workbook are immutable once the task is created.
	Analysis *AnalysisSummary `gorm:"type:jsonb;column:analysis;serializer:json" json:"analysis"`
	Workbook *ingest.Workbook `gorm:"type:jsonb;column:workbook;serializer:json" json:"-"`

	Phase           int `gorm:"column:phase;not null;default:0" json:"phase"`
	PhaseProgress   int `gorm:"column:phase_progress;not null;default:0" json:"phaseProgress"`
	OverallProgress int `gorm:"column:overall_progress;not null;default:0" json:"overallProgress"`

	Log []string `gorm:"type:jsonb;column:log;serializer:json" json:"log"`

	// Results is populated only when Status is COMPLETED or FAILED.
	Results *ExecutionResult `gorm:"type:jsonb;column:results;serializer:json" json:"results,omitempty"`
	Error   string           `gorm:"type:text;column:error" json:"error,omitempty"`

	StartedAt  *time.Time `gorm:"column:started_at" json:"startedAt,omitempty"`
	FinishedAt *time.Time `gorm:"column:finished_at" json:"finishedAt,omitempty"`
}

func (t *ImplementationTask) TableName() string {
	return "implementation_tasks"
}

// Terminal reports whether the task has reached a final status.
func (t *ImplementationTask) Terminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}
