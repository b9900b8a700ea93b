package model

import (
	"github.com/google/uuid"
)

// ComponentKind distinguishes earnings from deductions.
type ComponentKind string

const (
	ComponentKindEarning   ComponentKind = "EARNING"
	ComponentKindDeduction ComponentKind = "DEDUCTION"
)

// TransactionKind distinguishes band-driven transactions (shared by every
// employee on a band) from individually assigned ones.
type TransactionKind string

const (
	TransactionKindGradeBased TransactionKind = "GRADE_BASED"
	TransactionKindIndividual TransactionKind = "INDIVIDUAL"
)

// PayComponent is a pay element definition: either one of the fixed
// catalog entries or a band/allowance-type component derived from the
// allowance structure workbook.
type PayComponent struct {
	BaseModel
	CompanyID string        `gorm:"type:varchar(100);column:company_id;not null;uniqueIndex:idx_components_company_code" json:"companyId"`
	Code      string        `gorm:"type:varchar(50);column:code;not null;uniqueIndex:idx_components_company_code" json:"code"`
	Name      string        `gorm:"type:varchar(255);column:name;not null" json:"name"`
	Kind      ComponentKind `gorm:"type:varchar(20);column:kind;not null" json:"kind"`
	Taxable   bool          `gorm:"column:taxable;not null" json:"taxable"`

	// Band and AllowanceType are set only for components derived from the
	// allowance structure; catalog components leave them empty.
	Band          string `gorm:"type:varchar(50);column:band" json:"band"`
	AllowanceType string `gorm:"type:varchar(100);column:allowance_type" json:"allowanceType"`

	SourceTaskID *uuid.UUID `gorm:"type:uuid;column:source_task_id;index" json:"sourceTaskId"`
}

func (c *PayComponent) TableName() string {
	return "pay_components"
}

// TaxBracket is one row of the progressive PAYE table. ChargeableAmount is
// the width of the bracket in monthly cedis; a zero width marks the open
// top bracket.
type TaxBracket struct {
	BaseModel
	CompanyID        string     `gorm:"type:varchar(100);column:company_id;not null;index" json:"companyId"`
	Ordinal          int        `gorm:"column:ordinal;not null" json:"ordinal"`
	ChargeableAmount float64    `gorm:"column:chargeable_amount;not null" json:"chargeableAmount"`
	Rate             float64    `gorm:"column:rate;not null" json:"rate"`
	SourceTaskID     *uuid.UUID `gorm:"type:uuid;column:source_task_id;index" json:"sourceTaskId"`
}

func (t *TaxBracket) TableName() string {
	return "tax_brackets"
}

// SSNITRate is one statutory-contribution tier with its employee/employer
// percentage split.
type SSNITRate struct {
	BaseModel
	CompanyID    string     `gorm:"type:varchar(100);column:company_id;not null;index" json:"companyId"`
	Tier         string     `gorm:"type:varchar(50);column:tier;not null" json:"tier"`
	EmployeeRate float64    `gorm:"column:employee_rate;not null" json:"employeeRate"`
	EmployerRate float64    `gorm:"column:employer_rate;not null" json:"employerRate"`
	SourceTaskID *uuid.UUID `gorm:"type:uuid;column:source_task_id;index" json:"sourceTaskId"`
}

func (s *SSNITRate) TableName() string {
	return "ssnit_rates"
}

// OvertimeConfig holds the company-wide overtime multipliers. The pipeline
// seeds one default row per company if none exists.
type OvertimeConfig struct {
	BaseModel
	CompanyID    string     `gorm:"type:varchar(100);column:company_id;not null;uniqueIndex" json:"companyId"`
	WeekdayRate  float64    `gorm:"column:weekday_rate;not null" json:"weekdayRate"`
	WeekendRate  float64    `gorm:"column:weekend_rate;not null" json:"weekendRate"`
	SourceTaskID *uuid.UUID `gorm:"type:uuid;column:source_task_id;index" json:"sourceTaskId"`
}

func (o *OvertimeConfig) TableName() string {
	return "overtime_configs"
}

// EmployeeSalary is the basic-salary record created by phase 4, resolved
// from the band/level/notch salary scale.
type EmployeeSalary struct {
	BaseModel
	CompanyID    string     `gorm:"type:varchar(100);column:company_id;not null;index" json:"companyId"`
	EmployeeID   uuid.UUID  `gorm:"type:uuid;column:employee_id;not null;index" json:"employeeId"`
	BasicSalary  float64    `gorm:"column:basic_salary;not null" json:"basicSalary"`
	Currency     string     `gorm:"type:varchar(10);column:currency;not null" json:"currency"`
	SourceTaskID *uuid.UUID `gorm:"type:uuid;column:source_task_id;index" json:"sourceTaskId"`
}

func (s *EmployeeSalary) TableName() string {
	return "employee_salaries"
}

// PayrollTransaction is a recurring pay element assigned to one employee,
// referencing a PayComponent created in phase 3.
type PayrollTransaction struct {
	BaseModel
	CompanyID    string          `gorm:"type:varchar(100);column:company_id;not null;index" json:"companyId"`
	EmployeeID   uuid.UUID       `gorm:"type:uuid;column:employee_id;not null;index" json:"employeeId"`
	ComponentID  uuid.UUID       `gorm:"type:uuid;column:component_id;not null;index" json:"componentId"`
	Kind         TransactionKind `gorm:"type:varchar(20);column:kind;not null" json:"kind"`
	Amount       float64         `gorm:"column:amount;not null" json:"amount"`
	SourceTaskID *uuid.UUID      `gorm:"type:uuid;column:source_task_id;index" json:"sourceTaskId"`
}

func (t *PayrollTransaction) TableName() string {
	return "payroll_transactions"
}
