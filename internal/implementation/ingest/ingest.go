package ingest

import (
	"context"
	"fmt"
	"io"
)

// AllowanceRow is one (band, allowance type) entry from the allowance
// structure workbook. The amount is the monthly value paid to every
// employee on that band.
type AllowanceRow struct {
	Band          string  `json:"band"`
	AllowanceType string  `json:"allowanceType"`
	MonthlyAmount float64 `json:"monthlyAmount"`
}

// SalaryScaleRow maps a (band, level, notch) point to a monthly basic salary.
type SalaryScaleRow struct {
	Band          string  `json:"band"`
	Level         string  `json:"level"`
	Notch         string  `json:"notch"`
	MonthlyAmount float64 `json:"monthlyAmount"`
}

// StaffRow is one employee row from the staff roster workbook.
// Sheet and Row identify the source cell range for error reporting.
type StaffRow struct {
	Sheet         string  `json:"sheet"`
	Row           int     `json:"row"`
	StaffNumber   string  `json:"staffNumber"`
	FullName      string  `json:"fullName"`
	Band          string  `json:"band"`
	Level         string  `json:"level"`
	Notch         string  `json:"notch"`
	NIANumber     string  `json:"niaNumber"`
	BankName      string  `json:"bankName"`
	BankBranch    string  `json:"bankBranch"`
	AccountNumber string  `json:"accountNumber"`
	ProvidentFund bool    `json:"providentFund"`
	UnionName     string  `json:"unionName"`
	MonthlyRent   float64 `json:"monthlyRent"`
}

// StaffSheet groups roster rows by their source sheet (one sheet per
// staff category, e.g. "Senior Staff", "Junior Staff").
type StaffSheet struct {
	Name string     `json:"name"`
	Rows []StaffRow `json:"rows"`
}

// Workbook is the structured result of parsing both uploaded files.
// It is embedded into the implementation task as the validated-row
// snapshot, so execution never re-reads the raw spreadsheets.
type Workbook struct {
	Allowances  []AllowanceRow   `json:"allowances"`
	SalaryScale []SalaryScaleRow `json:"salaryScale"`
	Sheets      []StaffSheet     `json:"sheets"`
}

// StaffCount returns the total number of roster rows across all sheets.
func (w *Workbook) StaffCount() int {
	total := 0
	for _, sheet := range w.Sheets {
		total += len(sheet.Rows)
	}
	return total
}

// ParseError indicates that an uploaded file is not a recognized workbook
// or is missing required sheets/columns. It is fatal to the analyze step;
// no task is created.
type ParseError struct {
	File   string // "allowance" or "staff"
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s file: %s", e.File, e.Reason)
}

// Parser converts the two uploaded spreadsheet payloads into a Workbook.
// Implementations must be side-effect-free; a failure is always a *ParseError
// unless the reader itself fails.
type Parser interface {
	Parse(ctx context.Context, allowanceFile io.Reader, staffFile io.Reader) (*Workbook, error)
}
