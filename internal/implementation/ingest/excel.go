package ingest

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Fixed sheet names in the allowance structure workbook. The staff workbook
// has no fixed names: every sheet is treated as one staff category.
const (
	allowanceSheetName   = "Allowances"
	salaryScaleSheetName = "Salary Scale"
)

// ExcelParser reads the two workbooks with a fixed layout: known sheet
// names and column order, no column detection. Anything that deviates from
// the layout is a ParseError.
type ExcelParser struct{}

func NewExcelParser() *ExcelParser {
	return &ExcelParser{}
}

func (p *ExcelParser) Parse(ctx context.Context, allowanceFile io.Reader, staffFile io.Reader) (*Workbook, error) {
	wb := &Workbook{}

	if err := p.parseAllowanceFile(allowanceFile, wb); err != nil {
		return nil, err
	}
	if err := p.parseStaffFile(staffFile, wb); err != nil {
		return nil, err
	}

	return wb, nil
}

func (p *ExcelParser) parseAllowanceFile(r io.Reader, wb *Workbook) error {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return &ParseError{File: "allowance", Reason: "not a valid spreadsheet: " + err.Error()}
	}
	defer f.Close()

	allowanceRows, err := f.GetRows(allowanceSheetName)
	if err != nil {
		return &ParseError{File: "allowance", Reason: fmt.Sprintf("missing required sheet %q", allowanceSheetName)}
	}
	for i, row := range allowanceRows {
		if i == 0 || isBlankRow(row) {
			// Header row.
			continue
		}
		if len(row) < 3 {
			return &ParseError{File: "allowance", Reason: fmt.Sprintf("sheet %q row %d: expected 3 columns (band, allowance type, monthly amount)", allowanceSheetName, i+1)}
		}
		amount, err := parseAmount(row[2])
		if err != nil {
			return &ParseError{File: "allowance", Reason: fmt.Sprintf("sheet %q row %d: invalid amount %q", allowanceSheetName, i+1, row[2])}
		}
		wb.Allowances = append(wb.Allowances, AllowanceRow{
			Band:          strings.TrimSpace(row[0]),
			AllowanceType: strings.TrimSpace(row[1]),
			MonthlyAmount: amount,
		})
	}

	scaleRows, err := f.GetRows(salaryScaleSheetName)
	if err != nil {
		return &ParseError{File: "allowance", Reason: fmt.Sprintf("missing required sheet %q", salaryScaleSheetName)}
	}
	for i, row := range scaleRows {
		if i == 0 || isBlankRow(row) {
			continue
		}
		if len(row) < 4 {
			return &ParseError{File: "allowance", Reason: fmt.Sprintf("sheet %q row %d: expected 4 columns (band, level, notch, monthly amount)", salaryScaleSheetName, i+1)}
		}
		amount, err := parseAmount(row[3])
		if err != nil {
			return &ParseError{File: "allowance", Reason: fmt.Sprintf("sheet %q row %d: invalid amount %q", salaryScaleSheetName, i+1, row[3])}
		}
		wb.SalaryScale = append(wb.SalaryScale, SalaryScaleRow{
			Band:          strings.TrimSpace(row[0]),
			Level:         strings.TrimSpace(row[1]),
			Notch:         strings.TrimSpace(row[2]),
			MonthlyAmount: amount,
		})
	}

	if len(wb.Allowances) == 0 {
		return &ParseError{File: "allowance", Reason: fmt.Sprintf("sheet %q has no data rows", allowanceSheetName)}
	}

	return nil
}

// Staff roster column order. Columns after account number are optional;
// a short row simply leaves the deduction flags unset.
const (
	colStaffNumber = iota
	colFullName
	colBand
	colLevel
	colNotch
	colNIANumber
	colBankName
	colBankBranch
	colAccountNumber
	colProvidentFund
	colUnionName
	colMonthlyRent
	staffRequiredColumns = colAccountNumber + 1
)

func (p *ExcelParser) parseStaffFile(r io.Reader, wb *Workbook) error {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return &ParseError{File: "staff", Reason: "not a valid spreadsheet: " + err.Error()}
	}
	defer f.Close()

	sheetNames := f.GetSheetList()
	if len(sheetNames) == 0 {
		return &ParseError{File: "staff", Reason: "workbook has no sheets"}
	}

	for _, name := range sheetNames {
		rows, err := f.GetRows(name)
		if err != nil {
			return &ParseError{File: "staff", Reason: fmt.Sprintf("failed to read sheet %q: %v", name, err)}
		}

		sheet := StaffSheet{Name: name}
		for i, row := range rows {
			if i == 0 || isBlankRow(row) {
				continue
			}
			if len(row) < staffRequiredColumns {
				return &ParseError{File: "staff", Reason: fmt.Sprintf("sheet %q row %d: expected at least %d columns", name, i+1, staffRequiredColumns)}
			}
			staffRow := StaffRow{
				Sheet:         name,
				Row:           i + 1,
				StaffNumber:   strings.TrimSpace(cell(row, colStaffNumber)),
				FullName:      strings.TrimSpace(cell(row, colFullName)),
				Band:          strings.TrimSpace(cell(row, colBand)),
				Level:         strings.TrimSpace(cell(row, colLevel)),
				Notch:         strings.TrimSpace(cell(row, colNotch)),
				NIANumber:     strings.TrimSpace(cell(row, colNIANumber)),
				BankName:      strings.TrimSpace(cell(row, colBankName)),
				BankBranch:    strings.TrimSpace(cell(row, colBankBranch)),
				AccountNumber: strings.TrimSpace(cell(row, colAccountNumber)),
				ProvidentFund: parseFlag(cell(row, colProvidentFund)),
				UnionName:     strings.TrimSpace(cell(row, colUnionName)),
			}
			if rent := strings.TrimSpace(cell(row, colMonthlyRent)); rent != "" {
				amount, err := parseAmount(rent)
				if err != nil {
					return &ParseError{File: "staff", Reason: fmt.Sprintf("sheet %q row %d: invalid rent amount %q", name, i+1, rent)}
				}
				staffRow.MonthlyRent = amount
			}
			sheet.Rows = append(sheet.Rows, staffRow)
		}

		if len(sheet.Rows) > 0 {
			wb.Sheets = append(wb.Sheets, sheet)
		}
	}

	if len(wb.Sheets) == 0 {
		return &ParseError{File: "staff", Reason: "workbook has no staff rows"}
	}

	return nil
}

func cell(row []string, index int) string {
	if index >= len(row) {
		return ""
	}
	return row[index]
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseAmount(raw string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	return strconv.ParseFloat(cleaned, 64)
}

func parseFlag(raw string) bool {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "YES", "Y", "TRUE", "1":
		return true
	default:
		return false
	}
}
