package implementation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ekowhinson/HRMS-sub007/internal/implementation/ingest"
	"github.com/ekowhinson/HRMS-sub007/internal/payroll/model"
)

// Analyzer performs the read-only validation and aggregation step over a
// parsed workbook pair. It never touches payroll tables; running it any
// number of times on the same input yields the same summary.
type Analyzer struct{}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze produces the dry-run projection of what execution would create.
// Errors mark rows that execution will skip entirely; warnings mark fields
// that phase 1 or 4 will record as row-level errors and move past.
func (a *Analyzer) Analyze(wb *ingest.Workbook) *model.AnalysisSummary {
	summary := &model.AnalysisSummary{
		SheetCounts:       make(map[string]int),
		UnionMemberCounts: make(map[string]int),
		BandsFound:        bandsFound(wb),
		Errors:            []model.RowIssue{},
		Warnings:          []model.RowIssue{},
	}

	bandComponentCount := 0
	for _, types := range summary.BandsFound {
		bandComponentCount += len(types)
	}
	summary.ComponentsToCreate = len(componentCatalog) + bandComponentCount
	summary.TaxBracketsToCreate = len(defaultTaxBrackets)
	summary.SSNITRatesToCreate = len(defaultSSNITRates)

	scale := buildScaleIndex(wb)

	for _, sheet := range wb.Sheets {
		summary.SheetCounts[sheet.Name] = len(sheet.Rows)
		for _, row := range sheet.Rows {
			summary.EmployeeCount++

			if issue := blockingIssue(row, summary.BandsFound); issue != nil {
				summary.Errors = append(summary.Errors, *issue)
				continue
			}

			if row.NIANumber == "" {
				summary.Warnings = append(summary.Warnings, rowIssue(row, "missing NIA number"))
			}
			if row.AccountNumber == "" || row.BankName == "" {
				summary.Warnings = append(summary.Warnings, rowIssue(row, "missing bank account details"))
			}
			if _, ok := scale[scaleKey(row.Band, row.Level, row.Notch)]; !ok {
				summary.Warnings = append(summary.Warnings,
					rowIssue(row, fmt.Sprintf("no salary scale entry for band %q level %q notch %q", row.Band, row.Level, row.Notch)))
			}

			if row.ProvidentFund {
				summary.ProvidentFundCount++
			}
			if row.UnionName != "" {
				summary.UnionMemberCounts[row.UnionName]++
			}
			if row.MonthlyRent > 0 {
				summary.RentDeductionCount++
			}
		}
	}

	return summary
}

// bandsFound extracts the tagged (band, allowance type) pairs from the
// allowance structure, as a band -> sorted allowance types map. Phases 3
// and 5 consume this map uniformly, so a new band needs no code changes.
func bandsFound(wb *ingest.Workbook) map[string][]string {
	seen := make(map[string]map[string]bool)
	for _, row := range wb.Allowances {
		if row.Band == "" || row.AllowanceType == "" {
			continue
		}
		if seen[row.Band] == nil {
			seen[row.Band] = make(map[string]bool)
		}
		seen[row.Band][row.AllowanceType] = true
	}

	bands := make(map[string][]string, len(seen))
	for band, types := range seen {
		list := make([]string, 0, len(types))
		for t := range types {
			list = append(list, t)
		}
		sort.Strings(list)
		bands[band] = list
	}
	return bands
}

// blockingIssue reports why a roster row cannot be processed at all, or
// nil if the row is executable. The same check gates phase 1, so analysis
// errors and skipped execution rows always agree.
func blockingIssue(row ingest.StaffRow, bands map[string][]string) *model.RowIssue {
	if row.StaffNumber == "" {
		issue := rowIssue(row, "missing staff number")
		return &issue
	}
	if row.Band == "" {
		issue := rowIssue(row, "missing band")
		return &issue
	}
	if _, ok := bands[row.Band]; !ok {
		issue := rowIssue(row, fmt.Sprintf("band %q not present in allowance structure", row.Band))
		return &issue
	}
	return nil
}

// buildScaleIndex maps (band, level, notch) to a monthly basic salary.
func buildScaleIndex(wb *ingest.Workbook) map[string]float64 {
	scale := make(map[string]float64, len(wb.SalaryScale))
	for _, row := range wb.SalaryScale {
		scale[scaleKey(row.Band, row.Level, row.Notch)] = row.MonthlyAmount
	}
	return scale
}

func scaleKey(band, level, notch string) string {
	return strings.Join([]string{band, level, notch}, "|")
}

func rowIssue(row ingest.StaffRow, message string) model.RowIssue {
	return model.RowIssue{
		Sheet:   row.Sheet,
		Row:     row.Row,
		Staff:   row.StaffNumber,
		Message: message,
	}
}
