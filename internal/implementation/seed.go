package implementation

import (
	"fmt"
	"strings"

	"github.com/ekowhinson/HRMS-sub007/internal/payroll/model"
)

// bracketSeed is one row of the default monthly PAYE table (GRA graduated
// rates). A zero chargeable amount marks the open top bracket.
type bracketSeed struct {
	ChargeableAmount float64
	Rate             float64
}

var defaultTaxBrackets = []bracketSeed{
	{ChargeableAmount: 490.00, Rate: 0},
	{ChargeableAmount: 110.00, Rate: 5.0},
	{ChargeableAmount: 130.00, Rate: 10.0},
	{ChargeableAmount: 3166.67, Rate: 17.5},
	{ChargeableAmount: 16000.00, Rate: 25.0},
	{ChargeableAmount: 30520.00, Rate: 30.0},
	{ChargeableAmount: 0, Rate: 35.0},
}

// rateSeed is one statutory contribution tier.
type rateSeed struct {
	Tier         string
	EmployeeRate float64
	EmployerRate float64
}

var defaultSSNITRates = []rateSeed{
	{Tier: "TIER_1", EmployeeRate: 5.5, EmployerRate: 13.0},
	{Tier: "TIER_2", EmployeeRate: 0, EmployerRate: 5.0},
}

// Default overtime multipliers applied to the hourly basic rate.
const (
	defaultWeekdayOvertimeRate = 1.5
	defaultWeekendOvertimeRate = 2.0
)

// componentSeed is one entry of the fixed pay-component catalog created in
// phase 3, before the band/allowance components are derived.
type componentSeed struct {
	Code    string
	Name    string
	Kind    model.ComponentKind
	Taxable bool
}

var componentCatalog = []componentSeed{
	{Code: "BASIC", Name: "Basic Salary", Kind: model.ComponentKindEarning, Taxable: true},
	{Code: "OVERTIME", Name: "Overtime", Kind: model.ComponentKindEarning, Taxable: true},
	{Code: "BONUS", Name: "Bonus", Kind: model.ComponentKindEarning, Taxable: true},
	{Code: "COMMISSION", Name: "Commission", Kind: model.ComponentKindEarning, Taxable: true},
	{Code: "ACTING-ALW", Name: "Acting Allowance", Kind: model.ComponentKindEarning, Taxable: true},
	{Code: "RESP-ALW", Name: "Responsibility Allowance", Kind: model.ComponentKindEarning, Taxable: true},
	{Code: "CAR-MAINT", Name: "Car Maintenance Allowance", Kind: model.ComponentKindEarning, Taxable: false},
	{Code: "FUEL-ALW", Name: "Fuel Allowance", Kind: model.ComponentKindEarning, Taxable: false},
	{Code: "SSNIT-EE", Name: "SSNIT Employee Contribution", Kind: model.ComponentKindDeduction, Taxable: false},
	{Code: "SSNIT-ER", Name: "SSNIT Employer Contribution", Kind: model.ComponentKindDeduction, Taxable: false},
	{Code: "TIER2", Name: "Tier 2 Occupational Pension", Kind: model.ComponentKindDeduction, Taxable: false},
	{Code: "PAYE", Name: "Income Tax (PAYE)", Kind: model.ComponentKindDeduction, Taxable: false},
	{Code: "PF", Name: "Provident Fund", Kind: model.ComponentKindDeduction, Taxable: false},
	{Code: "UNION-DUES", Name: "Union Dues", Kind: model.ComponentKindDeduction, Taxable: false},
	{Code: "RENT", Name: "Rent Deduction", Kind: model.ComponentKindDeduction, Taxable: false},
	{Code: "LOAN", Name: "Loan Repayment", Kind: model.ComponentKindDeduction, Taxable: false},
}

// Amounts for individual deduction transactions created in phase 5.
// Provident fund is a percentage of basic salary; union dues are a flat
// monthly amount; rent comes from the roster row.
const (
	providentFundRate = 5.0
	unionDuesMonthly  = 10.00
)

// bandComponentCode derives a stable component code for a band/allowance
// pair, e.g. ("Band A", "Responsibility") -> "BAND-A-RESPONSIBILITY".
func bandComponentCode(band, allowanceType string) string {
	normalize := func(s string) string {
		s = strings.ToUpper(strings.TrimSpace(s))
		return strings.Map(func(r rune) rune {
			switch {
			case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
				return r
			default:
				return '-'
			}
		}, s)
	}
	return fmt.Sprintf("%s-%s", normalize(band), normalize(allowanceType))
}
