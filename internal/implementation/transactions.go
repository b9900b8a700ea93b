package implementation

import (
	"fmt"
	"math"

	"github.com/ekowhinson/HRMS-sub007/internal/payroll/model"
)

// createTransactions is phase 5: grade-based transactions (one per
// allowance-structure row per employee on that band) and individual
// deductions (provident fund, union dues, rent). Everything references
// components created in phase 3 and employees graded in phase 1.
func (e *Executor) createTransactions(r *run) error {
	companyID := r.task.CompanyID
	taskID := r.task.ID
	wb := r.task.Workbook

	// Resolved by code rather than source task: a component may predate
	// this run when phase 3 found it already present.
	var components []model.PayComponent
	if err := e.db.WithContext(r.ctx).
		Where("company_id = ?", companyID).
		Find(&components).Error; err != nil {
		return fmt.Errorf("phase 5: failed to load pay components: %w", err)
	}
	componentsByCode := make(map[string]model.PayComponent, len(components))
	for _, c := range components {
		componentsByCode[c.Code] = c
	}

	var employees []model.Employee
	if err := e.db.WithContext(r.ctx).
		Where("company_id = ? AND implemented_by_task_id = ?", companyID, taskID).
		Find(&employees).Error; err != nil {
		return fmt.Errorf("phase 5: failed to load graded employees: %w", err)
	}
	employeesByBand := make(map[string][]model.Employee)
	employeesByStaff := make(map[string]model.Employee, len(employees))
	for _, emp := range employees {
		employeesByBand[emp.Band] = append(employeesByBand[emp.Band], emp)
		employeesByStaff[emp.StaffNumber] = emp
	}

	// Deduplicate the allowance structure on (band, type); the first amount
	// wins, matching how the band components were derived.
	type allowance struct {
		band, allowanceType string
		amount              float64
	}
	seen := make(map[string]bool)
	var allowances []allowance
	for _, row := range wb.Allowances {
		if row.Band == "" || row.AllowanceType == "" {
			continue
		}
		key := bandComponentCode(row.Band, row.AllowanceType)
		if seen[key] {
			continue
		}
		seen[key] = true
		allowances = append(allowances, allowance{band: row.Band, allowanceType: row.AllowanceType, amount: row.MonthlyAmount})
	}

	gradeUnits := 0
	for _, al := range allowances {
		gradeUnits += len(employeesByBand[al.band])
	}

	// Individual deductions only apply to roster rows whose employee was
	// actually graded; rows that failed phase 1 were already reported there.
	individualUnits := 0
	for _, sheet := range wb.Sheets {
		for _, row := range sheet.Rows {
			if _, ok := employeesByStaff[row.StaffNumber]; !ok {
				continue
			}
			if row.ProvidentFund {
				individualUnits++
			}
			if row.UnionName != "" {
				individualUnits++
			}
			if row.MonthlyRent > 0 {
				individualUnits++
			}
		}
	}

	r.beginPhase(5, gradeUnits+individualUnits, "creating payroll transactions")

	createTxn := func(emp model.Employee, component model.PayComponent, kind model.TransactionKind, amount float64) {
		txn := model.PayrollTransaction{
			CompanyID:    companyID,
			EmployeeID:   emp.ID,
			ComponentID:  component.ID,
			Kind:         kind,
			Amount:       amount,
			SourceTaskID: &taskID,
		}
		if err := e.db.WithContext(r.ctx).Create(&txn).Error; err != nil {
			r.rowError(model.RowIssue{
				Staff:   emp.StaffNumber,
				Message: fmt.Sprintf("failed to create %s transaction: %v", component.Code, err),
			})
		} else {
			r.result.TransactionsCreated++
		}
		r.unitDone()
	}

	for _, al := range allowances {
		component, ok := componentsByCode[bandComponentCode(al.band, al.allowanceType)]
		if !ok {
			// Phase 3 creates a component for every band/type pair in the
			// structure, so a miss here means inconsistent task state.
			return fmt.Errorf("phase 5: no component for band %q allowance %q", al.band, al.allowanceType)
		}
		for _, emp := range employeesByBand[al.band] {
			createTxn(emp, component, model.TransactionKindGradeBased, al.amount)
		}
	}
	r.logf("created grade-based transactions for %d allowance rows", len(allowances))

	scale := buildScaleIndex(wb)
	pfComponent, pfOK := componentsByCode["PF"]
	unionComponent, unionOK := componentsByCode["UNION-DUES"]
	rentComponent, rentOK := componentsByCode["RENT"]
	if !pfOK || !unionOK || !rentOK {
		return fmt.Errorf("phase 5: deduction components missing from catalog")
	}

	for _, sheet := range wb.Sheets {
		for _, row := range sheet.Rows {
			emp, ok := employeesByStaff[row.StaffNumber]
			if !ok {
				continue
			}

			if row.ProvidentFund {
				if basic, ok := scale[scaleKey(emp.Band, emp.Level, emp.Notch)]; ok {
					createTxn(emp, pfComponent, model.TransactionKindIndividual, round2(basic*providentFundRate/100))
				} else {
					r.rowError(rowIssue(row, "cannot compute provident fund without a salary scale entry"))
					r.unitDone()
				}
			}
			if row.UnionName != "" {
				createTxn(emp, unionComponent, model.TransactionKindIndividual, unionDuesMonthly)
			}
			if row.MonthlyRent > 0 {
				createTxn(emp, rentComponent, model.TransactionKindIndividual, row.MonthlyRent)
			}
		}
	}

	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
