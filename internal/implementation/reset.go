package implementation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/ekowhinson/HRMS-sub007/internal/payroll/model"
)

// ResetSummary reports what a reset removed, per table.
type ResetSummary struct {
	TransactionsDeleted   int64 `json:"transactionsDeleted"`
	SalariesDeleted       int64 `json:"salariesDeleted"`
	ComponentsDeleted     int64 `json:"componentsDeleted"`
	TaxBracketsDeleted    int64 `json:"taxBracketsDeleted"`
	SSNITRatesDeleted     int64 `json:"ssnitRatesDeleted"`
	OvertimeConfigDeleted int64 `json:"overtimeConfigDeleted"`
	EmployeesCleared      int64 `json:"employeesCleared"`
}

// ResetController removes everything the pipeline created for a company so
// a corrected workbook can be run from scratch. Only rows stamped with a
// source task id are touched; payroll data that existed before any run is
// never deleted. Task records survive as run history.
type ResetController struct {
	db *gorm.DB
}

func NewResetController(db *gorm.DB) *ResetController {
	return &ResetController{db: db}
}

// Reset deletes pipeline-created payroll data and clears pipeline-written
// employee fields, all in one transaction. It refuses to run while an
// implementation task is RUNNING. Resetting an already clean company is a
// no-op, not an error.
func (c *ResetController) Reset(ctx context.Context, companyID string) (*ResetSummary, error) {
	summary := &ResetSummary{}

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The RUNNING guard lives inside the wipe transaction. Touching
		// the company's task rows first takes their row locks, so a
		// concurrent ClaimForExecution serializes against the wipe:
		// whichever transaction commits first, the other observes its
		// outcome instead of racing past the check.
		if err := tx.Model(&model.ImplementationTask{}).
			Where("company_id = ?", companyID).
			Update("updated_at", gorm.Expr("updated_at")).Error; err != nil {
			return fmt.Errorf("failed to lock implementation tasks: %w", err)
		}

		var running int64
		if err := tx.Model(&model.ImplementationTask{}).
			Where("company_id = ? AND status = ?", companyID, model.TaskStatusRunning).
			Count(&running).Error; err != nil {
			return fmt.Errorf("failed to check for running tasks: %w", err)
		}
		if running > 0 {
			return &ConflictError{CompanyID: companyID}
		}

		// Children before parents: transactions reference components.
		steps := []struct {
			name  string
			model any
			count *int64
		}{
			{"payroll transactions", &model.PayrollTransaction{}, &summary.TransactionsDeleted},
			{"employee salaries", &model.EmployeeSalary{}, &summary.SalariesDeleted},
			{"pay components", &model.PayComponent{}, &summary.ComponentsDeleted},
			{"tax brackets", &model.TaxBracket{}, &summary.TaxBracketsDeleted},
			{"ssnit rates", &model.SSNITRate{}, &summary.SSNITRatesDeleted},
			{"overtime configs", &model.OvertimeConfig{}, &summary.OvertimeConfigDeleted},
		}
		for _, step := range steps {
			result := tx.Where("company_id = ? AND source_task_id IS NOT NULL", companyID).Delete(step.model)
			if result.Error != nil {
				return fmt.Errorf("failed to delete %s: %w", step.name, result.Error)
			}
			*step.count = result.RowsAffected
		}

		result := tx.Model(&model.Employee{}).
			Where("company_id = ? AND implemented_by_task_id IS NOT NULL", companyID).
			Updates(map[string]any{
				"band":                   "",
				"level":                  "",
				"notch":                  "",
				"nia_number":             "",
				"bank_name":              "",
				"bank_branch":            "",
				"account_number":         "",
				"implemented_by_task_id": nil,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to clear employee implementation fields: %w", result.Error)
		}
		summary.EmployeesCleared = result.RowsAffected

		return nil
	})
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			return nil, conflict
		}
		return nil, fmt.Errorf("failed to reset implementation data: %w", err)
	}

	slog.InfoContext(ctx, "implementation data reset",
		"companyID", companyID,
		"transactions", summary.TransactionsDeleted,
		"salaries", summary.SalariesDeleted,
		"components", summary.ComponentsDeleted,
		"employeesCleared", summary.EmployeesCleared)

	return summary, nil
}
