package implementation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"gorm.io/gorm"

	"github.com/ekowhinson/HRMS-sub007/internal/implementation/ingest"
	"github.com/ekowhinson/HRMS-sub007/internal/payroll/model"
)

// phaseWeights is the contribution of each phase to overall progress.
// Transaction creation dominates wall-clock time and gets the largest share.
var phaseWeights = [5]int{15, 10, 15, 20, 40}

// Executor runs the five ordered phases of a claimed implementation task.
// Phase order is a correctness invariant: later phases assume earlier
// phases' side effects exist (salaries need grading, transactions need
// components).
type Executor struct {
	db            *gorm.DB
	store         *TaskStore
	salaryWorkers int
}

func NewExecutor(db *gorm.DB, store *TaskStore, salaryWorkers int) *Executor {
	if salaryWorkers < 1 {
		salaryWorkers = 1
	}
	return &Executor{db: db, store: store, salaryWorkers: salaryWorkers}
}

// Run executes phases 1-5 of a claimed task. Row-level failures are
// accumulated and the run continues; a fatal error moves the task to
// FAILED immediately without rolling back committed phases. Run never
// returns an error: the outcome lives on the task.
func (e *Executor) Run(ctx context.Context, task *model.ImplementationTask) *model.ImplementationTask {
	r := &run{
		ctx:    ctx,
		exec:   e,
		task:   task,
		result: &model.ExecutionResult{Errors: []model.RowIssue{}},
	}

	if task.Workbook == nil || task.Analysis == nil {
		r.fail(fmt.Errorf("task %s has no workbook snapshot", task.ID))
		return task
	}

	phases := []struct {
		name string
		fn   func(*run) error
	}{
		{"update employee data", e.updateEmployeeData},
		{"seed payroll configuration", e.seedPayrollConfiguration},
		{"create pay components", e.createPayComponents},
		{"create employee salaries", e.createEmployeeSalaries},
		{"create payroll transactions", e.createTransactions},
	}

	for _, p := range phases {
		if err := p.fn(r); err != nil {
			slog.ErrorContext(ctx, "implementation phase failed",
				"taskID", task.ID,
				"phase", task.Phase,
				"name", p.name,
				"error", err)
			r.fail(err)
			return task
		}
	}

	r.complete()
	slog.InfoContext(ctx, "implementation run completed",
		"taskID", task.ID,
		"employees", r.result.EmployeesGraded,
		"transactions", r.result.TransactionsCreated,
		"rowErrors", len(r.result.Errors))
	return task
}

// run carries the mutable state of one execution: the task being advanced,
// the accumulating result, and the progress counters. Progress only ever
// moves forward; rowError/unitDone are safe to call from parallel workers.
type run struct {
	ctx    context.Context
	exec   *Executor
	task   *model.ImplementationTask
	result *model.ExecutionResult

	mu         sync.Mutex // guards task.Log, task progress fields, result.Errors
	phase      int        // 1-based
	totalUnits int
	doneUnits  atomic.Int64
}

// beginPhase resets the per-phase counters and logs the phase start.
func (r *run) beginPhase(phase int, totalUnits int, message string) {
	r.phase = phase
	r.totalUnits = totalUnits
	r.doneUnits.Store(0)

	r.mu.Lock()
	r.task.Phase = phase
	r.task.PhaseProgress = 0
	r.task.OverallProgress = weightBefore(phase)
	r.task.Log = append(r.task.Log, fmt.Sprintf("phase %d/%d: %s (%d units)", phase, len(phaseWeights), message, totalUnits))
	r.mu.Unlock()

	r.save()
}

// unitDone advances the progress counters by one unit of work and persists
// them. The atomic counter keeps phase progress monotone under parallel
// workers; the mutex serializes the task mutation and the store write.
func (r *run) unitDone() {
	done := r.doneUnits.Add(1)

	phasePct := 100
	if r.totalUnits > 0 {
		phasePct = int(done) * 100 / r.totalUnits
	}
	overall := weightBefore(r.phase) + phaseWeights[r.phase-1]*phasePct/100
	// An overall progress of 100 is written only by the terminal Complete
	// update, so pollers can treat 100 as "done". The last unit of the
	// final phase would otherwise land on 100 while the status is still
	// RUNNING.
	if overall > 99 {
		overall = 99
	}

	r.mu.Lock()
	if phasePct > r.task.PhaseProgress {
		r.task.PhaseProgress = phasePct
	}
	if overall > r.task.OverallProgress {
		r.task.OverallProgress = overall
	}
	r.mu.Unlock()

	r.save()
}

// rowError records a non-fatal row failure and keeps going.
func (r *run) rowError(issue model.RowIssue) {
	r.mu.Lock()
	r.result.Errors = append(r.result.Errors, issue)
	r.task.Log = append(r.task.Log, fmt.Sprintf("row error [%s:%d %s]: %s", issue.Sheet, issue.Row, issue.Staff, issue.Message))
	r.mu.Unlock()
}

func (r *run) logf(format string, args ...any) {
	r.mu.Lock()
	r.task.Log = append(r.task.Log, fmt.Sprintf(format, args...))
	r.mu.Unlock()
	r.save()
}

func (r *run) save() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.exec.store.SaveProgress(r.ctx, r.task); err != nil {
		slog.WarnContext(r.ctx, "failed to persist task progress",
			"taskID", r.task.ID,
			"error", err)
	}
}

func (r *run) complete() {
	r.mu.Lock()
	r.task.Results = r.result
	r.task.Log = append(r.task.Log, "implementation completed")
	r.mu.Unlock()
	if err := r.exec.store.Complete(r.ctx, r.task); err != nil {
		slog.ErrorContext(r.ctx, "failed to finalize completed task",
			"taskID", r.task.ID,
			"error", err)
	}
}

func (r *run) fail(cause error) {
	r.mu.Lock()
	r.task.Results = r.result
	r.task.Log = append(r.task.Log, fmt.Sprintf("implementation failed: %v", cause))
	r.mu.Unlock()
	if err := r.exec.store.Fail(r.ctx, r.task, cause); err != nil {
		slog.ErrorContext(r.ctx, "failed to finalize failed task",
			"taskID", r.task.ID,
			"error", err)
	}
}

// weightBefore returns the overall progress accumulated by all phases
// before the given 1-based phase.
func weightBefore(phase int) int {
	total := 0
	for i := 0; i < phase-1 && i < len(phaseWeights); i++ {
		total += phaseWeights[i]
	}
	return total
}

// updateEmployeeData is phase 1: per roster row, upsert grading, NIA and
// bank details onto the existing employee record. Rows the analyzer
// flagged as blocked are skipped and re-reported; missing employees and
// missing optional fields are row errors, not fatal.
func (e *Executor) updateEmployeeData(r *run) error {
	wb := r.task.Workbook
	rows := make([]ingest.StaffRow, 0, wb.StaffCount())
	for _, sheet := range wb.Sheets {
		rows = append(rows, sheet.Rows...)
	}
	r.beginPhase(1, len(rows), "updating employee records")

	bands := r.task.Analysis.BandsFound
	taskID := r.task.ID

	for _, row := range rows {
		if issue := blockingIssue(row, bands); issue != nil {
			issue.Message = "skipped: " + issue.Message
			r.rowError(*issue)
			r.unitDone()
			continue
		}

		var employee model.Employee
		err := e.db.WithContext(r.ctx).
			First(&employee, "company_id = ? AND staff_number = ?", r.task.CompanyID, row.StaffNumber).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				r.rowError(rowIssue(row, "employee not found"))
				r.unitDone()
				continue
			}
			return fmt.Errorf("phase 1: failed to look up employee %s: %w", row.StaffNumber, err)
		}

		employee.Band = row.Band
		employee.Level = row.Level
		employee.Notch = row.Notch
		employee.ImplementedByTaskID = &taskID
		r.result.EmployeesGraded++

		if row.NIANumber != "" {
			employee.NIANumber = row.NIANumber
			r.result.NIANumbersUpdated++
		} else {
			r.rowError(rowIssue(row, "missing NIA number"))
		}

		if row.AccountNumber != "" && row.BankName != "" {
			employee.BankName = row.BankName
			employee.BankBranch = row.BankBranch
			employee.AccountNumber = row.AccountNumber
			r.result.BankAccountsUpdated++
		} else {
			r.rowError(rowIssue(row, "missing bank account details"))
		}

		if err := e.db.WithContext(r.ctx).Save(&employee).Error; err != nil {
			return fmt.Errorf("phase 1: failed to update employee %s: %w", row.StaffNumber, err)
		}
		r.unitDone()
	}

	return nil
}

// seedPayrollConfiguration is phase 2: tax brackets, SSNIT rates and the
// default overtime configuration. Delete-then-create keeps the bracket and
// rate tables idempotent; any database failure here is fatal because every
// later phase depends on this reference data.
func (e *Executor) seedPayrollConfiguration(r *run) error {
	units := len(defaultTaxBrackets) + len(defaultSSNITRates) + 1
	r.beginPhase(2, units, "seeding payroll configuration")

	companyID := r.task.CompanyID
	taskID := r.task.ID

	err := e.db.WithContext(r.ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("company_id = ?", companyID).Delete(&model.TaxBracket{}).Error; err != nil {
			return err
		}
		return tx.Where("company_id = ?", companyID).Delete(&model.SSNITRate{}).Error
	})
	if err != nil {
		return fmt.Errorf("phase 2: failed to clear existing configuration: %w", err)
	}

	for i, seed := range defaultTaxBrackets {
		bracket := model.TaxBracket{
			CompanyID:        companyID,
			Ordinal:          i + 1,
			ChargeableAmount: seed.ChargeableAmount,
			Rate:             seed.Rate,
			SourceTaskID:     &taskID,
		}
		if err := e.db.WithContext(r.ctx).Create(&bracket).Error; err != nil {
			return fmt.Errorf("phase 2: failed to create tax bracket %d: %w", i+1, err)
		}
		r.result.TaxBracketsCreated++
		r.unitDone()
	}

	for _, seed := range defaultSSNITRates {
		rate := model.SSNITRate{
			CompanyID:    companyID,
			Tier:         seed.Tier,
			EmployeeRate: seed.EmployeeRate,
			EmployerRate: seed.EmployerRate,
			SourceTaskID: &taskID,
		}
		if err := e.db.WithContext(r.ctx).Create(&rate).Error; err != nil {
			return fmt.Errorf("phase 2: failed to create SSNIT rate %s: %w", seed.Tier, err)
		}
		r.result.SSNITRatesCreated++
		r.unitDone()
	}

	var existing int64
	if err := e.db.WithContext(r.ctx).Model(&model.OvertimeConfig{}).
		Where("company_id = ?", companyID).Count(&existing).Error; err != nil {
		return fmt.Errorf("phase 2: failed to check overtime configuration: %w", err)
	}
	if existing == 0 {
		overtime := model.OvertimeConfig{
			CompanyID:    companyID,
			WeekdayRate:  defaultWeekdayOvertimeRate,
			WeekendRate:  defaultWeekendOvertimeRate,
			SourceTaskID: &taskID,
		}
		if err := e.db.WithContext(r.ctx).Create(&overtime).Error; err != nil {
			return fmt.Errorf("phase 2: failed to create overtime configuration: %w", err)
		}
		r.result.OvertimeConfigCreated = true
	}
	r.unitDone()

	return nil
}
