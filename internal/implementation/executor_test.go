package implementation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ekowhinson/HRMS-sub007/internal/implementation/ingest"
	"github.com/ekowhinson/HRMS-sub007/internal/payroll/model"
)

// runFixtureTask claims and executes an ANALYZED fixture task end to end.
func runFixtureTask(t *testing.T, db *gorm.DB) *model.ImplementationTask {
	t.Helper()
	ctx := context.Background()
	store := NewTaskStore(db)
	executor := NewExecutor(db, store, 4)

	task := analyzedTask(t, db)
	claimed, err := store.ClaimForExecution(ctx, testCompanyID, task.ID)
	require.NoError(t, err)
	return executor.Run(ctx, claimed)
}

func TestExecutor_FullRun(t *testing.T) {
	db := newTestDB(t)
	seedEmployees(t, db, "EMP-001", "EMP-002", "EMP-003")

	task := runFixtureTask(t, db)

	assert.Equal(t, model.TaskStatusCompleted, task.Status)
	assert.Equal(t, 5, task.Phase)
	assert.Equal(t, 100, task.PhaseProgress)
	assert.Equal(t, 100, task.OverallProgress)
	assert.NotEmpty(t, task.Log)

	require.NotNil(t, task.Results)
	results := task.Results
	assert.Equal(t, 3, results.EmployeesGraded)
	assert.Equal(t, 2, results.NIANumbersUpdated, "EMP-002 has no NIA number")
	assert.Equal(t, 3, results.BankAccountsUpdated)
	assert.Equal(t, len(defaultTaxBrackets), results.TaxBracketsCreated)
	assert.Equal(t, len(defaultSSNITRates), results.SSNITRatesCreated)
	assert.True(t, results.OvertimeConfigCreated)
	assert.Equal(t, len(componentCatalog)+3, results.ComponentsCreated)
	assert.Equal(t, 3, results.SalariesCreated)

	// Grade-based: 2 Band A allowances x 2 employees + 1 Band B allowance
	// x 1 employee. Individual: PF and union dues for EMP-001, rent for
	// EMP-002.
	assert.Equal(t, 8, results.TransactionsCreated)

	// The only row error is the missing NIA number.
	require.Len(t, results.Errors, 1)
	assert.Equal(t, "EMP-002", results.Errors[0].Staff)
	assert.Contains(t, results.Errors[0].Message, "missing NIA number")

	// The terminal state is persisted, not just in memory.
	loaded, err := NewTaskStore(db).GetByID(context.Background(), testCompanyID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, loaded.Status)
	require.NotNil(t, loaded.Results)
	assert.Equal(t, 8, loaded.Results.TransactionsCreated)
}

func TestExecutor_EmployeeUpdates(t *testing.T) {
	db := newTestDB(t)
	seedEmployees(t, db, "EMP-001", "EMP-002", "EMP-003")

	task := runFixtureTask(t, db)

	var employee model.Employee
	require.NoError(t, db.First(&employee, "staff_number = ?", "EMP-001").Error)
	assert.Equal(t, "Band A", employee.Band)
	assert.Equal(t, "1", employee.Level)
	assert.Equal(t, "1", employee.Notch)
	assert.Equal(t, "GHA-000000001-1", employee.NIANumber)
	assert.Equal(t, "GCB Bank", employee.BankName)
	assert.Equal(t, "1010001", employee.AccountNumber)
	require.NotNil(t, employee.ImplementedByTaskID)
	assert.Equal(t, task.ID, *employee.ImplementedByTaskID)

	var salary model.EmployeeSalary
	require.NoError(t, db.First(&salary, "employee_id = ?", employee.ID).Error)
	assert.Equal(t, 4000.0, salary.BasicSalary)
	assert.Equal(t, "GHS", salary.Currency)
	require.NotNil(t, salary.SourceTaskID)
	assert.Equal(t, task.ID, *salary.SourceTaskID)
}

func TestExecutor_IndividualDeductions(t *testing.T) {
	db := newTestDB(t)
	seedEmployees(t, db, "EMP-001", "EMP-002", "EMP-003")

	runFixtureTask(t, db)

	amountFor := func(staffNumber, code string) float64 {
		var employee model.Employee
		require.NoError(t, db.First(&employee, "staff_number = ?", staffNumber).Error)
		var component model.PayComponent
		require.NoError(t, db.First(&component, "company_id = ? AND code = ?", testCompanyID, code).Error)
		var txn model.PayrollTransaction
		require.NoError(t, db.First(&txn, "employee_id = ? AND component_id = ?", employee.ID, component.ID).Error)
		assert.Equal(t, model.TransactionKindIndividual, txn.Kind)
		return txn.Amount
	}

	// Provident fund is 5% of the 4000 basic resolved from the scale.
	assert.Equal(t, 200.0, amountFor("EMP-001", "PF"))
	assert.Equal(t, unionDuesMonthly, amountFor("EMP-001", "UNION-DUES"))
	assert.Equal(t, 250.0, amountFor("EMP-002", "RENT"))
}

func TestExecutor_MissingEmployeeIsRowError(t *testing.T) {
	db := newTestDB(t)
	// EMP-003 is never seeded, so its row fails in phase 1 and produces
	// no salary or transactions.
	seedEmployees(t, db, "EMP-001", "EMP-002")

	task := runFixtureTask(t, db)

	assert.Equal(t, model.TaskStatusCompleted, task.Status)
	require.NotNil(t, task.Results)
	assert.Equal(t, 2, task.Results.EmployeesGraded)
	assert.Equal(t, 2, task.Results.SalariesCreated)

	var messages []string
	for _, issue := range task.Results.Errors {
		messages = append(messages, issue.Staff+": "+issue.Message)
	}
	assert.Contains(t, messages, "EMP-003: employee not found")
}

func TestExecutor_SkipsAnalysisBlockedRows(t *testing.T) {
	db := newTestDB(t)
	seedEmployees(t, db, "EMP-001", "EMP-002", "EMP-003", "EMP-009")

	ctx := context.Background()
	store := NewTaskStore(db)
	executor := NewExecutor(db, store, 2)

	wb := fixtureWorkbook()
	wb.Sheets[1].Rows = append(wb.Sheets[1].Rows, ingest.StaffRow{
		Sheet: "Junior Staff", Row: 3,
		StaffNumber: "EMP-009", Band: "Band Z", Level: "1", Notch: "1",
	})
	task := &model.ImplementationTask{
		CompanyID: testCompanyID,
		Status:    model.TaskStatusAnalyzed,
		Analysis:  NewAnalyzer().Analyze(wb),
		Workbook:  wb,
	}
	require.NoError(t, store.Create(ctx, task))

	claimed, err := store.ClaimForExecution(ctx, testCompanyID, task.ID)
	require.NoError(t, err)
	executor.Run(ctx, claimed)

	assert.Equal(t, model.TaskStatusCompleted, claimed.Status)
	assert.Equal(t, 3, claimed.Results.EmployeesGraded, "the blocked row is skipped")

	var employee model.Employee
	require.NoError(t, db.First(&employee, "staff_number = ?", "EMP-009").Error)
	assert.Empty(t, employee.Band)
	assert.Nil(t, employee.ImplementedByTaskID)
}

func TestExecutor_SeedIsIdempotentAcrossRuns(t *testing.T) {
	db := newTestDB(t)
	seedEmployees(t, db, "EMP-001", "EMP-002", "EMP-003")

	runFixtureTask(t, db)

	// Pre-existing brackets from the first run are replaced, not doubled.
	ctx := context.Background()
	store := NewTaskStore(db)
	executor := NewExecutor(db, store, 2)
	task := analyzedTask(t, db)
	claimed, err := store.ClaimForExecution(ctx, testCompanyID, task.ID)
	require.NoError(t, err)
	executor.Run(ctx, claimed)

	var brackets int64
	require.NoError(t, db.Model(&model.TaxBracket{}).Where("company_id = ?", testCompanyID).Count(&brackets).Error)
	assert.EqualValues(t, len(defaultTaxBrackets), brackets)

	var overtime int64
	require.NoError(t, db.Model(&model.OvertimeConfig{}).Where("company_id = ?", testCompanyID).Count(&overtime).Error)
	assert.EqualValues(t, 1, overtime)
	assert.False(t, claimed.Results.OvertimeConfigCreated, "the first run's config is kept")

	// Components already exist, so the second run creates none.
	var components int64
	require.NoError(t, db.Model(&model.PayComponent{}).Where("company_id = ?", testCompanyID).Count(&components).Error)
	assert.EqualValues(t, len(componentCatalog)+3, components)
	assert.Zero(t, claimed.Results.ComponentsCreated)
}

func TestExecutor_FullOverallProgressOnlyWhenCompleted(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := NewTaskStore(db)
	executor := NewExecutor(db, store, 1)

	task := analyzedTask(t, db)
	claimed, err := store.ClaimForExecution(ctx, testCompanyID, task.ID)
	require.NoError(t, err)

	// Drive the last unit of the final phase by hand: even with phase
	// progress at 100, a poller reading the row mid-run must not see an
	// overall progress of 100 next to a RUNNING status.
	r := &run{ctx: ctx, exec: executor, task: claimed, result: &model.ExecutionResult{}}
	r.beginPhase(len(phaseWeights), 1, "creating payroll transactions")
	r.unitDone()

	mid, err := store.GetByID(ctx, testCompanyID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusRunning, mid.Status)
	assert.Equal(t, 100, mid.PhaseProgress)
	assert.Less(t, mid.OverallProgress, 100)

	r.complete()
	done, err := store.GetByID(ctx, testCompanyID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, done.Status)
	assert.Equal(t, 100, done.OverallProgress)
}
