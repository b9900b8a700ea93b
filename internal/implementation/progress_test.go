package implementation

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekowhinson/HRMS-sub007/internal/payroll/model"
)

func TestProgressReporter_AnalyzedTask(t *testing.T) {
	db := newTestDB(t)
	task := analyzedTask(t, db)

	reporter := NewProgressReporter(NewTaskStore(db))
	report, err := reporter.GetProgress(context.Background(), testCompanyID, task.ID)
	require.NoError(t, err)

	assert.Equal(t, model.TaskStatusAnalyzed, report.Status)
	assert.Equal(t, 0, report.Phase)
	assert.Equal(t, 0, report.OverallProgress)
	assert.Nil(t, report.Results, "results appear only on terminal tasks")
	require.NotNil(t, report.Analysis)
	assert.Equal(t, 3, report.Analysis.EmployeeCount)
}

func TestProgressReporter_CompletedTask(t *testing.T) {
	db := newTestDB(t)
	seedEmployees(t, db, "EMP-001", "EMP-002", "EMP-003")
	task := runFixtureTask(t, db)

	reporter := NewProgressReporter(NewTaskStore(db))
	report, err := reporter.GetProgress(context.Background(), testCompanyID, task.ID)
	require.NoError(t, err)

	assert.Equal(t, model.TaskStatusCompleted, report.Status)
	assert.Equal(t, 100, report.OverallProgress)
	assert.NotEmpty(t, report.Log)
	require.NotNil(t, report.StartedAt)
	require.NotNil(t, report.FinishedAt)

	require.NotNil(t, report.Results)
	assert.Equal(t, 8, report.Results.TransactionsCreated)
	assert.Equal(t, 1, report.Results.ErrorCount)
}

func TestProgressReporter_CapsErrorList(t *testing.T) {
	db := newTestDB(t)
	store := NewTaskStore(db)
	ctx := context.Background()

	issues := make([]model.RowIssue, 0, maxDisplayedErrors+25)
	for i := 0; i < maxDisplayedErrors+25; i++ {
		issues = append(issues, model.RowIssue{
			Staff:   fmt.Sprintf("EMP-%03d", i),
			Message: "employee not found",
		})
	}

	task := analyzedTask(t, db)
	claimed, err := store.ClaimForExecution(ctx, testCompanyID, task.ID)
	require.NoError(t, err)
	claimed.Results = &model.ExecutionResult{Errors: issues}
	require.NoError(t, store.Complete(ctx, claimed))

	reporter := NewProgressReporter(store)
	report, err := reporter.GetProgress(ctx, testCompanyID, task.ID)
	require.NoError(t, err)

	require.NotNil(t, report.Results)
	assert.Len(t, report.Results.Errors, maxDisplayedErrors)
	assert.Equal(t, maxDisplayedErrors+25, report.Results.ErrorCount)
	assert.Equal(t, "EMP-000", report.Results.Errors[0].Staff)
}

func TestProgressReporter_UnknownTask(t *testing.T) {
	db := newTestDB(t)
	task := analyzedTask(t, db)

	reporter := NewProgressReporter(NewTaskStore(db))
	var notFound *TaskNotFoundError
	_, err := reporter.GetProgress(context.Background(), "another-company", task.ID)
	require.ErrorAs(t, err, &notFound)
}
