package implementation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekowhinson/HRMS-sub007/internal/payroll/model"
)

func TestTaskStore_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	store := NewTaskStore(db)
	ctx := context.Background()

	task := analyzedTask(t, db)
	require.NotEqual(t, uuid.Nil, task.ID)

	loaded, err := store.GetByID(ctx, testCompanyID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusAnalyzed, loaded.Status)
	assert.False(t, loaded.CreatedAt.IsZero(), "timestamps must survive the round trip on every dialect")
	require.NotNil(t, loaded.Analysis)
	assert.Equal(t, 3, loaded.Analysis.EmployeeCount)
	require.NotNil(t, loaded.Workbook)
	assert.Equal(t, 3, loaded.Workbook.StaffCount())
}

func TestTaskStore_GetByID_WrongCompany(t *testing.T) {
	db := newTestDB(t)
	store := NewTaskStore(db)

	task := analyzedTask(t, db)

	var notFound *TaskNotFoundError
	_, err := store.GetByID(context.Background(), "another-company", task.ID)
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, task.ID, notFound.TaskID)
}

func TestTaskStore_ClaimForExecution(t *testing.T) {
	db := newTestDB(t)
	store := NewTaskStore(db)
	ctx := context.Background()

	task := analyzedTask(t, db)

	claimed, err := store.ClaimForExecution(ctx, testCompanyID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusRunning, claimed.Status)
	assert.Equal(t, 1, claimed.Phase)
	require.NotNil(t, claimed.StartedAt)
}

func TestTaskStore_ClaimForExecution_Unknown(t *testing.T) {
	db := newTestDB(t)
	store := NewTaskStore(db)

	var notFound *TaskNotFoundError
	_, err := store.ClaimForExecution(context.Background(), testCompanyID, uuid.New())
	require.ErrorAs(t, err, &notFound)
}

func TestTaskStore_ClaimForExecution_OnlyOnce(t *testing.T) {
	db := newTestDB(t)
	store := NewTaskStore(db)
	ctx := context.Background()

	task := analyzedTask(t, db)
	claimed, err := store.ClaimForExecution(ctx, testCompanyID, task.ID)
	require.NoError(t, err)
	require.NoError(t, store.Complete(ctx, claimed))

	// A COMPLETED task can never be claimed again.
	var invalidState *InvalidStateError
	_, err = store.ClaimForExecution(ctx, testCompanyID, task.ID)
	require.ErrorAs(t, err, &invalidState)
	assert.Equal(t, model.TaskStatusCompleted, invalidState.Status)
}

func TestTaskStore_ClaimForExecution_CompanyConflict(t *testing.T) {
	db := newTestDB(t)
	store := NewTaskStore(db)
	ctx := context.Background()

	first := analyzedTask(t, db)
	second := analyzedTask(t, db)

	_, err := store.ClaimForExecution(ctx, testCompanyID, first.ID)
	require.NoError(t, err)

	var conflict *ConflictError
	_, err = store.ClaimForExecution(ctx, testCompanyID, second.ID)
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, testCompanyID, conflict.CompanyID)

	// The second task is untouched and still claimable later.
	reloaded, err := store.GetByID(ctx, testCompanyID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusAnalyzed, reloaded.Status)
}

func TestTaskStore_FailKeepsPartialResults(t *testing.T) {
	db := newTestDB(t)
	store := NewTaskStore(db)
	ctx := context.Background()

	task := analyzedTask(t, db)
	claimed, err := store.ClaimForExecution(ctx, testCompanyID, task.ID)
	require.NoError(t, err)

	claimed.Results = &model.ExecutionResult{EmployeesGraded: 2}
	require.NoError(t, store.Fail(ctx, claimed, assert.AnError))

	loaded, err := store.GetByID(ctx, testCompanyID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusFailed, loaded.Status)
	assert.Equal(t, assert.AnError.Error(), loaded.Error)
	require.NotNil(t, loaded.Results)
	assert.Equal(t, 2, loaded.Results.EmployeesGraded)
	require.NotNil(t, loaded.FinishedAt)
}

func TestTaskStore_List(t *testing.T) {
	db := newTestDB(t)
	store := NewTaskStore(db)
	ctx := context.Background()

	analyzedTask(t, db)
	analyzedTask(t, db)

	tasks, err := store.List(ctx, testCompanyID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	limit := 1
	tasks, err = store.List(ctx, testCompanyID, nil, &limit)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	tasks, err = store.List(ctx, "another-company", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
