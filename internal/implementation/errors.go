package implementation

import (
	"fmt"

	"github.com/ekowhinson/HRMS-sub007/internal/payroll/model"
	"github.com/google/uuid"
)

// TaskNotFoundError indicates the task id does not exist for the company.
type TaskNotFoundError struct {
	TaskID uuid.UUID
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("implementation task %s not found", e.TaskID)
}

// InvalidStateError indicates an operation that requires a specific task
// status, e.g. executing a task that is not ANALYZED. A task is executed
// at most once; this error is what enforces it.
type InvalidStateError struct {
	TaskID uuid.UUID
	Status model.TaskStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("implementation task %s is in status %s and cannot be executed", e.TaskID, e.Status)
}

// ConflictError indicates that another implementation run is active for
// the company. Execution and reset both refuse to proceed while a task is
// RUNNING.
type ConflictError struct {
	CompanyID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("an implementation run is already in progress for company %s", e.CompanyID)
}
