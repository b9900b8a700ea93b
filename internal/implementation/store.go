package implementation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ekowhinson/HRMS-sub007/internal/payroll/model"
)

// TaskStore owns ImplementationTask rows. It is the single source of truth
// for polling clients and the only place task status transitions happen.
type TaskStore struct {
	db *gorm.DB
}

func NewTaskStore(db *gorm.DB) *TaskStore {
	return &TaskStore{db: db}
}

// Create persists a freshly analyzed task.
func (s *TaskStore) Create(ctx context.Context, task *model.ImplementationTask) error {
	if task.Status == "" {
		task.Status = model.TaskStatusAnalyzed
	}
	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create implementation task: %w", err)
	}
	return nil
}

// GetByID retrieves a task scoped to a company.
func (s *TaskStore) GetByID(ctx context.Context, companyID string, taskID uuid.UUID) (*model.ImplementationTask, error) {
	if taskID == uuid.Nil {
		return nil, &TaskNotFoundError{TaskID: taskID}
	}

	var task model.ImplementationTask
	result := s.db.WithContext(ctx).First(&task, "id = ? AND company_id = ?", taskID, companyID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, &TaskNotFoundError{TaskID: taskID}
		}
		return nil, fmt.Errorf("failed to retrieve implementation task: %w", result.Error)
	}
	return &task, nil
}

const (
	listLimitDefault = 20
	listLimitMax     = 100
)

// listWindow clamps caller-supplied pagination; nil means default.
func listWindow(offset, limit *int) (int, int) {
	finalOffset, finalLimit := 0, listLimitDefault
	if offset != nil && *offset >= 0 {
		finalOffset = *offset
	}
	if limit != nil && *limit > 0 {
		finalLimit = min(*limit, listLimitMax)
	}
	return finalOffset, finalLimit
}

// List returns a company's implementation runs, newest first.
func (s *TaskStore) List(ctx context.Context, companyID string, offset *int, limit *int) ([]model.ImplementationTask, error) {
	finalOffset, finalLimit := listWindow(offset, limit)

	var tasks []model.ImplementationTask
	result := s.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Offset(finalOffset).
		Limit(finalLimit).
		Find(&tasks)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list implementation tasks: %w", result.Error)
	}
	return tasks, nil
}

// ClaimForExecution transitions a task from ANALYZED to RUNNING. The whole
// claim is one transaction: the company-wide mutual exclusion check and the
// compare-and-set on status, so a task can be executed at most once and at
// most one task runs per company even across server instances.
func (s *TaskStore) ClaimForExecution(ctx context.Context, companyID string, taskID uuid.UUID) (*model.ImplementationTask, error) {
	var task model.ImplementationTask

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var running int64
		if err := tx.Model(&model.ImplementationTask{}).
			Where("company_id = ? AND status = ?", companyID, model.TaskStatusRunning).
			Count(&running).Error; err != nil {
			return fmt.Errorf("failed to check for running tasks: %w", err)
		}
		if running > 0 {
			return &ConflictError{CompanyID: companyID}
		}

		now := time.Now().UTC()
		result := tx.Model(&model.ImplementationTask{}).
			Where("id = ? AND company_id = ? AND status = ?", taskID, companyID, model.TaskStatusAnalyzed).
			Updates(map[string]any{
				"status":     model.TaskStatusRunning,
				"phase":      1,
				"started_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to claim task for execution: %w", result.Error)
		}

		if result.RowsAffected == 0 {
			// The compare-and-set missed: either the task does not exist
			// or it is not in ANALYZED status.
			var existing model.ImplementationTask
			if err := tx.First(&existing, "id = ? AND company_id = ?", taskID, companyID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &TaskNotFoundError{TaskID: taskID}
				}
				return fmt.Errorf("failed to retrieve implementation task: %w", err)
			}
			return &InvalidStateError{TaskID: taskID, Status: existing.Status}
		}

		return tx.First(&task, "id = ?", taskID).Error
	})
	if err != nil {
		return nil, err
	}

	return &task, nil
}

// SaveProgress persists the task's phase counters and log. Only the
// executor calls this, so there is no write contention on these columns.
func (s *TaskStore) SaveProgress(ctx context.Context, task *model.ImplementationTask) error {
	result := s.db.WithContext(ctx).Model(task).
		Select("phase", "phase_progress", "overall_progress", "log").
		Updates(task)
	if result.Error != nil {
		return fmt.Errorf("failed to save task progress: %w", result.Error)
	}
	return nil
}

// Complete marks the task COMPLETED with its results.
func (s *TaskStore) Complete(ctx context.Context, task *model.ImplementationTask) error {
	now := time.Now().UTC()
	task.Status = model.TaskStatusCompleted
	task.PhaseProgress = 100
	task.OverallProgress = 100
	task.FinishedAt = &now
	return s.finish(ctx, task)
}

// Fail marks the task FAILED, keeping whatever partial results exist.
// Phases that already committed are not rolled back; recovery is a reset
// followed by a fresh run.
func (s *TaskStore) Fail(ctx context.Context, task *model.ImplementationTask, cause error) error {
	now := time.Now().UTC()
	task.Status = model.TaskStatusFailed
	task.Error = cause.Error()
	task.FinishedAt = &now
	return s.finish(ctx, task)
}

func (s *TaskStore) finish(ctx context.Context, task *model.ImplementationTask) error {
	result := s.db.WithContext(ctx).Model(task).
		Select("status", "phase", "phase_progress", "overall_progress", "log", "results", "error", "finished_at").
		Updates(task)
	if result.Error != nil {
		return fmt.Errorf("failed to finalize task %s: %w", task.ID, result.Error)
	}
	return nil
}
