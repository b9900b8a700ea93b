package implementation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ekowhinson/HRMS-sub007/internal/payroll/model"
)

// maxDisplayedErrors caps the row errors returned in a progress response.
// The full list stays on the task record; ErrorCount always reports the
// true total.
const maxDisplayedErrors = 50

// ProgressReport is the polling view of a task. Results are attached only
// once the task is terminal.
type ProgressReport struct {
	TaskID          uuid.UUID         `json:"taskId"`
	Status          model.TaskStatus  `json:"status"`
	Phase           int               `json:"phase"`
	PhaseProgress   int               `json:"phaseProgress"`
	OverallProgress int               `json:"overallProgress"`
	Log             []string          `json:"log"`
	Error           string            `json:"error,omitempty"`
	StartedAt       *time.Time        `json:"startedAt,omitempty"`
	FinishedAt      *time.Time        `json:"finishedAt,omitempty"`
	Results         *ResultsReport    `json:"results,omitempty"`
	Analysis        *AnalysisReport   `json:"analysis,omitempty"`
}

// ResultsReport mirrors ExecutionResult with the error list capped for
// display.
type ResultsReport struct {
	EmployeesGraded       int              `json:"employeesGraded"`
	NIANumbersUpdated     int              `json:"niaNumbersUpdated"`
	BankAccountsUpdated   int              `json:"bankAccountsUpdated"`
	ComponentsCreated     int              `json:"componentsCreated"`
	TaxBracketsCreated    int              `json:"taxBracketsCreated"`
	SSNITRatesCreated     int              `json:"ssnitRatesCreated"`
	OvertimeConfigCreated bool             `json:"overtimeConfigCreated"`
	SalariesCreated       int              `json:"salariesCreated"`
	TransactionsCreated   int              `json:"transactionsCreated"`
	Errors                []model.RowIssue `json:"errors"`
	ErrorCount            int              `json:"errorCount"`
}

// AnalysisReport is the analysis summary with its issue lists capped the
// same way as execution errors.
type AnalysisReport struct {
	EmployeeCount       int                 `json:"employeeCount"`
	SheetCounts         map[string]int      `json:"sheetCounts"`
	ComponentsToCreate  int                 `json:"componentsToCreate"`
	TaxBracketsToCreate int                 `json:"taxBracketsToCreate"`
	SSNITRatesToCreate  int                 `json:"ssnitRatesToCreate"`
	ProvidentFundCount  int                 `json:"providentFundCount"`
	UnionMemberCounts   map[string]int      `json:"unionMemberCounts"`
	RentDeductionCount  int                 `json:"rentDeductionCount"`
	BandsFound          map[string][]string `json:"bandsFound"`
	Errors              []model.RowIssue    `json:"errors"`
	ErrorCount          int                 `json:"errorCount"`
	Warnings            []model.RowIssue    `json:"warnings"`
	WarningCount        int                 `json:"warningCount"`
}

// ProgressReporter serves read-only progress snapshots. It reads whatever
// the executor last persisted, so polling never contends with execution
// beyond a row read.
type ProgressReporter struct {
	store *TaskStore
}

func NewProgressReporter(store *TaskStore) *ProgressReporter {
	return &ProgressReporter{store: store}
}

// GetProgress returns the current state of a task for polling clients.
func (p *ProgressReporter) GetProgress(ctx context.Context, companyID string, taskID uuid.UUID) (*ProgressReport, error) {
	task, err := p.store.GetByID(ctx, companyID, taskID)
	if err != nil {
		return nil, err
	}

	report := &ProgressReport{
		TaskID:          task.ID,
		Status:          task.Status,
		Phase:           task.Phase,
		PhaseProgress:   task.PhaseProgress,
		OverallProgress: task.OverallProgress,
		Log:             task.Log,
		Error:           task.Error,
		StartedAt:       task.StartedAt,
		FinishedAt:      task.FinishedAt,
		Analysis:        analysisReport(task.Analysis),
	}
	if report.Log == nil {
		report.Log = []string{}
	}

	if task.Terminal() && task.Results != nil {
		report.Results = &ResultsReport{
			EmployeesGraded:       task.Results.EmployeesGraded,
			NIANumbersUpdated:     task.Results.NIANumbersUpdated,
			BankAccountsUpdated:   task.Results.BankAccountsUpdated,
			ComponentsCreated:     task.Results.ComponentsCreated,
			TaxBracketsCreated:    task.Results.TaxBracketsCreated,
			SSNITRatesCreated:     task.Results.SSNITRatesCreated,
			OvertimeConfigCreated: task.Results.OvertimeConfigCreated,
			SalariesCreated:       task.Results.SalariesCreated,
			TransactionsCreated:   task.Results.TransactionsCreated,
			Errors:                capIssues(task.Results.Errors),
			ErrorCount:            len(task.Results.Errors),
		}
	}

	return report, nil
}

func analysisReport(analysis *model.AnalysisSummary) *AnalysisReport {
	if analysis == nil {
		return nil
	}
	return &AnalysisReport{
		EmployeeCount:       analysis.EmployeeCount,
		SheetCounts:         analysis.SheetCounts,
		ComponentsToCreate:  analysis.ComponentsToCreate,
		TaxBracketsToCreate: analysis.TaxBracketsToCreate,
		SSNITRatesToCreate:  analysis.SSNITRatesToCreate,
		ProvidentFundCount:  analysis.ProvidentFundCount,
		UnionMemberCounts:   analysis.UnionMemberCounts,
		RentDeductionCount:  analysis.RentDeductionCount,
		BandsFound:          analysis.BandsFound,
		Errors:              capIssues(analysis.Errors),
		ErrorCount:          len(analysis.Errors),
		Warnings:            capIssues(analysis.Warnings),
		WarningCount:        len(analysis.Warnings),
	}
}

func capIssues(issues []model.RowIssue) []model.RowIssue {
	if issues == nil {
		return []model.RowIssue{}
	}
	if len(issues) > maxDisplayedErrors {
		return issues[:maxDisplayedErrors]
	}
	return issues
}
