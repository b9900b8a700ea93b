package implementation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/ekowhinson/HRMS-sub007/internal/auth"
	"github.com/ekowhinson/HRMS-sub007/internal/implementation/ingest"
	"github.com/ekowhinson/HRMS-sub007/internal/payroll/model"
	"github.com/ekowhinson/HRMS-sub007/internal/uploads"
)

// maxUploadBytes bounds the multipart form held in memory during upload.
const maxUploadBytes = 32 << 20

// Router exposes the implementation pipeline over HTTP. Upload and analyze
// are synchronous; execution runs in a background goroutine that the
// server waits on during shutdown.
type Router struct {
	parser   ingest.Parser
	archive  *uploads.ArchiveService
	analyzer *Analyzer
	store    *TaskStore
	executor *Executor
	reporter *ProgressReporter
	reset    *ResetController

	running sync.WaitGroup
}

func NewRouter(parser ingest.Parser, archive *uploads.ArchiveService, store *TaskStore, executor *Executor, reset *ResetController) *Router {
	return &Router{
		parser:   parser,
		archive:  archive,
		analyzer: NewAnalyzer(),
		store:    store,
		executor: executor,
		reporter: NewProgressReporter(store),
		reset:    reset,
	}
}

// Wait blocks until all in-flight executions finish. Called during
// graceful shutdown, after the HTTP server has stopped accepting requests.
func (rt *Router) Wait() {
	rt.running.Wait()
}

// uploadResponse is the body returned by HandleUpload.
type uploadResponse struct {
	TaskID   uuid.UUID        `json:"taskId"`
	Status   model.TaskStatus `json:"status"`
	Analysis *AnalysisReport  `json:"analysis"`
}

// HandleUpload handles POST /api/payroll/implementation.
// Multipart form fields: allowance_file, staff_file. Both files are
// archived, parsed and analyzed; on success an ANALYZED task is created
// holding the validated workbook snapshot.
func (rt *Router) HandleUpload(w http.ResponseWriter, r *http.Request) {
	companyID, ok := rt.companyID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	allowanceBytes, allowanceName, err := formFileBytes(r, "allowance_file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	staffBytes, staffName, err := formFileBytes(r, "staff_file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	allowanceFile, err := rt.archive.Archive(r.Context(), companyID, uploads.FileKindAllowance,
		allowanceName, bytes.NewReader(allowanceBytes), int64(len(allowanceBytes)), excelMIMEType)
	if err != nil {
		http.Error(w, "failed to archive allowance file: "+err.Error(), http.StatusInternalServerError)
		return
	}
	staffFile, err := rt.archive.Archive(r.Context(), companyID, uploads.FileKindStaff,
		staffName, bytes.NewReader(staffBytes), int64(len(staffBytes)), excelMIMEType)
	if err != nil {
		http.Error(w, "failed to archive staff file: "+err.Error(), http.StatusInternalServerError)
		return
	}

	workbook, err := rt.parser.Parse(r.Context(), bytes.NewReader(allowanceBytes), bytes.NewReader(staffBytes))
	if err != nil {
		var parseErr *ingest.ParseError
		if errors.As(err, &parseErr) {
			http.Error(w, parseErr.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "failed to read uploaded files: "+err.Error(), http.StatusInternalServerError)
		return
	}

	analysis := rt.analyzer.Analyze(workbook)

	task := &model.ImplementationTask{
		CompanyID: companyID,
		Status:    model.TaskStatusAnalyzed,
		Analysis:  analysis,
		Workbook:  workbook,
	}
	if err := rt.store.Create(r.Context(), task); err != nil {
		http.Error(w, "failed to create implementation task: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := rt.archive.AttachToTask(r.Context(), task.ID, allowanceFile.ID, staffFile.ID); err != nil {
		slog.WarnContext(r.Context(), "failed to attach source files to task",
			"taskID", task.ID, "error", err)
	}

	slog.InfoContext(r.Context(), "implementation task analyzed",
		"taskID", task.ID,
		"companyID", companyID,
		"employees", analysis.EmployeeCount,
		"errors", len(analysis.Errors))

	respondJSON(w, http.StatusCreated, uploadResponse{
		TaskID:   task.ID,
		Status:   task.Status,
		Analysis: analysisReport(analysis),
	})
}

// HandleExecute handles POST /api/payroll/implementation/{taskID}/execute.
// The claim happens synchronously so precondition failures map to status
// codes; the phases then run in the background and are observed by polling.
func (rt *Router) HandleExecute(w http.ResponseWriter, r *http.Request) {
	companyID, ok := rt.companyID(w, r)
	if !ok {
		return
	}
	taskID, ok := pathTaskID(w, r)
	if !ok {
		return
	}

	task, err := rt.store.ClaimForExecution(r.Context(), companyID, taskID)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	rt.running.Add(1)
	go func() {
		defer rt.running.Done()
		// The request context ends when this response is written; the run
		// gets its own lifetime and is only bounded by shutdown waiting on
		// the router.
		rt.executor.Run(context.Background(), task)
	}()

	respondJSON(w, http.StatusAccepted, map[string]any{
		"taskId": task.ID,
		"status": task.Status,
	})
}

// HandleGetProgress handles GET /api/payroll/implementation/{taskID}/progress.
func (rt *Router) HandleGetProgress(w http.ResponseWriter, r *http.Request) {
	companyID, ok := rt.companyID(w, r)
	if !ok {
		return
	}
	taskID, ok := pathTaskID(w, r)
	if !ok {
		return
	}

	report, err := rt.reporter.GetProgress(r.Context(), companyID, taskID)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// HandleListTasks handles GET /api/payroll/implementation requests.
// Optional query filters: offset, limit.
func (rt *Router) HandleListTasks(w http.ResponseWriter, r *http.Request) {
	companyID, ok := rt.companyID(w, r)
	if !ok {
		return
	}

	var offset, limit *int
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		v, err := strconv.Atoi(offsetStr)
		if err != nil {
			http.Error(w, "invalid 'offset' query parameter, must be an integer", http.StatusBadRequest)
			return
		}
		offset = &v
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil {
			http.Error(w, "invalid 'limit' query parameter, must be an integer", http.StatusBadRequest)
			return
		}
		limit = &v
	}

	tasks, err := rt.store.List(r.Context(), companyID, offset, limit)
	if err != nil {
		http.Error(w, "failed to list implementation tasks: "+err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}

// HandleReset handles POST /api/payroll/implementation/reset.
func (rt *Router) HandleReset(w http.ResponseWriter, r *http.Request) {
	companyID, ok := rt.companyID(w, r)
	if !ok {
		return
	}

	summary, err := rt.reset.Reset(r.Context(), companyID)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "implementation data reset",
		"summary": summary,
	})
}

const excelMIMEType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (rt *Router) companyID(w http.ResponseWriter, r *http.Request) (string, bool) {
	authCtx := auth.GetAuthContext(r.Context())
	if authCtx == nil || authCtx.CompanyContext == nil || authCtx.CompanyContext.CompanyID == "" {
		http.Error(w, "missing company context", http.StatusUnauthorized)
		return "", false
	}
	return authCtx.CompanyContext.CompanyID, true
}

func pathTaskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	taskIDStr := r.PathValue("taskID")
	taskID, err := uuid.Parse(taskIDStr)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid taskID: %v", err), http.StatusBadRequest)
		return uuid.Nil, false
	}
	return taskID, true
}

func formFileBytes(r *http.Request, field string) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("missing form file %q", field)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read form file %q: %v", field, err)
	}
	return data, header.Filename, nil
}

// writePipelineError maps pipeline error types to HTTP status codes:
// unknown task 404, wrong status 422, concurrent run 409.
func writePipelineError(w http.ResponseWriter, err error) {
	var notFound *TaskNotFoundError
	var invalidState *InvalidStateError
	var conflict *ConflictError

	switch {
	case errors.As(err, &notFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &invalidState):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &conflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
