package uploads

import (
	"io"
	"net/http"

	"github.com/ekowhinson/HRMS-sub007/internal/auth"
)

// HTTPHandler serves archived source workbooks back for download, so an
// auditor can retrieve exactly the files an implementation run was built
// from.
type HTTPHandler struct {
	Service *ArchiveService
}

func NewHTTPHandler(service *ArchiveService) *HTTPHandler {
	return &HTTPHandler{Service: service}
}

// Download handles GET /api/payroll/implementation/files/{key...}.
// The key is resolved within the caller's company, so a foreign key looks
// no different from a missing one.
func (h *HTTPHandler) Download(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.GetAuthContext(r.Context())
	if authCtx == nil || authCtx.CompanyContext == nil {
		http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
		return
	}

	key := r.PathValue("key")
	if key == "" {
		http.Error(w, `{"error": "key is required"}`, http.StatusBadRequest)
		return
	}

	reader, contentType, err := h.Service.Open(r.Context(), authCtx.CompanyID, key)
	if err != nil {
		http.Error(w, `{"error": "file not found"}`, http.StatusNotFound)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", contentType)
	io.Copy(w, reader)
}
