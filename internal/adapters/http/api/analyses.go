package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/atscore/internal/domain/model"
	"github.com/okian/atscore/pkg/logger"
)

// AnalysesDependencies defines the interface for queued analyses.
type AnalysesDependencies interface {
	Submit(ctx context.Context, job model.Job) (id string, duplicate bool, err error)
	Get(ctx context.Context, id string) (model.Record, error)
}

// AnalysesHandler handles queued analysis requests.
type AnalysesHandler struct {
	deps         AnalysesDependencies
	maxBodyBytes int64
	log          logger.Logger
}

// NewAnalysesHandler creates a new analyses handler.
func NewAnalysesHandler(deps AnalysesDependencies, maxBodyBytes int64, log logger.Logger) *AnalysesHandler {
	return &AnalysesHandler{deps: deps, maxBodyBytes: maxBodyBytes, log: log}
}

type submitRequest struct {
	analyzeRequest
	RequestID string `json:"request_id,omitempty"`
	Label     string `json:"label,omitempty"`
}

type submitResponse struct {
	AnalysisID string `json:"analysis_id"`
	Status     string `json:"status"`
	Duplicate  bool   `json:"duplicate"`
}

// HandleSubmit handles POST /v1/analyses requests.
func (h *AnalysesHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_analysis"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req submitRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		fail(r.Context(), w, h.log, Wrap(op, err))
		return
	}
	in, err := req.input()
	if err != nil {
		fail(r.Context(), w, h.log, WrapKind(op, ErrBadRequest, err))
		return
	}
	submit(r.Context(), w, h.log, h.deps, model.Job{
		RequestID:      strings.TrimSpace(req.RequestID),
		Label:          strings.TrimSpace(req.Label),
		Resume:         in.Resume,
		JobDescription: in.JobDescription,
		Mode:           in.Mode,
	}, op)
}

// submit queues job and writes 202 for new work or 200 for a duplicate.
func submit(ctx context.Context, w http.ResponseWriter, log logger.Logger, deps AnalysesDependencies, job model.Job, op string) { //nolint:gocritic // hugeParam: jobs travel by value
	id, dup, err := deps.Submit(ctx, job)
	if err != nil {
		fail(ctx, w, log, Wrap(op, err))
		return
	}
	if dup {
		writeJSON(w, http.StatusOK, submitResponse{AnalysisID: id, Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, submitResponse{AnalysisID: id, Status: "accepted"})
}

// HandleGet handles GET /v1/analyses/{id} requests.
func (h *AnalysesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_analysis"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := lastSegment(r.URL.Path, "/v1/analyses/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	rec, err := h.deps.Get(r.Context(), id)
	if err != nil {
		fail(r.Context(), w, h.log, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
