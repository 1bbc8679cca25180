package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/atscore/internal/domain/analysis"
	"github.com/okian/atscore/internal/domain/suggest"
)

// DraftDependencies defines the interface for section drafting.
type DraftDependencies interface {
	DraftSection(ctx context.Context, section, role string, in analysis.Input) (string, suggest.Source)
}

// DraftHandler handles section draft requests.
type DraftHandler struct {
	deps         DraftDependencies
	maxBodyBytes int64
}

// NewDraftHandler creates a new draft handler.
func NewDraftHandler(deps DraftDependencies, maxBodyBytes int64) *DraftHandler {
	return &DraftHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

type draftRequest struct {
	Section        string `json:"section"`
	Role           string `json:"role,omitempty"`
	Resume         string `json:"resume,omitempty"`
	JobDescription string `json:"job_description,omitempty"`
	Mode           string `json:"candidate_mode,omitempty"`
}

type draftResponse struct {
	Section string         `json:"section"`
	Content string         `json:"content"`
	Source  suggest.Source `json:"source"`
}

// HandleDraft handles POST /v1/draft requests.
func (h *DraftHandler) HandleDraft(w http.ResponseWriter, r *http.Request) {
	const op = "api.draft_section"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req draftRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		fail(r.Context(), w, nil, Wrap(op, err))
		return
	}
	section := strings.TrimSpace(req.Section)
	if section == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing section")))
		return
	}
	mode, err := analysis.ParseMode(req.Mode)
	if err != nil {
		fail(r.Context(), w, nil, WrapKind(op, ErrBadRequest, err))
		return
	}
	content, src := h.deps.DraftSection(r.Context(), section, strings.TrimSpace(req.Role), analysis.Input{
		Resume:         req.Resume,
		JobDescription: req.JobDescription,
		Mode:           mode,
	})
	writeJSON(w, http.StatusOK, draftResponse{Section: section, Content: content, Source: src})
}
