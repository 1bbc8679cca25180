package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/atscore/internal/adapters/extract"
	"github.com/okian/atscore/internal/domain/analysis"
	"github.com/okian/atscore/internal/domain/model"
	"github.com/okian/atscore/pkg/logger"
)

// multipartOverhead is the room left for form fields next to the file.
const multipartOverhead = 1 << 20

// AnalyzeDependencies defines the interface for synchronous analyses.
type AnalyzeDependencies interface {
	AnalysesDependencies
	Analyze(ctx context.Context, in analysis.Input) (analysis.Report, error)
}

// AnalyzeHandler handles synchronous analysis requests.
type AnalyzeHandler struct {
	deps         AnalyzeDependencies
	extractor    *extract.Chain
	maxBodyBytes int64
	log          logger.Logger
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(deps AnalyzeDependencies, extractor *extract.Chain, maxBodyBytes int64, log logger.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{deps: deps, extractor: extractor, maxBodyBytes: maxBodyBytes, log: log}
}

// extraction summarizes how the uploaded resume was read.
type extraction struct {
	FileName   string   `json:"file_name"`
	Method     string   `json:"extraction_method"`
	Confidence float64  `json:"confidence"`
	PageCount  int      `json:"page_count"`
	Characters int      `json:"characters"`
	Warnings   []string `json:"warnings,omitempty"`
}

type uploadResponse struct {
	Extraction extraction       `json:"extraction"`
	Report     *analysis.Report `json:"report,omitempty"`
	Submission *submitResponse  `json:"submission,omitempty"`
}

// HandleAnalyze handles POST /v1/analyze requests.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "api.analyze"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req analyzeRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		fail(r.Context(), w, h.log, Wrap(op, err))
		return
	}
	in, err := req.input()
	if err != nil {
		fail(r.Context(), w, h.log, WrapKind(op, ErrBadRequest, err))
		return
	}
	report, err := h.deps.Analyze(r.Context(), in)
	if err != nil {
		fail(r.Context(), w, h.log, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleUpload handles POST /v1/analyze/upload requests. The form carries
// the resume file in "resume" and the posting in "job_description" or
// "job_description_html". With submit=true the analysis is queued instead
// of run inline.
func (h *AnalyzeHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.analyze_upload"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.extractor.MaxBytes()+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(ctx, w, h.log, WrapKind(op, ErrPayloadTooLarge, err))
			return
		}
		fail(ctx, w, h.log, WrapKind(op, ErrBadRequest, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("resume")
	if err != nil {
		fail(ctx, w, h.log, WrapKind(op, ErrBadRequest, fmt.Errorf("resume file: %w", err)))
		return
	}
	data, err := io.ReadAll(file)
	_ = file.Close()
	if err != nil {
		fail(ctx, w, h.log, WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.extractor.Extract(ctx, header.Filename, data)
	if err != nil {
		fail(ctx, w, h.log, Wrap(op, err))
		return
	}

	req := analyzeRequest{
		Resume:             res.Text,
		JobDescription:     r.FormValue("job_description"),
		JobDescriptionHTML: r.FormValue("job_description_html"),
		Mode:               r.FormValue("candidate_mode"),
	}
	in, err := req.input()
	if err != nil {
		fail(ctx, w, h.log, WrapKind(op, ErrBadRequest, err))
		return
	}

	resp := uploadResponse{Extraction: extraction{
		FileName:   header.Filename,
		Method:     res.Method,
		Confidence: res.Confidence,
		PageCount:  res.PageCount,
		Characters: len(res.Text),
		Warnings:   res.Warnings,
	}}

	if queued, _ := strconv.ParseBool(r.FormValue("submit")); queued {
		id, dup, err := h.deps.Submit(ctx, model.Job{
			RequestID:      strings.TrimSpace(r.FormValue("request_id")),
			Label:          header.Filename,
			Resume:         in.Resume,
			JobDescription: in.JobDescription,
			Mode:           in.Mode,
		})
		if err != nil {
			fail(ctx, w, h.log, Wrap(op, err))
			return
		}
		resp.Submission = &submitResponse{AnalysisID: id, Status: "accepted"}
		status := http.StatusAccepted
		if dup {
			resp.Submission.Status, resp.Submission.Duplicate = "duplicate", true
			status = http.StatusOK
		}
		writeJSON(w, status, resp)
		return
	}

	report, err := h.deps.Analyze(ctx, in)
	if err != nil {
		fail(ctx, w, h.log, Wrap(op, err))
		return
	}
	resp.Report = &report
	writeJSON(w, http.StatusOK, resp)
}
