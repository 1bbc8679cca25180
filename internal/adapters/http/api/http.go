// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/atscore/internal/adapters/extract"
	"github.com/okian/atscore/internal/adapters/mq/queue"
	"github.com/okian/atscore/internal/adapters/repository"
	"github.com/okian/atscore/internal/domain/analysis"
	"github.com/okian/atscore/internal/domain/model"
	"github.com/okian/atscore/internal/domain/suggest"
	"github.com/okian/atscore/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submit queues an analysis. Returns queue.ErrFull on backpressure.
	Submit(ctx context.Context, job model.Job) (id string, duplicate bool, err error)
	Get(ctx context.Context, id string) (model.Record, error)

	Analyze(ctx context.Context, in analysis.Input) (analysis.Report, error)
	DraftSection(ctx context.Context, section, role string, in analysis.Input) (string, suggest.Source)

	// Read operations expose leaderboard data.
	TopN(ctx context.Context, n int) ([]model.Entry, error)
	Rank(ctx context.Context, id string) (model.Entry, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	analysesHandler    *AnalysesHandler
	analyzeHandler     *AnalyzeHandler
	draftHandler       *DraftHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler

	maxLimit     int
	maxBodyBytes int64
	extractor    *extract.Chain
	log          logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		maxLimit:     defaultMaxLimit,
		maxBodyBytes: defaultMaxBodyLen,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.NamedOrDiscard("api")
	}
	if s.extractor == nil {
		s.extractor = extract.NewChain(extract.WithLogger(s.log))
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.analysesHandler = NewAnalysesHandler(deps, s.maxBodyBytes, s.log)
	s.analyzeHandler = NewAnalyzeHandler(deps, s.extractor, s.maxBodyBytes, s.log)
	s.draftHandler = NewDraftHandler(deps, s.maxBodyBytes)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.maxLimit)
	s.rankHandler = NewRankHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/v1/analyses", MetricsMiddleware(s.analysesHandler.HandleSubmit, "analyses"))
	mux.HandleFunc("/v1/analyses/", MetricsMiddleware(s.analysesHandler.HandleGet, "analysis"))
	mux.HandleFunc("/v1/analyze", MetricsMiddleware(s.analyzeHandler.HandleAnalyze, "analyze"))
	mux.HandleFunc("/v1/analyze/upload", MetricsMiddleware(s.analyzeHandler.HandleUpload, "analyze_upload"))
	mux.HandleFunc("/v1/draft", MetricsMiddleware(s.draftHandler.HandleDraft, "draft"))
	mux.HandleFunc("/v1/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/v1/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
}

// analyzeRequest mirrors the OpenAPI schema for POST /v1/analyze. A job
// posting may be sent as text or as HTML.
type analyzeRequest struct {
	Resume             string `json:"resume"`
	JobDescription     string `json:"job_description"`
	JobDescriptionHTML string `json:"job_description_html,omitempty"`
	Mode               string `json:"candidate_mode,omitempty"`
}

func (a analyzeRequest) input() (analysis.Input, error) {
	mode, err := analysis.ParseMode(a.Mode)
	if err != nil {
		return analysis.Input{}, err
	}
	job := a.JobDescription
	if strings.TrimSpace(job) == "" && strings.TrimSpace(a.JobDescriptionHTML) != "" {
		if job, err = extract.HTMLText(a.JobDescriptionHTML); err != nil {
			return analysis.Input{}, fmt.Errorf("job_description_html: %w", err)
		}
	}
	in := analysis.Input{Resume: a.Resume, JobDescription: job, Mode: mode}
	return in, in.Validate()
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: body exceeds %d bytes", ErrPayloadTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// classify maps an upstream error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrPayloadTooLarge), errors.Is(err, extract.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large"
	case errors.Is(err, ErrBadRequest), errors.Is(err, analysis.ErrInvalidInput),
		errors.Is(err, analysis.ErrUnknownMode), errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrUnprocessable), errors.Is(err, extract.ErrInvalidDocument), errors.Is(err, extract.ErrNoText):
		return http.StatusUnprocessableEntity, "unprocessable"
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBackpressure), errors.Is(err, queue.ErrFull), errors.Is(err, queue.ErrClosed):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// fail writes err with the status classify picks. Server-side failures are
// logged.
func fail(ctx context.Context, w http.ResponseWriter, log logger.Logger, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error(ctx, "request failed", logger.Error(err))
	}
	writeError(w, status, code, err)
}

// lastSegment returns the path element after prefix, or "" when there is
// none or more than one.
func lastSegment(path, prefix string) string {
	rest := strings.TrimPrefix(path, prefix)
	if rest == path || rest == "" || strings.Contains(rest, "/") {
		return ""
	}
	return rest
}
