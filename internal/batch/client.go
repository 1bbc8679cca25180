package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/atscore/internal/domain/analysis"
	"github.com/okian/atscore/internal/domain/model"
)

const maxErrorBody = 4 << 10

// Submission is what POST /v1/analyses accepts.
type Submission struct {
	Resume         string `json:"resume"`
	JobDescription string `json:"job_description"`
	Mode           string `json:"candidate_mode,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	Label          string `json:"label,omitempty"`
}

// Accepted is the reply to a submission.
type Accepted struct {
	AnalysisID string `json:"analysis_id"`
	Status     string `json:"status"`
	Duplicate  bool   `json:"duplicate"`
}

// Client talks to a running atscore service.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables the limit.
func WithRateLimit(perSecond float64) ClientOption {
	return func(cl *Client) {
		if perSecond > 0 {
			cl.limiter = rate.NewLimiter(rate.Limit(perSecond), max(1, int(perSecond)))
		}
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health reports whether the service answers /healthz.
func (c *Client) Health(ctx context.Context) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, &body); err != nil {
		return err
	}
	if body.Status != "ok" {
		return fmt.Errorf("%w: status %q", ErrUnavailable, body.Status)
	}
	return nil
}

// Submit queues one analysis.
func (c *Client) Submit(ctx context.Context, s Submission) (Accepted, error) {
	var out Accepted
	err := c.do(ctx, http.MethodPost, "/v1/analyses", s, &out)
	return out, err
}

// Get fetches the record of one analysis.
func (c *Client) Get(ctx context.Context, id string) (model.Record, error) {
	var rec model.Record
	err := c.do(ctx, http.MethodGet, "/v1/analyses/"+url.PathEscape(id), nil, &rec)
	return rec, err
}

// Wait polls an analysis until it leaves the pending state or ctx ends.
func (c *Client) Wait(ctx context.Context, id string, every time.Duration) (model.Record, error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		rec, err := c.Get(ctx, id)
		if err != nil {
			return model.Record{}, err
		}
		if rec.Status != model.StatusPending {
			return rec, nil
		}
		select {
		case <-ctx.Done():
			return model.Record{}, fmt.Errorf("%w: %s", ErrTimeout, id)
		case <-ticker.C:
		}
	}
}

// Analyze runs a synchronous analysis through POST /v1/analyze.
func (c *Client) Analyze(ctx context.Context, in analysis.Input) (analysis.Report, error) {
	var out analysis.Report
	err := c.do(ctx, http.MethodPost, "/v1/analyze", Submission{
		Resume:         in.Resume,
		JobDescription: in.JobDescription,
		Mode:           string(in.Mode),
	}, &out)
	return out, err
}

// Leaderboard returns the top limit entries.
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]model.Entry, error) {
	var out []model.Entry
	err := c.do(ctx, http.MethodGet, "/v1/leaderboard?limit="+strconv.Itoa(limit), nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	var e struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &e) == nil && e.Code != "" {
		msg = e.Code + ": " + e.Message
	}
	base := ErrRejected
	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		base = ErrUnavailable
	}
	return errors.Join(base, fmt.Errorf("http %d: %s", resp.StatusCode, msg))
}
