// Package extract turns uploaded resumes and job postings into plain text.
// Strategies are tried in order until one yields enough text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/atscore/pkg/logger"
	"github.com/okian/atscore/pkg/metrics"
)

const (
	// MinTextLength is the shortest extraction considered successful.
	MinTextLength = 50

	defaultMaxBytes = 10 << 20
	methodNone      = "none"
)

// Result is the outcome of one extraction.
type Result struct {
	Text       string   `json:"text"`
	PageCount  int      `json:"page_count"`
	Method     string   `json:"extraction_method"`
	Confidence float64  `json:"confidence"`
	Errors     []string `json:"errors,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	Success    bool     `json:"success"`
}

// Strategy extracts text from one kind of document.
type Strategy interface {
	Name() string
	Accepts(f Format) bool
	Extract(ctx context.Context, data []byte) (Result, error)
}

// Chain runs strategies in order.
type Chain struct {
	strategies []Strategy
	maxBytes   int64
	log        logger.Logger
}

// NewChain creates a Chain with the default strategies: per-page PDF, whole
// stream PDF, DOCX, HTML and plain text.
func NewChain(opts ...Option) *Chain {
	c := &Chain{
		strategies: []Strategy{PDFPages{}, PDFStream{}, DOCX{}, HTML{}, Plain{}},
		maxBytes:   defaultMaxBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.NamedOrDiscard("extract")
	}
	return c
}

// MaxBytes returns the largest accepted document.
func (c *Chain) MaxBytes() int64 { return c.maxBytes }

// Extract validates data and returns the first successful strategy result.
// Errors from strategies that were tried are carried in Result.Errors. The
// returned error wraps ErrInvalidDocument, ErrTooLarge or ErrNoText when
// nothing usable came out.
func (c *Chain) Extract(ctx context.Context, name string, data []byte) (Result, error) {
	format := DetectFormat(name, data)
	v := Validate(data, format, c.maxBytes)
	if !v.Valid {
		kind := ErrInvalidDocument
		if int64(len(data)) > c.maxBytes {
			kind = ErrTooLarge
		}
		return Result{Method: methodNone, Errors: v.Errors}, fmt.Errorf("%w: %s", kind, strings.Join(v.Errors, " "))
	}
	for _, w := range v.Warnings {
		c.log.Warn(ctx, "document warning", logger.String("name", name), logger.String("warning", w))
	}

	var errs []string
	for _, s := range c.strategies {
		if !s.Accepts(format) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Result{Method: methodNone, Errors: errs}, fmt.Errorf("extract %s: %w", name, err)
		}
		res, err := run(ctx, s, data)
		if err == nil && !res.Success {
			err = errors.New("extracted insufficient text")
		}
		metrics.RecordExtraction(s.Name(), err == nil)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			c.log.Debug(ctx, "extraction strategy failed", logger.String("strategy", s.Name()), logger.Error(err))
			continue
		}
		res.Errors = append(errs, res.Errors...)
		res.Warnings = append(v.Warnings, res.Warnings...)
		return res, nil
	}

	errs = append(errs, "All extraction methods failed. Please ensure the document contains selectable text.")
	return Result{Method: methodNone, Errors: errs, Warnings: v.Warnings}, fmt.Errorf("%w: %s", ErrNoText, name)
}

// run shields the chain from parser panics on malformed documents.
func run(ctx context.Context, s Strategy, data []byte) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("parser panic: %v", r)
		}
	}()
	return s.Extract(ctx, data)
}

// confidence scores a result by whether it cleared MinTextLength.
func confidence(text string, high, low float64) float64 {
	if len(text) > MinTextLength {
		return high
	}
	return low
}
