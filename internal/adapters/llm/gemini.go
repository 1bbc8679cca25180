// Package llm adapts hosted generative models to the suggest.Completer
// interface.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/okian/atscore/pkg/logger"
)

const (
	DefaultModel = "gemini-2.5-flash"

	defaultTemperature     = 0.4
	defaultMaxOutputTokens = 2048
)

// Gemini completes prompts with the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string

	temperature     float32
	maxOutputTokens int32
	log             logger.Logger
}

// New creates a Gemini completer for model. An empty model selects
// DefaultModel.
func New(ctx context.Context, apiKey, model string, opts ...Option) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultModel
	}
	g := &Gemini{
		model:           model,
		temperature:     defaultTemperature,
		maxOutputTokens: defaultMaxOutputTokens,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = logger.NamedOrDiscard("llm")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create client: %w", err)
	}
	g.client = client
	return g, nil
}

// Model returns the model name in use.
func (g *Gemini) Model() string { return g.model }

// Complete sends prompt as a single user turn and returns the response text.
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	temperature := g.temperature
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: g.maxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("llm: generate content: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	g.log.Debug(ctx, "completion received",
		logger.String("model", g.model),
		logger.Int("prompt_chars", len(prompt)),
		logger.Int("response_chars", len(text)),
		logger.Duration("elapsed", time.Since(start)))
	return text, nil
}
