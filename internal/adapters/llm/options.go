package llm

import "github.com/okian/atscore/pkg/logger"

// Option configures a Gemini completer.
type Option func(*Gemini)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(g *Gemini) { g.temperature = t }
}

// WithMaxOutputTokens caps the response length.
func WithMaxOutputTokens(n int32) Option {
	return func(g *Gemini) {
		if n > 0 {
			g.maxOutputTokens = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Gemini) { g.log = l }
}
