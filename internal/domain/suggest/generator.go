package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/okian/atscore/pkg/logger"
)

// Default generator settings.
const (
	defaultTimeout       = 20 * time.Second
	defaultAttempts      = 3
	defaultBackoff       = 2 * time.Second
	defaultRatePerMinute = 30
	defaultMaxFailures   = 5
	defaultOpenTimeout   = time.Minute
)

// Completer is a generative text service.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Generator asks a Completer for suggestions and section drafts and falls
// back to local rules and templates whenever the call fails. It is safe for
// concurrent use.
type Generator struct {
	completer Completer

	timeout       time.Duration
	attempts      int
	backoff       time.Duration
	ratePerMinute int
	maxFailures   uint32

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     logger.Logger
}

// NewGenerator creates a Generator. A nil completer makes every call take
// the local path.
func NewGenerator(c Completer, opts ...Option) *Generator {
	g := &Generator{
		completer:     c,
		timeout:       defaultTimeout,
		attempts:      defaultAttempts,
		backoff:       defaultBackoff,
		ratePerMinute: defaultRatePerMinute,
		maxFailures:   defaultMaxFailures,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = logger.NamedOrDiscard("suggest")
	}

	g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(g.ratePerMinute)), 1)
	maxFailures := g.maxFailures
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "completer",
		Timeout: defaultOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.log.Warn(context.Background(), "completer breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
	})
	return g
}

// Enabled reports whether a Completer is configured.
func (g *Generator) Enabled() bool { return g.completer != nil }

// Suggest returns generated suggestions, or the rule-based list when the
// Completer is missing, fails on every attempt or returns nothing parseable.
func (g *Generator) Suggest(ctx context.Context, c Context) ([]Suggestion, Source) {
	if g.completer == nil {
		return Rules(c), SourceRules
	}
	prompt := buildPrompt(c)
	var out []Suggestion
	err := g.retry(ctx, func() error {
		raw, err := g.complete(ctx, prompt)
		if err != nil {
			return err
		}
		out = parseSuggestions(raw)
		if len(out) == 0 {
			return ErrNoSuggestions
		}
		return nil
	})
	if err != nil {
		g.log.Warn(ctx, "generated suggestions unavailable, using rules", logger.Error(err))
		return Rules(c), SourceRules
	}
	return out, SourceGenerator
}

// DraftSection returns content for a resume section, generated when
// possible and templated otherwise.
func (g *Generator) DraftSection(ctx context.Context, section string, d Draft) (string, Source) {
	if g.completer == nil {
		return Template(section, d), SourceRules
	}
	prompt := draftPrompt(section, d)
	var out string
	err := g.retry(ctx, func() error {
		raw, err := g.complete(ctx, prompt)
		if err != nil {
			return err
		}
		out = strings.TrimSpace(raw)
		if out == "" {
			return ErrEmptyCompletion
		}
		return nil
	})
	if err != nil {
		g.log.Warn(ctx, "generated draft unavailable, using template",
			logger.String("section", section), logger.Error(err))
		return Template(section, d), SourceRules
	}
	return out, SourceGenerator
}

// retry runs fn up to the configured attempts with linear backoff. An open
// breaker or a done context stops early.
func (g *Generator) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := range g.attempts {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		g.log.Debug(ctx, "completion attempt failed",
			logger.Int("attempt", attempt+1), logger.Error(lastErr))
		if errors.Is(lastErr, gobreaker.ErrOpenState) || ctx.Err() != nil {
			break
		}
		if attempt == g.attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("after %d attempts: %w", attempt+1, ctx.Err())
		case <-time.After(g.backoff * time.Duration(attempt+1)):
		}
	}
	return fmt.Errorf("after %d attempts: %w", g.attempts, lastErr)
}

func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRateLimited, err)
	}
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := g.breaker.Execute(func() (interface{}, error) {
		return g.completer.Complete(cctx, prompt)
	})
	if err != nil {
		return "", err
	}
	text, _ := res.(string)
	return text, nil
}
