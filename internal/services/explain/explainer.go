// Package explain summarizes recent joined rows with a hosted language model.
package explain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"GridPulse/internal/domain/models"
	domsvc "GridPulse/internal/domain/service"
	"GridPulse/pkg/cache"
	applogger "GridPulse/pkg/logger"
)

// ErrNoRows is returned when the region has no joined rows to summarize.
var ErrNoRows = errors.New("no joined rows for region")

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Explainer builds prompts from joined rows and caches model replies.
type Explainer struct {
	gen   Generator
	cache cache.Service
	ttl   time.Duration
	rows  int
	l     *applogger.Logger
}

// Option configures an Explainer.
type Option func(*Explainer)

// WithCache stores replies in c for ttl. Without it every call reaches the model.
func WithCache(c cache.Service, ttl time.Duration) Option {
	return func(e *Explainer) {
		e.cache = c
		e.ttl = ttl
	}
}

// WithRows sets how many recent rows go into the prompt.
func WithRows(n int) Option {
	return func(e *Explainer) {
		if n > 0 {
			e.rows = n
		}
	}
}

func WithLogger(l *applogger.Logger) Option {
	return func(e *Explainer) {
		if l != nil {
			e.l = l
		}
	}
}

func NewExplainer(gen Generator, opts ...Option) *Explainer {
	e := &Explainer{gen: gen, rows: 6, l: applogger.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Summarize explains the most recent rows of region.
func (e *Explainer) Summarize(ctx context.Context, region models.Region, rows []models.JoinedRecord) (string, error) {
	tail := LastRows(rows, region, e.rows)
	if len(tail) == 0 {
		return "", fmt.Errorf("%s: %w", region, ErrNoRows)
	}
	prompt := BuildPrompt(region, tail)
	key := cacheKey(e.gen.Model(), prompt)

	if e.cache != nil {
		var cached string
		err := e.cache.Get(ctx, key, &cached)
		if err == nil && cached != "" {
			e.l.Info("explanation served from cache", applogger.String("region", string(region)))
			return cached, nil
		}
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			e.l.Warn("explanation cache read failed", applogger.Error(err))
		}
	}

	start := time.Now()
	e.l.Info("sending prompt to model",
		applogger.String("region", string(region)),
		applogger.String("model", e.gen.Model()),
		applogger.Int("rows", len(tail)),
	)
	text, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	e.l.Info("explanation generated", applogger.Duration("duration_ms", time.Since(start)))

	if e.cache != nil {
		if err := e.cache.Set(ctx, key, text, e.ttl); err != nil {
			e.l.Warn("explanation cache write failed", applogger.Error(err))
		}
	}
	return text, nil
}

func cacheKey(model, prompt string) string {
	sum := sha256.Sum256([]byte(model + "\n" + prompt))
	return "explain:" + hex.EncodeToString(sum[:])
}

var _ domsvc.Summarizer = (*Explainer)(nil)
