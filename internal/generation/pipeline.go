package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"autobuilder/internal/domain"
	"autobuilder/internal/infra"
	"autobuilder/internal/sanitize"
)

// StaticSourceName labels documents produced by the built-in template.
const StaticSourceName = "static"

// ErrEmptyOutput is reported when a source answered but nothing survived
// sanitization.
var ErrEmptyOutput = errors.New("no usable html after sanitization")

// Source is one generation backend. Generate returns the raw model text for a
// brief; sanitizing it is the pipeline's job. A source that is not configured
// reports Enabled() == false and is skipped without counting as a failure.
type Source interface {
	Name() string
	Enabled() bool
	Generate(ctx context.Context, brief string) (string, error)
}

// Result is the document chosen by the pipeline and the source that made it.
type Result struct {
	Document string
	Source   string
	Attempts []Attempt
}

// Attempt records the outcome of one source call.
type Attempt struct {
	Source   string
	Skipped  bool
	Err      error
	Duration time.Duration
}

// Options configures a Pipeline.
type Options struct {
	Sources  []Source
	Fallback *StaticTemplate
	Logger   *infra.Logger
}

// Pipeline walks its sources in order and returns the first usable document.
type Pipeline struct {
	sources  []Source
	fallback *StaticTemplate
	logger   *infra.Logger
}

// NewPipeline builds a pipeline. Nil sources are dropped; a missing fallback
// template is replaced by the default one.
func NewPipeline(opts Options) *Pipeline {
	sources := make([]Source, 0, len(opts.Sources))
	for _, src := range opts.Sources {
		if src != nil {
			sources = append(sources, src)
		}
	}
	fallback := opts.Fallback
	if fallback == nil {
		fallback = DefaultStaticTemplate()
	}
	return &Pipeline{
		sources:  sources,
		fallback: fallback,
		logger:   infra.OrDiscard(opts.Logger),
	}
}

// Generate never fails: when every enabled source errors or yields nothing,
// the static template is rendered around the brief.
func (p *Pipeline) Generate(ctx context.Context, brief string) Result {
	brief = strings.TrimSpace(brief)
	var attempts []Attempt

	for _, src := range p.sources {
		name := src.Name()
		if !src.Enabled() {
			p.logger.Debug().Str("source", name).Msg("generation: source disabled, skipping")
			attempts = append(attempts, Attempt{Source: name, Skipped: true})
			continue
		}

		start := time.Now()
		doc, err := p.attempt(ctx, src, brief)
		attempts = append(attempts, Attempt{Source: name, Err: err, Duration: time.Since(start)})
		if err != nil {
			p.logger.Warn().
				Err(err).
				Str("source", name).
				Dur("elapsed", time.Since(start)).
				Msg("generation: attempt failed, falling back")
			continue
		}

		p.logger.Info().
			Str("source", name).
			Int("bytes", len(doc)).
			Dur("elapsed", time.Since(start)).
			Msg("generation: attempt succeeded")
		return Result{Document: doc, Source: name, Attempts: attempts}
	}

	p.logger.Info().Int("attempts", len(attempts)).Msg("generation: using static fallback template")
	return Result{Document: p.fallback.Render(brief), Source: StaticSourceName, Attempts: attempts}
}

func (p *Pipeline) attempt(ctx context.Context, src Source, brief string) (doc string, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = "", fmt.Errorf("%w: source panicked: %v", domain.ErrProviderFailure, r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	raw, err := src.Generate(ctx, brief)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)
	}
	doc = sanitize.HTML(raw)
	if doc == "" {
		return "", ErrEmptyOutput
	}
	return doc, nil
}
