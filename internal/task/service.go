// Package task runs one deployment request through validation, generation,
// publishing and notification.
package task

import (
	"context"
	"crypto/subtle"
	"errors"
	"runtime/debug"

	"github.com/rs/zerolog"

	"autobuilder/internal/domain"
	"autobuilder/internal/generation"
	"autobuilder/internal/infra"
)

// Stage names a step of the deployment state machine.
type Stage string

const (
	StageReceived  Stage = "RECEIVED"
	StageValidated Stage = "VALIDATED"
	StageGenerated Stage = "GENERATED"
	StagePublished Stage = "PUBLISHED"
	StageNotified  Stage = "NOTIFIED"
	StageComplete  Stage = "COMPLETE"
	StageError     Stage = "ERROR"
)

type Generator interface {
	Generate(ctx context.Context, brief string) generation.Result
}

type Publisher interface {
	Publish(ctx context.Context, taskName, document string) (domain.TaskResult, error)
}

type Notifier interface {
	Notify(ctx context.Context, url string, payload domain.Notification) error
}

// Options wires the collaborators of a Service.
type Options struct {
	Secret    string
	Generator Generator
	Publisher Publisher
	Notifier  Notifier
	Logger    *infra.Logger
}

type Service struct {
	secret    []byte
	generator Generator
	publisher Publisher
	notifier  Notifier
	logger    *infra.Logger
}

func NewService(opts Options) (*Service, error) {
	if opts.Secret == "" {
		return nil, errors.New("task: secret is required")
	}
	if opts.Generator == nil {
		return nil, errors.New("task: generator is required")
	}
	if opts.Publisher == nil {
		return nil, errors.New("task: publisher is required")
	}
	return &Service{
		secret:    []byte(opts.Secret),
		generator: opts.Generator,
		publisher: opts.Publisher,
		notifier:  opts.Notifier,
		logger:    infra.OrDiscard(opts.Logger),
	}, nil
}

// Run processes req synchronously. Errors are ErrUnauthorized, ErrInvalidBrief,
// *domain.PublishError or ErrInternal; notification failures never surface.
func (s *Service) Run(ctx context.Context, req domain.TaskRequest) (res domain.TaskResult, err error) {
	if subtle.ConstantTimeCompare([]byte(req.Secret), s.secret) != 1 {
		s.logger.Warn().Str("request_id", infra.RequestID(ctx)).Msg("task: rejected secret")
		return domain.TaskResult{}, domain.ErrUnauthorized
	}

	req = req.Normalize()
	log := s.logger.With().
		Str("task", req.TaskName).
		Str("request_id", infra.RequestID(ctx)).
		Logger()
	transition(&log, StageReceived, StageValidated)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Str("stage", string(StageError)).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("task: recovered panic")
			res, err = domain.TaskResult{}, domain.ErrInternal
		}
	}()

	if req.Brief == "" {
		log.Warn().Str("stage", string(StageError)).Msg("task: empty brief")
		return domain.TaskResult{}, domain.ErrInvalidBrief
	}

	gen := s.generator.Generate(ctx, req.Brief)
	log.Info().Str("source", gen.Source).Int("bytes", len(gen.Document)).Msg("task: document generated")
	transition(&log, StageValidated, StageGenerated)

	res, err = s.publish(ctx, req.TaskName, gen.Document)
	if err != nil {
		log.Error().Err(err).Str("stage", string(StageError)).Msg("task: publish failed")
		return domain.TaskResult{}, err
	}
	transition(&log, StageGenerated, StagePublished)

	if req.EvaluationURL == "" {
		log.Info().Msg("task: no evaluation url, skipping notification")
	} else {
		s.notify(ctx, &log, req, res)
		transition(&log, StagePublished, StageNotified)
	}

	log.Info().
		Str("stage", string(StageComplete)).
		Str("repo_url", res.RepoURL).
		Str("pages_url", res.PagesURL).
		Msg("task: complete")
	return res, nil
}

// publish propagates failures; the task cannot succeed without URLs.
func (s *Service) publish(ctx context.Context, taskName, document string) (domain.TaskResult, error) {
	res, err := s.publisher.Publish(ctx, taskName, document)
	if err != nil {
		return domain.TaskResult{}, &domain.PublishError{Task: taskName, Err: err}
	}
	return res, nil
}

// notify is best effort: failures are logged and dropped.
func (s *Service) notify(ctx context.Context, log *zerolog.Logger, req domain.TaskRequest, res domain.TaskResult) {
	if s.notifier == nil {
		log.Warn().Msg("task: no notifier configured")
		return
	}
	if err := s.notifier.Notify(ctx, req.EvaluationURL, domain.NewNotification(req, res)); err != nil {
		log.Warn().Err(err).Str("url", req.EvaluationURL).Msg("task: notification failed")
		return
	}
	log.Info().Str("url", req.EvaluationURL).Msg("task: evaluation notified")
}

func transition(log *zerolog.Logger, from, to Stage) {
	log.Info().Str("stage", string(to)).Msgf("task: %s -> %s", from, to)
}
