package webapp

import (
	"net/http"

	"autobuilder/internal/generation"
	"autobuilder/internal/infra"
)

// DirectSources returns the provider APIs in fallback order: Gemini, then
// OpenAI.
func DirectSources(cfg *infra.Config, logger *infra.Logger) []generation.Source {
	client := &http.Client{Timeout: cfg.ProviderTimeout}
	return []generation.Source{
		NewGeminiSource(GeminiOptions{
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.GeminiModel,
			BaseURL:    cfg.GeminiBaseURL,
			HTTPClient: client,
			Logger:     logger,
		}),
		NewOpenAISource(OpenAIOptions{
			APIKey:       cfg.OpenAIAPIKey,
			Model:        cfg.OpenAIModel,
			BaseURL:      cfg.OpenAIBaseURL,
			Organization: cfg.OpenAIOrg,
			HTTPClient:   client,
			Logger:       logger,
		}),
	}
}

// AllSources puts the self-hosted pipe in front of the direct sources.
func AllSources(cfg *infra.Config, logger *infra.Logger) []generation.Source {
	pipe := NewPipeSource(PipeOptions{
		URL:     cfg.AIPipeURL,
		Enabled: cfg.AIPipeEnabled,
		Timeout: cfg.AIPipeTimeout,
		Logger:  logger,
	})
	return append([]generation.Source{pipe}, DirectSources(cfg, logger)...)
}

// LogSources writes one line per source in fallback order with its endpoint or
// model, so startup logs show which backends a pipeline will try.
func LogSources(logger *infra.Logger, sources []generation.Source) {
	log := infra.OrDiscard(logger)
	for i, src := range sources {
		ev := log.Info().Int("order", i+1).Str("source", src.Name()).Bool("enabled", src.Enabled())
		switch s := src.(type) {
		case *PipeSource:
			ev = ev.Str("url", s.URL())
		case *GeminiSource:
			ev = ev.Str("model", s.Model())
		case *OpenAISource:
			ev = ev.Str("model", s.Model())
		}
		ev.Msg("generation source configured")
	}
}
