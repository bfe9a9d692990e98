// Command aipipe is the stand-alone generation endpoint the API server calls
// first. It listens on AIPIPE_PORT (default 9000).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"autobuilder/internal/generation"
	"autobuilder/internal/http/handlers"
	httpapi "autobuilder/internal/http/httpapi"
	"autobuilder/internal/infra"
	"autobuilder/internal/providers/webapp"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "aipipe").Logger()

	sources := webapp.DirectSources(cfg, &logger)
	webapp.LogSources(&logger, sources)
	pipeline := generation.NewPipeline(generation.Options{
		Sources: sources,
		Logger:  &logger,
	})
	router := httpapi.NewRouter(handlers.NewApp(nil, pipeline, &logger), httpapi.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         &logger,
	})
	server := infra.NewHTTPServerOnPort(cfg, cfg.AIPipePort, router)

	go func() {
		logger.Info().Msgf("aipipe listening on %s", server.Addr())
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("aipipe stopped")
}
