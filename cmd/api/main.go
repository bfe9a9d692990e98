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
	"autobuilder/internal/notify"
	"autobuilder/internal/providers/webapp"
	"autobuilder/internal/publish"
	"autobuilder/internal/task"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	if err := cfg.ValidateTaskServer(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	publisher, static, err := publish.FromConfig(cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build publisher")
	}

	// The task pipeline goes through the pipe first; /aipipe on this server
	// only uses the direct providers so it never calls itself.
	taskSources := webapp.AllSources(cfg, &logger)
	webapp.LogSources(&logger, taskSources)
	taskPipeline := generation.NewPipeline(generation.Options{
		Sources: taskSources,
		Logger:  &logger,
	})
	directPipeline := generation.NewPipeline(generation.Options{
		Sources: webapp.DirectSources(cfg, &logger),
		Logger:  &logger,
	})

	tasks, err := task.NewService(task.Options{
		Secret:    cfg.StudentSecret,
		Generator: taskPipeline,
		Publisher: publisher,
		Notifier:  notify.NewEvaluationNotifier(notify.Options{Timeout: cfg.NotifyTimeout, Logger: &logger}),
		Logger:    &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build task service")
	}

	app := handlers.NewApp(tasks, directPipeline, &logger)
	router := httpapi.NewRouter(app, httpapi.Options{
		RateLimitPerMin: cfg.RateLimitPerMin,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		Static:          static,
		Logger:          &logger,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("publisher", cfg.Publisher).
			Str("aipipe_url", cfg.AIPipeURL).
			Bool("aipipe_enabled", cfg.AIPipeEnabled).
			Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
