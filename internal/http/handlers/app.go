package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"autobuilder/internal/domain"
	"autobuilder/internal/generation"
	"autobuilder/internal/infra"
)

// TaskRunner runs one deployment request end to end.
type TaskRunner interface {
	Run(ctx context.Context, req domain.TaskRequest) (domain.TaskResult, error)
}

// Generator produces a document for a brief and never fails.
type Generator interface {
	Generate(ctx context.Context, brief string) generation.Result
}

// App holds the collaborators shared by all handlers. Tasks is nil on the
// stand-alone pipe server.
type App struct {
	Tasks    TaskRunner
	Pipeline Generator
	Logger   *infra.Logger
}

func NewApp(tasks TaskRunner, pipeline Generator, logger *infra.Logger) *App {
	return &App{Tasks: tasks, Pipeline: pipeline, Logger: infra.OrDiscard(logger)}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}
