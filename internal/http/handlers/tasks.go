package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"autobuilder/internal/domain"
	"autobuilder/internal/infra"
)

const taskSuccessMessage = "Task successfully processed and deployed."

type submitTaskResponse struct {
	Message  string `json:"message"`
	RepoURL  string `json:"repo_url"`
	PagesURL string `json:"pages_url"`
}

// SubmitTask is the instructor-facing entry point.
func (a *App) SubmitTask(w http.ResponseWriter, r *http.Request) {
	// Fields are read one at a time so a mistyped field cannot pre-empt the
	// secret check done by the orchestrator.
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.error(w, http.StatusBadRequest, domain.ErrInvalidPayload.Error())
		return
	}
	req := domain.TaskRequest{
		Secret:        stringField(body, "secret"),
		Brief:         stringField(body, "brief"),
		TaskName:      stringField(body, "task"),
		EvaluationURL: stringField(body, "evaluation_url"),
		Email:         stringField(body, "email"),
		Round:         intField(body, "round"),
		Nonce:         stringField(body, "nonce"),
	}

	res, err := a.Tasks.Run(r.Context(), req)
	if err != nil {
		code, msg := taskErrorStatus(err)
		a.Logger.Warn().
			Err(err).
			Str("request_id", infra.RequestID(r.Context())).
			Int("status", code).
			Msg("task: request failed")
		a.error(w, code, msg)
		return
	}
	a.json(w, http.StatusOK, submitTaskResponse{
		Message:  taskSuccessMessage,
		RepoURL:  res.RepoURL,
		PagesURL: res.PagesURL,
	})
}

func taskErrorStatus(err error) (int, string) {
	var perr *domain.PublishError
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden, "Invalid secret"
	case errors.Is(err, domain.ErrInvalidBrief):
		return http.StatusBadRequest, "Missing 'brief' field"
	case errors.Is(err, domain.ErrInvalidPayload):
		return http.StatusBadRequest, domain.ErrInvalidPayload.Error()
	case errors.As(err, &perr):
		return http.StatusInternalServerError, perr.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// stringField returns body[key] when it is a JSON string, else "".
func stringField(body map[string]json.RawMessage, key string) string {
	var v string
	if raw, ok := body[key]; ok {
		_ = json.Unmarshal(raw, &v)
	}
	return v
}

// intField accepts a JSON integer or a numeric string; anything else yields 0,
// which the orchestrator replaces with its default.
func intField(body map[string]json.RawMessage, key string) int {
	raw, ok := body[key]
	if !ok {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
			return n
		}
	}
	return 0
}
