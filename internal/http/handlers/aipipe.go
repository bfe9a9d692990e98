package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"autobuilder/internal/infra"
)

type aipipeRequest struct {
	Brief string `json:"brief"`
}

type aipipeResponse struct {
	HTML string `json:"html"`
}

// AIPipe answers with a generated document for the brief. The fallback
// template guarantees a 200 once the brief is valid.
func (a *App) AIPipe(w http.ResponseWriter, r *http.Request) {
	var req aipipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	brief := strings.TrimSpace(req.Brief)
	if brief == "" {
		a.error(w, http.StatusBadRequest, "Missing 'brief' field")
		return
	}
	res := a.Pipeline.Generate(r.Context(), brief)
	a.Logger.Info().
		Str("request_id", infra.RequestID(r.Context())).
		Str("source", res.Source).
		Int("attempts", len(res.Attempts)).
		Msg("aipipe: document served")
	a.json(w, http.StatusOK, aipipeResponse{HTML: res.Document})
}
