package handlers

import (
	"net/http"
)

const welcomeMessage = "Welcome to the Autobuilder API. Use POST /api-endpoint to submit tasks."

func (a *App) Home(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"message": welcomeMessage})
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
