package domain

import "strings"

const (
	DefaultTaskName = "autobuilder-app"
	DefaultRound    = 1
)

// TaskRequest is one instructor submission. Secret is checked before any other
// field is looked at.
type TaskRequest struct {
	Secret        string
	Brief         string
	TaskName      string
	EvaluationURL string
	Email         string
	Round         int
	Nonce         string
}

// Normalize trims free-text fields and applies the documented defaults.
func (r TaskRequest) Normalize() TaskRequest {
	r.Brief = strings.TrimSpace(r.Brief)
	r.TaskName = strings.TrimSpace(r.TaskName)
	if r.TaskName == "" {
		r.TaskName = DefaultTaskName
	}
	r.EvaluationURL = strings.TrimSpace(r.EvaluationURL)
	if r.Round == 0 {
		r.Round = DefaultRound
	}
	return r
}

// TaskResult holds the URLs returned by the publishing collaborator.
type TaskResult struct {
	RepoURL  string `json:"repo_url"`
	PagesURL string `json:"pages_url"`
}

// Notification is the fixed-shape payload posted to the evaluation endpoint.
type Notification struct {
	Email    string `json:"email"`
	Task     string `json:"task"`
	Round    int    `json:"round"`
	Nonce    string `json:"nonce"`
	RepoURL  string `json:"repo_url"`
	PagesURL string `json:"pages_url"`
}

// NewNotification builds the evaluation payload for a completed task.
func NewNotification(req TaskRequest, res TaskResult) Notification {
	return Notification{
		Email:    req.Email,
		Task:     req.TaskName,
		Round:    req.Round,
		Nonce:    req.Nonce,
		RepoURL:  res.RepoURL,
		PagesURL: res.PagesURL,
	}
}
