// Package notify posts completion payloads to caller-supplied evaluation
// endpoints.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"autobuilder/internal/domain"
	"autobuilder/internal/infra"
)

const (
	defaultTimeout  = 10 * time.Second
	maxExcerptBytes = 512
)

// Options configures the evaluation notifier.
type Options struct {
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// EvaluationNotifier sends a single JSON POST per completed task.
type EvaluationNotifier struct {
	client *http.Client
	logger *infra.Logger
	policy *bluemonday.Policy
}

func NewEvaluationNotifier(opts Options) *EvaluationNotifier {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &EvaluationNotifier{
		client: client,
		logger: infra.OrDiscard(opts.Logger),
		policy: bluemonday.StrictPolicy(),
	}
}

// Notify returns a *domain.NotifyError for transport failures and non-2xx
// responses.
func (n *EvaluationNotifier) Notify(ctx context.Context, url string, payload domain.Notification) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return &domain.NotifyError{URL: url, Err: fmt.Errorf("encode payload: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return &domain.NotifyError{URL: url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return &domain.NotifyError{URL: url, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxExcerptBytes))
	excerpt := n.excerpt(data)
	n.logger.Info().
		Str("url", url).
		Int("status", resp.StatusCode).
		Str("body", excerpt).
		Msg("notify: evaluation response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.NotifyError{URL: url, Status: resp.StatusCode, Err: fmt.Errorf("unexpected status: %s", excerpt)}
	}
	return nil
}

// excerpt flattens an HTML or JSON body into a single log-safe line.
func (n *EvaluationNotifier) excerpt(data []byte) string {
	text := html.UnescapeString(n.policy.Sanitize(string(data)))
	return strings.Join(strings.Fields(text), " ")
}
