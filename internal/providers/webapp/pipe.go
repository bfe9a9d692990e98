package webapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"autobuilder/internal/infra"
)

const (
	pipeSourceName     = "aipipe"
	pipeDefaultTimeout = 40 * time.Second
)

// PipeOptions configures the self-hosted generation pipe.
type PipeOptions struct {
	URL        string
	Enabled    bool
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// PipeSource posts the brief to a self-hosted endpoint that answers with
// {"html": ...} or {"content": ...}.
type PipeSource struct {
	url     string
	enabled bool
	client  *http.Client
	logger  *infra.Logger
}

type pipeRequest struct {
	Brief string `json:"brief"`
}

type pipeResponse struct {
	HTML    *string `json:"html"`
	Content *string `json:"content"`
}

func NewPipeSource(opts PipeOptions) *PipeSource {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = pipeDefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	url := strings.TrimSpace(opts.URL)
	return &PipeSource{
		url:     url,
		enabled: opts.Enabled && url != "",
		client:  client,
		logger:  infra.OrDiscard(opts.Logger),
	}
}

func (p *PipeSource) Name() string  { return pipeSourceName }
func (p *PipeSource) Enabled() bool { return p.enabled }

// URL reports the configured endpoint.
func (p *PipeSource) URL() string { return p.url }

func (p *PipeSource) Generate(ctx context.Context, brief string) (string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(pipeRequest{Brief: brief}); err != nil {
		return "", fmt.Errorf("aipipe: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, &buf)
	if err != nil {
		return "", fmt.Errorf("aipipe: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("aipipe: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("aipipe: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out pipeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("aipipe: decode response: %w", err)
	}
	switch {
	case out.HTML != nil:
		p.logger.Debug().Msg("aipipe: response carried html")
		return *out.HTML, nil
	case out.Content != nil:
		p.logger.Debug().Msg("aipipe: response carried content")
		return *out.Content, nil
	default:
		return "", errors.New("aipipe: response has neither html nor content")
	}
}
