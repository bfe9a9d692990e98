package webapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"autobuilder/internal/infra"
)

const (
	geminiSourceName     = "gemini"
	geminiDefaultModel   = "gemini-2.0-flash"
	geminiDefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	geminiDefaultTimeout = 60 * time.Second
)

// GeminiOptions configures the Gemini source.
type GeminiOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// GeminiSource asks Gemini for the whole app in a single generateContent call.
type GeminiSource struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  *infra.Logger
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature    float64 `json:"temperature,omitempty"`
	CandidateCount int     `json:"candidateCount,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason,omitempty"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewGeminiSource never fails; without an API key the source is disabled.
func NewGeminiSource(opts GeminiOptions) *GeminiSource {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = geminiDefaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = geminiDefaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: geminiDefaultTimeout}
	}
	return &GeminiSource{
		apiKey:  strings.TrimSpace(opts.APIKey),
		model:   model,
		baseURL: baseURL,
		client:  client,
		logger:  infra.OrDiscard(opts.Logger),
	}
}

func (g *GeminiSource) Name() string  { return geminiSourceName }
func (g *GeminiSource) Enabled() bool { return g.apiKey != "" }

// Model returns the configured Gemini model identifier.
func (g *GeminiSource) Model() string { return g.model }

func (g *GeminiSource) Generate(ctx context.Context, brief string) (string, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: buildAppPrompt(brief)}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:    0.4,
			CandidateCount: 1,
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("gemini: encode request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("gemini: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr geminiErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("gemini: status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("gemini: status %d", resp.StatusCode)
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	text := extractGeminiText(out)
	if text == "" {
		return "", errors.New("gemini: empty response")
	}
	g.logger.Debug().Str("model", g.model).Int("chars", len(text)).Msg("gemini: generation returned text")
	return text, nil
}

func extractGeminiText(resp geminiResponse) string {
	for _, cand := range resp.Candidates {
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			sb.WriteString(part.Text)
		}
		if text := sb.String(); strings.TrimSpace(text) != "" {
			return text
		}
	}
	return ""
}

func buildAppPrompt(brief string) string {
	return "Generate a valid HTML/JS web app for this task:\n" + brief
}
