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
	openAISourceName     = "openai"
	openAIDefaultModel   = "gpt-4o-mini"
	openAIDefaultBaseURL = "https://api.openai.com/v1"
	openAIDefaultTimeout = 60 * time.Second

	openAISystemPrompt = "You are an expert web app generator. Always output only valid HTML."
)

var openAIModelAliases = map[string]string{
	"gpt-3.5":      "gpt-3.5-turbo",
	"gpt3.5":       "gpt-3.5-turbo",
	"gpt-35-turbo": "gpt-3.5-turbo",
	"gpt35-turbo":  "gpt-3.5-turbo",
	"gpt4o-mini":   "gpt-4o-mini",
	"gpt4omini":    "gpt-4o-mini",
	"gpt4o":        "gpt-4o",
}

// OpenAIOptions configures the OpenAI source.
type OpenAIOptions struct {
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
	HTTPClient   *http.Client
	Logger       *infra.Logger
}

// OpenAISource asks the chat completions API for the app, constraining the
// answer to HTML through the system message.
type OpenAISource struct {
	apiKey       string
	model        string
	baseURL      string
	organization string
	client       *http.Client
	logger       *infra.Logger
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewOpenAISource never fails; without an API key the source is disabled.
func NewOpenAISource(opts OpenAIOptions) *OpenAISource {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = openAIDefaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	logger := infra.OrDiscard(opts.Logger)
	model := normalizeOpenAIModel(opts.Model)
	if requested := strings.TrimSpace(opts.Model); requested != "" && requested != model {
		logger.Warn().Str("requested", requested).Str("resolved", model).Msg("openai: model alias resolved")
	}
	return &OpenAISource{
		apiKey:       strings.TrimSpace(opts.APIKey),
		model:        model,
		baseURL:      baseURL,
		organization: strings.TrimSpace(opts.Organization),
		client:       client,
		logger:       logger,
	}
}

func (o *OpenAISource) Name() string  { return openAISourceName }
func (o *OpenAISource) Enabled() bool { return o.apiKey != "" }

// Model returns the resolved model identifier.
func (o *OpenAISource) Model() string { return o.model }

func (o *OpenAISource) Generate(ctx context.Context, brief string) (string, error) {
	payload := openAIChatRequest{
		Model:       o.model,
		Temperature: 0.4,
		Messages: []openAIMessage{
			{Role: "system", Content: openAISystemPrompt},
			{Role: "user", Content: "Generate a valid, standalone HTML/JS/CSS app for this task:\n" + brief},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("openai: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", &buf)
	if err != nil {
		return "", fmt.Errorf("openai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	if o.organization != "" {
		req.Header.Set("OpenAI-Organization", o.organization)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr openAIErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("openai: status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("openai: status %d", resp.StatusCode)
	}

	var out openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("openai: no choices")
	}
	text := out.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", errors.New("openai: empty response")
	}
	o.logger.Debug().Str("model", o.model).Int("chars", len(text)).Msg("openai: completion returned text")
	return text, nil
}

func normalizeOpenAIModel(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return openAIDefaultModel
	}
	key := strings.ToLower(strings.Join(strings.Fields(trimmed), "-"))
	if canonical, ok := openAIModelAliases[key]; ok {
		return canonical
	}
	return trimmed
}
