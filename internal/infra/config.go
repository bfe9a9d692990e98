package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	PublisherGitHub = "github"
	PublisherLocal  = "local"
)

// Config represents application configuration loaded from environment variables.
// It is built once at startup and treated as read-only afterwards.
type Config struct {
	AppEnv             string
	Port               string
	StudentSecret      string
	Publisher          string
	GitHubToken        string
	GitHubOwner        string
	GitHubAPIURL       string
	GitHubBranch       string
	StoragePath        string
	StorageBaseURL     string
	AIPipeURL          string
	AIPipePort         string
	AIPipeEnabled      bool
	AIPipeTimeout      time.Duration
	GeminiAPIKey       string
	GeminiModel        string
	GeminiBaseURL      string
	OpenAIAPIKey       string
	OpenAIModel        string
	OpenAIBaseURL      string
	OpenAIOrg          string
	ProviderTimeout    time.Duration
	NotifyTimeout      time.Duration
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               port,
		StudentSecret:      strings.TrimSpace(os.Getenv("STUDENT_SECRET")),
		Publisher:          strings.ToLower(getEnv("PUBLISHER", PublisherGitHub)),
		GitHubToken:        strings.TrimSpace(os.Getenv("GITHUB_TOKEN")),
		GitHubOwner:        strings.TrimSpace(os.Getenv("GITHUB_OWNER")),
		GitHubAPIURL:       getEnv("GITHUB_API_URL", "https://api.github.com"),
		GitHubBranch:       getEnv("GITHUB_BRANCH", "main"),
		StoragePath:        getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:     getEnv("STORAGE_BASE_URL", fmt.Sprintf("http://localhost:%s/static", port)),
		AIPipeURL:          getEnv("AIPIPE_URL", "http://127.0.0.1:9000/aipipe"),
		AIPipePort:         getEnv("AIPIPE_PORT", "9000"),
		AIPipeEnabled:      getEnvBool("AIPIPE_ENABLED", true),
		AIPipeTimeout:      time.Second * time.Duration(getEnvInt("AIPIPE_TIMEOUT_SECONDS", 40)),
		GeminiAPIKey:       strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL:      getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		OpenAIAPIKey:       strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:          os.Getenv("OPENAI_ORG"),
		ProviderTimeout:    time.Second * time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 60)),
		NotifyTimeout:      time.Second * time.Duration(getEnvInt("NOTIFY_TIMEOUT_SECONDS", 10)),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
	}

	switch cfg.Publisher {
	case PublisherGitHub, PublisherLocal:
	default:
		return nil, fmt.Errorf("PUBLISHER must be %q or %q, got %q", PublisherGitHub, PublisherLocal, cfg.Publisher)
	}

	return cfg, nil
}

// ValidateTaskServer reports the settings the task API cannot start without.
func (c *Config) ValidateTaskServer() error {
	if c.StudentSecret == "" {
		return fmt.Errorf("STUDENT_SECRET is required")
	}
	if c.Publisher == PublisherGitHub && c.GitHubToken == "" {
		return fmt.Errorf("GITHUB_TOKEN is required when PUBLISHER=%s", PublisherGitHub)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
