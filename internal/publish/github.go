package publish

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"autobuilder/internal/domain"
	"autobuilder/internal/infra"
)

const (
	githubDefaultAPIURL  = "https://api.github.com"
	githubDefaultBranch  = "main"
	githubDefaultTimeout = 30 * time.Second
	githubAPIVersion     = "2022-11-28"
)

// GitHubOptions configures the GitHub publisher.
type GitHubOptions struct {
	Token      string
	Owner      string
	APIURL     string
	Branch     string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// GitHubPublisher creates (or reuses) a public repository per task, commits the
// document as index.html and turns on GitHub Pages for the branch.
type GitHubPublisher struct {
	token   string
	owner   string
	apiURL  string
	branch  string
	client  *http.Client
	logger  *infra.Logger
	nowFunc func() time.Time
}

type githubRepo struct {
	Name          string `json:"name"`
	HTMLURL       string `json:"html_url"`
	DefaultBranch string `json:"default_branch"`
	Owner         struct {
		Login string `json:"login"`
	} `json:"owner"`
}

type githubUser struct {
	Login string `json:"login"`
}

type githubCreateRepo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Private     bool   `json:"private"`
	AutoInit    bool   `json:"auto_init"`
}

type githubContent struct {
	SHA string `json:"sha"`
}

type githubPutContent struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"`
}

type githubPagesRequest struct {
	Source githubPagesSource `json:"source"`
}

type githubPagesSource struct {
	Branch string `json:"branch"`
	Path   string `json:"path"`
}

type githubError struct {
	Message string `json:"message"`
}

// apiError keeps the status so callers can tell "not found" from real failures.
type apiError struct {
	Status  int
	Method  string
	Path    string
	Message string
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("github: %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("github: %s %s: status %d", e.Method, e.Path, e.Status)
}

func NewGitHubPublisher(opts GitHubOptions) (*GitHubPublisher, error) {
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, errors.New("github token is required")
	}
	apiURL := strings.TrimRight(strings.TrimSpace(opts.APIURL), "/")
	if apiURL == "" {
		apiURL = githubDefaultAPIURL
	}
	branch := strings.TrimSpace(opts.Branch)
	if branch == "" {
		branch = githubDefaultBranch
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: githubDefaultTimeout}
	}
	return &GitHubPublisher{
		token:   token,
		owner:   strings.TrimSpace(opts.Owner),
		apiURL:  apiURL,
		branch:  branch,
		client:  client,
		logger:  infra.OrDiscard(opts.Logger),
		nowFunc: time.Now,
	}, nil
}

// Publish implements the publishing collaborator contract.
func (g *GitHubPublisher) Publish(ctx context.Context, taskName, document string) (domain.TaskResult, error) {
	repoName := RepoName(taskName)

	owner, err := g.resolveOwner(ctx)
	if err != nil {
		return domain.TaskResult{}, err
	}

	repo, err := g.ensureRepo(ctx, owner, repoName, taskName)
	if err != nil {
		return domain.TaskResult{}, err
	}
	if repo.Owner.Login != "" {
		owner = repo.Owner.Login
	}

	pagesURL := fmt.Sprintf("https://%s.github.io/%s/", strings.ToLower(owner), repo.Name)
	stamp := g.nowFunc().UTC().Format(time.RFC3339)
	files := []struct {
		path string
		data string
	}{
		{path: "index.html", data: document},
		{path: "README.md", data: readme(taskName, pagesURL)},
	}
	for _, f := range files {
		msg := fmt.Sprintf("Update %s (%s)", f.path, stamp)
		if err := g.putFile(ctx, owner, repo.Name, f.path, []byte(f.data), msg); err != nil {
			return domain.TaskResult{}, err
		}
	}

	if err := g.enablePages(ctx, owner, repo.Name); err != nil {
		return domain.TaskResult{}, err
	}

	repoURL := repo.HTMLURL
	if repoURL == "" {
		repoURL = fmt.Sprintf("https://github.com/%s/%s", owner, repo.Name)
	}
	g.logger.Info().
		Str("repo", owner+"/"+repo.Name).
		Str("pages_url", pagesURL).
		Msg("github: site published")
	return domain.TaskResult{RepoURL: repoURL, PagesURL: pagesURL}, nil
}

func (g *GitHubPublisher) resolveOwner(ctx context.Context) (string, error) {
	if g.owner != "" {
		return g.owner, nil
	}
	var user githubUser
	if err := g.do(ctx, http.MethodGet, "/user", nil, &user); err != nil {
		return "", fmt.Errorf("resolve github user: %w", err)
	}
	if user.Login == "" {
		return "", errors.New("resolve github user: empty login")
	}
	return user.Login, nil
}

func (g *GitHubPublisher) ensureRepo(ctx context.Context, owner, name, taskName string) (githubRepo, error) {
	var repo githubRepo
	err := g.do(ctx, http.MethodGet, repoPath(owner, name), nil, &repo)
	if err == nil {
		return repo, nil
	}
	if !isStatus(err, http.StatusNotFound) {
		return githubRepo{}, fmt.Errorf("lookup repository: %w", err)
	}

	g.logger.Info().Str("repo", owner+"/"+name).Msg("github: creating repository")
	create := githubCreateRepo{
		Name:        name,
		Description: fmt.Sprintf("Autobuilder app for task %s", taskName),
		AutoInit:    true,
	}
	if err := g.do(ctx, http.MethodPost, "/user/repos", create, &repo); err != nil {
		return githubRepo{}, fmt.Errorf("create repository: %w", err)
	}
	return repo, nil
}

func (g *GitHubPublisher) putFile(ctx context.Context, owner, repo, path string, data []byte, message string) error {
	filePath := repoPath(owner, repo) + "/contents/" + path
	var existing githubContent
	err := g.do(ctx, http.MethodGet, filePath+"?ref="+url.QueryEscape(g.branch), nil, &existing)
	if err != nil && !isStatus(err, http.StatusNotFound) {
		return fmt.Errorf("read %s: %w", path, err)
	}
	body := githubPutContent{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(data),
		Branch:  g.branch,
		SHA:     existing.SHA,
	}
	if err := g.do(ctx, http.MethodPut, filePath, body, nil); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (g *GitHubPublisher) enablePages(ctx context.Context, owner, repo string) error {
	body := githubPagesRequest{Source: githubPagesSource{Branch: g.branch, Path: "/"}}
	err := g.do(ctx, http.MethodPost, repoPath(owner, repo)+"/pages", body, nil)
	switch {
	case err == nil:
		g.logger.Info().Str("repo", owner+"/"+repo).Msg("github: pages enabled")
		return nil
	case isStatus(err, http.StatusConflict), isStatus(err, http.StatusUnprocessableEntity):
		// already enabled
		return nil
	default:
		return fmt.Errorf("enable pages: %w", err)
	}
}

func (g *GitHubPublisher) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return fmt.Errorf("github: encode request: %w", err)
		}
		body = &buf
	}
	req, err := http.NewRequestWithContext(ctx, method, g.apiURL+path, body)
	if err != nil {
		return fmt.Errorf("github: build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("X-GitHub-Api-Version", githubAPIVersion)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("github: %s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr githubError
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(data, &apiErr)
		return &apiError{Status: resp.StatusCode, Method: method, Path: path, Message: apiErr.Message}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("github: decode %s %s: %w", method, path, err)
	}
	return nil
}

func repoPath(owner, repo string) string {
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo)
}

func isStatus(err error, status int) bool {
	var apiErr *apiError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
