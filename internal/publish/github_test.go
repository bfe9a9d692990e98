package publish

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"autobuilder/internal/domain"
)

// fakeGitHub is a minimal in-memory stand-in for the REST endpoints the
// publisher touches.
type fakeGitHub struct {
	mu        sync.Mutex
	repos     map[string]bool
	files     map[string]string
	calls     []string
	pagesCode int
	failOn    string
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{repos: map[string]bool{}, files: map[string]string{}, pagesCode: http.StatusCreated}
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := r.Method + " " + r.URL.Path
	f.calls = append(f.calls, call)
	if r.Header.Get("Authorization") != "Bearer tok" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"Bad credentials"}`)
		return
	}
	if f.failOn != "" && call == f.failOn {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"message":"boom"}`)
		return
	}

	switch {
	case call == "GET /user":
		_, _ = io.WriteString(w, `{"login":"Octo"}`)
	case call == "POST /user/repos":
		var body githubCreateRepo
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.repos[body.Name] = true
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":     body.Name,
			"html_url": "https://github.com/Octo/" + body.Name,
			"owner":    map[string]string{"login": "Octo"},
		})
	case strings.HasSuffix(r.URL.Path, "/pages"):
		w.WriteHeader(f.pagesCode)
		_, _ = io.WriteString(w, `{}`)
	case strings.Contains(r.URL.Path, "/contents/"):
		path := r.URL.Path[strings.Index(r.URL.Path, "/contents/")+len("/contents/"):]
		if r.Method == http.MethodGet {
			if _, ok := f.files[path]; !ok {
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `{"message":"Not Found"}`)
				return
			}
			_, _ = io.WriteString(w, `{"sha":"sha-`+path+`"}`)
			return
		}
		var body githubPutContent
		_ = json.NewDecoder(r.Body).Decode(&body)
		if _, exists := f.files[path]; exists && body.SHA == "" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = io.WriteString(w, `{"message":"sha wasn't supplied"}`)
			return
		}
		data, _ := base64.StdEncoding.DecodeString(body.Content)
		f.files[path] = string(data)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{}`)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/repos/"):
		name := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		if !f.repos[name] {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"Not Found"}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":     name,
			"html_url": "https://github.com/Octo/" + name,
			"owner":    map[string]string{"login": "Octo"},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestPublisher(t *testing.T, fake *fakeGitHub, owner string) *GitHubPublisher {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	pub, err := NewGitHubPublisher(GitHubOptions{Token: "tok", Owner: owner, APIURL: srv.URL})
	if err != nil {
		t.Fatalf("NewGitHubPublisher: %v", err)
	}
	pub.nowFunc = func() time.Time { return time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC) }
	return pub
}

func TestGitHubPublisherCreatesRepoAndEnablesPages(t *testing.T) {
	fake := newFakeGitHub()
	pub := newTestPublisher(t, fake, "")

	res, err := pub.Publish(context.Background(), "Login Form", "<!DOCTYPE html>\n<html></html>")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	want := domain.TaskResult{
		RepoURL:  "https://github.com/Octo/login-form",
		PagesURL: "https://octo.github.io/login-form/",
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
	if fake.files["index.html"] != "<!DOCTYPE html>\n<html></html>" {
		t.Fatalf("index.html = %q", fake.files["index.html"])
	}
	if !strings.HasPrefix(fake.files["README.md"], "# Login Form") {
		t.Fatalf("README.md = %q", fake.files["README.md"])
	}
	wantCalls := []string{
		"GET /user",
		"GET /repos/Octo/login-form",
		"POST /user/repos",
		"GET /repos/Octo/login-form/contents/index.html",
		"PUT /repos/Octo/login-form/contents/index.html",
		"GET /repos/Octo/login-form/contents/README.md",
		"PUT /repos/Octo/login-form/contents/README.md",
		"POST /repos/Octo/login-form/pages",
	}
	if diff := cmp.Diff(wantCalls, fake.calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestGitHubPublisherUpdatesExistingRepo(t *testing.T) {
	fake := newFakeGitHub()
	fake.repos["login-form"] = true
	fake.files["index.html"] = "old"
	fake.pagesCode = http.StatusConflict
	pub := newTestPublisher(t, fake, "Octo")

	if _, err := pub.Publish(context.Background(), "login-form", "new"); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if fake.files["index.html"] != "new" {
		t.Fatalf("index.html = %q, want overwritten", fake.files["index.html"])
	}
	for _, c := range fake.calls {
		if c == "GET /user" || c == "POST /user/repos" {
			t.Fatalf("unexpected call %q", c)
		}
	}
}

func TestGitHubPublisherFailures(t *testing.T) {
	tests := []struct {
		name    string
		failOn  string
		wantErr string
	}{
		{name: "user lookup", failOn: "GET /user", wantErr: "resolve github user"},
		{name: "repo create", failOn: "POST /user/repos", wantErr: "create repository"},
		{name: "content write", failOn: "PUT /repos/Octo/t/contents/index.html", wantErr: "write index.html"},
		{name: "pages", failOn: "POST /repos/Octo/t/pages", wantErr: "enable pages"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := newFakeGitHub()
			fake.failOn = tc.failOn
			pub := newTestPublisher(t, fake, "")
			_, err := pub.Publish(context.Background(), "t", "doc")
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tc.wantErr)
			}
			var apiErr *apiError
			if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError {
				t.Fatalf("error %v does not carry status 500", err)
			}
		})
	}
}

func TestGitHubPublisherBadToken(t *testing.T) {
	fake := newFakeGitHub()
	srv := httptest.NewServer(fake)
	defer srv.Close()
	pub, err := NewGitHubPublisher(GitHubOptions{Token: "wrong", APIURL: srv.URL})
	if err != nil {
		t.Fatalf("NewGitHubPublisher: %v", err)
	}
	_, err = pub.Publish(context.Background(), "t", "doc")
	if err == nil || !strings.Contains(err.Error(), "Bad credentials") {
		t.Fatalf("error = %v, want bad credentials", err)
	}
}

func TestNewGitHubPublisherRequiresToken(t *testing.T) {
	if _, err := NewGitHubPublisher(GitHubOptions{Token: "  "}); err == nil {
		t.Fatal("expected error for empty token")
	}
}
