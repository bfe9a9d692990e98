package generation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"autobuilder/internal/domain"
)

type stubSource struct {
	name     string
	disabled bool
	raw      string
	err      error
	panics   bool
	calls    int
	briefs   []string
}

func (s *stubSource) Name() string  { return s.name }
func (s *stubSource) Enabled() bool { return !s.disabled }

func (s *stubSource) Generate(ctx context.Context, brief string) (string, error) {
	s.calls++
	s.briefs = append(s.briefs, brief)
	if s.panics {
		panic("boom")
	}
	return s.raw, s.err
}

func TestPipelineFirstUsableSourceWins(t *testing.T) {
	pipe := &stubSource{name: "aipipe", raw: "```html\n<html><body>pipe</body></html>\n```"}
	gemini := &stubSource{name: "gemini", raw: "<html>gemini</html>"}
	openai := &stubSource{name: "openai", raw: "<html>openai</html>"}

	p := NewPipeline(Options{Sources: []Source{pipe, gemini, openai}})
	res := p.Generate(context.Background(), "  Create a login form  ")

	if res.Source != "aipipe" {
		t.Fatalf("Source = %q, want aipipe", res.Source)
	}
	if res.Document != "<!DOCTYPE html>\n<html><body>pipe</body></html>" {
		t.Fatalf("Document = %q", res.Document)
	}
	if gemini.calls != 0 || openai.calls != 0 {
		t.Fatalf("later sources invoked: gemini=%d openai=%d", gemini.calls, openai.calls)
	}
	if diff := cmp.Diff([]string{"Create a login form"}, pipe.briefs); diff != "" {
		t.Fatalf("brief passed to source mismatch (-want +got):\n%s", diff)
	}
}

func TestPipelineFallsThroughFailures(t *testing.T) {
	pipe := &stubSource{name: "aipipe", err: errors.New("connection refused")}
	gemini := &stubSource{name: "gemini", raw: "# Sorry\n**I cannot help with that**"}
	openai := &stubSource{name: "openai", raw: "Here:\n<html><p>ok</p></html>"}

	p := NewPipeline(Options{Sources: []Source{pipe, gemini, openai}})
	res := p.Generate(context.Background(), "todo app")

	if res.Source != "openai" {
		t.Fatalf("Source = %q, want openai", res.Source)
	}
	if pipe.calls != 1 || gemini.calls != 1 || openai.calls != 1 {
		t.Fatalf("calls = %d/%d/%d, want 1/1/1", pipe.calls, gemini.calls, openai.calls)
	}
	if len(res.Attempts) != 3 {
		t.Fatalf("attempts = %d, want 3", len(res.Attempts))
	}
	if !errors.Is(res.Attempts[0].Err, domain.ErrProviderFailure) || !strings.Contains(res.Attempts[0].Err.Error(), "connection refused") {
		t.Fatalf("pipe attempt error = %v, want provider failure with cause", res.Attempts[0].Err)
	}
	if !errors.Is(res.Attempts[1].Err, ErrEmptyOutput) {
		t.Fatalf("gemini attempt error = %v, want ErrEmptyOutput", res.Attempts[1].Err)
	}
}

func TestPipelineSkipsDisabledSources(t *testing.T) {
	pipe := &stubSource{name: "aipipe", disabled: true}
	gemini := &stubSource{name: "gemini", raw: "<html>g</html>"}

	p := NewPipeline(Options{Sources: []Source{pipe, nil, gemini}})
	res := p.Generate(context.Background(), "brief")

	if pipe.calls != 0 {
		t.Fatalf("disabled source called %d times", pipe.calls)
	}
	if res.Source != "gemini" {
		t.Fatalf("Source = %q, want gemini", res.Source)
	}
	if !res.Attempts[0].Skipped || res.Attempts[0].Err != nil {
		t.Fatalf("first attempt = %+v, want skipped without error", res.Attempts[0])
	}
}

func TestPipelineStaticFallbackWhenAllUnavailable(t *testing.T) {
	sources := []Source{
		&stubSource{name: "aipipe", disabled: true},
		&stubSource{name: "gemini", err: errors.New("quota")},
		&stubSource{name: "openai", panics: true},
	}
	p := NewPipeline(Options{Sources: sources})
	res := p.Generate(context.Background(), "Create a login form")

	if res.Source != StaticSourceName {
		t.Fatalf("Source = %q, want %q", res.Source, StaticSourceName)
	}
	if !strings.HasPrefix(res.Document, "<!DOCTYPE html>") {
		t.Fatalf("fallback document missing doctype: %q", res.Document)
	}
	if !strings.Contains(res.Document, "Create a login form") {
		t.Fatalf("fallback document does not embed the brief: %q", res.Document)
	}
	if !strings.Contains(res.Document, "AI generation was unavailable") {
		t.Fatalf("fallback document missing notice: %q", res.Document)
	}
	panicked := res.Attempts[2].Err
	if !errors.Is(panicked, domain.ErrProviderFailure) || !strings.Contains(panicked.Error(), "boom") {
		t.Fatalf("panic attempt error = %v, want provider failure carrying the panic value", panicked)
	}
}

func TestPipelineWithoutSources(t *testing.T) {
	res := NewPipeline(Options{}).Generate(context.Background(), "anything")
	if res.Source != StaticSourceName || res.Document == "" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestPipelineCancelledContextUsesFallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &stubSource{name: "gemini", raw: "<html>x</html>"}

	res := NewPipeline(Options{Sources: []Source{src}}).Generate(ctx, "brief")
	if src.calls != 0 {
		t.Fatalf("source called with cancelled context")
	}
	if res.Source != StaticSourceName {
		t.Fatalf("Source = %q, want static", res.Source)
	}
}
