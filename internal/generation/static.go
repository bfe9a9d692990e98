package generation

import (
	"fmt"
	"html"
	"strings"

	"github.com/flosch/pongo2/v6"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const fallbackNotice = "This is a fallback page generated because AI generation was unavailable."

const staticTemplateSource = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{ title }}</title>
    <style>
        body { font-family: system-ui, sans-serif; background: #f8f9fa; margin: 0; }
        .card { max-width: 720px; margin: 48px auto; background: #fff; padding: 32px; border-radius: 8px; box-shadow: 0 2px 12px rgba(0,0,0,.08); }
        .muted { color: #6c757d; }
        pre { white-space: pre-wrap; word-break: break-word; }
    </style>
</head>
<body>
    <main class="card">
        <h1>{{ title }}</h1>
        <p><strong>Task Brief:</strong></p>
        <pre id="brief">{{ brief }}</pre>
        <p class="muted">{{ notice }}</p>
    </main>
</body>
</html>`

// StaticTemplate renders the last-resort document around a brief. The brief is
// HTML-escaped so it shows up verbatim instead of being interpreted.
type StaticTemplate struct {
	tpl   *pongo2.Template
	title string
}

// NewStaticTemplate compiles the fallback template. appName becomes the page
// title after title-casing, e.g. "autobuilder-app" -> "Autobuilder App".
func NewStaticTemplate(appName string) (*StaticTemplate, error) {
	tpl, err := pongo2.FromString(staticTemplateSource)
	if err != nil {
		return nil, fmt.Errorf("compile fallback template: %w", err)
	}
	return &StaticTemplate{tpl: tpl, title: displayTitle(appName)}, nil
}

// DefaultStaticTemplate returns the template titled "Autobuilder App".
func DefaultStaticTemplate() *StaticTemplate {
	tpl, err := NewStaticTemplate("autobuilder-app")
	if err != nil {
		panic(err)
	}
	return tpl
}

// Render always returns a complete document.
func (s *StaticTemplate) Render(brief string) string {
	out, err := s.tpl.Execute(pongo2.Context{
		"title":  s.title,
		"brief":  brief,
		"notice": fallbackNotice,
	})
	if err != nil {
		return minimalDocument(s.title, brief)
	}
	return strings.TrimSpace(out)
}

func minimalDocument(title, brief string) string {
	return fmt.Sprintf("<!DOCTYPE html>\n<html><head><title>%s</title></head><body><h1>%s</h1><p>Brief: %s</p><p>%s</p></body></html>",
		html.EscapeString(title), html.EscapeString(title), html.EscapeString(brief), fallbackNotice)
}

func displayTitle(name string) string {
	name = strings.NewReplacer("-", " ", "_", " ").Replace(strings.TrimSpace(name))
	if name == "" {
		name = "autobuilder app"
	}
	return cases.Title(language.English).String(strings.Join(strings.Fields(name), " "))
}
