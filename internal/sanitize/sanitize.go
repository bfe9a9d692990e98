// Package sanitize turns free-form model output into a single HTML document.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

// Doctype is prepended to documents that do not declare one.
const Doctype = "<!DOCTYPE html>"

var (
	fenceMarker   = regexp.MustCompile("(?i)```html|```")
	htmlElement   = regexp.MustCompile(`(?i)<html[\s\S]*?</html>`)
	htmlClose     = regexp.MustCompile(`(?i)</html>`)
	boldSpan      = regexp.MustCompile(`\*\*.*?\*\*`)
	fencedBlock   = regexp.MustCompile("(?s)```.*?```")
	doctypePrefix = regexp.MustCompile(`(?i)^<!doctype`)
)

// HTML normalizes raw model text into a document that starts with a doctype.
// It returns "" when nothing usable survives; callers treat that as no output.
//
// The first <html ...> element wins: the span runs from the first opening tag
// to the first closing tag after it, and anything after that is dropped.
func HTML(raw string) string {
	if raw == "" {
		return ""
	}

	cleaned := fenceMarker.ReplaceAllString(raw, "")

	if span, ok := htmlSpan(cleaned); ok {
		cleaned = span
	} else {
		cleaned = stripMarkdown(cleaned)
		// Removing bold markers can join a tag that was split around them.
		if span, ok := htmlSpan(cleaned); ok {
			cleaned = span
		}
	}

	if loc := htmlClose.FindStringIndex(cleaned); loc != nil {
		cleaned = cleaned[:loc[1]]
	}

	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return ""
	}
	if !doctypePrefix.MatchString(cleaned) {
		cleaned = Doctype + "\n" + cleaned
	}
	return strings.TrimSpace(cleaned)
}

func htmlSpan(text string) (string, bool) {
	loc := htmlElement.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return text[loc[0]:loc[1]], true
}

func stripMarkdown(text string) string {
	text = boldSpan.ReplaceAllString(text, "")
	text = fencedBlock.ReplaceAllString(text, "")
	text = stripHeadings(text)
	return strings.TrimSpace(text)
}

// stripHeadings blanks every line whose first non-space rune is '#'. Leading
// space is judged with unicode.IsSpace, the same set strings.TrimSpace uses,
// so a heading cannot resurface after the final trim.
func stripHeadings(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimLeftFunc(line, unicode.IsSpace), "#") {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}
