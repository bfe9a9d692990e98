// Package publish implements the publishing collaborator: it stores a
// generated document and returns its repository and hosted-page URLs.
package publish

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"autobuilder/internal/domain"
)

const maxRepoNameLen = 100

// RepoName turns a task name into a repository-safe slug: lower case ASCII
// letters, digits, '.', '_' and '-' only.
func RepoName(taskName string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(taskName)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_':
			sb.WriteRune(r)
			dash = false
		default:
			if !dash && sb.Len() > 0 {
				sb.WriteByte('-')
				dash = true
			}
		}
	}
	name := strings.Trim(sb.String(), "-.")
	if len(name) > maxRepoNameLen {
		name = strings.Trim(name[:maxRepoNameLen], "-.")
	}
	if name == "" {
		return domain.DefaultTaskName
	}
	return name
}

func readme(taskName, pagesURL string) string {
	title := cases.Title(language.English).String(strings.ReplaceAll(RepoName(taskName), "-", " "))
	return fmt.Sprintf("# %s\n\nGenerated by autobuilder for task `%s`.\n\nLive site: %s\n", title, taskName, pagesURL)
}
