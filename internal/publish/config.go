package publish

import (
	"context"
	"fmt"
	"net/http"

	"autobuilder/internal/domain"
	"autobuilder/internal/infra"
	"autobuilder/internal/storage"
)

// Publisher stores a document and reports where it can be found.
type Publisher interface {
	Publish(ctx context.Context, taskName, document string) (domain.TaskResult, error)
}

var (
	_ Publisher = (*GitHubPublisher)(nil)
	_ Publisher = (*LocalPublisher)(nil)
)

// FromConfig builds the configured publisher. The returned handler serves
// published sites and is non-nil only in local mode.
func FromConfig(cfg *infra.Config, logger *infra.Logger) (Publisher, http.Handler, error) {
	switch cfg.Publisher {
	case infra.PublisherLocal:
		store, err := storage.NewFileStore(cfg.StoragePath)
		if err != nil {
			return nil, nil, err
		}
		pub, err := NewLocalPublisher(LocalOptions{Store: store, BaseURL: cfg.StorageBaseURL, Logger: logger})
		if err != nil {
			return nil, nil, err
		}
		return pub, store.Handler(), nil
	case infra.PublisherGitHub:
		pub, err := NewGitHubPublisher(GitHubOptions{
			Token:  cfg.GitHubToken,
			Owner:  cfg.GitHubOwner,
			APIURL: cfg.GitHubAPIURL,
			Branch: cfg.GitHubBranch,
			Logger: logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return pub, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown publisher %q", cfg.Publisher)
	}
}
