package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"autobuilder/internal/domain"
	"autobuilder/internal/infra"
	"autobuilder/internal/storage"
	"autobuilder/pkg/zip"
)

// LocalOptions configures the filesystem publisher.
type LocalOptions struct {
	Store   *storage.FileStore
	BaseURL string
	Logger  *infra.Logger
}

// LocalPublisher writes each site under its slug in a FileStore and bundles a
// downloadable archive next to it. The API serves the store under /static.
type LocalPublisher struct {
	store   *storage.FileStore
	baseURL string
	logger  *infra.Logger
}

// archiveModTime stamps every archive entry so republishing identical content
// produces identical bytes. It is the earliest time a zip header can encode.
var archiveModTime = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

func NewLocalPublisher(opts LocalOptions) (*LocalPublisher, error) {
	if opts.Store == nil {
		return nil, errors.New("local publisher: store is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("local publisher: base url is required")
	}
	return &LocalPublisher{
		store:   opts.Store,
		baseURL: baseURL,
		logger:  infra.OrDiscard(opts.Logger),
	}, nil
}

func (p *LocalPublisher) Publish(ctx context.Context, taskName, document string) (domain.TaskResult, error) {
	slug := RepoName(taskName)
	pagesURL := fmt.Sprintf("%s/%s/index.html", p.baseURL, slug)
	readmeData := []byte(readme(taskName, pagesURL))

	indexKey, err := p.store.Write(ctx, slug+"/index.html", []byte(document))
	if err != nil {
		return domain.TaskResult{}, err
	}
	if _, err := p.store.Write(ctx, slug+"/README.md", readmeData); err != nil {
		return domain.TaskResult{}, err
	}

	archive, err := zip.Archive([]zip.File{
		{Name: "index.html", Data: []byte(document)},
		{Name: "README.md", Data: readmeData},
	}, archiveModTime)
	if err != nil {
		return domain.TaskResult{}, err
	}
	archiveKey, err := p.store.Write(ctx, slug+"/site.zip", archive)
	if err != nil {
		return domain.TaskResult{}, err
	}

	p.logger.Info().
		Str("index", indexKey).
		Str("archive", archiveKey).
		Int("bytes", len(document)).
		Msg("local: site published")
	return domain.TaskResult{
		RepoURL:  fmt.Sprintf("%s/%s", p.baseURL, archiveKey),
		PagesURL: pagesURL,
	}, nil
}
