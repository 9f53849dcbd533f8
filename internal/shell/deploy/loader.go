package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/cappuccino213/eWordDockerManager/internal/core/archive"
	"github.com/cappuccino213/eWordDockerManager/internal/core/reconcile"
	"github.com/cappuccino213/eWordDockerManager/internal/shell/docker"
)

// =============================================================================
// ImageLoader
// =============================================================================

// ImageLoader loads exported image archives from a directory into the
// local image store, skipping tags that are already present.
type ImageLoader struct {
	docker docker.Client
	dir    string
	ext    string
	logger *slog.Logger
}

// NewImageLoader creates an image loader scanning dir for archives with
// the given extension (e.g. ".tar").
func NewImageLoader(cli docker.Client, dir, ext string, logger *slog.Logger) *ImageLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageLoader{
		docker: cli,
		dir:    dir,
		ext:    ext,
		logger: logger,
	}
}

// Run processes every archive in the directory once. Archives whose tag is
// already present are skipped. A load failure on a known tag aborts the
// remaining batch; a failure on the best-effort fallback path is recorded
// and processing continues.
func (l *ImageLoader) Run(ctx context.Context) (*LoadReport, error) {
	report := &LoadReport{}

	paths, err := archive.List(l.dir, l.ext)
	if err != nil {
		return report, err
	}
	if len(paths) == 0 {
		l.logger.Info("no image archives found", "dir", l.dir, "ext", l.ext)
		return report, nil
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		name := filepath.Base(path)

		tag, tagErr := archive.ExtractRepoTag(path)
		if tagErr != nil {
			// Best-effort path: no idempotence check is possible without
			// a tag, so load unconditionally and keep going on failure.
			l.logger.Warn("cannot extract repo tag, loading unconditionally",
				"archive", name,
				"error", tagErr,
			)
			if loadErr := l.docker.LoadImage(path); loadErr != nil {
				l.logger.Error("fallback load failed", "archive", name, "error", loadErr)
				report.Results = append(report.Results, LoadResult{
					Archive: name,
					Outcome: OutcomeFailed,
					Err:     loadErr,
				})
				continue
			}
			l.logger.Info("loaded archive without tag", "archive", name)
			report.Results = append(report.Results, LoadResult{
				Archive: name,
				Outcome: OutcomeFallback,
			})
			continue
		}

		present, err := l.docker.ImageExists(tag)
		if err != nil {
			report.Results = append(report.Results, LoadResult{
				Archive: name,
				RepoTag: tag,
				Outcome: OutcomeFailed,
				Err:     err,
			})
			return report, fmt.Errorf("query image %s: %w", tag, err)
		}

		switch reconcile.DecideLoad(true, present) {
		case reconcile.LoadSkip:
			l.logger.Info("image already present, skipping", "archive", name, "tag", tag)
			report.Results = append(report.Results, LoadResult{
				Archive: name,
				RepoTag: tag,
				Outcome: OutcomeSkipped,
			})

		case reconcile.LoadPerform:
			l.logger.Info("loading image archive", "archive", name, "tag", tag)
			if loadErr := l.docker.LoadImage(path); loadErr != nil {
				report.Results = append(report.Results, LoadResult{
					Archive: name,
					RepoTag: tag,
					Outcome: OutcomeFailed,
					Err:     loadErr,
				})
				// A hard failure on a known tag is fatal for the batch.
				return report, fmt.Errorf("load %s: %w: %w", name, ErrLoadAborted, loadErr)
			}
			l.logger.Info("loaded image", "archive", name, "tag", tag)
			report.Results = append(report.Results, LoadResult{
				Archive: name,
				RepoTag: tag,
				Outcome: OutcomeLoaded,
			})
		}
	}

	return report, nil
}
