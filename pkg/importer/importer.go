package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"playlist-importer/pkg/config"
	"playlist-importer/pkg/manifest"
	"playlist-importer/pkg/models"
	"playlist-importer/pkg/pipeline"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Resolver interface {
	Resolve(ctx context.Context, source, identifier string) (*models.Playlist, error)
}

// Importer resolves a playlist and drains it through a download pipeline.
type Importer struct {
	Resolver   Resolver
	Matcher    pipeline.Matcher
	Stream     pipeline.StreamSource
	Transcoder pipeline.Transcoder
	Tagger     pipeline.TagWriter

	// Library is optional. When set, resolved playlists are saved to it after each run.
	Library     LibraryStore
	UploadAudio bool

	OutputDir    string
	Bitrate      int
	TrackTimeout time.Duration

	Logger   *logrus.Entry
	NewRunID func() string
}

// Run returns an error only when the run cannot start: bad request, failed resolution
// or an unusable destination folder. Per-track failures are reported in the summary.
func (i *Importer) Run(ctx context.Context, req models.ImportRequest) (*models.ImportResult, error) {
	source := req.Source
	if source == "" {
		source = config.SourceSpotify
	}
	bitrate := req.Bitrate
	if bitrate == 0 {
		bitrate = i.Bitrate
	}
	if err := config.ValidateBitrate(bitrate); err != nil {
		return nil, err
	}
	folderPath := req.FolderPath
	if folderPath == "" {
		folderPath = i.OutputDir
	}

	runID := i.runID()
	log := i.logger().WithField("run", runID)

	log.Info("Fetching playlist...")
	playlist, err := i.Resolver.Resolve(ctx, source, req.PlaylistURL)
	if err != nil {
		return nil, err
	}

	directory := filepath.Join(folderPath, FolderName(req.FolderTitle, playlist))
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("create destination %s: %w", directory, err)
	}

	manifestHandler := &manifest.Handler{Directory: directory, Logger: log}
	completion := Chain{manifestHandler}
	if i.Library != nil {
		completion = append(completion, &libraryCompletion{store: i.Library, uploadAudio: i.UploadAudio, logger: log})
	}

	p := &pipeline.Pipeline{
		Matcher:      i.Matcher,
		Stream:       i.Stream,
		Transcoder:   i.Transcoder,
		Tagger:       i.Tagger,
		Completion:   completion,
		Directory:    directory,
		Bitrate:      bitrate,
		TrackTimeout: i.TrackTimeout,
		RunID:        runID,
		Logger:       i.logger(),
	}

	log.WithField("directory", directory).Info("Downloading tracks...")
	summary := p.Run(ctx, playlist)

	return &models.ImportResult{
		Playlist:     playlist,
		Summary:      summary,
		Directory:    directory,
		ManifestPath: manifestHandler.Path(),
	}, nil
}

// FolderName picks the destination folder: the requested title wins over the playlist title.
func FolderName(requested string, playlist *models.Playlist) string {
	name := strings.TrimSpace(requested)
	if name == "" {
		name = playlist.Title
	}
	if strings.TrimSpace(name) == "" {
		name = playlist.ID
	}
	return pipeline.SanitizeFileName(name)
}

func (i *Importer) runID() string {
	if i.NewRunID != nil {
		return i.NewRunID()
	}
	return uuid.NewString()
}

func (i *Importer) logger() *logrus.Entry {
	if i.Logger == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return i.Logger
}

// Chain runs every completion in order, even when an earlier one fails.
type Chain []pipeline.Completion

func (c Chain) OnDrained(ctx context.Context, playlist *models.Playlist, summary models.Summary) error {
	var errs []error
	for _, completion := range c {
		if err := completion.OnDrained(ctx, playlist, summary); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
