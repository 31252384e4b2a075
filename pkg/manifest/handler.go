package manifest

import (
	"context"

	"playlist-importer/pkg/models"

	"github.com/sirupsen/logrus"
)

// Handler persists the resolved playlist once the download queue is drained.
type Handler struct {
	Directory string
	Logger    *logrus.Entry
}

func (h *Handler) Path() string {
	return PathFor(h.Directory)
}

func (h *Handler) OnDrained(_ context.Context, playlist *models.Playlist, summary models.Summary) error {
	path := h.Path()
	log := h.logger().WithFields(logrus.Fields{
		"manifest":   path,
		"downloaded": summary.Count(models.OutcomeDownloaded),
		"existing":   summary.Count(models.OutcomeSkippedExisting),
		"no_match":   summary.Count(models.OutcomeSkippedNoMatch),
		"failed":     summary.Count(models.OutcomeFailed),
	})

	if err := Write(path, playlist); err != nil {
		log.WithError(err).Error("Import completed without manifest")
		return err
	}
	log.Info("Import completed")
	return nil
}

func (h *Handler) logger() *logrus.Entry {
	if h.Logger == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return h.Logger
}
