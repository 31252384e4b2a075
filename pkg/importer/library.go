package importer

import (
	"context"
	"fmt"

	"playlist-importer/pkg/models"

	"github.com/sirupsen/logrus"
)

// LibraryStore is the subset of the library database a run writes to.
type LibraryStore interface {
	SavePlaylist(ctx context.Context, playlist models.Playlist, summary models.Summary) error
	UploadAudioFile(ctx context.Context, path, name string) (interface{}, error)
}

type libraryCompletion struct {
	store       LibraryStore
	uploadAudio bool
	logger      *logrus.Entry
}

func (l *libraryCompletion) OnDrained(ctx context.Context, playlist *models.Playlist, summary models.Summary) error {
	if l.uploadAudio {
		for _, result := range summary.Results {
			if result.Outcome != models.OutcomeDownloaded {
				continue
			}
			track := playlist.Tracks[result.Index]
			fileID, err := l.store.UploadAudioFile(ctx, track.DestinationPath, track.DestinationFileName)
			if err != nil {
				l.logger.WithError(err).WithField("track", track.ID).Error("Unable to upload audio file")
				continue
			}
			l.logger.WithFields(logrus.Fields{"track": track.ID, "file": fileID}).Info("Audio file uploaded")
		}
	}

	if err := l.store.SavePlaylist(ctx, *playlist, summary); err != nil {
		return fmt.Errorf("save playlist %s to library: %w", playlist.ID, err)
	}
	l.logger.WithField("playlist", playlist.ID).Info("Playlist saved to library")
	return nil
}
