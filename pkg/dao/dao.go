package dao

import (
	"context"
	"errors"

	"playlist-importer/pkg/models"
)

var ErrPlaylistNotFound = errors.New("playlist not found")

type DbHandler interface {
	Ping(ctx context.Context) error

	SavePlaylist(ctx context.Context, playlist models.Playlist, summary models.Summary) error
	GetPlaylists(ctx context.Context, filters map[string]interface{}) ([]models.Playlist, error)
	GetPlaylist(ctx context.Context, id string) (*models.Playlist, error)

	UploadAudioFile(ctx context.Context, path, name string) (interface{}, error)
}
