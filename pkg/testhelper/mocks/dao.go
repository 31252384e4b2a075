package mocks

import (
	"context"

	"playlist-importer/pkg/models"

	"github.com/stretchr/testify/mock"
)

type DbHandler struct {
	mock.Mock
}

func (m *DbHandler) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *DbHandler) SavePlaylist(ctx context.Context, playlist models.Playlist, summary models.Summary) error {
	args := m.Called(ctx, playlist, summary)
	return args.Error(0)
}

func (m *DbHandler) GetPlaylists(ctx context.Context, filters map[string]interface{}) ([]models.Playlist, error) {
	args := m.Called(ctx, filters)
	playlists, _ := args.Get(0).([]models.Playlist)
	return playlists, args.Error(1)
}

func (m *DbHandler) GetPlaylist(ctx context.Context, id string) (*models.Playlist, error) {
	args := m.Called(ctx, id)
	playlist, _ := args.Get(0).(*models.Playlist)
	return playlist, args.Error(1)
}

func (m *DbHandler) UploadAudioFile(ctx context.Context, path, name string) (interface{}, error) {
	args := m.Called(ctx, path, name)
	return args.Get(0), args.Error(1)
}
