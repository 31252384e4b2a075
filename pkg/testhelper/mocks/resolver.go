package mocks

import (
	"context"

	"playlist-importer/pkg/models"
	"playlist-importer/pkg/service"

	"github.com/stretchr/testify/mock"
)

type Catalog struct {
	mock.Mock
}

func (m *Catalog) FetchAccessToken(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *Catalog) FetchPlaylist(ctx context.Context, accessToken, playlistID string) (*service.CatalogPlaylist, error) {
	args := m.Called(ctx, accessToken, playlistID)
	playlist, _ := args.Get(0).(*service.CatalogPlaylist)
	return playlist, args.Error(1)
}

type Searcher struct {
	mock.Mock
}

func (m *Searcher) SearchByTitle(ctx context.Context, query string) ([]models.SearchResult, error) {
	args := m.Called(ctx, query)
	results, _ := args.Get(0).([]models.SearchResult)
	return results, args.Error(1)
}

type Matcher struct {
	mock.Mock
}

func (m *Matcher) FindMatch(ctx context.Context, track models.Track) (string, error) {
	args := m.Called(ctx, track)
	return args.String(0), args.Error(1)
}

type Resolver struct {
	mock.Mock
}

func (m *Resolver) Resolve(ctx context.Context, source, identifier string) (*models.Playlist, error) {
	args := m.Called(ctx, source, identifier)
	playlist, _ := args.Get(0).(*models.Playlist)
	return playlist, args.Error(1)
}
