package resolver

import (
	"context"
	"errors"
	"fmt"

	"playlist-importer/pkg/models"
)

const (
	KindVideo = "video"

	watchURL = "https://www.youtube.com/watch?v="
)

var ErrNoMatchFound = errors.New("no match found")

// Searcher resolves a free-text query to search hits.
type Searcher interface {
	SearchByTitle(ctx context.Context, query string) ([]models.SearchResult, error)
}

// MatchResolver maps a track to a remote video id.
type MatchResolver struct {
	Search Searcher
}

// FindMatch returns the first video-kind result in upstream order.
// Results are not ranked by version (extended, original).
func (m *MatchResolver) FindMatch(ctx context.Context, track models.Track) (string, error) {
	results, err := m.Search.SearchByTitle(ctx, track.DisplayName)
	if err != nil {
		return "", fmt.Errorf("search %q: %w", track.DisplayName, err)
	}

	for _, result := range results {
		if result.Kind == KindVideo && result.RemoteID != "" {
			return result.RemoteID, nil
		}
	}
	return "", fmt.Errorf("%q: %w", track.DisplayName, ErrNoMatchFound)
}

// WatchURL builds the remote url for a matched video id.
func WatchURL(remoteID string) string {
	return watchURL + remoteID
}
