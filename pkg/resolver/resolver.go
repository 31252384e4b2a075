package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"playlist-importer/pkg/models"
	"playlist-importer/pkg/service"

	"github.com/sirupsen/logrus"
)

const SourceSpotify = "spotify"

// ResolutionError is returned when a playlist cannot be loaded from its catalog.
type ResolutionError struct {
	Source string
	ID     string
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s playlist %q: %v", e.Source, e.ID, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Catalog fetches playlist metadata.
type Catalog interface {
	FetchAccessToken(ctx context.Context) (string, error)
	FetchPlaylist(ctx context.Context, accessToken, playlistID string) (*service.CatalogPlaylist, error)
}

// SourceResolver turns a playlist identifier into a playlist of track records.
type SourceResolver struct {
	Catalog Catalog
}

// Resolve performs one token exchange and one playlist fetch.
// A failed token exchange is returned as the catalog's *service.AuthError.
func (r *SourceResolver) Resolve(ctx context.Context, source, identifier string) (*models.Playlist, error) {
	if source != SourceSpotify {
		return nil, &ResolutionError{Source: source, ID: identifier, Err: errors.New("unsupported source")}
	}

	playlistID, err := ParsePlaylistID(identifier)
	if err != nil {
		return nil, &ResolutionError{Source: source, ID: identifier, Err: err}
	}

	token, err := r.Catalog.FetchAccessToken(ctx)
	if err != nil {
		var authErr *service.AuthError
		if errors.As(err, &authErr) {
			return nil, err
		}
		return nil, &ResolutionError{Source: source, ID: playlistID, Err: err}
	}

	catalogPlaylist, err := r.Catalog.FetchPlaylist(ctx, token, playlistID)
	if err != nil {
		return nil, &ResolutionError{Source: source, ID: playlistID, Err: err}
	}

	playlist := &models.Playlist{
		ID:         catalogPlaylist.ID,
		Title:      catalogPlaylist.Title,
		Author:     catalogPlaylist.Author,
		ArtworkURL: catalogPlaylist.ArtworkURL,
		Tracks:     make([]models.Track, 0, len(catalogPlaylist.Tracks)),
	}
	if playlist.ID == "" {
		playlist.ID = playlistID
	}
	for _, t := range catalogPlaylist.Tracks {
		playlist.Tracks = append(playlist.Tracks, models.Track{
			ID:          t.ID,
			Title:       t.Title,
			Artists:     t.Artists,
			Album:       t.Album,
			ArtworkURL:  t.ArtworkURL,
			DurationMs:  t.DurationMs,
			DisplayName: models.DisplayName(t.Title, t.Artists),
		})
	}

	logrus.WithFields(logrus.Fields{
		"playlist": playlist.ID,
		"tracks":   len(playlist.Tracks),
	}).Info("Playlist found: " + playlist.Title)
	return playlist, nil
}

// ParsePlaylistID accepts a bare playlist id or an open.spotify.com playlist url.
func ParsePlaylistID(identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", errors.New("playlist identifier cannot be empty")
	}

	if !strings.Contains(identifier, "/") {
		if strings.HasPrefix(identifier, "spotify:playlist:") {
			return strings.TrimPrefix(identifier, "spotify:playlist:"), nil
		}
		return identifier, nil
	}

	u, err := url.Parse(identifier)
	if err != nil {
		return "", fmt.Errorf("invalid playlist url: %w", err)
	}
	if !strings.Contains(u.Host, "open.spotify.com") {
		return "", fmt.Errorf("not a spotify playlist url: %s", identifier)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "playlist" && parts[i+1] != "" {
			return parts[i+1], nil
		}
	}
	return "", fmt.Errorf("no playlist id found in url: %s", identifier)
}
