package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyAPIURL   = "https://api.spotify.com/v1"

	artworkHeight = 300
)

// AuthError is returned when the client-credentials exchange fails.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	if e.StatusCode == 0 {
		return "catalog auth failed: " + e.Message
	}
	return fmt.Sprintf("catalog auth failed with status %d: %s", e.StatusCode, e.Message)
}

// CatalogTrack is the catalog's view of one playlist entry.
type CatalogTrack struct {
	ID         string
	Title      string
	Artists    []string
	Album      string
	ArtworkURL string
	DurationMs int
}

// CatalogPlaylist is the catalog's view of a playlist.
type CatalogPlaylist struct {
	ID         string
	Title      string
	Author     string
	ArtworkURL string
	Tracks     []CatalogTrack
}

// CatalogHandler talks to the Spotify Web API.
type CatalogHandler struct {
	HttpClient   Requestor
	ClientID     string
	ClientSecret string
	TokenURL     string
	APIURL       string
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
}

type trackObject struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DurationMs int    `json:"duration_ms"`
	Artists    []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album *struct {
		Name   string  `json:"name"`
		Images []image `json:"images"`
	} `json:"album"`
}

type trackPage struct {
	Items []struct {
		Track *trackObject `json:"track"`
	} `json:"items"`
	Next string `json:"next"`
}

type playlistResponse struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Images []image `json:"images"`
	Owner  *struct {
		DisplayName string `json:"display_name"`
	} `json:"owner"`
	Tracks trackPage `json:"tracks"`
}

// FetchAccessToken exchanges the client credentials for a bearer token.
func (c *CatalogHandler) FetchAccessToken(ctx context.Context) (string, error) {
	if c.ClientID == "" || c.ClientSecret == "" {
		return "", &AuthError{Message: "client id and secret cannot be empty"}
	}

	data := url.Values{}
	data.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL(), strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.ClientID, c.ClientSecret)

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &AuthError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", &AuthError{StatusCode: resp.StatusCode, Message: "empty access token"}
	}
	return token.AccessToken, nil
}

// FetchPlaylist loads a playlist and every page of its tracks.
// Entries without a track object (local files, removed tracks) are dropped.
func (c *CatalogHandler) FetchPlaylist(ctx context.Context, accessToken, playlistID string) (*CatalogPlaylist, error) {
	if playlistID == "" {
		return nil, errors.New("playlist id cannot be empty")
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+accessToken)

	var resp playlistResponse
	if err := getJSON(ctx, c.HttpClient, fmt.Sprintf("%s/playlists/%s", c.apiURL(), url.PathEscape(playlistID)), header, &resp); err != nil {
		return nil, err
	}

	playlist := &CatalogPlaylist{
		ID:    resp.ID,
		Title: resp.Name,
	}
	if resp.Owner != nil {
		playlist.Author = resp.Owner.DisplayName
	}
	if len(resp.Images) > 0 {
		playlist.ArtworkURL = resp.Images[0].URL
	}

	page := resp.Tracks
	for {
		for _, item := range page.Items {
			if item.Track == nil {
				continue
			}
			playlist.Tracks = append(playlist.Tracks, toCatalogTrack(item.Track))
		}
		if page.Next == "" {
			break
		}
		next := trackPage{}
		if err := getJSON(ctx, c.HttpClient, page.Next, header, &next); err != nil {
			return nil, fmt.Errorf("fetch tracks page: %w", err)
		}
		page = next
	}

	return playlist, nil
}

func toCatalogTrack(t *trackObject) CatalogTrack {
	artists := make([]string, 0, len(t.Artists))
	for _, artist := range t.Artists {
		artists = append(artists, artist.Name)
	}

	track := CatalogTrack{
		ID:         t.ID,
		Title:      t.Name,
		Artists:    artists,
		DurationMs: t.DurationMs,
	}
	if t.Album != nil {
		track.Album = t.Album.Name
		track.ArtworkURL = pickArtwork(t.Album.Images)
	}
	return track
}

func pickArtwork(images []image) string {
	for _, img := range images {
		if img.Height == artworkHeight {
			return img.URL
		}
	}
	if len(images) > 0 {
		return images[0].URL
	}
	return ""
}

func (c *CatalogHandler) tokenURL() string {
	if c.TokenURL != "" {
		return c.TokenURL
	}
	return spotifyTokenURL
}

func (c *CatalogHandler) apiURL() string {
	if c.APIURL != "" {
		return strings.TrimSuffix(c.APIURL, "/")
	}
	return spotifyAPIURL
}
