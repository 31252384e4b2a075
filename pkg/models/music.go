package models

import "strings"

type Track struct {
	ID                   string   `json:"id" bson:"id"`
	Title                string   `json:"title" bson:"title"`
	Artists              []string `json:"artists" bson:"artists"`
	Album                string   `json:"album,omitempty" bson:"album,omitempty"`
	ArtworkURL           string   `json:"artworkUrl,omitempty" bson:"artworkUrl,omitempty"`
	DurationMs           int      `json:"durationMs,omitempty" bson:"durationMs,omitempty"`
	DisplayName          string   `json:"displayName" bson:"displayName"`
	MatchID              string   `json:"matchId,omitempty" bson:"matchId,omitempty"`
	SourceURL            string   `json:"sourceUrl,omitempty" bson:"sourceUrl,omitempty"`
	DestinationPath      string   `json:"destinationPath,omitempty" bson:"destinationPath,omitempty"`
	DestinationFileName  string   `json:"destinationFileName,omitempty" bson:"destinationFileName,omitempty"`
	DestinationDirectory string   `json:"destinationDirectory,omitempty" bson:"destinationDirectory,omitempty"`
}

type Playlist struct {
	ID         string  `json:"id" bson:"_id"`
	Title      string  `json:"title" bson:"title"`
	Author     string  `json:"author,omitempty" bson:"author,omitempty"`
	ArtworkURL string  `json:"artworkUrl,omitempty" bson:"artworkUrl,omitempty"`
	Tracks     []Track `json:"tracks" bson:"tracks"`
}

// SearchResult is one hit returned by the search service.
type SearchResult struct {
	Kind     string `json:"kind"`
	RemoteID string `json:"remoteId"`
	Title    string `json:"title,omitempty"`
}

// ImportRequest describes one import run.
type ImportRequest struct {
	Source      string `json:"source"`
	PlaylistURL string `json:"playlistUrl"`
	FolderPath  string `json:"folderPath,omitempty"`
	FolderTitle string `json:"folderTitle,omitempty"`
	Bitrate     int    `json:"bitrate,omitempty"`
}

// JoinArtists renders an artist list the way it appears in tags and display names.
func JoinArtists(artists []string) string {
	return strings.Join(artists, ", ")
}

// DisplayName is the search query and file base name for a track.
func DisplayName(title string, artists []string) string {
	if len(artists) == 0 {
		return title
	}
	return title + " - " + JoinArtists(artists)
}
