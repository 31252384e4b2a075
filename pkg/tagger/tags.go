package tagger

import "playlist-importer/pkg/models"

type Tags = models.Tags

// TagsFor builds the embedded metadata for a track.
func TagsFor(track models.Track) Tags {
	return Tags{
		Artist:     models.JoinArtists(track.Artists),
		Album:      track.Album,
		Title:      track.DisplayName,
		ArtworkURL: track.ArtworkURL,
	}
}
