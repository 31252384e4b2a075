package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"playlist-importer/pkg/models"
)

const youtubeAPIURL = "https://www.googleapis.com/youtube/v3"

// SearchHandler queries the YouTube Data API.
type SearchHandler struct {
	HttpClient Requestor
	APIKey     string
	APIURL     string
}

type searchResponse struct {
	Items []struct {
		ID struct {
			Kind    string `json:"kind"`
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
	} `json:"items"`
}

// SearchByTitle returns results in the order the service ranked them.
// Kinds are reported without the "youtube#" prefix.
func (s *SearchHandler) SearchByTitle(ctx context.Context, query string) ([]models.SearchResult, error) {
	if s.APIKey == "" {
		return nil, errors.New("search api key cannot be empty")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("key", s.APIKey)
	params.Set("type", "video")
	params.Set("part", "snippet")

	var resp searchResponse
	if err := getJSON(ctx, s.HttpClient, fmt.Sprintf("%s/search?%s", s.apiURL(), params.Encode()), nil, &resp); err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, models.SearchResult{
			Kind:     strings.TrimPrefix(item.ID.Kind, "youtube#"),
			RemoteID: item.ID.VideoID,
			Title:    item.Snippet.Title,
		})
	}
	return results, nil
}

func (s *SearchHandler) apiURL() string {
	if s.APIURL != "" {
		return strings.TrimSuffix(s.APIURL, "/")
	}
	return youtubeAPIURL
}
