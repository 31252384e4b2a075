package tagger

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"playlist-importer/pkg/service"

	"github.com/bogem/id3v2/v2"
)

const maxArtworkBytes = 10 << 20

// ID3 writes ID3v2 tags into mp3 files.
type ID3 struct {
	HttpClient service.Requestor
}

// WriteTags sets artist, album and title, and embeds the artwork as the front cover.
// Text tags are saved even when the artwork cannot be fetched; the artwork error is still returned.
func (w *ID3) WriteTags(ctx context.Context, path string, tags Tags) error {
	var artwork []byte
	var mimeType string
	var artworkErr error
	if tags.ArtworkURL != "" {
		artwork, mimeType, artworkErr = w.fetchArtwork(ctx, tags.ArtworkURL)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open tags %s: %w", path, err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetArtist(tags.Artist)
	tag.SetAlbum(tags.Album)
	tag.SetTitle(tags.Title)

	if artwork != nil {
		tag.DeleteFrames(tag.CommonID("Attached picture"))
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    mimeType,
			PictureType: id3v2.PTFrontCover,
			Description: "Front cover",
			Picture:     artwork,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save tags %s: %w", path, err)
	}
	if artworkErr != nil {
		return fmt.Errorf("artwork %s: %w", tags.ArtworkURL, artworkErr)
	}
	return nil
}

func (w *ID3) fetchArtwork(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	resp, err := w.HttpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("non-200 status code received: %v", resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxArtworkBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read artwork: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(b)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, "", fmt.Errorf("unexpected artwork content type %q", mimeType)
	}
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return b, mimeType, nil
}
