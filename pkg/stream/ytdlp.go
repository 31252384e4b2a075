package stream

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lrstanley/go-ytdlp"
)

// YtdlpSource fetches the best audio with yt-dlp into a scratch directory and
// streams it from there. The scratch directory is removed when the reader is closed.
type YtdlpSource struct {
	TempDir string
}

func (s *YtdlpSource) Open(ctx context.Context, sourceURL string) (io.ReadCloser, error) {
	dir, err := os.MkdirTemp(s.TempDir, "ytdlp-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	dl := ytdlp.New().
		Format("bestaudio").
		NoPlaylist().
		ForceOverwrites().
		Output(filepath.Join(dir, "audio.%(ext)s"))

	if _, err := dl.Run(ctx, sourceURL); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("yt-dlp %s: %w", sourceURL, err)
	}

	return openScratchFile(dir)
}

func openScratchFile(dir string) (io.ReadCloser, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "audio.*"))
	if err != nil || len(matches) == 0 {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("no audio file produced in %s", dir)
	}

	f, err := os.Open(matches[0])
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("open %s: %w", matches[0], err)
	}
	return &scratchFile{File: f, dir: dir}, nil
}

type scratchFile struct {
	*os.File
	dir string
}

func (f *scratchFile) Close() error {
	err := f.File.Close()
	if rmErr := os.RemoveAll(f.dir); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}
