package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const defaultWaitDelay = 5 * time.Second

// Ffmpeg encodes an audio stream to mp3 with an ffmpeg binary.
type Ffmpeg struct {
	Path string
	// WaitDelay bounds how long Transcode waits for stdin copying after ffmpeg is killed.
	WaitDelay time.Duration
}

// New locates ffmpeg on PATH.
func New() (*Ffmpeg, error) {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg is required but unavailable: %w", err)
	}
	return &Ffmpeg{Path: path}, nil
}

// PartPath is where an in-progress encode of dstPath is written.
func PartPath(dstPath string) string {
	return filepath.Join(filepath.Dir(dstPath), "."+filepath.Base(dstPath)+".part")
}

// Transcode reads src until EOF, encodes it at bitrate kbps and moves the result to dstPath.
// dstPath only ever appears once the encode finished; failed encodes leave nothing behind.
func (f *Ffmpeg) Transcode(ctx context.Context, src io.Reader, bitrate int, dstPath string) error {
	if bitrate <= 0 {
		return fmt.Errorf("invalid bitrate %d", bitrate)
	}

	partPath := PartPath(dstPath)
	cmd := exec.CommandContext(ctx, f.Path,
		"-y",
		"-loglevel", "error",
		"-i", "pipe:0",
		"-vn",
		"-codec:a", "libmp3lame",
		"-b:a", fmt.Sprintf("%dk", bitrate),
		"-f", "mp3",
		partPath,
	)
	cmd.Stdin = src
	cmd.WaitDelay = f.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = defaultWaitDelay
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(partPath)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("ffmpeg interrupted: %w", ctxErr)
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	info, err := os.Stat(partPath)
	if err != nil {
		return fmt.Errorf("ffmpeg produced no output: %w", err)
	}
	if info.Size() == 0 {
		os.Remove(partPath)
		return errors.New("ffmpeg produced an empty file")
	}

	if err := os.Rename(partPath, dstPath); err != nil {
		os.Remove(partPath)
		return fmt.Errorf("move encoded file into place: %w", err)
	}
	return nil
}
