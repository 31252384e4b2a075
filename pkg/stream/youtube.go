package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kkdai/youtube/v2"
	"github.com/sirupsen/logrus"
)

var ErrNoAudioFormat = errors.New("no audio-only format available")

type YoutubeClient interface {
	GetVideoContext(ctx context.Context, videoID string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

// YoutubeSource streams the best audio-only format of a video.
type YoutubeSource struct {
	Client YoutubeClient
}

// NewYoutubeSource creates a source backed by a default youtube client.
func NewYoutubeSource() *YoutubeSource {
	return &YoutubeSource{Client: &youtube.Client{}}
}

// Open resolves the video behind sourceURL and opens its highest-bitrate audio-only stream.
// The returned reader is lazy and can be consumed once.
func (s *YoutubeSource) Open(ctx context.Context, sourceURL string) (io.ReadCloser, error) {
	video, err := s.Client.GetVideoContext(ctx, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("get video %s: %w", sourceURL, err)
	}

	format := bestAudioFormat(video.Formats)
	if format == nil {
		return nil, fmt.Errorf("video %s: %w", sourceURL, ErrNoAudioFormat)
	}

	stream, size, err := s.Client.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, fmt.Errorf("get stream %s: %w", sourceURL, err)
	}

	logrus.WithFields(logrus.Fields{
		"video":   video.ID,
		"itag":    format.ItagNo,
		"mime":    format.MimeType,
		"bitrate": format.Bitrate,
		"size":    size,
	}).Debug("Opened audio stream")
	return stream, nil
}

func bestAudioFormat(formats youtube.FormatList) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		format := &formats[i]
		if !strings.HasPrefix(format.MimeType, "audio/") {
			continue
		}
		if best == nil || format.Bitrate > best.Bitrate {
			best = format
		}
	}
	return best
}
