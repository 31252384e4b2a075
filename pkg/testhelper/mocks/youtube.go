package mocks

import (
	"context"
	"io"

	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/mock"
)

type YoutubeClient struct {
	mock.Mock
}

func (m *YoutubeClient) GetVideoContext(ctx context.Context, videoID string) (*youtube.Video, error) {
	args := m.Called(ctx, videoID)
	video, _ := args.Get(0).(*youtube.Video)
	return video, args.Error(1)
}

func (m *YoutubeClient) GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error) {
	args := m.Called(ctx, video, format)
	stream, _ := args.Get(0).(io.ReadCloser)
	return stream, args.Get(1).(int64), args.Error(2)
}
