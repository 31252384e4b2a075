package mocks

import (
	"context"
	"io"

	"playlist-importer/pkg/models"

	"github.com/stretchr/testify/mock"
)

type StreamSource struct {
	mock.Mock
}

func (m *StreamSource) Open(ctx context.Context, sourceURL string) (io.ReadCloser, error) {
	args := m.Called(ctx, sourceURL)
	stream, _ := args.Get(0).(io.ReadCloser)
	return stream, args.Error(1)
}

type Transcoder struct {
	mock.Mock
}

func (m *Transcoder) Transcode(ctx context.Context, src io.Reader, bitrate int, dstPath string) error {
	args := m.Called(ctx, src, bitrate, dstPath)
	return args.Error(0)
}

type TagWriter struct {
	mock.Mock
}

func (m *TagWriter) WriteTags(ctx context.Context, path string, tags models.Tags) error {
	args := m.Called(ctx, path, tags)
	return args.Error(0)
}

type Completion struct {
	mock.Mock
}

func (m *Completion) OnDrained(ctx context.Context, playlist *models.Playlist, summary models.Summary) error {
	args := m.Called(ctx, playlist, summary)
	return args.Error(0)
}

type Importer struct {
	mock.Mock
}

func (m *Importer) Run(ctx context.Context, req models.ImportRequest) (*models.ImportResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*models.ImportResult)
	return result, args.Error(1)
}
