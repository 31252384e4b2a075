package pipeline

import "fmt"

// DownloadError is a per-track stream or transcode failure.
type DownloadError struct {
	DisplayName string
	Err         error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %q: %v", e.DisplayName, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// TagError is a per-track tagging failure. The audio file is kept.
type TagError struct {
	DisplayName string
	Err         error
}

func (e *TagError) Error() string {
	return fmt.Sprintf("tag %q: %v", e.DisplayName, e.Err)
}

func (e *TagError) Unwrap() error {
	return e.Err
}
