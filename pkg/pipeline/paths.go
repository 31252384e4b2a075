package pipeline

import (
	"path/filepath"
	"strings"
)

const AudioExtension = ".mp3"

var fileNameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// SanitizeFileName makes a display name safe to use as a file base name. Spaces are kept.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(fileNameReplacer.Replace(name))
	name = strings.TrimRight(name, ". ")
	if name == "" {
		return "_"
	}
	return name
}

func destination(directory, displayName string) (fileName, path string) {
	fileName = SanitizeFileName(displayName) + AudioExtension
	return fileName, filepath.Join(directory, fileName)
}
