package prompt

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"playlist-importer/pkg/config"
	"playlist-importer/pkg/models"
	"playlist-importer/pkg/resolver"

	"github.com/charmbracelet/huh"
)

// Ask fills an import request interactively. Values already present in defaults are offered as answers.
func Ask(defaults models.ImportRequest) (models.ImportRequest, error) {
	if err := requireTerminal(); err != nil {
		return models.ImportRequest{}, err
	}

	req := defaults
	if req.Source == "" {
		req.Source = config.SourceSpotify
	}
	if req.Bitrate == 0 {
		req.Bitrate = 320
	}

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which platform is the playlist on?").
				Options(huh.NewOption("Spotify", config.SourceSpotify)).
				Value(&req.Source),
			huh.NewInput().
				Title("Playlist URL").
				Placeholder("https://open.spotify.com/playlist/...").
				Validate(validatePlaylistURL).
				Value(&req.PlaylistURL),
			huh.NewSelect[int]().
				Title("Audio quality").
				Options(
					huh.NewOption("320 kbps", 320),
					huh.NewOption("128 kbps", 128),
				).
				Value(&req.Bitrate),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Destination folder").
				Description("The playlist folder is created inside it.").
				Validate(validateFolderPath).
				Value(&req.FolderPath),
			huh.NewInput().
				Title("Folder title").
				Description("Leave empty to use the playlist title.").
				Value(&req.FolderTitle),
		),
	).Run()
	if err != nil {
		return models.ImportRequest{}, fmt.Errorf("run import prompt: %w", err)
	}

	req.PlaylistURL = strings.TrimSpace(req.PlaylistURL)
	req.FolderPath = strings.TrimSpace(req.FolderPath)
	req.FolderTitle = strings.TrimSpace(req.FolderTitle)
	return req, nil
}

func requireTerminal() error {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return fmt.Errorf("inspect stdin: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 {
		return errors.New("interactive mode requires a terminal; use -playlist instead")
	}
	return nil
}

func validatePlaylistURL(value string) error {
	_, err := resolver.ParsePlaylistID(value)
	return err
}

func validateFolderPath(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return errors.New("destination folder cannot be empty")
	}
	stat, err := os.Stat(value)
	if err != nil {
		return fmt.Errorf("destination folder not found: %s", value)
	}
	if !stat.IsDir() {
		return fmt.Errorf("not a directory: %s", value)
	}
	return nil
}
