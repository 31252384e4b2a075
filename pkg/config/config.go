package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	SourceSpotify = "spotify"

	StreamYoutube = "youtube"
	StreamYtdlp   = "ytdlp"
)

// Config contains runtime options for an import run and the HTTP surface.
type Config struct {
	Source       string
	PlaylistURL  string
	OutputDir    string
	FolderTitle  string
	Bitrate      int
	Verbose      bool
	Interactive  bool
	TrackTimeout time.Duration
	HTTPTimeout  time.Duration
	Stream       string

	SpotifyClientID     string
	SpotifyClientSecret string
	YoutubeAPIKey       string

	MongoURI      string
	MongoDatabase string
	LibraryUpload bool

	Addr     string
	APIToken string
}

// Parse reads flags into Config. Environment variables provide defaults.
func Parse(args []string) (Config, error) {
	fs := flag.NewFlagSet("playlist-importer", flag.ContinueOnError)

	cfg := Config{}
	fs.StringVar(&cfg.Source, "source", SourceSpotify, "catalog the playlist comes from")
	fs.StringVar(&cfg.PlaylistURL, "playlist", "", "playlist url or id")
	fs.StringVar(&cfg.OutputDir, "output", getEnvOrDefault("IMPORTER_OUTPUT_DIR", "."), "directory the playlist folder is created in")
	fs.StringVar(&cfg.FolderTitle, "folder", "", "destination folder name (defaults to the playlist title)")
	fs.IntVar(&cfg.Bitrate, "bitrate", 320, "target audio bitrate in kbps (128 or 320)")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "log progress messages")
	fs.BoolVar(&cfg.Interactive, "interactive", false, "prompt for the import options")
	fs.DurationVar(&cfg.TrackTimeout, "track-timeout", 10*time.Minute, "upper bound for matching, downloading and tagging one track")
	fs.DurationVar(&cfg.HTTPTimeout, "http-timeout", 30*time.Second, "timeout for catalog, search and artwork requests")
	fs.StringVar(&cfg.Stream, "stream", StreamYoutube, "audio stream backend (youtube or ytdlp)")
	fs.BoolVar(&cfg.LibraryUpload, "library-upload", false, "upload downloaded audio to the library store")
	fs.StringVar(&cfg.Addr, "addr", getEnvOrDefault("IMPORTER_ADDR", ":8002"), "listen address for serve")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.SpotifyClientID = os.Getenv("SPOTIFY_CLIENT_ID")
	cfg.SpotifyClientSecret = os.Getenv("SPOTIFY_CLIENT_SECRET")
	cfg.YoutubeAPIKey = os.Getenv("YOUTUBE_API_KEY")
	cfg.MongoURI = os.Getenv("MONGO_URI")
	cfg.MongoDatabase = getEnvOrDefault("MONGO_DATABASE", "importer")
	cfg.APIToken = os.Getenv("API_TOKEN")

	if cfg.PlaylistURL == "" && fs.NArg() > 0 {
		cfg.PlaylistURL = fs.Arg(0)
	}
	if cfg.PlaylistURL == "" {
		cfg.Interactive = true
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks option values that flag parsing cannot.
func (c Config) Validate() error {
	if err := ValidateBitrate(c.Bitrate); err != nil {
		return err
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return errors.New("output directory cannot be empty")
	}
	if c.TrackTimeout <= 0 {
		return fmt.Errorf("track timeout must be positive, got %s", c.TrackTimeout)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %s", c.HTTPTimeout)
	}
	switch c.Stream {
	case StreamYoutube, StreamYtdlp:
	default:
		return fmt.Errorf("unknown stream backend %q", c.Stream)
	}
	if c.Source != SourceSpotify {
		return fmt.Errorf("unsupported source %q", c.Source)
	}
	return nil
}

// ValidateBitrate accepts the two offered qualities.
func ValidateBitrate(bitrate int) error {
	if bitrate != 128 && bitrate != 320 {
		return fmt.Errorf("bitrate must be 128 or 320, got %d", bitrate)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
