package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"

	"playlist-importer/pkg/api"
	"playlist-importer/pkg/config"
	"playlist-importer/pkg/dao"
	"playlist-importer/pkg/importer"
	"playlist-importer/pkg/models"
	"playlist-importer/pkg/pipeline"
	"playlist-importer/pkg/prompt"
	"playlist-importer/pkg/resolver"
	"playlist-importer/pkg/service"
	"playlist-importer/pkg/stream"
	"playlist-importer/pkg/tagger"
	"playlist-importer/pkg/transcode"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.WithError(err).Warn("Unable to load .env file")
	}

	args := os.Args[1:]
	serve := len(args) > 0 && args[0] == "serve"
	if serve {
		args = args[1:]
	}

	cfg, err := config.Parse(args)
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	configureLogging(cfg.Verbose || serve)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var library *dao.MongoClient
	if cfg.MongoURI != "" {
		library, err = dao.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			logrus.WithError(err).Fatal("Error creating database client")
		}
	} else if serve {
		logrus.Fatal("MONGO_URI is required to serve the API")
	}

	imp, err := newImporter(cfg, library)
	if err != nil {
		logrus.WithError(err).Fatal("Unable to set up importer")
	}

	if serve {
		router, err := api.Route(ctx, library, imp, cfg.APIToken)
		if err != nil {
			logrus.WithError(err).Fatal("API_TOKEN is required to serve the API")
		}
		if err := api.ListenAndServe(ctx, cfg.Addr, router); err != nil {
			logrus.WithError(err).Fatal("Could not serve API")
		}
		return
	}

	req := models.ImportRequest{
		Source:      cfg.Source,
		PlaylistURL: cfg.PlaylistURL,
		FolderPath:  cfg.OutputDir,
		FolderTitle: cfg.FolderTitle,
		Bitrate:     cfg.Bitrate,
	}
	if cfg.Interactive {
		req, err = prompt.Ask(req)
		if err != nil {
			logrus.WithError(err).Fatal("Unable to read import options")
		}
	}

	result, err := imp.Run(ctx, req)
	if err != nil {
		logrus.WithError(err).Fatal("Import failed")
	}
	if failed := result.Summary.Count(models.OutcomeFailed); failed > 0 {
		logrus.WithFields(logrus.Fields{
			"failed":    failed,
			"directory": result.Directory,
		}).Warn("Some tracks could not be downloaded")
	}
}

func configureLogging(verbose bool) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		logrus.SetLevel(logrus.InfoLevel)
		return
	}
	logrus.SetLevel(logrus.WarnLevel)
}

func newImporter(cfg config.Config, library *dao.MongoClient) (*importer.Importer, error) {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	ffmpeg, err := transcode.New()
	if err != nil {
		return nil, err
	}

	var source pipeline.StreamSource
	switch cfg.Stream {
	case config.StreamYtdlp:
		source = &stream.YtdlpSource{}
	default:
		source = stream.NewYoutubeSource()
	}

	imp := &importer.Importer{
		Resolver: &resolver.SourceResolver{
			Catalog: &service.CatalogHandler{
				HttpClient:   httpClient,
				ClientID:     cfg.SpotifyClientID,
				ClientSecret: cfg.SpotifyClientSecret,
			},
		},
		Matcher: &resolver.MatchResolver{
			Search: &service.SearchHandler{
				HttpClient: httpClient,
				APIKey:     cfg.YoutubeAPIKey,
			},
		},
		Stream:       source,
		Transcoder:   ffmpeg,
		Tagger:       &tagger.ID3{HttpClient: httpClient},
		UploadAudio:  cfg.LibraryUpload,
		OutputDir:    cfg.OutputDir,
		Bitrate:      cfg.Bitrate,
		TrackTimeout: cfg.TrackTimeout,
		Logger:       logrus.NewEntry(logrus.StandardLogger()),
	}
	if library != nil {
		imp.Library = library
	}
	return imp, nil
}
