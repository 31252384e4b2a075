package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"playlist-importer/pkg/dao"
	"playlist-importer/pkg/models"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Importer interface {
	Run(ctx context.Context, req models.ImportRequest) (*models.ImportResult, error)
}

var ErrMissingAPIToken = errors.New("an API token is required to serve the API")

// ListenAndServe serves router until ctx is done, then shuts the server down gracefully.
func ListenAndServe(ctx context.Context, addr string, router http.Handler) error {
	headers := handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization"})
	origins := handlers.AllowedOrigins([]string{"*"})
	methods := handlers.AllowedMethods([]string{"GET", "HEAD", "POST", "OPTIONS"})

	server := &http.Server{
		Handler:      handlers.CORS(headers, origins, methods)(router),
		Addr:         addr,
		WriteTimeout: 20 * time.Second,
		ReadTimeout:  20 * time.Second,
	}
	shutdownGracefully(ctx, server)

	logrus.WithField("addr", addr).Info("Starting API server...")
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Route builds the API router. Imports started through it run on ctx, so cancelling ctx
// stops an import in flight.
func Route(ctx context.Context, handler dao.DbHandler, importer Importer, apiToken string) (*mux.Router, error) {
	if apiToken == "" {
		return nil, ErrMissingAPIToken
	}
	tracker := &importTracker{}

	r := mux.NewRouter()

	r.HandleFunc("/health", checkHealth(handler)).Methods(http.MethodGet)

	r.HandleFunc("/playlists", getPlaylists(handler, apiToken)).Methods(http.MethodGet)
	r.HandleFunc("/playlists/{id}", getPlaylist(handler, apiToken)).Methods(http.MethodGet)

	r.HandleFunc("/imports", startImport(ctx, importer, tracker, apiToken)).Methods(http.MethodPost)
	r.HandleFunc("/imports/current", getCurrentImport(tracker, apiToken)).Methods(http.MethodGet)

	return r, nil
}

func checkHealth(handler dao.DbHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer closeRequestBody(r)
		if err := handler.Ping(r.Context()); err != nil {
			respondWithError(w, http.StatusInternalServerError, "API is running but unable to connect to database")
			return
		}
		respondWithSuccess(w, http.StatusOK, "API is running and connected to database")
	}
}

func getPlaylists(handler dao.DbHandler, apiToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		defer closeRequestBody(r)

		if !authorize(w, r, apiToken) {
			return
		}

		filters := make(map[string]interface{})
		for key, val := range r.URL.Query() {
			if strings.HasPrefix(key, "$") {
				continue
			}
			filters[key] = val[0]
		}

		playlists, err := handler.GetPlaylists(ctx, filters)
		if err != nil {
			logrus.WithError(err).Error("Error retrieving playlists")
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if playlists == nil {
			playlists = []models.Playlist{}
		}

		respondWithSuccess(w, http.StatusOK, playlists)
	}
}

func getPlaylist(handler dao.DbHandler, apiToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		defer closeRequestBody(r)

		if !authorize(w, r, apiToken) {
			return
		}

		id := mux.Vars(r)["id"]
		playlist, err := handler.GetPlaylist(ctx, id)
		if errors.Is(err, dao.ErrPlaylistNotFound) {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		} else if err != nil {
			logrus.WithError(err).WithField("playlist", id).Error("Error retrieving playlist")
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondWithSuccess(w, http.StatusOK, playlist)
	}
}

func startImport(ctx context.Context, importer Importer, tracker *importTracker, apiToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer closeRequestBody(r)

		if !authorize(w, r, apiToken) {
			return
		}

		var req models.ImportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithError(err).Error("Error decoding import request")
			respondWithError(w, http.StatusBadRequest, "Invalid import request")
			return
		}
		if strings.TrimSpace(req.PlaylistURL) == "" {
			respondWithError(w, http.StatusBadRequest, "playlistUrl is required")
			return
		}

		status, ok := tracker.start(req)
		if !ok {
			respondWithError(w, http.StatusConflict, "An import is already running")
			return
		}

		go func() {
			result, err := importer.Run(ctx, req)
			if err != nil {
				logrus.WithError(err).WithField("playlist", req.PlaylistURL).Error("Import failed")
			}
			tracker.finish(result, err)
		}()

		respondWithSuccess(w, http.StatusAccepted, status)
	}
}

func getCurrentImport(tracker *importTracker, apiToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer closeRequestBody(r)

		if !authorize(w, r, apiToken) {
			return
		}

		status, ok := tracker.snapshot()
		if !ok {
			respondWithError(w, http.StatusNotFound, "No import has been started")
			return
		}
		respondWithSuccess(w, http.StatusOK, status)
	}
}

func shutdownGracefully(ctx context.Context, server *http.Server) {
	go func() {
		<-ctx.Done()

		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(c); err != nil {
			logrus.WithError(err).Error("Error shutting down server")
		}
	}()
}

func respondWithSuccess(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if body == nil {
		logrus.Error("Body is nil, unable to write response")
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Error("Error encoding response")
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if message == "" {
		logrus.Error("Body is nil, unable to write response")
		return
	}
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		logrus.WithError(err).Error("Error encoding response")
	}
}

func closeRequestBody(req *http.Request) {
	if req.Body == nil {
		return
	}
	if err := req.Body.Close(); err != nil {
		logrus.WithError(err).Error("Error closing request body")
	}
}

// authorize writes the error response itself and reports whether the handler may continue.
// An empty apiToken disables authentication.
func authorize(w http.ResponseWriter, r *http.Request, apiToken string) bool {
	if apiToken == "" {
		return true
	}

	token, err := getAuthToken(r)
	if err != nil {
		logrus.WithError(err).Error("Error retrieving auth token")
		respondWithError(w, http.StatusBadRequest, err.Error())
		return false
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(apiToken)) != 1 {
		logrus.Error("Authentication failed")
		respondWithError(w, http.StatusUnauthorized, "Authentication failed")
		return false
	}
	return true
}

func getAuthToken(r *http.Request) (string, error) {
	tokenHeader := r.Header.Get("Authorization")
	if tokenHeader == "" {
		return "", errors.New("no authorization header found")
	}
	parts := strings.Split(tokenHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("authorization header must be in format 'Bearer' <token>")
	}
	return parts[1], nil
}
