package dao

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"playlist-importer/pkg/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type MongoClient struct {
	Client             *mongo.Client
	Database           string
	PlaylistCollection string
}

// playlistDocument is a resolved playlist plus the outcome of the run that produced it.
type playlistDocument struct {
	models.Playlist `bson:",inline"`
	RunID           string               `bson:"runId"`
	ImportedAt      time.Time            `bson:"importedAt"`
	Results         []models.TrackResult `bson:"results"`
}

func Connect(ctx context.Context, uri, database string) (*MongoClient, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	return &MongoClient{
		Client:             client,
		Database:           database,
		PlaylistCollection: "playlists",
	}, nil
}

func (db *MongoClient) getPlaylistCollection() *mongo.Collection {
	return db.Client.Database(db.Database).Collection(db.PlaylistCollection)
}

func (db *MongoClient) Ping(ctx context.Context) error {
	return db.Client.Ping(ctx, readpref.Primary())
}

// SavePlaylist replaces the stored copy of the playlist, inserting it on first import.
func (db *MongoClient) SavePlaylist(ctx context.Context, playlist models.Playlist, summary models.Summary) error {
	doc := playlistDocument{
		Playlist:   playlist,
		RunID:      summary.RunID,
		ImportedAt: summary.FinishedAt,
		Results:    summary.Results,
	}

	opts := options.Replace().SetUpsert(true)
	results, err := db.getPlaylistCollection().ReplaceOne(ctx, bson.M{"_id": playlist.ID}, doc, opts)
	if err != nil {
		return err
	} else if results.MatchedCount == 0 && results.UpsertedCount == 0 {
		return errors.New("no playlist saved")
	}
	return nil
}

func (db *MongoClient) GetPlaylists(ctx context.Context, filters map[string]interface{}) ([]models.Playlist, error) {
	cursor, err := db.getPlaylistCollection().Find(ctx, filters)
	if err != nil {
		return nil, err
	}

	var results []models.Playlist
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (db *MongoClient) GetPlaylist(ctx context.Context, id string) (*models.Playlist, error) {
	result := db.getPlaylistCollection().FindOne(ctx, bson.M{"_id": id})
	if errors.Is(result.Err(), mongo.ErrNoDocuments) {
		return nil, ErrPlaylistNotFound
	} else if result.Err() != nil {
		return nil, result.Err()
	}

	var playlist models.Playlist
	if err := result.Decode(&playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// UploadAudioFile stores a downloaded file in GridFS and returns its file id.
func (db *MongoClient) UploadAudioFile(ctx context.Context, path, name string) (interface{}, error) {
	bucket, err := gridfs.NewBucket(db.Client.Database(db.Database))
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logrus.WithError(err).Error("Error closing audio file")
		}
	}()

	if deadline, ok := ctx.Deadline(); ok {
		if err := bucket.SetWriteDeadline(deadline); err != nil {
			return nil, err
		}
	}

	fileID, err := bucket.UploadFromStream(name, file)
	if err != nil {
		return nil, err
	}
	return fileID, nil
}
