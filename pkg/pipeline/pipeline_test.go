package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"playlist-importer/pkg/manifest"
	"playlist-importer/pkg/models"
	"playlist-importer/pkg/resolver"
	"playlist-importer/pkg/testhelper/mocks"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	matcher    *mocks.Matcher
	stream     *mocks.StreamSource
	transcoder *mocks.Transcoder
	tags       *mocks.TagWriter
	completion *mocks.Completion
	hook       *test.Hook
	trace      []Transition
	dir        string
	pipeline   *Pipeline
}

func newFixture(t *testing.T) *fixture {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.TraceLevel)

	f := &fixture{
		matcher:    &mocks.Matcher{},
		stream:     &mocks.StreamSource{},
		transcoder: &mocks.Transcoder{},
		tags:       &mocks.TagWriter{},
		completion: &mocks.Completion{},
		hook:       hook,
		dir:        filepath.Join(t.TempDir(), "Road Trip"),
	}
	f.pipeline = &Pipeline{
		Matcher:      f.matcher,
		Stream:       f.stream,
		Transcoder:   f.transcoder,
		Tagger:       f.tags,
		Completion:   f.completion,
		Directory:    f.dir,
		Bitrate:      128,
		TrackTimeout: time.Minute,
		RunID:        "run-1",
		Observer:     func(tr Transition) { f.trace = append(f.trace, tr) },
		Logger:       logrus.NewEntry(logger),
	}
	return f
}

func roadTrip() *models.Playlist {
	return &models.Playlist{
		ID:    "p1",
		Title: "Road Trip",
		Tracks: []models.Track{
			{ID: "t1", Title: "Song A", Artists: []string{"Artist X"}, DisplayName: "Song A - Artist X"},
			{ID: "t2", Title: "Song B", Artists: []string{"Artist Y"}, DisplayName: "Song B - Artist Y"},
		},
	}
}

func trackID(id string) interface{} {
	return mock.MatchedBy(func(track models.Track) bool { return track.ID == id })
}

func (f *fixture) expectMatch(id, remoteID string) {
	f.matcher.On("FindMatch", mock.Anything, trackID(id)).Return(remoteID, nil)
}

func (f *fixture) expectStream(remoteID, body string) {
	f.stream.On("Open", mock.Anything, resolver.WatchURL(remoteID)).
		Return(io.NopCloser(strings.NewReader(body)), nil)
}

func (f *fixture) expectTranscodeWritesFile() {
	f.transcoder.On("Transcode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			b, _ := io.ReadAll(args.Get(1).(io.Reader))
			_ = os.WriteFile(args.String(3), b, 0o644)
		}).
		Return(nil)
}

func (f *fixture) expectTags() {
	f.tags.On("WriteTags", mock.Anything, mock.Anything, mock.Anything).Return(nil)
}

func (f *fixture) expectCompletion() {
	f.completion.On("OnDrained", mock.Anything, mock.Anything, mock.Anything).Return(nil)
}

func (f *fixture) path(name string) string {
	return filepath.Join(f.dir, name)
}

func requireSingleInFlight(t *testing.T, trace []Transition) {
	t.Helper()
	active := -1
	for _, tr := range trace {
		switch tr.State {
		case StateQueued:
			require.Equal(t, -1, active, "track %d queued while %d in flight", tr.Index, active)
			active = tr.Index
		case StateAdvancing:
			require.Equal(t, active, tr.Index)
			active = -1
		case StateDrained:
			require.Equal(t, -1, active)
		default:
			require.Equal(t, active, tr.Index, "state %s outside the active track", tr.State)
		}
	}
}

func TestPipeline_Run_ShouldDownloadRoadTripAndWriteManifest(t *testing.T) {
	f := newFixture(t)
	f.expectMatch("t1", "v1")
	f.expectMatch("t2", "v2")
	f.expectStream("v1", "aaaa")
	f.expectStream("v2", "bbbbbb")
	f.expectTranscodeWritesFile()
	f.expectTags()
	f.pipeline.Completion = &manifest.Handler{Directory: f.dir, Logger: f.pipeline.Logger}

	playlist := roadTrip()
	summary := f.pipeline.Run(context.Background(), playlist)

	require.Equal(t, 2, summary.Count(models.OutcomeDownloaded))
	require.Equal(t, "run-1", summary.RunID)
	require.Equal(t, int64(4), summary.Results[0].Bytes)
	require.True(t, summary.Results[1].Tagged)

	for _, name := range []string{"Song A - Artist X.mp3", "Song B - Artist Y.mp3", "Road Trip.json"} {
		_, err := os.Stat(f.path(name))
		require.Nil(t, err, name)
	}

	f.transcoder.AssertCalled(t, "Transcode", mock.Anything, mock.Anything, 128, f.path("Song A - Artist X.mp3"))
	f.tags.AssertCalled(t, "WriteTags", mock.Anything, f.path("Song B - Artist Y.mp3"), models.Tags{
		Artist: "Artist Y",
		Title:  "Song B - Artist Y",
	})

	loaded, err := manifest.Load(f.path("Road Trip.json"))
	require.Nil(t, err)
	require.Len(t, loaded.Tracks, 2)
	require.Equal(t, f.path("Song A - Artist X.mp3"), loaded.Tracks[0].DestinationPath)
	require.Equal(t, f.path("Song B - Artist Y.mp3"), loaded.Tracks[1].DestinationPath)
	require.Equal(t, "v2", loaded.Tracks[1].MatchID)
	require.Equal(t, resolver.WatchURL("v2"), loaded.Tracks[1].SourceURL)
}

func TestPipeline_Run_ShouldSkipTrackWithoutMatchAndContinue(t *testing.T) {
	f := newFixture(t)
	f.expectMatch("t1", "v1")
	f.matcher.On("FindMatch", mock.Anything, trackID("t2")).Return("", resolver.ErrNoMatchFound)
	f.expectStream("v1", "aaaa")
	f.expectTranscodeWritesFile()
	f.expectTags()
	f.pipeline.Completion = &manifest.Handler{Directory: f.dir, Logger: f.pipeline.Logger}

	summary := f.pipeline.Run(context.Background(), roadTrip())

	require.Equal(t, models.OutcomeDownloaded, summary.Results[0].Outcome)
	require.Equal(t, models.OutcomeSkippedNoMatch, summary.Results[1].Outcome)
	f.stream.AssertNumberOfCalls(t, "Open", 1)

	warned := false
	for _, entry := range f.hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && strings.Contains(entry.Message, "Song B - Artist Y") {
			warned = true
		}
	}
	require.True(t, warned)

	loaded, err := manifest.Load(f.path("Road Trip.json"))
	require.Nil(t, err)
	require.Len(t, loaded.Tracks, 2)
	require.NotEmpty(t, loaded.Tracks[0].DestinationPath)
	require.Empty(t, loaded.Tracks[1].DestinationPath)
	require.Empty(t, loaded.Tracks[1].SourceURL)
}

func TestPipeline_Run_ShouldNotOpenStreamForExistingFile(t *testing.T) {
	f := newFixture(t)
	f.expectMatch("t1", "v1")
	f.expectMatch("t2", "v2")
	f.expectStream("v2", "bbbb")
	f.expectTranscodeWritesFile()
	f.expectTags()
	f.expectCompletion()

	require.Nil(t, os.MkdirAll(f.dir, 0o755))
	require.Nil(t, os.WriteFile(f.path("Song A - Artist X.mp3"), []byte("old"), 0o644))

	summary := f.pipeline.Run(context.Background(), roadTrip())

	require.Equal(t, models.OutcomeSkippedExisting, summary.Results[0].Outcome)
	require.Equal(t, models.OutcomeDownloaded, summary.Results[1].Outcome)
	f.stream.AssertNotCalled(t, "Open", mock.Anything, resolver.WatchURL("v1"))
	f.stream.AssertNumberOfCalls(t, "Open", 1)

	b, err := os.ReadFile(f.path("Song A - Artist X.mp3"))
	require.Nil(t, err)
	require.Equal(t, "old", string(b))
}

func TestPipeline_Run_ShouldDownloadNothingOnSecondRun(t *testing.T) {
	f := newFixture(t)
	f.expectMatch("t1", "v1")
	f.expectMatch("t2", "v2")
	f.expectStream("v1", "aaaa")
	f.expectStream("v2", "bbbb")
	f.expectTranscodeWritesFile()
	f.expectTags()
	f.expectCompletion()

	first := f.pipeline.Run(context.Background(), roadTrip())
	second := f.pipeline.Run(context.Background(), roadTrip())

	require.Equal(t, 2, first.Count(models.OutcomeDownloaded))
	require.Equal(t, 2, second.Count(models.OutcomeSkippedExisting))
	f.stream.AssertNumberOfCalls(t, "Open", 2)
	f.transcoder.AssertNumberOfCalls(t, "Transcode", 2)
	f.completion.AssertNumberOfCalls(t, "OnDrained", 2)
}

func TestPipeline_Run_ShouldIsolateDownloadFailures(t *testing.T) {
	f := newFixture(t)
	playlist := roadTrip()
	playlist.Tracks = append(playlist.Tracks, models.Track{ID: "t3", Title: "Song C", DisplayName: "Song C"})

	f.expectMatch("t1", "v1")
	f.expectMatch("t2", "v2")
	f.matcher.On("FindMatch", mock.Anything, trackID("t3")).Return("", errors.New("quota exceeded"))
	f.stream.On("Open", mock.Anything, resolver.WatchURL("v1")).Return(nil, errors.New("video unavailable"))
	f.expectStream("v2", "bbbb")
	f.expectTranscodeWritesFile()
	f.expectTags()
	f.expectCompletion()

	summary := f.pipeline.Run(context.Background(), playlist)

	require.Len(t, summary.Results, 3)
	require.Equal(t, models.OutcomeFailed, summary.Results[0].Outcome)
	require.Contains(t, summary.Results[0].Error, "video unavailable")
	require.Equal(t, models.OutcomeDownloaded, summary.Results[1].Outcome)
	require.Equal(t, models.OutcomeFailed, summary.Results[2].Outcome)
	require.Len(t, playlist.Tracks, 3)

	f.completion.AssertNumberOfCalls(t, "OnDrained", 1)
	f.completion.AssertCalled(t, "OnDrained", mock.Anything, playlist, summary)
}

func TestPipeline_Run_ShouldKeepFileWhenTaggingFails(t *testing.T) {
	f := newFixture(t)
	playlist := roadTrip()
	playlist.Tracks = playlist.Tracks[:1]

	f.expectMatch("t1", "v1")
	f.expectStream("v1", "aaaa")
	f.expectTranscodeWritesFile()
	f.tags.On("WriteTags", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bad artwork"))
	f.expectCompletion()

	summary := f.pipeline.Run(context.Background(), playlist)

	require.Equal(t, models.OutcomeDownloaded, summary.Results[0].Outcome)
	require.False(t, summary.Results[0].Tagged)
	require.Contains(t, summary.Results[0].Error, "bad artwork")
	_, err := os.Stat(f.path("Song A - Artist X.mp3"))
	require.Nil(t, err)
}

func TestPipeline_Run_ShouldFailTrackThatExceedsTimeout(t *testing.T) {
	f := newFixture(t)
	f.pipeline.TrackTimeout = 20 * time.Millisecond
	playlist := roadTrip()
	playlist.Tracks = playlist.Tracks[:1]

	f.expectMatch("t1", "v1")
	f.expectStream("v1", "aaaa")
	f.transcoder.On("Transcode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(context.DeadlineExceeded)
	f.expectCompletion()

	summary := f.pipeline.Run(context.Background(), playlist)

	require.Equal(t, models.OutcomeFailed, summary.Results[0].Outcome)
	require.Contains(t, summary.Results[0].Error, context.DeadlineExceeded.Error())
	f.tags.AssertNotCalled(t, "WriteTags", mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_Run_ShouldNeverHaveTwoTracksInFlight(t *testing.T) {
	f := newFixture(t)
	playlist := &models.Playlist{ID: "p", Title: "Big"}
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		playlist.Tracks = append(playlist.Tracks, models.Track{ID: id, Title: id, DisplayName: id})
		f.expectMatch(id, "v"+id)
		f.expectStream("v"+id, id)
	}

	var inFlight, maxInFlight int32
	f.transcoder.On("Transcode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			n := atomic.AddInt32(&inFlight, 1)
			if n > atomic.LoadInt32(&maxInFlight) {
				atomic.StoreInt32(&maxInFlight, n)
			}
			_ = os.WriteFile(args.String(3), []byte("x"), 0o644)
			atomic.AddInt32(&inFlight, -1)
		}).
		Return(nil)
	f.expectTags()
	f.expectCompletion()

	summary := f.pipeline.Run(context.Background(), playlist)

	require.Len(t, summary.Results, 5)
	require.Equal(t, int32(1), maxInFlight)
	requireSingleInFlight(t, f.trace)

	var order []string
	for _, tr := range f.trace {
		if tr.State == StateDownloading {
			order = append(order, tr.TrackID)
		}
	}
	require.Equal(t, []string{"a", "b", "c", "d", "e"}, order)
	require.Equal(t, StateDrained, f.trace[len(f.trace)-1].State)
}

func TestPipeline_Run_ShouldProduceOneOutcomePerTrackAndCompleteOnce(t *testing.T) {
	f := newFixture(t)
	playlist := &models.Playlist{ID: "p", Title: "Mixed"}
	for _, id := range []string{"ok", "missing", "broken", "existing"} {
		playlist.Tracks = append(playlist.Tracks, models.Track{ID: id, Title: id, DisplayName: id})
	}
	f.expectMatch("ok", "v-ok")
	f.matcher.On("FindMatch", mock.Anything, trackID("missing")).Return("", resolver.ErrNoMatchFound)
	f.expectMatch("broken", "v-broken")
	f.expectMatch("existing", "v-existing")
	f.expectStream("v-ok", "ok")
	f.stream.On("Open", mock.Anything, resolver.WatchURL("v-broken")).Return(nil, errors.New("gone"))
	f.expectTranscodeWritesFile()
	f.expectTags()
	f.expectCompletion()

	require.Nil(t, os.MkdirAll(f.dir, 0o755))
	require.Nil(t, os.WriteFile(f.path("existing.mp3"), []byte("x"), 0o644))

	summary := f.pipeline.Run(context.Background(), playlist)

	require.Len(t, summary.Results, len(playlist.Tracks))
	for i, result := range summary.Results {
		require.Equal(t, i, result.Index)
		require.Equal(t, playlist.Tracks[i].ID, result.TrackID)
	}
	require.Equal(t, 1, summary.Count(models.OutcomeDownloaded))
	require.Equal(t, 1, summary.Count(models.OutcomeSkippedNoMatch))
	require.Equal(t, 1, summary.Count(models.OutcomeFailed))
	require.Equal(t, 1, summary.Count(models.OutcomeSkippedExisting))
	f.completion.AssertNumberOfCalls(t, "OnDrained", 1)
}

func TestPipeline_Run_ShouldCompleteEmptyPlaylist(t *testing.T) {
	f := newFixture(t)
	f.expectCompletion()

	summary := f.pipeline.Run(context.Background(), &models.Playlist{ID: "p", Title: "Empty"})

	require.Empty(t, summary.Results)
	f.completion.AssertNumberOfCalls(t, "OnDrained", 1)
	require.Equal(t, []Transition{{Index: -1, State: StateDrained}}, f.trace)
}

func TestPipeline_Run_ShouldLogCompletionFailureWithoutPanicking(t *testing.T) {
	f := newFixture(t)
	f.completion.On("OnDrained", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))

	f.pipeline.Run(context.Background(), &models.Playlist{ID: "p"})

	require.Equal(t, logrus.ErrorLevel, f.hook.LastEntry().Level)
	require.Equal(t, "Completion failed", f.hook.LastEntry().Message)
}

func TestPipeline_Run_ShouldFailRemainingTracksWhenCancelled(t *testing.T) {
	f := newFixture(t)
	f.expectCompletion()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := f.pipeline.Run(ctx, roadTrip())

	require.Equal(t, 2, summary.Count(models.OutcomeFailed))
	f.matcher.AssertNotCalled(t, "FindMatch", mock.Anything, mock.Anything)
	f.completion.AssertNumberOfCalls(t, "OnDrained", 1)
}
