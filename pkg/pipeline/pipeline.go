package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"playlist-importer/pkg/models"
	"playlist-importer/pkg/resolver"
	"playlist-importer/pkg/tagger"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

type Matcher interface {
	FindMatch(ctx context.Context, track models.Track) (string, error)
}

type StreamSource interface {
	Open(ctx context.Context, sourceURL string) (io.ReadCloser, error)
}

type Transcoder interface {
	Transcode(ctx context.Context, src io.Reader, bitrate int, dstPath string) error
}

type TagWriter interface {
	WriteTags(ctx context.Context, path string, tags models.Tags) error
}

// Completion runs once the queue is drained.
type Completion interface {
	OnDrained(ctx context.Context, playlist *models.Playlist, summary models.Summary) error
}

// Pipeline downloads the tracks of one playlist, strictly one at a time.
type Pipeline struct {
	Matcher    Matcher
	Stream     StreamSource
	Transcoder Transcoder
	Tagger     TagWriter
	Completion Completion

	Directory    string
	Bitrate      int
	TrackTimeout time.Duration
	RunID        string

	Observer Observer
	Logger   *logrus.Entry

	downloads int
}

// Run drains the playlist's tracks in playlist order and returns one result per track.
// Resolved fields are written back into playlist.Tracks by index. Per-track errors are
// logged and recorded in the summary, never returned.
func (p *Pipeline) Run(ctx context.Context, playlist *models.Playlist) models.Summary {
	summary := models.Summary{
		RunID:     p.RunID,
		StartedAt: time.Now().UTC(),
		Results:   make([]models.TrackResult, 0, len(playlist.Tracks)),
	}
	p.downloads = 0

	queue := make([]int, len(playlist.Tracks))
	for i := range queue {
		queue[i] = i
	}

	for len(queue) > 0 {
		index := queue[0]
		queue = queue[1:]
		p.observe(index, playlist.Tracks[index].ID, StateQueued)

		result := p.processTrack(ctx, playlist, index)
		summary.Results = append(summary.Results, result)

		p.observe(index, playlist.Tracks[index].ID, StateAdvancing)
	}

	p.observe(-1, "", StateDrained)
	summary.FinishedAt = time.Now().UTC()

	if p.Completion != nil {
		if err := p.Completion.OnDrained(ctx, playlist, summary); err != nil {
			p.logger().WithError(err).Error("Completion failed")
		}
	}
	return summary
}

func (p *Pipeline) processTrack(ctx context.Context, playlist *models.Playlist, index int) models.TrackResult {
	track := playlist.Tracks[index]
	result := models.TrackResult{Index: index, TrackID: track.ID}
	log := p.logger().WithFields(logrus.Fields{"track": track.ID, "index": index})

	if err := ctx.Err(); err != nil {
		return failed(result, log, &DownloadError{DisplayName: track.DisplayName, Err: err}, "Run cancelled")
	}

	if p.TrackTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.TrackTimeout)
		defer cancel()
	}

	p.observe(index, track.ID, StateMatching)
	matchID, err := p.Matcher.FindMatch(ctx, track)
	if errors.Is(err, resolver.ErrNoMatchFound) {
		log.WithError(err).Warnf("%s: no match found, skipping", track.DisplayName)
		result.Outcome = models.OutcomeSkippedNoMatch
		return result
	}
	if err != nil {
		return failed(result, log, err, fmt.Sprintf("%s: match failed", track.DisplayName))
	}
	track.MatchID = matchID
	track.SourceURL = resolver.WatchURL(matchID)
	playlist.Tracks[index] = track

	p.observe(index, track.ID, StateBuildingPaths)
	if err := os.MkdirAll(p.Directory, 0o755); err != nil {
		return failed(result, log, fmt.Errorf("create directory %s: %w", p.Directory, err), fmt.Sprintf("%s: cannot create directory", track.DisplayName))
	}
	track.DestinationDirectory = p.Directory
	track.DestinationFileName, track.DestinationPath = destination(p.Directory, track.DisplayName)
	playlist.Tracks[index] = track

	p.observe(index, track.ID, StateCheckingExisting)
	if _, err := os.Stat(track.DestinationPath); err == nil {
		log.Infof("%s: already exists, skipping", track.DisplayName)
		result.Outcome = models.OutcomeSkippedExisting
		return result
	}

	p.observe(index, track.ID, StateDownloading)
	p.downloads++
	log = log.WithField("download", p.downloads)
	log.Infof("%d - %s: download started", p.downloads, track.DisplayName)
	log.Debugf("File path: %s", track.DestinationPath)

	written, err := p.download(ctx, track)
	if err != nil {
		return failed(result, log, &DownloadError{DisplayName: track.DisplayName, Err: err}, fmt.Sprintf("%d - %s: download failed", p.downloads, track.DisplayName))
	}
	result.Outcome = models.OutcomeDownloaded
	result.Bytes = written
	log.WithField("bytes", written).Infof("%d - %s: download finished (%s)", p.downloads, track.DisplayName, humanize.Bytes(uint64(written)))

	p.observe(index, track.ID, StateTagging)
	if err := p.Tagger.WriteTags(ctx, track.DestinationPath, tagger.TagsFor(track)); err != nil {
		tagErr := &TagError{DisplayName: track.DisplayName, Err: err}
		log.WithError(tagErr).Errorf("%d - %s: tagging failed", p.downloads, track.DisplayName)
		result.Error = tagErr.Error()
		return result
	}
	result.Tagged = true
	return result
}

func (p *Pipeline) download(ctx context.Context, track models.Track) (int64, error) {
	stream, err := p.Stream.Open(ctx, track.SourceURL)
	if err != nil {
		return 0, fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	counter := &countingReader{r: stream}
	if err := p.Transcoder.Transcode(ctx, counter, p.Bitrate, track.DestinationPath); err != nil {
		return counter.n, fmt.Errorf("transcode: %w", err)
	}
	return counter.n, nil
}

func (p *Pipeline) observe(index int, trackID string, state State) {
	p.logger().WithFields(logrus.Fields{"index": index, "track": trackID, "state": state}).Trace("Transition")
	if p.Observer != nil {
		p.Observer(Transition{Index: index, TrackID: trackID, State: state})
	}
}

func (p *Pipeline) logger() *logrus.Entry {
	entry := p.Logger
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	if p.RunID != "" {
		entry = entry.WithField("run", p.RunID)
	}
	return entry
}

func failed(result models.TrackResult, log *logrus.Entry, err error, msg string) models.TrackResult {
	log.WithError(err).Error(msg)
	result.Outcome = models.OutcomeFailed
	result.Error = err.Error()
	return result
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	c.n += int64(n)
	return n, err
}
