package models

import "time"

// Outcome is the terminal result of processing one track.
type Outcome string

const (
	OutcomeDownloaded      Outcome = "downloaded"
	OutcomeSkippedExisting Outcome = "skipped-existing"
	OutcomeSkippedNoMatch  Outcome = "skipped-no-match"
	OutcomeFailed          Outcome = "failed"
)

// TrackResult records what happened to one track during a run.
type TrackResult struct {
	Index   int     `json:"index"`
	TrackID string  `json:"trackId"`
	Outcome Outcome `json:"outcome"`
	Tagged  bool    `json:"tagged"`
	Bytes   int64   `json:"bytes,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Summary aggregates the per-track results of a run.
type Summary struct {
	RunID      string        `json:"runId"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Results    []TrackResult `json:"results"`
}

// Count returns how many tracks ended with the given outcome.
func (s Summary) Count(outcome Outcome) int {
	n := 0
	for _, r := range s.Results {
		if r.Outcome == outcome {
			n++
		}
	}
	return n
}

// Tags is the metadata embedded into a downloaded file.
type Tags struct {
	Artist     string
	Album      string
	Title      string
	ArtworkURL string
}

// ImportResult is returned once an import run has drained its queue.
type ImportResult struct {
	Playlist     *Playlist `json:"playlist"`
	Summary      Summary   `json:"summary"`
	Directory    string    `json:"directory"`
	ManifestPath string    `json:"manifestPath"`
}
