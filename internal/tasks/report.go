package tasks

import (
	"time"

	"github.com/graymantle/playport/internal/services"
)

// Status is the terminal state of one track's transfer attempt.
type Status string

const (
	// StatusAdded means a candidate was matched and written to the destination.
	StatusAdded Status = "matched_added"
	// StatusAddFailed means a candidate was matched but the destination write
	// failed after retries.
	StatusAddFailed Status = "matched_add_failed"
	// StatusNoMatch means no candidate cleared the score threshold.
	StatusNoMatch Status = "no_match"
	// StatusError means the track could not be processed (invalid metadata,
	// exhausted search retries).
	StatusError Status = "error"
)

// Outcome records what happened to a single source track, in playlist order.
type Outcome struct {
	Index    int     `json:"index"`
	TrackID  string  `json:"track_id"`
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Status   Status  `json:"status"`
	DestID   string  `json:"dest_id,omitempty"`
	Score    float64 `json:"score,omitempty"`
	Queries  int     `json:"queries,omitempty"`
	CacheHit bool    `json:"cache_hit,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// Report is the full result of a transfer run. Outcomes preserve source
// order; aggregates are computed once by Finalize.
type Report struct {
	ID             string    `json:"id"`
	SourceService  string    `json:"source_service"`
	DestService    string    `json:"dest_service"`
	PlaylistName   string    `json:"playlist_name,omitempty"`
	DestPlaylistID string    `json:"dest_playlist_id,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Outcomes       []Outcome `json:"outcomes"`

	TotalCount   int     `json:"total_count"`
	SuccessCount int     `json:"success_count"`
	FailedCount  int     `json:"failed_count"`
	NoMatchCount int     `json:"no_match_count"`
	ErrorCount   int     `json:"error_count"`
	Accuracy     float64 `json:"accuracy"`

	// Incomplete is set when the run aborted before processing every track
	// (auth failure or cancellation).
	Incomplete bool `json:"incomplete,omitempty"`
}

// record appends an outcome for the given track.
func (r *Report) record(index int, track services.Track, o Outcome) {
	o.Index = index
	o.TrackID = track.ID
	o.Title = track.Title
	o.Artist = track.Artist
	r.Outcomes = append(r.Outcomes, o)
}

// Finalize computes the aggregate counters from the recorded outcomes.
// TotalCount reflects the source collection size, so an aborted run shows
// fewer outcomes than total.
func (r *Report) Finalize(total int, finished time.Time) {
	r.TotalCount = total
	r.FinishedAt = finished
	r.SuccessCount = 0
	r.FailedCount = 0
	r.NoMatchCount = 0
	r.ErrorCount = 0

	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusAdded:
			r.SuccessCount++
		case StatusAddFailed:
			r.FailedCount++
		case StatusNoMatch:
			r.NoMatchCount++
		case StatusError:
			r.ErrorCount++
		}
	}

	if total > 0 {
		r.Accuracy = float64(r.SuccessCount) / float64(total)
	}
	if len(r.Outcomes) < total {
		r.Incomplete = true
	}
}
