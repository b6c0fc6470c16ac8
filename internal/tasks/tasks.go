// package tasks implements playlist transfer operations between music services.
//
// The core abstraction is PlaylistEngine, which drives the sequential
// match-and-append loop: read the source collection, match each track against
// the destination, and write accepted matches into a destination playlist or
// the liked set. Progress is reported through a per-track callback so the
// CLI and TUI layers can render it without coupling to the loop.
package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/graymantle/playport/internal/match"
	"github.com/graymantle/playport/internal/services"
	"github.com/graymantle/playport/internal/shared"
	"golang.org/x/time/rate"
)

// ProgressFunc receives one call per processed track. index is 1-based,
// success reports whether the track reached the destination.
type ProgressFunc func(index, total int, display string, success bool)

// BatchProgressFunc receives one call as each playlist in a batch run starts.
type BatchProgressFunc func(index, total int, playlist services.Playlist)

// CachedMatch is a previously accepted match for a source track.
type CachedMatch struct {
	DestID string
	Score  float64
}

// MatchCache looks up and stores accepted matches so repeat transfers skip
// the search round-trips. Lookup returns nil on a miss.
type MatchCache interface {
	Lookup(ctx context.Context, sourceService, trackID string) (*CachedMatch, error)
	Store(ctx context.Context, sourceService string, track services.Track, destService, destID string, score float64) error
}

// TransferOptions selects what to transfer and where it lands.
type TransferOptions struct {
	// PlaylistID is the source playlist to read. Empty reads the source's
	// liked tracks instead.
	PlaylistID string

	// DestName names the destination playlist to create. Ignored when
	// ToLiked is set.
	DestName    string
	Description string
	Public      bool

	// ToLiked writes matches into the destination's liked set instead of
	// creating a playlist.
	ToLiked bool
}

// PlaylistEngine transfers tracks from a source catalog to a destination
// catalog. The zero value is not usable; construct with NewPlaylistEngine.
type PlaylistEngine struct {
	source  services.SourceReader
	dest    services.DestinationCatalog
	matcher *match.Matcher
	cache   MatchCache
	retry   RetryPolicy
	limiter *rate.Limiter
	sleep   SleepFunc
}

// NewPlaylistEngine creates an engine with the default retry policy and a
// 300ms minimum interval between destination writes.
func NewPlaylistEngine(source services.SourceReader, dest services.DestinationCatalog, matcher *match.Matcher) *PlaylistEngine {
	return &PlaylistEngine{
		source:  source,
		dest:    dest,
		matcher: matcher,
		retry:   DefaultRetryPolicy(),
		limiter: rate.NewLimiter(rate.Every(300*time.Millisecond), 1),
	}
}

// SetCache attaches an optional match cache. A nil cache disables caching.
func (e *PlaylistEngine) SetCache(cache MatchCache) {
	e.cache = cache
}

// SetRetryPolicy overrides the default retry policy.
func (e *PlaylistEngine) SetRetryPolicy(policy RetryPolicy) {
	e.retry = policy
}

// SetWriteInterval overrides the minimum interval between destination writes.
// A non-positive interval disables throttling.
func (e *PlaylistEngine) SetWriteInterval(interval time.Duration) {
	if interval <= 0 {
		e.limiter = nil
		return
	}
	e.limiter = rate.NewLimiter(rate.Every(interval), 1)
}

// Transfer runs the full transfer and returns the report. The report is
// returned even on error: an auth failure or cancellation mid-run yields the
// partial outcomes with Incomplete set.
func (e *PlaylistEngine) Transfer(ctx context.Context, opts TransferOptions, progress ProgressFunc) (*Report, error) {
	if e.source == nil || e.dest == nil {
		return nil, fmt.Errorf("%w: engine missing a catalog", shared.ErrServiceUnavailable)
	}

	report := &Report{
		ID:            shared.GenerateID(),
		SourceService: e.source.Name(),
		DestService:   e.dest.Name(),
		StartedAt:     time.Now().UTC(),
	}

	tracks, name, err := e.readSource(ctx, opts)
	if err != nil {
		report.Finalize(0, time.Now().UTC())
		report.Incomplete = true
		return report, err
	}
	report.PlaylistName = name
	total := len(tracks)

	destPlaylistID := ""
	if !opts.ToLiked {
		destName := opts.DestName
		if destName == "" {
			destName = name
		}
		description := opts.Description
		if description == "" {
			description = fmt.Sprintf("Migrated from %s: %s", e.source.Name(), name)
		}
		err = e.retry.Do(ctx, e.sleep, func() error {
			var createErr error
			destPlaylistID, createErr = e.dest.CreatePlaylist(ctx, destName, description, opts.Public)
			return createErr
		})
		if err != nil {
			report.Finalize(total, time.Now().UTC())
			report.Incomplete = true
			return report, fmt.Errorf("create destination playlist: %w", err)
		}
		report.DestPlaylistID = destPlaylistID
	}

	for i, track := range tracks {
		if err := ctx.Err(); err != nil {
			report.Finalize(total, time.Now().UTC())
			return report, err
		}

		outcome, err := e.transferTrack(ctx, track, destPlaylistID, opts.ToLiked)
		report.record(i+1, track, outcome)

		if progress != nil {
			progress(i+1, total, track.Display(), outcome.Status == StatusAdded)
		}

		// Auth failures are systemic; stop instead of failing every
		// remaining track the same way. The report is incomplete even when
		// the failure hit the last track: its outcome never reached the
		// destination and nothing after the abort ran.
		if err != nil && shared.IsAuth(err) {
			report.Finalize(total, time.Now().UTC())
			report.Incomplete = true
			return report, err
		}
	}

	report.Finalize(total, time.Now().UTC())
	return report, nil
}

// interPlaylistDelay spaces out playlist creations during a batch run so the
// destination is not hammered with back-to-back collection writes.
const interPlaylistDelay = 2 * time.Second

// TransferAll transfers every source playlist into a new destination
// playlist, skipping playlists whose name matches an exclude pattern. Each
// playlist gets its own report; the slice holds the reports of every run
// that started. Auth failures and cancellation abort the whole batch, any
// other per-playlist failure is recorded in that playlist's report and the
// batch moves on.
func (e *PlaylistEngine) TransferAll(ctx context.Context, excludes []string, public bool, batch BatchProgressFunc, progress ProgressFunc) ([]*Report, error) {
	if e.source == nil || e.dest == nil {
		return nil, fmt.Errorf("%w: engine missing a catalog", shared.ErrServiceUnavailable)
	}

	var playlists []services.Playlist
	err := e.retry.Do(ctx, e.sleep, func() error {
		var listErr error
		playlists, listErr = e.source.GetPlaylists(ctx)
		return listErr
	})
	if err != nil {
		return nil, fmt.Errorf("list source playlists: %w", err)
	}
	playlists = FilterPlaylists(playlists, excludes)

	var reports []*Report
	for i, pl := range playlists {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		if batch != nil {
			batch(i+1, len(playlists), pl)
		}

		report, err := e.Transfer(ctx, TransferOptions{PlaylistID: pl.ID, Public: public}, progress)
		if report != nil {
			reports = append(reports, report)
		}
		if err != nil && (shared.IsAuth(err) || ctx.Err() != nil) {
			return reports, err
		}

		if i < len(playlists)-1 {
			if err := e.pause(ctx, interPlaylistDelay); err != nil {
				return reports, err
			}
		}
	}

	return reports, nil
}

// FilterPlaylists drops playlists whose name contains any exclude pattern.
// Matching is a case-insensitive substring test.
func FilterPlaylists(playlists []services.Playlist, excludes []string) []services.Playlist {
	if len(excludes) == 0 {
		return playlists
	}

	kept := make([]services.Playlist, 0, len(playlists))
	for _, pl := range playlists {
		excluded := false
		for _, pattern := range excludes {
			if pattern == "" {
				continue
			}
			if strings.Contains(strings.ToLower(pl.Name), strings.ToLower(pattern)) {
				excluded = true
				break
			}
		}
		if !excluded {
			kept = append(kept, pl)
		}
	}
	return kept
}

// pause waits between batch items, honoring the injected sleep.
func (e *PlaylistEngine) pause(ctx context.Context, d time.Duration) error {
	sleep := e.sleep
	if sleep == nil {
		sleep = waitSleep
	}
	return sleep(ctx, d)
}

// readSource fetches the tracks to transfer and a display name for the
// collection, retrying transient read failures.
func (e *PlaylistEngine) readSource(ctx context.Context, opts TransferOptions) ([]services.Track, string, error) {
	var tracks []services.Track
	name := "Liked Songs"

	err := e.retry.Do(ctx, e.sleep, func() error {
		var readErr error
		if opts.PlaylistID == "" {
			tracks, readErr = e.source.ListLikedTracks(ctx)
			return readErr
		}
		tracks, readErr = e.source.ListTracks(ctx, opts.PlaylistID)
		return readErr
	})
	if err != nil {
		return nil, "", fmt.Errorf("read source tracks: %w", err)
	}

	if opts.PlaylistID != "" {
		if pl, plErr := e.source.GetPlaylist(ctx, opts.PlaylistID); plErr == nil {
			name = pl.Name
		} else {
			name = opts.PlaylistID
		}
	}
	return tracks, name, nil
}

// transferTrack matches one track and writes it to the destination. The
// returned error is non-nil only for failures the loop may need to act on
// (auth aborts); the outcome always captures the terminal status.
func (e *PlaylistEngine) transferTrack(ctx context.Context, track services.Track, destPlaylistID string, toLiked bool) (Outcome, error) {
	var outcome Outcome

	if err := match.ValidateTrack(track); err != nil {
		outcome.Status = StatusError
		outcome.Error = err.Error()
		return outcome, nil
	}

	candidateID, score, cacheHit := e.lookupCache(ctx, track)
	queries := 0

	if !cacheHit {
		var result *match.Result
		err := e.retry.Do(ctx, e.sleep, func() error {
			var matchErr error
			result, matchErr = e.matcher.Match(ctx, track)
			return matchErr
		})
		if err != nil {
			outcome.Status = StatusError
			outcome.Error = err.Error()
			return outcome, err
		}

		queries = len(result.Queries)
		if !result.Matched() {
			outcome.Status = StatusNoMatch
			outcome.Score = result.Score
			outcome.Queries = queries
			return outcome, nil
		}
		candidateID = result.Candidate.ID
		score = result.Score
	}

	outcome.DestID = candidateID
	outcome.Score = score
	outcome.Queries = queries
	outcome.CacheHit = cacheHit

	if err := e.writeDestination(ctx, destPlaylistID, candidateID, toLiked); err != nil {
		outcome.Status = StatusAddFailed
		outcome.Error = err.Error()
		return outcome, err
	}

	outcome.Status = StatusAdded
	if !cacheHit && e.cache != nil {
		// Cache write failures do not affect the transfer.
		_ = e.cache.Store(ctx, e.source.Name(), track, e.dest.Name(), candidateID, score)
	}
	return outcome, nil
}

// lookupCache consults the match cache. Lookup errors are treated as misses.
func (e *PlaylistEngine) lookupCache(ctx context.Context, track services.Track) (string, float64, bool) {
	if e.cache == nil || track.ID == "" {
		return "", 0, false
	}
	cached, err := e.cache.Lookup(ctx, e.source.Name(), track.ID)
	if err != nil || cached == nil {
		return "", 0, false
	}
	return cached.DestID, cached.Score, true
}

// writeDestination appends the candidate to the playlist or the liked set,
// throttled and retried.
func (e *PlaylistEngine) writeDestination(ctx context.Context, destPlaylistID, candidateID string, toLiked bool) error {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return e.retry.Do(ctx, e.sleep, func() error {
		if toLiked {
			return e.dest.AddToLiked(ctx, candidateID)
		}
		return e.dest.AddToPlaylist(ctx, destPlaylistID, candidateID)
	})
}
