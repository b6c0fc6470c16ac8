package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/graymantle/playport/internal/match"
	"github.com/graymantle/playport/internal/services"
	"github.com/graymantle/playport/internal/shared"
	itesting "github.com/graymantle/playport/internal/testing"
)

type fakeCache struct {
	entries   map[string]*CachedMatch
	stored    []string
	lookupErr error
	storeErr  error
}

func (f *fakeCache) Lookup(ctx context.Context, sourceService, trackID string) (*CachedMatch, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.entries[sourceService+"|"+trackID], nil
}

func (f *fakeCache) Store(ctx context.Context, sourceService string, track services.Track, destService, destID string, score float64) error {
	f.stored = append(f.stored, track.ID)
	return f.storeErr
}

func newTestEngine(source *itesting.MockSource, dest *itesting.MockCatalog) *PlaylistEngine {
	engine := NewPlaylistEngine(source, dest, match.NewMatcher(dest, nil, 0.8, 10))
	engine.limiter = nil
	engine.sleep = noSleep
	return engine
}

func twoTrackSource() *itesting.MockSource {
	return &itesting.MockSource{
		Playlists: []services.Playlist{{ID: "pl1", Name: "Road Trip", TrackCount: 2}},
		Tracks: map[string][]services.Track{
			"pl1": {
				{ID: "sp1", Title: "Song One", Artist: "Artist A", DurationMs: 200000},
				{ID: "sp2", Title: "Song Two", Artist: "Artist B", DurationMs: 180000},
			},
		},
	}
}

func matchingCatalog() *itesting.MockCatalog {
	return &itesting.MockCatalog{
		SearchResults: map[string][]services.Candidate{
			"Artist A Song One": {{ID: "yt1", Title: "Song One", Artist: "Artist A", DurationMs: 200000}},
			"Artist B Song Two": {{ID: "yt2", Title: "Song Two", Artist: "Artist B", DurationMs: 180000}},
		},
	}
}

func TestPlaylistEngineTransfer(t *testing.T) {
	t.Run("transfers a playlist end to end", func(t *testing.T) {
		source := twoTrackSource()
		dest := matchingCatalog()
		engine := newTestEngine(source, dest)

		var progressCalls []string
		report, err := engine.Transfer(context.Background(), TransferOptions{PlaylistID: "pl1", DestName: "Road Trip"}, func(index, total int, display string, success bool) {
			progressCalls = append(progressCalls, fmt.Sprintf("%d/%d %s %v", index, total, display, success))
		})
		if err != nil {
			t.Fatalf("Transfer() error = %v", err)
		}

		if report.SuccessCount != 2 || report.TotalCount != 2 {
			t.Errorf("counts = %d/%d, want 2/2", report.SuccessCount, report.TotalCount)
		}
		if report.Accuracy != 1.0 {
			t.Errorf("Accuracy = %v, want 1.0", report.Accuracy)
		}
		if report.Incomplete {
			t.Error("complete run marked incomplete")
		}
		if report.DestPlaylistID != "dest-playlist" {
			t.Errorf("DestPlaylistID = %q, want dest-playlist", report.DestPlaylistID)
		}
		if report.PlaylistName != "Road Trip" {
			t.Errorf("PlaylistName = %q, want Road Trip", report.PlaylistName)
		}

		wantAdds := []string{"yt1", "yt2"}
		if len(dest.AddCalls) != len(wantAdds) {
			t.Fatalf("AddCalls = %v, want %v", dest.AddCalls, wantAdds)
		}
		for i := range wantAdds {
			if dest.AddCalls[i] != wantAdds[i] {
				t.Errorf("AddCalls[%d] = %q, want %q", i, dest.AddCalls[i], wantAdds[i])
			}
		}

		wantProgress := []string{
			"1/2 Artist A - Song One true",
			"2/2 Artist B - Song Two true",
		}
		if len(progressCalls) != len(wantProgress) {
			t.Fatalf("progress calls = %v, want %v", progressCalls, wantProgress)
		}
		for i := range wantProgress {
			if progressCalls[i] != wantProgress[i] {
				t.Errorf("progress[%d] = %q, want %q", i, progressCalls[i], wantProgress[i])
			}
		}
	})

	t.Run("records no-match and keeps going", func(t *testing.T) {
		source := twoTrackSource()
		dest := matchingCatalog()
		delete(dest.SearchResults, "Artist A Song One")
		engine := newTestEngine(source, dest)

		report, err := engine.Transfer(context.Background(), TransferOptions{PlaylistID: "pl1"}, nil)
		if err != nil {
			t.Fatalf("Transfer() error = %v", err)
		}
		if report.NoMatchCount != 1 || report.SuccessCount != 1 {
			t.Errorf("no-match/success = %d/%d, want 1/1", report.NoMatchCount, report.SuccessCount)
		}
		if report.Outcomes[0].Status != StatusNoMatch {
			t.Errorf("first outcome = %s, want %s", report.Outcomes[0].Status, StatusNoMatch)
		}
		if len(dest.AddCalls) != 1 || dest.AddCalls[0] != "yt2" {
			t.Errorf("AddCalls = %v, want [yt2]", dest.AddCalls)
		}
	})

	t.Run("invalid track records error and continues", func(t *testing.T) {
		source := twoTrackSource()
		source.Tracks["pl1"][0].Title = "   "
		dest := matchingCatalog()
		engine := newTestEngine(source, dest)

		report, err := engine.Transfer(context.Background(), TransferOptions{PlaylistID: "pl1"}, nil)
		if err != nil {
			t.Fatalf("Transfer() error = %v", err)
		}
		if report.ErrorCount != 1 || report.SuccessCount != 1 {
			t.Errorf("error/success = %d/%d, want 1/1", report.ErrorCount, report.SuccessCount)
		}
		if report.Outcomes[0].Status != StatusError {
			t.Errorf("first outcome = %s, want %s", report.Outcomes[0].Status, StatusError)
		}
	})

	t.Run("retries transient search failures", func(t *testing.T) {
		source := twoTrackSource()
		source.Tracks["pl1"] = source.Tracks["pl1"][:1]
		dest := matchingCatalog()
		dest.SearchErrs = []error{fmt.Errorf("%w: status 503", shared.ErrTransient)}
		engine := newTestEngine(source, dest)

		report, err := engine.Transfer(context.Background(), TransferOptions{PlaylistID: "pl1"}, nil)
		if err != nil {
			t.Fatalf("Transfer() error = %v", err)
		}
		if report.SuccessCount != 1 {
			t.Errorf("SuccessCount = %d, want 1", report.SuccessCount)
		}
		if len(dest.SearchCalls) < 2 {
			t.Errorf("SearchCalls = %v, want at least 2 (retry after transient)", dest.SearchCalls)
		}
	})

	t.Run("exhausted search retries record error outcome", func(t *testing.T) {
		source := twoTrackSource()
		dest := matchingCatalog()
		transient := fmt.Errorf("%w: status 503", shared.ErrTransient)
		dest.SearchErrs = []error{transient, transient, transient}
		engine := newTestEngine(source, dest)
		engine.retry = RetryPolicy{MaxAttempts: 3, BaseDelay: 1, Multiplier: 2, CapDelay: 1}

		report, err := engine.Transfer(context.Background(), TransferOptions{PlaylistID: "pl1"}, nil)
		if err != nil {
			t.Fatalf("Transfer() error = %v", err)
		}
		if report.ErrorCount != 1 || report.SuccessCount != 1 {
			t.Errorf("error/success = %d/%d, want 1/1", report.ErrorCount, report.SuccessCount)
		}
	})

	t.Run("add failure records matched-but-add-failed", func(t *testing.T) {
		source := twoTrackSource()
		dest := matchingCatalog()
		dest.AddErrs = []error{fmt.Errorf("%w: status 400", shared.ErrAPIRequest)}
		engine := newTestEngine(source, dest)

		report, err := engine.Transfer(context.Background(), TransferOptions{PlaylistID: "pl1"}, nil)
		if err != nil {
			t.Fatalf("Transfer() error = %v", err)
		}
		if report.FailedCount != 1 || report.SuccessCount != 1 {
			t.Errorf("failed/success = %d/%d, want 1/1", report.FailedCount, report.SuccessCount)
		}
		if report.Outcomes[0].Status != StatusAddFailed {
			t.Errorf("first outcome = %s, want %s", report.Outcomes[0].Status, StatusAddFailed)
		}
		if report.Outcomes[0].DestID != "yt1" {
			t.Errorf("first outcome DestID = %q, want yt1 (match succeeded)", report.Outcomes[0].DestID)
		}
	})

	t.Run("auth failure aborts with partial report", func(t *testing.T) {
		source := twoTrackSource()
		dest := matchingCatalog()
		dest.AddErrs = []error{fmt.Errorf("%w: status 401", shared.ErrAuthFailed)}
		engine := newTestEngine(source, dest)

		report, err := engine.Transfer(context.Background(), TransferOptions{PlaylistID: "pl1"}, nil)
		if !shared.IsAuth(err) {
			t.Fatalf("Transfer() error = %v, want auth failure", err)
		}
		if !report.Incomplete {
			t.Error("aborted run not marked incomplete")
		}
		if len(report.Outcomes) != 1 {
			t.Errorf("outcomes = %d, want 1 (remaining tracks not processed)", len(report.Outcomes))
		}
		if report.TotalCount != 2 {
			t.Errorf("TotalCount = %d, want 2", report.TotalCount)
		}
	})

	t.Run("auth failure on the final track still marks the report incomplete", func(t *testing.T) {
		source := twoTrackSource()
		dest := matchingCatalog()
		dest.AddErrs = []error{nil, fmt.Errorf("%w: status 401", shared.ErrAuthFailed)}
		engine := newTestEngine(source, dest)

		report, err := engine.Transfer(context.Background(), TransferOptions{PlaylistID: "pl1"}, nil)
		if !shared.IsAuth(err) {
			t.Fatalf("Transfer() error = %v, want auth failure", err)
		}
		if !report.Incomplete {
			t.Error("auth-aborted run not marked incomplete")
		}
		if len(report.Outcomes) != 2 {
			t.Errorf("outcomes = %d, want 2 (abort happened on the last track)", len(report.Outcomes))
		}
		if report.Outcomes[1].Status != StatusAddFailed {
			t.Errorf("last outcome = %s, want %s", report.Outcomes[1].Status, StatusAddFailed)
		}
	})

	t.Run("cancellation between tracks stops the run", func(t *testing.T) {
		source := twoTrackSource()
		dest := matchingCatalog()
		engine := newTestEngine(source, dest)

		ctx, cancel := context.WithCancel(context.Background())
		report, err := engine.Transfer(ctx, TransferOptions{PlaylistID: "pl1"}, func(index, total int, display string, success bool) {
			cancel()
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Transfer() error = %v, want context.Canceled", err)
		}
		if len(report.Outcomes) != 1 {
			t.Errorf("outcomes = %d, want 1", len(report.Outcomes))
		}
		if !report.Incomplete {
			t.Error("cancelled run not marked incomplete")
		}
	})

	t.Run("transfers into the liked set", func(t *testing.T) {
		source := twoTrackSource()
		dest := matchingCatalog()
		engine := newTestEngine(source, dest)

		report, err := engine.Transfer(context.Background(), TransferOptions{PlaylistID: "pl1", ToLiked: true}, nil)
		if err != nil {
			t.Fatalf("Transfer() error = %v", err)
		}
		if report.DestPlaylistID != "" {
			t.Errorf("DestPlaylistID = %q, want empty for liked transfer", report.DestPlaylistID)
		}
		if len(dest.LikeCalls) != 2 {
			t.Errorf("LikeCalls = %v, want 2 entries", dest.LikeCalls)
		}
		if len(dest.AddCalls) != 0 {
			t.Errorf("AddCalls = %v, want none", dest.AddCalls)
		}
	})

	t.Run("reads liked tracks when no playlist given", func(t *testing.T) {
		source := twoTrackSource()
		source.Liked = source.Tracks["pl1"]
		dest := matchingCatalog()
		engine := newTestEngine(source, dest)

		report, err := engine.Transfer(context.Background(), TransferOptions{DestName: "From Liked"}, nil)
		if err != nil {
			t.Fatalf("Transfer() error = %v", err)
		}
		if report.PlaylistName != "Liked Songs" {
			t.Errorf("PlaylistName = %q, want Liked Songs", report.PlaylistName)
		}
		if report.SuccessCount != 2 {
			t.Errorf("SuccessCount = %d, want 2", report.SuccessCount)
		}
	})

	t.Run("source read failure returns empty incomplete report", func(t *testing.T) {
		source := twoTrackSource()
		source.ListTracksErr = fmt.Errorf("%w: status 401", shared.ErrAuthFailed)
		engine := newTestEngine(source, matchingCatalog())

		report, err := engine.Transfer(context.Background(), TransferOptions{PlaylistID: "pl1"}, nil)
		if err == nil {
			t.Fatal("Transfer() error = nil, want read failure")
		}
		if report == nil || !report.Incomplete {
			t.Error("expected an incomplete report on read failure")
		}
	})

	t.Run("cache hit skips searching", func(t *testing.T) {
		source := twoTrackSource()
		source.Tracks["pl1"] = source.Tracks["pl1"][:1]
		dest := &itesting.MockCatalog{}
		engine := newTestEngine(source, dest)
		engine.SetCache(&fakeCache{entries: map[string]*CachedMatch{
			"mock-source|sp1": {DestID: "yt-cached", Score: 0.91},
		}})

		report, err := engine.Transfer(context.Background(), TransferOptions{PlaylistID: "pl1"}, nil)
		if err != nil {
			t.Fatalf("Transfer() error = %v", err)
		}
		if len(dest.SearchCalls) != 0 {
			t.Errorf("SearchCalls = %v, want none on cache hit", dest.SearchCalls)
		}
		if len(dest.AddCalls) != 1 || dest.AddCalls[0] != "yt-cached" {
			t.Errorf("AddCalls = %v, want [yt-cached]", dest.AddCalls)
		}
		if !report.Outcomes[0].CacheHit {
			t.Error("outcome not marked as cache hit")
		}
	})

	t.Run("accepted matches are stored in the cache", func(t *testing.T) {
		source := twoTrackSource()
		dest := matchingCatalog()
		cache := &fakeCache{entries: map[string]*CachedMatch{}}
		engine := newTestEngine(source, dest)
		engine.SetCache(cache)

		if _, err := engine.Transfer(context.Background(), TransferOptions{PlaylistID: "pl1"}, nil); err != nil {
			t.Fatalf("Transfer() error = %v", err)
		}
		if len(cache.stored) != 2 {
			t.Errorf("cache stored %v, want both tracks", cache.stored)
		}
	})

	t.Run("cache lookup errors fall back to searching", func(t *testing.T) {
		source := twoTrackSource()
		dest := matchingCatalog()
		engine := newTestEngine(source, dest)
		engine.SetCache(&fakeCache{lookupErr: errors.New("database locked")})

		report, err := engine.Transfer(context.Background(), TransferOptions{PlaylistID: "pl1"}, nil)
		if err != nil {
			t.Fatalf("Transfer() error = %v", err)
		}
		if report.SuccessCount != 2 {
			t.Errorf("SuccessCount = %d, want 2", report.SuccessCount)
		}
	})
}

func multiPlaylistSource() *itesting.MockSource {
	return &itesting.MockSource{
		Playlists: []services.Playlist{
			{ID: "pl1", Name: "Road Trip", TrackCount: 1},
			{ID: "pl2", Name: "Gym Mix", TrackCount: 1},
		},
		Tracks: map[string][]services.Track{
			"pl1": {{ID: "sp1", Title: "Song One", Artist: "Artist A", DurationMs: 200000}},
			"pl2": {{ID: "sp2", Title: "Song Two", Artist: "Artist B", DurationMs: 180000}},
		},
	}
}

func TestPlaylistEngineTransferAll(t *testing.T) {
	t.Run("transfers every playlist", func(t *testing.T) {
		source := multiPlaylistSource()
		dest := matchingCatalog()
		engine := newTestEngine(source, dest)

		var batchCalls []string
		reports, err := engine.TransferAll(context.Background(), nil, false, func(index, total int, pl services.Playlist) {
			batchCalls = append(batchCalls, fmt.Sprintf("%d/%d %s", index, total, pl.Name))
		}, nil)
		if err != nil {
			t.Fatalf("TransferAll() error = %v", err)
		}

		if len(reports) != 2 {
			t.Fatalf("reports = %d, want 2", len(reports))
		}
		for i, report := range reports {
			if report.SuccessCount != 1 || report.Incomplete {
				t.Errorf("report[%d] success/incomplete = %d/%v, want 1/false", i, report.SuccessCount, report.Incomplete)
			}
		}

		wantBatch := []string{"1/2 Road Trip", "2/2 Gym Mix"}
		if len(batchCalls) != len(wantBatch) {
			t.Fatalf("batch calls = %v, want %v", batchCalls, wantBatch)
		}
		for i := range wantBatch {
			if batchCalls[i] != wantBatch[i] {
				t.Errorf("batch[%d] = %q, want %q", i, batchCalls[i], wantBatch[i])
			}
		}

		wantAdds := []string{"yt1", "yt2"}
		if len(dest.AddCalls) != len(wantAdds) {
			t.Fatalf("AddCalls = %v, want %v", dest.AddCalls, wantAdds)
		}
	})

	t.Run("exclude patterns skip playlists by name", func(t *testing.T) {
		source := multiPlaylistSource()
		dest := matchingCatalog()
		engine := newTestEngine(source, dest)

		reports, err := engine.TransferAll(context.Background(), []string{"gym"}, false, nil, nil)
		if err != nil {
			t.Fatalf("TransferAll() error = %v", err)
		}
		if len(reports) != 1 {
			t.Fatalf("reports = %d, want 1", len(reports))
		}
		if reports[0].PlaylistName != "Road Trip" {
			t.Errorf("PlaylistName = %q, want Road Trip", reports[0].PlaylistName)
		}
	})

	t.Run("auth failure aborts the batch", func(t *testing.T) {
		source := multiPlaylistSource()
		dest := matchingCatalog()
		dest.AddErrs = []error{fmt.Errorf("%w: status 401", shared.ErrAuthFailed)}
		engine := newTestEngine(source, dest)

		reports, err := engine.TransferAll(context.Background(), nil, false, nil, nil)
		if !shared.IsAuth(err) {
			t.Fatalf("TransferAll() error = %v, want auth failure", err)
		}
		if len(reports) != 1 {
			t.Fatalf("reports = %d, want 1 (second playlist never started)", len(reports))
		}
		if !reports[0].Incomplete {
			t.Error("aborted report not marked incomplete")
		}
	})

	t.Run("playlist listing failure fails the batch", func(t *testing.T) {
		source := multiPlaylistSource()
		source.GetPlaylistsErr = fmt.Errorf("%w: status 401", shared.ErrAuthFailed)
		engine := newTestEngine(source, matchingCatalog())

		_, err := engine.TransferAll(context.Background(), nil, false, nil, nil)
		if !shared.IsAuth(err) {
			t.Fatalf("TransferAll() error = %v, want auth failure", err)
		}
	})
}

func TestFilterPlaylists(t *testing.T) {
	playlists := []services.Playlist{
		{ID: "pl1", Name: "Road Trip"},
		{ID: "pl2", Name: "Gym Mix"},
		{ID: "pl3", Name: "Discover Weekly"},
	}

	t.Run("no excludes keeps everything", func(t *testing.T) {
		kept := FilterPlaylists(playlists, nil)
		if len(kept) != 3 {
			t.Errorf("kept = %d, want 3", len(kept))
		}
	})

	t.Run("matches case-insensitive substrings", func(t *testing.T) {
		kept := FilterPlaylists(playlists, []string{"GYM", "weekly"})
		if len(kept) != 1 || kept[0].ID != "pl1" {
			t.Errorf("kept = %v, want only pl1", kept)
		}
	})

	t.Run("empty patterns are ignored", func(t *testing.T) {
		kept := FilterPlaylists(playlists, []string{""})
		if len(kept) != 3 {
			t.Errorf("kept = %d, want 3", len(kept))
		}
	})
}
