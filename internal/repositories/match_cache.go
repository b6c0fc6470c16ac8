// package repositories provides the persistence layer for the match cache.
//
// The cache stores accepted matches from previous transfer runs so repeat
// transfers of the same tracks skip the destination search round-trips.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/graymantle/playport/internal/services"
	"github.com/graymantle/playport/internal/shared"
	"github.com/graymantle/playport/internal/tasks"
)

// Match is a persisted accepted match, keyed by (source service, source track ID).
type Match struct {
	ID            string
	SourceService string
	SourceID      string
	Title         string
	Artist        string
	DestService   string
	DestID        string
	Score         float64
	CreatedAt     time.Time
}

// MatchRepository persists accepted matches in the matches table.
type MatchRepository struct {
	db *sql.DB
}

// NewMatchRepository creates a MatchRepository with the given database connection.
func NewMatchRepository(db *sql.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// Upsert inserts a match, replacing the destination and score when the
// (source_service, source_id) pair already exists.
func (r *MatchRepository) Upsert(ctx context.Context, m *Match) error {
	if m.SourceService == "" || m.SourceID == "" {
		return fmt.Errorf("%w: match requires a source service and track ID", shared.ErrInvalidInput)
	}
	if m.ID == "" {
		m.ID = shared.GenerateID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO matches (id, source_service, source_id, title, artist, dest_service, dest_id, score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source_service, source_id)
		DO UPDATE SET dest_service = excluded.dest_service, dest_id = excluded.dest_id, score = excluded.score
	`

	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.SourceService,
		m.SourceID,
		m.Title,
		m.Artist,
		m.DestService,
		m.DestID,
		m.Score,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert match: %w", err)
	}
	return nil
}

// Get retrieves a match by source service and track ID. Returns nil when no
// match is cached.
func (r *MatchRepository) Get(ctx context.Context, sourceService, sourceID string) (*Match, error) {
	query := `
		SELECT id, source_service, source_id, title, artist, dest_service, dest_id, score, created_at
		FROM matches
		WHERE source_service = ? AND source_id = ?
	`

	m := &Match{}
	err := r.db.QueryRowContext(ctx, query, sourceService, sourceID).Scan(
		&m.ID,
		&m.SourceService,
		&m.SourceID,
		&m.Title,
		&m.Artist,
		&m.DestService,
		&m.DestID,
		&m.Score,
		&m.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return m, nil
}

// List returns cached matches ordered newest first, capped at limit.
// A non-positive limit returns all rows.
func (r *MatchRepository) List(ctx context.Context, limit int) ([]Match, error) {
	query := `
		SELECT id, source_service, source_id, title, artist, dest_service, dest_id, score, created_at
		FROM matches
		ORDER BY created_at DESC, id
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(
			&m.ID,
			&m.SourceService,
			&m.SourceID,
			&m.Title,
			&m.Artist,
			&m.DestService,
			&m.DestID,
			&m.Score,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate matches: %w", err)
	}
	return matches, nil
}

// Count returns the number of cached matches.
func (r *MatchRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM matches").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return count, nil
}

// Clear deletes cached matches. An empty sourceService clears everything;
// otherwise only that service's rows are removed. Returns rows deleted.
func (r *MatchRepository) Clear(ctx context.Context, sourceService string) (int64, error) {
	var result sql.Result
	var err error
	if sourceService == "" {
		result, err = r.db.ExecContext(ctx, "DELETE FROM matches")
	} else {
		result, err = r.db.ExecContext(ctx, "DELETE FROM matches WHERE source_service = ?", sourceService)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to clear matches: %w", err)
	}
	return result.RowsAffected()
}

// MatchCacheAdapter implements tasks.MatchCache over MatchRepository.
type MatchCacheAdapter struct {
	repo *MatchRepository
}

// NewMatchCacheAdapter creates a MatchCacheAdapter with the given repository.
func NewMatchCacheAdapter(repo *MatchRepository) *MatchCacheAdapter {
	return &MatchCacheAdapter{repo: repo}
}

// Lookup returns the cached match for the track, or nil on a miss.
func (a *MatchCacheAdapter) Lookup(ctx context.Context, sourceService, trackID string) (*tasks.CachedMatch, error) {
	m, err := a.repo.Get(ctx, sourceService, trackID)
	if err != nil || m == nil {
		return nil, err
	}
	return &tasks.CachedMatch{DestID: m.DestID, Score: m.Score}, nil
}

// Store persists an accepted match.
func (a *MatchCacheAdapter) Store(ctx context.Context, sourceService string, track services.Track, destService, destID string, score float64) error {
	return a.repo.Upsert(ctx, &Match{
		SourceService: sourceService,
		SourceID:      track.ID,
		Title:         track.Title,
		Artist:        track.Artist,
		DestService:   destService,
		DestID:        destID,
		Score:         score,
	})
}
