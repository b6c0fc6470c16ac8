package match

import (
	"context"
	"fmt"
	"strings"

	"github.com/graymantle/playport/internal/services"
	"github.com/graymantle/playport/internal/shared"
)

// Searcher is the slice of [services.DestinationCatalog] the matcher needs.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]services.Candidate, error)
}

// Result holds the outcome of matching one track: the accepted candidate
// (nil when no candidate cleared the threshold), the winning score (or the
// best score seen when no match was accepted), and every query attempted.
type Result struct {
	Candidate *services.Candidate
	Score     float64
	Queries   []string
}

// Matched reports whether a candidate was accepted.
func (r *Result) Matched() bool {
	return r != nil && r.Candidate != nil
}

// Matcher selects the best destination candidate for a source track by
// walking the query fallback chain and scoring every search result.
type Matcher struct {
	search     Searcher
	scorer     *Scorer
	threshold  float64
	maxResults int
}

// NewMatcher creates a Matcher. The threshold is inclusive: a candidate
// scoring exactly the threshold is accepted.
func NewMatcher(search Searcher, scorer *Scorer, threshold float64, maxResults int) *Matcher {
	if scorer == nil {
		scorer = NewScorer()
	}
	if maxResults <= 0 {
		maxResults = 10
	}
	return &Matcher{
		search:     search,
		scorer:     scorer,
		threshold:  threshold,
		maxResults: maxResults,
	}
}

// Match walks the track's query chain in order. For each query it scores all
// returned candidates; if the best of them clears the threshold that
// candidate is accepted and later queries are not consulted. Ties go to the
// earliest-returned candidate, keeping the destination's own relevance order
// as the tiebreak.
//
// Search failures propagate so the caller can distinguish a transient failure
// from a genuine no-match.
func (m *Matcher) Match(ctx context.Context, track services.Track) (*Result, error) {
	if err := ValidateTrack(track); err != nil {
		return nil, err
	}

	result := &Result{}

	for _, query := range QueryPlan(track) {
		result.Queries = append(result.Queries, query)

		candidates, err := m.search.Search(ctx, query, m.maxResults)
		if err != nil {
			return nil, err
		}

		var best *services.Candidate
		bestScore := 0.0
		for i := range candidates {
			score := m.scorer.Score(track, candidates[i])
			if best == nil || score > bestScore {
				best = &candidates[i]
				bestScore = score
			}
		}

		if bestScore > result.Score {
			result.Score = bestScore
		}

		if best != nil && bestScore >= m.threshold {
			result.Candidate = best
			result.Score = bestScore
			return result, nil
		}
	}

	return result, nil
}

// ValidateTrack rejects tracks the matcher cannot work with.
func ValidateTrack(track services.Track) error {
	if strings.TrimSpace(track.Title) == "" {
		return fmt.Errorf("%w: empty title (id %q)", shared.ErrInvalidTrack, track.ID)
	}
	return nil
}
