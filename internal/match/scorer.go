package match

import (
	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/graymantle/playport/internal/services"
)

// Similarity weights. Title dominates, artist close behind, duration breaks
// near ties between otherwise similar results.
const (
	titleWeight    = 0.40
	artistWeight   = 0.35
	durationWeight = 0.25

	// DefaultToleranceMs is the duration difference at which the duration
	// term bottoms out at zero.
	DefaultToleranceMs = 10000

	// neutralDuration is contributed when either side's duration is unknown,
	// so missing metadata neither rewards nor punishes a candidate.
	neutralDuration = 0.5
)

// Scorer computes a weighted similarity between a source track and a
// destination candidate. Pure and deterministic; safe for concurrent use.
type Scorer struct {
	toleranceMs int
	lev         *metrics.Levenshtein
}

// NewScorer creates a Scorer with the default duration tolerance.
func NewScorer() *Scorer {
	return NewScorerWithTolerance(DefaultToleranceMs)
}

// NewScorerWithTolerance creates a Scorer with a custom duration tolerance in milliseconds.
func NewScorerWithTolerance(toleranceMs int) *Scorer {
	if toleranceMs <= 0 {
		toleranceMs = DefaultToleranceMs
	}
	lev := metrics.NewLevenshtein()
	lev.CaseSensitive = false
	return &Scorer{toleranceMs: toleranceMs, lev: lev}
}

// Score returns the weighted similarity in [0,1]. Swapping which side is the
// track and which the candidate yields the same score: the string ratio and
// the duration difference are both symmetric.
func (s *Scorer) Score(track services.Track, candidate services.Candidate) float64 {
	title := s.stringSimilarity(track.Title, candidate.Title)
	artist := s.stringSimilarity(track.Artist, candidate.Artist)
	duration := s.durationSimilarity(track.DurationMs, candidate.DurationMs)

	score := title*titleWeight + artist*artistWeight + duration*durationWeight
	return clamp(score)
}

// stringSimilarity is a normalized Levenshtein ratio on case-folded,
// punctuation-stripped strings.
func (s *Scorer) stringSimilarity(a, b string) float64 {
	return strutil.Similarity(NormalizeQuery(a), NormalizeQuery(b), s.lev)
}

// durationSimilarity is 1 at equal durations, falling linearly to 0 at the
// tolerance. Unknown durations (zero) on either side contribute a neutral 0.5.
func (s *Scorer) durationSimilarity(a, b int) float64 {
	if a <= 0 || b <= 0 {
		return neutralDuration
	}

	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	if diff >= s.toleranceMs {
		return 0
	}
	return 1 - float64(diff)/float64(s.toleranceMs)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
