package match

import (
	"strings"

	"github.com/graymantle/playport/internal/services"
)

// QueryPlan builds the ordered search-query fallback chain for a track,
// most specific first:
//
//  1. "artist title" verbatim
//  2. "title" verbatim
//  3. normalized variants of both, with qualifiers stripped and case folded
//
// Queries that normalize to the empty string are dropped; duplicates are
// removed preserving first occurrence. The chain is non-empty for any track
// with a non-blank title.
func QueryPlan(track services.Track) []string {
	title := strings.TrimSpace(track.Title)
	artist := strings.TrimSpace(track.Artist)

	var chain []string
	if artist != "" && title != "" {
		chain = append(chain, artist+" "+title)
	}
	if title != "" {
		chain = append(chain, title)
	}

	cleaned := CleanTitle(title)
	if artist != "" {
		chain = append(chain, NormalizeQuery(artist+" "+cleaned))
	}
	chain = append(chain, NormalizeQuery(cleaned))

	seen := make(map[string]bool, len(chain))
	queries := make([]string, 0, len(chain))
	for _, q := range chain {
		q = strings.TrimSpace(q)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		queries = append(queries, q)
	}

	return queries
}
