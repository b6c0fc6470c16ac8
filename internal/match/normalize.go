package match

import (
	"regexp"
	"strings"

	"github.com/graymantle/playport/internal/shared"
)

// Qualifier patterns commonly appended by catalogs that hurt cross-catalog search:
// remaster years, radio edits, single/album version tags, explicit markers.
var qualifierPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*[([][^)\]]*(remaster|radio edit|single version|album version|explicit|live|deluxe)[^)\]]*[)\]]`),
	regexp.MustCompile(`(?i)\s*-\s*(\d{4}\s*)?remaster(ed)?.*$`),
	regexp.MustCompile(`(?i)\s*-\s*(radio edit|single version|album version|live).*$`),
}

var featPattern = regexp.MustCompile(`(?i)\s*[([]?\s*(feat\.?|featuring|ft\.?|with)\s+[^)\]]*[)\]]?\s*$`)

// CleanTitle strips bracketed qualifiers and featuring credits from a track title.
// The result may be empty if the title consisted only of qualifiers.
func CleanTitle(title string) string {
	cleaned := title
	for _, p := range qualifierPatterns {
		cleaned = p.ReplaceAllString(cleaned, "")
	}
	cleaned = featPattern.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// NormalizeQuery case-folds, strips punctuation, and collapses whitespace.
func NormalizeQuery(s string) string {
	return strings.Join(strings.Fields(shared.StripPunctuation(strings.ToLower(s))), " ")
}
