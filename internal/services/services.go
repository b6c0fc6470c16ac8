// package services defines the catalog collaborator contracts and their HTTP implementations
//
// Spotify (source), YouTube Music (destination, via proxy)
package services

import (
	"context"
)

// SourceReader is the read side of a migration: it enumerates playlists and tracks
// from the catalog being exported.
type SourceReader interface {
	// Authenticate performs OAuth or API key authentication with the service.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// GetPlaylists retrieves all playlists for the authenticated user.
	GetPlaylists(ctx context.Context) ([]Playlist, error)

	// GetPlaylist retrieves a specific playlist by ID.
	GetPlaylist(ctx context.Context, playlistID string) (*Playlist, error)

	// ListTracks retrieves all tracks of the given playlist in playlist order.
	ListTracks(ctx context.Context, playlistID string) ([]Track, error)

	// ListLikedTracks retrieves the user's saved/liked tracks.
	ListLikedTracks(ctx context.Context) ([]Track, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// DestinationCatalog is the write side of a migration: search plus collection writes.
//
// Search results are returned in the destination's own relevance order; callers
// that re-rank do so on top of that ordering.
type DestinationCatalog interface {
	// Search queries the catalog and returns up to maxResults candidates.
	Search(ctx context.Context, query string, maxResults int) ([]Candidate, error)

	// CreatePlaylist creates a new collection and returns its ID.
	CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error)

	// AddToPlaylist appends a catalog item to an existing playlist.
	AddToPlaylist(ctx context.Context, playlistID, candidateID string) error

	// AddToLiked adds a catalog item to the user's liked set.
	AddToLiked(ctx context.Context, candidateID string) error

	// Name returns the name of the service (e.g., "YouTube Music")
	Name() string
}

// Playlist represents a music playlist from any service
type Playlist struct {
	ID          string
	Name        string
	Description string
	TrackCount  int
	Public      bool
}

// Track represents a source track to be matched.
// DurationMs is zero when the source did not report a duration.
type Track struct {
	ID         string
	Title      string
	Artist     string
	Album      string
	DurationMs int
}

// Display returns "Artist - Title" for progress output.
func (t Track) Display() string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Artist + " - " + t.Title
}

// Candidate represents a destination search result considered as a possible match.
// DurationMs is zero when the destination did not report a duration.
type Candidate struct {
	ID         string
	Title      string
	Artist     string
	DurationMs int
}
