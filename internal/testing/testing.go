// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/graymantle/playport/internal/services"
)

// MockSource is a configurable test double for [services.SourceReader].
type MockSource struct {
	Playlists       []services.Playlist
	Tracks          map[string][]services.Track
	Liked           []services.Track
	AuthenticateErr error
	GetPlaylistsErr error
	ListTracksErr   error
	ListLikedErr    error
}

func (m *MockSource) Authenticate(ctx context.Context, credentials map[string]string) error {
	return m.AuthenticateErr
}

func (m *MockSource) GetPlaylists(ctx context.Context) ([]services.Playlist, error) {
	if m.GetPlaylistsErr != nil {
		return nil, m.GetPlaylistsErr
	}
	return m.Playlists, nil
}

func (m *MockSource) GetPlaylist(ctx context.Context, playlistID string) (*services.Playlist, error) {
	for _, pl := range m.Playlists {
		if pl.ID == playlistID {
			return &pl, nil
		}
	}
	return nil, errors.New("playlist not found")
}

func (m *MockSource) ListTracks(ctx context.Context, playlistID string) ([]services.Track, error) {
	if m.ListTracksErr != nil {
		return nil, m.ListTracksErr
	}
	return m.Tracks[playlistID], nil
}

func (m *MockSource) ListLikedTracks(ctx context.Context) ([]services.Track, error) {
	if m.ListLikedErr != nil {
		return nil, m.ListLikedErr
	}
	return m.Liked, nil
}

func (m *MockSource) Name() string { return "mock-source" }

// MockCatalog is a configurable test double for [services.DestinationCatalog].
//
// SearchResults maps query strings to candidate slices; queries with no entry
// return an empty result set. Error fields may be functions of the call count
// via the *Errs slices (drained in order) for retry scenarios.
type MockCatalog struct {
	SearchResults map[string][]services.Candidate
	SearchErrs    []error
	CreateErr     error
	CreatedID     string
	AddErrs       []error
	LikeErrs      []error

	SearchCalls []string
	AddCalls    []string
	LikeCalls   []string
}

func (m *MockCatalog) Search(ctx context.Context, query string, maxResults int) ([]services.Candidate, error) {
	m.SearchCalls = append(m.SearchCalls, query)
	if err := pop(&m.SearchErrs); err != nil {
		return nil, err
	}
	results := m.SearchResults[query]
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

func (m *MockCatalog) CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error) {
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	if m.CreatedID == "" {
		return "dest-playlist", nil
	}
	return m.CreatedID, nil
}

func (m *MockCatalog) AddToPlaylist(ctx context.Context, playlistID, candidateID string) error {
	m.AddCalls = append(m.AddCalls, candidateID)
	return pop(&m.AddErrs)
}

func (m *MockCatalog) AddToLiked(ctx context.Context, candidateID string) error {
	m.LikeCalls = append(m.LikeCalls, candidateID)
	return pop(&m.LikeErrs)
}

func (m *MockCatalog) Name() string { return "mock-catalog" }

// pop removes and returns the first error in the slice, or nil when drained.
func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
