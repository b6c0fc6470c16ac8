// YouTube Music implementation of [DestinationCatalog]
//
// Communicates with the local FastAPI proxy wrapping the ytmusicapi Python
// library; the proxy defaults to port 8080.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/graymantle/playport/internal/shared"
)

const defaultYTBaseURL string = "http://localhost:8080"

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeTrack represents a track/video in YouTube Music search responses.
type YouTubeTrack struct {
	VideoID     string          `json:"videoId"`
	Title       string          `json:"title"`
	Artists     []YouTubeArtist `json:"artists"`
	Duration    string          `json:"duration"`
	DurationSec int             `json:"duration_seconds"`
}

// YouTubeService implements [DestinationCatalog] against the proxy.
type YouTubeService struct {
	baseURL    string
	authFile   string
	httpClient *http.Client
}

// NewYouTubeService creates a new YouTube Music service instance.
func NewYouTubeService(baseURL string) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}

	return &YouTubeService{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube Music"
}

// SetHTTPClient replaces the underlying HTTP client. Used by tests.
func (y *YouTubeService) SetHTTPClient(client *http.Client) {
	if client != nil {
		y.httpClient = client
	}
}

// Authenticate stores the authentication file path for subsequent requests.
//
// Expects credentials["auth_file"] to contain the path to browser.json or oauth.json.
func (y *YouTubeService) Authenticate(ctx context.Context, credentials map[string]string) error {
	authFile, ok := credentials["auth_file"]
	if !ok || authFile == "" {
		return fmt.Errorf("%w: missing auth_file", shared.ErrMissingCredentials)
	}

	y.authFile = authFile
	return nil
}

// doRequest performs a proxy request with an optional JSON body and decodes the JSON response.
func (y *YouTubeService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, y.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if y.authFile != "" {
		req.Header.Set("X-Auth-File", y.authFile)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return shared.ClassifyRequestError("YouTube Music", err)
	}
	defer resp.Body.Close()

	if err := shared.ClassifyStatus("YouTube Music", resp.StatusCode); err != nil {
		return err
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Search queries the proxy's song search and returns up to maxResults candidates
// in the order the proxy ranked them.
//
// Calls GET /api/search on the proxy.
func (y *YouTubeService) Search(ctx context.Context, query string, maxResults int) ([]Candidate, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	endpoint := fmt.Sprintf("/api/search?query=%s&filter=songs&limit=%d", url.QueryEscape(query), maxResults)

	var results []YouTubeTrack
	if err := y.doRequest(ctx, http.MethodGet, endpoint, nil, &results); err != nil {
		return nil, err
	}

	if len(results) > maxResults {
		results = results[:maxResults]
	}

	candidates := make([]Candidate, len(results))
	for i, ytt := range results {
		candidate := Candidate{
			ID:         ytt.VideoID,
			Title:      ytt.Title,
			DurationMs: ytt.DurationSec * 1000,
		}
		if len(ytt.Artists) > 0 {
			candidate.Artist = ytt.Artists[0].Name
		}
		candidates[i] = candidate
	}

	return candidates, nil
}

// CreatePlaylist creates a new playlist and returns its ID.
//
// Calls POST /api/playlists on the proxy.
func (y *YouTubeService) CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error) {
	createReq := struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		PrivacyStatus string `json:"privacy_status"`
	}{
		Title:         name,
		Description:   description,
		PrivacyStatus: shared.VisibilityString(public),
	}

	var createResp struct {
		PlaylistID string `json:"playlist_id"`
	}

	if err := y.doRequest(ctx, http.MethodPost, "/api/playlists", createReq, &createResp); err != nil {
		return "", err
	}

	if createResp.PlaylistID == "" {
		return "", fmt.Errorf("%w: proxy returned empty playlist ID", shared.ErrAPIRequest)
	}

	return createResp.PlaylistID, nil
}

// AddToPlaylist appends a single video to an existing playlist.
//
// Calls POST /api/playlists/{id}/items on the proxy.
func (y *YouTubeService) AddToPlaylist(ctx context.Context, playlistID, candidateID string) error {
	addReq := struct {
		VideoIDs []string `json:"video_ids"`
	}{
		VideoIDs: []string{candidateID},
	}

	endpoint := fmt.Sprintf("/api/playlists/%s/items", playlistID)
	return y.doRequest(ctx, http.MethodPost, endpoint, addReq, nil)
}

// AddToLiked likes a song, adding it to the user's liked music.
//
// Calls POST /api/songs/{id}/like on the proxy.
func (y *YouTubeService) AddToLiked(ctx context.Context, candidateID string) error {
	endpoint := fmt.Sprintf("/api/songs/%s/like", candidateID)
	return y.doRequest(ctx, http.MethodPost, endpoint, nil, nil)
}
