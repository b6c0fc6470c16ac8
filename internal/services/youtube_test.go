package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/graymantle/playport/internal/shared"
	tu "github.com/graymantle/playport/internal/testing/httpmock"
)

func TestYouTubeService(t *testing.T) {
	t.Run("NewYouTubeService", func(t *testing.T) {
		t.Run("Default Base URL", func(t *testing.T) {
			srv := NewYouTubeService("")
			if srv.baseURL != defaultYTBaseURL {
				t.Errorf("expected default base URL, got %s", srv.baseURL)
			}
			if srv.Name() != "YouTube Music" {
				t.Errorf("unexpected service name: %s", srv.Name())
			}
		})

		t.Run("Custom Base URL", func(t *testing.T) {
			srv := NewYouTubeService("http://localhost:9090")
			if srv.baseURL != "http://localhost:9090" {
				t.Errorf("expected custom base URL, got %s", srv.baseURL)
			}
		})
	})

	t.Run("Authenticate", func(t *testing.T) {
		t.Run("Missing Auth File", func(t *testing.T) {
			srv := NewYouTubeService("")
			err := srv.Authenticate(context.Background(), map[string]string{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected missing credentials error, got %v", err)
			}
		})

		t.Run("Sets Auth Header On Requests", func(t *testing.T) {
			rt := tu.NewMockRoundTripper(tu.JSONResponse(200, `[]`), nil)
			srv := NewYouTubeService("")
			srv.SetHTTPClient(&http.Client{Transport: rt})

			if err := srv.Authenticate(context.Background(), map[string]string{"auth_file": "browser.json"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if _, err := srv.Search(context.Background(), "test", 5); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := rt.Requests[0].Header.Get("X-Auth-File"); got != "browser.json" {
				t.Errorf("X-Auth-File header = %q, want browser.json", got)
			}
		})
	})

	t.Run("Search", func(t *testing.T) {
		t.Run("Maps Results To Candidates", func(t *testing.T) {
			rt := tu.NewMockRoundTripper(tu.JSONResponse(200, `[
				{"videoId": "yt1", "title": "Song One", "artists": [{"name": "Artist A"}], "duration_seconds": 200},
				{"videoId": "yt2", "title": "Song Two", "artists": []}
			]`), nil)
			srv := NewYouTubeService("")
			srv.SetHTTPClient(&http.Client{Transport: rt})

			candidates, err := srv.Search(context.Background(), "Artist A Song One", 10)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if len(candidates) != 2 {
				t.Fatalf("expected 2 candidates, got %d", len(candidates))
			}
			if candidates[0].ID != "yt1" || candidates[0].Artist != "Artist A" {
				t.Errorf("unexpected first candidate: %+v", candidates[0])
			}
			if candidates[0].DurationMs != 200000 {
				t.Errorf("duration = %d, want 200000", candidates[0].DurationMs)
			}
			if candidates[1].Artist != "" {
				t.Errorf("expected empty artist, got %s", candidates[1].Artist)
			}
		})

		t.Run("Escapes The Query", func(t *testing.T) {
			rt := tu.NewMockRoundTripper(tu.JSONResponse(200, `[]`), nil)
			srv := NewYouTubeService("")
			srv.SetHTTPClient(&http.Client{Transport: rt})

			if _, err := srv.Search(context.Background(), "Daft Punk & Friends", 5); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			raw := rt.Requests[0].URL.RawQuery
			if !strings.Contains(raw, "Daft+Punk+%26+Friends") {
				t.Errorf("expected escaped query, got %s", raw)
			}
			if !strings.Contains(raw, "filter=songs") {
				t.Errorf("expected songs filter, got %s", raw)
			}
		})

		t.Run("Truncates To Max Results", func(t *testing.T) {
			rt := tu.NewMockRoundTripper(tu.JSONResponse(200, `[
				{"videoId": "yt1", "title": "A"},
				{"videoId": "yt2", "title": "B"},
				{"videoId": "yt3", "title": "C"}
			]`), nil)
			srv := NewYouTubeService("")
			srv.SetHTTPClient(&http.Client{Transport: rt})

			candidates, err := srv.Search(context.Background(), "test", 2)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(candidates) != 2 {
				t.Errorf("expected truncation to 2 candidates, got %d", len(candidates))
			}
		})

		t.Run("Rate Limited Status", func(t *testing.T) {
			srv := NewYouTubeService("")
			srv.SetHTTPClient(&http.Client{Transport: tu.NewMockRoundTripper(tu.JSONResponse(429, `{}`), nil)})

			_, err := srv.Search(context.Background(), "test", 5)
			if !errors.Is(err, shared.ErrRateLimited) {
				t.Errorf("expected rate limited error, got %v", err)
			}
		})

		t.Run("Connection Error Is Transient", func(t *testing.T) {
			srv := NewYouTubeService("")
			srv.SetHTTPClient(&http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))})

			_, err := srv.Search(context.Background(), "test", 5)
			if !shared.IsTransient(err) {
				t.Errorf("expected transient error, got %v", err)
			}
		})
	})

	t.Run("CreatePlaylist", func(t *testing.T) {
		t.Run("Returns Playlist ID", func(t *testing.T) {
			rt := tu.NewMockRoundTripper(tu.JSONResponse(200, `{"playlist_id": "PL123"}`), nil)
			srv := NewYouTubeService("")
			srv.SetHTTPClient(&http.Client{Transport: rt})

			id, err := srv.CreatePlaylist(context.Background(), "Road Trip", "migrated", false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if id != "PL123" {
				t.Errorf("playlist ID = %s, want PL123", id)
			}

			body, _ := io.ReadAll(rt.Requests[0].Body)
			var sent map[string]string
			if err := json.Unmarshal(body, &sent); err != nil {
				t.Fatalf("failed to decode request body: %v", err)
			}
			if sent["title"] != "Road Trip" {
				t.Errorf("title = %s, want Road Trip", sent["title"])
			}
			if sent["privacy_status"] != "PRIVATE" {
				t.Errorf("privacy_status = %s, want PRIVATE", sent["privacy_status"])
			}
		})

		t.Run("Empty ID Fails", func(t *testing.T) {
			srv := NewYouTubeService("")
			srv.SetHTTPClient(&http.Client{Transport: tu.NewMockRoundTripper(tu.JSONResponse(200, `{}`), nil)})

			_, err := srv.CreatePlaylist(context.Background(), "Road Trip", "", false)
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected API request error for empty ID, got %v", err)
			}
		})
	})

	t.Run("AddToPlaylist", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(tu.JSONResponse(200, `{}`), nil)
		srv := NewYouTubeService("")
		srv.SetHTTPClient(&http.Client{Transport: rt})

		if err := srv.AddToPlaylist(context.Background(), "PL123", "yt1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		req := rt.Requests[0]
		if req.URL.Path != "/api/playlists/PL123/items" {
			t.Errorf("unexpected path: %s", req.URL.Path)
		}

		body, _ := io.ReadAll(req.Body)
		if !strings.Contains(string(body), `"yt1"`) {
			t.Errorf("expected video ID in body, got %s", string(body))
		}
	})

	t.Run("AddToLiked", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(tu.JSONResponse(200, `{}`), nil)
		srv := NewYouTubeService("")
		srv.SetHTTPClient(&http.Client{Transport: rt})

		if err := srv.AddToLiked(context.Background(), "yt1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rt.Requests[0].URL.Path != "/api/songs/yt1/like" {
			t.Errorf("unexpected path: %s", rt.Requests[0].URL.Path)
		}
	})
}
