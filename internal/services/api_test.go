package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	tu "github.com/graymantle/playport/internal/testing/httpmock"
)

func TestAPIService(t *testing.T) {
	t.Run("NewAPIService", func(t *testing.T) {
		t.Run("Default Base URL", func(t *testing.T) {
			api := NewAPIService("", nil)
			if api.baseURL != defaultYTBaseURL {
				t.Errorf("expected default base URL, got %s", api.baseURL)
			}
			if api.httpClient != http.DefaultClient {
				t.Error("expected default HTTP client")
			}
		})

		t.Run("Custom Base URL", func(t *testing.T) {
			api := NewAPIService("http://localhost:9090", nil)
			if api.baseURL != "http://localhost:9090" {
				t.Errorf("expected custom base URL, got %s", api.baseURL)
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Parses JSON Response", func(t *testing.T) {
			rt := tu.NewMockRoundTripper(tu.JSONResponse(200, `{"status": "healthy", "authenticated": true}`), nil)
			api := NewAPIService("", &http.Client{Transport: rt})

			resp, err := api.Get(context.Background(), "/health")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if resp.StatusCode != 200 {
				t.Errorf("status = %d, want 200", resp.StatusCode)
			}
			if !resp.IsJSON {
				t.Error("expected response to be recognized as JSON")
			}

			data, ok := resp.JSONData.(map[string]any)
			if !ok {
				t.Fatalf("expected JSON object, got %T", resp.JSONData)
			}
			if data["status"] != "healthy" {
				t.Errorf("status field = %v, want healthy", data["status"])
			}
		})

		t.Run("Non-JSON Body", func(t *testing.T) {
			rt := tu.NewMockRoundTripper(tu.JSONResponse(200, `plain text`), nil)
			api := NewAPIService("", &http.Client{Transport: rt})

			resp, err := api.Get(context.Background(), "/raw")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if resp.IsJSON {
				t.Error("expected non-JSON body")
			}
			if string(resp.Body) != "plain text" {
				t.Errorf("body = %q, want plain text", string(resp.Body))
			}
		})

		t.Run("Request Error", func(t *testing.T) {
			api := NewAPIService("", &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))})

			_, err := api.Get(context.Background(), "/health")
			if err == nil {
				t.Fatal("expected error from failing transport")
			}
		})

		t.Run("Preserves Error Status", func(t *testing.T) {
			rt := tu.NewMockRoundTripper(tu.JSONResponse(404, `{"detail": "not found"}`), nil)
			api := NewAPIService("", &http.Client{Transport: rt})

			resp, err := api.Get(context.Background(), "/missing")
			if err != nil {
				t.Fatalf("expected no transport error, got %v", err)
			}
			if resp.StatusCode != 404 {
				t.Errorf("status = %d, want 404", resp.StatusCode)
			}
		})
	})

	t.Run("Post", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(tu.JSONResponse(201, `{"created": true}`), nil)
		api := NewAPIService("", &http.Client{Transport: rt})

		resp, err := api.Post(context.Background(), "/api/playlists", []byte(`{"title": "Road Trip"}`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if resp.StatusCode != 201 {
			t.Errorf("status = %d, want 201", resp.StatusCode)
		}
		if got := rt.Requests[0].Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", got)
		}
	})
}
