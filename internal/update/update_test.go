package update

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// setupTestServer creates a test server and overrides GitHubReleasesURL.
// Returns a cleanup function that restores the original URL.
func setupTestServer(handler http.HandlerFunc) (*httptest.Server, func()) {
	server := httptest.NewServer(handler)
	originalURL := GitHubReleasesURL
	GitHubReleasesURL = server.URL
	cleanup := func() {
		server.Close()
		GitHubReleasesURL = originalURL
	}
	return server, cleanup
}

func TestNormalizeVersion(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1.0.0", "v1.0.0"},
		{"v1.0.0", "v1.0.0"},
		{"0.1.0", "v0.1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := normalizeVersion(tt.input)
			if got != tt.expected {
				t.Errorf("normalizeVersion(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCheckForUpdate_DevVersion(t *testing.T) {
	if result := CheckForUpdate(context.Background(), "dev"); result != nil {
		t.Error("expected nil for dev version, got result")
	}
	if result := CheckForUpdate(context.Background(), ""); result != nil {
		t.Error("expected nil for empty version, got result")
	}
}

func TestCheckForUpdate_UpdateAvailable(t *testing.T) {
	_, cleanup := setupTestServer(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/vnd.github.v3+json" {
			t.Error("expected GitHub API accept header")
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Release{
			TagName: "v2.0.0",
			HTMLURL: "https://github.com/feats/ftg/releases/tag/v2.0.0",
		})
	})
	defer cleanup()

	result := CheckForUpdate(context.Background(), "1.0.0")
	if result == nil {
		t.Fatal("expected a result")
	}
	if !result.UpdateAvailable {
		t.Error("expected update available")
	}
	if result.LatestVersion != "2.0.0" {
		t.Errorf("unexpected latest version %q", result.LatestVersion)
	}
}

func TestCheckForUpdate_UpToDate(t *testing.T) {
	_, cleanup := setupTestServer(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Release{TagName: "v1.0.0"})
	})
	defer cleanup()

	result := CheckForUpdate(context.Background(), "1.0.0")
	if result == nil {
		t.Fatal("expected a result")
	}
	if result.UpdateAvailable {
		t.Error("expected no update available")
	}
}

func TestCheckForUpdate_ServerError(t *testing.T) {
	_, cleanup := setupTestServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer cleanup()

	if result := CheckForUpdate(context.Background(), "1.0.0"); result != nil {
		t.Error("expected nil on server error")
	}
}
