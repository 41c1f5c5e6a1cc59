package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/feats/ftg/internal/api"
)

// runCommand executes the CLI with stdout and stderr captured.
func runCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	oldOut, oldErr := os.Stdout, os.Stderr
	outR, outW, _ := os.Pipe()
	errR, errW, _ := os.Pipe()
	os.Stdout = outW
	os.Stderr = errW

	err = Execute(context.Background(), args)

	_ = outW.Close()
	_ = errW.Close()
	os.Stdout = oldOut
	os.Stderr = oldErr

	var outBuf, errBuf bytes.Buffer
	_, _ = io.Copy(&outBuf, outR)
	_, _ = io.Copy(&errBuf, errR)
	return outBuf.String(), errBuf.String(), err
}

// testGateway serves a small fixed chat directory with history and entities.
// Chat 1 (Work Chat) has two messages from Alice; chat 2 (Family) is empty.
func testGateway(t *testing.T) *httptest.Server {
	t.Helper()

	base := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/dialogs", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"dialogs": []api.Dialog{
				{ID: 1, Name: "Work Chat"},
				{ID: 2, Name: "Family"},
			},
		})
	})
	mux.HandleFunc("/api/v1/chats/1/messages", func(w http.ResponseWriter, r *http.Request) {
		// Newest first, the way a backward walk comes off the wire.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []api.Message{
				{ID: 12, Text: "second", Date: base.Add(time.Minute), SenderID: 5},
				{ID: 11, Text: "first", Date: base, SenderID: 5},
			},
		})
	})
	mux.HandleFunc("/api/v1/chats/2/messages", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"messages": []api.Message{}})
	})
	mux.HandleFunc("/api/v1/entities/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/entities/1":
			_ = json.NewEncoder(w).Encode(api.Entity{ID: 1, Title: "Work Chat", Username: "workchat"})
		case "/api/v1/entities/2":
			_ = json.NewEncoder(w).Encode(api.Entity{ID: 2, Title: "Family"})
		case "/api/v1/entities/5":
			_ = json.NewEncoder(w).Encode(api.Entity{ID: 5, FirstName: "Alice", LastName: "Smith"})
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	t.Setenv("FTG_GATEWAY_URL", srv.URL)
	t.Setenv("FTG_SESSION_TOKEN", "test-token")
	t.Setenv("FTG_NO_CACHE", "1")
	t.Setenv("FTG_CACHE_DIR", t.TempDir())
	return srv
}
