package outfmt

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", Text, false},
		{"text", Text, false},
		{"json", JSON, false},
		{"jsonl", JSONL, false},
		{"ndjson", JSONL, false},
		{"yaml", Text, true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestModeContext(t *testing.T) {
	ctx := context.Background()
	if ModeFromContext(ctx) != Text {
		t.Error("default mode should be Text")
	}
	if IsJSON(ctx) {
		t.Error("default should not be JSON")
	}

	ctx = WithMode(ctx, JSONL)
	if !IsJSON(ctx) || !IsJSONL(ctx) {
		t.Error("JSONL mode should report both IsJSON and IsJSONL")
	}

	ctx = WithMode(ctx, JSON)
	if !IsJSON(ctx) || IsJSONL(ctx) {
		t.Error("JSON mode should report IsJSON only")
	}
}

func TestCompactContext(t *testing.T) {
	ctx := context.Background()
	if IsCompact(ctx) {
		t.Error("compact should default to false")
	}
	if !IsCompact(WithCompact(ctx, true)) {
		t.Error("WithCompact(true) not reflected")
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, map[string]int{"n": 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"n\": 1") {
		t.Errorf("expected indented output, got %q", buf.String())
	}
}

func TestModeString(t *testing.T) {
	if Text.String() != "text" || JSON.String() != "json" || JSONL.String() != "jsonl" {
		t.Error("unexpected Mode.String() values")
	}
}
