package outfmt

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestWithQuery(t *testing.T) {
	ctx := WithQuery(context.Background(), ".name")
	if GetQuery(ctx) != ".name" {
		t.Error("GetQuery should return the query set with WithQuery")
	}
}

func TestGetQuery_EmptyByDefault(t *testing.T) {
	if GetQuery(context.Background()) != "" {
		t.Error("GetQuery should return empty string by default")
	}
}

func TestWriteJSONFiltered_EmptyQuery(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSONFiltered(&buf, map[string]string{"name": "alice"}, "", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `"name": "alice"`) {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestWriteJSONFiltered_WithQuery(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSONFiltered(&buf, map[string]string{"name": "alice"}, ".name", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != `"alice"` {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestWriteJSONFiltered_InvalidQuery(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSONFiltered(&buf, map[string]string{}, "invalid[[[", false); err == nil {
		t.Error("expected error for invalid query")
	}
}

func TestWriteJSONFiltered_Compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSONFiltered(&buf, map[string]string{"a": "b"}, "", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != `{"a":"b"}` {
		t.Errorf("expected compact output, got: %s", buf.String())
	}
}

func TestWriteJSONFiltered_DataEnvelopeFallback(t *testing.T) {
	var buf bytes.Buffer
	v := map[string]any{
		"meta": map[string]any{"count": 1},
		"data": []any{map[string]any{"text": "hi"}},
	}
	if err := WriteJSONFiltered(&buf, v, ".[].text", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != `"hi"` {
		t.Errorf("unexpected output: %s", buf.String())
	}
}
