package outline

import (
	"strings"
	"testing"
	"time"

	"github.com/feats/ftg/internal/crawl"
)

func rec(day, hour, min int, sender, text string) crawl.Record {
	return crawl.Record{
		DateSent: crawl.Timestamp{Time: time.Date(2026, 3, day, hour, min, 0, 0, time.UTC)},
		Sender:   sender,
		Text:     text,
		IsPartOf: crawl.Conversation{Headline: "Work Chat"},
	}
}

func TestWrite_GroupsByDateSenderMinute(t *testing.T) {
	records := []crawl.Record{
		rec(2, 9, 30, "Alice", "hello"),
		rec(2, 9, 30, "Alice", "still there?"),
		rec(2, 9, 31, "Bob", "yes"),
	}

	var buf strings.Builder
	if err := Write(&buf, records, Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := strings.Join([]string{
		"- **09:30** [[Monday, 02.03.2026]] Telegram: Work Chat",
		"  - **09:30** *Alice*: hello",
		"still there?",
		"  - **09:31** *Bob*: yes",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWrite_SenderRunDropsRepeatedName(t *testing.T) {
	records := []crawl.Record{
		rec(2, 9, 30, "Alice", "one"),
		rec(2, 9, 45, "Alice", "two"),
	}

	var buf strings.Builder
	if err := Write(&buf, records, Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if strings.Count(out, "*Alice*") != 1 {
		t.Fatalf("expected sender printed once, got:\n%s", out)
	}
	if !strings.Contains(out, "  - **09:45** two") {
		t.Fatalf("expected bare time line for repeat sender, got:\n%s", out)
	}
}

func TestWrite_NewDateStartsNewBlock(t *testing.T) {
	records := []crawl.Record{
		rec(2, 9, 30, "Alice", "monday message"),
		rec(3, 10, 0, "Alice", "tuesday message"),
	}

	var buf strings.Builder
	if err := Write(&buf, records, Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if strings.Count(out, "Telegram: Work Chat") != 2 {
		t.Fatalf("expected two date headers, got:\n%s", out)
	}
	if !strings.Contains(out, "[[Tuesday, 03.03.2026]]") {
		t.Fatalf("expected second date header, got:\n%s", out)
	}
}

func TestWrite_Collapsed(t *testing.T) {
	records := []crawl.Record{
		rec(2, 9, 30, "Alice", "hello"),
		rec(3, 9, 30, "Alice", "again"),
	}

	var buf strings.Builder
	if err := Write(&buf, records, Options{Collapsed: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Count(buf.String(), "  collapsed:: true\n") != 2 {
		t.Fatalf("expected collapsed property per day block, got:\n%s", buf.String())
	}
}

func TestWrite_Empty(t *testing.T) {
	var buf strings.Builder
	if err := Write(&buf, nil, Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "" {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}
