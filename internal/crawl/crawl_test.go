package crawl

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/feats/ftg/internal/api"
)

type sliceDialogSeq struct {
	items []api.Dialog
	pos   int
}

func (s *sliceDialogSeq) Next(ctx context.Context) (api.Dialog, bool, error) {
	if s.pos >= len(s.items) {
		return api.Dialog{}, false, nil
	}
	d := s.items[s.pos]
	s.pos++
	return d, true, nil
}

type sliceMessageSeq struct {
	items []api.Message
	pos   int
}

func (s *sliceMessageSeq) Next(ctx context.Context) (api.Message, bool, error) {
	if s.pos >= len(s.items) {
		return api.Message{}, false, nil
	}
	m := s.items[s.pos]
	s.pos++
	return m, true, nil
}

// fakeGateway serves canned data and mimics the service's walk order:
// messages are stored oldest-first, a backward walk serves them
// newest-first, a forward walk serves them from the offset date onward.
type fakeGateway struct {
	dialogs  []api.Dialog
	messages map[int64][]api.Message
	entities map[int64]*api.Entity

	dialogCalls int
	entityCalls map[int64]int
	lastFilter  map[int64]api.MessageFilter
}

func (g *fakeGateway) Dialogs() DialogSeq {
	g.dialogCalls++
	return &sliceDialogSeq{items: g.dialogs}
}

func (g *fakeGateway) Messages(chatID int64, filter api.MessageFilter) MessageSeq {
	if g.lastFilter == nil {
		g.lastFilter = make(map[int64]api.MessageFilter)
	}
	g.lastFilter[chatID] = filter

	stored := g.messages[chatID]
	var out []api.Message
	if filter.Reverse {
		for _, m := range stored {
			if !filter.OffsetDate.IsZero() && m.Date.Before(filter.OffsetDate) {
				continue
			}
			out = append(out, m)
		}
	} else {
		for i := len(stored) - 1; i >= 0; i-- {
			out = append(out, stored[i])
		}
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return &sliceMessageSeq{items: out}
}

func (g *fakeGateway) Entity(ctx context.Context, id int64) (*api.Entity, error) {
	if g.entityCalls == nil {
		g.entityCalls = make(map[int64]int)
	}
	g.entityCalls[id]++
	if ent, ok := g.entities[id]; ok {
		return ent, nil
	}
	return &api.Entity{ID: id, FirstName: "User", LastName: strconv.FormatInt(id, 10)}, nil
}

func testTime(day, hour, min int) time.Time {
	return time.Date(2026, 3, day, hour, min, 0, 0, time.UTC)
}

func newTestGateway() *fakeGateway {
	return &fakeGateway{
		dialogs: []api.Dialog{
			{ID: 1, Name: "Work Chat"},
			{ID: 2, Name: "Family"},
			{ID: 3, Name: "Work Announcements"},
		},
		messages: map[int64][]api.Message{
			1: {
				{ID: 11, Text: "first", Date: testTime(1, 9, 0), SenderID: 100},
				{ID: 12, Text: "second", Date: testTime(1, 9, 1), SenderID: 100},
				{ID: 13, Text: "third", Date: testTime(2, 10, 0), SenderID: 101},
			},
		},
		entities: map[int64]*api.Entity{
			100: {ID: 100, FirstName: "Alice", LastName: "Smith"},
			101: {ID: 101, FirstName: "Bob"},
			500: {ID: 500, Title: "News Channel", Username: "newschan"},
		},
	}
}

func newTestSession(gw Gateway) *Session {
	now := func() time.Time { return testTime(10, 12, 0) }
	return newSession(gw, time.UTC, now)
}

func TestResolveChats(t *testing.T) {
	gw := newTestGateway()
	s := newTestSession(gw)

	tests := []struct {
		name  string
		input []string
		want  []int64
	}{
		{
			name:  "substring case insensitive",
			input: []string{"work"},
			want:  []int64{1, 3},
		},
		{
			name:  "no filters returns all",
			input: nil,
			want:  []int64{1, 2, 3},
		},
		{
			name:  "overlapping filters duplicate",
			input: []string{"work", "chat"},
			want:  []int64{1, 1, 3},
		},
		{
			name:  "no match is empty not error",
			input: []string{"zzz"},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ResolveChats(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d dialogs, got %d", len(tt.want), len(got))
			}
			for i, d := range got {
				if d.ID != tt.want[i] {
					t.Fatalf("dialog %d: expected ID %d, got %d", i, tt.want[i], d.ID)
				}
			}
		})
	}
}

func TestRetrieve_DefaultPolicy(t *testing.T) {
	gw := newTestGateway()
	s := newTestSession(gw)

	records, meta, err := s.Retrieve(context.Background(), Options{ChatNames: []string{"work chat"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if meta.Limit != DefaultLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultLimit, meta.Limit)
	}
	if f := gw.lastFilter[1]; f.Reverse || f.Limit != DefaultLimit {
		t.Fatalf("unexpected filter: %+v", f)
	}

	// The backward walk yields newest-first; the result must read
	// oldest-first after the final reversal.
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, want := range []string{"first", "second", "third"} {
		if records[i].Text != want {
			t.Fatalf("record %d: expected %q, got %q", i, want, records[i].Text)
		}
	}
	if meta.Count != 3 {
		t.Fatalf("expected count 3, got %d", meta.Count)
	}
}

func TestRetrieve_StartDate(t *testing.T) {
	gw := newTestGateway()
	s := newTestSession(gw)

	records, meta, err := s.Retrieve(context.Background(), Options{
		ChatNames: []string{"work chat"},
		StartDate: "2026-03-02",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f := gw.lastFilter[1]
	if !f.Reverse {
		t.Fatal("expected a forward walk with a start date")
	}
	if f.Limit != 0 {
		t.Fatalf("expected unbounded limit, got %d", f.Limit)
	}
	want := testTime(2, 0, 0)
	if !f.OffsetDate.Equal(want) {
		t.Fatalf("expected offset %s, got %s", want, f.OffsetDate)
	}

	if len(records) != 1 || records[0].Text != "third" {
		t.Fatalf("unexpected records: %+v", records)
	}
	if meta.ParsedStartDate == nil || !meta.ParsedStartDate.Equal(want) {
		t.Fatalf("unexpected parsed start date: %+v", meta.ParsedStartDate)
	}
	if meta.StartDate != "2026-03-02" {
		t.Fatalf("expected raw start date preserved, got %q", meta.StartDate)
	}
}

func TestRetrieve_StartDateKeepsExplicitLimit(t *testing.T) {
	gw := newTestGateway()
	s := newTestSession(gw)

	records, _, err := s.Retrieve(context.Background(), Options{
		ChatNames: []string{"work chat"},
		StartDate: "2026-03-01",
		Limit:     2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	// Forward walk: oldest two, no final reversal.
	if records[0].Text != "first" || records[1].Text != "second" {
		t.Fatalf("unexpected order: %q, %q", records[0].Text, records[1].Text)
	}
}

func TestRetrieve_InvalidStartDate(t *testing.T) {
	s := newTestSession(newTestGateway())

	_, _, err := s.Retrieve(context.Background(), Options{
		ChatNames: []string{"work"},
		StartDate: "not a date at all",
	})
	if err == nil {
		t.Fatal("expected error for invalid start date")
	}
}

func TestRetrieve_SavedSkipsDirectory(t *testing.T) {
	gw := newTestGateway()
	gw.messages[api.SavedDialogID] = []api.Message{
		{ID: 21, Text: "note to self", Date: testTime(5, 8, 0), SenderID: 100},
	}
	s := newTestSession(gw)

	records, meta, err := s.Retrieve(context.Background(), Options{Saved: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gw.dialogCalls != 0 {
		t.Fatalf("expected zero directory calls, got %d", gw.dialogCalls)
	}
	if len(records) != 1 || records[0].IsPartOf.Headline != SavedChatName {
		t.Fatalf("unexpected records: %+v", records)
	}
	if !meta.Saved {
		t.Fatal("expected saved meta flag")
	}
}

func TestRetrieve_SenderMemoized(t *testing.T) {
	gw := newTestGateway()
	s := newTestSession(gw)

	records, _, err := s.Retrieve(context.Background(), Options{ChatNames: []string{"work chat"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gw.entityCalls[100] != 1 {
		t.Fatalf("expected one lookup for sender 100, got %d", gw.entityCalls[100])
	}
	if gw.entityCalls[101] != 1 {
		t.Fatalf("expected one lookup for sender 101, got %d", gw.entityCalls[101])
	}

	if records[0].Sender != "Alice Smith" {
		t.Fatalf("expected full name, got %q", records[0].Sender)
	}
	if records[2].Sender != "Bob" {
		t.Fatalf("expected trimmed single name, got %q", records[2].Sender)
	}
}

func TestRetrieve_ForwardAttribution(t *testing.T) {
	gw := newTestGateway()
	origin := testTime(1, 7, 30)
	gw.messages[2] = []api.Message{
		{
			ID: 31, Text: "forwarded news", Date: testTime(3, 11, 0), SenderID: 100,
			Fwd: &api.Forward{FromChannel: 500, ChannelPost: 777, Date: origin},
		},
		{
			ID: 32, Text: "forwarded from a person", Date: testTime(3, 11, 5), SenderID: 100,
			Fwd: &api.Forward{FromUser: 101, Date: origin},
		},
	}
	s := newTestSession(gw)

	records, _, err := s.Retrieve(context.Background(), Options{ChatNames: []string{"family"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	channel := records[0]
	if channel.Sender != "News Channel" {
		t.Fatalf("expected channel attribution, got %q", channel.Sender)
	}
	if channel.Identifier != "777" {
		t.Fatalf("expected origin post identifier, got %q", channel.Identifier)
	}
	if channel.URL != "https://t.me/newschan/777" {
		t.Fatalf("unexpected URL: %q", channel.URL)
	}
	if channel.DatePublished == nil || !channel.DatePublished.Equal(origin) {
		t.Fatalf("unexpected datePublished: %+v", channel.DatePublished)
	}

	user := records[1]
	if user.Sender != "Bob" {
		t.Fatalf("expected origin user attribution, got %q", user.Sender)
	}
	if user.Identifier != "32" {
		t.Fatalf("expected own identifier, got %q", user.Identifier)
	}
	if user.URL != "" {
		t.Fatalf("expected no URL for user forward, got %q", user.URL)
	}

	// The direct sender never had to be resolved; attribution replaced it.
	if gw.entityCalls[100] != 0 {
		t.Fatalf("expected no lookup for direct sender, got %d", gw.entityCalls[100])
	}
}

func TestRetrieve_LinkPreviewAppended(t *testing.T) {
	gw := newTestGateway()
	gw.messages[2] = []api.Message{
		{
			ID: 41, Text: "look at this", Date: testTime(4, 9, 0), SenderID: 101,
			Preview: &api.LinkPreview{SiteName: "Example", Title: "A Page", Description: "About things."},
		},
	}
	s := newTestSession(gw)

	records, _, err := s.Retrieve(context.Background(), Options{ChatNames: []string{"family"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "look at this\nExample: A Page\nAbout things."
	if records[0].Text != want {
		t.Fatalf("expected %q, got %q", want, records[0].Text)
	}
}

func TestRetrieve_ChatsStayContiguous(t *testing.T) {
	gw := newTestGateway()
	gw.messages[3] = []api.Message{
		{ID: 51, Text: "announce one", Date: testTime(1, 8, 0), SenderID: 101},
		{ID: 52, Text: "announce two", Date: testTime(3, 8, 0), SenderID: 101},
	}
	s := newTestSession(gw)

	records, _, err := s.Retrieve(context.Background(), Options{ChatNames: []string{"work"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Resolver order is directory order: Work Chat then Work Announcements.
	// After the final reversal each chat's block stays contiguous but the
	// blocks swap, matching a single backward walk flipped wholesale.
	got := make([]string, len(records))
	for i, r := range records {
		got[i] = r.Text
	}
	want := []string{"announce one", "announce two", "first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("record %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
