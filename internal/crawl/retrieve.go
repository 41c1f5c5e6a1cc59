package crawl

import (
	"context"
	"fmt"
	"strconv"

	"github.com/feats/ftg/internal/api"
	"github.com/feats/ftg/internal/dates"
)

// DefaultLimit is the number of messages retrieved per chat when no start
// date narrows the window.
const DefaultLimit = 10

// SavedChatName is the headline used for the user's own saved-messages store.
const SavedChatName = "Saved Messages"

// Options select which messages Retrieve fetches. Limit 0 with a StartDate
// means unbounded; without one the limit defaults to DefaultLimit.
type Options struct {
	ChatNames []string
	Limit     int
	StartDate string
	Saved     bool
}

// Retrieve fetches message history for every chat matching opts, in
// resolver order, one chat fully consumed before the next. With a start
// date the service walks forward from it (oldest first) and the given
// limit is kept as-is; without one it walks backward from now with the
// default limit. The final sequence always reads oldest-first, so the
// backward walk is reversed wholesale at the end. Records are never
// re-sorted: within a chat the service order survives, and chats never
// interleave.
func (s *Session) Retrieve(ctx context.Context, opts Options) ([]Record, Meta, error) {
	limit := opts.Limit
	reverse := false
	filter := api.MessageFilter{}

	var parsedStart *Timestamp
	if opts.StartDate != "" {
		start, err := dates.Parse(dates.Normalize(opts.StartDate), s.now().In(s.loc))
		if err != nil {
			return nil, Meta{}, fmt.Errorf("invalid start date %q: %w", opts.StartDate, err)
		}
		reverse = true
		filter.OffsetDate = start
		parsedStart = &Timestamp{start}
	} else if limit == 0 {
		limit = DefaultLimit
	}
	filter.Limit = limit
	filter.Reverse = reverse

	dialogs, err := s.targetDialogs(ctx, opts)
	if err != nil {
		return nil, Meta{}, err
	}

	var records []Record
	for _, d := range dialogs {
		it := s.gw.Messages(d.ID, filter)
		for {
			m, ok, err := it.Next(ctx)
			if err != nil {
				return nil, Meta{}, err
			}
			if !ok {
				break
			}
			rec, err := s.record(ctx, d, m)
			if err != nil {
				return nil, Meta{}, err
			}
			records = append(records, rec)
		}
	}

	// The backward walk yields newest-first; flip it so exports always
	// read top to bottom in time.
	if !reverse {
		for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
			records[i], records[j] = records[j], records[i]
		}
	}

	zone, _ := s.now().In(s.loc).Zone()
	meta := Meta{
		ChatNames:       opts.ChatNames,
		Count:           len(records),
		Limit:           limit,
		ParsedStartDate: parsedStart,
		Saved:           opts.Saved,
		StartDate:       opts.StartDate,
		TZ:              zone,
	}
	return records, meta, nil
}

// targetDialogs picks the chats to crawl. Saved mode addresses the self
// store directly and never touches the dialog directory.
func (s *Session) targetDialogs(ctx context.Context, opts Options) ([]api.Dialog, error) {
	if opts.Saved {
		return []api.Dialog{{ID: api.SavedDialogID, Name: SavedChatName}}, nil
	}
	return s.ResolveChats(ctx, opts.ChatNames)
}

// Render shapes a live message from chat d the same way Retrieve shapes
// historical ones, sharing the session's sender cache. Used by follow mode.
func (s *Session) Render(ctx context.Context, d api.Dialog, m api.Message) (Record, error) {
	return s.record(ctx, d, m)
}

// record shapes one wire message into an export record. Entity lookups
// happen here, inline, in iteration order, through the session cache.
func (s *Session) record(ctx context.Context, d api.Dialog, m api.Message) (Record, error) {
	ent, err := s.entity(ctx, senderKey(m))
	if err != nil {
		return Record{}, err
	}

	text := m.Text
	if m.Preview != nil {
		text += "\n" + m.Preview.SiteName + ": " + m.Preview.Title + "\n" + m.Preview.Description
	}

	identifier := strconv.FormatInt(m.ID, 10)
	var url string
	var published *Timestamp
	if m.Fwd != nil {
		if m.Fwd.ChannelPost != 0 {
			identifier = strconv.FormatInt(m.Fwd.ChannelPost, 10)
			if m.Fwd.FromChannel != 0 && ent.Username != "" {
				url = fmt.Sprintf("https://t.me/%s/%d", ent.Username, m.Fwd.ChannelPost)
			}
		}
		if !m.Fwd.Date.IsZero() {
			published = &Timestamp{m.Fwd.Date.In(s.loc)}
		}
	}

	return Record{
		DateSent:      Timestamp{m.Date.In(s.loc)},
		DatePublished: published,
		Identifier:    identifier,
		IsPartOf:      Conversation{Headline: d.Name},
		Sender:        displayName(ent),
		Text:          text,
		URL:           url,
	}, nil
}
