package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// MessageFilter narrows a history request. Limit 0 means unbounded.
// Reverse true walks oldest-to-newest from OffsetDate; false walks
// newest-to-oldest.
type MessageFilter struct {
	Limit      int
	Reverse    bool
	OffsetDate time.Time
}

type messagePage struct {
	Messages   []Message `json:"messages"`
	NextCursor string    `json:"next_cursor"`
}

// MessageIterator lazily pages through one chat's history. The gateway
// applies the filter; the iterator additionally enforces the limit so a
// sloppy gateway page boundary cannot overshoot it.
type MessageIterator struct {
	client  *Client
	chatID  int64
	filter  MessageFilter
	buf     []Message
	cursor  string
	yielded int
	done    bool
	err     error
}

// History returns a lazy iterator over a chat's messages. chatID
// SavedDialogID addresses the caller's own saved-messages store.
func (s MessagesService) History(chatID int64, filter MessageFilter) *MessageIterator {
	return &MessageIterator{client: s.Client, chatID: chatID, filter: filter}
}

// Next returns the next message. The second return is false when history is
// exhausted, the limit is reached, or an error occurred.
func (it *MessageIterator) Next(ctx context.Context) (Message, bool, error) {
	if it.err != nil {
		return Message{}, false, it.err
	}
	if it.filter.Limit > 0 && it.yielded >= it.filter.Limit {
		return Message{}, false, nil
	}
	for len(it.buf) == 0 {
		if it.done {
			return Message{}, false, nil
		}
		if err := it.fetch(ctx); err != nil {
			it.err = err
			return Message{}, false, err
		}
	}
	m := it.buf[0]
	it.buf = it.buf[1:]

	// A message without an ID or timestamp cannot be attributed or ordered;
	// treat it as a wire defect and fail the whole retrieval.
	if m.ID == 0 || m.Date.IsZero() {
		it.err = fmt.Errorf("malformed message in chat %d: missing id or date", it.chatID)
		return Message{}, false, it.err
	}

	it.yielded++
	return m, true, nil
}

func (it *MessageIterator) fetch(ctx context.Context) error {
	query := url.Values{}
	if it.filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(it.filter.Limit))
	}
	if it.filter.Reverse {
		query.Set("reverse", "true")
	}
	if !it.filter.OffsetDate.IsZero() {
		query.Set("offset_date", it.filter.OffsetDate.Format(time.RFC3339))
	}
	if it.cursor != "" {
		query.Set("cursor", it.cursor)
	}

	path := chatMessagesPath(it.chatID)
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page messagePage
	if err := it.client.do(ctx, http.MethodGet, it.client.apiPath(path), nil, &page); err != nil {
		return err
	}

	it.buf = append(it.buf, page.Messages...)
	it.cursor = page.NextCursor
	if page.NextCursor == "" {
		it.done = true
	}
	return nil
}

// chatMessagesPath maps SavedDialogID to the gateway's self endpoint.
func chatMessagesPath(chatID int64) string {
	if chatID == SavedDialogID {
		return "/chats/self/messages"
	}
	return fmt.Sprintf("/chats/%d/messages", chatID)
}
