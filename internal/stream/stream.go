// Package stream consumes the gateway's live update feed over WebSocket,
// powering follow mode.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/feats/ftg/internal/api"
)

// DefaultPingTimeout is how long we wait without receiving any frame
// (including server pings) before treating the connection as dead.
// The gateway pings every ~5s, so 20s means ~4 missed pings.
var DefaultPingTimeout = 20 * time.Second

// ErrPingTimeout is returned when no frames are received within the ping timeout.
var ErrPingTimeout = errors.New("ping timeout: no frames received")

// maxReadSize caps WebSocket frames at 1 MB. Updates are small JSON;
// anything larger is likely malformed.
const maxReadSize = 1 << 20

// frame is a raw update-feed JSON frame.
type frame struct {
	Type    string          `json:"type,omitempty"`
	Command string          `json:"command,omitempty"`
	ChatIDs []int64         `json:"chat_ids,omitempty"`
	Update  json.RawMessage `json:"update,omitempty"`
	Reason  string          `json:"reason,omitempty"`
}

// Update is one new message pushed by the gateway.
type Update struct {
	ChatID  int64       `json:"chat_id"`
	Message api.Message `json:"message"`
}

// Event is an item received from the feed.
type Event struct {
	Update *Update
	Err    error // non-nil on read error or disconnect
}

// Client is a gateway update-feed client.
type Client struct {
	conn *websocket.Conn
	url  string
}

// FeedURL derives the WebSocket feed URL from the gateway base URL.
func FeedURL(baseURL string) string {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/api/v1/updates/ws"
}

// Connect dials the update feed and waits for the hello frame.
func Connect(ctx context.Context, url, token string) (*Client, error) {
	header := http.Header{}
	if token != "" {
		header.Set("X-Session-Token", token)
	}
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: header,
	})
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	conn.SetReadLimit(maxReadSize)

	_, data, err := conn.Read(ctx)
	if err != nil {
		_ = conn.CloseNow()
		return nil, fmt.Errorf("read hello: %w", err)
	}

	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		_ = conn.CloseNow()
		return nil, fmt.Errorf("parse hello: %w", err)
	}
	if f.Type != "hello" {
		_ = conn.CloseNow()
		return nil, fmt.Errorf("expected hello, got %q (reason: %s)", f.Type, f.Reason)
	}

	return &Client{conn: conn, url: url}, nil
}

// Close gracefully closes the connection.
func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}

// Subscribe narrows the feed to the given chats and waits for confirmation.
// An empty chatIDs slice subscribes to every chat.
func (c *Client) Subscribe(ctx context.Context, chatIDs []int64) error {
	cmd := frame{
		Command: "subscribe",
		ChatIDs: chatIDs,
	}
	data, _ := json.Marshal(cmd)
	if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}

	// Wait for confirm or reject, skipping pings that may arrive in between.
	for {
		_, resp, err := c.conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("read subscription response: %w", err)
		}

		var f frame
		if err := json.Unmarshal(resp, &f); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}

		switch f.Type {
		case "subscribed":
			return nil
		case "rejected":
			return fmt.Errorf("subscription rejected (reason: %s)", f.Reason)
		case "ping":
			continue
		default:
			return fmt.Errorf("unexpected response type: %q", f.Type)
		}
	}
}

// Listen starts the read loop and returns a channel of events.
// Pings are handled silently. The channel closes when the connection
// drops or ctx is cancelled.
//
// A rolling ping timeout detects half-dead connections: if no frame
// (including server pings) arrives within DefaultPingTimeout, the
// connection is treated as dead and an ErrPingTimeout is emitted.
func (c *Client) Listen(ctx context.Context) <-chan Event {
	return c.ListenWithTimeout(ctx, DefaultPingTimeout)
}

// ListenWithTimeout is like Listen but with a configurable ping timeout.
// Use 0 to disable the timeout.
func (c *Client) ListenWithTimeout(ctx context.Context, pingTimeout time.Duration) <-chan Event {
	ch := make(chan Event, 64)
	go func() {
		defer close(ch)
		for {
			readCtx := ctx
			var readCancel context.CancelFunc
			if pingTimeout > 0 {
				readCtx, readCancel = context.WithTimeout(ctx, pingTimeout)
			}

			_, data, err := c.conn.Read(readCtx)

			// Snapshot the deadline state before releasing the read context:
			// cancelling it would turn Err() into context.Canceled and make
			// every read failure look like a timeout.
			timedOut := ctx.Err() == nil && errors.Is(readCtx.Err(), context.DeadlineExceeded)
			if readCancel != nil {
				readCancel()
			}

			if err != nil {
				if timedOut {
					err = ErrPingTimeout
				}
				select {
				case ch <- Event{Err: err}:
				case <-ctx.Done():
				}
				return
			}

			var f frame
			if err := json.Unmarshal(data, &f); err != nil {
				continue // skip malformed frames
			}

			switch {
			case f.Type == "ping":
				continue
			case f.Type == "goodbye":
				select {
				case ch <- Event{Err: fmt.Errorf("disconnect (reason: %s)", f.Reason)}:
				case <-ctx.Done():
				}
				return
			case f.Type == "subscribed", f.Type == "rejected":
				continue
			case len(f.Update) > 0:
				var u Update
				if err := json.Unmarshal(f.Update, &u); err != nil {
					continue
				}
				select {
				case ch <- Event{Update: &u}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch
}
