package crawl

import (
	"context"
	"time"

	"github.com/feats/ftg/internal/api"
)

// DialogSeq is a lazy sequence of dialogs.
type DialogSeq interface {
	Next(ctx context.Context) (api.Dialog, bool, error)
}

// MessageSeq is a lazy sequence of messages.
type MessageSeq interface {
	Next(ctx context.Context) (api.Message, bool, error)
}

// Gateway is the slice of the messaging service the pipeline needs:
// the dialog directory, per-chat history, and entity resolution.
type Gateway interface {
	Dialogs() DialogSeq
	Messages(chatID int64, filter api.MessageFilter) MessageSeq
	Entity(ctx context.Context, id int64) (*api.Entity, error)
}

// gatewayClient adapts *api.Client to the Gateway interface.
type gatewayClient struct {
	c *api.Client
}

func (g gatewayClient) Dialogs() DialogSeq {
	return g.c.Dialogs().List()
}

func (g gatewayClient) Messages(chatID int64, filter api.MessageFilter) MessageSeq {
	return g.c.Messages().History(chatID, filter)
}

func (g gatewayClient) Entity(ctx context.Context, id int64) (*api.Entity, error) {
	return g.c.Entities().Get(ctx, id)
}

// Session is the state of one retrieval run. It owns the sender identity
// cache, which is why a Session must not be shared across concurrent
// retrievals; each CLI invocation creates its own.
type Session struct {
	gw      Gateway
	loc     *time.Location
	now     func() time.Time
	senders map[int64]*api.Entity
}

// NewSession creates a Session over a gateway client. Times in retrieved
// records are rendered in loc.
func NewSession(client *api.Client, loc *time.Location) *Session {
	return newSession(gatewayClient{client}, loc, time.Now)
}

func newSession(gw Gateway, loc *time.Location, now func() time.Time) *Session {
	if loc == nil {
		loc = time.Local
	}
	return &Session{
		gw:      gw,
		loc:     loc,
		now:     now,
		senders: make(map[int64]*api.Entity),
	}
}
