package crawl

import (
	"context"
	"strings"

	"github.com/feats/ftg/internal/api"
)

// senderKey picks the identity a message should be attributed to. Forwarded
// messages carry their origin: the source channel when present, else the
// source user. Everything else is attributed to the direct sender.
func senderKey(m api.Message) int64 {
	if m.Fwd != nil {
		if m.Fwd.FromChannel != 0 {
			return m.Fwd.FromChannel
		}
		if m.Fwd.FromUser != 0 {
			return m.Fwd.FromUser
		}
	}
	return m.SenderID
}

// entity resolves an identity through the session cache. Each distinct key
// costs exactly one gateway lookup per session; repeats are free.
func (s *Session) entity(ctx context.Context, key int64) (*api.Entity, error) {
	if ent, ok := s.senders[key]; ok {
		return ent, nil
	}
	ent, err := s.gw.Entity(ctx, key)
	if err != nil {
		return nil, err
	}
	s.senders[key] = ent
	return ent, nil
}

// displayName renders an entity for export: the title for chats and
// channels, "first last" for users.
func displayName(ent *api.Entity) string {
	if ent == nil {
		return ""
	}
	if ent.Title != "" {
		return ent.Title
	}
	return strings.TrimSpace(ent.FirstName + " " + ent.LastName)
}
