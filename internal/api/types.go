package api

import "time"

// SavedDialogID is the pseudo-dialog ID for the user's own saved-messages
// store. The gateway resolves it server-side; no directory lookup is needed.
const SavedDialogID int64 = 0

// Dialog is one entry of the account's conversation directory.
type Dialog struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Message is a single message as the gateway delivers it.
type Message struct {
	ID       int64        `json:"id"`
	Text     string       `json:"text"`
	Date     time.Time    `json:"date"`
	SenderID int64        `json:"sender_id"`
	Fwd      *Forward     `json:"fwd,omitempty"`
	Preview  *LinkPreview `json:"preview,omitempty"`
}

// Forward describes the origin of a forwarded message. FromUser and
// FromChannel are mutually exclusive; ChannelPost is the message ID in the
// origin channel, when known.
type Forward struct {
	FromUser    int64     `json:"from_user,omitempty"`
	FromChannel int64     `json:"from_channel,omitempty"`
	ChannelPost int64     `json:"channel_post,omitempty"`
	Date        time.Time `json:"date"`
}

// LinkPreview is the web-page preview the service attached to a message.
type LinkPreview struct {
	SiteName    string `json:"site_name"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Entity is a resolved user, chat, or channel identity.
type Entity struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}
