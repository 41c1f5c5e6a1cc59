// Package crawl implements the message retrieval pipeline: resolving
// conversations by partial name, walking their histories under the
// limit/start-date policy, and shaping messages into export records.
package crawl

import "time"

// Timestamp marshals as RFC 3339 at second granularity. The service's
// sub-second precision is noise for exports and is dropped.
type Timestamp struct {
	time.Time
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Truncate(time.Second).Format(time.RFC3339) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	parsed, err := time.Parse(`"`+time.RFC3339+`"`, string(data))
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// Conversation names the chat a record belongs to (schema.org Conversation).
type Conversation struct {
	Headline string `json:"headline"`
}

// Record is one retrieved message shaped for export, using schema.org
// Message vocabulary. Fields are declared in alphabetical JSON-key order
// so encoders emit stable, sorted keys.
type Record struct {
	DatePublished *Timestamp   `json:"datePublished,omitempty"`
	DateSent      Timestamp    `json:"dateSent"`
	Identifier    string       `json:"identifier"`
	IsPartOf      Conversation `json:"isPartOf"`
	Sender        string       `json:"sender"`
	Text          string       `json:"text"`
	URL           string       `json:"url,omitempty"`
}

// Meta describes the retrieval that produced a batch of records.
type Meta struct {
	ChatNames       []string   `json:"chatNames"`
	Count           int        `json:"count"`
	Limit           int        `json:"limit"`
	ParsedStartDate *Timestamp `json:"parsedStartDate,omitempty"`
	Saved           bool       `json:"saved"`
	StartDate       string     `json:"startDate,omitempty"`
	TZ              string     `json:"tz"`
}
