package domain

import "time"

// Event is the record flowing through the ingestion pipeline. It starts as a
// raw fetched message, has translation and enrichment fields filled in place,
// and is finally persisted with an ID and CreatedAt. An empty string in any
// enrichment field means "unknown".
type Event struct {
	ID                string     `json:"id"`
	ExternalMessageID int64      `json:"external_message_id,omitempty"`
	Source            string     `json:"source"`
	Channel           string     `json:"channel,omitempty"`
	Orientation       string     `json:"orientation,omitempty"`
	RawText           string     `json:"raw_text"`
	TranslatedText    string     `json:"translated_text,omitempty"`
	Country           string     `json:"country,omitempty"`
	Region            string     `json:"region,omitempty"`
	Location          string     `json:"location,omitempty"`
	Title             string     `json:"title,omitempty"`
	EventTimestamp    *time.Time `json:"event_timestamp,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Text returns the best available text for an event: the translation when
// present, the raw message otherwise.
func (e *Event) Text() string {
	if e.TranslatedText != "" {
		return e.TranslatedText
	}
	return e.RawText
}

// MessageKey identifies a message within its channel. (Channel,
// ExternalMessageID) is unique among stored events when both are present and
// guards against re-ingesting messages already stored.
type MessageKey struct {
	Channel           string
	ExternalMessageID int64
}

// Key returns the event's message key, or false when either part is absent.
func (e *Event) Key() (MessageKey, bool) {
	if e.Channel == "" || e.ExternalMessageID == 0 {
		return MessageKey{}, false
	}
	return MessageKey{Channel: e.Channel, ExternalMessageID: e.ExternalMessageID}, true
}
