package webhook

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// graphTimeLayout is the Graph API's ISO variant: the zone offset has no
// colon ("2025-05-12T09:41:23+0000").
const graphTimeLayout = "2006-01-02T15:04:05-0700"

// epochSeconds decodes a unix timestamp that the platform delivers either as
// a JSON number or as a string of digits. Zero means absent.
type epochSeconds int64

func (e *epochSeconds) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*e = 0
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		// Tolerate garbage: an unparseable timestamp degrades to absent,
		// resolution falls through to the entry time.
		*e = 0
		return nil
	}
	*e = epochSeconds(n)
	return nil
}

// looseBool decodes a flag the platform delivers as a bool, a number or a
// quoted number. Anything unrecognized is false.
type looseBool bool

func (b *looseBool) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	if s == "true" {
		*b = true
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	*b = err == nil && n != 0
	return nil
}

// Payload mirrors the raw webhook delivery: entries, each with field-tagged
// changes. Unknown fields are ignored.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string       `json:"id"`
	Time    epochSeconds `json:"time"`
	Changes []Change     `json:"changes"`
}

// Change carries its value as raw JSON: each value is decoded on its own in
// Normalize, so a type-skewed field in one change can never abort the whole
// delivery and lose its siblings.
type Change struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

// Value is the union of all change payloads the platform sends for the
// fields we subscribe to. Absent members stay at their zero value.
type Value struct {
	Item        string       `json:"item"`
	Verb        string       `json:"verb"`
	CreatedTime epochSeconds `json:"created_time"`

	// feed (item=status / item=comment)
	PostID    string    `json:"post_id"`
	CommentID string    `json:"comment_id"`
	ParentID  string    `json:"parent_id"`
	Message   string    `json:"message"`
	Published looseBool `json:"published"`
	From      From      `json:"from"`
	Post      ValuePost `json:"post"`

	// mention
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`

	// messages
	MessageID   string `json:"message_id"`
	Mid         string `json:"mid"`
	ThreadID    string `json:"thread_id"`
	RecipientID string `json:"recipient_id"`
	Text        string `json:"text"`
}

type From struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ValuePost struct {
	StatusType  string `json:"status_type"`
	UpdatedTime string `json:"updated_time"`
}

// ParsePayload decodes a raw webhook body.
func ParsePayload(body []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Normalize turns a payload into typed events. It is a pure transform: a
// malformed change produces no event and never affects its siblings, and
// every produced event carries a resolved UTC timestamp (change
// created_time, else entry time, else now).
func Normalize(p *Payload, now time.Time) []Event {
	var events []Event
	for _, entry := range p.Entry {
		if entry.ID == "" {
			continue
		}
		for _, change := range entry.Changes {
			ev, ok := normalizeChange(entry, change, now)
			if !ok {
				continue
			}
			events = append(events, ev)
		}
	}
	return events
}

func normalizeChange(entry Entry, change Change, now time.Time) (Event, bool) {
	var v Value
	if len(change.Value) == 0 || json.Unmarshal(change.Value, &v) != nil {
		return Event{}, false
	}

	ev := Event{
		PageID: entry.ID,
		Time:   resolveTime(v.CreatedTime, entry.Time, now),
	}

	switch change.Field {
	case "feed":
		switch v.Item {
		case "status":
			if v.PostID == "" {
				return Event{}, false
			}
			ev.Kind = KindFeedPost
			ev.Post = &PostEvent{
				ID:        v.PostID,
				Message:   optional(v.Message),
				FromID:    optional(v.From.ID),
				FromName:  optional(v.From.Name),
				Verb:      v.Verb,
				Published: bool(v.Published),
			}
		case "comment":
			if v.CommentID == "" || v.PostID == "" {
				return Event{}, false
			}
			ev.Kind = KindFeedComment
			ev.Comment = &CommentEvent{
				ID:              v.CommentID,
				PostID:          v.PostID,
				ParentID:        optional(v.ParentID),
				FromID:          v.From.ID,
				FromName:        v.From.Name,
				Text:            v.Message,
				Verb:            v.Verb,
				PostUpdatedTime: parseGraphTime(v.Post.UpdatedTime),
			}
		default:
			// Likes, reactions, shares: not ingested.
			return Event{}, false
		}
	case "mention":
		senderID, senderName := v.From.ID, v.From.Name
		if senderID == "" {
			senderID, senderName = v.SenderID, v.SenderName
		}
		if senderID == "" || senderName == "" {
			return Event{}, false
		}
		ev.Kind = KindMention
		ev.Mention = &MentionEvent{
			PostID:     v.PostID,
			SenderID:   senderID,
			SenderName: senderName,
			Verb:       v.Verb,
		}
	case "messages":
		id := v.MessageID
		if id == "" {
			id = v.Mid
		}
		text := v.Message
		if text == "" {
			text = v.Text
		}
		ev.Kind = KindMessage
		ev.Message = &MessageEvent{
			ID:          id,
			ThreadID:    v.ThreadID,
			SenderID:    v.SenderID,
			RecipientID: v.RecipientID,
			Text:        text,
			Verb:        v.Verb,
		}
	default:
		return Event{}, false
	}

	return ev, true
}

func resolveTime(changeTime, entryTime epochSeconds, now time.Time) time.Time {
	if changeTime > 0 {
		return time.Unix(int64(changeTime), 0).UTC()
	}
	if entryTime > 0 {
		return time.Unix(int64(entryTime), 0).UTC()
	}
	return now.UTC()
}

func parseGraphTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(graphTimeLayout, s)
	if err != nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
