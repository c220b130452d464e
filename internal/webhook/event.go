package webhook

import "time"

// Kind tags a normalized webhook event.
type Kind string

const (
	KindFeedPost    Kind = "feed-post"
	KindFeedComment Kind = "feed-comment"
	KindMention     Kind = "mention"
	KindMessage     Kind = "message"
)

// Event is one typed, timestamp-resolved event extracted from a webhook
// delivery. Exactly one of the payload pointers matching Kind is set.
type Event struct {
	Kind   Kind
	PageID string
	Time   time.Time

	Post    *PostEvent
	Comment *CommentEvent
	Mention *MentionEvent
	Message *MessageEvent
}

// PostEvent is a new or updated feed post.
type PostEvent struct {
	ID        string
	Message   *string
	FromID    *string
	FromName  *string
	Verb      string
	Published bool
}

// CommentEvent is a new comment on a feed post. ParentID is nil for
// top-level comments. PostUpdatedTime, when present, carries the enclosing
// post's timestamp for stubbing a missing parent post.
type CommentEvent struct {
	ID              string
	PostID          string
	ParentID        *string
	FromID          string
	FromName        string
	Text            string
	Verb            string
	PostUpdatedTime *time.Time
}

// MentionEvent is a mention of the page in someone's post.
type MentionEvent struct {
	PostID     string
	SenderID   string
	SenderName string
	Verb       string
}

// MessageEvent is a direct message to the page inbox.
type MessageEvent struct {
	ID          string
	ThreadID    string
	SenderID    string
	RecipientID string
	Text        string
	Verb        string
}
