package domain

import (
	"strings"
	"time"
)

// Sentiment is the classifier's label for a comment.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// ParseSentiment normalizes a raw classifier label. Anything that is not a
// known label (including an empty string) becomes neutral.
func ParseSentiment(label string) Sentiment {
	switch Sentiment(strings.ToLower(strings.TrimSpace(label))) {
	case SentimentPositive:
		return SentimentPositive
	case SentimentNegative:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// Status is the moderation state of a comment.
type Status string

const (
	StatusApproved      Status = "approved"
	StatusPendingReview Status = "pending_review"
	StatusRejected      Status = "rejected"
)

// PlatformFacebook is the only platform currently ingested.
const PlatformFacebook = "facebook"

// Page holds the per-Page auto-reply policy. Rows are seeded lazily on the
// first webhook event that references the page and are never deleted.
type Page struct {
	ID                string    `json:"id" gorm:"type:varchar(64);primary_key"`
	AutoReplyEnabled  bool      `json:"autoReplyEnabled" gorm:"not null;default:true"`
	AutoReplyNegative bool      `json:"autoReplyNegative" gorm:"not null;default:false"`
	CreatedAt         time.Time `json:"createdAt" gorm:"not null"`
}

// PageToken stores the long-lived access token a tenant installed for a page.
// Unlike every other table this one is last-write-wins on conflict.
type PageToken struct {
	PageID      string    `json:"pageId" gorm:"type:varchar(64);primary_key"`
	TenantID    string    `json:"tenantId" gorm:"type:varchar(64);index"`
	PageName    string    `json:"pageName" gorm:"type:varchar(255)"`
	AccessToken string    `json:"-" gorm:"type:text;not null"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Tenant is an authenticated dashboard user, keyed by the identity
// provider's subject claim.
type Tenant struct {
	ID        string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    string    `json:"userId" gorm:"type:varchar(255);uniqueIndex;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
}

// Post is a feed post on a page. It may exist as a stub (only ID, PageID and
// CreatedAt known) when a comment event outruns its post event; a later real
// post event is inserted conflict-ignore and never overwrites the stub.
type Post struct {
	ID        string    `json:"id" gorm:"type:varchar(128);primary_key"`
	PageID    string    `json:"pageId" gorm:"type:varchar(64);not null;index"`
	Message   *string   `json:"message,omitempty" gorm:"type:text"`
	FromID    *string   `json:"fromId,omitempty" gorm:"type:varchar(64)"`
	FromName  *string   `json:"fromName,omitempty" gorm:"type:varchar(255)"`
	Verb      string    `json:"verb" gorm:"type:varchar(32)"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
}

// Comment is a comment on a post, together with its moderation state.
// ParentID is nil for top-level comments; if set it always references an
// existing comment at commit time (broken references are repaired to nil
// before insert).
type Comment struct {
	ID        string    `json:"id" gorm:"type:varchar(128);primary_key"`
	PageID    string    `json:"pageId" gorm:"type:varchar(64);not null;index"`
	PostID    string    `json:"postId" gorm:"type:varchar(128);not null;index"`
	ParentID  *string   `json:"parentId,omitempty" gorm:"type:varchar(128);index"`
	UserID    string    `json:"userId" gorm:"type:varchar(64);not null"`
	UserName  string    `json:"userName" gorm:"type:varchar(255)"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	Platform  string    `json:"platform" gorm:"type:varchar(32);not null;default:facebook"`
	Verb      string    `json:"verb" gorm:"type:varchar(32)"`
	Sentiment Sentiment `json:"sentiment" gorm:"type:varchar(16);not null"`
	Status    Status    `json:"status" gorm:"type:varchar(32);not null;index"`
	Replied   bool      `json:"replied" gorm:"not null;default:false"`
	ReplyID   *string   `json:"replyId,omitempty" gorm:"type:varchar(128)"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
}

// Mention records that the page was mentioned in a post. Append-only; the ID
// is synthesized from the post, sender and timestamp to make redelivery a no-op.
type Mention struct {
	ID         string    `json:"id" gorm:"type:varchar(255);primary_key"`
	PostID     string    `json:"postId" gorm:"type:varchar(128)"`
	SenderID   string    `json:"senderId" gorm:"type:varchar(64);not null"`
	SenderName string    `json:"senderName" gorm:"type:varchar(255);not null"`
	Verb       string    `json:"verb" gorm:"type:varchar(32)"`
	CreatedAt  time.Time `json:"createdAt" gorm:"not null"`
}

// Message is a direct message delivered to the page inbox. Append-only.
type Message struct {
	ID          string    `json:"id" gorm:"type:varchar(255);primary_key"`
	ThreadID    string    `json:"threadId" gorm:"type:varchar(128)"`
	SenderID    string    `json:"senderId" gorm:"type:varchar(64)"`
	RecipientID string    `json:"recipientId" gorm:"type:varchar(64)"`
	Text        string    `json:"text" gorm:"type:text"`
	Platform    string    `json:"platform" gorm:"type:varchar(32);not null;default:facebook"`
	Verb        string    `json:"verb" gorm:"type:varchar(32)"`
	CreatedAt   time.Time `json:"createdAt" gorm:"not null"`
}

// Reply is the audit trail of generated reply texts. A comment may accumulate
// several rows if posting fails and a retry regenerates; only a successful
// post commits Replied/ReplyID on the comment itself.
type Reply struct {
	ID        string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CommentID string    `json:"commentId" gorm:"type:varchar(128);not null;index"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
}
