package pipeline

import (
	"context"

	"github.com/sociallift/pagereply/internal/domain"
)

// SentimentClassifier labels a comment's text. Implementations may fail;
// the moderation engine degrades failures to neutral.
type SentimentClassifier interface {
	Classify(ctx context.Context, text string) (domain.Sentiment, error)
}

// ReplyGenerator produces reply text from an ordered conversation.
type ReplyGenerator interface {
	Generate(ctx context.Context, turns []Turn) (string, error)
}

// PlatformPoster publishes a reply under a comment on the platform. The
// returned id is the platform's id for the new reply; an empty id with a nil
// error means the outcome is unknown and the caller must treat the attempt
// as failed.
type PlatformPoster interface {
	PostComment(ctx context.Context, commentID, message, accessToken string) (string, error)
}

// Enqueuer hands a comment id to the dispatch scheduler without blocking.
type Enqueuer interface {
	Enqueue(commentID string)
}

// Notifier observes comments entering the review queue.
type Notifier interface {
	CommentHeld(comment *domain.Comment)
}

// Roles for conversation turns.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one entry of the conversational context sent to the generator.
type Turn struct {
	Role    string
	Content string
}
