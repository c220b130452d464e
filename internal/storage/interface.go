package storage

import (
	"context"
	"errors"

	"github.com/sociallift/pagereply/internal/domain"
)

// ErrNotFound is returned when a looked-up row does not exist, or when a
// guarded update matched no row in the expected state.
var ErrNotFound = errors.New("not found")

// Storage defines the contract for the durable state shared by the pipeline,
// the HTTP layer and the admin CLI. Every mutation is a single-row write:
// inserts are conflict-ignore (keyed by the platform-provided id), updates
// are guarded by the row's current state. Only UpsertPageToken is
// last-write-wins.
type Storage interface {
	// Pages (policy rows).
	EnsurePage(ctx context.Context, pageID string) error
	GetPage(ctx context.Context, pageID string) (*domain.Page, error)
	SetAutoReply(ctx context.Context, pageID string, enabled bool) error
	SetAutoReplyNegative(ctx context.Context, pageID string, enabled bool) error

	// Posts. CreatePost is used both for real post events and for stubs.
	CreatePost(ctx context.Context, post *domain.Post) error
	PostExists(ctx context.Context, id string) (bool, error)

	// Comments.
	CreateComment(ctx context.Context, comment *domain.Comment) error
	GetComment(ctx context.Context, id string) (*domain.Comment, error)
	CommentExists(ctx context.Context, id string) (bool, error)
	CommentsByPost(ctx context.Context, postID string) ([]*domain.Comment, error)
	SetCommentStatus(ctx context.Context, id string, from, to domain.Status) error
	MarkReplied(ctx context.Context, id, replyID string) error
	ListPendingReview(ctx context.Context, pageID string) ([]*domain.Comment, error)
	ListUnrepliedApproved(ctx context.Context) ([]*domain.Comment, error)

	// Append-only event records.
	CreateMention(ctx context.Context, mention *domain.Mention) error
	CreateMessage(ctx context.Context, message *domain.Message) error
	CreateReply(ctx context.Context, reply *domain.Reply) error

	// Access tokens.
	UpsertPageToken(ctx context.Context, token *domain.PageToken) error
	GetPageToken(ctx context.Context, pageID string) (*domain.PageToken, error)

	// Tenants.
	EnsureTenant(ctx context.Context, userID string) error
	GetTenant(ctx context.Context, userID string) (*domain.Tenant, error)
}
