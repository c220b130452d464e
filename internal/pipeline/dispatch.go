package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sociallift/pagereply/internal/domain"
	"github.com/sociallift/pagereply/internal/storage"
)

// Dispatcher generates and posts the auto-reply for an approved comment and
// commits the outcome exactly once.
type Dispatcher struct {
	store     storage.Storage
	generator ReplyGenerator
	poster    PlatformPoster
	log       *slog.Logger
}

func NewDispatcher(store storage.Storage, generator ReplyGenerator, poster PlatformPoster, log *slog.Logger) *Dispatcher {
	return &Dispatcher{store: store, generator: generator, poster: poster, log: log}
}

// DispatchIfApproved replies to the comment if, and only if, it is still
// eligible: it exists, is approved, has not been replied to, was not written
// by the page itself, and the page has an access token. Any unmet
// precondition is a silent no-op, which makes the call safe to repeat from
// the webhook path, the review API, the CLI sweep, or all of them at once.
//
// A non-nil error always means the comment is still eligible and a later
// retry may succeed.
func (d *Dispatcher) DispatchIfApproved(ctx context.Context, commentID string) error {
	comment, err := d.store.GetComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load comment %s: %w", commentID, err)
	}
	if comment.Replied || comment.Status != domain.StatusApproved || comment.UserID == comment.PageID {
		return nil
	}

	token, err := d.store.GetPageToken(ctx, comment.PageID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Integrity gap: the page never completed install. Skip, but make
			// sure operators can see why nothing is being replied to.
			d.log.Warn("no access token for page, skipping reply",
				slog.String("page_id", comment.PageID),
				slog.String("comment_id", comment.ID))
			return nil
		}
		return fmt.Errorf("load token for page %s: %w", comment.PageID, err)
	}

	thread, err := BuildThread(ctx, d.store, comment)
	if err != nil {
		return err
	}

	pageName := token.PageName
	if pageName == "" {
		pageName = comment.PageID
	}

	generated, err := d.generator.Generate(ctx, Turns(comment.PageID, pageName, thread))
	if err != nil {
		return fmt.Errorf("generate reply for comment %s: %w", comment.ID, err)
	}

	replyText := fmt.Sprintf("%s, %s", comment.UserName, generated)

	// The audit record goes in before the external post: a crash between the
	// two leaves the generated text on file and the comment still eligible.
	if err := d.store.CreateReply(ctx, &domain.Reply{CommentID: comment.ID, Text: replyText}); err != nil {
		return fmt.Errorf("record reply for comment %s: %w", comment.ID, err)
	}

	externalID, err := d.poster.PostComment(ctx, comment.ID, replyText, token.AccessToken)
	if err != nil {
		return fmt.Errorf("post reply for comment %s: %w", comment.ID, err)
	}
	if externalID == "" {
		// The platform accepted the request but returned no id. That is an
		// unknown outcome, not a success: leave the comment retryable rather
		// than commit a reply we cannot reference.
		return fmt.Errorf("post reply for comment %s: platform returned no reply id", comment.ID)
	}

	if err := d.store.MarkReplied(ctx, comment.ID, externalID); err != nil {
		return fmt.Errorf("commit reply for comment %s: %w", comment.ID, err)
	}

	d.log.Info("reply posted",
		slog.String("comment_id", comment.ID),
		slog.String("reply_id", externalID),
		slog.String("page_id", comment.PageID))
	return nil
}
