package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sociallift/pagereply/internal/domain"
	"github.com/sociallift/pagereply/internal/storage"
	"github.com/sociallift/pagereply/internal/webhook"
	"github.com/google/uuid"
)

// Pipeline ingests normalized webhook events: it repairs referential gaps,
// persists each event idempotently, runs the moderation decision for
// comments and hands approved ones to the dispatch scheduler.
//
// Each event is processed statelessly against the store, so duplicated and
// out-of-order deliveries converge on the same rows.
type Pipeline struct {
	store     storage.Storage
	moderator *Moderator
	scheduler Enqueuer
	notifier  Notifier
	log       *slog.Logger
}

// New builds a pipeline. notifier may be nil.
func New(store storage.Storage, moderator *Moderator, scheduler Enqueuer, notifier Notifier, log *slog.Logger) *Pipeline {
	return &Pipeline{
		store:     store,
		moderator: moderator,
		scheduler: scheduler,
		notifier:  notifier,
		log:       log,
	}
}

// Ingest processes one event. An error means a store failure; the webhook
// handler logs it and moves on to the next event, never failing the
// delivery itself.
func (p *Pipeline) Ingest(ctx context.Context, ev webhook.Event) error {
	if err := p.store.EnsurePage(ctx, ev.PageID); err != nil {
		return fmt.Errorf("ensure page %s: %w", ev.PageID, err)
	}

	switch ev.Kind {
	case webhook.KindFeedPost:
		return p.ingestPost(ctx, ev)
	case webhook.KindFeedComment:
		return p.ingestComment(ctx, ev)
	case webhook.KindMention:
		return p.ingestMention(ctx, ev)
	case webhook.KindMessage:
		return p.ingestMessage(ctx, ev)
	default:
		p.log.Debug("ignoring event of unknown kind", slog.String("kind", string(ev.Kind)))
		return nil
	}
}

func (p *Pipeline) ingestPost(ctx context.Context, ev webhook.Event) error {
	post := &domain.Post{
		ID:        ev.Post.ID,
		PageID:    ev.PageID,
		Message:   ev.Post.Message,
		FromID:    ev.Post.FromID,
		FromName:  ev.Post.FromName,
		Verb:      ev.Post.Verb,
		Published: ev.Post.Published,
		CreatedAt: ev.Time,
	}
	if err := p.store.CreatePost(ctx, post); err != nil {
		return fmt.Errorf("insert post %s: %w", post.ID, err)
	}
	return nil
}

func (p *Pipeline) ingestComment(ctx context.Context, ev webhook.Event) error {
	ce := ev.Comment

	// Empty comments carry nothing to moderate or answer; they never enter
	// the state machine.
	if strings.TrimSpace(ce.Text) == "" {
		p.log.Info("skipping comment without text",
			slog.String("comment_id", ce.ID), slog.String("verb", ce.Verb))
		return nil
	}

	if err := p.repairParents(ctx, ev, ce); err != nil {
		return err
	}

	sentiment, status := p.moderator.Evaluate(ctx, ev.PageID, ce.FromID, ce.Text)

	comment := &domain.Comment{
		ID:        ce.ID,
		PageID:    ev.PageID,
		PostID:    ce.PostID,
		ParentID:  ce.ParentID,
		UserID:    ce.FromID,
		UserName:  ce.FromName,
		Text:      ce.Text,
		Platform:  domain.PlatformFacebook,
		Verb:      ce.Verb,
		Sentiment: sentiment,
		Status:    status,
		CreatedAt: ev.Time,
	}
	if err := p.store.CreateComment(ctx, comment); err != nil {
		return fmt.Errorf("insert comment %s: %w", comment.ID, err)
	}

	p.log.Info("comment ingested",
		slog.String("comment_id", comment.ID),
		slog.String("sentiment", string(sentiment)),
		slog.String("status", string(status)))

	switch {
	case status == domain.StatusPendingReview:
		if p.notifier != nil {
			p.notifier.CommentHeld(comment)
		}
	case status == domain.StatusApproved && ce.FromID != ev.PageID:
		p.scheduler.Enqueue(comment.ID)
	}
	return nil
}

// repairParents restores referential integrity before the comment row is
// written: a missing parent post is stubbed (create-if-absent, so a real
// post event arriving later or concurrently is never lost), and a parent
// comment reference that resolves to nothing is cleared so the thread
// degrades to top-level instead of failing.
func (p *Pipeline) repairParents(ctx context.Context, ev webhook.Event, ce *webhook.CommentEvent) error {
	exists, err := p.store.PostExists(ctx, ce.PostID)
	if err != nil {
		return fmt.Errorf("check post %s: %w", ce.PostID, err)
	}
	if !exists {
		stubTime := ev.Time
		if ce.PostUpdatedTime != nil {
			stubTime = *ce.PostUpdatedTime
		}
		p.log.Info("stubbing missing post", slog.String("post_id", ce.PostID))
		if err := p.store.CreatePost(ctx, &domain.Post{
			ID:        ce.PostID,
			PageID:    ev.PageID,
			CreatedAt: stubTime,
		}); err != nil {
			return fmt.Errorf("stub post %s: %w", ce.PostID, err)
		}
	}

	if ce.ParentID != nil {
		exists, err := p.store.CommentExists(ctx, *ce.ParentID)
		if err != nil {
			return fmt.Errorf("check parent comment %s: %w", *ce.ParentID, err)
		}
		if !exists {
			p.log.Info("parent comment not found, treating as top-level",
				slog.String("comment_id", ce.ID), slog.String("parent_id", *ce.ParentID))
			ce.ParentID = nil
		}
	}
	return nil
}

func (p *Pipeline) ingestMention(ctx context.Context, ev webhook.Event) error {
	me := ev.Mention
	mention := &domain.Mention{
		// Mentions arrive without an id of their own; synthesize a stable
		// one so redelivery stays idempotent.
		ID:         fmt.Sprintf("mention-%s-%s-%d", me.PostID, me.SenderID, ev.Time.Unix()),
		PostID:     me.PostID,
		SenderID:   me.SenderID,
		SenderName: me.SenderName,
		Verb:       me.Verb,
		CreatedAt:  ev.Time,
	}
	if err := p.store.CreateMention(ctx, mention); err != nil {
		return fmt.Errorf("insert mention %s: %w", mention.ID, err)
	}
	return nil
}

func (p *Pipeline) ingestMessage(ctx context.Context, ev webhook.Event) error {
	me := ev.Message
	id := me.ID
	if id == "" {
		id = uuid.NewString()
	}
	message := &domain.Message{
		ID:          id,
		ThreadID:    me.ThreadID,
		SenderID:    me.SenderID,
		RecipientID: me.RecipientID,
		Text:        me.Text,
		Platform:    domain.PlatformFacebook,
		Verb:        me.Verb,
		CreatedAt:   ev.Time,
	}
	if err := p.store.CreateMessage(ctx, message); err != nil {
		return fmt.Errorf("insert message %s: %w", message.ID, err)
	}
	return nil
}
