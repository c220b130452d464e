package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sociallift/pagereply/internal/domain"
	"github.com/sociallift/pagereply/internal/storage"
)

// Moderator assigns a comment's sentiment and initial moderation status.
type Moderator struct {
	store      storage.Storage
	classifier SentimentClassifier
	log        *slog.Logger
}

func NewModerator(store storage.Storage, classifier SentimentClassifier, log *slog.Logger) *Moderator {
	return &Moderator{store: store, classifier: classifier, log: log}
}

// Evaluate computes the sentiment and status a comment is persisted with.
// It never fails: a classifier error degrades to neutral and a missing
// policy row falls back to the defaults.
//
// Comments the page writes under its own posts are approved outright and
// skip classification.
func (m *Moderator) Evaluate(ctx context.Context, pageID, authorID, text string) (domain.Sentiment, domain.Status) {
	if authorID == pageID {
		return domain.SentimentNeutral, domain.StatusApproved
	}

	sentiment, err := m.classifier.Classify(ctx, text)
	if err != nil {
		m.log.Warn("sentiment classification failed, defaulting to neutral",
			slog.String("page_id", pageID), slog.String("error", err.Error()))
		sentiment = domain.SentimentNeutral
	}

	policy, err := m.store.GetPage(ctx, pageID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.log.Warn("policy lookup failed, applying defaults",
				slog.String("page_id", pageID), slog.String("error", err.Error()))
		}
		policy = &domain.Page{ID: pageID, AutoReplyEnabled: true, AutoReplyNegative: false}
	}

	return sentiment, decide(sentiment, policy)
}

// decide applies the page policy to a classified comment.
func decide(sentiment domain.Sentiment, policy *domain.Page) domain.Status {
	switch {
	case !policy.AutoReplyEnabled:
		return domain.StatusPendingReview
	case sentiment == domain.SentimentNegative && !policy.AutoReplyNegative:
		return domain.StatusPendingReview
	default:
		return domain.StatusApproved
	}
}
