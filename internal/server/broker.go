package server

import (
	"sync"

	"github.com/sociallift/pagereply/internal/domain"
	"github.com/google/uuid"
)

// ReviewBroker fans comments held for review out to live subscribers
// (the moderator dashboard's websocket feed).
type ReviewBroker struct {
	mu sync.RWMutex
	//          map[subscriberID]subscription
	subs map[string]*subscription
}

type subscription struct {
	// pageID filters the feed; empty means all pages.
	pageID string
	ch     chan *domain.Comment
}

// NewReviewBroker creates an empty broker.
func NewReviewBroker() *ReviewBroker {
	return &ReviewBroker{
		subs: make(map[string]*subscription),
	}
}

// Subscribe registers a feed consumer and returns its id and channel.
func (b *ReviewBroker) Subscribe(pageID string) (string, <-chan *domain.Comment) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	sub := &subscription{pageID: pageID, ch: make(chan *domain.Comment, 8)}
	b.subs[id] = sub
	return id, sub.ch
}

// Unsubscribe removes a consumer and closes its channel.
func (b *ReviewBroker) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subs[id]; ok {
		close(sub.ch)
		delete(b.subs, id)
	}
}

// CommentHeld broadcasts a comment that just entered pending_review. Slow
// subscribers are skipped rather than blocking the ingestion path; the feed
// is advisory, the review API remains the source of truth.
func (b *ReviewBroker) CommentHeld(comment *domain.Comment) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if sub.pageID != "" && sub.pageID != comment.PageID {
			continue
		}
		select {
		case sub.ch <- comment:
		default:
		}
	}
}
