package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sociallift/pagereply/internal/storage"
)

// CommentDispatcher is the scheduler's view of the reply dispatcher.
type CommentDispatcher interface {
	DispatchIfApproved(ctx context.Context, commentID string) error
}

// Scheduler decouples reply dispatch from event ingestion. Ingestion hands
// comment ids to a buffered queue and returns immediately; a small worker
// pool drains the queue and runs the dispatcher. A periodic sweep re-submits
// every approved, unreplied comment, so dropped enqueues, failed posts and
// comments approved out-of-band (CLI, review API) all get retried without
// any extra bookkeeping.
type Scheduler struct {
	dispatcher    CommentDispatcher
	store         storage.Storage
	queue         chan string
	workers       int
	sweepInterval time.Duration
	log           *slog.Logger

	wg sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]bool
}

func NewScheduler(dispatcher CommentDispatcher, store storage.Storage, workers, queueSize int, sweepInterval time.Duration, log *slog.Logger) *Scheduler {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Scheduler{
		dispatcher:    dispatcher,
		store:         store,
		queue:         make(chan string, queueSize),
		workers:       workers,
		sweepInterval: sweepInterval,
		log:           log,
		inflight:      make(map[string]bool),
	}
}

// Start launches the worker pool and, if a sweep interval is configured,
// the sweep loop. It returns immediately; workers stop when ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}
	if s.sweepInterval > 0 {
		s.wg.Add(1)
		go s.sweeper(ctx)
	}
}

// Wait blocks until all workers have observed cancellation and exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Enqueue submits a comment for dispatch without blocking the caller. An id
// already queued or being dispatched is coalesced, so a webhook redelivery
// or an approve racing the sweep cannot put two workers on the same comment
// and double-post the reply. If the queue is full the id is dropped; the
// sweep picks it up on the next pass.
func (s *Scheduler) Enqueue(commentID string) {
	if !s.claim(commentID) {
		return
	}
	select {
	case s.queue <- commentID:
	default:
		s.release(commentID)
		s.log.Warn("dispatch queue full, deferring to sweep", slog.String("comment_id", commentID))
	}
}

func (s *Scheduler) claim(commentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[commentID] {
		return false
	}
	s.inflight[commentID] = true
	return true
}

func (s *Scheduler) release(commentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, commentID)
}

func (s *Scheduler) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-s.queue:
			err := s.dispatcher.DispatchIfApproved(ctx, id)
			s.release(id)
			if err != nil {
				// The comment stays replied=false; the sweep will retry it.
				s.log.Warn("dispatch failed, comment remains retryable",
					slog.String("comment_id", id), slog.String("error", err.Error()))
			}
		}
	}
}

func (s *Scheduler) sweeper(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	comments, err := s.store.ListUnrepliedApproved(ctx)
	if err != nil {
		s.log.Warn("sweep failed", slog.String("error", err.Error()))
		return
	}
	for _, c := range comments {
		if c.UserID == c.PageID {
			continue
		}
		s.Enqueue(c.ID)
	}
}
