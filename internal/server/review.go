package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sociallift/pagereply/internal/domain"
	"github.com/sociallift/pagereply/internal/storage"
)

// handleListPending returns the review queue, oldest first, optionally
// filtered to one page.
func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	comments, err := s.store.ListPendingReview(r.Context(), r.URL.Query().Get("page_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list pending comments")
		return
	}
	if comments == nil {
		comments = []*domain.Comment{}
	}
	writeJSON(w, http.StatusOK, comments)
}

// handleApprove releases a held comment and queues it for dispatch. The
// status change is guarded: anything not currently pending_review is a 404,
// so double-clicking approve cannot double-dispatch.
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "commentID")

	err := s.store.SetCommentStatus(r.Context(), id, domain.StatusPendingReview, domain.StatusApproved)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "comment not found or not pending review")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to approve comment")
		return
	}

	s.scheduler.Enqueue(id)
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(domain.StatusApproved)})
}

// handleReject is terminal: the comment leaves the queue and is never
// dispatched.
func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "commentID")

	err := s.store.SetCommentStatus(r.Context(), id, domain.StatusPendingReview, domain.StatusRejected)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "comment not found or not pending review")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to reject comment")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(domain.StatusRejected)})
}

// handleReviewFeed streams comments entering the review queue over a
// websocket, optionally filtered by page_id.
func (s *Server) handleReviewFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}
	defer conn.Close()

	subID, feed := s.broker.Subscribe(r.URL.Query().Get("page_id"))
	defer s.broker.Unsubscribe(subID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(10 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case comment := <-feed:
			if comment == nil {
				return
			}
			if err := conn.WriteJSON(comment); err != nil {
				s.log.Debug("review feed write failed", slog.String("error", err.Error()))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
