package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/sociallift/pagereply/internal/auth"
	"github.com/sociallift/pagereply/internal/pipeline"
	"github.com/sociallift/pagereply/internal/storage"
)

// Server owns the HTTP surface: the platform webhook, the review API, page
// install, the auth callback and the live review feed.
type Server struct {
	store       storage.Storage
	pipeline    *pipeline.Pipeline
	scheduler   pipeline.Enqueuer
	verifier    *auth.Verifier
	broker      *ReviewBroker
	verifyToken string
	log         *slog.Logger
	upgrader    websocket.Upgrader
}

func New(
	store storage.Storage,
	pl *pipeline.Pipeline,
	scheduler pipeline.Enqueuer,
	verifier *auth.Verifier,
	broker *ReviewBroker,
	verifyToken string,
	log *slog.Logger,
) *Server {
	return &Server{
		store:       store,
		pipeline:    pl,
		scheduler:   scheduler,
		verifier:    verifier,
		broker:      broker,
		verifyToken: verifyToken,
		log:         log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the chi router with the standard middleware stack.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", s.handleHealth)

	router.Get("/meta/webhook", s.handleWebhookVerify)
	router.Post("/meta/webhook", s.handleWebhook)

	router.Route("/comments/review", func(r chi.Router) {
		r.Get("/", s.handleListPending)
		r.Get("/feed", s.handleReviewFeed)
		r.Post("/{commentID}/approve", s.handleApprove)
		r.Post("/{commentID}/reject", s.handleReject)
	})

	router.Post("/page/install", s.handlePageInstall)
	router.Post("/auth/callback", s.handleAuthCallback)

	return router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
