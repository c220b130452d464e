package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sociallift/pagereply/internal/domain"
	"github.com/sociallift/pagereply/internal/storage"
)

// handlePageInstall stores the access token a tenant granted for a page and
// seeds the page's policy row. Re-installing replaces the token
// (last-write-wins); everything else about the page is untouched.
func (s *Server) handlePageInstall(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pageID := q.Get("page_id")
	accessToken := q.Get("access_token")
	if pageID == "" || accessToken == "" {
		writeError(w, http.StatusBadRequest, "page_id and access_token are required")
		return
	}

	userID, err := s.verifier.Verify(r.Context(), q.Get("token"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, fmt.Sprintf("invalid session token: %v", err))
		return
	}

	tenant, err := s.store.GetTenant(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "tenant not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load tenant")
		return
	}

	token := &domain.PageToken{
		PageID:      pageID,
		TenantID:    tenant.ID,
		PageName:    q.Get("page_name"),
		AccessToken: accessToken,
	}
	if err := s.store.UpsertPageToken(r.Context(), token); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store page token")
		return
	}
	if err := s.store.EnsurePage(r.Context(), pageID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to seed page settings")
		return
	}

	s.log.Info("page installed", slog.String("page_id", pageID), slog.String("tenant_id", tenant.ID))
	writeJSON(w, http.StatusOK, map[string]string{"page_id": pageID})
}

// handleAuthCallback verifies the session token from the dashboard login
// and registers the tenant on first sight.
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	userID, err := s.verifier.Verify(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, fmt.Sprintf("invalid session token: %v", err))
		return
	}

	if err := s.store.EnsureTenant(r.Context(), userID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to register tenant")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"user_id": userID})
}
