package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"recproxy/internal/platform/middleware"
	"recproxy/internal/transport/http/shared"
	dErrors "recproxy/pkg/domain-errors"
)

type Service interface {
	Grant(ctx context.Context, ownerID, readerID string) error
	Revoke(ctx context.Context, ownerID, readerID string) error
	ListCandidates(ctx context.Context, readerID string) ([]string, error)
}

// Handler exposes reader-grant CRUD. The owner is the authenticated caller;
// GET answers the reverse question: whose credentials may I attempt to use.
type Handler struct {
	logger      *slog.Logger
	permissions Service
}

func New(permissions Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, permissions: permissions}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/reader", h.handleListCandidates)
	r.Post("/reader", h.handleAddReaders)
	r.Delete("/reader", h.handleRemoveReaders)
}

// ReadersRequest carries the reader IDs to add or remove.
type ReadersRequest struct {
	Readers []string `json:"readers"`
}

func (h *Handler) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "could not identify requesting user"))
		return
	}
	owners, err := h.permissions.ListCandidates(r.Context(), userID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list candidates",
			"error", err, "request_id", middleware.GetRequestID(r.Context()))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, owners)
}

func (h *Handler) handleAddReaders(w http.ResponseWriter, r *http.Request) {
	h.mutateReaders(w, r, h.permissions.Grant, "failed to add reader")
}

func (h *Handler) handleRemoveReaders(w http.ResponseWriter, r *http.Request) {
	h.mutateReaders(w, r, h.permissions.Revoke, "failed to remove reader")
}

func (h *Handler) mutateReaders(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, ownerID, readerID string) error, logMsg string) {

	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "could not identify requesting user"))
		return
	}
	var req ReadersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Readers) == 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "readers array must not be empty"))
		return
	}
	for _, readerID := range req.Readers {
		if err := op(r.Context(), userID, readerID); err != nil {
			h.logger.ErrorContext(r.Context(), logMsg,
				"error", err, "reader", readerID, "request_id", middleware.GetRequestID(r.Context()))
			shared.WriteError(w, err)
			return
		}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
