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
	Set(ctx context.Context, userID, ownerID string) error
	Get(ctx context.Context, userID string) (string, error)
	Clear(ctx context.Context, userID string) error
}

type Handler struct {
	logger      *slog.Logger
	preferences Service
}

func New(preferences Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, preferences: preferences}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/preference", h.handleGet)
	r.Post("/preference", h.handleSet)
	r.Delete("/preference", h.handleClear)
}

// PreferenceRequest carries the owner to pin.
type PreferenceRequest struct {
	Owner string `json:"owner"`
}

// PreferenceResponse echoes the current pin; empty owner means none.
type PreferenceResponse struct {
	Owner string `json:"owner"`
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "could not identify requesting user"))
		return
	}
	ownerID, err := h.preferences.Get(r.Context(), userID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to read preference",
			"error", err, "request_id", middleware.GetRequestID(r.Context()))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, PreferenceResponse{Owner: ownerID})
}

func (h *Handler) handleSet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "could not identify requesting user"))
		return
	}
	var req PreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Owner == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "owner must not be empty"))
		return
	}
	if err := h.preferences.Set(r.Context(), userID, req.Owner); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to set preference",
			"error", err, "request_id", middleware.GetRequestID(r.Context()))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, PreferenceResponse{Owner: req.Owner})
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "could not identify requesting user"))
		return
	}
	if err := h.preferences.Clear(r.Context(), userID); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to clear preference",
			"error", err, "request_id", middleware.GetRequestID(r.Context()))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
