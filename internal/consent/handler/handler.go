package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"recproxy/internal/consent"
	"recproxy/internal/platform/middleware"
	"recproxy/internal/transport/http/shared"
	dErrors "recproxy/pkg/domain-errors"
)

// Service defines the consent operations the handler needs.
type Service interface {
	Grant(ctx context.Context, c consent.Consent) error
	Revoke(ctx context.Context, c consent.Consent) error
	List(ctx context.Context, ownerID string) ([]consent.Consent, error)
}

// Handler exposes consent CRUD. The owner is always the authenticated caller;
// nobody grants consent on someone else's behalf.
type Handler struct {
	logger  *slog.Logger
	consent Service
}

func New(consent Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, consent: consent}
}

// Register mounts the consent routes on an already-authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/consent", h.handleListConsent)
	r.Post("/consent", h.handleGrantConsent)
	r.Delete("/consent", h.handleRevokeConsent)
}

// ConsentRequest is the wire form of a consent grant or revocation.
type ConsentRequest struct {
	Reader    string `json:"reader"`
	Resource  string `json:"resource"`
	Anonymous bool   `json:"anonymous"`
}

func (h *Handler) decodeConsent(r *http.Request) (consent.Consent, error) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		return consent.Consent{}, dErrors.New(dErrors.CodeUnauthenticated, "could not identify requesting user")
	}
	var req ConsentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return consent.Consent{}, dErrors.New(dErrors.CodeBadRequest, "invalid consent data")
	}
	return consent.Consent{
		OwnerID:   userID,
		ReaderID:  req.Reader,
		Resource:  req.Resource,
		Anonymous: req.Anonymous,
	}, nil
}

func (h *Handler) handleGrantConsent(w http.ResponseWriter, r *http.Request) {
	c, err := h.decodeConsent(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.consent.Grant(r.Context(), c); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to grant consent",
			"error", err, "request_id", middleware.GetRequestID(r.Context()))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleRevokeConsent(w http.ResponseWriter, r *http.Request) {
	c, err := h.decodeConsent(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.consent.Revoke(r.Context(), c); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to revoke consent",
			"error", err, "request_id", middleware.GetRequestID(r.Context()))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleListConsent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "could not identify requesting user"))
		return
	}
	consents, err := h.consent.List(r.Context(), userID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list consents",
			"error", err, "request_id", middleware.GetRequestID(r.Context()))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, consents)
}
