package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"recproxy/internal/credential"
	"recproxy/internal/platform/middleware"
	"recproxy/internal/transport/http/shared"
	dErrors "recproxy/pkg/domain-errors"
)

type Service interface {
	StoreCookies(ctx context.Context, ownerID string, cookies []credential.Cookie) (credential.Ack, error)
	GetCookies(ctx context.Context, ownerID, requesterID, resource string, anonymous bool) ([]credential.Cookie, error)
	RemoveCookies(ctx context.Context, ownerID string) error
	StoreHeaders(ctx context.Context, ownerID string, headers map[string]string) (credential.Ack, error)
	GetHeaders(ctx context.Context, ownerID, requesterID, resource string, anonymous bool) (map[string]string, error)
	RemoveHeaders(ctx context.Context, ownerID string) error
}

// Handler exposes the credential store to its owner. Reads on behalf of other
// users never go through here; those happen inside the access broker.
type Handler struct {
	logger      *slog.Logger
	credentials Service
}

func New(credentials Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, credentials: credentials}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/cookies", h.handleGetCookies)
	r.Post("/cookies", h.handleSetCookies)
	r.Delete("/cookies", h.handleRemoveCookies)
	r.Get("/headers", h.handleGetHeaders)
	r.Post("/headers", h.handleSetHeaders)
	r.Delete("/headers", h.handleRemoveHeaders)
}

func (h *Handler) handleGetCookies(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identify(w, r)
	if !ok {
		return
	}
	cookies, err := h.credentials.GetCookies(r.Context(), userID, userID, "", false)
	if err != nil {
		h.fail(w, r, "failed to fetch cookies", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, cookies)
}

func (h *Handler) handleSetCookies(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identify(w, r)
	if !ok {
		return
	}
	var cookies []credential.Cookie
	if err := json.NewDecoder(r.Body).Decode(&cookies); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body must be a JSON array of cookies"))
		return
	}
	ack, err := h.credentials.StoreCookies(r.Context(), userID, cookies)
	if err != nil {
		h.fail(w, r, "failed to store cookies", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, ack)
}

func (h *Handler) handleRemoveCookies(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identify(w, r)
	if !ok {
		return
	}
	if err := h.credentials.RemoveCookies(r.Context(), userID); err != nil {
		h.fail(w, r, "failed to remove cookies", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleGetHeaders(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identify(w, r)
	if !ok {
		return
	}
	headers, err := h.credentials.GetHeaders(r.Context(), userID, userID, "", false)
	if err != nil {
		h.fail(w, r, "failed to fetch headers", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, headers)
}

func (h *Handler) handleSetHeaders(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identify(w, r)
	if !ok {
		return
	}
	var headers map[string]string
	if err := json.NewDecoder(r.Body).Decode(&headers); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body must be a JSON object of headers"))
		return
	}
	ack, err := h.credentials.StoreHeaders(r.Context(), userID, headers)
	if err != nil {
		h.fail(w, r, "failed to store headers", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, ack)
}

func (h *Handler) handleRemoveHeaders(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identify(w, r)
	if !ok {
		return
	}
	if err := h.credentials.RemoveHeaders(r.Context(), userID); err != nil {
		h.fail(w, r, "failed to remove headers", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) identify(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "could not identify requesting user"))
		return "", false
	}
	return userID, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg,
		"error", err, "request_id", middleware.GetRequestID(r.Context()))
	shared.WriteError(w, err)
}
