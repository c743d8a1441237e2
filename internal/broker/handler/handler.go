package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"recproxy/internal/broker"
	"recproxy/internal/platform/middleware"
	"recproxy/internal/transport/http/shared"
	dErrors "recproxy/pkg/domain-errors"
)

// Handler exposes one-time token issuance. The token lets subrequests that
// cannot carry the Authorization header authenticate once via ?token=.
type Handler struct {
	logger *slog.Logger
	tokens *broker.TokenIssuer
}

func New(tokens *broker.TokenIssuer, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, tokens: tokens}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/token", h.handleIssueToken)
}

// TokenResponse carries a freshly minted one-time token.
type TokenResponse struct {
	Token string `json:"token"`
}

func (h *Handler) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "could not identify requesting user"))
		return
	}
	token := h.tokens.Issue(userID)
	h.logger.InfoContext(r.Context(), "one-time token issued",
		"user", userID, "request_id", middleware.GetRequestID(r.Context()))
	shared.WriteJSON(w, http.StatusOK, TokenResponse{Token: token})
}
