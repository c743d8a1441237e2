package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"recproxy/internal/platform/middleware"
	"recproxy/internal/scrape"
	"recproxy/internal/transport/http/shared"
	dErrors "recproxy/pkg/domain-errors"
)

type Service interface {
	Home(ctx context.Context, readerID, requestedOwner string) (*scrape.Result, error)
	Watch(ctx context.Context, readerID, requestedOwner, videoID string) (*scrape.Result, error)
	Search(ctx context.Context, readerID, requestedOwner, query string) (*scrape.Result, error)
}

// Handler exposes the scraping surface. The optional user query parameter
// pins a specific owner's session; without it the broker's waterfall decides.
type Handler struct {
	logger *slog.Logger
	scrape Service
}

func New(scrape Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, scrape: scrape}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/youtube", h.handleHome)
	r.Get("/youtube/watch", h.handleWatch)
	r.Get("/youtube/results", h.handleSearch)
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, readerID, owner string) (*scrape.Result, error) {
		return h.scrape.Home(ctx, readerID, owner)
	})
}

func (h *Handler) handleWatch(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("v")
	h.serve(w, r, func(ctx context.Context, readerID, owner string) (*scrape.Result, error) {
		return h.scrape.Watch(ctx, readerID, owner, videoID)
	})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("search_query")
	h.serve(w, r, func(ctx context.Context, readerID, owner string) (*scrape.Result, error) {
		return h.scrape.Search(ctx, readerID, owner, query)
	})
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, readerID, owner string) (*scrape.Result, error)) {

	readerID := middleware.GetUserID(r.Context())
	if readerID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "could not identify requesting user"))
		return
	}
	result, err := op(r.Context(), readerID, r.URL.Query().Get("user"))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "scrape failed",
			"error", err, "path", r.URL.Path, "request_id", middleware.GetRequestID(r.Context()))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}
