package scrape

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"recproxy/internal/broker"
	"recproxy/internal/platform/metrics"
	dErrors "recproxy/pkg/domain-errors"
)

// SessionBroker resolves whose credentials the scrape rides on.
type SessionBroker interface {
	Acquire(ctx context.Context, readerID, requestedOwner, resource string) (*broker.Session, error)
}

type Service struct {
	broker  SessionBroker
	nav     Navigator
	logger  *slog.Logger
	metrics *metrics.Metrics
	baseURL string
}

// New builds the page service. baseURL is the target root in either form,
// with or without a trailing slash.
func New(b SessionBroker, nav Navigator, logger *slog.Logger, m *metrics.Metrics, baseURL string) *Service {
	return &Service{broker: b, nav: nav, logger: logger, metrics: m,
		baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Home scrapes the target's main page: the recommendation feed.
func (s *Service) Home(ctx context.Context, readerID, requestedOwner string) (*Result, error) {
	return s.fetchPage(ctx, readerID, requestedOwner, KindHome, s.baseURL+"/")
}

// Watch scrapes a video page; its sidebar carries the related-video feed.
func (s *Service) Watch(ctx context.Context, readerID, requestedOwner, videoID string) (*Result, error) {
	if videoID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "video id must not be empty")
	}
	return s.fetchPage(ctx, readerID, requestedOwner, KindWatch,
		s.baseURL+"/watch?v="+url.QueryEscape(videoID))
}

// Search scrapes a results page for the query.
func (s *Service) Search(ctx context.Context, readerID, requestedOwner, query string) (*Result, error) {
	if query == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "search query must not be empty")
	}
	return s.fetchPage(ctx, readerID, requestedOwner, KindResults,
		s.baseURL+"/results?search_query="+url.QueryEscape(query))
}

func (s *Service) fetchPage(ctx context.Context, readerID, requestedOwner, kind, pageURL string) (*Result, error) {
	sess, err := s.broker.Acquire(ctx, readerID, requestedOwner, pageURL)
	if err != nil {
		s.metrics.ScrapeRequests.WithLabelValues(kind, "denied").Inc()
		return nil, err
	}

	status, body, err := s.nav.Fetch(ctx, pageURL, sess.Cookies, sess.Headers)
	if err != nil {
		s.metrics.ScrapeRequests.WithLabelValues(kind, "error").Inc()
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not reach target")
	}
	if status >= http.StatusMultipleChoices && status < http.StatusBadRequest {
		s.metrics.ScrapeRequests.WithLabelValues(kind, "stale_session").Inc()
		return nil, dErrors.New(dErrors.CodeUnavailable, "target rejected the session; cookies may be stale")
	}
	if status != http.StatusOK {
		s.metrics.ScrapeRequests.WithLabelValues(kind, "error").Inc()
		return nil, dErrors.Newf(dErrors.CodeUnavailable, "target returned status %d", status)
	}

	items, err := Parse(body, s.baseURL)
	if err != nil {
		s.metrics.ScrapeRequests.WithLabelValues(kind, "parse_error").Inc()
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not parse target page")
	}

	s.metrics.ScrapeRequests.WithLabelValues(kind, "ok").Inc()
	result := &Result{Kind: kind, Stage: sess.Stage, RequestToken: sess.RequestToken, Items: items}
	if !sess.Anonymous {
		result.Owner = sess.OwnerID
	}
	s.logger.InfoContext(ctx, "page scraped",
		"kind", kind, "reader", readerID, "stage", sess.Stage, "items", len(items))
	return result, nil
}
