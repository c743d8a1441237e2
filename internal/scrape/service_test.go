package scrape

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"recproxy/internal/broker"
	"recproxy/internal/credential"
	"recproxy/internal/platform/metrics"
	dErrors "recproxy/pkg/domain-errors"
)

type fakeBroker struct {
	session *broker.Session
	err     error

	lastOwner    string
	lastResource string
}

func (f *fakeBroker) Acquire(_ context.Context, _, requestedOwner, resource string) (*broker.Session, error) {
	f.lastOwner = requestedOwner
	f.lastResource = resource
	return f.session, f.err
}

type fakeNavigator struct {
	status int
	body   []byte
	err    error

	lastURL     string
	lastCookies []credential.Cookie
	lastHeaders map[string]string
}

func (f *fakeNavigator) Fetch(_ context.Context, url string, cookies []credential.Cookie, headers map[string]string) (int, []byte, error) {
	f.lastURL = url
	f.lastCookies = cookies
	f.lastHeaders = headers
	return f.status, f.body, f.err
}

type ScrapeServiceSuite struct {
	suite.Suite
	ctx    context.Context
	broker *fakeBroker
	nav    *fakeNavigator
	svc    *Service
}

func TestScrapeServiceSuite(t *testing.T) {
	suite.Run(t, new(ScrapeServiceSuite))
}

func (s *ScrapeServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.broker = &fakeBroker{
		session: &broker.Session{
			OwnerID:      "alice",
			Stage:        broker.StageExplicit,
			RequestToken: "token-1",
			Cookies:      []credential.Cookie{{Name: "SID", Value: "abc"}},
			Headers:      map[string]string{"User-Agent": "test"},
		},
	}
	s.nav = &fakeNavigator{status: 200, body: pageWith(feedData)}
	s.svc = New(s.broker, s.nav, slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics.NewForTest(), "https://www.youtube.com")
}

func (s *ScrapeServiceSuite) TestHomeUsesSessionCredentials() {
	result, err := s.svc.Home(s.ctx, "bob", "alice")
	s.Require().NoError(err)
	s.Equal(KindHome, result.Kind)
	s.Equal("alice", result.Owner)
	s.Equal("token-1", result.RequestToken, "the session token comes back unmodified")
	s.Len(result.Items, 2)

	s.Equal("https://www.youtube.com/", s.nav.lastURL)
	s.Equal("SID", s.nav.lastCookies[0].Name)
	s.Equal("test", s.nav.lastHeaders["User-Agent"])
	s.Equal("alice", s.broker.lastOwner)
}

func (s *ScrapeServiceSuite) TestWatchBuildsURLAndValidates() {
	result, err := s.svc.Watch(s.ctx, "bob", "", "abc123")
	s.Require().NoError(err)
	s.Equal(KindWatch, result.Kind)
	s.Equal("https://www.youtube.com/watch?v=abc123", s.nav.lastURL)
	s.Equal(s.nav.lastURL, s.broker.lastResource, "the audit trail records the scraped page")

	_, err = s.svc.Watch(s.ctx, "bob", "", "")
	s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func (s *ScrapeServiceSuite) TestSearchEscapesQuery() {
	_, err := s.svc.Search(s.ctx, "bob", "", "cat videos")
	s.Require().NoError(err)
	s.Equal("https://www.youtube.com/results?search_query=cat+videos", s.nav.lastURL)

	_, err = s.svc.Search(s.ctx, "bob", "", "")
	s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func (s *ScrapeServiceSuite) TestAnonymousSessionHidesOwner() {
	s.broker.session.Stage = broker.StageRandom
	s.broker.session.Anonymous = true

	result, err := s.svc.Home(s.ctx, "bob", "")
	s.Require().NoError(err)
	s.Empty(result.Owner)
	s.Equal(broker.StageRandom, result.Stage)
}

func (s *ScrapeServiceSuite) TestBrokerDenialPropagates() {
	s.broker.session = nil
	s.broker.err = dErrors.New(dErrors.CodeForbidden, "owner has not consented to this access")

	_, err := s.svc.Home(s.ctx, "bob", "alice")
	s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
}

func (s *ScrapeServiceSuite) TestRedirectMeansStaleSession() {
	s.nav.status = 302

	_, err := s.svc.Home(s.ctx, "bob", "")
	s.Equal(dErrors.CodeUnavailable, dErrors.CodeOf(err))
}

func (s *ScrapeServiceSuite) TestUnparseablePageIsInternal() {
	s.nav.body = []byte("<html><body>nothing here</body></html>")

	_, err := s.svc.Home(s.ctx, "bob", "")
	s.Equal(dErrors.CodeInternal, dErrors.CodeOf(err))
}
