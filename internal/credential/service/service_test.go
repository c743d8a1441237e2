package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"recproxy/internal/consent"
	"recproxy/internal/credential"
	dErrors "recproxy/pkg/domain-errors"
)

type fakeChecker struct {
	allow   bool
	err     error
	calls   int
	lastReq consent.Consent
}

func (f *fakeChecker) Check(_ context.Context, c consent.Consent) (bool, error) {
	f.calls++
	f.lastReq = c
	return f.allow, f.err
}

type fakeSweeper struct {
	swept []string
}

func (f *fakeSweeper) RevokeAllForOwner(_ context.Context, ownerID string) error {
	f.swept = append(f.swept, ownerID)
	return nil
}

type fakeProber struct {
	valid bool
	err   error
	calls int
}

func (f *fakeProber) Probe(_ context.Context, _ []credential.Cookie) (bool, error) {
	f.calls++
	return f.valid, f.err
}

type CredentialServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *credential.InMemoryStore
	checker *fakeChecker
	sweeper *fakeSweeper
	svc     *Service
}

func TestCredentialServiceSuite(t *testing.T) {
	suite.Run(t, new(CredentialServiceSuite))
}

func (s *CredentialServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = credential.NewInMemoryStore()
	s.checker = &fakeChecker{allow: true}
	s.sweeper = &fakeSweeper{}
	s.svc = s.newService(nil)
}

func (s *CredentialServiceSuite) newService(prober Prober) *Service {
	return New(s.store, credential.NewSealer("test-key"), s.checker, s.sweeper, prober,
		slog.New(slog.NewTextHandler(io.Discard, nil)), ".youtube.com", "/")
}

func (s *CredentialServiceSuite) TestStoreAndFetchOwnCookies() {
	ack, err := s.svc.StoreCookies(s.ctx, "alice", []credential.Cookie{
		{Name: "SID", Value: "abc", Domain: "evil.example", Path: "/steal"},
		{Name: "HSID", Value: "def"},
	})
	s.Require().NoError(err)
	s.Equal([]string{"HSID", "SID"}, ack.Names)

	cookies, err := s.svc.GetCookies(s.ctx, "alice", "alice", "", false)
	s.Require().NoError(err)
	s.Require().Len(cookies, 2)
	for _, c := range cookies {
		s.Equal(".youtube.com", c.Domain)
		s.Equal("/", c.Path)
	}
	s.Zero(s.checker.calls, "self access must not consult consent")
}

func (s *CredentialServiceSuite) TestStoreRejectsUnusableUpload() {
	_, err := s.svc.StoreCookies(s.ctx, "alice", []credential.Cookie{{Name: "", Value: "x"}})
	s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))

	_, err = s.svc.StoreCookies(s.ctx, "alice", nil)
	s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func (s *CredentialServiceSuite) TestReaderFetchRequiresConsent() {
	s.storeFor("alice")
	s.Require().NoError(s.store.AddReader(s.ctx, "alice", "bob"))
	s.checker.allow = false

	_, err := s.svc.GetCookies(s.ctx, "alice", "bob", "https://www.youtube.com/", true)
	s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	s.Equal("alice", s.checker.lastReq.OwnerID)
	s.Equal("bob", s.checker.lastReq.ReaderID)
	s.True(s.checker.lastReq.Anonymous)
}

func (s *CredentialServiceSuite) TestReaderFetchWithConsentAndACL() {
	s.storeFor("alice")
	s.Require().NoError(s.store.AddReader(s.ctx, "alice", "bob"))

	cookies, err := s.svc.GetCookies(s.ctx, "alice", "bob", "https://www.youtube.com/", true)
	s.Require().NoError(err)
	s.Len(cookies, 1)
}

func (s *CredentialServiceSuite) TestReaderNotOnACLIsForbidden() {
	s.storeFor("alice")

	_, err := s.svc.GetCookies(s.ctx, "alice", "mallory", "https://www.youtube.com/", true)
	s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
}

func (s *CredentialServiceSuite) TestConsentOutageIsUnavailableNotForbidden() {
	s.storeFor("alice")
	s.Require().NoError(s.store.AddReader(s.ctx, "alice", "bob"))
	s.checker.err = dErrors.New(dErrors.CodeUnavailable, "registry down")

	_, err := s.svc.GetCookies(s.ctx, "alice", "bob", "https://www.youtube.com/", true)
	s.Equal(dErrors.CodeUnavailable, dErrors.CodeOf(err))
}

func (s *CredentialServiceSuite) TestMissingStoreYieldsEmptySet() {
	cookies, err := s.svc.GetCookies(s.ctx, "nobody", "nobody", "", false)
	s.Require().NoError(err)
	s.NotNil(cookies)
	s.Empty(cookies)
}

func (s *CredentialServiceSuite) TestRemoveCookiesClearsAndCascades() {
	s.storeFor("alice")

	s.Require().NoError(s.svc.RemoveCookies(s.ctx, "alice"))
	s.Equal([]string{"alice"}, s.sweeper.swept)

	cookies, err := s.svc.GetCookies(s.ctx, "alice", "alice", "", false)
	s.Require().NoError(err)
	s.Empty(cookies)

	has, err := s.svc.HasCookies(s.ctx, "alice")
	s.Require().NoError(err)
	s.False(has)
}

func (s *CredentialServiceSuite) TestHeadersRoundtrip() {
	ack, err := s.svc.StoreHeaders(s.ctx, "alice", map[string]string{
		"User-Agent":    "Mozilla/5.0",
		"Authorization": "SAPISIDHASH x",
		"":              "dropped",
	})
	s.Require().NoError(err)
	s.Equal([]string{"Authorization", "User-Agent"}, ack.Names)

	headers, err := s.svc.GetHeaders(s.ctx, "alice", "alice", "", false)
	s.Require().NoError(err)
	s.Equal("Mozilla/5.0", headers["User-Agent"])

	s.Require().NoError(s.svc.RemoveHeaders(s.ctx, "alice"))
	headers, err = s.svc.GetHeaders(s.ctx, "alice", "alice", "", false)
	s.Require().NoError(err)
	s.Empty(headers)
	s.Empty(s.sweeper.swept, "header removal must not cascade")
}

func (s *CredentialServiceSuite) TestProbeRejectionBlocksStore() {
	prober := &fakeProber{valid: false}
	svc := s.newService(prober)

	_, err := svc.StoreCookies(s.ctx, "alice", []credential.Cookie{{Name: "SID", Value: "stale"}})
	s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	s.Equal(1, prober.calls)

	has, err := svc.HasCookies(s.ctx, "alice")
	s.Require().NoError(err)
	s.False(has)
}

func (s *CredentialServiceSuite) TestInconclusiveProbeStillStores() {
	prober := &fakeProber{err: context.DeadlineExceeded}
	svc := s.newService(prober)

	_, err := svc.StoreCookies(s.ctx, "alice", []credential.Cookie{{Name: "SID", Value: "abc"}})
	s.Require().NoError(err)

	has, err := svc.HasCookies(s.ctx, "alice")
	s.Require().NoError(err)
	s.True(has)
}

func (s *CredentialServiceSuite) TestHasCookies() {
	has, err := s.svc.HasCookies(s.ctx, "alice")
	s.Require().NoError(err)
	s.False(has)

	s.storeFor("alice")
	has, err = s.svc.HasCookies(s.ctx, "alice")
	s.Require().NoError(err)
	s.True(has)
}

func (s *CredentialServiceSuite) storeFor(ownerID string) {
	_, err := s.svc.StoreCookies(s.ctx, ownerID, []credential.Cookie{{Name: "SID", Value: "abc"}})
	s.Require().NoError(err)
}
