package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"recproxy/internal/preference"
	dErrors "recproxy/pkg/domain-errors"
)

type fakeCandidates struct {
	owners []string
	err    error
}

func (f *fakeCandidates) ListCandidates(_ context.Context, _ string) ([]string, error) {
	return f.owners, f.err
}

type PreferenceServiceSuite struct {
	suite.Suite
	ctx        context.Context
	candidates *fakeCandidates
	svc        *Service
}

func TestPreferenceServiceSuite(t *testing.T) {
	suite.Run(t, new(PreferenceServiceSuite))
}

func (s *PreferenceServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.candidates = &fakeCandidates{}
	s.svc = New(preference.NewInMemoryStore(), s.candidates,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (s *PreferenceServiceSuite) TestSetRequiresReaderGrant() {
	s.candidates.owners = []string{"dave"}

	err := s.svc.Set(s.ctx, "bob", "alice")
	s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))

	ownerID, err := s.svc.Get(s.ctx, "bob")
	s.Require().NoError(err)
	s.Empty(ownerID)
}

func (s *PreferenceServiceSuite) TestSetAndGet() {
	s.candidates.owners = []string{"alice", "dave"}

	s.Require().NoError(s.svc.Set(s.ctx, "bob", "alice"))

	ownerID, err := s.svc.Get(s.ctx, "bob")
	s.Require().NoError(err)
	s.Equal("alice", ownerID)
}

func (s *PreferenceServiceSuite) TestSelfPreferenceNeedsNoGrant() {
	s.Require().NoError(s.svc.Set(s.ctx, "bob", "bob"))

	ownerID, err := s.svc.Get(s.ctx, "bob")
	s.Require().NoError(err)
	s.Equal("bob", ownerID)
}

func (s *PreferenceServiceSuite) TestGetWithoutPreferenceIsEmpty() {
	ownerID, err := s.svc.Get(s.ctx, "stranger")
	s.Require().NoError(err)
	s.Empty(ownerID)
}

func (s *PreferenceServiceSuite) TestClearIsIdempotent() {
	s.candidates.owners = []string{"alice"}
	s.Require().NoError(s.svc.Set(s.ctx, "bob", "alice"))

	s.Require().NoError(s.svc.Clear(s.ctx, "bob"))
	s.Require().NoError(s.svc.Clear(s.ctx, "bob"))

	ownerID, err := s.svc.Get(s.ctx, "bob")
	s.Require().NoError(err)
	s.Empty(ownerID)
}
