package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"recproxy/internal/consent"
	"recproxy/internal/platform/metrics"
	"recproxy/internal/registry"
	dErrors "recproxy/pkg/domain-errors"
	"recproxy/pkg/platform/sentinel"
)

type ConsentServiceSuite struct {
	suite.Suite
	ctx      context.Context
	registry *registry.InMemory
	svc      *Service
}

func TestConsentServiceSuite(t *testing.T) {
	suite.Run(t, new(ConsentServiceSuite))
}

func (s *ConsentServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.registry = registry.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = New(s.registry, consent.NewInMemoryStore(), logger, metrics.NewForTest(), false)
}

func (s *ConsentServiceSuite) grant(owner, reader, resource string, anon bool) consent.Consent {
	c := consent.Consent{OwnerID: owner, ReaderID: reader, Resource: resource, Anonymous: anon}
	s.Require().NoError(s.svc.Grant(s.ctx, c))
	return c
}

// Non-anonymous consent subsumes the anonymous variant, even though the exact
// anonymous hash was never stored.
func (s *ConsentServiceSuite) TestNonAnonymousSubsumesAnonymous() {
	s.grant("alice", "bob", "/watch", false)

	ok, err := s.svc.Check(s.ctx, consent.Consent{
		OwnerID: "alice", ReaderID: "bob", Resource: "/watch", Anonymous: true,
	})
	s.Require().NoError(err)
	s.True(ok)
}

// Storing only the anonymous consent must not make the non-anonymous check pass.
func (s *ConsentServiceSuite) TestAnonymousDoesNotImplyIdentified() {
	s.grant("alice", "bob", "/watch", true)

	ok, err := s.svc.Check(s.ctx, consent.Consent{
		OwnerID: "alice", ReaderID: "bob", Resource: "/watch", Anonymous: false,
	})
	s.Require().NoError(err)
	s.False(ok)
}

func (s *ConsentServiceSuite) TestGrantIsIdempotent() {
	c := s.grant("alice", "bob", "/watch", false)
	s.Require().NoError(s.svc.Grant(s.ctx, c))

	ok, err := s.svc.Check(s.ctx, c)
	s.Require().NoError(err)
	s.True(ok)

	consents, err := s.svc.List(s.ctx, "alice")
	s.Require().NoError(err)
	s.Len(consents, 1)
}

func (s *ConsentServiceSuite) TestRevokeAbsentIsSafe() {
	c := consent.Consent{OwnerID: "alice", ReaderID: "bob", Resource: "/watch", Anonymous: false}
	s.Require().NoError(s.svc.Revoke(s.ctx, c))

	ok, err := s.svc.Check(s.ctx, c)
	s.Require().NoError(err)
	s.False(ok)
}

// Revoking the non-anonymous grant also removes the implied anonymous grant.
func (s *ConsentServiceSuite) TestRevokeRemovesImpliedAnonymousGrant() {
	c := s.grant("alice", "bob", "/watch", false)
	s.Require().NoError(s.svc.Revoke(s.ctx, c))

	ok, err := s.svc.Check(s.ctx, c.WithAnonymous(true))
	s.Require().NoError(err)
	s.False(ok)
}

func (s *ConsentServiceSuite) TestRegistryOutageIsNotSilentSuccess() {
	c := consent.Consent{OwnerID: "alice", ReaderID: "bob", Resource: "/watch", Anonymous: false}
	s.registry.FailWith(sentinel.ErrUnavailable)

	err := s.svc.Grant(s.ctx, c)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeUnavailable))

	err = s.svc.Revoke(s.ctx, c)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeUnavailable))

	_, err = s.svc.Check(s.ctx, c)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeUnavailable))
	s.True(errors.Is(err, sentinel.ErrUnavailable))
}

func (s *ConsentServiceSuite) TestListEmptyForUnknownOwner() {
	consents, err := s.svc.List(s.ctx, "nobody")
	s.Require().NoError(err)
	s.Empty(consents)
	s.NotNil(consents)
}

func (s *ConsentServiceSuite) TestGrantValidatesInput() {
	err := s.svc.Grant(s.ctx, consent.Consent{ReaderID: "bob", Resource: "/watch"})
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))
}

func (s *ConsentServiceSuite) TestBypassFlagPassesAndCounts() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bypassed := New(s.registry, consent.NewInMemoryStore(), logger, metrics.NewForTest(), true)

	ok, err := bypassed.Check(s.ctx, consent.Consent{
		OwnerID: "alice", ReaderID: "bob", Resource: "/watch", Anonymous: false,
	})
	s.Require().NoError(err)
	s.True(ok)
}
