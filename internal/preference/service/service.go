// Package service guards the sticky owner preference: a user may only pin an
// owner who has actually granted them reader access.
package service

import (
	"context"
	"errors"
	"log/slog"

	"recproxy/internal/preference"
	dErrors "recproxy/pkg/domain-errors"
	"recproxy/pkg/platform/sentinel"
)

// CandidateLister answers which owners granted the reader standing access.
// Implemented by the permission service.
type CandidateLister interface {
	ListCandidates(ctx context.Context, readerID string) ([]string, error)
}

type Service struct {
	store      preference.Store
	candidates CandidateLister
	logger     *slog.Logger
}

func New(store preference.Store, candidates CandidateLister, logger *slog.Logger) *Service {
	return &Service{store: store, candidates: candidates, logger: logger}
}

// Set pins ownerID as the user's preferred session owner. Pinning an owner who
// never granted the user reader access is refused; otherwise a user could
// steer matching toward stores they have no standing for.
func (s *Service) Set(ctx context.Context, userID, ownerID string) error {
	if userID == "" || ownerID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "user and owner must not be empty")
	}
	if userID != ownerID {
		owners, err := s.candidates.ListCandidates(ctx, userID)
		if err != nil {
			return err
		}
		granted := false
		for _, id := range owners {
			if id == ownerID {
				granted = true
				break
			}
		}
		if !granted {
			return dErrors.New(dErrors.CodeForbidden, "owner has not granted you reader access")
		}
	}
	if err := s.store.Set(ctx, userID, ownerID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store preference")
	}
	s.logger.InfoContext(ctx, "preference set", "user", userID, "owner", ownerID)
	return nil
}

// Get returns the user's pinned owner, or empty when none is set.
func (s *Service) Get(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "user must not be empty")
	}
	ownerID, err := s.store.Get(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to read preference")
	}
	return ownerID, nil
}

// Clear removes the pin. Clearing an absent preference succeeds.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "user must not be empty")
	}
	if err := s.store.Delete(ctx, userID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear preference")
	}
	s.logger.InfoContext(ctx, "preference cleared", "user", userID)
	return nil
}
