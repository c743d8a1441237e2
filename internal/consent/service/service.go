// Package service implements the consent ledger operations: grant, revoke,
// check and list. The external registry is the source of truth for membership;
// the local store mirrors grants for enumeration.
package service

import (
	"context"
	"log/slog"

	"recproxy/internal/consent"
	"recproxy/internal/platform/metrics"
	"recproxy/internal/registry"
	dErrors "recproxy/pkg/domain-errors"
)

// Service answers all consent questions. Checks are unconditional; the bypass
// flag exists for local development only and every skipped check is logged and
// counted.
type Service struct {
	registry registry.Client
	store    consent.Store
	logger   *slog.Logger
	metrics  *metrics.Metrics
	bypass   bool
}

func New(reg registry.Client, store consent.Store, logger *slog.Logger, m *metrics.Metrics, bypass bool) *Service {
	if bypass {
		logger.Warn("CONSENT BYPASS ENABLED - all consent checks will pass; never run this in production")
	}
	return &Service{registry: reg, store: store, logger: logger, metrics: m, bypass: bypass}
}

// Grant stores the consent hash in the registry and mirrors it locally.
// Idempotent: granting an already-present consent succeeds.
func (s *Service) Grant(ctx context.Context, c consent.Consent) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.registry.StoreHash(ctx, c.Hash()); err != nil {
		// The caller must not believe a grant took effect when the registry
		// write failed.
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "consent registry write failed")
	}
	if err := s.store.Save(ctx, c); err != nil {
		// The grant is live on the ledger; a mirror failure only degrades
		// enumeration. Surface it so the caller can retry the mirror write.
		return dErrors.Wrap(err, dErrors.CodeInternal, "consent granted but mirror update failed")
	}
	s.logger.InfoContext(ctx, "consent granted",
		"owner", c.OwnerID, "reader", c.ReaderID, "anonymous", c.Anonymous)
	return nil
}

// Revoke removes the consent hash. Revoking an absent consent is a successful
// no-op; a registry communication failure is not, and is never reported as
// success.
func (s *Service) Revoke(ctx context.Context, c consent.Consent) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.registry.RevokeHash(ctx, c.Hash()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "consent registry revoke failed")
	}
	if err := s.store.Remove(ctx, c); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "consent revoked but mirror update failed")
	}
	s.logger.InfoContext(ctx, "consent revoked",
		"owner", c.OwnerID, "reader", c.ReaderID, "anonymous", c.Anonymous)
	return nil
}

// Check reports whether the consent is currently granted. An anonymous check
// also passes when the non-anonymous variant is on the ledger: identifying
// yourself to a reader grants at least what staying anonymous would. The
// reverse does not hold.
func (s *Service) Check(ctx context.Context, c consent.Consent) (bool, error) {
	if s.bypass {
		s.logger.WarnContext(ctx, "consent check bypassed by development flag",
			"owner", c.OwnerID, "reader", c.ReaderID)
		s.metrics.BypassedChecks.Inc()
		return true, nil
	}

	ok, err := s.registry.HashExists(ctx, c.Hash())
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "consent registry lookup failed")
	}
	if !ok && c.Anonymous {
		ok, err = s.registry.HashExists(ctx, c.WithAnonymous(false).Hash())
		if err != nil {
			return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "consent registry lookup failed")
		}
	}

	result := "denied"
	if ok {
		result = "granted"
	}
	s.metrics.ConsentChecks.WithLabelValues(result).Inc()
	return ok, nil
}

// List returns all non-revoked consents the owner has issued. Owners with no
// grants get an empty slice, not an error.
func (s *Service) List(ctx context.Context, ownerID string) ([]consent.Consent, error) {
	if ownerID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "owner must not be empty")
	}
	consents, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list consents")
	}
	if consents == nil {
		consents = []consent.Consent{}
	}
	return consents, nil
}
