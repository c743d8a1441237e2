// Package service implements the credential store operations: upload, fetch
// and removal of encrypted cookie and header blobs, with the consent gate on
// every non-owner fetch.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"recproxy/internal/consent"
	"recproxy/internal/credential"
	dErrors "recproxy/pkg/domain-errors"
	"recproxy/pkg/platform/sentinel"
)

// ConsentChecker answers whether an owner currently consents to a reader's
// access. Implemented by the consent service.
type ConsentChecker interface {
	Check(ctx context.Context, c consent.Consent) (bool, error)
}

// PermissionSweeper strips every reader's standing access to an owner.
// Implemented by the permission service.
type PermissionSweeper interface {
	RevokeAllForOwner(ctx context.Context, ownerID string) error
}

// Prober checks freshly uploaded cookies against the scraping target before
// they are accepted. valid=false means the target rejected the session; an
// error means the probe itself could not complete.
type Prober interface {
	Probe(ctx context.Context, cookies []credential.Cookie) (valid bool, err error)
}

type Service struct {
	store   credential.Store
	sealer  *credential.Sealer
	consent ConsentChecker
	sweeper PermissionSweeper
	prober  Prober // nil disables upload validation
	logger  *slog.Logger
	domain  string
	path    string
}

func New(store credential.Store, sealer *credential.Sealer, checker ConsentChecker,
	sweeper PermissionSweeper, prober Prober, logger *slog.Logger, domain, path string) *Service {

	return &Service{
		store:   store,
		sealer:  sealer,
		consent: checker,
		sweeper: sweeper,
		prober:  prober,
		logger:  logger,
		domain:  domain,
		path:    path,
	}
}

// StoreCookies normalizes, validates and encrypts the uploaded cookies, then
// overwrites the owner's cookie blob. The ack names what was accepted but
// never echoes values.
func (s *Service) StoreCookies(ctx context.Context, ownerID string, cookies []credential.Cookie) (credential.Ack, error) {
	if ownerID == "" {
		return credential.Ack{}, dErrors.New(dErrors.CodeBadRequest, "owner must not be empty")
	}
	normalized := credential.Normalize(cookies, s.domain, s.path)
	if len(normalized) == 0 {
		return credential.Ack{}, dErrors.New(dErrors.CodeBadRequest, "no usable cookies in upload")
	}
	if s.prober != nil {
		valid, err := s.prober.Probe(ctx, normalized)
		if err != nil {
			// An inconclusive probe is not the uploader's fault; accept the
			// blob and let a later fetch surface staleness.
			s.logger.WarnContext(ctx, "cookie validation inconclusive, storing anyway",
				"owner", ownerID, "error", err)
		} else if !valid {
			return credential.Ack{}, dErrors.New(dErrors.CodeBadRequest, "cookies were rejected by the target")
		}
	}
	if err := s.saveBlob(ctx, ownerID, credential.KindCookies, normalized); err != nil {
		return credential.Ack{}, err
	}
	s.logger.InfoContext(ctx, "cookies stored", "owner", ownerID, "count", len(normalized))
	return credential.Ack{
		OwnerID: ownerID,
		Kind:    credential.KindCookies,
		Names:   credential.CookieNames(normalized),
	}, nil
}

// GetCookies returns the owner's cookies for the requester. Owners always read
// their own blob; anyone else must be on the record's ACL and hold current
// consent for the resource. A store that was never filled or has been cleared
// yields an empty set, not an error.
func (s *Service) GetCookies(ctx context.Context, ownerID, requesterID, resource string, anonymous bool) ([]credential.Cookie, error) {
	payload, err := s.getBlob(ctx, ownerID, requesterID, resource, anonymous, credential.KindCookies)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return []credential.Cookie{}, nil
	}
	var cookies []credential.Cookie
	if err := json.Unmarshal(payload, &cookies); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "stored cookie blob is corrupt")
	}
	return cookies, nil
}

// RemoveCookies clears the owner's cookie blob and revokes every reader's
// standing access. The record handle survives, so the owner keeps showing up
// as having a (now empty) store.
func (s *Service) RemoveCookies(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "owner must not be empty")
	}
	if err := s.store.Clear(ctx, ownerID, credential.KindCookies); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear cookie store")
	}
	if err := s.sweeper.RevokeAllForOwner(ctx, ownerID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "cookie store cleared but permission cleanup failed")
	}
	s.logger.InfoContext(ctx, "cookie store cleared", "owner", ownerID)
	return nil
}

// StoreHeaders encrypts and overwrites the owner's header blob. Headers with
// empty names are dropped.
func (s *Service) StoreHeaders(ctx context.Context, ownerID string, headers map[string]string) (credential.Ack, error) {
	if ownerID == "" {
		return credential.Ack{}, dErrors.New(dErrors.CodeBadRequest, "owner must not be empty")
	}
	cleaned := make(map[string]string, len(headers))
	for name, value := range headers {
		if name == "" {
			continue
		}
		cleaned[name] = value
	}
	if len(cleaned) == 0 {
		return credential.Ack{}, dErrors.New(dErrors.CodeBadRequest, "no usable headers in upload")
	}
	if err := s.saveBlob(ctx, ownerID, credential.KindHeaders, cleaned); err != nil {
		return credential.Ack{}, err
	}
	s.logger.InfoContext(ctx, "headers stored", "owner", ownerID, "count", len(cleaned))
	return credential.Ack{
		OwnerID: ownerID,
		Kind:    credential.KindHeaders,
		Names:   credential.HeaderNames(cleaned),
	}, nil
}

// GetHeaders mirrors GetCookies for the header blob.
func (s *Service) GetHeaders(ctx context.Context, ownerID, requesterID, resource string, anonymous bool) (map[string]string, error) {
	payload, err := s.getBlob(ctx, ownerID, requesterID, resource, anonymous, credential.KindHeaders)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return map[string]string{}, nil
	}
	var headers map[string]string
	if err := json.Unmarshal(payload, &headers); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "stored header blob is corrupt")
	}
	return headers, nil
}

// RemoveHeaders clears the owner's header blob. Unlike RemoveCookies it does
// not cascade: readers remain valid for the cookie blob.
func (s *Service) RemoveHeaders(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "owner must not be empty")
	}
	if err := s.store.Clear(ctx, ownerID, credential.KindHeaders); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear header store")
	}
	s.logger.InfoContext(ctx, "header store cleared", "owner", ownerID)
	return nil
}

// HasCookies reports whether the owner currently has a non-empty cookie blob.
// Used when filtering owner candidates during matching.
func (s *Service) HasCookies(ctx context.Context, ownerID string) (bool, error) {
	rec, err := s.store.Get(ctx, ownerID, credential.KindCookies)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "credential store lookup failed")
	}
	return !rec.Empty(), nil
}

func (s *Service) saveBlob(ctx context.Context, ownerID string, kind credential.Kind, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to serialize credential blob")
	}
	sealed, err := s.sealer.Seal(payload)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, ownerID, kind, sealed); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist credential blob")
	}
	return nil
}

// getBlob runs the access gate and returns the decrypted payload, or nil when
// the record is absent or cleared. The consent outage path stays distinct from
// denial: a registry failure surfaces as unavailable, never as forbidden.
func (s *Service) getBlob(ctx context.Context, ownerID, requesterID, resource string, anonymous bool, kind credential.Kind) ([]byte, error) {
	if ownerID == "" || requesterID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "owner and requester must not be empty")
	}
	if requesterID != ownerID {
		ok, err := s.consent.Check(ctx, consent.Consent{
			OwnerID:   ownerID,
			ReaderID:  requesterID,
			Resource:  resource,
			Anonymous: anonymous,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, dErrors.New(dErrors.CodeForbidden, "owner has not consented to this access")
		}
	}
	rec, err := s.store.Get(ctx, ownerID, kind)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "credential store lookup failed")
	}
	if requesterID != ownerID && !rec.HasReader(requesterID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "requester is not a reader of this store")
	}
	if rec.Empty() {
		return nil, nil
	}
	return s.sealer.Open(rec.Ciphertext)
}
