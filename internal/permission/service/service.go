// Package service orchestrates permission-index updates together with the
// credential ACLs they must stay consistent with.
package service

import (
	"context"
	"log/slog"

	"recproxy/internal/permission"
	dErrors "recproxy/pkg/domain-errors"
)

// CredentialACL is the slice of the credential store the permission index
// drives: who may fetch an owner's blobs. Implemented by the credential store.
type CredentialACL interface {
	AddReader(ctx context.Context, ownerID, readerID string) error
	RemoveReader(ctx context.Context, ownerID, readerID string) error
}

type Service struct {
	store  permission.Store
	acl    CredentialACL
	logger *slog.Logger
}

func New(store permission.Store, acl CredentialACL, logger *slog.Logger) *Service {
	return &Service{store: store, acl: acl, logger: logger}
}

// Grant lets reader attempt access against owner's credential store. The ACL
// is updated first; if the index write then fails the ACL grant is rolled back
// so no state remains where the two disagree.
func (s *Service) Grant(ctx context.Context, ownerID, readerID string) error {
	if ownerID == "" || readerID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "owner and reader must not be empty")
	}
	if ownerID == readerID {
		// Self-access is implicit.
		return nil
	}
	if err := s.acl.AddReader(ctx, ownerID, readerID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update credential ACL")
	}
	if err := s.store.Add(ctx, readerID, ownerID); err != nil {
		if rbErr := s.acl.RemoveReader(ctx, ownerID, readerID); rbErr != nil {
			s.logger.ErrorContext(ctx, "ACL rollback failed after index write failure",
				"owner", ownerID, "reader", readerID, "error", rbErr)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update permission index")
	}
	s.logger.InfoContext(ctx, "reader granted", "owner", ownerID, "reader", readerID)
	return nil
}

// Revoke removes reader's standing access. Revoking yourself is a no-op:
// self-access is implicit and cannot be removed through this path. ACL cleanup
// is best-effort; a stale ACL entry without an index entry denies anyway since
// consent checks gate every fetch.
func (s *Service) Revoke(ctx context.Context, ownerID, readerID string) error {
	if ownerID == "" || readerID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "owner and reader must not be empty")
	}
	if ownerID == readerID {
		return nil
	}
	if err := s.store.Remove(ctx, readerID, ownerID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update permission index")
	}
	if err := s.acl.RemoveReader(ctx, ownerID, readerID); err != nil {
		s.logger.WarnContext(ctx, "credential ACL cleanup failed, continuing",
			"owner", ownerID, "reader", readerID, "error", err)
	}
	s.logger.InfoContext(ctx, "reader revoked", "owner", ownerID, "reader", readerID)
	return nil
}

// ListCandidates returns the owners who granted the reader access; an empty
// slice when none have.
func (s *Service) ListCandidates(ctx context.Context, readerID string) ([]string, error) {
	if readerID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "reader must not be empty")
	}
	owners, err := s.store.ListOwners(ctx, readerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list candidates")
	}
	if owners == nil {
		owners = []string{}
	}
	return owners, nil
}

// RevokeAllForOwner strips every reader's access to the owner, index and ACL
// both. Used when an owner deletes their credential store. Partial failures
// are logged and skipped; the sweep continues.
func (s *Service) RevokeAllForOwner(ctx context.Context, ownerID string) error {
	readers, err := s.store.ListReaders(ctx, ownerID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list readers for cleanup")
	}
	for _, readerID := range readers {
		if err := s.store.Remove(ctx, readerID, ownerID); err != nil {
			s.logger.WarnContext(ctx, "permission cleanup failed for reader, continuing",
				"owner", ownerID, "reader", readerID, "error", err)
			continue
		}
		if err := s.acl.RemoveReader(ctx, ownerID, readerID); err != nil {
			s.logger.WarnContext(ctx, "credential ACL cleanup failed for reader, continuing",
				"owner", ownerID, "reader", readerID, "error", err)
		}
	}
	return nil
}
