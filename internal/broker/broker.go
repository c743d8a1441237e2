// Package broker decides whose session a scrape request rides on and
// assembles the credentials for it. Resolution walks a fixed waterfall:
// an explicitly requested owner, then the requester's pinned preference,
// then the external matchmaker, then a random consenting owner, and finally
// the requester's own store.
package broker

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"recproxy/internal/consent"
	"recproxy/internal/credential"
	"recproxy/internal/platform/metrics"
	dErrors "recproxy/pkg/domain-errors"
	audit "recproxy/pkg/platform/audit"
)

// Waterfall stages, in resolution order.
const (
	StageExplicit   = "explicit"
	StagePreference = "preference"
	StageMatched    = "matched"
	StageRandom     = "random"
	StageSelf       = "self"
)

type CandidateLister interface {
	ListCandidates(ctx context.Context, readerID string) ([]string, error)
}

type PreferenceReader interface {
	Get(ctx context.Context, userID string) (string, error)
}

type CredentialReader interface {
	GetCookies(ctx context.Context, ownerID, requesterID, resource string, anonymous bool) ([]credential.Cookie, error)
	GetHeaders(ctx context.Context, ownerID, requesterID, resource string, anonymous bool) (map[string]string, error)
	HasCookies(ctx context.Context, ownerID string) (bool, error)
}

type ConsentChecker interface {
	Check(ctx context.Context, c consent.Consent) (bool, error)
}

// Matcher pairs a reader with an owner out of the candidate set. An empty
// owner means no match; the waterfall continues.
type Matcher interface {
	FindMatch(ctx context.Context, readerID string, candidates []string, resource string) (string, error)
}

// PairingRecorder is the optional matcher extension that learns from sticky
// pairs resolved outside matchmaking. Best-effort; failures are ignored.
type PairingRecorder interface {
	RecordPairing(ctx context.Context, readerID, ownerID string)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Session is a resolved credential bundle ready for the scraper. Anonymous
// sessions must never reveal OwnerID to the requester. RequestToken is an
// opaque per-acquisition value echoed back for telemetry correlation.
type Session struct {
	OwnerID      string
	Stage        string
	Anonymous    bool
	RequestToken string
	Cookies      []credential.Cookie
	Headers      map[string]string
}

type Broker struct {
	permissions CandidateLister
	preferences PreferenceReader
	credentials CredentialReader
	consent     ConsentChecker
	matcher     Matcher // nil skips the matchmaking stage
	auditor     AuditPublisher
	logger      *slog.Logger
	metrics     *metrics.Metrics

	// rootURI is the canonical consent resource. Owners grant access to the
	// target site as a whole, not to individual pages, so both candidate
	// vetting and the credential fetch authorize against this one value.
	rootURI string
}

func New(permissions CandidateLister, preferences PreferenceReader, credentials CredentialReader,
	checker ConsentChecker, matcher Matcher, auditor AuditPublisher,
	logger *slog.Logger, m *metrics.Metrics, rootURI string) *Broker {

	return &Broker{
		permissions: permissions,
		preferences: preferences,
		credentials: credentials,
		consent:     checker,
		matcher:     matcher,
		auditor:     auditor,
		logger:      logger,
		metrics:     m,
		rootURI:     rootURI,
	}
}

// Acquire resolves an owner for the reader and fetches that owner's
// credentials. requestedOwner pins the explicit stage; empty lets the
// waterfall run. A denial (no consent, not a reader) is forbidden; a registry
// or store outage is unavailable, and the two are never conflated.
func (b *Broker) Acquire(ctx context.Context, readerID, requestedOwner, resource string) (*Session, error) {
	if readerID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthenticated, "could not identify requesting user")
	}

	// Reciprocity gate: whoever wants to ride someone's session must have
	// contributed their own first.
	has, err := b.credentials.HasCookies(ctx, readerID)
	if err != nil {
		return nil, err
	}
	if !has {
		err := dErrors.New(dErrors.CodeForbidden, "store your own cookies before requesting a session")
		b.deny(ctx, readerID, requestedOwner, resource, err)
		return nil, err
	}

	ownerID, stage, err := b.resolveOwner(ctx, readerID, requestedOwner, resource)
	if err != nil {
		b.deny(ctx, readerID, requestedOwner, resource, err)
		return nil, err
	}

	sess := &Session{
		OwnerID:      ownerID,
		Stage:        stage,
		Anonymous:    stage == StageMatched || stage == StageRandom,
		RequestToken: uuid.NewString(),
	}
	if err := b.fetch(ctx, sess, readerID); err != nil {
		b.deny(ctx, readerID, ownerID, resource, err)
		return nil, err
	}

	b.metrics.OwnerResolutions.WithLabelValues(stage).Inc()
	b.emit(ctx, audit.Event{
		UserID:   readerID,
		Action:   string(audit.EventAccessGranted),
		Subject:  ownerID,
		Resource: resource,
		Metadata: map[string]string{"stage": stage},
	})
	b.logger.InfoContext(ctx, "session acquired", "reader", readerID, "stage", stage)
	return sess, nil
}

func (b *Broker) resolveOwner(ctx context.Context, readerID, requestedOwner, resource string) (string, string, error) {
	if requestedOwner != "" {
		// Authorization for an explicit owner happens at fetch time, where
		// consent and the ACL are enforced.
		return requestedOwner, StageExplicit, nil
	}

	if ownerID := b.preferredOwner(ctx, readerID); ownerID != "" {
		if rec, ok := b.matcher.(PairingRecorder); ok {
			rec.RecordPairing(ctx, readerID, ownerID)
		}
		return ownerID, StagePreference, nil
	}

	candidates, err := b.permissions.ListCandidates(ctx, readerID)
	if err != nil {
		return "", "", dErrors.Wrap(err, dErrors.CodeUnavailable, "could not list owner candidates")
	}
	candidates = without(candidates, readerID)

	if b.matcher != nil && len(candidates) > 0 {
		ownerID, err := b.matcher.FindMatch(ctx, readerID, candidates, resource)
		if err != nil {
			// The matchmaker is an optimization; its outage never blocks.
			b.logger.WarnContext(ctx, "matchmaker unavailable, falling through",
				"reader", readerID, "error", err)
		} else if ownerID != "" {
			usable, err := b.usable(ctx, readerID, ownerID)
			if err == nil && usable {
				return ownerID, StageMatched, nil
			}
		}
	}

	ownerID, outage := b.pickRandom(ctx, readerID, candidates)
	if ownerID != "" {
		return ownerID, StageRandom, nil
	}
	if outage != nil {
		// Candidates existed but could not be vetted; degrading to the
		// reader's own (possibly empty) store would hide the failure.
		return "", "", dErrors.Wrap(outage, dErrors.CodeUnavailable, "owner matching degraded by registry outage")
	}

	return readerID, StageSelf, nil
}

// preferredOwner returns the reader's pinned owner when the pin is still
// usable: the owner has cookies and has not revoked consent since the pin was
// set. The pin names the owner, so the non-anonymous consent variant applies.
// Preference lookups are best-effort.
func (b *Broker) preferredOwner(ctx context.Context, readerID string) string {
	ownerID, err := b.preferences.Get(ctx, readerID)
	if err != nil {
		b.logger.WarnContext(ctx, "preference lookup failed, falling through",
			"reader", readerID, "error", err)
		return ""
	}
	if ownerID == "" {
		return ""
	}
	if ownerID == readerID {
		return ownerID
	}
	usable, err := b.usableAs(ctx, readerID, ownerID, false)
	if err != nil || !usable {
		return ""
	}
	return ownerID
}

// pickRandom tries candidates in random order, at most one pass, and returns
// the first owner with cookies and current anonymous consent. When every
// candidate fails because checks errored, the last error comes back so the
// caller can distinguish an outage from honest denials.
func (b *Broker) pickRandom(ctx context.Context, readerID string, candidates []string) (string, error) {
	shuffled := append([]string(nil), candidates...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	var lastErr error
	for _, ownerID := range shuffled {
		usable, err := b.usable(ctx, readerID, ownerID)
		if err != nil {
			lastErr = err
			continue
		}
		if usable {
			return ownerID, nil
		}
	}
	return "", lastErr
}

func (b *Broker) usable(ctx context.Context, readerID, ownerID string) (bool, error) {
	return b.usableAs(ctx, readerID, ownerID, true)
}

func (b *Broker) usableAs(ctx context.Context, readerID, ownerID string, anonymous bool) (bool, error) {
	has, err := b.credentials.HasCookies(ctx, ownerID)
	if err != nil {
		return false, err
	}
	if !has {
		return false, nil
	}
	return b.consent.Check(ctx, consent.Consent{
		OwnerID:   ownerID,
		ReaderID:  readerID,
		Resource:  b.rootURI,
		Anonymous: anonymous,
	})
}

// fetch loads cookies and headers concurrently; both go through the
// credential service's consent gate, authorized against rootURI. The gate
// must see the same resource vetting saw, or a vetted candidate would be
// denied at fetch time.
func (b *Broker) fetch(ctx context.Context, sess *Session, readerID string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cookies, err := b.credentials.GetCookies(gctx, sess.OwnerID, readerID, b.rootURI, sess.Anonymous)
		if err != nil {
			return err
		}
		sess.Cookies = cookies
		return nil
	})
	g.Go(func() error {
		headers, err := b.credentials.GetHeaders(gctx, sess.OwnerID, readerID, b.rootURI, sess.Anonymous)
		if err != nil {
			return err
		}
		sess.Headers = headers
		return nil
	})
	return g.Wait()
}

func (b *Broker) deny(ctx context.Context, readerID, ownerID, resource string, err error) {
	code := string(dErrors.CodeOf(err))
	b.metrics.AccessDenials.WithLabelValues(code).Inc()
	b.emit(ctx, audit.Event{
		UserID:   readerID,
		Action:   string(audit.EventAccessDenied),
		Subject:  ownerID,
		Resource: resource,
		Metadata: map[string]string{"code": code},
	})
}

func (b *Broker) emit(ctx context.Context, event audit.Event) {
	if b.auditor == nil {
		return
	}
	if err := b.auditor.Emit(ctx, event); err != nil {
		b.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

func without(ids []string, exclude string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}
