package broker

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"recproxy/internal/platform/middleware"
)

// TokenIssuer hands out single-use bearer tokens so a browser extension can
// pass authentication into contexts where attaching the JWT is impractical
// (image and media subrequests). A token identifies its user exactly once and
// expires quickly.
type TokenIssuer struct {
	mu     sync.Mutex
	grants map[string]tokenGrant
	ttl    time.Duration
	now    func() time.Time
}

type tokenGrant struct {
	userID    string
	expiresAt time.Time
}

func NewTokenIssuer(ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		grants: make(map[string]tokenGrant),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue mints a fresh one-time token for the user.
func (t *TokenIssuer) Issue(userID string) string {
	token := uuid.NewString()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.purgeLocked()
	t.grants[token] = tokenGrant{userID: userID, expiresAt: t.now().Add(t.ttl)}
	return token
}

// Redeem consumes the token. A token redeems at most once; expired or unknown
// tokens fail.
func (t *TokenIssuer) Redeem(token string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	grant, ok := t.grants[token]
	if !ok {
		return "", false
	}
	delete(t.grants, token)
	if t.now().After(grant.expiresAt) {
		return "", false
	}
	return grant.userID, true
}

func (t *TokenIssuer) purgeLocked() {
	now := t.now()
	for token, grant := range t.grants {
		if now.After(grant.expiresAt) {
			delete(t.grants, token)
		}
	}
}

// Middleware redeems a ?token= query parameter into an authenticated user so
// the regular auth middleware lets the request through. Invalid tokens are
// ignored; the JWT path still applies.
func (t *TokenIssuer) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := r.URL.Query().Get("token"); token != "" {
				if userID, ok := t.Redeem(token); ok {
					ctx := context.WithValue(r.Context(), middleware.ContextKeyUserID, userID)
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
