package broker

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recproxy/internal/platform/middleware"
)

func TestTokenRedeemsExactlyOnce(t *testing.T) {
	issuer := NewTokenIssuer(time.Minute)
	token := issuer.Issue("bob")

	userID, ok := issuer.Redeem(token)
	require.True(t, ok)
	assert.Equal(t, "bob", userID)

	_, ok = issuer.Redeem(token)
	assert.False(t, ok, "second redemption must fail")
}

func TestUnknownTokenFails(t *testing.T) {
	issuer := NewTokenIssuer(time.Minute)
	_, ok := issuer.Redeem("not-a-token")
	assert.False(t, ok)
}

func TestExpiredTokenFails(t *testing.T) {
	issuer := NewTokenIssuer(time.Minute)
	token := issuer.Issue("bob")

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, ok := issuer.Redeem(token)
	assert.False(t, ok)
}

func TestTokenMiddlewareIdentifiesUser(t *testing.T) {
	issuer := NewTokenIssuer(time.Minute)
	token := issuer.Issue("bob")

	var gotUser string
	h := issuer.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = middleware.GetUserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/youtube?token="+token, nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "bob", gotUser)

	gotUser = ""
	req = httptest.NewRequest(http.MethodGet, "/youtube?token="+token, nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Empty(t, gotUser, "token must not identify anyone twice")
}
