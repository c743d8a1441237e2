package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recproxy/internal/credential"
)

func TestNavigatorAttachesCredentials(t *testing.T) {
	var gotCookie, gotAgent, gotCustom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotAgent = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-Custom")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	nav := NewHTTPNavigator(time.Second, 100, 10)
	status, body, err := nav.Fetch(context.Background(), srv.URL,
		[]credential.Cookie{{Name: "SID", Value: "abc"}, {Name: "HSID", Value: "def"}},
		map[string]string{"X-Custom": "yes"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, "SID=abc; HSID=def", gotCookie)
	assert.NotEmpty(t, gotAgent)
	assert.Equal(t, "yes", gotCustom)
}

func TestNavigatorDoesNotFollowRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/consent" {
			t.Error("redirect must not be followed")
		}
		http.Redirect(w, r, "/consent", http.StatusFound)
	}))
	defer srv.Close()

	nav := NewHTTPNavigator(time.Second, 100, 10)
	status, _, err := nav.Fetch(context.Background(), srv.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, status)
}

func TestNavigatorHonorsContextDuringRateLimit(t *testing.T) {
	// One request per minute with no burst: the second fetch must block on
	// the limiter and bail out when the context expires.
	nav := NewHTTPNavigator(time.Second, 1.0/60, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	_, _, err := nav.Fetch(context.Background(), srv.URL, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, _, err = nav.Fetch(ctx, srv.URL, nil, nil)
	assert.Error(t, err)
}
