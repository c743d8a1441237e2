package broker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMatcherFindsMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/match", r.URL.Path)

		var req matchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "bob", req.Reader)
		assert.Equal(t, []string{"alice", "dave"}, req.Candidates)

		json.NewEncoder(w).Encode(matchResponse{Owner: "alice"})
	}))
	defer srv.Close()

	matcher := NewHTTPMatcher(srv.URL, time.Second)
	owner, err := matcher.FindMatch(context.Background(), "bob", []string{"alice", "dave"}, "https://www.youtube.com/")
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)
}

func TestHTTPMatcherNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	matcher := NewHTTPMatcher(srv.URL, time.Second)
	owner, err := matcher.FindMatch(context.Background(), "bob", []string{"alice"}, "https://www.youtube.com/")
	require.NoError(t, err)
	assert.Empty(t, owner)
}

func TestHTTPMatcherRecordsPairing(t *testing.T) {
	var got pairingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pairings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	matcher := NewHTTPMatcher(srv.URL, time.Second)
	matcher.RecordPairing(context.Background(), "bob", "dave")
	assert.Equal(t, pairingRequest{Reader: "bob", Owner: "dave"}, got)
}

func TestHTTPMatcherServerErrorIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	matcher := NewHTTPMatcher(srv.URL, time.Second)
	_, err := matcher.FindMatch(context.Background(), "bob", []string{"alice"}, "https://www.youtube.com/")
	assert.Error(t, err)
}
