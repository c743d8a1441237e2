package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recproxy/internal/platform/middleware"
)

type stubService struct {
	granted  [][2]string
	revoked  [][2]string
	owners   []string
	listErr  error
	grantErr error
}

func (s *stubService) Grant(_ context.Context, ownerID, readerID string) error {
	if s.grantErr != nil {
		return s.grantErr
	}
	s.granted = append(s.granted, [2]string{ownerID, readerID})
	return nil
}

func (s *stubService) Revoke(_ context.Context, ownerID, readerID string) error {
	s.revoked = append(s.revoked, [2]string{ownerID, readerID})
	return nil
}

func (s *stubService) ListCandidates(_ context.Context, _ string) ([]string, error) {
	return s.owners, s.listErr
}

func newRouter(svc Service) *chi.Mux {
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func asUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), middleware.ContextKeyUserID, userID))
}

func TestListCandidates(t *testing.T) {
	svc := &stubService{owners: []string{"alice", "dave"}}
	r := newRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, asUser(httptest.NewRequest(http.MethodGet, "/reader", nil), "bob"))

	require.Equal(t, http.StatusOK, w.Code)
	var owners []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &owners))
	assert.Equal(t, []string{"alice", "dave"}, owners)
}

func TestAddReaders(t *testing.T) {
	svc := &stubService{}
	r := newRouter(svc)

	body, _ := json.Marshal(ReadersRequest{Readers: []string{"bob", "carol"}})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, asUser(httptest.NewRequest(http.MethodPost, "/reader", bytes.NewReader(body)), "alice"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, [][2]string{{"alice", "bob"}, {"alice", "carol"}}, svc.granted)
}

func TestAddReadersRejectsEmptyList(t *testing.T) {
	r := newRouter(&stubService{})

	body, _ := json.Marshal(ReadersRequest{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, asUser(httptest.NewRequest(http.MethodPost, "/reader", bytes.NewReader(body)), "alice"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRemoveReaders(t *testing.T) {
	svc := &stubService{}
	r := newRouter(svc)

	body, _ := json.Marshal(ReadersRequest{Readers: []string{"bob"}})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, asUser(httptest.NewRequest(http.MethodDelete, "/reader", bytes.NewReader(body)), "alice"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, [][2]string{{"alice", "bob"}}, svc.revoked)
}

func TestUnauthenticatedRejected(t *testing.T) {
	r := newRouter(&stubService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reader", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
