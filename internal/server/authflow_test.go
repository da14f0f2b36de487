package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/sundialhq/sundial/internal/google"
	"github.com/sundialhq/sundial/internal/tokenstore"
)

func newTestAuthServer(t *testing.T, tokenURL string) (*AuthServer, *tokenstore.FileStore) {
	t.Helper()

	store := tokenstore.NewFileStore(t.TempDir())
	cfg := &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:3000/google/callback",
		Endpoint:     oauth2.Endpoint{AuthURL: "https://auth.example.com/auth", TokenURL: tokenURL},
	}
	flow := google.NewFlow(cfg, store)

	srv := NewAuthServer(AuthServerConfig{
		Flow:  flow,
		Store: store,
	})
	return srv, store
}

func TestIndexPage(t *testing.T) {
	srv, store := newTestAuthServer(t, "https://auth.example.com/token")
	require.NoError(t, store.Put("cafe0123", &tokenstore.Record{AccessToken: "tok"}))

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "https://auth.example.com/auth")
	assert.Contains(t, body, "access_type=offline")
	assert.Contains(t, body, "cafe0123")
}

func TestCallbackSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"ya29.new","refresh_token":"1//rt","token_type":"Bearer","expires_in":3600}`)
	}))
	defer ts.Close()

	srv, store := newTestAuthServer(t, ts.URL)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/google/callback?code=abc&state=deadbeef01020304", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "deadbeef01020304", "page shows the user id for copy/paste")

	rec, err := store.Get("deadbeef01020304")
	require.NoError(t, err)
	assert.Equal(t, "ya29.new", rec.AccessToken)
}

func TestCallbackDenied(t *testing.T) {
	srv, store := newTestAuthServer(t, "https://auth.example.com/token")

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/google/callback?error=access_denied&state=deadbeef01020304", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "declined")

	ids, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, ids, "denial must not store credentials")
}

func TestCallbackMissingState(t *testing.T) {
	srv, _ := newTestAuthServer(t, "https://auth.example.com/token")

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/google/callback?code=abc", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Session missing")
}

func TestCallbackExchangeFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer ts.Close()

	srv, _ := newTestAuthServer(t, ts.URL)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/google/callback?code=bad&state=deadbeef01020304", nil))

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "Token exchange failed")
}

func TestUsersEndpoint(t *testing.T) {
	srv, store := newTestAuthServer(t, "https://auth.example.com/token")
	require.NoError(t, store.Put("alice", &tokenstore.Record{AccessToken: "tok", CreatedAt: "2025-06-01T12:00:00Z"}))

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Users []struct {
			UserID    string `json:"userId"`
			CreatedAt string `json:"createdAt"`
		} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Users, 1)
	assert.Equal(t, "alice", resp.Users[0].UserID)
	assert.Equal(t, "2025-06-01T12:00:00Z", resp.Users[0].CreatedAt)
}

func TestTokenEndpoint(t *testing.T) {
	srv, store := newTestAuthServer(t, "https://auth.example.com/token")
	require.NoError(t, store.Put("alice", &tokenstore.Record{AccessToken: "tok", RefreshToken: "1//secret"}))

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tokens/alice", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "1//secret", "refresh token must never leave the server")
	assert.Contains(t, rr.Body.String(), `"hasRefreshToken":true`)

	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tokens/nobody", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServerContextShutdownIdempotent(t *testing.T) {
	sc, err := NewServerContext(context.Background(), &google.ClientConfig{ClientID: "id", ClientSecret: "s"}, t.TempDir())
	require.NoError(t, err)

	require.NoError(t, sc.Shutdown())
	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.Error(t, sc.Context().Err())
}

func TestHealthEndpoints(t *testing.T) {
	sc, err := NewServerContext(context.Background(), &google.ClientConfig{ClientID: "id", ClientSecret: "s"}, t.TempDir())
	require.NoError(t, err)
	h := NewHealthChecker(sc)

	mux := http.NewServeMux()
	h.RegisterHealthEndpoints(mux)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	require.NoError(t, sc.Shutdown())
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
