package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sundialhq/sundial/internal/google"
	"github.com/sundialhq/sundial/internal/instrumentation"
	"github.com/sundialhq/sundial/internal/logging"
	"github.com/sundialhq/sundial/internal/tokenstore"
)

// DefaultAuthAddr is the default address for the authorization listener. It
// matches the default OAuth redirect URL.
const DefaultAuthAddr = ":3000"

// AuthServerConfig holds configuration for the authorization listener.
type AuthServerConfig struct {
	Addr    string
	Flow    *google.Flow
	Store   *tokenstore.FileStore
	Metrics *instrumentation.Metrics
	Health  *HealthChecker
}

// AuthServer is the HTTP listener that walks a user through the OAuth
// consent flow: a landing page with the authorization link, the provider
// callback, and a small JSON API for inspecting who has authorized.
type AuthServer struct {
	cfg        AuthServerConfig
	logger     *slog.Logger
	httpServer *http.Server
}

// NewAuthServer creates the authorization listener.
func NewAuthServer(cfg AuthServerConfig) *AuthServer {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAuthAddr
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &instrumentation.Metrics{}
	}
	return &AuthServer{
		cfg:    cfg,
		logger: slog.Default(),
	}
}

// SetLogger sets a custom logger for the listener.
func (s *AuthServer) SetLogger(logger *slog.Logger) { s.logger = logger }

// Handler returns the full route table, wrapped with request metrics.
func (s *AuthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /google/callback", s.handleCallback)
	mux.HandleFunc("GET /api/users", s.handleUsers)
	mux.HandleFunc("GET /api/tokens/{userId}", s.handleToken)
	if s.cfg.Health != nil {
		s.cfg.Health.RegisterHealthEndpoints(mux)
	}
	return s.withMetrics(mux)
}

// withMetrics records count and duration per request.
func (s *AuthServer) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.cfg.Metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, sw.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (s *AuthServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	authURL, _, err := s.cfg.Flow.BeginAuthorization()
	if err != nil {
		s.logger.Error("failed to build authorization URL", logging.Err(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	users, err := s.cfg.Store.List()
	if err != nil {
		s.logger.Warn("failed to list users for landing page", logging.Err(err))
	}

	renderPage(w, http.StatusOK, pageData{
		Title:      "Connect your Google Calendar",
		Paragraphs: []string{"Authorize access so your assistant can check availability and manage events on your behalf."},
		AuthURL:    authURL,
		Users:      users,
	})
}

func (s *AuthServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := q.Get("code")
	errParam := q.Get("error")
	sessionID := q.Get("state")

	rec, err := s.cfg.Flow.HandleCallback(r.Context(), code, errParam, sessionID)
	if err == nil {
		s.cfg.Metrics.RecordOAuthExchange(r.Context(), instrumentation.OAuthResultSuccess)
		renderPage(w, http.StatusOK, pageData{
			Title:      "Calendar connected",
			Paragraphs: []string{"Authorization complete. You can close this tab."},
			UserID:     rec.UserID,
		})
		return
	}

	var denied *google.AuthorizationDeniedError
	switch {
	case errors.As(err, &denied):
		s.cfg.Metrics.RecordOAuthExchange(r.Context(), instrumentation.OAuthResultDenied)
		renderPage(w, http.StatusOK, pageData{
			Title:      "Authorization declined",
			IsError:    true,
			Paragraphs: []string{"You declined access. No credentials were stored.", "Reload the start page to try again."},
		})
	case errors.Is(err, google.ErrMissingSession):
		s.cfg.Metrics.RecordOAuthExchange(r.Context(), instrumentation.OAuthResultFailure)
		renderPage(w, http.StatusBadRequest, pageData{
			Title:      "Session missing",
			IsError:    true,
			Paragraphs: []string{"The callback arrived without a session. Start the flow again from the landing page."},
		})
	default:
		s.cfg.Metrics.RecordOAuthExchange(r.Context(), instrumentation.OAuthResultFailure)
		s.logger.Error("callback handling failed", logging.Err(err))
		renderPage(w, http.StatusBadGateway, pageData{
			Title:      "Token exchange failed",
			IsError:    true,
			Paragraphs: []string{"Google rejected the authorization code. Start the flow again from the landing page."},
		})
	}
}

// userInfo is the public listing shape: no token material.
type userInfo struct {
	UserID    string `json:"userId"`
	CreatedAt string `json:"createdAt,omitempty"`
}

func (s *AuthServer) handleUsers(w http.ResponseWriter, r *http.Request) {
	ids, err := s.cfg.Store.List()
	if err != nil {
		http.Error(w, "failed to list users", http.StatusInternalServerError)
		return
	}

	users := make([]userInfo, 0, len(ids))
	for _, id := range ids {
		info := userInfo{UserID: id}
		if rec, err := s.cfg.Store.Get(id); err == nil {
			info.CreatedAt = rec.CreatedAt
		}
		users = append(users, info)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"users": users})
}

// tokenInfo exposes a record for debugging, with the refresh token withheld.
type tokenInfo struct {
	UserID      string `json:"userId"`
	AccessToken string `json:"accessToken"`
	ExpiryDate  int64  `json:"expiryDate,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	HasRefresh  bool   `json:"hasRefreshToken"`
}

func (s *AuthServer) handleToken(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	rec, err := s.cfg.Store.Get(userID)
	if err != nil {
		if errors.Is(err, tokenstore.ErrNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to read record", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(tokenInfo{
		UserID:      rec.UserID,
		AccessToken: rec.AccessToken,
		ExpiryDate:  rec.ExpiryDate,
		CreatedAt:   rec.CreatedAt,
		HasRefresh:  rec.RefreshToken != "",
	})
}

// Start runs the listener. It blocks until Shutdown or a listener error.
func (s *AuthServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting authorization listener", slog.String("addr", s.cfg.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the listener.
func (s *AuthServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		s.logger.Info("shutting down authorization listener")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
