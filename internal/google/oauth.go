package google

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"github.com/sundialhq/sundial/internal/logging"
	"github.com/sundialhq/sundial/internal/tokenstore"
)

// sessionIDBytes is the entropy of a minted session id. 8 random bytes,
// hex-encoded, gives a 16-character opaque identifier that also becomes the
// user id once the flow completes.
const sessionIDBytes = 8

// Flow runs the OAuth authorization-code flow: it mints session ids, builds
// authorization URLs carrying them as the anti-forgery state, and exchanges
// callback codes for credential records written to the store.
//
// No pending-session object is tracked server-side; the state round-trip
// through the provider is the whole session.
type Flow struct {
	cfg    *oauth2.Config
	store  *tokenstore.FileStore
	logger *slog.Logger
	now    func() time.Time
}

// NewFlow creates an authorization flow over the given oauth2 config and
// credential store.
func NewFlow(cfg *oauth2.Config, store *tokenstore.FileStore) *Flow {
	return &Flow{
		cfg:    cfg,
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
}

// SetLogger sets a custom logger for the flow.
func (f *Flow) SetLogger(logger *slog.Logger) { f.logger = logger }

// BeginAuthorization mints a fresh session id and returns the provider
// authorization URL embedding it as the state parameter. Offline access is
// requested and consent is forced so a refresh token is issued even for
// returning users.
func (f *Flow) BeginAuthorization() (authURL, sessionID string, err error) {
	sessionID, err = NewSessionID()
	if err != nil {
		return "", "", err
	}

	authURL = f.cfg.AuthCodeURL(sessionID,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
	)

	f.logger.Debug("authorization started", logging.Operation("begin_authorization"), logging.UserID(sessionID))
	return authURL, sessionID, nil
}

// HandleCallback consumes a provider redirect. errParam is the provider's
// error query parameter, sessionID the state value. On success the exchanged
// credentials are written to the store under sessionID and the new record is
// returned.
//
// Exactly one exchange is attempted; on failure the caller restarts from
// BeginAuthorization.
func (f *Flow) HandleCallback(ctx context.Context, code, errParam, sessionID string) (*tokenstore.Record, error) {
	if errParam != "" {
		f.logger.Warn("authorization denied", logging.Operation("handle_callback"), slog.String("reason", errParam))
		return nil, &AuthorizationDeniedError{Reason: errParam}
	}
	if sessionID == "" {
		f.logger.Warn("callback without state", logging.Operation("handle_callback"))
		return nil, ErrMissingSession
	}

	tok, err := f.cfg.Exchange(ctx, code)
	if err != nil {
		f.logger.Error("token exchange failed", logging.Operation("handle_callback"), logging.UserID(sessionID), logging.Err(err))
		return nil, &TokenExchangeError{Err: err}
	}

	rec := &tokenstore.Record{
		UserID:       sessionID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		CreatedAt:    f.now().UTC().Format(time.RFC3339),
	}
	if !tok.Expiry.IsZero() {
		rec.ExpiryDate = tok.Expiry.UnixMilli()
	}

	if err := f.store.Put(sessionID, rec); err != nil {
		return nil, err
	}

	f.logger.Info("user authorized",
		logging.Operation("handle_callback"),
		logging.UserID(sessionID),
		slog.Bool("refresh_token", rec.RefreshToken != ""),
	)
	return rec, nil
}

// NewSessionID returns a fresh opaque identifier for an authorization
// session. Identifiers are collision-free for any practical population size.
func NewSessionID() (string, error) {
	buf := make([]byte, sessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
