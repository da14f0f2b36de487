package google

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingSession is returned when a provider callback arrives without a
// recoverable state value, so it cannot be attributed to any pending flow.
var ErrMissingSession = errors.New("callback is missing the session state parameter")

// ErrNoCredentials is returned by the resolver when no user has authorized
// anywhere: neither per-user records nor the legacy record exist.
var ErrNoCredentials = errors.New("no authorized users: run the authorization flow first")

// AuthorizationDeniedError reports a provider-side denial, typically the user
// declining consent.
type AuthorizationDeniedError struct {
	Reason string
}

func (e *AuthorizationDeniedError) Error() string {
	return fmt.Sprintf("authorization denied by provider: %s", e.Reason)
}

// TokenExchangeError reports a failed authorization-code exchange. The
// provider's own message is carried verbatim; the flow never retries, the
// user restarts authorization instead.
type TokenExchangeError struct {
	Err error
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed: %v", e.Err)
}

func (e *TokenExchangeError) Unwrap() error { return e.Err }

// UserNotFoundError reports that an explicitly requested user id has no
// stored credential record.
type UserNotFoundError struct {
	UserID string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("no credentials stored for user %q", e.UserID)
}

// AmbiguousUserError reports that more than one user has authorized and the
// caller did not say which one to use. Candidates lets the caller
// disambiguate on a retry.
type AmbiguousUserError struct {
	Candidates []string
}

func (e *AmbiguousUserError) Error() string {
	return fmt.Sprintf("multiple users available, specify a userId: %s", strings.Join(e.Candidates, ", "))
}
