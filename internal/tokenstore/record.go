package tokenstore

import (
	"fmt"
	"time"
)

// Record holds one authorized user's Google Calendar credentials.
//
// UserID is the opaque identifier minted by the authorization flow; it doubles
// as the storage key. ExpiryDate is epoch milliseconds and advisory only:
// staleness is decided by comparing against the clock at read time, the store
// never enforces it.
type Record struct {
	UserID       string `json:"userId"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiryDate   int64  `json:"expiryDate,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`

	// legacy marks a record read from the single-tenant fallback file
	// rather than the per-user directory. Write-backs must land in the
	// same place the record came from.
	legacy bool
}

// Legacy reports whether the record was read from the single-tenant
// fallback file. Such records may have no UserID.
func (r *Record) Legacy() bool { return r.legacy }

// Validate reports whether the record is structurally storable.
// A record without an access token must never be persisted.
func (r *Record) Validate() error {
	if r.AccessToken == "" {
		return fmt.Errorf("credential record has no access token")
	}
	return nil
}

// Expiry returns the advisory expiry as a time.Time, or the zero time when the
// provider did not report one.
func (r *Record) Expiry() time.Time {
	if r.ExpiryDate == 0 {
		return time.Time{}
	}
	return time.UnixMilli(r.ExpiryDate)
}

// Expired reports whether the access token is stale relative to now.
// Records without an expiry are treated as not expired; the remote service is
// the final authority either way.
func (r *Record) Expired(now time.Time) bool {
	if r.ExpiryDate == 0 {
		return false
	}
	return now.After(r.Expiry())
}
