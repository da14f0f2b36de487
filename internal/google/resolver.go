package google

import (
	"errors"
	"log/slog"

	"github.com/sundialhq/sundial/internal/logging"
	"github.com/sundialhq/sundial/internal/tokenstore"
)

// Resolver decides which credential record a call runs under.
//
// Resolution is three-tier: an explicit user id wins; otherwise the legacy
// single-tenant record is used when present; otherwise the per-user records
// are enumerated and a lone user is auto-selected. Zero users fails with
// ErrNoCredentials, more than one with *AmbiguousUserError. The tiering lets
// a single-user deployment omit the identifier entirely while many
// simultaneous users stay addressable by id.
type Resolver struct {
	store  *tokenstore.FileStore
	logger *slog.Logger
}

// NewResolver creates a resolver over the given store.
func NewResolver(store *tokenstore.FileStore) *Resolver {
	return &Resolver{store: store, logger: slog.Default()}
}

// SetLogger sets a custom logger for the resolver.
func (r *Resolver) SetLogger(logger *slog.Logger) { r.logger = logger }

// Resolve returns the credential record for explicitUserID, or applies the
// fallback tiers when it is empty. Corrupt records are logged and treated as
// absent.
func (r *Resolver) Resolve(explicitUserID string) (*tokenstore.Record, error) {
	if explicitUserID != "" {
		rec, err := r.store.Get(explicitUserID)
		if err != nil {
			var corrupt *tokenstore.CorruptRecordError
			if errors.As(err, &corrupt) {
				r.logger.Error("corrupt credential record", logging.UserID(explicitUserID), logging.Err(err))
				return nil, &UserNotFoundError{UserID: explicitUserID}
			}
			if errors.Is(err, tokenstore.ErrNotFound) {
				return nil, &UserNotFoundError{UserID: explicitUserID}
			}
			return nil, err
		}
		return rec, nil
	}

	// Tier 2: legacy single-tenant record.
	if legacy, err := r.store.GetLegacy(); err == nil {
		return legacy, nil
	} else if !errors.Is(err, tokenstore.ErrNotFound) {
		r.logger.Warn("legacy credential record unreadable", logging.Err(err))
	}

	// Tier 3: enumerate per-user records.
	ids, err := r.store.List()
	if err != nil {
		return nil, err
	}

	var usable []string
	for _, id := range ids {
		if r.store.Exists(id) {
			usable = append(usable, id)
		} else {
			r.logger.Warn("skipping unreadable credential record", logging.UserID(id))
		}
	}

	switch len(usable) {
	case 0:
		return nil, ErrNoCredentials
	case 1:
		return r.store.Get(usable[0])
	default:
		return nil, &AmbiguousUserError{Candidates: usable}
	}
}
