package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// userTokensDir is the directory holding one JSON record per user.
	userTokensDir = "user-tokens"

	// legacyTokensFile is the well-known single-tenant record kept for
	// deployments that predate per-user storage.
	legacyTokensFile = ".tokens.json"
)

// ErrNotFound is returned when no record exists for a user id.
var ErrNotFound = errors.New("credential record not found")

// CorruptRecordError is returned when a stored record exists but fails to
// parse. Resolution treats it like a missing record; operators find it in the
// logs.
type CorruptRecordError struct {
	UserID string
	Err    error
}

func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("credential record for %q is corrupt: %v", e.UserID, e.Err)
}

func (e *CorruptRecordError) Unwrap() error { return e.Err }

// FileStore persists credential records as one JSON file per user under a
// state directory, plus the legacy single-tenant file beside it.
//
// Writes are whole-record replacements via temp file and rename, so readers
// never observe a partially written record. Concurrent writers to the same
// user id race last-write-wins; there is no compare-and-swap.
type FileStore struct {
	dir        string // per-user records, one file per user id
	legacyPath string
	logger     *slog.Logger
}

// NewFileStore creates a store rooted at stateDir. The directory is created
// lazily on first write.
func NewFileStore(stateDir string) *FileStore {
	return &FileStore{
		dir:        filepath.Join(stateDir, userTokensDir),
		legacyPath: filepath.Join(stateDir, legacyTokensFile),
		logger:     slog.Default(),
	}
}

// SetLogger sets a custom logger for the store.
func (s *FileStore) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Dir returns the per-user record directory.
func (s *FileStore) Dir() string { return s.dir }

// Put writes the full record for userID, replacing any existing one.
func (s *FileStore) Put(userID string, rec *Record) error {
	if userID == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	stored := *rec
	stored.UserID = userID
	if err := writeJSONAtomic(s.recordPath(userID), &stored); err != nil {
		return err
	}
	s.logger.Debug("saved credential record", "user_id", userID)
	return nil
}

// Get reads the record for userID. It returns ErrNotFound when no record
// exists and *CorruptRecordError when the file cannot be parsed.
func (s *FileStore) Get(userID string) (*Record, error) {
	if userID == "" {
		return nil, ErrNotFound
	}
	return readRecord(s.recordPath(userID), userID)
}

// Exists reports whether Get would succeed structurally: a parseable record
// with an access token field. Token validity is not checked.
func (s *FileStore) Exists(userID string) bool {
	rec, err := s.Get(userID)
	return err == nil && rec.AccessToken != ""
}

// List enumerates all known user ids. The result is sorted for determinism,
// but callers must not depend on any particular order.
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read token directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes the record for userID. Deleting an absent record is not an
// error.
func (s *FileStore) Delete(userID string) error {
	err := os.Remove(s.recordPath(userID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete credential record: %w", err)
	}
	return nil
}

// GetLegacy reads the single-tenant record kept at the well-known fixed path.
// The returned record is marked so that write-backs go through PutLegacy
// instead of the per-user directory.
func (s *FileStore) GetLegacy() (*Record, error) {
	rec, err := readRecord(s.legacyPath, "legacy")
	if err != nil {
		return nil, err
	}
	rec.legacy = true
	return rec, nil
}

// PutLegacy writes the single-tenant record at the well-known fixed path.
func (s *FileStore) PutLegacy(rec *Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.legacyPath), 0o700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	return writeJSONAtomic(s.legacyPath, rec)
}

func (s *FileStore) recordPath(userID string) string {
	// Record files are keyed by the opaque id; strip path separators so a
	// hostile id cannot escape the directory.
	clean := filepath.Base(userID)
	return filepath.Join(s.dir, clean+".json")
}

func readRecord(path, userID string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("failed to read credential record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &CorruptRecordError{UserID: userID, Err: err}
	}
	return &rec, nil
}

// writeJSONAtomic writes v as indented JSON to path via a temp file and
// rename, so a crash mid-write cannot leave a truncated record at the final
// key.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential record: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-token-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write credential record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set record permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace credential record: %w", err)
	}
	return nil
}
