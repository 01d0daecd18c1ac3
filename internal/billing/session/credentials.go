package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
)

const credentialRecordName = "billing_credential"

// ErrInvalidConfig indicates the credential store was initialised with
// missing or invalid options.
var ErrInvalidConfig = errors.New("session: invalid config")

// CredentialStore persists the opaque bearer credential across process
// restarts. Load returns an empty string when no credential is stored.
type CredentialStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

type credentialRecord struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"savedAt"`
}

// FileStore keeps the credential in a single file, encoded with a keyed MAC
// so a tampered or foreign file is rejected on load instead of producing a
// bogus authenticated state.
type FileStore struct {
	path  string
	codec *securecookie.SecureCookie
	now   func() time.Time
}

// FileStoreConfig controls the storage location and encoding keys.
type FileStoreConfig struct {
	Path    string
	HashKey []byte
	// BlockKey is optional; when set the stored payload is also encrypted.
	BlockKey []byte
	Now      func() time.Time
}

// NewFileStore constructs a FileStore using the provided configuration.
func NewFileStore(cfg FileStoreConfig) (*FileStore, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("%w: path is required", ErrInvalidConfig)
	}
	if len(cfg.HashKey) == 0 {
		return nil, fmt.Errorf("%w: hash key is required", ErrInvalidConfig)
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	codec := securecookie.New(cfg.HashKey, cfg.BlockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	// The credential survives until explicit logout; disable the codec's
	// built-in expiry.
	codec.MaxAge(0)

	return &FileStore{
		path:  cfg.Path,
		codec: codec,
		now:   nowFn,
	}, nil
}

// Load reads and decodes the persisted credential. A missing file or an
// undecodable payload yields an empty credential, not an error: rehydration
// must never block startup on a stale cache.
func (s *FileStore) Load() (string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("session: read credential file: %w", err)
	}

	var record credentialRecord
	if err := s.codec.Decode(credentialRecordName, strings.TrimSpace(string(raw)), &record); err != nil {
		return "", nil
	}
	return record.Token, nil
}

// Save encodes and writes the credential, creating parent directories as
// needed. The file is owner-readable only.
func (s *FileStore) Save(token string) error {
	record := credentialRecord{
		Token:   token,
		SavedAt: s.now().UTC(),
	}
	encoded, err := s.codec.Encode(credentialRecordName, record)
	if err != nil {
		return fmt.Errorf("session: encode credential: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("session: create credential dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, []byte(encoded), 0o600); err != nil {
		return fmt.Errorf("session: write credential file: %w", err)
	}
	return nil
}

// Clear removes the persisted credential. Clearing an absent credential is
// not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: remove credential file: %w", err)
	}
	return nil
}

// MemoryStore is an in-memory CredentialStore for tests and offline runs.
type MemoryStore struct {
	token string
}

// NewMemoryStore returns a MemoryStore seeded with the given credential.
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

// Load returns the stored credential.
func (s *MemoryStore) Load() (string, error) { return s.token, nil }

// Save replaces the stored credential.
func (s *MemoryStore) Save(token string) error {
	s.token = token
	return nil
}

// Clear removes the stored credential.
func (s *MemoryStore) Clear() error {
	s.token = ""
	return nil
}
