package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mkravets/binderbot/internal/crypto"
	"github.com/mkravets/binderbot/internal/domain"
)

// Vault persists the session credential and cached user across restarts.
type Vault interface {
	// Save writes the session to durable storage.
	Save(s domain.Session) error
	// Load reads the stored session. ok is false when nothing is stored.
	Load() (s domain.Session, ok bool, err error)
	// Clear removes the stored session. Clearing an empty vault is a no-op.
	Clear() error
}

// FileVault stores the session as a JSON file. When a passphrase is
// configured the file is encrypted at rest; otherwise it is written as plain
// JSON with 0600 permissions.
type FileVault struct {
	path       string
	passphrase string
}

// NewFileVault creates a FileVault at path. passphrase may be empty.
func NewFileVault(path, passphrase string) *FileVault {
	return &FileVault{path: path, passphrase: passphrase}
}

// Save writes the session to the vault file.
func (v *FileVault) Save(s domain.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: marshal session: %w", err)
	}

	if v.passphrase != "" {
		data, err = crypto.Seal(data, v.passphrase)
		if err != nil {
			return fmt.Errorf("session: seal session: %w", err)
		}
	}

	if dir := filepath.Dir(v.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("session: create vault dir: %w", err)
		}
	}
	if err := os.WriteFile(v.path, data, 0o600); err != nil {
		return fmt.Errorf("session: write vault: %w", err)
	}
	return nil
}

// Load reads the stored session, decrypting it when the file is sealed.
func (v *FileVault) Load() (domain.Session, bool, error) {
	data, err := os.ReadFile(v.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("session: read vault: %w", err)
	}

	if crypto.IsSealed(data) {
		if v.passphrase == "" {
			return domain.Session{}, false, errors.New("session: vault is encrypted but no passphrase is configured")
		}
		data, err = crypto.Open(data, v.passphrase)
		if err != nil {
			return domain.Session{}, false, fmt.Errorf("session: open vault: %w", err)
		}
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.Session{}, false, fmt.Errorf("session: parse vault: %w", err)
	}
	if !s.Authenticated() {
		return domain.Session{}, false, nil
	}
	return s, true, nil
}

// Clear removes the vault file.
func (v *FileVault) Clear() error {
	if err := os.Remove(v.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: clear vault: %w", err)
	}
	return nil
}
