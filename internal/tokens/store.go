// Package tokens manages the OAuth credential lifecycle for Zoho Books.
package tokens

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/item-dedupe/internal/model"
)

// ExpiryBuffer is how long before expiry an access token stops being used.
const ExpiryBuffer = 5 * time.Minute

// Store persists a single credential record.
type Store interface {
	Load() (*model.Credential, error)
	Save(cred *model.Credential) error
}

// FileStore keeps the credential as a JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the credential. It returns nil, nil when no file exists.
func (s *FileStore) Load() (*model.Credential, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "tokens: read %s", s.path)
	}

	var cred model.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, eris.Wrapf(err, "tokens: decode %s", s.path)
	}
	return &cred, nil
}

// Save replaces the credential file. The record is written to a temp file
// in the same directory and renamed into place, so readers see either the
// old or the new record.
func (s *FileStore) Save(cred *model.Credential) error {
	if cred == nil {
		return eris.New("tokens: save nil credential")
	}

	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return eris.Wrap(err, "tokens: encode credential")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "tokens: create dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "tokens: create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "tokens: chmod temp file")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "tokens: write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "tokens: sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "tokens: close temp file")
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return eris.Wrapf(err, "tokens: replace %s", s.path)
	}
	return nil
}

// IsValid reports whether the access token can still be used at now,
// i.e. it expires more than ExpiryBuffer from now.
func IsValid(cred *model.Credential, now time.Time) bool {
	if cred == nil || cred.AccessToken == "" {
		return false
	}
	return cred.ExpiresAt.After(now.Add(ExpiryBuffer))
}
