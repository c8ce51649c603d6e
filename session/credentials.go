package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"clinicbook/models"
)

// credentials is the on-disk shape of a persisted login, the file analog of
// the browser's local storage.
type credentials struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type credentialStore struct {
	path string
}

func newCredentialStore(path string) *credentialStore {
	return &credentialStore{path: path}
}

func (cs *credentialStore) load() (credentials, bool) {
	raw, err := os.ReadFile(cs.path)
	if err != nil {
		return credentials{}, false
	}
	var creds credentials
	if err := json.Unmarshal(raw, &creds); err != nil || creds.Token == "" {
		return credentials{}, false
	}
	return creds, true
}

// save writes via a temp file and rename so a crash mid-write cannot leave a
// truncated credential behind.
func (cs *credentialStore) save(creds credentials) error {
	if err := os.MkdirAll(filepath.Dir(cs.path), 0o700); err != nil {
		return err
	}
	raw, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	tmp := cs.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, cs.path)
}

func (cs *credentialStore) clear() error {
	err := os.Remove(cs.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
