package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"postboard/internal/models"
	"postboard/internal/session"

	"github.com/spf13/viper"
)

// Credentials is the terminal counterpart of a browser session: the bearer
// token and the user it belongs to, always stored and cleared together.
type Credentials struct {
	Token string             `mapstructure:"token"`
	User  models.SessionUser `mapstructure:"user"`
}

// CredentialStore keeps Credentials in a YAML file.
type CredentialStore struct {
	path string
	now  func() time.Time
}

// NewCredentialStore returns a store backed by path.
func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{path: path, now: time.Now}
}

// Path is the backing file.
func (s *CredentialStore) Path() string {
	return s.path
}

// Load returns the stored credentials, or nil when there are none, the file
// is half written, or the token has expired.
func (s *CredentialStore) Load() (*Credentials, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read credentials %s: %w", s.path, err)
	}

	var creds Credentials
	if err := v.Unmarshal(&creds); err != nil {
		return nil, fmt.Errorf("failed to decode credentials %s: %w", s.path, err)
	}
	if creds.Token == "" || creds.User.Name == "" {
		return nil, nil
	}
	if exp, ok := session.TokenExpiry(creds.Token); ok && !exp.After(s.now()) {
		return nil, nil
	}
	return &creds, nil
}

// Save writes creds, readable by the owner only.
func (s *CredentialStore) Save(creds Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	user := map[string]any{
		"name":  creds.User.Name,
		"email": creds.User.Email,
	}
	if creds.User.Avatar != nil {
		user["avatar"] = map[string]any{"url": creds.User.Avatar.URL, "alt": creds.User.Avatar.Alt}
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("token", creds.Token)
	v.Set("user", user)
	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return os.Chmod(s.path, 0o600)
}

// Clear removes the stored credentials. Clearing twice is not an error.
func (s *CredentialStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}
