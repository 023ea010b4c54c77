package msauth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
)

// record is the durable shape of a persisted token.
type record struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// fileCache persists the current token to a single JSON file. An empty path
// disables persistence. Writes go through a temporary file in the same
// directory followed by a rename, so a crash mid-write leaves either the old
// record or the new one, never a torn file.
type fileCache struct {
	path string
}

// Load reads the persisted token. A missing file returns (nil, nil): cold
// start. Any read or decode problem is returned as an error for the caller
// to log and treat as cold start.
func (c *fileCache) Load() (*oauth2.Token, error) {
	if c.path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token cache: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode token cache: %w", err)
	}
	if rec.AccessToken == "" && rec.RefreshToken == "" {
		return nil, fmt.Errorf("token cache %s holds no credential", c.path)
	}

	return &oauth2.Token{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		TokenType:    rec.TokenType,
		Expiry:       rec.ExpiresAt,
	}, nil
}

// Save persists the token atomically with 0600 permissions.
func (c *fileCache) Save(tok *oauth2.Token) error {
	if c.path == "" || tok == nil {
		return nil
	}
	data, err := json.Marshal(record{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresAt:    tok.Expiry,
	})
	if err != nil {
		return fmt.Errorf("encode token cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create token cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("create temp token cache: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp token cache: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp token cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp token cache: %w", err)
	}

	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("replace token cache: %w", err)
	}
	return nil
}

// Clear removes the persisted record. Removing an absent file is not an
// error.
func (c *fileCache) Clear() error {
	if c.path == "" {
		return nil
	}
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
