package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wisdomcircle/circled/internal/models"
)

// Credentials is the saved login state for the CLI.
type Credentials struct {
	BaseURL  string `json:"base_url"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

func credentialsPath(configDir string) string {
	return filepath.Join(configDir, "credentials.json")
}

// SaveCredentials writes the login state under configDir, readable only
// by the owner.
func SaveCredentials(configDir string, creds Credentials) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	if err := os.WriteFile(credentialsPath(configDir), data, 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

// LoadCredentials reads the saved login state. A missing file yields an
// auth error so callers can prompt for login.
func LoadCredentials(configDir string) (Credentials, error) {
	data, err := os.ReadFile(credentialsPath(configDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credentials{}, models.AuthError("not logged in, run login first")
		}
		return Credentials{}, fmt.Errorf("reading credentials: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("parsing credentials: %w", err)
	}
	return creds, nil
}

// ClearCredentials removes the saved login state.
func ClearCredentials(configDir string) error {
	err := os.Remove(credentialsPath(configDir))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing credentials: %w", err)
	}
	return nil
}
