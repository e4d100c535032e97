package cli

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/openclaw/clawdeck/internal/api"
	"github.com/openclaw/clawdeck/internal/config"
)

// session is the persisted login state, stored next to the config file.
type session struct {
	Token string `json:"token"`
	Email string `json:"email,omitempty"`
}

func sessionPath(cfg *config.Config) (string, error) {
	dir, err := config.StateDir(cfg)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

func loadSession(cfg *config.Config) (*session, error) {
	path, err := sessionPath(cfg)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func saveSession(cfg *config.Config, s *session) error {
	path, err := sessionPath(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func clearSession(cfg *config.Config) error {
	path, err := sessionPath(cfg)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// authToken resolves the backend token: an interactive login wins over the
// static token from config.
func authToken(cfg *config.Config) string {
	if s, err := loadSession(cfg); err == nil && s.Token != "" {
		return s.Token
	}
	return cfg.Server.AuthToken
}

func backendClient(cfg *config.Config) *api.Client {
	return api.NewClient(cfg.Server.BaseURL, authToken(cfg), cfg.Server.Timeout)
}
