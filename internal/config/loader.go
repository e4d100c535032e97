package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	// ConfigDir is the default config directory name.
	ConfigDir = ".clawdeck"
	// ConfigFile is the default config file name.
	ConfigFile = "config.json"
)

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("CLAWDECK_CONFIG")); explicit != "" {
		if strings.HasPrefix(explicit, "~") {
			home, err := resolveHomeDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(home, explicit[1:]), nil
		}
		return explicit, nil
	}
	home, err := resolveHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

// StateDir returns the directory for persisted dashboard state. The
// configured Paths.StateDir wins; otherwise it lives next to the config file.
func StateDir(cfg *Config) (string, error) {
	if dir := strings.TrimSpace(cfg.Paths.StateDir); dir != "" {
		if strings.HasPrefix(dir, "~") {
			home, err := resolveHomeDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(home, dir[1:]), nil
		}
		return dir, nil
	}
	home, err := resolveHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir), nil
}

func resolveHomeDir() (string, error) {
	if h := strings.TrimSpace(os.Getenv("CLAWDECK_HOME")); h != "" {
		if strings.HasPrefix(h, "~") {
			base, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(base, h[1:]), nil
		}
		return h, nil
	}
	return os.UserHomeDir()
}

// Load loads the configuration from file and environment variables.
// Priority: environment > file > defaults. A missing file is not an error.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// Override with environment variables for each group.
	envconfig.Process("CLAWDECK_PATHS", &cfg.Paths)
	envconfig.Process("CLAWDECK_SERVER", &cfg.Server)
	envconfig.Process("CLAWDECK_GATEWAY", &cfg.Gateway)
	envconfig.Process("CLAWDECK_VOICE", &cfg.Voice)
	envconfig.Process("CLAWDECK_STATS", &cfg.Stats)

	// The file may replace the agent catalogue, moving the default.
	cfg.Voice.DefaultAgent = cfg.DefaultAgentID()

	if cfg.Voice.APIKey == "" && cfg.Voice.APIKeyFile != "" {
		keyPath := cfg.Voice.APIKeyFile
		if strings.HasPrefix(keyPath, "~") {
			if home, err := resolveHomeDir(); err == nil {
				keyPath = filepath.Join(home, keyPath[1:])
			}
		}
		if key, err := os.ReadFile(keyPath); err == nil {
			cfg.Voice.APIKey = strings.TrimSpace(string(key))
		}
	}

	return cfg, nil
}

// Save writes the configuration to the config file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
