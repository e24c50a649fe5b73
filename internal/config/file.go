package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig holds tallyctl defaults read from config.toml.
type FileConfig struct {
	Export ExportDefaults `toml:"export"`
	Source SourceDefaults `toml:"source"`
	Auth   AuthDefaults   `toml:"auth"`
}

// ExportDefaults are applied when the matching flag is not set.
type ExportDefaults struct {
	Format         string `toml:"format"`
	IncludeHeaders *bool  `toml:"include_headers,omitempty"`
	OutputDir      string `toml:"output_dir,omitempty"`
}

// SourceDefaults name where tallyctl reads expenses from.
type SourceDefaults struct {
	DBPath string `toml:"db_path,omitempty"`
	UserID string `toml:"user_id,omitempty"`
}

type AuthDefaults struct {
	JWTSecret string `toml:"jwt_secret,omitempty"`
}

// DefaultFileConfig returns the defaults used when no file exists.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Export: ExportDefaults{Format: "csv"},
		Source: SourceDefaults{UserID: "local"},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tally")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tally")
}

// FilePath returns the full path to config.toml.
func FilePath() string {
	return filepath.Join(Dir(), "config.toml")
}

// LoadFile reads path, returning defaults if it doesn't exist. An empty
// path means FilePath().
func LoadFile(path string) (FileConfig, error) {
	cfg := DefaultFileConfig()
	if path == "" {
		path = FilePath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// SaveFile writes cfg to path, creating the directory as needed.
func SaveFile(path string, cfg FileConfig) error {
	if path == "" {
		path = FilePath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
