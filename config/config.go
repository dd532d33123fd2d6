// Package config loads minitodo settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

const appDirName = "minitodo"

type Config struct {
	Storage Storage `yaml:"storage"`
	Log     Log     `yaml:"log"`
	Export  Export  `yaml:"export"`
}

type Storage struct {
	// Backend is one of file, sqlite, badger or memory.
	Backend string `yaml:"backend" validate:"required,oneof=file sqlite badger memory"`
	// Path is the data file (file, sqlite) or directory (badger). Empty means the default.
	Path string `yaml:"path"`
}

type Log struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	// File receives logs while the TUI is running. Empty means next to the data.
	File string `yaml:"file"`
}

type Export struct {
	// Dir receives todo-backup.json. Empty means the current directory.
	Dir string `yaml:"dir"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the settings used when no file exists.
func Default() Config {
	return Config{
		Storage: Storage{Backend: "file"},
		Log:     Log{Level: "warn"},
	}
}

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName, "config.yaml"), nil
}

// DataDir returns the directory holding data and logs.
func DataDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName), nil
}

// Load reads path. A missing file yields Default(); unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, err
	}
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	return validate.Struct(c)
}

// StoragePath returns the configured storage location, or the backend default under dataDir.
func (c Config) StoragePath(dataDir string) string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	switch c.Storage.Backend {
	case "sqlite":
		return filepath.Join(dataDir, "todos.sqlite")
	case "badger":
		return filepath.Join(dataDir, "badger")
	default:
		return filepath.Join(dataDir, "todos.json")
	}
}

// LogPath returns the TUI log file location.
func (c Config) LogPath(dataDir string) string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(dataDir, "minitodo.log")
}
