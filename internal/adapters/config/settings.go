package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.trai.ch/bild/internal/core/domain"
	"go.trai.ch/zerr"
)

// SettingsEnvVar names an alternative user settings file.
const SettingsEnvVar = "BILD_CONFIG"

// Settings holds the per-user defaults read from config.toml. Command line
// flags override them.
type Settings struct {
	Buildfile string `toml:"buildfile"`
	LogFile   string `toml:"log_file"`
	JarCache  string `toml:"jar_cache"`
	Output    string `toml:"output"`
}

// DefaultSettings returns the settings used when no config file exists.
func DefaultSettings() *Settings {
	return &Settings{
		Buildfile: "bild.yaml",
		LogFile:   "bild.log",
		JarCache:  ExpandHome("~/.bild/jars"),
		Output:    "auto",
	}
}

// LoadSettings reads settings from a TOML file, falling back to defaults
// for a missing file and for keys the file does not set.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path) //nolint:gosec // user-chosen config path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, zerr.With(errors.Join(domain.ErrConfigReadFailed, err), "path", path)
	}

	if err := toml.Unmarshal(data, s); err != nil {
		return nil, zerr.With(errors.Join(domain.ErrConfigParseFailed, err), "path", path)
	}

	s.JarCache = ExpandHome(s.JarCache)
	s.LogFile = ExpandHome(s.LogFile)
	return s, nil
}

// DefaultSettingsPath returns the settings file location: $BILD_CONFIG if
// set, otherwise ~/.config/bild/config.toml.
func DefaultSettingsPath() string {
	if p := os.Getenv(SettingsEnvVar); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "bild", "config.toml")
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}
