// Package config handles the optional sus settings file and its location.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

const appName = "sus"

// EnvConfig names the environment variable pointing at a settings file.
const EnvConfig = "SUS_CONFIG"

// Duration is a time.Duration written as "30s", "1m30s" in settings files.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText writes the duration in Go syntax.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// BuildSettings are defaults for `sus build`. Flags always win.
type BuildSettings struct {
	UpdateURL     string `yaml:"update_url,omitempty" toml:"update_url,omitempty" json:"update_url,omitempty"`
	UpdateVersion string `yaml:"update_version,omitempty" toml:"update_version,omitempty" json:"update_version,omitempty"`
	OutDir        string `yaml:"out_dir,omitempty" toml:"out_dir,omitempty" json:"out_dir,omitempty"`
}

// UpdateSettings tune `sus-update` runs of installed wrappers. They never
// supply an update URL; that is embedded at build time.
type UpdateSettings struct {
	HTTPTimeout  Duration `yaml:"http_timeout,omitempty" toml:"http_timeout,omitempty" json:"http_timeout,omitempty"`
	ProbeTimeout Duration `yaml:"probe_timeout,omitempty" toml:"probe_timeout,omitempty" json:"probe_timeout,omitempty"`
	TempDir      string   `yaml:"temp_dir,omitempty" toml:"temp_dir,omitempty" json:"temp_dir,omitempty"`
}

// Settings is the parsed settings file.
type Settings struct {
	Build  BuildSettings  `yaml:"build" toml:"build" json:"build"`
	Update UpdateSettings `yaml:"update" toml:"update" json:"update"`
}

// fileNames are tried in order inside the sus config directory.
var fileNames = []string{
	"config.yaml",
	"config.yml",
	"config.toml",
	"config.json",
}

// Find returns the settings file to load, or "" when there is none.
// An explicit path must exist; $SUS_CONFIG and the XDG config
// directories are searched otherwise.
func Find(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("specified config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	if envPath := os.Getenv(EnvConfig); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	for _, name := range fileNames {
		if path, err := xdg.SearchConfigFile(filepath.Join(appName, name)); err == nil {
			return path, nil
		}
	}

	return "", nil
}

// Load reads and validates the settings file at path. An empty path yields
// zero Settings.
func Load(path string) (*Settings, error) {
	if path == "" {
		return &Settings{}, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	format := detectFormat(path, content)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unable to detect file format for %s", path)
	}

	settings, err := parse(content, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := Validate(settings); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return settings, nil
}

// FindAndLoad combines Find and Load.
func FindAndLoad(explicitPath string) (*Settings, string, error) {
	path, err := Find(explicitPath)
	if err != nil {
		return nil, "", err
	}
	settings, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return settings, path, nil
}
