package update

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/adamancini/sus/internal/layout"
)

// UpdateCommand is the reserved sub-command that routes to the updater.
const UpdateCommand = "sus-update"

// DefaultProbeTimeout bounds a single version probe.
const DefaultProbeTimeout = 30 * time.Second

// DefaultProbeArgs asks a wrapper for its own version.
var DefaultProbeArgs = []string{UpdateCommand, "--version"}

// Config is the resolved configuration of a single update run.
type Config struct {
	UpdateURL      string
	CurrentVersion string
	InstalledPath  string
	DryRun         bool
	Force          bool
	TempDir        string        // where candidates are downloaded; os.TempDir() if empty
	ProbeArgs      []string      // arguments for the version probe
	ProbeTimeout   time.Duration // per probe
}

// Overrides are the per-invocation settings layered over embedded metadata.
type Overrides struct {
	UpdateURL     string // empty keeps the embedded URL
	InstalledPath string
	DryRun        bool
	Force         bool
	TempDir       string
	ProbeTimeout  time.Duration
}

// ResolveConfig builds the Config for one run. An override URL is validated
// before anything else so a bad value never reaches the network.
func ResolveConfig(embedded layout.Metadata, ov Overrides) (Config, error) {
	updateURL := embedded.UpdateURL
	if ov.UpdateURL != "" {
		if err := ValidateURL(ov.UpdateURL); err != nil {
			return Config{}, invalidInput("update url override: %w", err)
		}
		updateURL = ov.UpdateURL
	}
	if updateURL == "" {
		return Config{}, invalidInput("no update url configured; embed one at build time or pass --update-url")
	}
	if err := ValidateURL(updateURL); err != nil {
		return Config{}, invalidInput("embedded update url: %w", err)
	}

	if ov.InstalledPath == "" {
		return Config{}, invalidInput("installed path is required")
	}

	probeTimeout := ov.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}

	return Config{
		UpdateURL:      updateURL,
		CurrentVersion: embedded.Version,
		InstalledPath:  ov.InstalledPath,
		DryRun:         ov.DryRun,
		Force:          ov.Force,
		TempDir:        ov.TempDir,
		ProbeArgs:      append([]string(nil), DefaultProbeArgs...),
		ProbeTimeout:   probeTimeout,
	}, nil
}

// ValidateURL checks that raw is an absolute http or https URL.
func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", raw)
	}
	return nil
}
