// Package builder embeds a payload script and its update metadata into a
// copy of the sus executable.
package builder

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adamancini/sus/internal/backup"
	"github.com/adamancini/sus/internal/layout"
	"github.com/adamancini/sus/internal/update"
)

// DefaultVersion is embedded when no version is given.
const DefaultVersion = "0.0.0"

// DefaultBuildDir receives the output when no usable --out is given.
const DefaultBuildDir = "build"

// ErrInvalidInput marks errors caused by the build arguments.
var ErrInvalidInput = errors.New("invalid input")

// Options describes one build.
type Options struct {
	PayloadPath  string
	UpdateURL    string // optional; validated when set
	Version      string // DefaultVersion when empty
	Out          string // directory, file path, or empty
	TemplatePath string // executable to embed into; the running one when empty
	BuildDir     string // fallback output directory; DefaultBuildDir when empty
}

// Result describes the written wrapper.
type Result struct {
	OutPath     string          `json:"out_path" yaml:"out_path"`
	Size        int64           `json:"size" yaml:"size"`
	PayloadSize int             `json:"payload_size" yaml:"payload_size"`
	Metadata    layout.Metadata `json:"metadata" yaml:"metadata"`
}

// Build writes an executable wrapper for opts.PayloadPath and returns where
// it went. Nothing is written when an input is invalid.
func Build(opts Options) (*Result, error) {
	info, err := os.Stat(opts.PayloadPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: script path does not exist: %s", ErrInvalidInput, opts.PayloadPath)
		}
		return nil, fmt.Errorf("failed to stat script: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: script argument points to a directory instead of a file: %s", ErrInvalidInput, opts.PayloadPath)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: script is not a regular file: %s", ErrInvalidInput, opts.PayloadPath)
	}

	if opts.UpdateURL != "" {
		if err := update.ValidateURL(opts.UpdateURL); err != nil {
			return nil, fmt.Errorf("%w: update url: %v", ErrInvalidInput, err)
		}
	}

	payload, err := os.ReadFile(opts.PayloadPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	template, err := readTemplate(opts.TemplatePath)
	if err != nil {
		return nil, err
	}

	meta := layout.Metadata{Version: opts.Version, UpdateURL: opts.UpdateURL}
	if meta.Version == "" {
		meta.Version = DefaultVersion
	}
	data, err := layout.Compose(template, payload, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to compose wrapper: %w", err)
	}

	out, err := ResolveOutput(opts.Out, filepath.Base(opts.PayloadPath), opts.BuildDir)
	if err != nil {
		return nil, err
	}

	n, err := backup.WriteAtomic(out, bytes.NewReader(data), 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", out, err)
	}

	return &Result{OutPath: out, Size: n, PayloadSize: len(payload), Metadata: meta}, nil
}

// ResolveOutput picks the output file. An existing directory gets name
// appended; a path whose parent exists is used as is; anything else falls
// back to buildDir/name, creating buildDir.
func ResolveOutput(out, name, buildDir string) (string, error) {
	if out != "" {
		if info, err := os.Stat(out); err == nil {
			if info.IsDir() {
				return filepath.Join(out, name), nil
			}
			return out, nil
		}
		if info, err := os.Stat(filepath.Dir(out)); err == nil && info.IsDir() {
			return out, nil
		}
	}

	if buildDir == "" {
		buildDir = DefaultBuildDir
	}
	if err := os.MkdirAll(buildDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create build directory: %w", err)
	}
	return filepath.Join(buildDir, name), nil
}

func readTemplate(path string) ([]byte, error) {
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to locate own executable: %w", err)
		}
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		path = exe
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return layout.Strip(data), nil
}

// StampOptions changes the metadata of an existing wrapper. A nil field
// keeps the embedded value.
type StampOptions struct {
	Path      string
	UpdateURL *string // empty string removes the URL
	Version   *string
}

// Stamp rewrites the version and update URL embedded in the wrapper at
// opts.Path in place, keeping its template, payload and permissions.
func Stamp(opts StampOptions) (*Result, error) {
	if opts.UpdateURL != nil && *opts.UpdateURL != "" {
		if err := update.ValidateURL(*opts.UpdateURL); err != nil {
			return nil, fmt.Errorf("%w: update url: %v", ErrInvalidInput, err)
		}
	}
	if opts.Version != nil && *opts.Version == "" {
		return nil, fmt.Errorf("%w: version must not be empty", ErrInvalidInput)
	}

	info, err := os.Stat(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat wrapper: %w", err)
	}
	data, err := os.ReadFile(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read wrapper: %w", err)
	}
	f, err := layout.Split(data)
	if err != nil {
		return nil, err
	}

	meta := f.Metadata
	if opts.UpdateURL != nil {
		meta.UpdateURL = *opts.UpdateURL
	}
	if opts.Version != nil {
		meta.Version = *opts.Version
	}
	updated, err := layout.SetMetadata(data, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to update metadata: %w", err)
	}

	n, err := backup.WriteAtomic(opts.Path, bytes.NewReader(updated), info.Mode().Perm())
	if err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", opts.Path, err)
	}
	return &Result{OutPath: opts.Path, Size: n, PayloadSize: len(f.Payload), Metadata: meta}, nil
}

// Info summarizes an installed wrapper.
type Info struct {
	Path          string `json:"path" yaml:"path"`
	Version       string `json:"version" yaml:"version"`
	UpdateURL     string `json:"update_url" yaml:"update_url"`
	TemplateSize  int    `json:"template_size" yaml:"template_size"`
	PayloadSize   int    `json:"payload_size" yaml:"payload_size"`
	PayloadSHA256 string `json:"payload_sha256" yaml:"payload_sha256"`
}

// Inspect reads the trailer of the wrapper at path.
func Inspect(path string) (*Info, error) {
	f, err := layout.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(f.Payload)
	return &Info{
		Path:          path,
		Version:       f.Metadata.Version,
		UpdateURL:     f.Metadata.UpdateURL,
		TemplateSize:  len(f.Template),
		PayloadSize:   len(f.Payload),
		PayloadSHA256: hex.EncodeToString(sum[:]),
	}, nil
}

func (i *Info) String() string {
	url := i.UpdateURL
	if url == "" {
		url = "(none)"
	}
	return fmt.Sprintf("path: %s\nversion: %s\nupdate url: %s\npayload: %d bytes, sha256 %s\ntemplate: %d bytes",
		i.Path, i.Version, url, i.PayloadSize, i.PayloadSHA256, i.TemplateSize)
}
