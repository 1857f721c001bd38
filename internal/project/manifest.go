// Package project handles svlang.toml manifests and the content
// hashing used by the metadata cache.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is a loaded svlang.toml plus its on-disk location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the svlang.toml layout.
type Config struct {
	Design    DesignConfig             `toml:"design"`
	Sources   SourcesConfig            `toml:"sources"`
	Libraries map[string]LibraryConfig `toml:"libraries"`
}

type DesignConfig struct {
	Name string `toml:"name"`
	Top  string `toml:"top"`
}

// SourcesConfig lists what to load. Patterns resolve relative to the
// manifest's directory.
type SourcesConfig struct {
	Files       []string `toml:"files"`
	LibraryMaps []string `toml:"library_maps"`
	SearchDirs  []string `toml:"search_dirs"`
	Extensions  []string `toml:"extensions"`
	SingleUnit  bool     `toml:"single_unit"`
}

// LibraryConfig assigns file patterns to a named library, the inline
// alternative to a library map document.
type LibraryConfig struct {
	Files   []string `toml:"files"`
	IncDirs []string `toml:"incdirs"`
}

// FindManifest walks from startDir toward the filesystem root looking
// for svlang.toml.
func FindManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "svlang.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadManifest finds and parses the manifest governing startDir. The
// second result reports whether one was found at all.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, true, nil
}

func loadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("design") {
		return Config{}, fmt.Errorf("%s: missing [design]", path)
	}
	if !meta.IsDefined("design", "name") || strings.TrimSpace(cfg.Design.Name) == "" {
		return Config{}, fmt.Errorf("%s: missing [design].name", path)
	}
	for name, lib := range cfg.Libraries {
		if len(lib.Files) == 0 {
			return Config{}, fmt.Errorf("%s: [libraries.%s] has no files", path, name)
		}
	}
	return cfg, nil
}
