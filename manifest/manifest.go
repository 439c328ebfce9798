// Package manifest handles ember.toml runtime configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/ember/vm"
)

// FileName is the name of the configuration file.
const FileName = "ember.toml"

// Manifest represents an ember.toml configuration.
type Manifest struct {
	Project Project   `toml:"project"`
	Runtime Runtime   `toml:"runtime"`
	GC      GCConfig  `toml:"gc"`
	Log     LogConfig `toml:"log"`

	// Dir is the directory containing the ember.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Runtime configures the interpreter.
type Runtime struct {
	MaxCallDepth int `toml:"max-call-depth"`
	StackSize    int `toml:"stack-size"`
}

// GCConfig configures the memory manager.
type GCConfig struct {
	Enabled    bool `toml:"enabled"`
	Threshold  int  `toml:"threshold"`
	MaxObjects int  `toml:"max-objects"`
	ZCTLimit   int  `toml:"zct-limit"`
}

// LogConfig configures logging.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no ember.toml exists.
func Default() *Manifest {
	d := vm.DefaultOptions()
	return &Manifest{
		Runtime: Runtime{
			MaxCallDepth: d.MaxCallDepth,
			StackSize:    d.StackSize,
		},
		GC: GCConfig{
			Enabled:    d.GCEnabled,
			Threshold:  d.GCThreshold,
			MaxObjects: d.MaxObjects,
			ZCTLimit:   d.ZCTLimit,
		},
	}
}

// Load parses an ember.toml file from the given directory. Keys the file
// leaves out keep their defaults.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// FindAndLoad walks up from startDir to find an ember.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

func (m *Manifest) validate() error {
	switch {
	case m.Runtime.MaxCallDepth < 1:
		return fmt.Errorf("runtime.max-call-depth must be positive, got %d", m.Runtime.MaxCallDepth)
	case m.Runtime.StackSize < 1:
		return fmt.Errorf("runtime.stack-size must be positive, got %d", m.Runtime.StackSize)
	case m.GC.Threshold < 1:
		return fmt.Errorf("gc.threshold must be positive, got %d", m.GC.Threshold)
	case m.GC.MaxObjects < 0:
		return fmt.Errorf("gc.max-objects must not be negative, got %d", m.GC.MaxObjects)
	case m.GC.ZCTLimit < 1:
		return fmt.Errorf("gc.zct-limit must be positive, got %d", m.GC.ZCTLimit)
	}
	return nil
}

// VMOptions converts the configuration into runtime options.
func (m *Manifest) VMOptions() vm.Options {
	return vm.Options{
		GCEnabled:    m.GC.Enabled,
		GCThreshold:  m.GC.Threshold,
		MaxObjects:   m.GC.MaxObjects,
		ZCTLimit:     m.GC.ZCTLimit,
		MaxCallDepth: m.Runtime.MaxCallDepth,
		StackSize:    m.Runtime.StackSize,
	}
}

// LogPath returns the absolute log file path, or "" for stderr.
func (m *Manifest) LogPath() string {
	if m.Log.File == "" || filepath.IsAbs(m.Log.File) {
		return m.Log.File
	}
	return filepath.Join(m.Dir, m.Log.File)
}
