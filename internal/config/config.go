// Package config handles amlvm.toml host configuration, in the shape
// of the teacher project's manifest.Load (manifest/manifest.go).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/amlvm/engine/vm"
)

// Config is the host-tunable subset of Engine behavior: the _OSI
// allow-list extension and the sleep clamp. Log.Level is parsed but is
// not applied by EngineConfig or anywhere else in this module.
type Config struct {
	OSI struct {
		ExtraStrings []string `toml:"extra-strings"`
	} `toml:"osi"`

	Sleep struct {
		MinMS uint64 `toml:"min-ms"`
	} `toml:"sleep"`

	Log struct {
		Level string `toml:"level"` // "debug", "info", "warn"
	} `toml:"log"`

	// Dir is the directory containing the amlvm.toml file (set at load time).
	Dir string `toml:"-"`
}

// Load parses an amlvm.toml file from dir. A missing file is not an
// error; Load returns the zero Config in that case so an embedder
// without a config file still gets sensible engine defaults.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "amlvm.toml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return &c, nil
}

// EngineConfig builds a vm.Config from the host configuration,
// layered on top of vm.DefaultConfig.
func (c *Config) EngineConfig() vm.Config {
	ec := vm.DefaultConfig()
	if c == nil {
		return ec
	}
	ec.OSIStrings = append(append([]string(nil), ec.OSIStrings...), c.OSI.ExtraStrings...)
	if c.Sleep.MinMS != 0 {
		ec.MinSleepMS = c.Sleep.MinMS
	}
	return ec
}
