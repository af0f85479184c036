// Package config carries the elaborator run's ambient settings: the JSON
// output preferences of the rdl-elaborate CLI. SystemRDL elaboration
// operates over a single root compilation unit, with no cross-file imports,
// so this holds no source file resolution or glob logic — only I/O
// preferences a caller may want to persist between invocations.
package config

import (
	"encoding/json"
	"os"
)

// Config is the elaborator CLI's persisted run configuration.
type Config struct {
	// EmitJSON turns on -j/--json output by default without passing the
	// flag each invocation.
	EmitJSON bool `json:"emit_json"`
	// JSONOutputPath overrides the default "<input-stem>_elaborated.json"
	// naming when non-empty.
	JSONOutputPath string `json:"json_output_path,omitempty"`
}

// DefaultConfig returns the zero-value configuration: JSON emission off,
// default naming.
func DefaultConfig() *Config {
	return &Config{}
}

// Load reads a Config from path. A missing file is not an error; it yields
// DefaultConfig().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg to path as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
