package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"
)

// Config holds all application configuration.
type Config struct {
	Browser BrowserConfig `koanf:"browser" validate:"required"`
	Probe   ProbeConfig   `koanf:"probe" validate:"required"`
}

// BrowserConfig holds settings for the Chrome instance a profile is applied to.
type BrowserConfig struct {
	Timeout    time.Duration `koanf:"timeout" validate:"required"`
	Headless   bool          `koanf:"headless"`
	NoSandbox  bool          `koanf:"no_sandbox"`
	ChromePath string        `koanf:"chrome_path"`
	// PatchedBuild passes the profile to Chrome as a launch argument. Only a
	// build that understands the switch reads it.
	PatchedBuild bool `koanf:"patched_build"`
}

// ProbeConfig holds settings for page probes.
type ProbeConfig struct {
	MaxConcurrency int           `koanf:"max_concurrency" validate:"required,min=1"`
	Settle         time.Duration `koanf:"settle"`
	SampleText     string        `koanf:"sample_text" validate:"required"`
	SnapshotDir    string        `koanf:"snapshot_dir"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			Timeout:  30 * time.Second,
			Headless: true,
		},
		Probe: ProbeConfig{
			MaxConcurrency: 2,
			Settle:         500 * time.Millisecond,
			SampleText:     "Cwm fjordbank glyphs vext quiz",
			SnapshotDir:    ".debug",
		},
	}
}

// Load reads and validates configuration from a YAML file. Keys missing from
// the file keep their Default value; a missing file yields Default.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}

	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// ConfigFrom extracts the Config from the CLI command metadata.
func ConfigFrom(cmd *cli.Command) (*Config, error) {
	v, ok := cmd.Root().Metadata["config"]
	if !ok {
		return nil, fmt.Errorf("config not found in command metadata")
	}
	cfg, ok := v.(*Config)
	if !ok {
		return nil, fmt.Errorf("config has unexpected type %T", v)
	}
	return cfg, nil
}
