// Package config loads the cdpwire configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/grantcarthew/cdpwire/internal/transport"
)

// FileName is the configuration file name inside the config directory.
const FileName = "config.toml"

// Config holds CLI settings that can be persisted in the configuration file.
// Command line flags take precedence over file values.
type Config struct {
	// AttemptTimeout bounds each connection attempt.
	AttemptTimeout Duration `toml:"attempt_timeout"`

	// Verbosity is the log level: debug, info, error, or a positive integer.
	Verbosity string `toml:"verbosity"`

	// Color enables colored output on terminals.
	Color bool `toml:"color"`
}

// Duration is a time.Duration written as a string such as "2s" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	if v <= 0 {
		return fmt.Errorf("duration must be positive: %q", text)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		AttemptTimeout: Duration{transport.DefaultAttemptTimeout},
		Verbosity:      "info",
		Color:          true,
	}
}

// DefaultPath returns the configuration file location under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(dir, "cdpwire", FileName), nil
}

// Load reads the configuration file at path on top of Default.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Default(), fmt.Errorf("parse config %s: unknown key %q", path, undecoded[0].String())
	}

	return cfg, nil
}

// TransportOptions applies the file settings to transport defaults.
func (c Config) TransportOptions() transport.Options {
	opts := transport.DefaultOptions()
	if c.AttemptTimeout.Duration > 0 {
		opts.AttemptTimeout = c.AttemptTimeout.Duration
	}
	return opts
}
