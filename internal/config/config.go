// Package config loads the optional m2p.cue configuration of m2p-cli.
package config

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
)

// DefaultFile is read from the working directory when no --config is given.
const DefaultFile = "m2p.cue"

// Config is the resolved configuration with defaults applied.
type Config struct {
	ConfigVersion string
	Engine        Engine
	Watch         Watch
	Fonts         Fonts
	Query         Query
	Log           Log
}

// Engine configures the external typesetting program.
type Engine struct {
	Program string
	// TimeoutMs bounds one engine run; 0 means no limit.
	TimeoutMs int
}

// Watch configures the polling watcher.
type Watch struct {
	IntervalMs  int
	NoGitignore bool
}

// Fonts lists extra font directories.
type Fonts struct {
	Paths []string
}

// Query configures query filtering.
type Query struct {
	Sandbox Sandbox
}

// Sandbox bounds a Lua filter chunk. Zero disables a limit.
type Sandbox struct {
	TimeoutMs        int
	InstructionLimit int
	MemoryLimitBytes int
}

// Log configures the optional rotated log file.
type Log struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Engine:        Engine{Program: "typst"},
		Watch:         Watch{IntervalMs: 500},
		Query: Query{Sandbox: Sandbox{
			TimeoutMs:        2000,
			InstructionLimit: 1000000,
			MemoryLimitBytes: 8388608,
		}},
		Log: Log{MaxSizeMB: 16, MaxBackups: 3},
	}
}

// Load reads path, or DefaultFile when path is empty and the file exists.
// Without a file the defaults are returned.
func Load(path string) (Config, error) {
	if path == "" {
		if _, err := os.Stat(DefaultFile); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Default(), nil
			}
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		path = DefaultFile
	}
	v, err := compileCUE(path)
	if err != nil {
		return Config{}, err
	}
	return parse(v)
}

func parse(v cue.Value) (Config, error) {
	cfg := Default()
	if err := requireStringField(v, "configVersion"); err != nil {
		return Config{}, err
	}
	if err := optString(v, "configVersion", &cfg.ConfigVersion); err != nil {
		return Config{}, err
	}
	if !IsSupportedConfigVersion(cfg.ConfigVersion) {
		return Config{}, fmt.Errorf("unsupported configVersion: %q (supported: %s)", cfg.ConfigVersion, SupportedConfigVersionsCSV())
	}

	fields := []func() error{
		func() error { return optString(v, "engine.program", &cfg.Engine.Program) },
		func() error { return optInt(v, "engine.timeoutMs", &cfg.Engine.TimeoutMs) },
		func() error { return optInt(v, "watch.intervalMs", &cfg.Watch.IntervalMs) },
		func() error { return optBool(v, "watch.noGitignore", &cfg.Watch.NoGitignore) },
		func() error { return optStringList(v, "fonts.paths", &cfg.Fonts.Paths) },
		func() error { return optInt(v, "query.sandbox.timeoutMs", &cfg.Query.Sandbox.TimeoutMs) },
		func() error { return optInt(v, "query.sandbox.instructionLimit", &cfg.Query.Sandbox.InstructionLimit) },
		func() error { return optInt(v, "query.sandbox.memoryLimitBytes", &cfg.Query.Sandbox.MemoryLimitBytes) },
		func() error { return optString(v, "log.file", &cfg.Log.File) },
		func() error { return optInt(v, "log.maxSizeMB", &cfg.Log.MaxSizeMB) },
		func() error { return optInt(v, "log.maxBackups", &cfg.Log.MaxBackups) },
	}
	for _, f := range fields {
		if err := f(); err != nil {
			return Config{}, err
		}
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Engine.Program == "" {
		return errors.New("invalid value for field: engine.program (must not be empty)")
	}
	nonNegative := []struct {
		name string
		v    int
	}{
		{"engine.timeoutMs", cfg.Engine.TimeoutMs},
		{"query.sandbox.timeoutMs", cfg.Query.Sandbox.TimeoutMs},
		{"query.sandbox.instructionLimit", cfg.Query.Sandbox.InstructionLimit},
		{"query.sandbox.memoryLimitBytes", cfg.Query.Sandbox.MemoryLimitBytes},
		{"log.maxBackups", cfg.Log.MaxBackups},
	}
	for _, f := range nonNegative {
		if f.v < 0 {
			return fmt.Errorf("invalid value for field: %s (must be >= 0)", f.name)
		}
	}
	if cfg.Watch.IntervalMs <= 0 {
		return errors.New("invalid value for field: watch.intervalMs (must be > 0)")
	}
	if cfg.Log.MaxSizeMB <= 0 {
		return errors.New("invalid value for field: log.maxSizeMB (must be > 0)")
	}
	return nil
}
