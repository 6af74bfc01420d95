// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

// Package config loads the savekeep TOML configuration file.
package config

import (
	"os"
	"path/filepath"
	"reflect"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/hengband/savekeep/pkg/codec"
)

const (
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
	defaultCheckWorkers = 4
	// maxSavedFloors is bounded by the two digit floor file suffix.
	maxSavedFloors = 100
)

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type CatalogConfig struct {
	Dir string `toml:"dir"`
}

type CheckConfig struct {
	Workers int `toml:"workers"`
}

// Config is the content of the configuration file. Missing keys take the
// compiled defaults.
type Config struct {
	Limits  codec.Limits  `toml:"limits"`
	Catalog CatalogConfig `toml:"catalog"`
	Log     LogConfig     `toml:"log"`
	Check   CheckConfig   `toml:"check"`
}

func defaultCatalogDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".savekeep"
	}
	return filepath.Join(dir, "savekeep")
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Limits:  codec.DefaultLimits(),
		Catalog: CatalogConfig{Dir: defaultCatalogDir()},
		Log:     LogConfig{Level: defaultLogLevel, Format: defaultLogFormat},
		Check:   CheckConfig{Workers: defaultCheckWorkers},
	}
}

// Load reads the file at path, an empty path yields Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	return Parse(data)
}

// Parse decodes a configuration document and validates it.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) fillDefaults() {
	def := Default()
	limits := reflect.ValueOf(&cfg.Limits).Elem()
	defLimits := reflect.ValueOf(def.Limits)
	for i := 0; i < limits.NumField(); i++ {
		if limits.Field(i).IsZero() {
			limits.Field(i).Set(defLimits.Field(i))
		}
	}
	if cfg.Catalog.Dir == "" {
		cfg.Catalog.Dir = def.Catalog.Dir
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
	if cfg.Check.Workers == 0 {
		cfg.Check.Workers = def.Check.Workers
	}
}

func (cfg *Config) Validate() error {
	if cfg.Limits.MaxSavedFloors > maxSavedFloors {
		return errors.Errorf("limits.max_saved_floors %d exceeds %d", cfg.Limits.MaxSavedFloors, maxSavedFloors)
	}
	if cfg.Limits.MaxRandState < codec.RandStateLegacy {
		return errors.Errorf("limits.max_rand_state %d is below the legacy state size %d",
			cfg.Limits.MaxRandState, codec.RandStateLegacy)
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return errors.Errorf("log.format %q is neither text nor json", cfg.Log.Format)
	}
	if cfg.Check.Workers < 0 {
		return errors.Errorf("check.workers %d is negative", cfg.Check.Workers)
	}
	return nil
}

// Dump encodes cfg as TOML.
func (cfg Config) Dump() ([]byte, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "encode config")
	}
	return data, nil
}
