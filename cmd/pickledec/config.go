package main

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// fileConfig mirrors the subset of flags a user might want to persist
// across invocations in a pickledec.toml file: a plain struct with
// `toml:"..."` tags, decoded and merged into viper as defaults rather
// than read directly, so flags/env still win.
type fileConfig struct {
	Offset  int64 `toml:"offset"`
	JSON    bool  `toml:"json"`
	Verbose bool  `toml:"verbose"`
	NoColor bool  `toml:"no-color"`
}

// loadConfigFile reads path (if non-empty) as TOML and merges its values
// into viper as defaults - anything already set by a flag or environment
// variable still takes precedence, since viper.SetDefault never
// overrides an explicitly-bound value.
func loadConfigFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var cfg fileConfig
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return err
	}
	viper.SetDefault("offset", cfg.Offset)
	viper.SetDefault("json", cfg.JSON)
	viper.SetDefault("verbose", cfg.Verbose)
	viper.SetDefault("no-color", cfg.NoColor)
	return nil
}
