package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ctlConfig holds the settings shared by every subcommand.
type ctlConfig struct {
	Device    string
	Model     string
	TimeoutMs uint32
	LogLevel  string
}

// bebobctl config.toml key mapping.
type fileConfig struct {
	Device    string `toml:"device"`
	Model     string `toml:"model"`
	TimeoutMs uint32 `toml:"timeout_ms"`
	LogLevel  string `toml:"log_level"`
}

func defaultConfig() ctlConfig {
	return ctlConfig{
		Device:    "/dev/fw1",
		TimeoutMs: 100,
		LogLevel:  "warn",
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "bebobctl", "config.toml")
}

// loadConfig overlays the file at path onto the defaults. Only keys present
// in the file override; a missing file at the default path is not an error.
func loadConfig(path string, required bool) (ctlConfig, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return cfg, nil
		}

		return ctlConfig{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("device") {
		cfg.Device = strings.TrimSpace(raw.Device)
	}
	if meta.IsDefined("model") {
		cfg.Model = strings.TrimSpace(raw.Model)
	}
	if meta.IsDefined("timeout_ms") {
		cfg.TimeoutMs = raw.TimeoutMs
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	return cfg, nil
}
