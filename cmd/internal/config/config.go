// Package config loads the settings shared by the command line tools from the
// environment. A .env file in the working directory is read first if present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/gen2brain/pulseout"
)

type Config struct {
	Server   string     // PULSE_SERVER
	Device   string     // PULSEOUT_DEVICE
	AppName  string     // PULSEOUT_APP_NAME
	LogLevel slog.Level // PULSEOUT_LOG_LEVEL
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Server:   os.Getenv("PULSE_SERVER"),
		Device:   os.Getenv("PULSEOUT_DEVICE"),
		AppName:  os.Getenv("PULSEOUT_APP_NAME"),
		LogLevel: slog.LevelWarn,
	}

	if cfg.Device == "" {
		cfg.Device = pulseout.DefaultDevice
	}

	if level := os.Getenv("PULSEOUT_LOG_LEVEL"); level != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid PULSEOUT_LOG_LEVEL: %w", err)
		}
	}

	return cfg, nil
}
