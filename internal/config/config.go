// Package config holds the application configuration. Values are taken
// from a yml file or environment variables or both.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jakopako/surveyfill/internal/controller"
	"github.com/jakopako/surveyfill/internal/output"
	"github.com/jakopako/surveyfill/internal/page"
	"github.com/jakopako/surveyfill/internal/supervisor"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "surveyfill.yml"

type StoreConfig struct {
	DBPath string `yaml:"db_path" env:"DB_PATH" env-default:"surveyfill.db"`
}

type LogConfig struct {
	File      string `yaml:"file" env:"FILE"`
	MaxSizeMB int    `yaml:"max_size_mb" env:"MAX_SIZE_MB" env-default:"10"`
}

// Config defines the overall structure of the configuration. Every
// section can be overridden with SURVEYFILL_<SECTION>_<KEY> variables,
// eg SURVEYFILL_STORE_DB_PATH.
type Config struct {
	Browser    page.ChromeConfig   `yaml:"browser" env-prefix:"SURVEYFILL_BROWSER_"`
	Store      StoreConfig         `yaml:"store" env-prefix:"SURVEYFILL_STORE_"`
	Log        LogConfig           `yaml:"log" env-prefix:"SURVEYFILL_LOG_"`
	Timing     controller.Timing   `yaml:"timing" env-prefix:"SURVEYFILL_TIMING_"`
	Supervisor supervisor.Timing   `yaml:"supervisor" env-prefix:"SURVEYFILL_SUPERVISOR_"`
	Status     output.WriterConfig `yaml:"status" env-prefix:"SURVEYFILL_STATUS_"`
}

// NewConfig reads the config file at configPath. A missing file is not an
// error as long as it is the default one, the configuration is then taken
// from the environment and the defaults.
func NewConfig(configPath string) (*Config, error) {
	var config Config
	path := configPath
	if path == "" {
		path = DefaultPath
	}
	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err := cleanenv.ReadConfig(path, &config); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && configPath == "":
		if err := cleanenv.ReadEnv(&config); err != nil {
			return nil, fmt.Errorf("failed to read config from environment: %w", err)
		}
	default:
		return nil, err
	}
	return &config, nil
}

// Usage returns the description of all environment variables.
func Usage() string {
	var config Config
	usage, err := cleanenv.GetDescription(&config, nil)
	if err != nil {
		return err.Error()
	}
	return usage
}
