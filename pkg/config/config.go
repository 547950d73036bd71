package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

const (
	xdgAppName = "taskhr"
	configFile = "config.yaml"
)

type Config struct {
	APIURL         string        `yaml:"api_url" env:"TASKHR_API_URL" env-default:"http://localhost:8080"`
	APIToken       string        `yaml:"api_token,omitempty" env:"TASKHR_API_TOKEN"`
	Timeout        time.Duration `yaml:"timeout" env:"TASKHR_TIMEOUT" env-default:"15s"`
	LogLevel       string        `yaml:"log_level" env:"TASKHR_LOG_LEVEL" env-default:"INFO"`
	Calendar       string        `yaml:"calendar" env:"TASKHR_CALENDAR" env-default:"Tasks"`
	CacheExpiry    time.Duration `yaml:"cache_expiry" env:"TASKHR_CACHE_EXPIRY" env-default:"5m"`
	SandboxAddress string        `yaml:"sandbox_address" env:"TASKHR_SANDBOX_ADDRESS" env-default:":8080"`
}

// Dir returns the directory holding the config file, tokens and sync state.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads path and applies environment overrides. A missing file yields
// the defaults plus the environment.
func LoadFrom(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return nil, fmt.Errorf("failed to read config %q: %w", path, err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}
	return &cfg, nil
}

func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

func SaveTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

var setters = map[string]func(*Config, string) error{
	"api_url":         func(c *Config, v string) error { c.APIURL = v; return nil },
	"api_token":       func(c *Config, v string) error { c.APIToken = v; return nil },
	"calendar":        func(c *Config, v string) error { c.Calendar = v; return nil },
	"sandbox_address": func(c *Config, v string) error { c.SandboxAddress = v; return nil },
	"log_level": func(c *Config, v string) error {
		switch lvl := strings.ToUpper(v); lvl {
		case "DEBUG", "INFO", "WARN", "ERROR":
			c.LogLevel = lvl
			return nil
		}
		return fmt.Errorf("unknown log level %q", v)
	},
	"timeout":      durationSetter(func(c *Config) *time.Duration { return &c.Timeout }),
	"cache_expiry": durationSetter(func(c *Config) *time.Duration { return &c.CacheExpiry }),
}

func durationSetter(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		if d <= 0 {
			return fmt.Errorf("duration must be positive, got %s", d)
		}
		*field(c) = d
		return nil
	}
}

// Set assigns value to the setting named by its yaml key.
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := set(c, value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}

// Keys lists the settings Set accepts.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
