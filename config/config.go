// Package config resolves the web app settings from defaults, an optional
// TOML file, the environment (including a .env file) and command line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	// DefaultTasksPath is relative to the working directory the server is
	// started from.
	DefaultTasksPath = "tasks.json"
	DefaultHost      = "0.0.0.0"
	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultAppName   = "Task Manager UI"
	DefaultEnvFile   = ".env"
)

// Environment variable names.
const (
	EnvTasksPath   = "TASKS_JSON_PATH"
	EnvHost        = "SERVER_HOST"
	EnvPort        = "SERVER_PORT"
	EnvPortLegacy  = "PORT"
	EnvCORSOrigins = "CORS_ALLOWED_ORIGINS"
	EnvLogLevel    = "LOG_LEVEL"
	EnvLogFormat   = "LOG_FORMAT"
	EnvAppName     = "APP_NAME"
	EnvWatch       = "TASKS_WATCH"
	EnvConfigFile  = "TASKWEB_CONFIG"
)

type Config struct {
	TasksPath      string   `toml:"tasks_file"`
	Host           string   `toml:"host"`
	Port           string   `toml:"port"`
	AllowedOrigins []string `toml:"cors_allowed_origins"`
	LogLevel       string   `toml:"log_level"`
	LogFormat      string   `toml:"log_format"`
	AppName        string   `toml:"app_name"`
	Watch          bool     `toml:"watch"`
}

func Default() Config {
	return Config{
		TasksPath:      DefaultTasksPath,
		Host:           DefaultHost,
		Port:           DefaultPort,
		AllowedOrigins: []string{"*"},
		LogLevel:       DefaultLogLevel,
		LogFormat:      DefaultLogFormat,
		AppName:        DefaultAppName,
	}
}

// Addr is the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// LoadEnvFile loads a .env file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err := godotenv.Load(path); err != nil {
		return false, fmt.Errorf("loading env file %s: %w", path, err)
	}
	return true, nil
}

// Load builds the configuration from defaults, the TOML file at configPath
// (skipped when empty) and then lookupEnv.
func Load(configPath string, lookupEnv func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if configPath != "" {
		if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", configPath, err)
		}
	}

	if err := applyEnv(&cfg, lookupEnv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookupEnv func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookupEnv(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvTasksPath); ok {
		cfg.TasksPath = v
	}
	if v, ok := get(EnvHost); ok {
		cfg.Host = v
	}
	if v, ok := get(EnvPort); ok {
		cfg.Port = v
	} else if v, ok := get(EnvPortLegacy); ok {
		cfg.Port = v
	}
	if v, ok := get(EnvCORSOrigins); ok {
		cfg.AllowedOrigins = splitList(v)
	}
	if v, ok := get(EnvLogLevel); ok {
		cfg.LogLevel = v
	}
	if v, ok := get(EnvLogFormat); ok {
		cfg.LogFormat = v
	}
	if v, ok := get(EnvAppName); ok {
		cfg.AppName = v
	}
	if v, ok := get(EnvWatch); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWatch, err)
		}
		cfg.Watch = b
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate reports settings the server cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.TasksPath) == "" {
		return errors.New("tasks file path is empty")
	}
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	if len(c.AllowedOrigins) == 0 {
		return errors.New("no CORS origins configured")
	}
	return nil
}
