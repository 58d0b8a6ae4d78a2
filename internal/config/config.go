// Package config loads the settings shared by the command-line programs.
//
// Values are layered: built-in defaults, then an optional TOML or YAML file,
// then environment variables (a .env file in the working directory is loaded
// first and never overrides variables that are already set).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultModel         = "gpt-4o-mini"
	DefaultAddr          = ":5001"
	DefaultMaxIterations = 25
	DefaultMaxRetries    = 3
)

// ErrMissingAPIKey is reported by Validate when no OpenAI key is configured.
var ErrMissingAPIKey = errors.New("config: OPENAI_API_KEY is not set")

// Config holds every setting a program may need. Zero fields keep the
// defaults of the component they configure.
type Config struct {
	OpenAI        OpenAI   `toml:"openai" yaml:"openai"`
	Model         string   `toml:"model" yaml:"model"`
	Temperature   *float64 `toml:"temperature" yaml:"temperature"`
	MaxIterations int      `toml:"max_iterations" yaml:"max_iterations"`
	MaxRetries    int      `toml:"max_retries" yaml:"max_retries"`
	DatabaseURL   string   `toml:"database_url" yaml:"database_url"`
	Addr          string   `toml:"addr" yaml:"addr"`
	Log           Log      `toml:"log" yaml:"log"`
}

// OpenAI holds the model backend credentials.
type OpenAI struct {
	APIKey  string `toml:"api_key" yaml:"api_key"`
	BaseURL string `toml:"base_url" yaml:"base_url"`
}

// Log selects the observability backend: "slog" (default) or "logrus".
// Format and Level are read by slog; logrus uses Level only.
type Log struct {
	Backend string `toml:"backend" yaml:"backend"`
	Format  string `toml:"format" yaml:"format"`
	Level   string `toml:"level" yaml:"level"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Model:         DefaultModel,
		MaxIterations: DefaultMaxIterations,
		MaxRetries:    DefaultMaxRetries,
		Addr:          DefaultAddr,
		Log:           Log{Backend: "slog", Format: "text", Level: "info"},
	}
}

// Load builds the configuration. path may be empty; otherwise it names a
// .toml, .yaml or .yml file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		return fmt.Errorf("config: unsupported file type %q (want .toml, .yaml or .yml)", ext)
	}
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays environment variables. lookup is os.LookupEnv outside
// tests.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	setString := func(key string, target *string) {
		if v, ok := lookup(key); ok && v != "" {
			*target = v
		}
	}
	setString("OPENAI_API_KEY", &c.OpenAI.APIKey)
	setString("OPENAI_BASE_URL", &c.OpenAI.BaseURL)
	setString("AGENTLOOP_MODEL", &c.Model)
	setString("AGENTLOOP_DATABASE_URL", &c.DatabaseURL)
	setString("AGENTLOOP_ADDR", &c.Addr)
	setString("AGENTLOOP_LOG_BACKEND", &c.Log.Backend)
	setString("AGENTLOOP_LOG_FORMAT", &c.Log.Format)
	setString("AGENTLOOP_LOG_LEVEL", &c.Log.Level)

	if v, ok := lookup("AGENTLOOP_TEMPERATURE"); ok && v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("AGENTLOOP_TEMPERATURE: %w", err))
		} else {
			c.Temperature = &t
		}
	}
	setInt := func(key string, target *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*target = n
		}
	}
	setInt("AGENTLOOP_MAX_ITERATIONS", &c.MaxIterations)
	setInt("AGENTLOOP_MAX_RETRIES", &c.MaxRetries)

	if len(errs) > 0 {
		return fmt.Errorf("config: environment: %w", errors.Join(errs...))
	}
	return nil
}

// Validate reports settings that would make a program fail later.
func (c *Config) Validate() error {
	var errs []error
	if c.OpenAI.APIKey == "" {
		errs = append(errs, ErrMissingAPIKey)
	}
	if c.Model == "" {
		errs = append(errs, errors.New("config: model is empty"))
	}
	if c.MaxIterations < 1 {
		errs = append(errs, fmt.Errorf("config: max_iterations must be positive, got %d", c.MaxIterations))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("config: max_retries must not be negative, got %d", c.MaxRetries))
	}
	if t := c.Temperature; t != nil && (*t < 0 || *t > 2) {
		errs = append(errs, fmt.Errorf("config: temperature must be within [0, 2], got %g", *t))
	}
	switch c.Log.Backend {
	case "", "slog", "logrus":
	default:
		errs = append(errs, fmt.Errorf("config: unknown log backend %q", c.Log.Backend))
	}
	return errors.Join(errs...)
}
