// Package config loads formcraft settings from a .env file, an optional
// YAML file and FORMCRAFT_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/formcraft/internal/forms"
	"github.com/abhisek/formcraft/internal/generator"
	"github.com/abhisek/formcraft/internal/llm"
)

// Config is the full application configuration.
type Config struct {
	LLM    llm.Config         `yaml:"llm"`
	Google forms.GoogleConfig `yaml:"google"`
	Forms  FormsConfig        `yaml:"forms"`

	// Defaults is the generation profile used when a request leaves a
	// field empty.
	Defaults Profile `yaml:"defaults"`

	// DBPath is the SQLite history database. Empty uses the store default.
	DBPath string `yaml:"db_path"`

	// Timeout bounds one create, edit or show call end to end.
	Timeout time.Duration `yaml:"timeout"`
}

// FormsConfig tunes the forms executor.
type FormsConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
}

// Profile is a default generation profile.
type Profile struct {
	FormType string `yaml:"form_type"`
	Audience string `yaml:"audience"`
	Language string `yaml:"language"`
	Tone     string `yaml:"tone"`
}

// Default returns the built-in configuration.
func Default() Config {
	retry := forms.DefaultRetryConfig()
	def := generator.DefaultProfile()
	return Config{
		LLM: llm.DefaultConfig(),
		Forms: FormsConfig{
			MaxRetries: retry.MaxRetries,
			BaseDelay:  retry.BaseDelay,
		},
		Defaults: Profile{
			FormType: def.FormType,
			Audience: def.Audience,
			Language: def.Language,
			Tone:     def.Tone,
		},
		Timeout: 2 * time.Minute,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/formcraft/config.yaml.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "formcraft", "config.yaml"), nil
}

// Load builds the configuration. An explicit path must exist; with an
// empty path the default location is read when present.
func Load(path string) (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if err := loadFile(path, &cfg); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	ApplyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment variables onto cfg.
func ApplyEnv(cfg *Config) {
	llm.ApplyEnv(&cfg.LLM)

	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
			}
		}
	}

	set(&cfg.Google.ClientID, "GOOGLE_OAUTH_CLIENT_ID", "FORMCRAFT_GOOGLE_CLIENT_ID")
	set(&cfg.Google.ClientSecret, "GOOGLE_OAUTH_CLIENT_SECRET", "FORMCRAFT_GOOGLE_CLIENT_SECRET")
	set(&cfg.Google.RefreshToken, "GOOGLE_OAUTH_REFRESH_TOKEN", "FORMCRAFT_GOOGLE_REFRESH_TOKEN")
	set(&cfg.Google.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS", "FORMCRAFT_GOOGLE_CREDENTIALS_FILE")
	set(&cfg.Google.Subject, "FORMCRAFT_GOOGLE_SUBJECT")

	set(&cfg.DBPath, "FORMCRAFT_DB")

	set(&cfg.Defaults.FormType, "FORMCRAFT_FORM_TYPE")
	set(&cfg.Defaults.Audience, "FORMCRAFT_AUDIENCE")
	set(&cfg.Defaults.Language, "FORMCRAFT_LANGUAGE")
	set(&cfg.Defaults.Tone, "FORMCRAFT_TONE")

	if v := os.Getenv("FORMCRAFT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
}

// Validate checks settings that do not depend on which command runs.
// Provider keys and Google credentials are checked when the client is
// built, so offline commands work without them.
func (c Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.Forms.MaxRetries < 0 {
		return fmt.Errorf("forms.max_retries must not be negative, got %d", c.Forms.MaxRetries)
	}
	if c.Forms.BaseDelay < 0 {
		return fmt.Errorf("forms.base_delay must not be negative, got %s", c.Forms.BaseDelay)
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("llm.timeout must not be negative, got %s", c.LLM.Timeout)
	}
	return nil
}

// RetryConfig returns the executor retry policy.
func (c Config) RetryConfig() forms.RetryConfig {
	return forms.RetryConfig{MaxRetries: c.Forms.MaxRetries, BaseDelay: c.Forms.BaseDelay}
}

// ApplyDefaults fills empty profile fields of in from c.Defaults.
func (c Config) ApplyDefaults(in generator.Input) generator.Input {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&in.FormType, c.Defaults.FormType)
	fill(&in.Audience, c.Defaults.Audience)
	fill(&in.Language, c.Defaults.Language)
	fill(&in.Tone, c.Defaults.Tone)
	return in
}
