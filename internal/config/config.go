// Package config provides configuration loading and validation for the interview service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/jonathan/hired/internal/observability"
	"github.com/jonathan/hired/internal/types"
)

// Store backends
const (
	BackendMemory    = "memory"
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
	BackendBadger    = "badger"
)

// LLM providers
const (
	ProviderGemini = "gemini"
	ProviderVertex = "vertex"
	ProviderOpenAI = "openai"
)

// Config is the full service configuration. It is loaded from an optional YAML file,
// then overridden by environment variables.
type Config struct {
	Server    ServerConfig            `yaml:"server"`
	LLM       LLMConfig               `yaml:"llm"`
	Store     StoreConfig             `yaml:"store"`
	Interview InterviewConfig         `yaml:"interview"`
	Auth      AuthConfig              `yaml:"auth"`
	RateLimit RateLimitConfig         `yaml:"rate_limit"`
	Log       observability.LogConfig `yaml:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port                   int      `yaml:"port"`
	CORSOrigins            []string `yaml:"cors_origins"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds"`
}

// LLMConfig selects the model provider and its credentials.
type LLMConfig struct {
	Provider string            `yaml:"provider"` // gemini, vertex or openai
	APIKey   string            `yaml:"api_key"`
	Project  string            `yaml:"project"`  // vertex only
	Location string            `yaml:"location"` // vertex only
	Models   map[string]string `yaml:"models"`   // tier name -> model override
}

// StoreConfig selects the session store backend.
type StoreConfig struct {
	Backend          string `yaml:"backend"`
	DatabaseURL      string `yaml:"database_url"`
	FirestoreProject string `yaml:"firestore_project"`
	BadgerDir        string `yaml:"badger_dir"`
}

// InterviewConfig tunes interview sessions.
type InterviewConfig struct {
	NumberOfQuestions int `yaml:"number_of_questions"`
}

// AuthConfig holds token and password hashing settings.
type AuthConfig struct {
	JWTSecret          string `yaml:"jwt_secret"`
	JWTExpirationHours int    `yaml:"jwt_expiration_hours"`
	BcryptCost         int    `yaml:"bcrypt_cost"`
	PasswordPepper     string `yaml:"password_pepper"`
}

// RateLimitConfig bounds request rates per client. Endpoint limits are built in;
// these settings cover everything else.
type RateLimitConfig struct {
	Enabled         bool          `yaml:"enabled"`
	DefaultLimit    int           `yaml:"default_limit"`
	DefaultWindow   time.Duration `yaml:"default_window"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	Whitelist       []string      `yaml:"whitelist"`
	Blacklist       []string      `yaml:"blacklist"`
}

// Default returns a configuration with every optional value filled in.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                   8080,
			CORSOrigins:            []string{"*"},
			ShutdownTimeoutSeconds: 10,
		},
		LLM: LLMConfig{
			Provider: ProviderGemini,
			Location: "us-central1",
		},
		Store: StoreConfig{
			Backend:   BackendMemory,
			BadgerDir: "data/sessions",
		},
		Interview: InterviewConfig{
			NumberOfQuestions: types.DefaultNumberOfQuestions,
		},
		Auth: AuthConfig{
			JWTExpirationHours: 24,
			BcryptCost:         12,
		},
		RateLimit: RateLimitConfig{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
		Log: observability.LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if any), then the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return nil
}

// ApplyEnv overrides values from well-known environment variables.
func (c *Config) ApplyEnv() error {
	var err error
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		v := os.Getenv(key)
		if v == "" || err != nil {
			return
		}
		n, convErr := strconv.Atoi(v)
		if convErr != nil {
			err = fmt.Errorf("invalid %s: %v", key, convErr)
			return
		}
		*dst = n
	}
	setDuration := func(key string, dst *time.Duration) {
		v := os.Getenv(key)
		if v == "" || err != nil {
			return
		}
		d, convErr := time.ParseDuration(v)
		if convErr != nil {
			err = fmt.Errorf("invalid %s: %v", key, convErr)
			return
		}
		*dst = d
	}

	setInt("PORT", &c.Server.Port)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	setString("LLM_PROVIDER", &c.LLM.Provider)
	setString("GOOGLE_CLOUD_PROJECT", &c.LLM.Project)
	setString("GOOGLE_CLOUD_LOCATION", &c.LLM.Location)
	switch c.LLM.Provider {
	case ProviderOpenAI:
		setString("OPENAI_API_KEY", &c.LLM.APIKey)
	default:
		setString("GEMINI_API_KEY", &c.LLM.APIKey)
	}

	setString("STORE_BACKEND", &c.Store.Backend)
	setString("DATABASE_URL", &c.Store.DatabaseURL)
	setString("FIRESTORE_PROJECT", &c.Store.FirestoreProject)
	setString("BADGER_DIR", &c.Store.BadgerDir)

	setInt("NUMBER_OF_QUESTIONS", &c.Interview.NumberOfQuestions)

	setString("JWT_SECRET", &c.Auth.JWTSecret)
	setInt("JWT_EXPIRATION_HOURS", &c.Auth.JWTExpirationHours)
	setInt("BCRYPT_COST", &c.Auth.BcryptCost)
	setString("PASSWORD_PEPPER", &c.Auth.PasswordPepper)

	if v := os.Getenv("RATE_LIMIT_ENABLED"); v != "" && err == nil {
		b, convErr := strconv.ParseBool(v)
		if convErr != nil {
			return fmt.Errorf("invalid RATE_LIMIT_ENABLED: %v", convErr)
		}
		c.RateLimit.Enabled = b
	}
	setInt("RATE_LIMIT_DEFAULT_LIMIT", &c.RateLimit.DefaultLimit)
	setDuration("RATE_LIMIT_DEFAULT_WINDOW", &c.RateLimit.DefaultWindow)
	setDuration("RATE_LIMIT_CLEANUP_INTERVAL", &c.RateLimit.CleanupInterval)
	if v := os.Getenv("RATE_LIMIT_WHITELIST"); v != "" {
		c.RateLimit.Whitelist = splitList(v)
	}
	if v := os.Getenv("RATE_LIMIT_BLACKLIST"); v != "" {
		c.RateLimit.Blacklist = splitList(v)
	}

	setString("LOG_LEVEL", &c.Log.Level)
	setString("LOG_FORMAT", &c.Log.Format)

	return err
}

// Validate checks that the configuration has valid values.
// Credentials are not required here; commands that need them check on use.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' out of range: %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'server.shutdown_timeout_seconds' must be non-negative")
	}

	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAI:
	case ProviderVertex:
		if c.LLM.Project == "" {
			return fmt.Errorf("config error: 'llm.project' is required for the vertex provider")
		}
	default:
		return fmt.Errorf("config error: unknown llm provider %q", c.LLM.Provider)
	}

	// A backend without its connection settings is allowed; the store opens as unavailable.
	switch c.Store.Backend {
	case BackendMemory, BackendPostgres, BackendFirestore, BackendBadger, "":
	default:
		return fmt.Errorf("config error: unknown store backend %q", c.Store.Backend)
	}

	if c.RateLimit.Enabled && (c.RateLimit.DefaultLimit < 1 || c.RateLimit.DefaultWindow <= 0) {
		return fmt.Errorf("config error: 'rate_limit' needs a positive default_limit and default_window")
	}

	if c.Interview.NumberOfQuestions < 1 {
		return fmt.Errorf("config error: 'interview.number_of_questions' must be at least 1")
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
