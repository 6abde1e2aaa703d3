package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Config holds the taginput server configuration.
type Config struct {
	HTTP     HTTPConfig         `yaml:"http"`
	Database DatabaseConfig     `yaml:"database"`
	Auth     AuthConfig         `yaml:"auth"`
	Storage  StorageConfig      `yaml:"storage"`
	Logging  LoggingConfig      `yaml:"logging"`
	Schema   []RecordTypeConfig `yaml:"schema"`
	Fields   []FieldConfig      `yaml:"fields"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: determined by env)
	Format string `yaml:"format"` // json, console (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Database drivers.
const (
	DriverValkey   = "valkey"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, postgres (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	DSN              string   `yaml:"dsn"`
	MaxConns         int      `yaml:"max_conns"`
	MaxIdleConns     int      `yaml:"max_idle_conns"`
	AutoMigrate      bool     `yaml:"auto_migrate"` // postgres only
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds key-value storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// RecordTypeConfig declares one record type of the schema.
type RecordTypeConfig struct {
	Name       string            `yaml:"name"`
	Attributes []string          `yaml:"attributes"`
	Relations  map[string]string `yaml:"relations"` // relation name -> related type
}

// FilterConfig restricts suggestions by exact attribute values.
type FilterConfig struct {
	Must    map[string]string `yaml:"must"`
	Should  map[string]string `yaml:"should"`
	MustNot map[string]string `yaml:"must_not"`
}

// FieldConfig configures one tag input field.
type FieldConfig struct {
	Name           string       `yaml:"name"`
	Title          string       `yaml:"title"`
	Value          string       `yaml:"value"`
	TopicType      string       `yaml:"topic_type"`
	ValueAttribute string       `yaml:"value_attribute"` // default: Title
	Separator      string       `yaml:"separator"`       // one character, default: space
	StaticTags     []string     `yaml:"static_tags"`
	SuggestFilter  FilterConfig `yaml:"suggest_filter"`
	SuggestSort    string       `yaml:"suggest_sort"` // "<attribute> [asc|desc]"
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "taginput:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver must be valkey, redis or postgres, got %q", c.Database.Driver)
	}

	types := make(map[string]bool, len(c.Schema))
	for i, rt := range c.Schema {
		if rt.Name == "" {
			return fmt.Errorf("schema[%d].name is required", i)
		}
		if types[rt.Name] {
			return fmt.Errorf("schema: duplicate record type %q", rt.Name)
		}
		types[rt.Name] = true
	}

	names := make(map[string]bool, len(c.Fields))
	for i, f := range c.Fields {
		if f.Name == "" {
			return fmt.Errorf("fields[%d].name is required", i)
		}
		if names[f.Name] {
			return fmt.Errorf("fields: duplicate field %q", f.Name)
		}
		names[f.Name] = true
		if utf8.RuneCountInString(f.Separator) > 1 {
			return fmt.Errorf("fields.%s.separator must be a single character, got %q", f.Name, f.Separator)
		}
		if f.TopicType != "" && !types[f.TopicType] {
			return fmt.Errorf("fields.%s.topic_type %q is not declared in schema", f.Name, f.TopicType)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
