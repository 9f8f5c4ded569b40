package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the elephant server configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Auth    AuthConfig    `yaml:"auth"`
	Blob    BlobConfig    `yaml:"blob"`
	Search  SearchConfig  `yaml:"search"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
// An empty key list disables authentication.
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

// BlobConfig holds blob store settings. The blob store is the durable
// source of truth for all records.
type BlobConfig struct {
	Driver string `yaml:"driver"` // s3, filesystem, memory (default: filesystem)

	// s3 driver
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"` // custom endpoint for MinIO and friends
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	PathStyle bool   `yaml:"path_style"`

	// filesystem driver
	Root string `yaml:"root"`
}

// SearchConfig holds search index settings. The index is derived state,
// rebuildable from the blob store at any time.
type SearchConfig struct {
	Driver string `yaml:"driver"` // bleve, redis (default: bleve)

	// bleve driver; empty path means in-memory indexes
	Path string `yaml:"path"`

	// redis driver
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`

	DefaultSize int `yaml:"default_size"` // default result count when a query has no size hint
	MaxSize     int `yaml:"max_size"`
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
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Blob.Driver == "" {
		c.Blob.Driver = "filesystem"
	}
	if c.Blob.Driver == "filesystem" && c.Blob.Root == "" {
		c.Blob.Root = "data/blobs"
	}
	if c.Search.Driver == "" {
		c.Search.Driver = "bleve"
	}
	if c.Search.Driver == "bleve" && c.Search.Path == "" {
		c.Search.Path = "data/indexes"
	}
	if c.Search.DefaultSize <= 0 {
		c.Search.DefaultSize = 10
	}
	if c.Search.MaxSize <= 0 {
		c.Search.MaxSize = 1000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Blob.Driver {
	case "s3":
		if c.Blob.Bucket == "" {
			return fmt.Errorf("blob.bucket is required for the s3 driver")
		}
	case "filesystem":
		if c.Blob.Root == "" {
			return fmt.Errorf("blob.root is required for the filesystem driver")
		}
	case "memory":
		// ok
	default:
		return fmt.Errorf("unknown blob driver %q", c.Blob.Driver)
	}
	switch c.Search.Driver {
	case "bleve":
		// ok, empty path means in-memory
	case "redis":
		if len(c.Search.Addrs) == 0 {
			return fmt.Errorf("search.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown search driver %q", c.Search.Driver)
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
