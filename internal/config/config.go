// Package config handles reading and writing config.yaml in the
// servicesaver home directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level structure for config.yaml.
type Config struct {
	Version  int            `yaml:"version"`
	Firebase FirebaseConfig `yaml:"firebase"`
	Backend  BackendConfig  `yaml:"backend"`
	Cache    CacheConfig    `yaml:"cache"`
	Sync     SyncConfig     `yaml:"sync"`
	Push     PushConfig     `yaml:"push"`
	Log      LogConfig      `yaml:"log"`
}

// FirebaseConfig identifies the Firebase project and its auth endpoints.
type FirebaseConfig struct {
	ProjectID       string `yaml:"project_id"`
	APIKey          string `yaml:"api_key"`
	CredentialsFile string `yaml:"credentials_file,omitempty"` // service account, optional
	AuthURL         string `yaml:"auth_url"`
	TokenURL        string `yaml:"token_url"`
}

// BackendConfig locates the negotiation backend.
type BackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"` // 0 = no timeout
}

// Timeout returns the request timeout, zero meaning none.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// CacheConfig selects the local snapshot cache.
type CacheConfig struct {
	Driver    string `yaml:"driver"` // "sqlite" | "memory" | "redis" | "none"
	Path      string `yaml:"path"`   // sqlite file, relative to the home dir
	RedisAddr string `yaml:"redis_addr,omitempty"`
	RedisDB   int    `yaml:"redis_db,omitempty"`
}

// SyncConfig tunes listener reconnection.
type SyncConfig struct {
	ReconnectPerSecond float64 `yaml:"reconnect_per_second"`
	ReconnectBurst     int     `yaml:"reconnect_burst"`
	BreakerThreshold   int     `yaml:"breaker_threshold"`
}

// PushConfig holds the device registration for push notifications.
type PushConfig struct {
	DeviceKey   string `yaml:"device_key,omitempty"`
	DeviceToken string `yaml:"device_token,omitempty"`
}

// LogConfig controls the JSONL log file.
type LogConfig struct {
	Level string `yaml:"level"`
}

const (
	configFile = "config.yaml"
	defaultDir = ".servicesaver"

	// EnvHome overrides the home directory.
	EnvHome = "SERVICESAVER_HOME"
)

// Env overrides applied by Load.
const (
	EnvAPIKey    = "SERVICESAVER_API_KEY"
	EnvProjectID = "SERVICESAVER_PROJECT_ID"
	EnvBaseURL   = "SERVICESAVER_BASE_URL"
)

// ErrNotConfigured is returned by Validate when the Firebase project is unset.
var ErrNotConfigured = errors.New("firebase project not configured; run `servicesaver config init`")

// Home resolves the home directory: the flag value, then $SERVICESAVER_HOME,
// then ~/.servicesaver.
func Home(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := os.Getenv(EnvHome); env != "" {
		return env, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(userHome, defaultDir), nil
}

// Path returns the config file path under dir.
func Path(dir string) string {
	return filepath.Join(dir, configFile)
}

// ReadConfig reads config.yaml from the given home directory.
// Returns an error if the file is not found or YAML is malformed.
func ReadConfig(dir string) (*Config, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// WriteConfig writes cfg to config.yaml in the given home directory.
// Creates the directory if it does not exist.
func WriteConfig(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err := os.WriteFile(Path(dir), data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Load reads the config under dir, falling back to defaults when the file
// does not exist, and applies environment overrides.
func Load(dir string, getenv func(string) string) (*Config, error) {
	cfg, err := ReadConfig(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = DefaultConfig()
	}
	cfg.ApplyEnv(getenv)
	return cfg, nil
}

// ApplyEnv overlays the supported environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv(EnvAPIKey); v != "" {
		c.Firebase.APIKey = v
	}
	if v := getenv(EnvProjectID); v != "" {
		c.Firebase.ProjectID = v
	}
	if v := getenv(EnvBaseURL); v != "" {
		c.Backend.BaseURL = v
	}
}

// Validate checks the fields needed to talk to Firebase and the backend.
func (c *Config) Validate() error {
	if c.Firebase.ProjectID == "" || c.Firebase.APIKey == "" {
		return ErrNotConfigured
	}
	if !strings.HasPrefix(c.Backend.BaseURL, "http://") && !strings.HasPrefix(c.Backend.BaseURL, "https://") {
		return fmt.Errorf("backend.base_url %q must be an http(s) URL", c.Backend.BaseURL)
	}
	switch c.Cache.Driver {
	case "sqlite", "memory", "redis", "none", "":
	default:
		return fmt.Errorf("unknown cache driver %q", c.Cache.Driver)
	}
	return nil
}

// CachePath resolves the sqlite cache file against dir.
func (c *Config) CachePath(dir string) string {
	if filepath.IsAbs(c.Cache.Path) {
		return c.Cache.Path
	}
	return filepath.Join(dir, c.Cache.Path)
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Firebase: FirebaseConfig{
			AuthURL:  "https://identitytoolkit.googleapis.com/v1",
			TokenURL: "https://securetoken.googleapis.com/v1/token",
		},
		Backend: BackendConfig{
			BaseURL: "http://localhost:8000",
		},
		Cache: CacheConfig{
			Driver:    "sqlite",
			Path:      "cache.db",
			RedisAddr: "localhost:6379",
		},
		Sync: SyncConfig{
			ReconnectPerSecond: 0.5,
			ReconnectBurst:     3,
			BreakerThreshold:   3,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
