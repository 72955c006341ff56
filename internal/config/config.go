package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/traverse/internal/cache"
)

// Config captures everything Traverse needs at startup.
type Config struct {
	APIURL          string
	Username        string
	Token           string
	CacheDir        string
	CacheTTL        time.Duration
	PersistFailures string
	PollInterval    time.Duration
	ReminderHour    int
	LogLevel        string
	LogFile         string
}

const (
	defaultConfigPath   = "~/.config/traverse/config.toml"
	defaultAPIURL       = "https://api.traverse.dev"
	defaultCacheDir     = "~/.local/share/traverse/cache"
	defaultLogFile      = "~/.local/state/traverse/traverse.log"
	defaultPollInterval = 5 * time.Minute
	defaultReminderHour = 18
	defaultLogLevel     = "info"
	minPollInterval     = 30 * time.Second
)

// Environment variables that override the file.
const (
	EnvAPIURL   = "TRAVERSE_API_URL"
	EnvUsername = "TRAVERSE_USERNAME"
	EnvToken    = "TRAVERSE_TOKEN"
	EnvCacheDir = "TRAVERSE_CACHE_DIR"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:          defaultAPIURL,
		CacheDir:        mustExpand(defaultCacheDir),
		CacheTTL:        cache.DefaultTTL,
		PersistFailures: cache.PersistDegrade.String(),
		PollInterval:    defaultPollInterval,
		ReminderHour:    defaultReminderHour,
		LogLevel:        defaultLogLevel,
		LogFile:         mustExpand(defaultLogFile),
	}
}

// Load locates and parses the config file, falling back to defaults when it is missing.
// Environment overrides are applied last.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := cfg.ApplyEnv(); err != nil {
				return Config{}, err
			}
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL          string `toml:"api_url"`
		Username        string `toml:"username"`
		Token           string `toml:"token"`
		CacheDir        string `toml:"cache_dir"`
		CacheTTL        string `toml:"cache_ttl"`
		PersistFailures string `toml:"persist_failures"`
		PollInterval    string `toml:"poll_interval"`
		ReminderHour    *int   `toml:"reminder_hour"`
		LogLevel        string `toml:"log_level"`
		LogFile         string `toml:"log_file"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	cfg.Username = strings.TrimSpace(raw.Username)
	cfg.Token = strings.TrimSpace(raw.Token)
	if v := strings.TrimSpace(raw.CacheDir); v != "" {
		cfg.CacheDir = mustExpand(v)
	}
	if cfg.CacheTTL, err = parseDuration("cache_ttl", raw.CacheTTL, cfg.CacheTTL); err != nil {
		return Config{}, err
	}
	if v := strings.TrimSpace(raw.PersistFailures); v != "" {
		cfg.PersistFailures = strings.ToLower(v)
	}
	if cfg.PollInterval, err = parseDuration("poll_interval", raw.PollInterval, cfg.PollInterval); err != nil {
		return Config{}, err
	}
	if raw.ReminderHour != nil {
		cfg.ReminderHour = *raw.ReminderHour
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: TRAVERSE_API_URL, TRAVERSE_USERNAME, TRAVERSE_TOKEN, TRAVERSE_CACHE_DIR.
func (c *Config) ApplyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvUsername)); v != "" {
		c.Username = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvToken)); v != "" {
		c.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCacheDir)); v != "" {
		dir, err := expandPath(v)
		if err != nil {
			return fmt.Errorf("config: invalid %s %q: %w", EnvCacheDir, v, err)
		}
		c.CacheDir = dir
	}
	return nil
}

// Validate checks that config values are usable. A missing username is not
// an error here; commands that talk to the API check for it themselves.
func (c Config) Validate() error {
	if _, err := url.Parse(c.APIURL); err != nil || strings.TrimSpace(c.APIURL) == "" {
		return fmt.Errorf("config: api_url %q is not a valid URL", c.APIURL)
	}
	if strings.ContainsAny(c.Username, "/?#") {
		return fmt.Errorf("config: username %q must not contain '/', '?' or '#'", c.Username)
	}
	if u := strings.TrimSpace(c.Username); u == "." || u == ".." {
		return fmt.Errorf("config: username %q is not a valid path segment", c.Username)
	}
	if strings.TrimSpace(c.CacheDir) == "" {
		return errors.New("config: cache_dir cannot be empty")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("config: cache_ttl must be positive, got %v", c.CacheTTL)
	}
	if _, err := cache.ParsePersistPolicy(c.PersistFailures); err != nil {
		return fmt.Errorf("config: persist_failures: %w", err)
	}
	if c.PollInterval < minPollInterval {
		return fmt.Errorf("config: poll_interval must be at least %v, got %v", minPollInterval, c.PollInterval)
	}
	if c.ReminderHour < 0 || c.ReminderHour > 23 {
		return fmt.Errorf("config: reminder_hour must be between 0 and 23, got %d", c.ReminderHour)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

// PersistPolicy returns the parsed persist_failures value.
func (c Config) PersistPolicy() cache.PersistPolicy {
	p, _ := cache.ParsePersistPolicy(c.PersistFailures)
	return p
}

// WidgetDir returns where the widget snapshot and activity state live. It is
// a sibling of the cache directory and never the cache directory itself.
func (c Config) WidgetDir() string {
	dir := c.CacheDir
	if strings.TrimSpace(dir) == "" {
		dir = mustExpand(defaultCacheDir)
	}
	dir = filepath.Clean(dir)
	shared := filepath.Join(filepath.Dir(dir), "shared")
	if shared == dir {
		shared = filepath.Join(filepath.Dir(dir), "shared-widget")
	}
	return shared
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse config: %s: %w", key, err)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
