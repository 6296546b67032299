package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr           = ":8080"
	DefaultModelsDir      = "models"
	DefaultRequestTimeout = 10 * time.Second
	DefaultWhoisTimeout   = 5 * time.Second
	DefaultTLSTimeout     = 5 * time.Second
	DefaultFeedTimeout    = 15 * time.Second
	DefaultWhoisRate      = 2.0 // queries per second
	DefaultMaxBodyBytes   = 5 * 1024 * 1024
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// EnvConfigFile names the YAML file when no path is passed to Load.
	EnvConfigFile = "PHISHGUARD_CONFIG"
)

// DefaultShorteners are matched against the host and its parent domains.
var DefaultShorteners = []string{
	"bit.ly", "tinyurl.com", "goo.gl", "t.co", "ow.ly", "is.gd",
	"buff.ly", "bit.do", "mcaf.ee", "rebrand.ly", "tiny.cc", "cutt.ly",
}

type Config struct {
	Addr           string        `yaml:"addr"`
	ModelsDir      string        `yaml:"models_dir"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	WhoisTimeout   time.Duration `yaml:"whois_timeout"`
	TLSTimeout     time.Duration `yaml:"tls_timeout"`
	FeedTimeout    time.Duration `yaml:"feed_timeout"`
	WhoisRate      float64       `yaml:"whois_rate"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	UserAgent      string        `yaml:"user_agent"`
	// OpenPhishURL enables the reputation feed when non-empty.
	OpenPhishURL string   `yaml:"openphish_url"`
	Shorteners   []string `yaml:"shorteners"`
	LogLevel     string   `yaml:"log_level"`
	LogFormat    string   `yaml:"log_format"`
}

func Default() Config {
	return Config{
		Addr:           DefaultAddr,
		ModelsDir:      DefaultModelsDir,
		RequestTimeout: DefaultRequestTimeout,
		WhoisTimeout:   DefaultWhoisTimeout,
		TLSTimeout:     DefaultTLSTimeout,
		FeedTimeout:    DefaultFeedTimeout,
		WhoisRate:      DefaultWhoisRate,
		MaxBodyBytes:   DefaultMaxBodyBytes,
		UserAgent:      DefaultUserAgent,
		Shorteners:     append([]string(nil), DefaultShorteners...),
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load builds the configuration from defaults, the YAML file at path (or
// $PHISHGUARD_CONFIG), a .env file in the working directory, and finally the
// process environment. Later sources win.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = os.Getenv(EnvConfigFile)
		explicit = path != ""
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if !errors.Is(err, ErrConfigNotFound) || explicit {
				return cfg, err
			}
		}
	}

	_ = godotenv.Load()

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", path, ErrConfigNotFound)
		}
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		c.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	str("PHISHGUARD_ADDR", &c.Addr)
	str("PHISHGUARD_MODELS_DIR", &c.ModelsDir)
	str("PHISHGUARD_USER_AGENT", &c.UserAgent)
	str("PHISHGUARD_OPENPHISH_URL", &c.OpenPhishURL)
	str("PHISHGUARD_LOG_LEVEL", &c.LogLevel)
	str("PHISHGUARD_LOG_FORMAT", &c.LogFormat)

	for key, dst := range map[string]*time.Duration{
		"PHISHGUARD_REQUEST_TIMEOUT": &c.RequestTimeout,
		"PHISHGUARD_WHOIS_TIMEOUT":   &c.WhoisTimeout,
		"PHISHGUARD_TLS_TIMEOUT":     &c.TLSTimeout,
		"PHISHGUARD_FEED_TIMEOUT":    &c.FeedTimeout,
	} {
		if err := dur(key, dst); err != nil {
			return err
		}
	}

	if v, ok := lookup("PHISHGUARD_WHOIS_RATE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("PHISHGUARD_WHOIS_RATE: %w", err)
		}
		c.WhoisRate = f
	}
	if v, ok := lookup("PHISHGUARD_MAX_BODY_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("PHISHGUARD_MAX_BODY_BYTES: %w", err)
		}
		c.MaxBodyBytes = n
	}
	return nil
}

// parseDuration accepts Go durations ("7s") and bare seconds ("7").
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return ErrNoAddr
	}
	if c.ModelsDir == "" {
		return ErrNoModelsDir
	}
	if c.RequestTimeout <= 0 || c.WhoisTimeout <= 0 || c.TLSTimeout <= 0 || c.FeedTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.WhoisRate <= 0 {
		return ErrInvalidRate
	}
	if c.MaxBodyBytes <= 0 {
		return ErrInvalidBodySize
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return ErrInvalidLogFormat
	}
	return nil
}
