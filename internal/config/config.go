// Package config reads the gateway configuration from an optional YAML file
// and environment variables. Environment variables take precedence.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

const (
	ProviderWhisper = "whisper"
	ProviderOpenAI  = "openai"
)

const (
	defaultPort               = "8080"
	defaultProvider           = ProviderWhisper
	defaultServiceURL         = "http://localhost:8000"
	defaultConnectTimeout     = 5 * time.Second
	defaultTimeout            = 300 * time.Second
	defaultMaxFileSize        = 25 << 20 // 25 MiB
	defaultAllowedExtensions  = "mp3,wav,m4a,flac,ogg,wma"
	defaultContentTypePrefix  = "audio/"
	defaultCORSAllowedOrigins = "*"
	defaultLogLevel           = "info"
	defaultLogFormat          = "json"
)

type Config struct {
	Port          string              `yaml:"port"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Upload        UploadConfig        `yaml:"upload"`
	CORS          CORSConfig          `yaml:"cors"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// TranscriptionConfig describes the backend the gateway forwards to
type TranscriptionConfig struct {
	Provider       string        `yaml:"provider"`
	URL            string        `yaml:"url"`
	APIKey         string        `yaml:"api_key"`
	Model          string        `yaml:"model"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	Timeout        time.Duration `yaml:"timeout"`
}

// UploadConfig holds the upload validation policy
type UploadConfig struct {
	MaxFileSize       int64    `yaml:"max_file_size_bytes"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
	ContentTypePrefix string   `yaml:"content_type_prefix"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Port: defaultPort,
		Transcription: TranscriptionConfig{
			Provider:       defaultProvider,
			ConnectTimeout: defaultConnectTimeout,
			Timeout:        defaultTimeout,
		},
		Upload: UploadConfig{
			MaxFileSize:       defaultMaxFileSize,
			AllowedExtensions: splitList(defaultAllowedExtensions),
			ContentTypePrefix: defaultContentTypePrefix,
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(defaultCORSAllowedOrigins),
		},
		Logging: LoggingConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if path
// is non-empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	var err error
	c.Port = getEnv("PORT", c.Port)

	t := &c.Transcription
	t.Provider = getEnv("TRANSCRIPTION_PROVIDER", t.Provider)
	t.URL = getEnv("TRANSCRIPTION_SERVICE_URL", t.URL)
	t.APIKey = getEnv("TRANSCRIPTION_API_KEY", t.APIKey)
	t.Model = getEnv("TRANSCRIPTION_MODEL", t.Model)
	if t.ConnectTimeout, err = getDuration("TRANSCRIPTION_CONNECT_TIMEOUT", t.ConnectTimeout); err != nil {
		return err
	}
	if t.Timeout, err = getDuration("TRANSCRIPTION_TIMEOUT", t.Timeout); err != nil {
		return err
	}

	u := &c.Upload
	if u.MaxFileSize, err = getBytes("MAX_FILE_SIZE_BYTES", u.MaxFileSize); err != nil {
		return err
	}
	if v := os.Getenv("ALLOWED_EXTENSIONS"); v != "" {
		u.AllowedExtensions = splitList(v)
	}
	u.ContentTypePrefix = getEnv("ALLOWED_CONTENT_TYPE_PREFIX", u.ContentTypePrefix)

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.CORS.AllowedOrigins = splitList(v)
	}

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)
	return nil
}

func (c *Config) normalize() {
	c.Transcription.Provider = strings.ToLower(strings.TrimSpace(c.Transcription.Provider))
	c.Transcription.URL = strings.TrimRight(strings.TrimSpace(c.Transcription.URL), "/")
	// the openai provider falls back to the client library's default base URL
	if c.Transcription.URL == "" && c.Transcription.Provider == ProviderWhisper {
		c.Transcription.URL = defaultServiceURL
	}

	exts := make([]string, 0, len(c.Upload.AllowedExtensions))
	for _, ext := range c.Upload.AllowedExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	c.Upload.AllowedExtensions = exts
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.Transcription.Provider {
	case ProviderWhisper:
		if c.Transcription.URL == "" {
			return errors.New("transcription service url is required")
		}
	case ProviderOpenAI:
		if c.Transcription.APIKey == "" {
			return errors.New("TRANSCRIPTION_API_KEY is required for the openai provider")
		}
	default:
		return fmt.Errorf("unsupported transcription provider: %q. Supported: %s, %s",
			c.Transcription.Provider, ProviderWhisper, ProviderOpenAI)
	}

	if c.Transcription.ConnectTimeout <= 0 {
		return errors.New("transcription connect timeout must be positive")
	}
	if c.Transcription.Timeout <= 0 {
		return errors.New("transcription timeout must be positive")
	}
	if c.Upload.MaxFileSize <= 0 {
		return errors.New("max file size must be positive")
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		return errors.New("at least one allowed extension is required")
	}
	if c.Upload.ContentTypePrefix == "" {
		return errors.New("content type prefix is required")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getBytes accepts a plain byte count or a size such as "25MiB" or "10 MB"
func getBytes(key string, fallback int64) (int64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	parsed, err := humanize.ParseBytes(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if parsed > math.MaxInt64 {
		return 0, fmt.Errorf("invalid %s %q: value too large", key, v)
	}
	return int64(parsed), nil
}

// getDuration accepts Go durations ("90s", "5m") or a bare number of seconds
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	if seconds, err := cast.ToInt64E(v); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	parsed, err := cast.ToDurationE(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return parsed, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
