package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	BackendScript = "script"
	BackendGemini = "gemini"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	CORS       CORSConfig       `yaml:"cors"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	YouTube    YouTubeConfig    `yaml:"youtube"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Summary    SummaryConfig    `yaml:"summary"`
	Scripts    ScriptsConfig    `yaml:"scripts"`
	Retry      RetryConfig      `yaml:"retry"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Debug           bool          `yaml:"debug"`
	Version         string        `yaml:"version"`
	LogDir          string        `yaml:"log_dir"`
	LogLevel        string        `yaml:"log_level"`
	TempDir         string        `yaml:"temp_dir"`
}

type CORSConfig struct {
	Enabled          bool     `yaml:"enabled"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           int      `yaml:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	BurstSize         int  `yaml:"burst_size"`
}

// YouTubeConfig holds credentials for the Data API. An empty APIKey disables
// the official captions provider and nothing else.
type YouTubeConfig struct {
	APIKey       string `yaml:"api_key"`
	OAuthToken   string `yaml:"oauth_token"`
	WatchBaseURL string `yaml:"watch_base_url"`
}

type TranscriptConfig struct {
	Language        string        `yaml:"language"`
	ProviderTimeout time.Duration `yaml:"provider_timeout"`
	AudioTimeout    time.Duration `yaml:"audio_timeout"`
	WhisperModel    string        `yaml:"whisper_model"`
	YtDlpPath       string        `yaml:"ytdlp_path"`
}

type SummaryConfig struct {
	Backend        string        `yaml:"backend"`
	Model          string        `yaml:"model"`
	MaxLength      int           `yaml:"max_length"`
	MinLength      int           `yaml:"min_length"`
	ChunkMaxTokens int           `yaml:"chunk_max_tokens"`
	Timeout        time.Duration `yaml:"timeout"`
	GeminiAPIKey   string        `yaml:"gemini_api_key"`
	GeminiModel    string        `yaml:"gemini_model"`
}

type ScriptsConfig struct {
	UVPath      string   `yaml:"uv_path"`
	Path        string   `yaml:"path"`
	Environment []string `yaml:"environment"`
}

type RetryConfig struct {
	MaxTries        int           `yaml:"max_tries"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
}

// CaptionsEnabled reports whether the official captions API can be queried.
func (c YouTubeConfig) CaptionsEnabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Minute,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  30 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			Version:         "1.0.0",
			LogDir:          "./logs",
			LogLevel:        "info",
			TempDir:         os.TempDir(),
		},
		CORS: CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         86400,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 60,
			BurstSize:         10,
		},
		YouTube: YouTubeConfig{
			WatchBaseURL: "https://www.youtube.com",
		},
		Transcript: TranscriptConfig{
			Language:        "en",
			ProviderTimeout: 30 * time.Second,
			AudioTimeout:    20 * time.Minute,
			WhisperModel:    "small",
			YtDlpPath:       "yt-dlp",
		},
		Summary: SummaryConfig{
			Backend:        BackendScript,
			Model:          "sshleifer/distilbart-cnn-12-6",
			MaxLength:      180,
			MinLength:      30,
			ChunkMaxTokens: 950,
			Timeout:        10 * time.Minute,
			GeminiModel:    "gemini-2.0-flash",
		},
		Scripts: ScriptsConfig{
			UVPath: "uv",
			Path:   "./scripts/python",
		},
		Retry: RetryConfig{
			MaxTries:        3,
			InitialInterval: 2 * time.Second,
			MaxInterval:     30 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables, in increasing precedence. A .env
// file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrapf(err, "failed to parse config file %s", path)
	}
	return nil
}

func (c *Config) applyEnv() {
	s := &c.Server
	s.Port = getEnv("SERVER_PORT", s.Port)
	s.ReadTimeout = getEnvAsDuration("READ_TIMEOUT", s.ReadTimeout)
	s.WriteTimeout = getEnvAsDuration("WRITE_TIMEOUT", s.WriteTimeout)
	s.IdleTimeout = getEnvAsDuration("IDLE_TIMEOUT", s.IdleTimeout)
	s.RequestTimeout = getEnvAsDuration("REQUEST_TIMEOUT", s.RequestTimeout)
	s.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", s.ShutdownTimeout)
	s.Debug = getEnvAsBool("DEBUG", s.Debug)
	s.Version = getEnv("VERSION", s.Version)
	s.LogDir = getEnv("LOG_DIR", s.LogDir)
	s.LogLevel = getEnv("LOG_LEVEL", s.LogLevel)
	s.TempDir = getEnv("TEMP_DIR", s.TempDir)

	c.CORS.Enabled = getEnvAsBool("CORS_ENABLED", c.CORS.Enabled)
	c.CORS.AllowedOrigins = getEnvAsStringSlice("CORS_ALLOWED_ORIGINS", c.CORS.AllowedOrigins)
	c.CORS.AllowedMethods = getEnvAsStringSlice("CORS_ALLOWED_METHODS", c.CORS.AllowedMethods)
	c.CORS.AllowedHeaders = getEnvAsStringSlice("CORS_ALLOWED_HEADERS", c.CORS.AllowedHeaders)
	c.CORS.AllowCredentials = getEnvAsBool("CORS_ALLOW_CREDENTIALS", c.CORS.AllowCredentials)
	c.CORS.MaxAge = getEnvAsInt("CORS_MAX_AGE", c.CORS.MaxAge)

	c.RateLimit.Enabled = getEnvAsBool("RATE_LIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.RequestsPerMinute = getEnvAsInt("RATE_LIMIT_RPM", c.RateLimit.RequestsPerMinute)
	c.RateLimit.BurstSize = getEnvAsInt("RATE_LIMIT_BURST", c.RateLimit.BurstSize)

	// GOOGLE_API_KEY is the older name for the Data API key.
	c.YouTube.APIKey = getEnv("YOUTUBE_API_KEY", getEnv("GOOGLE_API_KEY", c.YouTube.APIKey))
	c.YouTube.OAuthToken = getEnv("YOUTUBE_OAUTH_TOKEN", c.YouTube.OAuthToken)
	c.YouTube.WatchBaseURL = getEnv("YOUTUBE_BASE_URL", c.YouTube.WatchBaseURL)

	t := &c.Transcript
	t.Language = getEnv("TRANSCRIPT_LANGUAGE", t.Language)
	t.ProviderTimeout = getEnvAsDuration("PROVIDER_TIMEOUT", t.ProviderTimeout)
	t.AudioTimeout = getEnvAsDuration("AUDIO_TIMEOUT", t.AudioTimeout)
	t.WhisperModel = getEnv("WHISPER_MODEL", t.WhisperModel)
	t.YtDlpPath = getEnv("YTDLP_PATH", t.YtDlpPath)

	sm := &c.Summary
	sm.Backend = getEnv("SUMMARY_BACKEND", sm.Backend)
	sm.Model = getEnv("SUMMARY_MODEL", sm.Model)
	sm.MaxLength = getEnvAsInt("SUMMARY_MAX_LENGTH", sm.MaxLength)
	sm.MinLength = getEnvAsInt("SUMMARY_MIN_LENGTH", sm.MinLength)
	sm.ChunkMaxTokens = getEnvAsInt("CHUNK_MAX_TOKENS", sm.ChunkMaxTokens)
	sm.Timeout = getEnvAsDuration("SUMMARY_TIMEOUT", sm.Timeout)
	sm.GeminiAPIKey = getEnv("GEMINI_API_KEY", sm.GeminiAPIKey)
	sm.GeminiModel = getEnv("GEMINI_MODEL", sm.GeminiModel)

	c.Scripts.UVPath = getEnv("UV_PATH", c.Scripts.UVPath)
	c.Scripts.Path = getEnv("SCRIPTS_PATH", c.Scripts.Path)
	c.Scripts.Environment = getEnvAsStringSlice("SCRIPTS_ENV", c.Scripts.Environment)

	c.Retry.MaxTries = getEnvAsInt("RETRY_MAX_TRIES", c.Retry.MaxTries)
	c.Retry.InitialInterval = getEnvAsDuration("RETRY_INITIAL_INTERVAL", c.Retry.InitialInterval)
	c.Retry.MaxInterval = getEnvAsDuration("RETRY_MAX_INTERVAL", c.Retry.MaxInterval)
}

func (c *Config) Validate() error {
	if err := validatePaths(c); err != nil {
		return err
	}
	if err := validateTimeouts(c); err != nil {
		return err
	}
	return validateSummary(c)
}

func validatePaths(c *Config) error {
	paths := []struct {
		path string
		name string
	}{
		{c.Server.LogDir, "log directory"},
		{c.Server.TempDir, "temp directory"},
	}

	for _, p := range paths {
		if p.path == "" {
			return errors.Errorf("%s is required", p.name)
		}
		if err := os.MkdirAll(p.path, 0755); err != nil {
			return errors.Wrapf(err, "failed to create %s", p.name)
		}
	}
	return nil
}

func validateTimeouts(c *Config) error {
	if c.Server.Port == "" {
		return errors.New("server port is required")
	}
	if c.Server.ReadTimeout <= 0 {
		return errors.New("read timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return errors.New("write timeout must be positive")
	}
	if c.Transcript.ProviderTimeout <= 0 {
		return errors.New("provider timeout must be positive")
	}
	if c.Transcript.AudioTimeout <= 0 {
		return errors.New("audio timeout must be positive")
	}
	if c.Retry.MaxTries < 1 {
		return errors.New("retry max tries must be at least 1")
	}
	return nil
}

func validateSummary(c *Config) error {
	s := c.Summary
	switch s.Backend {
	case BackendScript:
	case BackendGemini:
		if s.GeminiAPIKey == "" {
			return errors.New("gemini backend requires GEMINI_API_KEY")
		}
	default:
		return errors.Errorf("unknown summary backend %q", s.Backend)
	}
	if s.ChunkMaxTokens <= 0 {
		return errors.New("chunk max tokens must be positive")
	}
	if s.MinLength <= 0 || s.MaxLength <= 0 {
		return errors.New("summary lengths must be positive")
	}
	if s.MinLength > s.MaxLength {
		return errors.New("summary min length cannot exceed max length")
	}
	if c.Transcript.Language == "" {
		return errors.New("transcript language is required")
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		warnInvalid(key, value, defaultValue, "Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		warnInvalid(key, value, defaultValue, "Invalid boolean, using default")
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		warnInvalid(key, value, defaultValue, "Invalid duration, using default")
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		if value = strings.TrimSpace(value); value != "" {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return parts
		}
	}
	return defaultValue
}

func warnInvalid(key, value string, defaultValue interface{}, msg string) {
	logrus.WithFields(logrus.Fields{
		"key":          key,
		"value":        value,
		"defaultValue": defaultValue,
	}).Warn(msg)
}
