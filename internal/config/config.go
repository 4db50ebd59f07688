package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Moderation failure policies accepted in recommend.on_moderation_error.
const (
	ModerationAllow = "allow"
	ModerationBlock = "block"
)

// DefaultMinScore is the acceptance threshold for the nearest match.
const DefaultMinScore = 0.22

// requestTimeoutMarginSec is left between the request deadline and the write
// timeout so an error body can still be written.
const requestTimeoutMarginSec = 5

// Config holds the librarian service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Recommend RecommendConfig `yaml:"recommend"`
	Index     IndexConfig     `yaml:"index"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port              int      `yaml:"port"`
	ReadTimeoutSec    int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec   int      `yaml:"write_timeout_sec"`
	RequestTimeoutSec int      `yaml:"request_timeout_sec"` // deadline for all upstream calls of one request
	ShutdownSec       int      `yaml:"shutdown_timeout_sec"`
	CORSOrigins       []string `yaml:"cors_origins"`
}

// DatabaseConfig holds vector store connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
}

// OpenAIConfig holds model provider settings.
type OpenAIConfig struct {
	APIKey          string `yaml:"api_key"`
	BaseURL         string `yaml:"base_url"`
	TimeoutSec      int    `yaml:"timeout_sec"`
	EmbeddingModel  string `yaml:"embedding_model"`
	Dimensions      int    `yaml:"dimensions"`
	EmbeddingCache  bool   `yaml:"embedding_cache"`
	ChatModel       string `yaml:"chat_model"`
	ModerationModel string `yaml:"moderation_model"`
	ImageModel      string `yaml:"image_model"`
	ImageSize       string `yaml:"image_size"`
	ImageQuality    string `yaml:"image_quality"`
	TTSModel        string `yaml:"tts_model"`
	TTSVoice        string `yaml:"tts_voice"`
	STTModel        string `yaml:"stt_model"`
}

// CatalogConfig locates the catalog sources.
type CatalogConfig struct {
	DataPath        string `yaml:"data_path"`
	FullSummaryPath string `yaml:"full_summary_path"`
	IngestOnStart   *bool  `yaml:"ingest_on_start"`
}

// RecommendConfig tunes the recommendation flow.
type RecommendConfig struct {
	MinScore          *float64 `yaml:"min_score"`
	OnModerationError string   `yaml:"on_moderation_error"` // allow | block
	ImageEnabled      *bool    `yaml:"image_enabled"`
}

// IndexConfig holds HNSW index settings.
type IndexConfig struct {
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEFConstruct int `yaml:"hnsw_ef_construction"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads, expands, defaults and validates the config at path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	// chat and image generation together can take close to a minute
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.RequestTimeoutSec <= 0 {
		c.HTTP.RequestTimeoutSec = c.HTTP.WriteTimeoutSec - requestTimeoutMarginSec
		if c.HTTP.RequestTimeoutSec <= 0 {
			c.HTTP.RequestTimeoutSec = c.HTTP.WriteTimeoutSec
		}
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "librarian:"
	}
	c.applyOpenAIDefaults()
	if c.Catalog.DataPath == "" {
		c.Catalog.DataPath = "data/book_summaries.md"
	}
	if c.Catalog.IngestOnStart == nil {
		c.Catalog.IngestOnStart = boolPtr(true)
	}
	if c.Recommend.MinScore == nil {
		c.Recommend.MinScore = float64Ptr(DefaultMinScore)
	}
	if c.Recommend.OnModerationError == "" {
		c.Recommend.OnModerationError = ModerationAllow
	}
	if c.Recommend.ImageEnabled == nil {
		c.Recommend.ImageEnabled = boolPtr(true)
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
}

func (c *Config) applyOpenAIDefaults() {
	o := &c.OpenAI
	if o.TimeoutSec <= 0 {
		o.TimeoutSec = min(60, c.HTTP.RequestTimeoutSec)
	}
	if o.EmbeddingModel == "" {
		o.EmbeddingModel = "text-embedding-3-small"
	}
	if o.Dimensions <= 0 {
		o.Dimensions = 1536
	}
	if o.ChatModel == "" {
		o.ChatModel = "gpt-4.1-nano"
	}
	if o.ModerationModel == "" {
		o.ModerationModel = "omni-moderation-latest"
	}
	if o.ImageModel == "" {
		o.ImageModel = "gpt-image-1"
	}
	if o.ImageSize == "" {
		o.ImageSize = "1024x1024"
	}
	if o.ImageQuality == "" {
		o.ImageQuality = "low"
	}
	if o.TTSModel == "" {
		o.TTSModel = "gpt-4o-mini-tts"
	}
	if o.TTSVoice == "" {
		o.TTSVoice = "alloy"
	}
	if o.STTModel == "" {
		o.STTModel = "whisper-1"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.RequestTimeoutSec > c.HTTP.WriteTimeoutSec {
		return fmt.Errorf(
			"http.request_timeout_sec (%d) must not exceed http.write_timeout_sec (%d)",
			c.HTTP.RequestTimeoutSec, c.HTTP.WriteTimeoutSec,
		)
	}
	if c.OpenAI.TimeoutSec > c.HTTP.RequestTimeoutSec {
		return fmt.Errorf(
			"openai.timeout_sec (%d) must not exceed http.request_timeout_sec (%d)",
			c.OpenAI.TimeoutSec, c.HTTP.RequestTimeoutSec,
		)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.OpenAI.Dimensions <= 0 {
		return fmt.Errorf("openai.dimensions must be positive, got %d", c.OpenAI.Dimensions)
	}
	switch c.Recommend.OnModerationError {
	case ModerationAllow, ModerationBlock:
	default:
		return fmt.Errorf(
			"recommend.on_moderation_error must be %q or %q, got %q",
			ModerationAllow, ModerationBlock, c.Recommend.OnModerationError,
		)
	}
	if s := c.MinScore(); s < 0 || s > 1 {
		return fmt.Errorf("recommend.min_score must be within [0, 1], got %v", s)
	}
	return nil
}

// MinScore returns the configured acceptance threshold.
func (c *Config) MinScore() float64 {
	if c.Recommend.MinScore == nil {
		return DefaultMinScore
	}
	return *c.Recommend.MinScore
}

// IngestOnStart reports whether serve ingests the catalog before listening.
func (c *Config) IngestOnStart() bool {
	return c.Catalog.IngestOnStart == nil || *c.Catalog.IngestOnStart
}

// ImageEnabled reports whether cover illustrations are generated.
func (c *Config) ImageEnabled() bool {
	return c.Recommend.ImageEnabled == nil || *c.Recommend.ImageEnabled
}

// RequestTimeout returns the deadline shared by every upstream call of one request.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.RequestTimeoutSec) * time.Second
}

// OpenAITimeout returns the per-request model API timeout.
func (c *Config) OpenAITimeout() time.Duration {
	return time.Duration(c.OpenAI.TimeoutSec) * time.Second
}

func boolPtr(b bool) *bool           { return &b }
func float64Ptr(f float64) *float64 { return &f }

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
