package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names shared by the cache and rate limiter sections.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds the blogdex configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Metadata  MetadataConfig  `yaml:"metadata"`
	Worker    WorkerConfig    `yaml:"worker"`
	Renderer  RendererConfig  `yaml:"renderer"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds admin API authentication settings.
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

// DatabaseConfig holds the post store settings.
type DatabaseConfig struct {
	Driver           string `yaml:"driver"` // postgres, memory (default: postgres)
	DSN              string `yaml:"dsn"`
	MaxConns         int32  `yaml:"max_conns"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
}

// RedisConfig holds the key-value store settings used by the search cache,
// rate limiter, embedding cache and token budget.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider            string       `yaml:"provider"`
	APIKey              string       `yaml:"api_key"`
	BaseURL             string       `yaml:"base_url"`
	Model               string       `yaml:"model"`
	Dimensions          int          `yaml:"dimensions"`
	DocumentInstruction string       `yaml:"document_instruction"`
	QueryInstruction    string       `yaml:"query_instruction"`
	TimeoutMs           int          `yaml:"timeout_ms"`
	CacheTTLSec         int          `yaml:"cache_ttl_sec"` // 0 = document embedding cache disabled
	Budget              BudgetConfig `yaml:"budget"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// SearchConfig holds query validation, ranking and result cache settings.
type SearchConfig struct {
	MaxQueryLength      int     `yaml:"max_query_length"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	CacheBackend        string  `yaml:"cache_backend"` // redis, memory
	CacheTTLSec         int     `yaml:"cache_ttl_sec"`
	CacheSize           int     `yaml:"cache_size"`
	DefaultPageSize     int     `yaml:"default_page_size"`
	MaxPageSize         int     `yaml:"max_page_size"`
}

// RateLimitConfig holds the search rate limiter settings.
type RateLimitConfig struct {
	Enabled     *bool  `yaml:"enabled"` // default: true
	Backend     string `yaml:"backend"` // redis, memory
	Prefix      string `yaml:"prefix"`
	MaxRequests int64  `yaml:"max_requests"`
	WindowSec   int    `yaml:"window_sec"`
}

// MetadataConfig holds metadata extraction settings.
type MetadataConfig struct {
	KeywordCount  int `yaml:"keyword_count"`
	SlugMaxLength int `yaml:"slug_max_length"`
}

// WorkerConfig holds the background job pool settings.
type WorkerConfig struct {
	Concurrency   int `yaml:"concurrency"`
	QueueSize     int `yaml:"queue_size"`
	JobTimeoutSec int `yaml:"job_timeout_sec"`
}

// RendererConfig holds the Markdown renderer settings. An empty FrontendURL
// disables HTML rendering.
type RendererConfig struct {
	FrontendURL string `yaml:"frontend_url"`
	TimeoutSec  int    `yaml:"timeout_sec"`
	RetryCount  int    `yaml:"retry_count"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "blogdex:"
	}
	if c.Redis.ReadinessTimeout <= 0 {
		c.Redis.ReadinessTimeout = 10
	}
	c.applyEmbeddingDefaults()
	c.applySearchDefaults()
	if c.Metadata.KeywordCount <= 0 {
		c.Metadata.KeywordCount = 5
	}
	if c.Metadata.SlugMaxLength <= 0 {
		c.Metadata.SlugMaxLength = 50
	}
	if c.Worker.Concurrency <= 0 {
		c.Worker.Concurrency = 2
	}
	if c.Worker.QueueSize <= 0 {
		c.Worker.QueueSize = 128
	}
	if c.Worker.JobTimeoutSec <= 0 {
		c.Worker.JobTimeoutSec = 60
	}
	if c.Renderer.TimeoutSec <= 0 {
		c.Renderer.TimeoutSec = 15
	}
}

func (c *Config) applyEmbeddingDefaults() {
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.TimeoutMs <= 0 {
		c.Embedding.TimeoutMs = 10000
	}
}

func (c *Config) applySearchDefaults() {
	s := &c.Search
	if s.MaxQueryLength <= 0 {
		s.MaxQueryLength = 200
	}
	if s.ConfidenceThreshold <= 0 {
		s.ConfidenceThreshold = 0.7
	}
	if s.CacheBackend == "" {
		s.CacheBackend = BackendRedis
	}
	if s.CacheTTLSec <= 0 {
		s.CacheTTLSec = 3600
	}
	if s.CacheSize <= 0 {
		s.CacheSize = 1024
	}
	if s.DefaultPageSize <= 0 {
		s.DefaultPageSize = 10
	}
	if s.MaxPageSize <= 0 {
		s.MaxPageSize = 100
	}

	r := &c.RateLimit
	if r.Enabled == nil {
		enabled := true
		r.Enabled = &enabled
	}
	if r.Backend == "" {
		r.Backend = BackendRedis
	}
	if r.Prefix == "" {
		r.Prefix = "search"
	}
	if r.MaxRequests <= 0 {
		r.MaxRequests = 30
	}
	if r.WindowSec <= 0 {
		r.WindowSec = 60
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required for the postgres driver")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("database.driver must be \"postgres\" or \"memory\", got %q", c.Database.Driver)
	}
	if err := checkBackend("search.cache_backend", c.Search.CacheBackend); err != nil {
		return err
	}
	if err := checkBackend("rate_limit.backend", c.RateLimit.Backend); err != nil {
		return err
	}
	if c.UsesRedis() && len(c.Redis.Addrs) == 0 {
		return errors.New("redis.addrs is required when a redis backend is selected")
	}
	if c.Embedding.Model == "" {
		return errors.New("embedding.model is required")
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	switch c.Embedding.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf("embedding.budget.action must be \"warn\" or \"reject\", got %q", c.Embedding.Budget.Action)
	}
	if t := c.Search.ConfidenceThreshold; t > 2 {
		return fmt.Errorf("search.confidence_threshold must be in (0, 2], got %v", t)
	}
	if c.Search.DefaultPageSize > c.Search.MaxPageSize {
		return fmt.Errorf("search.default_page_size (%d) exceeds search.max_page_size (%d)",
			c.Search.DefaultPageSize, c.Search.MaxPageSize)
	}
	if c.Metadata.SlugMaxLength < minSlugMaxLength {
		return fmt.Errorf("metadata.slug_max_length must be at least %d, got %d",
			minSlugMaxLength, c.Metadata.SlugMaxLength)
	}
	return nil
}

// minSlugMaxLength fits the "untitled" fallback slug.
const minSlugMaxLength = len("untitled")

// UsesRedis reports whether any component is configured to use Redis.
func (c *Config) UsesRedis() bool {
	return c.Search.CacheBackend == BackendRedis ||
		(c.RateLimitEnabled() && c.RateLimit.Backend == BackendRedis) ||
		c.Embedding.CacheTTLSec > 0 ||
		c.Embedding.Budget.DailyTokenLimit > 0 ||
		c.Embedding.Budget.MonthlyTokenLimit > 0
}

// RateLimitEnabled reports whether search requests are rate limited.
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimit.Enabled == nil || *c.RateLimit.Enabled
}

// EmbeddingTimeout returns the per-query embedding deadline.
func (c *Config) EmbeddingTimeout() time.Duration {
	return time.Duration(c.Embedding.TimeoutMs) * time.Millisecond
}

func checkBackend(field, v string) error {
	if v != BackendRedis && v != BackendMemory {
		return fmt.Errorf("%s must be %q or %q, got %q", field, BackendRedis, BackendMemory, v)
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
