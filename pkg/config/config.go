package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/wonny/soywatch/backend/internal/contracts"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	Env string // development, staging, production

	// Market data provider
	Provider ProviderConfig

	// Contract calendar
	Calendar CalendarConfig

	// Collection
	Collect CollectConfig

	// Output
	Output OutputConfig

	// Database (optional snapshot sink)
	Database DatabaseConfig

	// Redis (optional shared pacing)
	Redis RedisConfig

	// Logging
	LogLevel  string
	LogFormat string

	// TodayOverride pins "today" for reproducible runs; zero means wall clock
	TodayOverride civil.Date
	Timezone      string
}

// ProviderConfig holds the market-data provider settings
type ProviderConfig struct {
	BaseURL string
	Market  string
	Timeout time.Duration
}

// CalendarConfig holds the contract calendar inputs
type CalendarConfig struct {
	Varieties     []contracts.Variety
	VarietiesFile string
	ValidMonths   []int
	LookAhead     int
}

// CollectConfig holds retry and pacing settings
type CollectConfig struct {
	MaxRetries  int
	BackoffBase time.Duration
	PacingDelay time.Duration
	Workers     int
}

// OutputConfig holds the spreadsheet export settings
type OutputConfig struct {
	File          string
	ContractSheet string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database URL is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DefaultVarieties are soybean meal and soybean oil on the Dalian exchange
var DefaultVarieties = []contracts.Variety{
	{Name: "豆粕", Prefix: "m", ContinuousCode: "mm", ContinuousName: "豆粕主连"},
	{Name: "豆油", Prefix: "y", ContinuousCode: "ym", ContinuousName: "豆油主连"},
}

// MaxRetriesLimit bounds MAX_RETRIES; the backoff doubles per attempt
const MaxRetriesLimit = 10

// Override adjusts a loaded Config before it is validated
type Override func(*Config) error

// Load reads configuration from environment variables, applies overrides in
// order, then validates the result
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load(overrides ...Override) (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	validMonths, err := getEnvAsIntList("VALID_MONTHS", "1,3,5,7,8,9,10,11,12")
	if err != nil {
		return nil, fmt.Errorf("%w: VALID_MONTHS: %v", contracts.ErrConfiguration, err)
	}

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		Provider: ProviderConfig{
			BaseURL: getEnv("PROVIDER_BASE_URL", "https://push2his.eastmoney.com"),
			Market:  getEnv("PROVIDER_MARKET", "114"),
			Timeout: getEnvAsDuration("PROVIDER_TIMEOUT", "15s"),
		},

		Calendar: CalendarConfig{
			VarietiesFile: getEnv("VARIETIES_FILE", ""),
			ValidMonths:   validMonths,
			LookAhead:     getEnvAsInt("LOOKAHEAD_MONTHS", 9),
		},

		Collect: CollectConfig{
			MaxRetries:  getEnvAsInt("MAX_RETRIES", 3),
			BackoffBase: getEnvAsDuration("BACKOFF_BASE", "2s"),
			PacingDelay: getEnvAsDuration("PACING_DELAY", "1s"),
			Workers:     getEnvAsInt("WORKERS", 1),
		},

		Output: OutputConfig{
			File:          getEnv("OUTPUT_FILE", "大豆价格数据汇总.xlsx"),
			ContractSheet: getEnv("CONTRACT_SHEET", "合约汇总"),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 4),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
		Timezone:  getEnv("TIMEZONE", "Asia/Shanghai"),
	}

	cfg.Calendar.Varieties = DefaultVarieties
	if cfg.Calendar.VarietiesFile != "" {
		varieties, err := LoadVarieties(cfg.Calendar.VarietiesFile)
		if err != nil {
			return nil, err
		}
		cfg.Calendar.Varieties = varieties
	}

	for _, override := range overrides {
		if err := override(cfg); err != nil {
			return nil, err
		}
	}

	// TODAY from the environment only applies when no override set the date
	if today := getEnv("TODAY", ""); today != "" && !cfg.TodayOverride.IsValid() {
		d, err := civil.ParseDate(today)
		if err != nil {
			return nil, fmt.Errorf("%w: TODAY must be YYYY-MM-DD: %v", contracts.ErrConfiguration, err)
		}
		cfg.TodayOverride = d
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// varietiesFile is the YAML layout of VARIETIES_FILE
type varietiesFile struct {
	Varieties []contracts.Variety `yaml:"varieties"`
}

// LoadVarieties reads the variety list from a YAML file
func LoadVarieties(path string) ([]contracts.Variety, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read varieties file: %v", contracts.ErrConfiguration, err)
	}

	var file varietiesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: parse varieties file %s: %v", contracts.ErrConfiguration, path, err)
	}

	return file.Varieties, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("%w: ENV must be one of: development, staging, production", contracts.ErrConfiguration)
	}

	if len(c.Calendar.Varieties) == 0 {
		return fmt.Errorf("%w: at least one variety is required", contracts.ErrConfiguration)
	}
	for _, v := range c.Calendar.Varieties {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %v", contracts.ErrConfiguration, err)
		}
	}

	if len(c.Calendar.ValidMonths) == 0 {
		return fmt.Errorf("%w: VALID_MONTHS is empty", contracts.ErrConfiguration)
	}
	for _, m := range c.Calendar.ValidMonths {
		if m < 1 || m > 12 {
			return fmt.Errorf("%w: VALID_MONTHS contains %d", contracts.ErrConfiguration, m)
		}
	}

	if c.Calendar.LookAhead < 0 {
		return fmt.Errorf("%w: LOOKAHEAD_MONTHS must be >= 0", contracts.ErrConfiguration)
	}
	if c.Collect.MaxRetries < 1 || c.Collect.MaxRetries > MaxRetriesLimit {
		return fmt.Errorf("%w: MAX_RETRIES must be between 1 and %d", contracts.ErrConfiguration, MaxRetriesLimit)
	}
	if c.Collect.Workers < 1 {
		return fmt.Errorf("%w: WORKERS must be >= 1", contracts.ErrConfiguration)
	}
	if c.Output.File == "" {
		return fmt.Errorf("%w: OUTPUT_FILE is required", contracts.ErrConfiguration)
	}

	return nil
}

// Today returns the run date: TodayOverride if set, otherwise the wall clock in Timezone
func (c *Config) Today() civil.Date {
	if c.TodayOverride.IsValid() {
		return c.TodayOverride
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		loc = time.Local
	}
	return civil.DateOf(time.Now().In(loc))
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env",         // Current directory
		"backend/.env", // From project root
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsIntList parses a comma separated list; a malformed entry is an error
func getEnvAsIntList(key string, defaultValue string) ([]int, error) {
	valueStr := getEnv(key, defaultValue)

	var values []int
	for _, part := range strings.Split(valueStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", part)
		}
		values = append(values, n)
	}
	return values, nil
}
