package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

func loadEnvString(key string, result *string) {
	s, ok := os.LookupEnv(key)

	if !ok {
		return
	}
	*result = s
}

func loadEnvInt(key string, result *int) {
	s, ok := os.LookupEnv(key)

	if !ok {
		return
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return
	}
	*result = n
}

func loadEnvUint(key string, result *uint) {
	s, ok := os.LookupEnv(key)

	if !ok {
		return
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return
	}
	*result = uint(n)
}

func loadEnvBool(key string, result *bool) {
	s, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	*result = s == "true" || s == "1"
}

func loadEnvDuration(key string, result *time.Duration) {
	s, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return
	}
	*result = d
}

/* Listen Configuration */

type listenConfig struct {
	Host string `json:"host"`
	Port uint   `json:"port"`
}

func (l listenConfig) Addr() string {
	return fmt.Sprintf("%s:%d", l.Host, l.Port)
}

func defaultListenConfig() listenConfig {
	return listenConfig{
		Host: "127.0.0.1",
		Port: 8080,
	}
}

func (l *listenConfig) loadFromEnv() {
	loadEnvString("LISTEN_HOST", &l.Host)
	loadEnvUint("LISTEN_PORT", &l.Port)
}

/* PgSQL Configuration */

type pgSqlConfig struct {
	Host     string `json:"host"`
	Port     uint   `json:"port"`
	Database string `json:"database"`
	SslMode  string `json:"ssl_mode"`
	User     string `json:"user"`
	Password string `json:"password"`
	Enabled  bool   `json:"enabled"`
}

func (p pgSqlConfig) ConnStr() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s", p.Host, p.Port, p.User, p.Password, p.Database, p.SslMode)
}

func defaultPgSql() pgSqlConfig {
	return pgSqlConfig{
		Host:     "localhost",
		Port:     5432,
		Database: "jobscout",
		User:     "",
		Password: "",
		SslMode:  "disable",
		Enabled:  false,
	}
}

func (p *pgSqlConfig) loadFromEnv() {
	loadEnvString("POSTGRES_HOST", &p.Host)
	loadEnvUint("POSTGRES_PORT", &p.Port)
	loadEnvString("POSTGRES_DB_NAME", &p.Database)
	loadEnvString("POSTGRES_SSLMODE", &p.SslMode)
	loadEnvString("POSTGRES_USERNAME", &p.User)
	loadEnvString("POSTGRES_PASSWORD", &p.Password)
	loadEnvBool("POSTGRES_SINK_ENABLED", &p.Enabled)
}

/* NATS Configuration */

type natsConfig struct {
	Host     string
	Port     uint
	Username string
	Password string
}

func (c *natsConfig) loadFromEnv() {
	c.Host = getEnv("NATS_HOST", "localhost")

	if portStr := getEnv("NATS_PORT", "4222"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			c.Port = uint(port)
		} else {
			c.Port = 4222
		}
	} else {
		c.Port = 4222
	}

	c.Username = getEnv("NATS_USER", "")
	c.Password = getEnv("NATS_PASSWORD", "")
}

func (c *natsConfig) URL() string {
	return fmt.Sprintf("nats://%s:%d", c.Host, c.Port)
}

func defaultNatsConfig() natsConfig {
	return natsConfig{
		Host: "localhost",
		Port: 4222,
	}
}

/* Redis Configuration */

type redisConfig struct {
	Host     string `json:"host"`
	Port     uint   `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

func (r *redisConfig) loadFromEnv() {
	loadEnvString("REDIS_HOST", &r.Host)
	loadEnvUint("REDIS_PORT", &r.Port)
	loadEnvString("REDIS_PASSWORD", &r.Password)
	loadEnvInt("REDIS_DB", &r.DB)
}

func defaultRedisConfig() redisConfig {
	return redisConfig{
		Host:     "localhost",
		Port:     6379,
		Password: "",
		DB:       0,
	}
}

/* GCS Configuration */

type GCSConfig struct {
	ProjectID       string
	CredentialsFile string
	Bucket          string
}

func (g *GCSConfig) loadFromEnv() {
	g.ProjectID = getEnv("GCS_PROJECT_ID", "")
	g.CredentialsFile = getEnv("GCS_CREDENTIALS_FILE", "")
	g.Bucket = getEnv("GCS_STORAGE_BUCKET", "")
}

func defaultGcsConfig() GCSConfig {
	return GCSConfig{}
}

/* Security Configuration */

type securityConfig struct {
	BackendApiKey string
}

func (s *securityConfig) loadFromEnv() {
	s.BackendApiKey = getEnv("BACKEND_API_KEY", "")
}

func defaultSecurityConfig() securityConfig {
	return securityConfig{
		BackendApiKey: "",
	}
}

/* AI Configuration */

type AIConfig struct {
	APIKey string
	// Models is the fallback chain, tried in order per prompt.
	Models         []string
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	CallTimeout    time.Duration
	// MaxPromptBytes bounds the cleaned markup sent to the model.
	MaxPromptBytes int
}

func defaultAIConfig() AIConfig {
	return AIConfig{
		Models:         []string{"gemini-1.5-flash", "gemini-1.5-pro", "gemini-1.0-pro"},
		MaxAttempts:    3,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     30 * time.Second,
		CallTimeout:    60 * time.Second,
		MaxPromptBytes: 180_000,
	}
}

func (a *AIConfig) loadFromEnv() {
	loadEnvString("GOOGLE_API_KEY", &a.APIKey)
	if models := getEnv("AI_MODELS", ""); models != "" {
		a.Models = strings.Split(models, ",")
	}
	loadEnvInt("AI_MAX_ATTEMPTS", &a.MaxAttempts)
	loadEnvDuration("AI_INITIAL_BACKOFF", &a.InitialBackoff)
	loadEnvDuration("AI_CALL_TIMEOUT", &a.CallTimeout)
	loadEnvInt("AI_MAX_PROMPT_BYTES", &a.MaxPromptBytes)
}

/* Scraper Configuration */

type ScraperConfig struct {
	Workers         int
	MaxPages        int
	StallThreshold  int
	NavTimeout      time.Duration
	StableWait      time.Duration
	DetailTimeout   time.Duration
	SiteTimeout     time.Duration
	Headless        bool
	ConfigPath      string
	CompaniesPath   string
	ResultsDir      string
	DataDir         string
	CorrectiveTries int
}

func defaultScraperConfig() ScraperConfig {
	return ScraperConfig{
		Workers:         3,
		MaxPages:        20,
		StallThreshold:  2,
		NavTimeout:      60 * time.Second,
		StableWait:      2 * time.Second,
		DetailTimeout:   30 * time.Second,
		SiteTimeout:     15 * time.Minute,
		Headless:        true,
		ConfigPath:      "configurations.json",
		CompaniesPath:   "companies.json",
		ResultsDir:      "results",
		DataDir:         "data",
		CorrectiveTries: 3,
	}
}

func (s *ScraperConfig) loadFromEnv() {
	loadEnvInt("SCRAPER_WORKERS", &s.Workers)
	loadEnvInt("SCRAPER_MAX_PAGES", &s.MaxPages)
	loadEnvInt("SCRAPER_STALL_THRESHOLD", &s.StallThreshold)
	loadEnvDuration("SCRAPER_NAV_TIMEOUT", &s.NavTimeout)
	loadEnvDuration("SCRAPER_STABLE_WAIT", &s.StableWait)
	loadEnvDuration("SCRAPER_DETAIL_TIMEOUT", &s.DetailTimeout)
	loadEnvDuration("SCRAPER_SITE_TIMEOUT", &s.SiteTimeout)
	loadEnvBool("SCRAPER_HEADLESS", &s.Headless)
	loadEnvString("SCRAPER_CONFIG_PATH", &s.ConfigPath)
	loadEnvString("SCRAPER_COMPANIES_PATH", &s.CompaniesPath)
	loadEnvString("SCRAPER_RESULTS_DIR", &s.ResultsDir)
	loadEnvString("SCRAPER_DATA_DIR", &s.DataDir)
	loadEnvInt("SCRAPER_CORRECTIVE_TRIES", &s.CorrectiveTries)
}

type Config struct {
	Listen   listenConfig
	PgSql    pgSqlConfig
	Nats     natsConfig
	Redis    redisConfig
	GCS      GCSConfig
	AI       AIConfig
	Scraper  ScraperConfig
	Security securityConfig
}

func (c *Config) LoadFromEnv() {
	c.Listen.loadFromEnv()
	c.PgSql.loadFromEnv()
	c.Nats.loadFromEnv()
	c.Redis.loadFromEnv()
	c.GCS.loadFromEnv()
	c.AI.loadFromEnv()
	c.Scraper.loadFromEnv()
	c.Security.loadFromEnv()
}

func DefaultConfig() Config {
	return Config{
		Listen:   defaultListenConfig(),
		PgSql:    defaultPgSql(),
		Nats:     defaultNatsConfig(),
		Redis:    defaultRedisConfig(),
		GCS:      defaultGcsConfig(),
		AI:       defaultAIConfig(),
		Scraper:  defaultScraperConfig(),
		Security: defaultSecurityConfig(),
	}
}
