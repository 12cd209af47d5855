// Package config provides configuration management for the lab-ranker application.
package config

import (
	"fmt"
	"time"

	"github.com/yourusername/lab-ranker/internal/analysis"
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig              `mapstructure:"app" validate:"required"`
	Platform PlatformConfig         `mapstructure:"platform"`
	Analysis AnalysisConfig         `mapstructure:"analysis"`
	Capital  analysis.CapitalPolicy `mapstructure:"capital"`
	Database DatabaseConfig         `mapstructure:"database"`
	Metrics  MetricsConfig          `mapstructure:"metrics"`
	Schedule ScheduleConfig         `mapstructure:"schedule"`
	Report   ReportConfig           `mapstructure:"report"`
	Cache    CacheConfig            `mapstructure:"cache"`
	Secrets  SecretsConfig          `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// PlatformConfig represents the trading platform API configuration
type PlatformConfig struct {
	BaseURL           string   `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey            string   `mapstructure:"api_key"`
	APISecret         string   `mapstructure:"api_secret"`
	TimeoutSeconds    int      `mapstructure:"timeout_seconds" validate:"gt=0"`
	RequestsPerSecond float64  `mapstructure:"requests_per_second" validate:"gt=0"`
	Burst             int      `mapstructure:"burst" validate:"gt=0"`
	RetryAttempts     int      `mapstructure:"retry_attempts" validate:"gte=0"`
	PageSize          int      `mapstructure:"page_size" validate:"gt=0,lte=1000"`
	LabIDs            []string `mapstructure:"lab_ids" validate:"dive,required"`
}

// AnalysisConfig represents the scoring, ranking and worker configuration
type AnalysisConfig struct {
	Workers     int                       `mapstructure:"workers" validate:"gte=0"`
	Rubric      analysis.Rubric           `mapstructure:"rubric"`
	Eligibility analysis.EligibilityGates `mapstructure:"eligibility"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port           int    `mapstructure:"port" validate:"min=0,max=65535"`
	Name           string `mapstructure:"name" validate:"required_if=Enabled true"`
	User           string `mapstructure:"user" validate:"required_if=Enabled true"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"gte=0"`
	MinConnections int    `mapstructure:"min_connections" validate:"gte=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// ScheduleConfig represents periodic analysis scheduling
type ScheduleConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron" validate:"omitempty,cronspec"`
}

// ReportConfig represents report output configuration
type ReportConfig struct {
	OutputDir string   `mapstructure:"output_dir" validate:"required"`
	Formats   []string `mapstructure:"formats" validate:"min=1,dive,oneof=console json csv"`
}

// CacheConfig represents the market catalog cache configuration
type CacheConfig struct {
	MarketCatalogTTLSeconds int      `mapstructure:"market_catalog_ttl_seconds" validate:"gt=0"`
	CleanupIntervalSeconds  int      `mapstructure:"cleanup_interval_seconds" validate:"gt=0"`
	RequireListedMarkets    bool     `mapstructure:"require_listed_markets"`
	StaticMarkets           []string `mapstructure:"static_markets" validate:"dive,markettag"`
}

// SecretsConfig represents the AWS Secrets Manager overlay
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region" validate:"required_if=Enabled true"`
	SecretName string `mapstructure:"secret_name" validate:"required_if=Enabled true"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// EngineConfig assembles the analysis engine configuration
func (c *Config) EngineConfig() analysis.EngineConfig {
	return analysis.EngineConfig{
		Workers: c.Analysis.Workers,
		Rubric:  c.Analysis.Rubric,
		Gates:   c.Analysis.Eligibility,
		Policy:  c.Capital,
	}
}

// PlatformTimeout returns the platform request timeout
func (c *Config) PlatformTimeout() time.Duration {
	return time.Duration(c.Platform.TimeoutSeconds) * time.Second
}

// MarketCatalogTTL returns how long fetched markets stay cached
func (c *Config) MarketCatalogTTL() time.Duration {
	return time.Duration(c.Cache.MarketCatalogTTLSeconds) * time.Second
}

// CacheCleanupInterval returns the cache janitor interval
func (c *Config) CacheCleanupInterval() time.Duration {
	return time.Duration(c.Cache.CleanupIntervalSeconds) * time.Second
}
