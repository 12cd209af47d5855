// Package config provides configuration management for the lab-ranker application.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/yourusername/lab-ranker/internal/analysis"
)

const (
	envPrefix         = "LAB_RANKER"
	defaultConfigPath = "config/config.yaml"
)

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	// Read the configuration file
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return unmarshal(v)
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error: defaults and environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()

	// Read and expand the configuration file if it exists
	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

// ReloadFromEnv reloads the configuration from LAB_RANKER_CONFIG_PATH when set
func ReloadFromEnv(cfg *Config) error {
	if envPath := os.Getenv(envPrefix + "_CONFIG_PATH"); envPath != "" {
		newCfg, err := Load(envPath)
		if err != nil {
			return err
		}
		*cfg = *newCfg
	}

	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	// LAB_RANKER_DATABASE_HOST overrides database.host
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "lab-ranker")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("platform.timeout_seconds", 30)
	v.SetDefault("platform.requests_per_second", 5)
	v.SetDefault("platform.burst", 5)
	v.SetDefault("platform.retry_attempts", 3)
	v.SetDefault("platform.page_size", 100)

	rubric := analysis.DefaultRubric()
	v.SetDefault("analysis.workers", 0)
	v.SetDefault("analysis.rubric.profitable_points", rubric.ProfitablePoints)
	v.SetDefault("analysis.rubric.roi_tiers", tierDefaults(rubric.ROITiers))
	v.SetDefault("analysis.rubric.positive_sharpe_points", rubric.PositiveSharpePoints)
	v.SetDefault("analysis.rubric.low_drawdown_pct", rubric.LowDrawdownPct)
	v.SetDefault("analysis.rubric.low_drawdown_points", rubric.LowDrawdownPoints)
	v.SetDefault("analysis.rubric.win_rate_tiers", tierDefaults(rubric.WinRateTiers))
	v.SetDefault("analysis.rubric.profit_factor_tiers", tierDefaults(rubric.ProfitFactorTiers))
	v.SetDefault("analysis.rubric.high_quality_score", rubric.HighQualityScore)
	v.SetDefault("analysis.rubric.high_risk_drawdown_pct", rubric.HighRiskDrawdownPct)

	gates := analysis.DefaultEligibilityGates()
	v.SetDefault("analysis.eligibility.min_win_rate_pct", gates.MinWinRatePct)
	v.SetDefault("analysis.eligibility.min_starting_balance", gates.MinStartingBalance)
	v.SetDefault("analysis.eligibility.min_trades", gates.MinTrades)
	v.SetDefault("analysis.eligibility.max_drawdown_pct", gates.MaxDrawdownPct)

	policy := analysis.DefaultCapitalPolicy()
	v.SetDefault("capital.account_size", policy.AccountSize)
	v.SetDefault("capital.trade_amount_fraction", policy.TradeAmountFraction)
	v.SetDefault("capital.leverage", policy.Leverage)
	v.SetDefault("capital.position_mode", string(policy.PositionMode))
	v.SetDefault("capital.margin_mode", string(policy.MarginMode))
	v.SetDefault("capital.total_capital", policy.TotalCapital)
	v.SetDefault("capital.max_portfolio_fraction", policy.MaxPortfolioFraction)
	v.SetDefault("capital.max_recommendations", policy.MaxRecommendations)

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 1)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("schedule.cron", "0 * * * *")

	v.SetDefault("report.output_dir", "reports")
	v.SetDefault("report.formats", []string{"console", "json"})

	v.SetDefault("cache.market_catalog_ttl_seconds", 3600)
	v.SetDefault("cache.cleanup_interval_seconds", 600)
}

func tierDefaults(tiers []analysis.Tier) []map[string]interface{} {
	out := make([]map[string]interface{}, len(tiers))
	for i, tier := range tiers {
		out[i] = map[string]interface{}{"above": tier.Above, "points": tier.Points}
	}
	return out
}
