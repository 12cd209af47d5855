// Package config provides configuration management for the lab-ranker application.
package config

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/yourusername/lab-ranker/internal/market"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Register custom validation functions
	customTags := map[string]validator.Func{
		"environment": validateEnvironment,
		"loglevel":    validateLogLevel,
		"markettag":   validateMarketTag,
		"cronspec":    validateCronSpec,
	}
	for tag, fn := range customTags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	// Rubric tiers, eligibility gates and capital policy are checked by the
	// engine first so their failures stay *models.ConfigurationError
	if err := cfg.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	err := cv.validator.Struct(cfg)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	// Additional cross-field validations
	if err := validateCrossField(cfg); err != nil {
		return err
	}

	return nil
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	env := fl.Field().String()
	switch env {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	level := fl.Field().String()
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateMarketTag requires an already canonical market tag
func validateMarketTag(fl validator.FieldLevel) bool {
	return market.Validate(fl.Field().String()) == nil
}

// validateCronSpec validates a standard five-field cron expression
func validateCronSpec(fl validator.FieldLevel) bool {
	_, err := cron.ParseStandard(fl.Field().String())
	return err == nil
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	// Validate production environment requirements
	if cfg.IsProduction() && cfg.Database.Enabled && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
	}

	// Validate connection pool settings
	if cfg.Database.MinConnections > cfg.Database.MaxConnections {
		return fmt.Errorf("min_connections cannot exceed max_connections")
	}

	// Scheduled runs need something to fetch
	if cfg.Schedule.Enabled {
		if cfg.Schedule.Cron == "" {
			return fmt.Errorf("schedule.cron is required when scheduling is enabled")
		}
		if len(cfg.Platform.LabIDs) == 0 {
			return fmt.Errorf("schedule requires at least one platform.lab_ids entry")
		}
	}

	if len(cfg.Platform.LabIDs) > 0 && cfg.Platform.BaseURL == "" {
		return fmt.Errorf("platform.base_url is required when lab_ids are configured")
	}

	if cfg.Cache.RequireListedMarkets && cfg.Platform.BaseURL == "" && len(cfg.Cache.StaticMarkets) == 0 {
		return fmt.Errorf("require_listed_markets needs platform.base_url or cache.static_markets")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.Namespace()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required", "required_if":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "markettag":
			errMsg += fmt.Sprintf("- Field '%s' must be a market tag in %s format, got '%v'\n", field, market.Format, value)
		case "cronspec":
			errMsg += fmt.Sprintf("- Field '%s' must be a five-field cron expression, got '%v'\n", field, value)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}

// ValidateEnvironment validates environment-specific requirements
func ValidateEnvironment(cfg *Config) error {
	if cfg.IsProduction() {
		// Production should not have placeholder credentials
		if cfg.Platform.BaseURL != "" && isTestCredential(cfg.Platform.APIKey) {
			return fmt.Errorf("production environment should not use test platform credentials")
		}
		if cfg.Platform.BaseURL != "" && cfg.Platform.APIKey == "" {
			return fmt.Errorf("production environment requires platform.api_key")
		}
	}

	return nil
}

// isTestCredential checks if a credential looks like a test credential
func isTestCredential(credential string) bool {
	testPatterns := []string{
		"test", "demo", "example", "placeholder", "YOUR_",
	}

	for _, pattern := range testPatterns {
		if match, _ := regexp.MatchString("(?i)"+pattern, credential); match {
			return true
		}
	}

	return false
}
