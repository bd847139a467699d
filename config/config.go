// Package config loads application settings from the environment, reading
// a .env file first when one is present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"jmstructural/services"
)

type Config struct {
	Environment string
	LogLevel    string

	Currency   string
	TaxPercent decimal.Decimal
	Rounding   services.RoundingMode

	GenerationLatency time.Duration
	GenerationTimeout time.Duration
	GenerationSeed    uint64

	SeedData bool
}

// Load reads the given env files (".env" when none are named) and then the
// process environment. Missing env files are not an error; values already
// set in the environment take precedence over file values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	tax, err := decimal.NewFromString(getEnv("TAX_PERCENT", "16"))
	if err != nil {
		return nil, fmt.Errorf("TAX_PERCENT: %w", err)
	}
	if tax.IsNegative() || tax.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("TAX_PERCENT: %w", services.ErrInvalidTaxPercent)
	}

	var errs []error
	rounding := strings.ToLower(getEnv("ROUNDING_MODE", string(services.RoundHalfUp)))
	switch rounding {
	case string(services.RoundHalfUp), string(services.RoundHalfEven), "bankers":
	default:
		errs = append(errs, fmt.Errorf("ROUNDING_MODE: unknown mode %q", rounding))
	}
	latency, err := getEnvAsDuration("GENERATION_LATENCY", 2*time.Second)
	errs = append(errs, err)
	timeout, err := getEnvAsDuration("GENERATION_TIMEOUT", 30*time.Second)
	errs = append(errs, err)
	seed, err := getEnvAsUint("GENERATION_SEED", 42)
	errs = append(errs, err)
	seedData, err := getEnvAsBool("SEED_DATA", true)
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	cfg := &Config{
		Environment:       getEnv("APP_ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Currency:          strings.ToUpper(getEnv("CURRENCY", services.DefaultCurrency)),
		TaxPercent:        tax,
		Rounding:          services.ParseRoundingMode(rounding),
		GenerationLatency: latency,
		GenerationTimeout: timeout,
		GenerationSeed:    seed,
		SeedData:          seedData,
	}
	return cfg, nil
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Calculator returns the totals calculator for the configured rounding mode.
func (c *Config) Calculator() services.Calculator {
	return services.Calculator{Rounding: c.Rounding}
}

func getEnv(key, defaultVal string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsUint(key string, defaultVal uint64) (uint64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return defaultVal, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvAsBool(key string, defaultVal bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultVal, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// getEnvAsDuration accepts Go durations ("1500ms") or plain milliseconds.
func getEnvAsDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		ms, msErr := strconv.Atoi(value)
		if msErr != nil {
			return defaultVal, fmt.Errorf("%s: %w", key, err)
		}
		d = time.Duration(ms) * time.Millisecond
	}
	if d < 0 {
		return defaultVal, fmt.Errorf("%s: must not be negative, got %s", key, value)
	}
	return d, nil
}
