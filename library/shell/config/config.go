package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/AntonStoeckl/lendingdesk/library/core"
)

const (
	EnvLedgerEngine   = "LEDGER_ENGINE"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
	EnvLoanPeriodDays = "LOAN_PERIOD_DAYS"
	EnvLateFeePerDay  = "LATE_FEE_PER_DAY"

	// DefaultEnvFile is read when present and no other file is given.
	DefaultEnvFile = ".env"
)

// LedgerEngine selects the eventstore engine behind the ledger.
type LedgerEngine string

const (
	LedgerEngineMemory LedgerEngine = "memory"
	LedgerEngineSQLite LedgerEngine = "sqlite"
)

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

var (
	ErrInvalidLedgerEngine = errors.New("LEDGER_ENGINE must be memory or sqlite")
	ErrInvalidLogLevel     = errors.New("LOG_LEVEL must be debug, info, warn or error")
	ErrInvalidLogFormat    = errors.New("LOG_FORMAT must be text or json")
	ErrInvalidFeePolicy    = errors.New("LOAN_PERIOD_DAYS and LATE_FEE_PER_DAY must be non-negative numbers")
)

// Config holds all settings of one run.
type Config struct {
	LedgerEngine LedgerEngine
	LogLevel     string
	LogFormat    LogFormat
	FeePolicy    core.FeePolicy
}

// Load reads envFile into the process environment, then builds the Config from it.
// An empty envFile means DefaultEnvFile, which may be missing. A named file must exist.
// Variables already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile == "" {
		if _, err := os.Stat(DefaultEnvFile); err == nil {
			envFile = DefaultEnvFile
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, errors.Wrapf(err, "loading env file %s", envFile)
		}
	}

	cfg := Config{
		LedgerEngine: LedgerEngine(strings.ToLower(withDefault(os.Getenv(EnvLedgerEngine), string(LedgerEngineMemory)))),
		LogLevel:     strings.ToLower(withDefault(os.Getenv(EnvLogLevel), "warn")),
		LogFormat:    LogFormat(strings.ToLower(withDefault(os.Getenv(EnvLogFormat), string(LogFormatText)))),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	policy, err := feePolicyFromEnv()
	if err != nil {
		return Config{}, err
	}

	cfg.FeePolicy = policy

	return cfg, nil
}

func (c Config) validate() error {
	switch c.LedgerEngine {
	case LedgerEngineMemory, LedgerEngineSQLite:
	default:
		return errors.Wrapf(ErrInvalidLedgerEngine, "got %q", c.LedgerEngine)
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return errors.Wrapf(ErrInvalidLogFormat, "got %q", c.LogFormat)
	}

	return nil
}

func feePolicyFromEnv() (core.FeePolicy, error) {
	policy := core.DefaultFeePolicy()

	if raw := strings.TrimSpace(os.Getenv(EnvLoanPeriodDays)); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			return core.FeePolicy{}, errors.Wrapf(ErrInvalidFeePolicy, "%s=%q", EnvLoanPeriodDays, raw)
		}

		policy.LoanPeriodDays = days
	}

	if raw := strings.TrimSpace(os.Getenv(EnvLateFeePerDay)); raw != "" {
		fee, err := strconv.ParseFloat(raw, 64)
		if err != nil || fee < 0 {
			return core.FeePolicy{}, errors.Wrapf(ErrInvalidFeePolicy, "%s=%q", EnvLateFeePerDay, raw)
		}

		policy.LateFeePerDay = fee
	}

	return policy, nil
}

func withDefault(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return strings.TrimSpace(value)
}
