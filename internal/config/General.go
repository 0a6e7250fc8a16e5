package config

import (
	"errors"
	"os"
	"strconv"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// VaultAddress is the ledger account the vault operates from.
	VaultAddress string
	// AssetSymbol is the underlying asset the vault accepts.
	AssetSymbol string
	// AssetDecimals is the base-unit precision of the underlying asset.
	AssetDecimals uint8

	// EntryFeeBps is the fee charged on deposits, in basis points.
	EntryFeeBps uint64
	// ExitFeeBps is the fee charged on withdrawals, in basis points.
	ExitFeeBps uint64
	// FeeRecipient is the account collecting fees. The vault's own address
	// keeps fees inside the vault.
	FeeRecipient string

	// MinIdleBps is the fraction of total value that must stay unallocated,
	// in basis points.
	MinIdleBps uint64
	// TotalCap bounds the sum of all strategy caps. Zero disables the
	// vault-wide ceiling.
	TotalCap sdkmath.Int

	// OperatorAddress is the account granted the vault's operational roles.
	OperatorAddress string
	// StrategyCount is the number of simulated strategies to register.
	StrategyCount uint64
	// StrategyCap is the deposit ceiling applied to each simulated strategy.
	StrategyCap sdkmath.Int

	// CycleSeconds is the interval between simulation cycles.
	CycleSeconds uint64
	// WebPort is the HTTP port of the status dashboard.
	WebPort string
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
// All environment variables are required and must be set.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	VaultAddress, err = getEnv("SVM_VAULT_ADDRESS")
	if err != nil {
		return err
	}

	AssetSymbol, err = getEnv("SVM_ASSET_SYMBOL")
	if err != nil {
		return err
	}

	decimals, err := getEnvAsUint64("SVM_ASSET_DECIMALS")
	if err != nil {
		return err
	}
	if decimals > 18 {
		return errors.New("environment variable SVM_ASSET_DECIMALS must be at most 18")
	}
	AssetDecimals = uint8(decimals)

	EntryFeeBps, err = getEnvAsUint64("SVM_ENTRY_FEE_BPS")
	if err != nil {
		return err
	}

	ExitFeeBps, err = getEnvAsUint64("SVM_EXIT_FEE_BPS")
	if err != nil {
		return err
	}

	FeeRecipient, err = getEnv("SVM_FEE_RECIPIENT")
	if err != nil {
		return err
	}

	MinIdleBps, err = getEnvAsUint64("SVM_MIN_IDLE_BPS")
	if err != nil {
		return err
	}

	TotalCap, err = getEnvAsInt("SVM_TOTAL_CAP")
	if err != nil {
		return err
	}

	OperatorAddress, err = getEnv("SVM_OPERATOR_ADDRESS")
	if err != nil {
		return err
	}

	StrategyCount, err = getEnvAsUint64("SVM_STRATEGY_COUNT")
	if err != nil {
		return err
	}

	StrategyCap, err = getEnvAsInt("SVM_STRATEGY_CAP")
	if err != nil {
		return err
	}

	CycleSeconds, err = getEnvAsUint64("SVM_CYCLE_SECONDS")
	if err != nil {
		return err
	}

	WebPort, err = getEnv("WEB_PORT")
	if err != nil {
		return err
	}

	log.Debug().
		Str("VaultAddress", VaultAddress).
		Str("AssetSymbol", AssetSymbol).
		Uint64("EntryFeeBps", EntryFeeBps).
		Uint64("ExitFeeBps", ExitFeeBps).
		Uint64("MinIdleBps", MinIdleBps).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsUint64 retrieves an environment variable as a uint64. Returns error if not set or invalid.
func getEnvAsUint64(key string) (uint64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsInt retrieves an environment variable as an arbitrary-precision
// non-negative integer. Returns error if not set or invalid.
func getEnvAsInt(key string) (sdkmath.Int, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	value, ok := sdkmath.NewIntFromString(valueStr)
	if !ok || value.IsNegative() {
		return sdkmath.ZeroInt(),
			errors.New("environment variable " + key + " must be a non-negative integer, got: " + valueStr)
	}
	return value, nil
}
