package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/stratofi/svm/internal/access"
	"github.com/stratofi/svm/internal/config"
	"github.com/stratofi/svm/internal/engine"
	"github.com/stratofi/svm/internal/fixedpoint"
	"github.com/stratofi/svm/internal/ledger"
	"github.com/stratofi/svm/internal/logger"
	"github.com/stratofi/svm/internal/state"
	"github.com/stratofi/svm/internal/strategy"
	"github.com/stratofi/svm/internal/types"
	"github.com/stratofi/svm/internal/vault"
	"github.com/stratofi/svm/internal/web"
)

const (
	// SIM_DEPOSITOR is the account driving deposits in simulation cycles.
	SIM_DEPOSITOR = "sim-depositor"
	// SIM_YIELD_BPS is the yield accrued on each strategy per cycle.
	SIM_YIELD_BPS = 5
)

// main is the entry point for the SVM system.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("SVM Core Logic Starting...")

	// Initialize Database Connection
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// --- 2. Vault Construction ---
	assetLedger := ledger.NewMemLedger(config.AssetSymbol, config.AssetDecimals)
	shareLedger := ledger.NewMemLedger(config.AssetSymbol+"-share", config.AssetDecimals)

	engineState, err := engine.NewState(engine.Config{
		VaultAddress: config.VaultAddress,
		Asset:        config.AssetSymbol,
		AssetLedger:  assetLedger,
		MinIdleBps:   config.MinIdleBps,
		TotalCap:     config.TotalCap,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize allocation engine")
	}

	gate := access.NewStaticGate().
		Grant(access.RoleManager, config.OperatorAddress).
		Grant(access.RoleCurator, config.OperatorAddress).
		Grant(access.RoleAllocator, config.OperatorAddress)

	v, err := vault.New(vault.Config{
		Address:      config.VaultAddress,
		AssetLedger:  assetLedger,
		ShareLedger:  shareLedger,
		Gate:         gate,
		Engine:       engineState,
		EntryFeeBps:  config.EntryFeeBps,
		ExitFeeBps:   config.ExitFeeBps,
		FeeRecipient: config.FeeRecipient,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize vault")
	}

	// Register simulated strategies
	strategies := make([]*strategy.Simulated, 0, config.StrategyCount)
	for i := uint64(0); i < config.StrategyCount; i++ {
		handle := fmt.Sprintf("sim-strategy-%d", i+1)
		sim := strategy.NewSimulated(handle, config.AssetSymbol, assetLedger)
		if err := v.AddStrategy(config.OperatorAddress, handle, sim, config.StrategyCap); err != nil {
			log.Fatal().Err(err).Str("strategy", handle).Msg("Failed to register strategy")
		}
		strategies = append(strategies, sim)
	}
	log.Info().Int("strategies", len(strategies)).Msg("Simulated strategies registered")

	// --- 3. Start Web Server ---
	webServer := web.NewWebServer(config.WebPort)
	go func() {
		log.Info().Str("port", config.WebPort).Str("url", "http://localhost:"+config.WebPort).Msg("Starting SVM status dashboard")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 4. Start Simulation Loop ---
	interval := time.Duration(config.CycleSeconds) * time.Second
	log.Info().Str("interval", interval.String()).Msg("Starting SVM simulation loop")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runLoop(ctx, v, assetLedger, strategies, interval)
	log.Info().Msg("SVM shut down cleanly")
}

// runLoop drives one simulation cycle per tick until the context is cancelled.
func runLoop(ctx context.Context, v *vault.Vault, assetLedger *ledger.MemLedger,
	strategies []*strategy.Simulated, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	cycle := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cycle++
			runCycle(cycle, v, assetLedger, strategies)
		}
	}
}

// runCycle performs one simulated operating cycle: a deposit, yield accrual,
// a periodic withdrawal, then a persisted snapshot.
func runCycle(cycle int, v *vault.Vault, assetLedger *ledger.MemLedger, strategies []*strategy.Simulated) {
	log.Info().Int("cycle", cycle).Msg("Simulation cycle starting")

	// Fund and execute a deposit, bounded by the remaining cap room.
	depositAmount := fixedpoint.MinInt(sdkmath.NewInt(100_000), v.MaxDeposit())
	if depositAmount.IsPositive() {
		if err := assetLedger.Mint(SIM_DEPOSITOR, depositAmount); err != nil {
			log.Error().Err(err).Msg("Failed to fund simulated depositor")
			return
		}
		if err := assetLedger.Approve(SIM_DEPOSITOR, v.Address(), depositAmount); err != nil {
			log.Error().Err(err).Msg("Failed to approve simulated deposit")
			return
		}
		shares, err := v.Deposit(SIM_DEPOSITOR, SIM_DEPOSITOR, depositAmount)
		recordReceipt(types.OpDeposit, SIM_DEPOSITOR, depositAmount, shares, err)
	}

	// Accrue yield on every strategy.
	for _, sim := range strategies {
		if err := sim.Accrue(SIM_YIELD_BPS); err != nil {
			log.Error().Err(err).Str("strategy", sim.Address()).Msg("Yield accrual failed")
		}
	}

	// Every third cycle, redeem a tenth of the depositor's position.
	if cycle%3 == 0 {
		toRedeem := v.MaxRedeem(SIM_DEPOSITOR).QuoRaw(10)
		if toRedeem.IsPositive() {
			assets, err := v.Redeem(SIM_DEPOSITOR, SIM_DEPOSITOR, SIM_DEPOSITOR, toRedeem)
			recordReceipt(types.OpRedeem, SIM_DEPOSITOR, assets, toRedeem, err)
		}
	}

	if _, err := state.SaveVaultSnapshot(v.Snapshot()); err != nil {
		log.Error().Err(err).Msg("Failed to persist vault snapshot")
	}
}

// recordReceipt persists the outcome of one vault operation.
func recordReceipt(kind types.OperationKind, caller string, assets, shares sdkmath.Int, opErr error) {
	receipt := types.OperationReceipt{
		Kind:      kind,
		Caller:    caller,
		Assets:    safeInt(assets),
		Shares:    safeInt(shares),
		Success:   opErr == nil,
		Timestamp: time.Now().UTC(),
	}
	if opErr != nil {
		receipt.Message = opErr.Error()
		log.Error().Err(opErr).Str("kind", string(kind)).Msg("Vault operation failed")
	}
	if _, err := state.SaveOperationReceipt(receipt); err != nil {
		log.Error().Err(err).Msg("Failed to persist operation receipt")
	}
}

func safeInt(v sdkmath.Int) sdkmath.Int {
	if v.IsNil() {
		return sdkmath.ZeroInt()
	}
	return v
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
