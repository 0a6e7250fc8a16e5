/*

This file contains the vault facade: construction, conversion views and
previews. The facade owns no math of its own; shares<->assets and fee
calculations are delegated to the fees package against the vault's current
totals, and all allocation decisions live in the engine.

*/

package vault

import (
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/stratofi/svm/internal/access"
	"github.com/stratofi/svm/internal/engine"
	"github.com/stratofi/svm/internal/fees"
	"github.com/stratofi/svm/internal/fixedpoint"
	"github.com/stratofi/svm/internal/ledger"
	"github.com/stratofi/svm/internal/logger"
	"github.com/stratofi/svm/internal/types"
)

// Error definitions for zero-tolerance error handling
var (
	ErrReentrantCall      = errors.New("reentrant call rejected")
	ErrUnauthorized       = errors.New("caller lacks the required role")
	ErrZeroShares         = errors.New("operation would mint or burn zero shares")
	ErrZeroAssets         = errors.New("operation would move zero assets")
	ErrInsufficientShares = errors.New("owner share balance too low")
	ErrInvalidConfig      = errors.New("vault configuration is invalid")
)

// Config carries the collaborators and fee settings of a vault.
type Config struct {
	// Address is the vault's own account on both ledgers.
	Address string
	// AssetLedger hosts the underlying asset.
	AssetLedger ledger.Ledger
	// ShareLedger hosts the vault share token the facade mints and burns.
	ShareLedger ledger.MintBurner
	// Gate answers role checks for every privileged entry point.
	Gate access.Gate
	// Engine is the allocation engine state the facade orchestrates.
	Engine *engine.State

	EntryFeeBps uint64
	ExitFeeBps  uint64
	// FeeRecipient receives entry and exit fees. When it equals the vault
	// address the fee is silently retained by the vault; this is documented
	// behavior, not a bug.
	FeeRecipient string
}

// Vault orchestrates deposits and withdrawals against the allocation engine,
// maintaining the minimum-idle-asset invariant. All mutating entry points
// hold a non-reentrant guard: an adapter calling back into the vault during
// an operation is rejected outright.
type Vault struct {
	addr   string
	assets ledger.Ledger
	shares ledger.MintBurner
	gate   access.Gate
	engine *engine.State

	entryFeeBps  uint64
	exitFeeBps   uint64
	feeRecipient string

	entered bool
	log     zerolog.Logger
}

// New validates the configuration and builds the vault facade.
func New(cfg Config) (*Vault, error) {
	if cfg.Address == "" {
		return nil, errors.Join(ErrInvalidConfig, errors.New("vault address is required"))
	}
	if cfg.AssetLedger == nil || cfg.ShareLedger == nil {
		return nil, errors.Join(ErrInvalidConfig, errors.New("both ledgers are required"))
	}
	if cfg.Gate == nil {
		return nil, errors.Join(ErrInvalidConfig, errors.New("access gate is required"))
	}
	if cfg.Engine == nil {
		return nil, errors.Join(ErrInvalidConfig, errors.New("engine state is required"))
	}
	if cfg.EntryFeeBps > fixedpoint.BpsScale || cfg.ExitFeeBps > fixedpoint.BpsScale {
		return nil, errors.Join(ErrInvalidConfig,
			fmt.Errorf("fees %d/%d bps exceed the scale", cfg.EntryFeeBps, cfg.ExitFeeBps))
	}
	if cfg.Engine.VaultAddress() != cfg.Address {
		return nil, errors.Join(ErrInvalidConfig,
			errors.New("engine vault address does not match the facade address"))
	}
	v := &Vault{
		addr:         cfg.Address,
		assets:       cfg.AssetLedger,
		shares:       cfg.ShareLedger,
		gate:         cfg.Gate,
		engine:       cfg.Engine,
		entryFeeBps:  cfg.EntryFeeBps,
		exitFeeBps:   cfg.ExitFeeBps,
		feeRecipient: cfg.FeeRecipient,
		log:          logger.GetForComponent("vault"),
	}
	v.log.Info().
		Str("vault", v.addr).
		Uint64("entryFeeBps", v.entryFeeBps).
		Uint64("exitFeeBps", v.exitFeeBps).
		Str("feeRecipient", v.feeRecipient).
		Msg("Vault facade initialized")
	return v, nil
}

// enter takes the non-reentrant lock for the duration of a mutating call.
func (v *Vault) enter() error {
	if v.entered {
		return ErrReentrantCall
	}
	v.entered = true
	return nil
}

func (v *Vault) exit() {
	v.entered = false
}

// Address returns the vault's account handle.
func (v *Vault) Address() string {
	return v.addr
}

// Engine exposes the allocation engine for read access.
func (v *Vault) Engine() *engine.State {
	return v.engine
}

// EntryFeeBps returns the current entry fee.
func (v *Vault) EntryFeeBps() uint64 {
	return v.entryFeeBps
}

// ExitFeeBps returns the current exit fee.
func (v *Vault) ExitFeeBps() uint64 {
	return v.exitFeeBps
}

// FeeRecipient returns the account collecting fees.
func (v *Vault) FeeRecipient() string {
	return v.feeRecipient
}

// TotalAssets values everything the vault controls: idle assets plus every
// strategy position.
func (v *Vault) TotalAssets() sdkmath.Int {
	return v.engine.TotalAssets()
}

// TotalShares returns the outstanding share supply.
func (v *Vault) TotalShares() sdkmath.Int {
	return v.shares.TotalSupply()
}

// PreviewDeposit returns the shares a deposit of assets would mint right now.
// Pure: repeated calls with unchanged vault state return identical results.
func (v *Vault) PreviewDeposit(assets sdkmath.Int) (sdkmath.Int, error) {
	return fees.PreviewDeposit(assets, v.TotalAssets(), v.TotalShares(), v.entryFeeBps)
}

// PreviewMint returns the fee-inclusive assets required to mint exact shares.
func (v *Vault) PreviewMint(shares sdkmath.Int) (sdkmath.Int, error) {
	return fees.PreviewMint(shares, v.TotalAssets(), v.TotalShares(), v.entryFeeBps)
}

// PreviewWithdraw returns the shares burned to withdraw exact assets.
func (v *Vault) PreviewWithdraw(assets sdkmath.Int) (sdkmath.Int, error) {
	return fees.PreviewWithdraw(assets, v.TotalAssets(), v.TotalShares(), v.exitFeeBps)
}

// PreviewRedeem returns the net assets paid out for burning exact shares.
func (v *Vault) PreviewRedeem(shares sdkmath.Int) (sdkmath.Int, error) {
	return fees.PreviewRedeem(shares, v.TotalAssets(), v.TotalShares(), v.exitFeeBps)
}

// MaxDeposit returns the remaining cap room across the supply queue: the
// vault-wide capacity ceiling, not a per-user limit.
func (v *Vault) MaxDeposit() sdkmath.Int {
	return v.engine.DepositRoom()
}

// MaxWithdraw returns the most assets owner can withdraw, net of the exit
// fee. With no exit fee configured this is the raw position value.
func (v *Vault) MaxWithdraw(owner string) (sdkmath.Int, error) {
	balance, err := fees.ConvertToAssets(v.shares.BalanceOf(owner),
		v.TotalAssets(), v.TotalShares(), fees.RoundDown)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if v.exitFeeBps == 0 {
		return balance, nil
	}
	fee, err := fees.FeeOnTotal(balance, v.exitFeeBps)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return balance.Sub(fee), nil
}

// MaxRedeem returns owner's full share balance.
func (v *Vault) MaxRedeem(owner string) sdkmath.Int {
	return v.shares.BalanceOf(owner)
}

// Snapshot captures the vault's current accounting state for persistence and
// the status API.
func (v *Vault) Snapshot() types.VaultSnapshot {
	return types.VaultSnapshot{
		Timestamp:     time.Now().UTC(),
		TotalAssets:   v.TotalAssets(),
		TotalShares:   v.TotalShares(),
		IdleAssets:    v.engine.IdleAssets(),
		EntryFeeBps:   v.entryFeeBps,
		ExitFeeBps:    v.exitFeeBps,
		MinIdleBps:    v.engine.MinIdleBps(),
		FeeRecipient:  v.feeRecipient,
		Strategies:    v.engine.StrategyBalances(),
		SupplyQueue:   v.engine.SupplyQueue(),
		WithdrawQueue: v.engine.WithdrawQueue(),
	}
}
