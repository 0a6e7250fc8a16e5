/*

This file contains the aggregate strategy state: the dense strategy array, the
handle index map, both priority queues and the idle-buffer configuration. The
registry, queue and allocation operations in the sibling files are all methods
over this one struct; there are no hidden globals.

*/

package engine

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/stratofi/svm/internal/fixedpoint"
	"github.com/stratofi/svm/internal/ledger"
	"github.com/stratofi/svm/internal/logger"
	"github.com/stratofi/svm/internal/strategy"
	"github.com/stratofi/svm/internal/types"
)

// MaxStrategies caps how many strategies the vault may carry at once.
const MaxStrategies = 30

// Config carries everything needed to construct an engine State.
type Config struct {
	// VaultAddress is the account holding idle assets and strategy shares.
	VaultAddress string
	// Asset is the handle of the vault's underlying asset.
	Asset string
	// AssetLedger is the fungible ledger the underlying asset lives on.
	AssetLedger ledger.Ledger
	// MinIdleBps is the fraction of total value, in basis points, that must
	// stay unallocated.
	MinIdleBps uint64
	// TotalCap bounds the sum of all strategy caps. Nil or zero disables the
	// vault-wide ceiling.
	TotalCap sdkmath.Int
}

// State is the persistent aggregate every engine operation mutates.
//
// Invariants:
//   - index[s.Address] == i+1 exactly when strategies[i].Address == s.Address
//     (0 is the absent sentinel);
//   - every entry of supplyQueue and withdrawQueue is a live strategy index;
//   - a strategy can only leave the set with zero cap and zero live balance.
type State struct {
	vaultAddr string
	asset     string
	assets    ledger.Ledger

	strategies    []types.Strategy
	adapters      map[string]strategy.Adapter
	index         map[string]int
	supplyQueue   []int
	withdrawQueue []int

	minIdleBps uint64
	totalCap   sdkmath.Int

	log zerolog.Logger
}

// NewState validates the configuration and builds an empty engine state.
func NewState(cfg Config) (*State, error) {
	if cfg.VaultAddress == "" {
		return nil, errors.Join(ErrZeroAddress, errors.New("vault address is required"))
	}
	if cfg.Asset == "" {
		return nil, errors.Join(ErrZeroAddress, errors.New("asset handle is required"))
	}
	if cfg.AssetLedger == nil {
		return nil, errors.New("asset ledger is required")
	}
	if cfg.MinIdleBps > fixedpoint.BpsScale {
		return nil, fmt.Errorf("minimum idle bps %d exceeds the scale", cfg.MinIdleBps)
	}
	totalCap := cfg.TotalCap
	if totalCap.IsNil() {
		totalCap = sdkmath.ZeroInt()
	}
	if totalCap.IsNegative() {
		return nil, errors.Join(ErrZeroAmount, errors.New("total cap cannot be negative"))
	}
	return &State{
		vaultAddr:  cfg.VaultAddress,
		asset:      cfg.Asset,
		assets:     cfg.AssetLedger,
		adapters:   make(map[string]strategy.Adapter),
		index:      make(map[string]int),
		minIdleBps: cfg.MinIdleBps,
		totalCap:   totalCap,
		log:        logger.GetForComponent("allocation_engine"),
	}, nil
}

// VaultAddress returns the account the engine allocates for.
func (s *State) VaultAddress() string {
	return s.vaultAddr
}

// Asset returns the underlying asset handle.
func (s *State) Asset() string {
	return s.asset
}

// TotalStrategies returns the live strategy count.
func (s *State) TotalStrategies() int {
	return len(s.strategies)
}

// Strategies returns a copy of the dense strategy array.
func (s *State) Strategies() []types.Strategy {
	out := make([]types.Strategy, len(s.strategies))
	copy(out, s.strategies)
	return out
}

// SupplyQueue returns a copy of the deposit priority order.
func (s *State) SupplyQueue() []int {
	out := make([]int, len(s.supplyQueue))
	copy(out, s.supplyQueue)
	return out
}

// WithdrawQueue returns a copy of the drain priority order.
func (s *State) WithdrawQueue() []int {
	out := make([]int, len(s.withdrawQueue))
	copy(out, s.withdrawQueue)
	return out
}

// MinIdleBps returns the configured idle-buffer fraction.
func (s *State) MinIdleBps() uint64 {
	return s.minIdleBps
}

// SetMinIdleBps replaces the idle-buffer fraction.
func (s *State) SetMinIdleBps(bps uint64) error {
	if bps > fixedpoint.BpsScale {
		return fmt.Errorf("minimum idle bps %d exceeds the scale", bps)
	}
	s.minIdleBps = bps
	s.log.Info().Uint64("minIdleBps", bps).Msg("Minimum idle buffer updated")
	return nil
}

// StrategyIndex resolves a handle to its dense-array index.
func (s *State) StrategyIndex(handle string) (int, error) {
	mapped := s.index[handle]
	if mapped == 0 {
		return 0, errors.Join(ErrStrategyNotFound, fmt.Errorf("handle %q", handle))
	}
	return mapped - 1, nil
}

// adapterAt returns the adapter backing strategy i. Callers must pass a live
// index.
func (s *State) adapterAt(i int) strategy.Adapter {
	return s.adapters[s.strategies[i].Address]
}

// strategyBalance values the vault's position in strategy i, in underlying
// units.
func (s *State) strategyBalance(i int) sdkmath.Int {
	a := s.adapterAt(i)
	return a.ConvertToAssets(a.BalanceOf(s.vaultAddr))
}

// cachedBalances reads every strategy balance once. Each mutating operation
// takes this snapshot at the top and decides against it, so no balance is
// re-queried mid-calculation after a partial mutation.
func (s *State) cachedBalances() []sdkmath.Int {
	balances := make([]sdkmath.Int, len(s.strategies))
	for i := range s.strategies {
		balances[i] = s.strategyBalance(i)
	}
	return balances
}

// IdleAssets returns the assets the vault holds directly, outside every
// strategy.
func (s *State) IdleAssets() sdkmath.Int {
	return s.assets.BalanceOf(s.vaultAddr)
}

// TotalStrategyAssets sums the value of every live strategy position.
func (s *State) TotalStrategyAssets() sdkmath.Int {
	total := sdkmath.ZeroInt()
	for i := range s.strategies {
		total = total.Add(s.strategyBalance(i))
	}
	return total
}

// TotalAssets is the vault's full value: idle plus every strategy position.
func (s *State) TotalAssets() sdkmath.Int {
	return s.IdleAssets().Add(s.TotalStrategyAssets())
}

// DepositRoom sums the remaining cap headroom across the supply queue. This
// is a vault-wide capacity ceiling, not a per-user limit.
func (s *State) DepositRoom() sdkmath.Int {
	room := sdkmath.ZeroInt()
	seen := make(map[int]bool, len(s.supplyQueue))
	for _, idx := range s.supplyQueue {
		if seen[idx] {
			continue
		}
		seen[idx] = true
		capAmt := s.strategies[idx].Cap
		if capAmt.IsZero() {
			continue
		}
		room = room.Add(fixedpoint.ZeroFloorSub(capAmt, s.strategyBalance(idx)))
	}
	return room
}

// RequiredIdle computes the idle buffer the configured fraction demands of
// the given total value, rounding in the buffer's favor.
func (s *State) RequiredIdle(totalAssets sdkmath.Int) (sdkmath.Int, error) {
	if s.minIdleBps == 0 {
		return sdkmath.ZeroInt(), nil
	}
	return fixedpoint.MulDivUp(totalAssets,
		sdkmath.NewIntFromUint64(s.minIdleBps), sdkmath.NewInt(fixedpoint.BpsScale))
}

// StrategyBalances reports the observed per-strategy state, for snapshots and
// the status API.
func (s *State) StrategyBalances() []types.StrategyBalance {
	out := make([]types.StrategyBalance, len(s.strategies))
	for i, st := range s.strategies {
		out[i] = types.StrategyBalance{
			Address: st.Address,
			Cap:     st.Cap,
			Balance: s.strategyBalance(i),
		}
	}
	return out
}

// sumOfCaps is the combined configured cap across all strategies.
func (s *State) sumOfCaps() sdkmath.Int {
	total := sdkmath.ZeroInt()
	for _, st := range s.strategies {
		total = total.Add(st.Cap)
	}
	return total
}

// checkTotalCap rejects a cap layout whose sum exceeds the vault-wide
// ceiling, when one is configured.
func (s *State) checkTotalCap(capsSum sdkmath.Int) error {
	if s.totalCap.IsZero() {
		return nil
	}
	if capsSum.GT(s.totalCap) {
		return errors.Join(ErrTotalCapExceeded,
			fmt.Errorf("caps sum %s exceeds total cap %s", capsSum, s.totalCap))
	}
	return nil
}
