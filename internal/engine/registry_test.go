package engine

import (
	"fmt"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/stratofi/svm/internal/ledger"
	"github.com/stratofi/svm/internal/strategy"
)

const (
	testVault = "vault-1"
	testAsset = "usdc"
)

// newTestState builds an engine with count simulated strategies, each capped
// at cap, and returns the ledger and strategies for direct manipulation.
func newTestState(t *testing.T, count int, capAmount int64, minIdleBps uint64) (*State, *ledger.MemLedger, []*strategy.Simulated) {
	t.Helper()

	l := ledger.NewMemLedger(testAsset, 6)
	s, err := NewState(Config{
		VaultAddress: testVault,
		Asset:        testAsset,
		AssetLedger:  l,
		MinIdleBps:   minIdleBps,
	})
	require.NoError(t, err)

	sims := make([]*strategy.Simulated, 0, count)
	for i := 0; i < count; i++ {
		handle := fmt.Sprintf("strat-%d", i)
		sim := strategy.NewSimulated(handle, testAsset, l)
		require.NoError(t, s.AddStrategy(handle, sim, sdkmath.NewInt(capAmount)))
		sims = append(sims, sim)
	}
	return s, l, sims
}

// fundVault mints idle assets onto the vault account.
func fundVault(t *testing.T, l *ledger.MemLedger, amount int64) {
	t.Helper()
	require.NoError(t, l.Mint(testVault, sdkmath.NewInt(amount)))
}

func TestAddStrategy(t *testing.T) {
	s, _, _ := newTestState(t, 2, 50_000, 0)

	require.Equal(t, 2, s.TotalStrategies())
	require.Equal(t, []int{0, 1}, s.SupplyQueue())
	require.Equal(t, []int{0, 1}, s.WithdrawQueue())

	idx, err := s.StrategyIndex("strat-1")
	require.NoError(t, err)
	require.Equal(t, 1, idx)
}

func TestAddStrategyRejectsDuplicate(t *testing.T) {
	s, l, _ := newTestState(t, 1, 50_000, 0)

	dup := strategy.NewSimulated("strat-0", testAsset, l)
	err := s.AddStrategy("strat-0", dup, sdkmath.NewInt(10_000))
	require.ErrorIs(t, err, ErrStrategyAlreadyAdded)
}

func TestAddStrategyRejectsWrongAsset(t *testing.T) {
	s, l, _ := newTestState(t, 0, 0, 0)

	other := strategy.NewSimulated("strat-x", "weth", l)
	err := s.AddStrategy("strat-x", other, sdkmath.NewInt(10_000))
	require.ErrorIs(t, err, ErrWrongBaseAsset)
}

func TestAddStrategyRejectsEmptyHandle(t *testing.T) {
	s, l, _ := newTestState(t, 0, 0, 0)

	sim := strategy.NewSimulated("strat-x", testAsset, l)
	err := s.AddStrategy("", sim, sdkmath.NewInt(10_000))
	require.ErrorIs(t, err, ErrZeroAddress)
}

func TestAddStrategyEnforcesMaximum(t *testing.T) {
	s, l, _ := newTestState(t, MaxStrategies, 50_000, 0)

	extra := strategy.NewSimulated("strat-overflow", testAsset, l)
	err := s.AddStrategy("strat-overflow", extra, sdkmath.NewInt(10_000))
	require.ErrorIs(t, err, ErrMaxStrategiesReached)
}

func TestAddStrategyEnforcesTotalCap(t *testing.T) {
	l := ledger.NewMemLedger(testAsset, 6)
	s, err := NewState(Config{
		VaultAddress: testVault,
		Asset:        testAsset,
		AssetLedger:  l,
		TotalCap:     sdkmath.NewInt(60_000),
	})
	require.NoError(t, err)

	first := strategy.NewSimulated("strat-0", testAsset, l)
	require.NoError(t, s.AddStrategy("strat-0", first, sdkmath.NewInt(50_000)))

	second := strategy.NewSimulated("strat-1", testAsset, l)
	err = s.AddStrategy("strat-1", second, sdkmath.NewInt(20_000))
	require.ErrorIs(t, err, ErrTotalCapExceeded)
}

func TestRemoveStrategySwapRemove(t *testing.T) {
	s, _, _ := newTestState(t, 3, 50_000, 0)

	require.NoError(t, s.RemoveStrategy("strat-0"))
	require.Equal(t, 2, s.TotalStrategies())

	// The last strategy moved into the freed slot.
	idx, err := s.StrategyIndex("strat-2")
	require.NoError(t, err)
	require.Equal(t, 0, idx)
	idx, err = s.StrategyIndex("strat-1")
	require.NoError(t, err)
	require.Equal(t, 1, idx)

	_, err = s.StrategyIndex("strat-0")
	require.ErrorIs(t, err, ErrStrategyNotFound)

	// Queues dropped the removed entry and remapped the moved index.
	require.Equal(t, []int{1, 0}, s.SupplyQueue())
	require.Equal(t, []int{1, 0}, s.WithdrawQueue())
}

func TestRemoveStrategyRejectsStuckFunds(t *testing.T) {
	s, l, sims := newTestState(t, 1, 50_000, 0)
	fundVault(t, l, 10_000)
	require.NoError(t, s.DepositFunds(sdkmath.NewInt(10_000)))

	// Freeze exit liquidity so the position cannot be drained.
	sims[0].SetWithdrawLimit(sdkmath.ZeroInt())

	err := s.RemoveStrategy("strat-0")
	require.ErrorIs(t, err, ErrCannotWithdrawAllFundsFromStrategy)
}

func TestRemoveDrainedStrategy(t *testing.T) {
	s, l, _ := newTestState(t, 1, 50_000, 0)
	fundVault(t, l, 10_000)
	require.NoError(t, s.DepositFunds(sdkmath.NewInt(10_000)))

	withdrawn, err := s.WithdrawMaxFunds("strat-0")
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(10_000), withdrawn)

	require.NoError(t, s.RemoveStrategy("strat-0"))
	require.Equal(t, 0, s.TotalStrategies())
	require.Empty(t, s.SupplyQueue())
	require.Empty(t, s.WithdrawQueue())
}

func TestChangeCap(t *testing.T) {
	s, _, _ := newTestState(t, 1, 50_000, 0)

	require.NoError(t, s.ChangeCap("strat-0", sdkmath.NewInt(75_000)))
	require.Equal(t, sdkmath.NewInt(75_000), s.Strategies()[0].Cap)

	err := s.ChangeCap("strat-0", sdkmath.NewInt(75_000))
	require.ErrorIs(t, err, ErrNoChangeInCap)

	err = s.ChangeCap("missing", sdkmath.NewInt(10))
	require.ErrorIs(t, err, ErrStrategyNotFound)
}
