package engine

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/stratofi/svm/internal/types"
)

func strategyBalances(s *State) []sdkmath.Int {
	out := make([]sdkmath.Int, 0, s.TotalStrategies())
	for _, sb := range s.StrategyBalances() {
		out = append(out, sb.Balance)
	}
	return out
}

func TestDepositFundsGreedyFirstFit(t *testing.T) {
	s, l, _ := newTestState(t, 2, 50_000, 0)
	require.NoError(t, s.ChangeCap("strat-1", sdkmath.NewInt(30_000)))
	fundVault(t, l, 70_000)

	require.NoError(t, s.DepositFunds(sdkmath.NewInt(70_000)))

	// First strategy fills to its cap, the remainder spills into the second.
	balances := strategyBalances(s)
	require.Equal(t, sdkmath.NewInt(50_000), balances[0])
	require.Equal(t, sdkmath.NewInt(20_000), balances[1])
	require.True(t, s.IdleAssets().IsZero())
}

func TestDepositFundsAllCapsReached(t *testing.T) {
	s, l, _ := newTestState(t, 2, 50_000, 0)
	require.NoError(t, s.ChangeCap("strat-1", sdkmath.NewInt(30_000)))
	fundVault(t, l, 90_000)

	err := s.DepositFunds(sdkmath.NewInt(90_000))
	require.ErrorIs(t, err, ErrAllCapsReached)

	// Nothing moved: the failure happened before any strategy was touched.
	require.Equal(t, sdkmath.NewInt(90_000), s.IdleAssets())
	for _, bal := range strategyBalances(s) {
		require.True(t, bal.IsZero())
	}
}

func TestDepositFundsSkipsZeroCap(t *testing.T) {
	s, l, _ := newTestState(t, 2, 50_000, 0)
	require.NoError(t, s.ChangeCap("strat-0", sdkmath.ZeroInt()))
	fundVault(t, l, 10_000)

	require.NoError(t, s.DepositFunds(sdkmath.NewInt(10_000)))

	balances := strategyBalances(s)
	require.True(t, balances[0].IsZero())
	require.Equal(t, sdkmath.NewInt(10_000), balances[1])
}

func TestWithdrawFundsQueueOrder(t *testing.T) {
	s, l, _ := newTestState(t, 2, 50_000, 0)
	fundVault(t, l, 80_000)
	require.NoError(t, s.DepositFunds(sdkmath.NewInt(80_000)))

	require.NoError(t, s.WithdrawFunds(sdkmath.NewInt(60_000)))

	// The first queue entry drains fully before the second is touched.
	balances := strategyBalances(s)
	require.True(t, balances[0].IsZero())
	require.Equal(t, sdkmath.NewInt(20_000), balances[1])
	require.Equal(t, sdkmath.NewInt(60_000), s.IdleAssets())
}

func TestWithdrawFundsNotEnoughLiquidity(t *testing.T) {
	s, l, sims := newTestState(t, 1, 50_000, 0)
	fundVault(t, l, 40_000)
	require.NoError(t, s.DepositFunds(sdkmath.NewInt(40_000)))

	sims[0].SetWithdrawLimit(sdkmath.NewInt(10_000))

	err := s.WithdrawFunds(sdkmath.NewInt(20_000))
	require.ErrorIs(t, err, ErrNotEnoughLiquidity)

	// Nothing was drained by the failed attempt.
	require.Equal(t, sdkmath.NewInt(40_000), strategyBalances(s)[0])
}

func TestReallocateFundsBalanceNeutral(t *testing.T) {
	s, l, _ := newTestState(t, 2, 100_000, 0)
	fundVault(t, l, 60_000)
	require.NoError(t, s.DepositFunds(sdkmath.NewInt(60_000)))
	// All 60,000 sits in strat-0.

	allocations := []types.Allocation{
		types.NewAllocation(0, sdkmath.NewInt(40_000)),
		types.NewAllocation(1, sdkmath.NewInt(20_000)),
	}
	require.NoError(t, s.ReallocateFunds(allocations))

	balances := strategyBalances(s)
	require.Equal(t, sdkmath.NewInt(40_000), balances[0])
	require.Equal(t, sdkmath.NewInt(20_000), balances[1])
}

func TestReallocateFundsMaxSentinel(t *testing.T) {
	s, l, _ := newTestState(t, 2, 100_000, 0)
	fundVault(t, l, 60_000)
	require.NoError(t, s.DepositFunds(sdkmath.NewInt(60_000)))

	// Empty strat-0 entirely and push all proceeds into strat-1.
	allocations := []types.Allocation{
		types.NewAllocation(0, sdkmath.ZeroInt()),
		types.NewMaxAllocation(1),
	}
	require.NoError(t, s.ReallocateFunds(allocations))

	balances := strategyBalances(s)
	require.True(t, balances[0].IsZero())
	require.Equal(t, sdkmath.NewInt(60_000), balances[1])
}

func TestReallocateFundsRejectsImbalance(t *testing.T) {
	s, l, _ := newTestState(t, 2, 100_000, 0)
	fundVault(t, l, 60_000)
	require.NoError(t, s.DepositFunds(sdkmath.NewInt(60_000)))

	// A lone withdrawal leg leaves freed funds unplaced.
	err := s.ReallocateFunds([]types.Allocation{
		types.NewAllocation(0, sdkmath.NewInt(40_000)),
	})
	require.ErrorIs(t, err, ErrInvalidReallocation)

	// The failed plan moved nothing.
	require.Equal(t, sdkmath.NewInt(60_000), strategyBalances(s)[0])
}

func TestReallocateFundsRejectsCapViolations(t *testing.T) {
	s, l, _ := newTestState(t, 2, 50_000, 0)
	fundVault(t, l, 50_000)
	require.NoError(t, s.DepositFunds(sdkmath.NewInt(50_000)))
	// 50,000 in strat-0, nothing in strat-1 (its cap also 50,000).

	err := s.ReallocateFunds([]types.Allocation{
		types.NewAllocation(0, sdkmath.ZeroInt()),
		types.NewAllocation(1, sdkmath.NewInt(60_000)),
	})
	require.ErrorIs(t, err, ErrSupplyCapExceeded)

	require.NoError(t, s.ChangeCap("strat-1", sdkmath.ZeroInt()))
	err = s.ReallocateFunds([]types.Allocation{
		types.NewAllocation(0, sdkmath.ZeroInt()),
		types.NewAllocation(1, sdkmath.NewInt(50_000)),
	})
	require.ErrorIs(t, err, ErrStrategyWithZeroCap)
}

func TestReallocateFundsRequiresIdleBuffer(t *testing.T) {
	s, l, _ := newTestState(t, 1, 100_000, 1_000)
	fundVault(t, l, 50_000)
	// Deposit everything: idle drops to zero while 10% is required.
	require.NoError(t, s.DepositFunds(sdkmath.NewInt(50_000)))

	err := s.ReallocateFunds([]types.Allocation{
		types.NewAllocation(0, sdkmath.NewInt(40_000)),
	})
	require.ErrorIs(t, err, ErrMinimumIdleAssetNotReached)
}

func TestEmergencyWithdrawDrainsEverything(t *testing.T) {
	s, l, _ := newTestState(t, 3, 50_000, 0)
	fundVault(t, l, 90_000)
	require.NoError(t, s.DepositFunds(sdkmath.NewInt(90_000)))

	total, err := s.EmergencyWithdraw()
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(90_000), total)
	require.Equal(t, sdkmath.NewInt(90_000), s.IdleAssets())
	for _, bal := range strategyBalances(s) {
		require.True(t, bal.IsZero())
	}
}

func TestPrepareWithdrawalProportionalDrain(t *testing.T) {
	s, l, _ := newTestState(t, 2, 60_000, 1_000)
	fundVault(t, l, 100_000)
	require.NoError(t, s.DepositFunds(sdkmath.NewInt(100_000)))
	// Balances 60,000 / 40,000, idle zero, 10% buffer configured.

	require.NoError(t, s.PrepareWithdrawal(sdkmath.NewInt(50_000)))

	// Needed idle: 50,000 payout + 10% of the remaining 50,000.
	require.Equal(t, sdkmath.NewInt(55_000), s.IdleAssets())

	// The gap was drained proportionally to the balances.
	balances := strategyBalances(s)
	require.Equal(t, sdkmath.NewInt(27_000), balances[0])
	require.Equal(t, sdkmath.NewInt(18_000), balances[1])
}

func TestPrepareWithdrawalNoopWhenIdleCovers(t *testing.T) {
	s, l, _ := newTestState(t, 1, 50_000, 0)
	fundVault(t, l, 30_000)

	require.NoError(t, s.PrepareWithdrawal(sdkmath.NewInt(20_000)))
	require.Equal(t, sdkmath.NewInt(30_000), s.IdleAssets())
}

func TestPrepareWithdrawalInsufficientFunds(t *testing.T) {
	s, l, _ := newTestState(t, 1, 50_000, 0)
	fundVault(t, l, 30_000)
	require.NoError(t, s.DepositFunds(sdkmath.NewInt(30_000)))

	err := s.PrepareWithdrawal(sdkmath.NewInt(40_000))
	require.ErrorIs(t, err, ErrNotEnoughFundsAvailable)
}

func TestPrepareWithdrawalDrainsDriftFirst(t *testing.T) {
	s, l, sims := newTestState(t, 2, 50_000, 0)
	fundVault(t, l, 80_000)
	require.NoError(t, s.DepositFunds(sdkmath.NewInt(80_000)))
	// 50,000 / 30,000. Yield pushes strat-0 above its cap.
	require.NoError(t, sims[0].Accrue(1_000)) // +10%

	require.NoError(t, s.PrepareWithdrawal(sdkmath.NewInt(4_000)))

	// The over-cap drift on strat-0 covered the whole gap; strat-1 untouched.
	balances := strategyBalances(s)
	require.Equal(t, sdkmath.NewInt(30_000), balances[1])
	require.True(t, balances[0].GTE(sdkmath.NewInt(50_000)))
	require.Equal(t, sdkmath.NewInt(4_000), s.IdleAssets())
}
