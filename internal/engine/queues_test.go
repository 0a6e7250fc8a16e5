package engine

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func TestUpdateSupplyQueueReorders(t *testing.T) {
	s, _, _ := newTestState(t, 3, 50_000, 0)

	require.NoError(t, s.UpdateSupplyQueue([]int{2, 0}))
	require.Equal(t, []int{2, 0}, s.SupplyQueue())

	// Omitting a strategy from the supply queue does not remove it.
	require.Equal(t, 3, s.TotalStrategies())
	require.Equal(t, []int{0, 1, 2}, s.WithdrawQueue())
}

func TestUpdateSupplyQueueRejectsZeroCap(t *testing.T) {
	s, _, _ := newTestState(t, 2, 50_000, 0)
	require.NoError(t, s.ChangeCap("strat-1", sdkmath.ZeroInt()))

	err := s.UpdateSupplyQueue([]int{0, 1})
	require.ErrorIs(t, err, ErrZeroCap)
}

func TestUpdateSupplyQueueRejectsBadIndex(t *testing.T) {
	s, _, _ := newTestState(t, 2, 50_000, 0)

	err := s.UpdateSupplyQueue([]int{0, 5})
	require.ErrorIs(t, err, ErrStrategyNotFound)

	err = s.UpdateSupplyQueue([]int{-1})
	require.ErrorIs(t, err, ErrStrategyNotFound)
}

func TestUpdateQueuesRejectMaxLengthOrder(t *testing.T) {
	s, _, _ := newTestState(t, MaxStrategies, 50_000, 0)

	order := make([]int, MaxStrategies)
	for i := range order {
		order[i] = i
	}

	err := s.UpdateSupplyQueue(order)
	require.ErrorIs(t, err, ErrMaxStrategiesReached)

	err = s.UpdateWithdrawQueue(order)
	require.ErrorIs(t, err, ErrMaxStrategiesReached)

	// One below the ceiling passes.
	require.NoError(t, s.UpdateSupplyQueue(order[:MaxStrategies-1]))
}

func TestUpdateWithdrawQueueRejectsDuplicates(t *testing.T) {
	s, _, _ := newTestState(t, 2, 50_000, 0)

	err := s.UpdateWithdrawQueue([]int{0, 1, 0})
	require.ErrorIs(t, err, ErrDuplicateStrategy)
}

func TestUpdateWithdrawQueueRejectsRemovalWithCap(t *testing.T) {
	s, _, _ := newTestState(t, 2, 50_000, 0)

	// Omitting strat-1 while it still has a cap is an invalid removal.
	err := s.UpdateWithdrawQueue([]int{0})
	require.ErrorIs(t, err, ErrInvalidStrategyRemovalWithNonZeroCap)
}

func TestUpdateWithdrawQueueRejectsRemovalWithBalance(t *testing.T) {
	s, l, _ := newTestState(t, 2, 50_000, 0)
	fundVault(t, l, 10_000)
	require.NoError(t, s.DepositFunds(sdkmath.NewInt(10_000)))

	require.NoError(t, s.ChangeCap("strat-0", sdkmath.ZeroInt()))
	err := s.UpdateWithdrawQueue([]int{1})
	require.ErrorIs(t, err, ErrInvalidStrategyRemovalWithNonZeroAssetBalance)
}

func TestUpdateWithdrawQueueImplicitRemoval(t *testing.T) {
	s, _, _ := newTestState(t, 3, 50_000, 0)

	// strat-1 is drained and de-capped, then dropped by omission.
	require.NoError(t, s.ChangeCap("strat-1", sdkmath.ZeroInt()))
	require.NoError(t, s.UpdateWithdrawQueue([]int{2, 0}))

	require.Equal(t, 2, s.TotalStrategies())
	_, err := s.StrategyIndex("strat-1")
	require.ErrorIs(t, err, ErrStrategyNotFound)

	// Survivors compacted in order: strat-0 keeps index 0, strat-2 becomes 1.
	idx, err := s.StrategyIndex("strat-0")
	require.NoError(t, err)
	require.Equal(t, 0, idx)
	idx, err = s.StrategyIndex("strat-2")
	require.NoError(t, err)
	require.Equal(t, 1, idx)

	// Both queues carry remapped indices only.
	require.Equal(t, []int{1, 0}, s.WithdrawQueue())
	require.Equal(t, []int{0, 1}, s.SupplyQueue())
}

func TestUpdateWithdrawQueueNoRemovals(t *testing.T) {
	s, _, _ := newTestState(t, 3, 50_000, 0)

	require.NoError(t, s.UpdateWithdrawQueue([]int{2, 1, 0}))
	require.Equal(t, []int{2, 1, 0}, s.WithdrawQueue())
	require.Equal(t, 3, s.TotalStrategies())
}
