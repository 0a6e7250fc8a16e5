/*

This file contains the supply and withdraw queue operations. Both queues are
addressed by raw strategy indices. Replacing the withdraw queue doubles as the
implicit removal path: strategies omitted from the new order are dropped from
storage outright, provided their cap and live balance are both zero.

*/

package engine

import (
	"errors"
	"fmt"

	"github.com/stratofi/svm/internal/types"
)

// UpdateSupplyQueue replaces the deposit priority order wholesale. A strategy
// absent from the new order simply stops receiving new deposits; it is not
// removed. Zero-cap strategies must not be deposit targets.
func (s *State) UpdateSupplyQueue(newOrder []int) error {
	if len(newOrder) >= MaxStrategies {
		return errors.Join(ErrMaxStrategiesReached,
			fmt.Errorf("queue of %d entries", len(newOrder)))
	}
	for _, idx := range newOrder {
		if idx < 0 || idx >= len(s.strategies) {
			return errors.Join(ErrStrategyNotFound, fmt.Errorf("index %d", idx))
		}
		if s.strategies[idx].Cap.IsZero() {
			return errors.Join(ErrZeroCap,
				fmt.Errorf("strategy %s at index %d", s.strategies[idx].Address, idx))
		}
	}

	s.supplyQueue = append([]int(nil), newOrder...)
	s.log.Info().Ints("queue", s.supplyQueue).Msg("Supply queue updated")
	return nil
}

// UpdateWithdrawQueue replaces the drain priority order. Every live strategy
// missing from the new order is dropped from storage entirely, which is only
// legal once its cap and live balance are both zero. This implicit removal is
// deliberately distinct from RemoveStrategy.
func (s *State) UpdateWithdrawQueue(newOrder []int) error {
	if len(newOrder) >= MaxStrategies {
		return errors.Join(ErrMaxStrategiesReached,
			fmt.Errorf("queue of %d entries", len(newOrder)))
	}
	kept := make(map[int]bool, len(newOrder))
	for _, idx := range newOrder {
		if idx < 0 || idx >= len(s.strategies) {
			return errors.Join(ErrStrategyNotFound, fmt.Errorf("index %d", idx))
		}
		if kept[idx] {
			return errors.Join(ErrDuplicateStrategy,
				fmt.Errorf("strategy %s at index %d", s.strategies[idx].Address, idx))
		}
		kept[idx] = true
	}

	// Validate every omitted strategy before touching anything.
	balances := s.cachedBalances()
	dropped := 0
	for idx, st := range s.strategies {
		if kept[idx] {
			continue
		}
		if !st.Cap.IsZero() {
			return errors.Join(ErrInvalidStrategyRemovalWithNonZeroCap,
				fmt.Errorf("strategy %s at index %d, cap %s", st.Address, idx, st.Cap))
		}
		if !balances[idx].IsZero() {
			return errors.Join(ErrInvalidStrategyRemovalWithNonZeroAssetBalance,
				fmt.Errorf("strategy %s at index %d, balance %s", st.Address, idx, balances[idx]))
		}
		dropped++
	}

	if dropped == 0 {
		s.withdrawQueue = append([]int(nil), newOrder...)
		s.log.Info().Ints("queue", s.withdrawQueue).Msg("Withdraw queue updated")
		return nil
	}

	// Compact the dense array around the dropped strategies, preserving the
	// relative order of the survivors, and remap both queues.
	remap := make(map[int]int, len(s.strategies)-dropped)
	survivors := make([]types.Strategy, 0, len(s.strategies)-dropped)
	for idx, st := range s.strategies {
		if !kept[idx] {
			delete(s.index, st.Address)
			delete(s.adapters, st.Address)
			continue
		}
		remap[idx] = len(survivors)
		survivors = append(survivors, st)
	}
	s.strategies = survivors
	for newIdx, st := range s.strategies {
		s.index[st.Address] = newIdx + 1
	}

	newWithdraw := make([]int, 0, len(newOrder))
	for _, idx := range newOrder {
		newWithdraw = append(newWithdraw, remap[idx])
	}
	s.withdrawQueue = newWithdraw

	newSupply := make([]int, 0, len(s.supplyQueue))
	for _, idx := range s.supplyQueue {
		if mapped, ok := remap[idx]; ok {
			newSupply = append(newSupply, mapped)
		}
	}
	s.supplyQueue = newSupply

	s.log.Info().
		Ints("queue", s.withdrawQueue).
		Int("droppedStrategies", dropped).
		Msg("Withdraw queue updated with implicit removals")
	return nil
}
