/*

This file contains the strategy registry operations: adding, removing and
re-capping strategies in the dense array, with the handle index map kept
consistent through swap-remove compaction.

*/

package engine

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/stratofi/svm/internal/fixedpoint"
	"github.com/stratofi/svm/internal/strategy"
	"github.com/stratofi/svm/internal/types"
)

// removalTolerance absorbs one base unit of rounding drift when checking that
// a strategy is fully drainable.
var removalTolerance = sdkmath.OneInt()

// AddStrategy registers a new yield destination under handle and appends its
// index to both priority queues.
func (s *State) AddStrategy(handle string, adapter strategy.Adapter, strategyCap sdkmath.Int) error {
	if handle == "" {
		return errors.Join(ErrZeroAddress, errors.New("strategy handle is empty"))
	}
	if adapter == nil {
		return errors.Join(ErrZeroAddress, errors.New("adapter is nil"))
	}
	if len(s.strategies) >= MaxStrategies {
		return errors.Join(ErrMaxStrategiesReached,
			fmt.Errorf("already tracking %d strategies", len(s.strategies)))
	}
	if adapter.Asset() != s.asset {
		return errors.Join(ErrWrongBaseAsset,
			fmt.Errorf("strategy %s holds %q, vault holds %q", handle, adapter.Asset(), s.asset))
	}
	if s.index[handle] != 0 {
		return errors.Join(ErrStrategyAlreadyAdded, fmt.Errorf("handle %q", handle))
	}
	if strategyCap.IsNil() {
		strategyCap = sdkmath.ZeroInt()
	}
	if strategyCap.IsNegative() {
		return errors.Join(ErrZeroAmount, errors.New("cap cannot be negative"))
	}
	if err := s.checkTotalCap(s.sumOfCaps().Add(strategyCap)); err != nil {
		return err
	}

	idx := len(s.strategies)
	s.strategies = append(s.strategies, types.Strategy{Address: handle, Cap: strategyCap})
	s.adapters[handle] = adapter
	s.index[handle] = idx + 1
	s.supplyQueue = append(s.supplyQueue, idx)
	s.withdrawQueue = append(s.withdrawQueue, idx)

	s.log.Info().
		Str("strategy", handle).
		Int("index", idx).
		Str("cap", strategyCap.String()).
		Msg("Strategy added")
	return nil
}

// RemoveStrategy drops a fully drained strategy from the registry. The caller
// is expected to have withdrawn all funds immediately prior; a balance more
// than one unit above the currently withdrawable amount rejects the removal.
func (s *State) RemoveStrategy(handle string) error {
	idx, err := s.StrategyIndex(handle)
	if err != nil {
		return err
	}

	adapter := s.adapterAt(idx)
	balance := s.strategyBalance(idx)
	withdrawable := adapter.MaxWithdraw(s.vaultAddr)
	if fixedpoint.ZeroFloorSub(balance, withdrawable).GT(removalTolerance) {
		return errors.Join(ErrCannotWithdrawAllFundsFromStrategy,
			fmt.Errorf("strategy %s: balance %s, withdrawable %s", handle, balance, withdrawable))
	}

	last := len(s.strategies) - 1
	if idx != last {
		moved := s.strategies[last]
		s.strategies[idx] = moved
		s.index[moved.Address] = idx + 1
	}
	s.strategies = s.strategies[:last]
	delete(s.index, handle)
	delete(s.adapters, handle)

	s.supplyQueue = rebuildQueue(s.supplyQueue, idx, last)
	s.withdrawQueue = rebuildQueue(s.withdrawQueue, idx, last)

	// Revoke any standing spend approval the strategy still holds.
	if err := s.assets.Approve(s.vaultAddr, handle, sdkmath.ZeroInt()); err != nil {
		return fmt.Errorf("revoking approval for %s: %w", handle, err)
	}

	s.log.Info().
		Str("strategy", handle).
		Int("index", idx).
		Msg("Strategy removed")
	return nil
}

// rebuildQueue drops entries for the removed index and remaps the moved last
// index into the freed slot, preserving relative order.
func rebuildQueue(queue []int, removed, movedFrom int) []int {
	out := queue[:0]
	for _, idx := range queue {
		switch idx {
		case removed:
			continue
		case movedFrom:
			out = append(out, removed)
		default:
			out = append(out, idx)
		}
	}
	return out
}

// ChangeCap replaces a strategy's deposit ceiling. A cap of zero disables new
// deposits without removing the strategy.
func (s *State) ChangeCap(handle string, newCap sdkmath.Int) error {
	idx, err := s.StrategyIndex(handle)
	if err != nil {
		return err
	}
	if newCap.IsNil() {
		newCap = sdkmath.ZeroInt()
	}
	if newCap.IsNegative() {
		return errors.Join(ErrZeroAmount, errors.New("cap cannot be negative"))
	}
	current := s.strategies[idx].Cap
	if newCap.Equal(current) {
		return errors.Join(ErrNoChangeInCap,
			fmt.Errorf("strategy %s cap is already %s", handle, current))
	}
	if err := s.checkTotalCap(s.sumOfCaps().Sub(current).Add(newCap)); err != nil {
		return err
	}

	s.strategies[idx].Cap = newCap
	s.log.Info().
		Str("strategy", handle).
		Str("oldCap", current.String()).
		Str("newCap", newCap.String()).
		Msg("Strategy cap changed")
	return nil
}
