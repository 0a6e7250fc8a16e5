/*

This file contains the allocation engine: routing deposits down the supply
queue, draining the withdraw queue, balance-neutral reallocation, and the
idle-buffer enforcement on the withdraw path.

Every operation plans against balances cached at the top of the call and only
then executes adapter calls, so a failed precondition aborts before any state
changes and no balance is re-read mid-calculation.

*/

package engine

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/stratofi/svm/internal/fixedpoint"
	"github.com/stratofi/svm/internal/types"
)

// transferLeg is one staged adapter call of a planned operation.
type transferLeg struct {
	idx    int
	supply bool
	amount sdkmath.Int
}

func validateEngineAmount(amount sdkmath.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return errors.Join(ErrZeroAmount, errors.New("amount is nil or negative"))
	}
	return nil
}

// supplyTo approves and deposits amount into strategy idx.
func (s *State) supplyTo(idx int, amount sdkmath.Int) error {
	handle := s.strategies[idx].Address
	if err := s.assets.Approve(s.vaultAddr, handle, amount); err != nil {
		return fmt.Errorf("approving %s for %s: %w", amount, handle, err)
	}
	if _, err := s.adapterAt(idx).Deposit(amount, s.vaultAddr); err != nil {
		return fmt.Errorf("depositing %s into %s: %w", amount, handle, err)
	}
	return nil
}

// drainFrom withdraws amount from strategy idx back to the vault.
func (s *State) drainFrom(idx int, amount sdkmath.Int) error {
	handle := s.strategies[idx].Address
	if _, err := s.adapterAt(idx).Withdraw(amount, s.vaultAddr, s.vaultAddr); err != nil {
		return fmt.Errorf("withdrawing %s from %s: %w", amount, handle, err)
	}
	return nil
}

// executePlan runs the staged legs in order.
func (s *State) executePlan(plan []transferLeg) error {
	for _, leg := range plan {
		var err error
		if leg.supply {
			err = s.supplyTo(leg.idx, leg.amount)
		} else {
			err = s.drainFrom(leg.idx, leg.amount)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// DepositFunds pushes assets into strategies in supply-queue order, filling
// each strategy's remaining cap room before moving to the next. Strict greedy
// first-fit: the queue is a priority, not a proportional split. Fails with
// AllCapsReached when room runs out, before any strategy is touched.
func (s *State) DepositFunds(assets sdkmath.Int) error {
	if err := validateEngineAmount(assets); err != nil {
		return err
	}
	if assets.IsZero() {
		return nil
	}

	balances := s.cachedBalances()
	remaining := assets
	var plan []transferLeg
	for _, idx := range s.supplyQueue {
		capAmt := s.strategies[idx].Cap
		if capAmt.IsZero() {
			continue
		}
		room := fixedpoint.ZeroFloorSub(capAmt, balances[idx])
		if room.IsZero() {
			continue
		}
		amount := fixedpoint.MinInt(remaining, room)
		plan = append(plan, transferLeg{idx: idx, supply: true, amount: amount})
		balances[idx] = balances[idx].Add(amount)
		remaining = remaining.Sub(amount)
		if remaining.IsZero() {
			break
		}
	}
	if !remaining.IsZero() {
		return errors.Join(ErrAllCapsReached,
			fmt.Errorf("%s of %s left unplaced", remaining, assets))
	}

	if err := s.executePlan(plan); err != nil {
		return err
	}
	s.log.Debug().
		Str("assets", assets.String()).
		Int("strategiesUsed", len(plan)).
		Msg("Deposited funds across supply queue")
	return nil
}

// WithdrawFunds drains strategies in withdraw-queue order until the requested
// amount is covered. Greedy first-fit, symmetric to DepositFunds. Fails with
// NotEnoughLiquidity before touching any strategy when the queue cannot cover
// the request.
func (s *State) WithdrawFunds(assets sdkmath.Int) error {
	if err := validateEngineAmount(assets); err != nil {
		return err
	}
	if assets.IsZero() {
		return nil
	}

	withdrawable := s.cachedWithdrawable()
	remaining := assets
	var plan []transferLeg
	for _, idx := range s.withdrawQueue {
		if withdrawable[idx].IsZero() {
			continue
		}
		amount := fixedpoint.MinInt(remaining, withdrawable[idx])
		plan = append(plan, transferLeg{idx: idx, amount: amount})
		withdrawable[idx] = withdrawable[idx].Sub(amount)
		remaining = remaining.Sub(amount)
		if remaining.IsZero() {
			break
		}
	}
	if !remaining.IsZero() {
		return errors.Join(ErrNotEnoughLiquidity,
			fmt.Errorf("%s of %s not coverable by the withdraw queue", remaining, assets))
	}

	if err := s.executePlan(plan); err != nil {
		return err
	}
	s.log.Debug().
		Str("assets", assets.String()).
		Int("strategiesUsed", len(plan)).
		Msg("Withdrew funds across withdraw queue")
	return nil
}

// cachedWithdrawable reads every strategy's max-withdrawable amount once.
func (s *State) cachedWithdrawable() []sdkmath.Int {
	out := make([]sdkmath.Int, len(s.strategies))
	for i := range s.strategies {
		out[i] = s.adapterAt(i).MaxWithdraw(s.vaultAddr)
	}
	return out
}

// ValidateReallocateFunds checks the idle-buffer invariant that gates any
// reallocation.
func (s *State) ValidateReallocateFunds() error {
	required, err := s.RequiredIdle(s.TotalAssets())
	if err != nil {
		return err
	}
	idle := s.IdleAssets()
	if idle.LT(required) {
		return errors.Join(ErrMinimumIdleAssetNotReached,
			fmt.Errorf("idle %s, required %s", idle, required))
	}
	return nil
}

// ReallocateFunds moves balances between strategies toward the requested
// targets. Legs that free funds must precede the Max leg that consumes the
// pooled proceeds; the engine does not reorder. The whole plan must be
// balance-neutral: total supplied equals total withdrawn or the call fails
// with InvalidReallocation and nothing moves.
func (s *State) ReallocateFunds(allocations []types.Allocation) error {
	if len(allocations) == 0 {
		return errors.Join(ErrWrongLength, errors.New("no allocation legs"))
	}
	if err := s.ValidateReallocateFunds(); err != nil {
		return err
	}

	balances := s.cachedBalances()
	withdrawable := s.cachedWithdrawable()
	totalWithdrawn := sdkmath.ZeroInt()
	totalSupplied := sdkmath.ZeroInt()
	var plan []transferLeg

	for _, alloc := range allocations {
		idx := alloc.StrategyIndex
		if idx < 0 || idx >= len(s.strategies) {
			return errors.Join(ErrStrategyNotFound, fmt.Errorf("index %d", idx))
		}
		if !alloc.Max {
			if alloc.Amount.IsNil() || alloc.Amount.IsNegative() {
				return errors.Join(ErrZeroAmount,
					fmt.Errorf("allocation for index %d", idx))
			}
		}
		live := balances[idx]

		if !alloc.Max && live.GT(alloc.Amount) {
			toWithdraw := live.Sub(alloc.Amount)
			if toWithdraw.GT(withdrawable[idx]) {
				return errors.Join(ErrNotEnoughLiquidity,
					fmt.Errorf("strategy %s: need %s, withdrawable %s",
						s.strategies[idx].Address, toWithdraw, withdrawable[idx]))
			}
			plan = append(plan, transferLeg{idx: idx, amount: toWithdraw})
			balances[idx] = alloc.Amount
			withdrawable[idx] = withdrawable[idx].Sub(toWithdraw)
			totalWithdrawn = totalWithdrawn.Add(toWithdraw)
			continue
		}

		var toSupply sdkmath.Int
		if alloc.Max {
			toSupply = fixedpoint.ZeroFloorSub(totalWithdrawn, totalSupplied)
		} else {
			toSupply = alloc.Amount.Sub(live)
		}
		if toSupply.IsZero() {
			continue
		}
		capAmt := s.strategies[idx].Cap
		if capAmt.IsZero() {
			return errors.Join(ErrStrategyWithZeroCap,
				fmt.Errorf("strategy %s at index %d", s.strategies[idx].Address, idx))
		}
		if live.Add(toSupply).GT(capAmt) {
			return errors.Join(ErrSupplyCapExceeded,
				fmt.Errorf("strategy %s: %s + %s exceeds cap %s",
					s.strategies[idx].Address, live, toSupply, capAmt))
		}
		plan = append(plan, transferLeg{idx: idx, supply: true, amount: toSupply})
		balances[idx] = live.Add(toSupply)
		totalSupplied = totalSupplied.Add(toSupply)
	}

	if !totalSupplied.Equal(totalWithdrawn) {
		return errors.Join(ErrInvalidReallocation,
			fmt.Errorf("supplied %s, withdrawn %s", totalSupplied, totalWithdrawn))
	}

	if err := s.executePlan(plan); err != nil {
		return err
	}
	s.log.Info().
		Str("totalMoved", totalWithdrawn.String()).
		Int("legs", len(plan)).
		Msg("Reallocation executed, balance-neutral")
	return nil
}

// WithdrawMaxFunds drains a strategy completely and revokes its standing
// spend approval. Used when decommissioning a strategy ahead of removal.
func (s *State) WithdrawMaxFunds(handle string) (sdkmath.Int, error) {
	idx, err := s.StrategyIndex(handle)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	amount := s.adapterAt(idx).MaxWithdraw(s.vaultAddr)
	if amount.IsPositive() {
		if err := s.drainFrom(idx, amount); err != nil {
			return sdkmath.ZeroInt(), err
		}
	}
	if err := s.assets.Approve(s.vaultAddr, handle, sdkmath.ZeroInt()); err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("revoking approval for %s: %w", handle, err)
	}
	s.log.Info().
		Str("strategy", handle).
		Str("withdrawn", amount.String()).
		Msg("Strategy fully drained")
	return amount, nil
}

// EmergencyWithdraw drains every strategy in withdraw-queue order on a
// best-effort basis, skipping strategies with nothing withdrawable. Used for
// crisis liquidity recovery.
func (s *State) EmergencyWithdraw() (sdkmath.Int, error) {
	total := sdkmath.ZeroInt()
	for _, idx := range s.withdrawQueue {
		amount := s.adapterAt(idx).MaxWithdraw(s.vaultAddr)
		if amount.IsZero() {
			continue
		}
		if err := s.drainFrom(idx, amount); err != nil {
			return total, err
		}
		total = total.Add(amount)
	}
	s.log.Warn().
		Str("totalWithdrawn", total.String()).
		Msg("Emergency withdrawal drained all strategies")
	return total, nil
}

// PrepareWithdrawal tops the idle balance up so that a pending withdrawal of
// amount leaves the minimum idle buffer intact. Strategies holding more than
// their cap are drained first to correct yield drift, then the remaining gap
// is closed proportionally across the withdraw queue, with a final greedy
// pass absorbing rounding leftovers. Fails with NotEnoughFundsAvailable when
// the gap cannot be closed, without touching any strategy.
func (s *State) PrepareWithdrawal(amount sdkmath.Int) error {
	if err := validateEngineAmount(amount); err != nil {
		return err
	}

	idle := s.IdleAssets()
	balances := s.cachedBalances()
	withdrawable := s.cachedWithdrawable()

	totalStrat := sdkmath.ZeroInt()
	for _, bal := range balances {
		totalStrat = totalStrat.Add(bal)
	}
	total := idle.Add(totalStrat)
	if amount.GT(total) {
		return errors.Join(ErrNotEnoughFundsAvailable,
			fmt.Errorf("requested %s, vault holds %s", amount, total))
	}

	requiredAfter, err := s.RequiredIdle(fixedpoint.ZeroFloorSub(total, amount))
	if err != nil {
		return err
	}
	needed := amount.Add(requiredAfter)
	if idle.GTE(needed) {
		return nil
	}
	gap := needed.Sub(idle)
	var plan []transferLeg

	stage := func(idx int, take sdkmath.Int) {
		plan = append(plan, transferLeg{idx: idx, amount: take})
		balances[idx] = balances[idx].Sub(take)
		withdrawable[idx] = withdrawable[idx].Sub(take)
		gap = gap.Sub(take)
	}

	// Drain drift above cap first.
	for _, idx := range s.withdrawQueue {
		if gap.IsZero() {
			break
		}
		over := fixedpoint.ZeroFloorSub(balances[idx], s.strategies[idx].Cap)
		take := fixedpoint.MinInt(fixedpoint.MinInt(over, withdrawable[idx]), gap)
		if take.IsZero() {
			continue
		}
		stage(idx, take)
	}

	// Proportional drain of the remaining gap by balance share.
	if gap.IsPositive() {
		remainingTotal := sdkmath.ZeroInt()
		for _, idx := range s.withdrawQueue {
			remainingTotal = remainingTotal.Add(balances[idx])
		}
		if remainingTotal.IsPositive() {
			targetGap := gap
			for _, idx := range s.withdrawQueue {
				if gap.IsZero() {
					break
				}
				share, err := fixedpoint.MulDivDown(targetGap, balances[idx], remainingTotal)
				if err != nil {
					return err
				}
				take := fixedpoint.MinInt(fixedpoint.MinInt(share, withdrawable[idx]), gap)
				if take.IsZero() {
					continue
				}
				stage(idx, take)
			}
		}
	}

	// Greedy pass for the rounding leftovers.
	for _, idx := range s.withdrawQueue {
		if gap.IsZero() {
			break
		}
		take := fixedpoint.MinInt(withdrawable[idx], gap)
		if take.IsZero() {
			continue
		}
		stage(idx, take)
	}

	if gap.IsPositive() {
		return errors.Join(ErrNotEnoughFundsAvailable,
			fmt.Errorf("idle buffer gap of %s not coverable", gap))
	}

	if err := s.executePlan(plan); err != nil {
		return err
	}
	s.log.Debug().
		Str("amount", amount.String()).
		Int("strategiesDrained", len(plan)).
		Msg("Idle buffer prepared for withdrawal")
	return nil
}
