/*

This file contains the four user-facing flows: deposit, mint, withdraw and
redeem. Each flow validates and prices against a consistent pre-state, then
executes ledger and engine calls in a fixed order. Prechecks run before the
first transfer so a rejected operation leaves every balance untouched.

Fee handling: entry and exit fees accrue to the configured recipient. A
recipient equal to the vault address (or unset) keeps the fee inside the
vault, where it accrues to the remaining shareholders.

*/

package vault

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/stratofi/svm/internal/engine"
	"github.com/stratofi/svm/internal/fees"
	"github.com/stratofi/svm/internal/fixedpoint"
	"github.com/stratofi/svm/internal/ledger"
)

func validateAccount(name, value string) error {
	if value == "" {
		return errors.Join(engine.ErrZeroAddress, fmt.Errorf("%s is empty", name))
	}
	return nil
}

func validateAmount(name string, amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return errors.Join(engine.ErrZeroAmount, fmt.Errorf("%s must be positive", name))
	}
	return nil
}

// feePayout returns the fee amount actually leaving the vault. Fees kept by
// the vault itself are not paid out.
func (v *Vault) feePayout(fee sdkmath.Int) sdkmath.Int {
	if v.feeRecipient == "" || v.feeRecipient == v.addr {
		return sdkmath.ZeroInt()
	}
	return fee
}

// deployIdleSurplus pushes idle assets above the required buffer into the
// supply queue, bounded by the remaining cap room. Called at the end of every
// entry flow; surplus that outgrows the caps (retained fees, yield drift)
// simply stays idle.
func (v *Vault) deployIdleSurplus() error {
	total := v.engine.TotalAssets()
	required, err := v.engine.RequiredIdle(total)
	if err != nil {
		return err
	}
	deployable := fixedpoint.ZeroFloorSub(v.engine.IdleAssets(), required)
	deployable = fixedpoint.MinInt(deployable, v.engine.DepositRoom())
	if deployable.IsZero() {
		return nil
	}
	return v.engine.DepositFunds(deployable)
}

// checkDepositRoom rejects an entry whose deployable portion exceeds the
// remaining cap room, before any transfer happens.
func (v *Vault) checkDepositRoom(assets, fee sdkmath.Int) error {
	feeOut := v.feePayout(fee)
	retained := assets.Sub(feeOut)

	totalAfter := v.engine.TotalAssets().Add(retained)
	required, err := v.engine.RequiredIdle(totalAfter)
	if err != nil {
		return err
	}
	idleAfter := v.engine.IdleAssets().Add(retained)
	deployable := fixedpoint.ZeroFloorSub(idleAfter, required)
	if deployable.IsZero() {
		return nil
	}
	room := v.engine.DepositRoom()
	if deployable.GT(room) {
		return errors.Join(engine.ErrAllCapsReached,
			fmt.Errorf("deployable %s exceeds remaining room %s", deployable, room))
	}
	return nil
}

// settleEntry executes a priced entry: pull assets, mint shares, pay the fee
// out, then deploy the idle surplus down the supply queue.
func (v *Vault) settleEntry(caller, receiver string, assets, shares, fee sdkmath.Int) error {
	if err := v.assets.TransferFrom(v.addr, caller, v.addr, assets); err != nil {
		return fmt.Errorf("pulling %s from %s: %w", assets, caller, err)
	}
	if err := v.shares.Mint(receiver, shares); err != nil {
		return fmt.Errorf("minting %s shares to %s: %w", shares, receiver, err)
	}
	if feeOut := v.feePayout(fee); feeOut.IsPositive() {
		if err := v.assets.Transfer(v.addr, v.feeRecipient, feeOut); err != nil {
			return fmt.Errorf("paying fee %s to %s: %w", feeOut, v.feeRecipient, err)
		}
	}
	return v.deployIdleSurplus()
}

// Deposit pulls exact assets from caller and mints the corresponding shares
// to receiver, net of the entry fee. Caller must have approved the vault on
// the asset ledger beforehand. Returns the shares minted.
func (v *Vault) Deposit(caller, receiver string, assets sdkmath.Int) (sdkmath.Int, error) {
	if err := v.enter(); err != nil {
		return sdkmath.ZeroInt(), err
	}
	defer v.exit()

	if err := validateAccount("caller", caller); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := validateAccount("receiver", receiver); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := validateAmount("assets", assets); err != nil {
		return sdkmath.ZeroInt(), err
	}

	shares, err := v.PreviewDeposit(assets)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if shares.IsZero() {
		return sdkmath.ZeroInt(), errors.Join(ErrZeroShares,
			fmt.Errorf("deposit of %s", assets))
	}
	fee, err := fees.FeeOnTotal(assets, v.entryFeeBps)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := v.checkDepositRoom(assets, fee); err != nil {
		return sdkmath.ZeroInt(), err
	}

	if err := v.settleEntry(caller, receiver, assets, shares, fee); err != nil {
		return sdkmath.ZeroInt(), err
	}
	v.log.Info().
		Str("caller", caller).
		Str("receiver", receiver).
		Str("assets", assets.String()).
		Str("shares", shares.String()).
		Str("fee", fee.String()).
		Msg("Deposit settled")
	return shares, nil
}

// Mint pulls exactly enough assets from caller, entry fee included, to mint
// the requested shares to receiver. Returns the assets pulled.
func (v *Vault) Mint(caller, receiver string, shares sdkmath.Int) (sdkmath.Int, error) {
	if err := v.enter(); err != nil {
		return sdkmath.ZeroInt(), err
	}
	defer v.exit()

	if err := validateAccount("caller", caller); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := validateAccount("receiver", receiver); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := validateAmount("shares", shares); err != nil {
		return sdkmath.ZeroInt(), err
	}

	assets, err := v.PreviewMint(shares)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	base, err := fees.ConvertToAssets(shares, v.TotalAssets(), v.TotalShares(), fees.RoundUp)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	fee := assets.Sub(base)
	if err := v.checkDepositRoom(assets, fee); err != nil {
		return sdkmath.ZeroInt(), err
	}

	if err := v.settleEntry(caller, receiver, assets, shares, fee); err != nil {
		return sdkmath.ZeroInt(), err
	}
	v.log.Info().
		Str("caller", caller).
		Str("receiver", receiver).
		Str("assets", assets.String()).
		Str("shares", shares.String()).
		Str("fee", fee.String()).
		Msg("Mint settled")
	return assets, nil
}

// precheckShareSpend verifies owner holds the shares and, for third-party
// calls, that caller carries enough allowance. Runs before any state changes.
func (v *Vault) precheckShareSpend(caller, owner string, shares sdkmath.Int) error {
	if bal := v.shares.BalanceOf(owner); bal.LT(shares) {
		return errors.Join(ErrInsufficientShares,
			fmt.Errorf("%s holds %s, needs %s", owner, bal, shares))
	}
	if caller != owner {
		if allowed := v.shares.Allowance(owner, caller); allowed.LT(shares) {
			return errors.Join(ledger.ErrInsufficientAllowance,
				fmt.Errorf("%s over %s shares: allowed %s, needs %s",
					caller, owner, allowed, shares))
		}
	}
	return nil
}

// settleExit executes a priced exit: drain strategies so the payout and the
// idle buffer are covered, reclaim and burn the shares, pay receiver, pay the
// fee out.
func (v *Vault) settleExit(caller, receiver, owner string, assets, shares, fee sdkmath.Int) error {
	feeOut := v.feePayout(fee)
	if err := v.engine.PrepareWithdrawal(assets.Add(feeOut)); err != nil {
		return err
	}
	if err := v.shares.TransferFrom(caller, owner, v.addr, shares); err != nil {
		return fmt.Errorf("reclaiming %s shares from %s: %w", shares, owner, err)
	}
	if err := v.shares.Burn(v.addr, shares); err != nil {
		return fmt.Errorf("burning %s shares: %w", shares, err)
	}
	if err := v.assets.Transfer(v.addr, receiver, assets); err != nil {
		return fmt.Errorf("paying %s to %s: %w", assets, receiver, err)
	}
	if feeOut.IsPositive() {
		if err := v.assets.Transfer(v.addr, v.feeRecipient, feeOut); err != nil {
			return fmt.Errorf("paying fee %s to %s: %w", feeOut, v.feeRecipient, err)
		}
	}
	return nil
}

// Withdraw pays exact assets to receiver by burning owner's shares, exit fee
// charged on top. A caller other than owner spends share allowance. Returns
// the shares burned.
func (v *Vault) Withdraw(caller, receiver, owner string, assets sdkmath.Int) (sdkmath.Int, error) {
	if err := v.enter(); err != nil {
		return sdkmath.ZeroInt(), err
	}
	defer v.exit()

	if err := validateAccount("caller", caller); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := validateAccount("receiver", receiver); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := validateAccount("owner", owner); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := validateAmount("assets", assets); err != nil {
		return sdkmath.ZeroInt(), err
	}

	shares, err := v.PreviewWithdraw(assets)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if shares.IsZero() {
		return sdkmath.ZeroInt(), errors.Join(ErrZeroShares,
			fmt.Errorf("withdrawal of %s", assets))
	}
	fee, err := fees.FeeOnRaw(assets, v.exitFeeBps)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := v.precheckShareSpend(caller, owner, shares); err != nil {
		return sdkmath.ZeroInt(), err
	}

	if err := v.settleExit(caller, receiver, owner, assets, shares, fee); err != nil {
		return sdkmath.ZeroInt(), err
	}
	v.log.Info().
		Str("caller", caller).
		Str("receiver", receiver).
		Str("owner", owner).
		Str("assets", assets.String()).
		Str("shares", shares.String()).
		Str("fee", fee.String()).
		Msg("Withdrawal settled")
	return shares, nil
}

// Redeem burns exact shares from owner and pays receiver the corresponding
// assets net of the exit fee. Returns the assets paid out.
func (v *Vault) Redeem(caller, receiver, owner string, shares sdkmath.Int) (sdkmath.Int, error) {
	if err := v.enter(); err != nil {
		return sdkmath.ZeroInt(), err
	}
	defer v.exit()

	if err := validateAccount("caller", caller); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := validateAccount("receiver", receiver); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := validateAccount("owner", owner); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := validateAmount("shares", shares); err != nil {
		return sdkmath.ZeroInt(), err
	}

	assets, err := v.PreviewRedeem(shares)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if assets.IsZero() {
		return sdkmath.ZeroInt(), errors.Join(ErrZeroAssets,
			fmt.Errorf("redemption of %s shares", shares))
	}
	base, err := fees.ConvertToAssets(shares, v.TotalAssets(), v.TotalShares(), fees.RoundDown)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	fee := base.Sub(assets)
	if err := v.precheckShareSpend(caller, owner, shares); err != nil {
		return sdkmath.ZeroInt(), err
	}

	if err := v.settleExit(caller, receiver, owner, assets, shares, fee); err != nil {
		return sdkmath.ZeroInt(), err
	}
	v.log.Info().
		Str("caller", caller).
		Str("receiver", receiver).
		Str("owner", owner).
		Str("assets", assets.String()).
		Str("shares", shares.String()).
		Str("fee", fee.String()).
		Msg("Redemption settled")
	return assets, nil
}
