/*

This file contains the strategy adapter interface. Every yield destination is
an opaque sub-vault conforming to this shape, regardless of what it does
internally (lending pool, aggregator, mock). The allocation engine never
looks past this surface.

*/

package strategy

import (
	sdkmath "cosmossdk.io/math"
)

// Adapter is the interface each live strategy exposes to the vault.
type Adapter interface {
	// Asset returns the handle of the underlying asset the strategy accepts.
	Asset() string

	// Deposit pulls amount of the underlying from the caller's approved
	// balance and credits receiver with strategy shares. Returns the shares
	// minted.
	Deposit(amount sdkmath.Int, receiver string) (sdkmath.Int, error)

	// Withdraw redeems enough of owner's shares to pay out exactly amount of
	// the underlying to receiver. Returns the shares burned.
	Withdraw(amount sdkmath.Int, receiver, owner string) (sdkmath.Int, error)

	// MaxWithdraw returns the most underlying owner can currently pull out.
	MaxWithdraw(owner string) sdkmath.Int

	// BalanceOf returns owner's strategy share balance.
	BalanceOf(owner string) sdkmath.Int

	// ConvertToAssets values a share balance in underlying units.
	ConvertToAssets(shares sdkmath.Int) sdkmath.Int
}
