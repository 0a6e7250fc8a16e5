/*

This file contains the fungible-asset ledger interface the engine consumes.
The engine never implements token transfers itself; it only requires the
standard transfer/approve/balance surface from whatever ledger hosts it.

*/

package ledger

import (
	sdkmath "cosmossdk.io/math"
)

// Ledger is the fungible-token collaborator. Amounts are in the token's base
// units; the engine holds no decimals-sensitive constants beyond the
// basis-point scale.
type Ledger interface {
	// Transfer moves amount from one account to another, authorized by the
	// holder itself.
	Transfer(from, to string, amount sdkmath.Int) error

	// TransferFrom moves amount out of from on behalf of spender, consuming
	// spender's allowance unless spender == from.
	TransferFrom(spender, from, to string, amount sdkmath.Int) error

	// Approve sets spender's standing allowance over owner's balance.
	Approve(owner, spender string, amount sdkmath.Int) error

	// Allowance returns spender's remaining allowance over owner's balance.
	Allowance(owner, spender string) sdkmath.Int

	// BalanceOf returns the live balance of who.
	BalanceOf(who string) sdkmath.Int

	// Decimals returns the token's base-unit precision.
	Decimals() uint8
}

// MintBurner extends Ledger with supply mutation, required of the share token
// the vault mints against deposits.
type MintBurner interface {
	Ledger

	Mint(to string, amount sdkmath.Int) error
	Burn(from string, amount sdkmath.Int) error
	TotalSupply() sdkmath.Int
}
