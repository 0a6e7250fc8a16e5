/*

This file contains the error taxonomy of the allocation engine. Every error
rejects the whole operation; nothing is retried internally and no partial
state change survives a failure.

*/

package engine

import "errors"

// Input validation errors. Always checked before any state mutation.
var (
	ErrZeroAddress    = errors.New("address handle is empty")
	ErrZeroAmount     = errors.New("amount is zero or invalid")
	ErrZeroCap        = errors.New("strategy has a zero cap")
	ErrWrongLength    = errors.New("argument length is wrong")
	ErrWrongBaseAsset = errors.New("strategy underlying asset does not match the vault asset")
)

// Capacity and limit errors. The requested operation exceeds a configured
// ceiling; no partial fulfillment.
var (
	ErrMaxStrategiesReached = errors.New("maximum strategy count reached")
	ErrAllCapsReached       = errors.New("all strategy caps reached")
	ErrSupplyCapExceeded    = errors.New("supply would exceed the strategy cap")
	ErrTotalCapExceeded     = errors.New("combined caps would exceed the vault total cap")
)

// Consistency and lookup errors.
var (
	ErrStrategyNotFound     = errors.New("strategy not found")
	ErrStrategyAlreadyAdded = errors.New("strategy already added")
	ErrDuplicateStrategy    = errors.New("duplicate strategy in queue")
	ErrNoChangeInCap        = errors.New("new cap equals the current cap")
)

// Liquidity errors. The engine cannot satisfy the request without violating
// the idle-buffer or full-drainability invariant.
var (
	ErrNotEnoughLiquidity                 = errors.New("not enough liquidity across the withdraw queue")
	ErrNotEnoughFundsAvailable            = errors.New("not enough funds available to restore the idle buffer")
	ErrMinimumIdleAssetNotReached         = errors.New("idle assets below the minimum idle buffer")
	ErrCannotWithdrawAllFundsFromStrategy = errors.New("strategy balance is not fully withdrawable")
)

// Invariant violations.
var (
	ErrInvalidReallocation                           = errors.New("reallocation is not balance-neutral")
	ErrInvalidStrategyRemovalWithNonZeroCap          = errors.New("cannot drop a strategy with a non-zero cap")
	ErrInvalidStrategyRemovalWithNonZeroAssetBalance = errors.New("cannot drop a strategy with a non-zero asset balance")
	ErrStrategyWithZeroCap                           = errors.New("cannot supply to a strategy with a zero cap")
)
