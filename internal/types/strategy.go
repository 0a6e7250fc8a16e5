/*

This file contains the types describing strategies and allocation requests, the
state needed for routing vault funds across yield destinations.

*/

package types

import (
	sdkmath "cosmossdk.io/math"
)

// Strategy is one yield destination the vault may route deposits into.
type Strategy struct {
	Address string      `json:"address"` // Opaque handle of the strategy adapter
	Cap     sdkmath.Int `json:"cap"`     // Maximum asset balance the strategy may hold, in underlying units. Zero disables deposits.
}

// Allocation is a single leg of a reallocation request. It is an ephemeral
// input, never persisted.
type Allocation struct {
	StrategyIndex int         `json:"strategy_index"`
	Amount        sdkmath.Int `json:"amount"`
	// Max marks the leg that absorbs whatever the reallocation's withdrawals
	// freed up. Amount is ignored when Max is set.
	Max bool `json:"max,omitempty"`
}

// NewAllocation builds a fixed-target allocation leg.
func NewAllocation(strategyIndex int, amount sdkmath.Int) Allocation {
	return Allocation{StrategyIndex: strategyIndex, Amount: amount}
}

// NewMaxAllocation builds the leg that consumes the pooled withdrawal proceeds.
func NewMaxAllocation(strategyIndex int) Allocation {
	return Allocation{StrategyIndex: strategyIndex, Amount: sdkmath.ZeroInt(), Max: true}
}
