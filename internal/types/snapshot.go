package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// StrategyBalance is the observed state of one strategy at snapshot time.
type StrategyBalance struct {
	Address string      `json:"address"`
	Cap     sdkmath.Int `json:"cap"`
	Balance sdkmath.Int `json:"balance"` // Live balance in underlying units
}

// VaultSnapshot captures the full accounting state of the vault at one point
// in time. Persisted after every operating cycle for auditability.
type VaultSnapshot struct {
	SnapshotID    int64             `json:"snapshot_id,omitempty"` // Auto-incremented by DB
	Timestamp     time.Time         `json:"timestamp"`
	TotalAssets   sdkmath.Int       `json:"total_assets"`
	TotalShares   sdkmath.Int       `json:"total_shares"`
	IdleAssets    sdkmath.Int       `json:"idle_assets"`
	EntryFeeBps   uint64            `json:"entry_fee_bps"`
	ExitFeeBps    uint64            `json:"exit_fee_bps"`
	MinIdleBps    uint64            `json:"min_idle_bps"`
	FeeRecipient  string            `json:"fee_recipient"`
	Strategies    []StrategyBalance `json:"strategies"`
	SupplyQueue   []int             `json:"supply_queue"`
	WithdrawQueue []int             `json:"withdraw_queue"`
}

// OperationKind identifies the vault operation a receipt describes.
type OperationKind string

const (
	OpDeposit    OperationKind = "DEPOSIT"
	OpMint       OperationKind = "MINT"
	OpWithdraw   OperationKind = "WITHDRAW"
	OpRedeem     OperationKind = "REDEEM"
	OpReallocate OperationKind = "REALLOCATE"
	OpEmergency  OperationKind = "EMERGENCY_WITHDRAW"
)

// OperationReceipt records the outcome of a single vault operation.
type OperationReceipt struct {
	ReceiptID int64         `json:"receipt_id,omitempty"` // Auto-incremented by DB
	Kind      OperationKind `json:"kind"`
	Caller    string        `json:"caller"`
	Assets    sdkmath.Int   `json:"assets"`
	Shares    sdkmath.Int   `json:"shares"`
	Success   bool          `json:"success"`
	Message   string        `json:"message,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
