package ledger

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for zero-tolerance error handling
var (
	ErrZeroAddress           = errors.New("account address is empty")
	ErrAmountInvalid         = errors.New("amount is nil or negative")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// MemLedger is an in-memory MintBurner used by tests and the simulation
// entrypoint. Vault operations are transaction-serial, so no locking is
// needed; concurrent readers must go through a snapshot.
type MemLedger struct {
	symbol     string
	decimals   uint8
	balances   map[string]sdkmath.Int
	allowances map[string]map[string]sdkmath.Int
	supply     sdkmath.Int
}

// NewMemLedger creates an empty ledger for one token.
func NewMemLedger(symbol string, decimals uint8) *MemLedger {
	return &MemLedger{
		symbol:     symbol,
		decimals:   decimals,
		balances:   make(map[string]sdkmath.Int),
		allowances: make(map[string]map[string]sdkmath.Int),
		supply:     sdkmath.ZeroInt(),
	}
}

// Symbol returns the token symbol this ledger tracks.
func (l *MemLedger) Symbol() string {
	return l.symbol
}

// Decimals returns the token's base-unit precision.
func (l *MemLedger) Decimals() uint8 {
	return l.decimals
}

// TotalSupply returns the outstanding token supply.
func (l *MemLedger) TotalSupply() sdkmath.Int {
	return l.supply
}

// BalanceOf returns the live balance of who, zero if unknown.
func (l *MemLedger) BalanceOf(who string) sdkmath.Int {
	if bal, ok := l.balances[who]; ok {
		return bal
	}
	return sdkmath.ZeroInt()
}

// Allowance returns spender's remaining allowance over owner's balance.
func (l *MemLedger) Allowance(owner, spender string) sdkmath.Int {
	if inner, ok := l.allowances[owner]; ok {
		if a, ok := inner[spender]; ok {
			return a
		}
	}
	return sdkmath.ZeroInt()
}

func validateAccounts(accounts ...string) error {
	for _, a := range accounts {
		if a == "" {
			return ErrZeroAddress
		}
	}
	return nil
}

func validateLedgerAmount(amount sdkmath.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return ErrAmountInvalid
	}
	return nil
}

// Transfer moves amount from one account to another.
func (l *MemLedger) Transfer(from, to string, amount sdkmath.Int) error {
	if err := validateAccounts(from, to); err != nil {
		return err
	}
	if err := validateLedgerAmount(amount); err != nil {
		return err
	}
	bal := l.BalanceOf(from)
	if bal.LT(amount) {
		return errors.Join(ErrInsufficientBalance,
			fmt.Errorf("%s: have %s %s, need %s", from, bal, l.symbol, amount))
	}
	l.balances[from] = bal.Sub(amount)
	l.balances[to] = l.BalanceOf(to).Add(amount)
	return nil
}

// TransferFrom moves amount out of from on behalf of spender. A spender equal
// to the holder bypasses the allowance check, matching self-transfers. The
// allowance is consumed only once the transfer itself has succeeded, so a
// failed call leaves both balances and allowances untouched.
func (l *MemLedger) TransferFrom(spender, from, to string, amount sdkmath.Int) error {
	if err := validateAccounts(spender, from, to); err != nil {
		return err
	}
	if err := validateLedgerAmount(amount); err != nil {
		return err
	}
	if spender == from {
		return l.Transfer(from, to, amount)
	}

	allowed := l.Allowance(from, spender)
	if allowed.LT(amount) {
		return errors.Join(ErrInsufficientAllowance,
			fmt.Errorf("%s over %s: allowed %s, need %s", spender, from, allowed, amount))
	}
	if err := l.Transfer(from, to, amount); err != nil {
		return err
	}
	if l.allowances[from] == nil {
		l.allowances[from] = make(map[string]sdkmath.Int)
	}
	l.allowances[from][spender] = allowed.Sub(amount)
	return nil
}

// Approve sets spender's standing allowance over owner's balance.
func (l *MemLedger) Approve(owner, spender string, amount sdkmath.Int) error {
	if err := validateAccounts(owner, spender); err != nil {
		return err
	}
	if err := validateLedgerAmount(amount); err != nil {
		return err
	}
	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[string]sdkmath.Int)
	}
	l.allowances[owner][spender] = amount
	return nil
}

// Mint creates amount new tokens on to's balance.
func (l *MemLedger) Mint(to string, amount sdkmath.Int) error {
	if err := validateAccounts(to); err != nil {
		return err
	}
	if err := validateLedgerAmount(amount); err != nil {
		return err
	}
	l.balances[to] = l.BalanceOf(to).Add(amount)
	l.supply = l.supply.Add(amount)
	return nil
}

// Burn destroys amount tokens from from's balance.
func (l *MemLedger) Burn(from string, amount sdkmath.Int) error {
	if err := validateAccounts(from); err != nil {
		return err
	}
	if err := validateLedgerAmount(amount); err != nil {
		return err
	}
	bal := l.BalanceOf(from)
	if bal.LT(amount) {
		return errors.Join(ErrInsufficientBalance,
			fmt.Errorf("burn from %s: have %s, need %s", from, bal, amount))
	}
	l.balances[from] = bal.Sub(amount)
	l.supply = l.supply.Sub(amount)
	return nil
}
