package strategy

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/stratofi/svm/internal/fixedpoint"
	"github.com/stratofi/svm/internal/ledger"
	"github.com/stratofi/svm/internal/logger"
)

// Error definitions for zero-tolerance error handling
var (
	ErrAmountInvalid     = errors.New("amount is nil or negative")
	ErrExceedsMax        = errors.New("amount exceeds maximum withdrawable")
	ErrInsufficientShare = errors.New("owner share balance too low")
)

var simLogger = logger.GetForComponent("sim_strategy")

// Simulated is an in-memory yield strategy backed by a MemLedger. It keeps
// full share accounting and can accrue yield on demand, which makes it the
// counterpart of a live adapter for tests and simulation runs.
type Simulated struct {
	addr        string
	asset       string
	assets      ledger.MintBurner
	shares      map[string]sdkmath.Int
	totalShares sdkmath.Int
	totalAssets sdkmath.Int

	// withdrawLimit caps MaxWithdraw when non-nil, emulating a strategy with
	// constrained exit liquidity.
	withdrawLimit sdkmath.Int
}

// NewSimulated creates an empty simulated strategy holding asset on l.
func NewSimulated(addr, asset string, l ledger.MintBurner) *Simulated {
	return &Simulated{
		addr:        addr,
		asset:       asset,
		assets:      l,
		shares:      make(map[string]sdkmath.Int),
		totalShares: sdkmath.ZeroInt(),
		totalAssets: sdkmath.ZeroInt(),
	}
}

// Address returns the strategy's handle.
func (s *Simulated) Address() string {
	return s.addr
}

// Asset returns the underlying asset handle.
func (s *Simulated) Asset() string {
	return s.asset
}

// SetWithdrawLimit caps MaxWithdraw, emulating constrained exit liquidity.
// Pass a nil Int to lift the cap again.
func (s *Simulated) SetWithdrawLimit(limit sdkmath.Int) {
	s.withdrawLimit = limit
}

// BalanceOf returns owner's strategy share balance.
func (s *Simulated) BalanceOf(owner string) sdkmath.Int {
	if bal, ok := s.shares[owner]; ok {
		return bal
	}
	return sdkmath.ZeroInt()
}

// ConvertToAssets values shares at the strategy's current exchange rate,
// rounding down. An empty strategy converts 1:1.
func (s *Simulated) ConvertToAssets(shares sdkmath.Int) sdkmath.Int {
	if shares.IsNil() || shares.IsNegative() {
		return sdkmath.ZeroInt()
	}
	out, err := fixedpoint.MulDivDown(shares,
		s.totalAssets.Add(sdkmath.OneInt()), s.totalShares.Add(sdkmath.OneInt()))
	if err != nil {
		return sdkmath.ZeroInt()
	}
	return out
}

func (s *Simulated) convertToShares(amount sdkmath.Int, roundUp bool) (sdkmath.Int, error) {
	num := s.totalShares.Add(sdkmath.OneInt())
	den := s.totalAssets.Add(sdkmath.OneInt())
	if roundUp {
		return fixedpoint.MulDivUp(amount, num, den)
	}
	return fixedpoint.MulDivDown(amount, num, den)
}

// MaxWithdraw returns the most underlying owner can pull out right now:
// the owner's position value, bounded by the strategy's liquid balance and
// any configured withdraw limit.
func (s *Simulated) MaxWithdraw(owner string) sdkmath.Int {
	max := fixedpoint.MinInt(s.ConvertToAssets(s.BalanceOf(owner)), s.assets.BalanceOf(s.addr))
	if !s.withdrawLimit.IsNil() {
		max = fixedpoint.MinInt(max, s.withdrawLimit)
	}
	return max
}

// Deposit pulls amount from receiver's approved balance and mints shares.
func (s *Simulated) Deposit(amount sdkmath.Int, receiver string) (sdkmath.Int, error) {
	if amount.IsNil() || amount.IsNegative() {
		return sdkmath.ZeroInt(), ErrAmountInvalid
	}
	if amount.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	minted, err := s.convertToShares(amount, false)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := s.assets.TransferFrom(s.addr, receiver, s.addr, amount); err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("pulling deposit: %w", err)
	}
	s.shares[receiver] = s.BalanceOf(receiver).Add(minted)
	s.totalShares = s.totalShares.Add(minted)
	s.totalAssets = s.totalAssets.Add(amount)
	return minted, nil
}

// Withdraw burns enough of owner's shares to pay exactly amount to receiver.
func (s *Simulated) Withdraw(amount sdkmath.Int, receiver, owner string) (sdkmath.Int, error) {
	if amount.IsNil() || amount.IsNegative() {
		return sdkmath.ZeroInt(), ErrAmountInvalid
	}
	if amount.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	if amount.GT(s.MaxWithdraw(owner)) {
		return sdkmath.ZeroInt(), errors.Join(ErrExceedsMax,
			fmt.Errorf("requested %s, max %s", amount, s.MaxWithdraw(owner)))
	}
	burned, err := s.convertToShares(amount, true)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	ownerShares := s.BalanceOf(owner)
	if burned.GT(ownerShares) {
		// A whole-position exit can round one share past the balance.
		if fixedpoint.ZeroFloorSub(burned, ownerShares).GT(sdkmath.OneInt()) {
			return sdkmath.ZeroInt(), errors.Join(ErrInsufficientShare,
				fmt.Errorf("need %s shares, have %s", burned, ownerShares))
		}
		burned = ownerShares
	}
	if err := s.assets.Transfer(s.addr, receiver, amount); err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("paying out withdrawal: %w", err)
	}
	s.shares[owner] = ownerShares.Sub(burned)
	s.totalShares = s.totalShares.Sub(burned)
	s.totalAssets = fixedpoint.ZeroFloorSub(s.totalAssets, amount)
	return burned, nil
}

// Accrue simulates yield: mints rateBps of the strategy's current assets on
// the underlying ledger and books them into the position value.
func (s *Simulated) Accrue(rateBps uint64) error {
	if s.totalAssets.IsZero() || rateBps == 0 {
		return nil
	}
	gain, err := fixedpoint.MulDivDown(s.totalAssets,
		sdkmath.NewIntFromUint64(rateBps), sdkmath.NewInt(fixedpoint.BpsScale))
	if err != nil {
		return err
	}
	if gain.IsZero() {
		return nil
	}
	if err := s.assets.Mint(s.addr, gain); err != nil {
		return err
	}
	s.totalAssets = s.totalAssets.Add(gain)
	simLogger.Debug().
		Str("strategy", s.addr).
		Str("gain", gain.String()).
		Msg("Accrued simulated yield")
	return nil
}
