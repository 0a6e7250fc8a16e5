/*

This file contains the entry/exit fee math and the share<->asset conversion
used by the vault facade. Everything here is a pure function of the inputs:
calling any of these with unchanged vault totals returns identical results and
mutates nothing.

Rounding policy: fees charged to the depositor or withdrawer always round in
the protocol's favor. FeeOnRaw and FeeOnTotal both round up, so the protocol
never under-collects through rounding.

*/

package fees

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/stratofi/svm/internal/fixedpoint"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidFeeBps = errors.New("fee basis points exceed the scale")
	ErrAmountNil     = errors.New("amount is nil")
	ErrNegative      = errors.New("amount is negative")
)

// Rounding selects the direction a conversion rounds toward.
type Rounding int

const (
	RoundDown Rounding = iota
	RoundUp
)

// Conversions apply a +1 virtual asset and +1 virtual share offset, so an
// empty vault converts 1:1 and the first depositor cannot inflate the share
// price against later depositors.
var virtualOffset = sdkmath.OneInt()

func validateAmount(amount sdkmath.Int) error {
	if amount.IsNil() {
		return ErrAmountNil
	}
	if amount.IsNegative() {
		return ErrNegative
	}
	return nil
}

func validateFeeBps(feeBps uint64) error {
	if feeBps > fixedpoint.BpsScale {
		return errors.Join(ErrInvalidFeeBps, fmt.Errorf("got %d bps", feeBps))
	}
	return nil
}

// FeeOnRaw computes the fee to add on top of a raw amount:
// ceil(assets * feeBps / SCALE).
func FeeOnRaw(assets sdkmath.Int, feeBps uint64) (sdkmath.Int, error) {
	if err := validateAmount(assets); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := validateFeeBps(feeBps); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if feeBps == 0 || assets.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	return fixedpoint.MulDivUp(assets,
		sdkmath.NewIntFromUint64(feeBps), sdkmath.NewInt(fixedpoint.BpsScale))
}

// FeeOnTotal derives the fee portion already embedded in a fee-inclusive
// total: ceil(assets * feeBps / (feeBps + SCALE)). This is the standard
// share-vault fee-inclusive formula, the approximate inverse of FeeOnRaw.
func FeeOnTotal(assets sdkmath.Int, feeBps uint64) (sdkmath.Int, error) {
	if err := validateAmount(assets); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := validateFeeBps(feeBps); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if feeBps == 0 || assets.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	return fixedpoint.MulDivUp(assets,
		sdkmath.NewIntFromUint64(feeBps),
		sdkmath.NewIntFromUint64(feeBps+fixedpoint.BpsScale))
}

// ConvertToShares converts an asset amount into shares at the current vault
// totals with the requested rounding direction.
func ConvertToShares(assets, totalAssets, totalShares sdkmath.Int, rounding Rounding) (sdkmath.Int, error) {
	if err := validateAmount(assets); err != nil {
		return sdkmath.ZeroInt(), err
	}
	num := totalShares.Add(virtualOffset)
	den := totalAssets.Add(virtualOffset)
	if rounding == RoundUp {
		return fixedpoint.MulDivUp(assets, num, den)
	}
	return fixedpoint.MulDivDown(assets, num, den)
}

// ConvertToAssets converts a share amount into assets at the current vault
// totals with the requested rounding direction.
func ConvertToAssets(shares, totalAssets, totalShares sdkmath.Int, rounding Rounding) (sdkmath.Int, error) {
	if err := validateAmount(shares); err != nil {
		return sdkmath.ZeroInt(), err
	}
	num := totalAssets.Add(virtualOffset)
	den := totalShares.Add(virtualOffset)
	if rounding == RoundUp {
		return fixedpoint.MulDivUp(shares, num, den)
	}
	return fixedpoint.MulDivDown(shares, num, den)
}

// PreviewDeposit returns the shares minted for a fee-inclusive deposit amount.
func PreviewDeposit(assets, totalAssets, totalShares sdkmath.Int, entryFeeBps uint64) (sdkmath.Int, error) {
	fee, err := FeeOnTotal(assets, entryFeeBps)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return ConvertToShares(assets.Sub(fee), totalAssets, totalShares, RoundDown)
}

// PreviewMint returns the fee-inclusive assets required to mint exact shares.
func PreviewMint(shares, totalAssets, totalShares sdkmath.Int, entryFeeBps uint64) (sdkmath.Int, error) {
	base, err := ConvertToAssets(shares, totalAssets, totalShares, RoundUp)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	fee, err := FeeOnRaw(base, entryFeeBps)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return fixedpoint.CheckedAdd(base, fee)
}

// PreviewWithdraw returns the shares burned to withdraw exact assets, exit
// fee included.
func PreviewWithdraw(assets, totalAssets, totalShares sdkmath.Int, exitFeeBps uint64) (sdkmath.Int, error) {
	fee, err := FeeOnRaw(assets, exitFeeBps)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	gross, err := fixedpoint.CheckedAdd(assets, fee)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return ConvertToShares(gross, totalAssets, totalShares, RoundUp)
}

// PreviewRedeem returns the assets paid out for burning exact shares, net of
// the exit fee.
func PreviewRedeem(shares, totalAssets, totalShares sdkmath.Int, exitFeeBps uint64) (sdkmath.Int, error) {
	base, err := ConvertToAssets(shares, totalAssets, totalShares, RoundDown)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	fee, err := FeeOnTotal(base, exitFeeBps)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return base.Sub(fee), nil
}
