package fixedpoint

import (
	"math/big"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func pow2(bits uint) sdkmath.Int {
	return sdkmath.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), bits))
}

func TestMulDivDown(t *testing.T) {
	out, err := MulDivDown(sdkmath.NewInt(10), sdkmath.NewInt(3), sdkmath.NewInt(4))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(7), out, "30/4 rounds down to 7")

	out, err = MulDivDown(sdkmath.NewInt(8), sdkmath.NewInt(3), sdkmath.NewInt(4))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(6), out, "exact division is unchanged")

	out, err = MulDivDown(sdkmath.ZeroInt(), sdkmath.NewInt(3), sdkmath.NewInt(4))
	require.NoError(t, err)
	require.True(t, out.IsZero())
}

func TestMulDivUp(t *testing.T) {
	out, err := MulDivUp(sdkmath.NewInt(10), sdkmath.NewInt(3), sdkmath.NewInt(4))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(8), out, "30/4 rounds up to 8")

	out, err = MulDivUp(sdkmath.NewInt(8), sdkmath.NewInt(3), sdkmath.NewInt(4))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(6), out, "exact division gets no extra unit")
}

func TestMulDivDivisionByZero(t *testing.T) {
	_, err := MulDivDown(sdkmath.NewInt(10), sdkmath.NewInt(3), sdkmath.ZeroInt())
	require.ErrorIs(t, err, ErrDivisionByZero)

	_, err = MulDivUp(sdkmath.NewInt(10), sdkmath.NewInt(3), sdkmath.ZeroInt())
	require.ErrorIs(t, err, ErrDivisionByZero)
}

func TestMulDivRejectsNegative(t *testing.T) {
	_, err := MulDivDown(sdkmath.NewInt(-1), sdkmath.NewInt(3), sdkmath.NewInt(4))
	require.ErrorIs(t, err, ErrNegativeInput)

	_, err = MulDivUp(sdkmath.NewInt(10), sdkmath.NewInt(-3), sdkmath.NewInt(4))
	require.ErrorIs(t, err, ErrNegativeInput)
}

func TestMulDivOverflow(t *testing.T) {
	// (2^255)^2 / 1 does not fit in 256 bits.
	huge := pow2(255)
	_, err := MulDivDown(huge, huge, sdkmath.OneInt())
	require.ErrorIs(t, err, ErrArithmeticOverflow)

	// The same product with a big enough divisor fits fine.
	out, err := MulDivDown(huge, huge, huge)
	require.NoError(t, err)
	require.Equal(t, huge, out)
}

func TestZeroFloorSub(t *testing.T) {
	require.Equal(t, sdkmath.NewInt(3),
		ZeroFloorSub(sdkmath.NewInt(10), sdkmath.NewInt(7)))
	require.True(t,
		ZeroFloorSub(sdkmath.NewInt(7), sdkmath.NewInt(10)).IsZero(),
		"underflow floors at zero instead of going negative")
	require.True(t,
		ZeroFloorSub(sdkmath.NewInt(5), sdkmath.NewInt(5)).IsZero())
}

func TestCheckedAdd(t *testing.T) {
	out, err := CheckedAdd(sdkmath.NewInt(2), sdkmath.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(5), out)

	half := pow2(255)
	_, err = CheckedAdd(half, half)
	require.ErrorIs(t, err, ErrArithmeticOverflow)
}

func TestMinInt(t *testing.T) {
	require.Equal(t, sdkmath.NewInt(3), MinInt(sdkmath.NewInt(3), sdkmath.NewInt(7)))
	require.Equal(t, sdkmath.NewInt(3), MinInt(sdkmath.NewInt(7), sdkmath.NewInt(3)))
	require.Equal(t, sdkmath.NewInt(3), MinInt(sdkmath.NewInt(3), sdkmath.NewInt(3)))
}
