package ledger

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func TestMintAndBurn(t *testing.T) {
	l := NewMemLedger("usdc", 6)

	require.NoError(t, l.Mint("alice", sdkmath.NewInt(1_000)))
	require.Equal(t, sdkmath.NewInt(1_000), l.BalanceOf("alice"))
	require.Equal(t, sdkmath.NewInt(1_000), l.TotalSupply())

	require.NoError(t, l.Burn("alice", sdkmath.NewInt(400)))
	require.Equal(t, sdkmath.NewInt(600), l.BalanceOf("alice"))
	require.Equal(t, sdkmath.NewInt(600), l.TotalSupply())

	err := l.Burn("alice", sdkmath.NewInt(601))
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestTransfer(t *testing.T) {
	l := NewMemLedger("usdc", 6)
	require.NoError(t, l.Mint("alice", sdkmath.NewInt(1_000)))

	require.NoError(t, l.Transfer("alice", "bob", sdkmath.NewInt(300)))
	require.Equal(t, sdkmath.NewInt(700), l.BalanceOf("alice"))
	require.Equal(t, sdkmath.NewInt(300), l.BalanceOf("bob"))

	err := l.Transfer("alice", "bob", sdkmath.NewInt(701))
	require.ErrorIs(t, err, ErrInsufficientBalance)

	err = l.Transfer("", "bob", sdkmath.NewInt(1))
	require.ErrorIs(t, err, ErrZeroAddress)

	err = l.Transfer("alice", "bob", sdkmath.NewInt(-1))
	require.ErrorIs(t, err, ErrAmountInvalid)
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	l := NewMemLedger("usdc", 6)
	require.NoError(t, l.Mint("alice", sdkmath.NewInt(1_000)))
	require.NoError(t, l.Approve("alice", "vault", sdkmath.NewInt(500)))

	require.NoError(t, l.TransferFrom("vault", "alice", "vault", sdkmath.NewInt(300)))
	require.Equal(t, sdkmath.NewInt(200), l.Allowance("alice", "vault"))
	require.Equal(t, sdkmath.NewInt(300), l.BalanceOf("vault"))

	err := l.TransferFrom("vault", "alice", "vault", sdkmath.NewInt(201))
	require.ErrorIs(t, err, ErrInsufficientAllowance)
}

func TestTransferFromFailedTransferKeepsAllowance(t *testing.T) {
	l := NewMemLedger("usdc", 6)
	require.NoError(t, l.Mint("alice", sdkmath.NewInt(10)))
	require.NoError(t, l.Approve("alice", "vault", sdkmath.NewInt(100)))

	// The allowance covers the amount but the balance does not. The failed
	// call must not consume any allowance.
	err := l.TransferFrom("vault", "alice", "vault", sdkmath.NewInt(50))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Equal(t, sdkmath.NewInt(100), l.Allowance("alice", "vault"))
	require.Equal(t, sdkmath.NewInt(10), l.BalanceOf("alice"))
	require.True(t, l.BalanceOf("vault").IsZero())
}

func TestTransferFromZeroAmountWithoutApproval(t *testing.T) {
	l := NewMemLedger("usdc", 6)
	require.NoError(t, l.Mint("alice", sdkmath.NewInt(1_000)))

	// A zero transfer needs no standing approval and must not panic on the
	// untouched allowance map.
	require.NoError(t, l.TransferFrom("vault", "alice", "vault", sdkmath.ZeroInt()))
	require.True(t, l.Allowance("alice", "vault").IsZero())
	require.Equal(t, sdkmath.NewInt(1_000), l.BalanceOf("alice"))
}

func TestTransferFromSelfBypassesAllowance(t *testing.T) {
	l := NewMemLedger("usdc", 6)
	require.NoError(t, l.Mint("alice", sdkmath.NewInt(1_000)))

	// No approval needed when the spender is the holder.
	require.NoError(t, l.TransferFrom("alice", "alice", "bob", sdkmath.NewInt(250)))
	require.Equal(t, sdkmath.NewInt(250), l.BalanceOf("bob"))
}

func TestApproveOverwrites(t *testing.T) {
	l := NewMemLedger("usdc", 6)
	require.NoError(t, l.Approve("alice", "vault", sdkmath.NewInt(500)))
	require.NoError(t, l.Approve("alice", "vault", sdkmath.NewInt(100)))
	require.Equal(t, sdkmath.NewInt(100), l.Allowance("alice", "vault"))

	require.NoError(t, l.Approve("alice", "vault", sdkmath.ZeroInt()))
	require.True(t, l.Allowance("alice", "vault").IsZero())
}
