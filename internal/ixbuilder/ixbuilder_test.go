package ixbuilder

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsqrt(t *testing.T) {
	cases := []struct {
		in   uint64
		want uint64
	}{
		{0, 0},
		{1, 1},
		{3, 1},
		{4, 2},
		{15, 3},
		{16, 4},
		{1_000_000, 1000},
		{1_000_000_000_000, 1_000_000},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, isqrt(tc.in), "isqrt(%d)", tc.in)
	}
}

func TestCalculateLPTokensExpected(t *testing.T) {
	got := CalculateLPTokensExpected(1_000_000, 1_000_000, 100)
	assert.Equal(t, uint64(1_000_000-100), got)
}

func TestCalculateLPTokensExpectedFloorsAtZero(t *testing.T) {
	got := CalculateLPTokensExpected(1, 1, 100)
	assert.Equal(t, uint64(0), got)
}

func TestCalculateLPTokensExpectedDoesNotOverflowUint64(t *testing.T) {
	// token_amount_ui=1000 (millions), 9 decimals -> ~9e17 token-side base
	// units after fee; wsol_amount=3 SOL -> 3e9 lamports. Their product is
	// ~2.7e27, far beyond uint64's ~1.8e19 ceiling.
	vault0 := uint64(900_000_000_000_000_000)
	vault1 := uint64(3_000_000_000)
	got := CalculateLPTokensExpected(vault0, vault1, 100)
	assert.Equal(t, uint64(51_961_524_227_066-100), got)
}

func TestEncodeZeroableOptionAbsent(t *testing.T) {
	out := encodeZeroableOption(solana.PublicKey{})
	assert.Equal(t, make([]byte, 32), out)
}

func TestEncodeZeroableOptionPresent(t *testing.T) {
	kp, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	pk := kp.PublicKey()
	out := encodeZeroableOption(pk)
	assert.Equal(t, pk.Bytes(), out)
}

func TestEncodeOptionalPubkeyAbsent(t *testing.T) {
	out := encodeOptionalPubkey(solana.PublicKey{}, false)
	assert.Equal(t, []byte{0}, out)
}

func TestEncodeOptionalPubkeyPresent(t *testing.T) {
	kp, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	pk := kp.PublicKey()
	out := encodeOptionalPubkey(pk, true)
	require.Len(t, out, 33)
	assert.Equal(t, byte(1), out[0])
	assert.Equal(t, pk.Bytes(), out[1:])
}

func TestEncodeStringLengthPrefixed(t *testing.T) {
	out := encodeString("hi")
	assert.Equal(t, []byte{2, 0, 0, 0, 'h', 'i'}, out)
}

func TestOrderTokenMintsCanonical(t *testing.T) {
	a := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	b := solana.MustPublicKeyFromBase58("CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C")

	m0, m1, swapped := OrderTokenMints(a, b)
	m0Again, m1Again, swappedAgain := OrderTokenMints(b, a)

	assert.Equal(t, m0, m1Again)
	assert.Equal(t, m1, m0Again)
	assert.NotEqual(t, swapped, swappedAgain)
}

func TestBuildWithdrawInstructionEncodesDiscriminatorAndAmounts(t *testing.T) {
	pk := func() solana.PublicKey {
		kp, err := solana.NewRandomPrivateKey()
		require.NoError(t, err)
		return kp.PublicKey()
	}

	ix := BuildWithdrawInstruction(WithdrawParams{
		Creator:        pk(),
		Authority:      pk(),
		PoolState:      pk(),
		CreatorLPToken: pk(),
		Token0ATA:      pk(),
		Token1ATA:      pk(),
		Token0Vault:    pk(),
		Token1Vault:    pk(),
		TokenMint0:     pk(),
		TokenMint1:     pk(),
		LPMint:         pk(),
		LPTokenAmount:  12345,
		MinToken0:      1,
		MinToken1:      2,
	})

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 8+8+8+8)
	assert.Equal(t, WithdrawDiscriminator[:], data[:8])
	assert.Equal(t, RaydiumCPProgramID, ix.ProgramID())
	assert.Len(t, ix.Accounts(), 14)
}
