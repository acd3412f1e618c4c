package fundsrouter

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubkeysOfPreservesOrder(t *testing.T) {
	a, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	b, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	out := pubkeysOf([]solana.PrivateKey{a, b})
	require.Len(t, out, 2)
	assert.Equal(t, a.PublicKey(), out[0])
	assert.Equal(t, b.PublicKey(), out[1])
}

func TestEstimateTransactionSizeGrowsWithInstructions(t *testing.T) {
	payer, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	dest, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	ix := ixTransfer(t, payer.PublicKey(), dest.PublicKey())

	size1, err := estimateTransactionSize(payer.PublicKey(), []solana.Instruction{ix})
	require.NoError(t, err)

	size2, err := estimateTransactionSize(payer.PublicKey(), []solana.Instruction{ix, ix})
	require.NoError(t, err)

	assert.Greater(t, size2, size1)
	assert.LessOrEqual(t, size1, hideSupplyPacketLimit)
}

func ixTransfer(t *testing.T, from, to solana.PublicKey) solana.Instruction {
	t.Helper()
	metas := solana.AccountMetaSlice{
		solana.Meta(from).SIGNER().WRITE(),
		solana.Meta(to).WRITE(),
	}
	data := []byte{2, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}
	return solana.NewInstruction(solana.SystemProgramID, metas, data)
}
