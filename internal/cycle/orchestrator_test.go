package cycle

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackhole-labs/solcycle/internal/ixbuilder"
)

func TestOrderedMintsMatchesCanonicalOrder(t *testing.T) {
	a, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	b, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	mint0, mint1, aIsFirst := orderedMints(a.PublicKey(), b.PublicKey())
	wantMint0, wantMint1, swapped := ixbuilder.OrderTokenMints(a.PublicKey(), b.PublicKey())

	assert.Equal(t, wantMint0, mint0)
	assert.Equal(t, wantMint1, mint1)
	assert.Equal(t, !swapped, aIsFirst)
}

func TestPrepareLiquidityPoolAssignsAmountsByOrder(t *testing.T) {
	o := &Orchestrator{cfg: DefaultConfig()}

	mintKeypair, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	token := &tokenState{Keypair: mintKeypair, Name: "T", Symbol: "T", URI: "https://example.test/t.json"}

	creator, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	pool, err := o.prepareLiquidityPool(token, creator.PublicKey(), 500, 7)
	require.NoError(t, err)

	mint0, mint1, createdIsMint0 := orderedMints(token.Mint(), ixbuilder.WrappedSOLMint)
	assert.Equal(t, mint0, pool.TokenMint0)
	assert.Equal(t, mint1, pool.TokenMint1)

	if createdIsMint0 {
		assert.Equal(t, uint64(500), pool.Token0Amount)
		assert.Equal(t, uint64(7), pool.Token1Amount)
		assert.Equal(t, pool.Token1Vault, pool.LiqVault)
	} else {
		assert.Equal(t, uint64(7), pool.Token0Amount)
		assert.Equal(t, uint64(500), pool.Token1Amount)
		assert.Equal(t, pool.Token0Vault, pool.LiqVault)
	}
}
