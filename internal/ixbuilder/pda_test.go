package ixbuilder

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAMMConfigAddressIsDeterministic(t *testing.T) {
	a, bumpA, err := AMMConfigAddress(AMMConfigIndex)
	require.NoError(t, err)
	b, bumpB, err := AMMConfigAddress(AMMConfigIndex)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, bumpA, bumpB)
	assert.NotEqual(t, solana.PublicKey{}, a)
}

func TestPoolAddressVariesWithMints(t *testing.T) {
	ammConfig, _, err := AMMConfigAddress(AMMConfigIndex)
	require.NoError(t, err)

	m0, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	m1, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	pool1, _, err := PoolAddress(ammConfig, m0.PublicKey(), m1.PublicKey())
	require.NoError(t, err)
	pool2, _, err := PoolAddress(ammConfig, m1.PublicKey(), m0.PublicKey())
	require.NoError(t, err)

	assert.NotEqual(t, pool1, pool2, "mint order must affect the derived pool PDA")
}

func TestAssociatedTokenAddressMatchesProgram(t *testing.T) {
	owner, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	mint, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	ataLegacy, _, err := AssociatedTokenAddress(owner.PublicKey(), mint.PublicKey(), TokenProgramID)
	require.NoError(t, err)
	ata2022, _, err := AssociatedTokenAddress(owner.PublicKey(), mint.PublicKey(), Token2022ProgramID)
	require.NoError(t, err)

	assert.NotEqual(t, ataLegacy, ata2022)
}
