package walletstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistWalletRoundTrips(t *testing.T) {
	dir := t.TempDir()
	kp, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	require.NoError(t, PersistWallet(dir, kp))

	path := filepath.Join(dir, kp.PublicKey().String()+".txt")
	loaded, err := LoadWallet(path)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey(), loaded.PublicKey())
}

func TestPersistWalletIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	kp, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	require.NoError(t, PersistWallet(dir, kp))
	path := filepath.Join(dir, kp.PublicKey().String()+".txt")
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, PersistWallet(dir, kp))
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestLoadWalletRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte("not-a-valid-secret"), 0o600))

	_, err := LoadWallet(path)
	assert.Error(t, err)
}
