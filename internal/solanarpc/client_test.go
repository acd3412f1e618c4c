package solanarpc

import (
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffStaysWithinBounds(t *testing.T) {
	b := DefaultBackoff()
	for i := 0; i < 20; i++ {
		d := b.Next()
		assert.GreaterOrEqual(t, d, b.Min)
		assert.LessOrEqual(t, d, time.Duration(float64(b.Max)*(1+b.Jitter))+1)
	}
}

func TestBackoffReset(t *testing.T) {
	b := DefaultBackoff()
	b.Next()
	b.Next()
	b.Reset()
	assert.Equal(t, 0, b.attempt)
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("rpc error: 429 Too Many Requests"), true},
		{errors.New("Too Many Requests"), true},
		{errors.New("insufficient funds"), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, isTransient(tc.err))
	}
}

func TestDedupeSignersPreservesOrderAndDedups(t *testing.T) {
	msg, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	other, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	out := dedupeSigners(msg, []solana.PrivateKey{other, msg, other})
	require.Len(t, out, 2)
	assert.Equal(t, msg.PublicKey(), out[0].PublicKey())
	assert.Equal(t, other.PublicKey(), out[1].PublicKey())
}
