package cycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokensUIToBaseUnits(t *testing.T) {
	assert.Equal(t, uint64(1_000_000_000_000_000_000), tokensUIToBaseUnits(1000, 9))
}

func TestSolToLamportsRoundTrip(t *testing.T) {
	assert.Equal(t, uint64(3_000_000_000), solToLamports(3.0))
	assert.InDelta(t, 3.0, lamportsToSOL(3_000_000_000), 1e-9)
}

func TestTokenAmountAfterFee(t *testing.T) {
	assert.Equal(t, uint64(900), tokenAmountAfterFee(1000, 10))
}
