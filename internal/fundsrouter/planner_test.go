package fundsrouter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeeOfCapsAtMaxFee(t *testing.T) {
	assert.Equal(t, uint64(50), FeeOf(1_000_000, 100, 50)) // 1% of 1M = 10_000, capped at maxFee 50
}

func TestFeeOfUncappedWhenZero(t *testing.T) {
	assert.Equal(t, uint64(10_000), FeeOf(1_000_000, 100, 0))
}

func TestPlanHopsZeroFeeSingleHop(t *testing.T) {
	hops, err := PlanHops(500, 1000, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{500}, hops)
}

func TestPlanHopsZeroTargetOrMaxIsEmpty(t *testing.T) {
	hops, err := PlanHops(0, 1000, 100, 0)
	require.NoError(t, err)
	assert.Nil(t, hops)

	hops, err = PlanHops(500, 0, 100, 0)
	require.NoError(t, err)
	assert.Nil(t, hops)
}

func TestPlanHopsChainContinuity(t *testing.T) {
	hops, err := PlanHops(1_000_000, 100_000_000, 500, 0) // 5% fee
	require.NoError(t, err)
	require.NotEmpty(t, hops)

	for i := 0; i < len(hops)-1; i++ {
		assert.Equal(t, NetOf(hops[i], 500, 0), hops[i+1], "hop %d must feed exactly into hop %d", i, i+1)
	}
	// the final hop's net must have converged to <= target
	assert.LessOrEqual(t, NetOf(hops[len(hops)-1], 500, 0), uint64(1_000_000))
}

func TestPlanHopsConvergesInOneHop(t *testing.T) {
	hops, err := PlanHops(900_000, 1_000_000, 1000, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1_000_000}, hops)
}

func TestPlanHopsConvergesInSevenHops(t *testing.T) {
	hops, err := PlanHops(500_000, 1_000_000, 1000, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1_000_000, 900_000, 810_000, 729_000, 656_100, 590_490, 531_441}, hops)
}

func TestPlanHopsPanicsOnInvalidFeeBps(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = PlanHops(100, 1000, 10_001, 0)
	})
}
