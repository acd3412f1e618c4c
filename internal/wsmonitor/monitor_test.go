package wsmonitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDedupFirstObservationAlwaysEmits(t *testing.T) {
	var d dedup
	assert.True(t, d.ShouldEmit(0))
}

func TestDedupOnlyEmitsOnChange(t *testing.T) {
	var d dedup
	assert.True(t, d.ShouldEmit(100))
	assert.False(t, d.ShouldEmit(100))
	assert.True(t, d.ShouldEmit(200))
	assert.False(t, d.ShouldEmit(200))
	assert.True(t, d.ShouldEmit(100))
}

func TestJitterDelayWithinSpecBounds(t *testing.T) {
	min := 500 * time.Millisecond
	max := 10 * time.Second
	lo := time.Duration(float64(min) * 1.5)
	hi := time.Duration(float64(max) * 2.2)
	for i := 0; i < 50; i++ {
		d := jitterDelay(min, max)
		assert.GreaterOrEqual(t, d, lo)
		assert.LessOrEqual(t, d, hi)
	}
}
