package cycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreakerTripsAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker(time.Minute, 3)
	assert.False(t, cb.RecordError(false))
	assert.False(t, cb.RecordError(false))
	assert.True(t, cb.RecordError(false))
}

func TestCircuitBreakerCriticalTripsImmediately(t *testing.T) {
	cb := NewCircuitBreaker(time.Minute, 100)
	assert.True(t, cb.RecordError(true))
	assert.True(t, cb.Tripped())
}

func TestCircuitBreakerResetClearsState(t *testing.T) {
	cb := NewCircuitBreaker(time.Minute, 1)
	assert.True(t, cb.RecordError(false))
	cb.Reset()
	assert.False(t, cb.Tripped())
}

func TestCircuitBreakerPrunesOutsideWindow(t *testing.T) {
	cb := NewCircuitBreaker(10*time.Millisecond, 2)
	assert.False(t, cb.RecordError(false))
	time.Sleep(20 * time.Millisecond)
	assert.False(t, cb.RecordError(false), "first error should have aged out of the window")
}
