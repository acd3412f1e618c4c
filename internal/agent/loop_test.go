package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackhole-labs/solcycle/internal/cycle"
)

func TestNextContractAddressManualMode(t *testing.T) {
	cfg := cycle.DefaultConfig()
	cfg.Mode = cycle.ModeManual
	manual := func(ctx context.Context) (string, error) { return "So11111111111111111111111111111111111111112", nil }

	l := &Loop{cfg: cfg, manual: manual}
	address, found, err := l.nextContractAddress(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "So11111111111111111111111111111111111111112", address)
}

func TestNextContractAddressManualModeMissingSource(t *testing.T) {
	cfg := cycle.DefaultConfig()
	cfg.Mode = cycle.ModeManual

	l := &Loop{cfg: cfg}
	_, _, err := l.nextContractAddress(context.Background())
	assert.Error(t, err)
}

func TestNextContractAddressAutoModeNotFound(t *testing.T) {
	cfg := cycle.DefaultConfig()
	cfg.Mode = cycle.ModeAuto
	auto := func(ctx context.Context) (string, bool, error) { return "", false, nil }

	l := &Loop{cfg: cfg, auto: auto}
	address, found, err := l.nextContractAddress(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, address)
}

func TestNextContractAddressAutoModePropagatesError(t *testing.T) {
	cfg := cycle.DefaultConfig()
	cfg.Mode = cycle.ModeAuto
	wantErr := errors.New("discovery unavailable")
	auto := func(ctx context.Context) (string, bool, error) { return "", false, wantErr }

	l := &Loop{cfg: cfg, auto: auto}
	_, _, err := l.nextContractAddress(context.Background())
	assert.ErrorIs(t, err, wantErr)
}

func TestSleepReturnsFalseOnCancellation(t *testing.T) {
	l := &Loop{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	completed := l.sleep(ctx, time.Second)
	assert.False(t, completed)
}

func TestSleepReturnsTrueAfterDuration(t *testing.T) {
	l := &Loop{}
	completed := l.sleep(context.Background(), time.Millisecond)
	assert.True(t, completed)
}
