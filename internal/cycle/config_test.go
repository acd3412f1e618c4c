package cycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigValidates(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsEmptyChoices(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TokenAmountChoices = nil
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNegativeProfitThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProfitThresholdSOL = -0.01
	assert.Error(t, cfg.Validate())
}

func TestValidateAllowsZeroProfitThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProfitThresholdSOL = 0
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsNegativeCycleTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CycleTimeout = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateAllowsZeroCycleTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CycleTimeout = 0
	assert.NoError(t, cfg.Validate())
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "manual", ModeManual.String())
	assert.Equal(t, "auto", ModeAuto.String())
}
