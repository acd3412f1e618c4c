// Package cycle runs one full mint-create/pool-init/monitor/withdraw cycle
// through its state machine and the outer manual/auto scheduling around
// it. Grounded on original_source/app/core/bablo_bot.py's Bablo class for
// sequencing and semantics, and the teacher's
// specs/001-liquidity-repositioning/contracts/strategy_api.go for the Go
// shape of the phase/report/circuit-breaker contract.
package cycle

import (
	"errors"
	"time"
)

// Mode selects how the agent loop picks the next mint to cycle.
type Mode int

const (
	// ModeManual waits on an operator-supplied contract address for each
	// cycle.
	ModeManual Mode = iota
	// ModeAuto polls a discovery provider for the next candidate,
	// sleeping AutoSleep when none is found.
	ModeAuto
)

func (m Mode) String() string {
	switch m {
	case ModeManual:
		return "manual"
	case ModeAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// Config carries the per-cycle randomized size draw and the timer/profit
// race parameters. Grounded on BabloConfig.
type Config struct {
	// TokenAmountChoices is drawn from uniformly at the start of each
	// cycle, in UI token units (pre-decimals).
	TokenAmountChoices []int64
	// WsolAmountChoices is drawn from uniformly at the start of each
	// cycle, in whole SOL.
	WsolAmountChoices []float64
	// ProfitThresholdSOL is the PnL (current vault SOL - seed - launch
	// cost) that triggers an early withdraw.
	ProfitThresholdSOL float64
	// CycleTimeout bounds how long Monitoring waits for the profit
	// threshold before withdrawing unconditionally.
	CycleTimeout time.Duration
	// Mode selects manual vs auto contract-address sourcing.
	Mode Mode
	// AutoSleep is the pause between auto-mode cycles, and the pause
	// after an auto-mode lookup that finds no candidate.
	AutoSleep time.Duration

	// CircuitBreakerWindow and CircuitBreakerThreshold bound how many
	// RPC/transaction errors the agent loop tolerates before halting.
	CircuitBreakerWindow    time.Duration
	CircuitBreakerThreshold int
}

// Validate checks Config for the invariants the cycle orchestrator
// depends on.
func (c *Config) Validate() error {
	if len(c.TokenAmountChoices) == 0 {
		return errors.New("cycle: token amount choices must not be empty")
	}
	if len(c.WsolAmountChoices) == 0 {
		return errors.New("cycle: wsol amount choices must not be empty")
	}
	for _, v := range c.TokenAmountChoices {
		if v <= 0 {
			return errors.New("cycle: token amount choices must be positive")
		}
	}
	for _, v := range c.WsolAmountChoices {
		if v < 0 {
			return errors.New("cycle: wsol amount choices must not be negative")
		}
	}
	// ProfitThresholdSOL == 0 is the boundary where the first non-zero
	// lamport delta triggers withdraw; only negative values are invalid.
	if c.ProfitThresholdSOL < 0 {
		return errors.New("cycle: profit threshold sol must not be negative")
	}
	// CycleTimeout == 0 is the boundary where the timer never fires and
	// only the profit trigger can end Monitoring; only negative durations
	// are invalid.
	if c.CycleTimeout < 0 {
		return errors.New("cycle: cycle timeout must not be negative")
	}
	if c.CircuitBreakerWindow <= 0 {
		return errors.New("cycle: circuit breaker window must be positive")
	}
	if c.CircuitBreakerThreshold < 3 {
		return errors.New("cycle: circuit breaker threshold must be >= 3")
	}
	return nil
}

// DefaultConfig mirrors BabloConfig's dataclass defaults.
func DefaultConfig() *Config {
	return &Config{
		TokenAmountChoices:      []int64{1000},
		WsolAmountChoices:       []float64{3.0},
		ProfitThresholdSOL:      0.05,
		CycleTimeout:            120 * time.Second,
		Mode:                    ModeManual,
		AutoSleep:               300 * time.Second,
		CircuitBreakerWindow:    5 * time.Minute,
		CircuitBreakerThreshold: 5,
	}
}
