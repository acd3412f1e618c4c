// Package agent drives the outer scheduling loop around one cycle.Orchestrator:
// picking a token/SOL size draw, resolving which contract address to clone
// next (manual prompt or auto discovery), running the cycle, and deciding
// whether a circuit-breaker trip should halt the whole loop. Grounded on
// original_source/app/core/bablo_bot.py's Bablo.working_loop and
// _next_contract_address.
package agent

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/blackhole-labs/solcycle/internal/agentlog"
	"github.com/blackhole-labs/solcycle/internal/cycle"
)

// ManualSource blocks until an operator supplies the next contract address
// to clone, or ctx is cancelled.
type ManualSource func(ctx context.Context) (string, error)

// AutoSource polls a discovery provider for a candidate contract address.
// found is false when nothing suitable is available yet; the loop sleeps
// Config.AutoSleep and tries again.
type AutoSource func(ctx context.Context) (address string, found bool, err error)

// ErrBreakerTripped is returned by Run when the orchestrator's circuit
// breaker trips and halts the loop.
var ErrBreakerTripped = errors.New("agent: circuit breaker tripped, halting loop")

// Loop repeatedly draws a cycle size, resolves a contract address, and runs
// it through orch. Grounded on Bablo.working_loop; unlike the Python
// original, the random draw and CA resolution are kept separate concerns
// from cycle execution rather than folded into one monolithic method.
type Loop struct {
	orch   *cycle.Orchestrator
	cfg    *cycle.Config
	manual ManualSource
	auto   AutoSource
	log    *agentlog.Sink
	sink   cycle.ReportSink
	rng    *rand.Rand
}

// New builds a Loop. manual is required in ModeManual; auto is required in
// ModeAuto. sink may be nil, in which case reports are dropped.
func New(orch *cycle.Orchestrator, cfg *cycle.Config, manual ManualSource, auto AutoSource, log *agentlog.Sink, sink cycle.ReportSink) *Loop {
	if log == nil {
		log = agentlog.Default()
	}
	return &Loop{
		orch:   orch,
		cfg:    cfg,
		manual: manual,
		auto:   auto,
		log:    log,
		sink:   sink,
		rng:    rand.New(rand.NewSource(1)),
	}
}

// Run drives cycles until ctx is cancelled, the circuit breaker trips, or
// resolving the next contract address fails.
// A per-cycle error that doesn't trip the breaker is logged and the loop
// continues to the next draw, matching Bablo's working_loop tolerance for
// isolated cycle failures.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ca, found, err := l.nextContractAddress(ctx)
		if err != nil {
			return fmt.Errorf("agent: resolve contract address: %w", err)
		}
		if !found {
			if !l.sleep(ctx, l.cfg.AutoSleep) {
				return ctx.Err()
			}
			continue
		}

		tokenAmountUI := l.cfg.TokenAmountChoices[l.rng.Intn(len(l.cfg.TokenAmountChoices))]
		wsolAmountSOL := l.cfg.WsolAmountChoices[l.rng.Intn(len(l.cfg.WsolAmountChoices))]

		l.log.Status("starting cycle for %s: %d UI tokens / %.3f SOL", ca, tokenAmountUI, wsolAmountSOL)

		_, runErr := l.orch.RunCycle(ctx, ca, tokenAmountUI, wsolAmountSOL, l.sink)
		if runErr != nil {
			l.log.Alert("cycle for %s failed: %v", ca, runErr)
			if l.orch.Breaker().Tripped() {
				return ErrBreakerTripped
			}
		}

		if l.cfg.Mode == cycle.ModeAuto {
			if !l.sleep(ctx, l.cfg.AutoSleep) {
				return ctx.Err()
			}
		}
	}
}

// nextContractAddress resolves the next mint to clone per Config.Mode.
// Grounded on Bablo._next_contract_address: manual mode blocks on operator
// input, auto mode polls a discovery source and reports not-found rather
// than blocking so the caller can sleep and retry.
func (l *Loop) nextContractAddress(ctx context.Context) (string, bool, error) {
	switch l.cfg.Mode {
	case cycle.ModeManual:
		if l.manual == nil {
			return "", false, errors.New("agent: manual mode requires a ManualSource")
		}
		address, err := l.manual(ctx)
		if err != nil {
			return "", false, err
		}
		return address, true, nil
	case cycle.ModeAuto:
		if l.auto == nil {
			return "", false, errors.New("agent: auto mode requires an AutoSource")
		}
		return l.auto(ctx)
	default:
		return "", false, fmt.Errorf("agent: unknown mode %v", l.cfg.Mode)
	}
}

// sleep waits for d or ctx cancellation, returning false if ctx was
// cancelled first.
func (l *Loop) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
