// Package fundsrouter builds the multi-hop transfer plans that keep the
// dev wallet's fund movements from being trivially traceable back to fund
// in one hop: a fixed 4-hop lamport relay through ephemeral wallets, and a
// transfer-fee-aware gross/net hop planner used by the supply-hide burn.
// Grounded on
// original_source/backend/app/core/wallet_manager.go's
// distribute_via_chain, _gross_net_for_target_net and hide_supply.
package fundsrouter

import "fmt"

const maxPlanHops = 100

// FeeOf returns the transfer-fee-extension fee charged on a gross amount,
// capped at maxFee (maxFee == 0 means uncapped).
func FeeOf(gross uint64, feeBps uint16, maxFee uint64) uint64 {
	fee := gross * uint64(feeBps) / 10_000
	if maxFee != 0 && fee > maxFee {
		return maxFee
	}
	return fee
}

// NetOf returns gross minus the fee charged on it.
func NetOf(gross uint64, feeBps uint16, maxFee uint64) uint64 {
	return gross - FeeOf(gross, feeBps, maxFee)
}

// PlanHops builds a chain of full-balance transfers from maxGross down to
// at most targetNet, returning the gross amount to send at each hop in
// order. Each hop's gross is exactly the previous hop's net — the chain
// never "tops up" or sends a partial amount. Grounded on
// _gross_net_for_target_net.
//
// Returns an empty plan if targetNet or maxGross is non-positive. Panics
// if feeBps is out of the [0, 10000] basis-point range — that is a caller
// bug, not a runtime condition.
func PlanHops(targetNet, maxGross uint64, feeBps uint16, maxFee uint64) ([]uint64, error) {
	if targetNet == 0 || maxGross == 0 {
		return nil, nil
	}
	if feeBps > 10_000 {
		panic(fmt.Sprintf("fundsrouter: fee_bps %d out of range", feeBps))
	}

	if feeBps == 0 {
		g := maxGross
		if targetNet < g {
			g = targetNet
		}
		if g == 0 {
			return nil, nil
		}
		return []uint64{g}, nil
	}

	var gross []uint64
	g := maxGross
	hop := 0
	for g > 0 && hop < maxPlanHops {
		hop++
		gross = append(gross, g)
		net := NetOf(g, feeBps, maxFee)
		if net <= targetNet {
			break
		}
		g = net
	}
	if hop >= maxPlanHops && NetOf(gross[len(gross)-1], feeBps, maxFee) > targetNet {
		return nil, fmt.Errorf("fundsrouter: plan_hops exceeded %d hops", maxPlanHops)
	}

	for i := 0; i < len(gross)-1; i++ {
		wantNext := NetOf(gross[i], feeBps, maxFee)
		if gross[i+1] != wantNext {
			return nil, fmt.Errorf("fundsrouter: chain continuity violated at hop %d: expected next gross %d, got %d", i+1, wantNext, gross[i+1])
		}
	}

	return gross, nil
}
