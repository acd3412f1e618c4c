package cycle

import "time"

// Phase enumerates the cycle state machine's stages. Adapted from the
// teacher's StrategyPhase array-indexed enum, renamed onto the
// mint/pool/withdraw domain (see _create_token/_prepare_liquidity_pool/
// _initialize_pool/_monitor_pnl_wrapper/_withdraw_liquidity in bablo_bot.py).
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePrepared
	PhaseMintCreated
	PhasePoolInitialized
	PhaseMonitoring
	PhaseWithdrawing
	PhaseDone
	PhaseAborted
)

var phaseNames = [...]string{
	"idle",
	"prepared",
	"mint_created",
	"pool_initialized",
	"monitoring",
	"withdrawing",
	"done",
	"aborted",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Report is one emitted progress event for a cycle run, mirroring the
// teacher's StrategyReport JSON shape: a phase, a timestamp, and a bag of
// optional detail fields that only some phases populate.
type Report struct {
	Phase     Phase     `json:"phase"`
	Timestamp time.Time `json:"timestamp"`

	ContractAddress string `json:"contract_address,omitempty"`
	Mint            string `json:"mint,omitempty"`
	Pool            string `json:"pool,omitempty"`

	TokenAmountUI int64   `json:"token_amount_ui,omitempty"`
	WsolAmountSOL float64 `json:"wsol_amount_sol,omitempty"`

	SeedLamports     *uint64 `json:"seed_lamports,omitempty"`
	VaultLamports    *uint64 `json:"vault_lamports,omitempty"`
	PnLLamports      *int64  `json:"pnl_lamports,omitempty"`
	WithdrawSignature string `json:"withdraw_signature,omitempty"`

	Err string `json:"error,omitempty"`
}

// ReportSink receives Report events as the cycle advances. Follows the
// injected-capability shape agentlog.Sink already uses elsewhere in this
// module, rather than introducing a pub/sub dependency for something this
// narrow.
type ReportSink func(Report)

func emit(sink ReportSink, r Report) {
	if sink == nil {
		return
	}
	defer func() { _ = recover() }()
	sink(r)
}
