package cycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"golang.org/x/sync/errgroup"

	"github.com/blackhole-labs/solcycle/internal/agentlog"
	"github.com/blackhole-labs/solcycle/internal/ixbuilder"
	"github.com/blackhole-labs/solcycle/internal/metrics"
	"github.com/blackhole-labs/solcycle/internal/solanarpc"
	"github.com/blackhole-labs/solcycle/internal/walletstore"
	"github.com/blackhole-labs/solcycle/internal/wsmonitor"
)

// Deps wires the Orchestrator to the packages it drives. All fields are
// required except Log, which defaults to agentlog.Default().
type Deps struct {
	RPC      *solanarpc.Client
	Wallets  *walletstore.Store
	WS       *wsmonitor.Monitor
	Metadata *MetadataFetcher
	Log      *agentlog.Sink
}

// Orchestrator runs one full create-mint/init-pool/monitor/withdraw cycle
// at a time. Grounded on Bablo's per-cycle methods (_cycle_with_dev et al);
// unlike Bablo, no cycle state lives on the Orchestrator itself — each
// RunCycle call builds its own tokenState/poolState locally, so a future
// caller driving cycles concurrently (the original never does) would not
// need any additional synchronization here.
type Orchestrator struct {
	deps    Deps
	cfg     *Config
	breaker *CircuitBreaker
}

// New builds an Orchestrator. cfg must already have passed Validate.
func New(deps Deps, cfg *Config) *Orchestrator {
	if deps.Log == nil {
		deps.Log = agentlog.Default()
	}
	return &Orchestrator{
		deps:    deps,
		cfg:     cfg,
		breaker: NewCircuitBreaker(cfg.CircuitBreakerWindow, cfg.CircuitBreakerThreshold),
	}
}

// Breaker exposes the orchestrator's circuit breaker so the agent loop can
// decide to halt once it trips.
func (o *Orchestrator) Breaker() *CircuitBreaker { return o.breaker }

// RunCycle executes one full cycle against contractAddress, minting
// tokenAmountUIMillions (millions of whole tokens) against
// wsolAmountSOL worth of paired liquidity. Reports are streamed to sink as
// each phase completes; the final Report (Done or Aborted) is also the
// return value.
func (o *Orchestrator) RunCycle(ctx context.Context, contractAddress string, tokenAmountUIMillions int64, wsolAmountSOL float64, sink ReportSink) (*Report, error) {
	originalMint, err := solana.PublicKeyFromBase58(contractAddress)
	if err != nil {
		return o.abort(sink, contractAddress, fmt.Errorf("cycle: parse contract address %q: %w", contractAddress, err))
	}

	meta, err := o.deps.Metadata.FetchMetadata(ctx, originalMint)
	if err != nil {
		o.breaker.RecordError(false)
		return o.abort(sink, contractAddress, fmt.Errorf("cycle: fetch metadata: %w", err))
	}

	mintKeypair, err := solana.NewRandomPrivateKey()
	if err != nil {
		return o.abort(sink, contractAddress, fmt.Errorf("cycle: generate mint keypair: %w", err))
	}

	token := &tokenState{Keypair: mintKeypair, Name: meta.Name, Symbol: meta.Symbol, URI: meta.URI}
	emit(sink, Report{Phase: PhasePrepared, Timestamp: timeNow(), ContractAddress: contractAddress,
		Mint: token.Mint().String(), TokenAmountUI: tokenAmountUIMillions, WsolAmountSOL: wsolAmountSOL})

	decimals := TokenDecimals
	tokenAmount := tokensUIToBaseUnits(tokenAmountUIMillions, decimals)
	lamportsAmount := solToLamports(wsolAmountSOL)

	guard := o.deps.Wallets.DevCycle()
	defer guard.Release()

	seedTarget := lamportsAmount + launchCostLamports
	if err := o.ensureDevFunded(ctx, guard, seedTarget); err != nil {
		o.breaker.RecordError(false)
		return o.abort(sink, contractAddress, fmt.Errorf("cycle: ensure dev funded: %w", err))
	}

	report, err := o.cycleWithDev(ctx, guard, token, tokenAmount, lamportsAmount, wsolAmountSOL, contractAddress, sink)
	if err != nil {
		critical := ctx.Err() != nil
		o.breaker.RecordError(critical)
		return o.abort(sink, contractAddress, err)
	}
	o.breaker.Reset()
	metrics.CyclesTotal.WithLabelValues("done").Inc()
	return report, nil
}

func (o *Orchestrator) abort(sink ReportSink, ca string, cause error) (*Report, error) {
	r := Report{Phase: PhaseAborted, Timestamp: timeNow(), ContractAddress: ca, Err: cause.Error()}
	emit(sink, r)
	metrics.CyclesTotal.WithLabelValues("aborted").Inc()
	return &r, cause
}

// ensureDevFunded tops up the pinned dev wallet up to targetLamports,
// using the cycle-lock-held transfer variant since the caller already
// holds the DevCycle guard. Grounded on _ensure_dev_funded_for(...,
// use_locked=True).
func (o *Orchestrator) ensureDevFunded(ctx context.Context, guard *walletstore.DevCycleGuard, targetLamports uint64) error {
	balances, err := o.deps.RPC.MultiAccountLamports(ctx, []solana.PublicKey{guard.Dev().Pubkey()})
	if err != nil {
		return fmt.Errorf("poll dev balance: %w", err)
	}
	balance := balances[0]
	if balance >= targetLamports {
		return nil
	}
	shortfall := targetLamports - balance
	if _, err := guard.DistributeLamportsUnlocked(ctx, shortfall); err != nil {
		return fmt.Errorf("distribute shortfall %d: %w", shortfall, err)
	}
	o.deps.Log.Status("dev wallet %s topped up by %d lamports", guard.Dev().Pubkey(), shortfall)
	return nil
}

func (o *Orchestrator) cycleWithDev(ctx context.Context, guard *walletstore.DevCycleGuard, token *tokenState, tokenAmount, lamportsAmount uint64, wsolAmountSOL float64, ca string, sink ReportSink) (*Report, error) {
	dev := guard.Dev()

	createSig, err := o.createToken(ctx, dev, token)
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}
	emit(sink, Report{Phase: PhaseMintCreated, Timestamp: timeNow(), ContractAddress: ca, Mint: token.Mint().String()})
	o.deps.Log.Status("created mint %s, tx %s", token.Mint(), createSig)

	pool, err := o.prepareLiquidityPool(token, dev.Pubkey(), tokenAmount, lamportsAmount)
	if err != nil {
		return nil, fmt.Errorf("prepare liquidity pool: %w", err)
	}

	initSig, err := o.initializePool(ctx, dev, pool, lamportsAmount)
	if err != nil {
		return nil, fmt.Errorf("initialize pool: %w", err)
	}
	emit(sink, Report{Phase: PhasePoolInitialized, Timestamp: timeNow(), ContractAddress: ca, Pool: pool.PoolState.String()})
	o.deps.Log.Status("pool %s initialized, tx %s", pool.PoolState, initSig)

	emit(sink, Report{Phase: PhaseMonitoring, Timestamp: timeNow(), ContractAddress: ca, Pool: pool.PoolState.String()})
	withdrawStart := time.Now()
	if err := o.monitorUntilProfitOrTimeout(ctx, pool.LiqVault, wsolAmountSOL); err != nil && ctx.Err() != nil {
		// The pool is already live, so a stop still pulls the liquidity
		// back, on a context the stop does not cancel.
		if _, wErr := o.withdrawLiquidity(context.WithoutCancel(ctx), dev, pool); wErr != nil {
			return nil, fmt.Errorf("monitor: %w; withdraw after stop: %v", err, wErr)
		}
		return nil, fmt.Errorf("monitor: %w", err)
	}

	emit(sink, Report{Phase: PhaseWithdrawing, Timestamp: timeNow(), ContractAddress: ca, Pool: pool.PoolState.String()})
	withdrawSig, err := o.withdrawLiquidity(ctx, dev, pool)
	if err != nil {
		return nil, fmt.Errorf("withdraw liquidity: %w", err)
	}
	metrics.WithdrawLatencySeconds.Observe(time.Since(withdrawStart).Seconds())

	vaultLamports, pnl, pnlErr := o.settlementPnL(ctx, pool.LiqVault, wsolAmountSOL)
	if pnlErr != nil {
		o.deps.Log.Alert("settlement pnl lookup failed: %v", pnlErr)
	}

	report := Report{
		Phase:             PhaseDone,
		Timestamp:         timeNow(),
		ContractAddress:   ca,
		Mint:              token.Mint().String(),
		Pool:              pool.PoolState.String(),
		WithdrawSignature: withdrawSig.String(),
	}
	if pnlErr == nil {
		report.VaultLamports = &vaultLamports
		report.PnLLamports = &pnl
	}
	emit(sink, report)
	return &report, nil
}

// createToken assembles and sends the single Token-2022 mint-creation
// transaction: account creation, transfer-fee config, metadata pointer,
// mint initialize, token metadata, dev's ATA, the full supply mint, and
// the mint/freeze authority strip. Grounded on _create_token.
func (o *Orchestrator) createToken(ctx context.Context, dev *walletstore.Wallet, token *tokenState) (solana.Signature, error) {
	mint := token.Mint()
	devPk := dev.Pubkey()

	createAcctIx := system.NewCreateAccountInstruction(
		createMintAccountLamports,
		createMintAccountSpace,
		ixbuilder.Token2022ProgramID,
		devPk,
		mint,
	).Build()

	feeConfigIx := ixbuilder.BuildInitializeTransferFeeConfigInstruction(mint, devPk, transferFeeBasisPoints, uint64(1_000_000_000)*tokenWithDecimals)
	metadataPointerIx := ixbuilder.BuildInitializeMetadataPointerInstruction(mint, devPk, mint)
	initMintIx := ixbuilder.BuildInitializeMintInstruction(mint, devPk, devPk, true, TokenDecimals)
	tokenMetadataIx := ixbuilder.BuildInitializeTokenMetadataInstruction(mint, devPk, mint, devPk, token.Name, token.Symbol, token.URI)

	createATAIx, devATA, err := ixbuilder.BuildCreateIdempotentATAInstruction(devPk, devPk, mint, ixbuilder.Token2022ProgramID)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("dev ata: %w", err)
	}

	mintToIx := ixbuilder.BuildMintToCheckedInstruction(ixbuilder.Token2022ProgramID, mint, devATA, devPk, uint64(totalSupplyWholeTokens)*tokenWithDecimals, TokenDecimals)

	revokeMintIx := ixbuilder.BuildSetAuthorityInstruction(ixbuilder.Token2022ProgramID, mint, devPk, ixbuilder.AuthorityMintTokens, solana.PublicKey{}, false)
	revokeFreezeIx := ixbuilder.BuildSetAuthorityInstruction(ixbuilder.Token2022ProgramID, mint, devPk, ixbuilder.AuthorityFreezeAcct, solana.PublicKey{}, false)

	ixs := []solana.Instruction{
		createAcctIx, feeConfigIx, metadataPointerIx, initMintIx, tokenMetadataIx,
		createATAIx, mintToIx, revokeMintIx, revokeFreezeIx,
	}

	sig, confirmed, err := o.deps.RPC.BuildAndSend(ctx, solanarpc.BuildAndSendParams{
		Instructions:             ixs,
		MsgSigner:                dev.Keypair,
		Signers:                  []solana.PrivateKey{token.Keypair, dev.Keypair},
		PriorityFeeMicroLamports: ptrU64(10_000),
		MaxRetries:               1,
		MaxConfirmRetries:        10,
		Label:                    "create_token_2022",
	})
	if err != nil {
		return solana.Signature{}, err
	}
	if !confirmed {
		o.deps.Log.Alert("create_token_2022 %s sent but not confirmed", sig)
	}
	return sig, nil
}

// prepareLiquidityPool derives every PDA the pool needs, in canonical
// token0/token1 order. Grounded on _prepare_liquidity_pool.
func (o *Orchestrator) prepareLiquidityPool(token *tokenState, creator solana.PublicKey, tokenAmount, lamportsAmount uint64) (*poolState, error) {
	createdMint := token.Mint()

	tokenATA, _, err := ixbuilder.AssociatedTokenAddress(creator, createdMint, ixbuilder.Token2022ProgramID)
	if err != nil {
		return nil, fmt.Errorf("token ata: %w", err)
	}
	wsolATA, _, err := ixbuilder.AssociatedTokenAddress(creator, ixbuilder.WrappedSOLMint, ixbuilder.TokenProgramID)
	if err != nil {
		return nil, fmt.Errorf("wsol ata: %w", err)
	}

	mint0, mint1, isTokenFirst := orderedMints(createdMint, ixbuilder.WrappedSOLMint)

	token0Program, token1Program := ixbuilder.TokenProgramID, ixbuilder.Token2022ProgramID
	token0Amount, token1Amount := lamportsAmount, tokenAmount
	token0ATA, token1ATA := wsolATA, tokenATA
	if isTokenFirst {
		token0Program, token1Program = ixbuilder.Token2022ProgramID, ixbuilder.TokenProgramID
		token0Amount, token1Amount = tokenAmount, lamportsAmount
		token0ATA, token1ATA = tokenATA, wsolATA
	}

	ammConfig, _, err := ixbuilder.AMMConfigAddress(ixbuilder.AMMConfigIndex)
	if err != nil {
		return nil, fmt.Errorf("amm config: %w", err)
	}
	authority, _, err := ixbuilder.AuthorityAddress()
	if err != nil {
		return nil, fmt.Errorf("authority: %w", err)
	}
	poolAddr, _, err := ixbuilder.PoolAddress(ammConfig, mint0, mint1)
	if err != nil {
		return nil, fmt.Errorf("pool address: %w", err)
	}
	lpMint, _, err := ixbuilder.PoolLPMintAddress(poolAddr)
	if err != nil {
		return nil, fmt.Errorf("lp mint: %w", err)
	}
	creatorLPToken, _, err := ixbuilder.AssociatedTokenAddress(creator, lpMint, ixbuilder.TokenProgramID)
	if err != nil {
		return nil, fmt.Errorf("creator lp token: %w", err)
	}
	token0Vault, _, err := ixbuilder.PoolVaultAddress(poolAddr, mint0)
	if err != nil {
		return nil, fmt.Errorf("token0 vault: %w", err)
	}
	token1Vault, _, err := ixbuilder.PoolVaultAddress(poolAddr, mint1)
	if err != nil {
		return nil, fmt.Errorf("token1 vault: %w", err)
	}
	observation, _, err := ixbuilder.ObservationAddress(poolAddr)
	if err != nil {
		return nil, fmt.Errorf("observation: %w", err)
	}

	liqVault := token0Vault
	if isTokenFirst {
		liqVault = token1Vault
	}

	lpAmountExpected := ixbuilder.CalculateLPTokensExpected(
		tokenAmountAfterFee(tokenAmount, transferFeePercent), lamportsAmount, ixbuilder.LockLPTokens)

	return &poolState{
		TokenMint0: mint0, TokenMint1: mint1,
		Token0Program: token0Program, Token1Program: token1Program,
		Token0Amount: token0Amount, Token1Amount: token1Amount,
		PoolState: poolAddr, Authority: authority, LPMint: lpMint,
		CreatorLPToken: creatorLPToken,
		Token0Vault:    token0Vault, Token1Vault: token1Vault,
		Observation: observation,
		Token0ATA:   token0ATA, Token1ATA: token1ATA,
		LiqVault:         liqVault,
		LPAmountExpected: lpAmountExpected,
	}, nil
}

// orderedMints returns (mint0, mint1, createdIsMint0).
func orderedMints(created, wsol solana.PublicKey) (solana.PublicKey, solana.PublicKey, bool) {
	mint0, mint1, swapped := ixbuilder.OrderTokenMints(created, wsol)
	return mint0, mint1, !swapped
}

// initializePool wraps lamportsAmount of SOL into dev's WSOL ATA and sends
// the pool's Raydium "initialize" instruction in the same transaction.
// Grounded on _initialize_pool.
func (o *Orchestrator) initializePool(ctx context.Context, dev *walletstore.Wallet, pool *poolState, lamportsAmount uint64) (solana.Signature, error) {
	devPk := dev.Pubkey()
	wsolATA, _, err := ixbuilder.AssociatedTokenAddress(devPk, ixbuilder.WrappedSOLMint, ixbuilder.TokenProgramID)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("wsol ata: %w", err)
	}

	createWSOLATAIx, _, err := ixbuilder.BuildCreateIdempotentATAInstruction(devPk, devPk, ixbuilder.WrappedSOLMint, ixbuilder.TokenProgramID)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("create wsol ata: %w", err)
	}
	transferIx := system.NewTransferInstruction(lamportsAmount, devPk, wsolATA).Build()
	syncNativeIx := ixbuilder.BuildSyncNativeInstruction(wsolATA)

	initIx, err := ixbuilder.BuildInitializePoolInstruction(ixbuilder.InitializePoolParams{
		Creator:         devPk,
		PoolState:       pool.PoolState,
		PoolStateSigner: false,
		TokenMint0:      pool.TokenMint0,
		TokenMint1:      pool.TokenMint1,
		LPMint:          pool.LPMint,
		CreatorToken0:   pool.Token0ATA,
		CreatorToken1:   pool.Token1ATA,
		CreatorLPToken:  pool.CreatorLPToken,
		Token0Vault:     pool.Token0Vault,
		Token1Vault:     pool.Token1Vault,
		Observation:     pool.Observation,
		Token0Program:   pool.Token0Program,
		Token1Program:   pool.Token1Program,
		Token0Amount:    pool.Token0Amount,
		Token1Amount:    pool.Token1Amount,
		OpenTimeUnix:    uint64(time.Now().Unix()),
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("build initialize ix: %w", err)
	}

	sig, confirmed, err := o.deps.RPC.BuildAndSend(ctx, solanarpc.BuildAndSendParams{
		Instructions:             []solana.Instruction{createWSOLATAIx, transferIx, syncNativeIx, initIx},
		MsgSigner:                dev.Keypair,
		PriorityFeeMicroLamports: ptrU64(50_000),
		MaxRetries:               5,
		MaxConfirmRetries:        30,
		Label:                    "init_pool",
	})
	if err != nil {
		return solana.Signature{}, err
	}
	if !confirmed {
		o.deps.Log.Alert("init_pool %s sent but not confirmed", sig)
	}
	return sig, nil
}

// monitorUntilProfitOrTimeout races the cycle timeout against the
// profit-threshold WS subscription, returning once either the timer fires,
// the profit threshold is hit, or ctx is cancelled. Grounded on
// _cycle_with_dev's asyncio.wait(FIRST_COMPLETED) over timer_task and
// pnl_wait_task; golang.org/x/sync/errgroup stands in for asyncio.Task
// cancel-and-await of the loser.
func (o *Orchestrator) monitorUntilProfitOrTimeout(ctx context.Context, liqVault solana.PublicKey, wsolAmountSOL float64) error {
	grp, gctx := errgroup.WithContext(ctx)
	stopWS := make(chan struct{})
	profit := make(chan struct{})
	var profitOnce sync.Once

	grp.Go(func() error {
		onChange := func(lamports uint64) {
			currentSOL := lamportsToSOL(lamports)
			pnl := currentSOL - wsolAmountSOL - lamportsToSOL(launchCostLamports)
			if pnl >= o.cfg.ProfitThresholdSOL {
				profitOnce.Do(func() { close(profit) })
			}
		}
		err := o.deps.WS.MonitorAccountLamports(gctx, liqVault, onChange, stopWS, "")
		if err == context.Canceled {
			return nil
		}
		return err
	})

	// CycleTimeout == 0 means the timer never fires and only the profit
	// trigger can end Monitoring; a nil channel blocks forever in a select,
	// which is exactly how that arm is omitted.
	var timerC <-chan time.Time
	if o.cfg.CycleTimeout > 0 {
		timer := time.NewTimer(o.cfg.CycleTimeout)
		defer timer.Stop()
		timerC = timer.C
	}

	select {
	case <-timerC:
	case <-profit:
	case <-gctx.Done():
	}
	close(stopWS)

	if err := grp.Wait(); err != nil && ctx.Err() == nil {
		o.deps.Log.Alert("pnl monitor exited with error: %v", err)
	}
	return ctx.Err()
}

// withdrawLiquidity drains the pool's full LP position back to dev's token
// accounts, fund-sponsored, then unwraps and closes dev's WSOL ATA.
// Grounded on _withdraw_liquidity.
func (o *Orchestrator) withdrawLiquidity(ctx context.Context, dev *walletstore.Wallet, pool *poolState) (solana.Signature, error) {
	fund := o.deps.Wallets.Fund()
	devPk := dev.Pubkey()

	withdrawIx := ixbuilder.BuildWithdrawInstruction(ixbuilder.WithdrawParams{
		Creator:        devPk,
		Authority:      pool.Authority,
		PoolState:      pool.PoolState,
		CreatorLPToken: pool.CreatorLPToken,
		Token0ATA:      pool.Token0ATA,
		Token1ATA:      pool.Token1ATA,
		Token0Vault:    pool.Token0Vault,
		Token1Vault:    pool.Token1Vault,
		TokenMint0:     pool.TokenMint0,
		TokenMint1:     pool.TokenMint1,
		LPMint:         pool.LPMint,
		LPTokenAmount:  pool.LPAmountExpected,
	})

	createWSOLATAIx, wsolATA, err := ixbuilder.BuildCreateIdempotentATAInstruction(devPk, devPk, ixbuilder.WrappedSOLMint, ixbuilder.TokenProgramID)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("create wsol ata: %w", err)
	}
	closeWSOLATAIx := ixbuilder.BuildCloseAccountInstruction(wsolATA, fund.Pubkey(), devPk)

	sig, confirmed, err := o.deps.RPC.BuildAndSend(ctx, solanarpc.BuildAndSendParams{
		Instructions:             []solana.Instruction{createWSOLATAIx, withdrawIx, closeWSOLATAIx},
		MsgSigner:                fund.Keypair,
		Signers:                  []solana.PrivateKey{fund.Keypair, dev.Keypair},
		PriorityFeeMicroLamports: ptrU64(100_000),
		MaxRetries:               1,
		MaxConfirmRetries:        10,
		Label:                    "withdraw_liquidity",
	})
	if err != nil {
		return solana.Signature{}, err
	}
	if !confirmed {
		o.deps.Log.Alert("withdraw_liquidity %s sent but not confirmed", sig)
	}
	return sig, nil
}

// settlementPnL reads the vault's post-withdraw lamport balance for the
// final report. A read-only lookup failure is non-fatal to the cycle.
func (o *Orchestrator) settlementPnL(ctx context.Context, liqVault solana.PublicKey, wsolAmountSOL float64) (uint64, int64, error) {
	balances, err := o.deps.RPC.MultiAccountLamports(ctx, []solana.PublicKey{liqVault})
	if err != nil {
		return 0, 0, err
	}
	vaultLamports := balances[0]
	pnlLamports := int64(vaultLamports) - int64(solToLamports(wsolAmountSOL)) - int64(launchCostLamports)
	return vaultLamports, pnlLamports, nil
}

func ptrU64(v uint64) *uint64 { return &v }
