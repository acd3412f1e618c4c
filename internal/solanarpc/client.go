// Package solanarpc is the rate-limited, backoff-retrying, blockhash-caching
// RPC submission layer (C1), grounded on original_source/app/core/client.py's
// SolanaClient (AsyncRateLimiter, ExponentialBackoff, PatchedHttpxClient)
// translated onto github.com/gagliardetto/solana-go's RPC client, with the
// teacher's fmt.Errorf("...: %w", err) wrapping idiom throughout.
package solanarpc

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/computebudget"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/blackhole-labs/solcycle/internal/agentlog"
	"github.com/blackhole-labs/solcycle/internal/metrics"
)

const (
	blockhashCacheTTL    = 15 * time.Second
	defaultMaxRetries    = 5
	defaultConfirmPollMs = 1000
	maxTransactionBytes  = 1232
	minJitoTipLamports   = 1000
)

// BundleSubmitter abstracts the Jito bundle-submission transport so the
// client never depends on jito-go-rpc's concrete type directly, keeping the
// client testable with a stub.
type BundleSubmitter interface {
	SendBundle(ctx context.Context, base64Txs []string) (string, error)
}

// Client is the RPC Client (C1) contract: rate-limited, retrying, blockhash
// caching, atomic transaction assembly and submission.
type Client struct {
	rpc     *rpc.Client
	limiter *RateLimiter
	log     *agentlog.Sink

	bhMu        sync.Mutex
	bhCached    solana.Hash
	bhFetchedAt time.Time

	jito           BundleSubmitter
	jitoTipAccount solana.PublicKey
}

// Option configures a Client at construction.
type Option func(*Client)

// WithLogSink overrides the default ambient logger.
func WithLogSink(s *agentlog.Sink) Option {
	return func(c *Client) { c.log = s }
}

// WithRateLimit overrides the default 50 calls/1s rate limit.
func WithRateLimit(callsPerWindow int, window time.Duration) Option {
	return func(c *Client) { c.limiter = NewRateLimiter(callsPerWindow, window) }
}

// WithJito enables Jito bundle submission for the jito_tip >= 1000 path.
func WithJito(submitter BundleSubmitter, tipAccount solana.PublicKey) Option {
	return func(c *Client) {
		c.jito = submitter
		c.jitoTipAccount = tipAccount
	}
}

// NewClient dials the given HTTP RPC endpoint.
func NewClient(httpURL string, opts ...Option) *Client {
	c := &Client{
		rpc:     rpc.New(httpURL),
		limiter: NewRateLimiter(50, time.Second),
		log:     agentlog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call wraps a single RPC invocation with the rate limiter and a
// 429-aware exponential backoff retry loop. Non-transient errors propagate
// immediately.
func (c *Client) call(ctx context.Context, label string, fn func(ctx context.Context) error) error {
	metrics.RPCCallsTotal.WithLabelValues(label).Inc()
	backoff := DefaultBackoff()
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("solanarpc: %s: rate limiter: %w", label, err)
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return fmt.Errorf("solanarpc: %s: %w", label, err)
		}
		metrics.RPCRetriesTotal.WithLabelValues("rate_limited").Inc()
		delay := backoff.Next()
		c.log.Alert("rpc %s rate-limited, retrying in %s: %v", label, delay, err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("solanarpc: %s: %w", label, ctx.Err())
		}
	}
}

// AccountInfo fetches account_info(pubkey, encoding) with base64
// encoding.
func (c *Client) AccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.Account, error) {
	var out *rpc.Account
	err := c.call(ctx, "getAccountInfo", func(ctx context.Context) error {
		res, err := c.rpc.GetAccountInfoWithOpts(ctx, pubkey, &rpc.GetAccountInfoOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: rpc.CommitmentProcessed,
		})
		if err != nil {
			return err
		}
		if res == nil || res.Value == nil {
			return nil
		}
		out = res.Value
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MultiAccountLamports returns the lamport balance for each pubkey in
// order, using a single getMultipleAccounts call.
func (c *Client) MultiAccountLamports(ctx context.Context, pubkeys []solana.PublicKey) ([]uint64, error) {
	var lamports []uint64
	err := c.call(ctx, "getMultipleAccounts", func(ctx context.Context) error {
		res, err := c.rpc.GetMultipleAccountsWithOpts(ctx, pubkeys, &rpc.GetMultipleAccountsOpts{
			Commitment: rpc.CommitmentProcessed,
		})
		if err != nil {
			return err
		}
		lamports = make([]uint64, len(pubkeys))
		for i, acc := range res.Value {
			if acc != nil {
				lamports[i] = acc.Lamports
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lamports, nil
}

// TokenAccountAmount returns the base-unit balance of an SPL token account.
func (c *Client) TokenAccountAmount(ctx context.Context, ata solana.PublicKey) (uint64, error) {
	var amount uint64
	err := c.call(ctx, "getTokenAccountBalance", func(ctx context.Context) error {
		res, err := c.rpc.GetTokenAccountBalance(ctx, ata, rpc.CommitmentProcessed)
		if err != nil {
			return err
		}
		var parsed uint64
		if _, scanErr := fmt.Sscan(res.Value.Amount, &parsed); scanErr != nil {
			return fmt.Errorf("parse token amount %q: %w", res.Value.Amount, scanErr)
		}
		amount = parsed
		return nil
	})
	if err != nil {
		return 0, err
	}
	return amount, nil
}

// LatestBlockhash returns the cached blockhash, refetching with processed
// commitment whenever the cache age exceeds 15s or is empty.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	c.bhMu.Lock()
	fresh := !c.bhCached.IsZero() && time.Since(c.bhFetchedAt) < blockhashCacheTTL
	cached := c.bhCached
	c.bhMu.Unlock()
	if fresh {
		return cached, nil
	}

	var hash solana.Hash
	err := c.call(ctx, "getLatestBlockhash", func(ctx context.Context) error {
		res, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentProcessed)
		if err != nil {
			return err
		}
		hash = res.Value.Blockhash
		return nil
	})
	if err != nil {
		return solana.Hash{}, err
	}

	c.bhMu.Lock()
	c.bhCached = hash
	c.bhFetchedAt = time.Now()
	c.bhMu.Unlock()
	return hash, nil
}

// BuildAndSendParams configures one atomic transaction submission.
type BuildAndSendParams struct {
	Instructions             []solana.Instruction
	MsgSigner                solana.PrivateKey
	Signers                  []solana.PrivateKey
	PriorityFeeMicroLamports *uint64
	ComputeUnitLimit         *uint32
	MaxRetries               int
	MaxConfirmRetries        int
	Label                    string
	JitoTipLamports          uint64
}

// BuildAndSend assembles, signs, sends and confirms one atomic transaction
// per the §4.1 contract: compute-limit and priority-fee prepends, optional
// Jito tip prepend, 1232-byte ceiling check after the blockhash is obtained
// (which may itself be an RPC call when the cache is stale) and before the
// send, skip-preflight send (or Jito bundle POST), and confirm-by-polling.
func (c *Client) BuildAndSend(ctx context.Context, p BuildAndSendParams) (solana.Signature, bool, error) {
	maxRetries := p.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		sig, confirmed, err := c.buildAndSendOnce(ctx, p)
		if err == nil {
			return sig, confirmed, nil
		}
		lastErr = err
		if !isTransient(err) {
			return solana.Signature{}, false, err
		}
		delay := time.Duration(pow(0.5, float64(attempt)) * float64(time.Second))
		c.log.Alert("build_and_send attempt %d failed, retrying in %s: %v", attempt, delay, err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return solana.Signature{}, false, fmt.Errorf("solanarpc: build_and_send: %w", ctx.Err())
		}
	}
	return solana.Signature{}, false, fmt.Errorf("solanarpc: build_and_send: %w: %v", ErrRetriesExhausted, lastErr)
}

func (c *Client) buildAndSendOnce(ctx context.Context, p BuildAndSendParams) (solana.Signature, bool, error) {
	started := time.Now()
	defer func() {
		metrics.RPCSendLatencySeconds.WithLabelValues(p.Label).Observe(time.Since(started).Seconds())
	}()

	instructions := make([]solana.Instruction, 0, len(p.Instructions)+3)
	if p.ComputeUnitLimit != nil {
		instructions = append(instructions, computebudget.NewSetComputeUnitLimitInstruction(*p.ComputeUnitLimit).Build())
	}
	if p.PriorityFeeMicroLamports != nil {
		instructions = append(instructions, computebudget.NewSetComputeUnitPriceInstruction(*p.PriorityFeeMicroLamports).Build())
	}
	if p.JitoTipLamports >= minJitoTipLamports {
		if c.jito == nil {
			return solana.Signature{}, false, fmt.Errorf("solanarpc: jito_tip %d requested but no Jito bundle submitter configured", p.JitoTipLamports)
		}
		instructions = append(instructions, system.NewTransferInstruction(
			p.JitoTipLamports,
			p.MsgSigner.PublicKey(),
			c.jitoTipAccount,
		).Build())
	}
	instructions = append(instructions, p.Instructions...)

	blockhash, err := c.LatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, false, fmt.Errorf("build transaction: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(p.MsgSigner.PublicKey()))
	if err != nil {
		return solana.Signature{}, false, fmt.Errorf("assemble transaction: %w", err)
	}

	signers := dedupeSigners(p.MsgSigner, p.Signers)
	signerIndex := make(map[solana.PublicKey]solana.PrivateKey, len(signers))
	for _, s := range signers {
		signerIndex[s.PublicKey()] = s
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if pk, ok := signerIndex[key]; ok {
			return &pk
		}
		return nil
	}); err != nil {
		return solana.Signature{}, false, fmt.Errorf("sign transaction: %w", err)
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return solana.Signature{}, false, fmt.Errorf("serialize transaction: %w", err)
	}
	if len(raw) > maxTransactionBytes {
		return solana.Signature{}, false, fmt.Errorf("%w: %d bytes", ErrTransactionTooLarge, len(raw))
	}

	var sig solana.Signature
	if p.JitoTipLamports >= minJitoTipLamports {
		b64 := base64.StdEncoding.EncodeToString(raw)
		bundleID, err := c.jito.SendBundle(ctx, []string{b64})
		if err != nil {
			return solana.Signature{}, false, fmt.Errorf("jito bundle submit: %w", err)
		}
		c.log.Status("submitted jito bundle %s for %s", bundleID, p.Label)
		if len(tx.Signatures) > 0 {
			sig = tx.Signatures[0]
		}
	} else {
		err := c.call(ctx, "sendTransaction", func(ctx context.Context) error {
			s, sendErr := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
				SkipPreflight:       true,
				PreflightCommitment: rpc.CommitmentProcessed,
			})
			if sendErr != nil {
				return sendErr
			}
			sig = s
			return nil
		})
		if err != nil {
			return solana.Signature{}, false, fmt.Errorf("send transaction: %w", err)
		}
	}

	maxConfirmRetries := p.MaxConfirmRetries
	if maxConfirmRetries <= 0 {
		maxConfirmRetries = 30
	}
	confirmed, err := c.Confirm(ctx, sig, maxConfirmRetries)
	if err != nil {
		return sig, false, fmt.Errorf("confirm transaction: %w", err)
	}
	return sig, confirmed, nil
}

// Confirm polls signature_statuses up to maxRetries times at 1s intervals;
// "confirmed" means status present with non-null confirmations.
func (c *Client) Confirm(ctx context.Context, sig solana.Signature, maxRetries int) (bool, error) {
	for i := 0; i < maxRetries; i++ {
		var confirmed bool
		err := c.call(ctx, "getSignatureStatuses", func(ctx context.Context) error {
			res, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
			if err != nil {
				return err
			}
			if len(res.Value) == 0 || res.Value[0] == nil {
				confirmed = false
				return nil
			}
			status := res.Value[0]
			confirmed = status.ConfirmationStatus != "" || status.Confirmations != nil
			return nil
		})
		if err != nil {
			return false, err
		}
		if confirmed {
			return true, nil
		}
		select {
		case <-time.After(defaultConfirmPollMs * time.Millisecond):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return false, nil
}

func dedupeSigners(msgSigner solana.PrivateKey, signers []solana.PrivateKey) []solana.PrivateKey {
	out := []solana.PrivateKey{msgSigner}
	seen := map[solana.PublicKey]bool{msgSigner.PublicKey(): true}
	for _, s := range signers {
		pk := s.PublicKey()
		if seen[pk] {
			continue
		}
		seen[pk] = true
		out = append(out, s)
	}
	return out
}
