// Package walletstore owns the durable fund keypair, mints ephemeral dev
// keypairs, persists each as a base58 secret under <dir>/<pubkey>.txt, and
// serializes critical dev transfers behind one mutex (C3). Grounded on
// original_source/app/core/wallet_manager.py's WalletManager
// (distribute_lamports, withdraw_to_fund, update_dev, rollover_dev,
// _persist_wallet), with the teacher's struct-per-operation +
// fmt.Errorf("...: %w", err) idiom.
package walletstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/blackhole-labs/solcycle/internal/agentlog"
	"github.com/blackhole-labs/solcycle/internal/solanarpc"
)

// FundPrivateKeyEnv is the required environment variable carrying the
// fund wallet's base58 64-byte secret.
const FundPrivateKeyEnv = "FUND_PRIVATE_KEY"

const nonzeroBalancePollTimeout = 5 * time.Second
const nonzeroBalancePollInterval = 1 * time.Second

// Wallet is a pubkey/keypair pair with its last-known lamport balance.
type Wallet struct {
	Keypair      solana.PrivateKey
	LastLamports uint64
}

func (w *Wallet) Pubkey() solana.PublicKey { return w.Keypair.PublicKey() }

// Store is the Wallet Store (C3) contract.
type Store struct {
	dir    string
	rpc    *solanarpc.Client
	log    *agentlog.Sink

	fund *Wallet

	devMu sync.Mutex
	dev   *Wallet
}

// New loads the fund secret from FUND_PRIVATE_KEY (failing if absent),
// creates the initial dev wallet, and persists both.
func New(dir string, rpc *solanarpc.Client, log *agentlog.Sink) (*Store, error) {
	if log == nil {
		log = agentlog.Default()
	}
	secret := os.Getenv(FundPrivateKeyEnv)
	if secret == "" {
		return nil, fmt.Errorf("walletstore: %s not set", FundPrivateKeyEnv)
	}
	fundKeypair, err := solana.PrivateKeyFromBase58(secret)
	if err != nil {
		return nil, fmt.Errorf("walletstore: parse %s: %w", FundPrivateKeyEnv, err)
	}

	s := &Store{
		dir:  dir,
		rpc:  rpc,
		log:  log,
		fund: &Wallet{Keypair: fundKeypair},
	}
	if err := PersistWallet(dir, fundKeypair); err != nil {
		return nil, fmt.Errorf("walletstore: persist fund wallet: %w", err)
	}

	dev, err := s.newDevWallet()
	if err != nil {
		return nil, fmt.Errorf("walletstore: create initial dev wallet: %w", err)
	}
	s.dev = dev

	return s, nil
}

// Fund returns the durable fund wallet.
func (s *Store) Fund() *Wallet { return s.fund }

// Dev returns the current dev wallet.
func (s *Store) Dev() *Wallet {
	s.devMu.Lock()
	defer s.devMu.Unlock()
	return s.dev
}

func (s *Store) newDevWallet() (*Wallet, error) {
	kp, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate dev keypair: %w", err)
	}
	if err := PersistWallet(s.dir, kp); err != nil {
		return nil, fmt.Errorf("persist dev keypair: %w", err)
	}
	return &Wallet{Keypair: kp}, nil
}

// UpdateDev rotates the current dev wallet to a freshly generated one.
// Must only be called between cycles (i.e. while no DevCycle is held).
func (s *Store) UpdateDev() (*Wallet, error) {
	s.devMu.Lock()
	defer s.devMu.Unlock()

	dev, err := s.newDevWallet()
	if err != nil {
		return nil, err
	}
	s.dev = dev
	s.log.Status("rotated dev wallet to %s", dev.Pubkey())
	return dev, nil
}

// RolloverDev rotates the dev wallet and seeds the new one with
// seedLamports from fund.
func (s *Store) RolloverDev(ctx context.Context, seedLamports uint64) (*Wallet, error) {
	s.devMu.Lock()
	defer s.devMu.Unlock()

	dev, err := s.newDevWallet()
	if err != nil {
		return nil, err
	}
	s.dev = dev

	if seedLamports > 0 {
		if _, err := s.distributeLamportsUnlocked(ctx, seedLamports); err != nil {
			return nil, fmt.Errorf("walletstore: rollover seed transfer: %w", err)
		}
	}
	return dev, nil
}

// DevCycleGuard pins the current dev wallet for the duration of one cycle.
type DevCycleGuard struct {
	store *Store
	dev   *Wallet
}

// Dev returns the pinned dev wallet for this cycle.
func (g *DevCycleGuard) Dev() *Wallet { return g.dev }

// DistributeLamportsUnlocked is the re-entrant variant, only callable from
// within a held DevCycle.
func (g *DevCycleGuard) DistributeLamportsUnlocked(ctx context.Context, lamports uint64) (solana.Signature, error) {
	return g.store.distributeLamportsUnlocked(ctx, lamports)
}

// WithdrawToFundUnlocked is the re-entrant variant, only callable from
// within a held DevCycle.
func (g *DevCycleGuard) WithdrawToFundUnlocked(ctx context.Context, lamports *uint64) (solana.Signature, error) {
	return g.store.withdrawToFundUnlocked(ctx, g.dev, lamports)
}

// Release releases the dev-cycle lock.
func (g *DevCycleGuard) Release() {
	g.store.devMu.Unlock()
}

// DevCycle acquires the dev-cycle mutex and pins the current dev wallet for
// the duration of one cycle. Callers must call Release when done (typically
// via defer).
func (s *Store) DevCycle() *DevCycleGuard {
	s.devMu.Lock()
	return &DevCycleGuard{store: s, dev: s.dev}
}

// DistributeLamports transfers lamports from fund to the current dev
// wallet, acquiring the dev-cycle mutex itself.
func (s *Store) DistributeLamports(ctx context.Context, lamports uint64) (solana.Signature, error) {
	s.devMu.Lock()
	defer s.devMu.Unlock()
	return s.distributeLamportsUnlocked(ctx, lamports)
}

func (s *Store) distributeLamportsUnlocked(ctx context.Context, lamports uint64) (solana.Signature, error) {
	ix := system.NewTransferInstruction(lamports, s.fund.Pubkey(), s.dev.Pubkey()).Build()
	sig, confirmed, err := s.rpc.BuildAndSend(ctx, solanarpc.BuildAndSendParams{
		Instructions:      []solana.Instruction{ix},
		MsgSigner:         s.fund.Keypair,
		MaxRetries:        5,
		MaxConfirmRetries: 30,
		Label:             "distribute_lamports",
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("walletstore: distribute_lamports: %w", err)
	}
	if !confirmed {
		s.log.Alert("distribute_lamports %s sent but not confirmed", sig)
	}
	return sig, nil
}

// WithdrawToFund transfers from the current dev wallet to fund; it takes
// no argument naming another dev wallet. It acquires acquiring the dev-cycle mutex itself. If lamports is nil, the full
// balance is drained after optionally waiting up to 5s for a non-zero
// balance.
func (s *Store) WithdrawToFund(ctx context.Context, lamports *uint64) (solana.Signature, error) {
	s.devMu.Lock()
	defer s.devMu.Unlock()
	return s.withdrawToFundUnlocked(ctx, s.dev, lamports)
}

func (s *Store) withdrawToFundUnlocked(ctx context.Context, from *Wallet, lamports *uint64) (solana.Signature, error) {
	amount := uint64(0)
	if lamports != nil {
		amount = *lamports
	} else {
		balance, err := s.waitNonzeroBalance(ctx, from)
		if err != nil {
			// Best-effort per DESIGN.md open-question decision: proceed
			// with whatever was last observed, even if zero.
			s.log.Alert("withdraw_to_fund: wait_nonzero_balance: %v", err)
		}
		amount = balance
	}
	if amount == 0 {
		return solana.Signature{}, nil
	}

	ix := system.NewTransferInstruction(amount, from.Pubkey(), s.fund.Pubkey()).Build()
	sig, confirmed, err := s.rpc.BuildAndSend(ctx, solanarpc.BuildAndSendParams{
		Instructions:      []solana.Instruction{ix},
		MsgSigner:         from.Keypair,
		MaxRetries:        5,
		MaxConfirmRetries: 30,
		Label:             "withdraw_to_fund",
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("walletstore: withdraw_to_fund: %w", err)
	}
	if !confirmed {
		s.log.Alert("withdraw_to_fund %s sent but not confirmed", sig)
	}
	return sig, nil
}

// waitNonzeroBalance polls for up to 5s at 1s intervals for a non-zero
// balance, returning the last observed (possibly zero) balance on
// exhaustion — per DESIGN.md's Open Question decision, this is
// best-effort, not fatal.
func (s *Store) waitNonzeroBalance(ctx context.Context, w *Wallet) (uint64, error) {
	deadline := time.Now().Add(nonzeroBalancePollTimeout)
	for {
		balances, err := s.rpc.MultiAccountLamports(ctx, []solana.PublicKey{w.Pubkey()})
		if err != nil {
			return 0, fmt.Errorf("poll balance: %w", err)
		}
		balance := balances[0]
		w.LastLamports = balance
		if balance > 0 {
			return balance, nil
		}
		if time.Now().After(deadline) {
			return balance, fmt.Errorf("timed out waiting for non-zero balance")
		}
		select {
		case <-time.After(nonzeroBalancePollInterval):
		case <-ctx.Done():
			return balance, ctx.Err()
		}
	}
}

// PersistWallet writes kp's base58 secret to <dir>/<pubkey>.txt. Writes are
// idempotent: an existing file for the same pubkey is left untouched.
func PersistWallet(dir string, kp solana.PrivateKey) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, kp.PublicKey().String()+".txt")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(kp.String()), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadWallet reads a base58 secret previously written by PersistWallet.
func LoadWallet(path string) (solana.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return solana.PrivateKey{}, fmt.Errorf("read %s: %w", path, err)
	}
	secret := strings.TrimSpace(string(data))
	kp, err := solana.PrivateKeyFromBase58(secret)
	if err != nil {
		return solana.PrivateKey{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return kp, nil
}
