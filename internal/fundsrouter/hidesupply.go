package fundsrouter

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/blackhole-labs/solcycle/internal/agentlog"
	"github.com/blackhole-labs/solcycle/internal/ixbuilder"
	"github.com/blackhole-labs/solcycle/internal/solanarpc"
	"github.com/blackhole-labs/solcycle/internal/walletstore"
)

// hideSupplyPacketLimit mirrors solanarpc's maxTransactionBytes; hide_supply
// batches instructions up to this size before flushing a transaction,
// rather than relying on BuildAndSend's post-hoc rejection.
const hideSupplyPacketLimit = 1232

// HideSupplyParams describes the Token-2022 transfer-fee mint being
// burned down to a smaller apparent supply.
type HideSupplyParams struct {
	Mint            solana.PublicKey
	TokenProgram    solana.PublicKey
	Decimals        uint8
	FeeBasisPoints  uint16
	MaxFee          uint64
	SupplyBaseUnits uint64
	TargetBaseUnits uint64
}

// HideSupplyResult reports the hop count actually used and what was
// burned to land on target.
type HideSupplyResult struct {
	HopsCount  int
	LastNet    uint64
	Target     uint64
	BurnDelta  uint64
	Signatures []solana.Signature
}

// SupplyHider relays a Token-2022 mint's supply through a chain of
// ephemeral ATAs (paying the mint's own transfer fee at each hop) and
// burns the remainder down to the target, so the dev wallet's ATA ends up
// holding only TargetBaseUnits. Grounded on hide_supply.
type SupplyHider struct {
	rpc       *solanarpc.Client
	walletDir string
	log       *agentlog.Sink
}

// NewSupplyHider builds a SupplyHider.
func NewSupplyHider(rpc *solanarpc.Client, walletDir string, log *agentlog.Sink) *SupplyHider {
	if log == nil {
		log = agentlog.Default()
	}
	return &SupplyHider{rpc: rpc, walletDir: walletDir, log: log}
}

// HideSupply executes the burn-down plan for dev's holdings of p.Mint.
func (h *SupplyHider) HideSupply(ctx context.Context, dev solana.PrivateKey, p HideSupplyParams) (*HideSupplyResult, error) {
	if p.TargetBaseUnits == 0 || p.TargetBaseUnits > p.SupplyBaseUnits {
		return nil, fmt.Errorf("fundsrouter: hide_supply: target %d out of range of supply %d", p.TargetBaseUnits, p.SupplyBaseUnits)
	}

	hops, err := PlanHops(p.TargetBaseUnits, p.SupplyBaseUnits, p.FeeBasisPoints, p.MaxFee)
	if err != nil {
		return nil, fmt.Errorf("fundsrouter: hide_supply: %w", err)
	}
	if len(hops) == 0 {
		return nil, fmt.Errorf("fundsrouter: hide_supply: planning failed, empty hops")
	}

	devATA, _, err := ixbuilder.AssociatedTokenAddress(dev.PublicKey(), p.Mint, p.TokenProgram)
	if err != nil {
		return nil, fmt.Errorf("fundsrouter: hide_supply: dev ata: %w", err)
	}

	b := newInstructionBatcher(h.rpc, dev, h.log)

	srcWallet := dev
	srcATA := devATA

	for i, gross := range hops {
		isLast := i == len(hops)-1

		if !isLast {
			tmp, err := solana.NewRandomPrivateKey()
			if err != nil {
				return nil, fmt.Errorf("fundsrouter: hide_supply: generate hop wallet %d: %w", i, err)
			}
			if err := walletstore.PersistWallet(h.walletDir, tmp); err != nil {
				return nil, fmt.Errorf("fundsrouter: hide_supply: persist hop wallet %d: %w", i, err)
			}
			tmpATA, _, err := ixbuilder.AssociatedTokenAddress(tmp.PublicKey(), p.Mint, p.TokenProgram)
			if err != nil {
				return nil, fmt.Errorf("fundsrouter: hide_supply: hop %d ata: %w", i, err)
			}

			createIx, _, err := ixbuilder.BuildCreateIdempotentATAInstruction(dev.PublicKey(), tmp.PublicKey(), p.Mint, p.TokenProgram)
			if err != nil {
				return nil, fmt.Errorf("fundsrouter: hide_supply: hop %d create ata ix: %w", i, err)
			}
			if err := b.push(ctx, createIx, []solana.PrivateKey{dev}, "create ATA"); err != nil {
				return nil, err
			}

			transferIx := ixbuilder.BuildTransferCheckedInstruction(p.TokenProgram, srcATA, p.Mint, tmpATA, srcWallet.PublicKey(), gross, p.Decimals)
			if err := b.push(ctx, transferIx, []solana.PrivateKey{srcWallet}, fmt.Sprintf("transfer hop %d", i+1)); err != nil {
				return nil, err
			}

			srcWallet, srcATA = tmp, tmpATA
		} else {
			transferIx := ixbuilder.BuildTransferCheckedInstruction(p.TokenProgram, srcATA, p.Mint, devATA, srcWallet.PublicKey(), gross, p.Decimals)
			if err := b.push(ctx, transferIx, []solana.PrivateKey{srcWallet}, fmt.Sprintf("transfer hop %d (to dev)", i+1)); err != nil {
				return nil, err
			}
		}
	}

	lastNet := NetOf(hops[len(hops)-1], p.FeeBasisPoints, p.MaxFee)
	burnDelta := uint64(0)
	if lastNet > p.TargetBaseUnits {
		burnDelta = lastNet - p.TargetBaseUnits
		burnIx := ixbuilder.BuildBurnInstruction(p.TokenProgram, devATA, p.Mint, dev.PublicKey(), burnDelta)
		if err := b.push(ctx, burnIx, []solana.PrivateKey{dev}, "burn delta to target"); err != nil {
			return nil, err
		}
	}

	if err := b.flush(ctx, "final"); err != nil {
		return nil, err
	}

	return &HideSupplyResult{
		HopsCount:  len(hops),
		LastNet:    lastNet,
		Target:     p.TargetBaseUnits,
		BurnDelta:  burnDelta,
		Signatures: b.signatures,
	}, nil
}

// instructionBatcher packs instructions into as few transactions as fit
// under hideSupplyPacketLimit, flushing early when the next instruction
// would overflow. Grounded on hide_supply's push/flush closures.
type instructionBatcher struct {
	rpc    *solanarpc.Client
	payer  solana.PrivateKey
	log    *agentlog.Sink

	pending    []solana.Instruction
	signers    map[solana.PublicKey]solana.PrivateKey
	signatures []solana.Signature
}

func newInstructionBatcher(rpc *solanarpc.Client, payer solana.PrivateKey, log *agentlog.Sink) *instructionBatcher {
	return &instructionBatcher{
		rpc:     rpc,
		payer:   payer,
		log:     log,
		signers: map[solana.PublicKey]solana.PrivateKey{payer.PublicKey(): payer},
	}
}

func (b *instructionBatcher) push(ctx context.Context, ix solana.Instruction, signers []solana.PrivateKey, label string) error {
	trial := append(append([]solana.Instruction{}, b.pending...), ix)

	size, err := estimateTransactionSize(b.payer.PublicKey(), trial)
	if err != nil {
		return fmt.Errorf("fundsrouter: estimate tx size: %w", err)
	}

	if size > hideSupplyPacketLimit && len(b.pending) > 0 {
		if err := b.flush(ctx, label); err != nil {
			return err
		}
		b.pending = append(b.pending, ix)
	} else {
		b.pending = trial
	}
	for _, s := range signers {
		b.signers[s.PublicKey()] = s
	}
	return nil
}

func (b *instructionBatcher) flush(ctx context.Context, label string) error {
	if len(b.pending) == 0 {
		return nil
	}
	signers := make([]solana.PrivateKey, 0, len(b.signers))
	for _, s := range b.signers {
		signers = append(signers, s)
	}

	sig, confirmed, err := b.rpc.BuildAndSend(ctx, solanarpc.BuildAndSendParams{
		Instructions:      b.pending,
		MsgSigner:         b.payer,
		Signers:           signers,
		MaxRetries:        1,
		MaxConfirmRetries: 10,
		Label:             label,
	})
	if err != nil {
		b.log.Alert("hide_supply batch %q failed: %v", label, err)
		return fmt.Errorf("fundsrouter: flush %q: %w", label, err)
	}
	if !confirmed {
		b.log.Alert("hide_supply batch %q sent but not confirmed: %s", label, sig)
	}

	b.signatures = append(b.signatures, sig)
	b.pending = nil
	b.signers = map[solana.PublicKey]solana.PrivateKey{b.payer.PublicKey(): b.payer}
	return nil
}

// estimateTransactionSize builds an (unsigned) transaction over a zero
// blockhash purely to measure its wire size via solana-go's own encoder —
// more direct than reconstructing the signature/account-key overhead by
// hand.
func estimateTransactionSize(payer solana.PublicKey, ixs []solana.Instruction) (int, error) {
	tx, err := solana.NewTransaction(ixs, solana.Hash{}, solana.TransactionPayer(payer))
	if err != nil {
		return 0, err
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		return 0, err
	}
	return len(raw), nil
}
