package fundsrouter

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/blackhole-labs/solcycle/internal/agentlog"
	"github.com/blackhole-labs/solcycle/internal/solanarpc"
	"github.com/blackhole-labs/solcycle/internal/walletstore"
)

// DefaultHopFeeLamports is the per-hop fee reserve front-loaded onto each
// intermediate transfer so every ephemeral wallet can afford its own
// outgoing transaction fee. Grounded on distribute_via_chain's
// fee_lamports default.
const DefaultHopFeeLamports = uint64(5_000)

const chainHopCount = 4 // fund -> tmp1 -> tmp2 -> tmp3 -> destination

// ChainRouter relays lamports through three ephemeral wallets before
// reaching their destination, so the destination never receives a direct
// transaction from fund.
type ChainRouter struct {
	rpc       *solanarpc.Client
	walletDir string
	log       *agentlog.Sink
}

// NewChainRouter builds a ChainRouter. walletDir is where ephemeral hop
// wallets are persisted, matching the rest of the module's wallet-file
// convention.
func NewChainRouter(rpc *solanarpc.Client, walletDir string, log *agentlog.Sink) *ChainRouter {
	if log == nil {
		log = agentlog.Default()
	}
	return &ChainRouter{rpc: rpc, walletDir: walletDir, log: log}
}

// ChainHopResult reports the ephemeral path taken and each hop's
// confirmed signature, in order.
type ChainHopResult struct {
	Path       []solana.PublicKey
	Signatures []solana.Signature
}

// RouteLamports sends netAmount lamports from `from` to `dest`, relaying
// through 3 freshly generated wallets. Each upstream hop carries
// netAmount plus feeLamports for every hop still downstream of it, so
// every intermediate wallet receives exactly enough to cover its own
// relay fee. Grounded on distribute_via_chain.
func (r *ChainRouter) RouteLamports(ctx context.Context, from solana.PrivateKey, dest solana.PublicKey, netAmount, feeLamports uint64) (*ChainHopResult, error) {
	if feeLamports == 0 {
		feeLamports = DefaultHopFeeLamports
	}

	tmps := make([]solana.PrivateKey, chainHopCount-1)
	for i := range tmps {
		kp, err := solana.NewRandomPrivateKey()
		if err != nil {
			return nil, fmt.Errorf("fundsrouter: generate hop wallet %d: %w", i, err)
		}
		if err := walletstore.PersistWallet(r.walletDir, kp); err != nil {
			return nil, fmt.Errorf("fundsrouter: persist hop wallet %d: %w", i, err)
		}
		tmps[i] = kp
	}

	senders := append([]solana.PrivateKey{from}, tmps...)
	receivers := append(append([]solana.PublicKey{}, pubkeysOf(tmps)...), dest)

	result := &ChainHopResult{
		Path:       pubkeysOf(tmps),
		Signatures: make([]solana.Signature, 0, chainHopCount),
	}

	for i := 0; i < chainHopCount; i++ {
		downstream := uint64(chainHopCount - i - 1)
		amount := netAmount + downstream*feeLamports

		ix := system.NewTransferInstruction(amount, senders[i].PublicKey(), receivers[i]).Build()
		sig, confirmed, err := r.rpc.BuildAndSend(ctx, solanarpc.BuildAndSendParams{
			Instructions:      []solana.Instruction{ix},
			MsgSigner:         senders[i],
			MaxRetries:        5,
			MaxConfirmRetries: 10,
			Label:             fmt.Sprintf("chain_hop_%d", i+1),
		})
		if err != nil {
			return result, fmt.Errorf("fundsrouter: hop %d (%s -> %s): %w", i+1, senders[i].PublicKey(), receivers[i], err)
		}
		if !confirmed {
			r.log.Alert("chain hop %d/%d sent but not confirmed: %s", i+1, chainHopCount, sig)
		}
		result.Signatures = append(result.Signatures, sig)
	}

	return result, nil
}

func pubkeysOf(keys []solana.PrivateKey) []solana.PublicKey {
	out := make([]solana.PublicKey, len(keys))
	for i, k := range keys {
		out[i] = k.PublicKey()
	}
	return out
}
