package cycle

import "github.com/gagliardetto/solana-go"

// tokenState is the freshly generated mint plus the metadata copied from
// the contract address the agent was pointed at. Grounded on TokenDTO.
type tokenState struct {
	Keypair solana.PrivateKey
	Name    string
	Symbol  string
	URI     string
}

func (t *tokenState) Mint() solana.PublicKey { return t.Keypair.PublicKey() }

// poolState is every account the Raydium CP-Swap pool needs, derived once
// token0/token1 ordering is known. Grounded on LiquidityPoolData.
type poolState struct {
	TokenMint0, TokenMint1       solana.PublicKey
	Token0Program, Token1Program solana.PublicKey
	Token0Amount, Token1Amount   uint64

	PoolState      solana.PublicKey
	Authority      solana.PublicKey
	LPMint         solana.PublicKey
	CreatorLPToken solana.PublicKey
	Token0Vault    solana.PublicKey
	Token1Vault    solana.PublicKey
	Observation    solana.PublicKey

	Token0ATA solana.PublicKey
	Token1ATA solana.PublicKey

	// LiqVault is the vault holding wrapped SOL, the side the PnL monitor
	// watches.
	LiqVault solana.PublicKey

	LPAmountExpected uint64
}
