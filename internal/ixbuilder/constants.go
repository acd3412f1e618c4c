// Package ixbuilder assembles the raw Raydium CP-Swap and Token-2022
// instructions the agent needs: mint creation (with transfer-fee and
// metadata-pointer extensions), pool initialization, and LP withdrawal.
// Grounded on original_source/app/core/ix_builders.go's discriminators and
// account-meta orderings and original_source/app/core/utils.go's PDA
// derivations, reimplemented over github.com/gagliardetto/solana-go in
// place of solders.
package ixbuilder

import "github.com/gagliardetto/solana-go"

// Program IDs. RaydiumCPProgramID, MemoProgramID and CreatePoolFeeReceiver
// have no solana-go well-known constant; Token2022ProgramID,
// TokenProgramID, AssociatedTokenProgramID and SystemProgramID are taken
// from solana-go's own well-known set to stay consistent with the rest of
// the module's account plumbing.
var (
	RaydiumCPProgramID       = solana.MustPublicKeyFromBase58("CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C")
	CreatePoolFeeReceiverID  = solana.MustPublicKeyFromBase58("DNXgeM9EiiaAbaWvwjHj9fQQLAX5ZsfHyvmYUNRAdNC8")
	MemoProgramID            = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")
	TokenProgramID           = solana.TokenProgramID
	Token2022ProgramID       = solana.Token2022ProgramID
	AssociatedTokenProgramID = solana.SPLAssociatedTokenAccountProgramID
	SystemProgramID          = solana.SystemProgramID
	SysVarRentID             = solana.SysVarRentPubkey
	WrappedSOLMint           = solana.SolMint
)

// PDA seeds.
var (
	AMMConfigSeed = []byte("amm_config")
	PoolSeed      = []byte("pool")
	LPMintSeed    = []byte("pool_lp_mint")
	PoolVaultSeed = []byte("pool_vault")
	AuthSeed      = []byte("vault_and_lp_mint_auth_seed")
	ObservationSeed = []byte("observation")
)

// Anchor instruction discriminators, sourced verbatim from the Raydium
// CP-Swap IDL.
var (
	InitializeDiscriminator     = [8]byte{175, 175, 109, 31, 13, 152, 155, 237}
	SwapBaseInputDiscriminator  = [8]byte{143, 190, 90, 218, 196, 30, 51, 222}
	SwapBaseOutputDiscriminator = [8]byte{55, 217, 98, 86, 163, 74, 180, 173}
	WithdrawDiscriminator       = [8]byte{183, 18, 70, 156, 148, 109, 161, 34}
)

// Token-2022 extension instruction discriminators (single-byte, SPL-Token
// program instruction enum — not Anchor 8-byte discriminators).
const (
	tokenMetadataPointerIx byte = 39
	tokenMetadataPointerInitializeSub byte = 0
	tokenTransferFeeConfigIx byte = 26
	tokenTransferFeeConfigInitializeSub byte = 0
	tokenInitializeMintIx byte = 0
)

// Token-metadata program (spl-token-metadata-interface "initialize"
// instruction) discriminator: the first 8 bytes of
// sha256("spl_token_metadata_interface:initialize_account").
var TokenMetadataInitializeDiscriminator = [8]byte{0xd2, 0xe1, 0x1e, 0xa2, 0x58, 0xb8, 0x4d, 0x8d}

const (
	AMMConfigIndex = uint16(0)
	LockLPTokens   = uint64(100)
)
