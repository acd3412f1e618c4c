package ixbuilder

import (
	"encoding/binary"
	"math/big"

	"github.com/gagliardetto/solana-go"
)

// InitializePoolParams mirrors LiquidityPoolData's pool-relevant fields
// from build_initialize_pool_ix.
type InitializePoolParams struct {
	Creator         solana.PublicKey
	PoolState       solana.PublicKey
	PoolStateSigner bool // true when PoolState is a fresh keypair rather than a PDA
	TokenMint0      solana.PublicKey
	TokenMint1      solana.PublicKey
	LPMint          solana.PublicKey
	CreatorToken0   solana.PublicKey
	CreatorToken1   solana.PublicKey
	CreatorLPToken  solana.PublicKey
	Token0Vault     solana.PublicKey
	Token1Vault     solana.PublicKey
	Observation     solana.PublicKey
	Token0Program   solana.PublicKey
	Token1Program   solana.PublicKey
	Token0Amount    uint64
	Token1Amount    uint64
	OpenTimeUnix    uint64
}

// BuildInitializePoolInstruction assembles the Raydium CP-Swap
// "initialize" instruction. Grounded on build_initialize_pool_ix.
func BuildInitializePoolInstruction(p InitializePoolParams) (solana.Instruction, error) {
	ammConfig, _, err := AMMConfigAddress(AMMConfigIndex)
	if err != nil {
		return nil, err
	}
	authority, _, err := AuthorityAddress()
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, 8+8+8+8)
	data = append(data, InitializeDiscriminator[:]...)
	data = appendU64LE(data, p.Token0Amount)
	data = appendU64LE(data, p.Token1Amount)
	data = appendU64LE(data, p.OpenTimeUnix)

	metas := solana.AccountMetaSlice{
		solana.Meta(p.Creator).SIGNER().WRITE(),
		solana.Meta(ammConfig),
		solana.Meta(authority),
		signerIf(solana.Meta(p.PoolState).WRITE(), p.PoolStateSigner),
		solana.Meta(p.TokenMint0),
		solana.Meta(p.TokenMint1),
		solana.Meta(p.LPMint).WRITE(),
		solana.Meta(p.CreatorToken0).WRITE(),
		solana.Meta(p.CreatorToken1).WRITE(),
		solana.Meta(p.CreatorLPToken).WRITE(),
		solana.Meta(p.Token0Vault).WRITE(),
		solana.Meta(p.Token1Vault).WRITE(),
		solana.Meta(CreatePoolFeeReceiverID).WRITE(),
		solana.Meta(p.Observation).WRITE(),
		solana.Meta(TokenProgramID),
		solana.Meta(p.Token0Program),
		solana.Meta(p.Token1Program),
		solana.Meta(AssociatedTokenProgramID),
		solana.Meta(SystemProgramID),
		solana.Meta(SysVarRentID),
	}

	return solana.NewInstruction(RaydiumCPProgramID, metas, data), nil
}

func signerIf(m *solana.AccountMeta, isSigner bool) *solana.AccountMeta {
	if isSigner {
		return m.SIGNER()
	}
	return m
}

// WithdrawParams mirrors build_withdraw_ix's tx_data fields.
type WithdrawParams struct {
	Creator        solana.PublicKey
	Authority      solana.PublicKey
	PoolState      solana.PublicKey
	CreatorLPToken solana.PublicKey
	Token0ATA      solana.PublicKey
	Token1ATA      solana.PublicKey
	Token0Vault    solana.PublicKey
	Token1Vault    solana.PublicKey
	TokenMint0     solana.PublicKey
	TokenMint1     solana.PublicKey
	LPMint         solana.PublicKey

	LPTokenAmount uint64
	MinToken0     uint64
	MinToken1     uint64
}

// BuildWithdrawInstruction assembles the Raydium CP-Swap "withdraw"
// instruction, draining liquidity back to the creator's token accounts.
// Grounded on build_withdraw_ix.
func BuildWithdrawInstruction(p WithdrawParams) solana.Instruction {
	data := make([]byte, 0, 8+8+8+8)
	data = append(data, WithdrawDiscriminator[:]...)
	data = appendU64LE(data, p.LPTokenAmount)
	data = appendU64LE(data, p.MinToken0)
	data = appendU64LE(data, p.MinToken1)

	metas := solana.AccountMetaSlice{
		solana.Meta(p.Creator).SIGNER().WRITE(),
		solana.Meta(p.Authority),
		solana.Meta(p.PoolState).WRITE(),
		solana.Meta(p.CreatorLPToken).WRITE(),
		solana.Meta(p.Token0ATA).WRITE(),
		solana.Meta(p.Token1ATA).WRITE(),
		solana.Meta(p.Token0Vault).WRITE(),
		solana.Meta(p.Token1Vault).WRITE(),
		solana.Meta(TokenProgramID),
		solana.Meta(Token2022ProgramID),
		solana.Meta(p.TokenMint0),
		solana.Meta(p.TokenMint1),
		solana.Meta(p.LPMint).WRITE(),
		solana.Meta(MemoProgramID),
	}

	return solana.NewInstruction(RaydiumCPProgramID, metas, data)
}

// BuildInitializeMintInstruction assembles the Token-2022
// "InitializeMint" instruction. hasFreezeAuthority=false encodes "none" and
// freezeAuthority is then ignored. Grounded on build_initialize_mint_ix.
func BuildInitializeMintInstruction(mint, mintAuthority, freezeAuthority solana.PublicKey, hasFreezeAuthority bool, decimals uint8) solana.Instruction {
	data := []byte{tokenInitializeMintIx, decimals}
	data = append(data, mintAuthority.Bytes()...)
	data = append(data, encodeOptionalPubkey(freezeAuthority, hasFreezeAuthority)...)

	metas := solana.AccountMetaSlice{
		solana.Meta(mint).WRITE(),
		solana.Meta(SysVarRentID),
	}
	return solana.NewInstruction(Token2022ProgramID, metas, data)
}

// BuildInitializeMetadataPointerInstruction assembles the Token-2022
// metadata-pointer extension's "Initialize" instruction. A zero
// authority/metadataAddress pubkey encodes as the "unset" all-zero sentinel,
// matching encode_zeroable_option.
func BuildInitializeMetadataPointerInstruction(mint, authority, metadataAddress solana.PublicKey) solana.Instruction {
	data := []byte{tokenMetadataPointerIx, tokenMetadataPointerInitializeSub}
	data = append(data, encodeZeroableOption(authority)...)
	data = append(data, encodeZeroableOption(metadataAddress)...)

	metas := solana.AccountMetaSlice{
		solana.Meta(mint).WRITE(),
	}
	return solana.NewInstruction(Token2022ProgramID, metas, data)
}

// BuildInitializeTransferFeeConfigInstruction assembles the Token-2022
// transfer-fee extension's "Initialize" instruction, setting both the
// transfer-fee-config and withdraw-withheld-authority to the same
// authority. Grounded on build_initialize_transfer_fee_config_ix.
func BuildInitializeTransferFeeConfigInstruction(mint, authority solana.PublicKey, basisPoints uint16, maxFee uint64) solana.Instruction {
	data := []byte{tokenTransferFeeConfigIx, tokenTransferFeeConfigInitializeSub}
	data = append(data, encodeOptionalPubkey(authority, true)...)
	data = append(data, encodeOptionalPubkey(authority, true)...)
	data = appendU16LE(data, basisPoints)
	data = appendU64LE(data, maxFee)

	metas := solana.AccountMetaSlice{
		solana.Meta(mint).WRITE(),
	}
	return solana.NewInstruction(Token2022ProgramID, metas, data)
}

// BuildInitializeTokenMetadataInstruction assembles the spl-token-metadata-
// interface "initialize" instruction written directly into the mint's
// metadata-pointer extension space. Grounded on
// build_initialize_token_metadata_ix.
func BuildInitializeTokenMetadataInstruction(metadata, updateAuthority, mint, mintAuthority solana.PublicKey, name, symbol, uri string) solana.Instruction {
	data := make([]byte, 0, 8+4+len(name)+4+len(symbol)+4+len(uri))
	data = append(data, TokenMetadataInitializeDiscriminator[:]...)
	data = append(data, encodeString(name)...)
	data = append(data, encodeString(symbol)...)
	data = append(data, encodeString(uri)...)

	metas := solana.AccountMetaSlice{
		solana.Meta(metadata).WRITE(),
		solana.Meta(updateAuthority),
		solana.Meta(mint),
		solana.Meta(mintAuthority).SIGNER(),
	}
	return solana.NewInstruction(Token2022ProgramID, metas, data)
}

func appendU64LE(dst []byte, v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(dst, buf[:]...)
}

func appendU16LE(dst []byte, v uint16) []byte {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return append(dst, buf[:]...)
}

func encodeString(s string) []byte {
	out := make([]byte, 0, 4+len(s))
	out = appendU32LE(out, uint32(len(s)))
	return append(out, s...)
}

func appendU32LE(dst []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}

// encodeZeroableOption encodes pubkey as its 32 bytes, or 32 zero bytes
// when absent — the COption<Pubkey> encoding the metadata-pointer
// extension expects, where "unset" is the all-zero pubkey rather than a
// leading presence byte.
func encodeZeroableOption(pubkey solana.PublicKey) []byte {
	if pubkey.IsZero() {
		return make([]byte, 32)
	}
	return pubkey.Bytes()
}

// encodeOptionalPubkey encodes the SPL-Token COption<Pubkey> wire format: a
// leading presence byte followed by the 32-byte pubkey when present.
func encodeOptionalPubkey(pubkey solana.PublicKey, present bool) []byte {
	if !present {
		return []byte{0}
	}
	out := make([]byte, 0, 33)
	out = append(out, 1)
	return append(out, pubkey.Bytes()...)
}

// isqrt returns floor(sqrt(n)) for a uint64 n, matching math.isqrt's
// semantics. n is a uint64, so a product wider than 64 bits cannot be
// passed here; CalculateLPTokensExpected does its own wide product and
// square root in math/big.
func isqrt(n uint64) uint64 {
	return new(big.Int).Sqrt(new(big.Int).SetUint64(n)).Uint64()
}

// CalculateLPTokensExpected returns isqrt(vault0*vault1) - lockLP, the
// amount of LP the pool is expected to mint to the creator net of the
// protocol's permanently-locked minimum liquidity. Grounded on
// calculate_lp_tokens. vault0*vault1 routinely exceeds 2^64 for realistic
// token/SOL amounts (math.isqrt operates on Python's unbounded ints), so
// the product and its square root are computed in math/big rather than
// uint64 arithmetic.
func CalculateLPTokensExpected(vault0, vault1, lockLP uint64) uint64 {
	product := new(big.Int).Mul(new(big.Int).SetUint64(vault0), new(big.Int).SetUint64(vault1))
	raw := new(big.Int).Sqrt(product)

	lockLPBig := new(big.Int).SetUint64(lockLP)
	if raw.Cmp(lockLPBig) < 0 {
		return 0
	}
	return new(big.Int).Sub(raw, lockLPBig).Uint64()
}
