package ixbuilder

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// AMMConfigAddress derives the global amm_config PDA for the given config
// index.
func AMMConfigAddress(index uint16) (solana.PublicKey, uint8, error) {
	var idxBuf [2]byte
	binary.BigEndian.PutUint16(idxBuf[:], index)
	addr, bump, err := solana.FindProgramAddress(
		[][]byte{AMMConfigSeed, idxBuf[:]},
		RaydiumCPProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("ixbuilder: amm_config address: %w", err)
	}
	return addr, bump, nil
}

// AuthorityAddress derives the pool vault/lp-mint authority PDA.
func AuthorityAddress() (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress([][]byte{AuthSeed}, RaydiumCPProgramID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("ixbuilder: authority address: %w", err)
	}
	return addr, bump, nil
}

// PoolAddress derives the pool_state PDA. tokenMint0/tokenMint1 must
// already be in canonical byte-lexicographic order.
func PoolAddress(ammConfig, tokenMint0, tokenMint1 solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(
		[][]byte{PoolSeed, ammConfig.Bytes(), tokenMint0.Bytes(), tokenMint1.Bytes()},
		RaydiumCPProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("ixbuilder: pool address: %w", err)
	}
	return addr, bump, nil
}

// PoolVaultAddress derives a pool's token vault PDA for the given mint.
func PoolVaultAddress(pool, vaultTokenMint solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(
		[][]byte{PoolVaultSeed, pool.Bytes(), vaultTokenMint.Bytes()},
		RaydiumCPProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("ixbuilder: pool vault address: %w", err)
	}
	return addr, bump, nil
}

// PoolLPMintAddress derives the pool's LP mint PDA.
func PoolLPMintAddress(pool solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress([][]byte{LPMintSeed, pool.Bytes()}, RaydiumCPProgramID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("ixbuilder: pool lp mint address: %w", err)
	}
	return addr, bump, nil
}

// ObservationAddress derives the pool's price-observation state PDA.
func ObservationAddress(pool solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress([][]byte{ObservationSeed, pool.Bytes()}, RaydiumCPProgramID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("ixbuilder: observation address: %w", err)
	}
	return addr, bump, nil
}

// AssociatedTokenAddress derives the ATA for owner/mint under the given
// token program (TokenProgramID or Token2022ProgramID).
func AssociatedTokenAddress(owner, mint, tokenProgram solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(
		[][]byte{owner.Bytes(), tokenProgram.Bytes(), mint.Bytes()},
		AssociatedTokenProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("ixbuilder: associated token address: %w", err)
	}
	return addr, bump, nil
}

// OrderTokenMints returns (mint0, mint1, swapped) with mint0/mint1 in
// canonical byte-lexicographic order, the ordering every CP-Swap PDA and
// vault assignment depends on.
func OrderTokenMints(a, b solana.PublicKey) (mint0, mint1 solana.PublicKey, swapped bool) {
	if bytesLess(a.Bytes(), b.Bytes()) {
		return a, b, false
	}
	return b, a, true
}

func bytesLess(a, b []byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
