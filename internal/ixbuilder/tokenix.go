package ixbuilder

import "github.com/gagliardetto/solana-go"

// SPL-Token program instruction indices used by the funds router's
// transfer-fee-aware chain hops and supply-hide burn, plus the token-mint
// lifecycle the cycle orchestrator drives directly (mint, strip
// authorities, wrap/unwrap SOL).
const (
	tokenSetAuthorityIx    byte = 6
	tokenMintToCheckedIx   byte = 14
	tokenBurnIx            byte = 8
	tokenCloseAccountIx    byte = 9
	tokenTransferCheckedIx byte = 12
	tokenSyncNativeIx      byte = 17
)

// AuthorityType selects which authority a SetAuthority instruction targets,
// matching the SPL-Token AuthorityType enum.
type AuthorityType byte

const (
	AuthorityMintTokens   AuthorityType = 0
	AuthorityFreezeAcct   AuthorityType = 1
	AuthorityAccountOwner AuthorityType = 2
	AuthorityCloseAccount AuthorityType = 3
)

// Associated-Token-Account program instruction indices. CreateIdempotent
// (1) is a no-op when the ATA already exists, matching
// create_idempotent_associated_token_account.
const (
	ataCreateIx           byte = 0
	ataCreateIdempotentIx byte = 1
)

// BuildTransferCheckedInstruction assembles an SPL-Token (or Token-2022)
// TransferChecked instruction. tokenProgram selects which token program
// owns source/dest, letting the same builder serve both legacy mints and
// Token-2022 transfer-fee mints.
func BuildTransferCheckedInstruction(tokenProgram, source, mint, dest, owner solana.PublicKey, amount uint64, decimals uint8) solana.Instruction {
	data := []byte{tokenTransferCheckedIx}
	data = appendU64LE(data, amount)
	data = append(data, decimals)

	metas := solana.AccountMetaSlice{
		solana.Meta(source).WRITE(),
		solana.Meta(mint),
		solana.Meta(dest).WRITE(),
		solana.Meta(owner).SIGNER(),
	}
	return solana.NewInstruction(tokenProgram, metas, data)
}

// BuildBurnInstruction assembles an SPL-Token (or Token-2022) Burn
// instruction.
func BuildBurnInstruction(tokenProgram, account, mint, owner solana.PublicKey, amount uint64) solana.Instruction {
	data := []byte{tokenBurnIx}
	data = appendU64LE(data, amount)

	metas := solana.AccountMetaSlice{
		solana.Meta(account).WRITE(),
		solana.Meta(mint).WRITE(),
		solana.Meta(owner).SIGNER(),
	}
	return solana.NewInstruction(tokenProgram, metas, data)
}

// BuildMintToCheckedInstruction assembles an SPL-Token (or Token-2022)
// MintToChecked instruction, minting amount base units of mint into dest.
func BuildMintToCheckedInstruction(tokenProgram, mint, dest, mintAuthority solana.PublicKey, amount uint64, decimals uint8) solana.Instruction {
	data := []byte{tokenMintToCheckedIx}
	data = appendU64LE(data, amount)
	data = append(data, decimals)

	metas := solana.AccountMetaSlice{
		solana.Meta(mint).WRITE(),
		solana.Meta(dest).WRITE(),
		solana.Meta(mintAuthority).SIGNER(),
	}
	return solana.NewInstruction(tokenProgram, metas, data)
}

// BuildSetAuthorityInstruction assembles an SPL-Token (or Token-2022)
// SetAuthority instruction. newAuthorityPresent=false revokes the
// authority permanently (the COption<Pubkey> "none" encoding), matching
// _create_token's post-mint authority strip.
func BuildSetAuthorityInstruction(tokenProgram, account, currentAuthority solana.PublicKey, authorityType AuthorityType, newAuthority solana.PublicKey, newAuthorityPresent bool) solana.Instruction {
	data := []byte{tokenSetAuthorityIx, byte(authorityType)}
	data = append(data, encodeOptionalPubkey(newAuthority, newAuthorityPresent)...)

	metas := solana.AccountMetaSlice{
		solana.Meta(account).WRITE(),
		solana.Meta(currentAuthority).SIGNER(),
	}
	return solana.NewInstruction(tokenProgram, metas, data)
}

// BuildSyncNativeInstruction assembles the legacy SPL-Token SyncNative
// instruction, reconciling a wrapped-SOL account's token balance with its
// lamport balance after a plain system transfer into it.
func BuildSyncNativeInstruction(account solana.PublicKey) solana.Instruction {
	metas := solana.AccountMetaSlice{
		solana.Meta(account).WRITE(),
	}
	return solana.NewInstruction(TokenProgramID, metas, []byte{tokenSyncNativeIx})
}

// BuildCloseAccountInstruction assembles the legacy SPL-Token CloseAccount
// instruction, sending account's remaining lamports to dest and reclaiming
// its rent.
func BuildCloseAccountInstruction(account, dest, owner solana.PublicKey) solana.Instruction {
	metas := solana.AccountMetaSlice{
		solana.Meta(account).WRITE(),
		solana.Meta(dest).WRITE(),
		solana.Meta(owner).SIGNER(),
	}
	return solana.NewInstruction(TokenProgramID, metas, []byte{tokenCloseAccountIx})
}

// BuildCreateIdempotentATAInstruction assembles the Associated-Token-
// Account program's CreateIdempotent instruction: creates owner's ATA for
// mint, paid by payer, succeeding as a no-op if the account already
// exists.
func BuildCreateIdempotentATAInstruction(payer, owner, mint, tokenProgram solana.PublicKey) (solana.Instruction, solana.PublicKey, error) {
	ata, _, err := AssociatedTokenAddress(owner, mint, tokenProgram)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}

	metas := solana.AccountMetaSlice{
		solana.Meta(payer).SIGNER().WRITE(),
		solana.Meta(ata).WRITE(),
		solana.Meta(owner),
		solana.Meta(mint),
		solana.Meta(SystemProgramID),
		solana.Meta(tokenProgram),
	}
	return solana.NewInstruction(AssociatedTokenProgramID, metas, []byte{ataCreateIdempotentIx}), ata, nil
}
