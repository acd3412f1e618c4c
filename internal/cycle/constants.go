package cycle

// TokenDecimals is the decimal precision of every mint this agent creates.
// Grounded on TOKEN_DECIMALS.
const TokenDecimals uint8 = 9

const (
	million         = 1_000_000
	lamportsPerSOL  = 1_000_000_000
	tokenWithDecimals = 1_000_000_000 // 10**TokenDecimals

	// createMintAccountLamports/createMintAccountSpace size the raw
	// system account a Token-2022 mint with transfer-fee + metadata-
	// pointer extensions needs. Grounded on
	// CREATE_MINT_ACCOUNT_LAMPORTS/CREATE_MINT_ACCOUNT_SPACE.
	createMintAccountLamports = 5_066_880
	createMintAccountSpace    = 346

	// launchCostLamports is the fixed SOL overhead of creating the mint
	// and pool, folded into the per-cycle dev funding target. Grounded
	// on LAUNCH_COST_LAMPORTS.
	launchCostLamports = 201_570_260

	// transferFeeBasisPoints/transferFeePercent configure the Token-2022
	// transfer-fee extension every minted token carries. Grounded on
	// TRANSFER_FEE_BPS/TRANSFER_FEE_PERCENT.
	transferFeeBasisPoints = 1000
	transferFeePercent     = transferFeeBasisPoints / 100

	// totalSupplyWholeTokens is the fixed total supply minted for every
	// token, in whole (pre-decimals) tokens. Grounded on SUPPLY.
	totalSupplyWholeTokens = 1_000_000_000
)

func solToLamports(sol float64) uint64 {
	return uint64(sol * lamportsPerSOL)
}

func lamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / lamportsPerSOL
}

// tokensUIToBaseUnits converts a "millions of tokens" UI amount into base
// units at TokenDecimals precision. Grounded on tokens_ui_to_base_units.
func tokensUIToBaseUnits(amountUIMillions int64, decimals uint8) uint64 {
	scale := uint64(1)
	for i := uint8(0); i < decimals; i++ {
		scale *= 10
	}
	return uint64(amountUIMillions) * million * scale
}

// tokenAmountAfterFee returns amount with feePercent (whole percent, not
// bps) subtracted, floored. Grounded on get_token_amount_after_fee.
func tokenAmountAfterFee(amount uint64, feePercent uint64) uint64 {
	return amount * (100 - feePercent) / 100
}
