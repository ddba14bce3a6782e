package program

import "github.com/gagliardetto/solana-go"

var (
	Vault     = solana.MustPublicKeyFromBase58("AhTopKWSdP3wE4aBfWtp2tjJHRvAy4JVkfycPsPDW2kx")
	SarosDLMM = solana.MustPublicKeyFromBase58("1qbkdrr3z4ryLA7pZykqxvxWPoeifcVKo6ZG9CfkvVE")
	TokenSwap = solana.MustPublicKeyFromBase58("SwaPpA9LAaLfeLi3a68M4DjnLqgtticKg6CnyNwgAC8")
	OrcaV2    = solana.MustPublicKeyFromBase58("9W959DqEETiGZocYWCQPaJ6sBmUzgfxXfqGeTEdp3aQP")
	Token     = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	System    = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	SysRent   = solana.MustPublicKeyFromBase58("SysvarRent111111111111111111111111111111111")
)

var (
	USDC  = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	SAROS = solana.MustPublicKeyFromBase58("SarosY6Vscao718M4A778z4CGtvcwcGef5M9MEH1LGL")
)

const (
	AMM  = "AMM"
	DLMM = "DLMM"
)
