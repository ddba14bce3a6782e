package program

import (
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// SwapResult is the outcome of one swap leg against a pool model. Amounts are
// in the smallest unit of the respective mint. NewReserveSrc/NewReserveDst are
// the pool reserves after the swap, in the pool's own ordering.
type SwapResult struct {
	TokenIn       solana.PublicKey
	AmountIn      uint64
	SlotIn        uint64
	TokenOut      solana.PublicKey
	AmountOut     uint64
	SlotOut       uint64
	NewReserveSrc uint64
	NewReserveDst uint64
}

// Model is the capability interface over one external liquidity pool.
// Different pool programs (DLMM bins, constant product) provide their own
// implementation; callers select by the pool account's owner.
type Model interface {
	Program() solana.PublicKey
	Id() solana.PublicKey
	Type() string
	TokenPair() []solana.PublicKey
	CurrentSlot() uint64
	// Reserves returns the pool's balances in TokenPair order.
	Reserves() (uint64, uint64)
	// Price is TokenPair[1] per TokenPair[0], fixed point with at least
	// six fractional digits.
	Price() decimal.Decimal
	// Swap computes the output for amount of token paid in. It does not
	// mutate the pool.
	Swap(token solana.PublicKey, amount uint64) (*SwapResult, error)
}
