package dlmm

import (
	"fmt"
	"math/big"

	"github.com/amalnathsathyan/resonance-vault/program"
	"github.com/amalnathsathyan/resonance-vault/vault"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Model adapts one DLMM pair to the pool capability interface. The pair
// layout carries no mint identities, so the pair's native ordering is taken
// from the caller: TokenX is the base side (liquidity X), TokenY the quote.
type Model struct {
	ProgramId solana.PublicKey
	Pair      *KeyedPair
	TokenX    solana.PublicKey
	TokenY    solana.PublicKey
}

func (m *Model) Program() solana.PublicKey {
	return m.ProgramId
}

func (m *Model) Id() solana.PublicKey {
	return m.Pair.Key
}

func (m *Model) Type() string {
	return program.DLMM
}

func (m *Model) TokenPair() []solana.PublicKey {
	return []solana.PublicKey{m.TokenX, m.TokenY}
}

func (m *Model) CurrentSlot() uint64 {
	return m.Pair.Height
}

func (m *Model) Reserves() (uint64, uint64) {
	return m.Pair.TotalLiquidityX, m.Pair.TotalLiquidityY
}

func (m *Model) Price() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(m.Pair.CurrentPrice), -6)
}

// Swap quotes a fill at the active bin price, capped by the opposite-side
// liquidity. Fee drag lives in the bins the adapter does not walk; the
// slippage floors guard the difference at execution time.
func (m *Model) Swap(token solana.PublicKey, amount uint64) (*program.SwapResult, error) {
	if token != m.TokenX && token != m.TokenY {
		return nil, fmt.Errorf("token is not in this pool")
	}
	if amount == 0 {
		return nil, fmt.Errorf("amount is too small")
	}
	price := new(big.Int).SetUint64(m.Pair.CurrentPrice)
	if price.Sign() == 0 {
		return nil, fmt.Errorf("pair has no active price")
	}
	scale := new(big.Int).SetUint64(PriceScale)
	amountIn := new(big.Int).SetUint64(amount)
	if token == m.TokenY {
		// spend quote, receive base
		out := new(big.Int).Div(new(big.Int).Mul(amountIn, scale), price)
		if !out.IsUint64() {
			return nil, vault.ErrArithmeticOverflow
		}
		amountOut := out.Uint64()
		if amountOut > m.Pair.TotalLiquidityX {
			amountOut = m.Pair.TotalLiquidityX
		}
		return &program.SwapResult{
			TokenIn:       m.TokenY,
			AmountIn:      amount,
			SlotIn:        m.Pair.Height,
			TokenOut:      m.TokenX,
			AmountOut:     amountOut,
			SlotOut:       m.Pair.Height,
			NewReserveSrc: m.Pair.TotalLiquidityY + amount,
			NewReserveDst: m.Pair.TotalLiquidityX - amountOut,
		}, nil
	}
	// spend base, receive quote
	out := new(big.Int).Div(new(big.Int).Mul(amountIn, price), scale)
	if !out.IsUint64() {
		return nil, vault.ErrArithmeticOverflow
	}
	amountOut := out.Uint64()
	if amountOut > m.Pair.TotalLiquidityY {
		amountOut = m.Pair.TotalLiquidityY
	}
	return &program.SwapResult{
		TokenIn:       m.TokenX,
		AmountIn:      amount,
		SlotIn:        m.Pair.Height,
		TokenOut:      m.TokenY,
		AmountOut:     amountOut,
		SlotOut:       m.Pair.Height,
		NewReserveSrc: m.Pair.TotalLiquidityX + amount,
		NewReserveDst: m.Pair.TotalLiquidityY - amountOut,
	}, nil
}
