package calculator

import (
	"fmt"
	"math/big"

	"github.com/amalnathsathyan/resonance-vault/oracle"
	"github.com/amalnathsathyan/resonance-vault/vault"
)

// OptimalAmountIn derives the largest sensible quote amount for one cycle:
//
//	min( R_x^buy * P_buy * (1 - f),  R_y^sell / ((1 - f) * P_buy) )
//
// capped by the vault's available quote balance. The first term is the buy
// pool's capacity to hand out base, the second the sell pool's capacity to
// pay quote back.
func OptimalAmountIn(buy, sell *oracle.Quote, feeBps uint64, vaultBalanceY uint64) (uint64, error) {
	if !sell.Price.GreaterThan(buy.Price) {
		return 0, fmt.Errorf("%w: sell price %s not above buy price %s", vault.ErrNoArbitrageOpportunity, sell.Price, buy.Price)
	}
	if feeBps >= FeeDenominator {
		return 0, vault.ErrInvalidParameters
	}
	priceScaled := buy.Price.Shift(6).BigInt()
	if priceScaled.Sign() <= 0 {
		return 0, fmt.Errorf("%w: buy pool has no price", vault.ErrNoArbitrageOpportunity)
	}
	scale := big.NewInt(1000000)
	feeMult := new(big.Int).SetUint64(FeeDenominator - feeBps)
	feeDenom := new(big.Int).SetUint64(FeeDenominator)

	// buy-side cap, converted to quote units through price and fee
	constraint1 := new(big.Int).SetUint64(buy.ReserveX)
	constraint1.Mul(constraint1, priceScaled)
	constraint1.Mul(constraint1, feeMult)
	constraint1.Div(constraint1, feeDenom)
	constraint1.Div(constraint1, scale)

	// sell-side cap, converted back through fee and price
	constraint2 := new(big.Int).SetUint64(sell.ReserveY)
	constraint2.Mul(constraint2, feeDenom)
	constraint2.Mul(constraint2, scale)
	constraint2.Div(constraint2, new(big.Int).Mul(feeMult, priceScaled))

	optimal := constraint1
	if constraint2.Cmp(optimal) < 0 {
		optimal = constraint2
	}
	if !optimal.IsUint64() {
		return 0, vault.ErrArithmeticOverflow
	}
	amount := optimal.Uint64()
	if amount > vaultBalanceY {
		amount = vaultBalanceY
	}
	if amount == 0 {
		return 0, fmt.Errorf("%w: no capital fits this opportunity", vault.ErrNoArbitrageOpportunity)
	}
	return amount, nil
}
