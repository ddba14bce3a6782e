package calculator

import (
	"fmt"
	"math/big"

	"github.com/amalnathsathyan/resonance-vault/oracle"
	"github.com/amalnathsathyan/resonance-vault/vault"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

var (
	// PriceEpsilon is the band inside which two pool prices count as equal.
	// Ties never proceed; fee drag would eat a zero spread.
	PriceEpsilon = decimal.New(1, -6)

	// SlippageToleranceBps shaves the expected leg outputs into the
	// slippage floors handed to the pools.
	SlippageToleranceBps = uint64(50)

	FeeDenominator = uint64(10000)
)

// Decision is an accepted opportunity: buy mintX with mintY on the cheaper
// pool, sell it back on the dearer one. Amounts in/out of the cycle are in
// mintY units, leg 1 output in mintX units.
type Decision struct {
	BuyQuote        *oracle.Quote
	SellQuote       *oracle.Quote
	AmountIn        uint64
	ExpectedOutLeg1 uint64
	ExpectedOutLeg2 uint64
	MinOutLeg1      uint64
	MinOutLeg2      uint64
	ExpectedProfit  uint64
}

// Evaluate decides direction and expected profit for a proposed trade size,
// enforcing the vault's cap and threshold before any capital moves.
func Evaluate(quoteA, quoteB *oracle.Quote, mintX, mintY solana.PublicKey, tradeAmount, minProfitThreshold, maxSingleTrade uint64) (*Decision, error) {
	if tradeAmount == 0 {
		return nil, vault.ErrZeroAmount
	}
	if tradeAmount > maxSingleTrade {
		return nil, fmt.Errorf("%w: %d > %d", vault.ErrTradeExceedsMax, tradeAmount, maxSingleTrade)
	}
	diff := quoteA.Price.Sub(quoteB.Price).Abs()
	if diff.LessThanOrEqual(PriceEpsilon) {
		return nil, fmt.Errorf("%w: prices %s and %s are equal within epsilon", vault.ErrNoArbitrageOpportunity, quoteA.Price, quoteB.Price)
	}
	buy, sell := quoteA, quoteB
	if quoteB.Price.LessThan(quoteA.Price) {
		buy, sell = quoteB, quoteA
	}
	leg1, err := buy.Model.Swap(mintY, tradeAmount)
	if err != nil {
		return nil, fmt.Errorf("%w: leg 1 on pool %s: %s", vault.ErrNoArbitrageOpportunity, buy.Pool, err)
	}
	if leg1.AmountOut == 0 {
		return nil, fmt.Errorf("%w: leg 1 on pool %s returns nothing", vault.ErrNoArbitrageOpportunity, buy.Pool)
	}
	leg2, err := sell.Model.Swap(mintX, leg1.AmountOut)
	if err != nil {
		return nil, fmt.Errorf("%w: leg 2 on pool %s: %s", vault.ErrNoArbitrageOpportunity, sell.Pool, err)
	}
	if leg2.AmountOut <= tradeAmount {
		return nil, fmt.Errorf("%w: cycle of %d returns %d", vault.ErrNoArbitrageOpportunity, tradeAmount, leg2.AmountOut)
	}
	expectedProfit := leg2.AmountOut - tradeAmount
	if expectedProfit < minProfitThreshold {
		return nil, fmt.Errorf("%w: expected profit %d below threshold %d", vault.ErrNoArbitrageOpportunity, expectedProfit, minProfitThreshold)
	}
	return &Decision{
		BuyQuote:        buy,
		SellQuote:       sell,
		AmountIn:        tradeAmount,
		ExpectedOutLeg1: leg1.AmountOut,
		ExpectedOutLeg2: leg2.AmountOut,
		MinOutLeg1:      slippageFloor(leg1.AmountOut),
		MinOutLeg2:      slippageFloor(leg2.AmountOut),
		ExpectedProfit:  expectedProfit,
	}, nil
}

func slippageFloor(expected uint64) uint64 {
	floor := new(big.Int).Div(
		new(big.Int).Mul(
			new(big.Int).SetUint64(expected),
			new(big.Int).SetUint64(FeeDenominator-SlippageToleranceBps),
		),
		new(big.Int).SetUint64(FeeDenominator),
	)
	return floor.Uint64()
}
