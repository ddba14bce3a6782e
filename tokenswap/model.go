package tokenswap

import (
	"fmt"
	"math/big"

	"github.com/amalnathsathyan/resonance-vault/program"
	"github.com/amalnathsathyan/resonance-vault/spltoken"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

type Model struct {
	ProgramId solana.PublicKey
	TokenSwap *KeyedSwap
	SwapA     *spltoken.KeyedUser
	SwapB     *spltoken.KeyedUser
}

func (m *Model) Program() solana.PublicKey {
	return m.ProgramId
}

func (m *Model) Id() solana.PublicKey {
	return m.TokenSwap.Key
}

func (m *Model) Type() string {
	return program.AMM
}

func (m *Model) TokenPair() []solana.PublicKey {
	return []solana.PublicKey{m.TokenSwap.TokenA, m.TokenSwap.TokenB}
}

func (m *Model) CurrentSlot() uint64 {
	return m.TokenSwap.Height
}

func (m *Model) Reserves() (uint64, uint64) {
	return m.SwapA.Amount, m.SwapB.Amount
}

func (m *Model) Price() decimal.Decimal {
	if m.SwapA.Amount == 0 {
		return decimal.Zero
	}
	a := decimal.NewFromBigInt(new(big.Int).SetUint64(m.SwapA.Amount), 0)
	b := decimal.NewFromBigInt(new(big.Int).SetUint64(m.SwapB.Amount), 0)
	return b.Div(a)
}

func (m *Model) Swap(token solana.PublicKey, amount uint64) (*program.SwapResult, error) {
	if m.TokenSwap.SwapCurve.CurveType != ConstantProduct {
		return nil, fmt.Errorf("curve type %d is not supported", m.TokenSwap.SwapCurve.CurveType)
	}
	return m.swapConstantProduct(token, amount)
}
