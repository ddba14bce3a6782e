package dlmm

import (
	"github.com/gagliardetto/solana-go"
)

var (
	// PairLayoutSize is the minimum pair account size; live accounts carry
	// bin arrays beyond it which the adapter does not need.
	PairLayoutSize = 80

	PriceScale = uint64(1000000)
)

const (
	DefaultBaseFeeRate = uint16(30) // basis points
	DefaultBinStep     = uint16(25)
)

// PairLayout is the head of a Saros DLMM pair account: the active price in
// 1e6 fixed point at offset 8, aggregate liquidity X at 32 and liquidity Y
// at 64.
type PairLayout struct {
	Discriminator   [8]byte
	CurrentPrice    uint64
	Reserved1       [16]byte
	TotalLiquidityX uint64
	Reserved2       [24]byte
	TotalLiquidityY uint64
	Reserved3       [8]byte
}

type KeyedPair struct {
	Key    solana.PublicKey
	Height uint64
	PairLayout
	BaseFeeRate uint16
	BinStep     uint16
}
