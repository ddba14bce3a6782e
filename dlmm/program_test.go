package dlmm

import (
	"bytes"
	"encoding/binary"
	"log"
	"math"
	"testing"

	"github.com/amalnathsathyan/resonance-vault/ledger"
	"github.com/amalnathsathyan/resonance-vault/program"
	"github.com/amalnathsathyan/resonance-vault/vault"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
)

func testKey(b byte) solana.PublicKey {
	key := solana.PublicKey{}
	key[0] = b
	return key
}

func pairData(price, liqX, liqY uint64, tail []byte) []byte {
	layout := PairLayout{
		CurrentPrice:    price,
		TotalLiquidityX: liqX,
		TotalLiquidityY: liqY,
	}
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, &layout); err != nil {
		panic(err)
	}
	return append(buf.Bytes(), tail...)
}

func TestParseAccount(t *testing.T) {
	p := NewProgram(program.SarosDLMM, log.Default())
	pool := testKey(1)

	pair, err := p.ParseAccount(pool, program.SarosDLMM, pairData(1000000, 5000, 6000, nil), 10)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1000000), pair.CurrentPrice)
	assert.Equal(t, uint64(5000), pair.TotalLiquidityX)
	assert.Equal(t, uint64(6000), pair.TotalLiquidityY)
	assert.Equal(t, DefaultBaseFeeRate, pair.BaseFeeRate)
	assert.Equal(t, DefaultBinStep, pair.BinStep)

	_, err = p.ParseAccount(pool, testKey(9), pairData(1000000, 5000, 6000, nil), 10)
	assert.Error(t, err)

	_, err = p.ParseAccount(pool, program.SarosDLMM, make([]byte, 40), 10)
	assert.Error(t, err)
}

func TestModelPrice(t *testing.T) {
	m := &Model{
		Pair:   &KeyedPair{PairLayout: PairLayout{CurrentPrice: 1002000}},
		TokenX: testKey(1),
		TokenY: testKey(2),
	}
	assert.Equal(t, "1.002", m.Price().String())
}

func TestSwapBothDirections(t *testing.T) {
	mintX := testKey(1)
	mintY := testKey(2)
	m := &Model{
		Pair: &KeyedPair{
			PairLayout: PairLayout{
				CurrentPrice:    2000000, // 2 Y per X
				TotalLiquidityX: 1000000,
				TotalLiquidityY: 1000000,
			},
		},
		TokenX: mintX,
		TokenY: mintY,
	}

	// spend 1000 Y, receive 500 X
	sr, err := m.Swap(mintY, 1000)
	assert.NoError(t, err)
	assert.Equal(t, mintX, sr.TokenOut)
	assert.Equal(t, uint64(500), sr.AmountOut)
	assert.Equal(t, uint64(1001000), sr.NewReserveSrc)
	assert.Equal(t, uint64(999500), sr.NewReserveDst)

	// spend 1000 X, receive 2000 Y
	sr, err = m.Swap(mintX, 1000)
	assert.NoError(t, err)
	assert.Equal(t, mintY, sr.TokenOut)
	assert.Equal(t, uint64(2000), sr.AmountOut)
}

func TestSwapCappedByLiquidity(t *testing.T) {
	mintX := testKey(1)
	mintY := testKey(2)
	m := &Model{
		Pair: &KeyedPair{
			PairLayout: PairLayout{
				CurrentPrice:    1000000,
				TotalLiquidityX: 300,
				TotalLiquidityY: 1000000,
			},
		},
		TokenX: mintX,
		TokenY: mintY,
	}
	sr, err := m.Swap(mintY, 1000)
	assert.NoError(t, err)
	assert.Equal(t, uint64(300), sr.AmountOut)
}

func TestSwapRejects(t *testing.T) {
	m := &Model{
		Pair:   &KeyedPair{PairLayout: PairLayout{CurrentPrice: 1000000}},
		TokenX: testKey(1),
		TokenY: testKey(2),
	}
	_, err := m.Swap(testKey(9), 1000)
	assert.Error(t, err)
	_, err = m.Swap(testKey(1), 0)
	assert.Error(t, err)

	m.Pair.CurrentPrice = 0
	_, err = m.Swap(testKey(1), 1000)
	assert.Error(t, err)
}

func TestSwapOverflow(t *testing.T) {
	mintX := testKey(1)
	mintY := testKey(2)
	m := &Model{
		Pair: &KeyedPair{
			PairLayout: PairLayout{
				CurrentPrice:    1, // 1e-6 Y per X
				TotalLiquidityX: math.MaxUint64,
				TotalLiquidityY: 1000,
			},
		},
		TokenX: mintX,
		TokenY: mintY,
	}

	// true output is 2e19 X, past the uint64 range
	_, err := m.Swap(mintY, 20000000000000)
	assert.ErrorIs(t, err, vault.ErrArithmeticOverflow)

	m.Pair.CurrentPrice = math.MaxUint64
	_, err = m.Swap(mintX, 10000000)
	assert.ErrorIs(t, err, vault.ErrArithmeticOverflow)

	// an output still inside the uint64 range quotes normally
	m.Pair.CurrentPrice = 1
	sr, err := m.Swap(mintY, 18000000000000)
	assert.NoError(t, err)
	assert.Equal(t, uint64(18000000000000000000), sr.AmountOut)
}

func TestApplyPreservesTail(t *testing.T) {
	p := NewProgram(program.SarosDLMM, log.Default())
	pool := testKey(1)
	mintX := testKey(2)
	mintY := testKey(3)
	tail := []byte{0xde, 0xad, 0xbe, 0xef}

	l := ledger.NewLedger()
	l.UpsertAccount(pool, program.SarosDLMM, pairData(1000000, 100000, 100000, tail))

	err := l.Execute(func(tx *ledger.Tx) error {
		model, err := p.Load(tx, pool, mintX, mintY)
		if err != nil {
			return err
		}
		sr, err := model.Swap(mintY, 1000)
		if err != nil {
			return err
		}
		return p.Apply(tx, pool, model, sr)
	})
	assert.NoError(t, err)

	account, ok := l.Account(pool)
	assert.True(t, ok)
	pair, err := p.ParseAccount(pool, program.SarosDLMM, account.Data, account.Height)
	assert.NoError(t, err)
	assert.Equal(t, uint64(101000), pair.TotalLiquidityY)
	assert.Equal(t, uint64(99000), pair.TotalLiquidityX)
	assert.Equal(t, tail, account.Data[PairLayoutSize:])
}

func TestInstructionSwap(t *testing.T) {
	p := NewProgram(program.SarosDLMM, log.Default())
	pool := testKey(1)
	mintX := testKey(2)
	mintY := testKey(3)
	authority := testKey(4)
	userSrc := testKey(5)
	userDst := testKey(6)

	model := &Model{
		ProgramId: program.SarosDLMM,
		Pair:      &KeyedPair{Key: pool, PairLayout: PairLayout{CurrentPrice: 1000000}},
		TokenX:    mintX,
		TokenY:    mintY,
	}

	// spending Y buys X
	in, err := p.InstructionSwap(pool, model, mintY, userSrc, userDst, authority, 12345, 678)
	assert.NoError(t, err)
	assert.Equal(t, program.SarosDLMM, in.ProgramID())

	data, err := in.Data()
	assert.NoError(t, err)
	assert.Equal(t, 17, len(data))
	assert.Equal(t, uint64(12345), binary.LittleEndian.Uint64(data[0:]))
	assert.Equal(t, uint64(678), binary.LittleEndian.Uint64(data[8:]))
	assert.Equal(t, byte(1), data[16])

	accounts := in.Accounts()
	assert.Equal(t, 7, len(accounts))
	assert.Equal(t, pool, accounts[0].PublicKey)
	assert.True(t, accounts[5].IsSigner)
	assert.Equal(t, authority, accounts[5].PublicKey)

	// spending X sells X
	in, err = p.InstructionSwap(pool, model, mintX, userSrc, userDst, authority, 1, 1)
	assert.NoError(t, err)
	data, err = in.Data()
	assert.NoError(t, err)
	assert.Equal(t, byte(0), data[16])

	_, err = p.InstructionSwap(pool, model, testKey(9), userSrc, userDst, authority, 1, 1)
	assert.Error(t, err)
}
