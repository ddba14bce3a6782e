package dlmm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log"

	"github.com/amalnathsathyan/resonance-vault/ledger"
	"github.com/amalnathsathyan/resonance-vault/program"
	"github.com/gagliardetto/solana-go"
)

// Program decodes Saros DLMM pair accounts and builds swap invocations.
type Program struct {
	id  solana.PublicKey
	log *log.Logger
}

func NewProgram(id solana.PublicKey, logger *log.Logger) *Program {
	return &Program{
		id:  id,
		log: logger,
	}
}

func (p *Program) Name() string {
	return "saros dlmm"
}

func (p *Program) Id() solana.PublicKey {
	return p.id
}

func (p *Program) Type() string {
	return program.DLMM
}

func (p *Program) ParseAccount(key solana.PublicKey, owner solana.PublicKey, data []byte, height uint64) (*KeyedPair, error) {
	if owner != p.id {
		return nil, fmt.Errorf("account(%s) is not a dlmm pair, expected owner: %s, actual: %s", key, p.id, owner)
	}
	if len(data) < PairLayoutSize {
		return nil, fmt.Errorf("dlmm pair(%s) data size is not valid, expected at least: %d, actual: %d", key, PairLayoutSize, len(data))
	}
	layout := PairLayout{}
	buf := bytes.NewReader(data[:PairLayoutSize])
	err := binary.Read(buf, binary.LittleEndian, &layout)
	if err != nil {
		return nil, fmt.Errorf("dlmm pair(%s) data is not valid, err: %s", key, err)
	}
	return &KeyedPair{
		Key:         key,
		Height:      height,
		PairLayout:  layout,
		BaseFeeRate: DefaultBaseFeeRate,
		BinStep:     DefaultBinStep,
	}, nil
}

// Load builds a model from the pair account as the request currently sees it.
func (p *Program) Load(tx *ledger.Tx, pool, mintX, mintY solana.PublicKey) (program.Model, error) {
	account, ok := tx.Account(pool)
	if !ok {
		return nil, fmt.Errorf("dlmm pair(%s) not found", pool)
	}
	pair, err := p.ParseAccount(account.Key, account.Owner, account.Data, account.Height)
	if err != nil {
		return nil, err
	}
	return &Model{
		ProgramId: p.id,
		Pair:      pair,
		TokenX:    mintX,
		TokenY:    mintY,
	}, nil
}

// Apply writes a swap's reserve movement back into the pair account. Only the
// layout head changes; bin data past it is preserved.
func (p *Program) Apply(tx *ledger.Tx, pool solana.PublicKey, model program.Model, sr *program.SwapResult) error {
	m, ok := model.(*Model)
	if !ok {
		return fmt.Errorf("model of pair(%s) is not a dlmm model", pool)
	}
	account, ok := tx.Account(pool)
	if !ok {
		return fmt.Errorf("dlmm pair(%s) not found", pool)
	}
	layout := m.Pair.PairLayout
	if sr.TokenIn == m.TokenY {
		layout.TotalLiquidityY = sr.NewReserveSrc
		layout.TotalLiquidityX = sr.NewReserveDst
	} else {
		layout.TotalLiquidityX = sr.NewReserveSrc
		layout.TotalLiquidityY = sr.NewReserveDst
	}
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, &layout); err != nil {
		return err
	}
	data := make([]byte, len(account.Data))
	copy(data, account.Data)
	copy(data[:PairLayoutSize], buf.Bytes())
	return tx.SetAccountData(pool, data)
}

// InstructionSwap builds the on-chain swap call: borsh payload
// {amount_in, amount_out_min, swap_for_y} with the vault authority signing.
// The pair's reserve accounts are its associated token accounts.
func (p *Program) InstructionSwap(pool solana.PublicKey, model program.Model, tokenIn, userSrc, userDst, authority solana.PublicKey, amountIn, minimumAmountOut uint64) (solana.Instruction, error) {
	m, ok := model.(*Model)
	if !ok {
		return nil, fmt.Errorf("model of pair(%s) is not a dlmm model", pool)
	}
	if tokenIn != m.TokenX && tokenIn != m.TokenY {
		return nil, fmt.Errorf("token %s is not in pair(%s)", tokenIn, pool)
	}
	swapForY := tokenIn == m.TokenY
	reserveX, _, err := solana.FindAssociatedTokenAddress(pool, m.TokenX)
	if err != nil {
		return nil, err
	}
	reserveY, _, err := solana.FindAssociatedTokenAddress(pool, m.TokenY)
	if err != nil {
		return nil, err
	}
	userX, userY := userDst, userSrc
	if !swapForY {
		userX, userY = userSrc, userDst
	}
	data := make([]byte, 17)
	binary.LittleEndian.PutUint64(data[0:], amountIn)
	binary.LittleEndian.PutUint64(data[8:], minimumAmountOut)
	if swapForY {
		data[16] = 1
	}
	instruction := &program.Instruction{
		IsAccounts: []*solana.AccountMeta{
			{PublicKey: pool, IsSigner: false, IsWritable: true},
			{PublicKey: reserveX, IsSigner: false, IsWritable: true},
			{PublicKey: reserveY, IsSigner: false, IsWritable: true},
			{PublicKey: userX, IsSigner: false, IsWritable: true},
			{PublicKey: userY, IsSigner: false, IsWritable: true},
			{PublicKey: authority, IsSigner: true, IsWritable: false},
			{PublicKey: program.Token, IsSigner: false, IsWritable: false},
		},
		IsData:      data,
		IsProgramID: p.id,
	}
	return instruction, nil
}
