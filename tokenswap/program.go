package tokenswap

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log"

	"github.com/amalnathsathyan/resonance-vault/ledger"
	"github.com/amalnathsathyan/resonance-vault/program"
	"github.com/gagliardetto/solana-go"
)

// Program decodes spl token-swap pool accounts and builds swap invocations.
// Reserves live in the pool's two token accounts rather than in the pool
// account itself.
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
	return "token swap"
}

func (p *Program) Id() solana.PublicKey {
	return p.id
}

func (p *Program) Type() string {
	return program.AMM
}

func (p *Program) ParseAccount(key solana.PublicKey, owner solana.PublicKey, data []byte, height uint64) (*KeyedSwap, error) {
	if owner != p.id {
		return nil, fmt.Errorf("account(%s) is not a token swap account, expected owner: %s, actual: %s", key, p.id, owner)
	}
	if len(data) != SwapLayoutSize {
		return nil, fmt.Errorf("token swap account(%s) data size is not valid, expected: %d, actual: %d", key, SwapLayoutSize, len(data))
	}
	layout := SwapLayout{}
	buf := bytes.NewReader(data)
	err := binary.Read(buf, binary.LittleEndian, &layout)
	if err != nil {
		return nil, fmt.Errorf("token swap account(%s) data is not valid, err: %s", key, err)
	}
	if layout.IsInitialized != 1 {
		return nil, fmt.Errorf("token swap account(%s) is not initialized", key)
	}
	return &KeyedSwap{
		Key:        key,
		Height:     height,
		SwapLayout: layout,
	}, nil
}

// Load builds a model from the pool account plus its two reserve accounts as
// the request currently sees them. The pool must carry both vault mints.
func (p *Program) Load(tx *ledger.Tx, pool, mintX, mintY solana.PublicKey) (program.Model, error) {
	account, ok := tx.Account(pool)
	if !ok {
		return nil, fmt.Errorf("token swap account(%s) not found", pool)
	}
	swap, err := p.ParseAccount(account.Key, account.Owner, account.Data, account.Height)
	if err != nil {
		return nil, err
	}
	pair := map[solana.PublicKey]bool{swap.TokenA: true, swap.TokenB: true}
	if !pair[mintX] || !pair[mintY] {
		return nil, fmt.Errorf("token swap account(%s) pair (%s %s) does not carry (%s %s)", pool, swap.TokenA, swap.TokenB, mintX, mintY)
	}
	swapA, ok := tx.Token(swap.SwapA)
	if !ok {
		return nil, fmt.Errorf("token swap reserve(%s) not found", swap.SwapA)
	}
	swapB, ok := tx.Token(swap.SwapB)
	if !ok {
		return nil, fmt.Errorf("token swap reserve(%s) not found", swap.SwapB)
	}
	return &Model{
		ProgramId: p.id,
		TokenSwap: swap,
		SwapA:     swapA,
		SwapB:     swapB,
	}, nil
}

// Apply moves the swap's reserve deltas onto the pool's token accounts.
func (p *Program) Apply(tx *ledger.Tx, pool solana.PublicKey, model program.Model, sr *program.SwapResult) error {
	m, ok := model.(*Model)
	if !ok {
		return fmt.Errorf("model of pool(%s) is not a token swap model", pool)
	}
	src, dst := m.TokenSwap.SwapA, m.TokenSwap.SwapB
	if sr.TokenIn == m.TokenSwap.TokenB {
		src, dst = dst, src
	}
	if err := tx.Credit(src, sr.AmountIn); err != nil {
		return err
	}
	return tx.Debit(dst, sr.AmountOut)
}

// InstructionSwap builds the token swap program's swap: index 1 plus
// amount_in and minimum_amount_out.
func (p *Program) InstructionSwap(pool solana.PublicKey, model program.Model, tokenIn, userSrc, userDst, userOwner solana.PublicKey, amountIn, minimumAmountOut uint64) (solana.Instruction, error) {
	m, ok := model.(*Model)
	if !ok {
		return nil, fmt.Errorf("model of pool(%s) is not a token swap model", pool)
	}
	swap := m.TokenSwap
	tokenSrc, tokenDst := swap.SwapA, swap.SwapB
	if tokenIn == swap.TokenB {
		tokenSrc, tokenDst = tokenDst, tokenSrc
	} else if tokenIn != swap.TokenA {
		return nil, fmt.Errorf("token %s is not in pool(%s)", tokenIn, pool)
	}
	authority, _, err := solana.FindProgramAddress([][]byte{pool.Bytes()}, p.id)
	if err != nil {
		return nil, err
	}
	data := make([]byte, 17)
	data[0] = 1
	binary.LittleEndian.PutUint64(data[1:], amountIn)
	binary.LittleEndian.PutUint64(data[9:], minimumAmountOut)
	instruction := &program.Instruction{
		IsAccounts: []*solana.AccountMeta{
			{PublicKey: pool, IsSigner: false, IsWritable: false},
			{PublicKey: authority, IsSigner: false, IsWritable: false},
			{PublicKey: userOwner, IsSigner: true, IsWritable: false},
			{PublicKey: userSrc, IsSigner: false, IsWritable: true},
			{PublicKey: tokenSrc, IsSigner: false, IsWritable: true},
			{PublicKey: tokenDst, IsSigner: false, IsWritable: true},
			{PublicKey: userDst, IsSigner: false, IsWritable: true},
			{PublicKey: swap.PoolToken, IsSigner: false, IsWritable: true},
			{PublicKey: swap.PoolFeeAccount, IsSigner: false, IsWritable: true},
			{PublicKey: program.Token, IsSigner: false, IsWritable: false},
		},
		IsData:      data,
		IsProgramID: p.id,
	}
	return instruction, nil
}
