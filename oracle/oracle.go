package oracle

import (
	"fmt"
	"log"

	"github.com/amalnathsathyan/resonance-vault/ledger"
	"github.com/amalnathsathyan/resonance-vault/program"
	"github.com/amalnathsathyan/resonance-vault/vault"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Adapter decodes one pool program's accounts into a pool model and writes
// swap effects back. Implementations exist per pool program; the registry
// selects one by the pool account's owner.
type Adapter interface {
	Name() string
	Id() solana.PublicKey
	Type() string
	Load(tx *ledger.Tx, pool, mintX, mintY solana.PublicKey) (program.Model, error)
	Apply(tx *ledger.Tx, pool solana.PublicKey, model program.Model, sr *program.SwapResult) error
	InstructionSwap(pool solana.PublicKey, model program.Model, tokenIn, userSrc, userDst, authority solana.PublicKey, amountIn, minimumAmountOut uint64) (solana.Instruction, error)
}

// Quote is one pool's state normalized to the vault's mint ordering:
// ReserveX/ReserveY follow mintX/mintY and Price is mintY per mintX.
type Quote struct {
	Pool     solana.PublicKey
	Adapter  Adapter
	Model    program.Model
	ReserveX uint64
	ReserveY uint64
	Price    decimal.Decimal
}

type Registry struct {
	log      *log.Logger
	adapters map[solana.PublicKey]Adapter
}

func NewRegistry(logger *log.Logger) *Registry {
	return &Registry{
		log:      logger,
		adapters: make(map[solana.PublicKey]Adapter),
	}
}

func (r *Registry) Register(adapter Adapter) {
	r.adapters[adapter.Id()] = adapter
}

func (r *Registry) Lookup(owner solana.PublicKey) (Adapter, bool) {
	adapter, ok := r.adapters[owner]
	return adapter, ok
}

// ReadPrice decodes a pool account and produces its reserves and price in the
// vault's mint ordering. Pools are read-only inputs here; nothing is mutated.
func (r *Registry) ReadPrice(tx *ledger.Tx, pool, mintX, mintY solana.PublicKey) (*Quote, error) {
	account, ok := tx.Account(pool)
	if !ok {
		return nil, fmt.Errorf("%w: account %s not found", vault.ErrPoolUnreadable, pool)
	}
	adapter, ok := r.Lookup(account.Owner)
	if !ok {
		return nil, fmt.Errorf("%w: owner %s has no adapter", vault.ErrPoolUnreadable, account.Owner)
	}
	model, err := adapter.Load(tx, pool, mintX, mintY)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", vault.ErrPoolUnreadable, err)
	}
	pair := model.TokenPair()
	reserveA, reserveB := model.Reserves()
	price := model.Price()
	quote := &Quote{
		Pool:    pool,
		Adapter: adapter,
		Model:   model,
	}
	switch {
	case pair[0] == mintX && pair[1] == mintY:
		quote.ReserveX, quote.ReserveY = reserveA, reserveB
		quote.Price = price
	case pair[0] == mintY && pair[1] == mintX:
		// pool ordering is reversed, flip numerator and denominator
		quote.ReserveX, quote.ReserveY = reserveB, reserveA
		if price.IsZero() {
			return nil, fmt.Errorf("%w: pool %s has an empty reserve", vault.ErrPoolUnreadable, pool)
		}
		quote.Price = decimal.New(1, 0).Div(price)
	default:
		return nil, fmt.Errorf("%w: pool %s pair (%s %s)", vault.ErrInvalidMint, pool, pair[0], pair[1])
	}
	return quote, nil
}
