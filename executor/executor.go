package executor

import (
	"fmt"
	"log"

	"github.com/amalnathsathyan/resonance-vault/calculator"
	"github.com/amalnathsathyan/resonance-vault/ledger"
	"github.com/amalnathsathyan/resonance-vault/oracle"
	"github.com/amalnathsathyan/resonance-vault/vault"
	"github.com/gagliardetto/solana-go"
)

const (
	ComputeSwapCost = uint64(80000)
)

// RealizedResult is the outcome of both legs, measured from the custody
// account's balance delta rather than the pools' advertised outputs.
type RealizedResult struct {
	AmountOut       uint64
	BalanceDelta    int64
	InitialBalanceY uint64
	FinalBalanceY   uint64
}

type Executor struct {
	log *log.Logger
}

func NewExecutor(logger *log.Logger) *Executor {
	return &Executor{
		log: logger,
	}
}

// Execute runs leg 1 then leg 2 inside the caller's transaction. Both legs
// commit or neither does; the enclosing ledger request provides the rollback,
// there is no compensation logic here.
func (e *Executor) Execute(tx *ledger.Tx, v *vault.VaultLayout, decision *calculator.Decision) (*RealizedResult, error) {
	initialY, err := tx.Balance(v.TokenAccountY)
	if err != nil {
		return nil, err
	}
	if initialY < decision.AmountIn {
		return nil, fmt.Errorf("%w: custody holds %d, trade needs %d", vault.ErrInsufficientFunds, initialY, decision.AmountIn)
	}

	e.log.Printf("leg 1: %d in on pool %s, floor %d", decision.AmountIn, decision.BuyQuote.Pool, decision.MinOutLeg1)
	leg1, err := e.leg(tx, v, decision.BuyQuote, v.MintY, v.TokenAccountY, v.TokenAccountX, decision.AmountIn, decision.MinOutLeg1)
	if err != nil {
		return nil, err
	}
	e.log.Printf("leg 1 filled: %d out", leg1)

	e.log.Printf("leg 2: %d in on pool %s, floor %d", leg1, decision.SellQuote.Pool, decision.MinOutLeg2)
	leg2, err := e.leg(tx, v, decision.SellQuote, v.MintX, v.TokenAccountX, v.TokenAccountY, leg1, decision.MinOutLeg2)
	if err != nil {
		return nil, err
	}
	e.log.Printf("leg 2 filled: %d out", leg2)

	finalY, err := tx.Balance(v.TokenAccountY)
	if err != nil {
		return nil, err
	}
	return &RealizedResult{
		AmountOut:       leg2,
		BalanceDelta:    int64(finalY) - int64(initialY),
		InitialBalanceY: initialY,
		FinalBalanceY:   finalY,
	}, nil
}

func (e *Executor) leg(tx *ledger.Tx, v *vault.VaultLayout, quote *oracle.Quote, tokenIn solana.PublicKey, custodySrc, custodyDst solana.PublicKey, amountIn, minOut uint64) (uint64, error) {
	if err := tx.Consume(ComputeSwapCost); err != nil {
		return 0, err
	}
	// the pool may have moved since evaluation, reload from the staged view
	model, err := quote.Adapter.Load(tx, quote.Pool, v.MintX, v.MintY)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", vault.ErrExternalSwapFailure, err)
	}
	sr, err := model.Swap(tokenIn, amountIn)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", vault.ErrExternalSwapFailure, err)
	}
	if sr.AmountOut < minOut {
		return 0, fmt.Errorf("%w: pool %s filled %d, floor %d", vault.ErrSlippageExceeded, quote.Pool, sr.AmountOut, minOut)
	}
	if err := quote.Adapter.Apply(tx, quote.Pool, model, sr); err != nil {
		return 0, fmt.Errorf("%w: %s", vault.ErrExternalSwapFailure, err)
	}
	if err := tx.Debit(custodySrc, sr.AmountIn); err != nil {
		return 0, err
	}
	if err := tx.Credit(custodyDst, sr.AmountOut); err != nil {
		return 0, err
	}
	return sr.AmountOut, nil
}

// Instructions renders the decision as the two on-chain swap calls, signed by
// the vault authority, for submission to a live cluster.
func (e *Executor) Instructions(decision *calculator.Decision, v *vault.VaultLayout, authority solana.PublicKey) ([]solana.Instruction, error) {
	leg1, err := decision.BuyQuote.Adapter.InstructionSwap(
		decision.BuyQuote.Pool, decision.BuyQuote.Model,
		v.MintY, v.TokenAccountY, v.TokenAccountX, authority,
		decision.AmountIn, decision.MinOutLeg1,
	)
	if err != nil {
		return nil, err
	}
	leg2, err := decision.SellQuote.Adapter.InstructionSwap(
		decision.SellQuote.Pool, decision.SellQuote.Model,
		v.MintX, v.TokenAccountX, v.TokenAccountY, authority,
		decision.ExpectedOutLeg1, decision.MinOutLeg2,
	)
	if err != nil {
		return nil, err
	}
	return []solana.Instruction{leg1, leg2}, nil
}
