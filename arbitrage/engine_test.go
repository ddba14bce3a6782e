package arbitrage

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"log"
	"testing"

	"github.com/amalnathsathyan/resonance-vault/dlmm"
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

func pairData(price, liqX, liqY uint64) []byte {
	layout := dlmm.PairLayout{
		CurrentPrice:    price,
		TotalLiquidityX: liqX,
		TotalLiquidityY: liqY,
	}
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, &layout); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

type harness struct {
	engine    *Engine
	ledger    *ledger.Ledger
	authority solana.PublicKey
	mintX     solana.PublicKey
	mintY     solana.PublicKey
	vaultKey  solana.PublicKey
	sourceY   solana.PublicKey
	poolA     solana.PublicKey
	poolB     solana.PublicKey
}

// newHarness builds an initialized, funded vault over two dlmm pools priced
// 1.000 and 1.002.
func newHarness(t *testing.T) *harness {
	t.Helper()
	l := ledger.NewLedger()
	engine := NewLocalEngine(context.Background(), l, log.Default())

	h := &harness{
		engine:    engine,
		ledger:    l,
		authority: testKey(1),
		mintX:     testKey(2),
		mintY:     testKey(3),
		sourceY:   testKey(4),
		poolA:     testKey(5),
		poolB:     testKey(6),
	}

	vaultKey, err := engine.InitializeVault(h.authority, h.mintX, h.mintY, 1, 1000000000)
	assert.NoError(t, err)
	h.vaultKey = vaultKey

	assert.NoError(t, l.CreateTokenAccount(h.sourceY, h.mintY, h.authority))
	assert.NoError(t, l.MintTo(h.sourceY, 10000000))
	assert.NoError(t, engine.DepositFunds(vaultKey, h.authority, h.mintY, 1000000))

	l.UpsertAccount(h.poolA, program.SarosDLMM, pairData(1000000, 1000000000, 1000000000))
	l.UpsertAccount(h.poolB, program.SarosDLMM, pairData(1002000, 1000000000, 1000000000))
	return h
}

func (h *harness) state(t *testing.T) *vault.KeyedVault {
	t.Helper()
	state, err := h.engine.VaultState(h.vaultKey)
	assert.NoError(t, err)
	return state
}

// snapshot captures everything an aborted attempt must leave untouched.
type snapshot struct {
	vaultData []byte
	custodyX  uint64
	custodyY  uint64
	poolA     []byte
	poolB     []byte
	slot      uint64
}

func (h *harness) snapshot(t *testing.T) *snapshot {
	t.Helper()
	account, ok := h.ledger.Account(h.vaultKey)
	assert.True(t, ok)
	state := h.state(t)
	custodyX, err := h.ledger.Balance(state.TokenAccountX)
	assert.NoError(t, err)
	custodyY, err := h.ledger.Balance(state.TokenAccountY)
	assert.NoError(t, err)
	s := &snapshot{
		vaultData: account.Data,
		custodyX:  custodyX,
		custodyY:  custodyY,
		slot:      h.ledger.Slot(),
	}
	if poolA, ok := h.ledger.Account(h.poolA); ok {
		s.poolA = poolA.Data
	}
	if poolB, ok := h.ledger.Account(h.poolB); ok {
		s.poolB = poolB.Data
	}
	return s
}

func TestInitializeVault(t *testing.T) {
	l := ledger.NewLedger()
	engine := NewLocalEngine(context.Background(), l, log.Default())
	authority := testKey(1)

	vaultKey, err := engine.InitializeVault(authority, testKey(2), testKey(3), 10, 1000)
	assert.NoError(t, err)

	derived, _, err := vault.DeriveVaultAddress(authority)
	assert.NoError(t, err)
	assert.Equal(t, derived, vaultKey)

	state, err := engine.VaultState(vaultKey)
	assert.NoError(t, err)
	assert.Equal(t, authority, state.Authority)
	assert.Equal(t, testKey(2), state.MintX)
	assert.Equal(t, testKey(3), state.MintY)
	assert.Equal(t, uint64(10), state.MinProfitThreshold)
	assert.Equal(t, uint64(1000), state.MaxSingleTrade)
	assert.Equal(t, uint64(0), state.TotalTrades)
	assert.Equal(t, uint64(0), state.TotalProfits)
	assert.Equal(t, uint64(0), state.FailedTrades)

	custodyX, err := vault.DeriveCustodyAddress(vaultKey, testKey(2))
	assert.NoError(t, err)
	assert.Equal(t, custodyX, state.TokenAccountX)
	balance, err := l.Balance(custodyX)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), balance)
}

func TestInitializeVaultTwice(t *testing.T) {
	l := ledger.NewLedger()
	engine := NewLocalEngine(context.Background(), l, log.Default())
	authority := testKey(1)

	vaultKey, err := engine.InitializeVault(authority, testKey(2), testKey(3), 10, 1000)
	assert.NoError(t, err)

	before, _ := l.Account(vaultKey)
	_, err = engine.InitializeVault(authority, testKey(2), testKey(3), 99, 9999)
	assert.ErrorIs(t, err, vault.ErrAlreadyInitialized)

	// the first vault is untouched
	after, _ := l.Account(vaultKey)
	assert.Equal(t, before.Data, after.Data)
}

func TestInitializeVaultInvalidParameters(t *testing.T) {
	engine := NewLocalEngine(context.Background(), ledger.NewLedger(), log.Default())

	_, err := engine.InitializeVault(testKey(1), testKey(2), testKey(3), 0, 1000)
	assert.ErrorIs(t, err, vault.ErrInvalidParameters)
	_, err = engine.InitializeVault(testKey(1), testKey(2), testKey(3), 10, 0)
	assert.ErrorIs(t, err, vault.ErrInvalidParameters)
	_, err = engine.InitializeVault(testKey(1), testKey(2), testKey(2), 10, 1000)
	assert.ErrorIs(t, err, vault.ErrInvalidParameters)
}

func TestDepositFunds(t *testing.T) {
	h := newHarness(t)
	state := h.state(t)

	balance, err := h.ledger.Balance(state.TokenAccountY)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1000000), balance)

	// deposits accumulate
	assert.NoError(t, h.engine.DepositFunds(h.vaultKey, h.authority, h.mintY, 500000))
	balance, err = h.ledger.Balance(state.TokenAccountY)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1500000), balance)

	balance, err = h.ledger.Balance(h.sourceY)
	assert.NoError(t, err)
	assert.Equal(t, uint64(8500000), balance)
}

func TestDepositFundsRejects(t *testing.T) {
	h := newHarness(t)

	err := h.engine.DepositFunds(h.vaultKey, testKey(99), h.mintY, 1000)
	assert.ErrorIs(t, err, vault.ErrUnauthorized)

	err = h.engine.DepositFunds(h.vaultKey, h.authority, h.mintY, 0)
	assert.ErrorIs(t, err, vault.ErrZeroAmount)

	err = h.engine.DepositFunds(h.vaultKey, h.authority, testKey(98), 1000)
	assert.ErrorIs(t, err, vault.ErrInvalidMint)

	err = h.engine.DepositFunds(testKey(97), h.authority, h.mintY, 1000)
	assert.ErrorIs(t, err, vault.ErrNotInitialized)

	// nothing moved
	state := h.state(t)
	balance, _ := h.ledger.Balance(state.TokenAccountY)
	assert.Equal(t, uint64(1000000), balance)
}

func TestExecuteArbitrageCommit(t *testing.T) {
	h := newHarness(t)

	result, err := h.engine.ExecuteArbitrage(h.vaultKey, h.authority, h.poolA, h.poolB, 1000)
	assert.NoError(t, err)
	assert.Equal(t, h.poolA, result.PoolBuy)
	assert.Equal(t, h.poolB, result.PoolSell)
	assert.Equal(t, uint64(1000), result.AmountIn)
	assert.Equal(t, uint64(1002), result.AmountOut)
	assert.Equal(t, uint64(2), result.Profit)
	assert.Equal(t, uint64(2), result.ExpectedProfit)

	state := h.state(t)
	assert.Equal(t, uint64(1), state.TotalTrades)
	assert.Equal(t, uint64(2), state.TotalProfits)
	assert.Equal(t, uint64(0), state.FailedTrades)

	balance, _ := h.ledger.Balance(state.TokenAccountY)
	assert.Equal(t, uint64(1000002), balance)
	balance, _ = h.ledger.Balance(state.TokenAccountX)
	assert.Equal(t, uint64(0), balance)

	// both pools moved
	account, _ := h.ledger.Account(h.poolA)
	pair, err := dlmm.NewProgram(program.SarosDLMM, log.Default()).ParseAccount(h.poolA, program.SarosDLMM, account.Data, account.Height)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1000001000), pair.TotalLiquidityY)
	assert.Equal(t, uint64(999999000), pair.TotalLiquidityX)
}

func TestExecuteArbitrageEqualPricesLeavesNothing(t *testing.T) {
	h := newHarness(t)
	h.ledger.UpsertAccount(h.poolB, program.SarosDLMM, pairData(1000000, 1000000000, 1000000000))

	before := h.snapshot(t)
	_, err := h.engine.ExecuteArbitrage(h.vaultKey, h.authority, h.poolA, h.poolB, 1000)
	assert.ErrorIs(t, err, vault.ErrNoArbitrageOpportunity)

	after := h.snapshot(t)
	assert.Equal(t, before, after)
}

func TestExecuteArbitrageCountFailedAttempts(t *testing.T) {
	h := newHarness(t)
	h.ledger.UpsertAccount(h.poolB, program.SarosDLMM, pairData(1000000, 1000000000, 1000000000))
	h.engine.SetCountFailedAttempts(true)

	_, err := h.engine.ExecuteArbitrage(h.vaultKey, h.authority, h.poolA, h.poolB, 1000)
	assert.ErrorIs(t, err, vault.ErrNoArbitrageOpportunity)

	state := h.state(t)
	assert.Equal(t, uint64(1), state.FailedTrades)
	assert.Equal(t, uint64(0), state.TotalTrades)
	assert.Equal(t, uint64(0), state.TotalProfits)

	balance, _ := h.ledger.Balance(state.TokenAccountY)
	assert.Equal(t, uint64(1000000), balance)
}

func TestExecuteArbitrageUnauthorized(t *testing.T) {
	h := newHarness(t)

	_, err := h.engine.ExecuteArbitrage(h.vaultKey, testKey(99), h.poolA, h.poolB, 1000)
	assert.ErrorIs(t, err, vault.ErrUnauthorized)
}

func TestExecuteArbitrageNotInitialized(t *testing.T) {
	h := newHarness(t)

	_, err := h.engine.ExecuteArbitrage(testKey(99), h.authority, h.poolA, h.poolB, 1000)
	assert.ErrorIs(t, err, vault.ErrNotInitialized)
}

func TestExecuteArbitrageExceedsMax(t *testing.T) {
	h := newHarness(t)

	_, err := h.engine.ExecuteArbitrage(h.vaultKey, h.authority, h.poolA, h.poolB, 2000000000)
	assert.ErrorIs(t, err, vault.ErrTradeExceedsMax)
}

func TestExecuteArbitragePoolUnreadable(t *testing.T) {
	h := newHarness(t)

	before := h.snapshot(t)
	_, err := h.engine.ExecuteArbitrage(h.vaultKey, h.authority, testKey(77), h.poolB, 1000)
	assert.ErrorIs(t, err, vault.ErrPoolUnreadable)
	assert.Equal(t, before, h.snapshot(t))
}

func TestExecuteArbitrageDefaultSizing(t *testing.T) {
	h := newHarness(t)

	result, err := h.engine.ExecuteArbitrage(h.vaultKey, h.authority, h.poolA, h.poolB, 0)
	assert.NoError(t, err)
	// the optimal size is bounded by the custody balance
	assert.Equal(t, uint64(1000000), result.AmountIn)
	assert.Equal(t, uint64(2000), result.Profit)

	state := h.state(t)
	assert.Equal(t, uint64(1), state.TotalTrades)
	assert.Equal(t, uint64(2000), state.TotalProfits)
}

// fakeAdapter serves models whose price can move between the evaluation load
// and the execution reload, standing in for a pool that shifts mid-flight.
type fakeAdapter struct {
	id    solana.PublicKey
	eval  map[solana.PublicKey]uint64
	exec  map[solana.PublicKey]uint64
	fail  map[solana.PublicKey]bool
	loads map[solana.PublicKey]int
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		id:    testKey(200),
		eval:  make(map[solana.PublicKey]uint64),
		exec:  make(map[solana.PublicKey]uint64),
		fail:  make(map[solana.PublicKey]bool),
		loads: make(map[solana.PublicKey]int),
	}
}

func (f *fakeAdapter) Name() string { return "fake pool" }

func (f *fakeAdapter) Id() solana.PublicKey { return f.id }

func (f *fakeAdapter) Type() string { return program.DLMM }

func (f *fakeAdapter) Load(tx *ledger.Tx, pool, mintX, mintY solana.PublicKey) (program.Model, error) {
	f.loads[pool]++
	price := f.eval[pool]
	if f.loads[pool] > 1 {
		if f.fail[pool] {
			return nil, errors.New("pool is offline")
		}
		if exec, ok := f.exec[pool]; ok {
			price = exec
		}
	}
	return &dlmm.Model{
		ProgramId: f.id,
		Pair: &dlmm.KeyedPair{
			Key: pool,
			PairLayout: dlmm.PairLayout{
				CurrentPrice:    price,
				TotalLiquidityX: 1000000000,
				TotalLiquidityY: 1000000000,
			},
		},
		TokenX: mintX,
		TokenY: mintY,
	}, nil
}

func (f *fakeAdapter) Apply(tx *ledger.Tx, pool solana.PublicKey, model program.Model, sr *program.SwapResult) error {
	return nil
}

func (f *fakeAdapter) InstructionSwap(pool solana.PublicKey, model program.Model, tokenIn, userSrc, userDst, authority solana.PublicKey, amountIn, minimumAmountOut uint64) (solana.Instruction, error) {
	return nil, errors.New("not supported")
}

func (h *harness) withFakePools(t *testing.T, fake *fakeAdapter) {
	t.Helper()
	h.engine.Registry().Register(fake)
	h.ledger.UpsertAccount(h.poolA, fake.id, []byte{})
	h.ledger.UpsertAccount(h.poolB, fake.id, []byte{})
}

func TestExecuteArbitrageSlippageExceeded(t *testing.T) {
	h := newHarness(t)
	fake := newFakeAdapter()
	fake.eval[h.poolA] = 1000000
	fake.eval[h.poolB] = 1002000
	// the buy pool reprices 1% against us before execution
	fake.exec[h.poolA] = 1010000
	h.withFakePools(t, fake)

	before := h.snapshot(t)
	_, err := h.engine.ExecuteArbitrage(h.vaultKey, h.authority, h.poolA, h.poolB, 1000)
	assert.ErrorIs(t, err, vault.ErrSlippageExceeded)
	assert.Equal(t, before, h.snapshot(t))

	state := h.state(t)
	assert.Equal(t, uint64(0), state.TotalTrades)
	assert.Equal(t, uint64(0), state.FailedTrades)
}

func TestExecuteArbitrageRealizedBelowThreshold(t *testing.T) {
	h := newHarness(t)
	fake := newFakeAdapter()
	fake.eval[h.poolA] = 1000000
	fake.eval[h.poolB] = 1002000
	// the sell pool slips inside the tolerance band but eats the profit
	fake.exec[h.poolB] = 1000500
	h.withFakePools(t, fake)

	before := h.snapshot(t)
	_, err := h.engine.ExecuteArbitrage(h.vaultKey, h.authority, h.poolA, h.poolB, 1000)
	assert.ErrorIs(t, err, vault.ErrProfitBelowThresholdAfterExecution)
	assert.Equal(t, before, h.snapshot(t))
}

func TestExecuteArbitrageRealizedLoss(t *testing.T) {
	h := newHarness(t)
	fake := newFakeAdapter()
	fake.eval[h.poolA] = 1000000
	fake.eval[h.poolB] = 1002000
	// the sell pool slips within tolerance yet below break-even: leg 2
	// returns 997 against 1000 spent, a negative realized delta
	fake.exec[h.poolB] = 997000
	h.withFakePools(t, fake)

	before := h.snapshot(t)
	_, err := h.engine.ExecuteArbitrage(h.vaultKey, h.authority, h.poolA, h.poolB, 1000)
	assert.ErrorIs(t, err, vault.ErrProfitBelowThresholdAfterExecution)
	assert.Equal(t, before, h.snapshot(t))
}

func TestExecuteArbitrageExternalFailureMidCycle(t *testing.T) {
	h := newHarness(t)
	fake := newFakeAdapter()
	fake.eval[h.poolA] = 1000000
	fake.eval[h.poolB] = 1002000
	// leg 1 fills, then the sell pool rejects the swap
	fake.fail[h.poolB] = true
	h.withFakePools(t, fake)

	before := h.snapshot(t)
	_, err := h.engine.ExecuteArbitrage(h.vaultKey, h.authority, h.poolA, h.poolB, 1000)
	assert.ErrorIs(t, err, vault.ErrExternalSwapFailure)
	assert.Equal(t, before, h.snapshot(t))
}
