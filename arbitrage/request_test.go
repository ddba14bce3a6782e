package arbitrage

import (
	"context"
	"log"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amalnathsathyan/resonance-vault/ledger"
	"github.com/amalnathsathyan/resonance-vault/program"
	"github.com/stretchr/testify/assert"
)

func TestSubmitProcessesRequestsInOrder(t *testing.T) {
	l := ledger.NewLedger()
	ctx, cancel := context.WithCancel(context.Background())
	engine := NewLocalEngine(ctx, l, log.Default())

	authority := testKey(1)
	vaultKey, err := engine.InitializeVault(authority, testKey(2), testKey(3), 1, 1000000000)
	assert.NoError(t, err)
	assert.NoError(t, l.CreateTokenAccount(testKey(4), testKey(3), authority))
	assert.NoError(t, l.MintTo(testKey(4), 10000000))
	assert.NoError(t, engine.DepositFunds(vaultKey, authority, testKey(3), 1000000))

	l.UpsertAccount(testKey(5), program.SarosDLMM, pairData(1000000, 1000000000, 1000000000))
	l.UpsertAccount(testKey(6), program.SarosDLMM, pairData(1002000, 1000000000, 1000000000))

	engine.Start()
	defer func() {
		cancel()
		engine.Stop()
	}()

	for i := 0; i < 3; i++ {
		engine.Submit(&Request{
			Vault:  vaultKey,
			Caller: authority,
			PoolA:  testKey(5),
			PoolB:  testKey(6),
			Amount: 1000,
		})
	}

	assert.Eventually(t, func() bool {
		state, err := engine.VaultState(vaultKey)
		if err != nil {
			return false
		}
		return state.TotalTrades == 3
	}, 5*time.Second, 10*time.Millisecond)

	state, err := engine.VaultState(vaultKey)
	assert.NoError(t, err)
	assert.Equal(t, uint64(6), state.TotalProfits)
}

func TestSubmitDropsRequestsWhenStopped(t *testing.T) {
	l := ledger.NewLedger()
	ctx, cancel := context.WithCancel(context.Background())
	engine := NewLocalEngine(ctx, l, log.Default())

	authority := testKey(1)
	vaultKey, err := engine.InitializeVault(authority, testKey(2), testKey(3), 1, 1000000000)
	assert.NoError(t, err)

	atomic.StoreInt32(&engine.status, Stopped)
	engine.wg.Add(1)
	go engine.run()

	engine.Submit(&Request{Vault: vaultKey, Caller: authority, PoolA: testKey(5), PoolB: testKey(6), Amount: 1000})

	// the worker drains the queue but executes nothing
	assert.Eventually(t, func() bool {
		engine.mu.Lock()
		defer engine.mu.Unlock()
		return engine.requests.Len() == 0
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	engine.wg.Wait()

	state, err := engine.VaultState(vaultKey)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), state.TotalTrades)
}
