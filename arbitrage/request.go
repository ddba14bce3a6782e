package arbitrage

import (
	"sync/atomic"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/net/context"
)

// Request is one queued arbitrage attempt. Amount of 0 lets the engine size
// the trade from the pools.
type Request struct {
	Vault  solana.PublicKey
	Caller solana.PublicKey
	PoolA  solana.PublicKey
	PoolB  solana.PublicKey
	Amount uint64
}

// Submit enqueues a request for the worker. Requests are executed strictly
// one at a time in arrival order.
func (engine *Engine) Submit(request *Request) {
	engine.mu.Lock()
	engine.requests.Enqueue(request)
	engine.mu.Unlock()
	select {
	case engine.wake <- struct{}{}:
	default:
	}
}

func (engine *Engine) dequeue() *Request {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.requests.Len() == 0 {
		return nil
	}
	return engine.requests.Dequeue().(*Request)
}

func (engine *Engine) run() {
	defer engine.wg.Done()
	engine.process(engine.ctx)
}

func (engine *Engine) process(ctx context.Context) {
	for {
		select {
		case <-engine.wake:
			for {
				request := engine.dequeue()
				if request == nil {
					break
				}
				if atomic.LoadInt32(&engine.status) != Started {
					engine.log.Printf("engine is not running, request dropped")
					continue
				}
				if _, err := engine.ExecuteArbitrage(request.Vault, request.Caller, request.PoolA, request.PoolB, request.Amount); err != nil {
					engine.log.Printf("request err: %v", err)
				}
			}
		case <-ctx.Done():
			engine.log.Printf("request worker exit")
			return
		}
	}
}
