package arbitrage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amalnathsathyan/resonance-vault/backend"
	"github.com/amalnathsathyan/resonance-vault/calculator"
	"github.com/amalnathsathyan/resonance-vault/config"
	"github.com/amalnathsathyan/resonance-vault/dingsdk"
	"github.com/amalnathsathyan/resonance-vault/dlmm"
	"github.com/amalnathsathyan/resonance-vault/executor"
	"github.com/amalnathsathyan/resonance-vault/ledger"
	"github.com/amalnathsathyan/resonance-vault/networkdetect"
	"github.com/amalnathsathyan/resonance-vault/oracle"
	"github.com/amalnathsathyan/resonance-vault/program"
	"github.com/amalnathsathyan/resonance-vault/store"
	"github.com/amalnathsathyan/resonance-vault/tokenswap"
	"github.com/amalnathsathyan/resonance-vault/utils"
	"github.com/amalnathsathyan/resonance-vault/vault"
	"github.com/badgerodon/collections/queue"
	"github.com/gagliardetto/solana-go"
)

var (
	Init    = int32(0)
	Started = int32(1)
	Stopped = int32(3)
)

var (
	// DefaultTradeAmount is used when a trade request carries no size and no
	// better size can be derived from the pools.
	DefaultTradeAmount = uint64(100000000)
)

// TradeResult is one committed arbitrage cycle.
type TradeResult struct {
	Id             uint64
	Vault          solana.PublicKey
	PoolBuy        solana.PublicKey
	PoolSell       solana.PublicKey
	AmountIn       uint64
	AmountOut      uint64
	ExpectedProfit uint64
	Profit         uint64
	ComputeUsed    uint64
	Slot           uint64
}

// Engine drives the vault: it owns the ledger, evaluates opportunities across
// the registered pool programs and commits trades through atomic requests.
type Engine struct {
	ctx                 context.Context
	log                 *log.Logger
	config              *config.Config
	wg                  sync.WaitGroup
	status              int32
	ledger              *ledger.Ledger
	registry            *oracle.Registry
	executor            *executor.Executor
	store               *store.Store
	backend             *backend.Backend
	dsdk                *dingsdk.DingSdk
	nd                  *networkdetect.NetworkDetector
	httpServer          *http.Server
	rpcPort             string
	countFailedAttempts bool
	mu                  sync.Mutex
	requests            *queue.Queue
	wake                chan struct{}
	trades              chan *TradeResult
	tradeId             uint64
}

func NewEngine(ctx context.Context, cfg *config.Config) *Engine {
	engine := newEngine(ctx, log.Default())
	engine.config = cfg
	engine.rpcPort = cfg.Listen
	engine.countFailedAttempts = cfg.CountFailedAttempts
	if cfg.DumpLog {
		engine.setLogger(utils.NewLog(config.LogPath, config.EngineLog))
		engine.executor = executor.NewExecutor(utils.NewLog(config.LogPath, config.ExecutorLog))
	}
	if cfg.ComputeBudget != 0 {
		engine.ledger.SetComputeBudget(cfg.ComputeBudget)
	}
	if cfg.DBUrl != "" {
		engine.store = store.NewStore(ctx, cfg.DBUrl, cfg.DBScheme, cfg.DBUser, cfg.DBPasswd)
	}
	if cfg.DingUrl != "" {
		engine.dsdk = dingsdk.NewDingSdk(cfg.DingUrl)
	}
	if len(cfg.Nodes) > 0 {
		engine.backend = backend.NewBackend(ctx, cfg.Nodes)
		if cfg.Key != "" {
			engine.backend.ImportWallet(cfg.Key)
			engine.backend.SetPlayer(cfg.Authority)
		}
		if cfg.NetStatus && engine.dsdk != nil {
			engine.nd = networkdetect.NewNetworkDetector(cfg.Nodes[0].Rpc, engine.dsdk)
		}
	}
	return engine
}

// NewLocalEngine builds an engine over an existing ledger with no chain,
// store or notification wiring.
func NewLocalEngine(ctx context.Context, l *ledger.Ledger, logger *log.Logger) *Engine {
	engine := newEngine(ctx, logger)
	engine.ledger = l
	engine.registry = newRegistry(logger)
	engine.executor = executor.NewExecutor(logger)
	return engine
}

func newEngine(ctx context.Context, logger *log.Logger) *Engine {
	engine := &Engine{
		ctx:      ctx,
		log:      logger,
		ledger:   ledger.NewLedger(),
		requests: queue.New(),
		wake:     make(chan struct{}, 1),
		trades:   make(chan *TradeResult, 32),
		status:   Init,
	}
	engine.registry = newRegistry(logger)
	engine.executor = executor.NewExecutor(logger)
	return engine
}

func newRegistry(logger *log.Logger) *oracle.Registry {
	registry := oracle.NewRegistry(logger)
	registry.Register(dlmm.NewProgram(program.SarosDLMM, logger))
	registry.Register(tokenswap.NewProgram(program.TokenSwap, logger))
	registry.Register(tokenswap.NewProgram(program.OrcaV2, logger))
	return registry
}

func (engine *Engine) setLogger(logger *log.Logger) {
	engine.log = logger
	engine.registry = newRegistry(logger)
	engine.executor = executor.NewExecutor(logger)
}

func (engine *Engine) Ledger() *ledger.Ledger {
	return engine.ledger
}

func (engine *Engine) Registry() *oracle.Registry {
	return engine.registry
}

// SetCountFailedAttempts toggles failed_trades bookkeeping. Must be called
// before Start; the worker goroutine reads the flag without synchronization.
func (engine *Engine) SetCountFailedAttempts(count bool) {
	engine.countFailedAttempts = count
}

// Hydrate pulls the given accounts from the chain into the local ledger.
func (engine *Engine) Hydrate(pubkeys []solana.PublicKey) error {
	if engine.backend == nil {
		return fmt.Errorf("no backend configured")
	}
	return engine.backend.HydrateLedger(engine.ledger, pubkeys)
}

func (engine *Engine) Service() {
	engine.Start()
	engine.StartRPC()
	<-engine.ctx.Done()
	engine.StopRPC()
	engine.Stop()
}

func (engine *Engine) Start() {
	if engine.nd != nil {
		engine.nd.Start()
	}
	if engine.store != nil {
		engine.store.Start()
	}
	if engine.backend != nil {
		engine.backend.Start()
	}
	engine.wg.Add(2)
	go engine.run()
	go engine.listen()
	if engine.config != nil && engine.config.TradeTicker != 0 {
		engine.wg.Add(1)
		go engine.tick(time.Duration(engine.config.TradeTicker) * time.Second)
	}
	atomic.StoreInt32(&engine.status, Started)
	engine.log.Printf("vault engine has started......")
}

func (engine *Engine) Stop() {
	atomic.StoreInt32(&engine.status, Stopped)
	if engine.config != nil {
		engine.dump()
	}
	if engine.nd != nil {
		engine.nd.Stop()
	}
	if engine.backend != nil {
		engine.backend.Stop()
	}
	if engine.store != nil {
		engine.store.Stop()
	}
	engine.wg.Wait()
	engine.log.Printf("vault engine has stopped......")
}

// dump writes the final vault state to the cache for inspection after exit.
func (engine *Engine) dump() {
	vaultKey, _, err := vault.DeriveVaultAddress(engine.config.Authority)
	if err != nil {
		return
	}
	state, err := engine.VaultState(vaultKey)
	if err != nil {
		return
	}
	infoJson, err := json.MarshalIndent(buildVaultInfo(state), "", "    ")
	if err != nil {
		return
	}
	os.MkdirAll(config.CachePath, 0755)
	if err := os.WriteFile(config.VaultDumpFile, infoJson, 0644); err != nil {
		engine.log.Printf("dump vault state err: %v", err)
	}
}

func (engine *Engine) tick(interval time.Duration) {
	defer engine.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			vaultKey, _, err := vault.DeriveVaultAddress(engine.config.Authority)
			if err != nil {
				engine.log.Printf("derive vault err: %v", err)
				continue
			}
			engine.Submit(&Request{
				Vault:  vaultKey,
				Caller: engine.config.Authority,
				PoolA:  engine.config.PoolA,
				PoolB:  engine.config.PoolB,
				Amount: engine.config.TradeAmount,
			})
		case <-engine.ctx.Done():
			return
		}
	}
}

// InitializeVault creates the vault record and its two custody accounts at
// their derived addresses. A second call for the same authority fails and
// leaves the first vault untouched.
func (engine *Engine) InitializeVault(authority, mintX, mintY solana.PublicKey, minProfitThreshold, maxSingleTrade uint64) (solana.PublicKey, error) {
	if minProfitThreshold == 0 || maxSingleTrade == 0 {
		return solana.PublicKey{}, vault.ErrInvalidParameters
	}
	if mintX == mintY || mintX.IsZero() || mintY.IsZero() {
		return solana.PublicKey{}, vault.ErrInvalidParameters
	}
	vaultKey, bump, err := vault.DeriveVaultAddress(authority)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %s", vault.ErrInvalidParameters, err)
	}
	custodyX, err := vault.DeriveCustodyAddress(vaultKey, mintX)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %s", vault.ErrInvalidParameters, err)
	}
	custodyY, err := vault.DeriveCustodyAddress(vaultKey, mintY)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %s", vault.ErrInvalidParameters, err)
	}
	err = engine.ledger.Execute(func(tx *ledger.Tx) error {
		if _, ok := tx.Account(vaultKey); ok {
			return vault.ErrAlreadyInitialized
		}
		layout, err := vault.NewVaultLayout(authority, mintX, mintY, custodyX, custodyY, minProfitThreshold, maxSingleTrade, bump)
		if err != nil {
			return err
		}
		if err := tx.CreateTokenAccount(custodyX, mintX, vaultKey); err != nil {
			return vault.ErrAlreadyInitialized
		}
		if err := tx.CreateTokenAccount(custodyY, mintY, vaultKey); err != nil {
			return vault.ErrAlreadyInitialized
		}
		return tx.CreateAccount(vaultKey, program.Vault, layout.Encode())
	})
	if err != nil {
		return solana.PublicKey{}, err
	}
	engine.log.Printf("vault %s initialized, authority: %s, threshold: %d, max trade: %d",
		vaultKey, authority, minProfitThreshold, maxSingleTrade)
	return vaultKey, nil
}

// DepositFunds moves amount of mint from the caller's token account into the
// matching custody account. Only the vault authority may deposit.
func (engine *Engine) DepositFunds(vaultKey, caller, mint solana.PublicKey, amount uint64) error {
	return engine.ledger.Execute(func(tx *ledger.Tx) error {
		account, ok := tx.Account(vaultKey)
		if !ok {
			return vault.ErrNotInitialized
		}
		v, err := vault.ParseVault(account.Data)
		if err != nil {
			return fmt.Errorf("%w: %s", vault.ErrNotInitialized, err)
		}
		if caller != v.Authority {
			return vault.ErrUnauthorized
		}
		if amount == 0 {
			return vault.ErrZeroAmount
		}
		custody, err := v.CustodyAccount(mint)
		if err != nil {
			return err
		}
		source, ok := tx.TokenFor(caller, mint)
		if !ok {
			return fmt.Errorf("%w: no %s token account for %s", ledger.ErrAccountNotFound, mint, caller)
		}
		return tx.Transfer(source.Key, custody, amount)
	})
}

// VaultState reads the current vault record.
func (engine *Engine) VaultState(vaultKey solana.PublicKey) (*vault.KeyedVault, error) {
	account, ok := engine.ledger.Account(vaultKey)
	if !ok {
		return nil, vault.ErrNotInitialized
	}
	v, err := vault.ParseVault(account.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", vault.ErrNotInitialized, err)
	}
	return &vault.KeyedVault{
		Key:         vaultKey,
		Height:      account.Height,
		VaultLayout: v,
	}, nil
}

// ExecuteArbitrage runs one full cycle against two pools: read both prices,
// decide direction and size, execute both legs and book the realized profit.
// Any failure discards every intermediate effect; the committed state moves
// only when the whole cycle succeeds.
func (engine *Engine) ExecuteArbitrage(vaultKey, caller, poolA, poolB solana.PublicKey, tradeAmount uint64) (*TradeResult, error) {
	result := &TradeResult{
		Id:    atomic.AddUint64(&engine.tradeId, 1),
		Vault: vaultKey,
	}
	err := engine.ledger.Execute(func(tx *ledger.Tx) error {
		account, ok := tx.Account(vaultKey)
		if !ok {
			return vault.ErrNotInitialized
		}
		v, err := vault.ParseVault(account.Data)
		if err != nil {
			return fmt.Errorf("%w: %s", vault.ErrNotInitialized, err)
		}
		if caller != v.Authority {
			return vault.ErrUnauthorized
		}
		quoteA, err := engine.registry.ReadPrice(tx, poolA, v.MintX, v.MintY)
		if err != nil {
			return err
		}
		quoteB, err := engine.registry.ReadPrice(tx, poolB, v.MintX, v.MintY)
		if err != nil {
			return err
		}
		engine.log.Printf("pool %s price: %s, pool %s price: %s", poolA, quoteA.Price, poolB, quoteB.Price)
		amount := tradeAmount
		if amount == 0 {
			amount = engine.sizeTrade(tx, &v, quoteA, quoteB)
		}
		decision, err := calculator.Evaluate(quoteA, quoteB, v.MintX, v.MintY, amount, v.MinProfitThreshold, v.MaxSingleTrade)
		if err != nil {
			return err
		}
		engine.log.Printf("decision: buy on %s, sell on %s, amount: %d, expected profit: %d",
			decision.BuyQuote.Pool, decision.SellQuote.Pool, decision.AmountIn, decision.ExpectedProfit)
		engine.storeEvaluated(result.Id, vaultKey, decision, tx.Slot())
		realized, err := engine.executor.Execute(tx, &v, decision)
		if err != nil {
			return err
		}
		if realized.BalanceDelta < 0 || uint64(realized.BalanceDelta) < v.MinProfitThreshold {
			return fmt.Errorf("%w: realized %d, threshold %d",
				vault.ErrProfitBelowThresholdAfterExecution, realized.BalanceDelta, v.MinProfitThreshold)
		}
		profit := uint64(realized.BalanceDelta)
		v.RecordTrade(profit, true)
		if err := tx.SetAccountData(vaultKey, v.Encode()); err != nil {
			return err
		}
		result.PoolBuy = decision.BuyQuote.Pool
		result.PoolSell = decision.SellQuote.Pool
		result.AmountIn = decision.AmountIn
		result.AmountOut = realized.AmountOut
		result.ExpectedProfit = decision.ExpectedProfit
		result.Profit = profit
		result.ComputeUsed = tx.ComputeUsed()
		result.Slot = tx.Slot()
		return nil
	})
	if err != nil {
		engine.log.Printf("arbitrage aborted: %v", err)
		engine.bookFailure(vaultKey, poolA, poolB, result.Id, err)
		return nil, err
	}
	engine.log.Printf("arbitrage committed: amount %d, profit %d, compute %d",
		result.AmountIn, result.Profit, result.ComputeUsed)
	select {
	case engine.trades <- result:
	default:
	}
	return result, nil
}

// sizeTrade derives a trade size from the pools when the caller gave none,
// falling back to the fixed default when the spread supports nothing better.
func (engine *Engine) sizeTrade(tx *ledger.Tx, v *vault.VaultLayout, quoteA, quoteB *oracle.Quote) uint64 {
	buy, sell := quoteA, quoteB
	if quoteB.Price.LessThan(quoteA.Price) {
		buy, sell = quoteB, quoteA
	}
	balance, err := tx.Balance(v.TokenAccountY)
	if err != nil {
		return DefaultTradeAmount
	}
	amount, err := calculator.OptimalAmountIn(buy, sell, uint64(dlmm.DefaultBaseFeeRate), balance)
	if err != nil {
		engine.log.Printf("optimal sizing unavailable: %v", err)
		amount = DefaultTradeAmount
	}
	if amount > v.MaxSingleTrade {
		amount = v.MaxSingleTrade
	}
	return amount
}

// bookFailure records a failed attempt outside the aborted request. The
// counter bump is its own committed request and is off by default; the
// aborted trade itself never leaves a trace in the ledger.
func (engine *Engine) bookFailure(vaultKey, poolA, poolB solana.PublicKey, id uint64, cause error) {
	if engine.store != nil {
		engine.store.StoreFailedAttempt(&store.FailedAttempt{
			Id:     id,
			Vault:  vaultKey.String(),
			PoolA:  poolA.String(),
			PoolB:  poolB.String(),
			Reason: cause.Error(),
			Slot:   engine.ledger.Slot(),
		})
	}
	if !engine.countFailedAttempts || !isAttemptFailure(cause) {
		return
	}
	err := engine.ledger.Execute(func(tx *ledger.Tx) error {
		account, ok := tx.Account(vaultKey)
		if !ok {
			return vault.ErrNotInitialized
		}
		v, err := vault.ParseVault(account.Data)
		if err != nil {
			return err
		}
		v.RecordTrade(0, false)
		return tx.SetAccountData(vaultKey, v.Encode())
	})
	if err != nil {
		engine.log.Printf("failed attempt not booked: %v", err)
	}
}

func isAttemptFailure(err error) bool {
	return errors.Is(err, vault.ErrNoArbitrageOpportunity) ||
		errors.Is(err, vault.ErrSlippageExceeded) ||
		errors.Is(err, vault.ErrProfitBelowThresholdAfterExecution) ||
		errors.Is(err, vault.ErrExternalSwapFailure)
}

func (engine *Engine) storeEvaluated(id uint64, vaultKey solana.PublicKey, decision *calculator.Decision, slot uint64) {
	if engine.store == nil {
		return
	}
	engine.store.StoreEvaluatedOpportunity(&store.EvaluatedOpportunity{
		Id:             id,
		Vault:          vaultKey.String(),
		PoolBuy:        decision.BuyQuote.Pool.String(),
		PoolSell:       decision.SellQuote.Pool.String(),
		AmountIn:       decision.AmountIn,
		ExpectedOut:    decision.ExpectedOutLeg2,
		ExpectedProfit: decision.ExpectedProfit,
		Slot:           slot,
	})
}

// listen drains committed trades into the store and the webhook.
func (engine *Engine) listen() {
	defer engine.wg.Done()
	for {
		select {
		case result := <-engine.trades:
			engine.bookTrade(result)
		case <-engine.ctx.Done():
			return
		}
	}
}

func (engine *Engine) bookTrade(result *TradeResult) {
	if engine.store != nil {
		engine.store.StoreCommittedTrade(buildCommittedTrade(result))
	}
	if engine.dsdk != nil {
		if _, err := engine.dsdk.TradeNotify(result.Vault.String(), result.AmountIn, result.Profit, result.Slot); err != nil {
			engine.log.Printf("trade notify err: %v", err)
		}
	}
}

func buildCommittedTrade(result *TradeResult) *store.CommittedTrade {
	return &store.CommittedTrade{
		Id:          result.Id,
		Vault:       result.Vault.String(),
		AmountIn:    result.AmountIn,
		AmountOut:   result.AmountOut,
		Profit:      result.Profit,
		ComputeUsed: result.ComputeUsed,
		Slot:        result.Slot,
		CommittedTradeLegs: []*store.CommittedTradeLeg{
			{
				Pool:             result.PoolBuy.String(),
				AmountIn:         result.AmountIn,
				CommittedTradeId: result.Id,
			},
			{
				Pool:             result.PoolSell.String(),
				AmountOut:        result.AmountOut,
				CommittedTradeId: result.Id,
			},
		},
	}
}
