package arbitrage

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/amalnathsathyan/resonance-vault/store"
	"github.com/amalnathsathyan/resonance-vault/vault"
	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
)

func (engine *Engine) StartRPC() {
	router := gin.New()
	g := router.Group("/api")
	g.GET("/vault", engine.getVault)
	g.GET("/trade", engine.getTrade)
	g.POST("/arbitrage", engine.postArbitrage)
	engine.httpServer = &http.Server{
		Addr:    engine.rpcPort,
		Handler: router,
	}
	engine.log.Printf("start rpc server......")
	go func() {
		if err := engine.httpServer.ListenAndServe(); err != nil {
			engine.log.Printf("ListenAndServe: %s", err.Error())
		}
	}()
}

func (engine *Engine) StopRPC() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := engine.httpServer.Shutdown(ctx); err != nil {
		panic(err)
	}
	engine.log.Printf("rpc server has stopped......")
}

type VaultInfo struct {
	Key                string `json:"key"`
	Authority          string `json:"authority"`
	MintX              string `json:"mint_x"`
	MintY              string `json:"mint_y"`
	TokenAccountX      string `json:"token_account_x"`
	TokenAccountY      string `json:"token_account_y"`
	MinProfitThreshold uint64 `json:"min_profit_threshold"`
	MaxSingleTrade     uint64 `json:"max_single_trade"`
	TotalProfits       uint64 `json:"total_profits"`
	TotalTrades        uint64 `json:"total_trades"`
	FailedTrades       uint64 `json:"failed_trades"`
	Height             uint64 `json:"height"`
}

func buildVaultInfo(kv *vault.KeyedVault) *VaultInfo {
	return &VaultInfo{
		Key:                kv.Key.String(),
		Authority:          kv.Authority.String(),
		MintX:              kv.MintX.String(),
		MintY:              kv.MintY.String(),
		TokenAccountX:      kv.TokenAccountX.String(),
		TokenAccountY:      kv.TokenAccountY.String(),
		MinProfitThreshold: kv.MinProfitThreshold,
		MaxSingleTrade:     kv.MaxSingleTrade,
		TotalProfits:       kv.TotalProfits,
		TotalTrades:        kv.TotalTrades,
		FailedTrades:       kv.FailedTrades,
		Height:             kv.Height,
	}
}

func (engine *Engine) getVault(c *gin.Context) {
	vaultStr, ok := c.GetQuery("vault")
	if !ok {
		authorityStr, ok := c.GetQuery("authority")
		if !ok {
			c.JSON(500, "parameter is invalid")
			return
		}
		authority, err := solana.PublicKeyFromBase58(authorityStr)
		if err != nil {
			c.JSON(500, err.Error())
			return
		}
		vaultKey, _, err := vault.DeriveVaultAddress(authority)
		if err != nil {
			c.JSON(500, err.Error())
			return
		}
		vaultStr = vaultKey.String()
	}
	vaultKey, err := solana.PublicKeyFromBase58(vaultStr)
	if err != nil {
		c.JSON(500, err.Error())
		return
	}
	state, err := engine.VaultState(vaultKey)
	if err != nil {
		c.JSON(500, err.Error())
		return
	}
	c.JSON(200, buildVaultInfo(state))
}

type TradeInfo struct {
	EvaluatedOpportunities []*store.EvaluatedOpportunity `json:"evaluated_opportunities"`
	CommittedTrades        []*store.CommittedTrade       `json:"committed_trades"`
	FailedAttempts         []*store.FailedAttempt        `json:"failed_attempts"`
}

func (engine *Engine) getTrade(c *gin.Context) {
	if engine.store == nil {
		c.JSON(500, "store is not configured")
		return
	}
	idStr, ok := c.GetQuery("id")
	if !ok {
		c.JSON(500, "parameter is invalid")
		return
	}
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		c.JSON(500, err.Error())
		return
	}
	evaluated, err := engine.store.GetEvaluatedOpportunity(id)
	if err != nil {
		c.JSON(500, err.Error())
		return
	}
	committed, err := engine.store.GetCommittedTrade(id)
	if err != nil {
		c.JSON(500, err.Error())
		return
	}
	failed, err := engine.store.GetFailedAttempt(id)
	if err != nil {
		c.JSON(500, err.Error())
		return
	}
	c.JSON(200, &TradeInfo{
		EvaluatedOpportunities: evaluated,
		CommittedTrades:        committed,
		FailedAttempts:         failed,
	})
}

func (engine *Engine) postArbitrage(c *gin.Context) {
	vaultKey, err := solana.PublicKeyFromBase58(c.Query("vault"))
	if err != nil {
		c.JSON(500, err.Error())
		return
	}
	caller, err := solana.PublicKeyFromBase58(c.Query("caller"))
	if err != nil {
		c.JSON(500, err.Error())
		return
	}
	poolA, err := solana.PublicKeyFromBase58(c.Query("pool_a"))
	if err != nil {
		c.JSON(500, err.Error())
		return
	}
	poolB, err := solana.PublicKeyFromBase58(c.Query("pool_b"))
	if err != nil {
		c.JSON(500, err.Error())
		return
	}
	amount := uint64(0)
	if amountStr, ok := c.GetQuery("amount"); ok {
		amount, err = strconv.ParseUint(amountStr, 10, 64)
		if err != nil {
			c.JSON(500, err.Error())
			return
		}
	}
	engine.Submit(&Request{
		Vault:  vaultKey,
		Caller: caller,
		PoolA:  poolA,
		PoolB:  poolB,
		Amount: amount,
	})
	c.JSON(200, "submitted")
}
