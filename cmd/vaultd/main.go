package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/amalnathsathyan/resonance-vault/arbitrage"
	"github.com/amalnathsathyan/resonance-vault/config"
	"github.com/amalnathsathyan/resonance-vault/networkdetect"
	"github.com/amalnathsathyan/resonance-vault/vault"
	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
)

func shutdown(cancel context.CancelFunc, quit chan os.Signal) {
	<-quit
	cancel()
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGABRT)
	go shutdown(cancel, quit)

	if len(os.Args) != 2 {
		panic("args is invalid")
	}
	workSpace := os.Args[1]
	os.Chdir(workSpace)
	_ = godotenv.Load()

	infoJson, err := os.ReadFile(config.ConfigFile)
	if err != nil {
		panic(err)
	}
	var cfg config.Config
	err = json.Unmarshal(infoJson, &cfg)
	if err != nil {
		panic(err)
	}
	if key := os.Getenv("VAULT_AUTHORITY_KEY"); key != "" {
		cfg.Key = key
	}
	cfg.WorkSpace = workSpace
	workspace, _ := os.Getwd()
	fmt.Printf("work space: %s\n", workspace)

	oldNodes := cfg.Nodes
	usableNodes := make([]*config.Node, 0)
	for _, node := range oldNodes {
		if node.Usable {
			usableNodes = append(usableNodes, node)
		}
	}
	if len(usableNodes) == 0 {
		panic("no usable nodes")
	}
	cfg.Nodes = usableNodes
	if cfg.NetStatus && len(usableNodes) > 1 {
		endpoints := make([]string, 0, len(usableNodes))
		for _, node := range usableNodes {
			endpoints = append(endpoints, node.Rpc)
		}
		best, ttl := networkdetect.DetectPeers(endpoints)
		fmt.Printf("best node: %s, ttl: %d\n", best, ttl/1000000)
		for i, node := range usableNodes {
			if node.Rpc == best {
				usableNodes[0], usableNodes[i] = usableNodes[i], usableNodes[0]
				break
			}
		}
	}

	engine := arbitrage.NewEngine(ctx, &cfg)
	vaultKey, _, err := vault.DeriveVaultAddress(cfg.Authority)
	if err != nil {
		panic(err)
	}
	custodyX, err := vault.DeriveCustodyAddress(vaultKey, cfg.MintX)
	if err != nil {
		panic(err)
	}
	custodyY, err := vault.DeriveCustodyAddress(vaultKey, cfg.MintY)
	if err != nil {
		panic(err)
	}
	err = engine.Hydrate([]solana.PublicKey{vaultKey, custodyX, custodyY, cfg.PoolA, cfg.PoolB})
	if err != nil {
		fmt.Printf("hydrate err: %v\n", err)
	}

	engine.Service()
}
