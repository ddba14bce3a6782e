package config

import (
	"github.com/gagliardetto/solana-go"
)

var (
	CachePath     = "./cache/"
	VaultDumpFile = CachePath + "vault_state.json"
	ConfigPath    = "./config/"
	ConfigFile    = ConfigPath + "config.json"
	LogPath       = "./logs/"
	EngineLog     = "engine"
	ExecutorLog   = "executor"
	BackendLog    = "backend"
	NetworkLog    = "network"
)

type Node struct {
	Rpc    string `json:"rpc"`
	Ws     string `json:"ws"`
	Usable bool   `json:"usable"`
}

type Config struct {
	Nodes               []*Node          `json:"nodes"`
	Listen              string           `json:"listen"`
	Authority           solana.PublicKey `json:"authority"`
	Key                 string           `json:"key"`
	MintX               solana.PublicKey `json:"mint_x"`
	MintY               solana.PublicKey `json:"mint_y"`
	PoolA               solana.PublicKey `json:"pool_a"`
	PoolB               solana.PublicKey `json:"pool_b"`
	MinProfitThreshold  uint64           `json:"min_profit_threshold"`
	MaxSingleTrade      uint64           `json:"max_single_trade"`
	TradeAmount         uint64           `json:"trade_amount"`
	ComputeBudget       uint64           `json:"compute_budget"`
	CountFailedAttempts bool             `json:"count_failed_attempts"`
	TradeTicker         uint64           `json:"trade_ticker"`
	DumpLog             bool             `json:"dump_log"`
	NetStatus           bool             `json:"net_status"`
	WorkSpace           string           `json:"workspace"`
	DingUrl             string           `json:"ding-url"`
	DBUrl               string           `json:"db_url"`
	DBScheme            string           `json:"db_scheme"`
	DBUser              string           `json:"db_user"`
	DBPasswd            string           `json:"db_passwd"`
}
