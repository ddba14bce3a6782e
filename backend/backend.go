package backend

import (
	"context"
	"log"
	"sync"

	"github.com/amalnathsathyan/resonance-vault/config"
	"github.com/amalnathsathyan/resonance-vault/utils"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Backend is the chain gateway: account fetches for hydration and signed
// transaction submission for live execution.
type Backend struct {
	logger    *log.Logger
	rpcClient *rpc.Client
	ctx       context.Context
	wg        sync.WaitGroup
	wallets   []*Wallet
	player    solana.PublicKey
}

type Wallet struct {
	Key solana.PrivateKey
}

func NewBackend(ctx context.Context, nodes []*config.Node) *Backend {
	rpcClient := rpc.New(nodes[0].Rpc)
	backend := &Backend{
		rpcClient: rpcClient,
		ctx:       ctx,
		logger:    utils.NewLog(config.LogPath, config.BackendLog),
		wallets:   make([]*Wallet, 0),
	}
	return backend
}

func (backend *Backend) ImportWallet(key string) {
	wallet := &Wallet{
		Key: solana.MustPrivateKeyFromBase58(key),
	}
	backend.wallets = append(backend.wallets, wallet)
}

func (backend *Backend) SetPlayer(player solana.PublicKey) {
	backend.player = player
}

func (backend *Backend) Start() {
}

func (backend *Backend) Stop() {
	backend.wg.Wait()
}

// SendInstructions signs and submits one transaction built from ins, paid and
// signed by the imported wallet matching the player key.
func (backend *Backend) SendInstructions(ins []solana.Instruction) (solana.Signature, error) {
	blockhash, err := backend.rpcClient.GetLatestBlockhash(backend.ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, err
	}
	trx, err := solana.NewTransaction(ins, blockhash.Value.Blockhash, solana.TransactionPayer(backend.player))
	if err != nil {
		return solana.Signature{}, err
	}
	_, err = trx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for _, wallet := range backend.wallets {
			if wallet.Key.PublicKey() == key {
				return &wallet.Key
			}
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, err
	}
	signature, err := backend.rpcClient.SendTransactionWithOpts(backend.ctx, trx, rpc.TransactionOpts{
		SkipPreflight: true,
	})
	if err != nil {
		return solana.Signature{}, err
	}
	backend.logger.Printf("transaction sent: %s", signature)
	return signature, nil
}
