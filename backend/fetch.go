package backend

import (
	"fmt"

	"github.com/amalnathsathyan/resonance-vault/ledger"
	"github.com/amalnathsathyan/resonance-vault/program"
	"github.com/amalnathsathyan/resonance-vault/spltoken"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

const (
	MultipleAccountSliceSize = 100
)

type Account struct {
	PubKey  solana.PublicKey
	Account *rpc.Account
	Height  uint64
}

func (backend *Backend) ProgramAccounts(programId solana.PublicKey, dataSizes []uint64) ([]*Account, error) {
	accounts := make([]*Account, 0)
	filters := make([]rpc.RPCFilter, 0)
	for _, dataSize := range dataSizes {
		filters = append(filters, rpc.RPCFilter{
			DataSize: dataSize,
		})
	}
	getProgramAccountsResult, err := backend.rpcClient.GetProgramAccountsWithOpts(backend.ctx, programId,
		&rpc.GetProgramAccountsOpts{
			Encoding: solana.EncodingBase64,
			Filters:  filters,
		})
	if err != nil {
		return nil, err
	}
	for _, account := range getProgramAccountsResult {
		accounts = append(accounts, &Account{
			PubKey:  account.Pubkey,
			Account: account.Account,
			Height:  0,
		})
	}
	return accounts, nil
}

func (backend *Backend) Accounts(pubkeys []solana.PublicKey) ([]*Account, error) {
	accounts := make([]*Account, 0)
	index, end := 0, 0
	for index < len(pubkeys) {
		if end = index + MultipleAccountSliceSize; end > len(pubkeys) {
			end = len(pubkeys)
		}
		getMultipleAccountsRsp, err := backend.rpcClient.GetMultipleAccountsWithOpts(backend.ctx, pubkeys[index:end],
			&rpc.GetMultipleAccountsOpts{Encoding: solana.EncodingBase64})
		if err != nil {
			return nil, err
		}
		if len(getMultipleAccountsRsp.Value) != end-index {
			return nil, fmt.Errorf("get accounts err, some account is missing")
		}
		for i, account := range getMultipleAccountsRsp.Value {
			accounts = append(accounts, &Account{
				PubKey:  pubkeys[index+i],
				Height:  getMultipleAccountsRsp.Context.Slot,
				Account: account,
			})
		}
		index = end
	}
	return accounts, nil
}

// HydrateLedger fetches the given accounts from the chain and installs them
// into the local ledger. Token program accounts go into the token table,
// everything else lands as raw account data.
func (backend *Backend) HydrateLedger(l *ledger.Ledger, pubkeys []solana.PublicKey) error {
	accounts, err := backend.Accounts(pubkeys)
	if err != nil {
		return err
	}
	for _, account := range accounts {
		if account.Account == nil {
			backend.logger.Printf("account %s is missing on chain", account.PubKey)
			continue
		}
		data := account.Account.Data.GetBinary()
		if account.Account.Owner == program.Token {
			layout, err := spltoken.ParseUser(data)
			if err != nil {
				backend.logger.Printf("account %s is not a token account: %v", account.PubKey, err)
				continue
			}
			l.UpsertTokenAccount(account.PubKey, layout)
			continue
		}
		l.UpsertAccount(account.PubKey, account.Account.Owner, data)
	}
	return nil
}
