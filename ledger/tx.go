package ledger

import (
	"fmt"

	"github.com/amalnathsathyan/resonance-vault/spltoken"
	"github.com/gagliardetto/solana-go"
)

// Tx is the staging view of one in-flight request. All reads come from the
// staging copies when present, the committed state otherwise; all writes go to
// the staging copies only. Tx is not safe for concurrent use, matching the
// single-unit execution model.
type Tx struct {
	ledger        *Ledger
	slot          uint64
	computeUsed   uint64
	computeBudget uint64
	accounts      map[solana.PublicKey]*Account
	tokens        map[solana.PublicKey]*spltoken.KeyedUser
}

func (tx *Tx) Slot() uint64 {
	return tx.slot
}

// Consume charges compute units against the request budget.
func (tx *Tx) Consume(units uint64) error {
	tx.computeUsed += units
	if tx.computeUsed > tx.computeBudget {
		return fmt.Errorf("%w: used %d of %d", ErrComputeBudgetExceeded, tx.computeUsed, tx.computeBudget)
	}
	return nil
}

func (tx *Tx) ComputeUsed() uint64 {
	return tx.computeUsed
}

func (tx *Tx) Account(key solana.PublicKey) (*Account, bool) {
	if account, ok := tx.accounts[key]; ok {
		return account, true
	}
	account, ok := tx.ledger.accounts[key]
	if !ok {
		return nil, false
	}
	staged := account.clone()
	tx.accounts[key] = staged
	return staged, true
}

func (tx *Tx) CreateAccount(key, owner solana.PublicKey, data []byte) error {
	if _, ok := tx.accounts[key]; ok {
		return ErrAccountExists
	}
	if _, ok := tx.ledger.accounts[key]; ok {
		return ErrAccountExists
	}
	d := make([]byte, len(data))
	copy(d, data)
	tx.accounts[key] = &Account{Key: key, Owner: owner, Data: d, Height: tx.slot}
	return nil
}

func (tx *Tx) SetAccountData(key solana.PublicKey, data []byte) error {
	account, ok := tx.Account(key)
	if !ok {
		return ErrAccountNotFound
	}
	account.Data = make([]byte, len(data))
	copy(account.Data, data)
	account.Height = tx.slot
	return nil
}

func (tx *Tx) Token(key solana.PublicKey) (*spltoken.KeyedUser, bool) {
	if user, ok := tx.tokens[key]; ok {
		return user, true
	}
	user, ok := tx.ledger.tokens[key]
	if !ok {
		return nil, false
	}
	staged := *user
	tx.tokens[key] = &staged
	return &staged, true
}

// TokenFor finds the token account held by owner for mint, staged view first.
func (tx *Tx) TokenFor(owner, mint solana.PublicKey) (*spltoken.KeyedUser, bool) {
	for _, user := range tx.tokens {
		if user.Owner == owner && user.Mint == mint {
			return user, true
		}
	}
	for key, user := range tx.ledger.tokens {
		if _, staged := tx.tokens[key]; staged {
			continue
		}
		if user.Owner == owner && user.Mint == mint {
			return tx.mustToken(key), true
		}
	}
	return nil, false
}

func (tx *Tx) mustToken(key solana.PublicKey) *spltoken.KeyedUser {
	user, _ := tx.Token(key)
	return user
}

func (tx *Tx) CreateTokenAccount(key, mint, owner solana.PublicKey) error {
	if _, ok := tx.tokens[key]; ok {
		return ErrAccountExists
	}
	if _, ok := tx.ledger.tokens[key]; ok {
		return ErrAccountExists
	}
	tx.tokens[key] = &spltoken.KeyedUser{
		Key:    key,
		Height: tx.slot,
		UserLayout: spltoken.UserLayout{
			Mint:  mint,
			Owner: owner,
		},
	}
	return nil
}

func (tx *Tx) Balance(key solana.PublicKey) (uint64, error) {
	user, ok := tx.Token(key)
	if !ok {
		return 0, ErrAccountNotFound
	}
	return user.Amount, nil
}

func (tx *Tx) Credit(key solana.PublicKey, amount uint64) error {
	user, ok := tx.Token(key)
	if !ok {
		return ErrAccountNotFound
	}
	user.Amount += amount
	user.Height = tx.slot
	return nil
}

func (tx *Tx) Debit(key solana.PublicKey, amount uint64) error {
	user, ok := tx.Token(key)
	if !ok {
		return ErrAccountNotFound
	}
	if user.Amount < amount {
		return fmt.Errorf("%w: account %s has %d, needs %d", ErrInsufficientFunds, key, user.Amount, amount)
	}
	user.Amount -= amount
	user.Height = tx.slot
	return nil
}

// Transfer moves amount between two token accounts of the same mint.
func (tx *Tx) Transfer(src, dst solana.PublicKey, amount uint64) error {
	srcUser, ok := tx.Token(src)
	if !ok {
		return ErrAccountNotFound
	}
	dstUser, ok := tx.Token(dst)
	if !ok {
		return ErrAccountNotFound
	}
	if srcUser.Mint != dstUser.Mint {
		return fmt.Errorf("%w: %s -> %s", ErrMintMismatch, srcUser.Mint, dstUser.Mint)
	}
	if err := tx.Debit(src, amount); err != nil {
		return err
	}
	return tx.Credit(dst, amount)
}

func (tx *Tx) commit() {
	for key, account := range tx.accounts {
		tx.ledger.accounts[key] = account
	}
	for key, user := range tx.tokens {
		tx.ledger.tokens[key] = user
	}
	tx.ledger.slot = tx.slot
}
