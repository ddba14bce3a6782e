package ledger

import (
	"errors"
	"sync"

	"github.com/amalnathsathyan/resonance-vault/spltoken"
	"github.com/gagliardetto/solana-go"
)

var (
	ErrAccountExists         = errors.New("account already exists")
	ErrAccountNotFound       = errors.New("account not found")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrMintMismatch          = errors.New("token account mint mismatch")
	ErrComputeBudgetExceeded = errors.New("compute budget exceeded")
)

var (
	DefaultComputeBudget = uint64(400000)
)

// Account is one raw ledger account: owner program plus opaque data.
type Account struct {
	Key    solana.PublicKey
	Owner  solana.PublicKey
	Data   []byte
	Height uint64
}

func (a *Account) clone() *Account {
	c := &Account{
		Key:    a.Key,
		Owner:  a.Owner,
		Data:   make([]byte, len(a.Data)),
		Height: a.Height,
	}
	copy(c.Data, a.Data)
	return c
}

// Ledger holds raw accounts and spl token accounts and executes requests as
// all-or-nothing units. A request runs against a staging copy of every account
// it touches; the copies are merged back only when the request returns nil.
// The mutex gives the exclusive-write-per-account property: two requests
// against the same ledger serialize, the later one observes the post-state.
type Ledger struct {
	mu            sync.Mutex
	slot          uint64
	computeBudget uint64
	accounts      map[solana.PublicKey]*Account
	tokens        map[solana.PublicKey]*spltoken.KeyedUser
}

func NewLedger() *Ledger {
	return &Ledger{
		slot:          1,
		computeBudget: DefaultComputeBudget,
		accounts:      make(map[solana.PublicKey]*Account),
		tokens:        make(map[solana.PublicKey]*spltoken.KeyedUser),
	}
}

func (l *Ledger) SetComputeBudget(units uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.computeBudget = units
}

func (l *Ledger) Slot() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slot
}

// UpsertAccount installs or replaces a raw account outside of any request,
// used to hydrate the ledger from chain state or test fixtures.
func (l *Ledger) UpsertAccount(key, owner solana.PublicKey, data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	d := make([]byte, len(data))
	copy(d, data)
	l.accounts[key] = &Account{Key: key, Owner: owner, Data: d, Height: l.slot}
}

func (l *Ledger) Account(key solana.PublicKey) (*Account, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	account, ok := l.accounts[key]
	if !ok {
		return nil, false
	}
	return account.clone(), true
}

// UpsertTokenAccount installs or replaces a token account outside of any
// request, used to hydrate the ledger from chain state.
func (l *Ledger) UpsertTokenAccount(key solana.PublicKey, layout spltoken.UserLayout) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens[key] = &spltoken.KeyedUser{
		Key:        key,
		Height:     l.slot,
		UserLayout: layout,
	}
}

// CreateTokenAccount installs an empty token account outside of any request.
func (l *Ledger) CreateTokenAccount(key, mint, owner solana.PublicKey) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.tokens[key]; ok {
		return ErrAccountExists
	}
	l.tokens[key] = &spltoken.KeyedUser{
		Key:    key,
		Height: l.slot,
		UserLayout: spltoken.UserLayout{
			Mint:  mint,
			Owner: owner,
		},
	}
	return nil
}

func (l *Ledger) MintTo(key solana.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	user, ok := l.tokens[key]
	if !ok {
		return ErrAccountNotFound
	}
	user.Amount += amount
	user.Height = l.slot
	return nil
}

func (l *Ledger) TokenAccount(key solana.PublicKey) (*spltoken.KeyedUser, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	user, ok := l.tokens[key]
	if !ok {
		return nil, false
	}
	c := *user
	return &c, true
}

// TokenAccountFor finds the token account held by owner for mint.
func (l *Ledger) TokenAccountFor(owner, mint solana.PublicKey) (*spltoken.KeyedUser, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, user := range l.tokens {
		if user.Owner == owner && user.Mint == mint {
			c := *user
			return &c, true
		}
	}
	return nil, false
}

func (l *Ledger) Balance(key solana.PublicKey) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	user, ok := l.tokens[key]
	if !ok {
		return 0, ErrAccountNotFound
	}
	return user.Amount, nil
}

// Execute runs fn as one atomic request. Every mutation fn performs through
// the Tx lands in staging copies; a nil return commits them in one step and
// advances the slot, any error discards them. The caller observes either the
// full effect or none of it.
func (l *Ledger) Execute(fn func(tx *Tx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	tx := &Tx{
		ledger:        l,
		slot:          l.slot + 1,
		computeBudget: l.computeBudget,
		accounts:      make(map[solana.PublicKey]*Account),
		tokens:        make(map[solana.PublicKey]*spltoken.KeyedUser),
	}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}
