package payment

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/avatarnftme/anme-mint/pkg/types"
)

type allowanceKey struct {
	owner   types.Address
	spender types.Address
}

// Ledger is an in-process balance and allowance book for every currency,
// the native one included. It implements Funds.
type Ledger struct {
	mu         sync.Mutex
	balances   map[types.Address]map[types.Address]*big.Int
	allowances map[types.Address]map[allowanceKey]*big.Int
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		balances:   make(map[types.Address]map[types.Address]*big.Int),
		allowances: make(map[types.Address]map[allowanceKey]*big.Int),
	}
}

// Credit adds amount of cur to account.
func (l *Ledger) Credit(cur, account types.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("credit: %w", ErrAmountMustBePositive)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	bal := l.balanceLocked(cur, account)
	bal.Add(bal, amount)
	return nil
}

// Approve sets spender's allowance over owner's cur balance.
func (l *Ledger) Approve(cur, owner, spender types.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("approve: %w", ErrAmountMustBePositive)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.allowances[cur]
	if !ok {
		m = make(map[allowanceKey]*big.Int)
		l.allowances[cur] = m
	}
	m[allowanceKey{owner, spender}] = new(big.Int).Set(amount)
	return nil
}

// Allowance returns spender's remaining allowance over owner's cur balance.
func (l *Ledger) Allowance(cur, owner, spender types.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if a, ok := l.allowances[cur][allowanceKey{owner, spender}]; ok {
		return new(big.Int).Set(a)
	}
	return new(big.Int)
}

// BalanceOf returns account's cur balance.
func (l *Ledger) BalanceOf(cur, account types.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.balances[cur][account]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// Transfer implements Funds for native value.
func (l *Ledger) Transfer(_ context.Context, from, to types.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.moveLocked(types.NativeCurrency, from, to, amount)
}

// TransferFrom implements Funds.
func (l *Ledger) TransferFrom(_ context.Context, cur, spender, from, to types.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := allowanceKey{from, spender}
	allowed, ok := l.allowances[cur][key]
	if !ok || allowed.Cmp(amount) < 0 {
		return fmt.Errorf("%w: spender %s may move %s of %s, needs %s",
			ErrInsufficientAllowance, spender, orZero(allowed), cur, amount)
	}
	if err := l.moveLocked(cur, from, to, amount); err != nil {
		return err
	}
	allowed.Sub(allowed, amount)
	return nil
}

// Refund implements Funds.
func (l *Ledger) Refund(_ context.Context, cur, from, to types.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.moveLocked(cur, from, to, amount)
}

func (l *Ledger) moveLocked(cur, from, to types.Address, amount *big.Int) error {
	src := l.balanceLocked(cur, from)
	if src.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s holds %s of %s, needs %s", ErrInsufficientBalance, from, src, cur, amount)
	}
	src.Sub(src, amount)
	dst := l.balanceLocked(cur, to)
	dst.Add(dst, amount)
	return nil
}

func (l *Ledger) balanceLocked(cur, account types.Address) *big.Int {
	m, ok := l.balances[cur]
	if !ok {
		m = make(map[types.Address]*big.Int)
		l.balances[cur] = m
	}
	b, ok := m[account]
	if !ok {
		b = new(big.Int)
		m[account] = b
	}
	return b
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
