// Package token is an in-memory fungible token with owner-approved allowances.
//
// Balances are minted by the operator, holders approve spenders, and a
// spender moves funds out of a holder's account with TransferFrom, which
// consumes allowance. Spender adapts a Token to the tracker's value-transfer port.
// Amounts are whole base units up to 2^256-1, as with an 18-decimal ERC-20 token.
package token

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/models"
)

var (
	ErrInsufficientFunds     = errors.New("transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("transfer amount exceeds allowance")
	ErrInvalidAmount         = errors.New("amount must be a positive whole number of base units")
	ErrSupplyOverflow        = errors.New("mint overflows total supply")
)

// Token holds balances and allowances in memory. Safe for concurrent use.
type Token struct {
	mu          sync.Mutex
	balances    map[string]decimal.Decimal
	allowances  map[string]map[string]decimal.Decimal // allowances[owner][spender]
	totalSupply decimal.Decimal
}

// New creates an empty token.
func New() *Token {
	return &Token{
		balances:    make(map[string]decimal.Decimal),
		allowances:  make(map[string]map[string]decimal.Decimal),
		totalSupply: decimal.Zero,
	}
}

// Mint credits amount to account.
func (t *Token) Mint(account string, amount decimal.Decimal) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !models.ValidAmount(amount) {
		return ErrInvalidAmount
	}
	supply := t.totalSupply.Add(amount)
	if supply.GreaterThan(models.MaxAmount) {
		return ErrSupplyOverflow
	}
	t.totalSupply = supply
	t.balances[account] = t.balances[account].Add(amount)
	return nil
}

// Approve sets the amount spender may move out of owner's account, replacing any previous allowance.
func (t *Token) Approve(owner, spender string, amount decimal.Decimal) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !amount.IsZero() && !models.ValidAmount(amount) {
		return ErrInvalidAmount
	}
	if _, ok := t.allowances[owner]; !ok {
		t.allowances[owner] = make(map[string]decimal.Decimal)
	}
	t.allowances[owner][spender] = amount
	return nil
}

// Allowance returns how much spender may still move out of owner's account.
func (t *Token) Allowance(owner, spender string) decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.allowances[owner][spender]
}

// BalanceOf returns the balance of account. Unknown accounts hold zero.
func (t *Token) BalanceOf(account string) decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.balances[account]
}

// TotalSupply returns the sum of all minted amounts.
func (t *Token) TotalSupply() decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.totalSupply
}

// TransferFrom moves amount from one account to another on behalf of spender.
// Both the balance of from and the allowance granted to spender must cover amount.
func (t *Token) TransferFrom(spender, from, to string, amount decimal.Decimal) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !models.ValidAmount(amount) {
		return ErrInvalidAmount
	}
	if t.balances[from].LessThan(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientFunds, from, t.balances[from], amount)
	}
	allowance := t.allowances[from][spender]
	if allowance.LessThan(amount) {
		return fmt.Errorf("%w: %s allows %s %s, needs %s", ErrInsufficientAllowance, from, spender, allowance, amount)
	}

	t.allowances[from][spender] = allowance.Sub(amount)
	t.balances[from] = t.balances[from].Sub(amount)
	t.balances[to] = t.balances[to].Add(amount)
	return nil
}

// Spender returns the value-transfer port that moves funds as spender.
func (t *Token) Spender(spender string) *Port {
	return &Port{token: t, spender: spender}
}

// Port moves funds through a Token on behalf of a fixed spender.
type Port struct {
	token   *Token
	spender string
}

// BalanceOf returns the token balance of identity.
func (p *Port) BalanceOf(_ context.Context, identity string) (decimal.Decimal, error) {
	return p.token.BalanceOf(identity), nil
}

// Transfer moves amount from one identity to another using the spender's allowance.
func (p *Port) Transfer(_ context.Context, from, to string, amount decimal.Decimal) error {
	return p.token.TransferFrom(p.spender, from, to, amount)
}
