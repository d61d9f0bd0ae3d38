package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/models"
)

var (
	ErrInsufficientFunds     = errors.New("transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("transfer amount exceeds allowance")
	ErrInvalidAmount         = errors.New("amount must be a positive whole number within token range")
)

// Accounts is a token ledger persisted in SQLite: balances plus allowances
// that holders grant to spenders. It shares the store's database.
type Accounts struct {
	db *sql.DB
}

// Accounts returns the token accounts kept in the same database as the store.
func (s *SQLiteStore) Accounts() *Accounts {
	return &Accounts{db: s.db}
}

// Mint credits amount to identity, creating the account if needed.
func (a *Accounts) Mint(ctx context.Context, identity string, amount decimal.Decimal) error {
	if !models.ValidAmount(amount) {
		return ErrInvalidAmount
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	balance, err := balanceTx(ctx, tx, identity)
	if err != nil {
		return err
	}
	if err := setBalanceTx(ctx, tx, identity, balance.Add(amount)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Approve sets how much spender may move out of owner's account. Zero revokes.
func (a *Accounts) Approve(ctx context.Context, owner, spender string, amount decimal.Decimal) error {
	if !amount.IsZero() && !models.ValidAmount(amount) {
		return ErrInvalidAmount
	}
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO allowances (owner, spender, amount) VALUES (?, ?, ?)
		 ON CONFLICT (owner, spender) DO UPDATE SET amount = excluded.amount`,
		owner, spender, amount.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to set allowance: %w", err)
	}
	return nil
}

// Allowance returns how much spender may still move out of owner's account.
func (a *Accounts) Allowance(ctx context.Context, owner, spender string) (decimal.Decimal, error) {
	var amount decimal.Decimal
	err := a.db.QueryRowContext(ctx,
		"SELECT amount FROM allowances WHERE owner = ? AND spender = ?",
		owner, spender,
	).Scan(&amount)
	if err == sql.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get allowance: %w", err)
	}
	return amount, nil
}

// BalanceOf returns the balance of identity. Unknown accounts hold zero.
func (a *Accounts) BalanceOf(ctx context.Context, identity string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := a.db.QueryRowContext(ctx, "SELECT balance FROM accounts WHERE identity = ?", identity).Scan(&balance)
	if err == sql.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// TransferFrom moves amount from one account to another on behalf of spender,
// consuming spender's allowance. Balance, allowance and both accounts change
// in a single transaction.
func (a *Accounts) TransferFrom(ctx context.Context, spender, from, to string, amount decimal.Decimal) error {
	if !models.ValidAmount(amount) {
		return ErrInvalidAmount
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	fromBalance, err := balanceTx(ctx, tx, from)
	if err != nil {
		return err
	}
	if fromBalance.LessThan(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientFunds, from, fromBalance, amount)
	}

	allowance := decimal.Zero
	err = tx.QueryRowContext(ctx,
		"SELECT amount FROM allowances WHERE owner = ? AND spender = ?",
		from, spender,
	).Scan(&allowance)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to get allowance: %w", err)
	}
	if allowance.LessThan(amount) {
		return fmt.Errorf("%w: %s allows %s %s, needs %s", ErrInsufficientAllowance, from, spender, allowance, amount)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE allowances SET amount = ? WHERE owner = ? AND spender = ?",
		allowance.Sub(amount).String(), from, spender,
	); err != nil {
		return fmt.Errorf("failed to update allowance: %w", err)
	}
	if err := setBalanceTx(ctx, tx, from, fromBalance.Sub(amount)); err != nil {
		return err
	}

	// Read after the debit so a self-transfer nets out.
	toBalance, err := balanceTx(ctx, tx, to)
	if err != nil {
		return err
	}
	if err := setBalanceTx(ctx, tx, to, toBalance.Add(amount)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Spender returns the value-transfer port that moves funds as spender.
func (a *Accounts) Spender(spender string) *SpenderPort {
	return &SpenderPort{accounts: a, spender: spender}
}

// SpenderPort adapts Accounts to the tracker's value-transfer port.
type SpenderPort struct {
	accounts *Accounts
	spender  string
}

// BalanceOf returns the account balance of identity.
func (p *SpenderPort) BalanceOf(ctx context.Context, identity string) (decimal.Decimal, error) {
	return p.accounts.BalanceOf(ctx, identity)
}

// Transfer moves amount between identities using the spender's allowance.
func (p *SpenderPort) Transfer(ctx context.Context, from, to string, amount decimal.Decimal) error {
	return p.accounts.TransferFrom(ctx, p.spender, from, to, amount)
}

func balanceTx(ctx context.Context, tx *sql.Tx, identity string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.QueryRowContext(ctx, "SELECT balance FROM accounts WHERE identity = ?", identity).Scan(&balance)
	if err == sql.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// setBalanceTx rejects balances above the token's total supply cap.
func setBalanceTx(ctx context.Context, tx *sql.Tx, identity string, balance decimal.Decimal) error {
	if balance.GreaterThan(models.MaxAmount) {
		return fmt.Errorf("%w: balance of %s would overflow", ErrInvalidAmount, identity)
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (identity, balance) VALUES (?, ?)
		 ON CONFLICT (identity) DO UPDATE SET balance = excluded.balance`,
		identity, balance.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}
