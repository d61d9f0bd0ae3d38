package tracker

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/calculator"
	"github.com/mmynk/tabsettle/internal/models"
)

// Record appends an expense: debtor owes payer amount. Returns the entry's sequence number.
//
// The debtor's externally reported balance must cover amount at call time.
// Nothing is reserved, so several entries against the same debtor may each
// pass the check while together exceeding the balance.
func (l *Ledger) Record(ctx context.Context, debtor, payer string, amount decimal.Decimal) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	seqs, err := l.append(ctx, payer, []string{debtor}, []decimal.Decimal{amount})
	if err != nil {
		return 0, err
	}
	return seqs[0], nil
}

// RecordSplit splits amount evenly among debtors, all owing payer, and
// records one entry per debtor in the given order. Remainder units go to the
// first debtors. Either every share is recorded or none is.
func (l *Ledger) RecordSplit(ctx context.Context, payer string, debtors []string, amount decimal.Decimal) ([]int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !models.ValidAmount(amount) {
		return nil, ErrInvalidAmount
	}
	shares, err := calculator.SplitEvenly(amount, len(debtors))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return l.append(ctx, payer, debtors, shares)
}

// Entries returns the pending (unsettled) entries in record order.
func (l *Ledger) Entries() []models.ExpenseEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]models.ExpenseEntry(nil), l.entries...)
}

// append validates every debtor/amount pair against payer, then journals and
// appends them. Callers hold l.mu.
func (l *Ledger) append(ctx context.Context, payer string, debtors []string, amounts []decimal.Decimal) ([]int64, error) {
	for i, debtor := range debtors {
		amount := amounts[i]
		if !models.ValidAmount(amount) {
			return nil, ErrInvalidAmount
		}

		_, debtorKnown := l.byIdentity[debtor]
		_, payerKnown := l.byIdentity[payer]
		if !debtorKnown || !payerKnown {
			return nil, fmt.Errorf("%w: debtor %s, payer %s", ErrParticipantsNotRegistered, debtor, payer)
		}

		balance, err := l.port.BalanceOf(ctx, debtor)
		if err != nil {
			return nil, fmt.Errorf("failed to get balance of %s: %w", debtor, err)
		}
		if balance.LessThan(amount) {
			return nil, fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, debtor, balance, amount)
		}
	}

	recordedAt := l.now().Unix()
	entries := make([]models.ExpenseEntry, len(debtors))
	seqs := make([]int64, len(debtors))
	for i, debtor := range debtors {
		seqs[i] = l.lastSeq + int64(i) + 1
		entries[i] = models.ExpenseEntry{
			Seq:        seqs[i],
			Debtor:     debtor,
			Payer:      payer,
			Amount:     amounts[i],
			RecordedAt: recordedAt,
		}
	}

	if l.store != nil {
		if err := l.store.AppendExpenses(ctx, entries); err != nil {
			return nil, fmt.Errorf("failed to persist expenses: %w", err)
		}
	}

	l.entries = append(l.entries, entries...)
	l.lastSeq += int64(len(entries))
	return seqs, nil
}
