package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/tabsettle/internal/models"
)

// AppendExpenses persists entries as pending in one transaction.
func (s *SQLiteStore) AppendExpenses(ctx context.Context, entries []models.ExpenseEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertExpensesTx(ctx, tx, entries); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListPendingExpenses retrieves the unsettled expenses in sequence order.
func (s *SQLiteStore) ListPendingExpenses(ctx context.Context) ([]models.ExpenseEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, debtor, payer, amount, recorded_at
		 FROM expenses WHERE round_id IS NULL ORDER BY seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending expenses: %w", err)
	}
	defer rows.Close()

	var entries []models.ExpenseEntry
	for rows.Next() {
		var e models.ExpenseEntry
		if err := rows.Scan(&e.Seq, &e.Debtor, &e.Payer, &e.Amount, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	return entries, nil
}

// LastExpenseSeq returns the highest sequence ever stored, or 0.
func (s *SQLiteStore) LastExpenseSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) FROM expenses").Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to get last expense seq: %w", err)
	}
	return seq, nil
}

func insertExpensesTx(ctx context.Context, tx *sql.Tx, entries []models.ExpenseEntry) error {
	for _, e := range entries {
		if !models.ValidAmount(e.Amount) {
			return fmt.Errorf("expense %d amount %s out of range", e.Seq, e.Amount)
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expenses (seq, debtor, payer, amount, recorded_at) VALUES (?, ?, ?, ?, ?)",
			e.Seq, e.Debtor, e.Payer, e.Amount.String(), e.RecordedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}
	}
	return nil
}
