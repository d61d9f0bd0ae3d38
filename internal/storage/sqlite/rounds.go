package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/tabsettle/internal/models"
)

// ErrRoundNotFound is returned when finishing a round that was never begun.
var ErrRoundNotFound = errors.New("round not found")

// BeginRound inserts the round as in progress and claims every pending expense for it.
func (s *SQLiteStore) BeginRound(ctx context.Context, round *models.Round) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO rounds (id, status, entry_count, started_at) VALUES (?, ?, ?, ?)",
		round.ID, string(models.RoundInProgress), round.EntryCount, round.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert round: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE expenses SET round_id = ? WHERE round_id IS NULL",
		round.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to claim expenses: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// FinishRound records the outcome and legs of a begun round. Unless the round
// completed, its expenses go back to pending together with the offsets.
func (s *SQLiteStore) FinishRound(ctx context.Context, round *models.Round, offsets []models.ExpenseEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	roundErr := sql.NullString{String: round.Error, Valid: round.Error != ""}

	result, err := tx.ExecContext(ctx,
		"UPDATE rounds SET status = ?, error = ?, finished_at = ? WHERE id = ?",
		string(round.Status), roundErr, round.FinishedAt, round.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update round: %w", err)
	}
	if rows, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check round update: %w", err)
	} else if rows == 0 {
		return fmt.Errorf("%w: %s", ErrRoundNotFound, round.ID)
	}

	for _, leg := range round.Legs {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO legs (round_id, seq, from_identity, to_identity, amount) VALUES (?, ?, ?, ?, ?)",
			round.ID, leg.Seq, leg.From, leg.To, leg.Amount.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert leg: %w", err)
		}
	}

	if round.Status != models.RoundCompleted {
		_, err = tx.ExecContext(ctx,
			"UPDATE expenses SET round_id = NULL WHERE round_id = ?",
			round.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to release expenses: %w", err)
		}
		if err := insertExpensesTx(ctx, tx, offsets); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListRounds retrieves every round with its legs, oldest first.
func (s *SQLiteStore) ListRounds(ctx context.Context) ([]models.Round, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, entry_count, error, started_at, finished_at
		 FROM rounds ORDER BY rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	defer rows.Close()

	var rounds []models.Round
	index := make(map[string]int)
	for rows.Next() {
		var r models.Round
		var status string
		var roundErr sql.NullString
		var finishedAt sql.NullInt64
		if err := rows.Scan(&r.ID, &status, &r.EntryCount, &roundErr, &r.StartedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		r.Status = models.RoundStatus(status)
		r.Error = roundErr.String
		r.FinishedAt = finishedAt.Int64
		index[r.ID] = len(rounds)
		rounds = append(rounds, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rounds: %w", err)
	}

	legRows, err := s.db.QueryContext(ctx,
		"SELECT round_id, seq, from_identity, to_identity, amount FROM legs ORDER BY round_id, seq",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list legs: %w", err)
	}
	defer legRows.Close()

	for legRows.Next() {
		var roundID string
		var leg models.Leg
		if err := legRows.Scan(&roundID, &leg.Seq, &leg.From, &leg.To, &leg.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan leg: %w", err)
		}
		if i, ok := index[roundID]; ok {
			rounds[i].Legs = append(rounds[i].Legs, leg)
		}
	}
	if err := legRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate legs: %w", err)
	}

	return rounds, nil
}
