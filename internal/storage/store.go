// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/mmynk/tabsettle/internal/models"
)

// Store defines the journal the tracker writes through to.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the tracker.
type Store interface {
	// CreateParticipant persists a newly registered participant.
	// Returns an error if the identity already exists.
	CreateParticipant(ctx context.Context, participant *models.Participant) error

	// ListParticipants returns all participants in ordinal order.
	ListParticipants(ctx context.Context) ([]models.Participant, error)

	// AppendExpenses persists entries as pending, all or nothing.
	AppendExpenses(ctx context.Context, entries []models.ExpenseEntry) error

	// ListPendingExpenses returns entries not yet settled, in sequence order.
	ListPendingExpenses(ctx context.Context) ([]models.ExpenseEntry, error)

	// LastExpenseSeq returns the highest entry sequence ever stored, settled or not.
	// Returns 0 for an empty journal.
	LastExpenseSeq(ctx context.Context) (int64, error)

	// BeginRound persists round as in progress and claims every pending
	// expense for it, before any transfer runs.
	BeginRound(ctx context.Context, round *models.Round) error

	// FinishRound persists the outcome and executed legs of a begun round in
	// one transaction. A completed round keeps its claim. Any other outcome
	// releases the claim and appends offsets as pending expenses.
	FinishRound(ctx context.Context, round *models.Round, offsets []models.ExpenseEntry) error

	// ListRounds returns all rounds in the order they started.
	ListRounds(ctx context.Context) ([]models.Round, error)

	// Close releases any resources held by the store.
	Close() error
}
