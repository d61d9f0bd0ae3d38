// Package tracker implements the expense tracker core: the participant
// registry, the expense ledger and the settlement engine.
//
// All three share one Ledger value. Every public method holds the ledger's
// lock for its whole duration, including the synchronous calls it makes to
// the value-transfer port, so operations never interleave.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmynk/tabsettle/internal/models"
	"github.com/mmynk/tabsettle/internal/storage"
)

// Ledger owns the registry, the pending expense entries and the settlement history.
type Ledger struct {
	mu sync.Mutex

	port     ValueTransfer
	notifier Notifier
	store    storage.Store
	logger   *slog.Logger
	now      func() time.Time

	participants []models.Participant
	byIdentity   map[string]int
	entries      []models.ExpenseEntry
	lastSeq      int64
	rounds       []models.Round
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithNotifier sets the receiver of Transaction and CalculationFinished events.
func WithNotifier(n Notifier) Option {
	return func(l *Ledger) {
		if n != nil {
			l.notifier = n
		}
	}
}

// WithStore makes the ledger journal every mutation to store before applying it.
func WithStore(store storage.Store) Option {
	return func(l *Ledger) {
		l.store = store
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// New creates an empty Ledger backed by the given value-transfer port.
func New(port ValueTransfer, opts ...Option) *Ledger {
	l := &Ledger{
		port:       port,
		notifier:   nopNotifier{},
		logger:     slog.Default(),
		now:        time.Now,
		byIdentity: make(map[string]int),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open creates a Ledger that journals to store and restores its state from it:
// participants, pending entries, the entry sequence and the round history.
func Open(ctx context.Context, port ValueTransfer, store storage.Store, opts ...Option) (*Ledger, error) {
	l := New(port, append(opts, WithStore(store))...)

	participants, err := store.ListParticipants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	for _, p := range participants {
		l.byIdentity[p.Identity] = len(l.participants)
		l.participants = append(l.participants, p)
	}

	entries, err := store.ListPendingExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending expenses: %w", err)
	}
	l.entries = entries

	lastSeq, err := store.LastExpenseSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load expense sequence: %w", err)
	}
	l.lastSeq = lastSeq

	rounds, err := store.ListRounds(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settlement rounds: %w", err)
	}
	l.rounds = rounds
	for _, r := range rounds {
		if r.Status == models.RoundInProgress {
			l.logger.Warn("Settlement round was interrupted, its entries need manual reconciliation",
				"round_id", r.ID,
				"entries", r.EntryCount,
			)
		}
	}

	l.logger.Info("Ledger restored",
		"participants", len(l.participants),
		"pending_entries", len(l.entries),
		"rounds", len(l.rounds),
	)
	return l, nil
}

// Snapshot returns the registry with externally reported balances and the pending entries.
func (l *Ledger) Snapshot(ctx context.Context) (models.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	views := make([]models.ParticipantView, len(l.participants))
	for i, p := range l.participants {
		balance, err := l.port.BalanceOf(ctx, p.Identity)
		if err != nil {
			return models.Snapshot{}, fmt.Errorf("failed to get balance of %s: %w", p.Identity, err)
		}
		views[i] = models.ParticipantView{
			Ordinal:      p.Ordinal,
			Identity:     p.Identity,
			DisplayName:  p.DisplayName,
			Balance:      balance,
			RegisteredAt: p.RegisteredAt,
		}
	}

	return models.Snapshot{
		ParticipantCount: len(l.participants),
		Participants:     views,
		Entries:          append([]models.ExpenseEntry(nil), l.entries...),
	}, nil
}
