// Package notify delivers settlement events to logs, Redis and other sinks.
package notify

import (
	"context"
	"log/slog"

	"github.com/mmynk/tabsettle/internal/models"
	"github.com/mmynk/tabsettle/internal/tracker"
)

const (
	EventTransaction         = "Transaction"
	EventCalculationFinished = "CalculationFinished"
)

// Event is the wire form of a settlement notification.
type Event struct {
	Event   string `json:"event"`
	RoundID string `json:"round_id"`

	// Transaction fields.
	Seq    int    `json:"seq,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Amount string `json:"amount,omitempty"` // base units, decimal string

	// CalculationFinished fields.
	Legs       int   `json:"legs,omitempty"`
	EntryCount int   `json:"entry_count,omitempty"`
	FinishedAt int64 `json:"finished_at,omitempty"`
}

// TransactionEvent builds the event for one executed leg.
func TransactionEvent(roundID string, leg models.Leg) Event {
	return Event{
		Event:   EventTransaction,
		RoundID: roundID,
		Seq:     leg.Seq,
		From:    leg.From,
		To:      leg.To,
		Amount:  leg.Amount.String(),
	}
}

// FinishedEvent builds the event for a completed round.
func FinishedEvent(round models.Round) Event {
	return Event{
		Event:      EventCalculationFinished,
		RoundID:    round.ID,
		Legs:       len(round.Legs),
		EntryCount: round.EntryCount,
		FinishedAt: round.FinishedAt,
	}
}

// Fanout delivers every event to each notifier in order.
type Fanout []tracker.Notifier

func (f Fanout) Transaction(ctx context.Context, roundID string, leg models.Leg) {
	for _, n := range f {
		n.Transaction(ctx, roundID, leg)
	}
}

func (f Fanout) CalculationFinished(ctx context.Context, round models.Round) {
	for _, n := range f {
		n.CalculationFinished(ctx, round)
	}
}

// Logger writes events to a slog logger.
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a notifier logging to logger, or slog.Default() if nil.
func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

func (l *Logger) Transaction(ctx context.Context, roundID string, leg models.Leg) {
	l.logger.InfoContext(ctx, "Transaction",
		"round_id", roundID,
		"seq", leg.Seq,
		"from", leg.From,
		"to", leg.To,
		"amount", leg.Amount.String(),
	)
}

func (l *Logger) CalculationFinished(ctx context.Context, round models.Round) {
	l.logger.InfoContext(ctx, "CalculationFinished",
		"round_id", round.ID,
		"legs", len(round.Legs),
		"entries", round.EntryCount,
	)
}
