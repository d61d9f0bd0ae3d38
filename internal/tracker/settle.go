package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/tabsettle/internal/calculator"
	"github.com/mmynk/tabsettle/internal/models"
)

// Settle nets the pending entries and executes the greedy transfer plan.
//
// Each round the creditor with the largest positive net is paid by the debtor
// with the most negative net, for the smaller of the two magnitudes; ties go
// to the smallest ordinal. Every leg is transferred through the port and
// announced with a Transaction event before the next one is chosen.
//
// With a store, the round and its claim on the pending entries are journaled
// before the first transfer. If that write fails nothing is transferred.
//
// On success the pending ledger is cleared, CalculationFinished is emitted
// and the completed round is returned.
//
// If a transfer fails, Settle stops and returns the failed round together with
// an error wrapping ErrTransferExecutionFailed. Legs executed before the
// failure stay executed, so each one is booked back as an offsetting entry
// (the recipient owes the sender the leg amount). The pending ledger then
// nets to what is still owed and a later Settle does not pay twice.
// CalculationFinished is not emitted.
func (l *Ledger) Settle(ctx context.Context) (*models.Round, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	balances, err := l.netBalances()
	if err != nil {
		return nil, err
	}

	round := &models.Round{
		ID:         uuid.NewString(),
		Status:     models.RoundInProgress,
		EntryCount: len(l.entries),
		StartedAt:  l.now().Unix(),
	}
	if l.store != nil {
		if err := l.store.BeginRound(ctx, round); err != nil {
			return nil, fmt.Errorf("failed to persist settlement round %s: %w", round.ID, err)
		}
	}
	l.logger.Debug("Settlement started", "round_id", round.ID, "entries", round.EntryCount)

	for !calculator.Settled(balances) {
		// Nets sum to zero, so a non-zero net always has a counterparty.
		step, ok := calculator.NextStep(balances)
		if !ok {
			break
		}
		leg := models.Leg{
			Seq:    len(round.Legs) + 1,
			From:   balances[step.Debtor].Identity,
			To:     balances[step.Creditor].Identity,
			Amount: step.Amount,
		}

		if err := l.port.Transfer(ctx, leg.From, leg.To, leg.Amount); err != nil {
			return l.failRound(ctx, round, fmt.Errorf("%w: leg %d %s -> %s (%s): %w",
				ErrTransferExecutionFailed, leg.Seq, leg.From, leg.To, leg.Amount, err))
		}

		round.Legs = append(round.Legs, leg)
		step.Apply(balances)
		l.notifier.Transaction(ctx, round.ID, leg)
	}

	round.Status = models.RoundCompleted
	round.FinishedAt = l.now().Unix()

	// The transfers already happened, so the in-memory ledger is cleared even
	// when the journal write fails. The journal still holds the entries
	// claimed by the unfinished round, and a restart does not restore them.
	var saveErr error
	if l.store != nil {
		if err := l.store.FinishRound(ctx, round, nil); err != nil {
			saveErr = fmt.Errorf("failed to persist settlement round %s: %w", round.ID, err)
			l.logger.Error("Settlement journal write failed", "round_id", round.ID, "error", err)
		}
	}
	l.entries = nil
	l.rounds = append(l.rounds, *round)

	l.notifier.CalculationFinished(ctx, *round)
	l.logger.Debug("Settlement finished", "round_id", round.ID, "legs", len(round.Legs))

	return round, saveErr
}

// Preview returns the derived net balances and the plan Settle would execute,
// without transferring anything or emitting events.
func (l *Ledger) Preview(ctx context.Context) ([]models.NetBalance, []models.Leg, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	balances, err := l.netBalances()
	if err != nil {
		return nil, nil, err
	}
	return balances, calculator.PlanTransfers(balances), nil
}

// Rounds returns the settlement history, completed and failed, oldest first.
func (l *Ledger) Rounds() []models.Round {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]models.Round(nil), l.rounds...)
}

// netBalances derives the nets of every registered participant. Callers hold l.mu.
func (l *Ledger) netBalances() ([]models.NetBalance, error) {
	balances, err := calculator.NetBalances(l.participants, l.entries)
	if err != nil {
		return nil, fmt.Errorf("failed to derive net balances: %w", err)
	}
	if sum := calculator.Sum(balances); !sum.IsZero() {
		return nil, fmt.Errorf("%w: sum is %s", ErrUnbalancedLedger, sum)
	}
	return balances, nil
}

// failRound records a round that stopped on a transfer failure and books an
// offsetting entry for every executed leg. Callers hold l.mu.
func (l *Ledger) failRound(ctx context.Context, round *models.Round, cause error) (*models.Round, error) {
	round.Status = models.RoundFailed
	round.Error = cause.Error()
	round.FinishedAt = l.now().Unix()

	l.logger.Warn("Settlement aborted",
		"round_id", round.ID,
		"executed_legs", len(round.Legs),
		"error", cause,
	)

	offsets := make([]models.ExpenseEntry, len(round.Legs))
	for i, leg := range round.Legs {
		offsets[i] = models.ExpenseEntry{
			Seq:        l.lastSeq + int64(i) + 1,
			Debtor:     leg.To,
			Payer:      leg.From,
			Amount:     leg.Amount,
			RecordedAt: round.FinishedAt,
		}
	}

	// The legs moved funds whether or not the journal write succeeds, so the
	// offsets always apply in memory.
	var saveErr error
	if l.store != nil {
		if err := l.store.FinishRound(ctx, round, offsets); err != nil {
			saveErr = fmt.Errorf("failed to persist settlement round %s: %w", round.ID, err)
			l.logger.Error("Settlement journal write failed", "round_id", round.ID, "error", err)
		}
	}
	l.entries = append(l.entries, offsets...)
	l.lastSeq += int64(len(offsets))
	l.rounds = append(l.rounds, *round)

	if saveErr != nil {
		return round, errors.Join(cause, saveErr)
	}
	return round, cause
}
