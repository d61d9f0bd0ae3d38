package tracker

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/models"
)

// ValueTransfer is the external account ledger that holds participants' funds.
type ValueTransfer interface {
	// BalanceOf returns the available balance of the identity.
	BalanceOf(ctx context.Context, identity string) (decimal.Decimal, error)

	// Transfer moves amount from one identity to another.
	// Fails if the sender lacks sufficient authorized balance.
	Transfer(ctx context.Context, from, to string, amount decimal.Decimal) error
}

// Notifier receives settlement events.
// Implementations must not block for long: they run inside the ledger lock.
type Notifier interface {
	// Transaction is called once per executed settlement leg.
	Transaction(ctx context.Context, roundID string, leg models.Leg)

	// CalculationFinished is called once when a round completes.
	// It is never called for failed rounds.
	CalculationFinished(ctx context.Context, round models.Round)
}

type nopNotifier struct{}

func (nopNotifier) Transaction(context.Context, string, models.Leg)  {}
func (nopNotifier) CalculationFinished(context.Context, models.Round) {}
