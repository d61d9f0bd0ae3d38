package models

import (
	"github.com/shopspring/decimal"
)

// RoundStatus is the outcome of a settlement round.
type RoundStatus string

const (
	// RoundCompleted means every leg was executed and all balances reached zero.
	RoundCompleted RoundStatus = "completed"

	// RoundFailed means a transfer failed. Legs lists only the executed ones.
	RoundFailed RoundStatus = "failed"

	// RoundInProgress means the round claimed the pending entries but its
	// outcome was never journaled. Which legs ran is unknown, so the claimed
	// entries stay out of later rounds until reconciled by hand.
	RoundInProgress RoundStatus = "in_progress"
)

// Leg is a single transfer instruction of a settlement plan.
type Leg struct {
	// Seq is the 1-based position of the leg within its round.
	Seq int

	// From is the debtor paying.
	From string

	// To is the creditor being paid.
	To string

	// Amount is always > 0.
	Amount decimal.Decimal
}

// Round represents one invocation of the settlement engine.
type Round struct {
	// ID is the unique identifier for the round (UUID format).
	ID string

	Status RoundStatus

	// Legs are the transfers executed during the round, in execution order.
	Legs []Leg

	// EntryCount is the number of pending expense entries the round netted.
	EntryCount int

	// Error holds the failure message for failed rounds.
	Error string

	// StartedAt and FinishedAt are Unix timestamps.
	StartedAt  int64
	FinishedAt int64
}
