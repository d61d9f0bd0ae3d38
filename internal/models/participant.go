package models

import (
	"github.com/shopspring/decimal"
)

// Participant represents a registered member of the group.
// Participants are never removed or renamed once registered.
type Participant struct {
	// Ordinal is assigned at registration. Starts at 1, strictly increasing, never reused.
	Ordinal int

	// Identity is the opaque account key (e.g. a wallet address). Unique in the registry.
	Identity string

	// DisplayName is the human-readable name (e.g., "Marco").
	DisplayName string

	// RegisteredAt is the Unix timestamp when the participant was registered.
	RegisteredAt int64
}

// ParticipantView is a participant together with its externally reported balance.
type ParticipantView struct {
	Ordinal     int
	Identity    string
	DisplayName string

	// Balance is the account balance reported by the value-transfer port,
	// not the derived net balance.
	Balance decimal.Decimal

	RegisteredAt int64
}

// Snapshot is a read-only view of the registry and the pending expense ledger.
// Participants and Entries are in registration and record order respectively.
type Snapshot struct {
	ParticipantCount int
	Participants     []ParticipantView
	Entries          []ExpenseEntry
}
