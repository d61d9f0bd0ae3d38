package models

import (
	"github.com/shopspring/decimal"
)

// ExpenseEntry represents a recorded debt: Debtor owes Payer the Amount.
// Entries are immutable once appended. Debtor and Payer may be equal.
type ExpenseEntry struct {
	// Seq is the entry reference. Starts at 1 and is never reused, even after
	// the entry has been settled.
	Seq int64

	// Debtor is the identity of the participant who owes.
	Debtor string

	// Payer is the identity of the participant who is owed.
	Payer string

	// Amount is the debt in token base units. Always a positive whole number.
	Amount decimal.Decimal

	// RecordedAt is the Unix timestamp when the entry was recorded.
	RecordedAt int64
}

// NetBalance is one participant's derived position for a settlement round.
// Positive = owed money (creditor), Negative = owes money (debtor).
type NetBalance struct {
	Ordinal  int
	Identity string
	Net      decimal.Decimal
}
