package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/models"
)

var ErrUnknownParticipant = errors.New("entry references an unknown participant")

// NetBalances derives every participant's net position from the expense entries.
// The result is in the order of participants, which callers pass in ordinal order.
//
// Algorithm:
// - Every participant starts at zero
// - For each entry: debtor's net decreases by amount, payer's net increases by amount
// - Self-loop entries are walked like any other and cancel out
//
// The sum of the returned nets is always zero.
func NetBalances(participants []models.Participant, entries []models.ExpenseEntry) ([]models.NetBalance, error) {
	balances := make([]models.NetBalance, len(participants))
	index := make(map[string]int, len(participants))
	for i, p := range participants {
		balances[i] = models.NetBalance{Ordinal: p.Ordinal, Identity: p.Identity, Net: decimal.Zero}
		index[p.Identity] = i
	}

	for _, e := range entries {
		debtor, ok := index[e.Debtor]
		if !ok {
			return nil, fmt.Errorf("entry %d debtor %s: %w", e.Seq, e.Debtor, ErrUnknownParticipant)
		}
		payer, ok := index[e.Payer]
		if !ok {
			return nil, fmt.Errorf("entry %d payer %s: %w", e.Seq, e.Payer, ErrUnknownParticipant)
		}

		balances[debtor].Net = balances[debtor].Net.Sub(e.Amount)
		balances[payer].Net = balances[payer].Net.Add(e.Amount)
	}

	return balances, nil
}

// Step is one settlement move: Debtor pays Creditor the Amount.
// Debtor and Creditor are indexes into the balances slice the step was computed from.
type Step struct {
	Debtor   int
	Creditor int
	Amount   decimal.Decimal
}

// NextStep selects the next greedy settlement move.
//
// The creditor is the participant with the greatest positive net, the debtor
// the one with the most negative net. Ties go to the smallest ordinal, which
// for ordinal-ordered balances is the first one found by the scan. The amount
// is the smaller of the two magnitudes, so every step zeroes at least one side.
//
// Returns false when there is no creditor or no debtor left.
func NextStep(balances []models.NetBalance) (Step, bool) {
	creditor, debtor := -1, -1
	for i, b := range balances {
		switch b.Net.Sign() {
		case 1:
			if creditor == -1 || b.Net.GreaterThan(balances[creditor].Net) ||
				(b.Net.Equal(balances[creditor].Net) && b.Ordinal < balances[creditor].Ordinal) {
				creditor = i
			}
		case -1:
			if debtor == -1 || b.Net.LessThan(balances[debtor].Net) ||
				(b.Net.Equal(balances[debtor].Net) && b.Ordinal < balances[debtor].Ordinal) {
				debtor = i
			}
		}
	}
	if creditor == -1 || debtor == -1 {
		return Step{}, false
	}

	amount := decimal.Min(balances[creditor].Net, balances[debtor].Net.Neg())
	return Step{Debtor: debtor, Creditor: creditor, Amount: amount}, true
}

// Apply moves both endpoints of the step toward zero.
func (s Step) Apply(balances []models.NetBalance) {
	balances[s.Creditor].Net = balances[s.Creditor].Net.Sub(s.Amount)
	balances[s.Debtor].Net = balances[s.Debtor].Net.Add(s.Amount)
}

// Settled reports whether every net balance is zero.
func Settled(balances []models.NetBalance) bool {
	for _, b := range balances {
		if !b.Net.IsZero() {
			return false
		}
	}
	return true
}

// Sum returns the total of all nets. Zero for any ledger-derived balances.
func Sum(balances []models.NetBalance) decimal.Decimal {
	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b.Net)
	}
	return total
}

// PlanTransfers computes the full greedy plan without executing anything.
// The input is not modified. The plan has at most N-1 legs for N non-zero balances.
func PlanTransfers(balances []models.NetBalance) []models.Leg {
	working := make([]models.NetBalance, len(balances))
	copy(working, balances)

	var legs []models.Leg
	for !Settled(working) {
		step, ok := NextStep(working)
		if !ok {
			break
		}
		legs = append(legs, models.Leg{
			Seq:    len(legs) + 1,
			From:   working[step.Debtor].Identity,
			To:     working[step.Creditor].Identity,
			Amount: step.Amount,
		})
		step.Apply(working)
	}
	return legs
}
