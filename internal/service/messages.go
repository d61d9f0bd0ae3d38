package service

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/models"
)

// Wire types for tabsettle.v1. Amounts are token base units, encoded as
// decimal strings because they exceed 64 bits at 18 decimals.

type Participant struct {
	Ordinal      int             `json:"ordinal"`
	Identity     string          `json:"identity"`
	DisplayName  string          `json:"display_name"`
	Balance      decimal.Decimal `json:"balance"`
	RegisteredAt int64           `json:"registered_at,omitempty"`
}

type Entry struct {
	Seq        int64           `json:"seq"`
	Debtor     string          `json:"debtor"`
	Payer      string          `json:"payer"`
	Amount     decimal.Decimal `json:"amount"`
	RecordedAt int64           `json:"recorded_at"`
}

type NetBalance struct {
	Ordinal  int             `json:"ordinal"`
	Identity string          `json:"identity"`
	Net      decimal.Decimal `json:"net"`
}

type Leg struct {
	Seq    int             `json:"seq"`
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type Round struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Legs       []Leg  `json:"legs"`
	EntryCount int    `json:"entry_count"`
	Error      string `json:"error,omitempty"`
	StartedAt  int64  `json:"started_at"`
	FinishedAt int64  `json:"finished_at"`
}

type RegisterParticipantRequest struct {
	Identity    string `json:"identity" validate:"required,max=128"`
	DisplayName string `json:"display_name" validate:"max=128"`
}

type RegisterParticipantResponse struct {
	Ordinal int `json:"ordinal"`
}

type RecordExpenseRequest struct {
	Debtor string          `json:"debtor" validate:"required"`
	Payer  string          `json:"payer" validate:"required"`
	Amount decimal.Decimal `json:"amount" validate:"token_amount"`
}

type RecordExpenseResponse struct {
	Seq int64 `json:"seq"`
}

type RecordSplitRequest struct {
	Payer   string          `json:"payer" validate:"required"`
	Debtors []string        `json:"debtors" validate:"required,min=1,dive,required"`
	Amount  decimal.Decimal `json:"amount" validate:"token_amount"`
}

type RecordSplitResponse struct {
	Seqs []int64 `json:"seqs"`
}

type SettleRequest struct{}

type SettleResponse struct {
	Round Round `json:"round"`
}

type PreviewSettlementRequest struct{}

type PreviewSettlementResponse struct {
	Balances []NetBalance `json:"balances"`
	Legs     []Leg        `json:"legs"`
}

type GetSnapshotRequest struct{}

type GetSnapshotResponse struct {
	ParticipantCount int           `json:"participant_count"`
	Participants     []Participant `json:"participants"`
	Entries          []Entry       `json:"entries"`
}

type ListRoundsRequest struct{}

type ListRoundsResponse struct {
	Rounds []Round `json:"rounds"`
}

type MintRequest struct {
	Identity string          `json:"identity" validate:"required"`
	Amount   decimal.Decimal `json:"amount" validate:"token_amount"`
}

type MintResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type ApproveRequest struct {
	Owner  string          `json:"owner" validate:"required"`
	Amount decimal.Decimal `json:"amount" validate:"token_allowance"`
}

type ApproveResponse struct {
	Spender string          `json:"spender"`
	Amount  decimal.Decimal `json:"amount"`
}

type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

func toLegs(legs []models.Leg) []Leg {
	out := make([]Leg, len(legs))
	for i, leg := range legs {
		out[i] = Leg{Seq: leg.Seq, From: leg.From, To: leg.To, Amount: leg.Amount}
	}
	return out
}

func toRound(round models.Round) Round {
	return Round{
		ID:         round.ID,
		Status:     string(round.Status),
		Legs:       toLegs(round.Legs),
		EntryCount: round.EntryCount,
		Error:      round.Error,
		StartedAt:  round.StartedAt,
		FinishedAt: round.FinishedAt,
	}
}

func toEntries(entries []models.ExpenseEntry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = Entry{Seq: e.Seq, Debtor: e.Debtor, Payer: e.Payer, Amount: e.Amount, RecordedAt: e.RecordedAt}
	}
	return out
}
