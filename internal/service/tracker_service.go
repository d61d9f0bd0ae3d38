package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/middleware"
	"github.com/mmynk/tabsettle/internal/models"
	"github.com/mmynk/tabsettle/internal/tracker"
)

// Accounts is the token ledger behind Mint and Approve.
type Accounts interface {
	Mint(ctx context.Context, identity string, amount decimal.Decimal) error
	Approve(ctx context.Context, owner, spender string, amount decimal.Decimal) error
	BalanceOf(ctx context.Context, identity string) (decimal.Decimal, error)
}

// TrackerService implements the tabsettle.v1.TrackerService RPC interface.
type TrackerService struct {
	ledger   *tracker.Ledger
	accounts Accounts
	spender  string
	logger   *slog.Logger
}

// NewTrackerService creates a TrackerService. spender is the identity the
// ledger transfers as; Approve grants allowances to it.
func NewTrackerService(ledger *tracker.Ledger, accounts Accounts, spender string, logger *slog.Logger) *TrackerService {
	return &TrackerService{
		ledger:   ledger,
		accounts: accounts,
		spender:  spender,
		logger:   logger,
	}
}

// RegisterParticipant adds a participant to the registry.
func (s *TrackerService) RegisterParticipant(ctx context.Context, req *connect.Request[RegisterParticipantRequest]) (*connect.Response[RegisterParticipantResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	ordinal, err := s.ledger.Register(ctx, req.Msg.Identity, req.Msg.DisplayName)
	if err != nil {
		s.logger.Warn("RegisterParticipant failed", "identity", req.Msg.Identity, "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Participant registered", "identity", req.Msg.Identity, "ordinal", ordinal)
	return connect.NewResponse(&RegisterParticipantResponse{Ordinal: ordinal}), nil
}

// RecordExpense records that debtor owes payer amount.
func (s *TrackerService) RecordExpense(ctx context.Context, req *connect.Request[RecordExpenseRequest]) (*connect.Response[RecordExpenseResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	seq, err := s.ledger.Record(ctx, req.Msg.Debtor, req.Msg.Payer, req.Msg.Amount)
	if err != nil {
		s.logger.Warn("RecordExpense failed",
			"debtor", req.Msg.Debtor,
			"payer", req.Msg.Payer,
			"amount", req.Msg.Amount,
			"error", err,
		)
		return nil, toConnectError(err)
	}

	s.logger.Info("Expense recorded", "seq", seq, "debtor", req.Msg.Debtor, "payer", req.Msg.Payer, "amount", req.Msg.Amount)
	return connect.NewResponse(&RecordExpenseResponse{Seq: seq}), nil
}

// RecordSplit splits amount evenly among debtors, all owing payer.
func (s *TrackerService) RecordSplit(ctx context.Context, req *connect.Request[RecordSplitRequest]) (*connect.Response[RecordSplitResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	seqs, err := s.ledger.RecordSplit(ctx, req.Msg.Payer, req.Msg.Debtors, req.Msg.Amount)
	if err != nil {
		s.logger.Warn("RecordSplit failed", "payer", req.Msg.Payer, "debtors", len(req.Msg.Debtors), "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Split recorded", "payer", req.Msg.Payer, "entries", len(seqs), "amount", req.Msg.Amount)
	return connect.NewResponse(&RecordSplitResponse{Seqs: seqs}), nil
}

// Settle nets the pending expenses and executes the transfers.
func (s *TrackerService) Settle(ctx context.Context, req *connect.Request[SettleRequest]) (*connect.Response[SettleResponse], error) {
	round, err := s.ledger.Settle(ctx)
	if err != nil {
		s.logger.Error("Settle failed", "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Settlement completed",
		"round_id", round.ID,
		"legs", len(round.Legs),
		"subject", middleware.GetSubject(ctx), // empty when auth is disabled
	)
	return connect.NewResponse(&SettleResponse{Round: toRound(*round)}), nil
}

// PreviewSettlement returns the nets and the plan Settle would execute.
func (s *TrackerService) PreviewSettlement(ctx context.Context, req *connect.Request[PreviewSettlementRequest]) (*connect.Response[PreviewSettlementResponse], error) {
	balances, legs, err := s.ledger.Preview(ctx)
	if err != nil {
		s.logger.Error("PreviewSettlement failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]NetBalance, len(balances))
	for i, b := range balances {
		out[i] = NetBalance{Ordinal: b.Ordinal, Identity: b.Identity, Net: b.Net}
	}
	return connect.NewResponse(&PreviewSettlementResponse{Balances: out, Legs: toLegs(legs)}), nil
}

// GetSnapshot returns the registry with account balances and the pending entries.
func (s *TrackerService) GetSnapshot(ctx context.Context, req *connect.Request[GetSnapshotRequest]) (*connect.Response[GetSnapshotResponse], error) {
	snapshot, err := s.ledger.Snapshot(ctx)
	if err != nil {
		s.logger.Error("GetSnapshot failed", "error", err)
		return nil, toConnectError(err)
	}

	participants := make([]Participant, len(snapshot.Participants))
	for i, p := range snapshot.Participants {
		participants[i] = toParticipant(p)
	}

	return connect.NewResponse(&GetSnapshotResponse{
		ParticipantCount: snapshot.ParticipantCount,
		Participants:     participants,
		Entries:          toEntries(snapshot.Entries),
	}), nil
}

// ListRounds returns the settlement history, oldest first.
func (s *TrackerService) ListRounds(ctx context.Context, req *connect.Request[ListRoundsRequest]) (*connect.Response[ListRoundsResponse], error) {
	rounds := s.ledger.Rounds()

	out := make([]Round, len(rounds))
	for i, round := range rounds {
		out[i] = toRound(round)
	}
	return connect.NewResponse(&ListRoundsResponse{Rounds: out}), nil
}

// Mint credits tokens to an account.
func (s *TrackerService) Mint(ctx context.Context, req *connect.Request[MintRequest]) (*connect.Response[MintResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	if err := s.accounts.Mint(ctx, req.Msg.Identity, req.Msg.Amount); err != nil {
		s.logger.Warn("Mint failed", "identity", req.Msg.Identity, "amount", req.Msg.Amount, "error", err)
		return nil, toConnectError(err)
	}
	balance, err := s.accounts.BalanceOf(ctx, req.Msg.Identity)
	if err != nil {
		s.logger.Error("Failed to read balance", "identity", req.Msg.Identity, "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Tokens minted", "identity", req.Msg.Identity, "amount", req.Msg.Amount)
	return connect.NewResponse(&MintResponse{Balance: balance}), nil
}

// Approve lets the ledger's spender move up to amount out of owner's account.
func (s *TrackerService) Approve(ctx context.Context, req *connect.Request[ApproveRequest]) (*connect.Response[ApproveResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	if err := s.accounts.Approve(ctx, req.Msg.Owner, s.spender, req.Msg.Amount); err != nil {
		s.logger.Warn("Approve failed", "owner", req.Msg.Owner, "amount", req.Msg.Amount, "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Allowance set", "owner", req.Msg.Owner, "spender", s.spender, "amount", req.Msg.Amount)
	return connect.NewResponse(&ApproveResponse{Spender: s.spender, Amount: req.Msg.Amount}), nil
}

func toParticipant(p models.ParticipantView) Participant {
	return Participant{
		Ordinal:      p.Ordinal,
		Identity:     p.Identity,
		DisplayName:  p.DisplayName,
		Balance:      p.Balance,
		RegisteredAt: p.RegisteredAt,
	}
}
