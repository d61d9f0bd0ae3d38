package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/auth"
	"github.com/mmynk/tabsettle/internal/metrics"
	"github.com/mmynk/tabsettle/internal/middleware"
	"github.com/mmynk/tabsettle/internal/storage/sqlite"
	"github.com/mmynk/tabsettle/internal/tracker"
)

const testSpender = "tabsettle"

// setupTestServer serves both services over httptest. A non-empty password
// turns on coordinator auth. extra interceptors run outermost.
func setupTestServer(t *testing.T, password string, extra ...connect.Interceptor) (*TrackerServiceClient, *AuthServiceClient) {
	t.Helper()
	return setupLoggedTestServer(t, password, io.Discard, extra...)
}

// setupLoggedTestServer is setupTestServer with the server log written to logs.
func setupLoggedTestServer(t *testing.T, password string, logs io.Writer, extra ...connect.Interceptor) (*TrackerServiceClient, *AuthServiceClient) {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(logs, nil))

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	accounts := store.Accounts()
	ledger, err := tracker.Open(ctx, accounts.Spender(testSpender), store, tracker.WithLogger(logger))
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}

	var hash string
	if password != "" {
		hash, err = auth.HashPassword(password)
		if err != nil {
			t.Fatalf("failed to hash password: %v", err)
		}
	}
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	interceptors := append([]connect.Interceptor{}, extra...)
	interceptors = append(interceptors, middleware.LoggingInterceptor(logger))
	if password != "" {
		interceptors = append(interceptors, middleware.RequireAuth(jwtManager, PublicProcedures...))
	}
	opts := connect.WithInterceptors(interceptors...)

	mux := http.NewServeMux()
	mux.Handle(NewTrackerServiceHandler(NewTrackerService(ledger, accounts, testSpender, logger), opts))
	mux.Handle(NewAuthServiceHandler(NewAuthService(auth.NewPasswordAuthenticator(hash), jwtManager, logger), opts))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return NewTrackerServiceClient(http.DefaultClient, server.URL), NewAuthServiceClient(http.DefaultClient, server.URL)
}

// fund mints and approves funds for each identity and registers it.
func fund(t *testing.T, client *TrackerServiceClient, funds decimal.Decimal, ids ...string) {
	t.Helper()
	ctx := context.Background()

	for _, id := range ids {
		if _, err := client.Mint(ctx, connect.NewRequest(&MintRequest{Identity: id, Amount: funds})); err != nil {
			t.Fatalf("Mint %s failed: %v", id, err)
		}
		if _, err := client.Approve(ctx, connect.NewRequest(&ApproveRequest{Owner: id, Amount: funds})); err != nil {
			t.Fatalf("Approve %s failed: %v", id, err)
		}
		if _, err := client.RegisterParticipant(ctx, connect.NewRequest(&RegisterParticipantRequest{
			Identity:    id,
			DisplayName: "name-" + id,
		})); err != nil {
			t.Fatalf("RegisterParticipant %s failed: %v", id, err)
		}
	}
}

func units(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func legEqual(leg Leg, seq int, from, to, amount string) bool {
	return leg.Seq == seq && leg.From == from && leg.To == to && leg.Amount.String() == amount
}

func TestSettle_Chain(t *testing.T) {
	client, _ := setupTestServer(t, "")
	ctx := context.Background()
	fund(t, client, units(1000), "p1", "p2", "p3")

	first, err := client.RecordExpense(ctx, connect.NewRequest(&RecordExpenseRequest{Debtor: "p1", Payer: "p2", Amount: units(1000)}))
	if err != nil {
		t.Fatalf("RecordExpense failed: %v", err)
	}
	if first.Msg.Seq != 1 {
		t.Errorf("first seq = %d, want 1", first.Msg.Seq)
	}
	if _, err := client.RecordExpense(ctx, connect.NewRequest(&RecordExpenseRequest{Debtor: "p2", Payer: "p3", Amount: units(1000)})); err != nil {
		t.Fatalf("RecordExpense failed: %v", err)
	}

	resp, err := client.Settle(ctx, connect.NewRequest(&SettleRequest{}))
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}

	round := resp.Msg.Round
	if round.Status != "completed" || round.EntryCount != 2 {
		t.Errorf("unexpected round: %+v", round)
	}
	if len(round.Legs) != 1 || !legEqual(round.Legs[0], 1, "p1", "p3", "1000") {
		t.Fatalf("legs = %+v, want [1:p1->p3:1000]", round.Legs)
	}

	snapshot, err := client.GetSnapshot(ctx, connect.NewRequest(&GetSnapshotRequest{}))
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if snapshot.Msg.ParticipantCount != 3 {
		t.Errorf("participant count = %d, want 3", snapshot.Msg.ParticipantCount)
	}
	if len(snapshot.Msg.Entries) != 0 {
		t.Errorf("expected settled ledger to be empty, got %d entries", len(snapshot.Msg.Entries))
	}
	balances := map[string]string{}
	for _, p := range snapshot.Msg.Participants {
		balances[p.Identity] = p.Balance.String()
	}
	if balances["p1"] != "0" || balances["p2"] != "1000" || balances["p3"] != "2000" {
		t.Errorf("balances = %v, want p1=0 p2=1000 p3=2000", balances)
	}

	// A second settle has nothing left to net.
	again, err := client.Settle(ctx, connect.NewRequest(&SettleRequest{}))
	if err != nil {
		t.Fatalf("second Settle failed: %v", err)
	}
	if len(again.Msg.Round.Legs) != 0 {
		t.Errorf("expected empty plan, got %+v", again.Msg.Round.Legs)
	}

	rounds, err := client.ListRounds(ctx, connect.NewRequest(&ListRoundsRequest{}))
	if err != nil {
		t.Fatalf("ListRounds failed: %v", err)
	}
	if len(rounds.Msg.Rounds) != 2 || rounds.Msg.Rounds[0].ID != round.ID {
		t.Errorf("unexpected rounds: %+v", rounds.Msg.Rounds)
	}
}

func TestSettle_FourPartySplit(t *testing.T) {
	client, _ := setupTestServer(t, "")
	ctx := context.Background()
	fund(t, client, units(1000), "marco", "daniel", "lorenzo", "giorgio")

	dinner, err := client.RecordSplit(ctx, connect.NewRequest(&RecordSplitRequest{
		Payer:   "daniel",
		Debtors: []string{"giorgio", "daniel", "marco"},
		Amount:  units(99),
	}))
	if err != nil {
		t.Fatalf("RecordSplit failed: %v", err)
	}
	if len(dinner.Msg.Seqs) != 3 || dinner.Msg.Seqs[2] != 3 {
		t.Errorf("seqs = %v, want [1 2 3]", dinner.Msg.Seqs)
	}
	if _, err := client.RecordSplit(ctx, connect.NewRequest(&RecordSplitRequest{
		Payer:   "marco",
		Debtors: []string{"giorgio", "lorenzo"},
		Amount:  units(38),
	})); err != nil {
		t.Fatalf("RecordSplit failed: %v", err)
	}

	preview, err := client.PreviewSettlement(ctx, connect.NewRequest(&PreviewSettlementRequest{}))
	if err != nil {
		t.Fatalf("PreviewSettlement failed: %v", err)
	}
	nets := map[string]string{}
	for _, b := range preview.Msg.Balances {
		nets[b.Identity] = b.Net.String()
	}
	if nets["marco"] != "5" || nets["daniel"] != "66" || nets["lorenzo"] != "-19" || nets["giorgio"] != "-52" {
		t.Errorf("unexpected nets: %v", nets)
	}

	resp, err := client.Settle(ctx, connect.NewRequest(&SettleRequest{}))
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}

	want := []Leg{
		{Seq: 1, From: "giorgio", To: "daniel", Amount: units(52)},
		{Seq: 2, From: "lorenzo", To: "daniel", Amount: units(14)},
		{Seq: 3, From: "lorenzo", To: "marco", Amount: units(5)},
	}
	if len(resp.Msg.Round.Legs) != len(want) {
		t.Fatalf("legs = %+v, want %+v", resp.Msg.Round.Legs, want)
	}
	for i, leg := range resp.Msg.Round.Legs {
		if !legEqual(leg, want[i].Seq, want[i].From, want[i].To, want[i].Amount.String()) {
			t.Errorf("leg %d = %+v, want %+v", i, leg, want[i])
		}
	}
	if len(preview.Msg.Legs) != len(want) {
		t.Errorf("preview planned %d legs, settle executed %d", len(preview.Msg.Legs), len(want))
	}
}

func TestErrorCodes(t *testing.T) {
	client, _ := setupTestServer(t, "")
	ctx := context.Background()
	fund(t, client, units(100), "p1", "p2")

	// Funded but never approved: the balance check passes, the transfer does not.
	if _, err := client.Mint(ctx, connect.NewRequest(&MintRequest{Identity: "p3", Amount: units(100)})); err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	if _, err := client.RegisterParticipant(ctx, connect.NewRequest(&RegisterParticipantRequest{Identity: "p3"})); err != nil {
		t.Fatalf("RegisterParticipant failed: %v", err)
	}

	tests := []struct {
		name string
		call func() error
		want connect.Code
	}{
		{
			name: "duplicate participant",
			call: func() error {
				_, err := client.RegisterParticipant(ctx, connect.NewRequest(&RegisterParticipantRequest{Identity: "p1"}))
				return err
			},
			want: connect.CodeAlreadyExists,
		},
		{
			name: "missing identity",
			call: func() error {
				_, err := client.RegisterParticipant(ctx, connect.NewRequest(&RegisterParticipantRequest{DisplayName: "anon"}))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "unregistered payer",
			call: func() error {
				_, err := client.RecordExpense(ctx, connect.NewRequest(&RecordExpenseRequest{Debtor: "p1", Payer: "ghost", Amount: units(1)}))
				return err
			},
			want: connect.CodeNotFound,
		},
		{
			name: "debtor balance too low",
			call: func() error {
				_, err := client.RecordExpense(ctx, connect.NewRequest(&RecordExpenseRequest{Debtor: "p1", Payer: "p2", Amount: units(101)}))
				return err
			},
			want: connect.CodeFailedPrecondition,
		},
		{
			name: "zero amount",
			call: func() error {
				_, err := client.RecordExpense(ctx, connect.NewRequest(&RecordExpenseRequest{Debtor: "p1", Payer: "p2"}))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "fractional amount",
			call: func() error {
				_, err := client.RecordExpense(ctx, connect.NewRequest(&RecordExpenseRequest{
					Debtor: "p1", Payer: "p2", Amount: decimal.RequireFromString("1.5"),
				}))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "negative allowance",
			call: func() error {
				_, err := client.Approve(ctx, connect.NewRequest(&ApproveRequest{Owner: "p1", Amount: units(-1)}))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "split smaller than debtor count",
			call: func() error {
				_, err := client.RecordSplit(ctx, connect.NewRequest(&RecordSplitRequest{Payer: "p1", Debtors: []string{"p1", "p2"}, Amount: units(1)}))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "transfer without allowance",
			call: func() error {
				if _, err := client.RecordExpense(ctx, connect.NewRequest(&RecordExpenseRequest{Debtor: "p3", Payer: "p1", Amount: units(10)})); err != nil {
					return err
				}
				_, err := client.Settle(ctx, connect.NewRequest(&SettleRequest{}))
				return err
			},
			want: connect.CodeAborted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if code := connect.CodeOf(err); code != tt.want {
				t.Errorf("code = %v, want %v (%v)", code, tt.want, err)
			}
		})
	}

	// The failed settlement keeps the ledger and is recorded in the history.
	snapshot, err := client.GetSnapshot(ctx, connect.NewRequest(&GetSnapshotRequest{}))
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if len(snapshot.Msg.Entries) != 1 {
		t.Errorf("expected 1 pending entry, got %d", len(snapshot.Msg.Entries))
	}
	rounds, err := client.ListRounds(ctx, connect.NewRequest(&ListRoundsRequest{}))
	if err != nil {
		t.Fatalf("ListRounds failed: %v", err)
	}
	if len(rounds.Msg.Rounds) != 1 || rounds.Msg.Rounds[0].Status != "failed" || rounds.Msg.Rounds[0].Error == "" {
		t.Errorf("unexpected rounds: %+v", rounds.Msg.Rounds)
	}
}

func TestCoordinatorAuth(t *testing.T) {
	client, authClient := setupTestServer(t, "correct horse")
	ctx := context.Background()

	register := connect.NewRequest(&RegisterParticipantRequest{Identity: "p1"})
	if _, err := client.RegisterParticipant(ctx, register); connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Errorf("expected Unauthenticated without token, got %v", err)
	}

	if _, err := client.GetSnapshot(ctx, connect.NewRequest(&GetSnapshotRequest{})); err != nil {
		t.Errorf("GetSnapshot should be public: %v", err)
	}

	if _, err := authClient.Login(ctx, connect.NewRequest(&LoginRequest{Password: "wrong horse"})); connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Errorf("expected Unauthenticated for wrong password, got %v", err)
	}

	login, err := authClient.Login(ctx, connect.NewRequest(&LoginRequest{Password: "correct horse"}))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if login.Msg.Token == "" || login.Msg.ExpiresAt <= time.Now().Unix() {
		t.Fatalf("unexpected login response: %+v", login.Msg)
	}

	t.Run("malformed header", func(t *testing.T) {
		req := connect.NewRequest(&RegisterParticipantRequest{Identity: "p1"})
		req.Header().Set("Authorization", login.Msg.Token)
		if _, err := client.RegisterParticipant(ctx, req); connect.CodeOf(err) != connect.CodeUnauthenticated {
			t.Errorf("expected Unauthenticated, got %v", err)
		}
	})

	t.Run("bearer token", func(t *testing.T) {
		req := connect.NewRequest(&RegisterParticipantRequest{Identity: "p1"})
		req.Header().Set("Authorization", "Bearer "+login.Msg.Token)
		resp, err := client.RegisterParticipant(ctx, req)
		if err != nil {
			t.Fatalf("RegisterParticipant failed: %v", err)
		}
		if resp.Msg.Ordinal != 1 {
			t.Errorf("ordinal = %d, want 1", resp.Msg.Ordinal)
		}
	})
}

func TestMetricsInterceptor(t *testing.T) {
	collector := metrics.New()
	client, _ := setupTestServer(t, "", collector.Interceptor())
	ctx := context.Background()
	fund(t, client, units(10), "p1")

	if _, err := client.RegisterParticipant(ctx, connect.NewRequest(&RegisterParticipantRequest{Identity: "p1"})); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	for _, line := range []string{
		`tabsettle_rpc_requests_total{code="ok",procedure="/tabsettle.v1.TrackerService/RegisterParticipant"} 1`,
		`tabsettle_rpc_requests_total{code="already_exists",procedure="/tabsettle.v1.TrackerService/RegisterParticipant"} 1`,
		`tabsettle_rpc_requests_total{code="ok",procedure="/tabsettle.v1.TrackerService/Mint"} 1`,
	} {
		if !strings.Contains(body, line) {
			t.Errorf("metrics output missing %q", line)
		}
	}
}

func TestSettle_WeiAmounts(t *testing.T) {
	client, _ := setupTestServer(t, "")
	ctx := context.Background()
	fund(t, client, units(1000).Shift(18), "p1", "p2", "p3")

	ten := units(10).Shift(18)
	for _, e := range [][2]string{{"p1", "p2"}, {"p2", "p3"}} {
		if _, err := client.RecordExpense(ctx, connect.NewRequest(&RecordExpenseRequest{Debtor: e[0], Payer: e[1], Amount: ten})); err != nil {
			t.Fatalf("RecordExpense failed: %v", err)
		}
	}

	resp, err := client.Settle(ctx, connect.NewRequest(&SettleRequest{}))
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if len(resp.Msg.Round.Legs) != 1 || !legEqual(resp.Msg.Round.Legs[0], 1, "p1", "p3", "10000000000000000000") {
		t.Fatalf("legs = %+v, want [1:p1->p3:10000000000000000000]", resp.Msg.Round.Legs)
	}

	snapshot, err := client.GetSnapshot(ctx, connect.NewRequest(&GetSnapshotRequest{}))
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if got := snapshot.Msg.Participants[2].Balance.String(); got != "1010000000000000000000" {
		t.Errorf("p3 balance = %s, want 1010000000000000000000", got)
	}
}

func TestRejectedCallsAreLogged(t *testing.T) {
	var logs bytes.Buffer
	client, _ := setupLoggedTestServer(t, "correct horse", &logs)

	_, err := client.RegisterParticipant(context.Background(), connect.NewRequest(&RegisterParticipantRequest{Identity: "p1"}))
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}

	out := logs.String()
	for _, want := range []string{`msg="RPC error"`, "code=unauthenticated", "RegisterParticipant"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
