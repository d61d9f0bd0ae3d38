package token

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/models"
)

func units(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// toWei converts whole tokens to 18-decimal base units.
func toWei(tokens int64) decimal.Decimal { return decimal.NewFromInt(tokens).Shift(18) }

func TestTransferFrom(t *testing.T) {
	tests := []struct {
		name      string
		mint      decimal.Decimal
		allowance decimal.Decimal
		amount    decimal.Decimal
		wantErr   error
	}{
		{
			name:      "within balance and allowance",
			mint:      units(100),
			allowance: units(100),
			amount:    units(60),
		},
		{
			name:      "wei-scale amounts",
			mint:      toWei(1000),
			allowance: toWei(1000),
			amount:    toWei(50),
		},
		{
			name:      "exceeds balance",
			mint:      units(50),
			allowance: units(100),
			amount:    units(60),
			wantErr:   ErrInsufficientFunds,
		},
		{
			name:      "exceeds allowance",
			mint:      units(100),
			allowance: units(10),
			amount:    units(60),
			wantErr:   ErrInsufficientAllowance,
		},
		{
			name:      "zero amount",
			mint:      units(100),
			allowance: units(100),
			amount:    decimal.Zero,
			wantErr:   ErrInvalidAmount,
		},
		{
			name:      "fractional amount",
			mint:      units(100),
			allowance: units(100),
			amount:    decimal.RequireFromString("0.5"),
			wantErr:   ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := New()
			if err := tok.Mint("alice", tt.mint); err != nil {
				t.Fatalf("Mint failed: %v", err)
			}
			if err := tok.Approve("alice", "tracker", tt.allowance); err != nil {
				t.Fatalf("Approve failed: %v", err)
			}

			err := tok.TransferFrom("tracker", "alice", "bob", tt.amount)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("TransferFrom() error = %v, want %v", err, tt.wantErr)
			}

			if tt.wantErr != nil {
				if got := tok.BalanceOf("alice"); !got.Equal(tt.mint) {
					t.Errorf("alice balance = %s, want unchanged %s", got, tt.mint)
				}
				if got := tok.Allowance("alice", "tracker"); !got.Equal(tt.allowance) {
					t.Errorf("allowance = %s, want unchanged %s", got, tt.allowance)
				}
				return
			}

			if got := tok.BalanceOf("alice"); !got.Equal(tt.mint.Sub(tt.amount)) {
				t.Errorf("alice balance = %s, want %s", got, tt.mint.Sub(tt.amount))
			}
			if got := tok.BalanceOf("bob"); !got.Equal(tt.amount) {
				t.Errorf("bob balance = %s, want %s", got, tt.amount)
			}
			if got := tok.Allowance("alice", "tracker"); !got.Equal(tt.allowance.Sub(tt.amount)) {
				t.Errorf("allowance = %s, want %s", got, tt.allowance.Sub(tt.amount))
			}
			if got := tok.TotalSupply(); !got.Equal(tt.mint) {
				t.Errorf("total supply = %s, want %s", got, tt.mint)
			}
		})
	}
}

func TestMint(t *testing.T) {
	tok := New()

	if err := tok.Mint("alice", decimal.Zero); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Mint(0) error = %v, want %v", err, ErrInvalidAmount)
	}
	if err := tok.Mint("alice", models.MaxAmount); err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	if err := tok.Mint("bob", units(1)); !errors.Is(err, ErrSupplyOverflow) {
		t.Errorf("Mint past max supply error = %v, want %v", err, ErrSupplyOverflow)
	}
	if err := tok.Approve("alice", "tracker", units(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Approve(-1) error = %v, want %v", err, ErrInvalidAmount)
	}
}

func TestPort(t *testing.T) {
	ctx := context.Background()
	tok := New()
	if err := tok.Mint("alice", units(10)); err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	if err := tok.Approve("alice", "tracker", units(10)); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	port := tok.Spender("tracker")

	balance, err := port.BalanceOf(ctx, "alice")
	if err != nil || !balance.Equal(units(10)) {
		t.Fatalf("BalanceOf = %s, %v; want 10, nil", balance, err)
	}

	// Another spender has no allowance.
	if err := tok.Spender("someone-else").Transfer(ctx, "alice", "bob", units(1)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Errorf("Transfer without allowance error = %v, want %v", err, ErrInsufficientAllowance)
	}

	if err := port.Transfer(ctx, "alice", "bob", units(4)); err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if got := tok.BalanceOf("bob"); !got.Equal(units(4)) {
		t.Errorf("bob balance = %s, want 4", got)
	}
}
