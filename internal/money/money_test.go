package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAddSameCurrency(t *testing.T) {
	total, err := New(30000, "USD").Add(New(-7500, "USD"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if total.Amount != 22500 || total.Currency != "USD" {
		t.Fatalf("unexpected total %v", total)
	}
}

func TestAddCurrencyMismatch(t *testing.T) {
	_, err := New(100, "USD").Add(New(100, "EUR"))
	if !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}
}

func TestPercentRounding(t *testing.T) {
	cases := []struct {
		name   string
		amount int64
		pct    string
		want   int64
	}{
		{"quarter deduction", 30000, "-25", -7500},
		{"fifteen percent", 30000, "-15", -4500},
		{"rounds down below half", 1001, "5", 50},
		{"rounds down below half negative", 1001, "-5", -50},
		{"half rounds away from zero", 1010, "5", 51},
		{"half rounds away from zero negative", 1010, "-5", -51},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pct, err := decimal.NewFromString(tc.pct)
			if err != nil {
				t.Fatalf("parse pct: %v", err)
			}
			got := New(tc.amount, "USD").Percent(pct)
			if got.Amount != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got.Amount)
			}
			if got.Currency != "USD" {
				t.Fatalf("currency lost: %v", got)
			}
		})
	}
}

func TestMulKeepsCurrency(t *testing.T) {
	got := New(2000, "USD").Mul(decimal.NewFromInt(8))
	if got.Amount != 16000 || got.Currency != "USD" {
		t.Fatalf("unexpected product %v", got)
	}
}
