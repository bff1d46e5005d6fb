package lineitem

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/raka-dev/backend-guru/internal/money"
)

func baseNight(nights int64) LineItem {
	return LineItem{
		Code:       CodeNight,
		UnitPrice:  money.New(10000, "USD"),
		Method:     BaseCharge{Quantity: decimal.NewFromInt(nights)},
		IncludeFor: []Role{RoleCustomer, RoleProvider},
	}
}

func TestLineTotalByQuantity(t *testing.T) {
	total, err := baseNight(3).LineTotal()
	if err != nil {
		t.Fatalf("line total: %v", err)
	}
	if total.Amount != 30000 || total.Currency != "USD" {
		t.Fatalf("unexpected total %v", total)
	}
}

func TestLineTotalByPercentage(t *testing.T) {
	commission := LineItem{
		Code:       CodeProviderCommission,
		UnitPrice:  money.New(30000, "USD"),
		Method:     PercentageAdjustment{Percentage: decimal.NewFromInt(-25)},
		IncludeFor: []Role{RoleProvider},
	}
	total, err := commission.LineTotal()
	if err != nil {
		t.Fatalf("line total: %v", err)
	}
	if total.Amount != -7500 {
		t.Fatalf("expected -7500, got %d", total.Amount)
	}
}

func TestLineTotalBySeatsUnits(t *testing.T) {
	item := LineItem{
		Code:       CodeUnits,
		UnitPrice:  money.New(1500, "USD"),
		Method:     SeatsUnitsCharge{Seats: 2, Units: 3},
		IncludeFor: []Role{RoleCustomer, RoleProvider},
	}
	total, err := item.LineTotal()
	if err != nil {
		t.Fatalf("line total: %v", err)
	}
	if total.Amount != 9000 {
		t.Fatalf("expected 9000, got %d", total.Amount)
	}
}

func TestValidateRejectsMissingMethod(t *testing.T) {
	item := LineItem{Code: CodeNight, UnitPrice: money.New(100, "USD")}
	if err := item.Validate(); !errors.Is(err, ErrMalformedItem) {
		t.Fatalf("expected ErrMalformedItem, got %v", err)
	}
}

func TestValidateRejectsOversizedCode(t *testing.T) {
	item := baseNight(1)
	item.Code = "line-item/" + strings.Repeat("x", MaxCodeLen)
	if err := item.Validate(); !errors.Is(err, ErrMalformedItem) {
		t.Fatalf("expected ErrMalformedItem, got %v", err)
	}
}

func TestTotalForRoles(t *testing.T) {
	base := baseNight(3)
	provider := LineItem{
		Code:       CodeProviderCommission,
		UnitPrice:  money.New(30000, "USD"),
		Method:     PercentageAdjustment{Percentage: decimal.NewFromInt(-25)},
		IncludeFor: []Role{RoleProvider},
	}
	customer := LineItem{
		Code:       CodeCustomerCommission,
		UnitPrice:  money.New(30000, "USD"),
		Method:     PercentageAdjustment{Percentage: decimal.NewFromInt(-15)},
		IncludeFor: []Role{RoleCustomer},
	}
	items := []LineItem{base, provider, customer}

	payout, err := TotalFor(items, RoleProvider)
	if err != nil {
		t.Fatalf("provider total: %v", err)
	}
	if payout.Amount != 22500 {
		t.Fatalf("expected provider total 22500, got %d", payout.Amount)
	}
	payin, err := TotalFor(items, RoleCustomer)
	if err != nil {
		t.Fatalf("customer total: %v", err)
	}
	if payin.Amount != 25500 {
		t.Fatalf("expected customer total 25500, got %d", payin.Amount)
	}
}

func TestTotalForCurrencyMismatch(t *testing.T) {
	other := baseNight(1)
	other.UnitPrice = money.New(5000, "EUR")
	_, err := TotalFor([]LineItem{baseNight(1), other}, RoleCustomer)
	if !errors.Is(err, money.ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}
}

func TestCollectionCap(t *testing.T) {
	var c Collection
	var err error
	for i := 0; i < MaxItems; i++ {
		c, err = c.Append(baseNight(1))
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if _, err = c.Append(baseNight(1)); !errors.Is(err, ErrTooManyItems) {
		t.Fatalf("expected ErrTooManyItems, got %v", err)
	}
}

func TestReverseNegatesTotals(t *testing.T) {
	item := baseNight(3)
	reversed := item.Reverse()
	if !reversed.Reversal {
		t.Fatal("expected reversal flag set")
	}
	total, err := reversed.LineTotal()
	if err != nil {
		t.Fatalf("line total: %v", err)
	}
	if total.Amount != -30000 {
		t.Fatalf("expected -30000, got %d", total.Amount)
	}
	if restored := reversed.Reverse(); restored.Reversal {
		t.Fatal("double reversal should clear the flag")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	original := baseNight(3)
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), "\"lineTotal\"") {
		t.Fatalf("expected derived lineTotal in payload: %s", data)
	}
	var decoded LineItem
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Code != original.Code || !decoded.IncludedFor(RoleProvider) {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
	total, err := decoded.LineTotal()
	if err != nil {
		t.Fatalf("line total: %v", err)
	}
	if total.Amount != 30000 {
		t.Fatalf("expected 30000, got %d", total.Amount)
	}
}

func TestUnmarshalRejectsTwoMethods(t *testing.T) {
	payload := `{
		"code": "line-item/night",
		"unitPrice": {"amount": 10000, "currency": "USD"},
		"quantity": 2,
		"percentage": -25,
		"includeFor": ["customer", "provider"]
	}`
	var item LineItem
	err := json.Unmarshal([]byte(payload), &item)
	if !errors.Is(err, ErrMalformedItem) {
		t.Fatalf("expected ErrMalformedItem, got %v", err)
	}
}

func TestUnmarshalRejectsSeatsWithoutUnits(t *testing.T) {
	payload := `{
		"code": "line-item/units",
		"unitPrice": {"amount": 10000, "currency": "USD"},
		"seats": 2,
		"includeFor": ["customer"]
	}`
	var item LineItem
	err := json.Unmarshal([]byte(payload), &item)
	if !errors.Is(err, ErrMalformedItem) {
		t.Fatalf("expected ErrMalformedItem, got %v", err)
	}
}
