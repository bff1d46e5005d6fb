package lineitem

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/raka-dev/backend-guru/internal/money"
)

// Line item codes understood by the breakdown components downstream. Custom
// extension codes are allowed as long as they stay within MaxCodeLen.
const (
	CodeNight              = "line-item/night"
	CodeDay                = "line-item/day"
	CodeUnits              = "line-item/units"
	CodeHour               = "line-item/hour"
	CodeProviderCommission = "line-item/provider-commission"
	CodeCustomerCommission = "line-item/customer-commission"
)

// MaxCodeLen caps line item code length.
const MaxCodeLen = 64

var (
	// ErrMalformedItem is returned when a line item does not resolve to exactly
	// one pricing method, or misses a mandatory field.
	ErrMalformedItem = errors.New("malformed line item")
)

// Role identifies whose total a line item contributes to.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
)

// Method is the pricing method of a line item. Exactly one method applies per
// item; the variants make the invariant structural instead of conventional.
type Method interface {
	factor() (decimal.Decimal, bool)
	valid() bool
}

// BaseCharge prices an item as quantity times unit price.
type BaseCharge struct {
	Quantity decimal.Decimal
}

func (b BaseCharge) factor() (decimal.Decimal, bool) { return b.Quantity, false }
func (b BaseCharge) valid() bool                     { return b.Quantity.IsPositive() }

// PercentageAdjustment prices an item as a signed percentage of the unit
// price. Negative percentages are deductions (commissions).
type PercentageAdjustment struct {
	Percentage decimal.Decimal
}

func (p PercentageAdjustment) factor() (decimal.Decimal, bool) { return p.Percentage, true }
func (p PercentageAdjustment) valid() bool                     { return !p.Percentage.IsZero() }

// SeatsUnitsCharge prices an item as seats times units times unit price.
type SeatsUnitsCharge struct {
	Seats int64
	Units int64
}

func (s SeatsUnitsCharge) factor() (decimal.Decimal, bool) {
	return decimal.NewFromInt(s.Seats).Mul(decimal.NewFromInt(s.Units)), false
}
func (s SeatsUnitsCharge) valid() bool { return s.Seats > 0 && s.Units > 0 }

// LineItem is one priced component of a transaction. Values are constructed
// once per pricing run and never mutated; a corrected item is a new value.
type LineItem struct {
	Code       string
	UnitPrice  money.Money
	Method     Method
	IncludeFor []Role
	Reversal   bool
}

// Validate checks the structural invariants of the item.
func (li LineItem) Validate() error {
	if li.Code == "" {
		return fmt.Errorf("%w: empty code", ErrMalformedItem)
	}
	if len(li.Code) > MaxCodeLen {
		return fmt.Errorf("%w: code %q exceeds %d characters", ErrMalformedItem, li.Code, MaxCodeLen)
	}
	if li.UnitPrice.Currency == "" {
		return fmt.Errorf("%w: %s has no unit price", ErrMalformedItem, li.Code)
	}
	if li.Method == nil || !li.Method.valid() {
		return fmt.Errorf("%w: %s has no usable pricing method", ErrMalformedItem, li.Code)
	}
	for _, role := range li.IncludeFor {
		if role != RoleCustomer && role != RoleProvider {
			return fmt.Errorf("%w: %s includes unknown role %q", ErrMalformedItem, li.Code, role)
		}
	}
	return nil
}

// LineTotal derives the item total from its pricing method, rounded to minor
// units half away from zero.
func (li LineItem) LineTotal() (money.Money, error) {
	if err := li.Validate(); err != nil {
		return money.Money{}, err
	}
	factor, isPercentage := li.Method.factor()
	if isPercentage {
		return li.UnitPrice.Percent(factor), nil
	}
	return li.UnitPrice.Mul(factor), nil
}

// IncludedFor reports whether the item counts towards the given role's total.
func (li LineItem) IncludedFor(role Role) bool {
	for _, r := range li.IncludeFor {
		if r == role {
			return true
		}
	}
	return false
}

// Reverse returns the refund counterpart of the item: same code and method,
// negated unit price, marked as a reversal.
func (li LineItem) Reverse() LineItem {
	return LineItem{
		Code:       li.Code,
		UnitPrice:  li.UnitPrice.Negate(),
		Method:     li.Method,
		IncludeFor: append([]Role(nil), li.IncludeFor...),
		Reversal:   !li.Reversal,
	}
}
