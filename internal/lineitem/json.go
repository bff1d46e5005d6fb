package lineitem

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/raka-dev/backend-guru/internal/money"
)

// wireItem is the flat JSON shape consumed by the transaction API and the
// breakdown components: optional method fields present-when-set.
type wireItem struct {
	Code       string           `json:"code"`
	UnitPrice  money.Money      `json:"unitPrice"`
	Quantity   *decimal.Decimal `json:"quantity,omitempty"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
	Seats      *int64           `json:"seats,omitempty"`
	Units      *int64           `json:"units,omitempty"`
	LineTotal  *money.Money     `json:"lineTotal,omitempty"`
	IncludeFor []Role           `json:"includeFor"`
	Reversal   bool             `json:"reversal"`
}

// MarshalJSON renders the item in the wire shape with its derived line total.
func (li LineItem) MarshalJSON() ([]byte, error) {
	total, err := li.LineTotal()
	if err != nil {
		return nil, err
	}
	w := wireItem{
		Code:       li.Code,
		UnitPrice:  li.UnitPrice,
		LineTotal:  &total,
		IncludeFor: li.IncludeFor,
		Reversal:   li.Reversal,
	}
	switch m := li.Method.(type) {
	case BaseCharge:
		q := m.Quantity
		w.Quantity = &q
	case PercentageAdjustment:
		p := m.Percentage
		w.Percentage = &p
	case SeatsUnitsCharge:
		seats, units := m.Seats, m.Units
		w.Seats = &seats
		w.Units = &units
	default:
		return nil, fmt.Errorf("%w: %s has unknown pricing method", ErrMalformedItem, li.Code)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the wire shape, enforcing that exactly one pricing
// method is present. The serialized lineTotal is discarded; totals are always
// re-derived.
func (li *LineItem) UnmarshalJSON(data []byte) error {
	var w wireItem
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	methods := 0
	var method Method
	if w.Quantity != nil {
		methods++
		method = BaseCharge{Quantity: *w.Quantity}
	}
	if w.Percentage != nil {
		methods++
		method = PercentageAdjustment{Percentage: *w.Percentage}
	}
	if w.Seats != nil || w.Units != nil {
		if w.Seats == nil || w.Units == nil {
			return fmt.Errorf("%w: %s has seats without units or vice versa", ErrMalformedItem, w.Code)
		}
		methods++
		method = SeatsUnitsCharge{Seats: *w.Seats, Units: *w.Units}
	}
	if methods != 1 {
		return fmt.Errorf("%w: %s must use exactly one of quantity, percentage, seats+units (got %d)", ErrMalformedItem, w.Code, methods)
	}
	decoded := LineItem{
		Code:       w.Code,
		UnitPrice:  w.UnitPrice,
		Method:     method,
		IncludeFor: w.IncludeFor,
		Reversal:   w.Reversal,
	}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*li = decoded
	return nil
}
