package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/raka-dev/backend-guru/internal/booking"
	"github.com/raka-dev/backend-guru/internal/lineitem"
	"github.com/raka-dev/backend-guru/internal/money"
)

// ErrMissingField is returned when pricing input lacks a mandatory field.
var ErrMissingField = errors.New("missing required field")

// Default commission percentages applied marketplace-wide. Negative values
// are deductions from the respective party.
const (
	DefaultProviderCommissionPct = -25
	DefaultCustomerCommissionPct = -15
)

// Listing carries the pricing-relevant slice of a listing record.
type Listing struct {
	UnitPrice money.Money
	// SessionHours is per-listing configuration: when set, a booking of this
	// listing is priced as this many session hours instead of by dates.
	SessionHours int64
}

// Request is one booking's pricing input. SessionHours, when positive,
// overrides date-based quantity resolution entirely. Units supplies the
// caller-side count for generic-unit listings.
type Request struct {
	StartDate    time.Time
	EndDate      time.Time
	SessionHours int64
	Units        int64
}

// Engine derives the priced line item breakdown of a booking. The booking
// unit is explicit configuration threaded through every call, never ambient
// state. Engines are immutable and safe for concurrent use.
type Engine struct {
	unit        booking.Unit
	providerPct decimal.Decimal
	customerPct decimal.Decimal
	maxItems    int
}

// Config customises an Engine. Zero percentages fall back to the marketplace
// defaults; MaxItems falls back to the collection cap.
type Config struct {
	Unit                  booking.Unit
	ProviderCommissionPct decimal.Decimal
	CustomerCommissionPct decimal.Decimal
	MaxItems              int
}

// NewEngine constructs a pricing engine.
func NewEngine(cfg Config) Engine {
	e := Engine{
		unit:        cfg.Unit,
		providerPct: cfg.ProviderCommissionPct,
		customerPct: cfg.CustomerCommissionPct,
		maxItems:    cfg.MaxItems,
	}
	if e.unit == "" {
		e.unit = booking.UnitNight
	}
	if e.providerPct.IsZero() {
		e.providerPct = decimal.NewFromInt(DefaultProviderCommissionPct)
	}
	if e.customerPct.IsZero() {
		e.customerPct = decimal.NewFromInt(DefaultCustomerCommissionPct)
	}
	if e.maxItems <= 0 || e.maxItems > lineitem.MaxItems {
		e.maxItems = lineitem.MaxItems
	}
	return e
}

// Unit reports the booking unit the engine prices in.
func (e Engine) Unit() booking.Unit { return e.unit }

// Quote computes the ordered line item breakdown for one booking: the base
// charge followed by the provider and customer commissions. Pure and
// deterministic; on any error no collection is returned.
func (e Engine) Quote(listing Listing, req Request) (lineitem.Collection, error) {
	if listing.UnitPrice.Currency == "" {
		return nil, fmt.Errorf("%w: listing unit price", ErrMissingField)
	}
	if listing.UnitPrice.Amount < 0 {
		return nil, fmt.Errorf("%w: listing unit price must not be negative", ErrMissingField)
	}

	quantity, code, err := e.resolveQuantity(listing, req)
	if err != nil {
		return nil, err
	}

	base := lineitem.LineItem{
		Code:       code,
		UnitPrice:  listing.UnitPrice,
		Method:     lineitem.BaseCharge{Quantity: decimal.NewFromInt(quantity)},
		IncludeFor: []lineitem.Role{lineitem.RoleCustomer, lineitem.RoleProvider},
	}
	baseTotal, err := base.LineTotal()
	if err != nil {
		return nil, err
	}

	// The provider commission is charged on the base booking total, the
	// customer commission on the running customer-facing subtotal, so extra
	// customer-facing items added upstream stay covered.
	providerCommission := lineitem.LineItem{
		Code:       lineitem.CodeProviderCommission,
		UnitPrice:  baseTotal,
		Method:     lineitem.PercentageAdjustment{Percentage: e.providerPct},
		IncludeFor: []lineitem.Role{lineitem.RoleProvider},
	}
	customerSubtotal, err := lineitem.TotalFor([]lineitem.LineItem{base}, lineitem.RoleCustomer)
	if err != nil {
		return nil, err
	}
	customerCommission := lineitem.LineItem{
		Code:       lineitem.CodeCustomerCommission,
		UnitPrice:  customerSubtotal,
		Method:     lineitem.PercentageAdjustment{Percentage: e.customerPct},
		IncludeFor: []lineitem.Role{lineitem.RoleCustomer},
	}

	items := lineitem.Collection{base, providerCommission, customerCommission}
	if len(items) > e.maxItems {
		return nil, fmt.Errorf("%w: %d items, cap is %d", lineitem.ErrTooManyItems, len(items), e.maxItems)
	}
	if err := items.Validate(); err != nil {
		return nil, err
	}
	return items, nil
}

// Refund derives the reversal collection for a cancelled booking: every item
// reversed, appended after the originals, within the item cap.
func (e Engine) Refund(items lineitem.Collection) (lineitem.Collection, error) {
	if err := items.Validate(); err != nil {
		return nil, err
	}
	combined, err := items.Append(items.Reverse()...)
	if err != nil {
		return nil, err
	}
	if len(combined) > e.maxItems {
		return nil, fmt.Errorf("%w: %d items, cap is %d", lineitem.ErrTooManyItems, len(combined), e.maxItems)
	}
	return combined, nil
}

// resolveQuantity picks exactly one quantity source: session hours when
// configured, the caller-supplied count for generic units, dates otherwise.
func (e Engine) resolveQuantity(listing Listing, req Request) (int64, string, error) {
	hours := req.SessionHours
	if hours == 0 {
		hours = listing.SessionHours
	}
	if hours < 0 {
		return 0, "", fmt.Errorf("%w: session hours %d", booking.ErrInvalidWindow, hours)
	}
	if hours > 0 {
		return hours, booking.UnitHour.LineItemCode(), nil
	}
	if e.unit == booking.UnitGeneric {
		if req.Units <= 0 {
			return 0, "", fmt.Errorf("%w: unit count %d", booking.ErrInvalidWindow, req.Units)
		}
		return req.Units, e.unit.LineItemCode(), nil
	}
	if req.StartDate.IsZero() && req.EndDate.IsZero() {
		return 0, "", fmt.Errorf("%w: booking dates or session hours", ErrMissingField)
	}
	quantity, err := booking.UnitCount(req.StartDate, req.EndDate, e.unit)
	if err != nil {
		return 0, "", err
	}
	return quantity, e.unit.LineItemCode(), nil
}
