package lineitem

import (
	"errors"
	"fmt"

	"github.com/raka-dev/backend-guru/internal/money"
)

// MaxItems caps the number of line items in one transaction breakdown.
const MaxItems = 50

// ErrTooManyItems is returned when a collection would exceed MaxItems.
var ErrTooManyItems = errors.New("too many line items")

// Collection is the ordered priced breakdown of one booking. Order matters
// for display, not for totals.
type Collection []LineItem

// Validate checks the cap and every item.
func (c Collection) Validate() error {
	if len(c) > MaxItems {
		return fmt.Errorf("%w: %d items, cap is %d", ErrTooManyItems, len(c), MaxItems)
	}
	for _, li := range c {
		if err := li.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Append extends the collection, enforcing the item cap.
func (c Collection) Append(items ...LineItem) (Collection, error) {
	if len(c)+len(items) > MaxItems {
		return nil, fmt.Errorf("%w: %d items, cap is %d", ErrTooManyItems, len(c)+len(items), MaxItems)
	}
	return append(c, items...), nil
}

// Reverse returns the refund counterpart of the whole collection.
func (c Collection) Reverse() Collection {
	out := make(Collection, 0, len(c))
	for _, li := range c {
		out = append(out, li.Reverse())
	}
	return out
}

// TotalFor sums line totals over the items whose IncludeFor contains role.
// Every summed item must share one currency.
func TotalFor(items []LineItem, role Role) (money.Money, error) {
	var total money.Money
	seen := false
	for _, li := range items {
		if !li.IncludedFor(role) {
			continue
		}
		lineTotal, err := li.LineTotal()
		if err != nil {
			return money.Money{}, err
		}
		if !seen {
			total = lineTotal
			seen = true
			continue
		}
		total, err = total.Add(lineTotal)
		if err != nil {
			return money.Money{}, err
		}
	}
	return total, nil
}
