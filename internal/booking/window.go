package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/raka-dev/backend-guru/internal/lineitem"
)

// ErrInvalidWindow is returned when a booking window cannot produce a
// positive quantity.
var ErrInvalidWindow = errors.New("invalid booking window")

// Unit is the time granularity a listing is priced in.
type Unit string

const (
	UnitNight Unit = "night"
	UnitDay   Unit = "day"
	// UnitGeneric prices by a caller-supplied count, no date math.
	UnitGeneric Unit = "unit"
	// UnitHour prices by session hours.
	UnitHour Unit = "hour"
)

// ParseUnit maps a configuration string onto a Unit.
func ParseUnit(s string) (Unit, error) {
	switch Unit(s) {
	case UnitNight, UnitDay, UnitGeneric, UnitHour:
		return Unit(s), nil
	case "":
		return UnitNight, nil
	}
	return "", fmt.Errorf("unknown booking unit %q", s)
}

// LineItemCode returns the line item code for a base charge in this unit.
func (u Unit) LineItemCode() string {
	switch u {
	case UnitDay:
		return lineitem.CodeDay
	case UnitGeneric:
		return lineitem.CodeUnits
	case UnitHour:
		return lineitem.CodeHour
	default:
		return lineitem.CodeNight
	}
}

// UnitCount derives the quantity between two timestamps for date-based units.
// Nights: calendar nights between the day-floored endpoints, end exclusive.
// Days: inclusive day count, one more than the night count.
// Generic and hour units carry their own counts and never reach here.
func UnitCount(start, end time.Time, unit Unit) (int64, error) {
	if start.IsZero() || end.IsZero() {
		return 0, fmt.Errorf("%w: missing start or end date", ErrInvalidWindow)
	}
	if !end.After(start) {
		return 0, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidWindow, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	nights := int64(floorDay(end).Sub(floorDay(start)) / (24 * time.Hour))
	var count int64
	switch unit {
	case UnitNight:
		count = nights
	case UnitDay:
		count = nights + 1
	default:
		return 0, fmt.Errorf("%w: unit %q is not date based", ErrInvalidWindow, unit)
	}
	if count <= 0 {
		return 0, fmt.Errorf("%w: derived quantity %d", ErrInvalidWindow, count)
	}
	return count, nil
}

func floorDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
