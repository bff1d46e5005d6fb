package trip

import (
	"time"

	"github.com/google/uuid"

	"github.com/raka-dev/backend-guru/internal/lineitem"
	"github.com/raka-dev/backend-guru/internal/money"
)

// Booking statuses.
const (
	StatusPendingPayment = "PENDING_PAYMENT"
	StatusAccepted       = "ACCEPTED"
	StatusCancelled      = "CANCELLED"
	StatusExpired        = "EXPIRED"
)

// Booking is one transaction between a customer and a provider. The priced
// breakdown is frozen at creation time; a cancellation appends reversal items
// instead of mutating the originals.
type Booking struct {
	ID           uuid.UUID           `json:"id"`
	ListingID    uuid.UUID           `json:"listingId"`
	Status       string              `json:"status"`
	StartDate    *time.Time          `json:"startDate,omitempty"`
	EndDate      *time.Time          `json:"endDate,omitempty"`
	SessionHours int64               `json:"sessionHours,omitempty"`
	Units        int64               `json:"units,omitempty"`
	LineItems    lineitem.Collection `json:"lineItems"`
	PayinTotal   money.Money         `json:"payinTotal"`
	PayoutTotal  money.Money         `json:"payoutTotal"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
	ExpiresAt    *time.Time          `json:"expiresAt,omitempty"`
}

// Input carries the booking creation request.
type Input struct {
	ListingID    string `json:"listingId" validate:"required,uuid4"`
	StartDate    string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate      string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	SessionHours int64  `json:"sessionHours" validate:"min=0,max=24"`
	Units        int64  `json:"units" validate:"min=0"`
}
