package listing

import (
	"time"

	"github.com/google/uuid"

	"github.com/raka-dev/backend-guru/internal/money"
)

// Listing states as seen through the edit-listing wizard.
const (
	StateDraft     = "draft"
	StatePublished = "published"
	StateClosed    = "closed"
)

// Listing is a bookable offer on the marketplace: a stay, a course, or a
// generic rentable unit, priced per booking unit.
type Listing struct {
	ID           uuid.UUID   `json:"id"`
	Slug         string      `json:"slug"`
	Title        string      `json:"title"`
	Description  string      `json:"description,omitempty"`
	TeachingType string      `json:"teachingType,omitempty"`
	Subjects     []string    `json:"subjects,omitempty"`
	Levels       []string    `json:"levels,omitempty"`
	Photos       []string    `json:"photos,omitempty"`
	UnitPrice    money.Money `json:"unitPrice"`
	// SessionHours configures hour-based pricing for this listing; zero means
	// the marketplace booking unit applies.
	SessionHours int64     `json:"sessionHours,omitempty"`
	State        string    `json:"state"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Input carries the writable listing fields from the wizard panels: general
// details, photos, and pricing.
type Input struct {
	Title        string   `json:"title" validate:"required,max=160"`
	Description  string   `json:"description" validate:"max=4000"`
	TeachingType string   `json:"teachingType" validate:"omitempty,oneof=online in-person hybrid"`
	Subjects     []string `json:"subjects" validate:"max=20,dive,max=64"`
	Levels       []string `json:"levels" validate:"max=10,dive,max=64"`
	Photos       []string `json:"photos" validate:"max=20,dive,url"`
	PriceAmount  int64    `json:"priceAmount" validate:"min=0"`
	Currency     string   `json:"currency" validate:"required,len=3,uppercase"`
	SessionHours int64    `json:"sessionHours" validate:"min=0,max=24"`
}

// ListParams filters and paginates the public listing search.
type ListParams struct {
	Subject      string
	TeachingType string
	State        string
	Page         int
	Limit        int
}
