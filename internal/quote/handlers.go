package quote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/raka-dev/backend-guru/internal/common"
	"github.com/raka-dev/backend-guru/internal/lineitem"
	"github.com/raka-dev/backend-guru/internal/listing"
	"github.com/raka-dev/backend-guru/internal/money"
	"github.com/raka-dev/backend-guru/internal/obs"
	"github.com/raka-dev/backend-guru/internal/pricing"
)

// ListingProvider supplies the listing a quote is priced against.
type ListingProvider interface {
	GetByID(ctx context.Context, id uuid.UUID) (listing.Listing, error)
}

// Input is a quote request: a listing plus the same booking parameters a real
// booking would carry.
type Input struct {
	ListingID    string `json:"listingId" validate:"required,uuid4"`
	StartDate    string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate      string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	SessionHours int64  `json:"sessionHours" validate:"min=0,max=24"`
	Units        int64  `json:"units" validate:"min=0"`
}

// Output is the priced preview. Nothing is persisted.
type Output struct {
	LineItems   lineitem.Collection `json:"lineItems"`
	PayinTotal  money.Money         `json:"payinTotal"`
	PayoutTotal money.Money         `json:"payoutTotal"`
}

// Handler exposes the stateless quote preview endpoint.
type Handler struct {
	listings ListingProvider
	engine   pricing.Engine
	validate *validator.Validate
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Listings ListingProvider
	Engine   pricing.Engine
	Validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validate
	if v == nil {
		v = validator.New()
	}
	return &Handler{listings: cfg.Listings, engine: cfg.Engine, validate: v}
}

// Quote handles POST /api/v1/quotes.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.listings == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote handler not configured", nil)
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		details := map[string]any{}
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				details[fe.Field()] = fe.Tag()
			}
		}
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid quote input", details)
		return
	}

	listingID, err := uuid.Parse(in.ListingID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid listing id", nil)
		return
	}
	l, err := h.listings.GetByID(r.Context(), listingID)
	if err != nil {
		h.writeError(w, err, "error")
		return
	}

	req := pricing.Request{SessionHours: in.SessionHours, Units: in.Units}
	if in.StartDate != "" {
		req.StartDate, _ = time.ParseInLocation("2006-01-02", in.StartDate, time.UTC)
	}
	if in.EndDate != "" {
		req.EndDate, _ = time.ParseInLocation("2006-01-02", in.EndDate, time.UTC)
	}

	items, err := h.engine.Quote(listing.PricingView(l), req)
	if err != nil {
		h.writeError(w, pricing.AsAppError(err), "rejected")
		return
	}
	payin, err := lineitem.TotalFor(items, lineitem.RoleCustomer)
	if err != nil {
		h.writeError(w, pricing.AsAppError(err), "error")
		return
	}
	payout, err := lineitem.TotalFor(items, lineitem.RoleProvider)
	if err != nil {
		h.writeError(w, pricing.AsAppError(err), "error")
		return
	}
	h.count("ok")
	common.JSON(w, http.StatusOK, map[string]any{
		"data": Output{LineItems: items, PayinTotal: payin, PayoutTotal: payout},
	})
}

func (h *Handler) count(result string) {
	if obs.QuoteTotal != nil {
		obs.QuoteTotal.WithLabelValues(string(h.engine.Unit()), result).Inc()
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error, result string) {
	h.count(result)
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := appErr.Code
		if code == "" {
			code = "INTERNAL"
		}
		message := appErr.Message
		if message == "" {
			message = "internal error"
		}
		common.JSONError(w, status, code, message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
