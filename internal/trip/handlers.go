package trip

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/raka-dev/backend-guru/internal/common"
)

// Handler exposes booking endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service  *Service
	Validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validate
	if v == nil {
		v = validator.New()
	}
	return &Handler{service: cfg.Service, validate: v}
}

// Create handles POST /api/v1/bookings.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "booking service not configured", nil)
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
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid booking input", details)
		return
	}
	created, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Get handles GET /api/v1/bookings/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(id uuid.UUID) (Booking, error) {
		return h.service.Get(r.Context(), id)
	}, http.StatusOK)
}

// Accept handles POST /api/v1/bookings/{id}/accept.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(id uuid.UUID) (Booking, error) {
		return h.service.Accept(r.Context(), id)
	}, http.StatusOK)
}

// Cancel handles POST /api/v1/bookings/{id}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(id uuid.UUID) (Booking, error) {
		return h.service.Cancel(r.Context(), id)
	}, http.StatusOK)
}

// ByListing handles GET /api/v1/listings/{id}/bookings.
func (h *Handler) ByListing(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "booking service not configured", nil)
		return
	}
	listingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid listing id", nil)
		return
	}
	_, limit := common.ParsePagination(r, 20)
	rows, err := h.service.ListByListing(r.Context(), listingID, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

func (h *Handler) withID(w http.ResponseWriter, r *http.Request, op func(uuid.UUID) (Booking, error), status int) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "booking service not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid booking id", nil)
		return
	}
	b, err := op(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, status, map[string]any{"data": b})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
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
