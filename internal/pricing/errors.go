package pricing

import (
	"errors"
	"net/http"

	"github.com/raka-dev/backend-guru/internal/booking"
	"github.com/raka-dev/backend-guru/internal/common"
	"github.com/raka-dev/backend-guru/internal/lineitem"
	"github.com/raka-dev/backend-guru/internal/money"
)

// AsAppError maps pricing sentinels to transport-level error codes. Unknown
// errors pass through untouched.
func AsAppError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, booking.ErrInvalidWindow):
		return &common.AppError{
			Code:       "INVALID_BOOKING_WINDOW",
			Message:    "booking window is invalid",
			HTTPStatus: http.StatusBadRequest,
			Err:        err,
		}
	case errors.Is(err, ErrMissingField):
		return &common.AppError{
			Code:       "VALIDATION_ERROR",
			Message:    "pricing input is incomplete",
			HTTPStatus: http.StatusBadRequest,
			Err:        err,
		}
	case errors.Is(err, lineitem.ErrTooManyItems):
		return &common.AppError{
			Code:       "TOO_MANY_LINE_ITEMS",
			Message:    "line item cap exceeded",
			HTTPStatus: http.StatusUnprocessableEntity,
			Err:        err,
		}
	case errors.Is(err, lineitem.ErrMalformedItem):
		return &common.AppError{
			Code:       "MALFORMED_LINE_ITEM",
			Message:    "line item is malformed",
			HTTPStatus: http.StatusUnprocessableEntity,
			Err:        err,
		}
	case errors.Is(err, money.ErrCurrencyMismatch):
		return &common.AppError{
			Code:       "CURRENCY_MISMATCH",
			Message:    "line items mix currencies",
			HTTPStatus: http.StatusUnprocessableEntity,
			Err:        err,
		}
	default:
		return err
	}
}
