package tasks

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TypeBookingExpire is the task type for expiring bookings that were never
// accepted.
const TypeBookingExpire = "booking:expire"

// BookingExpirePayload identifies the booking to expire.
type BookingExpirePayload struct {
	BookingID uuid.UUID `json:"bookingId"`
}

// NewBookingExpireTask schedules the expiry of a pending booking. The task is
// keyed by booking so re-enqueues collapse into one delivery.
func NewBookingExpireTask(bookingID uuid.UUID, expireAfter time.Duration) (*asynq.Task, []asynq.Option, error) {
	payload, err := json.Marshal(BookingExpirePayload{BookingID: bookingID})
	if err != nil {
		return nil, nil, err
	}
	opts := []asynq.Option{
		asynq.ProcessIn(expireAfter),
		asynq.TaskID(TypeBookingExpire + ":" + bookingID.String()),
		asynq.MaxRetry(5),
	}
	return asynq.NewTask(TypeBookingExpire, payload), opts, nil
}
