package trip

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/raka-dev/backend-guru/internal/tasks"
)

// NewExpireHandler adapts the booking expiry service call to an asynq handler.
func NewExpireHandler(svc *Service, logger *zerolog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload tasks.BookingExpirePayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			// A payload that never parses will never parse; don't retry.
			return fmt.Errorf("unmarshal booking expire payload: %v: %w", err, asynq.SkipRetry)
		}
		if err := svc.Expire(ctx, payload.BookingID); err != nil {
			if logger != nil {
				logger.Error().Err(err).Str("booking_id", payload.BookingID.String()).Msg("expire booking")
			}
			return err
		}
		if logger != nil {
			logger.Info().Str("booking_id", payload.BookingID.String()).Msg("booking expiry processed")
		}
		return nil
	}
}
