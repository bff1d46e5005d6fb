package trip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/raka-dev/backend-guru/internal/lineitem"
	"github.com/raka-dev/backend-guru/internal/money"
)

// ErrNotFound is returned when no booking matches the lookup.
var ErrNotFound = errors.New("booking not found")

// ErrStatusConflict is returned when a transition is attempted from a status
// it is not allowed from.
var ErrStatusConflict = errors.New("booking status conflict")

// Repository abstracts booking persistence.
type Repository interface {
	Create(ctx context.Context, b Booking) (Booking, error)
	GetByID(ctx context.Context, id uuid.UUID) (Booking, error)
	ListByListing(ctx context.Context, listingID uuid.UUID, limit int) ([]Booking, error)
	// Transition moves a booking from one of the allowed statuses to next,
	// optionally replacing the breakdown and totals, under a row lock.
	Transition(ctx context.Context, id uuid.UUID, allowed []string, next string, update *BreakdownUpdate) (Booking, error)
}

// BreakdownUpdate replaces a booking's line items and totals during a
// transition.
type BreakdownUpdate struct {
	LineItems   lineitem.Collection
	PayinTotal  money.Money
	PayoutTotal money.Money
}

// PGRepo persists bookings in Postgres.
type PGRepo struct {
	Pool *pgxpool.Pool
}

const bookingColumns = `id, listing_id, status, start_date, end_date, session_hours, units,
	line_items, payin_amount, payout_amount, currency, created_at, updated_at, expires_at`

// Create inserts a booking and returns the stored row.
func (r PGRepo) Create(ctx context.Context, b Booking) (Booking, error) {
	items, err := json.Marshal(b.LineItems)
	if err != nil {
		return Booking{}, fmt.Errorf("marshal line items: %w", err)
	}
	row := r.Pool.QueryRow(ctx, `
		INSERT INTO bookings (id, listing_id, status, start_date, end_date, session_hours, units,
			line_items, payin_amount, payout_amount, currency, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+bookingColumns,
		b.ID, b.ListingID, b.Status, b.StartDate, b.EndDate, b.SessionHours, b.Units,
		items, b.PayinTotal.Amount, b.PayoutTotal.Amount, b.PayinTotal.Currency, b.ExpiresAt,
	)
	return scanBooking(row)
}

// GetByID fetches one booking.
func (r PGRepo) GetByID(ctx context.Context, id uuid.UUID) (Booking, error) {
	row := r.Pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	return scanBooking(row)
}

// ListByListing returns the most recent bookings of a listing.
func (r PGRepo) ListByListing(ctx context.Context, listingID uuid.UUID, limit int) ([]Booking, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE listing_id = $1 ORDER BY created_at DESC LIMIT $2`,
		listingID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Booking, 0, limit)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Transition locks the booking row, verifies the current status is one of
// allowed, and applies the new status plus optional breakdown rewrite. A
// status outside allowed yields ErrStatusConflict.
func (r PGRepo) Transition(ctx context.Context, id uuid.UUID, allowed []string, next string, update *BreakdownUpdate) (Booking, error) {
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Booking{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var current string
	err = tx.QueryRow(ctx, `SELECT status FROM bookings WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Booking{}, ErrNotFound
		}
		return Booking{}, err
	}
	if !statusIn(current, allowed) {
		return Booking{}, fmt.Errorf("%w: %s cannot become %s", ErrStatusConflict, current, next)
	}

	var row pgx.Row
	if update != nil {
		items, err := json.Marshal(update.LineItems)
		if err != nil {
			return Booking{}, fmt.Errorf("marshal line items: %w", err)
		}
		row = tx.QueryRow(ctx, `
			UPDATE bookings
			SET status = $2, line_items = $3, payin_amount = $4, payout_amount = $5, updated_at = now()
			WHERE id = $1
			RETURNING `+bookingColumns,
			id, next, items, update.PayinTotal.Amount, update.PayoutTotal.Amount,
		)
	} else {
		row = tx.QueryRow(ctx, `
			UPDATE bookings SET status = $2, updated_at = now() WHERE id = $1
			RETURNING `+bookingColumns,
			id, next,
		)
	}
	b, err := scanBooking(row)
	if err != nil {
		return Booking{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Booking{}, err
	}
	return b, nil
}

func statusIn(status string, allowed []string) bool {
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}

func scanBooking(row pgx.Row) (Booking, error) {
	var b Booking
	var items []byte
	var payin, payout int64
	var currency string
	err := row.Scan(
		&b.ID, &b.ListingID, &b.Status, &b.StartDate, &b.EndDate, &b.SessionHours, &b.Units,
		&items, &payin, &payout, &currency, &b.CreatedAt, &b.UpdatedAt, &b.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Booking{}, ErrNotFound
		}
		return Booking{}, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &b.LineItems); err != nil {
			return Booking{}, fmt.Errorf("unmarshal line items: %w", err)
		}
	}
	b.PayinTotal = money.New(payin, currency)
	b.PayoutTotal = money.New(payout, currency)
	return b, nil
}
