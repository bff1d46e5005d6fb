package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/raka-dev/backend-guru/internal/money"
)

// ErrNotFound is returned when no listing matches the lookup.
var ErrNotFound = errors.New("listing not found")

// Repository abstracts listing persistence so handlers can be tested against
// a fake.
type Repository interface {
	Create(ctx context.Context, l Listing) (Listing, error)
	Update(ctx context.Context, l Listing) (Listing, error)
	GetByID(ctx context.Context, id uuid.UUID) (Listing, error)
	GetBySlug(ctx context.Context, slug string) (Listing, error)
	List(ctx context.Context, params ListParams) ([]Listing, int64, error)
}

// PGRepo persists listings in Postgres.
type PGRepo struct {
	Pool *pgxpool.Pool
}

const listingColumns = `id, slug, title, description, teaching_type, subjects, levels, photos,
	price_amount, price_currency, session_hours, state, created_at, updated_at`

// Create inserts a listing and returns the stored row.
func (r PGRepo) Create(ctx context.Context, l Listing) (Listing, error) {
	row := r.Pool.QueryRow(ctx, `
		INSERT INTO listings (id, slug, title, description, teaching_type, subjects, levels, photos,
			price_amount, price_currency, session_hours, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+listingColumns,
		l.ID, l.Slug, l.Title, l.Description, l.TeachingType, l.Subjects, l.Levels, l.Photos,
		l.UnitPrice.Amount, l.UnitPrice.Currency, l.SessionHours, l.State,
	)
	return scanListing(row)
}

// Update rewrites the mutable listing fields.
func (r PGRepo) Update(ctx context.Context, l Listing) (Listing, error) {
	row := r.Pool.QueryRow(ctx, `
		UPDATE listings
		SET title = $2, description = $3, teaching_type = $4, subjects = $5, levels = $6,
			photos = $7, price_amount = $8, price_currency = $9, session_hours = $10,
			state = $11, updated_at = now()
		WHERE id = $1
		RETURNING `+listingColumns,
		l.ID, l.Title, l.Description, l.TeachingType, l.Subjects, l.Levels,
		l.Photos, l.UnitPrice.Amount, l.UnitPrice.Currency, l.SessionHours, l.State,
	)
	return scanListing(row)
}

// GetByID fetches one listing.
func (r PGRepo) GetByID(ctx context.Context, id uuid.UUID) (Listing, error) {
	row := r.Pool.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	return scanListing(row)
}

// GetBySlug fetches one listing by its public slug.
func (r PGRepo) GetBySlug(ctx context.Context, slug string) (Listing, error) {
	row := r.Pool.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE slug = $1`, slug)
	return scanListing(row)
}

// List returns a filtered page of listings plus the unpaginated count.
func (r PGRepo) List(ctx context.Context, params ListParams) ([]Listing, int64, error) {
	where := []string{"1=1"}
	args := []any{}
	if params.State != "" {
		args = append(args, params.State)
		where = append(where, fmt.Sprintf("state = $%d", len(args)))
	}
	if params.TeachingType != "" {
		args = append(args, params.TeachingType)
		where = append(where, fmt.Sprintf("teaching_type = $%d", len(args)))
	}
	if params.Subject != "" {
		args = append(args, params.Subject)
		where = append(where, fmt.Sprintf("$%d = ANY(subjects)", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.Pool.QueryRow(ctx, `SELECT count(*) FROM listings WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (params.Page - 1) * params.Limit
	args = append(args, params.Limit, offset)
	rows, err := r.Pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM listings WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		listingColumns, cond, len(args)-1, len(args),
	), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Listing, 0, params.Limit)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

func scanListing(row pgx.Row) (Listing, error) {
	var l Listing
	var amount int64
	var currency string
	err := row.Scan(
		&l.ID, &l.Slug, &l.Title, &l.Description, &l.TeachingType, &l.Subjects, &l.Levels,
		&l.Photos, &amount, &currency, &l.SessionHours, &l.State, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Listing{}, ErrNotFound
		}
		return Listing{}, err
	}
	l.UnitPrice = money.New(amount, currency)
	return l, nil
}
