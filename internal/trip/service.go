package trip

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/raka-dev/backend-guru/internal/common"
	"github.com/raka-dev/backend-guru/internal/lineitem"
	"github.com/raka-dev/backend-guru/internal/listing"
	"github.com/raka-dev/backend-guru/internal/obs"
	"github.com/raka-dev/backend-guru/internal/pricing"
	"github.com/raka-dev/backend-guru/internal/tasks"
)

// ListingProvider supplies the listings a booking is priced against.
type ListingProvider interface {
	GetByID(ctx context.Context, id uuid.UUID) (listing.Listing, error)
}

// Service runs the booking lifecycle: price, persist, accept, cancel, expire.
type Service struct {
	repo        Repository
	listings    ListingProvider
	engine      pricing.Engine
	taskClient  *asynq.Client
	expireAfter time.Duration
	logger      *zerolog.Logger
}

// ServiceConfig groups Service dependencies. TaskClient may be nil; expiry is
// then left to an external sweep.
type ServiceConfig struct {
	Repo        Repository
	Listings    ListingProvider
	Engine      pricing.Engine
	TaskClient  *asynq.Client
	ExpireAfter time.Duration
	Logger      *zerolog.Logger
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Repo == nil {
		return nil, errors.New("trip: repository is required")
	}
	if cfg.Listings == nil {
		return nil, errors.New("trip: listing provider is required")
	}
	expireAfter := cfg.ExpireAfter
	if expireAfter <= 0 {
		expireAfter = 30 * time.Minute
	}
	return &Service{
		repo:        cfg.Repo,
		listings:    cfg.Listings,
		engine:      cfg.Engine,
		taskClient:  cfg.TaskClient,
		expireAfter: expireAfter,
		logger:      cfg.Logger,
	}, nil
}

// Create prices and persists a new booking in PENDING_PAYMENT, then schedules
// its expiry.
func (s *Service) Create(ctx context.Context, in Input) (Booking, error) {
	listingID, err := uuid.Parse(in.ListingID)
	if err != nil {
		return Booking{}, &common.AppError{
			Code:       "VALIDATION_ERROR",
			Message:    "invalid listing id",
			HTTPStatus: http.StatusBadRequest,
			Err:        err,
		}
	}
	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		countCreated("listing_missing")
		return Booking{}, err
	}
	if l.State != listing.StatePublished {
		countCreated("not_bookable")
		return Booking{}, &common.AppError{
			Code:       "LISTING_NOT_BOOKABLE",
			Message:    "listing is not published",
			HTTPStatus: http.StatusUnprocessableEntity,
		}
	}

	req, start, end, err := buildRequest(in)
	if err != nil {
		countCreated("invalid_input")
		return Booking{}, err
	}
	items, err := s.engine.Quote(listing.PricingView(l), req)
	if err != nil {
		countCreated("pricing_failed")
		return Booking{}, pricing.AsAppError(err)
	}
	payin, err := lineitem.TotalFor(items, lineitem.RoleCustomer)
	if err != nil {
		return Booking{}, pricing.AsAppError(err)
	}
	payout, err := lineitem.TotalFor(items, lineitem.RoleProvider)
	if err != nil {
		return Booking{}, pricing.AsAppError(err)
	}

	expiresAt := time.Now().UTC().Add(s.expireAfter)
	b := Booking{
		ID:           uuid.New(),
		ListingID:    listingID,
		Status:       StatusPendingPayment,
		StartDate:    start,
		EndDate:      end,
		SessionHours: in.SessionHours,
		Units:        in.Units,
		LineItems:    items,
		PayinTotal:   payin,
		PayoutTotal:  payout,
		ExpiresAt:    &expiresAt,
	}
	created, err := s.repo.Create(ctx, b)
	if err != nil {
		countCreated("error")
		return Booking{}, fmt.Errorf("create booking: %w", err)
	}
	s.scheduleExpiry(ctx, created.ID)
	countCreated("ok")
	return created, nil
}

// Accept moves a pending booking to ACCEPTED.
func (s *Service) Accept(ctx context.Context, id uuid.UUID) (Booking, error) {
	b, err := s.repo.Transition(ctx, id, []string{StatusPendingPayment}, StatusAccepted, nil)
	if err != nil {
		return Booking{}, wrapTransitionErr(err)
	}
	return b, nil
}

// Cancel cancels a pending or accepted booking. An accepted booking gets a
// refund breakdown appended so both party totals settle to zero.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (Booking, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Booking{}, wrapTransitionErr(err)
	}

	var update *BreakdownUpdate
	refunded := "false"
	if current.Status == StatusAccepted {
		combined, err := s.engine.Refund(current.LineItems)
		if err != nil {
			return Booking{}, pricing.AsAppError(err)
		}
		payin, err := lineitem.TotalFor(combined, lineitem.RoleCustomer)
		if err != nil {
			return Booking{}, pricing.AsAppError(err)
		}
		payout, err := lineitem.TotalFor(combined, lineitem.RoleProvider)
		if err != nil {
			return Booking{}, pricing.AsAppError(err)
		}
		update = &BreakdownUpdate{LineItems: combined, PayinTotal: payin, PayoutTotal: payout}
		refunded = "true"
	}

	b, err := s.repo.Transition(ctx, id, []string{StatusPendingPayment, StatusAccepted}, StatusCancelled, update)
	if err != nil {
		return Booking{}, wrapTransitionErr(err)
	}
	if obs.BookingCancelledTotal != nil {
		obs.BookingCancelledTotal.WithLabelValues(refunded).Inc()
	}
	return b, nil
}

// Expire moves a still-pending booking to EXPIRED. Bookings that were
// accepted or cancelled in the meantime are left alone.
func (s *Service) Expire(ctx context.Context, id uuid.UUID) error {
	_, err := s.repo.Transition(ctx, id, []string{StatusPendingPayment}, StatusExpired, nil)
	if err != nil {
		if errors.Is(err, ErrStatusConflict) || errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if obs.BookingExpiredTotal != nil {
		obs.BookingExpiredTotal.Inc()
	}
	return nil
}

// Get returns one booking.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Booking{}, wrapTransitionErr(err)
	}
	return b, nil
}

// ListByListing returns the most recent bookings of a listing.
func (s *Service) ListByListing(ctx context.Context, listingID uuid.UUID, limit int) ([]Booking, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByListing(ctx, listingID, limit)
}

func (s *Service) scheduleExpiry(ctx context.Context, id uuid.UUID) {
	if s.taskClient == nil {
		return
	}
	task, opts, err := tasks.NewBookingExpireTask(id, s.expireAfter)
	if err == nil {
		_, err = s.taskClient.EnqueueContext(ctx, task, opts...)
	}
	if err != nil && s.logger != nil {
		s.logger.Error().Err(err).Str("booking_id", id.String()).Msg("enqueue booking expiry")
	}
}

func buildRequest(in Input) (pricing.Request, *time.Time, *time.Time, error) {
	req := pricing.Request{SessionHours: in.SessionHours, Units: in.Units}
	var start, end *time.Time
	if in.StartDate != "" || in.EndDate != "" {
		s, err := parseDate(in.StartDate, "startDate")
		if err != nil {
			return req, nil, nil, err
		}
		e, err := parseDate(in.EndDate, "endDate")
		if err != nil {
			return req, nil, nil, err
		}
		req.StartDate, req.EndDate = s, e
		start, end = &s, &e
	}
	return req, start, end, nil
}

func parseDate(value, field string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		return time.Time{}, &common.AppError{
			Code:       "VALIDATION_ERROR",
			Message:    field + " must be a YYYY-MM-DD date",
			HTTPStatus: http.StatusBadRequest,
			Err:        err,
		}
	}
	return t, nil
}

func wrapTransitionErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return &common.AppError{
			Code:       "NOT_FOUND",
			Message:    "booking not found",
			HTTPStatus: http.StatusNotFound,
			Err:        err,
		}
	case errors.Is(err, ErrStatusConflict):
		return &common.AppError{
			Code:       "STATUS_CONFLICT",
			Message:    "booking is not in a state that allows this transition",
			HTTPStatus: http.StatusConflict,
			Err:        err,
		}
	default:
		return err
	}
}

func countCreated(result string) {
	if obs.BookingCreatedTotal != nil {
		obs.BookingCreatedTotal.WithLabelValues(result).Inc()
	}
}
