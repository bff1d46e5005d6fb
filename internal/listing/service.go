package listing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/raka-dev/backend-guru/internal/common"
	"github.com/raka-dev/backend-guru/internal/money"
	"github.com/raka-dev/backend-guru/internal/obs"
	"github.com/raka-dev/backend-guru/internal/pricing"
)

// Service orchestrates listing persistence, caching, and state transitions.
type Service struct {
	repo         Repository
	cache        *Cache
	currency     string
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Repo  Repository
	Cache *Cache
	// Currency is the marketplace currency; listings priced in any other
	// currency are rejected. Empty disables the check.
	Currency     string
	DefaultLimit int
	MaxLimit     int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Repo == nil {
		return nil, errors.New("listing: repository is required")
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		repo:         cfg.Repo,
		cache:        cfg.Cache,
		currency:     strings.ToUpper(strings.TrimSpace(cfg.Currency)),
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

func (s *Service) checkCurrency(code string) error {
	if s.currency == "" || code == s.currency {
		return nil
	}
	return &common.AppError{
		Code:       "CURRENCY_MISMATCH",
		Message:    "listing currency does not match the marketplace currency",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"currency": code, "expected": s.currency},
	}
}

// Create stores a new draft listing built from the wizard input.
func (s *Service) Create(ctx context.Context, in Input) (Listing, error) {
	if err := s.checkCurrency(strings.ToUpper(in.Currency)); err != nil {
		return Listing{}, err
	}
	id := uuid.New()
	l := Listing{
		ID:           id,
		Slug:         slugify(in.Title) + "-" + id.String()[:8],
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		TeachingType: in.TeachingType,
		Subjects:     in.Subjects,
		Levels:       in.Levels,
		Photos:       in.Photos,
		UnitPrice:    money.New(in.PriceAmount, strings.ToUpper(in.Currency)),
		SessionHours: in.SessionHours,
		State:        StateDraft,
	}
	created, err := s.repo.Create(ctx, l)
	if err != nil {
		return Listing{}, fmt.Errorf("create listing: %w", err)
	}
	s.invalidateList(ctx)
	return created, nil
}

// Update rewrites an existing listing's wizard fields. The slug and state are
// not affected.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (Listing, error) {
	if err := s.checkCurrency(strings.ToUpper(in.Currency)); err != nil {
		return Listing{}, err
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Listing{}, wrapNotFound(err)
	}
	current.Title = strings.TrimSpace(in.Title)
	current.Description = strings.TrimSpace(in.Description)
	current.TeachingType = in.TeachingType
	current.Subjects = in.Subjects
	current.Levels = in.Levels
	current.Photos = in.Photos
	current.UnitPrice = money.New(in.PriceAmount, strings.ToUpper(in.Currency))
	current.SessionHours = in.SessionHours
	updated, err := s.repo.Update(ctx, current)
	if err != nil {
		return Listing{}, fmt.Errorf("update listing: %w", err)
	}
	s.invalidate(ctx, updated)
	return updated, nil
}

// SetState transitions a listing between draft, published, and closed.
func (s *Service) SetState(ctx context.Context, id uuid.UUID, state string) (Listing, error) {
	switch state {
	case StateDraft, StatePublished, StateClosed:
	default:
		return Listing{}, &common.AppError{
			Code:       "VALIDATION_ERROR",
			Message:    "unknown listing state",
			HTTPStatus: http.StatusBadRequest,
			Details:    map[string]any{"state": state},
		}
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Listing{}, wrapNotFound(err)
	}
	current.State = state
	updated, err := s.repo.Update(ctx, current)
	if err != nil {
		return Listing{}, fmt.Errorf("set listing state: %w", err)
	}
	s.invalidate(ctx, updated)
	return updated, nil
}

// GetBySlug returns one listing, cache-first.
func (s *Service) GetBySlug(ctx context.Context, slug string) (Listing, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return Listing{}, &common.AppError{
			Code:       "VALIDATION_ERROR",
			Message:    "slug is required",
			HTTPStatus: http.StatusBadRequest,
		}
	}
	key := detailCacheKey(slug)
	if s.cache != nil {
		var cached Listing
		ok, err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil && ok {
			countCacheLookup("hit")
			return cached, nil
		}
		countCacheLookup("miss")
	}
	l, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return Listing{}, wrapNotFound(err)
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, l)
	}
	return l, nil
}

// GetByID returns one listing without touching the cache.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (Listing, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Listing{}, wrapNotFound(err)
	}
	return l, nil
}

// ListResult contains list data and pagination metadata.
type ListResult struct {
	Items []Listing
	Total int64
	Page  int
	Limit int
}

// ParseListParams normalises raw query parameters into typed filters.
func (s *Service) ParseListParams(r *http.Request) ListParams {
	page, limit := common.ParsePagination(r, s.defaultLimit)
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	values := r.URL.Query()
	return ListParams{
		Subject:      strings.TrimSpace(values.Get("subject")),
		TeachingType: strings.TrimSpace(values.Get("teachingType")),
		State:        StatePublished,
		Page:         page,
		Limit:        limit,
	}
}

// List returns a filtered page of published listings.
func (s *Service) List(ctx context.Context, params ListParams) (ListResult, error) {
	key, useCache := s.listCacheKey(params)
	if useCache && s.cache != nil {
		var cached cachedList
		ok, err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil && ok {
			countCacheLookup("hit")
			return ListResult{Items: cached.Items, Total: cached.Total, Page: params.Page, Limit: params.Limit}, nil
		}
		countCacheLookup("miss")
	}
	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return ListResult{}, fmt.Errorf("list listings: %w", err)
	}
	if useCache && s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, cachedList{Items: items, Total: total})
	}
	return ListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}, nil
}

// PricingView adapts a listing record to the pricing engine's input shape.
func PricingView(l Listing) pricing.Listing {
	return pricing.Listing{UnitPrice: l.UnitPrice, SessionHours: l.SessionHours}
}

type cachedList struct {
	Items []Listing `json:"items"`
	Total int64     `json:"total"`
}

func (s *Service) listCacheKey(params ListParams) (string, bool) {
	if params.Page != 1 || params.Limit != s.defaultLimit {
		return "", false
	}
	if params.Subject != "" || params.TeachingType != "" || params.State != StatePublished {
		return "", false
	}
	return "listings:list:front", true
}

func detailCacheKey(slug string) string {
	return "listings:detail:" + slug
}

func (s *Service) invalidate(ctx context.Context, l Listing) {
	_ = s.cache.Delete(ctx, detailCacheKey(l.Slug), "listings:list:front")
}

func (s *Service) invalidateList(ctx context.Context) {
	_ = s.cache.Delete(ctx, "listings:list:front")
}

func wrapNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return &common.AppError{
			Code:       "NOT_FOUND",
			Message:    "listing not found",
			HTTPStatus: http.StatusNotFound,
			Err:        err,
		}
	}
	return err
}

func countCacheLookup(result string) {
	if obs.ListingCacheTotal != nil {
		obs.ListingCacheTotal.WithLabelValues(result).Inc()
	}
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
