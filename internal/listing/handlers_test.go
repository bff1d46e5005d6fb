package listing_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/raka-dev/backend-guru/internal/listing"
)

type listResponse struct {
	Data       []listing.Listing `json:"data"`
	Pagination struct {
		Page       int `json:"page"`
		PerPage    int `json:"per_page"`
		TotalItems int `json:"total_items"`
	} `json:"pagination"`
}

type detailResponse struct {
	Data listing.Listing `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestListingHandlers(t *testing.T) {
	repo := newFakeRepo()
	svc, err := listing.NewService(listing.ServiceConfig{
		Repo:         repo,
		Currency:     "USD",
		DefaultLimit: 20,
		MaxLimit:     100,
	})
	require.NoError(t, err)

	handler := listing.NewHandler(listing.HandlerConfig{Service: svc})

	var created listing.Listing

	t.Run("create draft", func(t *testing.T) {
		body := `{
			"title": "Beginner Cello Lessons",
			"description": "One-on-one lessons for absolute beginners.",
			"teachingType": "online",
			"subjects": ["cello"],
			"levels": ["beginner"],
			"priceAmount": 2000,
			"currency": "USD",
			"sessionHours": 1
		}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.Create(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp detailResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		created = resp.Data
		require.Equal(t, "Beginner Cello Lessons", created.Title)
		require.Equal(t, listing.StateDraft, created.State)
		require.True(t, strings.HasPrefix(created.Slug, "beginner-cello-lessons-"))
		require.Equal(t, int64(2000), created.UnitPrice.Amount)
		require.Equal(t, "USD", created.UnitPrice.Currency)
	})

	t.Run("create rejects bad input", func(t *testing.T) {
		body := `{"title": "", "priceAmount": 2000, "currency": "usd"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.Create(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	})

	t.Run("create rejects foreign currency", func(t *testing.T) {
		body := `{
			"title": "Cello Lessons in Euros",
			"teachingType": "online",
			"priceAmount": 2000,
			"currency": "EUR",
			"sessionHours": 1
		}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.Create(rec, req)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "CURRENCY_MISMATCH", resp.Error.Code)
	})

	t.Run("publish", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/"+created.ID.String()+"/state",
			strings.NewReader(`{"state":"published"}`))
		rec := httptest.NewRecorder()
		handler.SetState(rec, withURLParam(req, "id", created.ID.String()))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp detailResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, listing.StatePublished, resp.Data.State)
	})

	t.Run("publish rejects unknown state", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/"+created.ID.String()+"/state",
			strings.NewReader(`{"state":"archived"}`))
		rec := httptest.NewRecorder()
		handler.SetState(rec, withURLParam(req, "id", created.ID.String()))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list published", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/listings?subject=cello", nil)
		rec := httptest.NewRecorder()
		handler.List(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "1", rec.Header().Get("X-Total-Count"))

		var resp listResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		require.Equal(t, created.ID, resp.Data[0].ID)
		require.Equal(t, 1, resp.Pagination.Page)
		require.Equal(t, 1, resp.Pagination.TotalItems)
	})

	t.Run("list clamps pagination params", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/listings?page=0&limit=500", nil)
		rec := httptest.NewRecorder()
		handler.List(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp listResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, 1, resp.Pagination.Page)
		require.Equal(t, 100, resp.Pagination.PerPage)
	})

	t.Run("detail by slug", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/"+created.Slug, nil)
		rec := httptest.NewRecorder()
		handler.Detail(rec, withURLParam(req, "slug", created.Slug))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp detailResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, created.ID, resp.Data.ID)
	})

	t.Run("detail unknown slug", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/no-such-listing", nil)
		rec := httptest.NewRecorder()
		handler.Detail(rec, withURLParam(req, "slug", "no-such-listing"))
		require.Equal(t, http.StatusNotFound, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "NOT_FOUND", resp.Error.Code)
	})

	t.Run("update price", func(t *testing.T) {
		body := `{
			"title": "Beginner Cello Lessons",
			"teachingType": "online",
			"priceAmount": 2500,
			"currency": "USD",
			"sessionHours": 1
		}`
		req := httptest.NewRequest(http.MethodPut, "/api/v1/listings/"+created.ID.String(), strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.Update(rec, withURLParam(req, "id", created.ID.String()))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp detailResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, int64(2500), resp.Data.UnitPrice.Amount)
		require.Equal(t, created.Slug, resp.Data.Slug, "slug must survive updates")
	})
}

func TestListingDetailCaching(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newFakeRepo()
	svc, err := listing.NewService(listing.ServiceConfig{
		Repo:         repo,
		Cache:        listing.NewCache(client, time.Minute),
		DefaultLimit: 20,
		MaxLimit:     100,
	})
	require.NoError(t, err)

	in := listing.Input{
		Title:       "Jazz Piano Coaching",
		PriceAmount: 4500,
		Currency:    "USD",
	}
	created, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	first, err := svc.GetBySlug(context.Background(), created.Slug)
	require.NoError(t, err)
	require.Equal(t, created.ID, first.ID)

	// Second read must come from the cache, not the repository.
	repo.fail = true
	second, err := svc.GetBySlug(context.Background(), created.Slug)
	require.NoError(t, err)
	require.Equal(t, created.ID, second.ID)
	repo.fail = false

	// Writes drop the cached detail.
	in.PriceAmount = 5000
	_, err = svc.Update(context.Background(), created.ID, in)
	require.NoError(t, err)

	refreshed, err := svc.GetBySlug(context.Background(), created.Slug)
	require.NoError(t, err)
	require.Equal(t, int64(5000), refreshed.UnitPrice.Amount)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

type fakeRepo struct {
	byID map[uuid.UUID]listing.Listing
	ids  []uuid.UUID
	fail bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[uuid.UUID]listing.Listing{}}
}

func (f *fakeRepo) Create(_ context.Context, l listing.Listing) (listing.Listing, error) {
	if f.fail {
		return listing.Listing{}, context.DeadlineExceeded
	}
	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	f.byID[l.ID] = l
	f.ids = append(f.ids, l.ID)
	return l, nil
}

func (f *fakeRepo) Update(_ context.Context, l listing.Listing) (listing.Listing, error) {
	if f.fail {
		return listing.Listing{}, context.DeadlineExceeded
	}
	current, ok := f.byID[l.ID]
	if !ok {
		return listing.Listing{}, listing.ErrNotFound
	}
	l.Slug = current.Slug
	l.CreatedAt = current.CreatedAt
	l.UpdatedAt = time.Now()
	f.byID[l.ID] = l
	return l, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (listing.Listing, error) {
	if f.fail {
		return listing.Listing{}, context.DeadlineExceeded
	}
	l, ok := f.byID[id]
	if !ok {
		return listing.Listing{}, listing.ErrNotFound
	}
	return l, nil
}

func (f *fakeRepo) GetBySlug(_ context.Context, slug string) (listing.Listing, error) {
	if f.fail {
		return listing.Listing{}, context.DeadlineExceeded
	}
	for _, l := range f.byID {
		if l.Slug == slug {
			return l, nil
		}
	}
	return listing.Listing{}, listing.ErrNotFound
}

func (f *fakeRepo) List(_ context.Context, params listing.ListParams) ([]listing.Listing, int64, error) {
	if f.fail {
		return nil, 0, context.DeadlineExceeded
	}
	matched := make([]listing.Listing, 0, len(f.ids))
	for _, id := range f.ids {
		l := f.byID[id]
		if params.State != "" && l.State != params.State {
			continue
		}
		if params.TeachingType != "" && l.TeachingType != params.TeachingType {
			continue
		}
		if params.Subject != "" && !contains(l.Subjects, params.Subject) {
			continue
		}
		matched = append(matched, l)
	}
	total := int64(len(matched))
	start := (params.Page - 1) * params.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
