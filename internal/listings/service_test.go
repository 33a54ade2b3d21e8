package listings

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborstay/harborstay/internal/policy"
	"github.com/harborstay/harborstay/internal/shared"
	_ "github.com/harborstay/harborstay/internal/testing/guard"
)

type mockRepo struct {
	listings map[int64]*Listing
	nextID   int64

	createErr error
	updateErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{listings: make(map[int64]*Listing), nextID: 1}
}

func (m *mockRepo) Get(ctx context.Context, id int64) (*Listing, error) {
	l, ok := m.listings[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *l
	return &copied, nil
}

func (m *mockRepo) ListActive(ctx context.Context, limit, offset int) ([]Listing, int, error) {
	var active []Listing
	for _, l := range m.listings {
		if l.IsActive {
			active = append(active, *l)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID > active[j].ID })
	total := len(active)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return active[offset:end], total, nil
}

func (m *mockRepo) ListByOwner(ctx context.Context, ownerID int64) ([]Listing, error) {
	var result []Listing
	for _, l := range m.listings {
		if l.OwnerID == ownerID {
			result = append(result, *l)
		}
	}
	return result, nil
}

func (m *mockRepo) Create(ctx context.Context, l Listing) (*Listing, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	l.ID = m.nextID
	m.nextID++
	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	m.listings[l.ID] = &l
	copied := l
	return &copied, nil
}

func (m *mockRepo) Update(ctx context.Context, id int64, updates map[string]any) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	l, ok := m.listings[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v, ok := updates["title"]; ok {
		l.Title = v.(string)
	}
	if v, ok := updates["price"]; ok {
		l.Price = v.(float64)
	}
	if v, ok := updates["location"]; ok {
		l.Location = v.(string)
	}
	l.UpdatedAt = time.Now()
	return nil
}

func (m *mockRepo) SetActive(ctx context.Context, id int64, active bool) error {
	l, ok := m.listings[id]
	if !ok {
		return shared.ErrNotFound
	}
	l.IsActive = active
	return nil
}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewService(repo, policy.NewEngine(), NewCache(client, time.Minute), nil)
}

var (
	subadmin = policy.Principal{UserID: 7, Role: policy.RoleSubadmin}
	admin    = policy.Principal{UserID: 1, Role: policy.RoleAdmin}
	plain    = policy.Principal{UserID: 8, Role: policy.RoleUser}
)

func TestCreateDeniedForUserRole(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(t, repo)

	_, err := svc.Create(context.Background(), plain, CreateListingRequest{
		Type: "hotel", Title: "Seaside", Price: 100, Location: "Coast",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrPermissionDenied))
	assert.Empty(t, repo.listings)
}

func TestCreateSetsOwnerAndActive(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(t, repo)

	created, err := svc.Create(context.Background(), subadmin, CreateListingRequest{
		Type: "car", Title: "  City Car  ", Price: 45, Location: "Downtown",
	})
	require.NoError(t, err)
	assert.Equal(t, subadmin.UserID, created.OwnerID)
	assert.Equal(t, TypeCar, created.Type)
	assert.Equal(t, "City Car", created.Title)
	assert.True(t, created.IsActive)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc := newTestService(t, newMockRepo())

	_, err := svc.Create(context.Background(), subadmin, CreateListingRequest{
		Type: "yacht", Title: "Boat", Price: 100, Location: "Marina",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	_, err = svc.Create(context.Background(), subadmin, CreateListingRequest{
		Type: "hotel", Title: "Negative", Price: -1, Location: "Nowhere",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestCreateRejectsInvertedWindow(t *testing.T) {
	svc := newTestService(t, newMockRepo())

	from := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -5)
	_, err := svc.Create(context.Background(), subadmin, CreateListingRequest{
		Type: "hotel", Title: "Window", Price: 100, Location: "Coast",
		AvailableFrom: &from, AvailableTo: &to,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestGetInactiveListingHidden(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(t, repo)

	created, err := svc.Create(context.Background(), subadmin, CreateListingRequest{
		Type: "hotel", Title: "Hidden", Price: 80, Location: "Bay",
	})
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(context.Background(), subadmin, created.ID))

	// Stranger and anonymous reads report not-found, not forbidden.
	_, err = svc.Get(context.Background(), plain, created.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	_, err = svc.Get(context.Background(), policy.Principal{}, created.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	got, err := svc.Get(context.Background(), subadmin, created.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	_, err = svc.Get(context.Background(), admin, created.ID)
	require.NoError(t, err)
}

func TestCreateRoundTripsThroughFeed(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(t, repo)

	desc := "Two bedrooms overlooking the marina"
	img := "https://cdn.example.com/sea-view.jpg"
	guests := int32(4)
	from := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC)

	created, err := svc.Create(context.Background(), subadmin, CreateListingRequest{
		Type:          "hotel",
		Title:         "Sea View Suite",
		Description:   &desc,
		Price:         210.5,
		Location:      "Harbor Bay",
		ImageURL:      &img,
		Amenities:     []string{"wifi", "parking", "pool"},
		AvailableFrom: &from,
		AvailableTo:   &to,
		MaxGuests:     &guests,
	})
	require.NoError(t, err)

	// Every submitted field survives persistence and the cached feed.
	page, err := svc.ListActive(context.Background(), ListActiveRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.Len(t, page.Listings, 1)

	got := page.Listings[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, subadmin.UserID, got.OwnerID)
	assert.Equal(t, TypeHotel, got.Type)
	assert.Equal(t, "Sea View Suite", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, desc, *got.Description)
	assert.Equal(t, 210.5, got.Price)
	assert.Equal(t, "Harbor Bay", got.Location)
	require.NotNil(t, got.ImageURL)
	assert.Equal(t, img, *got.ImageURL)
	assert.Equal(t, []string{"wifi", "parking", "pool"}, got.Amenities)
	require.NotNil(t, got.AvailableFrom)
	assert.True(t, got.AvailableFrom.Equal(from))
	require.NotNil(t, got.AvailableTo)
	assert.True(t, got.AvailableTo.Equal(to))
	require.NotNil(t, got.MaxGuests)
	assert.Equal(t, guests, *got.MaxGuests)
	assert.True(t, got.IsActive)
}

func TestListActiveExcludesInactive(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(t, repo)

	first, err := svc.Create(context.Background(), subadmin, CreateListingRequest{
		Type: "hotel", Title: "One", Price: 10, Location: "A",
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), subadmin, CreateListingRequest{
		Type: "trip", Title: "Two", Price: 20, Location: "B",
	})
	require.NoError(t, err)

	page, err := svc.ListActive(context.Background(), ListActiveRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Len(t, page.Listings, 2)
	assert.Equal(t, 2, page.Pagination.Total)

	// Deactivation bumps the cache version, so the next read misses.
	require.NoError(t, svc.Deactivate(context.Background(), subadmin, first.ID))

	page, err = svc.ListActive(context.Background(), ListActiveRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Len(t, page.Listings, 1)
	assert.Equal(t, "Two", page.Listings[0].Title)
}

func TestListActiveClampsPaging(t *testing.T) {
	svc := newTestService(t, newMockRepo())

	page, err := svc.ListActive(context.Background(), ListActiveRequest{Page: -3, PerPage: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Pagination.Page)
	assert.Equal(t, 20, page.Pagination.PerPage)
	assert.Empty(t, page.Listings)
}

func TestUpdateOwnerOnly(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(t, repo)

	created, err := svc.Create(context.Background(), subadmin, CreateListingRequest{
		Type: "hotel", Title: "Original", Price: 100, Location: "Coast",
	})
	require.NoError(t, err)

	title := "Patched"
	stranger := policy.Principal{UserID: 99, Role: policy.RoleSubadmin}
	_, err = svc.Update(context.Background(), stranger, created.ID, UpdateListingRequest{Title: &title})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrPermissionDenied))

	price := 120.0
	updated, err := svc.Update(context.Background(), subadmin, created.ID, UpdateListingRequest{Title: &title, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Patched", updated.Title)
	assert.Equal(t, 120.0, updated.Price)
}

func TestUpdateValidatesMergedWindow(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(t, repo)

	from := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	created, err := svc.Create(context.Background(), subadmin, CreateListingRequest{
		Type: "hotel", Title: "Windowed", Price: 100, Location: "Coast",
		AvailableFrom: &from,
	})
	require.NoError(t, err)

	// New end date lies before the stored start date.
	to := from.AddDate(0, 0, -1)
	_, err = svc.Update(context.Background(), subadmin, created.ID, UpdateListingRequest{AvailableTo: &to})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestListForOwner(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(t, repo)

	_, err := svc.Create(context.Background(), subadmin, CreateListingRequest{
		Type: "hotel", Title: "Mine", Price: 10, Location: "A",
	})
	require.NoError(t, err)

	// Denial flows out of the policy engine's list rule, not an inline
	// ownership comparison.
	_, err = svc.ListForOwner(context.Background(), plain, subadmin.UserID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrPermissionDenied))
	assert.ErrorContains(t, err, "list listing")

	own, err := svc.ListForOwner(context.Background(), subadmin, subadmin.UserID)
	require.NoError(t, err)
	assert.Len(t, own, 1)

	viaAdmin, err := svc.ListForOwner(context.Background(), admin, subadmin.UserID)
	require.NoError(t, err)
	assert.Len(t, viaAdmin, 1)
}
