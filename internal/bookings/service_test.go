package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborstay/harborstay/internal/listings"
	"github.com/harborstay/harborstay/internal/policy"
	"github.com/harborstay/harborstay/internal/shared"
	_ "github.com/harborstay/harborstay/internal/testing/guard"
)

type mockListingRepo struct {
	listings map[int64]*listings.Listing
}

func (m *mockListingRepo) Get(ctx context.Context, id int64) (*listings.Listing, error) {
	l, ok := m.listings[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *l
	return &copied, nil
}

func (m *mockListingRepo) ListActive(ctx context.Context, limit, offset int) ([]listings.Listing, int, error) {
	return nil, 0, nil
}

func (m *mockListingRepo) ListByOwner(ctx context.Context, ownerID int64) ([]listings.Listing, error) {
	return nil, nil
}

func (m *mockListingRepo) Create(ctx context.Context, l listings.Listing) (*listings.Listing, error) {
	return nil, errors.New("not implemented")
}

func (m *mockListingRepo) Update(ctx context.Context, id int64, updates map[string]any) error {
	return errors.New("not implemented")
}

func (m *mockListingRepo) SetActive(ctx context.Context, id int64, active bool) error {
	return errors.New("not implemented")
}

type mockRepo struct {
	bookings map[int64]*Booking
	details  map[int64]*BookingWithDetails
	nextID   int64

	// loseRace forces the conditional update to report zero rows.
	loseRace bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		bookings: make(map[int64]*Booking),
		details:  make(map[int64]*BookingWithDetails),
		nextID:   1,
	}
}

func (m *mockRepo) Get(ctx context.Context, id int64) (*Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *mockRepo) GetWithDetails(ctx context.Context, id int64) (*BookingWithDetails, error) {
	d, ok := m.details[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *d
	copied.Booking = *m.bookings[id]
	return &copied, nil
}

func (m *mockRepo) Create(ctx context.Context, b Booking) (*Booking, error) {
	b.ID = m.nextID
	m.nextID++
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	m.bookings[b.ID] = &b
	copied := b
	return &copied, nil
}

func (m *mockRepo) ListByRequester(ctx context.Context, userID int64) ([]Booking, error) {
	var result []Booking
	for _, b := range m.bookings {
		if b.UserID == userID {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (m *mockRepo) ListForOwner(ctx context.Context, ownerID int64) ([]BookingWithDetails, error) {
	var result []BookingWithDetails
	for id, d := range m.details {
		if d.ListingOwnerID == ownerID {
			copied := *d
			copied.Booking = *m.bookings[id]
			result = append(result, copied)
		}
	}
	return result, nil
}

func (m *mockRepo) ListAll(ctx context.Context) ([]BookingWithDetails, error) {
	var result []BookingWithDetails
	for id, d := range m.details {
		copied := *d
		copied.Booking = *m.bookings[id]
		result = append(result, copied)
	}
	return result, nil
}

func (m *mockRepo) CountByStatusForOwner(ctx context.Context, ownerID int64, all bool) (map[BookingStatus]int, error) {
	counts := make(map[BookingStatus]int)
	for id, d := range m.details {
		if all || d.ListingOwnerID == ownerID {
			counts[m.bookings[id].Status]++
		}
	}
	return counts, nil
}

func (m *mockRepo) UpdateStatusIfPending(ctx context.Context, id int64, status BookingStatus, adminNotes *string) (bool, error) {
	if m.loseRace {
		return false, nil
	}
	b, ok := m.bookings[id]
	if !ok || b.Status != StatusPending {
		return false, nil
	}
	b.Status = status
	if adminNotes != nil {
		b.AdminNotes = adminNotes
	}
	b.UpdatedAt = time.Now()
	return true, nil
}

// seedBooking installs a pending booking plus its detail row.
func (m *mockRepo) seedBooking(requesterID, listingOwnerID int64, status BookingStatus) int64 {
	id := m.nextID
	m.nextID++
	m.bookings[id] = &Booking{
		ID: id, UserID: requesterID, ListingID: 1,
		Guests: 2, TotalPrice: 200, Status: status,
	}
	m.details[id] = &BookingWithDetails{
		ListingTitle:   "Seaside Hotel",
		ListingType:    listings.TypeHotel,
		ListingOwnerID: listingOwnerID,
		RequesterName:  "Ada",
		RequesterEmail: "ada@example.com",
	}
	return id
}

type mockNotifier struct {
	notices []DecisionNotice
	err     error
}

func (m *mockNotifier) BookingDecided(ctx context.Context, notice DecisionNotice) error {
	if m.err != nil {
		return m.err
	}
	m.notices = append(m.notices, notice)
	return nil
}

type mockAuditor struct {
	logs []shared.AuditLog
}

func (m *mockAuditor) Record(ctx context.Context, log shared.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func activeListing(ownerID int64, price float64, maxGuests int32) *listings.Listing {
	return &listings.Listing{
		ID: 1, OwnerID: ownerID, Type: listings.TypeHotel,
		Title: "Seaside Hotel", Price: price, Location: "Coast",
		MaxGuests: &maxGuests, IsActive: true,
	}
}

var (
	requester = policy.Principal{UserID: 3, Role: policy.RoleUser}
	owner     = policy.Principal{UserID: 4, Role: policy.RoleSubadmin}
	admin     = policy.Principal{UserID: 5, Role: policy.RoleAdmin}
)

func day(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestSubmitComputesTotalPrice(t *testing.T) {
	repo := newMockRepo()
	listingRepo := &mockListingRepo{listings: map[int64]*listings.Listing{1: activeListing(4, 100, 4)}}
	svc := NewService(repo, listingRepo, policy.NewEngine(), nil, nil, nil)

	created, err := svc.Submit(context.Background(), requester, SubmitBookingRequest{
		ListingID: 1, CheckIn: day(1), CheckOut: day(3), Guests: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 200.0, created.TotalPrice)
	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, requester.UserID, created.UserID)
}

func TestSubmitSameDayIsFree(t *testing.T) {
	repo := newMockRepo()
	listingRepo := &mockListingRepo{listings: map[int64]*listings.Listing{1: activeListing(4, 100, 4)}}
	svc := NewService(repo, listingRepo, policy.NewEngine(), nil, nil, nil)

	created, err := svc.Submit(context.Background(), requester, SubmitBookingRequest{
		ListingID: 1, CheckIn: day(1), CheckOut: day(1), Guests: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, created.TotalPrice)
}

func TestSubmitRejectsInvertedDates(t *testing.T) {
	repo := newMockRepo()
	listingRepo := &mockListingRepo{listings: map[int64]*listings.Listing{1: activeListing(4, 100, 4)}}
	svc := NewService(repo, listingRepo, policy.NewEngine(), nil, nil, nil)

	_, err := svc.Submit(context.Background(), requester, SubmitBookingRequest{
		ListingID: 1, CheckIn: day(5), CheckOut: day(2), Guests: 1,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
	assert.Empty(t, repo.bookings)
}

func TestSubmitRejectsTooManyGuests(t *testing.T) {
	repo := newMockRepo()
	listingRepo := &mockListingRepo{listings: map[int64]*listings.Listing{1: activeListing(4, 100, 2)}}
	svc := NewService(repo, listingRepo, policy.NewEngine(), nil, nil, nil)

	_, err := svc.Submit(context.Background(), requester, SubmitBookingRequest{
		ListingID: 1, CheckIn: day(1), CheckOut: day(3), Guests: 3,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
	assert.Empty(t, repo.bookings)
}

func TestSubmitHidesInactiveListing(t *testing.T) {
	inactive := activeListing(4, 100, 4)
	inactive.IsActive = false
	listingRepo := &mockListingRepo{listings: map[int64]*listings.Listing{1: inactive}}
	svc := NewService(newMockRepo(), listingRepo, policy.NewEngine(), nil, nil, nil)

	_, err := svc.Submit(context.Background(), requester, SubmitBookingRequest{
		ListingID: 1, CheckIn: day(1), CheckOut: day(3), Guests: 1,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestDecideAcceptsPending(t *testing.T) {
	repo := newMockRepo()
	id := repo.seedBooking(requester.UserID, owner.UserID, StatusPending)
	notifier := &mockNotifier{}
	audit := &mockAuditor{}
	svc := NewService(repo, &mockListingRepo{}, policy.NewEngine(), notifier, audit, nil)

	notes := "welcome"
	decided, err := svc.Decide(context.Background(), owner, id, DecideBookingRequest{Status: "accepted", AdminNotes: &notes})
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, decided.Status)
	require.NotNil(t, decided.AdminNotes)
	assert.Equal(t, "welcome", *decided.AdminNotes)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, "booking.decide", audit.logs[0].Action)

	require.Len(t, notifier.notices, 1)
	assert.Equal(t, StatusAccepted, notifier.notices[0].Status)
	assert.Equal(t, "ada@example.com", notifier.notices[0].RequesterEmail)
}

func TestDecideDeniedForRequester(t *testing.T) {
	repo := newMockRepo()
	id := repo.seedBooking(requester.UserID, owner.UserID, StatusPending)
	svc := NewService(repo, &mockListingRepo{}, policy.NewEngine(), nil, nil, nil)

	_, err := svc.Decide(context.Background(), requester, id, DecideBookingRequest{Status: "rejected"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrPermissionDenied))
	assert.Equal(t, StatusPending, repo.bookings[id].Status)
}

func TestDecideTerminalBooking(t *testing.T) {
	repo := newMockRepo()
	id := repo.seedBooking(requester.UserID, owner.UserID, StatusAccepted)
	svc := NewService(repo, &mockListingRepo{}, policy.NewEngine(), nil, nil, nil)

	_, err := svc.Decide(context.Background(), owner, id, DecideBookingRequest{Status: "rejected"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
}

func TestDecideLostRaceIsConflict(t *testing.T) {
	repo := newMockRepo()
	id := repo.seedBooking(requester.UserID, owner.UserID, StatusPending)
	repo.loseRace = true
	svc := NewService(repo, &mockListingRepo{}, policy.NewEngine(), nil, nil, nil)

	_, err := svc.Decide(context.Background(), owner, id, DecideBookingRequest{Status: "accepted"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConflict))
}

func TestDecideNotifierFailureDoesNotUndoDecision(t *testing.T) {
	repo := newMockRepo()
	id := repo.seedBooking(requester.UserID, owner.UserID, StatusPending)
	notifier := &mockNotifier{err: errors.New("queue down")}
	svc := NewService(repo, &mockListingRepo{}, policy.NewEngine(), notifier, nil, nil)

	decided, err := svc.Decide(context.Background(), admin, id, DecideBookingRequest{Status: "rejected"})
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, decided.Status)
}

func TestGetVisibility(t *testing.T) {
	repo := newMockRepo()
	id := repo.seedBooking(requester.UserID, owner.UserID, StatusPending)
	svc := NewService(repo, &mockListingRepo{}, policy.NewEngine(), nil, nil, nil)

	for _, p := range []policy.Principal{requester, owner, admin} {
		got, err := svc.Get(context.Background(), p, id)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
	}

	stranger := policy.Principal{UserID: 99, Role: policy.RoleUser}
	_, err := svc.Get(context.Background(), stranger, id)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestOwnerDashboard(t *testing.T) {
	repo := newMockRepo()
	repo.seedBooking(requester.UserID, owner.UserID, StatusPending)
	otherOwner := int64(77)
	repo.seedBooking(requester.UserID, otherOwner, StatusAccepted)
	svc := NewService(repo, &mockListingRepo{}, policy.NewEngine(), nil, nil, nil)

	// A principal who owns no listings gets an empty dashboard, not a
	// denial: the scope is their (empty) inventory.
	reqView, err := svc.OwnerDashboard(context.Background(), requester)
	require.NoError(t, err)
	assert.Empty(t, reqView.Bookings)
	assert.Empty(t, reqView.Counts)

	ownerView, err := svc.OwnerDashboard(context.Background(), owner)
	require.NoError(t, err)
	assert.Len(t, ownerView.Bookings, 1)
	assert.Equal(t, 1, ownerView.Counts[StatusPending])
	assert.Zero(t, ownerView.Counts[StatusAccepted])

	adminView, err := svc.OwnerDashboard(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, adminView.Bookings, 2)
	assert.Equal(t, 1, adminView.Counts[StatusAccepted])
}

func TestOwnerDashboardKeysOnOwnershipNotRole(t *testing.T) {
	repo := newMockRepo()
	repo.seedBooking(requester.UserID, owner.UserID, StatusPending)
	svc := NewService(repo, &mockListingRepo{}, policy.NewEngine(), nil, nil, nil)

	// An owner whose role was demoted to plain user still sees the
	// bookings on listings they own.
	demoted := policy.Principal{UserID: owner.UserID, Role: policy.RoleUser}
	view, err := svc.OwnerDashboard(context.Background(), demoted)
	require.NoError(t, err)
	require.Len(t, view.Bookings, 1)
	assert.Equal(t, owner.UserID, view.Bookings[0].ListingOwnerID)
	assert.Equal(t, 1, view.Counts[StatusPending])

	// Conversely a subadmin role grants no visibility into listings
	// someone else owns.
	otherSubadmin := policy.Principal{UserID: 66, Role: policy.RoleSubadmin}
	view, err = svc.OwnerDashboard(context.Background(), otherSubadmin)
	require.NoError(t, err)
	assert.Empty(t, view.Bookings)
	assert.Empty(t, view.Counts)
}

func TestDateDiffRoundsPartialDaysUp(t *testing.T) {
	checkIn := time.Date(2025, 1, 1, 15, 0, 0, 0, time.UTC)
	checkOut := time.Date(2025, 1, 3, 11, 0, 0, 0, time.UTC)
	assert.Equal(t, 2, dateDiffInDays(checkIn, checkOut))

	assert.Equal(t, 0, dateDiffInDays(day(1), day(1)))
	assert.Equal(t, -2, dateDiffInDays(day(3), day(1)))
}
