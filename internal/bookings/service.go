package bookings

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/harborstay/harborstay/internal/listings"
	"github.com/harborstay/harborstay/internal/policy"
	"github.com/harborstay/harborstay/internal/shared"
)

// DecisionNotice describes a decided booking for requester notification.
type DecisionNotice struct {
	BookingID      int64
	Status         BookingStatus
	ListingTitle   string
	RequesterName  string
	RequesterEmail string
	TotalPrice     float64
}

// Notifier delivers booking decision notifications. Delivery is best
// effort; failures must not roll back the decision.
type Notifier interface {
	BookingDecided(ctx context.Context, notice DecisionNotice) error
}

// Auditor records booking lifecycle actions.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Dashboard aggregates the owner/admin booking view.
type Dashboard struct {
	Bookings []BookingWithDetails  `json:"bookings"`
	Counts   map[BookingStatus]int `json:"counts"`
}

// Service drives the booking state machine under the access policy engine.
type Service struct {
	repo        Repository
	listingRepo listings.Repository
	engine      *policy.Engine
	notifier    Notifier
	audit       Auditor
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, listingRepo listings.Repository, engine *policy.Engine, notifier Notifier, audit Auditor, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		listingRepo: listingRepo,
		engine:      engine,
		notifier:    notifier,
		audit:       audit,
		validate:    validator.New(),
		logger:      logger,
	}
}

// Submit creates a booking request in the pending state. Nothing is
// persisted when any validation step fails.
func (s *Service) Submit(ctx context.Context, actor policy.Principal, req SubmitBookingRequest) (*Booking, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}

	listing, err := s.listingRepo.Get(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}
	// An inactive listing is reported exactly like an absent one.
	if !listing.IsActive {
		return nil, fmt.Errorf("%w: listing", shared.ErrNotFound)
	}

	if listing.MaxGuests != nil && req.Guests > *listing.MaxGuests {
		return nil, fmt.Errorf("%w: guests %d exceeds listing capacity %d", shared.ErrValidation, req.Guests, *listing.MaxGuests)
	}

	days := dateDiffInDays(req.CheckIn, req.CheckOut)
	if days < 0 {
		return nil, fmt.Errorf("%w: check_out before check_in", shared.ErrValidation)
	}

	booking := Booking{
		UserID:          actor.UserID,
		ListingID:       listing.ID,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		Guests:          req.Guests,
		TotalPrice:      float64(days) * listing.Price,
		Status:          StatusPending,
		SpecialRequests: req.SpecialRequests,
	}

	if err := s.engine.Authorize(actor, policy.KindBooking, policy.ActionCreate, policyResource(booking.UserID, listing.OwnerID)); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, booking)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	return created, nil
}

// Decide moves a pending booking to accepted or rejected. The transition is
// a single conditional update, so a lost race surfaces as a conflict rather
// than a silent double decision.
func (s *Service) Decide(ctx context.Context, actor policy.Principal, id int64, req DecideBookingRequest) (*Booking, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	newStatus := BookingStatus(req.Status)

	detail, err := s.repo.GetWithDetails(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Authorize(actor, policy.KindBooking, policy.ActionDecide, policyResource(detail.UserID, detail.ListingOwnerID)); err != nil {
		return nil, err
	}

	if detail.Status != StatusPending {
		return nil, fmt.Errorf("%w: booking is %s", shared.ErrInvalidTransition, detail.Status)
	}

	won, err := s.repo.UpdateStatusIfPending(ctx, id, newStatus, req.AdminNotes)
	if err != nil {
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	if !won {
		return nil, fmt.Errorf("%w: booking already decided", shared.ErrConflict)
	}

	s.recordAudit(ctx, actor, id, newStatus)
	s.notifyDecision(ctx, detail, newStatus)

	return s.repo.Get(ctx, id)
}

// Get returns a booking visible to the actor. A policy-denied read reports
// not-found.
func (s *Service) Get(ctx context.Context, actor policy.Principal, id int64) (*BookingWithDetails, error) {
	detail, err := s.repo.GetWithDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.engine.Allow(actor, policy.KindBooking, policy.ActionRead, policyResource(detail.UserID, detail.ListingOwnerID)) {
		return nil, shared.ErrNotFound
	}
	return detail, nil
}

// ListForRequester returns the actor's own booking requests, newest first.
func (s *Service) ListForRequester(ctx context.Context, actor policy.Principal) ([]Booking, error) {
	result, err := s.repo.ListByRequester(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []Booking{}
	}
	return result, nil
}

// OwnerDashboard returns bookings for the actor's listings joined with
// listing and requester details, plus status counts. Scope is keyed on
// listing ownership, not role: any authenticated principal sees the
// bookings on listings they own, and only admins see every booking.
// The two queries are independent and fetched concurrently.
func (s *Service) OwnerDashboard(ctx context.Context, actor policy.Principal) (*Dashboard, error) {
	// A zero-owner resource asks for the marketplace-wide sweep.
	all := s.engine.Allow(actor, policy.KindBooking, policy.ActionList, policy.BookingResource{})
	if !all {
		if err := s.engine.Authorize(actor, policy.KindBooking, policy.ActionList, policyResource(0, actor.UserID)); err != nil {
			return nil, err
		}
	}

	var (
		result []BookingWithDetails
		counts map[BookingStatus]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if all {
			result, err = s.repo.ListAll(gctx)
		} else {
			result, err = s.repo.ListForOwner(gctx, actor.UserID)
		}
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = s.repo.CountByStatusForOwner(gctx, actor.UserID, all)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load booking dashboard: %w", err)
	}

	if result == nil {
		result = []BookingWithDetails{}
	}
	return &Dashboard{Bookings: result, Counts: counts}, nil
}

func (s *Service) recordAudit(ctx context.Context, actor policy.Principal, bookingID int64, status BookingStatus) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   "booking.decide",
		Entity:   "booking",
		EntityID: strconv.FormatInt(bookingID, 10),
		Meta:     map[string]any{"status": string(status)},
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("record booking audit", slog.Any("error", err))
	}
}

func (s *Service) notifyDecision(ctx context.Context, detail *BookingWithDetails, status BookingStatus) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.BookingDecided(ctx, DecisionNotice{
		BookingID:      detail.ID,
		Status:         status,
		ListingTitle:   detail.ListingTitle,
		RequesterName:  detail.RequesterName,
		RequesterEmail: detail.RequesterEmail,
		TotalPrice:     detail.TotalPrice,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("enqueue decision notification", slog.Int64("booking_id", detail.ID), slog.Any("error", err))
	}
}

// dateDiffInDays returns the whole-day span between check-in and check-out,
// rounding partial days up. Billing is day-granular for every listing type.
func dateDiffInDays(checkIn, checkOut time.Time) int {
	hours := checkOut.Sub(checkIn).Hours()
	return int(math.Ceil(hours / 24))
}
