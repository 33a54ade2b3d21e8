package listings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/harborstay/harborstay/internal/policy"
	"github.com/harborstay/harborstay/internal/shared"
)

// ActivePage is one page of the public feed, the unit of caching.
type ActivePage struct {
	Listings   []Listing         `json:"listings"`
	Pagination shared.Pagination `json:"pagination"`
}

// Service implements the listing registry under the access policy engine.
type Service struct {
	repo     Repository
	engine   *policy.Engine
	cache    *Cache
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, engine *policy.Engine, cache *Cache, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		engine:   engine,
		cache:    cache,
		validate: validator.New(),
		logger:   logger,
	}
}

// Create registers a new active listing owned by the actor. Only admins and
// subadmins may create listings.
func (s *Service) Create(ctx context.Context, actor policy.Principal, req CreateListingRequest) (*Listing, error) {
	if err := s.engine.Authorize(actor, policy.KindListing, policy.ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	if err := validateWindow(req.AvailableFrom, req.AvailableTo); err != nil {
		return nil, err
	}

	listing := Listing{
		OwnerID:       actor.UserID,
		Type:          ListingType(req.Type),
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		Price:         req.Price,
		Location:      strings.TrimSpace(req.Location),
		ImageURL:      req.ImageURL,
		Amenities:     req.Amenities,
		AvailableFrom: req.AvailableFrom,
		AvailableTo:   req.AvailableTo,
		MaxGuests:     req.MaxGuests,
		IsActive:      true,
	}

	created, err := s.repo.Create(ctx, listing)
	if err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	s.bumpCache(ctx)
	return created, nil
}

// Get returns a single listing. A policy-denied read reports not-found so
// the existence of inactive listings never leaks.
func (s *Service) Get(ctx context.Context, actor policy.Principal, id int64) (*Listing, error) {
	listing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.engine.Allow(actor, policy.KindListing, policy.ActionRead, listing.policyResource()) {
		return nil, shared.ErrNotFound
	}
	return listing, nil
}

// ListActive returns the public feed of active listings, newest first.
// Pages are served from the versioned Redis cache.
func (s *Service) ListActive(ctx context.Context, req ListActiveRequest) (*ActivePage, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	perPage := req.PerPage
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	key, err := s.cache.BuildKey(ctx, "listings", "active", fmt.Sprint(page), fmt.Sprint(perPage))
	if err != nil {
		s.logger.Warn("listing cache key", slog.Any("error", err))
		return s.loadActivePage(ctx, page, perPage)
	}

	var result ActivePage
	err = s.cache.FetchJSON(ctx, key, &result, func(ctx context.Context) (any, error) {
		loaded, err := s.loadActivePage(ctx, page, perPage)
		if err != nil {
			return nil, err
		}
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListForOwner returns all listings owned by ownerID regardless of the
// active flag. Allowed for the owner themselves or an admin.
func (s *Service) ListForOwner(ctx context.Context, actor policy.Principal, ownerID int64) ([]Listing, error) {
	if err := s.engine.Authorize(actor, policy.KindListing, policy.ActionList, policy.ListingResource{OwnerID: ownerID}); err != nil {
		return nil, err
	}
	result, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []Listing{}
	}
	return result, nil
}

// Update applies a partial patch to a listing, owner or admin only.
func (s *Service) Update(ctx context.Context, actor policy.Principal, id int64, req UpdateListingRequest) (*Listing, error) {
	listing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(actor, policy.KindListing, policy.ActionUpdate, listing.policyResource()); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}

	from := listing.AvailableFrom
	if req.AvailableFrom != nil {
		from = req.AvailableFrom
	}
	to := listing.AvailableTo
	if req.AvailableTo != nil {
		to = req.AvailableTo
	}
	if err := validateWindow(from, to); err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Location != nil {
		updates["location"] = strings.TrimSpace(*req.Location)
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.Amenities != nil {
		updates["amenities"] = *req.Amenities
	}
	if req.AvailableFrom != nil {
		updates["available_from"] = *req.AvailableFrom
	}
	if req.AvailableTo != nil {
		updates["available_to"] = *req.AvailableTo
	}
	if req.MaxGuests != nil {
		updates["max_guests"] = *req.MaxGuests
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, fmt.Errorf("update listing: %w", err)
		}
		s.bumpCache(ctx)
	}
	return s.repo.Get(ctx, id)
}

// Deactivate removes the listing from public views without deleting the row.
func (s *Service) Deactivate(ctx context.Context, actor policy.Principal, id int64) error {
	listing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.engine.Authorize(actor, policy.KindListing, policy.ActionDelete, listing.policyResource()); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.bumpCache(ctx)
	return nil
}

func (s *Service) loadActivePage(ctx context.Context, page, perPage int) (*ActivePage, error) {
	offset := (page - 1) * perPage
	result, total, err := s.repo.ListActive(ctx, perPage, offset)
	if err != nil {
		return nil, fmt.Errorf("list active listings: %w", err)
	}
	if result == nil {
		result = []Listing{}
	}
	return &ActivePage{
		Listings:   result,
		Pagination: shared.NewPagination(page, perPage, total),
	}, nil
}

func (s *Service) bumpCache(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("bump listing cache", slog.Any("error", err))
	}
}

func validateWindow(from, to *time.Time) error {
	if from != nil && to != nil && from.After(*to) {
		return fmt.Errorf("%w: available_from must not be after available_to", shared.ErrValidation)
	}
	return nil
}
