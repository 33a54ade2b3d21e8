package listings

import (
	"time"

	"github.com/harborstay/harborstay/internal/policy"
)

// ListingType is the closed set of listing categories. The price unit is
// type-dependent: per-night for hotels, per-day for cars, per-trip for trips.
type ListingType string

const (
	TypeHotel ListingType = "hotel"
	TypeTrip  ListingType = "trip"
	TypeCar   ListingType = "car"
)

// Valid reports whether the type belongs to the closed enumeration.
func (t ListingType) Valid() bool {
	switch t {
	case TypeHotel, TypeTrip, TypeCar:
		return true
	}
	return false
}

// Listing represents a bookable listing owned by its creating principal.
// Listings are never physically deleted; removal from public views flips
// IsActive.
type Listing struct {
	ID            int64       `json:"id"`
	OwnerID       int64       `json:"owner_id"`
	Type          ListingType `json:"type"`
	Title         string      `json:"title"`
	Description   *string     `json:"description,omitempty"`
	Price         float64     `json:"price"`
	Location      string      `json:"location"`
	ImageURL      *string     `json:"image_url,omitempty"`
	Amenities     []string    `json:"amenities,omitempty"`
	AvailableFrom *time.Time  `json:"available_from,omitempty"`
	AvailableTo   *time.Time  `json:"available_to,omitempty"`
	MaxGuests     *int32      `json:"max_guests,omitempty"`
	IsActive      bool        `json:"is_active"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (l *Listing) policyResource() policy.ListingResource {
	return policy.ListingResource{OwnerID: l.OwnerID, Active: l.IsActive}
}
