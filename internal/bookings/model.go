package bookings

import (
	"time"

	"github.com/harborstay/harborstay/internal/listings"
	"github.com/harborstay/harborstay/internal/policy"
)

// BookingStatus is the booking state machine. pending is the initial state;
// accepted and rejected are terminal.
type BookingStatus string

const (
	StatusPending  BookingStatus = "pending"
	StatusAccepted BookingStatus = "accepted"
	StatusRejected BookingStatus = "rejected"
)

// Terminal reports whether no transition leaves the status.
func (s BookingStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Booking represents a booking request against a listing.
type Booking struct {
	ID              int64         `json:"id"`
	UserID          int64         `json:"user_id"`
	ListingID       int64         `json:"listing_id"`
	CheckIn         time.Time     `json:"check_in"`
	CheckOut        time.Time     `json:"check_out"`
	Guests          int32         `json:"guests"`
	TotalPrice      float64       `json:"total_price"`
	Status          BookingStatus `json:"status"`
	SpecialRequests *string       `json:"special_requests,omitempty"`
	AdminNotes      *string       `json:"admin_notes,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// BookingWithDetails joins the booking with its listing and requester info
// for owner/admin views.
type BookingWithDetails struct {
	Booking
	ListingTitle   string               `json:"listing_title"`
	ListingType    listings.ListingType `json:"listing_type"`
	ListingOwnerID int64                `json:"listing_owner_id"`
	RequesterName  string               `json:"requester_name"`
	RequesterEmail string               `json:"requester_email"`
}

func policyResource(requesterID, listingOwnerID int64) policy.BookingResource {
	return policy.BookingResource{RequesterID: requesterID, ListingOwnerID: listingOwnerID}
}
