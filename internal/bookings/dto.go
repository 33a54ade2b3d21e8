package bookings

import "time"

// SubmitBookingRequest carries the fields of a new booking request.
type SubmitBookingRequest struct {
	ListingID       int64     `json:"listing_id" validate:"required,gt=0"`
	CheckIn         time.Time `json:"check_in" validate:"required"`
	CheckOut        time.Time `json:"check_out" validate:"required"`
	Guests          int32     `json:"guests" validate:"required,gte=1"`
	SpecialRequests *string   `json:"special_requests,omitempty" validate:"omitempty,max=2000"`
}

// DecideBookingRequest carries an owner/admin decision on a pending booking.
type DecideBookingRequest struct {
	Status     string  `json:"status" validate:"required,oneof=accepted rejected"`
	AdminNotes *string `json:"admin_notes,omitempty" validate:"omitempty,max=2000"`
}
