package listings

import "time"

// CreateListingRequest carries the fields required to create a listing.
type CreateListingRequest struct {
	Type          string     `json:"type" validate:"required,oneof=hotel trip car"`
	Title         string     `json:"title" validate:"required,max=200"`
	Description   *string    `json:"description,omitempty"`
	Price         float64    `json:"price" validate:"gte=0"`
	Location      string     `json:"location" validate:"required,max=200"`
	ImageURL      *string    `json:"image_url,omitempty" validate:"omitempty,url"`
	Amenities     []string   `json:"amenities,omitempty" validate:"omitempty,dive,max=100"`
	AvailableFrom *time.Time `json:"available_from,omitempty"`
	AvailableTo   *time.Time `json:"available_to,omitempty"`
	MaxGuests     *int32     `json:"max_guests,omitempty" validate:"omitempty,gte=1"`
}

// UpdateListingRequest is a partial patch; nil fields are left untouched.
type UpdateListingRequest struct {
	Title         *string    `json:"title,omitempty" validate:"omitempty,max=200"`
	Description   *string    `json:"description,omitempty"`
	Price         *float64   `json:"price,omitempty" validate:"omitempty,gte=0"`
	Location      *string    `json:"location,omitempty" validate:"omitempty,max=200"`
	ImageURL      *string    `json:"image_url,omitempty" validate:"omitempty,url"`
	Amenities     *[]string  `json:"amenities,omitempty"`
	AvailableFrom *time.Time `json:"available_from,omitempty"`
	AvailableTo   *time.Time `json:"available_to,omitempty"`
	MaxGuests     *int32     `json:"max_guests,omitempty" validate:"omitempty,gte=1"`
}

// ListActiveRequest selects a page of the public feed.
type ListActiveRequest struct {
	Page    int `json:"page" validate:"gte=0"`
	PerPage int `json:"per_page" validate:"gte=0,lte=100"`
}
