// Copyright (C) 2025 the datecoord maintainers
// See root-dir/LICENSE for more information

package model

import (
	"time"

	"github.com/google/uuid"
)

// AccommodationType names the kind of booking sub-task an accommodation
// records.
type AccommodationType string

const (
	AccommodationRestaurant     AccommodationType = "restaurant"
	AccommodationTickets        AccommodationType = "tickets"
	AccommodationTransportation AccommodationType = "transportation"
	AccommodationActivity       AccommodationType = "activity"
	AccommodationOther          AccommodationType = "other"
)

// AccommodationStatus moves only forward: pending/booking to exactly one
// of confirmed or failed, then never again.
type AccommodationStatus string

const (
	AccommodationPending   AccommodationStatus = "pending"
	AccommodationBooking   AccommodationStatus = "booking"
	AccommodationConfirmed AccommodationStatus = "confirmed"
	AccommodationFailed    AccommodationStatus = "failed"
)

func (s AccommodationStatus) Valid() bool {
	switch s {
	case AccommodationPending, AccommodationBooking, AccommodationConfirmed, AccommodationFailed:
		return true
	}
	return false
}

func (s AccommodationStatus) Terminal() bool {
	return s == AccommodationConfirmed || s == AccommodationFailed
}

// EventType categorizes a ticketed event for pricing and display.
type EventType string

const (
	EventConcert EventType = "concert"
	EventMovie   EventType = "movie"
	EventShow    EventType = "show"
	EventSports  EventType = "sports"
)

// AccommodationDetails is the variant payload of an accommodation. Which
// fields are set depends on the accommodation type; everything is
// omitempty so the wire form carries only the relevant variant.
type AccommodationDetails struct {
	// Restaurant
	RestaurantName     string     `json:"restaurant_name,omitempty"`
	CuisineType        string     `json:"cuisine_type,omitempty"`
	ReservationTime    *time.Time `json:"reservation_time,omitempty"`
	PartySize          int        `json:"party_size,omitempty"`
	ConfirmationNumber string     `json:"confirmation_number,omitempty"`

	// Tickets
	EventName   string    `json:"event_name,omitempty"`
	EventType   EventType `json:"event_type,omitempty"`
	TicketCount int       `json:"ticket_count,omitempty"`
	SeatInfo    string    `json:"seat_info,omitempty"`
	TicketURL   string    `json:"ticket_url,omitempty"`

	// Transportation
	PickupLocation  string     `json:"pickup_location,omitempty"`
	DropoffLocation string     `json:"dropoff_location,omitempty"`
	PickupTime      *time.Time `json:"pickup_time,omitempty"`
	RideType        string     `json:"ride_type,omitempty"`
	RideID          string     `json:"ride_id,omitempty"`

	// Generic
	Cost float64 `json:"cost,omitempty"`
}

// DateAccommodation is one booking sub-task attached to a proposal. It is
// owned by its parent proposal and has no identity outside it.
type DateAccommodation struct {
	ID           uuid.UUID            `json:"id"`
	Type         AccommodationType    `json:"type"`
	Provider     string               `json:"provider"`
	Status       AccommodationStatus  `json:"status"`
	Details      AccommodationDetails `json:"details"`
	CreatedAt    time.Time            `json:"created_at"`
	ConfirmedAt  *time.Time           `json:"confirmed_at,omitempty"`
	ErrorMessage string               `json:"error_message,omitempty"`
}
