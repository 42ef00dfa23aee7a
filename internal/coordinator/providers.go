// Copyright (C) 2025 the datecoord maintainers
// See root-dir/LICENSE for more information

package coordinator

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/glimpsed/datecoord/internal/model"
)

// The booker interfaces stand in for real vendor integrations
// (OpenTable/Resy, Eventbrite/Ticketmaster, Uber). The simulated
// implementations below fabricate confirmations after a jittered delay;
// swapping in a real client is a matter of satisfying the interface.

type ReservationRequest struct {
	RestaurantName string
	Location       string
	DateTime       time.Time
	PartySize      int
}

type Reservation struct {
	ConfirmationNumber string
	RestaurantName     string
	ReservationTime    time.Time
	PartySize          int
}

type RestaurantBooker interface {
	ProviderName() string
	BookRestaurant(context.Context, ReservationRequest) (*Reservation, error)
}

type TicketRequest struct {
	EventName   string
	EventType   model.EventType
	Venue       string
	DateTime    time.Time
	TicketCount int
}

type TicketOrder struct {
	ConfirmationNumber string
	TicketURL          string
	SeatInfo           string
	TotalCost          float64
}

type TicketBooker interface {
	ProviderName() string
	BookTickets(context.Context, TicketRequest) (*TicketOrder, error)
}

type RideRequest struct {
	PickupLocation  string
	DropoffLocation string
	PickupTime      time.Time
	RideType        string
	Passengers      int
}

type Ride struct {
	RideID           string
	RideType         string
	EstimatedCost    float64
	EstimatedArrival time.Time
}

type RideBooker interface {
	ProviderName() string
	BookRide(context.Context, RideRequest) (*Ride, error)
}

// confirmationID fabricates vendor-style confirmation numbers such as
// REST-1729882800000-X7K2QD.
func confirmationID(prefix string, n int) string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), string(b))
}

// sleepFor waits the provider's base delay plus up to 50% jitter, or
// until the context expires.
func sleepFor(ctx context.Context, base time.Duration) error {
	if base <= 0 {
		return ctx.Err()
	}
	delay := base + time.Duration(rand.Int63n(int64(base)/2+1))
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SimulatedOpenTable fabricates restaurant reservations. When the
// request names no restaurant it picks the top entry of a small curated
// list, standing in for a Yelp/Places lookup.
type SimulatedOpenTable struct {
	Delay time.Duration
}

func (s *SimulatedOpenTable) ProviderName() string { return "OpenTable" }

var curatedRestaurants = []string{"Perch LA", "Bestia", "Republique"}

func (s *SimulatedOpenTable) BookRestaurant(ctx context.Context, req ReservationRequest) (*Reservation, error) {
	if err := sleepFor(ctx, s.Delay); err != nil {
		return nil, err
	}
	name := req.RestaurantName
	if name == "" {
		name = curatedRestaurants[0]
	}
	return &Reservation{
		ConfirmationNumber: confirmationID("REST", 6),
		RestaurantName:     name,
		ReservationTime:    req.DateTime,
		PartySize:          req.PartySize,
	}, nil
}

// SimulatedEventbrite fabricates ticket orders with a per-event-type
// price table.
type SimulatedEventbrite struct {
	Delay time.Duration
}

func (s *SimulatedEventbrite) ProviderName() string { return "Eventbrite" }

var ticketPrices = map[model.EventType]float64{
	model.EventConcert: 75,
	model.EventMovie:   15,
	model.EventShow:    50,
	model.EventSports:  100,
}

func (s *SimulatedEventbrite) BookTickets(ctx context.Context, req TicketRequest) (*TicketOrder, error) {
	if err := sleepFor(ctx, s.Delay); err != nil {
		return nil, err
	}
	confirmation := confirmationID("TIX", 6)
	return &TicketOrder{
		ConfirmationNumber: confirmation,
		TicketURL:          "https://tickets.glimpse-dating.app/events/" + confirmation,
		SeatInfo:           "Section B, Rows 10-12",
		TotalCost:          ticketPrices[req.EventType] * float64(req.TicketCount),
	}, nil
}

// SimulatedUber fabricates ride bookings with base pricing per ride
// type plus jitter.
type SimulatedUber struct {
	Delay time.Duration
}

func (s *SimulatedUber) ProviderName() string { return "Uber" }

var ridePrices = map[string]float64{
	"uberx":   15,
	"uberxl":  25,
	"comfort": 20,
	"black":   40,
}

func (s *SimulatedUber) BookRide(ctx context.Context, req RideRequest) (*Ride, error) {
	if err := sleepFor(ctx, s.Delay); err != nil {
		return nil, err
	}
	base, ok := ridePrices[req.RideType]
	if !ok {
		return nil, fmt.Errorf("unknown ride type %q", req.RideType)
	}
	return &Ride{
		RideID:           confirmationID("UBER", 8),
		RideType:         req.RideType,
		EstimatedCost:    base + float64(rand.Intn(15)),
		EstimatedArrival: req.PickupTime.Add(-15 * time.Minute),
	}, nil
}

// inferEventType guesses the ticketed event category from the activity
// text, defaulting to a generic show.
func inferEventType(activity string) model.EventType {
	a := strings.ToLower(activity)
	switch {
	case strings.Contains(a, "concert"):
		return model.EventConcert
	case strings.Contains(a, "movie"):
		return model.EventMovie
	case strings.Contains(a, "sports"):
		return model.EventSports
	}
	return model.EventShow
}
