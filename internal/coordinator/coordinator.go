// Copyright (C) 2025 the datecoord maintainers
// See root-dir/LICENSE for more information

// Package coordinator books the accommodations of a mutually accepted
// date: a restaurant table for dining dates, tickets for entertainment
// dates, and a ride in every case. Sub-tasks run concurrently and fail
// independently; the proposal confirms as long as coordination itself
// ran to the end.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/glimpsed/datecoord/internal/dates"
	"github.com/glimpsed/datecoord/internal/db"
	"github.com/glimpsed/datecoord/internal/model"
)

const defaultTaskTimeout = 5 * time.Second

// Config selects the vendor implementations and the per-sub-task
// timeout. Nil bookers fall back to the simulated vendors.
type Config struct {
	Restaurants RestaurantBooker
	Tickets     TicketBooker
	Rides       RideBooker
	TaskTimeout time.Duration
}

// Result is the outcome of one coordination run. Success reports that
// the orchestration ran to completion; individual booking failures are
// carried on the accommodations themselves, not here.
type Result struct {
	Success        bool                      `json:"success"`
	Accommodations []model.DateAccommodation `json:"accommodations"`
	Errors         []string                  `json:"errors"`
}

type Coordinator struct {
	svc         *dates.Service
	store       db.ProposalStore
	restaurants RestaurantBooker
	tickets     TicketBooker
	rides       RideBooker
	taskTimeout time.Duration
	logger      *slog.Logger
}

func New(svc *dates.Service, store db.ProposalStore, cfg Config) *Coordinator {
	c := &Coordinator{
		svc:         svc,
		store:       store,
		restaurants: cfg.Restaurants,
		tickets:     cfg.Tickets,
		rides:       cfg.Rides,
		taskTimeout: cfg.TaskTimeout,
		logger:      slog.Default().WithGroup("coordinator"),
	}
	if c.restaurants == nil {
		c.restaurants = &SimulatedOpenTable{Delay: time.Second}
	}
	if c.tickets == nil {
		c.tickets = &SimulatedEventbrite{Delay: 1200 * time.Millisecond}
	}
	if c.rides == nil {
		c.rides = &SimulatedUber{Delay: 1500 * time.Millisecond}
	}
	if c.taskTimeout <= 0 {
		c.taskTimeout = defaultTaskTimeout
	}
	return c
}

// Coordinate runs the booking sub-tasks for a proposal in
// both_accepted. Re-running against a confirmed proposal retries only
// the sub-task types without a confirmed accommodation and never
// duplicates ones that already succeeded.
func (c *Coordinator) Coordinate(ctx context.Context, id uuid.UUID) (*Result, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Coordinator.Coordinate")
	defer span.End()

	snapshot, err := c.svc.BeginCoordination(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	tasks := c.queueTasks(snapshot)
	c.logger.InfoContext(ctx, "coordinating date",
		"proposal", id, "activity_kind", snapshot.ActivityKind, "sub_tasks", len(tasks))

	var (
		mu     sync.Mutex
		booked []model.DateAccommodation
		errs   []string
		fatal  bool
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			acc := task(gctx)
			mu.Lock()
			defer mu.Unlock()
			booked = append(booked, acc)
			// Persist each result as it lands; losing the proposal
			// mid-run is the one failure that sinks the whole attempt.
			if err := c.store.AddAccommodation(ctx, id, acc); err != nil {
				errs = append(errs, fmt.Sprintf("record %s accommodation: %v", acc.Type, err))
				fatal = true
			}
			return nil
		})
	}
	_ = g.Wait()

	if fatal {
		span.RecordError(fmt.Errorf("coordination failed: %v", errs))
		return &Result{Success: false, Accommodations: booked, Errors: errs}, nil
	}

	if err := c.svc.CompleteCoordination(ctx, id); err != nil {
		errs = append(errs, fmt.Sprintf("confirm proposal: %v", err))
		return &Result{Success: false, Accommodations: booked, Errors: errs}, nil
	}

	proposal, err := c.svc.Get(ctx, id)
	if err != nil {
		errs = append(errs, err.Error())
		return &Result{Success: false, Accommodations: booked, Errors: errs}, nil
	}
	return &Result{Success: true, Accommodations: proposal.Accommodations, Errors: errs}, nil
}

type bookingTask func(context.Context) model.DateAccommodation

// queueTasks decides which sub-tasks to run from the activity kind
// recorded at proposal creation. Transportation is always queued.
// Types that already hold a confirmed accommodation are skipped so
// re-runs stay idempotent.
func (c *Coordinator) queueTasks(p *model.DateProposal) []bookingTask {
	var tasks []bookingTask

	if p.ActivityKind == model.ActivityDining {
		if _, done := p.ConfirmedAccommodation(model.AccommodationRestaurant); !done {
			tasks = append(tasks, func(ctx context.Context) model.DateAccommodation {
				return c.bookRestaurant(ctx, p)
			})
		}
	}
	if p.ActivityKind == model.ActivityEntertainment {
		if _, done := p.ConfirmedAccommodation(model.AccommodationTickets); !done {
			tasks = append(tasks, func(ctx context.Context) model.DateAccommodation {
				return c.bookTickets(ctx, p)
			})
		}
	}
	if _, done := p.ConfirmedAccommodation(model.AccommodationTransportation); !done {
		tasks = append(tasks, func(ctx context.Context) model.DateAccommodation {
			return c.bookRide(ctx, p)
		})
	}
	return tasks
}

// newAccommodation starts a booking record in the booking state.
func newAccommodation(t model.AccommodationType, provider string) model.DateAccommodation {
	return model.DateAccommodation{
		ID:        uuid.New(),
		Type:      t,
		Provider:  provider,
		Status:    model.AccommodationBooking,
		CreatedAt: time.Now(),
	}
}

// settle moves an accommodation to its terminal state from a booking
// outcome. A context deadline reads as a timeout rather than a vendor
// error.
func settle(acc *model.DateAccommodation, err error) {
	if err == nil {
		now := time.Now()
		acc.Status = model.AccommodationConfirmed
		acc.ConfirmedAt = &now
		return
	}
	acc.Status = model.AccommodationFailed
	if errors.Is(err, context.DeadlineExceeded) {
		acc.ErrorMessage = "booking timed out"
		return
	}
	acc.ErrorMessage = err.Error()
}

func (c *Coordinator) bookRestaurant(ctx context.Context, p *model.DateProposal) model.DateAccommodation {
	ctx, cancel := context.WithTimeout(ctx, c.taskTimeout)
	defer cancel()

	acc := newAccommodation(model.AccommodationRestaurant, c.restaurants.ProviderName())
	reservation, err := c.restaurants.BookRestaurant(ctx, ReservationRequest{
		RestaurantName: p.Venue,
		Location:       p.Location,
		DateTime:       p.DateTime,
		PartySize:      2,
	})
	if err == nil {
		acc.Details = model.AccommodationDetails{
			RestaurantName:     reservation.RestaurantName,
			ReservationTime:    &reservation.ReservationTime,
			PartySize:          reservation.PartySize,
			ConfirmationNumber: reservation.ConfirmationNumber,
		}
	}
	settle(&acc, err)
	return acc
}

func (c *Coordinator) bookTickets(ctx context.Context, p *model.DateProposal) model.DateAccommodation {
	ctx, cancel := context.WithTimeout(ctx, c.taskTimeout)
	defer cancel()

	eventName := p.Venue
	if eventName == "" {
		eventName = p.Activity
	}
	venue := p.Venue
	if venue == "" {
		venue = p.Location
	}

	acc := newAccommodation(model.AccommodationTickets, c.tickets.ProviderName())
	order, err := c.tickets.BookTickets(ctx, TicketRequest{
		EventName:   eventName,
		EventType:   inferEventType(p.Activity),
		Venue:       venue,
		DateTime:    p.DateTime,
		TicketCount: 2,
	})
	if err == nil {
		acc.Details = model.AccommodationDetails{
			EventName:   eventName,
			EventType:   inferEventType(p.Activity),
			TicketCount: 2,
			SeatInfo:    order.SeatInfo,
			TicketURL:   order.TicketURL,
			Cost:        order.TotalCost,
		}
	}
	settle(&acc, err)
	return acc
}

func (c *Coordinator) bookRide(ctx context.Context, p *model.DateProposal) model.DateAccommodation {
	ctx, cancel := context.WithTimeout(ctx, c.taskTimeout)
	defer cancel()

	pickupTime := p.DateTime.Add(-30 * time.Minute)

	acc := newAccommodation(model.AccommodationTransportation, c.rides.ProviderName())
	ride, err := c.rides.BookRide(ctx, RideRequest{
		// TODO: pick up from the user's saved address once profiles
		// carry one.
		PickupLocation:  "User's location",
		DropoffLocation: p.Location,
		PickupTime:      pickupTime,
		RideType:        "comfort",
		Passengers:      2,
	})
	if err == nil {
		acc.Details = model.AccommodationDetails{
			PickupLocation:  "User's location",
			DropoffLocation: p.Location,
			PickupTime:      &pickupTime,
			RideType:        ride.RideType,
			RideID:          ride.RideID,
			Cost:            ride.EstimatedCost,
		}
	}
	settle(&acc, err)
	return acc
}
