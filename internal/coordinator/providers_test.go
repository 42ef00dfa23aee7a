package coordinator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/glimpsed/datecoord/internal/model"
)

func TestInferEventType(t *testing.T) {
	tt := []struct {
		activity string
		want     model.EventType
	}{
		{activity: "concert night", want: model.EventConcert},
		{activity: "late night movie", want: model.EventMovie},
		{activity: "sports game", want: model.EventSports},
		{activity: "Broadway show", want: model.EventShow},
		{activity: "something else", want: model.EventShow},
	}

	for _, tc := range tt {
		t.Run(tc.activity, func(t *testing.T) {
			if got := inferEventType(tc.activity); got != tc.want {
				t.Fatalf("inferEventType(%q) = %s, want %s", tc.activity, got, tc.want)
			}
		})
	}
}

func TestSimulatedOpenTable_FallsBackToCuratedList(t *testing.T) {
	ot := &SimulatedOpenTable{}
	res, err := ot.BookRestaurant(context.Background(), ReservationRequest{
		Location:  "Downtown LA",
		DateTime:  time.Date(2025, 10, 25, 19, 0, 0, 0, time.UTC),
		PartySize: 2,
	})
	if err != nil {
		t.Fatalf("BookRestaurant: %v", err)
	}
	if res.RestaurantName != curatedRestaurants[0] {
		t.Fatalf("restaurant = %q, want curated fallback", res.RestaurantName)
	}
	if !strings.HasPrefix(res.ConfirmationNumber, "REST-") {
		t.Fatalf("confirmation = %q, want REST- prefix", res.ConfirmationNumber)
	}
}

func TestSimulatedEventbrite_Pricing(t *testing.T) {
	eb := &SimulatedEventbrite{}
	order, err := eb.BookTickets(context.Background(), TicketRequest{
		EventName:   "The Weeknd",
		EventType:   model.EventConcert,
		TicketCount: 2,
	})
	if err != nil {
		t.Fatalf("BookTickets: %v", err)
	}
	if order.TotalCost != 150 {
		t.Fatalf("total cost = %v, want 150 for two concert tickets", order.TotalCost)
	}
	if !strings.Contains(order.TicketURL, order.ConfirmationNumber) {
		t.Fatalf("ticket url %q does not embed confirmation %q", order.TicketURL, order.ConfirmationNumber)
	}
}

func TestSimulatedUber_UnknownRideType(t *testing.T) {
	uber := &SimulatedUber{}
	if _, err := uber.BookRide(context.Background(), RideRequest{RideType: "horse"}); err == nil {
		t.Fatal("expected error for unknown ride type")
	}
}

func TestSleepForHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepFor(ctx, time.Minute); err == nil {
		t.Fatal("expected context error")
	}
}
