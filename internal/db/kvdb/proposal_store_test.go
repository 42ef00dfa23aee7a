package kvdb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/glimpsed/datecoord/internal/db"
	"github.com/glimpsed/datecoord/internal/model"
)

func testStore(t *testing.T) *ProposalStore {
	t.Helper()
	database, err := bolt.Open(filepath.Join(t.TempDir(), "test.db"), 0600, nil)
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store, err := NewProposalStore(database)
	if err != nil {
		t.Fatalf("NewProposalStore: %v", err)
	}
	return store
}

func TestProposalStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	id, err := store.CreateProposal(ctx, &model.DateProposal{
		MatchID:       "match-1",
		MatchName:     "James",
		DateTime:      time.Date(2025, 10, 25, 19, 0, 0, 0, time.UTC),
		Activity:      "dinner",
		ActivityKind:  model.ActivityDining,
		Location:      "Downtown LA",
		Description:   "Dinner downtown",
		Status:        model.StatusProposed,
		UserResponse:  model.ResponsePending,
		MatchResponse: model.ResponsePending,
	})
	if err != nil {
		t.Fatalf("CreateProposal: %v", err)
	}

	got, err := store.GetProposalByID(ctx, id)
	if err != nil {
		t.Fatalf("GetProposalByID: %v", err)
	}
	if got.Activity != "dinner" || got.Status != model.StatusProposed {
		t.Fatalf("unexpected proposal: %+v", got)
	}

	if _, err := store.GetProposalByID(ctx, uuid.New()); !errors.Is(err, db.ErrProposalNotFound) {
		t.Fatalf("expected ErrProposalNotFound, got %v", err)
	}
}

func TestProposalStore_UpdateSurvivesReload(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	id, _ := store.CreateProposal(ctx, &model.DateProposal{
		MatchID:       "match-1",
		MatchName:     "James",
		DateTime:      time.Now(),
		Activity:      "concert",
		Location:      "LA",
		Description:   "A show",
		Status:        model.StatusProposed,
		UserResponse:  model.ResponsePending,
		MatchResponse: model.ResponsePending,
	})

	if err := store.UpdateUserResponse(ctx, id, model.ResponseAccepted); err != nil {
		t.Fatalf("UpdateUserResponse: %v", err)
	}
	if err := store.UpdateMatchResponse(ctx, id, model.ResponseAccepted); err != nil {
		t.Fatalf("UpdateMatchResponse: %v", err)
	}

	acc := model.DateAccommodation{
		ID:       uuid.New(),
		Type:     model.AccommodationTickets,
		Provider: "Eventbrite",
		Status:   model.AccommodationBooking,
	}
	if err := store.AddAccommodation(ctx, id, acc); err != nil {
		t.Fatalf("AddAccommodation: %v", err)
	}
	if err := store.UpdateAccommodationStatus(ctx, id, acc.ID, model.AccommodationFailed, "sold out"); err != nil {
		t.Fatalf("UpdateAccommodationStatus: %v", err)
	}

	got, err := store.GetProposalByID(ctx, id)
	if err != nil {
		t.Fatalf("GetProposalByID: %v", err)
	}
	if got.Status != model.StatusBothAccepted {
		t.Fatalf("status = %s, want %s", got.Status, model.StatusBothAccepted)
	}
	if len(got.Accommodations) != 1 {
		t.Fatalf("len(accommodations) = %d, want 1", len(got.Accommodations))
	}
	if a := got.Accommodations[0]; a.Status != model.AccommodationFailed || a.ErrorMessage != "sold out" {
		t.Fatalf("accommodation = %+v, want failed with message", a)
	}
}

func TestProposalStore_ListByStatus(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	mk := func(activity string) uuid.UUID {
		id, err := store.CreateProposal(ctx, &model.DateProposal{
			MatchID: "m", MatchName: "n", DateTime: time.Now(),
			Activity: activity, Location: "LA", Description: "d",
			Status:       model.StatusProposed,
			UserResponse: model.ResponsePending, MatchResponse: model.ResponsePending,
		})
		if err != nil {
			t.Fatalf("CreateProposal: %v", err)
		}
		return id
	}

	mk("dinner")
	declined := mk("hiking")
	if err := store.UpdateMatchResponse(ctx, declined, model.ResponseDeclined); err != nil {
		t.Fatalf("UpdateMatchResponse: %v", err)
	}

	got, err := store.ListProposalsByStatus(ctx, model.StatusDeclined)
	if err != nil {
		t.Fatalf("ListProposalsByStatus: %v", err)
	}
	if len(got) != 1 || got[0].ID != declined {
		t.Fatalf("got %d proposals, want the declined one", len(got))
	}
}
