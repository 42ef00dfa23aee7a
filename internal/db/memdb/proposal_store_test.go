package memdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/glimpsed/datecoord/internal/db"
	"github.com/glimpsed/datecoord/internal/model"
)

func newProposal(matchID, activity string) *model.DateProposal {
	return &model.DateProposal{
		MatchID:       matchID,
		MatchName:     "James",
		ProposedBy:    "matchmaker",
		DateTime:      time.Date(2025, 10, 25, 19, 0, 0, 0, time.UTC),
		Activity:      activity,
		ActivityKind:  model.ClassifyActivity(activity),
		Location:      "Downtown LA",
		Description:   "A date",
		Status:        model.StatusProposed,
		UserResponse:  model.ResponsePending,
		MatchResponse: model.ResponsePending,
	}
}

func TestProposalStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewProposalStore()

	id, err := store.CreateProposal(ctx, newProposal("match-1", "dinner"))
	if err != nil {
		t.Fatalf("CreateProposal: %v", err)
	}
	if id == uuid.Nil {
		t.Fatal("expected assigned id")
	}

	got, err := store.GetProposalByID(ctx, id)
	if err != nil {
		t.Fatalf("GetProposalByID: %v", err)
	}
	if got.MatchID != "match-1" {
		t.Fatalf("match id = %s, want match-1", got.MatchID)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatal("timestamps not set on create")
	}

	if _, err := store.GetProposalByID(ctx, uuid.New()); !errors.Is(err, db.ErrProposalNotFound) {
		t.Fatalf("expected ErrProposalNotFound, got %v", err)
	}
}

func TestProposalStore_ListFilters(t *testing.T) {
	ctx := context.Background()
	store := NewProposalStore()

	a, _ := store.CreateProposal(ctx, newProposal("match-a", "dinner"))
	b, _ := store.CreateProposal(ctx, newProposal("match-b", "hiking"))
	c, _ := store.CreateProposal(ctx, newProposal("match-a", "concert"))

	all, err := store.ListProposals(ctx)
	if err != nil {
		t.Fatalf("ListProposals: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}
	// Insertion order.
	if all[0].ID != a || all[1].ID != b || all[2].ID != c {
		t.Fatal("list not in insertion order")
	}

	byMatch, err := store.ListProposalsByMatch(ctx, "match-a")
	if err != nil {
		t.Fatalf("ListProposalsByMatch: %v", err)
	}
	if len(byMatch) != 2 {
		t.Fatalf("len(byMatch) = %d, want 2", len(byMatch))
	}

	if err := store.UpdateUserResponse(ctx, b, model.ResponseDeclined); err != nil {
		t.Fatalf("UpdateUserResponse: %v", err)
	}
	declined, err := store.ListProposalsByStatus(ctx, model.StatusDeclined)
	if err != nil {
		t.Fatalf("ListProposalsByStatus: %v", err)
	}
	if len(declined) != 1 || declined[0].ID != b {
		t.Fatalf("declined = %v, want just %s", declined, b)
	}
}

func TestProposalStore_ResponsesDeriveStatus(t *testing.T) {
	ctx := context.Background()
	store := NewProposalStore()
	id, _ := store.CreateProposal(ctx, newProposal("match-1", "dinner"))

	if err := store.UpdateUserResponse(ctx, id, model.ResponseAccepted); err != nil {
		t.Fatalf("UpdateUserResponse: %v", err)
	}
	p, _ := store.GetProposalByID(ctx, id)
	if p.Status != model.StatusUserAccepted {
		t.Fatalf("status = %s, want %s", p.Status, model.StatusUserAccepted)
	}

	if err := store.UpdateMatchResponse(ctx, id, model.ResponseAccepted); err != nil {
		t.Fatalf("UpdateMatchResponse: %v", err)
	}
	p, _ = store.GetProposalByID(ctx, id)
	if p.Status != model.StatusBothAccepted {
		t.Fatalf("status = %s, want %s", p.Status, model.StatusBothAccepted)
	}
}

func TestProposalStore_UnknownIDMutationsFail(t *testing.T) {
	ctx := context.Background()
	store := NewProposalStore()
	unknown := uuid.New()

	if err := store.UpdateStatus(ctx, unknown, model.StatusConfirmed); !errors.Is(err, db.ErrProposalNotFound) {
		t.Fatalf("UpdateStatus: expected ErrProposalNotFound, got %v", err)
	}
	if err := store.AddAccommodation(ctx, unknown, model.DateAccommodation{}); !errors.Is(err, db.ErrProposalNotFound) {
		t.Fatalf("AddAccommodation: expected ErrProposalNotFound, got %v", err)
	}
	if err := store.DeleteProposal(ctx, unknown); !errors.Is(err, db.ErrProposalNotFound) {
		t.Fatalf("DeleteProposal: expected ErrProposalNotFound, got %v", err)
	}
}

func TestProposalStore_Accommodations(t *testing.T) {
	ctx := context.Background()
	store := NewProposalStore()
	id, _ := store.CreateProposal(ctx, newProposal("match-1", "dinner"))

	acc := model.DateAccommodation{
		ID:        uuid.New(),
		Type:      model.AccommodationRestaurant,
		Provider:  "OpenTable",
		Status:    model.AccommodationBooking,
		CreatedAt: time.Now(),
	}
	if err := store.AddAccommodation(ctx, id, acc); err != nil {
		t.Fatalf("AddAccommodation: %v", err)
	}

	if err := store.UpdateAccommodationStatus(ctx, id, acc.ID, model.AccommodationConfirmed, ""); err != nil {
		t.Fatalf("UpdateAccommodationStatus: %v", err)
	}
	p, _ := store.GetProposalByID(ctx, id)
	if got := p.Accommodations[0]; got.Status != model.AccommodationConfirmed || got.ConfirmedAt == nil {
		t.Fatalf("accommodation = %+v, want confirmed with timestamp", got)
	}

	err := store.UpdateAccommodationStatus(ctx, id, uuid.New(), model.AccommodationFailed, "boom")
	if !errors.Is(err, db.ErrAccommodationNotFound) {
		t.Fatalf("expected ErrAccommodationNotFound, got %v", err)
	}
}

func TestProposalStore_DefensiveCopies(t *testing.T) {
	ctx := context.Background()
	store := NewProposalStore()
	id, _ := store.CreateProposal(ctx, newProposal("match-1", "dinner"))

	p, _ := store.GetProposalByID(ctx, id)
	p.Status = model.StatusConfirmed
	p.Accommodations = append(p.Accommodations, model.DateAccommodation{})

	fresh, _ := store.GetProposalByID(ctx, id)
	if fresh.Status != model.StatusProposed || len(fresh.Accommodations) != 0 {
		t.Fatal("store state mutated through a returned copy")
	}
}
