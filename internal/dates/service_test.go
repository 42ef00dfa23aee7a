package dates

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/glimpsed/datecoord/internal/db"
	"github.com/glimpsed/datecoord/internal/db/memdb"
	"github.com/glimpsed/datecoord/internal/model"
)

func validInput() NewProposalInput {
	return NewProposalInput{
		MatchID:     "match-1",
		MatchName:   "James",
		DateTime:    "2025-10-25T19:00:00Z",
		Activity:    "dinner reservation",
		Location:    "Downtown LA",
		Description: "Dinner at a rooftop place",
	}
}

func newService() *Service {
	return NewService(memdb.NewProposalStore())
}

func TestService_Propose(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	p, err := svc.Propose(ctx, validInput())
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if p.Status != model.StatusProposed {
		t.Fatalf("status = %s, want proposed", p.Status)
	}
	if p.UserResponse != model.ResponsePending || p.MatchResponse != model.ResponsePending {
		t.Fatal("responses should start pending")
	}
	if p.ActivityKind != model.ActivityDining {
		t.Fatalf("activity kind = %s, want dining", p.ActivityKind)
	}
	if p.ProposedBy != ProposedByMatchmaker {
		t.Fatalf("proposed by = %s, want matchmaker", p.ProposedBy)
	}
}

func TestService_ProposeValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	tt := []struct {
		name   string
		mutate func(*NewProposalInput)
	}{
		{name: "missing match id", mutate: func(in *NewProposalInput) { in.MatchID = "" }},
		{name: "missing date time", mutate: func(in *NewProposalInput) { in.DateTime = "" }},
		{name: "bad date time", mutate: func(in *NewProposalInput) { in.DateTime = "next friday" }},
		{name: "missing activity", mutate: func(in *NewProposalInput) { in.Activity = "" }},
		{name: "missing description", mutate: func(in *NewProposalInput) { in.Description = "" }},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := svc.Propose(ctx, in)
			var verr *model.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestService_RespondStatusProgression(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	p, _ := svc.Propose(ctx, validInput())

	p, err := svc.Respond(ctx, p.ID, SideUser, ActionAccept)
	if err != nil {
		t.Fatalf("user accept: %v", err)
	}
	if p.Status != model.StatusUserAccepted {
		t.Fatalf("status = %s, want user_accepted", p.Status)
	}

	p, err = svc.Respond(ctx, p.ID, SideMatch, ActionAccept)
	if err != nil {
		t.Fatalf("match accept: %v", err)
	}
	if p.Status != model.StatusBothAccepted {
		t.Fatalf("status = %s, want both_accepted", p.Status)
	}
}

func TestService_DeclineIsSticky(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	p, _ := svc.Propose(ctx, validInput())

	if _, err := svc.Respond(ctx, p.ID, SideMatch, ActionDecline); err != nil {
		t.Fatalf("decline: %v", err)
	}

	// A late accept from either side must not resurrect the proposal.
	if _, err := svc.Respond(ctx, p.ID, SideUser, ActionAccept); !errors.Is(err, ErrProposalClosed) {
		t.Fatalf("expected ErrProposalClosed, got %v", err)
	}
	if _, err := svc.Respond(ctx, p.ID, SideMatch, ActionAccept); !errors.Is(err, ErrProposalClosed) {
		t.Fatalf("expected ErrProposalClosed, got %v", err)
	}

	got, _ := svc.Get(ctx, p.ID)
	if got.Status != model.StatusDeclined {
		t.Fatalf("status = %s, want declined", got.Status)
	}
}

func TestService_DeclineOverridesBothAccepted(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	p, _ := svc.Propose(ctx, validInput())

	svc.Respond(ctx, p.ID, SideUser, ActionAccept)
	svc.Respond(ctx, p.ID, SideMatch, ActionAccept)

	// Decline before coordination starts still wins.
	got, err := svc.Respond(ctx, p.ID, SideUser, ActionDecline)
	if err != nil {
		t.Fatalf("decline after both accepted: %v", err)
	}
	if got.Status != model.StatusDeclined {
		t.Fatalf("status = %s, want declined", got.Status)
	}
}

func TestService_RespondValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	p, _ := svc.Propose(ctx, validInput())

	var verr *model.ValidationError
	if _, err := svc.Respond(ctx, p.ID, Side("nobody"), ActionAccept); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for side, got %v", err)
	}
	if _, err := svc.Respond(ctx, p.ID, SideUser, Action("maybe")); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for action, got %v", err)
	}
	if _, err := svc.Respond(ctx, uuid.New(), SideUser, ActionAccept); !errors.Is(err, db.ErrProposalNotFound) {
		t.Fatalf("expected ErrProposalNotFound, got %v", err)
	}
}

func TestService_BeginCoordinationGates(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	p, _ := svc.Propose(ctx, validInput())

	if _, err := svc.BeginCoordination(ctx, p.ID); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady before acceptance, got %v", err)
	}

	svc.Respond(ctx, p.ID, SideUser, ActionAccept)
	svc.Respond(ctx, p.ID, SideMatch, ActionAccept)

	snap, err := svc.BeginCoordination(ctx, p.ID)
	if err != nil {
		t.Fatalf("BeginCoordination: %v", err)
	}
	if snap.Status != model.StatusBothAccepted {
		t.Fatalf("snapshot status = %s, want both_accepted", snap.Status)
	}

	got, _ := svc.Get(ctx, p.ID)
	if got.Status != model.StatusCoordinating {
		t.Fatalf("status = %s, want coordinating", got.Status)
	}

	// Second coordination attempt while running is rejected.
	if _, err := svc.BeginCoordination(ctx, p.ID); !errors.Is(err, ErrCoordinationInProgress) {
		t.Fatalf("expected ErrCoordinationInProgress, got %v", err)
	}

	// Responses are closed once coordination started.
	if _, err := svc.Respond(ctx, p.ID, SideUser, ActionDecline); !errors.Is(err, ErrProposalClosed) {
		t.Fatalf("expected ErrProposalClosed, got %v", err)
	}

	if err := svc.CompleteCoordination(ctx, p.ID); err != nil {
		t.Fatalf("CompleteCoordination: %v", err)
	}
	got, _ = svc.Get(ctx, p.ID)
	if got.Status != model.StatusConfirmed {
		t.Fatalf("status = %s, want confirmed", got.Status)
	}
}

func TestService_ConcurrentAcceptsSingleTrigger(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	p, _ := svc.Propose(ctx, validInput())

	var wg sync.WaitGroup
	observed := make(chan model.ProposalStatus, 2)
	respond := func(side Side) {
		defer wg.Done()
		got, err := svc.Respond(ctx, p.ID, side, ActionAccept)
		if err != nil {
			t.Errorf("respond %s: %v", side, err)
			return
		}
		observed <- got.Status
	}

	wg.Add(2)
	go respond(SideUser)
	go respond(SideMatch)
	wg.Wait()
	close(observed)

	// Exactly one caller observes the both_accepted transition.
	var triggers int
	for status := range observed {
		if status == model.StatusBothAccepted {
			triggers++
		}
	}
	if triggers != 1 {
		t.Fatalf("both_accepted observed %d times, want exactly once", triggers)
	}
}

func TestService_RecordCalendarExport(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	p, _ := svc.Propose(ctx, validInput())

	if err := svc.RecordCalendarExport(ctx, p.ID, "evt-1"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady before confirmation, got %v", err)
	}

	svc.Respond(ctx, p.ID, SideUser, ActionAccept)
	svc.Respond(ctx, p.ID, SideMatch, ActionAccept)
	svc.BeginCoordination(ctx, p.ID)
	svc.CompleteCoordination(ctx, p.ID)

	if err := svc.RecordCalendarExport(ctx, p.ID, "evt-1"); err != nil {
		t.Fatalf("RecordCalendarExport: %v", err)
	}
	got, _ := svc.Get(ctx, p.ID)
	if got.CalendarEventID != "evt-1" {
		t.Fatalf("calendar event id = %s, want evt-1", got.CalendarEventID)
	}
}
