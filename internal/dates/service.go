// Copyright (C) 2025 the datecoord maintainers
// See root-dir/LICENSE for more information

// Package dates holds the proposal lifecycle: creation, the two-sided
// accept/decline state machine, and the status gates the accommodation
// coordinator runs behind.
package dates

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/glimpsed/datecoord/internal/db"
	"github.com/glimpsed/datecoord/internal/model"
)

var (
	// ErrProposalClosed is returned when a response arrives for a
	// proposal that is declined, cancelled, completed, or already past
	// the acceptance phase. A declined proposal can never be
	// resurrected by a late accept.
	ErrProposalClosed = errors.New("proposal no longer accepts responses")

	// ErrNotReady is returned when coordination is requested before
	// both sides have accepted.
	ErrNotReady = errors.New("proposal is not ready for coordination")

	// ErrCoordinationInProgress is returned when coordination is
	// requested while another run holds the proposal.
	ErrCoordinationInProgress = errors.New("coordination already in progress")
)

// Side identifies which party a response belongs to.
type Side string

const (
	SideUser  Side = "user"
	SideMatch Side = "match"
)

func (s Side) Valid() bool { return s == SideUser || s == SideMatch }

// Action is a party's answer to a proposal.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
)

func (a Action) Valid() bool { return a == ActionAccept || a == ActionDecline }

// ProposedByMatchmaker is the only proposal origin the system currently
// produces; proposals are authored by the matchmaking chat, not by
// either party directly.
const ProposedByMatchmaker = "matchmaker"

// NewProposalInput carries the caller-supplied fields of a proposal.
type NewProposalInput struct {
	MatchID     string
	MatchName   string
	DateTime    string
	Activity    string
	Venue       string
	Location    string
	Description string
	GlimpseID   string
}

// Service drives the proposal lifecycle on top of a ProposalStore. All
// read-transition-write sequences for one proposal id run under a
// per-id mutex, so two concurrent accepts cannot both observe the
// both_accepted transition and a decline cannot interleave with a
// coordination start.
type Service struct {
	store  db.ProposalStore
	locks  *keyedMutex
	logger *slog.Logger
}

func NewService(store db.ProposalStore) *Service {
	return &Service{
		store:  store,
		locks:  newKeyedMutex(),
		logger: slog.Default().WithGroup("dates"),
	}
}

// Propose validates the input and persists a new proposal in the
// proposed state. The activity classification is decided here, once,
// and never re-derived from the activity text.
func (s *Service) Propose(ctx context.Context, in NewProposalInput) (*model.DateProposal, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Service.Propose")
	defer span.End()

	dateTime, err := parseDateTime(in.DateTime)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	proposal := &model.DateProposal{
		MatchID:       in.MatchID,
		MatchName:     in.MatchName,
		ProposedBy:    ProposedByMatchmaker,
		DateTime:      dateTime,
		Activity:      in.Activity,
		ActivityKind:  model.ClassifyActivity(in.Activity),
		Venue:         in.Venue,
		Location:      in.Location,
		Description:   in.Description,
		Status:        model.StatusProposed,
		UserResponse:  model.ResponsePending,
		MatchResponse: model.ResponsePending,
		GlimpseID:     in.GlimpseID,
	}

	if err := model.ValidateNewProposal(proposal); err != nil {
		span.RecordError(err)
		return nil, err
	}

	id, err := s.store.CreateProposal(ctx, proposal)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.InfoContext(ctx, "proposal created",
		"proposal", id, "match", proposal.MatchID, "activity_kind", proposal.ActivityKind)

	return s.store.GetProposalByID(ctx, id)
}

// Get returns one proposal by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.DateProposal, error) {
	return s.store.GetProposalByID(ctx, id)
}

// ListFilter narrows List results. Zero values mean no filtering.
type ListFilter struct {
	MatchID string
	Status  model.ProposalStatus
}

// List returns proposals, optionally filtered by match id or status.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*model.DateProposal, error) {
	switch {
	case filter.MatchID != "":
		return s.store.ListProposalsByMatch(ctx, filter.MatchID)
	case filter.Status != "":
		if !filter.Status.Valid() {
			return nil, &model.ValidationError{Field: "status", Reason: "unknown status value"}
		}
		return s.store.ListProposalsByStatus(ctx, filter.Status)
	}
	return s.store.ListProposals(ctx)
}

// Delete removes a proposal and the accommodations it owns.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	unlock := s.locks.lock(id)
	defer unlock()
	return s.store.DeleteProposal(ctx, id)
}

// Respond records one side's answer and folds it into the aggregate
// status. Declined is sticky: once either side declined, or once the
// proposal moved into coordination or a terminal state, any further
// response fails with ErrProposalClosed.
func (s *Service) Respond(ctx context.Context, id uuid.UUID, side Side, action Action) (*model.DateProposal, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Service.Respond")
	defer span.End()

	if !side.Valid() {
		return nil, &model.ValidationError{Field: "side", Reason: "must be user or match"}
	}
	if !action.Valid() {
		return nil, &model.ValidationError{Field: "action", Reason: "must be accept or decline"}
	}

	unlock := s.locks.lock(id)
	defer unlock()

	proposal, err := s.store.GetProposalByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if !acceptsResponses(proposal.Status) {
		span.RecordError(ErrProposalClosed)
		return nil, ErrProposalClosed
	}

	response := model.ResponseAccepted
	if action == ActionDecline {
		response = model.ResponseDeclined
	}

	if side == SideUser {
		err = s.store.UpdateUserResponse(ctx, id, response)
	} else {
		err = s.store.UpdateMatchResponse(ctx, id, response)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	proposal, err = s.store.GetProposalByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "response recorded",
		"proposal", id, "side", side, "action", action, "status", proposal.Status)
	return proposal, nil
}

// acceptsResponses reports whether a proposal in the given status can
// still take an accept or decline. both_accepted still can: a late
// decline overrides it as long as coordination has not started.
func acceptsResponses(status model.ProposalStatus) bool {
	switch status {
	case model.StatusProposed, model.StatusUserAccepted, model.StatusMatchAccepted, model.StatusBothAccepted:
		return true
	}
	return false
}

// BeginCoordination moves a proposal from both_accepted to coordinating
// and hands back a snapshot for the coordinator to work from. When the
// proposal is already confirmed the snapshot is returned with the
// status left untouched, so a re-run can skip sub-tasks that already
// succeeded; callers that find nothing left to do must call
// CompleteCoordination to settle the status back.
func (s *Service) BeginCoordination(ctx context.Context, id uuid.UUID) (*model.DateProposal, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Service.BeginCoordination")
	defer span.End()

	unlock := s.locks.lock(id)
	defer unlock()

	proposal, err := s.store.GetProposalByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	switch proposal.Status {
	case model.StatusBothAccepted, model.StatusConfirmed:
		// Re-coordination of a confirmed proposal only retries the
		// sub-tasks that failed; the coordinator decides which.
	case model.StatusCoordinating:
		span.RecordError(ErrCoordinationInProgress)
		return nil, ErrCoordinationInProgress
	default:
		span.RecordError(ErrNotReady)
		return nil, ErrNotReady
	}

	if err := s.store.UpdateStatus(ctx, id, model.StatusCoordinating); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return proposal, nil
}

// CompleteCoordination settles a coordinating proposal to confirmed.
// Individual booking failures do not prevent confirmation; they are
// visible on each accommodation record.
func (s *Service) CompleteCoordination(ctx context.Context, id uuid.UUID) error {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Service.CompleteCoordination")
	defer span.End()

	unlock := s.locks.lock(id)
	defer unlock()

	if err := s.store.UpdateStatus(ctx, id, model.StatusConfirmed); err != nil {
		span.RecordError(err)
		return err
	}
	s.logger.InfoContext(ctx, "proposal confirmed", "proposal", id)
	return nil
}

// RecordCalendarExport stores the event id acknowledged by a calendar
// provider. Only confirmed proposals export.
func (s *Service) RecordCalendarExport(ctx context.Context, id uuid.UUID, eventID string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	proposal, err := s.store.GetProposalByID(ctx, id)
	if err != nil {
		return err
	}
	if proposal.Status != model.StatusConfirmed {
		return ErrNotReady
	}
	return s.store.UpdateCalendarEventID(ctx, id, eventID)
}
