// Copyright (C) 2025 the datecoord maintainers
// See root-dir/LICENSE for more information

package db

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/glimpsed/datecoord/internal/model"
)

var (
	// ErrProposalNotFound is returned when an operation references an
	// unknown proposal id. Mutations never silently create or skip a
	// record.
	ErrProposalNotFound = errors.New("date proposal not found")

	// ErrAccommodationNotFound is returned when an accommodation update
	// references an id not attached to the proposal.
	ErrAccommodationNotFound = errors.New("accommodation not found")
)

// ProposalStore is the keyed storage and query surface for date
// proposals. Implementations hand out defensive copies; all mutation
// goes through the targeted update methods so UpdatedAt bookkeeping
// stays centralized. Every update bumps the proposal's UpdatedAt.
type ProposalStore interface {
	CreateProposal(context.Context, *model.DateProposal) (uuid.UUID, error)
	GetProposalByID(context.Context, uuid.UUID) (*model.DateProposal, error)
	ListProposals(context.Context) ([]*model.DateProposal, error)
	ListProposalsByMatch(ctx context.Context, matchID string) ([]*model.DateProposal, error)
	ListProposalsByStatus(ctx context.Context, status model.ProposalStatus) ([]*model.DateProposal, error)
	DeleteProposal(context.Context, uuid.UUID) error

	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ProposalStatus) error
	// UpdateUserResponse and UpdateMatchResponse record one side's answer
	// and re-derive the aggregate status with model.DeriveStatus. Callers
	// are responsible for refusing responses against proposals that have
	// already moved past the acceptance phase.
	UpdateUserResponse(ctx context.Context, id uuid.UUID, response model.Response) error
	UpdateMatchResponse(ctx context.Context, id uuid.UUID, response model.Response) error
	UpdateCalendarEventID(ctx context.Context, id uuid.UUID, eventID string) error
	AddAccommodation(ctx context.Context, id uuid.UUID, acc model.DateAccommodation) error
	UpdateAccommodationStatus(ctx context.Context, id, accID uuid.UUID, status model.AccommodationStatus, errorMessage string) error
}
