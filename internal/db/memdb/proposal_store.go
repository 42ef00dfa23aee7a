// Copyright (C) 2025 the datecoord maintainers
// See root-dir/LICENSE for more information

package memdb

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/glimpsed/datecoord/internal/db"
	"github.com/glimpsed/datecoord/internal/model"
)

// ProposalStore is an in-memory implementation of db.ProposalStore.
// Proposals live for the process lifetime only. Iteration follows
// insertion order so list results are deterministic.
type ProposalStore struct {
	mu        sync.RWMutex
	proposals map[uuid.UUID]*model.DateProposal
	order     []uuid.UUID
}

// NewProposalStore creates an empty in-memory store.
func NewProposalStore() *ProposalStore {
	return &ProposalStore{
		proposals: make(map[uuid.UUID]*model.DateProposal),
	}
}

// CreateProposal adds a new proposal to the store, assigning an id if the
// caller did not.
func (s *ProposalStore) CreateProposal(ctx context.Context, proposal *model.DateProposal) (uuid.UUID, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "CreateProposal")
	defer span.End()

	span.AddEvent("Lock")
	s.mu.Lock()
	defer span.AddEvent("Unlock")
	defer s.mu.Unlock()

	if proposal.ID == uuid.Nil {
		proposal.ID = uuid.New()
	}

	now := time.Now()
	proposal.CreatedAt = now
	proposal.UpdatedAt = now

	s.proposals[proposal.ID] = proposal.Clone()
	s.order = append(s.order, proposal.ID)

	return proposal.ID, nil
}

// GetProposalByID retrieves a copy of a proposal by id.
func (s *ProposalStore) GetProposalByID(ctx context.Context, id uuid.UUID) (*model.DateProposal, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "GetProposalByID")
	defer span.End()

	span.AddEvent("RLock")
	s.mu.RLock()
	defer span.AddEvent("RUnlock")
	defer s.mu.RUnlock()

	proposal, ok := s.proposals[id]
	if !ok {
		span.RecordError(db.ErrProposalNotFound)
		return nil, db.ErrProposalNotFound
	}
	return proposal.Clone(), nil
}

// ListProposals returns all proposals in insertion order.
func (s *ProposalStore) ListProposals(ctx context.Context) ([]*model.DateProposal, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "ListProposals")
	defer span.End()

	span.AddEvent("RLock")
	s.mu.RLock()
	defer span.AddEvent("RUnlock")
	defer s.mu.RUnlock()

	return s.filter(func(*model.DateProposal) bool { return true }), nil
}

// ListProposalsByMatch returns all proposals with the given match id.
func (s *ProposalStore) ListProposalsByMatch(ctx context.Context, matchID string) ([]*model.DateProposal, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "ListProposalsByMatch")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(func(p *model.DateProposal) bool { return p.MatchID == matchID }), nil
}

// ListProposalsByStatus returns all proposals in the given status.
func (s *ProposalStore) ListProposalsByStatus(ctx context.Context, status model.ProposalStatus) ([]*model.DateProposal, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "ListProposalsByStatus")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(func(p *model.DateProposal) bool { return p.Status == status }), nil
}

// filter returns copies of all proposals matching keep, in insertion
// order. Callers must hold at least a read lock.
func (s *ProposalStore) filter(keep func(*model.DateProposal) bool) []*model.DateProposal {
	out := make([]*model.DateProposal, 0, len(s.order))
	for _, id := range s.order {
		if p, ok := s.proposals[id]; ok && keep(p) {
			out = append(out, p.Clone())
		}
	}
	return out
}

// DeleteProposal removes a proposal and its accommodations.
func (s *ProposalStore) DeleteProposal(ctx context.Context, id uuid.UUID) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "DeleteProposal")
	defer span.End()

	span.AddEvent("Lock")
	s.mu.Lock()
	defer span.AddEvent("Unlock")
	defer s.mu.Unlock()

	if _, ok := s.proposals[id]; !ok {
		span.RecordError(db.ErrProposalNotFound)
		return db.ErrProposalNotFound
	}
	delete(s.proposals, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// UpdateStatus sets the aggregate status of a proposal.
func (s *ProposalStore) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ProposalStatus) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "UpdateStatus")
	defer span.End()

	return s.update(span, id, func(p *model.DateProposal) error {
		p.Status = status
		return nil
	})
}

// UpdateUserResponse records the user's answer and re-derives the
// aggregate status.
func (s *ProposalStore) UpdateUserResponse(ctx context.Context, id uuid.UUID, response model.Response) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "UpdateUserResponse")
	defer span.End()

	return s.update(span, id, func(p *model.DateProposal) error {
		p.UserResponse = response
		p.Status = model.DeriveStatus(p.UserResponse, p.MatchResponse)
		return nil
	})
}

// UpdateMatchResponse records the counterparty's answer and re-derives
// the aggregate status.
func (s *ProposalStore) UpdateMatchResponse(ctx context.Context, id uuid.UUID, response model.Response) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "UpdateMatchResponse")
	defer span.End()

	return s.update(span, id, func(p *model.DateProposal) error {
		p.MatchResponse = response
		p.Status = model.DeriveStatus(p.UserResponse, p.MatchResponse)
		return nil
	})
}

// UpdateCalendarEventID records the id handed back by a calendar
// provider once an export is acknowledged.
func (s *ProposalStore) UpdateCalendarEventID(ctx context.Context, id uuid.UUID, eventID string) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "UpdateCalendarEventID")
	defer span.End()

	return s.update(span, id, func(p *model.DateProposal) error {
		p.CalendarEventID = eventID
		return nil
	})
}

// AddAccommodation appends a booking record to a proposal.
func (s *ProposalStore) AddAccommodation(ctx context.Context, id uuid.UUID, acc model.DateAccommodation) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "AddAccommodation")
	defer span.End()

	return s.update(span, id, func(p *model.DateProposal) error {
		p.Accommodations = append(p.Accommodations, acc)
		return nil
	})
}

// UpdateAccommodationStatus moves one accommodation to a new status,
// stamping ConfirmedAt or the error message for terminal outcomes.
func (s *ProposalStore) UpdateAccommodationStatus(ctx context.Context, id, accID uuid.UUID, status model.AccommodationStatus, errorMessage string) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "UpdateAccommodationStatus")
	defer span.End()

	return s.update(span, id, func(p *model.DateProposal) error {
		for i := range p.Accommodations {
			if p.Accommodations[i].ID != accID {
				continue
			}
			p.Accommodations[i].Status = status
			if errorMessage != "" {
				p.Accommodations[i].ErrorMessage = errorMessage
			}
			if status == model.AccommodationConfirmed {
				now := time.Now()
				p.Accommodations[i].ConfirmedAt = &now
			}
			return nil
		}
		return db.ErrAccommodationNotFound
	})
}

// update applies a targeted mutation under the write lock and bumps
// UpdatedAt. An unknown id is an error, never a silent no-op.
func (s *ProposalStore) update(span trace.Span, id uuid.UUID, mutate func(*model.DateProposal) error) error {
	span.AddEvent("Lock")
	s.mu.Lock()
	defer span.AddEvent("Unlock")
	defer s.mu.Unlock()

	proposal, ok := s.proposals[id]
	if !ok {
		span.RecordError(db.ErrProposalNotFound)
		return db.ErrProposalNotFound
	}
	if err := mutate(proposal); err != nil {
		span.RecordError(err)
		return err
	}
	proposal.UpdatedAt = time.Now()
	return nil
}
