// Copyright (C) 2025 the datecoord maintainers
// See root-dir/LICENSE for more information

package kvdb

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
	"go.opentelemetry.io/otel/trace"

	"github.com/glimpsed/datecoord/internal/db"
	"github.com/glimpsed/datecoord/internal/model"
)

const bucketProposal = "proposal_store"

// NewProposalStore returns a bbolt-backed db.ProposalStore. Proposals
// are stored JSON-encoded under their uuid bytes; bbolt iterates keys in
// byte order, so listings are key-ordered rather than insertion-ordered.
func NewProposalStore(database *bolt.DB) (*ProposalStore, error) {
	return &ProposalStore{db: database}, database.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketProposal))
		return err
	})
}

type ProposalStore struct {
	db *bolt.DB
}

func (s *ProposalStore) CreateProposal(ctx context.Context, proposal *model.DateProposal) (uuid.UUID, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "CreateProposal")
	defer span.End()

	if proposal.ID == uuid.Nil {
		proposal.ID = uuid.New()
	}
	now := time.Now()
	proposal.CreatedAt = now
	proposal.UpdatedAt = now

	return proposal.ID, s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketProposal))
		j, err := json.Marshal(proposal)
		if err != nil {
			span.RecordError(err)
			return err
		}
		return bucket.Put(proposal.ID[:], j)
	})
}

func (s *ProposalStore) GetProposalByID(ctx context.Context, id uuid.UUID) (*model.DateProposal, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "GetProposalByID")
	defer span.End()

	proposal := &model.DateProposal{}
	return proposal, s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketProposal))
		res := bucket.Get(id[:])
		if res == nil {
			span.RecordError(db.ErrProposalNotFound)
			return db.ErrProposalNotFound
		}
		return json.Unmarshal(res, proposal)
	})
}

func (s *ProposalStore) ListProposals(ctx context.Context) ([]*model.DateProposal, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "ListProposals")
	defer span.End()

	return s.list(func(*model.DateProposal) bool { return true })
}

func (s *ProposalStore) ListProposalsByMatch(ctx context.Context, matchID string) ([]*model.DateProposal, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "ListProposalsByMatch")
	defer span.End()

	return s.list(func(p *model.DateProposal) bool { return p.MatchID == matchID })
}

func (s *ProposalStore) ListProposalsByStatus(ctx context.Context, status model.ProposalStatus) ([]*model.DateProposal, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "ListProposalsByStatus")
	defer span.End()

	return s.list(func(p *model.DateProposal) bool { return p.Status == status })
}

func (s *ProposalStore) list(keep func(*model.DateProposal) bool) ([]*model.DateProposal, error) {
	var proposals []*model.DateProposal
	return proposals, s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketProposal))
		return bucket.ForEach(func(_, v []byte) error {
			proposal := &model.DateProposal{}
			if err := json.Unmarshal(v, proposal); err != nil {
				return err
			}
			if keep(proposal) {
				proposals = append(proposals, proposal)
			}
			return nil
		})
	})
}

func (s *ProposalStore) DeleteProposal(ctx context.Context, id uuid.UUID) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "DeleteProposal")
	defer span.End()

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketProposal))
		if bucket.Get(id[:]) == nil {
			span.RecordError(db.ErrProposalNotFound)
			return db.ErrProposalNotFound
		}
		return bucket.Delete(id[:])
	})
}

func (s *ProposalStore) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ProposalStatus) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "UpdateStatus")
	defer span.End()

	return s.update(span, id, func(p *model.DateProposal) error {
		p.Status = status
		return nil
	})
}

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

func (s *ProposalStore) UpdateCalendarEventID(ctx context.Context, id uuid.UUID, eventID string) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "UpdateCalendarEventID")
	defer span.End()

	return s.update(span, id, func(p *model.DateProposal) error {
		p.CalendarEventID = eventID
		return nil
	})
}

func (s *ProposalStore) AddAccommodation(ctx context.Context, id uuid.UUID, acc model.DateAccommodation) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "AddAccommodation")
	defer span.End()

	return s.update(span, id, func(p *model.DateProposal) error {
		p.Accommodations = append(p.Accommodations, acc)
		return nil
	})
}

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

// update runs a read-modify-write of one proposal inside a single bbolt
// transaction and bumps UpdatedAt.
func (s *ProposalStore) update(span trace.Span, id uuid.UUID, mutate func(*model.DateProposal) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketProposal))
		res := bucket.Get(id[:])
		if res == nil {
			span.RecordError(db.ErrProposalNotFound)
			return db.ErrProposalNotFound
		}
		proposal := &model.DateProposal{}
		if err := json.Unmarshal(res, proposal); err != nil {
			return err
		}
		if err := mutate(proposal); err != nil {
			span.RecordError(err)
			return err
		}
		proposal.UpdatedAt = time.Now()
		j, err := json.Marshal(proposal)
		if err != nil {
			return err
		}
		return bucket.Put(id[:], j)
	})
}
