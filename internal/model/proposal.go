// Copyright (C) 2025 the datecoord maintainers
// See root-dir/LICENSE for more information

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProposalStatus is the aggregate lifecycle state of a date proposal.
// Outside of the externally driven terminal values (declined, completed,
// cancelled) it is always derived from the two response fields and the
// coordination progress, never set independently.
type ProposalStatus string

const (
	StatusProposed      ProposalStatus = "proposed"
	StatusUserAccepted  ProposalStatus = "user_accepted"
	StatusMatchAccepted ProposalStatus = "match_accepted"
	StatusBothAccepted  ProposalStatus = "both_accepted"
	StatusCoordinating  ProposalStatus = "coordinating"
	StatusConfirmed     ProposalStatus = "confirmed"
	StatusDeclined      ProposalStatus = "declined"
	StatusCompleted     ProposalStatus = "completed"
	StatusCancelled     ProposalStatus = "cancelled"
)

func (s ProposalStatus) Valid() bool {
	switch s {
	case StatusProposed, StatusUserAccepted, StatusMatchAccepted,
		StatusBothAccepted, StatusCoordinating, StatusConfirmed,
		StatusDeclined, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further response or coordination can move
// the proposal out of this state.
func (s ProposalStatus) Terminal() bool {
	return s == StatusDeclined || s == StatusCompleted || s == StatusCancelled
}

// Response is one party's answer to a proposal.
type Response string

const (
	ResponsePending  Response = "pending"
	ResponseAccepted Response = "accepted"
	ResponseDeclined Response = "declined"
)

func (r Response) Valid() bool {
	return r == ResponsePending || r == ResponseAccepted || r == ResponseDeclined
}

// ActivityKind is the coarse classification of a proposal's activity,
// decided once at creation time. It drives which accommodation sub-tasks
// the coordinator queues; re-deriving it from free text later would let
// an edited activity string reclassify a proposal mid-flight.
type ActivityKind string

const (
	ActivityDining        ActivityKind = "dining"
	ActivityEntertainment ActivityKind = "entertainment"
	ActivityOther         ActivityKind = "other"
)

var (
	diningTerms        = []string{"dinner", "restaurant", "food", "brunch", "lunch"}
	entertainmentTerms = []string{"concert", "movie", "show", "theater"}
)

// ClassifyActivity maps free-form activity text to an ActivityKind by
// case-insensitive substring match. Dining wins when both term sets
// appear in the text.
func ClassifyActivity(activity string) ActivityKind {
	a := strings.ToLower(activity)
	for _, term := range diningTerms {
		if strings.Contains(a, term) {
			return ActivityDining
		}
	}
	for _, term := range entertainmentTerms {
		if strings.Contains(a, term) {
			return ActivityEntertainment
		}
	}
	return ActivityOther
}

// DateProposal is a single candidate date between the user and one match,
// tracked from proposal through acceptance, coordination and export.
type DateProposal struct {
	ID              uuid.UUID           `json:"id"`
	MatchID         string              `json:"match_id"`
	MatchName       string              `json:"match_name"`
	ProposedBy      string              `json:"proposed_by"`
	DateTime        time.Time           `json:"date_time"`
	Activity        string              `json:"activity"`
	ActivityKind    ActivityKind        `json:"activity_kind"`
	Venue           string              `json:"venue,omitempty"`
	Location        string              `json:"location"`
	Description     string              `json:"description"`
	Status          ProposalStatus      `json:"status"`
	UserResponse    Response            `json:"user_response"`
	MatchResponse   Response            `json:"match_response"`
	Accommodations  []DateAccommodation `json:"accommodations"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	GlimpseID       string              `json:"glimpse_id,omitempty"`
	CalendarEventID string              `json:"calendar_event_id,omitempty"`
}

// DeriveStatus folds the two response axes into the aggregate status for
// a proposal that has not yet started coordinating. A decline on either
// side dominates every other combination.
func DeriveStatus(user, match Response) ProposalStatus {
	if user == ResponseDeclined || match == ResponseDeclined {
		return StatusDeclined
	}
	switch {
	case user == ResponseAccepted && match == ResponseAccepted:
		return StatusBothAccepted
	case user == ResponseAccepted:
		return StatusUserAccepted
	case match == ResponseAccepted:
		return StatusMatchAccepted
	}
	return StatusProposed
}

// Clone returns a deep copy. Stores hand these out so callers can never
// mutate proposal state behind the store's back.
func (p *DateProposal) Clone() *DateProposal {
	cp := *p
	if p.Accommodations != nil {
		cp.Accommodations = make([]DateAccommodation, len(p.Accommodations))
		copy(cp.Accommodations, p.Accommodations)
	}
	return &cp
}

// ConfirmedAccommodation returns the confirmed accommodation of the given
// type, if any.
func (p *DateProposal) ConfirmedAccommodation(t AccommodationType) (DateAccommodation, bool) {
	for _, acc := range p.Accommodations {
		if acc.Type == t && acc.Status == AccommodationConfirmed {
			return acc, true
		}
	}
	return DateAccommodation{}, false
}
