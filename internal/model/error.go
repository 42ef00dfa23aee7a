// Copyright (C) 2025 the datecoord maintainers
// See root-dir/LICENSE for more information

package model

import "fmt"

// ValidationError reports a missing or malformed input field. It is
// surfaced to the caller immediately and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func missingField(name string) *ValidationError {
	return &ValidationError{Field: name, Reason: "required"}
}

// ValidateNewProposal checks the caller-supplied fields of a proposal
// before it is handed to a store.
func ValidateNewProposal(p *DateProposal) error {
	if p.MatchID == "" {
		return missingField("match_id")
	}
	if p.MatchName == "" {
		return missingField("match_name")
	}
	if p.DateTime.IsZero() {
		return missingField("date_time")
	}
	if p.Activity == "" {
		return missingField("activity")
	}
	if p.Location == "" {
		return missingField("location")
	}
	if p.Description == "" {
		return missingField("description")
	}
	return nil
}
