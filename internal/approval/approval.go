// Package approval implements the management approval state machine
// embedded in quotations, revisions and project variations.
package approval

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-esw/meridian-esw/internal/shared"
)

// Status enumerates approval states.
type Status string

const (
	// StatusUnset means approval has never been requested.
	StatusUnset Status = ""
	// StatusPending means a request is awaiting a decision.
	StatusPending Status = "pending"
	// StatusApproved means the latest cycle ended in approval.
	StatusApproved Status = "approved"
	// StatusRejected means the latest cycle ended in rejection.
	StatusRejected Status = "rejected"
)

// LogEntry is one record in the chronological approval log. A pending entry
// opens a cycle; the following approved/rejected entry closes it.
type LogEntry struct {
	Status      Status     `json:"status"`
	At          time.Time  `json:"at"`
	RequestedBy *uuid.UUID `json:"requestedBy,omitempty"`
	DecidedBy   *uuid.UUID `json:"decidedBy,omitempty"`
	Note        string     `json:"note,omitempty"`
}

// State is the managementApproval sub-entity. Logs are append-only; cycles
// are always derived from them, never stored separately.
type State struct {
	Status      Status     `json:"status"`
	RequestedBy *uuid.UUID `json:"requestedBy,omitempty"`
	Note        string     `json:"note,omitempty"`
	ApprovedBy  *uuid.UUID `json:"approvedBy,omitempty"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	Logs        []LogEntry `json:"logs"`
}

// SendForApproval opens a new approval cycle. Allowed from unset or
// rejected; an approved document is immutable and must go through a
// revision instead.
func (s *State) SendForApproval(actor shared.Actor, note string, now time.Time) error {
	switch s.Status {
	case StatusUnset, StatusRejected:
	default:
		return fmt.Errorf("%w: cannot send for approval from %q", shared.ErrInvalidStateTransition, s.Status)
	}
	requestedBy := actor.ID
	s.Logs = append(s.Logs, LogEntry{
		Status:      StatusPending,
		At:          now,
		RequestedBy: &requestedBy,
		Note:        note,
	})
	s.Status = StatusPending
	s.RequestedBy = &requestedBy
	s.Note = note
	return nil
}

// Decide closes the open cycle. Only pending documents can be decided, and
// only by a manager or admin.
func (s *State) Decide(actor shared.Actor, decision Status, note string, now time.Time) error {
	if decision != StatusApproved && decision != StatusRejected {
		return fmt.Errorf("%w: decision must be approved or rejected", shared.ErrValidation)
	}
	if !actor.Privileged() {
		// Wrong-role decisions surface as invalid transitions, not plain 403s.
		return fmt.Errorf("%w: %w: approval decisions require a manager role",
			shared.ErrInvalidStateTransition, shared.ErrForbidden)
	}
	if s.Status != StatusPending {
		return fmt.Errorf("%w: cannot decide from %q", shared.ErrInvalidStateTransition, s.Status)
	}
	decidedBy := actor.ID
	s.Logs = append(s.Logs, LogEntry{
		Status:    decision,
		At:        now,
		DecidedBy: &decidedBy,
		Note:      note,
	})
	s.Status = decision
	if decision == StatusApproved {
		at := now
		s.ApprovedBy = &decidedBy
		s.ApprovedAt = &at
	}
	return nil
}

// Cycle pairs one request-for-approval with its eventual decision. An open
// cycle has no decision yet.
type Cycle struct {
	RequestedBy  *uuid.UUID
	RequestedAt  time.Time
	RequestNote  string
	Decision     Status
	DecidedBy    *uuid.UUID
	DecidedAt    *time.Time
	DecisionNote string
}

// Open reports whether the cycle is still awaiting a decision.
func (c Cycle) Open() bool {
	return c.Decision == StatusUnset
}

// Cycles reconstructs approval cycles from the chronological log by pairing
// each pending entry with the following decision entry.
func Cycles(logs []LogEntry) []Cycle {
	var cycles []Cycle
	for _, entry := range logs {
		switch entry.Status {
		case StatusPending:
			cycles = append(cycles, Cycle{
				RequestedBy: entry.RequestedBy,
				RequestedAt: entry.At,
				RequestNote: entry.Note,
			})
		case StatusApproved, StatusRejected:
			if len(cycles) == 0 {
				// Decision without a request; malformed log, skip.
				continue
			}
			last := &cycles[len(cycles)-1]
			if !last.Open() {
				continue
			}
			at := entry.At
			last.Decision = entry.Status
			last.DecidedBy = entry.DecidedBy
			last.DecidedAt = &at
			last.DecisionNote = entry.Note
		}
	}
	return cycles
}
