package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a missing or malformed field.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidStateTransition indicates an approval or lifecycle action from the wrong state.
	ErrInvalidStateTransition = errors.New("invalid state transition")
	// ErrNoChangesDetected indicates a revision or variation submitted with identical data.
	ErrNoChangesDetected = errors.New("no changes detected")
	// ErrConflictExists indicates a duplicate project, child variation or sibling record.
	ErrConflictExists = errors.New("conflicting record already exists")
	// ErrNotLatestApprovedRevision indicates project creation from a stale revision.
	ErrNotLatestApprovedRevision = errors.New("not the latest approved revision")
	// ErrForbidden indicates the actor lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates a rejected API key or session.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
