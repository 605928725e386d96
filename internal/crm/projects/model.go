package projects

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridian-esw/meridian-esw/internal/approval"
	"github.com/meridian-esw/meridian-esw/internal/crm/attachments"
)

// Status enumerates project lifecycle states.
type Status string

const (
	StatusActive    Status = "active"
	StatusOnHold    Status = "on_hold"
	StatusCompleted Status = "completed"
)

// Project is an execution record created once from an approved quotation
// or from the latest approved revision, never both.
type Project struct {
	ID                       uuid.UUID                `json:"id"`
	Name                     string                   `json:"name"`
	LocationDetails          string                   `json:"locationDetails"`
	WorkingHours             string                   `json:"workingHours"`
	ManpowerCount            int                      `json:"manpowerCount"`
	AssignedSiteEngineer     string                   `json:"assignedSiteEngineer"`
	AssignedProjectEngineers []string                 `json:"assignedProjectEngineers"`
	Budget                   float64                  `json:"budget"`
	Status                   Status                   `json:"status"`
	Attachments              []attachments.Attachment `json:"attachments"`
	SourceQuotationID        *uuid.UUID               `json:"sourceQuotationId,omitempty"`
	SourceRevisionID         *uuid.UUID               `json:"sourceRevisionId,omitempty"`
	CreatedBy                uuid.UUID                `json:"createdBy"`
	CreatedAt                time.Time                `json:"createdAt"`
	UpdatedAt                time.Time                `json:"updatedAt"`
}

// SourceQuotation is the slice of a quotation row the creation rules need.
type SourceQuotation struct {
	ID             uuid.UUID
	ApprovalStatus approval.Status
}

// SourceRevision is the slice of a revision row the creation rules need.
type SourceRevision struct {
	ID             uuid.UUID
	QuotationID    uuid.UUID
	RevisionSeq    int
	ApprovalStatus approval.Status
}
