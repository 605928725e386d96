package revisions

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridian-esw/meridian-esw/internal/approval"
	"github.com/meridian-esw/meridian-esw/internal/crm/quote"
	"github.com/meridian-esw/meridian-esw/internal/editlog"
)

// Revision is a quotation-shaped document branched off an approved
// quotation. It carries its own approval cycle and edit history; the
// parent quotation is never modified by revision activity.
type Revision struct {
	ID             uuid.UUID `json:"id"`
	QuotationID    uuid.UUID `json:"parentQuotationId"`
	LeadID         uuid.UUID `json:"leadId"`
	RevisionNumber string    `json:"revisionNumber"`
	RevisionSeq    int       `json:"revisionSeq"`

	quote.Content

	Approval  approval.State  `json:"managementApproval"`
	Edits     []editlog.Entry `json:"edits"`
	CreatedBy uuid.UUID       `json:"createdBy"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ParentQuotation is the slice of the parent row the lineage rules need.
type ParentQuotation struct {
	ID             uuid.UUID
	LeadID         uuid.UUID
	Content        quote.Content
	ApprovalStatus approval.Status
}
