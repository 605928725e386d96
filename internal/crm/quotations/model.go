package quotations

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridian-esw/meridian-esw/internal/approval"
	"github.com/meridian-esw/meridian-esw/internal/crm/quote"
	"github.com/meridian-esw/meridian-esw/internal/editlog"
)

// Quotation is a commercial offer created against a lead. The quotation
// shape (quote.Content) is shared with revisions and project variations.
type Quotation struct {
	ID     uuid.UUID `json:"id"`
	LeadID uuid.UUID `json:"leadId"`

	quote.Content

	Approval  approval.State  `json:"managementApproval"`
	Edits     []editlog.Entry `json:"edits"`
	CreatedBy uuid.UUID       `json:"createdBy"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
