package variations

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridian-esw/meridian-esw/internal/approval"
	"github.com/meridian-esw/meridian-esw/internal/crm/quote"
	"github.com/meridian-esw/meridian-esw/internal/editlog"
)

// Variation is a quotation-shaped contract variation. Its parent is either
// the project itself or one approved variation, forming a singly linked
// chain per project. DiffFromParent is computed once at creation and never
// recomputed.
type Variation struct {
	ID                uuid.UUID  `json:"id"`
	ProjectID         uuid.UUID  `json:"parentProjectId"`
	ParentVariationID *uuid.UUID `json:"parentVariationId,omitempty"`
	VariationNumber   int        `json:"variationNumber"`

	quote.Content

	DiffFromParent []editlog.Change `json:"diffFromParent"`
	Approval       approval.State   `json:"managementApproval"`
	Edits          []editlog.Entry  `json:"edits"`
	CreatedBy      uuid.UUID        `json:"createdBy"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// ProjectRef is the slice of the project row variation creation needs.
type ProjectRef struct {
	ID                uuid.UUID
	SourceQuotationID *uuid.UUID
	SourceRevisionID  *uuid.UUID
}
