package revisions

import (
	"github.com/google/uuid"

	"github.com/meridian-esw/meridian-esw/internal/crm/quote"
)

type CreateRevisionRequest struct {
	SourceQuotationID uuid.UUID   `json:"sourceQuotationId" validate:"required"`
	Data              quote.Input `json:"data"`
}

type UpdateRevisionRequest struct {
	Data quote.Input `json:"data"`
}

type SendApprovalRequest struct {
	Note string `json:"note" validate:"max=2000"`
}

type DecideRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
	Note   string `json:"note" validate:"max=2000"`
}

type ListRevisionsRequest struct {
	ParentQuotation *uuid.UUID `json:"parentQuotation,omitempty"`
	Page            int        `json:"page" validate:"gte=0"`
	PerPage         int        `json:"perPage" validate:"gte=0,lte=200"`
}
