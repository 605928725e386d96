package quotations

import (
	"github.com/google/uuid"

	"github.com/meridian-esw/meridian-esw/internal/crm/quote"
)

type CreateQuotationRequest struct {
	LeadID uuid.UUID   `json:"leadId" validate:"required"`
	Data   quote.Input `json:"data"`
}

type UpdateQuotationRequest struct {
	Data quote.Input `json:"data"`
}

type SendApprovalRequest struct {
	Note string `json:"note" validate:"max=2000"`
}

type DecideRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
	Note   string `json:"note" validate:"max=2000"`
}

type ListQuotationsRequest struct {
	LeadID         *uuid.UUID `json:"leadId,omitempty"`
	ApprovalStatus *string    `json:"approvalStatus,omitempty" validate:"omitempty,oneof=pending approved rejected"`
	Search         string     `json:"search,omitempty"`
	Page           int        `json:"page" validate:"gte=0"`
	PerPage        int        `json:"perPage" validate:"gte=0,lte=200"`
}
