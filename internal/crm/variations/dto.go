package variations

import (
	"github.com/google/uuid"

	"github.com/meridian-esw/meridian-esw/internal/crm/quote"
)

type CreateVariationRequest struct {
	ParentProjectID   *uuid.UUID  `json:"parentProjectId,omitempty"`
	ParentVariationID *uuid.UUID  `json:"parentVariationId,omitempty"`
	Data              quote.Input `json:"data"`
}

type UpdateVariationRequest struct {
	Data quote.Input `json:"data"`
}

type SendApprovalRequest struct {
	Note string `json:"note" validate:"max=2000"`
}

type DecideRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
	Note   string `json:"note" validate:"max=2000"`
}

type ListVariationsRequest struct {
	ParentProject   *uuid.UUID `json:"parentProject,omitempty"`
	ParentVariation *uuid.UUID `json:"parentVariation,omitempty"`
	Page            int        `json:"page" validate:"gte=0"`
	PerPage         int        `json:"perPage" validate:"gte=0,lte=200"`
}
