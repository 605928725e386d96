package leads

import "time"

type CreateLeadRequest struct {
	CustomerName      string     `json:"customerName" validate:"required,max=200"`
	ProjectTitle      string     `json:"projectTitle" validate:"required,max=300"`
	EnquiryNumber     string     `json:"enquiryNumber" validate:"max=100"`
	EnquiryDate       *time.Time `json:"enquiryDate,omitempty"`
	ScopeSummary      string     `json:"scopeSummary"`
	SubmissionDueDate *time.Time `json:"submissionDueDate,omitempty"`
}

type UpdateLeadRequest struct {
	CustomerName      *string    `json:"customerName,omitempty" validate:"omitempty,max=200"`
	ProjectTitle      *string    `json:"projectTitle,omitempty" validate:"omitempty,max=300"`
	EnquiryNumber     *string    `json:"enquiryNumber,omitempty" validate:"omitempty,max=100"`
	EnquiryDate       *time.Time `json:"enquiryDate,omitempty"`
	ScopeSummary      *string    `json:"scopeSummary,omitempty"`
	SubmissionDueDate *time.Time `json:"submissionDueDate,omitempty"`
	Status            *Status    `json:"status,omitempty" validate:"omitempty,oneof=draft submitted approved rejected"`
}

type ListLeadsRequest struct {
	Status  *Status `json:"status,omitempty"`
	Search  string  `json:"search,omitempty"`
	Page    int     `json:"page" validate:"gte=0"`
	PerPage int     `json:"perPage" validate:"gte=0,lte=200"`
}
