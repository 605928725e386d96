package leads

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridian-esw/meridian-esw/internal/crm/attachments"
	"github.com/meridian-esw/meridian-esw/internal/editlog"
)

// Status enumerates lead lifecycle states. Converted is terminal and only
// reachable through the explicit convert action.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusConverted Status = "converted"
)

// Lead is a sales enquiry that quotations are created against.
type Lead struct {
	ID                uuid.UUID                `json:"id"`
	CustomerName      string                   `json:"customerName"`
	ProjectTitle      string                   `json:"projectTitle"`
	EnquiryNumber     string                   `json:"enquiryNumber"`
	EnquiryDate       *time.Time               `json:"enquiryDate,omitempty"`
	ScopeSummary      string                   `json:"scopeSummary"`
	SubmissionDueDate *time.Time               `json:"submissionDueDate,omitempty"`
	Status            Status                   `json:"status"`
	Attachments       []attachments.Attachment `json:"attachments"`
	Edits             []editlog.Entry          `json:"edits"`
	CreatedBy         uuid.UUID                `json:"createdBy"`
	CreatedAt         time.Time                `json:"createdAt"`
	UpdatedAt         time.Time                `json:"updatedAt"`
}

// trackedFields lists the fields the edit log compares.
func trackedFields() []string {
	return []string{
		"customerName",
		"projectTitle",
		"enquiryNumber",
		"enquiryDate",
		"scopeSummary",
		"submissionDueDate",
		"status",
	}
}

func (l Lead) snapshot() map[string]any {
	return map[string]any{
		"customerName":      l.CustomerName,
		"projectTitle":      l.ProjectTitle,
		"enquiryNumber":     l.EnquiryNumber,
		"enquiryDate":       l.EnquiryDate,
		"scopeSummary":      l.ScopeSummary,
		"submissionDueDate": l.SubmissionDueDate,
		"status":            l.Status,
	}
}
