package sitevisits

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridian-esw/meridian-esw/internal/crm/attachments"
)

// SiteVisit is a field report owned by exactly one lead or one project.
type SiteVisit struct {
	ID                   uuid.UUID                `json:"id"`
	LeadID               *uuid.UUID               `json:"leadId,omitempty"`
	ProjectID            *uuid.UUID               `json:"projectId,omitempty"`
	VisitAt              time.Time                `json:"visitAt"`
	SiteLocation         string                   `json:"siteLocation"`
	EngineerName         string                   `json:"engineerName"`
	WorkProgressSummary  string                   `json:"workProgressSummary"`
	SafetyObservations   string                   `json:"safetyObservations"`
	QualityMaterialCheck string                   `json:"qualityMaterialCheck"`
	IssuesFound          string                   `json:"issuesFound"`
	ActionItems          string                   `json:"actionItems"`
	WeatherConditions    string                   `json:"weatherConditions"`
	Description          string                   `json:"description"`
	Attachments          []attachments.Attachment `json:"attachments"`
	CreatedBy            uuid.UUID                `json:"createdBy"`
	CreatedAt            time.Time                `json:"createdAt"`
	UpdatedAt            time.Time                `json:"updatedAt"`
}
