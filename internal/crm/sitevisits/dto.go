package sitevisits

import (
	"time"

	"github.com/google/uuid"
)

type VisitRequest struct {
	VisitAt              time.Time `json:"visitAt" validate:"required"`
	SiteLocation         string    `json:"siteLocation" validate:"required,max=300"`
	EngineerName         string    `json:"engineerName" validate:"required,max=200"`
	WorkProgressSummary  string    `json:"workProgressSummary"`
	SafetyObservations   string    `json:"safetyObservations"`
	QualityMaterialCheck string    `json:"qualityMaterialCheck"`
	IssuesFound          string    `json:"issuesFound"`
	ActionItems          string    `json:"actionItems"`
	WeatherConditions    string    `json:"weatherConditions" validate:"max=200"`
	Description          string    `json:"description"`
}

type ListVisitsRequest struct {
	LeadID    *uuid.UUID `json:"leadId,omitempty"`
	ProjectID *uuid.UUID `json:"projectId,omitempty"`
	Page      int        `json:"page" validate:"gte=0"`
	PerPage   int        `json:"perPage" validate:"gte=0,lte=200"`
}
