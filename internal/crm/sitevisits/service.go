// Package sitevisits records field reports against leads and projects.
package sitevisits

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-esw/meridian-esw/internal/crm/attachments"
	"github.com/meridian-esw/meridian-esw/internal/shared"
)

// Service provides business logic for site visit operations.
type Service struct {
	repo   Repository
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService constructs a site visit service.
func NewService(repo Repository, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// CreateForLead records a visit against a lead.
func (s *Service) CreateForLead(ctx context.Context, actor shared.Actor, leadID uuid.UUID, req VisitRequest) (*SiteVisit, error) {
	exists, err := s.repo.LeadExists(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.ErrNotFound
	}
	v := newVisit(actor, req)
	v.LeadID = &leadID
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "sitevisit.create", v.ID)
	return &v, nil
}

// CreateForProject records a visit against a project.
func (s *Service) CreateForProject(ctx context.Context, actor shared.Actor, projectID uuid.UUID, req VisitRequest) (*SiteVisit, error) {
	exists, err := s.repo.ProjectExists(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.ErrNotFound
	}
	v := newVisit(actor, req)
	v.ProjectID = &projectID
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "sitevisit.create", v.ID)
	return &v, nil
}

// Update replaces the report fields of a visit. The owning lead or project
// never changes.
func (s *Service) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req VisitRequest) (*SiteVisit, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyRequest(v, req)
	if err := s.repo.Update(ctx, *v); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "sitevisit.update", id)
	return v, nil
}

// AttachFiles appends stored attachment metadata to a visit.
func (s *Service) AttachFiles(ctx context.Context, actor shared.Actor, id uuid.UUID, atts []attachments.Attachment) (*SiteVisit, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v.Attachments = append(v.Attachments, atts...)
	if err := s.repo.Update(ctx, *v); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "sitevisit.attach", id)
	return v, nil
}

// Delete removes a visit.
func (s *Service) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "sitevisit.delete", id)
	return nil
}

// Get fetches one visit.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*SiteVisit, error) {
	return s.repo.Get(ctx, id)
}

// List returns visits for a lead or project, most recent first.
func (s *Service) List(ctx context.Context, req ListVisitsRequest) ([]SiteVisit, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	if items == nil {
		items = []SiteVisit{}
	}
	return items, shared.NewPagination(req.Page, req.PerPage, total), nil
}

func newVisit(actor shared.Actor, req VisitRequest) SiteVisit {
	now := time.Now().UTC()
	v := SiteVisit{
		ID:          uuid.New(),
		Attachments: []attachments.Attachment{},
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	applyRequest(&v, req)
	return v
}

func applyRequest(v *SiteVisit, req VisitRequest) {
	v.VisitAt = req.VisitAt
	v.SiteLocation = req.SiteLocation
	v.EngineerName = req.EngineerName
	v.WorkProgressSummary = req.WorkProgressSummary
	v.SafetyObservations = req.SafetyObservations
	v.QualityMaterialCheck = req.QualityMaterialCheck
	v.IssuesFound = req.IssuesFound
	v.ActionItems = req.ActionItems
	v.WeatherConditions = req.WeatherConditions
	v.Description = req.Description
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Actor, action string, id uuid.UUID) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{ActorID: actor.ID, Action: action, Entity: "site_visit", EntityID: id.String()}); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
