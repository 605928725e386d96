// Package projects creates execution records from approved quotations and
// revisions, enforcing the one-project-per-source lineage rules.
package projects

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-esw/meridian-esw/internal/approval"
	"github.com/meridian-esw/meridian-esw/internal/crm/attachments"
	"github.com/meridian-esw/meridian-esw/internal/shared"
)

// Service provides business logic for project operations.
type Service struct {
	repo   Repository
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService constructs a project service.
func NewService(repo Repository, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// CreateFromQuotation creates the project directly from an approved
// quotation. Allowed only when the quotation has no revisions at all; once
// revisions exist the project must come from the latest approved revision.
func (s *Service) CreateFromQuotation(ctx context.Context, actor shared.Actor, quotationID uuid.UUID, req CreateProjectRequest) (*Project, error) {
	var created *Project
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		src, err := tx.LockSourceQuotation(ctx, quotationID)
		if err != nil {
			return err
		}
		if src.ApprovalStatus != approval.StatusApproved {
			return fmt.Errorf("%w: quotation is not approved", shared.ErrInvalidStateTransition)
		}
		exists, err := tx.ExistsByQuotation(ctx, quotationID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: a project already exists for this quotation", shared.ErrConflictExists)
		}
		revisions, err := tx.CountRevisions(ctx, quotationID)
		if err != nil {
			return err
		}
		if revisions > 0 {
			return fmt.Errorf("%w: revisions exist, create the project from the latest approved revision", shared.ErrConflictExists)
		}

		p := newProject(actor, req)
		p.SourceQuotationID = &quotationID
		if err := tx.Create(ctx, p); err != nil {
			return err
		}
		created = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "project.create_from_quotation", created.ID)
	return created, nil
}

// CreateFromRevision creates the project from an approved revision, which
// must be the latest approved revision of its quotation by numeric suffix.
func (s *Service) CreateFromRevision(ctx context.Context, actor shared.Actor, revisionID uuid.UUID, req CreateProjectRequest) (*Project, error) {
	var created *Project
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		src, err := tx.LockSourceRevision(ctx, revisionID)
		if err != nil {
			return err
		}
		if src.ApprovalStatus != approval.StatusApproved {
			return fmt.Errorf("%w: revision is not approved", shared.ErrInvalidStateTransition)
		}
		exists, err := tx.ExistsByRevision(ctx, revisionID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: a project already exists for this revision", shared.ErrConflictExists)
		}
		latest, err := tx.MaxApprovedRevisionSeq(ctx, src.QuotationID)
		if err != nil {
			return err
		}
		if src.RevisionSeq != latest {
			return fmt.Errorf("%w: revision %d is superseded by revision %d", shared.ErrNotLatestApprovedRevision, src.RevisionSeq, latest)
		}

		p := newProject(actor, req)
		p.SourceRevisionID = &revisionID
		if err := tx.Create(ctx, p); err != nil {
			return err
		}
		created = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "project.create_from_revision", created.ID)
	return created, nil
}

// Update applies a partial update to the project record.
func (s *Service) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateProjectRequest) (*Project, error) {
	var updated *Project
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		p, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if req.Name != nil {
			p.Name = *req.Name
		}
		if req.LocationDetails != nil {
			p.LocationDetails = *req.LocationDetails
		}
		if req.WorkingHours != nil {
			p.WorkingHours = *req.WorkingHours
		}
		if req.ManpowerCount != nil {
			p.ManpowerCount = *req.ManpowerCount
		}
		if req.AssignedSiteEngineer != nil {
			p.AssignedSiteEngineer = *req.AssignedSiteEngineer
		}
		if req.AssignedProjectEngineers != nil {
			p.AssignedProjectEngineers = req.AssignedProjectEngineers
		}
		if req.Budget != nil {
			p.Budget = *req.Budget
		}
		if req.Status != nil {
			p.Status = *req.Status
		}
		if err := tx.Update(ctx, *p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "project.update", id)
	return updated, nil
}

// AttachFiles appends stored attachment metadata to a project.
func (s *Service) AttachFiles(ctx context.Context, actor shared.Actor, id uuid.UUID, atts []attachments.Attachment) (*Project, error) {
	if len(atts) == 0 {
		return s.Get(ctx, id)
	}
	var updated *Project
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		p, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		p.Attachments = append(p.Attachments, atts...)
		if err := tx.Update(ctx, *p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "project.attach", id)
	return updated, nil
}

// Get fetches one project.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	return s.repo.Get(ctx, id)
}

// GetByQuotation looks up the project created from a quotation.
func (s *Service) GetByQuotation(ctx context.Context, quotationID uuid.UUID) (*Project, error) {
	return s.repo.GetByQuotation(ctx, quotationID)
}

// GetByRevision looks up the project created from a revision.
func (s *Service) GetByRevision(ctx context.Context, revisionID uuid.UUID) (*Project, error) {
	return s.repo.GetByRevision(ctx, revisionID)
}

// List returns projects matching the filter, newest first.
func (s *Service) List(ctx context.Context, req ListProjectsRequest) ([]Project, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	if items == nil {
		items = []Project{}
	}
	return items, shared.NewPagination(req.Page, req.PerPage, total), nil
}

func newProject(actor shared.Actor, req CreateProjectRequest) Project {
	now := time.Now().UTC()
	engineers := req.AssignedProjectEngineers
	if engineers == nil {
		engineers = []string{}
	}
	return Project{
		ID:                       uuid.New(),
		Name:                     req.Name,
		LocationDetails:          req.LocationDetails,
		WorkingHours:             req.WorkingHours,
		ManpowerCount:            req.ManpowerCount,
		AssignedSiteEngineer:     req.AssignedSiteEngineer,
		AssignedProjectEngineers: engineers,
		Budget:                   req.Budget,
		Status:                   StatusActive,
		Attachments:              []attachments.Attachment{},
		CreatedBy:                actor.ID,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Actor, action string, id uuid.UUID) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{ActorID: actor.ID, Action: action, Entity: "project", EntityID: id.String()}); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
