// Package variations chains contract variations off projects and approved
// variations, each carrying a diff against its parent computed at creation.
package variations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-esw/meridian-esw/internal/approval"
	"github.com/meridian-esw/meridian-esw/internal/crm/quote"
	"github.com/meridian-esw/meridian-esw/internal/editlog"
	"github.com/meridian-esw/meridian-esw/internal/shared"
)

// Service provides business logic for project variation operations.
type Service struct {
	repo   Repository
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService constructs a variation service.
func NewService(repo Repository, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Create adds a variation rooted at a project or chained off an approved,
// childless variation. The parent is exactly one of the two. The variation
// number is the next integer in the project-wide sequence regardless of
// where in the chain the variation sits.
func (s *Service) Create(ctx context.Context, actor shared.Actor, req CreateVariationRequest) (*Variation, error) {
	if (req.ParentProjectID == nil) == (req.ParentVariationID == nil) {
		return nil, fmt.Errorf("%w: exactly one of parentProjectId or parentVariationId is required", shared.ErrValidation)
	}
	content, err := req.Data.Resolve()
	if err != nil {
		return nil, err
	}

	var created *Variation
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		var projectID uuid.UUID
		var parentVariationID *uuid.UUID
		var parentContent quote.Content

		if req.ParentVariationID != nil {
			parent, err := tx.Get(ctx, *req.ParentVariationID)
			if err != nil {
				return err
			}
			if parent.Approval.Status != approval.StatusApproved {
				return fmt.Errorf("%w: parent variation is not approved", shared.ErrInvalidStateTransition)
			}
			hasChild, err := tx.HasChild(ctx, parent.ID)
			if err != nil {
				return err
			}
			if hasChild {
				return fmt.Errorf("%w: parent variation already has a child", shared.ErrConflictExists)
			}
			projectID = parent.ProjectID
			parentVariationID = &parent.ID
			parentContent = parent.Content
		} else {
			projectID = *req.ParentProjectID
		}

		project, err := tx.LockProject(ctx, projectID)
		if err != nil {
			return err
		}
		if parentVariationID == nil {
			parentContent, err = sourceContent(ctx, tx, project)
			if err != nil {
				return err
			}
		}

		maxNumber, err := tx.MaxNumber(ctx, projectID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		v := Variation{
			ID:                uuid.New(),
			ProjectID:         projectID,
			ParentVariationID: parentVariationID,
			VariationNumber:   maxNumber + 1,
			Content:           content,
			DiffFromParent:    editlog.ComputeDiff(parentContent.Snapshot(), content.Snapshot(), quote.TrackedFields()),
			Approval:          approval.State{Logs: []approval.LogEntry{}},
			Edits:             []editlog.Entry{},
			CreatedBy:         actor.ID,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := tx.Create(ctx, v); err != nil {
			return err
		}
		created = &v
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "variation.create", created.ID)
	return created, nil
}

// sourceContent resolves the content the project was created from, so a
// project-rooted variation diffs against its originating document.
func sourceContent(ctx context.Context, tx Repository, project *ProjectRef) (quote.Content, error) {
	switch {
	case project.SourceRevisionID != nil:
		return tx.RevisionContent(ctx, *project.SourceRevisionID)
	case project.SourceQuotationID != nil:
		return tx.QuotationContent(ctx, *project.SourceQuotationID)
	default:
		return quote.Content{}, nil
	}
}

// Update replaces the variation content and appends the field diff to the
// edit history. DiffFromParent stays as computed at creation. Approved
// variations are immutable.
func (s *Service) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateVariationRequest) (*Variation, error) {
	var updated *Variation
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		v, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if v.Approval.Status == approval.StatusApproved {
			return fmt.Errorf("%w: approved variation is immutable", shared.ErrInvalidStateTransition)
		}
		content, err := req.Data.Resolve()
		if err != nil {
			return err
		}

		changes := editlog.ComputeDiff(v.Content.Snapshot(), content.Snapshot(), quote.TrackedFields())
		v.Content = content
		v.Edits = editlog.Append(v.Edits, actor.ID, time.Now().UTC(), changes)
		if err := tx.Update(ctx, *v); err != nil {
			return err
		}
		updated = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "variation.update", id)
	return updated, nil
}

// SendForApproval opens a new approval cycle on the variation.
func (s *Service) SendForApproval(ctx context.Context, actor shared.Actor, id uuid.UUID, note string) (*Variation, error) {
	var updated *Variation
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		v, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := v.Approval.SendForApproval(actor, note, time.Now().UTC()); err != nil {
			return err
		}
		if err := tx.Update(ctx, *v); err != nil {
			return err
		}
		updated = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "variation.send_approval", id)
	return updated, nil
}

// Decide closes the open approval cycle with an approve or reject.
func (s *Service) Decide(ctx context.Context, actor shared.Actor, id uuid.UUID, req DecideRequest) (*Variation, error) {
	var updated *Variation
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		v, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := v.Approval.Decide(actor, approval.Status(req.Status), req.Note, time.Now().UTC()); err != nil {
			return err
		}
		if err := tx.Update(ctx, *v); err != nil {
			return err
		}
		updated = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "variation."+req.Status, id)
	return updated, nil
}

// Get fetches one variation.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Variation, error) {
	return s.repo.Get(ctx, id)
}

// Document assembles the payload handed to the document-layout collaborator.
func (s *Service) Document(ctx context.Context, id uuid.UUID) (*quote.DocumentData, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &quote.DocumentData{
		Title:           "Variation Order",
		OfferReference:  v.OfferReference,
		VariationNumber: v.VariationNumber,
		Content:         v.Content,
	}, nil
}

// List returns variations ordered by variation number.
func (s *Service) List(ctx context.Context, req ListVariationsRequest) ([]Variation, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	if items == nil {
		items = []Variation{}
	}
	return items, shared.NewPagination(req.Page, req.PerPage, total), nil
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Actor, action string, id uuid.UUID) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{ActorID: actor.ID, Action: action, Entity: "variation", EntityID: id.String()}); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
