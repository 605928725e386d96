// Package leads manages sales enquiries: the entry point of the
// lead -> quotation -> project pipeline.
package leads

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-esw/meridian-esw/internal/crm/attachments"
	"github.com/meridian-esw/meridian-esw/internal/editlog"
	"github.com/meridian-esw/meridian-esw/internal/shared"
)

// Service provides business logic for lead operations.
type Service struct {
	repo   Repository
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService constructs a lead service.
func NewService(repo Repository, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Create registers a new lead in draft state.
func (s *Service) Create(ctx context.Context, actor shared.Actor, req CreateLeadRequest) (*Lead, error) {
	now := time.Now().UTC()
	lead := Lead{
		ID:                uuid.New(),
		CustomerName:      req.CustomerName,
		ProjectTitle:      req.ProjectTitle,
		EnquiryNumber:     req.EnquiryNumber,
		EnquiryDate:       req.EnquiryDate,
		ScopeSummary:      req.ScopeSummary,
		SubmissionDueDate: req.SubmissionDueDate,
		Status:            StatusDraft,
		CreatedBy:         actor.ID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Create(ctx, lead); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "lead.create", lead.ID)
	return &lead, nil
}

// AttachFiles appends stored attachment metadata to a lead.
func (s *Service) AttachFiles(ctx context.Context, actor shared.Actor, id uuid.UUID, atts []attachments.Attachment) (*Lead, error) {
	if len(atts) == 0 {
		return s.Get(ctx, id)
	}
	var updated *Lead
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		lead, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		lead.Attachments = append(lead.Attachments, atts...)
		if err := tx.Update(ctx, *lead); err != nil {
			return err
		}
		updated = lead
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "lead.attach", id)
	return updated, nil
}

// Update applies a partial update and records the field-level diff in the
// lead's edit history. Converted leads are frozen.
func (s *Service) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateLeadRequest) (*Lead, error) {
	var updated *Lead
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		lead, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if lead.Status == StatusConverted {
			return fmt.Errorf("%w: lead already converted", shared.ErrInvalidStateTransition)
		}
		before := lead.snapshot()

		if req.CustomerName != nil {
			lead.CustomerName = *req.CustomerName
		}
		if req.ProjectTitle != nil {
			lead.ProjectTitle = *req.ProjectTitle
		}
		if req.EnquiryNumber != nil {
			lead.EnquiryNumber = *req.EnquiryNumber
		}
		if req.EnquiryDate != nil {
			lead.EnquiryDate = req.EnquiryDate
		}
		if req.ScopeSummary != nil {
			lead.ScopeSummary = *req.ScopeSummary
		}
		if req.SubmissionDueDate != nil {
			lead.SubmissionDueDate = req.SubmissionDueDate
		}
		if req.Status != nil {
			lead.Status = *req.Status
		}

		changes := editlog.ComputeDiff(before, lead.snapshot(), trackedFields())
		lead.Edits = editlog.Append(lead.Edits, actor.ID, time.Now().UTC(), changes)
		if err := tx.Update(ctx, *lead); err != nil {
			return err
		}
		updated = lead
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "lead.update", id)
	return updated, nil
}

// Convert marks the lead converted. Conversion happens once; a second call
// fails with an invalid transition.
func (s *Service) Convert(ctx context.Context, actor shared.Actor, id uuid.UUID) (*Lead, error) {
	var converted *Lead
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		lead, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if lead.Status == StatusConverted {
			return fmt.Errorf("%w: lead already converted", shared.ErrInvalidStateTransition)
		}
		before := lead.snapshot()
		lead.Status = StatusConverted
		changes := editlog.ComputeDiff(before, lead.snapshot(), trackedFields())
		lead.Edits = editlog.Append(lead.Edits, actor.ID, time.Now().UTC(), changes)
		if err := tx.Update(ctx, *lead); err != nil {
			return err
		}
		converted = lead
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "lead.convert", id)
	return converted, nil
}

// Delete removes a lead. Leads with quotations cannot be deleted.
func (s *Service) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		if _, err := tx.Get(ctx, id); err != nil {
			return err
		}
		count, err := tx.CountQuotations(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: lead has %d quotations", shared.ErrConflictExists, count)
		}
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "lead.delete", id)
	return nil
}

// Get fetches one lead.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Lead, error) {
	return s.repo.Get(ctx, id)
}

// List returns leads matching the filter, newest first.
func (s *Service) List(ctx context.Context, req ListLeadsRequest) ([]Lead, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	if items == nil {
		items = []Lead{}
	}
	return items, shared.NewPagination(req.Page, req.PerPage, total), nil
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Actor, action string, id uuid.UUID) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{ActorID: actor.ID, Action: action, Entity: "lead", EntityID: id.String()}); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
