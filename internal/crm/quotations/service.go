// Package quotations manages commercial offers: creation against leads,
// edits with history, the management approval cycle and the register export.
package quotations

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

// Service provides business logic for quotation operations.
type Service struct {
	repo   Repository
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService constructs a quotation service.
func NewService(repo Repository, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Create normalizes the submitted data and stores a new quotation against
// an existing lead. Approval starts unset and the edit log empty.
func (s *Service) Create(ctx context.Context, actor shared.Actor, req CreateQuotationRequest) (*Quotation, error) {
	content, err := req.Data.Resolve()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	q := Quotation{
		ID:        uuid.New(),
		LeadID:    req.LeadID,
		Content:   content,
		Approval:  approval.State{Logs: []approval.LogEntry{}},
		Edits:     []editlog.Entry{},
		CreatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		exists, err := tx.LeadExists(ctx, req.LeadID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: lead not found", shared.ErrValidation)
		}
		return tx.Create(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "quotation.create", q.ID)
	return &q, nil
}

// Update replaces the quotation content and appends the field diff to the
// edit history. Approved quotations are immutable; changes go through a
// revision instead.
func (s *Service) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateQuotationRequest) (*Quotation, error) {
	var updated *Quotation
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		q, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if q.Approval.Status == approval.StatusApproved {
			return fmt.Errorf("%w: approved quotation is immutable, create a revision instead", shared.ErrInvalidStateTransition)
		}
		content, err := req.Data.Resolve()
		if err != nil {
			return err
		}

		changes := editlog.ComputeDiff(q.Content.Snapshot(), content.Snapshot(), quote.TrackedFields())
		q.Content = content
		q.Edits = editlog.Append(q.Edits, actor.ID, time.Now().UTC(), changes)
		if err := tx.Update(ctx, *q); err != nil {
			return err
		}
		updated = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "quotation.update", id)
	return updated, nil
}

// SendForApproval opens a new approval cycle on the quotation.
func (s *Service) SendForApproval(ctx context.Context, actor shared.Actor, id uuid.UUID, note string) (*Quotation, error) {
	var updated *Quotation
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		q, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := q.Approval.SendForApproval(actor, note, time.Now().UTC()); err != nil {
			return err
		}
		if err := tx.Update(ctx, *q); err != nil {
			return err
		}
		updated = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "quotation.send_approval", id)
	return updated, nil
}

// Decide closes the open approval cycle with an approve or reject.
func (s *Service) Decide(ctx context.Context, actor shared.Actor, id uuid.UUID, req DecideRequest) (*Quotation, error) {
	var updated *Quotation
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		q, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := q.Approval.Decide(actor, approval.Status(req.Status), req.Note, time.Now().UTC()); err != nil {
			return err
		}
		if err := tx.Update(ctx, *q); err != nil {
			return err
		}
		updated = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "quotation."+req.Status, id)
	return updated, nil
}

// Delete removes a quotation permanently. Quotations referenced by
// revisions or projects cannot be deleted.
func (s *Service) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "quotation.delete", id)
	return nil
}

// Get fetches one quotation with its full approval log and edit history.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Quotation, error) {
	return s.repo.Get(ctx, id)
}

// Document assembles the payload handed to the document-layout collaborator.
func (s *Service) Document(ctx context.Context, id uuid.UUID) (*quote.DocumentData, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &quote.DocumentData{
		Title:          "Quotation",
		OfferReference: q.OfferReference,
		Content:        q.Content,
	}, nil
}

// List returns quotations matching the filter, newest first.
func (s *Service) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	if items == nil {
		items = []Quotation{}
	}
	return items, shared.NewPagination(req.Page, req.PerPage, total), nil
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Actor, action string, id uuid.UUID) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{ActorID: actor.ID, Action: action, Entity: "quotation", EntityID: id.String()}); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
