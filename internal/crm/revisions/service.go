// Package revisions branches quotation-shaped documents off approved
// quotations, numbering them <offerReference>-REV-<n>.
package revisions

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

// Service provides business logic for revision operations.
type Service struct {
	repo   Repository
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService constructs a revision service.
func NewService(repo Repository, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Create branches a new revision off an approved quotation. The submitted
// data must differ from the quotation in at least one tracked field, and
// only one undecided revision may exist per quotation at a time. The parent
// quotation is left untouched.
func (s *Service) Create(ctx context.Context, actor shared.Actor, req CreateRevisionRequest) (*Revision, error) {
	content, err := req.Data.Resolve()
	if err != nil {
		return nil, err
	}

	var created *Revision
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		parent, err := tx.LockParentQuotation(ctx, req.SourceQuotationID)
		if err != nil {
			return err
		}
		if parent.ApprovalStatus != approval.StatusApproved {
			return fmt.Errorf("%w: revisions require an approved quotation", shared.ErrInvalidStateTransition)
		}

		changes := editlog.ComputeDiff(parent.Content.Snapshot(), content.Snapshot(), quote.TrackedFields())
		if len(changes) == 0 {
			return shared.ErrNoChangesDetected
		}

		undecided, err := tx.HasUndecided(ctx, req.SourceQuotationID)
		if err != nil {
			return err
		}
		if undecided {
			return fmt.Errorf("%w: an undecided revision already exists for this quotation", shared.ErrConflictExists)
		}

		maxSeq, err := tx.MaxSeq(ctx, req.SourceQuotationID)
		if err != nil {
			return err
		}
		seq := maxSeq + 1

		base := parent.Content.OfferReference
		if base == "" {
			base = parent.ID.String()
		}

		now := time.Now().UTC()
		rev := Revision{
			ID:             uuid.New(),
			QuotationID:    parent.ID,
			LeadID:         parent.LeadID,
			RevisionNumber: fmt.Sprintf("%s-REV-%d", base, seq),
			RevisionSeq:    seq,
			Content:        content,
			Approval:       approval.State{Logs: []approval.LogEntry{}},
			Edits:          []editlog.Entry{},
			CreatedBy:      actor.ID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.Create(ctx, rev); err != nil {
			return err
		}
		created = &rev
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "revision.create", created.ID)
	return created, nil
}

// Update replaces the revision content and appends the field diff to the
// edit history. Approved revisions are immutable.
func (s *Service) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateRevisionRequest) (*Revision, error) {
	var updated *Revision
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		rev, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if rev.Approval.Status == approval.StatusApproved {
			return fmt.Errorf("%w: approved revision is immutable", shared.ErrInvalidStateTransition)
		}
		content, err := req.Data.Resolve()
		if err != nil {
			return err
		}

		changes := editlog.ComputeDiff(rev.Content.Snapshot(), content.Snapshot(), quote.TrackedFields())
		rev.Content = content
		rev.Edits = editlog.Append(rev.Edits, actor.ID, time.Now().UTC(), changes)
		if err := tx.Update(ctx, *rev); err != nil {
			return err
		}
		updated = rev
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "revision.update", id)
	return updated, nil
}

// SendForApproval opens a new approval cycle on the revision.
func (s *Service) SendForApproval(ctx context.Context, actor shared.Actor, id uuid.UUID, note string) (*Revision, error) {
	var updated *Revision
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		rev, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := rev.Approval.SendForApproval(actor, note, time.Now().UTC()); err != nil {
			return err
		}
		if err := tx.Update(ctx, *rev); err != nil {
			return err
		}
		updated = rev
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "revision.send_approval", id)
	return updated, nil
}

// Decide closes the open approval cycle with an approve or reject.
func (s *Service) Decide(ctx context.Context, actor shared.Actor, id uuid.UUID, req DecideRequest) (*Revision, error) {
	var updated *Revision
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		rev, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := rev.Approval.Decide(actor, approval.Status(req.Status), req.Note, time.Now().UTC()); err != nil {
			return err
		}
		if err := tx.Update(ctx, *rev); err != nil {
			return err
		}
		updated = rev
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "revision."+req.Status, id)
	return updated, nil
}

// Get fetches one revision.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Revision, error) {
	return s.repo.Get(ctx, id)
}

// Document assembles the payload handed to the document-layout collaborator.
func (s *Service) Document(ctx context.Context, id uuid.UUID) (*quote.DocumentData, error) {
	rev, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &quote.DocumentData{
		Title:          "Quotation Revision",
		OfferReference: rev.OfferReference,
		RevisionNumber: rev.RevisionNumber,
		Content:        rev.Content,
	}, nil
}

// List returns revisions, highest sequence first.
func (s *Service) List(ctx context.Context, req ListRevisionsRequest) ([]Revision, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	if items == nil {
		items = []Revision{}
	}
	return items, shared.NewPagination(req.Page, req.PerPage, total), nil
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Actor, action string, id uuid.UUID) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{ActorID: actor.ID, Action: action, Entity: "revision", EntityID: id.String()}); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
