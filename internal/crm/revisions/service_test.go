package revisions

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-esw/meridian-esw/internal/approval"
	"github.com/meridian-esw/meridian-esw/internal/crm/quote"
	"github.com/meridian-esw/meridian-esw/internal/shared"
)

type memoryRepo struct {
	parents   map[uuid.UUID]ParentQuotation
	revisions map[uuid.UUID]Revision
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{parents: map[uuid.UUID]ParentQuotation{}, revisions: map[uuid.UUID]Revision{}}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) LockParentQuotation(_ context.Context, quotationID uuid.UUID) (*ParentQuotation, error) {
	parent, ok := m.parents[quotationID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &parent, nil
}

func (m *memoryRepo) MaxSeq(_ context.Context, quotationID uuid.UUID) (int, error) {
	max := 0
	for _, rev := range m.revisions {
		if rev.QuotationID == quotationID && rev.RevisionSeq > max {
			max = rev.RevisionSeq
		}
	}
	return max, nil
}

func (m *memoryRepo) HasUndecided(_ context.Context, quotationID uuid.UUID) (bool, error) {
	for _, rev := range m.revisions {
		if rev.QuotationID != quotationID {
			continue
		}
		if rev.Approval.Status == approval.StatusUnset || rev.Approval.Status == approval.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepo) Create(_ context.Context, rev Revision) error {
	m.revisions[rev.ID] = rev
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id uuid.UUID) (*Revision, error) {
	rev, ok := m.revisions[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &rev, nil
}

func (m *memoryRepo) List(_ context.Context, req ListRevisionsRequest) ([]Revision, int, error) {
	var out []Revision
	for _, rev := range m.revisions {
		if req.ParentQuotation != nil && rev.QuotationID != *req.ParentQuotation {
			continue
		}
		out = append(out, rev)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Update(_ context.Context, rev Revision) error {
	if _, ok := m.revisions[rev.ID]; !ok {
		return shared.ErrNotFound
	}
	m.revisions[rev.ID] = rev
	return nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, nil, slog.Default())
}

func estimatorActor() shared.Actor {
	return shared.Actor{ID: uuid.New(), Name: "estimator", Roles: []string{shared.RoleEstimation}}
}

func managerActor() shared.Actor {
	return shared.Actor{ID: uuid.New(), Name: "manager", Roles: []string{shared.RoleManager}}
}

func parentContent() quote.Content {
	return quote.Content{
		OfferReference: "ESW-Q-1001",
		ProjectTitle:   "Cooling plant installation",
		PriceSchedule: quote.PriceSchedule{
			Items:      []quote.PriceItem{{Description: "Chiller unit", Quantity: 2, Unit: "nos", UnitRate: 100, TotalAmount: 200}},
			SubTotal:   200,
			GrandTotal: 210,
			Currency:   "AED",
			TaxDetails: quote.TaxDetails{VATRate: 5, VATAmount: 10},
		},
	}
}

func seedApprovedParent(repo *memoryRepo) uuid.UUID {
	id := uuid.New()
	repo.parents[id] = ParentQuotation{
		ID:             id,
		LeadID:         uuid.New(),
		Content:        parentContent(),
		ApprovalStatus: approval.StatusApproved,
	}
	return id
}

func TestCreateRevisionRequiresApprovedQuotation(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	id := uuid.New()
	repo.parents[id] = ParentQuotation{ID: id, Content: parentContent(), ApprovalStatus: approval.StatusPending}

	data := quote.Input{Content: parentContent()}
	data.Content.OfferReference = "ESW-Q-1001-B"
	_, err := svc.Create(context.Background(), estimatorActor(), CreateRevisionRequest{SourceQuotationID: id, Data: data})
	assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
}

func TestCreateRevisionIdenticalDataFails(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	id := seedApprovedParent(repo)

	_, err := svc.Create(context.Background(), estimatorActor(), CreateRevisionRequest{
		SourceQuotationID: id,
		Data:              quote.Input{Content: parentContent()},
	})
	assert.ErrorIs(t, err, shared.ErrNoChangesDetected)
}

func TestCreateRevisionNumbersSequentially(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	id := seedApprovedParent(repo)
	actor := estimatorActor()

	data := quote.Input{Content: parentContent()}
	data.Content.OfferReference = "ESW-Q-1001-B"
	rev, err := svc.Create(context.Background(), actor, CreateRevisionRequest{SourceQuotationID: id, Data: data})
	require.NoError(t, err)
	assert.Equal(t, "ESW-Q-1001-REV-1", rev.RevisionNumber)
	assert.Equal(t, 1, rev.RevisionSeq)
	assert.Equal(t, approval.StatusUnset, rev.Approval.Status)
	assert.Empty(t, rev.Edits)

	// Decide the first revision so a second one may be opened.
	_, err = svc.SendForApproval(context.Background(), actor, rev.ID, "")
	require.NoError(t, err)
	_, err = svc.Decide(context.Background(), managerActor(), rev.ID, DecideRequest{Status: "approved"})
	require.NoError(t, err)

	data.Content.OfferReference = "ESW-Q-1001-C"
	second, err := svc.Create(context.Background(), actor, CreateRevisionRequest{SourceQuotationID: id, Data: data})
	require.NoError(t, err)
	assert.Equal(t, "ESW-Q-1001-REV-2", second.RevisionNumber)
	assert.Equal(t, 2, second.RevisionSeq)
}

func TestCreateRevisionBlockedByUndecidedSibling(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	id := seedApprovedParent(repo)
	actor := estimatorActor()

	data := quote.Input{Content: parentContent()}
	data.Content.OfferReference = "ESW-Q-1001-B"
	_, err := svc.Create(context.Background(), actor, CreateRevisionRequest{SourceQuotationID: id, Data: data})
	require.NoError(t, err)

	data.Content.OfferReference = "ESW-Q-1001-C"
	_, err = svc.Create(context.Background(), actor, CreateRevisionRequest{SourceQuotationID: id, Data: data})
	assert.ErrorIs(t, err, shared.ErrConflictExists)
}

func TestUpdateApprovedRevisionBlocked(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	id := seedApprovedParent(repo)
	actor := estimatorActor()

	data := quote.Input{Content: parentContent()}
	data.Content.OfferReference = "ESW-Q-1001-B"
	rev, err := svc.Create(context.Background(), actor, CreateRevisionRequest{SourceQuotationID: id, Data: data})
	require.NoError(t, err)

	_, err = svc.SendForApproval(context.Background(), actor, rev.ID, "")
	require.NoError(t, err)
	_, err = svc.Decide(context.Background(), managerActor(), rev.ID, DecideRequest{Status: "approved"})
	require.NoError(t, err)

	data.Content.OfferReference = "ESW-Q-1001-C"
	_, err = svc.Update(context.Background(), actor, rev.ID, UpdateRevisionRequest{Data: data})
	assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
}

func TestRevisionOwnApprovalCycle(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	id := seedApprovedParent(repo)
	actor := estimatorActor()

	data := quote.Input{Content: parentContent()}
	data.Content.ProjectTitle = "Cooling plant installation, phase 2"
	rev, err := svc.Create(context.Background(), actor, CreateRevisionRequest{SourceQuotationID: id, Data: data})
	require.NoError(t, err)

	pending, err := svc.SendForApproval(context.Background(), actor, rev.ID, "review please")
	require.NoError(t, err)
	assert.Equal(t, approval.StatusPending, pending.Approval.Status)

	approved, err := svc.Decide(context.Background(), managerActor(), rev.ID, DecideRequest{Status: "approved"})
	require.NoError(t, err)

	cycles := approval.Cycles(approved.Approval.Logs)
	require.Len(t, cycles, 1)
	assert.False(t, cycles[0].Open())
	assert.False(t, cycles[0].DecidedAt.Before(cycles[0].RequestedAt))
}
