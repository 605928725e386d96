package quotations

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
	quotations map[uuid.UUID]Quotation
	leads      map[uuid.UUID]bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{quotations: map[uuid.UUID]Quotation{}, leads: map[uuid.UUID]bool{}}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) Create(_ context.Context, q Quotation) error {
	m.quotations[q.ID] = q
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id uuid.UUID) (*Quotation, error) {
	q, ok := m.quotations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &q, nil
}

func (m *memoryRepo) List(_ context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	var out []Quotation
	for _, q := range m.quotations {
		if req.LeadID != nil && q.LeadID != *req.LeadID {
			continue
		}
		out = append(out, q)
	}
	return out, len(out), nil
}

func (m *memoryRepo) All(_ context.Context) ([]Quotation, error) {
	var out []Quotation
	for _, q := range m.quotations {
		out = append(out, q)
	}
	return out, nil
}

func (m *memoryRepo) Update(_ context.Context, q Quotation) error {
	if _, ok := m.quotations[q.ID]; !ok {
		return shared.ErrNotFound
	}
	m.quotations[q.ID] = q
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.quotations[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.quotations, id)
	return nil
}

func (m *memoryRepo) LeadExists(_ context.Context, leadID uuid.UUID) (bool, error) {
	return m.leads[leadID], nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, nil, slog.Default())
}

func salesActor() shared.Actor {
	return shared.Actor{ID: uuid.New(), Name: "estimator", Roles: []string{shared.RoleEstimation}}
}

func managerActor() shared.Actor {
	return shared.Actor{ID: uuid.New(), Name: "manager", Roles: []string{shared.RoleManager}}
}

func sampleInput() quote.Input {
	return quote.Input{
		Content: quote.Content{
			OfferReference: "ESW-Q-1001",
			ProjectTitle:   "Cooling plant installation",
			SubmittedTo:    "Acme Contracting",
			PriceSchedule: quote.PriceSchedule{
				Items: []quote.PriceItem{
					{Description: "Chiller unit", Quantity: 2, Unit: "nos", UnitRate: 100},
				},
				Currency:   "AED",
				TaxDetails: quote.TaxDetails{VATRate: 5},
			},
		},
	}
}

func createQuotation(t *testing.T, repo *memoryRepo, svc *Service) *Quotation {
	t.Helper()
	leadID := uuid.New()
	repo.leads[leadID] = true
	q, err := svc.Create(context.Background(), salesActor(), CreateQuotationRequest{LeadID: leadID, Data: sampleInput()})
	require.NoError(t, err)
	return q
}

func TestCreateQuotationComputesTotals(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	q := createQuotation(t, repo, svc)
	assert.Equal(t, 200.0, q.PriceSchedule.SubTotal)
	assert.Equal(t, 10.0, q.PriceSchedule.TaxDetails.VATAmount)
	assert.Equal(t, 210.0, q.PriceSchedule.GrandTotal)
	assert.Equal(t, 200.0, q.PriceSchedule.Items[0].TotalAmount)
	assert.Equal(t, approval.StatusUnset, q.Approval.Status)
	assert.Empty(t, q.Edits)
}

func TestCreateQuotationUnknownLead(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	_, err := svc.Create(context.Background(), salesActor(), CreateQuotationRequest{LeadID: uuid.New(), Data: sampleInput()})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateQuotationRejectsUnknownCurrency(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	leadID := uuid.New()
	repo.leads[leadID] = true

	input := sampleInput()
	input.Content.PriceSchedule.Currency = "XXQ"
	_, err := svc.Create(context.Background(), salesActor(), CreateQuotationRequest{LeadID: leadID, Data: input})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateQuotationRecordsDiff(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	actor := salesActor()
	q := createQuotation(t, repo, svc)

	input := sampleInput()
	input.Content.OfferReference = "ESW-Q-1002"
	updated, err := svc.Update(context.Background(), actor, q.ID, UpdateQuotationRequest{Data: input})
	require.NoError(t, err)

	require.Len(t, updated.Edits, 1)
	require.Len(t, updated.Edits[0].Changes, 1)
	change := updated.Edits[0].Changes[0]
	assert.Equal(t, "offerReference", change.Field)
	assert.Equal(t, "ESW-Q-1001", change.From)
	assert.Equal(t, "ESW-Q-1002", change.To)
}

func TestUpdateQuotationNoChangeAppendsNothing(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	q := createQuotation(t, repo, svc)

	updated, err := svc.Update(context.Background(), salesActor(), q.ID, UpdateQuotationRequest{Data: sampleInput()})
	require.NoError(t, err)
	assert.Empty(t, updated.Edits)
}

func TestUpdateApprovedQuotationBlocked(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	q := createQuotation(t, repo, svc)

	_, err := svc.SendForApproval(context.Background(), salesActor(), q.ID, "please review")
	require.NoError(t, err)
	_, err = svc.Decide(context.Background(), managerActor(), q.ID, DecideRequest{Status: "approved"})
	require.NoError(t, err)

	input := sampleInput()
	input.Content.OfferReference = "ESW-Q-2000"
	_, err = svc.Update(context.Background(), salesActor(), q.ID, UpdateQuotationRequest{Data: input})
	assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
}

func TestApprovalCycleLifecycle(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	q := createQuotation(t, repo, svc)

	// Decide before any request fails.
	_, err := svc.Decide(context.Background(), managerActor(), q.ID, DecideRequest{Status: "approved"})
	assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)

	pending, err := svc.SendForApproval(context.Background(), salesActor(), q.ID, "first pass")
	require.NoError(t, err)
	assert.Equal(t, approval.StatusPending, pending.Approval.Status)

	// Non-privileged actor cannot decide.
	_, err = svc.Decide(context.Background(), salesActor(), q.ID, DecideRequest{Status: "approved"})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	rejected, err := svc.Decide(context.Background(), managerActor(), q.ID, DecideRequest{Status: "rejected", Note: "price too low"})
	require.NoError(t, err)
	assert.Equal(t, approval.StatusRejected, rejected.Approval.Status)

	// Resubmission opens a second cycle.
	resubmitted, err := svc.SendForApproval(context.Background(), salesActor(), q.ID, "revised pricing")
	require.NoError(t, err)
	approved, err := svc.Decide(context.Background(), managerActor(), resubmitted.ID, DecideRequest{Status: "approved"})
	require.NoError(t, err)

	cycles := approval.Cycles(approved.Approval.Logs)
	require.Len(t, cycles, 2)
	assert.Equal(t, approval.StatusRejected, cycles[0].Decision)
	assert.Equal(t, approval.StatusApproved, cycles[1].Decision)
	require.NotNil(t, approved.Approval.ApprovedAt)
}

func TestDeleteQuotation(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	q := createQuotation(t, repo, svc)

	require.NoError(t, svc.Delete(context.Background(), salesActor(), q.ID))
	_, err := svc.Get(context.Background(), q.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestExportRegisterContainsQuotationRow(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	createQuotation(t, repo, svc)

	buf, err := svc.ExportRegister(context.Background())
	require.NoError(t, err)
	assert.Greater(t, buf.Len(), 0)
}
