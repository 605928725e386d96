package variations

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-esw/meridian-esw/internal/crm/quote"
	"github.com/meridian-esw/meridian-esw/internal/shared"
)

type memoryRepo struct {
	projects   map[uuid.UUID]ProjectRef
	quotations map[uuid.UUID]quote.Content
	revisions  map[uuid.UUID]quote.Content
	variations map[uuid.UUID]Variation
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		projects:   map[uuid.UUID]ProjectRef{},
		quotations: map[uuid.UUID]quote.Content{},
		revisions:  map[uuid.UUID]quote.Content{},
		variations: map[uuid.UUID]Variation{},
	}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) LockProject(_ context.Context, id uuid.UUID) (*ProjectRef, error) {
	ref, ok := m.projects[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &ref, nil
}

func (m *memoryRepo) QuotationContent(_ context.Context, id uuid.UUID) (quote.Content, error) {
	c, ok := m.quotations[id]
	if !ok {
		return quote.Content{}, shared.ErrNotFound
	}
	return c, nil
}

func (m *memoryRepo) RevisionContent(_ context.Context, id uuid.UUID) (quote.Content, error) {
	c, ok := m.revisions[id]
	if !ok {
		return quote.Content{}, shared.ErrNotFound
	}
	return c, nil
}

func (m *memoryRepo) HasChild(_ context.Context, variationID uuid.UUID) (bool, error) {
	for _, v := range m.variations {
		if v.ParentVariationID != nil && *v.ParentVariationID == variationID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepo) MaxNumber(_ context.Context, projectID uuid.UUID) (int, error) {
	max := 0
	for _, v := range m.variations {
		if v.ProjectID == projectID && v.VariationNumber > max {
			max = v.VariationNumber
		}
	}
	return max, nil
}

func (m *memoryRepo) Create(_ context.Context, v Variation) error {
	m.variations[v.ID] = v
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id uuid.UUID) (*Variation, error) {
	v, ok := m.variations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &v, nil
}

func (m *memoryRepo) List(_ context.Context, req ListVariationsRequest) ([]Variation, int, error) {
	var out []Variation
	for _, v := range m.variations {
		if req.ParentProject != nil && v.ProjectID != *req.ParentProject {
			continue
		}
		if req.ParentVariation != nil && (v.ParentVariationID == nil || *v.ParentVariationID != *req.ParentVariation) {
			continue
		}
		out = append(out, v)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Update(_ context.Context, v Variation) error {
	if _, ok := m.variations[v.ID]; !ok {
		return shared.ErrNotFound
	}
	m.variations[v.ID] = v
	return nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, nil, slog.Default())
}

func engineerActor() shared.Actor {
	return shared.Actor{ID: uuid.New(), Name: "engineer", Roles: []string{shared.RoleEngineer}}
}

func managerActor() shared.Actor {
	return shared.Actor{ID: uuid.New(), Name: "manager", Roles: []string{shared.RoleManager}}
}

func baseContent() quote.Content {
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

func seedProject(repo *memoryRepo) uuid.UUID {
	qid := uuid.New()
	repo.quotations[qid] = baseContent()
	pid := uuid.New()
	repo.projects[pid] = ProjectRef{ID: pid, SourceQuotationID: &qid}
	return pid
}

func variationData(offerRef string) quote.Input {
	data := quote.Input{Content: baseContent()}
	data.Content.OfferReference = offerRef
	return data
}

func approve(t *testing.T, svc *Service, id uuid.UUID) {
	t.Helper()
	_, err := svc.SendForApproval(context.Background(), engineerActor(), id, "")
	require.NoError(t, err)
	_, err = svc.Decide(context.Background(), managerActor(), id, DecideRequest{Status: "approved"})
	require.NoError(t, err)
}

func TestCreateVariationRequiresExactlyOneParent(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	pid := uuid.New()
	vid := uuid.New()

	_, err := svc.Create(context.Background(), engineerActor(), CreateVariationRequest{Data: variationData("X")})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), engineerActor(), CreateVariationRequest{
		ParentProjectID:   &pid,
		ParentVariationID: &vid,
		Data:              variationData("X"),
	})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateVariationFromProjectComputesDiff(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	pid := seedProject(repo)

	v, err := svc.Create(context.Background(), engineerActor(), CreateVariationRequest{
		ParentProjectID: &pid,
		Data:            variationData("ESW-Q-1001-VAR-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, v.VariationNumber)
	assert.Nil(t, v.ParentVariationID)
	require.Len(t, v.DiffFromParent, 1)
	assert.Equal(t, "offerReference", v.DiffFromParent[0].Field)
	assert.Equal(t, "ESW-Q-1001", v.DiffFromParent[0].From)
	assert.Equal(t, "ESW-Q-1001-VAR-1", v.DiffFromParent[0].To)
}

func TestVariationChainSingleChild(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	pid := seedProject(repo)
	actor := engineerActor()

	v1, err := svc.Create(context.Background(), actor, CreateVariationRequest{
		ParentProjectID: &pid, Data: variationData("VAR-A"),
	})
	require.NoError(t, err)
	approve(t, svc, v1.ID)

	v2, err := svc.Create(context.Background(), actor, CreateVariationRequest{
		ParentVariationID: &v1.ID, Data: variationData("VAR-B"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, v2.VariationNumber)
	assert.Equal(t, pid, v2.ProjectID)
	approve(t, svc, v2.ID)

	v3, err := svc.Create(context.Background(), actor, CreateVariationRequest{
		ParentVariationID: &v2.ID, Data: variationData("VAR-C"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, v3.VariationNumber)

	// V1 already has V2 as its child.
	_, err = svc.Create(context.Background(), actor, CreateVariationRequest{
		ParentVariationID: &v1.ID, Data: variationData("VAR-D"),
	})
	assert.ErrorIs(t, err, shared.ErrConflictExists)
}

func TestCreateVariationFromUnapprovedParentBlocked(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	pid := seedProject(repo)
	actor := engineerActor()

	v1, err := svc.Create(context.Background(), actor, CreateVariationRequest{
		ParentProjectID: &pid, Data: variationData("VAR-A"),
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), actor, CreateVariationRequest{
		ParentVariationID: &v1.ID, Data: variationData("VAR-B"),
	})
	assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
}

func TestMultipleProjectRootedVariationsAllowed(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	pid := seedProject(repo)
	actor := engineerActor()

	v1, err := svc.Create(context.Background(), actor, CreateVariationRequest{
		ParentProjectID: &pid, Data: variationData("VAR-A"),
	})
	require.NoError(t, err)
	v2, err := svc.Create(context.Background(), actor, CreateVariationRequest{
		ParentProjectID: &pid, Data: variationData("VAR-B"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, v1.VariationNumber)
	assert.Equal(t, 2, v2.VariationNumber)
}

func TestUpdateVariationKeepsDiffFromParent(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	pid := seedProject(repo)
	actor := engineerActor()

	v, err := svc.Create(context.Background(), actor, CreateVariationRequest{
		ParentProjectID: &pid, Data: variationData("VAR-A"),
	})
	require.NoError(t, err)
	originalDiff := v.DiffFromParent

	updated, err := svc.Update(context.Background(), actor, v.ID, UpdateVariationRequest{Data: variationData("VAR-A2")})
	require.NoError(t, err)
	assert.Equal(t, originalDiff, updated.DiffFromParent)
	require.Len(t, updated.Edits, 1)

	approve(t, svc, v.ID)
	_, err = svc.Update(context.Background(), actor, v.ID, UpdateVariationRequest{Data: variationData("VAR-A3")})
	assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
}
