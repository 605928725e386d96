package leads

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-esw/meridian-esw/internal/shared"
)

type memoryRepo struct {
	leads      map[uuid.UUID]Lead
	quotations map[uuid.UUID]int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{leads: map[uuid.UUID]Lead{}, quotations: map[uuid.UUID]int{}}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) Create(_ context.Context, lead Lead) error {
	m.leads[lead.ID] = lead
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id uuid.UUID) (*Lead, error) {
	lead, ok := m.leads[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &lead, nil
}

func (m *memoryRepo) List(_ context.Context, req ListLeadsRequest) ([]Lead, int, error) {
	var out []Lead
	for _, lead := range m.leads {
		if req.Status != nil && lead.Status != *req.Status {
			continue
		}
		out = append(out, lead)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Update(_ context.Context, lead Lead) error {
	if _, ok := m.leads[lead.ID]; !ok {
		return shared.ErrNotFound
	}
	m.leads[lead.ID] = lead
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.leads[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.leads, id)
	return nil
}

func (m *memoryRepo) CountQuotations(_ context.Context, leadID uuid.UUID) (int, error) {
	return m.quotations[leadID], nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, nil, slog.Default())
}

func testActor() shared.Actor {
	return shared.Actor{ID: uuid.New(), Name: "tester", Roles: []string{shared.RoleSales}}
}

func TestCreateLeadStartsDraft(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	lead, err := svc.Create(context.Background(), testActor(), CreateLeadRequest{
		CustomerName: "Acme Contracting",
		ProjectTitle: "Warehouse fit-out",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, lead.Status)
	assert.NotEqual(t, uuid.Nil, lead.ID)
	assert.Empty(t, lead.Edits)
}

func TestUpdateLeadRecordsEditHistory(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	actor := testActor()

	lead, err := svc.Create(context.Background(), actor, CreateLeadRequest{
		CustomerName: "Acme Contracting",
		ProjectTitle: "Warehouse fit-out",
	})
	require.NoError(t, err)

	title := "Warehouse extension"
	updated, err := svc.Update(context.Background(), actor, lead.ID, UpdateLeadRequest{ProjectTitle: &title})
	require.NoError(t, err)

	require.Len(t, updated.Edits, 1)
	require.Len(t, updated.Edits[0].Changes, 1)
	change := updated.Edits[0].Changes[0]
	assert.Equal(t, "projectTitle", change.Field)
	assert.Equal(t, "Warehouse fit-out", change.From)
	assert.Equal(t, "Warehouse extension", change.To)
	assert.Equal(t, actor.ID, updated.Edits[0].EditedBy)
}

func TestUpdateLeadNoChangesAppendsNothing(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	actor := testActor()

	lead, err := svc.Create(context.Background(), actor, CreateLeadRequest{
		CustomerName: "Acme Contracting",
		ProjectTitle: "Warehouse fit-out",
	})
	require.NoError(t, err)

	same := "Warehouse fit-out"
	updated, err := svc.Update(context.Background(), actor, lead.ID, UpdateLeadRequest{ProjectTitle: &same})
	require.NoError(t, err)
	assert.Empty(t, updated.Edits)
}

func TestConvertLeadOnlyOnce(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	actor := testActor()

	lead, err := svc.Create(context.Background(), actor, CreateLeadRequest{
		CustomerName: "Acme Contracting",
		ProjectTitle: "Warehouse fit-out",
	})
	require.NoError(t, err)

	converted, err := svc.Convert(context.Background(), actor, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConverted, converted.Status)
	require.Len(t, converted.Edits, 1)

	_, err = svc.Convert(context.Background(), actor, lead.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
}

func TestUpdateConvertedLeadFails(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	actor := testActor()

	lead, err := svc.Create(context.Background(), actor, CreateLeadRequest{
		CustomerName: "Acme Contracting",
		ProjectTitle: "Warehouse fit-out",
	})
	require.NoError(t, err)

	_, err = svc.Convert(context.Background(), actor, lead.ID)
	require.NoError(t, err)

	title := "Something else"
	_, err = svc.Update(context.Background(), actor, lead.ID, UpdateLeadRequest{ProjectTitle: &title})
	assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
}

func TestDeleteLeadBlockedByQuotations(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	actor := testActor()

	lead, err := svc.Create(context.Background(), actor, CreateLeadRequest{
		CustomerName: "Acme Contracting",
		ProjectTitle: "Warehouse fit-out",
	})
	require.NoError(t, err)

	repo.quotations[lead.ID] = 2
	err = svc.Delete(context.Background(), actor, lead.ID)
	assert.ErrorIs(t, err, shared.ErrConflictExists)

	repo.quotations[lead.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), actor, lead.ID))

	_, err = svc.Get(context.Background(), lead.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteMissingLead(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	err := svc.Delete(context.Background(), testActor(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
