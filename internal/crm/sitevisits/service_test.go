package sitevisits

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-esw/meridian-esw/internal/shared"
)

type memoryRepo struct {
	visits   map[uuid.UUID]SiteVisit
	leads    map[uuid.UUID]bool
	projects map[uuid.UUID]bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		visits:   map[uuid.UUID]SiteVisit{},
		leads:    map[uuid.UUID]bool{},
		projects: map[uuid.UUID]bool{},
	}
}

func (m *memoryRepo) Create(_ context.Context, v SiteVisit) error {
	m.visits[v.ID] = v
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id uuid.UUID) (*SiteVisit, error) {
	v, ok := m.visits[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &v, nil
}

func (m *memoryRepo) List(_ context.Context, req ListVisitsRequest) ([]SiteVisit, int, error) {
	var out []SiteVisit
	for _, v := range m.visits {
		if req.LeadID != nil && (v.LeadID == nil || *v.LeadID != *req.LeadID) {
			continue
		}
		if req.ProjectID != nil && (v.ProjectID == nil || *v.ProjectID != *req.ProjectID) {
			continue
		}
		out = append(out, v)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Update(_ context.Context, v SiteVisit) error {
	if _, ok := m.visits[v.ID]; !ok {
		return shared.ErrNotFound
	}
	m.visits[v.ID] = v
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.visits[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.visits, id)
	return nil
}

func (m *memoryRepo) LeadExists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.leads[id], nil
}

func (m *memoryRepo) ProjectExists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.projects[id], nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, nil, slog.Default())
}

func visitRequest() VisitRequest {
	return VisitRequest{
		VisitAt:             time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
		SiteLocation:        "Plot 14, industrial zone",
		EngineerName:        "R. Fernandes",
		WorkProgressSummary: "Foundation poured",
		WeatherConditions:   "Clear",
	}
}

func TestCreateVisitForLead(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	actor := shared.Actor{ID: uuid.New(), Roles: []string{shared.RoleEngineer}}

	// Unknown lead fails.
	_, err := svc.CreateForLead(context.Background(), actor, uuid.New(), visitRequest())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	leadID := uuid.New()
	repo.leads[leadID] = true
	v, err := svc.CreateForLead(context.Background(), actor, leadID, visitRequest())
	require.NoError(t, err)
	require.NotNil(t, v.LeadID)
	assert.Equal(t, leadID, *v.LeadID)
	assert.Nil(t, v.ProjectID)
}

func TestCreateVisitForProjectAndUpdate(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	actor := shared.Actor{ID: uuid.New(), Roles: []string{shared.RoleEngineer}}

	projectID := uuid.New()
	repo.projects[projectID] = true
	v, err := svc.CreateForProject(context.Background(), actor, projectID, visitRequest())
	require.NoError(t, err)
	require.NotNil(t, v.ProjectID)

	req := visitRequest()
	req.IssuesFound = "Rebar spacing off on grid B"
	updated, err := svc.Update(context.Background(), actor, v.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Rebar spacing off on grid B", updated.IssuesFound)
	assert.Equal(t, projectID, *updated.ProjectID)
}

func TestListVisitsFiltersByOwner(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	actor := shared.Actor{ID: uuid.New(), Roles: []string{shared.RoleEngineer}}

	leadID := uuid.New()
	projectID := uuid.New()
	repo.leads[leadID] = true
	repo.projects[projectID] = true

	_, err := svc.CreateForLead(context.Background(), actor, leadID, visitRequest())
	require.NoError(t, err)
	_, err = svc.CreateForProject(context.Background(), actor, projectID, visitRequest())
	require.NoError(t, err)

	leadVisits, _, err := svc.List(context.Background(), ListVisitsRequest{LeadID: &leadID})
	require.NoError(t, err)
	assert.Len(t, leadVisits, 1)

	projectVisits, _, err := svc.List(context.Background(), ListVisitsRequest{ProjectID: &projectID})
	require.NoError(t, err)
	assert.Len(t, projectVisits, 1)
}
