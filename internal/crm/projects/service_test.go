package projects

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-esw/meridian-esw/internal/approval"
	"github.com/meridian-esw/meridian-esw/internal/shared"
)

type memoryRepo struct {
	quotations map[uuid.UUID]SourceQuotation
	revisions  map[uuid.UUID]SourceRevision
	projects   map[uuid.UUID]Project
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		quotations: map[uuid.UUID]SourceQuotation{},
		revisions:  map[uuid.UUID]SourceRevision{},
		projects:   map[uuid.UUID]Project{},
	}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) LockSourceQuotation(_ context.Context, id uuid.UUID) (*SourceQuotation, error) {
	src, ok := m.quotations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &src, nil
}

func (m *memoryRepo) LockSourceRevision(_ context.Context, id uuid.UUID) (*SourceRevision, error) {
	src, ok := m.revisions[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &src, nil
}

func (m *memoryRepo) CountRevisions(_ context.Context, quotationID uuid.UUID) (int, error) {
	count := 0
	for _, rev := range m.revisions {
		if rev.QuotationID == quotationID {
			count++
		}
	}
	return count, nil
}

func (m *memoryRepo) MaxApprovedRevisionSeq(_ context.Context, quotationID uuid.UUID) (int, error) {
	max := 0
	for _, rev := range m.revisions {
		if rev.QuotationID == quotationID && rev.ApprovalStatus == approval.StatusApproved && rev.RevisionSeq > max {
			max = rev.RevisionSeq
		}
	}
	return max, nil
}

func (m *memoryRepo) ExistsByQuotation(_ context.Context, quotationID uuid.UUID) (bool, error) {
	for _, p := range m.projects {
		if p.SourceQuotationID != nil && *p.SourceQuotationID == quotationID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepo) ExistsByRevision(_ context.Context, revisionID uuid.UUID) (bool, error) {
	for _, p := range m.projects {
		if p.SourceRevisionID != nil && *p.SourceRevisionID == revisionID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepo) Create(_ context.Context, p Project) error {
	m.projects[p.ID] = p
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id uuid.UUID) (*Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (m *memoryRepo) GetByQuotation(_ context.Context, quotationID uuid.UUID) (*Project, error) {
	for _, p := range m.projects {
		if p.SourceQuotationID != nil && *p.SourceQuotationID == quotationID {
			cp := p
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryRepo) GetByRevision(_ context.Context, revisionID uuid.UUID) (*Project, error) {
	for _, p := range m.projects {
		if p.SourceRevisionID != nil && *p.SourceRevisionID == revisionID {
			cp := p
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryRepo) List(_ context.Context, _ ListProjectsRequest) ([]Project, int, error) {
	var out []Project
	for _, p := range m.projects {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Update(_ context.Context, p Project) error {
	if _, ok := m.projects[p.ID]; !ok {
		return shared.ErrNotFound
	}
	m.projects[p.ID] = p
	return nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, nil, slog.Default())
}

func engineerActor() shared.Actor {
	return shared.Actor{ID: uuid.New(), Name: "engineer", Roles: []string{shared.RoleEngineer}}
}

func projectRequest() CreateProjectRequest {
	return CreateProjectRequest{
		Name:                 "Warehouse fit-out",
		LocationDetails:      "Plot 14, industrial zone",
		WorkingHours:         "07:00-17:00",
		ManpowerCount:        12,
		AssignedSiteEngineer: "R. Fernandes",
		Budget:               250000,
	}
}

func TestCreateFromQuotation(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	qid := uuid.New()
	repo.quotations[qid] = SourceQuotation{ID: qid, ApprovalStatus: approval.StatusApproved}

	p, err := svc.CreateFromQuotation(context.Background(), engineerActor(), qid, projectRequest())
	require.NoError(t, err)
	assert.Equal(t, StatusActive, p.Status)
	require.NotNil(t, p.SourceQuotationID)
	assert.Equal(t, qid, *p.SourceQuotationID)
	assert.Nil(t, p.SourceRevisionID)

	// Second project for the same quotation loses.
	_, err = svc.CreateFromQuotation(context.Background(), engineerActor(), qid, projectRequest())
	assert.ErrorIs(t, err, shared.ErrConflictExists)
}

func TestCreateFromQuotationNotApproved(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	qid := uuid.New()
	repo.quotations[qid] = SourceQuotation{ID: qid, ApprovalStatus: approval.StatusPending}

	_, err := svc.CreateFromQuotation(context.Background(), engineerActor(), qid, projectRequest())
	assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
}

func TestCreateFromQuotationWithRevisionsRedirects(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	qid := uuid.New()
	repo.quotations[qid] = SourceQuotation{ID: qid, ApprovalStatus: approval.StatusApproved}
	rid := uuid.New()
	repo.revisions[rid] = SourceRevision{ID: rid, QuotationID: qid, RevisionSeq: 1, ApprovalStatus: approval.StatusApproved}

	_, err := svc.CreateFromQuotation(context.Background(), engineerActor(), qid, projectRequest())
	require.ErrorIs(t, err, shared.ErrConflictExists)
	assert.Contains(t, err.Error(), "latest approved revision")
}

func TestCreateFromRevisionLatestApprovedOnly(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	qid := uuid.New()
	repo.quotations[qid] = SourceQuotation{ID: qid, ApprovalStatus: approval.StatusApproved}
	rev1 := uuid.New()
	rev2 := uuid.New()
	repo.revisions[rev1] = SourceRevision{ID: rev1, QuotationID: qid, RevisionSeq: 1, ApprovalStatus: approval.StatusApproved}
	repo.revisions[rev2] = SourceRevision{ID: rev2, QuotationID: qid, RevisionSeq: 2, ApprovalStatus: approval.StatusApproved}

	_, err := svc.CreateFromRevision(context.Background(), engineerActor(), rev1, projectRequest())
	assert.ErrorIs(t, err, shared.ErrNotLatestApprovedRevision)

	p, err := svc.CreateFromRevision(context.Background(), engineerActor(), rev2, projectRequest())
	require.NoError(t, err)
	require.NotNil(t, p.SourceRevisionID)
	assert.Equal(t, rev2, *p.SourceRevisionID)

	got, err := svc.GetByRevision(context.Background(), rev2)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestCreateFromRevisionNotApproved(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	qid := uuid.New()
	rid := uuid.New()
	repo.revisions[rid] = SourceRevision{ID: rid, QuotationID: qid, RevisionSeq: 1, ApprovalStatus: approval.StatusUnset}

	_, err := svc.CreateFromRevision(context.Background(), engineerActor(), rid, projectRequest())
	assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
}

func TestCreateFromRevisionDuplicateBlocked(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	qid := uuid.New()
	rid := uuid.New()
	repo.revisions[rid] = SourceRevision{ID: rid, QuotationID: qid, RevisionSeq: 1, ApprovalStatus: approval.StatusApproved}

	_, err := svc.CreateFromRevision(context.Background(), engineerActor(), rid, projectRequest())
	require.NoError(t, err)
	_, err = svc.CreateFromRevision(context.Background(), engineerActor(), rid, projectRequest())
	assert.ErrorIs(t, err, shared.ErrConflictExists)
}

func TestUpdateProject(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	qid := uuid.New()
	repo.quotations[qid] = SourceQuotation{ID: qid, ApprovalStatus: approval.StatusApproved}
	p, err := svc.CreateFromQuotation(context.Background(), engineerActor(), qid, projectRequest())
	require.NoError(t, err)

	status := StatusCompleted
	budget := 300000.0
	updated, err := svc.Update(context.Background(), engineerActor(), p.ID, UpdateProjectRequest{Status: &status, Budget: &budget})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)
	assert.Equal(t, 300000.0, updated.Budget)
}
