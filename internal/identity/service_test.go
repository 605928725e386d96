package identity

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
	byKeyID map[string]ServicePrincipal
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byKeyID: map[string]ServicePrincipal{}}
}

func (m *memoryRepo) Create(_ context.Context, sp ServicePrincipal) error {
	if _, ok := m.byKeyID[sp.KeyID]; ok {
		return shared.ErrConflictExists
	}
	m.byKeyID[sp.KeyID] = sp
	return nil
}

func (m *memoryRepo) FindByKeyID(_ context.Context, keyID string) (*ServicePrincipal, error) {
	sp, ok := m.byKeyID[keyID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &sp, nil
}

func (m *memoryRepo) TouchLastUsed(_ context.Context, id uuid.UUID, at time.Time) error {
	for key, sp := range m.byKeyID {
		if sp.ID == id {
			sp.LastUsedAt = &at
			m.byKeyID[key] = sp
		}
	}
	return nil
}

func (m *memoryRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	for key, sp := range m.byKeyID {
		if sp.ID == id {
			sp.IsActive = false
			m.byKeyID[key] = sp
			return nil
		}
	}
	return shared.ErrNotFound
}

func TestMintAndVerify(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, slog.Default())

	minted, err := svc.Mint(context.Background(), "report-exporter", []string{shared.RoleEstimation})
	require.NoError(t, err)
	assert.Contains(t, minted.PlainKey, ".")
	assert.NotContains(t, minted.PlainKey, minted.Principal.SecretHash)

	actor, err := svc.Verify(context.Background(), minted.PlainKey)
	require.NoError(t, err)
	assert.Equal(t, minted.Principal.ID, actor.ID)
	assert.Equal(t, []string{shared.RoleEstimation}, actor.Roles)
}

func TestVerifyRejectsBadKeys(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, slog.Default())

	minted, err := svc.Mint(context.Background(), "ci-bot", []string{shared.RoleSales})
	require.NoError(t, err)

	// Malformed, unknown and wrong-secret keys all fail the same way.
	for _, key := range []string{"", "nodot", "unknown.secret", minted.Principal.KeyID + ".wrong"} {
		_, err := svc.Verify(context.Background(), key)
		assert.ErrorIs(t, err, shared.ErrInvalidCredentials, "key %q", key)
	}
}

func TestRevokedKeyStopsVerifying(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, slog.Default())

	minted, err := svc.Mint(context.Background(), "legacy-sync", []string{shared.RoleEngineer})
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), minted.PlainKey)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), minted.Principal.ID))
	_, err = svc.Verify(context.Background(), minted.PlainKey)
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	assert.ErrorIs(t, svc.Revoke(context.Background(), uuid.New()), shared.ErrNotFound)
}

func TestMintRequiresName(t *testing.T) {
	svc := NewService(newMemoryRepo(), slog.Default())
	_, err := svc.Mint(context.Background(), "  ", nil)
	assert.ErrorIs(t, err, shared.ErrValidation)
}
