package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-esw/meridian-esw/internal/shared"
)

// Keys are presented as "<keyID>.<secret>". Only the bcrypt hash of the
// secret is stored; the plaintext is shown once at mint time.
const keySeparator = "."

// Service mints and verifies API keys.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs an identity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// MintedKey carries the one-time plaintext key alongside the stored record.
type MintedKey struct {
	Principal ServicePrincipal
	PlainKey  string
}

// Mint creates a service principal with the given roles and returns the
// plaintext key exactly once.
func (s *Service) Mint(ctx context.Context, name string, roles []string) (*MintedKey, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: principal name is required", shared.ErrValidation)
	}
	keyID, err := randomToken(8)
	if err != nil {
		return nil, err
	}
	secret, err := randomToken(24)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("identity: hash secret: %w", err)
	}
	sp := ServicePrincipal{
		ID:         uuid.New(),
		Name:       name,
		KeyID:      keyID,
		SecretHash: string(hash),
		Roles:      roles,
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, sp); err != nil {
		return nil, err
	}
	return &MintedKey{Principal: sp, PlainKey: keyID + keySeparator + secret}, nil
}

// Verify resolves a raw API key to an actor. Every failure path returns
// ErrInvalidCredentials so callers cannot distinguish unknown key ids
// from bad secrets.
func (s *Service) Verify(ctx context.Context, rawKey string) (shared.Actor, error) {
	keyID, secret, ok := strings.Cut(rawKey, keySeparator)
	if !ok || keyID == "" || secret == "" {
		return shared.Actor{}, shared.ErrInvalidCredentials
	}
	sp, err := s.repo.FindByKeyID(ctx, keyID)
	if err != nil {
		return shared.Actor{}, shared.ErrInvalidCredentials
	}
	if !sp.IsActive {
		return shared.Actor{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(sp.SecretHash), []byte(secret)); err != nil {
		return shared.Actor{}, shared.ErrInvalidCredentials
	}
	if err := s.repo.TouchLastUsed(ctx, sp.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("touch principal last_used", slog.Any("error", err))
	}
	return shared.Actor{ID: sp.ID, Name: sp.Name, Roles: sp.Roles}, nil
}

// Revoke deactivates a principal. Existing keys stop verifying immediately.
func (s *Service) Revoke(ctx context.Context, id uuid.UUID) error {
	return s.repo.Deactivate(ctx, id)
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("identity: random token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
