// Package identity authenticates service principals by API key. Human
// users arrive through the Redis-backed session; machine clients present
// an API key in the Authorization header instead.
package identity

import (
	"time"

	"github.com/google/uuid"
)

// ServicePrincipal is a machine identity allowed to call the API.
type ServicePrincipal struct {
	ID         uuid.UUID
	Name       string
	KeyID      string
	SecretHash string
	Roles      []string
	IsActive   bool
	CreatedAt  time.Time
	LastUsedAt *time.Time
}
