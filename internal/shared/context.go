package shared

import (
	"context"

	"github.com/google/uuid"
)

// Actor identifies who is performing a service call. Every mutating
// operation receives an explicit Actor; handlers resolve it from the
// session or an API key before calling into services.
type Actor struct {
	ID    uuid.UUID
	Name  string
	Roles []string
}

// RoleManager and RoleAdmin may decide approvals and perform privileged
// lifecycle actions.
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleEstimation = "estimation"
	RoleSales      = "sales"
	RoleEngineer   = "engineer"
)

// HasRole reports whether the actor carries the given role.
func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Privileged reports whether the actor may decide approvals.
func (a Actor) Privileged() bool {
	return a.HasRole(RoleAdmin) || a.HasRole(RoleManager)
}

// Zero reports whether the actor is unresolved.
func (a Actor) Zero() bool {
	return a.ID == uuid.Nil
}

type actorContextKey struct{}

type sessionContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context.
func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorContextKey{}).(Actor)
	return actor
}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}
