// Package rbac resolves role permissions and gates HTTP routes on them.
package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/meridian-esw/meridian-esw/internal/shared"
)

const cacheTTL = 5 * time.Minute

// Service resolves the permissions granted to a set of roles. Grants live
// in role_permissions and are cached in Redis; when a role has no stored
// grants the built-in defaults apply.
type Service struct {
	pool   *pgxpool.Pool
	cache  *redis.Client
	lookup singleflight.Group
}

// NewService constructs a Service backed by the provided pool and cache.
func NewService(pool *pgxpool.Pool, cache *redis.Client) *Service {
	return &Service{pool: pool, cache: cache}
}

// EffectivePermissions returns the union of permissions for the roles.
func (s *Service) EffectivePermissions(ctx context.Context, roles []string) ([]string, error) {
	granted := make(map[string]struct{})
	for _, role := range roles {
		role = strings.TrimSpace(strings.ToLower(role))
		if role == "" {
			continue
		}
		perms, err := s.rolePermissions(ctx, role)
		if err != nil {
			return nil, err
		}
		for _, p := range perms {
			granted[p] = struct{}{}
		}
	}
	out := make([]string, 0, len(granted))
	for p := range granted {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// rolePermissions collapses concurrent lookups for the same role into a
// single cache/database round trip.
func (s *Service) rolePermissions(ctx context.Context, role string) ([]string, error) {
	v, err, _ := s.lookup.Do(role, func() (any, error) {
		return s.loadRole(ctx, role)
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (s *Service) loadRole(ctx context.Context, role string) ([]string, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey(role)).Bytes(); err == nil {
			var perms []string
			if err := json.Unmarshal(data, &perms); err == nil {
				return perms, nil
			}
		} else if !errors.Is(err, redis.Nil) && !errors.Is(err, context.Canceled) {
			// Cache trouble falls through to the database.
			_ = err
		}
	}

	perms, err := s.queryRole(ctx, role)
	if err != nil {
		return nil, err
	}
	if len(perms) == 0 {
		perms = defaultRolePermissions(role)
	}

	if s.cache != nil {
		if data, err := json.Marshal(perms); err == nil {
			_ = s.cache.Set(ctx, cacheKey(role), data, cacheTTL).Err()
		}
	}
	return perms, nil
}

func (s *Service) queryRole(ctx context.Context, role string) ([]string, error) {
	if s.pool == nil {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT permission FROM role_permissions WHERE role=$1 ORDER BY permission`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func cacheKey(role string) string {
	return "rbac:role:" + role
}

// defaultRolePermissions provides grants for unseeded databases. Admin and
// manager get everything; field roles get the view/edit subset they need.
func defaultRolePermissions(role string) []string {
	switch role {
	case shared.RoleAdmin, shared.RoleManager:
		return shared.CRMScopes()
	case shared.RoleEstimation, shared.RoleSales:
		return []string{
			shared.PermLeadView, shared.PermLeadEdit, shared.PermLeadConvert,
			shared.PermQuotationView, shared.PermQuotationEdit,
			shared.PermRevisionView, shared.PermRevisionEdit,
			shared.PermProjectView,
			shared.PermVariationView, shared.PermVariationEdit,
			shared.PermSiteVisitView,
		}
	case shared.RoleEngineer:
		return []string{
			shared.PermProjectView,
			shared.PermSiteVisitView, shared.PermSiteVisitEdit,
		}
	default:
		return nil
	}
}
