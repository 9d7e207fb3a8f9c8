package services

import (
	"context"
	"sort"

	"hub/filter"
	"hub/models"
	"hub/store"
)

// Workspace is a tenant the user can work in, with the role held there.
type Workspace struct {
	Tenant models.Tenant `json:"tenant"`
	Role   models.Role   `json:"role"`
}

type WorkspaceService struct {
	store store.Store
	auth  *AuthService
}

func NewWorkspaceService(st store.Store, auth *AuthService) *WorkspaceService {
	return &WorkspaceService{store: st, auth: auth}
}

// Available lists the distinct (tenant, role) pairs of the user. Super users
// get every active tenant under their highest role.
func (s *WorkspaceService) Available(ctx context.Context, access *Access) ([]Workspace, error) {
	assignments, err := s.store.FullList(ctx, models.COLLECTION_USER_ROLES, store.Query{
		Filter: filter.Eq("user", access.User.ID),
		Expand: []string{"role", "tenant"},
	})
	if err != nil {
		return nil, err
	}

	var out []Workspace
	seen := map[string]bool{}
	var globalRoles []models.Role
	for _, a := range assignments {
		roleRec := a.Expand("role")
		if roleRec == nil {
			continue
		}
		var role models.Role
		if err := roleRec.Decode(&role); err != nil {
			return nil, err
		}
		if !role.IsActive {
			continue
		}
		tenantRec := a.Expand("tenant")
		if tenantRec == nil {
			globalRoles = append(globalRoles, role)
			continue
		}
		var tenant models.Tenant
		if err := tenantRec.Decode(&tenant); err != nil {
			return nil, err
		}
		key := tenant.ID + "/" + role.ID
		if seen[key] || !tenant.IsActive {
			continue
		}
		seen[key] = true
		out = append(out, Workspace{Tenant: tenant, Role: role})
	}

	if access.SuperUser || len(globalRoles) > 0 {
		tenants, err := s.store.FullList(ctx, models.COLLECTION_TENANTS, store.Query{Filter: filter.Eq("is_active", true), Sort: "name"})
		if err != nil {
			return nil, err
		}
		roles := globalRoles
		if len(roles) == 0 {
			roles = []models.Role{topRole(access)}
		}
		for _, rec := range tenants {
			var tenant models.Tenant
			if err := rec.Decode(&tenant); err != nil {
				return nil, err
			}
			for _, role := range roles {
				key := tenant.ID + "/" + role.ID
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, Workspace{Tenant: tenant, Role: role})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Tenant.Name != out[j].Tenant.Name {
			return out[i].Tenant.Name < out[j].Tenant.Name
		}
		return out[i].Role.Level < out[j].Role.Level
	})
	return out, nil
}

func topRole(access *Access) models.Role {
	var best *models.Role
	for i := range access.Roles {
		if best == nil || access.Roles[i].Level < best.Level {
			best = &access.Roles[i]
		}
	}
	if best != nil {
		return *best
	}
	return models.Role{Name: "Super Admin", Slug: "super_admin", Type: models.ROLE_TYPE_SYSTEM, IsActive: true}
}

// Select validates that the user holds roleID in tenantID and rebinds the
// session to that workspace.
func (s *WorkspaceService) Select(ctx context.Context, access *Access, sessionID, tenantID, roleID string) (*Workspace, *TokenPair, error) {
	if tenantID == "" {
		return nil, nil, invalid("tenant es obligatorio")
	}
	available, err := s.Available(ctx, access)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range available {
		if w.Tenant.ID != tenantID || (roleID != "" && w.Role.ID != roleID) {
			continue
		}
		pair, err := s.auth.SelectWorkspace(ctx, access.User, sessionID, w.Tenant.ID, w.Role.ID)
		if err != nil {
			return nil, nil, err
		}
		return &w, pair, nil
	}
	return nil, nil, forbidden("no tenés acceso a ese espacio de trabajo")
}
