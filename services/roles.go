package services

import (
	"context"
	"regexp"
	"strings"

	"hub/filter"
	"hub/models"
	"hub/store"

	"golang.org/x/sync/errgroup"
)

var whitespace = regexp.MustCompile(`\s+`)

// defaultRoleSlug lowercases name and joins words with "_".
func defaultRoleSlug(name string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
}

type RoleInput struct {
	Name          string   `json:"name" form:"name"`
	Slug          string   `json:"slug" form:"slug"`
	Description   string   `json:"description" form:"description"`
	Level         *int     `json:"level" form:"level"`
	IsActive      *bool    `json:"is_active" form:"is_active"`
	PermissionIDs []string `json:"permissions" form:"permissions"`
}

type RolesService struct {
	store store.Store
	audit Auditor
}

func NewRolesService(st store.Store, audit Auditor) *RolesService {
	return &RolesService{store: st, audit: audit}
}

// List returns every role sorted by name with its permissions.
func (s *RolesService) List(ctx context.Context) ([]models.RoleWithPermissions, error) {
	roles, err := s.store.FullList(ctx, models.COLLECTION_ROLES, store.Query{Sort: "name"})
	if err != nil {
		return nil, err
	}
	links, err := s.store.FullList(ctx, models.COLLECTION_ROLE_PERMISSIONS, store.Query{Expand: []string{"permission"}})
	if err != nil {
		return nil, err
	}
	byRole := map[string][]models.Permission{}
	for _, link := range links {
		exp := link.Expand("permission")
		if exp == nil {
			continue
		}
		var p models.Permission
		if err := exp.Decode(&p); err != nil {
			return nil, err
		}
		role := link.String("role")
		byRole[role] = append(byRole[role], p)
	}

	out := make([]models.RoleWithPermissions, 0, len(roles))
	for _, rec := range roles {
		var r models.RoleWithPermissions
		if err := rec.Decode(&r.Role); err != nil {
			return nil, err
		}
		r.Permissions = byRole[r.ID]
		if r.Permissions == nil {
			r.Permissions = []models.Permission{}
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *RolesService) Get(ctx context.Context, id string) (*models.RoleWithPermissions, error) {
	rec, err := s.store.Get(ctx, models.COLLECTION_ROLES, id)
	if err != nil {
		return nil, translate(err, "rol")
	}
	out := &models.RoleWithPermissions{Permissions: []models.Permission{}}
	if err := rec.Decode(&out.Role); err != nil {
		return nil, err
	}
	links, err := s.store.FullList(ctx, models.COLLECTION_ROLE_PERMISSIONS, store.Query{Filter: filter.Eq("role", id), Expand: []string{"permission"}})
	if err != nil {
		return nil, err
	}
	for _, link := range links {
		if exp := link.Expand("permission"); exp != nil {
			var p models.Permission
			if err := exp.Decode(&p); err != nil {
				return nil, err
			}
			out.Permissions = append(out.Permissions, p)
		}
	}
	return out, nil
}

func (s *RolesService) Permissions(ctx context.Context) ([]models.Permission, error) {
	recs, err := s.store.FullList(ctx, models.COLLECTION_PERMISSIONS, store.Query{Sort: "resource,action"})
	if err != nil {
		return nil, err
	}
	return models.DecodeAll[models.Permission](recs)
}

func (s *RolesService) Create(ctx context.Context, actor Actor, in RoleInput) (*models.RoleWithPermissions, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, invalid("el nombre del rol es obligatorio")
	}
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = defaultRoleSlug(in.Name)
	}
	level := 10
	if in.Level != nil {
		level = *in.Level
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	rec, err := s.store.Create(ctx, models.COLLECTION_ROLES, models.Record{
		"name":        in.Name,
		"slug":        slug,
		"description": in.Description,
		"is_active":   active,
		"type":        models.ROLE_TYPE_CUSTOM,
		"level":       level,
	})
	if err != nil {
		return nil, translate(err, "rol")
	}
	if err := s.SyncPermissions(ctx, rec.ID(), in.PermissionIDs); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_CREATE, models.COLLECTION_ROLES, rec.ID(), map[string]any{"name": in.Name, "permissions": len(in.PermissionIDs)}))
	return s.Get(ctx, rec.ID())
}

// Update changes the role fields. A non-nil PermissionIDs replaces the role's
// permission set.
func (s *RolesService) Update(ctx context.Context, actor Actor, id string, in RoleInput) (*models.RoleWithPermissions, error) {
	patch := models.Record{}
	if v := strings.TrimSpace(in.Name); v != "" {
		patch["name"] = v
	}
	if v := strings.TrimSpace(in.Slug); v != "" {
		patch["slug"] = v
	}
	if in.Description != "" {
		patch["description"] = in.Description
	}
	if in.Level != nil {
		patch["level"] = *in.Level
	}
	if in.IsActive != nil {
		patch["is_active"] = *in.IsActive
	}
	if len(patch) > 0 {
		if _, err := s.store.Update(ctx, models.COLLECTION_ROLES, id, patch); err != nil {
			return nil, translate(err, "rol")
		}
	} else if _, err := s.store.Get(ctx, models.COLLECTION_ROLES, id); err != nil {
		return nil, translate(err, "rol")
	}
	if in.PermissionIDs != nil {
		if err := s.SyncPermissions(ctx, id, in.PermissionIDs); err != nil {
			return nil, err
		}
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_UPDATE, models.COLLECTION_ROLES, id, map[string]any{"changes": map[string]any(patch), "permissions": in.PermissionIDs}))
	return s.Get(ctx, id)
}

// SyncPermissions makes permissionIDs the exact permission set of roleID.
// Removals and additions run concurrently; the first failure is returned.
func (s *RolesService) SyncPermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	links, err := s.store.FullList(ctx, models.COLLECTION_ROLE_PERMISSIONS, store.Query{Filter: filter.Eq("role", roleID)})
	if err != nil {
		return err
	}
	want := map[string]bool{}
	for _, id := range permissionIDs {
		if id != "" {
			want[id] = true
		}
	}
	have := map[string]bool{}
	var remove []string
	for _, link := range links {
		perm := link.String("permission")
		if !want[perm] || have[perm] {
			remove = append(remove, link.ID())
			continue
		}
		have[perm] = true
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range remove {
		g.Go(func() error {
			return s.store.Delete(gctx, models.COLLECTION_ROLE_PERMISSIONS, id)
		})
	}
	for perm := range want {
		if have[perm] {
			continue
		}
		g.Go(func() error {
			_, err := s.store.Create(gctx, models.COLLECTION_ROLE_PERMISSIONS, models.Record{"role": roleID, "permission": perm})
			return err
		})
	}
	return g.Wait()
}

// Delete refuses system roles and removes permission links before the role.
func (s *RolesService) Delete(ctx context.Context, actor Actor, id string) error {
	rec, err := s.store.Get(ctx, models.COLLECTION_ROLES, id)
	if err != nil {
		return translate(err, "rol")
	}
	var role models.Role
	if err := rec.Decode(&role); err != nil {
		return err
	}
	if role.IsSystem() || rec.Bool("is_system") {
		return forbidden("no se puede eliminar un rol del sistema")
	}
	if err := s.SyncPermissions(ctx, id, nil); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, models.COLLECTION_ROLES, id); err != nil {
		return translate(err, "rol")
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_DELETE, models.COLLECTION_ROLES, id, map[string]any{"name": role.Name}))
	return nil
}
