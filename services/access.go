package services

import (
	"context"
	"math"
	"sort"
	"strings"

	"hub/filter"
	"hub/models"
	"hub/store"
	"hub/tools"
)

// roleAliases folds the spellings found in existing role data onto one slug.
var roleAliases = map[string]string{
	"superadmin":       "super_admin",
	"super_usuario":    "super_admin",
	"superusuario":     "super_admin",
	"administrador":    "admin",
	"administrator":    "admin",
	"root":             "sysadmin",
	"sistema":          "sysadmin",
	"mesa_de_entrada":  "mesa_entrada",
	"mesa_de_entradas": "mesa_entrada",
	"mesa_entradas":    "mesa_entrada",
	"medico_senior":    "medical_senior",
}

var adminRoles = map[string]bool{"super_admin": true, "admin": true, "sysadmin": true}

var medicalRoles = map[string]bool{"medico": true, "medical_senior": true}

// NormalizeRole lowercases a role slug or name, replaces spaces and dashes
// with "_", drops accents and resolves known aliases.
func NormalizeRole(identifier string) string {
	n := tools.Slugify(identifier)
	if alias, ok := roleAliases[n]; ok {
		return alias
	}
	return n
}

// Access is the resolved authorization state of a user inside a tenant.
type Access struct {
	User        models.User         `json:"user"`
	TenantID    string              `json:"tenant"`
	Roles       []models.Role       `json:"roles"`
	Permissions []models.Permission `json:"permissions"`
	SuperUser   bool                `json:"superUser"`

	granted map[string]bool
}

func (a *Access) Can(slug string) bool {
	if a == nil {
		return false
	}
	return a.SuperUser || a.granted[slug]
}

func (a *Access) CanAny(slugs ...string) bool {
	for _, s := range slugs {
		if a.Can(s) {
			return true
		}
	}
	return false
}

func (a *Access) CanAll(slugs ...string) bool {
	for _, s := range slugs {
		if !a.Can(s) {
			return false
		}
	}
	return true
}

// HasRole compares identifier with each role's slug and name after
// normalization.
func (a *Access) HasRole(identifier string) bool {
	if a == nil {
		return false
	}
	want := NormalizeRole(identifier)
	for _, r := range a.Roles {
		if NormalizeRole(r.Slug) == want || NormalizeRole(r.Name) == want {
			return true
		}
	}
	return false
}

// HighestLevel returns the lowest level number among the roles, which is the
// most privileged one. math.MaxInt when the user has no roles.
func (a *Access) HighestLevel() int {
	level := math.MaxInt
	if a == nil {
		return level
	}
	for _, r := range a.Roles {
		if r.Level < level {
			level = r.Level
		}
	}
	return level
}

func (a *Access) PermissionSlugs() []string {
	out := make([]string, 0, len(a.Permissions))
	for _, p := range a.Permissions {
		out = append(out, p.Slug)
	}
	sort.Strings(out)
	return out
}

func (a *Access) PermissionsByCategory() map[string][]models.Permission {
	out := map[string][]models.Permission{}
	for _, p := range a.Permissions {
		cat := p.Category
		if cat == "" {
			cat = p.Resource
		}
		out[cat] = append(out[cat], p)
	}
	return out
}

// Profile selects the session timeout profile.
func (a *Access) Profile() string {
	for id := range medicalRoles {
		if a.HasRole(id) {
			return models.SESSION_PROFILE_MEDICAL
		}
	}
	return models.SESSION_PROFILE_DEFAULT
}

type AccessService struct {
	store       store.Store
	superEmails map[string]bool
}

func NewAccessService(st store.Store, superAdminEmails []string) *AccessService {
	emails := make(map[string]bool, len(superAdminEmails))
	for _, e := range superAdminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			emails[e] = true
		}
	}
	return &AccessService{store: st, superEmails: emails}
}

func (s *AccessService) loadUser(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	rec, err := s.store.Get(ctx, models.COLLECTION_USERS, userID)
	if err != nil {
		return user, translate(err, "usuario")
	}
	err = rec.Decode(&user)
	return user, err
}

func (s *AccessService) Resolve(ctx context.Context, userID, tenantID string) (*Access, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.ResolveUser(ctx, user, tenantID)
}

// ResolveUser loads the user's role assignments for tenantID (assignments
// without a tenant count everywhere) and the permissions of those roles.
func (s *AccessService) ResolveUser(ctx context.Context, user models.User, tenantID string) (*Access, error) {
	access := &Access{User: user, TenantID: tenantID, granted: map[string]bool{}}

	f := filter.Eq("user", user.ID)
	if tenantID != "" {
		f = filter.And(f, filter.Or(filter.Eq("tenant", tenantID), filter.Eq("tenant", "")))
	}
	assignments, err := s.store.FullList(ctx, models.COLLECTION_USER_ROLES, store.Query{Filter: f, Expand: []string{"role"}})
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var roleIDs []string
	for _, a := range assignments {
		exp := a.Expand("role")
		if exp == nil || seen[exp.ID()] {
			continue
		}
		var role models.Role
		if err := exp.Decode(&role); err != nil {
			return nil, err
		}
		if !role.IsActive {
			continue
		}
		seen[role.ID] = true
		roleIDs = append(roleIDs, role.ID)
		access.Roles = append(access.Roles, role)
	}

	if len(roleIDs) > 0 {
		links, err := s.store.FullList(ctx, models.COLLECTION_ROLE_PERMISSIONS, store.Query{
			Filter: filter.Any("role", roleIDs...),
			Expand: []string{"permission"},
		})
		if err != nil {
			return nil, err
		}
		for _, link := range links {
			exp := link.Expand("permission")
			if exp == nil {
				continue
			}
			var perm models.Permission
			if err := exp.Decode(&perm); err != nil {
				return nil, err
			}
			if perm.Slug == "" || access.granted[perm.Slug] {
				continue
			}
			access.granted[perm.Slug] = true
			access.Permissions = append(access.Permissions, perm)
		}
	}

	access.SuperUser = s.isSuperUser(access)
	return access, nil
}

func (s *AccessService) isSuperUser(a *Access) bool {
	if a.User.IsSuperAdmin || s.superEmails[strings.ToLower(a.User.Email)] {
		return true
	}
	for _, r := range a.Roles {
		if adminRoles[NormalizeRole(r.Slug)] || adminRoles[NormalizeRole(r.Name)] {
			return true
		}
	}
	return false
}
