package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hub/filter"
	"hub/models"
	"hub/store"
	"hub/tools"

	"github.com/rs/zerolog"
)

// SeedResult reports what SeedPermissions did.
type SeedResult struct {
	Created []string `json:"created"`
	Skipped []string `json:"skipped"`
}

// RoleReport is one line of the permission check.
type RoleReport struct {
	Role        string   `json:"role"`
	Slug        string   `json:"slug"`
	Active      bool     `json:"active"`
	Permissions []string `json:"permissions"`
}

type SetupService struct {
	store store.Store
	roles *RolesService
	log   zerolog.Logger
}

func NewSetupService(st store.Store, roles *RolesService, log zerolog.Logger) *SetupService {
	return &SetupService{store: st, roles: roles, log: log}
}

// EnsureSchema creates missing collections and fields on the backend.
func (s *SetupService) EnsureSchema(ctx context.Context) error {
	if err := s.store.EnsureCollections(ctx, models.Schema); err != nil {
		return fmt.Errorf("ensure collections: %w", err)
	}
	s.log.Info().Int("collections", len(models.Schema)).Msg("schema ensured")
	return nil
}

// SeedPermissions inserts the catalog, skipping slugs that already exist.
func (s *SetupService) SeedPermissions(ctx context.Context) (*SeedResult, error) {
	existing, err := s.store.FullList(ctx, models.COLLECTION_PERMISSIONS, store.Query{})
	if err != nil {
		return nil, err
	}
	have := map[string]bool{}
	for _, rec := range existing {
		have[rec.String("slug")] = true
	}

	res := &SeedResult{Created: []string{}, Skipped: []string{}}
	for _, p := range PermissionCatalog {
		if have[p.Slug] {
			res.Skipped = append(res.Skipped, p.Slug)
			continue
		}
		rec, err := models.FromStruct(p)
		if err != nil {
			return nil, err
		}
		delete(rec, "id")
		if _, err := s.store.Create(ctx, models.COLLECTION_PERMISSIONS, rec); err != nil {
			return nil, fmt.Errorf("create permission %s: %w", p.Slug, err)
		}
		res.Created = append(res.Created, p.Slug)
	}
	s.log.Info().Int("created", len(res.Created)).Int("skipped", len(res.Skipped)).Msg("permissions seeded")
	return res, nil
}

func (s *SetupService) CheckPermissions(ctx context.Context) ([]RoleReport, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RoleReport, 0, len(roles))
	for _, r := range roles {
		report := RoleReport{Role: r.Name, Slug: r.Slug, Active: r.IsActive, Permissions: []string{}}
		for _, p := range r.Permissions {
			report.Permissions = append(report.Permissions, p.Slug)
		}
		out = append(out, report)
	}
	return out, nil
}

// BootstrapAdmin creates the super_admin system role with every permission
// and the first user holding it. It refuses to run once any user exists.
func (s *SetupService) BootstrapAdmin(ctx context.Context, email, password, firstName, lastName string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !tools.ValidateEmail(email) {
		return models.User{}, newError(ErrInvalid, "email inválido")
	}
	if msg := tools.CheckPassword(password); msg != "" {
		return models.User{}, newError(ErrInvalid, "%s", msg)
	}
	users, err := s.store.List(ctx, models.COLLECTION_USERS, store.Query{PerPage: 1})
	if err != nil {
		return models.User{}, err
	}
	if users.TotalItems > 0 {
		return models.User{}, newError(ErrConflict, "ya existen usuarios; bootstrap cancelado")
	}
	if _, err := s.SeedPermissions(ctx); err != nil {
		return models.User{}, err
	}

	role, err := s.store.First(ctx, models.COLLECTION_ROLES, filter.Eq("slug", "super_admin"))
	if errors.Is(err, store.ErrNotFound) {
		role, err = s.store.Create(ctx, models.COLLECTION_ROLES, models.Record{
			"name":        "Super Admin",
			"slug":        "super_admin",
			"description": "Acceso total al hub",
			"is_active":   true,
			"type":        models.ROLE_TYPE_SYSTEM,
			"level":       0,
		})
	}
	if err != nil {
		return models.User{}, err
	}

	perms, err := s.store.FullList(ctx, models.COLLECTION_PERMISSIONS, store.Query{})
	if err != nil {
		return models.User{}, err
	}
	ids := make([]string, 0, len(perms))
	for _, p := range perms {
		ids = append(ids, p.ID())
	}
	if err := s.roles.SyncPermissions(ctx, role.ID(), ids); err != nil {
		return models.User{}, err
	}

	if firstName == "" {
		firstName = "Admin"
	}
	if lastName == "" {
		lastName = "Hub"
	}
	rec, err := s.store.Create(ctx, models.COLLECTION_USERS, models.Record{
		"email":           email,
		"emailVisibility": true,
		"password":        password,
		"passwordConfirm": password,
		"firstName":       firstName,
		"lastName":        lastName,
		"name":            firstName + " " + lastName,
		"active":          true,
		"verified":        true,
		"is_super_admin":  true,
	})
	if err != nil {
		return models.User{}, err
	}
	if _, err := s.store.Create(ctx, models.COLLECTION_USER_ROLES, models.Record{"user": rec.ID(), "role": role.ID(), "tenant": ""}); err != nil {
		return models.User{}, err
	}
	s.log.Info().Str("email", rec.String("email")).Msg("super admin created")
	return decodeUser(rec)
}
