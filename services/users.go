package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"hub/filter"
	"hub/models"
	"hub/store"
	"hub/tools"
)

const generatedPasswordLen = 16

type UserInput struct {
	Email     string   `json:"email" form:"email"`
	Password  string   `json:"password" form:"password"`
	FirstName string   `json:"firstName" form:"firstName"`
	LastName  string   `json:"lastName" form:"lastName"`
	Phone     string   `json:"phone" form:"phone"`
	DNI       string   `json:"dni" form:"dni"`
	Active    *bool    `json:"active" form:"active"`
	Verified  *bool    `json:"verified" form:"verified"`
	TenantID  string   `json:"tenant" form:"tenant"`
	RoleIDs   []string `json:"roles" form:"roles"`
}

// UserAssignment is a role assignment with role and tenant expanded.
type UserAssignment struct {
	ID     string         `json:"id"`
	Role   models.Role    `json:"role"`
	Tenant *models.Tenant `json:"tenant,omitempty"`
}

type UserWithRoles struct {
	models.User
	Assignments []UserAssignment `json:"assignments"`
}

type UserPage struct {
	Items      []UserWithRoles `json:"items"`
	Page       int             `json:"page"`
	PerPage    int             `json:"perPage"`
	TotalItems int             `json:"totalItems"`
	TotalPages int             `json:"totalPages"`
}

type CreatedUser struct {
	User UserWithRoles `json:"user"`
	// Password is only set when it was generated.
	Password string `json:"password,omitempty"`
	Warning  string `json:"warning,omitempty"`
}

type UsersService struct {
	store  store.Store
	access *AccessService
	audit  Auditor
	now    func() time.Time
}

func NewUsersService(st store.Store, access *AccessService, audit Auditor) *UsersService {
	return &UsersService{store: st, access: access, audit: audit, now: time.Now}
}

// grantor resolves what actor may hand out. A nil result means no limit:
// actors without a user (setup commands) and super users.
func (s *UsersService) grantor(ctx context.Context, actor Actor) (*Access, error) {
	if actor.UserID == "" {
		return nil, nil
	}
	access, err := s.access.Resolve(ctx, actor.UserID, actor.TenantID)
	if errors.Is(err, ErrNotFound) {
		return nil, forbidden("sin permisos")
	}
	if err != nil {
		return nil, err
	}
	if access.SuperUser {
		return nil, nil
	}
	return access, nil
}

// checkGrant refuses assignments outside the grantor's own tenant, of admin
// roles, and of roles more privileged (lower level) than the grantor's.
func checkGrant(g *Access, role models.Role, tenantID string) error {
	if g == nil {
		return nil
	}
	if tenantID == "" || tenantID != g.TenantID {
		return forbidden("solo podés asignar roles en tu espacio de trabajo")
	}
	if adminRoles[NormalizeRole(role.Slug)] || adminRoles[NormalizeRole(role.Name)] || role.Level < g.HighestLevel() {
		return forbidden("no podés asignar un rol de mayor nivel que el tuyo")
	}
	return nil
}

func (s *UsersService) role(ctx context.Context, id string) (models.Role, error) {
	var role models.Role
	rec, err := s.store.Get(ctx, models.COLLECTION_ROLES, id)
	if err != nil {
		return role, translate(err, "rol")
	}
	err = rec.Decode(&role)
	return role, err
}

func (s *UsersService) List(ctx context.Context, page, perPage int, search string) (*UserPage, error) {
	var f filter.Expr
	if search = strings.TrimSpace(search); search != "" {
		f = filter.Or(
			filter.Like("email", search),
			filter.Like("name", search),
			filter.Like("firstName", search),
			filter.Like("lastName", search),
		)
	}
	res, err := s.store.List(ctx, models.COLLECTION_USERS, store.Query{Filter: f, Sort: "-created", Page: page, PerPage: perPage})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(res.Items))
	for _, rec := range res.Items {
		ids = append(ids, rec.ID())
	}
	byUser, err := s.assignments(ctx, filter.Any("user", ids...))
	if err != nil {
		return nil, err
	}

	out := &UserPage{Page: res.Page, PerPage: res.PerPage, TotalItems: res.TotalItems, TotalPages: res.TotalPages, Items: []UserWithRoles{}}
	for _, rec := range res.Items {
		user, err := decodeUser(rec)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, UserWithRoles{User: user, Assignments: nonNil(byUser[user.ID])})
	}
	return out, nil
}

func nonNil(a []UserAssignment) []UserAssignment {
	if a == nil {
		return []UserAssignment{}
	}
	return a
}

func (s *UsersService) assignments(ctx context.Context, f filter.Expr) (map[string][]UserAssignment, error) {
	recs, err := s.store.FullList(ctx, models.COLLECTION_USER_ROLES, store.Query{Filter: f, Expand: []string{"role", "tenant"}})
	if err != nil {
		return nil, err
	}
	out := map[string][]UserAssignment{}
	for _, rec := range recs {
		a := UserAssignment{ID: rec.ID()}
		if r := rec.Expand("role"); r != nil {
			if err := r.Decode(&a.Role); err != nil {
				return nil, err
			}
		}
		if t := rec.Expand("tenant"); t != nil {
			a.Tenant = &models.Tenant{}
			if err := t.Decode(a.Tenant); err != nil {
				return nil, err
			}
		}
		userID := rec.String("user")
		out[userID] = append(out[userID], a)
	}
	return out, nil
}

func (s *UsersService) Get(ctx context.Context, id string) (*UserWithRoles, error) {
	rec, err := s.store.Get(ctx, models.COLLECTION_USERS, id)
	if err != nil {
		return nil, translate(err, "usuario")
	}
	user, err := decodeUser(rec)
	if err != nil {
		return nil, err
	}
	byUser, err := s.assignments(ctx, filter.Eq("user", id))
	if err != nil {
		return nil, err
	}
	return &UserWithRoles{User: user, Assignments: nonNil(byUser[id])}, nil
}

func (s *UsersService) Create(ctx context.Context, actor Actor, in UserInput) (*CreatedUser, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if !tools.ValidateEmail(in.Email) {
		return nil, invalid("email inválido")
	}
	user := models.User{Email: in.Email, FirstName: strings.TrimSpace(in.FirstName), LastName: strings.TrimSpace(in.LastName)}
	if missing := user.MissingFields(); missing != "" {
		return nil, invalid("%s es obligatorio", missing)
	}

	result := &CreatedUser{}
	password := in.Password
	if password == "" {
		password = tools.RandomPassword(generatedPasswordLen)
		result.Password = password
	} else if msg := tools.CheckPassword(password); msg != "" {
		return nil, invalid(msg)
	}

	active, verified := true, true
	if in.Active != nil {
		active = *in.Active
	}
	if in.Verified != nil {
		verified = *in.Verified
	}
	rec, err := s.store.Create(ctx, models.COLLECTION_USERS, models.Record{
		"email":           in.Email,
		"emailVisibility": true,
		"password":        password,
		"passwordConfirm": password,
		"firstName":       user.FirstName,
		"lastName":        user.LastName,
		"name":            user.FirstName + " " + user.LastName,
		"phone":           strings.TrimSpace(in.Phone),
		"dni":             strings.TrimSpace(in.DNI),
		"active":          active,
		"verified":        verified,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, newError(ErrConflict, "ya existe un usuario con ese email")
		}
		return nil, err
	}
	if user, err = decodeUser(rec); err != nil {
		return nil, err
	}
	result.User = UserWithRoles{User: user, Assignments: []UserAssignment{}}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_CREATE, models.COLLECTION_USERS, user.ID, map[string]any{"email": user.Email}))

	if len(in.RoleIDs) > 0 {
		if err := s.replaceRoles(ctx, actor, user.ID, in.TenantID, in.RoleIDs); err != nil {
			result.Warning = "usuario creado pero falló la asignación de roles: " + err.Error()
			return result, nil
		}
		full, err := s.Get(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		result.User = *full
	}
	return result, nil
}

func (s *UsersService) Update(ctx context.Context, actor Actor, id string, in UserInput) (*UserWithRoles, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch := models.Record{}
	first, last := current.FirstName, current.LastName
	renamed := false
	if v := strings.TrimSpace(in.FirstName); v != "" {
		first, renamed = v, true
		patch["firstName"] = v
	}
	if v := strings.TrimSpace(in.LastName); v != "" {
		last, renamed = v, true
		patch["lastName"] = v
	}
	if renamed {
		patch["name"] = strings.TrimSpace(first + " " + last)
	}
	if in.Email != "" {
		email := strings.ToLower(strings.TrimSpace(in.Email))
		if !tools.ValidateEmail(email) {
			return nil, invalid("email inválido")
		}
		patch["email"] = email
	}
	if in.Phone != "" {
		patch["phone"] = strings.TrimSpace(in.Phone)
	}
	if in.DNI != "" {
		patch["dni"] = strings.TrimSpace(in.DNI)
	}
	if in.Active != nil {
		patch["active"] = *in.Active
	}
	if in.Verified != nil {
		patch["verified"] = *in.Verified
	}
	if in.Password != "" {
		if msg := tools.CheckPassword(in.Password); msg != "" {
			return nil, invalid(msg)
		}
		patch["password"] = in.Password
		patch["passwordConfirm"] = in.Password
	}

	if len(patch) > 0 {
		if _, err := s.store.Update(ctx, models.COLLECTION_USERS, id, patch); err != nil {
			return nil, translate(err, "usuario")
		}
	}
	if in.RoleIDs != nil && in.TenantID != "" {
		if err := s.replaceRoles(ctx, actor, id, in.TenantID, in.RoleIDs); err != nil {
			return nil, err
		}
	}
	delete(patch, "password")
	delete(patch, "passwordConfirm")
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_UPDATE, models.COLLECTION_USERS, id, map[string]any{"changes": map[string]any(patch), "roles": in.RoleIDs}))
	return s.Get(ctx, id)
}

// replaceRoles makes roleIDs the user's exact set of roles in tenantID.
func (s *UsersService) replaceRoles(ctx context.Context, actor Actor, userID, tenantID string, roleIDs []string) error {
	g, err := s.grantor(ctx, actor)
	if err != nil {
		return err
	}
	existing, err := s.store.FullList(ctx, models.COLLECTION_USER_ROLES, store.Query{
		Filter: filter.And(filter.Eq("user", userID), filter.Eq("tenant", tenantID)),
	})
	if err != nil {
		return err
	}
	want := map[string]bool{}
	for _, id := range roleIDs {
		want[id] = true
	}
	if g != nil {
		touched := append([]string{}, roleIDs...)
		for _, rec := range existing {
			if !want[rec.String("role")] {
				touched = append(touched, rec.String("role"))
			}
		}
		for _, id := range touched {
			role, err := s.role(ctx, id)
			if err != nil {
				return err
			}
			if err := checkGrant(g, role, tenantID); err != nil {
				return err
			}
		}
	}
	have := map[string]bool{}
	for _, rec := range existing {
		role := rec.String("role")
		if !want[role] || have[role] {
			if err := s.store.Delete(ctx, models.COLLECTION_USER_ROLES, rec.ID()); err != nil {
				return err
			}
			continue
		}
		have[role] = true
	}
	for _, id := range roleIDs {
		if have[id] {
			continue
		}
		if _, err := s.AssignRole(ctx, actor, userID, id, tenantID); err != nil {
			return err
		}
		have[id] = true
	}
	return nil
}

// Delete removes the user's role assignments and then the user.
func (s *UsersService) Delete(ctx context.Context, actor Actor, id string) error {
	if id == actor.UserID {
		return invalid("no podés eliminar tu propio usuario")
	}
	assignments, err := s.store.FullList(ctx, models.COLLECTION_USER_ROLES, store.Query{Filter: filter.Eq("user", id)})
	if err != nil {
		return err
	}
	for _, rec := range assignments {
		if err := s.store.Delete(ctx, models.COLLECTION_USER_ROLES, rec.ID()); err != nil {
			return err
		}
	}
	if err := s.store.Delete(ctx, models.COLLECTION_USERS, id); err != nil {
		return translate(err, "usuario")
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_DELETE, models.COLLECTION_USERS, id, nil))
	return nil
}

func (s *UsersService) ToggleActive(ctx context.Context, actor Actor, id string) (models.User, error) {
	rec, err := s.store.Get(ctx, models.COLLECTION_USERS, id)
	if err != nil {
		return models.User{}, translate(err, "usuario")
	}
	active := !rec.Bool("active")
	if rec, err = s.store.Update(ctx, models.COLLECTION_USERS, id, models.Record{"active": active}); err != nil {
		return models.User{}, err
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_UPDATE, models.COLLECTION_USERS, id, map[string]any{"active": active}))
	return decodeUser(rec)
}

type AssignResult struct {
	Assignment models.UserRole `json:"assignment"`
	Created    bool            `json:"created"`
}

// AssignRole is idempotent: an existing assignment is returned unchanged.
func (s *UsersService) AssignRole(ctx context.Context, actor Actor, userID, roleID, tenantID string) (*AssignResult, error) {
	if userID == "" || roleID == "" {
		return nil, invalid("usuario y rol son obligatorios")
	}
	role, err := s.role(ctx, roleID)
	if err != nil {
		return nil, err
	}
	g, err := s.grantor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := checkGrant(g, role, tenantID); err != nil {
		return nil, err
	}
	existing, err := s.store.First(ctx, models.COLLECTION_USER_ROLES, filter.And(
		filter.Eq("user", userID), filter.Eq("role", roleID), filter.Eq("tenant", tenantID),
	))
	if err == nil {
		var ur models.UserRole
		if err := existing.Decode(&ur); err != nil {
			return nil, err
		}
		return &AssignResult{Assignment: ur}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	rec, err := s.store.Create(ctx, models.COLLECTION_USER_ROLES, models.Record{
		"user":        userID,
		"role":        roleID,
		"tenant":      tenantID,
		"assigned_at": models.FormatTime(s.now()),
		"assigned_by": actor.UserID,
	})
	if err != nil {
		return nil, err
	}
	var ur models.UserRole
	if err := rec.Decode(&ur); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_CREATE, models.COLLECTION_USER_ROLES, ur.ID, map[string]any{"user": userID, "role": roleID, "tenant": tenantID}))
	return &AssignResult{Assignment: ur, Created: true}, nil
}

// RemoveAssignment deletes an assignment; the actor must be allowed to grant
// the role it carries.
func (s *UsersService) RemoveAssignment(ctx context.Context, actor Actor, assignmentID string) error {
	g, err := s.grantor(ctx, actor)
	if err != nil {
		return err
	}
	if g != nil {
		rec, err := s.store.Get(ctx, models.COLLECTION_USER_ROLES, assignmentID)
		if err != nil {
			return translate(err, "asignación")
		}
		role, err := s.role(ctx, rec.String("role"))
		if err != nil {
			return err
		}
		if err := checkGrant(g, role, rec.String("tenant")); err != nil {
			return err
		}
	}
	if err := s.store.Delete(ctx, models.COLLECTION_USER_ROLES, assignmentID); err != nil {
		return translate(err, "asignación")
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_DELETE, models.COLLECTION_USER_ROLES, assignmentID, nil))
	return nil
}
