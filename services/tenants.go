package services

import (
	"context"
	"strings"

	"hub/filter"
	"hub/models"
	"hub/store"
	"hub/tools"
)

type TenantsService struct {
	store store.Store
	audit Auditor
}

func NewTenantsService(st store.Store, audit Auditor) *TenantsService {
	return &TenantsService{store: st, audit: audit}
}

func (s *TenantsService) List(ctx context.Context, search string, onlyActive bool) ([]models.Tenant, error) {
	var conds []filter.Expr
	if search = strings.TrimSpace(search); search != "" {
		conds = append(conds, filter.Or(filter.Like("name", search), filter.Like("slug", search)))
	}
	if onlyActive {
		conds = append(conds, filter.Eq("is_active", true))
	}
	recs, err := s.store.FullList(ctx, models.COLLECTION_TENANTS, store.Query{Filter: filter.And(conds...), Sort: "name"})
	if err != nil {
		return nil, err
	}
	return models.DecodeAll[models.Tenant](recs)
}

func (s *TenantsService) Get(ctx context.Context, id string) (models.Tenant, error) {
	var t models.Tenant
	rec, err := s.store.Get(ctx, models.COLLECTION_TENANTS, id)
	if err != nil {
		return t, translate(err, "institución")
	}
	err = rec.Decode(&t)
	return t, err
}

func tenantRecord(t models.Tenant) models.Record {
	return models.Record{
		"name":        t.Name,
		"slug":        t.Slug,
		"description": t.Description,
		"address":     t.Address,
		"phone":       t.Phone,
		"email":       t.Email,
		"is_active":   t.IsActive,
	}
}

func (s *TenantsService) Create(ctx context.Context, actor Actor, in models.Tenant) (models.Tenant, error) {
	in.Name = strings.TrimSpace(in.Name)
	if missing := in.MissingFields(); missing != "" {
		return models.Tenant{}, invalid("%s es obligatorio", missing)
	}
	if in.Slug = strings.TrimSpace(in.Slug); in.Slug == "" {
		in.Slug = tools.URLSlug(in.Name)
	}
	if in.Email != "" && !tools.ValidateEmail(in.Email) {
		return models.Tenant{}, invalid("email inválido")
	}
	rec, err := s.store.Create(ctx, models.COLLECTION_TENANTS, tenantRecord(in))
	if err != nil {
		return models.Tenant{}, translate(err, "institución")
	}
	var out models.Tenant
	if err := rec.Decode(&out); err != nil {
		return out, err
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_CREATE, models.COLLECTION_TENANTS, out.ID, map[string]any{"name": out.Name}))
	return out, nil
}

func (s *TenantsService) Update(ctx context.Context, actor Actor, id string, in models.Tenant) (models.Tenant, error) {
	in.Name = strings.TrimSpace(in.Name)
	if missing := in.MissingFields(); missing != "" {
		return models.Tenant{}, invalid("%s es obligatorio", missing)
	}
	if in.Slug = strings.TrimSpace(in.Slug); in.Slug == "" {
		in.Slug = tools.URLSlug(in.Name)
	}
	if in.Email != "" && !tools.ValidateEmail(in.Email) {
		return models.Tenant{}, invalid("email inválido")
	}
	rec, err := s.store.Update(ctx, models.COLLECTION_TENANTS, id, tenantRecord(in))
	if err != nil {
		return models.Tenant{}, translate(err, "institución")
	}
	var out models.Tenant
	if err := rec.Decode(&out); err != nil {
		return out, err
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_UPDATE, models.COLLECTION_TENANTS, id, map[string]any{"name": out.Name, "is_active": out.IsActive}))
	return out, nil
}

func (s *TenantsService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := s.store.Delete(ctx, models.COLLECTION_TENANTS, id); err != nil {
		return translate(err, "institución")
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_DELETE, models.COLLECTION_TENANTS, id, nil))
	return nil
}
