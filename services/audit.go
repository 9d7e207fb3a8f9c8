package services

import (
	"context"
	"strings"

	"hub/filter"
	"hub/models"
	"hub/store"
)

type AuditFilters struct {
	Action   string `form:"action"`
	Resource string `form:"resource"`
	Actor    string `form:"actor"`
	FromDate string `form:"from"` // YYYY-MM-DD
	ToDate   string `form:"to"`
}

type AuditService struct {
	store store.Store
}

func NewAuditService(st store.Store) *AuditService {
	return &AuditService{store: st}
}

func given(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != "all"
}

// List pages through the audit log, newest first. "all" or an empty value
// disables a filter; dates cover whole days.
func (s *AuditService) List(ctx context.Context, page, perPage int, f AuditFilters) (*store.Page, error) {
	var conds []filter.Expr
	if given(f.Action) {
		conds = append(conds, filter.Eq("action", f.Action))
	}
	if given(f.Resource) {
		conds = append(conds, filter.Eq("resource", f.Resource))
	}
	if given(f.Actor) {
		conds = append(conds, filter.Eq("actor", f.Actor))
	}
	if given(f.FromDate) {
		conds = append(conds, filter.Gte("created", strings.TrimSpace(f.FromDate)+" 00:00:00"))
	}
	if given(f.ToDate) {
		conds = append(conds, filter.Lte("created", strings.TrimSpace(f.ToDate)+" 23:59:59.999Z"))
	}
	return s.store.List(ctx, models.COLLECTION_AUDIT_LOGS, store.Query{
		Filter:  filter.And(conds...),
		Sort:    "-created",
		Page:    page,
		PerPage: perPage,
		Expand:  []string{"actor", "tenant"},
	})
}
