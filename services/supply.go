package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hub/filter"
	"hub/models"
	"hub/store"
	"hub/tools"
)

type ProductFilters struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Type     string `form:"type"`
}

type SupplyRequestInput struct {
	RequestingSector  string                     `json:"requesting_sector"`
	DestinationSector string                     `json:"destination_sector"`
	Motive            string                     `json:"motive"`
	Priority          string                     `json:"priority"`
	Observations      string                     `json:"observations"`
	Items             []models.SupplyRequestItem `json:"items"`
}

// ItemQuantity sets the authorized or delivered quantity of one product.
type ItemQuantity struct {
	ProductID string  `json:"product_id"`
	Quantity  float64 `json:"quantity"`
}

type SupplyService struct {
	store store.Store
	audit Auditor
	now   func() time.Time
}

func NewSupplyService(st store.Store, audit Auditor) *SupplyService {
	return &SupplyService{store: st, audit: audit, now: time.Now}
}

/************************************************
/**** MARK: CATEGORIES & WAREHOUSES ****/
/************************************************/

func (s *SupplyService) Categories(ctx context.Context) ([]models.SupplyCategory, error) {
	recs, err := s.store.FullList(ctx, models.COLLECTION_SUPPLY_CATEGORY, store.Query{Sort: "name"})
	if err != nil {
		return nil, err
	}
	return models.DecodeAll[models.SupplyCategory](recs)
}

func (s *SupplyService) CreateCategory(ctx context.Context, actor Actor, in models.SupplyCategory) (models.SupplyCategory, error) {
	if in.Name = strings.TrimSpace(in.Name); in.Name == "" {
		return models.SupplyCategory{}, invalid("el nombre es obligatorio")
	}
	rec, err := s.store.Create(ctx, models.COLLECTION_SUPPLY_CATEGORY, models.Record{"name": in.Name, "description": in.Description, "is_active": true})
	if err != nil {
		return models.SupplyCategory{}, err
	}
	var out models.SupplyCategory
	if err := rec.Decode(&out); err != nil {
		return out, err
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_CREATE, models.COLLECTION_SUPPLY_CATEGORY, out.ID, map[string]any{"name": out.Name}))
	return out, nil
}

func (s *SupplyService) Warehouses(ctx context.Context, tenantID string) ([]models.SupplyWarehouse, error) {
	var f filter.Expr
	if tenantID != "" {
		f = filter.Or(filter.Eq("tenant", tenantID), filter.Eq("tenant", ""))
	}
	recs, err := s.store.FullList(ctx, models.COLLECTION_SUPPLY_WAREHOUSE, store.Query{Filter: f, Sort: "-is_main,name"})
	if err != nil {
		return nil, err
	}
	return models.DecodeAll[models.SupplyWarehouse](recs)
}

func (s *SupplyService) CreateWarehouse(ctx context.Context, actor Actor, in models.SupplyWarehouse) (models.SupplyWarehouse, error) {
	if in.Name = strings.TrimSpace(in.Name); in.Name == "" {
		return models.SupplyWarehouse{}, invalid("el nombre es obligatorio")
	}
	rec, err := s.store.Create(ctx, models.COLLECTION_SUPPLY_WAREHOUSE, models.Record{
		"name":     in.Name,
		"location": in.Location,
		"is_main":  in.IsMain,
		"tenant":   actor.TenantID,
	})
	if err != nil {
		return models.SupplyWarehouse{}, err
	}
	var out models.SupplyWarehouse
	if err := rec.Decode(&out); err != nil {
		return out, err
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_CREATE, models.COLLECTION_SUPPLY_WAREHOUSE, out.ID, map[string]any{"name": out.Name}))
	return out, nil
}

/************************************************
/**** MARK: PRODUCTS ****/
/************************************************/

func (s *SupplyService) Products(ctx context.Context, f ProductFilters, page, perPage int) (*store.Page, error) {
	var conds []filter.Expr
	if q := strings.TrimSpace(f.Search); q != "" {
		conds = append(conds, filter.Or(filter.Like("name", q), filter.Like("sku", q), filter.Like("description", q)))
	}
	if given(f.Category) {
		conds = append(conds, filter.Eq("category", f.Category))
	}
	if given(f.Type) {
		conds = append(conds, filter.Eq("type", f.Type))
	}
	return s.store.List(ctx, models.COLLECTION_SUPPLY_PRODUCTS, store.Query{
		Filter:  filter.And(conds...),
		Sort:    "name",
		Page:    page,
		PerPage: perPage,
		Expand:  []string{"category"},
	})
}

func (s *SupplyService) Product(ctx context.Context, id string) (models.SupplyProduct, error) {
	var p models.SupplyProduct
	rec, err := s.store.Get(ctx, models.COLLECTION_SUPPLY_PRODUCTS, id, "category")
	if err != nil {
		return p, translate(err, "producto")
	}
	err = rec.Decode(&p)
	return p, err
}

func productRecord(p models.SupplyProduct) models.Record {
	return models.Record{
		"name":            p.Name,
		"sku":             p.SKU,
		"description":     p.Description,
		"type":            p.Type,
		"category":        p.Category,
		"unit":            p.Unit,
		"alert_threshold": p.AlertThreshold,
		"is_critical":     p.IsCritical,
	}
}

func (s *SupplyService) CreateProduct(ctx context.Context, actor Actor, in models.SupplyProduct) (models.SupplyProduct, error) {
	in.Name, in.SKU = strings.TrimSpace(in.Name), strings.TrimSpace(in.SKU)
	if missing := in.MissingFields(); missing != "" {
		return models.SupplyProduct{}, invalid("%s es obligatorio o inválido", missing)
	}
	rec, err := s.store.Create(ctx, models.COLLECTION_SUPPLY_PRODUCTS, productRecord(in))
	if err != nil {
		return models.SupplyProduct{}, translate(err, "producto")
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_CREATE, models.COLLECTION_SUPPLY_PRODUCTS, rec.ID(), map[string]any{"sku": in.SKU}))
	return s.Product(ctx, rec.ID())
}

func (s *SupplyService) UpdateProduct(ctx context.Context, actor Actor, id string, in models.SupplyProduct) (models.SupplyProduct, error) {
	in.Name, in.SKU = strings.TrimSpace(in.Name), strings.TrimSpace(in.SKU)
	if missing := in.MissingFields(); missing != "" {
		return models.SupplyProduct{}, invalid("%s es obligatorio o inválido", missing)
	}
	if _, err := s.store.Update(ctx, models.COLLECTION_SUPPLY_PRODUCTS, id, productRecord(in)); err != nil {
		return models.SupplyProduct{}, translate(err, "producto")
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_UPDATE, models.COLLECTION_SUPPLY_PRODUCTS, id, map[string]any{"sku": in.SKU}))
	return s.Product(ctx, id)
}

func (s *SupplyService) DeleteProduct(ctx context.Context, actor Actor, id string) error {
	if err := s.store.Delete(ctx, models.COLLECTION_SUPPLY_PRODUCTS, id); err != nil {
		return translate(err, "producto")
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_DELETE, models.COLLECTION_SUPPLY_PRODUCTS, id, nil))
	return nil
}

/************************************************
/**** MARK: REQUESTS ****/
/************************************************/

func (s *SupplyService) Requests(ctx context.Context, tenantID, status string, page, perPage int) (*store.Page, error) {
	var conds []filter.Expr
	if tenantID != "" {
		conds = append(conds, filter.Eq("tenant", tenantID))
	}
	if given(status) {
		conds = append(conds, filter.Eq("status", status))
	}
	return s.store.List(ctx, models.COLLECTION_SUPPLY_REQUESTS, store.Query{
		Filter:  filter.And(conds...),
		Sort:    "-created",
		Page:    page,
		PerPage: perPage,
		Expand:  []string{"requester"},
	})
}

// Request loads a request by id. Requests of other tenants are reported as
// not found; an empty tenantID skips the check.
func (s *SupplyService) Request(ctx context.Context, tenantID, id string) (models.SupplyRequest, error) {
	var r models.SupplyRequest
	rec, err := s.store.Get(ctx, models.COLLECTION_SUPPLY_REQUESTS, id, "requester", "authorized_by")
	if err != nil {
		return r, translate(err, "solicitud")
	}
	if tenantID != "" && rec.String("tenant") != tenantID {
		return r, notFound("solicitud")
	}
	err = rec.Decode(&r)
	return r, err
}

// requestNumber builds SR-YYYYMMDD-XXXX.
func (s *SupplyService) requestNumber(now time.Time) string {
	return fmt.Sprintf("SR-%s-%s", now.Format("20060102"), strings.ToUpper(tools.RandomString(4)))
}

func (s *SupplyService) CreateRequest(ctx context.Context, actor Actor, in SupplyRequestInput) (models.SupplyRequest, error) {
	if in.RequestingSector = strings.TrimSpace(in.RequestingSector); in.RequestingSector == "" {
		return models.SupplyRequest{}, invalid("el sector solicitante es obligatorio")
	}
	if len(in.Items) == 0 {
		return models.SupplyRequest{}, invalid("la solicitud debe tener al menos un ítem")
	}
	items := make([]models.SupplyRequestItem, 0, len(in.Items))
	for _, it := range in.Items {
		if it.ProductID == "" || it.QuantityRequested <= 0 {
			return models.SupplyRequest{}, invalid("cada ítem necesita producto y cantidad positiva")
		}
		if _, err := s.store.Get(ctx, models.COLLECTION_SUPPLY_PRODUCTS, it.ProductID); err != nil {
			return models.SupplyRequest{}, translate(err, "producto")
		}
		items = append(items, models.SupplyRequestItem{ProductID: it.ProductID, QuantityRequested: it.QuantityRequested})
	}
	if in.Priority == "" {
		in.Priority = models.PRIORITY_NORMAL
	}
	if !models.IsPriority(in.Priority) {
		return models.SupplyRequest{}, invalid("prioridad inválida: %s", in.Priority)
	}

	now := s.now()
	rec := models.Record{
		"request_date":       models.FormatTime(now),
		"requesting_sector":  in.RequestingSector,
		"destination_sector": in.DestinationSector,
		"requester":          actor.UserID,
		"tenant":             actor.TenantID,
		"motive":             in.Motive,
		"priority":           in.Priority,
		"status":             models.SUPPLY_PENDING,
		"items":              items,
		"observations":       in.Observations,
	}
	var created models.Record
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		rec["request_number"] = s.requestNumber(now)
		created, err = s.store.Create(ctx, models.COLLECTION_SUPPLY_REQUESTS, rec)
		if !errors.Is(err, store.ErrDuplicate) {
			break
		}
	}
	if err != nil {
		return models.SupplyRequest{}, translate(err, "solicitud")
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_CREATE, models.COLLECTION_SUPPLY_REQUESTS, created.ID(), map[string]any{
		"request_number": created.String("request_number"),
		"items":          len(items),
	}))
	return s.Request(ctx, actor.TenantID, created.ID())
}

func (s *SupplyService) transition(ctx context.Context, actor Actor, id, next string, mutate func(*models.SupplyRequest) error) (models.SupplyRequest, error) {
	req, err := s.Request(ctx, actor.TenantID, id)
	if err != nil {
		return req, err
	}
	from := req.Status
	if !req.CanTransition(next) {
		return req, invalid("no se puede pasar de %s a %s", from, next)
	}
	if err := mutate(&req); err != nil {
		return req, err
	}
	req.Status = next
	patch := models.Record{
		"status":           req.Status,
		"items":            req.Items,
		"authorized_by":    req.AuthorizedBy,
		"authorized_at":    req.AuthorizedAt,
		"rejection_reason": req.RejectionReason,
	}
	if _, err := s.store.Update(ctx, models.COLLECTION_SUPPLY_REQUESTS, id, patch); err != nil {
		return req, err
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_UPDATE, models.COLLECTION_SUPPLY_REQUESTS, id, map[string]any{"from": from, "to": next}))
	return s.Request(ctx, actor.TenantID, id)
}

func quantities(list []ItemQuantity) map[string]float64 {
	out := make(map[string]float64, len(list))
	for _, q := range list {
		out[q.ProductID] = q.Quantity
	}
	return out
}

// Authorize sets per item authorized quantities. Items not listed are
// authorized in full; no item may exceed what was requested.
func (s *SupplyService) Authorize(ctx context.Context, actor Actor, id string, authorized []ItemQuantity) (models.SupplyRequest, error) {
	qty := quantities(authorized)
	return s.transition(ctx, actor, id, models.SUPPLY_AUTHORIZED, func(r *models.SupplyRequest) error {
		for i, it := range r.Items {
			q, ok := qty[it.ProductID]
			if !ok {
				q = it.QuantityRequested
			}
			if q < 0 || q > it.QuantityRequested {
				return invalid("cantidad autorizada inválida para %s", it.ProductID)
			}
			r.Items[i].QuantityAuthorized = q
		}
		r.AuthorizedBy = actor.UserID
		r.AuthorizedAt = models.FormatTime(s.now())
		return nil
	})
}

func (s *SupplyService) Reject(ctx context.Context, actor Actor, id, reason string) (models.SupplyRequest, error) {
	return s.transition(ctx, actor, id, models.SUPPLY_REJECTED, func(r *models.SupplyRequest) error {
		if strings.TrimSpace(reason) == "" {
			return invalid("el motivo de rechazo es obligatorio")
		}
		r.RejectionReason = strings.TrimSpace(reason)
		return nil
	})
}

// Deliver adds delivered quantities. The request becomes entregado_total when
// every item reached its authorized quantity, entregado_parcial otherwise.
func (s *SupplyService) Deliver(ctx context.Context, actor Actor, id string, delivered []ItemQuantity) (models.SupplyRequest, error) {
	req, err := s.Request(ctx, actor.TenantID, id)
	if err != nil {
		return req, err
	}
	qty := quantities(delivered)
	complete := true
	for _, it := range req.Items {
		total := it.QuantityDelivered + qty[it.ProductID]
		if total < it.QuantityAuthorized {
			complete = false
		}
	}
	next := models.SUPPLY_PARTIAL
	if complete {
		next = models.SUPPLY_DELIVERED
	}
	return s.transition(ctx, actor, id, next, func(r *models.SupplyRequest) error {
		for i, it := range r.Items {
			add := qty[it.ProductID]
			if add < 0 || it.QuantityDelivered+add > it.QuantityAuthorized {
				return invalid("cantidad entregada inválida para %s", it.ProductID)
			}
			r.Items[i].QuantityDelivered += add
		}
		return nil
	})
}
