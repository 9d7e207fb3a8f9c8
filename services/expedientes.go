package services

import (
	"context"
	"strings"
	"time"

	"hub/filter"
	"hub/models"
	"hub/store"
)

type ExpedienteFilters struct {
	Search    string `form:"search"`
	Estado    string `form:"estado"`
	Prioridad string `form:"prioridad"`
	Ubicacion string `form:"ubicacion"`
}

type ExpedienteInput struct {
	Numero      string `json:"numero"`
	Descripcion string `json:"descripcion"`
	Estado      string `json:"estado"`
	Prioridad   string `json:"prioridad"`
	Ubicacion   string `json:"ubicacion"`
	Observacion string `json:"observacion"`
	FechaInicio string `json:"fecha_inicio"`
}

var expedienteExpand = []string{"ubicacion", "created_by"}

type ExpedientesService struct {
	store store.Store
	audit Auditor
	now   func() time.Time
}

func NewExpedientesService(st store.Store, audit Auditor) *ExpedientesService {
	return &ExpedientesService{store: st, audit: audit, now: time.Now}
}

func tenantScope(tenantID string) filter.Expr {
	if tenantID == "" {
		return nil
	}
	return filter.Eq("tenant", tenantID)
}

func (s *ExpedientesService) Ubicaciones(ctx context.Context, tenantID string) ([]models.Ubicacion, error) {
	recs, err := s.store.FullList(ctx, models.COLLECTION_UBICACIONES, store.Query{Filter: tenantScope(tenantID), Sort: "nombre"})
	if err != nil {
		return nil, err
	}
	return models.DecodeAll[models.Ubicacion](recs)
}

func (s *ExpedientesService) CreateUbicacion(ctx context.Context, actor Actor, in models.Ubicacion) (models.Ubicacion, error) {
	if in.Nombre = strings.TrimSpace(in.Nombre); in.Nombre == "" {
		return models.Ubicacion{}, invalid("el nombre es obligatorio")
	}
	rec, err := s.store.Create(ctx, models.COLLECTION_UBICACIONES, models.Record{
		"nombre":      in.Nombre,
		"descripcion": in.Descripcion,
		"tenant":      actor.TenantID,
	})
	if err != nil {
		return models.Ubicacion{}, err
	}
	var out models.Ubicacion
	if err := rec.Decode(&out); err != nil {
		return out, err
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_CREATE, models.COLLECTION_UBICACIONES, out.ID, map[string]any{"nombre": out.Nombre}))
	return out, nil
}

func (s *ExpedientesService) List(ctx context.Context, tenantID string, f ExpedienteFilters, page, perPage int) (*store.Page, error) {
	conds := []filter.Expr{tenantScope(tenantID)}
	if q := strings.TrimSpace(f.Search); q != "" {
		conds = append(conds, filter.Or(filter.Like("numero", q), filter.Like("descripcion", q)))
	}
	if given(f.Estado) {
		conds = append(conds, filter.Eq("estado", f.Estado))
	}
	if given(f.Prioridad) {
		conds = append(conds, filter.Eq("prioridad", f.Prioridad))
	}
	if given(f.Ubicacion) {
		conds = append(conds, filter.Eq("ubicacion", f.Ubicacion))
	}
	return s.store.List(ctx, models.COLLECTION_EXPEDIENTES, store.Query{
		Filter:  filter.And(conds...),
		Sort:    "-updated",
		Page:    page,
		PerPage: perPage,
		Expand:  expedienteExpand,
	})
}

// Get returns an expediente of tenantID. Records of other tenants are
// reported as not found.
func (s *ExpedientesService) Get(ctx context.Context, tenantID, id string) (models.Expediente, error) {
	var e models.Expediente
	rec, err := s.store.Get(ctx, models.COLLECTION_EXPEDIENTES, id, expedienteExpand...)
	if err != nil {
		return e, translate(err, "expediente")
	}
	if tenantID != "" && rec.String("tenant") != tenantID {
		return e, notFound("expediente")
	}
	err = rec.Decode(&e)
	return e, err
}

func (s *ExpedientesService) Create(ctx context.Context, actor Actor, in ExpedienteInput) (models.Expediente, error) {
	if in.Numero = strings.TrimSpace(in.Numero); in.Numero == "" {
		return models.Expediente{}, invalid("el número de expediente es obligatorio")
	}
	if in.Estado == "" {
		in.Estado = models.EXPEDIENTE_EN_TRAMITE
	}
	if !models.IsExpedienteEstado(in.Estado) {
		return models.Expediente{}, invalid("estado inválido: %s", in.Estado)
	}
	if in.Prioridad == "" {
		in.Prioridad = models.PRIORIDAD_MEDIA
	}
	if !models.IsPrioridad(in.Prioridad) {
		return models.Expediente{}, invalid("prioridad inválida: %s", in.Prioridad)
	}
	now := s.now()
	fecha := in.FechaInicio
	if fecha == "" {
		fecha = now.Format("2006-01-02")
	}
	if models.ParseTime(fecha).IsZero() {
		return models.Expediente{}, invalid("fecha de inicio inválida")
	}

	rec, err := s.store.Create(ctx, models.COLLECTION_EXPEDIENTES, models.Record{
		"numero":            in.Numero,
		"descripcion":       in.Descripcion,
		"estado":            in.Estado,
		"prioridad":         in.Prioridad,
		"ubicacion":         in.Ubicacion,
		"observacion":       in.Observacion,
		"fecha_inicio":      models.FormatTime(models.ParseTime(fecha)),
		"ultimo_movimiento": models.FormatTime(now),
		"tenant":            actor.TenantID,
		"created_by":        actor.UserID,
	})
	if err != nil {
		return models.Expediente{}, translate(err, "número de expediente")
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_CREATE, models.COLLECTION_EXPEDIENTES, rec.ID(), map[string]any{"numero": in.Numero}))
	return s.Get(ctx, "", rec.ID())
}

// Update applies the non-empty fields of in. ultimo_movimiento is stamped
// when estado or ubicacion change.
func (s *ExpedientesService) Update(ctx context.Context, actor Actor, id string, in ExpedienteInput) (models.Expediente, error) {
	current, err := s.Get(ctx, actor.TenantID, id)
	if err != nil {
		return current, err
	}
	patch := models.Record{}
	if v := strings.TrimSpace(in.Numero); v != "" && v != current.Numero {
		patch["numero"] = v
	}
	if in.Descripcion != "" {
		patch["descripcion"] = in.Descripcion
	}
	if in.Observacion != "" {
		patch["observacion"] = in.Observacion
	}
	if in.Estado != "" {
		if !models.IsExpedienteEstado(in.Estado) {
			return current, invalid("estado inválido: %s", in.Estado)
		}
		patch["estado"] = in.Estado
	}
	if in.Prioridad != "" {
		if !models.IsPrioridad(in.Prioridad) {
			return current, invalid("prioridad inválida: %s", in.Prioridad)
		}
		patch["prioridad"] = in.Prioridad
	}
	if in.Ubicacion != "" {
		patch["ubicacion"] = in.Ubicacion
	}
	if in.FechaInicio != "" {
		t := models.ParseTime(in.FechaInicio)
		if t.IsZero() {
			return current, invalid("fecha de inicio inválida")
		}
		patch["fecha_inicio"] = models.FormatTime(t)
	}
	moved := (in.Estado != "" && in.Estado != current.Estado) || (in.Ubicacion != "" && in.Ubicacion != current.Ubicacion)
	if moved {
		patch["ultimo_movimiento"] = models.FormatTime(s.now())
	}
	if len(patch) == 0 {
		return current, nil
	}
	if _, err := s.store.Update(ctx, models.COLLECTION_EXPEDIENTES, id, patch); err != nil {
		return current, translate(err, "número de expediente")
	}
	details := map[string]any{"numero": current.Numero}
	if moved {
		details["estado"] = map[string]any{"from": current.Estado, "to": patch["estado"]}
		details["ubicacion"] = map[string]any{"from": current.Ubicacion, "to": patch["ubicacion"]}
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_UPDATE, models.COLLECTION_EXPEDIENTES, id, details))
	return s.Get(ctx, "", id)
}

func (s *ExpedientesService) Delete(ctx context.Context, actor Actor, id string) error {
	current, err := s.Get(ctx, actor.TenantID, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, models.COLLECTION_EXPEDIENTES, id); err != nil {
		return translate(err, "expediente")
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_DELETE, models.COLLECTION_EXPEDIENTES, id, map[string]any{"numero": current.Numero}))
	return nil
}

func (s *ExpedientesService) Stats(ctx context.Context, tenantID string) (models.ExpedienteStats, error) {
	recs, err := s.store.FullList(ctx, models.COLLECTION_EXPEDIENTES, store.Query{Filter: tenantScope(tenantID)})
	if err != nil {
		return models.ExpedienteStats{}, err
	}
	stats := models.ExpedienteStats{Total: len(recs)}
	for _, rec := range recs {
		switch rec.String("estado") {
		case models.EXPEDIENTE_EN_TRAMITE:
			stats.Activos++
		case models.EXPEDIENTE_FINALIZADO:
			stats.Finalizados++
		case models.EXPEDIENTE_ARCHIVADO:
			stats.Archivados++
		case models.EXPEDIENTE_PENDIENTE:
			stats.Pendientes++
		}
	}
	return stats, nil
}
