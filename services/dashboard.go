package services

import (
	"context"
	"errors"
	"sort"

	"hub/filter"
	"hub/models"
	"hub/store"

	"golang.org/x/sync/errgroup"
)

// AvailableWidgets is the dashboard catalog, in default order.
var AvailableWidgets = []models.Widget{
	{ID: "blog_kpi", Title: "Indicadores del blog", Description: "Totales de artículos publicados y borradores", DefaultSize: models.WIDGET_SIZE_MEDIUM, Permission: PERM_BLOG_LIST},
	{ID: "blog_status", Title: "Estado de artículos", Description: "Distribución de artículos por estado", DefaultSize: models.WIDGET_SIZE_MEDIUM, Permission: PERM_BLOG_LIST},
	{ID: "blog_sections", Title: "Artículos por sección", Description: "Cantidad de artículos en cada sección", DefaultSize: models.WIDGET_SIZE_MEDIUM, Permission: PERM_BLOG_LIST},
	{ID: "umami_analytics", Title: "Analíticas web", Description: "Visitas y ubicaciones de los últimos 30 días", DefaultSize: models.WIDGET_SIZE_LARGE, Permission: PERM_BLOG_LIST},
	{ID: "expedientes_kpi", Title: "Expedientes", Description: "Resumen de expedientes por estado", DefaultSize: models.WIDGET_SIZE_MEDIUM, Permission: PERM_EXPEDIENTES_LIST},
}

func findWidget(id string) (models.Widget, int, bool) {
	for i, w := range AvailableWidgets {
		if w.ID == id {
			return w, i, true
		}
	}
	return models.Widget{}, 0, false
}

type WidgetPosition struct {
	WidgetID string `json:"widget_id"`
	Position int    `json:"position"`
}

type DashboardService struct {
	store store.Store
}

func NewDashboardService(st store.Store) *DashboardService {
	return &DashboardService{store: st}
}

func (s *DashboardService) configs(ctx context.Context, userID string) (map[string]models.DashboardConfig, error) {
	recs, err := s.store.FullList(ctx, models.COLLECTION_DASHBOARD_CONFIG, store.Query{Filter: filter.Eq("user", userID)})
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.DashboardConfig, len(recs))
	for _, rec := range recs {
		var cfg models.DashboardConfig
		if err := rec.Decode(&cfg); err != nil {
			return nil, err
		}
		if _, dup := out[cfg.WidgetID]; !dup {
			out[cfg.WidgetID] = cfg
		}
	}
	return out, nil
}

// Widgets returns the catalog widgets the user may see merged with the
// user's saved configuration, ordered by position.
func (s *DashboardService) Widgets(ctx context.Context, access *Access) ([]models.WidgetState, error) {
	configs, err := s.configs(ctx, access.User.ID)
	if err != nil {
		return nil, err
	}
	out := []models.WidgetState{}
	for i, w := range AvailableWidgets {
		if !access.Can(w.Permission) {
			continue
		}
		state := models.WidgetState{Widget: w, Visible: true, Position: i, Size: w.DefaultSize}
		if cfg, ok := configs[w.ID]; ok {
			state.ConfigID = cfg.ID
			state.Visible = cfg.Visible
			state.Position = cfg.Position
			if models.IsWidgetSize(cfg.Size) {
				state.Size = cfg.Size
			}
		}
		out = append(out, state)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *DashboardService) ToggleVisibility(ctx context.Context, userID, widgetID string, visible bool) (models.DashboardConfig, error) {
	w, _, ok := findWidget(widgetID)
	if !ok {
		return models.DashboardConfig{}, invalid("widget desconocido: %s", widgetID)
	}
	var rec models.Record
	existing, err := s.store.First(ctx, models.COLLECTION_DASHBOARD_CONFIG, filter.And(filter.Eq("user", userID), filter.Eq("widget_id", widgetID)))
	switch {
	case err == nil:
		rec, err = s.store.Update(ctx, models.COLLECTION_DASHBOARD_CONFIG, existing.ID(), models.Record{"visible": visible})
	case errors.Is(err, store.ErrNotFound):
		rec, err = s.store.Create(ctx, models.COLLECTION_DASHBOARD_CONFIG, models.Record{
			"user":      userID,
			"widget_id": widgetID,
			"visible":   visible,
			"position":  0,
			"size":      w.DefaultSize,
		})
	}
	if err != nil {
		return models.DashboardConfig{}, err
	}
	var cfg models.DashboardConfig
	err = rec.Decode(&cfg)
	return cfg, err
}

// UpdateConfig changes position and/or size of an existing configuration.
func (s *DashboardService) UpdateConfig(ctx context.Context, userID, widgetID string, position *int, size string) (models.DashboardConfig, error) {
	if size != "" && !models.IsWidgetSize(size) {
		return models.DashboardConfig{}, invalid("tamaño inválido: %s", size)
	}
	existing, err := s.store.First(ctx, models.COLLECTION_DASHBOARD_CONFIG, filter.And(filter.Eq("user", userID), filter.Eq("widget_id", widgetID)))
	if err != nil {
		return models.DashboardConfig{}, translate(err, "configuración")
	}
	patch := models.Record{}
	if position != nil {
		patch["position"] = *position
	}
	if size != "" {
		patch["size"] = size
	}
	rec := existing
	if len(patch) > 0 {
		if rec, err = s.store.Update(ctx, models.COLLECTION_DASHBOARD_CONFIG, existing.ID(), patch); err != nil {
			return models.DashboardConfig{}, err
		}
	}
	var cfg models.DashboardConfig
	err = rec.Decode(&cfg)
	return cfg, err
}

// UpdatePositions saves a new ordering. A widget listed twice keeps its last
// position. Existing configs are updated only when their position changed and
// missing ones are created; the writes run concurrently and the first failure
// is returned.
func (s *DashboardService) UpdatePositions(ctx context.Context, userID string, positions []WidgetPosition) error {
	last := map[string]int{}
	for i, p := range positions {
		if _, _, ok := findWidget(p.WidgetID); !ok {
			return invalid("widget desconocido: %s", p.WidgetID)
		}
		last[p.WidgetID] = i
	}
	unique := make([]WidgetPosition, 0, len(last))
	for i, p := range positions {
		if last[p.WidgetID] == i {
			unique = append(unique, p)
		}
	}
	positions = unique
	configs, err := s.configs(ctx, userID)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range positions {
		if cfg, ok := configs[p.WidgetID]; ok {
			if cfg.Position == p.Position {
				continue
			}
			g.Go(func() error {
				_, err := s.store.Update(gctx, models.COLLECTION_DASHBOARD_CONFIG, cfg.ID, models.Record{"position": p.Position})
				return err
			})
			continue
		}
		w, _, _ := findWidget(p.WidgetID)
		g.Go(func() error {
			_, err := s.store.Create(gctx, models.COLLECTION_DASHBOARD_CONFIG, models.Record{
				"user":      userID,
				"widget_id": p.WidgetID,
				"visible":   true,
				"position":  p.Position,
				"size":      w.DefaultSize,
			})
			return err
		})
	}
	return g.Wait()
}

// Note returns the user's dashboard note, or nil when there is none.
func (s *DashboardService) Note(ctx context.Context, userID string) (*models.DashboardNote, error) {
	rec, err := s.store.First(ctx, models.COLLECTION_DASHBOARD_NOTES, filter.Eq("user", userID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var note models.DashboardNote
	if err := rec.Decode(&note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (s *DashboardService) SaveNote(ctx context.Context, userID, content string) (*models.DashboardNote, error) {
	current, err := s.Note(ctx, userID)
	if err != nil {
		return nil, err
	}
	var rec models.Record
	if current == nil {
		rec, err = s.store.Create(ctx, models.COLLECTION_DASHBOARD_NOTES, models.Record{"user": userID, "content": content})
	} else {
		rec, err = s.store.Update(ctx, models.COLLECTION_DASHBOARD_NOTES, current.ID, models.Record{"content": content})
	}
	if err != nil {
		return nil, err
	}
	var note models.DashboardNote
	err = rec.Decode(&note)
	return &note, err
}
