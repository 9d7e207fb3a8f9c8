package services

import (
	"context"
	"strings"

	"hub/filter"
	"hub/models"
	"hub/store"
)

var reportStatusLabels = map[string]string{
	models.REPORT_OPEN:        "abierto",
	models.REPORT_IN_PROGRESS: "en progreso",
	models.REPORT_RESOLVED:    "resuelto",
	models.REPORT_CLOSED:      "cerrado",
}

type SupportService struct {
	store         store.Store
	notifications *NotificationsService
	audit         Auditor
}

func NewSupportService(st store.Store, notifications *NotificationsService, audit Auditor) *SupportService {
	return &SupportService{store: st, notifications: notifications, audit: audit}
}

func (s *SupportService) Create(ctx context.Context, actor Actor, in models.ErrorReport) (models.ErrorReport, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return models.ErrorReport{}, invalid("el título es obligatorio")
	}
	switch in.Severity {
	case "":
		in.Severity = models.SEVERITY_MEDIUM
	case models.SEVERITY_LOW, models.SEVERITY_MEDIUM, models.SEVERITY_HIGH:
	default:
		return models.ErrorReport{}, invalid("severidad inválida: %s", in.Severity)
	}
	rec, err := s.store.Create(ctx, models.COLLECTION_ERROR_REPORTS, models.Record{
		"title":       in.Title,
		"description": in.Description,
		"page_url":    in.PageURL,
		"severity":    in.Severity,
		"status":      models.REPORT_OPEN,
		"reporter":    actor.UserID,
		"tenant":      actor.TenantID,
	})
	if err != nil {
		return models.ErrorReport{}, err
	}
	var out models.ErrorReport
	if err := rec.Decode(&out); err != nil {
		return out, err
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_CREATE, models.COLLECTION_ERROR_REPORTS, out.ID, map[string]any{"title": out.Title, "severity": out.Severity}))
	return out, nil
}

func (s *SupportService) List(ctx context.Context, status string, page, perPage int) (*store.Page, error) {
	var f filter.Expr
	if given(status) {
		f = filter.Eq("status", status)
	}
	return s.store.List(ctx, models.COLLECTION_ERROR_REPORTS, store.Query{Filter: f, Sort: "-created", Page: page, PerPage: perPage, Expand: []string{"reporter", "tenant"}})
}

// UpdateStatus moves a report and notifies its reporter when the status
// actually changes.
func (s *SupportService) UpdateStatus(ctx context.Context, actor Actor, id, status, resolution string) (models.ErrorReport, error) {
	label, ok := reportStatusLabels[status]
	if !ok {
		return models.ErrorReport{}, invalid("estado inválido: %s", status)
	}
	current, err := s.store.Get(ctx, models.COLLECTION_ERROR_REPORTS, id)
	if err != nil {
		return models.ErrorReport{}, translate(err, "reporte")
	}
	patch := models.Record{"status": status}
	if resolution != "" {
		patch["resolution"] = resolution
	}
	rec, err := s.store.Update(ctx, models.COLLECTION_ERROR_REPORTS, id, patch)
	if err != nil {
		return models.ErrorReport{}, err
	}
	var out models.ErrorReport
	if err := rec.Decode(&out); err != nil {
		return out, err
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_UPDATE, models.COLLECTION_ERROR_REPORTS, id, map[string]any{"from": current.String("status"), "to": status}))

	if current.String("status") != status && out.Reporter != "" {
		msg := "Tu reporte \"" + out.Title + "\" ahora está " + label + "."
		if resolution != "" {
			msg += " " + resolution
		}
		if _, err := s.notifications.Notify(ctx, NotifyInput{
			UserID:    out.Reporter,
			Type:      models.NOTIFICATION_ERROR_UPDATE,
			Title:     "Actualización de tu reporte",
			Message:   msg,
			Link:      "/support",
			RelatedID: out.ID,
		}); err != nil {
			s.notifications.log.Warn().Err(err).Str("report", id).Msg("notify reporter")
		}
	}
	return out, nil
}
