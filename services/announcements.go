package services

import (
	"context"
	"strings"
	"time"

	"hub/filter"
	"hub/models"
	"hub/store"
)

type AnnouncementsService struct {
	store store.Store
	audit Auditor
	now   func() time.Time
}

func NewAnnouncementsService(st store.Store, audit Auditor) *AnnouncementsService {
	return &AnnouncementsService{store: st, audit: audit, now: time.Now}
}

func (s *AnnouncementsService) List(ctx context.Context, page, perPage int) (*store.Page, error) {
	return s.store.List(ctx, models.COLLECTION_ANNOUNCEMENTS, store.Query{Sort: "-created", Page: page, PerPage: perPage, Expand: []string{"tenant"}})
}

// Active returns the active announcements whose window contains now, for
// tenantID or for every tenant.
func (s *AnnouncementsService) Active(ctx context.Context, tenantID string) ([]models.Announcement, error) {
	now := models.FormatTime(s.now())
	tenant := filter.Eq("tenant", "")
	if tenantID != "" {
		tenant = filter.Or(tenant, filter.Eq("tenant", tenantID))
	}
	recs, err := s.store.FullList(ctx, models.COLLECTION_ANNOUNCEMENTS, store.Query{
		Filter: filter.And(
			filter.Eq("is_active", true),
			tenant,
			filter.Or(filter.Eq("starts_at", ""), filter.Lte("starts_at", now)),
			filter.Or(filter.Eq("ends_at", ""), filter.Gte("ends_at", now)),
		),
		Sort: "-created",
	})
	if err != nil {
		return nil, err
	}
	return models.DecodeAll[models.Announcement](recs)
}

func (s *AnnouncementsService) validate(a *models.Announcement) error {
	a.Title = strings.TrimSpace(a.Title)
	if missing := a.MissingFields(); missing != "" {
		return invalid("%s es obligatorio", missing)
	}
	switch a.Type {
	case "":
		a.Type = models.ANNOUNCEMENT_INFO
	case models.ANNOUNCEMENT_INFO, models.ANNOUNCEMENT_WARNING, models.ANNOUNCEMENT_CRITICAL:
	default:
		return invalid("tipo de anuncio inválido: %s", a.Type)
	}
	for _, d := range []*string{&a.StartsAt, &a.EndsAt} {
		if *d == "" {
			continue
		}
		t := models.ParseTime(*d)
		if t.IsZero() {
			return invalid("fecha inválida: %s", *d)
		}
		*d = models.FormatTime(t)
	}
	if a.StartsAt != "" && a.EndsAt != "" && a.EndsAt < a.StartsAt {
		return invalid("la fecha de fin es anterior a la de inicio")
	}
	return nil
}

func announcementRecord(a models.Announcement) models.Record {
	return models.Record{
		"title":     a.Title,
		"message":   a.Message,
		"type":      a.Type,
		"is_active": a.IsActive,
		"starts_at": a.StartsAt,
		"ends_at":   a.EndsAt,
		"tenant":    a.Tenant,
	}
}

func (s *AnnouncementsService) Create(ctx context.Context, actor Actor, in models.Announcement) (models.Announcement, error) {
	if err := s.validate(&in); err != nil {
		return models.Announcement{}, err
	}
	rec := announcementRecord(in)
	rec["created_by"] = actor.UserID
	created, err := s.store.Create(ctx, models.COLLECTION_ANNOUNCEMENTS, rec)
	if err != nil {
		return models.Announcement{}, err
	}
	var out models.Announcement
	if err := created.Decode(&out); err != nil {
		return out, err
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_CREATE, models.COLLECTION_ANNOUNCEMENTS, out.ID, map[string]any{"title": out.Title}))
	return out, nil
}

func (s *AnnouncementsService) Update(ctx context.Context, actor Actor, id string, in models.Announcement) (models.Announcement, error) {
	if err := s.validate(&in); err != nil {
		return models.Announcement{}, err
	}
	updated, err := s.store.Update(ctx, models.COLLECTION_ANNOUNCEMENTS, id, announcementRecord(in))
	if err != nil {
		return models.Announcement{}, translate(err, "anuncio")
	}
	var out models.Announcement
	if err := updated.Decode(&out); err != nil {
		return out, err
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_UPDATE, models.COLLECTION_ANNOUNCEMENTS, id, map[string]any{"title": out.Title, "is_active": out.IsActive}))
	return out, nil
}

func (s *AnnouncementsService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := s.store.Delete(ctx, models.COLLECTION_ANNOUNCEMENTS, id); err != nil {
		return translate(err, "anuncio")
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_DELETE, models.COLLECTION_ANNOUNCEMENTS, id, nil))
	return nil
}
