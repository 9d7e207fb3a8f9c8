package services

import (
	"context"

	"hub/filter"
	"hub/models"
	"hub/store"

	"github.com/rs/zerolog"
)

// NotificationEvent is pushed to realtime subscribers.
type NotificationEvent struct {
	Type string              `json:"type"`
	Data models.Notification `json:"data"`
}

type NotifyInput struct {
	UserID    string
	Type      string
	Title     string
	Message   string
	Link      string
	RelatedID string
}

type NotificationsService struct {
	store     store.Store
	publisher Publisher
	log       zerolog.Logger
}

func NewNotificationsService(st store.Store, publisher Publisher, log zerolog.Logger) *NotificationsService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &NotificationsService{store: st, publisher: publisher, log: log}
}

func (s *NotificationsService) List(ctx context.Context, userID string, page, perPage int, unreadOnly bool) (*store.Page, error) {
	f := filter.Eq("user", userID)
	if unreadOnly {
		f = filter.And(f, filter.Eq("read", false))
	}
	return s.store.List(ctx, models.COLLECTION_NOTIFICATIONS, store.Query{Filter: f, Sort: "-created", Page: page, PerPage: perPage})
}

func (s *NotificationsService) Count(ctx context.Context, userID string) (models.NotificationCount, error) {
	all, err := s.store.FullList(ctx, models.COLLECTION_NOTIFICATIONS, store.Query{Filter: filter.Eq("user", userID)})
	if err != nil {
		return models.NotificationCount{}, err
	}
	count := models.NotificationCount{Total: len(all)}
	for _, rec := range all {
		if !rec.Bool("read") {
			count.Unread++
		}
	}
	return count, nil
}

func (s *NotificationsService) own(ctx context.Context, userID, id string) (models.Record, error) {
	rec, err := s.store.Get(ctx, models.COLLECTION_NOTIFICATIONS, id)
	if err != nil {
		return nil, translate(err, "notificación")
	}
	if rec.String("user") != userID {
		return nil, notFound("notificación")
	}
	return rec, nil
}

func (s *NotificationsService) MarkRead(ctx context.Context, userID, id string) error {
	if _, err := s.own(ctx, userID, id); err != nil {
		return err
	}
	_, err := s.store.Update(ctx, models.COLLECTION_NOTIFICATIONS, id, models.Record{"read": true})
	return err
}

func (s *NotificationsService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	unread, err := s.store.FullList(ctx, models.COLLECTION_NOTIFICATIONS, store.Query{
		Filter: filter.And(filter.Eq("user", userID), filter.Eq("read", false)),
	})
	if err != nil {
		return 0, err
	}
	for _, rec := range unread {
		if _, err := s.store.Update(ctx, models.COLLECTION_NOTIFICATIONS, rec.ID(), models.Record{"read": true}); err != nil {
			return 0, err
		}
	}
	return len(unread), nil
}

func (s *NotificationsService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.own(ctx, userID, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, models.COLLECTION_NOTIFICATIONS, id)
}

// Notify stores a notification and pushes it to the user's live connections.
func (s *NotificationsService) Notify(ctx context.Context, in NotifyInput) (models.Notification, error) {
	if in.UserID == "" || in.Title == "" {
		return models.Notification{}, invalid("usuario y título son obligatorios")
	}
	switch in.Type {
	case models.NOTIFICATION_MENTION, models.NOTIFICATION_SYSTEM, models.NOTIFICATION_ANNOUNCEMENT, models.NOTIFICATION_ERROR_UPDATE:
	case "":
		in.Type = models.NOTIFICATION_SYSTEM
	default:
		return models.Notification{}, invalid("tipo de notificación inválido: %s", in.Type)
	}
	rec, err := s.store.Create(ctx, models.COLLECTION_NOTIFICATIONS, models.Record{
		"user":       in.UserID,
		"type":       in.Type,
		"title":      in.Title,
		"message":    in.Message,
		"link":       in.Link,
		"read":       false,
		"related_id": in.RelatedID,
	})
	if err != nil {
		return models.Notification{}, err
	}
	var n models.Notification
	if err := rec.Decode(&n); err != nil {
		return n, err
	}
	s.publisher.Publish(n.User, NotificationEvent{Type: "notification", Data: n})
	s.log.Debug().Str("user", n.User).Str("type", n.Type).Msg("notification published")
	return n, nil
}
