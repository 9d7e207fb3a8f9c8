package services

import (
	"context"

	"hub/models"
	"hub/tools"
)

// Auditor records audit entries. Implementations never fail the caller.
type Auditor interface {
	Log(ctx context.Context, entry models.AuditEntry)
}

type Mailer interface {
	SendConfirmation(ctx context.Context, email, confirmURL, firstName, lastName string) error
	SendWelcome(ctx context.Context, email, name string) error
	SendPasswordReset(ctx context.Context, email, resetURL, firstName string) error
}

// Publisher pushes realtime events to a user's open connections.
type Publisher interface {
	Publish(userID string, event any)
}

type AnalyticsSource interface {
	Stats(ctx context.Context) (*tools.AnalyticsStats, error)
}

// Actor identifies who performs a mutation, for auditing and ownership.
type Actor struct {
	UserID   string
	TenantID string
	IP       string
}

func (a Actor) entry(action, resource, resourceID string, details map[string]any) models.AuditEntry {
	return models.AuditEntry{
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    details,
		ActorID:    a.UserID,
		TenantID:   a.TenantID,
		IPAddress:  a.IP,
	}
}

type nopAuditor struct{}

func (nopAuditor) Log(context.Context, models.AuditEntry) {}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) {}

type nopMailer struct{}

func (nopMailer) SendConfirmation(context.Context, string, string, string, string) error { return nil }
func (nopMailer) SendWelcome(context.Context, string, string) error                      { return nil }
func (nopMailer) SendPasswordReset(context.Context, string, string, string) error        { return nil }
