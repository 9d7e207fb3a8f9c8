// Package services holds the hub's operations. Every service talks to the
// collection store and reports failures with the sentinel errors in errors.go.
package services

import (
	"context"

	"hub/config"
	"hub/store"
	"hub/tools"

	"github.com/rs/zerolog"
)

type Deps struct {
	Auditor   Auditor
	Mailer    Mailer
	Publisher Publisher
	Analytics AnalyticsSource
}

type Services struct {
	Store         store.Store
	Access        *AccessService
	Auth          *AuthService
	Workspace     *WorkspaceService
	Users         *UsersService
	Roles         *RolesService
	Tenants       *TenantsService
	Audit         *AuditService
	Dashboard     *DashboardService
	Notifications *NotificationsService
	Announcements *AnnouncementsService
	Support       *SupportService
	Blog          *BlogService
	Supply        *SupplyService
	Expedientes   *ExpedientesService
	Analytics     *AnalyticsService
	Setup         *SetupService
}

func New(st store.Store, conf config.Configuration, deps Deps, log zerolog.Logger) *Services {
	if deps.Auditor == nil {
		deps.Auditor = nopAuditor{}
	}
	if deps.Publisher == nil {
		deps.Publisher = nopPublisher{}
	}
	if deps.Mailer == nil {
		deps.Mailer = nopMailer{}
	}

	access := NewAccessService(st, conf.Security.SuperAdminEmails)
	auth := NewAuthService(st, access, deps.Mailer, deps.Auditor, conf, log.With().Str("component", "auth").Logger())
	roles := NewRolesService(st, deps.Auditor)
	notifications := NewNotificationsService(st, deps.Publisher, log.With().Str("component", "notifications").Logger())

	return &Services{
		Store:         st,
		Access:        access,
		Auth:          auth,
		Workspace:     NewWorkspaceService(st, auth),
		Users:         NewUsersService(st, access, deps.Auditor),
		Roles:         roles,
		Tenants:       NewTenantsService(st, deps.Auditor),
		Audit:         NewAuditService(st),
		Dashboard:     NewDashboardService(st),
		Notifications: notifications,
		Announcements: NewAnnouncementsService(st, deps.Auditor),
		Support:       NewSupportService(st, notifications, deps.Auditor),
		Blog:          NewBlogService(st, deps.Auditor),
		Supply:        NewSupplyService(st, deps.Auditor),
		Expedientes:   NewExpedientesService(st, deps.Auditor),
		Analytics:     NewAnalyticsService(deps.Analytics),
		Setup:         NewSetupService(st, roles, log.With().Str("component", "setup").Logger()),
	}
}

// AnalyticsService exposes website statistics from the configured source.
type AnalyticsService struct {
	source AnalyticsSource
}

func NewAnalyticsService(source AnalyticsSource) *AnalyticsService {
	return &AnalyticsService{source: source}
}

func (s *AnalyticsService) Stats(ctx context.Context) (*tools.AnalyticsStats, error) {
	if s.source == nil {
		return nil, tools.ErrAnalyticsNotConfigured
	}
	return s.source.Stats(ctx)
}
