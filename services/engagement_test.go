package services

import (
	"context"
	"testing"
	"time"

	"hub/models"
	"hub/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard_WidgetsFollowPermissions(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "ana@hospital.org", "secret123", nil)
	env.assign(t, user, env.role(t, "Editor", 20, PERM_BLOG_LIST), "")
	access := env.access(t, user, "")

	widgets, err := env.svc.Dashboard.Widgets(env.ctx, access)
	require.NoError(t, err)
	ids := []string{}
	for _, w := range widgets {
		ids = append(ids, w.ID)
		assert.True(t, w.Visible)
	}
	assert.Equal(t, []string{"blog_kpi", "blog_status", "blog_sections", "umami_analytics"}, ids)

	hidden, err := env.svc.Dashboard.ToggleVisibility(env.ctx, user.ID, "blog_status", false)
	require.NoError(t, err)
	assert.False(t, hidden.Visible)
	again, err := env.svc.Dashboard.ToggleVisibility(env.ctx, user.ID, "blog_status", true)
	require.NoError(t, err)
	assert.Equal(t, hidden.ID, again.ID)

	_, err = env.svc.Dashboard.ToggleVisibility(env.ctx, user.ID, "nope", true)
	assert.ErrorIs(t, err, ErrInvalid)

	require.NoError(t, env.svc.Dashboard.UpdatePositions(env.ctx, user.ID, []WidgetPosition{
		{WidgetID: "umami_analytics", Position: 0},
		{WidgetID: "blog_status", Position: 1},
		{WidgetID: "blog_kpi", Position: 2},
		{WidgetID: "blog_sections", Position: 3},
	}))
	assert.ErrorIs(t, env.svc.Dashboard.UpdatePositions(env.ctx, user.ID, []WidgetPosition{{WidgetID: "nope"}}), ErrInvalid)

	large := 5
	cfg, err := env.svc.Dashboard.UpdateConfig(env.ctx, user.ID, "blog_kpi", &large, models.WIDGET_SIZE_LARGE)
	require.NoError(t, err)
	assert.Equal(t, models.WIDGET_SIZE_LARGE, cfg.Size)
	_, err = env.svc.Dashboard.UpdateConfig(env.ctx, user.ID, "blog_kpi", nil, "huge")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = env.svc.Dashboard.UpdateConfig(env.ctx, "other", "blog_kpi", nil, models.WIDGET_SIZE_SMALL)
	assert.ErrorIs(t, err, ErrNotFound)

	widgets, err = env.svc.Dashboard.Widgets(env.ctx, access)
	require.NoError(t, err)
	ids = ids[:0]
	for _, w := range widgets {
		ids = append(ids, w.ID)
	}
	assert.Equal(t, []string{"umami_analytics", "blog_status", "blog_sections", "blog_kpi"}, ids)
	assert.Equal(t, models.WIDGET_SIZE_LARGE, widgets[3].Size)
}

func TestDashboard_RepeatedWidgetKeepsOneConfig(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "ana@hospital.org", "secret123", nil)

	require.NoError(t, env.svc.Dashboard.UpdatePositions(env.ctx, user.ID, []WidgetPosition{
		{WidgetID: "blog_kpi", Position: 3},
		{WidgetID: "blog_status", Position: 1},
		{WidgetID: "blog_kpi", Position: 7},
	}))

	recs, err := env.st.FullList(env.ctx, models.COLLECTION_DASHBOARD_CONFIG, storeQueryAll())
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	configs, err := env.svc.Dashboard.configs(env.ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, configs["blog_kpi"].Position)
	assert.Equal(t, 1, configs["blog_status"].Position)
}

func TestDashboard_Note(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "ana@hospital.org", "secret123", nil)

	note, err := env.svc.Dashboard.Note(env.ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, note)

	first, err := env.svc.Dashboard.SaveNote(env.ctx, user.ID, "<p>hola</p>")
	require.NoError(t, err)
	second, err := env.svc.Dashboard.SaveNote(env.ctx, user.ID, "<p>chau</p>")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "<p>chau</p>", second.Content)
}

func TestNotifications(t *testing.T) {
	env := newTestEnv(t)
	ana := env.user(t, "ana@hospital.org", "secret123", nil)
	bruno := env.user(t, "bruno@hospital.org", "secret123", nil)

	n, err := env.svc.Notifications.Notify(env.ctx, NotifyInput{UserID: ana.ID, Title: "Hola"})
	require.NoError(t, err)
	assert.Equal(t, models.NOTIFICATION_SYSTEM, n.Type)
	require.Len(t, env.pub.events, 1)
	assert.Equal(t, ana.ID, env.pub.events[0].user)
	assert.Equal(t, NotificationEvent{Type: "notification", Data: n}, env.pub.events[0].event)

	_, err = env.svc.Notifications.Notify(env.ctx, NotifyInput{UserID: ana.ID, Title: "Otra", Type: models.NOTIFICATION_MENTION})
	require.NoError(t, err)
	_, err = env.svc.Notifications.Notify(env.ctx, NotifyInput{UserID: ana.ID, Title: "x", Type: "spam"})
	assert.ErrorIs(t, err, ErrInvalid)

	count, err := env.svc.Notifications.Count(env.ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationCount{Total: 2, Unread: 2}, count)

	assert.ErrorIs(t, env.svc.Notifications.MarkRead(env.ctx, bruno.ID, n.ID), ErrNotFound)
	require.NoError(t, env.svc.Notifications.MarkRead(env.ctx, ana.ID, n.ID))

	unread, err := env.svc.Notifications.List(env.ctx, ana.ID, 1, 10, true)
	require.NoError(t, err)
	assert.Equal(t, 1, unread.TotalItems)

	marked, err := env.svc.Notifications.MarkAllRead(env.ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	assert.ErrorIs(t, env.svc.Notifications.Delete(env.ctx, bruno.ID, n.ID), ErrNotFound)
	require.NoError(t, env.svc.Notifications.Delete(env.ctx, ana.ID, n.ID))
	count, err = env.svc.Notifications.Count(env.ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationCount{Total: 1, Unread: 0}, count)
}

func TestSupport_StatusChangeNotifiesReporter(t *testing.T) {
	env := newTestEnv(t)
	reporter := env.user(t, "ana@hospital.org", "secret123", nil)

	report, err := env.svc.Support.Create(env.ctx, Actor{UserID: reporter.ID}, models.ErrorReport{Title: "No carga el blog"})
	require.NoError(t, err)
	assert.Equal(t, models.SEVERITY_MEDIUM, report.Severity)
	assert.Equal(t, models.REPORT_OPEN, report.Status)

	_, err = env.svc.Support.Create(env.ctx, Actor{}, models.ErrorReport{Title: "x", Severity: "extreme"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = env.svc.Support.UpdateStatus(env.ctx, Actor{UserID: "admin"}, report.ID, models.REPORT_OPEN, "")
	require.NoError(t, err)
	assert.Empty(t, env.pub.events, "unchanged status does not notify")

	updated, err := env.svc.Support.UpdateStatus(env.ctx, Actor{UserID: "admin"}, report.ID, models.REPORT_RESOLVED, "Se reinició el servicio.")
	require.NoError(t, err)
	assert.Equal(t, "Se reinició el servicio.", updated.Resolution)

	list, err := env.svc.Notifications.List(env.ctx, reporter.ID, 1, 10, false)
	require.NoError(t, err)
	require.Equal(t, 1, list.TotalItems)
	n := list.Items[0]
	assert.Equal(t, models.NOTIFICATION_ERROR_UPDATE, n.String("type"))
	assert.Equal(t, report.ID, n.String("related_id"))
	assert.Contains(t, n.String("message"), "resuelto")

	_, err = env.svc.Support.UpdateStatus(env.ctx, Actor{}, report.ID, "lost", "")
	assert.ErrorIs(t, err, ErrInvalid)

	page, err := env.svc.Support.List(env.ctx, models.REPORT_RESOLVED, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalItems)
}

func TestAnnouncements_ActiveWindow(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)
	env.svc.Announcements.now = func() time.Time { return now }
	admin := Actor{UserID: "admin"}

	create := func(a models.Announcement) models.Announcement {
		t.Helper()
		out, err := env.svc.Announcements.Create(env.ctx, admin, a)
		require.NoError(t, err)
		return out
	}
	global := create(models.Announcement{Title: "Global", IsActive: true})
	create(models.Announcement{Title: "Otro hospital", IsActive: true, Tenant: "t2"})
	create(models.Announcement{Title: "Inactivo", IsActive: false})
	create(models.Announcement{Title: "Vencido", IsActive: true, EndsAt: "2024-07-01"})
	create(models.Announcement{Title: "Futuro", IsActive: true, StartsAt: "2024-09-01"})
	local := create(models.Announcement{Title: "Local", IsActive: true, Tenant: "t1", StartsAt: "2024-07-01", EndsAt: "2024-08-31", Type: models.ANNOUNCEMENT_WARNING})
	assert.Equal(t, models.ANNOUNCEMENT_INFO, global.Type)
	assert.Equal(t, "admin", global.CreatedBy)

	active, err := env.svc.Announcements.Active(env.ctx, "t1")
	require.NoError(t, err)
	titles := []string{}
	for _, a := range active {
		titles = append(titles, a.Title)
	}
	assert.ElementsMatch(t, []string{global.Title, local.Title}, titles)

	_, err = env.svc.Announcements.Create(env.ctx, admin, models.Announcement{Title: "x", StartsAt: "2024-09-01", EndsAt: "2024-08-01"})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = env.svc.Announcements.Create(env.ctx, admin, models.Announcement{Title: "x", Type: "loud"})
	assert.ErrorIs(t, err, ErrInvalid)

	off, err := env.svc.Announcements.Update(env.ctx, admin, global.ID, models.Announcement{Title: "Global", IsActive: false})
	require.NoError(t, err)
	assert.False(t, off.IsActive)
	require.NoError(t, env.svc.Announcements.Delete(env.ctx, admin, local.ID))

	active, err = env.svc.Announcements.Active(env.ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestAudit_ListFilters(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "ana@hospital.org", "secret123", nil)
	for _, e := range []models.AuditEntry{
		{Action: models.AUDIT_ACTION_LOGIN, Resource: models.COLLECTION_USERS, ActorID: user.ID},
		{Action: models.AUDIT_ACTION_CREATE, Resource: models.COLLECTION_BLOG_ARTICLES, ActorID: user.ID},
		{Action: "bulk", Resource: models.COLLECTION_BLOG_ARTICLES},
	} {
		_, err := env.st.Create(env.ctx, models.COLLECTION_AUDIT_LOGS, e.Record())
		require.NoError(t, err)
	}

	all, err := env.svc.Audit.List(env.ctx, 1, 10, AuditFilters{Action: "all"})
	require.NoError(t, err)
	require.Equal(t, 3, all.TotalItems)
	assert.Equal(t, models.AUDIT_ACTION_OTHER, all.Items[0].String("action"), "newest first")
	details, _ := all.Items[0]["details"].(map[string]any)
	assert.Equal(t, "system", details["actor"])

	blog, err := env.svc.Audit.List(env.ctx, 1, 10, AuditFilters{Resource: models.COLLECTION_BLOG_ARTICLES, Actor: user.ID})
	require.NoError(t, err)
	require.Equal(t, 1, blog.TotalItems)
	assert.Equal(t, "ana@hospital.org", blog.Items[0].Expand("actor").String("email"))

	today := time.Now().UTC().Format("2006-01-02")
	dated, err := env.svc.Audit.List(env.ctx, 1, 10, AuditFilters{FromDate: today, ToDate: today})
	require.NoError(t, err)
	assert.Equal(t, 3, dated.TotalItems)

	none, err := env.svc.Audit.List(env.ctx, 1, 10, AuditFilters{ToDate: "2000-01-01"})
	require.NoError(t, err)
	assert.Zero(t, none.TotalItems)
}

type staticAnalytics struct{ stats *tools.AnalyticsStats }

func (s staticAnalytics) Stats(context.Context) (*tools.AnalyticsStats, error) { return s.stats, nil }

func TestAnalytics(t *testing.T) {
	_, err := NewAnalyticsService(nil).Stats(context.Background())
	assert.ErrorIs(t, err, tools.ErrAnalyticsNotConfigured)

	want := &tools.AnalyticsStats{}
	got, err := NewAnalyticsService(staticAnalytics{want}).Stats(context.Background())
	require.NoError(t, err)
	assert.Same(t, want, got)
}
