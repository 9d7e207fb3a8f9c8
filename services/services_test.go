package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"hub/config"
	"hub/filter"
	"hub/models"
	"hub/store"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recordingAuditor struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (a *recordingAuditor) Log(_ context.Context, e models.AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

func (a *recordingAuditor) last() models.AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.entries) == 0 {
		return models.AuditEntry{}
	}
	return a.entries[len(a.entries)-1]
}

type sentMail struct {
	kind  string
	email string
	link  string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) record(kind, email, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind, email, link})
	return nil
}

func (m *fakeMailer) SendConfirmation(_ context.Context, email, link, _, _ string) error {
	return m.record("confirmation", email, link)
}

func (m *fakeMailer) SendWelcome(_ context.Context, email, _ string) error {
	return m.record("welcome", email, "")
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, email, link, _ string) error {
	return m.record("reset", email, link)
}

func (m *fakeMailer) lastOf(kind string) (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].kind == kind {
			return m.sent[i], true
		}
	}
	return sentMail{}, false
}

type published struct {
	user  string
	event any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *fakePublisher) Publish(userID string, event any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{userID, event})
}

type testEnv struct {
	ctx   context.Context
	st    store.Store
	svc   *Services
	audit *recordingAuditor
	mail  *fakeMailer
	pub   *fakePublisher
	conf  config.Configuration
}

func testConfig() config.Configuration {
	var conf config.Configuration
	conf.AppURL = "http://hub.test"
	conf.Security.JwtSecret = "test-secret"
	conf.Security.AccessTTLMinutes = 60
	conf.Security.RefreshCodeMaxValid = 30
	conf.Security.SuperAdminEmails = []string{"Root@Hospital.org"}
	conf.Security.DefaultSession = config.SessionProfile{AbsoluteMinutes: 480, IdleMinutes: 120, WarningMinutes: 5}
	conf.Security.MedicalSession = config.SessionProfile{AbsoluteMinutes: 720, IdleMinutes: 180, WarningMinutes: 10}
	return conf
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open("sqlite3", filepath.Join(t.TempDir(), "hub.db"))
	require.NoError(t, err)
	db.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	st := store.NewSQL(db)
	require.NoError(t, st.EnsureCollections(context.Background(), models.Schema))

	env := &testEnv{
		ctx:   context.Background(),
		st:    st,
		audit: &recordingAuditor{},
		mail:  &fakeMailer{},
		pub:   &fakePublisher{},
		conf:  testConfig(),
	}
	env.svc = New(st, env.conf, Deps{Auditor: env.audit, Mailer: env.mail, Publisher: env.pub}, zerolog.Nop())
	return env
}

func (e *testEnv) user(t *testing.T, email, password string, fields models.Record) models.User {
	t.Helper()
	rec := models.Record{
		"email":           email,
		"password":        password,
		"passwordConfirm": password,
		"firstName":       "Ana",
		"lastName":        "Paz",
		"name":            "Ana Paz",
		"active":          true,
		"verified":        true,
	}
	for k, v := range fields {
		rec[k] = v
	}
	created, err := e.st.Create(e.ctx, models.COLLECTION_USERS, rec)
	require.NoError(t, err)
	user, err := decodeUser(created)
	require.NoError(t, err)
	return user
}

func (e *testEnv) tenant(t *testing.T, name string) models.Tenant {
	t.Helper()
	tenant, err := e.svc.Tenants.Create(e.ctx, Actor{}, models.Tenant{Name: name, IsActive: true})
	require.NoError(t, err)
	return tenant
}

func (e *testEnv) permission(t *testing.T, slug string) string {
	t.Helper()
	rec, err := e.st.First(e.ctx, models.COLLECTION_PERMISSIONS, filter.Eq("slug", slug))
	if err == nil {
		return rec.ID()
	}
	p := perm(slug, slug, "", "test")
	created, err := e.st.Create(e.ctx, models.COLLECTION_PERMISSIONS, models.Record{
		"slug": p.Slug, "name": p.Name, "resource": p.Resource, "action": p.Action, "category": p.Category,
	})
	require.NoError(t, err)
	return created.ID()
}

func (e *testEnv) role(t *testing.T, name string, level int, perms ...string) models.Role {
	t.Helper()
	ids := make([]string, 0, len(perms))
	for _, p := range perms {
		ids = append(ids, e.permission(t, p))
	}
	r, err := e.svc.Roles.Create(e.ctx, Actor{}, RoleInput{Name: name, Level: &level, PermissionIDs: ids})
	require.NoError(t, err)
	return r.Role
}

func (e *testEnv) assign(t *testing.T, user models.User, role models.Role, tenantID string) {
	t.Helper()
	_, err := e.svc.Users.AssignRole(e.ctx, Actor{}, user.ID, role.ID, tenantID)
	require.NoError(t, err)
}

func (e *testEnv) access(t *testing.T, user models.User, tenantID string) *Access {
	t.Helper()
	a, err := e.svc.Access.ResolveUser(e.ctx, user, tenantID)
	require.NoError(t, err)
	return a
}

func storeQueryAll() store.Query {
	return store.Query{}
}
