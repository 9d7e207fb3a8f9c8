package router

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hub/config"
	"hub/models"
	"hub/realtime"
	"hub/services"
	"hub/store"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type apiEnv struct {
	t      *testing.T
	engine *gin.Engine
	svc    *services.Services
	hub    *realtime.Hub
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open("sqlite3", filepath.Join(t.TempDir(), "hub.db"))
	require.NoError(t, err)
	db.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	st := store.NewSQL(db)
	require.NoError(t, st.EnsureCollections(context.Background(), models.Schema))

	var conf config.Configuration
	conf.AppURL = "http://hub.test"
	conf.Security.JwtSecret = "router-secret"
	conf.Security.AccessTTLMinutes = 60
	conf.Security.RefreshCodeMaxValid = 30
	conf.Security.DefaultSession = config.SessionProfile{AbsoluteMinutes: 480, IdleMinutes: 120, WarningMinutes: 5}
	conf.Security.MedicalSession = config.SessionProfile{AbsoluteMinutes: 720, IdleMinutes: 180, WarningMinutes: 10}

	hub := realtime.NewHub(zerolog.Nop())
	t.Cleanup(hub.Close)
	svc := services.New(st, conf, services.Deps{Publisher: hub}, zerolog.Nop())

	engine := gin.New()
	Initialize(engine, svc, hub, conf, zerolog.Nop())
	return &apiEnv{t: t, engine: engine, svc: svc, hub: hub}
}

func (e *apiEnv) do(method, path, token string, body any) (int, envelope) {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (e *apiEnv) login(email, password string) string {
	e.t.Helper()
	code, env := e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(e.t, http.StatusOK, code, env.Error)
	var res services.LoginResult
	require.NoError(e.t, json.Unmarshal(env.Data, &res))
	return res.AccessToken
}

func (e *apiEnv) admin() string {
	e.t.Helper()
	_, err := e.svc.Setup.SeedPermissions(context.Background())
	require.NoError(e.t, err)
	_, err = e.svc.Setup.BootstrapAdmin(context.Background(), "admin@hospital.org", "secret123", "Admin", "Hub")
	require.NoError(e.t, err)
	return e.login("admin@hospital.org", "secret123")
}

func TestHealth(t *testing.T) {
	api := newAPI(t)
	code, env := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
}

func TestAuthFlow(t *testing.T) {
	api := newAPI(t)

	code, env := api.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "nobody@hospital.org", "password": "secret123"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)

	code, _ = api.do(http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = api.do(http.MethodGet, "/api/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	token := api.admin()
	code, env = api.do(http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	var me struct {
		User        models.User `json:"user"`
		SuperUser   bool        `json:"superUser"`
		Permissions []string    `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "admin@hospital.org", me.User.Email)
	assert.True(t, me.SuperUser)
	assert.Len(t, me.Permissions, len(services.PermissionCatalog))

	code, env = api.do(http.MethodGet, "/api/auth/session", token, nil)
	require.Equal(t, http.StatusOK, code)
	var status services.SessionStatus
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.False(t, status.Warning)
	assert.Positive(t, status.Remaining)

	code, _ = api.do(http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code, "logout revokes the session")
}

func TestRefreshRotation(t *testing.T) {
	api := newAPI(t)
	api.admin()

	code, env := api.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "admin@hospital.org", "password": "secret123"})
	require.Equal(t, http.StatusOK, code)
	var res services.LoginResult
	require.NoError(t, json.Unmarshal(env.Data, &res))

	code, env = api.do(http.MethodPost, "/api/auth/refresh", "", gin.H{"refresh_token": res.RefreshToken})
	require.Equal(t, http.StatusOK, code, env.Error)
	var pair services.TokenPair
	require.NoError(t, json.Unmarshal(env.Data, &pair))
	assert.NotEqual(t, res.RefreshToken, pair.RefreshToken)

	code, _ = api.do(http.MethodPost, "/api/auth/refresh", "", gin.H{"refresh_token": res.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthorizerRequiresConfirmedEmail(t *testing.T) {
	api := newAPI(t)
	code, env := api.do(http.MethodPost, "/api/auth/signup", "", gin.H{
		"email": "nuevo@hospital.org", "password": "secret123", "firstName": "Nuevo", "lastName": "Usuario",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)

	token := api.login("nuevo@hospital.org", "secret123")
	code, _ = api.do(http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusOK, code)
	code, env = api.do(http.MethodGet, "/api/profile", token, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.False(t, env.Success)
}

func TestPermissionGuards(t *testing.T) {
	api := newAPI(t)
	adminToken := api.admin()

	code, env := api.do(http.MethodPost, "/api/admin/users", adminToken, gin.H{
		"email": "enfermera@hospital.org", "password": "secret123", "firstName": "Eva", "lastName": "Luna",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)

	token := api.login("enfermera@hospital.org", "secret123")
	for _, path := range []string{"/api/admin/users", "/api/admin/roles", "/api/admin/audit", "/api/blog/articles", "/api/supply/products"} {
		code, env := api.do(http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusForbidden, code, path)
		assert.Equal(t, "sin permisos", env.Error, path)
	}

	code, _ = api.do(http.MethodGet, "/api/profile", token, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodGet, "/api/dashboard/widgets", token, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestTenantScopedRoutes(t *testing.T) {
	api := newAPI(t)
	token := api.admin()

	for _, name := range []string{"Hospital Norte", "Clínica Sur"} {
		code, env := api.do(http.MethodPost, "/api/admin/tenants", token, gin.H{"name": name, "is_active": true})
		require.Equal(t, http.StatusCreated, code, env.Error)
	}
	code, env := api.do(http.MethodPost, "/api/admin/tenants", token, gin.H{"name": "Hospital Norte", "is_active": true})
	assert.Equal(t, http.StatusConflict, code, env.Error)

	code, env = api.do(http.MethodGet, "/api/workspaces", token, nil)
	require.Equal(t, http.StatusOK, code)
	var workspaces []services.Workspace
	require.NoError(t, json.Unmarshal(env.Data, &workspaces))
	var names []string
	for _, w := range workspaces {
		names = append(names, w.Tenant.Name)
	}
	if diff := cmp.Diff([]string{"Clínica Sur", "Hospital Norte"}, names); diff != "" {
		t.Errorf("workspaces mismatch (-want +got):\n%s", diff)
	}

	code, env = api.do(http.MethodPost, "/api/expedientes", token, gin.H{"numero": "EXP-1"})
	assert.Equal(t, http.StatusBadRequest, code, "no workspace selected")

	code, env = api.do(http.MethodPost, "/api/workspaces/select", token, gin.H{"tenant": workspaces[1].Tenant.ID})
	require.Equal(t, http.StatusOK, code, env.Error)
	var selected struct {
		Tokens services.TokenPair `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &selected))
	scoped := selected.Tokens.AccessToken

	code, env = api.do(http.MethodPost, "/api/expedientes", scoped, gin.H{"numero": "EXP-1", "descripcion": "Alta"})
	require.Equal(t, http.StatusCreated, code, env.Error)
	var exp models.Expediente
	require.NoError(t, json.Unmarshal(env.Data, &exp))
	assert.Equal(t, workspaces[1].Tenant.ID, exp.Tenant)

	code, _ = api.do(http.MethodGet, "/api/expedientes/"+exp.ID, scoped, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodGet, "/api/expedientes/stats", scoped, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodGet, "/api/expedientes/missing", scoped, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestNotificationsSocket(t *testing.T) {
	api := newAPI(t)
	token := api.admin()
	srv := httptest.NewServer(api.engine)
	defer srv.Close()

	code, _ := api.do(http.MethodGet, "/api/notifications/ws", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/notifications/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	admin, err := api.svc.Store.First(context.Background(), models.COLLECTION_USERS, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return api.hub.Connections(admin.ID()) == 1 }, time.Second, 10*time.Millisecond)

	_, err = api.svc.Notifications.Notify(context.Background(), services.NotifyInput{
		UserID: admin.ID(), Type: models.NOTIFICATION_SYSTEM, Title: "Mantenimiento", Message: "Hoy 22hs",
	})
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event struct {
		Type string              `json:"type"`
		Data models.Notification `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "notification", event.Type)
	assert.Equal(t, "Mantenimiento", event.Data.Title)

	code, env := api.do(http.MethodGet, "/api/notifications/count", token, nil)
	require.Equal(t, http.StatusOK, code)
	var count models.NotificationCount
	require.NoError(t, json.Unmarshal(env.Data, &count))
	assert.Equal(t, models.NotificationCount{Total: 1, Unread: 1}, count)
}

func TestCORSPreflight(t *testing.T) {
	api := newAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://app.test")
	w := httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
