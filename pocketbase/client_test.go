package pocketbase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestAdminAuthFallbackAndCache(t *testing.T) {
	var authCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/admins/auth-with-password":
			writeJSON(w, 404, map[string]any{"code": 404, "message": "Not found."})
		case "/api/collections/_superusers/auth-with-password":
			authCalls.Add(1)
			writeJSON(w, 200, map[string]any{"token": "admin-token"})
		case "/api/collections/hub_roles/records/r1":
			assert.Equal(t, "admin-token", r.Header.Get("Authorization"))
			assert.Equal(t, "permissions", r.URL.Query().Get("expand"))
			writeJSON(w, 200, map[string]any{"id": "r1", "name": "Admin"})
		default:
			writeJSON(w, 404, map[string]any{"code": 404, "message": "missing"})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "admin@hub.local", "secret")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		rec, err := c.GetOne(ctx, "hub_roles", "r1", ListOptions{Expand: "permissions"})
		require.NoError(t, err)
		assert.Equal(t, "Admin", rec["name"])
	}
	assert.Equal(t, int32(1), authCalls.Load())
}

func TestSendReauthenticatesOnUnauthorized(t *testing.T) {
	var authCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/admins/auth-with-password":
			n := authCalls.Add(1)
			writeJSON(w, 200, map[string]any{"token": "t" + strconv.Itoa(int(n))})
		case "/api/collections/hub_tenants/records":
			if r.Header.Get("Authorization") != "t2" {
				writeJSON(w, 401, map[string]any{"code": 401, "message": "expired"})
				return
			}
			writeJSON(w, 200, map[string]any{"page": 1, "perPage": 10, "totalItems": 1, "totalPages": 1, "items": []any{map[string]any{"id": "x"}}})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "a", "b")
	res, err := c.GetList(context.Background(), "hub_tenants", 1, 10, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
	assert.Equal(t, int32(2), authCalls.Load())
}

func TestGetListQueryAndErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/admins/auth-with-password" {
			writeJSON(w, 200, map[string]any{"token": "tok"})
			return
		}
		q := r.URL.Query()
		switch r.URL.Path {
		case "/api/collections/hub_audit_logs/records":
			assert.Equal(t, `action = "delete"`, q.Get("filter"))
			assert.Equal(t, "-created", q.Get("sort"))
			assert.Equal(t, "actor,tenant", q.Get("expand"))
			assert.Equal(t, "2", q.Get("page"))
			assert.Equal(t, "50", q.Get("perPage"))
			writeJSON(w, 200, map[string]any{"page": 2, "perPage": 50, "totalItems": 51, "totalPages": 2, "items": []any{}})
		case "/api/collections/expedientes/records":
			writeJSON(w, 400, map[string]any{"code": 400, "message": "Failed to create record.", "data": map[string]any{"numero": map[string]any{"code": "validation_not_unique"}}})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "a", "b")
	ctx := context.Background()

	res, err := c.GetList(ctx, "hub_audit_logs", 2, 50, ListOptions{Filter: `action = "delete"`, Sort: "-created", Expand: "actor,tenant"})
	require.NoError(t, err)
	assert.Equal(t, 51, res.TotalItems)

	_, err = c.Create(ctx, "expedientes", map[string]any{"numero": "1"}, ListOptions{})
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 400, pe.Status)
	assert.Contains(t, pe.Error(), "validation_not_unique")
	assert.False(t, IsNotFound(err))
}

func TestGetFullListPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/admins/auth-with-password" {
			writeJSON(w, 200, map[string]any{"token": "tok"})
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		n := fullListBatch
		if page == 2 {
			n = 3
		}
		items := make([]any, n)
		for i := range items {
			items[i] = map[string]any{"id": strconv.Itoa(page) + "-" + strconv.Itoa(i)}
		}
		writeJSON(w, 200, map[string]any{"page": page, "items": items})
	}))
	defer srv.Close()

	items, err := NewClient(srv.URL, "a", "b").GetFullList(context.Background(), "blog_articulos", ListOptions{Fields: "id,status"})
	require.NoError(t, err)
	assert.Len(t, items, fullListBatch+3)
}

func TestGetFirstListItemNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/admins/auth-with-password" {
			writeJSON(w, 200, map[string]any{"token": "tok"})
			return
		}
		writeJSON(w, 200, map[string]any{"items": []any{}})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "a", "b").GetFirstListItem(context.Background(), "hub_dashboard_notes", `user = "u1"`, ListOptions{})
	assert.True(t, IsNotFound(err))
}

func TestAuthWithPasswordSkipsAdminToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/collections/auth_users/auth-with-password", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "good" {
			writeJSON(w, 400, map[string]any{"code": 400, "message": "Failed to authenticate."})
			return
		}
		writeJSON(w, 200, map[string]any{"token": "user-token", "record": map[string]any{"id": "u1", "email": body["identity"]}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "")
	res, err := c.AuthWithPassword(context.Background(), "auth_users", "ana@hospital.org", "good")
	require.NoError(t, err)
	assert.Equal(t, "u1", res.Record["id"])

	_, err = c.AuthWithPassword(context.Background(), "auth_users", "ana@hospital.org", "bad")
	assert.Error(t, err)
}
