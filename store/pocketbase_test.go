package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"hub/filter"
	"hub/models"
	"hub/pocketbase"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePB struct {
	mu          sync.Mutex
	collections map[string]*pocketbase.CollectionDef
	lastFilter  string
}

func (f *fakePB) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	reply := func(status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	path := r.URL.Path
	switch {
	case path == "/api/admins/auth-with-password":
		reply(200, map[string]any{"token": "tok"})
	case path == "/api/collections/auth_users/auth-with-password":
		reply(400, map[string]any{"code": 400, "message": "Failed to authenticate."})
	case path == "/api/collections" && r.Method == http.MethodPost:
		var def pocketbase.CollectionDef
		_ = json.NewDecoder(r.Body).Decode(&def)
		def.ID = "id_" + def.Name
		f.collections[def.Name] = &def
		reply(200, def)
	case strings.HasPrefix(path, "/api/collections/") && !strings.Contains(strings.TrimPrefix(path, "/api/collections/"), "/"):
		name := strings.TrimPrefix(path, "/api/collections/")
		if r.Method == http.MethodPatch {
			var def pocketbase.CollectionDef
			_ = json.NewDecoder(r.Body).Decode(&def)
			for k, c := range f.collections {
				if c.ID == name {
					def.ID = c.ID
					f.collections[k] = &def
				}
			}
			reply(200, def)
			return
		}
		c, ok := f.collections[name]
		if !ok {
			reply(404, map[string]any{"code": 404, "message": "missing"})
			return
		}
		reply(200, c)
	case strings.HasSuffix(path, "/records"):
		f.lastFilter = r.URL.Query().Get("filter")
		reply(200, map[string]any{"page": 1, "perPage": 30, "totalItems": 0, "totalPages": 0, "items": []any{}})
	case strings.Contains(path, "/records/"):
		reply(404, map[string]any{"code": 404, "message": "The requested resource wasn't found."})
	}
}

func TestPocketBase_EnsureCollections(t *testing.T) {
	fake := &fakePB{collections: map[string]*pocketbase.CollectionDef{
		"ubicaciones": {ID: "id_ubicaciones", Name: "ubicaciones", Type: "base", Schema: []pocketbase.SchemaField{{Name: "nombre", Type: "text"}}},
	}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	st := NewPocketBase(pocketbase.NewClient(srv.URL, "a", "b"), zerolog.Nop())
	schema := []models.Collection{}
	for _, name := range []string{models.COLLECTION_TENANTS, models.COLLECTION_UBICACIONES, models.COLLECTION_EXPEDIENTES} {
		c, _ := models.CollectionSchema(name)
		schema = append(schema, c)
	}
	require.NoError(t, st.EnsureCollections(context.Background(), schema))

	exp := fake.collections["expedientes"]
	require.NotNil(t, exp)
	assert.True(t, exp.HasField("numero"))
	var ubicacion pocketbase.SchemaField
	for _, f := range exp.Schema {
		if f.Name == "ubicacion" {
			ubicacion = f
		}
	}
	assert.Equal(t, "id_ubicaciones", ubicacion.Options["collectionId"])

	ub := fake.collections["ubicaciones"]
	assert.True(t, ub.HasField("tenant"))
	require.NotNil(t, ub.ListRule)
	assert.Equal(t, "@request.auth.id != ''", *ub.ListRule)
}

func TestPocketBase_TranslatesErrors(t *testing.T) {
	fake := &fakePB{collections: map[string]*pocketbase.CollectionDef{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	st := NewPocketBase(pocketbase.NewClient(srv.URL, "a", "b"), zerolog.Nop())
	ctx := context.Background()

	_, err := st.Get(ctx, models.COLLECTION_TENANTS, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = st.First(ctx, models.COLLECTION_DASHBOARD_NOTES, filter.Eq("user", "u1"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, `user = "u1"`, fake.lastFilter)

	_, err = st.AuthWithPassword(ctx, "a@b.c", "bad")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	dup := translate(&pocketbase.Error{Status: 400, Data: map[string]any{"slug": map[string]any{"code": "validation_not_unique"}}})
	assert.ErrorIs(t, dup, ErrDuplicate)
}
