package db

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"hub/config"
	"hub/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLite(t *testing.T) {
	conf := config.Configuration{Store: config.STORE_SQL, Database: "sqlite3", DbName: filepath.Join(t.TempDir(), "data", "hub.db")}

	st, closeFn, err := Open(conf, zerolog.Nop())
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, st.Ping(context.Background()))
	rec, err := st.Create(context.Background(), models.COLLECTION_TENANTS, models.Record{"name": "Norte"})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID())
}

func TestOpen_PocketBaseRequiresURL(t *testing.T) {
	_, _, err := Open(config.Configuration{Store: config.STORE_POCKETBASE}, zerolog.Nop())
	assert.Error(t, err)
}

func TestStoreContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conf := config.Configuration{Store: config.STORE_SQL, Database: "sqlite3", DbName: filepath.Join(t.TempDir(), "hub.db")}
	st, closeFn, err := Open(conf, zerolog.Nop())
	require.NoError(t, err)
	defer closeFn()

	r := gin.New()
	r.Use(SetStoreToContext(st))
	r.GET("/", func(c *gin.Context) {
		if StoreInstance(c) == nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
