package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"hub/filter"
	"hub/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQL {
	t.Helper()
	db, err := gorm.Open("sqlite3", filepath.Join(t.TempDir(), "hub.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewSQL(db)
	require.NoError(t, s.EnsureCollections(context.Background(), models.Schema))
	return s
}

func TestSQL_CRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, models.COLLECTION_TENANTS, models.Record{"name": "Hospital Central", "slug": "central", "is_active": true})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID())
	assert.NotEmpty(t, created.String("created"))

	got, err := s.Get(ctx, models.COLLECTION_TENANTS, created.ID())
	require.NoError(t, err)
	assert.Equal(t, "Hospital Central", got.String("name"))

	updated, err := s.Update(ctx, models.COLLECTION_TENANTS, created.ID(), models.Record{"phone": "123", "id": "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "123", updated.String("phone"))
	assert.Equal(t, "central", updated.String("slug"))
	assert.Equal(t, created.ID(), updated.ID())

	require.NoError(t, s.Delete(ctx, models.COLLECTION_TENANTS, created.ID()))
	_, err = s.Get(ctx, models.COLLECTION_TENANTS, created.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, models.COLLECTION_TENANTS, created.ID()), ErrNotFound)
}

func TestSQL_UniqueFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, models.COLLECTION_EXPEDIENTES, models.Record{"numero": "EXP-1"})
	require.NoError(t, err)
	_, err = s.Create(ctx, models.COLLECTION_EXPEDIENTES, models.Record{"numero": "exp-1"})
	assert.ErrorIs(t, err, ErrDuplicate)

	// empty values are not considered duplicates
	_, err = s.Create(ctx, models.COLLECTION_BLOG_ARTICLES, models.Record{"title": "a"})
	require.NoError(t, err)
	_, err = s.Create(ctx, models.COLLECTION_BLOG_ARTICLES, models.Record{"title": "b"})
	require.NoError(t, err)
}

func TestSQL_ListFilterSortPage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i, title := range []string{"Uno", "Dos", "Tres", "Cuatro", "Cinco"} {
		status := models.BLOG_STATUS_DRAFT
		if i%2 == 0 {
			status = models.BLOG_STATUS_PUBLISHED
		}
		_, err := s.Create(ctx, models.COLLECTION_BLOG_ARTICLES, models.Record{"title": title, "status": status, "position": i})
		require.NoError(t, err)
	}

	page, err := s.List(ctx, models.COLLECTION_BLOG_ARTICLES, Query{
		Filter:  filter.Eq("status", models.BLOG_STATUS_PUBLISHED),
		Sort:    "-created",
		Page:    1,
		PerPage: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Cinco", page.Items[0].String("title"))
	assert.Equal(t, "Tres", page.Items[1].String("title"))

	page, err = s.List(ctx, models.COLLECTION_BLOG_ARTICLES, Query{Page: 9, PerPage: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 5, page.TotalItems)

	first, err := s.First(ctx, models.COLLECTION_BLOG_ARTICLES, filter.Like("title", "uat"))
	require.NoError(t, err)
	assert.Equal(t, "Cuatro", first.String("title"))

	_, err = s.First(ctx, models.COLLECTION_BLOG_ARTICLES, filter.Eq("title", "Seis"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQL_Expand(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a1, err := s.Create(ctx, models.COLLECTION_BLOG_AUTHORS, models.Record{"first_name": "Ana", "last_name": "Paz"})
	require.NoError(t, err)
	a2, err := s.Create(ctx, models.COLLECTION_BLOG_AUTHORS, models.Record{"first_name": "Luis", "last_name": "Sosa"})
	require.NoError(t, err)
	user, err := s.Create(ctx, models.COLLECTION_USERS, models.Record{"email": "ed@hub.org", "password": "secret123", "passwordConfirm": "secret123"})
	require.NoError(t, err)

	art, err := s.Create(ctx, models.COLLECTION_BLOG_ARTICLES, models.Record{
		"title":          "Guardia",
		"author":         []string{a1.ID(), a2.ID()},
		"last_edited_by": user.ID(),
	})
	require.NoError(t, err)

	got, err := s.Get(ctx, models.COLLECTION_BLOG_ARTICLES, art.ID(), "author", "last_edited_by")
	require.NoError(t, err)
	authors := got.ExpandList("author")
	require.Len(t, authors, 2)
	assert.Equal(t, "Ana", authors[0].String("first_name"))
	editor := got.Expand("last_edited_by")
	assert.Equal(t, "ed@hub.org", editor.String("email"))
	assert.NotContains(t, editor, passwordHashField)
}

func TestSQL_AuthWithPassword(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, models.COLLECTION_USERS, models.Record{"email": "ana@hub.org", "password": "secret123", "passwordConfirm": "secret123"})
	require.NoError(t, err)
	assert.NotContains(t, created, "password")
	assert.NotContains(t, created, passwordHashField)

	rec, err := s.AuthWithPassword(ctx, "ana@hub.org", "secret123")
	require.NoError(t, err)
	assert.Equal(t, created.ID(), rec.ID())

	_, err = s.AuthWithPassword(ctx, "ana@hub.org", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.AuthWithPassword(ctx, "nobody@hub.org", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Update(ctx, models.COLLECTION_USERS, created.ID(), models.Record{"password": "newpass99", "passwordConfirm": "newpass99"})
	require.NoError(t, err)
	_, err = s.AuthWithPassword(ctx, "ana@hub.org", "newpass99")
	require.NoError(t, err)

	_, err = s.Create(ctx, models.COLLECTION_USERS, models.Record{"email": "x@hub.org", "password": "a", "passwordConfirm": "b"})
	assert.Error(t, err)

	assert.ErrorIs(t, s.RequestPasswordReset(ctx, "ana@hub.org"), ErrUnsupported)
	assert.NoError(t, s.Ping(ctx))
}

func TestSQL_StampIsMonotonic(t *testing.T) {
	s := openTestStore(t)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	a := s.stamp()
	b := s.stamp()
	assert.Less(t, a, b)
}

func TestSQL_ContextCancelled(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.List(ctx, models.COLLECTION_TENANTS, Query{})
	assert.ErrorIs(t, err, context.Canceled)
}
