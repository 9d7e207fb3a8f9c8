// Package store hides which document backend holds the hub collections.
package store

import (
	"context"
	"errors"
	"strings"

	"hub/filter"
	"hub/models"
)

var (
	ErrNotFound           = errors.New("registro no encontrado")
	ErrDuplicate          = errors.New("valor duplicado")
	ErrInvalidCredentials = errors.New("credenciales inválidas")
	ErrUnsupported        = errors.New("operación no soportada por el backend")
)

const (
	DefaultPerPage = 30
	MaxPerPage     = 500
)

type Query struct {
	Filter  filter.Expr
	Sort    string
	Page    int
	PerPage int
	Expand  []string
}

func (q Query) normalized() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}
	return q
}

type Page struct {
	Items      []models.Record `json:"items"`
	Page       int             `json:"page"`
	PerPage    int             `json:"perPage"`
	TotalItems int             `json:"totalItems"`
	TotalPages int             `json:"totalPages"`
}

// Store is the collection API every service talks to.
type Store interface {
	List(ctx context.Context, collection string, q Query) (*Page, error)
	FullList(ctx context.Context, collection string, q Query) ([]models.Record, error)
	Get(ctx context.Context, collection, id string, expand ...string) (models.Record, error)
	First(ctx context.Context, collection string, f filter.Expr, expand ...string) (models.Record, error)
	Create(ctx context.Context, collection string, data models.Record) (models.Record, error)
	Update(ctx context.Context, collection, id string, data models.Record) (models.Record, error)
	Delete(ctx context.Context, collection, id string) error

	// AuthWithPassword checks the credentials of an auth_users record.
	AuthWithPassword(ctx context.Context, email, password string) (models.Record, error)
	RequestPasswordReset(ctx context.Context, email string) error

	EnsureCollections(ctx context.Context, schema []models.Collection) error
	Ping(ctx context.Context) error
}

func totalPages(total, perPage int) int {
	if total == 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

func joinExpand(expand []string) string {
	return strings.Join(expand, ",")
}
