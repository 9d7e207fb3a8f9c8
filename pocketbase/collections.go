package pocketbase

import (
	"context"
	"net/http"
	"net/url"
)

// SchemaField is a field of a collection definition.
type SchemaField struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Required bool           `json:"required"`
	Unique   bool           `json:"unique"`
	Options  map[string]any `json:"options,omitempty"`
}

type CollectionDef struct {
	ID         string        `json:"id,omitempty"`
	Name       string        `json:"name"`
	Type       string        `json:"type"`
	Schema     []SchemaField `json:"schema"`
	ListRule   *string       `json:"listRule"`
	ViewRule   *string       `json:"viewRule"`
	CreateRule *string       `json:"createRule"`
	UpdateRule *string       `json:"updateRule"`
	DeleteRule *string       `json:"deleteRule"`
}

func (d CollectionDef) HasField(name string) bool {
	for _, f := range d.Schema {
		if f.Name == name {
			return true
		}
	}
	return false
}

func (c *Client) GetCollection(ctx context.Context, nameOrID string) (*CollectionDef, error) {
	var out CollectionDef
	if err := c.send(ctx, http.MethodGet, "/api/collections/"+url.PathEscape(nameOrID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCollection(ctx context.Context, def CollectionDef) (*CollectionDef, error) {
	var out CollectionDef
	if err := c.send(ctx, http.MethodPost, "/api/collections", nil, def, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCollection(ctx context.Context, id string, def CollectionDef) (*CollectionDef, error) {
	var out CollectionDef
	if err := c.send(ctx, http.MethodPatch, "/api/collections/"+url.PathEscape(id), nil, def, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
