package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"hub/filter"
	"hub/models"
	"hub/pocketbase"

	"github.com/rs/zerolog"
)

// PocketBase serves the collections from a PocketBase server, acting as admin.
type PocketBase struct {
	client *pocketbase.Client
	log    zerolog.Logger
}

func NewPocketBase(client *pocketbase.Client, log zerolog.Logger) *PocketBase {
	return &PocketBase{client: client, log: log}
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	var pe *pocketbase.Error
	if errors.As(err, &pe) {
		if pe.Status == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrNotFound, pe.Message)
		}
		for field, v := range pe.Data {
			if m, ok := v.(map[string]any); ok && m["code"] == "validation_not_unique" {
				return fmt.Errorf("%w: %s", ErrDuplicate, field)
			}
		}
	}
	return err
}

func (p *PocketBase) List(ctx context.Context, collection string, q Query) (*Page, error) {
	q = q.normalized()
	res, err := p.client.GetList(ctx, collection, q.Page, q.PerPage, pocketbase.ListOptions{
		Filter: filter.Render(q.Filter),
		Sort:   q.Sort,
		Expand: joinExpand(q.Expand),
	})
	if err != nil {
		return nil, translate(err)
	}
	out := &Page{Page: res.Page, PerPage: res.PerPage, TotalItems: res.TotalItems, TotalPages: res.TotalPages}
	out.Items = make([]models.Record, 0, len(res.Items))
	for _, it := range res.Items {
		out.Items = append(out.Items, it)
	}
	return out, nil
}

func (p *PocketBase) FullList(ctx context.Context, collection string, q Query) ([]models.Record, error) {
	items, err := p.client.GetFullList(ctx, collection, pocketbase.ListOptions{
		Filter: filter.Render(q.Filter),
		Sort:   q.Sort,
		Expand: joinExpand(q.Expand),
	})
	if err != nil {
		return nil, translate(err)
	}
	out := make([]models.Record, 0, len(items))
	for _, it := range items {
		out = append(out, it)
	}
	return out, nil
}

func (p *PocketBase) Get(ctx context.Context, collection, id string, expand ...string) (models.Record, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	rec, err := p.client.GetOne(ctx, collection, id, pocketbase.ListOptions{Expand: joinExpand(expand)})
	if err != nil {
		return nil, translate(err)
	}
	return rec, nil
}

func (p *PocketBase) First(ctx context.Context, collection string, f filter.Expr, expand ...string) (models.Record, error) {
	rec, err := p.client.GetFirstListItem(ctx, collection, filter.Render(f), pocketbase.ListOptions{Expand: joinExpand(expand)})
	if err != nil {
		return nil, translate(err)
	}
	return rec, nil
}

func (p *PocketBase) Create(ctx context.Context, collection string, data models.Record) (models.Record, error) {
	rec, err := p.client.Create(ctx, collection, data, pocketbase.ListOptions{})
	if err != nil {
		return nil, translate(err)
	}
	return rec, nil
}

func (p *PocketBase) Update(ctx context.Context, collection, id string, data models.Record) (models.Record, error) {
	rec, err := p.client.Update(ctx, collection, id, data, pocketbase.ListOptions{})
	if err != nil {
		return nil, translate(err)
	}
	return rec, nil
}

func (p *PocketBase) Delete(ctx context.Context, collection, id string) error {
	return translate(p.client.Delete(ctx, collection, id))
}

func (p *PocketBase) AuthWithPassword(ctx context.Context, email, password string) (models.Record, error) {
	res, err := p.client.AuthWithPassword(ctx, models.COLLECTION_USERS, email, password)
	if err != nil {
		var pe *pocketbase.Error
		if errors.As(err, &pe) && pe.Status == http.StatusBadRequest {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return res.Record, nil
}

func (p *PocketBase) RequestPasswordReset(ctx context.Context, email string) error {
	return translate(p.client.RequestPasswordReset(ctx, models.COLLECTION_USERS, email))
}

func (p *PocketBase) Ping(ctx context.Context) error {
	_, err := p.client.AdminAuth(ctx)
	return err
}

// EnsureCollections creates missing collections and appends missing fields to
// existing ones. Field types are never changed.
func (p *PocketBase) EnsureCollections(ctx context.Context, schema []models.Collection) error {
	ids := map[string]string{}
	// relation targets must exist first, so two passes: create bare, then fields
	for _, c := range schema {
		existing, err := p.client.GetCollection(ctx, c.Name)
		if err == nil {
			ids[c.Name] = existing.ID
			continue
		}
		if !pocketbase.IsNotFound(err) {
			return fmt.Errorf("get collection %s: %w", c.Name, err)
		}
		def := pocketbase.CollectionDef{Name: c.Name, Type: "base", Schema: []pocketbase.SchemaField{}}
		if c.Auth {
			def.Type = "auth"
		}
		created, err := p.client.CreateCollection(ctx, def)
		if err != nil {
			return fmt.Errorf("create collection %s: %w", c.Name, err)
		}
		p.log.Info().Str("collection", c.Name).Msg("collection created")
		ids[c.Name] = created.ID
	}

	for _, c := range schema {
		existing, err := p.client.GetCollection(ctx, c.Name)
		if err != nil {
			return fmt.Errorf("get collection %s: %w", c.Name, err)
		}
		fields := existing.Schema
		added := 0
		for _, f := range c.Fields {
			if existing.HasField(f.Name) || (c.Auth && f.Name == "email") {
				continue
			}
			fields = append(fields, schemaField(f, ids))
			added++
		}
		rule := authRule(c)
		def := *existing
		def.Schema = fields
		def.ListRule, def.ViewRule = rule, rule
		if _, err := p.client.UpdateCollection(ctx, existing.ID, def); err != nil {
			return fmt.Errorf("update collection %s: %w", c.Name, err)
		}
		if added > 0 {
			p.log.Info().Str("collection", c.Name).Int("fields", added).Msg("collection fields added")
		}
	}
	return nil
}

func authRule(c models.Collection) *string {
	if !c.Public {
		return nil
	}
	r := "@request.auth.id != ''"
	return &r
}

func schemaField(f models.Field, ids map[string]string) pocketbase.SchemaField {
	sf := pocketbase.SchemaField{Name: f.Name, Type: f.Type, Required: f.Required, Unique: f.Unique}
	switch f.Type {
	case models.FIELD_RELATION:
		max := 1
		if f.Multi {
			max = 0
		}
		sf.Options = map[string]any{"collectionId": ids[f.Target], "maxSelect": maxSelect(max), "cascadeDelete": false}
	case models.FIELD_SELECT:
		sf.Options = map[string]any{"values": f.Values, "maxSelect": 1}
	case models.FIELD_FILE:
		sf.Options = map[string]any{"maxSelect": 1, "maxSize": 5242880}
	case models.FIELD_JSON:
		sf.Options = map[string]any{"maxSize": 2000000}
	}
	return sf
}

func maxSelect(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
