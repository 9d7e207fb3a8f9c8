package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"hub/filter"
	"hub/models"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"golang.org/x/crypto/bcrypt"
)

const passwordHashField = "password_hash"

// SQL keeps every collection in a single gorm table. Filtering, sorting and
// expansion run in memory with the same filter expressions PocketBase gets.
type SQL struct {
	db   *gorm.DB
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func NewSQL(db *gorm.DB) *SQL {
	return &SQL{db: db, now: time.Now}
}

// stamp returns a timestamp strictly after the previous one so that records
// written in the same millisecond still sort by creation. Callers hold s.mu.
func (s *SQL) stamp() string {
	t := s.now().UTC().Truncate(time.Millisecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Millisecond)
	}
	s.last = t
	return models.FormatTime(t)
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:15]
}

func (s *SQL) rows(collection string) ([]models.Record, error) {
	var rows []models.RecordRow
	if err := s.db.Where("collection = ?", collection).Order("created asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func decodeRow(row models.RecordRow) (models.Record, error) {
	rec := models.Record{}
	if row.Data != "" {
		if err := json.Unmarshal([]byte(row.Data), &rec); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", row.ID, err)
		}
	}
	rec["id"] = row.ID
	rec["collectionName"] = row.Collection
	rec["created"] = row.Created
	rec["updated"] = row.Updated
	return rec, nil
}

func public(rec models.Record) models.Record {
	if _, ok := rec[passwordHashField]; !ok {
		return rec
	}
	out := rec.Clone()
	delete(out, passwordHashField)
	return out
}

func (s *SQL) query(ctx context.Context, collection string, q Query) ([]models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all, err := s.rows(collection)
	if err != nil {
		return nil, err
	}
	matched := make([]models.Record, 0, len(all))
	for _, rec := range all {
		if q.Filter == nil || q.Filter.Match(rec) {
			matched = append(matched, rec)
		}
	}
	filter.Sort(matched, filter.ParseSort(q.Sort))
	return matched, nil
}

func (s *SQL) List(ctx context.Context, collection string, q Query) (*Page, error) {
	q = q.normalized()
	matched, err := s.query(ctx, collection, q)
	if err != nil {
		return nil, err
	}
	start := (q.Page - 1) * q.PerPage
	end := start + q.PerPage
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}
	items := make([]models.Record, 0, end-start)
	for _, rec := range matched[start:end] {
		items = append(items, public(rec))
	}
	if err := s.expand(collection, items, q.Expand); err != nil {
		return nil, err
	}
	return &Page{
		Items:      items,
		Page:       q.Page,
		PerPage:    q.PerPage,
		TotalItems: len(matched),
		TotalPages: totalPages(len(matched), q.PerPage),
	}, nil
}

func (s *SQL) FullList(ctx context.Context, collection string, q Query) ([]models.Record, error) {
	matched, err := s.query(ctx, collection, q)
	if err != nil {
		return nil, err
	}
	for i, rec := range matched {
		matched[i] = public(rec)
	}
	if err := s.expand(collection, matched, q.Expand); err != nil {
		return nil, err
	}
	return matched, nil
}

func (s *SQL) find(collection, id string) (models.RecordRow, error) {
	var row models.RecordRow
	err := s.db.Where("id = ? AND collection = ?", id, collection).First(&row).Error
	if gorm.IsRecordNotFoundError(err) {
		return row, ErrNotFound
	}
	return row, err
}

func (s *SQL) Get(ctx context.Context, collection, id string, expand ...string) (models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row, err := s.find(collection, id)
	if err != nil {
		return nil, err
	}
	rec, err := decodeRow(row)
	if err != nil {
		return nil, err
	}
	rec = public(rec)
	if err := s.expand(collection, []models.Record{rec}, expand); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *SQL) First(ctx context.Context, collection string, f filter.Expr, expand ...string) (models.Record, error) {
	matched, err := s.query(ctx, collection, Query{Filter: f})
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, ErrNotFound
	}
	rec := public(matched[0])
	if err := s.expand(collection, []models.Record{rec}, expand); err != nil {
		return nil, err
	}
	return rec, nil
}

// prepare strips system keys and hashes auth passwords.
func prepare(collection string, data models.Record) (models.Record, error) {
	out := models.Record{}
	for k, v := range data {
		switch k {
		case "id", "created", "updated", "expand", "collectionName", "collectionId", passwordHashField, "oldPassword":
			continue
		case "password", "passwordConfirm":
			continue
		}
		out[k] = v
	}
	if collection == models.COLLECTION_USERS {
		if pw, _ := data["password"].(string); pw != "" {
			if confirm, ok := data["passwordConfirm"].(string); ok && confirm != pw {
				return nil, fmt.Errorf("%w: passwordConfirm", ErrInvalidCredentials)
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
			if err != nil {
				return nil, err
			}
			out[passwordHashField] = string(hash)
		}
	}
	return out, nil
}

func (s *SQL) checkUnique(collection, id string, data models.Record) error {
	schema, ok := models.CollectionSchema(collection)
	if !ok {
		return nil
	}
	fields := schema.UniqueFields()
	if len(fields) == 0 {
		return nil
	}
	all, err := s.rows(collection)
	if err != nil {
		return err
	}
	for _, field := range fields {
		v := filter.ToString(data[field])
		if v == "" {
			continue
		}
		for _, rec := range all {
			if rec.ID() != id && strings.EqualFold(filter.ToString(rec[field]), v) {
				return fmt.Errorf("%w: %s", ErrDuplicate, field)
			}
		}
	}
	return nil
}

func (s *SQL) Create(ctx context.Context, collection string, data models.Record) (models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := prepare(collection, data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, _ := data["id"].(string)
	if id == "" {
		id = newID()
	}
	if err := s.checkUnique(collection, id, clean); err != nil {
		return nil, err
	}
	b, err := json.Marshal(clean)
	if err != nil {
		return nil, err
	}
	now := s.stamp()
	row := models.RecordRow{ID: id, Collection: collection, Data: string(b), Created: now, Updated: now}
	if err := s.db.Create(&row).Error; err != nil {
		return nil, err
	}
	rec, err := decodeRow(row)
	if err != nil {
		return nil, err
	}
	return public(rec), nil
}

func (s *SQL) Update(ctx context.Context, collection, id string, data models.Record) (models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	patch, err := prepare(collection, data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.find(collection, id)
	if err != nil {
		return nil, err
	}
	current, err := decodeRow(row)
	if err != nil {
		return nil, err
	}
	merged := models.Record{}
	for k, v := range current {
		switch k {
		case "id", "created", "updated", "collectionName":
			continue
		}
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	if err := s.checkUnique(collection, id, merged); err != nil {
		return nil, err
	}
	b, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	row.Data = string(b)
	row.Updated = s.stamp()
	if err := s.db.Save(&row).Error; err != nil {
		return nil, err
	}
	rec, err := decodeRow(row)
	if err != nil {
		return nil, err
	}
	return public(rec), nil
}

func (s *SQL) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.db.Where("id = ? AND collection = ?", id, collection).Delete(&models.RecordRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQL) AuthWithPassword(ctx context.Context, email, password string) (models.Record, error) {
	matched, err := s.query(ctx, models.COLLECTION_USERS, Query{Filter: filter.Eq("email", email)})
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, ErrInvalidCredentials
	}
	rec := matched[0]
	hash, _ := rec[passwordHashField].(string)
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return public(rec), nil
}

// RequestPasswordReset has no mail transport of its own; callers fall back to
// their own reset flow.
func (s *SQL) RequestPasswordReset(ctx context.Context, email string) error {
	return ErrUnsupported
}

func (s *SQL) EnsureCollections(ctx context.Context, schema []models.Collection) error {
	return s.db.AutoMigrate(&models.RecordRow{}).Error
}

func (s *SQL) Ping(ctx context.Context) error {
	return s.db.DB().PingContext(ctx)
}

// expand resolves relation fields listed in keys into rec["expand"].
func (s *SQL) expand(collection string, recs []models.Record, keys []string) error {
	if len(keys) == 0 || len(recs) == 0 {
		return nil
	}
	schema, ok := models.CollectionSchema(collection)
	if !ok {
		return nil
	}
	for _, key := range keys {
		key = strings.TrimSpace(key)
		field, ok := schema.Field(key)
		if !ok || field.Type != models.FIELD_RELATION {
			continue
		}
		targets, err := s.rows(field.Target)
		if err != nil {
			return err
		}
		byID := make(map[string]models.Record, len(targets))
		for _, t := range targets {
			byID[t.ID()] = public(t)
		}
		for _, rec := range recs {
			ids := rec.Strings(key)
			if len(ids) == 0 {
				continue
			}
			exp, _ := rec["expand"].(map[string]any)
			if exp == nil {
				exp = map[string]any{}
				rec["expand"] = exp
			}
			if field.Multi {
				var list []any
				for _, id := range ids {
					if t, ok := byID[id]; ok {
						list = append(list, map[string]any(t))
					}
				}
				if len(list) > 0 {
					exp[key] = list
				}
				continue
			}
			if t, ok := byID[ids[0]]; ok {
				exp[key] = map[string]any(t)
			}
		}
	}
	return nil
}
