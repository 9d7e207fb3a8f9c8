package models

import (
	"time"

	"github.com/goccy/go-json"
)

// Record is a schemaless row as returned by the document store.
type Record map[string]any

func (r Record) ID() string { return r.String("id") }

func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

func (r Record) Bool(key string) bool {
	b, _ := r[key].(bool)
	return b
}

func (r Record) Float(key string) float64 {
	switch t := r[key].(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	}
	return 0
}

func (r Record) Int(key string) int { return int(r.Float(key)) }

// Strings returns a multi value field. A single string value is returned as a
// one element slice, an empty one as nil.
func (r Record) Strings(key string) []string {
	switch t := r[key].(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if t != "" {
			return []string{t}
		}
	}
	return nil
}

// Time parses a PocketBase datetime field. Zero when empty or malformed.
func (r Record) Time(key string) time.Time {
	return ParseTime(r.String(key))
}

// Expand returns the expanded single relation stored under expand.key.
func (r Record) Expand(key string) Record {
	exp, _ := r["expand"].(map[string]any)
	if exp == nil {
		if e, ok := r["expand"].(Record); ok {
			exp = e
		}
	}
	switch t := exp[key].(type) {
	case map[string]any:
		return t
	case Record:
		return t
	case []any:
		if len(t) > 0 {
			if m, ok := t[0].(map[string]any); ok {
				return m
			}
		}
	}
	return nil
}

// ExpandList returns the expanded multi relation stored under expand.key.
func (r Record) ExpandList(key string) []Record {
	exp, _ := r["expand"].(map[string]any)
	if exp == nil {
		if e, ok := r["expand"].(Record); ok {
			exp = e
		}
	}
	var out []Record
	switch t := exp[key].(type) {
	case []any:
		for _, v := range t {
			switch m := v.(type) {
			case map[string]any:
				out = append(out, m)
			case Record:
				out = append(out, m)
			}
		}
	case []Record:
		out = t
	case map[string]any:
		out = append(out, t)
	case Record:
		out = append(out, t)
	}
	return out
}

// Decode fills v (a pointer to a typed model) from the record.
func (r Record) Decode(v any) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// FromStruct converts a typed model into a record.
func FromStruct(v any) (Record, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	return r, nil
}

// DecodeAll decodes every record into a slice of typed models.
func DecodeAll[T any](recs []Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		var v T
		if err := r.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

const TimeLayout = "2006-01-02 15:04:05.000Z"

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func ParseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{TimeLayout, "2006-01-02 15:04:05Z", "2006-01-02 15:04:05", time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
