// Package filter builds PocketBase filter expressions from typed values and
// evaluates the same expressions against in-memory records.
package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PocketBase datetime layout used by record fields and filter literals.
const DateTimeLayout = "2006-01-02 15:04:05.000Z"

const (
	OP_EQ       = "="
	OP_NEQ      = "!="
	OP_GT       = ">"
	OP_GTE      = ">="
	OP_LT       = "<"
	OP_LTE      = "<="
	OP_LIKE     = "~"
	OP_NOT_LIKE = "!~"
)

type Expr interface {
	String() string
	Match(rec map[string]any) bool
}

type cond struct {
	field string
	op    string
	value any
}

func Eq(field string, v any) Expr      { return cond{field, OP_EQ, v} }
func Neq(field string, v any) Expr     { return cond{field, OP_NEQ, v} }
func Gt(field string, v any) Expr      { return cond{field, OP_GT, v} }
func Gte(field string, v any) Expr     { return cond{field, OP_GTE, v} }
func Lt(field string, v any) Expr      { return cond{field, OP_LT, v} }
func Lte(field string, v any) Expr     { return cond{field, OP_LTE, v} }
func Like(field string, v any) Expr    { return cond{field, OP_LIKE, v} }
func NotLike(field string, v any) Expr { return cond{field, OP_NOT_LIKE, v} }

// Any matches records whose field equals one of values. With no values it
// matches nothing.
func Any(field string, values ...string) Expr {
	if len(values) == 0 {
		return Eq("id", "")
	}
	items := make([]Expr, 0, len(values))
	for _, v := range values {
		items = append(items, Eq(field, v))
	}
	return Or(items...)
}

func (c cond) String() string {
	return c.field + " " + c.op + " " + Literal(c.value)
}

func (c cond) Match(rec map[string]any) bool {
	fv := lookup(rec, c.field)
	switch c.op {
	case OP_EQ:
		return equals(fv, c.value)
	case OP_NEQ:
		return !equals(fv, c.value)
	case OP_LIKE:
		return like(fv, c.value)
	case OP_NOT_LIKE:
		return !like(fv, c.value)
	}

	cmp := Compare(fv, c.value)
	switch c.op {
	case OP_GT:
		return cmp > 0
	case OP_GTE:
		return cmp >= 0
	case OP_LT:
		return cmp < 0
	case OP_LTE:
		return cmp <= 0
	}
	return false
}

type group struct {
	op    string
	items []Expr
}

// And joins the non-nil expressions with &&. An empty And matches everything.
func And(items ...Expr) Expr { return newGroup("&&", items) }

// Or joins the non-nil expressions with ||. An empty Or matches everything.
func Or(items ...Expr) Expr { return newGroup("||", items) }

func newGroup(op string, items []Expr) Expr {
	out := make([]Expr, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if g, ok := it.(group); ok && len(g.items) == 0 {
			continue
		}
		out = append(out, it)
	}
	return group{op: op, items: out}
}

func (g group) String() string {
	parts := make([]string, 0, len(g.items))
	for _, it := range g.items {
		s := it.String()
		if _, nested := it.(group); nested && len(it.(group).items) > 1 {
			s = "(" + s + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " "+g.op+" ")
}

func (g group) Match(rec map[string]any) bool {
	if len(g.items) == 0 {
		return true
	}
	if g.op == "&&" {
		for _, it := range g.items {
			if !it.Match(rec) {
				return false
			}
		}
		return true
	}
	for _, it := range g.items {
		if it.Match(rec) {
			return true
		}
	}
	return false
}

// Render returns the filter string for e, or "" when e is nil.
func Render(e Expr) string {
	if e == nil {
		return ""
	}
	return e.String()
}

// Literal renders v as a filter literal. Strings are double quoted with
// backslashes and quotes escaped.
func Literal(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
		return `"` + r.Replace(t) + `"`
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return `"` + t.UTC().Format(DateTimeLayout) + `"`
	default:
		return Literal(fmt.Sprint(t))
	}
}

func lookup(rec map[string]any, field string) any {
	var cur any = rec
	for _, part := range strings.Split(field, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

func listOf(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func equals(fv, v any) bool {
	if list, ok := listOf(fv); ok {
		for _, item := range list {
			if Compare(item, v) == 0 {
				return true
			}
		}
		return false
	}
	return Compare(fv, v) == 0
}

func like(fv, v any) bool {
	needle := strings.ToLower(ToString(v))
	if list, ok := listOf(fv); ok {
		for _, item := range list {
			if strings.Contains(strings.ToLower(ToString(item)), needle) {
				return true
			}
		}
		return false
	}
	return strings.Contains(strings.ToLower(ToString(fv)), needle)
}

// Compare orders two field values: numerically when both are numbers, by
// truth for bools and lexicographically otherwise. nil compares as "".
func Compare(a, b any) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	ab, aIsBool := a.(bool)
	bb, bIsBool := b.(bool)
	if aIsBool || bIsBool {
		if !aIsBool {
			ab = ToString(a) == "true"
		}
		if !bIsBool {
			bb = ToString(b) == "true"
		}
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		}
		return 1
	}
	return strings.Compare(ToString(a), ToString(b))
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	}
	return 0, false
}

// ToString renders a field value for comparisons.
func ToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.UTC().Format(DateTimeLayout)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
