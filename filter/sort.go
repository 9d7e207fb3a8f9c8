package filter

import (
	"sort"
	"strings"
)

type SortKey struct {
	Field string
	Desc  bool
}

// ParseSort reads a PocketBase sort string such as "-created,name".
func ParseSort(s string) []SortKey {
	var keys []SortKey
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k := SortKey{Field: part}
		switch part[0] {
		case '-':
			k.Field, k.Desc = part[1:], true
		case '+':
			k.Field = part[1:]
		}
		keys = append(keys, k)
	}
	return keys
}

// Sort orders records in place by keys. Ties keep their input order.
func Sort[T ~map[string]any](recs []T, keys []SortKey) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(recs, func(i, j int) bool {
		for _, k := range keys {
			c := Compare(lookup(recs[i], k.Field), lookup(recs[j], k.Field))
			if c == 0 {
				continue
			}
			if k.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}
