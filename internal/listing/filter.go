// Package listing narrows and slices a record list for display: a free-text
// filter followed by fixed-size pages.
package listing

import (
	"strings"

	"github.com/daap14/roster/internal/record"
)

// Filter returns the records for which any field value contains query,
// ignoring case. The id is matched in its decimal form. An empty query
// matches everything. Order is preserved.
func Filter(records []record.Record, query string) []record.Record {
	out := make([]record.Record, 0, len(records))
	if query == "" {
		return append(out, records...)
	}

	needle := strings.ToLower(query)
	for _, r := range records {
		if matches(r, needle) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r record.Record, needle string) bool {
	for _, v := range r.Values() {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}
