package listing

import "github.com/daap14/roster/internal/record"

// DefaultPageSize is the number of records shown per page.
const DefaultPageSize = 5

// Page is one slice of a filtered list.
type Page struct {
	Items     []record.Record
	Page      int // 1-based
	Size      int
	Total     int // length of the list that was paginated
	PageCount int
}

// Paginate returns page number page (1-based) of records with size items per
// page. Pages below 1 are treated as 1; pages past the end are empty. A size
// below 1 falls back to DefaultPageSize.
func Paginate(records []record.Record, size, page int) Page {
	if size < 1 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	total := len(records)
	p := Page{
		Items:     []record.Record{},
		Page:      page,
		Size:      size,
		Total:     total,
		PageCount: (total + size - 1) / size,
	}

	start := (page - 1) * size
	if start >= total {
		return p
	}
	end := min(start+size, total)
	p.Items = append(p.Items, records[start:end]...)
	return p
}

// Pages returns the page numbers 1..PageCount.
func (p Page) Pages() []int {
	out := make([]int, p.PageCount)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
