package pagex

import "strconv"

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ParseLimit reads a page size from a query value. Anything that is not a
// positive integer yields def; anything above max is clamped to max.
func ParseLimit(raw string, def, max int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// Page is one slice of a keyset-paginated listing.
type Page[T any] struct {
	Data       []T
	HasMore    bool
	NextCursor *string
}

// NewPage shapes rows fetched with LIMIT limit+1 into a page. The extra row
// only signals that more exist; it is never returned.
func NewPage[T any](rows []T, limit int, key func(T) Cursor) Page[T] {
	if rows == nil {
		rows = []T{}
	}
	if len(rows) <= limit {
		return Page[T]{Data: rows}
	}

	rows = rows[:limit]
	next := Encode(key(rows[len(rows)-1]))
	return Page[T]{Data: rows, HasMore: true, NextCursor: &next}
}

// Meta is the pagination envelope returned alongside list data.
type Meta struct {
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
	Count      int     `json:"count"`
}

// Response is the JSON shape of a paginated list.
type Response[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}

// Response converts the page to its wire shape.
func (p Page[T]) Response() Response[T] {
	return Response[T]{
		Data: p.Data,
		Meta: Meta{NextCursor: p.NextCursor, HasMore: p.HasMore, Count: len(p.Data)},
	}
}
