// Package query holds the client-side description of which page, sort,
// search and filter view of a dataset is being requested. It is the request
// body for the dataset data endpoint; all evaluation happens server-side.
package query

import (
	"fmt"
	"strings"
)

// Operator is a structured-filter comparison operator understood by the
// data endpoint.
type Operator string

const (
	OpContains Operator = "contains"
	OpEq       Operator = "eq"
	OpNe       Operator = "ne"
	OpGt       Operator = "gt"
	OpLt       Operator = "lt"
	OpGte      Operator = "gte"
	OpLte      Operator = "lte"
)

// Operators lists every operator the client emits, in display order.
var Operators = []Operator{OpContains, OpEq, OpNe, OpGt, OpLt, OpGte, OpLte}

// Valid reports whether o is an operator this client is allowed to send.
func (o Operator) Valid() bool {
	switch o {
	case OpContains, OpEq, OpNe, OpGt, OpLt, OpGte, OpLte:
		return true
	}
	return false
}

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Limits are the page sizes the table view offers.
var Limits = []int{10, 25, 50, 100}

// DefaultLimit is the page size a fresh view starts with.
const DefaultLimit = 10

// ValidLimit reports whether n is one of the offered page sizes.
func ValidLimit(n int) bool {
	for _, l := range Limits {
		if l == n {
			return true
		}
	}
	return false
}

// Filter is one structured condition on a single column. Filters are kept
// in user-entry order and are not deduplicated; how multiple filters
// combine is owned by the server.
type Filter struct {
	Column   string   `json:"column"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
}

// Query is the full view state of a paginated dataset table.
type Query struct {
	Page      int      `json:"page"`
	Limit     int      `json:"limit"`
	SortBy    string   `json:"sort_by"`
	SortOrder string   `json:"sort_order"`
	Search    string   `json:"search"`
	Filters   []Filter `json:"filters"`
}

// New returns the view state a freshly mounted table starts with.
func New() Query {
	return Query{
		Page:      1,
		Limit:     DefaultLimit,
		SortOrder: OrderAsc,
		Filters:   []Filter{},
	}
}

// UpdateSort sorts by the given column. Sorting by the current sort column
// toggles the direction; any other column starts ascending. Resets to the
// first page.
func (q *Query) UpdateSort(column string) {
	if q.SortBy == column {
		if q.SortOrder == OrderAsc {
			q.SortOrder = OrderDesc
		} else {
			q.SortOrder = OrderAsc
		}
	} else {
		q.SortBy = column
		q.SortOrder = OrderAsc
	}
	q.Page = 1
}

// UpdateSearch replaces the free-text search term verbatim and resets to
// the first page.
func (q *Query) UpdateSearch(text string) {
	q.Search = text
	q.Page = 1
}

// UpdatePage moves to page n. The caller is responsible for clamping n to
// the known page range; no other field is touched.
func (q *Query) UpdatePage(n int) {
	q.Page = n
}

// UpdateLimit changes the page size and resets to the first page.
func (q *Query) UpdateLimit(n int) {
	q.Limit = n
	q.Page = 1
}

// AddFilter appends f to the filter list and resets to the first page.
// A filter with an empty column or value is ignored entirely.
func (q *Query) AddFilter(f Filter) {
	if f.Column == "" || f.Value == "" {
		return
	}
	q.Filters = append(q.Filters, f)
	q.Page = 1
}

// RemoveFilter drops the filter at index i and resets to the first page.
// An out-of-range index removes nothing but still resets the page.
func (q *Query) RemoveFilter(i int) {
	if i >= 0 && i < len(q.Filters) {
		q.Filters = append(q.Filters[:i], q.Filters[i+1:]...)
	}
	q.Page = 1
}

// Clone returns a deep copy, used as the immutable snapshot handed to an
// outbound fetch.
func (q Query) Clone() Query {
	c := q
	c.Filters = make([]Filter, len(q.Filters))
	copy(c.Filters, q.Filters)
	return c
}

// Fingerprint returns a stable key identifying this exact view state, used
// by the page cache.
func (q Query) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "p=%d;l=%d;sb=%s;so=%s;s=%s", q.Page, q.Limit, q.SortBy, q.SortOrder, q.Search)
	for _, f := range q.Filters {
		fmt.Fprintf(&b, ";f=%s|%s|%s", f.Column, f.Operator, f.Value)
	}
	return b.String()
}
