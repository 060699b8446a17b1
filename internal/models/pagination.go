package models

import (
	"encoding/json"
	"math"
	"strings"
)

// MaxPageNumber is the highest page a listing request may ask for. Anything past the
// last page is an empty page, so the cap only keeps Skip in range.
const MaxPageNumber = 1_000_000

// Page is a 1-based page request.
type Page struct {
	Number int
	Limit  int
}

// Skip is the number of records preceding the page. It saturates instead of wrapping.
func (p Page) Skip() int {
	if p.Number < 1 || p.Limit < 1 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Limit
}

// Pagination describes where a page sits in a listing. Its JSON keys are named after the
// listed resource, e.g. totalPosts and postsPerPage.
type Pagination struct {
	Resource    string
	CurrentPage int
	TotalPages  int
	Total       int64
	PerPage     int
	HasNextPage bool
	HasPrevPage bool
}

// NewPagination derives page metadata for resource ("posts", "users", ...).
func NewPagination(resource string, page Page, total int64) Pagination {
	totalPages := 0
	if page.Limit > 0 {
		totalPages = int((total + int64(page.Limit) - 1) / int64(page.Limit))
	}
	return Pagination{
		Resource:    resource,
		CurrentPage: page.Number,
		TotalPages:  totalPages,
		Total:       total,
		PerPage:     page.Limit,
		HasNextPage: page.Number < totalPages,
		HasPrevPage: page.Number > 1,
	}
}

// MarshalJSON renders the resource-specific key names.
func (p Pagination) MarshalJSON() ([]byte, error) {
	noun := p.Resource
	if noun == "" {
		noun = "items"
	}
	out := map[string]any{
		"currentPage": p.CurrentPage,
		"totalPages":  p.TotalPages,
		"hasNextPage": p.HasNextPage,
		"hasPrevPage": p.HasPrevPage,
	}
	out["total"+title(noun)] = p.Total
	out[noun+"PerPage"] = p.PerPage
	return json.Marshal(out)
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
