package api

import (
	"net/http"
	"strconv"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 200
)

// PaginationParams holds parsed pagination query parameters.
type PaginationParams struct {
	Page     int
	PageSize int
}

// ParsePagination extracts pagination parameters from the request.
// Defaults: page=1, pageSize=20 (per_page is accepted as an alias). Maximum
// page size is 200.
func ParsePagination(r *http.Request) PaginationParams {
	p := PaginationParams{
		Page:     defaultPage,
		PageSize: defaultPageSize,
	}

	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Page = n
		}
	}

	size := q.Get("pageSize")
	if size == "" {
		size = q.Get("per_page")
	}
	if size != "" {
		if n, err := strconv.Atoi(size); err == nil && n > 0 {
			p.PageSize = min(n, maxPageSize)
		}
	}

	return p
}

// Offset returns the database offset for the current page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// TotalPages calculates the total number of pages for a given total count.
func (p PaginationParams) TotalPages(total int64) int {
	if p.PageSize <= 0 {
		return 0
	}
	pages := int(total) / p.PageSize
	if int(total)%p.PageSize > 0 {
		pages++
	}
	return pages
}
