package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantPage     int
		wantPageSize int
	}{
		{"defaults", "", 1, 20},
		{"custom values", "page=3&pageSize=25", 3, 25},
		{"per_page alias", "per_page=10", 1, 10},
		{"pageSize wins over alias", "pageSize=5&per_page=10", 1, 5},
		{"capped", "pageSize=500", 1, 200},
		{"negative page", "page=-1", 1, 20},
		{"zero page size", "pageSize=0", 1, 20},
		{"non-numeric", "page=abc&pageSize=xyz", 1, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/test?"+tt.query, nil)
			p := ParsePagination(r)
			if p.Page != tt.wantPage {
				t.Errorf("page = %d, want %d", p.Page, tt.wantPage)
			}
			if p.PageSize != tt.wantPageSize {
				t.Errorf("pageSize = %d, want %d", p.PageSize, tt.wantPageSize)
			}
		})
	}
}

func TestPaginationParams_Offset(t *testing.T) {
	tests := []struct {
		page, size, want int
	}{
		{1, 20, 0},
		{2, 20, 20},
		{3, 10, 20},
	}
	for _, tt := range tests {
		p := PaginationParams{Page: tt.page, PageSize: tt.size}
		if got := p.Offset(); got != tt.want {
			t.Errorf("Offset(page=%d,size=%d) = %d, want %d", tt.page, tt.size, got, tt.want)
		}
	}
}

func TestPaginationParams_TotalPages(t *testing.T) {
	tests := []struct {
		size  int
		total int64
		want  int
	}{
		{20, 0, 0},
		{20, 20, 1},
		{20, 21, 2},
		{0, 10, 0},
	}
	for _, tt := range tests {
		p := PaginationParams{Page: 1, PageSize: tt.size}
		if got := p.TotalPages(tt.total); got != tt.want {
			t.Errorf("TotalPages(size=%d,total=%d) = %d, want %d", tt.size, tt.total, got, tt.want)
		}
	}
}
