package domain

import "math"

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination builds pagination metadata, clamping page and limit to at least 1.
func NewPagination(page, limit, total int) Pagination {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if total < 0 {
		total = 0
	}
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: pages,
	}
}

// Offset returns the index of the first item on the page. It saturates at
// math.MaxInt instead of overflowing for absurd page numbers.
func (p Pagination) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// HasNext reports whether a page follows this one.
func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}

// PageResult is one page of a list query, whichever source answered it.
type PageResult struct {
	Success    bool       `json:"success"`
	Data       []Email    `json:"data"`
	Pagination Pagination `json:"pagination"`
}
