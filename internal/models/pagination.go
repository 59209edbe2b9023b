// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package models

// Page size bounds for list endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination describes one page of a larger result set.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

// Page is a slice of results plus its pagination.
type Page[T any] struct {
	Items      []T
	Pagination Pagination
}

// NormalizePage clamps page to >= 1 and size to [1, MaxPageSize], using
// DefaultPageSize for non-positive sizes.
func NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// Paginate slices items in memory.
func Paginate[T any](items []T, page, size int) Page[T] {
	page, size = NormalizePage(page, size)
	total := len(items)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return Page[T]{
		Items:      items[start:end],
		Pagination: NewPagination(page, size, total),
	}
}

// NewPagination computes total pages and has_more.
func NewPagination(page, size, total int) Pagination {
	totalPages := 0
	if size > 0 {
		totalPages = (total + size - 1) / size
	}
	return Pagination{
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    page*size < total,
	}
}
