package models

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type Pagination struct {
	Page  int64
	Limit int64
}

// NewPagination clamps page to >= 1 and limit to 1..MaxPageLimit (0 means default).
func NewPagination(page, limit int64) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Pagination{Page: page, Limit: limit}
}

func (p Pagination) Skip() int64 {
	return (p.Page - 1) * p.Limit
}

func (p Pagination) Pages(total int64) int64 {
	if total <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

type Page[T any] struct {
	Items []T
	Total int64
	Pagination
}

func (p Page[T]) Pages() int64 {
	return p.Pagination.Pages(p.Total)
}
