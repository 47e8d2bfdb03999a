package dto

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Pagination - нормализованные page/limit
type Pagination struct {
	Page  int
	Limit int
}

// NewPagination подставляет значения по умолчанию и ограничивает limit
func NewPagination(page, limit int) Pagination {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Pagination{Page: page, Limit: limit}
}

// Offset = (page-1)*limit
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages = ceil(total/limit)
func (p Pagination) TotalPages(total int64) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

type MessageResponse struct {
	Message string `json:"message"`
}
