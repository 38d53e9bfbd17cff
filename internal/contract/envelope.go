package contract

import "time"

// MaxPageLimit caps the per-page size of every list endpoint before the
// store is queried.
const (
	MaxPageLimit     = 100
	DefaultPageLimit = 20
)

// Envelope is the uniform wrapper around every response body.
// Success=true implies Error is empty and Data is present (possibly an
// empty collection); Success=false implies Error is set and Data is nil.
type Envelope struct {
	Success    bool      `json:"success"`
	Data       any       `json:"data,omitempty"`
	Message    string    `json:"message,omitempty"`
	Error      string    `json:"error,omitempty"`
	StatusCode int       `json:"statusCode,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func OK(data any, message string) Envelope {
	return Envelope{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

func Fail(code ErrorCode, message string) Envelope {
	return Envelope{
		Success:    false,
		Error:      string(code),
		Message:    message,
		StatusCode: code.Status(),
		Timestamp:  time.Now().UTC(),
	}
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Page nests a list result and its pagination under the envelope's data
// field.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewPagination clamps limit to [1, MaxPageLimit], floors page at 1 and
// computes TotalPages = ceil(total/limit).
func NewPagination(page, limit, total int) Pagination {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if page <= 0 {
		page = 1
	}
	totalPages := (total + limit - 1) / limit
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// Offset is the zero-based row offset for the pagination window.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

func NewPage[T any](items []T, page, limit, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Data: items, Pagination: NewPagination(page, limit, total)}
}
