// Package pagination computes page metadata for list endpoints.
package pagination

import (
	"errors"
	"fmt"
)

var ErrInvalidSize = errors.New("page size must be greater than zero")

// OutOfRangeError is returned when the requested page is past the last one.
type OutOfRangeError struct {
	Page  int
	Pages int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("page %d is out of range (1-%d)", e.Page, e.Pages)
}

// Request carries the query parameters common to all paginated listings.
type Request struct {
	Page int `form:"page,default=1" binding:"min=1"`
	Size int `form:"size,default=10" binding:"min=1,max=100"`
}

func (r Request) Offset() int { return (r.Page - 1) * r.Size }

type Page[T any] struct {
	Items    []T  `json:"items"`
	Page     int  `json:"page"`
	Size     int  `json:"size"`
	Total    int  `json:"total"`
	Pages    int  `json:"pages"`
	HasNext  bool `json:"has_next"`
	HasPrev  bool `json:"has_prev"`
	NextPage *int `json:"next_page"`
	PrevPage *int `json:"prev_page"`
}

// New builds a page over items already sliced to the requested window.
// Total is the full result count, not len(items).
func New[T any](items []T, page, size, total int) (*Page[T], error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	pages := (total + size - 1) / size
	if page > pages && pages > 0 {
		return nil, &OutOfRangeError{Page: page, Pages: pages}
	}

	p := &Page[T]{
		Items:   items,
		Page:    page,
		Size:    size,
		Total:   total,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
	if p.HasNext {
		next := page + 1
		p.NextPage = &next
	}
	if p.HasPrev {
		prev := page - 1
		p.PrevPage = &prev
	}
	if p.Items == nil {
		p.Items = []T{}
	}
	return p, nil
}
