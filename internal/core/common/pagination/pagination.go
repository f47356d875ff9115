package pagination

import (
	"math"
	"net/http"
	"strconv"

	"github.com/frahmantamala/tenant-admin/internal"
)

const (
	MaxLimit         = 50
	DefaultLimit     = 10
	DefaultPage      = 1
	CatalogPageLimit = 50
)

type Query struct {
	Page  int
	Limit int
}

// FromRequest reads page and limit from the query string. Missing values take
// the defaults; page below 1, limit outside 1..50 or a page whose offset
// does not fit in an int is a validation error.
func FromRequest(r *http.Request, defaultLimit int) (Query, error) {
	q := Query{Page: DefaultPage, Limit: defaultLimit}
	values := r.URL.Query()

	if raw := values.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return Query{}, internal.NewValidationFieldError("page", "page must be an integer >= 1", internal.ErrCodeValidationFailed)
		}
		q.Page = page
	}

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > MaxLimit {
			return Query{}, internal.NewValidationFieldError("limit", "limit must be an integer between 1 and 50", internal.ErrCodeValidationFailed)
		}
		q.Limit = limit
	}

	if q.Page-1 > math.MaxInt/q.Limit {
		return Query{}, internal.NewValidationFieldError("page", "page is out of range", internal.ErrCodeValidationFailed)
	}

	return q, nil
}

func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

type Meta struct {
	TotalItems   int64 `json:"totalItems"`
	ItemCount    int   `json:"itemCount"`
	ItemsPerPage int   `json:"itemsPerPage"`
	TotalPages   int   `json:"totalPages"`
	CurrentPage  int   `json:"currentPage"`
}

type Page[T any] struct {
	Items []T  `json:"items"`
	Meta  Meta `json:"meta"`
}

func NewPage[T any](items []T, total int64, q Query) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items: items,
		Meta: Meta{
			TotalItems:   total,
			ItemCount:    len(items),
			ItemsPerPage: q.Limit,
			TotalPages:   totalPages(total, q.Limit),
			CurrentPage:  q.Page,
		},
	}
}

// Map converts the items of a page while keeping its meta.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, len(p.Items))
	for i, item := range p.Items {
		out[i] = fn(item)
	}
	return Page[U]{Items: out, Meta: p.Meta}
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
