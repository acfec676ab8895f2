package service

import (
	"strconv"
	"strings"
)

// DefaultPerPage is the page size of every public post list.
const DefaultPerPage = 10

// Page is one slice of a paginated result set.
type Page[T any] struct {
	Items    []T
	Number   int
	NumPages int
	Count    int64
	PerPage  int
}

func (p *Page[T]) Len() int { return len(p.Items) }

func (p *Page[T]) HasPrevious() bool { return p.Number > 1 }

func (p *Page[T]) HasNext() bool { return p.Number < p.NumPages }

func (p *Page[T]) HasOtherPages() bool { return p.HasPrevious() || p.HasNext() }

func (p *Page[T]) PreviousPageNumber() int { return p.Number - 1 }

func (p *Page[T]) NextPageNumber() int { return p.Number + 1 }

// StartIndex is the 1-based index of the first item on the page.
func (p *Page[T]) StartIndex() int {
	if p.Count == 0 {
		return 0
	}
	return (p.Number-1)*p.PerPage + 1
}

// PageRange lists every page number, for the pagination links.
func (p *Page[T]) PageRange() []int {
	pages := make([]int, 0, p.NumPages)
	for i := 1; i <= p.NumPages; i++ {
		pages = append(pages, i)
	}
	return pages
}

// Paginator slices a counted result set into pages of a fixed size.
type Paginator struct {
	PerPage int
}

// NewPaginator returns a Paginator; non-positive sizes fall back to DefaultPerPage.
func NewPaginator(perPage int) Paginator {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return Paginator{PerPage: perPage}
}

// ParsePageNumber reads the ?page= value. Non-integers resolve to the first
// page; "last" is reported as -1, which Resolve maps to the last page.
func ParsePageNumber(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "last" {
		return -1
	}
	num, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	return num
}

// Resolve clamps number into the valid range for total items and returns
// the page number together with the query offset. Out of range numbers map
// to the last page.
func (p Paginator) Resolve(number int, total int64) (page, numPages, offset int) {
	numPages = 1
	if total > 0 {
		numPages = int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	}

	page = number
	if page < 1 || page > numPages {
		page = numPages
	}

	return page, numPages, (page - 1) * p.PerPage
}
