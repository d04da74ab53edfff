// Package pagination splits an ordered collection into fixed-size pages.
package pagination

import "strconv"

// DefaultPerPage is the number of items on a listing page.
const DefaultPerPage = 10

// Paginator describes a collection of Count items shown PerPage at a time.
type Paginator struct {
	Count   int64
	PerPage int
}

// New returns a Paginator. A non-positive perPage falls back to DefaultPerPage.
func New(count int64, perPage int) Paginator {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if count < 0 {
		count = 0
	}
	return Paginator{Count: count, PerPage: perPage}
}

// NumPages is ceil(Count/PerPage), and 1 for an empty collection.
func (p Paginator) NumPages() int {
	if p.Count == 0 {
		return 1
	}
	per := int64(p.PerPage)
	return int((p.Count + per - 1) / per)
}

// Page resolves a raw page parameter. Anything that is not an integer selects
// page 1, numbers below 1 select page 1, and numbers past the end select the
// last page.
func (p Paginator) Page(raw string) Page {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		n = 1
	}
	if last := p.NumPages(); n > last {
		n = last
	}
	return Page{Number: n, NumPages: p.NumPages(), Count: p.Count, PerPage: p.PerPage}
}

// Page is one resolved page of a Paginator.
type Page struct {
	Number   int
	NumPages int
	Count    int64
	PerPage  int
}

// Offset is the number of items before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Limit is the maximum number of items on this page.
func (p Page) Limit() int {
	return p.PerPage
}

// Len is the number of items actually on this page.
func (p Page) Len() int {
	remaining := p.Count - int64(p.Offset())
	switch {
	case remaining <= 0:
		return 0
	case remaining < int64(p.PerPage):
		return int(remaining)
	default:
		return p.PerPage
	}
}

// StartIndex is the 1-based index of the first item on this page, 0 when empty.
func (p Page) StartIndex() int {
	if p.Len() == 0 {
		return 0
	}
	return p.Offset() + 1
}

// EndIndex is the 1-based index of the last item on this page, 0 when empty.
func (p Page) EndIndex() int {
	if p.Len() == 0 {
		return 0
	}
	return p.Offset() + p.Len()
}

func (p Page) HasNext() bool {
	return p.Number < p.NumPages
}

func (p Page) HasPrevious() bool {
	return p.Number > 1
}

func (p Page) HasOtherPages() bool {
	return p.HasNext() || p.HasPrevious()
}

func (p Page) NextNumber() int {
	if !p.HasNext() {
		return p.Number
	}
	return p.Number + 1
}

func (p Page) PreviousNumber() int {
	if !p.HasPrevious() {
		return p.Number
	}
	return p.Number - 1
}

// Range returns 1..NumPages for page links.
func (p Page) Range() []int {
	out := make([]int, p.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
