// Package paginate slices an ordered collection into fixed-size pages.
package paginate

import (
	"fmt"
	"strconv"
)

// Page is one slice of a collection plus the metadata needed to render
// pagination controls.
type Page[T any] struct {
	Items       []T
	Number      int
	TotalPages  int
	HasNext     bool
	HasPrevious bool
}

func (p Page[T]) NextPage() int     { return p.Number + 1 }
func (p Page[T]) PreviousPage() int { return p.Number - 1 }

// ParseNumber interprets a raw "page" query value. Anything that is not a
// positive integer means page 1.
func ParseNumber(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Paginate returns the requested page of items. A number past the last page
// clamps to the last page, below 1 clamps to 1; an empty collection yields a
// single empty page. A non-positive size is a programming error.
func Paginate[T any](items []T, size, number int) Page[T] {
	if size < 1 {
		panic(fmt.Sprintf("paginate: page size must be positive, got %d", size))
	}

	total := (len(items) + size - 1) / size
	if total < 1 {
		total = 1
	}
	if number < 1 {
		number = 1
	} else if number > total {
		number = total
	}

	start := (number - 1) * size
	if start > len(items) {
		start = len(items)
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}

	return Page[T]{
		Items:       items[start:end],
		Number:      number,
		TotalPages:  total,
		HasNext:     number < total,
		HasPrevious: number > 1,
	}
}
