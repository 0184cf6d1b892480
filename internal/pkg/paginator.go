package pkg

import "strconv"

// PostsPerPage is the fixed size of every post listing page.
const PostsPerPage = 10

// Page is a bounded slice of an ordered sequence plus navigation metadata.
type Page[T any] struct {
	Items       []T   `json:"object_list"`
	Number      int   `json:"number"`
	NumPages    int   `json:"num_pages"`
	Count       int64 `json:"count"`
	PerPage     int   `json:"per_page"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

func (p *Page[T]) NextPageNumber() int     { return p.Number + 1 }
func (p *Page[T]) PreviousPageNumber() int { return p.Number - 1 }

// Offset is the index of the first item of the page in the full sequence.
func (p *Page[T]) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// NewPage resolves the raw page parameter against count items.
// A missing or non-integer page yields the first page, an out of range number
// yields the last page. There is always at least one page.
func NewPage[T any](count int64, rawPage string, perPage int) *Page[T] {
	if perPage <= 0 {
		perPage = PostsPerPage
	}
	numPages := int((count + int64(perPage) - 1) / int64(perPage))
	if numPages < 1 {
		numPages = 1
	}

	number, err := strconv.Atoi(rawPage)
	switch {
	case err != nil:
		number = 1
	case number < 1 || number > numPages:
		number = numPages
	}

	return &Page[T]{
		Number:      number,
		NumPages:    numPages,
		Count:       count,
		PerPage:     perPage,
		HasNext:     number < numPages,
		HasPrevious: number > 1,
	}
}
