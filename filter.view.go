package main

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// VisibleBooks keeps the books whose case folded title contains the
// case folded query. An empty query keeps every book in its order.
func VisibleBooks(books []Book, query string) []Book {
	visible := make([]Book, 0, len(books))
	if query == "" {
		return append(visible, books...)
	}
	// a Caser holds state so each call gets its own.
	folder := cases.Fold()
	needle := folder.String(query)
	for _, b := range books {
		if strings.Contains(folder.String(b.Title), needle) {
			visible = append(visible, b)
		}
	}
	return visible
}

// ShelfReader is the read side of the shelf needed to derive views.
type ShelfReader interface {
	List() []Book
	Version() uint64
}

// FilterView memoizes the last derived view of a shelf. The cached value
// is only reused while the shelf version and the query are unchanged.
type FilterView struct {
	mu      sync.Mutex
	valid   bool
	version uint64
	query   string
	books   []Book
}

// NewFilterView returns an empty view.
func NewFilterView() *FilterView {
	return &FilterView{}
}

// Visible returns the filtered shelf for the query.
func (fv *FilterView) Visible(shelf ShelfReader, query string) []Book {
	fv.mu.Lock()
	defer fv.mu.Unlock()

	version := shelf.Version()
	if !fv.valid || fv.version != version || fv.query != query {
		fv.books = VisibleBooks(shelf.List(), query)
		fv.version = version
		fv.query = query
		fv.valid = true
	}
	return append(make([]Book, 0, len(fv.books)), fv.books...)
}
