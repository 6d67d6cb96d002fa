package main

import (
	"fmt"
	"strconv"
)

// DefaultCoversBaseURL is the host serving catalog cover images.
const DefaultCoversBaseURL = "https://covers.openlibrary.org"

// CoverSrc is the image locator of a book cover. Empty means no cover.
type CoverSrc string

// BuildCoverSrc derives the medium size cover url from a catalog cover id.
func BuildCoverSrc(baseURL string, coverID int64) CoverSrc {
	if baseURL == "" {
		baseURL = DefaultCoversBaseURL
	}
	return CoverSrc(baseURL + "/w/id/" + strconv.FormatInt(coverID, 10) + "-M.jpg")
}

// Book represents a normalized catalog entry.
type Book struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Authors          []string `json:"authors"`
	CoverSrc         CoverSrc `json:"coverSrc,omitempty"`
	FirstPublishYear *int     `json:"firstPublishYear,omitempty"`
}

// NewBook builds a book with an always non-nil authors list.
func NewBook(id, title string, authors []string, cover CoverSrc, year *int) Book {
	b := Book{ID: id, Title: title, CoverSrc: cover, FirstPublishYear: year}
	b.Authors = append([]string{}, authors...)
	return b
}

// HasCover tells whether a cover image is available.
func (b Book) HasCover() bool {
	return b.CoverSrc != ""
}

// SameAs reports identity. Books are keyed by id only.
func (b Book) SameAs(o Book) bool {
	return b.ID == o.ID
}

// Clone returns a deep copy sharing no memory with b.
func (b Book) Clone() Book {
	var year *int
	if b.FirstPublishYear != nil {
		y := *b.FirstPublishYear
		year = &y
	}
	return NewBook(b.ID, b.Title, b.Authors, b.CoverSrc, year)
}

func (b Book) String() string {
	year := ""
	if b.FirstPublishYear != nil {
		year = strconv.Itoa(*b.FirstPublishYear)
	}
	return fmt.Sprintf("Book{id=%s title=%q authors=%v year=%s}", b.ID, b.Title, b.Authors, year)
}

// Shelf is the persisted ordered collection of books.
// Duplicated ids are allowed.
type Shelf struct {
	Books []Book `json:"books"`
}

// NewShelf returns an empty shelf.
func NewShelf() Shelf {
	return Shelf{Books: []Book{}}
}

// Clone returns a deep copy of the shelf.
func (s Shelf) Clone() Shelf {
	books := make([]Book, 0, len(s.Books))
	for _, b := range s.Books {
		books = append(books, b.Clone())
	}
	return Shelf{Books: books}
}

// normalize fixes nil slices coming from a decoded record.
func (s Shelf) normalize() Shelf {
	if s.Books == nil {
		s.Books = []Book{}
	}
	for i := range s.Books {
		if s.Books[i].Authors == nil {
			s.Books[i].Authors = []string{}
		}
	}
	return s
}
