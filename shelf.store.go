package main

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// ShelfSaver receives a snapshot of the shelf after every mutation.
type ShelfSaver interface {
	Save(ctx context.Context, shelf Shelf)
}

// ShelfStore owns the in-memory shelf. It is append only.
type ShelfStore struct {
	logger  *zap.Logger
	saver   ShelfSaver
	mu      sync.RWMutex
	books   []Book
	version uint64
}

// NewShelfStore provides a store seeded with a restored shelf.
func NewShelfStore(logger *zap.Logger, initial Shelf, saver ShelfSaver) *ShelfStore {
	s := &ShelfStore{
		logger: logger,
		saver:  saver,
		books:  initial.Clone().Books,
	}
	ShelfBooks.Set(float64(len(s.books)))
	return s
}

// Add appends a copy of the book and hands the new shelf to the saver. The
// saver is called under the lock so snapshots leave in mutation order.
func (s *ShelfStore) Add(ctx context.Context, book Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Debug("shelf: adding book", zap.Stringer("book", book), zap.Int("shelf.size", len(s.books)))
	s.books = append(s.books, book.Clone())
	s.version++
	ShelfBooks.Set(float64(len(s.books)))
	if s.saver != nil {
		s.saver.Save(ctx, s.snapshotLocked())
	}
}

// List returns a copy of the shelf books in insertion order.
func (s *ShelfStore) List() []Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked().Books
}

// Snapshot returns a deep copy of the whole shelf.
func (s *ShelfStore) Snapshot() Shelf {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Len returns the number of shelved books.
func (s *ShelfStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

// Version changes after every mutation.
func (s *ShelfStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *ShelfStore) snapshotLocked() Shelf {
	return Shelf{Books: s.books}.Clone()
}
