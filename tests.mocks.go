package main

import (
	"context"
	"sync"
	"time"
)

// This file contains mocks definitions needed to perform unit tests.

// MockCatalogClient implements a fake CatalogClient.
type MockCatalogClient struct {
	SearchFunc func(ctx context.Context, query string) ([]Book, error)
}

// Search mocks the behavior of a catalog search.
func (m *MockCatalogClient) Search(ctx context.Context, query string) ([]Book, error) {
	return m.SearchFunc(ctx, query)
}

// MockShelfStorage implements a fake ShelfStorage.
type MockShelfStorage struct {
	LoadFunc  func(ctx context.Context) (Shelf, error)
	SaveFunc  func(ctx context.Context, shelf Shelf) error
	CloseFunc func() error
}

// Load mocks the behavior of reading the shelf record.
func (m *MockShelfStorage) Load(ctx context.Context) (Shelf, error) {
	return m.LoadFunc(ctx)
}

// Save mocks the behavior of writing the shelf record.
func (m *MockShelfStorage) Save(ctx context.Context, shelf Shelf) error {
	return m.SaveFunc(ctx, shelf)
}

// Close mocks the behavior of closing the storage.
func (m *MockShelfStorage) Close() error {
	if m.CloseFunc == nil {
		return nil
	}
	return m.CloseFunc()
}

// MockQueuer implements a fake Queuer.
type MockQueuer struct {
	PushFunc func(ctx context.Context, shelf Shelf) error
	PopFunc  func(ctx context.Context) (Shelf, error)
}

// Push mocks the behavior of enqueuing a snapshot.
func (m *MockQueuer) Push(ctx context.Context, shelf Shelf) error {
	return m.PushFunc(ctx, shelf)
}

// Pop mocks the behavior of dequeuing a snapshot.
func (m *MockQueuer) Pop(ctx context.Context) (Shelf, error) {
	return m.PopFunc(ctx)
}

// MockShelfSaver records every snapshot it receives.
type MockShelfSaver struct {
	mu    sync.Mutex
	saved []Shelf
}

// Save records the snapshot.
func (m *MockShelfSaver) Save(_ context.Context, shelf Shelf) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, shelf)
}

// Saved returns the recorded snapshots in reception order.
func (m *MockShelfSaver) Saved() []Shelf {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Shelf{}, m.saved...)
}

// MockShelfWriter records every snapshot written by a consumer.
type MockShelfWriter struct {
	mu      sync.Mutex
	written []Shelf
	notify  chan struct{}
}

func NewMockShelfWriter() *MockShelfWriter {
	return &MockShelfWriter{notify: make(chan struct{}, 64)}
}

// Write records the snapshot and signals it.
func (m *MockShelfWriter) Write(_ context.Context, shelf Shelf) {
	m.mu.Lock()
	m.written = append(m.written, shelf)
	m.mu.Unlock()
	m.notify <- struct{}{}
}

// Written returns the recorded snapshots in write order.
func (m *MockShelfWriter) Written() []Shelf {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Shelf{}, m.written...)
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2024, 0o3, 0o1, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Fri, 01 Mar 2024 00:00:00 UTC` in time.RFC1123 format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	MockedUID string
	Valid     bool
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string, valid bool) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id, Valid: valid}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

// IsValid mocks IsValid behavior by providing configured status.
func (muid *MockUIDHandler) IsValid(_, _ string) bool {
	return muid.Valid
}

// testBooks returns the catalog fixtures used across tests.
func testBooks() []Book {
	year := 1965
	return []Book{
		NewBook("/works/OL893415W", "Dune", []string{"Frank Herbert"}, BuildCoverSrc(DefaultCoversBaseURL, 11481354), &year),
		NewBook("/works/OL27448W", "The Lord of the Rings", []string{"J.R.R. Tolkien"}, "", nil),
		NewBook("/works/OL45883W", "Foundation", []string{}, "", nil),
	}
}
