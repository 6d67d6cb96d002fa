package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

// gatedCatalog hands every search to the test which decides when and how it completes.
type gatedCatalog struct {
	calls chan *pendingSearch
}

type pendingSearch struct {
	query string
	reply chan catalogReply
}

type catalogReply struct {
	books []Book
	err   error
}

func newGatedCatalog() *gatedCatalog {
	return &gatedCatalog{calls: make(chan *pendingSearch, 8)}
}

func (g *gatedCatalog) Search(ctx context.Context, query string) ([]Book, error) {
	p := &pendingSearch{query: query, reply: make(chan catalogReply, 1)}
	g.calls <- p
	r := <-p.reply
	return r.books, r.err
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("search did not complete")
	}
}

// TestSearchSession_Success ensures a search moves through searching to succeeded.
func TestSearchSession_Success(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	catalog := &MockCatalogClient{
		SearchFunc: func(ctx context.Context, query string) ([]Book, error) {
			return testBooks()[:1], nil
		},
	}
	s := NewSearchSession(zap.NewNop(), catalog, NewMockClocker())

	snap := s.SubmitQuery("dune")
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, "dune", snap.Query)

	snap, done := s.TriggerSearch(context.Background())
	assert.Equal(t, StateSearching, snap.State)
	assert.Equal(t, "dune", snap.SearchedQuery)
	require.NotNil(t, snap.SearchedAt)
	waitDone(t, done)

	snap = s.Snapshot()
	assert.Equal(t, StateSucceeded, snap.State)
	require.Len(t, snap.Results, 1)
	assert.Equal(t, "Dune", snap.Results[0].Title)
	assert.Empty(t, snap.Error)
	assert.NotNil(t, snap.CompletedAt)

	book, err := s.Result("/works/OL893415W")
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)

	_, err = s.Result("/works/unknown")
	assert.ErrorIs(t, err, ErrBookNotInResults)
}

// TestSearchSession_EmptyQuery ensures an empty query is still sent to the catalog.
func TestSearchSession_EmptyQuery(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	var got *string
	catalog := &MockCatalogClient{
		SearchFunc: func(ctx context.Context, query string) ([]Book, error) {
			got = &query
			return []Book{}, nil
		},
	}
	s := NewSearchSession(zap.NewNop(), catalog, NewMockClocker())
	_, done := s.TriggerSearch(context.Background())
	waitDone(t, done)
	require.NotNil(t, got)
	assert.Equal(t, "", *got)
	snap := s.Snapshot()
	assert.Equal(t, StateSucceeded, snap.State)
	assert.Empty(t, snap.Results)
}

// TestSearchSession_Failure ensures a failed search shows a message and no results.
func TestSearchSession_Failure(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	catalog := &MockCatalogClient{
		SearchFunc: func(ctx context.Context, query string) ([]Book, error) {
			return nil, &RequestError{Stage: StageStatus, Err: errors.New("unexpected status code 500")}
		},
	}
	s := NewSearchSession(zap.NewNop(), catalog, NewMockClocker())
	s.SubmitQuery("dune")
	_, done := s.TriggerSearch(context.Background())
	waitDone(t, done)

	snap := s.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.Equal(t, "Error: request error", snap.Error)
	assert.Nil(t, snap.Results)

	_, err := s.Result("/works/OL893415W")
	assert.ErrorIs(t, err, ErrNoResults)
}

// TestSearchSession_LastSearchWins ensures a stale completion never replaces a newer one.
func TestSearchSession_LastSearchWins(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	catalog := newGatedCatalog()
	s := NewSearchSession(zap.NewNop(), catalog, NewMockClocker())
	books := testBooks()

	s.SubmitQuery("dune")
	_, first := s.TriggerSearch(context.Background())
	firstCall := <-catalog.calls
	assert.Equal(t, "dune", firstCall.query)

	s.SubmitQuery("rings")
	_, second := s.TriggerSearch(context.Background())
	secondCall := <-catalog.calls
	assert.Equal(t, "rings", secondCall.query)

	// the newer search completes first.
	secondCall.reply <- catalogReply{books: books[1:2]}
	waitDone(t, second)
	firstCall.reply <- catalogReply{books: books}
	waitDone(t, first)

	snap := s.Snapshot()
	assert.Equal(t, StateSucceeded, snap.State)
	assert.Equal(t, "rings", snap.SearchedQuery)
	require.Len(t, snap.Results, 1)
	assert.Equal(t, "The Lord of the Rings", snap.Results[0].Title)

	t.Run("stale failure is ignored too", func(t *testing.T) {
		_, older := s.TriggerSearch(context.Background())
		olderCall := <-catalog.calls
		_, newer := s.TriggerSearch(context.Background())
		newerCall := <-catalog.calls

		newerCall.reply <- catalogReply{books: books[:1]}
		waitDone(t, newer)
		olderCall.reply <- catalogReply{err: &RequestError{Stage: StageTransport, Err: errors.New("timeout")}}
		waitDone(t, older)

		snap := s.Snapshot()
		assert.Equal(t, StateSucceeded, snap.State)
		assert.Empty(t, snap.Error)
		require.Len(t, snap.Results, 1)
		assert.Equal(t, "Dune", snap.Results[0].Title)
	})
}

// TestSearchSession_EditHidesResults ensures editing the query clears results
// and ignores the in-flight search.
func TestSearchSession_EditHidesResults(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	catalog := newGatedCatalog()
	s := NewSearchSession(zap.NewNop(), catalog, NewMockClocker())

	s.SubmitQuery("dune")
	_, done := s.TriggerSearch(context.Background())
	(<-catalog.calls).reply <- catalogReply{books: testBooks()}
	waitDone(t, done)
	require.Len(t, s.Snapshot().Results, 3)

	snap := s.SubmitQuery("dune messiah")
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Results)
	assert.Empty(t, snap.SearchedQuery)

	t.Run("pending search is ignored after an edit", func(t *testing.T) {
		_, done := s.TriggerSearch(context.Background())
		call := <-catalog.calls
		s.SubmitQuery("foundation")
		call.reply <- catalogReply{books: testBooks()}
		waitDone(t, done)
		snap := s.Snapshot()
		assert.Equal(t, StateIdle, snap.State)
		assert.Equal(t, "foundation", snap.Query)
		assert.Nil(t, snap.Results)
	})
}

// TestSearchSession_SnapshotIsolation ensures snapshots are copies.
func TestSearchSession_SnapshotIsolation(t *testing.T) {
	catalog := &MockCatalogClient{
		SearchFunc: func(ctx context.Context, query string) ([]Book, error) {
			return testBooks(), nil
		},
	}
	s := NewSearchSession(zap.NewNop(), catalog, NewMockClocker())
	_, done := s.TriggerSearch(context.Background())
	waitDone(t, done)

	snap := s.Snapshot()
	snap.Results[0].Title = "changed"
	snap.Results[0].Authors[0] = "changed"
	again := s.Snapshot()
	assert.Equal(t, "Dune", again.Results[0].Title)
	assert.Equal(t, "Frank Herbert", again.Results[0].Authors[0])
}
