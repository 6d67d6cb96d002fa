package main

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SearchState is the stage of the current search cycle.
type SearchState string

const (
	StateIdle      SearchState = "idle"
	StateSearching SearchState = "searching"
	StateSucceeded SearchState = "succeeded"
	StateFailed    SearchState = "failed"
)

// SearchSnapshot is a read-only copy of the session state.
type SearchSnapshot struct {
	Query         string      `json:"query"`
	State         SearchState `json:"state"`
	Seq           uint64      `json:"seq"`
	SearchedQuery string      `json:"searchedQuery,omitempty"`
	Results       []Book      `json:"results,omitempty"`
	Error         string      `json:"error,omitempty"`
	SearchedAt    *time.Time  `json:"searchedAt,omitempty"`
	CompletedAt   *time.Time  `json:"completedAt,omitempty"`
}

// SearchSession tracks the query text and the latest search cycle. Each
// search or query edit takes a new sequence number and a completion is
// only applied if its number is still the latest one issued.
type SearchSession struct {
	logger  *zap.Logger
	catalog CatalogClient
	clock   Clocker

	mu          sync.Mutex
	query       string
	state       SearchState
	seq         uint64
	searched    string
	results     []Book
	errMsg      string
	searchedAt  time.Time
	completedAt time.Time
}

func NewSearchSession(logger *zap.Logger, catalog CatalogClient, clock Clocker) *SearchSession {
	return &SearchSession{
		logger:  logger,
		catalog: catalog,
		clock:   clock,
		state:   StateIdle,
	}
}

// SubmitQuery records the query text and hides any shown or pending result.
// It never starts a search.
func (s *SearchSession) SubmitQuery(text string) SearchSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = text
	if s.state == StateSearching {
		s.logger.Debug("session: query edited during search, pending result will be ignored",
			zap.Uint64("search.seq", s.seq))
	}
	s.seq++
	s.reset(StateIdle)
	return s.snapshotLocked()
}

// TriggerSearch starts an asynchronous search with the current query. The
// returned channel is closed once this search has completed, whether its
// result was applied or discarded.
func (s *SearchSession) TriggerSearch(ctx context.Context) (SearchSnapshot, <-chan struct{}) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	query := s.query
	s.reset(StateSearching)
	s.searched = query
	s.searchedAt = s.clock.Now()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("session: search triggered", zap.String("search.query", query), zap.Uint64("search.seq", seq))

	done := make(chan struct{})
	go func() {
		defer close(done)
		books, err := s.catalog.Search(ctx, query)
		s.complete(seq, books, err)
	}()
	return snap, done
}

// complete applies the outcome of search seq if it is still the latest.
func (s *SearchSession) complete(seq uint64, books []Book, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		SearchCompletionsTotal.WithLabelValues("discarded").Inc()
		s.logger.Debug("session: discarding stale search result",
			zap.Uint64("search.seq", seq),
			zap.Uint64("search.latest", s.seq),
		)
		return
	}
	SearchCompletionsTotal.WithLabelValues("applied").Inc()
	s.completedAt = s.clock.Now()
	if err != nil {
		s.state = StateFailed
		s.errMsg = "Error: " + err.Error()
		return
	}
	s.state = StateSucceeded
	s.results = make([]Book, 0, len(books))
	for _, b := range books {
		s.results = append(s.results, b.Clone())
	}
}

// Snapshot returns the current session state.
func (s *SearchSession) Snapshot() SearchSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Result returns a copy of the shown result with the given id.
func (s *SearchSession) Result(id string) (Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSucceeded {
		return Book{}, ErrNoResults
	}
	for _, b := range s.results {
		if b.ID == id {
			return b.Clone(), nil
		}
	}
	return Book{}, ErrBookNotInResults
}

func (s *SearchSession) reset(state SearchState) {
	s.state = state
	s.results = nil
	s.errMsg = ""
	s.searched = ""
	s.searchedAt = time.Time{}
	s.completedAt = time.Time{}
}

func (s *SearchSession) snapshotLocked() SearchSnapshot {
	snap := SearchSnapshot{
		Query:         s.query,
		State:         s.state,
		Seq:           s.seq,
		SearchedQuery: s.searched,
		Error:         s.errMsg,
	}
	if s.results != nil {
		snap.Results = make([]Book, 0, len(s.results))
		for _, b := range s.results {
			snap.Results = append(snap.Results, b.Clone())
		}
	}
	if !s.searchedAt.IsZero() {
		t := s.searchedAt
		snap.SearchedAt = &t
	}
	if !s.completedAt.IsZero() {
		t := s.completedAt
		snap.CompletedAt = &t
	}
	return snap
}
