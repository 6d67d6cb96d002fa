package main

import (
	"context"

	"go.uber.org/zap"
)

type ShelfServiceProvider interface {
	SubmitQuery(text string) SearchSnapshot
	TriggerSearch(ctx context.Context) (SearchSnapshot, <-chan struct{})
	SearchState() SearchSnapshot
	AddFromResults(ctx context.Context, id string) (Book, error)
	Shelf(query string) []Book
	ShelfSize() int
}

// ShelfService is the single application state object. Every user
// action goes through it.
type ShelfService struct {
	logger  *zap.Logger
	config  *Config
	session *SearchSession
	shelf   *ShelfStore
	view    *FilterView
}

func NewShelfService(logger *zap.Logger, config *Config, session *SearchSession, shelf *ShelfStore) ShelfServiceProvider {
	return &ShelfService{
		logger:  logger,
		config:  config,
		session: session,
		shelf:   shelf,
		view:    NewFilterView(),
	}
}

func (ss *ShelfService) SubmitQuery(text string) SearchSnapshot {
	return ss.session.SubmitQuery(text)
}

func (ss *ShelfService) TriggerSearch(ctx context.Context) (SearchSnapshot, <-chan struct{}) {
	return ss.session.TriggerSearch(ctx)
}

func (ss *ShelfService) SearchState() SearchSnapshot {
	return ss.session.Snapshot()
}

// AddFromResults copies a shown search result onto the shelf.
func (ss *ShelfService) AddFromResults(ctx context.Context, id string) (Book, error) {
	book, err := ss.session.Result(id)
	if err != nil {
		return book, err
	}
	ss.logger.Debug("service: copied search result", zap.Stringer("book", book))
	ss.shelf.Add(ctx, book)
	return book, nil
}

func (ss *ShelfService) Shelf(query string) []Book {
	return ss.view.Visible(ss.shelf, query)
}

func (ss *ShelfService) ShelfSize() int {
	return ss.shelf.Len()
}
