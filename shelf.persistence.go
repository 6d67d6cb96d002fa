package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ShelfStorage is the opaque key-value record holding the serialized shelf.
type ShelfStorage interface {
	// Load returns ErrShelfNotFound when no record exists yet.
	Load(ctx context.Context) (Shelf, error)
	Save(ctx context.Context, shelf Shelf) error
	Close() error
}

// PersistError reports a failed shelf write. It is logged, never returned to users.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return "persist " + e.Op + ": " + e.Err.Error()
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

var _ ShelfSaver = (*ShelfPersister)(nil)

// enqueueTimeout bounds the time Save may spend handing a snapshot to the queue.
const enqueueTimeout = 2 * time.Second

// pendingTaker is implemented by queues whose content survives a restart.
type pendingTaker interface {
	// TakeLatest empties the queue and returns its newest snapshot.
	TakeLatest(ctx context.Context) (Shelf, bool, error)
}

// ShelfPersister bridges the shelf store and its storage. Writes are queued
// and performed by a consumer so callers never wait on the backend.
type ShelfPersister struct {
	logger  *zap.Logger
	storage ShelfStorage
	queue   Queuer
}

func NewShelfPersister(logger *zap.Logger, storage ShelfStorage, queue Queuer) *ShelfPersister {
	return &ShelfPersister{
		logger:  logger,
		storage: storage,
		queue:   queue,
	}
}

// Load restores the persisted shelf. A snapshot still pending in the queue
// from a previous run is newer than the stored record, so it wins and is
// written before anything else. Any failure yields an empty shelf.
func (p *ShelfPersister) Load(ctx context.Context) Shelf {
	pt, ok := p.queue.(pendingTaker)
	if !ok {
		return p.loadStored(ctx)
	}
	latest, found, err := pt.TakeLatest(ctx)
	if err != nil {
		p.logger.Error("persister: failed to read pending snapshots", zap.Error(&PersistError{Op: "recover", Err: err}))
		return p.loadStored(ctx)
	}
	if !found {
		return p.loadStored(ctx)
	}
	latest = latest.normalize()
	p.logger.Info("persister: shelf recovered from pending snapshot", zap.Int("shelf.size", len(latest.Books)))
	p.Write(ctx, latest)
	return latest
}

func (p *ShelfPersister) loadStored(ctx context.Context) Shelf {
	shelf, err := p.storage.Load(ctx)
	if errors.Is(err, ErrShelfNotFound) {
		p.logger.Info("persister: no shelf record found, starting empty")
		return NewShelf()
	}
	if err != nil {
		p.logger.Error("persister: failed to load shelf, starting empty", zap.Error(&PersistError{Op: "load", Err: err}))
		return NewShelf()
	}
	shelf = shelf.normalize()
	p.logger.Info("persister: shelf restored", zap.Int("shelf.size", len(shelf.Books)))
	return shelf
}

// Save enqueues the snapshot. It never waits on the storage and at most
// enqueueTimeout on the queue.
func (p *ShelfPersister) Save(ctx context.Context, shelf Shelf) {
	ctx, cancel := context.WithTimeout(ctx, enqueueTimeout)
	defer cancel()
	if err := p.queue.Push(ctx, shelf); err != nil {
		ShelfPersistTotal.WithLabelValues("dropped").Inc()
		p.logger.Error("persister: failed to enqueue shelf snapshot",
			zap.Int("shelf.size", len(shelf.Books)),
			zap.Error(&PersistError{Op: "enqueue", Err: err}),
		)
	}
}

// Write synchronously stores one snapshot. Failures are logged and swallowed.
func (p *ShelfPersister) Write(ctx context.Context, shelf Shelf) {
	if err := p.storage.Save(ctx, shelf); err != nil {
		ShelfPersistTotal.WithLabelValues("failed").Inc()
		p.logger.Error("persister: failed to write shelf",
			zap.Int("shelf.size", len(shelf.Books)),
			zap.Error(&PersistError{Op: "save", Err: err}),
		)
		return
	}
	ShelfPersistTotal.WithLabelValues("ok").Inc()
}
