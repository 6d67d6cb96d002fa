package main

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SnapshotQueue is the redis list holding pending shelf snapshots.
const SnapshotQueue = "bookshelf.snapshots"

var (
	_ Queuer       = (*redisQueue)(nil)
	_ Queuer       = (*memoryQueue)(nil)
	_ pendingTaker = (*redisQueue)(nil)
)

// Queuer describes a FIFO queue of shelf snapshots.
type Queuer interface {
	Push(ctx context.Context, shelf Shelf) error
	Pop(ctx context.Context) (Shelf, error)
}

// redisQueue represents a queue backed by a redis list.
type redisQueue struct {
	client *redis.Client
	qid    string
}

func NewRedisQueue(client *redis.Client) Queuer {
	return &redisQueue{client: client, qid: SnapshotQueue}
}

// Push enqueues a snapshot at the tail of the list.
func (q *redisQueue) Push(ctx context.Context, shelf Shelf) error {
	shelfBytes, err := json.Marshal(shelf)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, q.qid, shelfBytes).Err()
}

// Pop blocks until a snapshot is available at the head of the list.
func (q *redisQueue) Pop(ctx context.Context) (Shelf, error) {
	var shelf Shelf
	infos, err := q.client.BLPop(ctx, 0*time.Second, q.qid).Result()
	if err != nil {
		return shelf, err
	}

	if err = json.Unmarshal([]byte(infos[1]), &shelf); err != nil {
		return shelf, err
	}
	return shelf.normalize(), nil
}

// TakeLatest atomically reads the newest snapshot and deletes the list.
func (q *redisQueue) TakeLatest(ctx context.Context) (Shelf, bool, error) {
	var shelf Shelf
	var latest *redis.StringSliceCmd
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		latest = pipe.LRange(ctx, q.qid, -1, -1)
		pipe.Del(ctx, q.qid)
		return nil
	})
	if err != nil {
		return shelf, false, err
	}

	items := latest.Val()
	if len(items) == 0 {
		return shelf, false, nil
	}
	if err = json.Unmarshal([]byte(items[0]), &shelf); err != nil {
		return shelf, false, err
	}
	return shelf.normalize(), true, nil
}

// memoryQueue is an in-process queue over a buffered channel.
type memoryQueue struct {
	mu sync.Mutex
	ch chan Shelf
}

func NewMemoryQueue(size int) Queuer {
	if size <= 0 {
		size = 1
	}
	return &memoryQueue{ch: make(chan Shelf, size)}
}

// Push never waits. When the buffer is full the oldest pending snapshot is
// discarded, the newer one already holds all of its books.
func (q *memoryQueue) Push(ctx context.Context, shelf Shelf) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	shelf = shelf.Clone()
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		select {
		case q.ch <- shelf:
			return nil
		default:
		}
		select {
		case <-q.ch:
			ShelfPersistTotal.WithLabelValues("coalesced").Inc()
		default:
		}
	}
}

// Drain empties the buffer without blocking and returns what it held.
func (q *memoryQueue) Drain() []Shelf {
	var pending []Shelf
	for {
		select {
		case shelf := <-q.ch:
			pending = append(pending, shelf)
		default:
			return pending
		}
	}
}

// Pop waits for the next snapshot or for the context to be done.
func (q *memoryQueue) Pop(ctx context.Context) (Shelf, error) {
	select {
	case shelf := <-q.ch:
		return shelf, nil
	case <-ctx.Done():
		return Shelf{}, ctx.Err()
	}
}
