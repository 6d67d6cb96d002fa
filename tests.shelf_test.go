package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestShelfStore_Add ensures books are appended in order and duplicates are kept.
func TestShelfStore_Add(t *testing.T) {
	saver := &MockShelfSaver{}
	store := NewShelfStore(zap.NewNop(), NewShelf(), saver)
	books := testBooks()

	store.Add(context.Background(), books[0])
	store.Add(context.Background(), books[1])
	store.Add(context.Background(), books[0])

	list := store.List()
	require.Len(t, list, 3)
	assert.Equal(t, books[0].ID, list[0].ID)
	assert.Equal(t, books[1].ID, list[1].ID)
	assert.Equal(t, books[0].ID, list[2].ID)
	assert.Equal(t, 3, store.Len())
	assert.Equal(t, uint64(3), store.Version())

	t.Run("saver receives every snapshot in order", func(t *testing.T) {
		saved := saver.Saved()
		require.Len(t, saved, 3)
		for i, shelf := range saved {
			assert.Len(t, shelf.Books, i+1)
		}
		if diff := cmp.Diff(list, saved[2].Books); diff != "" {
			t.Errorf("last snapshot mismatch (-want +got):\n%s", diff)
		}
	})
}

// TestShelfStore_Isolation ensures callers never share memory with the store.
func TestShelfStore_Isolation(t *testing.T) {
	store := NewShelfStore(zap.NewNop(), NewShelf(), nil)
	book := testBooks()[0]
	store.Add(context.Background(), book)

	book.Authors[0] = "Someone Else"
	*book.FirstPublishYear = 2000
	assert.Equal(t, "Frank Herbert", store.List()[0].Authors[0])
	assert.Equal(t, 1965, *store.List()[0].FirstPublishYear)

	list := store.List()
	list[0].Title = "changed"
	assert.Equal(t, "Dune", store.List()[0].Title)
}

// TestShelfStore_Seeded ensures a restored shelf is kept as is.
func TestShelfStore_Seeded(t *testing.T) {
	initial := Shelf{Books: testBooks()}
	store := NewShelfStore(zap.NewNop(), initial, nil)
	if diff := cmp.Diff(initial, store.Snapshot()); diff != "" {
		t.Errorf("seeded shelf mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, uint64(0), store.Version())
}

// TestShelfStore_ConcurrentAdds ensures concurrent additions are all kept and
// every snapshot handed to the saver is one book larger than the previous one.
func TestShelfStore_ConcurrentAdds(t *testing.T) {
	saver := &MockShelfSaver{}
	store := NewShelfStore(zap.NewNop(), NewShelf(), saver)
	book := testBooks()[1]

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Add(context.Background(), book)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, store.Len())
	saved := saver.Saved()
	require.Len(t, saved, 50)
	for i, shelf := range saved {
		assert.Len(t, shelf.Books, i+1)
	}
}

// TestShelfStore_StalledStorage ensures a stuck storage write never blocks the shelf.
func TestShelfStore_StalledStorage(t *testing.T) {
	release := make(chan struct{})
	storage := &MockShelfStorage{
		SaveFunc: func(ctx context.Context, shelf Shelf) error {
			select {
			case <-release:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
	queue := NewMemoryQueue(1)
	p := NewShelfPersister(zap.NewNop(), storage, queue)
	consumer := NewSnapshotConsumer(zap.NewNop(), queue, p)

	ctx, cancel := context.WithCancel(context.Background())
	exited := make(chan error, 1)
	go func() { exited <- consumer.Consume(ctx) }()

	store := NewShelfStore(zap.NewNop(), NewShelf(), p)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 4; i++ {
			store.Add(context.WithoutCancel(ctx), testBooks()[i%3])
		}
		store.List()
		store.Len()
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("shelf blocked behind a pending storage write")
	}
	assert.Equal(t, 4, store.Len())
	assert.Len(t, store.List(), 4)

	close(release)
	cancel()
	select {
	case err := <-exited:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not exit")
	}
}
