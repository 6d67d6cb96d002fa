package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestBoltStore returns a bolt shelf storage in a temporary folder.
func newTestBoltStore(t *testing.T) ShelfStorage {
	t.Helper()
	testConfig := &Config{
		BoltDB: BoltDBConfig{
			FilePath:   filepath.Join(t.TempDir(), "data", "bookshelf.db"),
			Timeout:    5 * time.Second,
			BucketName: "test.shelf",
		},
	}
	client, err := GetBoltDBClient(testConfig)
	require.NoError(t, err, "failed in creating a test bolt store")
	bs := NewBoltShelfStorage(zap.NewNop(), &testConfig.BoltDB, client, DefaultStorageKey)
	t.Cleanup(func() { bs.Close() })
	return bs
}

// Ensure loading from an empty bucket reports a missing record.
func TestBoltStore_LoadMissing(t *testing.T) {
	bs := newTestBoltStore(t)
	_, err := bs.Load(context.TODO())
	assert.ErrorIs(t, err, ErrShelfNotFound)
}

// Ensure bolt store can save then load the shelf.
func TestBoltStore_RoundTrip(t *testing.T) {
	bs := newTestBoltStore(t)
	shelf := Shelf{Books: append(testBooks(), testBooks()[0])}

	require.NoError(t, bs.Save(context.TODO(), shelf))
	got, err := bs.Load(context.TODO())
	require.NoError(t, err)
	if diff := cmp.Diff(shelf, got); diff != "" {
		t.Errorf("loaded shelf mismatch (-want +got):\n%s", diff)
	}

	// Save overwrites the whole record.
	require.NoError(t, bs.Save(context.TODO(), Shelf{Books: testBooks()[:1]}))
	got, err = bs.Load(context.TODO())
	require.NoError(t, err)
	assert.Len(t, got.Books, 1)
}
