package main

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/ory/dockertest/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startRedisDockerContainer(t *testing.T) (string, func()) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("Failed to start Dockertest: %+v", err)
	}

	err = pool.Client.Ping()
	if err != nil {
		t.Skipf("Could not connect to Docker: %+v", err)
	}

	resource, err := pool.Run("redis", "7.2-alpine", nil)
	if err != nil {
		t.Fatalf("Failed to start redis: %+v", err)
	}

	// build address the container is listening on
	addr := net.JoinHostPort("localhost", resource.GetPort("6379/tcp"))

	// ensure to wait for the container to be ready
	err = pool.Retry(func() error {
		client := redis.NewClient(&redis.Options{Addr: addr})
		defer client.Close()
		return client.Ping(context.Background()).Err()
	})
	if err != nil {
		t.Fatalf("Failed to ping Redis: %+v", err)
	}

	destroyFunc := func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Failed to purge resource: %+v", err)
		}
	}

	return addr, destroyFunc
}

func TestRedisStore(t *testing.T) {
	addr, destroyFunc := startRedisDockerContainer(t)
	defer destroyFunc()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	rs := NewRedisShelfStorage(zap.NewNop(), client, DefaultStorageKey)
	shelf := Shelf{Books: testBooks()}

	t.Run("Load Missing Shelf", func(t *testing.T) {
		_, err := rs.Load(context.Background())
		assert.ErrorIs(t, err, ErrShelfNotFound)
	})

	t.Run("Save And Load Shelf", func(t *testing.T) {
		require.NoError(t, rs.Save(context.Background(), shelf))
		got, err := rs.Load(context.Background())
		require.NoError(t, err)
		if diff := cmp.Diff(shelf, got); diff != "" {
			t.Errorf("loaded shelf mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Queue Keeps Order", func(t *testing.T) {
		q := NewRedisQueue(client)
		for i := 1; i <= 3; i++ {
			require.NoError(t, q.Push(context.Background(), shelfOfSize(i)))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for i := 1; i <= 3; i++ {
			got, err := q.Pop(ctx)
			require.NoError(t, err)
			assert.Len(t, got.Books, i)
		}
	})
	t.Run("Take Latest Pending Snapshot", func(t *testing.T) {
		q := NewRedisQueue(client).(*redisQueue)
		_, found, err := q.TakeLatest(context.Background())
		require.NoError(t, err)
		assert.False(t, found)

		for i := 1; i <= 3; i++ {
			require.NoError(t, q.Push(context.Background(), shelfOfSize(i)))
		}
		latest, found, err := q.TakeLatest(context.Background())
		require.NoError(t, err)
		require.True(t, found)
		assert.Len(t, latest.Books, 3)

		n, err := client.LLen(context.Background(), SnapshotQueue).Result()
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

// TestGetRedisClient_Unreachable ensures no client is returned when the ping fails.
func TestGetRedisClient_Unreachable(t *testing.T) {
	config := &Config{Redis: RedisConfig{Host: "127.0.0.1", Port: "1", DialTimeout: 200 * time.Millisecond}}
	client, err := GetRedisClient(config)
	assert.Error(t, err)
	assert.Nil(t, client)
}
