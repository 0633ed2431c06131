package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexibase/lexgraph"
)

// setupRedisStore creates a miniredis instance and returns a connected store.
func setupRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	mr := miniredis.RunT(t)
	s, err := NewRedisStore(RedisOptions{
		URL:            fmt.Sprintf("redis://%s", mr.Addr()),
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRedisStore_Suite(t *testing.T) {
	runGraphStoreSuite(t, func(t *testing.T) GraphStore {
		return setupRedisStore(t)
	})
}

func TestNewRedisStore_BadURL(t *testing.T) {
	_, err := NewRedisStore(RedisOptions{URL: "not-a-url"})
	require.Error(t, err)
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	_, err := NewRedisStore(RedisOptions{
		URL:            "redis://127.0.0.1:1",
		ConnectTimeout: 200 * time.Millisecond,
	})
	require.Error(t, err)
}

func TestRedisStore_NamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	a, err := NewRedisStore(RedisOptions{URL: fmt.Sprintf("redis://%s", mr.Addr()), Namespace: "a"})
	require.NoError(t, err)
	defer a.Close()
	b, err := NewRedisStore(RedisOptions{URL: fmt.Sprintf("redis://%s", mr.Addr()), Namespace: "b"})
	require.NoError(t, err)
	defer b.Close()

	_, err = a.UpsertNode(ctx, lexgraph.KindWord, 1)
	require.NoError(t, err)

	nodes, err := b.Nodes(ctx)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}
