package fairy

import (
	"context"
	"testing"

	mrd "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newMiniClient(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	s := mrd.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	cleanup := func() {
		_ = rdb.Close()
		s.Close()
	}
	return rdb, cleanup
}

func TestClient_Queue_CreatesOnceAndRegistersGlobally(t *testing.T) {
	rdb, done := newMiniClient(t)
	defer done()
	c := NewClient(rdb, nil)
	ctx := context.Background()

	q1 := c.Queue("orders")
	q2 := c.Queue("orders")
	require.Same(t, q1, q2)

	names, err := c.Queues(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"orders"}, names)
}

func TestClient_Queues_ListsEveryAccessedQueue(t *testing.T) {
	rdb, done := newMiniClient(t)
	defer done()
	c := NewClient(rdb, nil)
	ctx := context.Background()

	c.Queue("a")
	c.Queue("b")

	names, err := c.Queues(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, names)
}

func TestClient_Statistics_AggregatesAccessedQueues(t *testing.T) {
	rdb, done := newMiniClient(t)
	defer done()
	c := NewClient(rdb, nil)
	ctx := context.Background()

	q := c.Queue("q")
	require.NoError(t, q.Enqueue(ctx, []any{"g1", "a"}))

	stats, err := c.Statistics(ctx)
	require.NoError(t, err)
	require.Contains(t, stats, "q")
	require.Equal(t, int64(1), stats["q"].Total)
}

func TestClient_Close_StopsRegisteredQueues(t *testing.T) {
	rdb, done := newMiniClient(t)
	defer done()
	c := NewClient(rdb, nil)

	q := c.Queue("q")
	require.NoError(t, q.Regist(func(context.Context, []any) error { return nil }, 1))

	c.Close() // must not hang or panic
}
