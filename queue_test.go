package fairy

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueue_Enqueue_IncrementsTotal(t *testing.T) {
	rdb, done := newMiniClient(t)
	defer done()
	c := NewClient(rdb, nil)
	ctx := context.Background()
	q := c.Queue("q")

	require.NoError(t, q.Enqueue(ctx, []any{"g1", "payload"}))

	stats, err := q.Statistics(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.Total)
}

func TestQueue_Enqueue_CompletionCallbackFires(t *testing.T) {
	rdb, done := newMiniClient(t)
	defer done()
	c := NewClient(rdb, nil)
	ctx := context.Background()
	q := c.Queue("q")

	var gotErr error
	called := false
	require.NoError(t, q.Enqueue(ctx, []any{"g1", "a"}, WithCompletion(func(err error) {
		called = true
		gotErr = err
	})))
	require.True(t, called)
	require.NoError(t, gotErr)
}

func TestQueue_Regist_SecondCallFails(t *testing.T) {
	rdb, done := newMiniClient(t)
	defer done()
	c := NewClient(rdb, nil)
	q := c.Queue("q", WithPollingInterval(time.Millisecond))

	handler := func(context.Context, []any) error { return nil }
	require.NoError(t, q.Regist(handler, 1))
	defer q.Close()

	require.ErrorIs(t, q.Regist(handler, 1), ErrAlreadyRegistered)
}

func TestQueue_Regist_NilHandlerRejected(t *testing.T) {
	rdb, done := newMiniClient(t)
	defer done()
	c := NewClient(rdb, nil)
	q := c.Queue("q")

	require.ErrorIs(t, q.Regist(nil, 1), ErrHandlerRequired)
}

func TestQueue_EndToEnd_SingleGroupOrdering(t *testing.T) {
	rdb, done := newMiniClient(t)
	defer done()
	c := NewClient(rdb, nil)
	ctx := context.Background()
	q := c.Queue("q", WithPollingInterval(time.Millisecond), WithRetryDelay(time.Millisecond))

	var order []any
	var mu orderMu
	handler := func(_ context.Context, args []any) error {
		mu.append(&order, args[1])
		time.Sleep(2 * time.Millisecond)
		return nil
	}
	require.NoError(t, q.Regist(handler, 2))
	defer q.Close()

	require.NoError(t, q.Enqueue(ctx, []any{"G", float64(1)}))
	require.NoError(t, q.Enqueue(ctx, []any{"G", float64(2)}))
	require.NoError(t, q.Enqueue(ctx, []any{"G", float64(3)}))

	require.Eventually(t, func() bool {
		stats, _ := q.Statistics(ctx)
		return stats.Finished == 3
	}, time.Second, time.Millisecond)

	require.Equal(t, []any{float64(1), float64(2), float64(3)}, order)
}

func TestQueue_Reschedule_WithoutRegist_IsSafe(t *testing.T) {
	rdb, done := newMiniClient(t)
	defer done()
	c := NewClient(rdb, nil)
	ctx := context.Background()
	q := c.Queue("q")

	require.NoError(t, q.Reschedule(ctx)) // no handler registered; FAILED/BLOCKED empty
}

// orderMu is a tiny helper to avoid a data race on the shared order slice
// across the two worker goroutines this test starts.
type orderMu struct {
	mu sync.Mutex
}

func (o *orderMu) append(slice *[]any, v any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	*slice = append(*slice, v)
}
