package dispatch

import (
	"context"
	"testing"

	"github.com/fairyq/fairy/internal/herr"
	"github.com/fairyq/fairy/internal/keys"
	"github.com/stretchr/testify/require"
)

func TestReschedule_Idempotent_WhenEmpty(t *testing.T) {
	eng, done := newTestEngine(t, "q", func(context.Context, []any) error { return nil }, defaultCfg())
	defer done()
	ctx := context.Background()

	require.NoError(t, Reschedule(ctx, eng))

	n, _ := eng.Store.Len(ctx, eng.Keys.Source)
	require.Zero(t, n)
}

func TestReschedule_RecoversBlockedGroup(t *testing.T) {
	attempts := 0
	handler := func(_ context.Context, args []any) error {
		attempts++
		return &herr.HandlerError{Message: "x", Do: herr.BlockAfterRetry}
	}
	cfg := defaultCfg()
	cfg.RetryLimit = 2
	eng, done := newTestEngine(t, "q", handler, cfg)
	defer done()
	ctx := context.Background()

	enqueue(t, eng, []any{"G", "1"})
	enqueue(t, eng, []any{"G", "2"})
	args, ts, group, ready, err := Poll(ctx, eng)
	require.NoError(t, err)
	require.True(t, ready)
	_, _, _, _, err = Poll(ctx, eng)
	require.NoError(t, err)

	require.NoError(t, RunGroup(ctx, eng, args, ts, group))
	require.Equal(t, 3, attempts)

	require.NoError(t, Reschedule(ctx, eng))

	failedLen, _ := eng.Store.Len(ctx, eng.Keys.Failed)
	require.Zero(t, failedLen)
	members, _ := eng.Store.SetMembers(ctx, eng.Keys.Blocked)
	require.Empty(t, members)
	qlen, _ := eng.Store.Len(ctx, keys.Queued("q", "G"))
	require.Zero(t, qlen)

	sourceLen, _ := eng.Store.Len(ctx, eng.Keys.Source)
	require.Equal(t, int64(2), sourceLen)

	// Now let both succeed, in order.
	var order []string
	eng.Handler = func(_ context.Context, args []any) error {
		order = append(order, args[1].(string))
		return nil
	}
	for {
		a, t2, g, ready, err := Poll(ctx, eng)
		require.NoError(t, err)
		if !ready {
			break
		}
		require.NoError(t, RunGroup(ctx, eng, a, t2, g))
	}
	require.Equal(t, []string{"1", "2"}, order)
}
