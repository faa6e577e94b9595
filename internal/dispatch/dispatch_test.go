package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/fairyq/fairy/internal/keys"
	"github.com/fairyq/fairy/internal/store"
	"github.com/fairyq/fairy/internal/wire"
	mrd "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// newTestEngine wires an Engine against miniredis with an instant clock
// (no real sleeping) so tests run fast and deterministically.
func newTestEngine(t *testing.T, queue string, handler HandlerFunc, cfg Config) (*Engine, func()) {
	t.Helper()
	s := mrd.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	cleanup := func() {
		_ = rdb.Close()
		s.Close()
	}

	eng := New(store.New(rdb), keys.For(queue), cfg, handler, nil)

	var clock int64
	eng.now = func() int64 {
		clock++
		return clock
	}
	eng.sleep = func(time.Duration) {}

	return eng, cleanup
}

func defaultCfg() Config {
	return Config{
		PollingInterval: time.Millisecond,
		RetryDelay:      time.Millisecond,
		RetryLimit:      2,
		RecentSize:      10,
		SlowestSize:     10,
	}
}

func enqueue(t *testing.T, eng *Engine, args []any) {
	t.Helper()
	raw, err := wire.EncodeSource(args, eng.now())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := eng.Store.AppendTail(context.Background(), eng.Keys.Source, raw); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
}
