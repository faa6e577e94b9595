package fairy

import (
	"context"
	"sync"
	"time"

	"github.com/fairyq/fairy/internal/dispatch"
	"github.com/fairyq/fairy/internal/introspect"
	ikeys "github.com/fairyq/fairy/internal/keys"
	"github.com/fairyq/fairy/internal/runtime"
	"github.com/fairyq/fairy/internal/wire"
)

// Queue is a named queue handle (§2, §6): configuration plus key
// derivation, created via Client.Queue. Enqueue works without a
// registered handler; Regist starts the worker pool that drives the
// dispatch/process loop of §4.2-§4.3.
type Queue struct {
	client *Client
	name   string
	keys   ikeys.Queue
	cfg    queueOptions

	mu     sync.Mutex
	eng    *dispatch.Engine
	rt     *runtime.Runtime
	closed bool
}

func newQueue(c *Client, name string, k ikeys.Queue, cfg queueOptions) *Queue {
	return &Queue{client: c, name: name, keys: k, cfg: cfg}
}

// Name returns the queue's name.
func (q *Queue) Name() string { return q.name }

// Enqueue appends a new task to SOURCE (§4.1). args[0] is the group id.
// The optional WithCompletion callback fires after the store acknowledges
// (or fails) the append.
func (q *Queue) Enqueue(ctx context.Context, args []any, opts ...EnqueueOption) error {
	cfg := enqueueOptions{}
	for _, opt := range opts {
		opt(&cfg)
	}

	err := q.enqueue(ctx, args)
	if cfg.onComplete != nil {
		cfg.onComplete(err)
	}
	return err
}

func (q *Queue) enqueue(ctx context.Context, args []any) error {
	raw, err := wire.EncodeSource(args, nowMs())
	if err != nil {
		return err
	}
	if err := q.client.st.AppendTail(ctx, q.keys.Source, raw); err != nil {
		return err
	}
	return q.client.st.StatsIncrBy(ctx, q.keys.Statistics, "total", 1)
}

// Regist registers the handler that drives this queue's dispatch/process
// loop and starts its worker pool (§5 "each registered handler drives one
// logical worker"; concurrency controls how many such workers run
// concurrently against this queue). A queue may be registered at most
// once. A background reschedule ticker runs alongside the workers only when
// the WithAutoReschedule option is given; by default there is no automatic
// rescheduling and Reschedule must be called manually.
func (q *Queue) Regist(handler HandlerFunc, concurrency int, opts ...RegistOption) error {
	if handler == nil {
		return ErrHandlerRequired
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	if q.eng != nil {
		return ErrAlreadyRegistered
	}

	ro := defaultRegistOptions()
	for _, opt := range opts {
		opt(&ro)
	}

	eng := dispatch.New(q.client.st, q.keys, dispatch.Config{
		PollingInterval: q.cfg.pollingInterval,
		RetryDelay:      q.cfg.retryDelay,
		RetryLimit:      q.cfg.retryLimit,
		RecentSize:      q.cfg.recentSize,
		SlowestSize:     q.cfg.slowestSize,
	}, dispatch.HandlerFunc(handler), runtimeLogger{q.client.log})

	q.eng = eng
	q.rt = runtime.New(eng, concurrency, ro.rescheduleInterval, runtimeLogger{q.client.log})
	q.rt.Start()
	return nil
}

// Reschedule collapses FAILED and every blocked group's queued tail back
// into SOURCE (§4.4). It can be called whether or not a worker pool is
// running, and concurrently with one: the protocol is self-synchronizing
// via optimistic watch.
func (q *Queue) Reschedule(ctx context.Context) error {
	q.mu.Lock()
	eng := q.eng
	q.mu.Unlock()

	if eng == nil {
		eng = dispatch.New(q.client.st, q.keys, dispatch.Config{
			PollingInterval: q.cfg.pollingInterval,
			RetryDelay:      q.cfg.retryDelay,
			RetryLimit:      q.cfg.retryLimit,
			RecentSize:      q.cfg.recentSize,
			SlowestSize:     q.cfg.slowestSize,
		}, nil, nil)
	}
	return dispatch.Reschedule(ctx, eng)
}

// Close stops this queue's worker pool, if one was started via Regist,
// waiting for in-flight handlers to return. It is idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	rt := q.rt
	q.closed = true
	q.mu.Unlock()

	if rt != nil {
		rt.Stop()
	}
}

// Statistics returns the §4.5 derived-field aggregation for this queue.
func (q *Queue) Statistics(ctx context.Context) (Statistics, error) {
	s, err := introspect.Load(ctx, q.client.st, q.keys, q.name)
	if err != nil {
		return Statistics{}, err
	}
	return newStatistics(s), nil
}

// RecentlyFinishedTasks returns the bounded RECENT list, newest first.
func (q *Queue) RecentlyFinishedTasks(ctx context.Context) ([]RecentTask, error) {
	ts, err := introspect.RecentlyFinishedTasks(ctx, q.client.st, q.keys)
	if err != nil {
		return nil, err
	}
	out := make([]RecentTask, len(ts))
	for i, t := range ts {
		out[i] = newRecentTask(t)
	}
	return out, nil
}

// FailedTasks returns every archived FAILED record.
func (q *Queue) FailedTasks(ctx context.Context) ([]FailedTask, error) {
	ts, err := introspect.FailedTasks(ctx, q.client.st, q.keys)
	if err != nil {
		return nil, err
	}
	out := make([]FailedTask, len(ts))
	for i, t := range ts {
		out[i] = newFailedTask(t)
	}
	return out, nil
}

// BlockedGroups returns the group identifiers currently in BLOCKED.
func (q *Queue) BlockedGroups(ctx context.Context) ([]string, error) {
	return introspect.BlockedGroups(ctx, q.client.st, q.keys)
}

// SlowestTasks returns the bounded-by-rank SLOWEST set, slowest first.
func (q *Queue) SlowestTasks(ctx context.Context) ([]SlowestTask, error) {
	ts, err := introspect.SlowestTasks(ctx, q.client.st, q.keys)
	if err != nil {
		return nil, err
	}
	out := make([]SlowestTask, len(ts))
	for i, t := range ts {
		out[i] = newSlowestTask(t)
	}
	return out, nil
}

// ProcessingTasks returns every in-flight PROCESSING entry.
func (q *Queue) ProcessingTasks(ctx context.Context) ([]ProcessingTask, error) {
	ts, err := introspect.ProcessingTasks(ctx, q.client.st, q.keys)
	if err != nil {
		return nil, err
	}
	out := make([]ProcessingTask, len(ts))
	for i, t := range ts {
		out[i] = newProcessingTask(t)
	}
	return out, nil
}

// registOptions configures Regist beyond handler/concurrency.
type registOptions struct {
	rescheduleInterval time.Duration
}

func defaultRegistOptions() registOptions {
	return registOptions{rescheduleInterval: 0}
}

// RegistOption configures a Regist call.
type RegistOption func(*registOptions)

// WithAutoReschedule enables a background ticker that calls Reschedule
// every interval alongside the worker pool started by Regist.
func WithAutoReschedule(interval time.Duration) RegistOption {
	return func(o *registOptions) { o.rescheduleInterval = interval }
}
