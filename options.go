package fairy

import "time"

// queueOptions holds the per-queue configurable parameters of §6, with the
// spec's defaults.
type queueOptions struct {
	pollingInterval time.Duration
	retryDelay      time.Duration
	retryLimit      int
	recentSize      int64
	slowestSize     int64
}

func defaultQueueOptions() queueOptions {
	return queueOptions{
		pollingInterval: 5 * time.Millisecond,
		retryDelay:      100 * time.Millisecond,
		retryLimit:      2,
		recentSize:      10,
		slowestSize:     10,
	}
}

// QueueOption configures a Queue at creation time via Client.Queue.
type QueueOption func(*queueOptions)

// WithPollingInterval overrides the dispatch loop's empty-SOURCE sleep
// (§4.2 step 2). Default 5ms.
func WithPollingInterval(d time.Duration) QueueOption {
	return func(o *queueOptions) { o.pollingInterval = d }
}

// WithRetryDelay overrides the sleep between retries (§4.3). Default 100ms.
func WithRetryDelay(d time.Duration) QueueOption {
	return func(o *queueOptions) { o.retryDelay = d }
}

// WithRetryLimit overrides the number of retries before a handler error is
// archived (§4.3, §6). Default 2.
func WithRetryLimit(n int) QueueOption {
	return func(o *queueOptions) { o.retryLimit = n }
}

// WithRecentSize overrides the bound on RECENT (§3). Default 10.
func WithRecentSize(n int64) QueueOption {
	return func(o *queueOptions) { o.recentSize = n }
}

// WithSlowestSize overrides the bound on SLOWEST (§3). Default 10.
func WithSlowestSize(n int64) QueueOption {
	return func(o *queueOptions) { o.slowestSize = n }
}

// enqueueOptions holds per-call Enqueue configuration.
type enqueueOptions struct {
	onComplete func(error)
}

// EnqueueOption configures a single Enqueue call.
type EnqueueOption func(*enqueueOptions)

// WithCompletion registers a callback invoked after the store acknowledges
// (or fails) the append, per §4.1's "optional completion callback".
func WithCompletion(fn func(error)) EnqueueOption {
	return func(o *enqueueOptions) { o.onComplete = fn }
}
