// Package fairy implements a fair, group-serializing task queue engine
// over a Redis-compatible store: sequential, at-most-once-in-flight
// processing within a group, full parallelism across groups, no sticky
// group-to-worker routing.
package fairy

import (
	"context"
	"sync"
	"time"

	"github.com/fairyq/fairy/internal/keys"
	"github.com/fairyq/fairy/internal/store"
	"github.com/redis/go-redis/v9"
)

func nowMs() int64 { return time.Now().UnixMilli() }

// Client is the connection-interface entry point of §6: a factory wraps a
// Redis connection and exposes named queues. The process-wide name→Queue
// pool (§9 "module-level state") is owned here as an explicit object, not
// a hidden package global.
type Client struct {
	rdb redis.UniversalClient
	st  *store.Store
	log Logger

	mu     sync.Mutex
	queues map[string]*Queue
}

// NewClient wraps an existing Redis connection.
func NewClient(rdb redis.UniversalClient, log Logger) *Client {
	if log == nil {
		log = NewFmtLogger()
	}
	return &Client{
		rdb:    rdb,
		st:     store.New(rdb),
		log:    log,
		queues: make(map[string]*Queue),
	}
}

// Queue returns the named queue handle, creating it on first access and
// registering its name into the global FAIRY:QUEUES set (§3, §9). Options
// passed on a later call for an already-created queue are ignored; a
// queue's configuration is fixed at first access.
func (c *Client) Queue(name string, opts ...QueueOption) *Queue {
	c.mu.Lock()
	defer c.mu.Unlock()

	if q, ok := c.queues[name]; ok {
		return q
	}

	cfg := defaultQueueOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	q := newQueue(c, name, keys.For(name), cfg)
	c.queues[name] = q

	if err := c.rdb.SAdd(context.Background(), keys.GlobalQueues, name).Err(); err != nil {
		c.log.Warnf("fairy: registering queue %q: %v", name, err)
	}
	return q
}

// Queues lists every queue name ever registered via Queue, across all
// clients sharing this store (§9 "module-level state" made explicit, and
// the SUPPLEMENTED Queues(ctx) surface).
func (c *Client) Queues(ctx context.Context) ([]string, error) {
	return c.rdb.SMembers(ctx, keys.GlobalQueues).Result()
}

// Statistics returns the §4.5 aggregation for every queue this client has
// accessed via Queue in this process.
func (c *Client) Statistics(ctx context.Context) (map[string]Statistics, error) {
	c.mu.Lock()
	names := make([]string, 0, len(c.queues))
	qs := make([]*Queue, 0, len(c.queues))
	for name, q := range c.queues {
		names = append(names, name)
		qs = append(qs, q)
	}
	c.mu.Unlock()

	out := make(map[string]Statistics, len(qs))
	for i, q := range qs {
		stats, err := q.Statistics(ctx)
		if err != nil {
			return nil, err
		}
		out[names[i]] = stats
	}
	return out, nil
}

// Close stops every registered queue's worker pool, waiting for in-flight
// handlers to return (§9 "graceful shutdown").
func (c *Client) Close() {
	c.mu.Lock()
	qs := make([]*Queue, 0, len(c.queues))
	for _, q := range c.queues {
		qs = append(qs, q)
	}
	c.mu.Unlock()

	for _, q := range qs {
		q.Close()
	}
}
