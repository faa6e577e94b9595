// Package dispatch implements the core state machine: the dispatch loop
// that promotes tasks from SOURCE into per-group lists, the process loop
// that runs the handler and drains a group, the failure policy that
// retries/blocks/archives, and reschedule. See SPEC_FULL.md §4.
package dispatch

import (
	"context"
	"time"

	"github.com/fairyq/fairy/internal/keys"
	"github.com/fairyq/fairy/internal/store"
)

// Config holds the per-queue tunables of SPEC_FULL.md §6.
type Config struct {
	PollingInterval time.Duration
	RetryDelay      time.Duration
	RetryLimit      int
	RecentSize      int64
	SlowestSize     int64
}

// HandlerFunc invokes user code for one task's ordered arguments. A nil
// error means success; any other error drives the failure policy (§4.3,
// §7) and, if it is an *herr.HandlerError, its Do directive is honored.
type HandlerFunc func(ctx context.Context, args []any) error

// Logger is the minimal logging surface the engine needs. It mirrors the
// public Logger interface but lives here to avoid an import cycle between
// this package and the root package that wires it.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Infof(string, ...any)  {}
func (noopLogger) Warnf(string, ...any)  {}
func (noopLogger) Errorf(string, ...any) {}

// Engine drives the dispatch/process/failure/reschedule protocol for one
// queue. It is not itself concurrency-managed; internal/runtime spins the
// worker goroutines that each drive an Engine's loop.
type Engine struct {
	Store   *store.Store
	Keys    keys.Queue
	Cfg     Config
	Handler HandlerFunc
	Log     Logger

	now   func() int64
	sleep func(time.Duration)
}

// New builds an Engine with production clock/sleep behavior.
func New(st *store.Store, k keys.Queue, cfg Config, handler HandlerFunc, log Logger) *Engine {
	if log == nil {
		log = noopLogger{}
	}
	return &Engine{
		Store:   st,
		Keys:    k,
		Cfg:     cfg,
		Handler: handler,
		Log:     log,
		now:     func() int64 { return time.Now().UnixMilli() },
		sleep:   time.Sleep,
	}
}
