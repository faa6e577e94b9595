// Package runtime owns the worker-pool lifecycle for one queue: it starts
// and stops the goroutines that drive internal/dispatch's poll/process loop
// and the background reschedule ticker. See SPEC_FULL.md §4, §9.
package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/fairyq/fairy/internal/dispatch"
)

// Logger is the minimal logging surface the runtime needs. It mirrors the
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

// Runtime drives one queue's worker pool plus its reschedule ticker. A
// registered handler drives one logical worker (§5 "scheduling model");
// Concurrency controls how many such workers this runtime runs
// concurrently against the same queue.
type Runtime struct {
	eng                *dispatch.Engine
	concurrency        int
	rescheduleInterval time.Duration
	log                Logger

	mu      sync.Mutex
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds a Runtime for one queue's engine.
func New(eng *dispatch.Engine, concurrency int, rescheduleInterval time.Duration, log Logger) *Runtime {
	if log == nil {
		log = noopLogger{}
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Runtime{
		eng:                eng,
		concurrency:        concurrency,
		rescheduleInterval: rescheduleInterval,
		log:                log,
	}
}

// Start launches the worker goroutines and the reschedule ticker. It is
// idempotent and non-blocking.
func (rt *Runtime) Start() {
	rt.mu.Lock()
	if rt.started {
		rt.log.Warnf("runtime already started; ignoring Start()")
		rt.mu.Unlock()
		return
	}
	rt.started = true
	rt.ctx, rt.cancel = context.WithCancel(context.Background())
	rt.mu.Unlock()

	rt.log.Infof("runtime starting: queue=%s concurrency=%d", rt.eng.Keys.Name, rt.concurrency)

	for i := 0; i < rt.concurrency; i++ {
		rt.wg.Add(1)
		go rt.workerLoop()
	}

	if rt.rescheduleInterval > 0 {
		rt.wg.Add(1)
		go rt.reschedulerLoop()
	}
}

// Stop cancels the internal context and waits for all goroutines to exit.
// It is idempotent.
func (rt *Runtime) Stop() {
	rt.mu.Lock()
	if !rt.started {
		rt.log.Warnf("runtime not started; ignoring Stop()")
		rt.mu.Unlock()
		return
	}
	rt.started = false
	cancel := rt.cancel
	rt.mu.Unlock()

	rt.log.Infof("runtime stopping: queue=%s", rt.eng.Keys.Name)
	cancel()
	rt.wg.Wait()
}

// workerLoop runs one logical worker's dispatch/process cycle (§4.2, §4.3)
// until the runtime's context is cancelled.
func (rt *Runtime) workerLoop() {
	defer rt.wg.Done()
	ctx := rt.ctx
	for {
		if ctx.Err() != nil {
			return
		}

		args, queuedAt, group, ready, err := dispatch.Poll(ctx, rt.eng)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			rt.log.Errorf("poll: queue=%s err=%v", rt.eng.Keys.Name, err)
			time.Sleep(rt.eng.Cfg.PollingInterval)
			continue
		}
		if !ready {
			continue
		}

		if err := dispatch.RunGroup(ctx, rt.eng, args, queuedAt, group); err != nil {
			if ctx.Err() != nil {
				return
			}
			rt.log.Errorf("run group: queue=%s group=%s err=%v", rt.eng.Keys.Name, group, err)
		}
	}
}

// reschedulerLoop periodically runs Reschedule (§4.4) on a ticker.
func (rt *Runtime) reschedulerLoop() {
	defer rt.wg.Done()
	ctx := rt.ctx
	ticker := time.NewTicker(rt.rescheduleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := dispatch.Reschedule(ctx, rt.eng); err != nil {
				rt.log.Errorf("reschedule: queue=%s err=%v", rt.eng.Keys.Name, err)
			}
		}
	}
}
