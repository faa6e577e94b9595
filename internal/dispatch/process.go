package dispatch

import (
	"context"

	"github.com/fairyq/fairy/internal/herr"
	"github.com/fairyq/fairy/internal/keys"
	"github.com/fairyq/fairy/internal/store"
	"github.com/fairyq/fairy/internal/wire"
	"github.com/google/uuid"
)

// RunGroup drives a worker's ownership of a group's head-of-line task
// through the full process/failure/retry/drain cycle (§4.3) until either
// the group's queue is drained (success path finds no successor) or a
// blocking failure stops the group, then returns control to the dispatch
// loop (§4.2).
func RunGroup(ctx context.Context, eng *Engine, firstArgs []any, firstQueuedAt int64, group string) error {
	queuedKey := keys.Queued(eng.Keys.Name, group)
	args, queuedAt := firstArgs, firstQueuedAt

	for {
		rec := &invocation{
			token:      uuid.NewString(),
			group:      group,
			userArgs:   args,
			queuedAtMs: queuedAt,
			retryCount: eng.Cfg.RetryLimit,
		}

		nextArgs, nextQueuedAt, hasNext, err := eng.runTask(ctx, queuedKey, rec)
		if err != nil {
			return err
		}
		if !hasNext {
			return nil
		}
		args, queuedAt = nextArgs, nextQueuedAt
	}
}

// runTask runs one task to its terminal outcome: success, a blocking
// failure, or a non-blocking skip after exhausting retries. It returns the
// next task to process in the same group, if the success path (reached
// directly or via a non-blocking skip) finds one queued behind it.
func (eng *Engine) runTask(ctx context.Context, queuedKey string, rec *invocation) (nextArgs []any, nextQueuedAt int64, hasNext bool, err error) {
	startRaw, err := wire.EncodeProcessing(rec.userArgs, eng.now())
	if err != nil {
		return nil, 0, false, err
	}
	if err := eng.Store.HashSet(ctx, eng.Keys.Processing, rec.token, startRaw); err != nil {
		return nil, 0, false, err
	}

	for {
		start := eng.now()
		handlerErr := eng.Handler(ctx, rec.userArgs)
		if handlerErr == nil {
			return eng.succeed(ctx, queuedKey, rec, start)
		}

		directive, msg := classify(handlerErr)
		rec.errs = append(rec.errs, msg)

		switch directive {
		case herr.Block:
			if err := eng.archiveAndBlock(ctx, rec); err != nil {
				return nil, 0, false, err
			}
			return nil, 0, false, nil

		case herr.BlockAfterRetry:
			if rec.retryCount > 0 {
				rec.retryCount--
				eng.sleep(eng.Cfg.RetryDelay)
				continue
			}
			if err := eng.archiveAndBlock(ctx, rec); err != nil {
				return nil, 0, false, err
			}
			return nil, 0, false, nil

		default: // herr.None: retryable, non-blocking
			if rec.retryCount > 0 {
				rec.retryCount--
				eng.sleep(eng.Cfg.RetryDelay)
				continue
			}
			if err := eng.archive(ctx, rec); err != nil {
				return nil, 0, false, err
			}
			// Non-blocking skip: the success path still runs, draining
			// the group and counting the archived task as finished.
			return eng.succeed(ctx, queuedKey, rec, start)
		}
	}
}

// succeed implements the success path (§4.3 "next"): delete the
// PROCESSING entry, atomically drain the group's head and peek its
// successor, update statistics/RECENT/SLOWEST, and surface the successor
// (if any) so the caller re-enters processing instead of returning to
// dispatch.
func (eng *Engine) succeed(ctx context.Context, queuedKey string, rec *invocation, start int64) (nextArgs []any, nextQueuedAt int64, hasNext bool, err error) {
	finish := eng.now()

	if err := eng.Store.HashDel(ctx, eng.Keys.Processing, rec.token); err != nil {
		return nil, 0, false, err
	}

	nextRaw, drained, err := eng.drainHead(ctx, queuedKey)
	if err != nil {
		return nil, 0, false, err
	}

	if err := eng.recordFinished(ctx, rec, start, finish); err != nil {
		return nil, 0, false, err
	}

	if !drained {
		return nil, 0, false, nil
	}
	a, ts, derr := wire.DecodeSource(nextRaw)
	if derr != nil {
		return nil, 0, false, derr
	}
	return a, ts, true, nil
}

// drainHead atomically pops the completed head of a group's queue and
// peeks its new head (§4.3 success steps 2-4). No watch is needed: unlike
// dispatch's promotion, nothing here depends on a value read before the
// transaction was opened, so a plain MULTI/EXEC bundle is sufficient.
func (eng *Engine) drainHead(ctx context.Context, queuedKey string) (nextRaw []byte, hasNext bool, err error) {
	var headFn func() (raw []byte, ok bool)
	err = eng.Store.TxPipelined(ctx, func(p *store.Pipe) {
		p.PopHead(ctx, queuedKey)
		headFn = p.PeekHead(ctx, queuedKey)
	})
	if err != nil {
		return nil, false, err
	}
	h, ok := headFn()
	if !ok {
		return nil, false, nil
	}
	return h, true, nil
}

// recordFinished applies §4.3 success step 5: STATISTICS counters, the
// bounded RECENT list, and the bounded-by-rank SLOWEST sorted set.
func (eng *Engine) recordFinished(ctx context.Context, rec *invocation, start, finish int64) error {
	if err := eng.Store.StatsIncrBy(ctx, eng.Keys.Statistics, "finished", 1); err != nil {
		return err
	}
	if err := eng.Store.StatsIncrBy(ctx, eng.Keys.Statistics, "total_pending_time", start-rec.queuedAtMs); err != nil {
		return err
	}
	if err := eng.Store.StatsIncrBy(ctx, eng.Keys.Statistics, "total_processing_time", finish-start); err != nil {
		return err
	}

	recentRaw, err := wire.EncodeRecent(rec.userArgs, finish)
	if err != nil {
		return err
	}
	if err := eng.Store.PrependTrim(ctx, eng.Keys.Recent, recentRaw, eng.Cfg.RecentSize); err != nil {
		return err
	}

	slowestRaw, err := wire.EncodeSlowest(rec.userArgs)
	if err != nil {
		return err
	}
	duration := finish - start
	if err := eng.Store.ZAddScored(ctx, eng.Keys.Slowest, float64(duration), slowestRaw); err != nil {
		return err
	}
	return eng.Store.ZTrimToSize(ctx, eng.Keys.Slowest, eng.Cfg.SlowestSize)
}
