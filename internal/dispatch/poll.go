package dispatch

import (
	"context"

	"github.com/fairyq/fairy/internal/keys"
	"github.com/fairyq/fairy/internal/store"
	"github.com/fairyq/fairy/internal/wire"
)

// Poll runs dispatch-loop iterations (§4.2) until it either owns the new
// head of some group's queue (ready=true) or finds SOURCE empty, in which
// case it sleeps PollingInterval and returns ready=false so the caller can
// decide whether to stop or loop again.
func Poll(ctx context.Context, eng *Engine) (args []any, queuedAtMs int64, group string, ready bool, err error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, "", false, err
		}

		a, ts, g, qlen, found, err := eng.promoteHead(ctx)
		if err != nil {
			return nil, 0, "", false, err
		}
		if !found {
			eng.sleep(eng.Cfg.PollingInterval)
			return nil, 0, "", false, nil
		}
		if qlen == 1 {
			return a, ts, g, true, nil
		}
		// Another worker already owns the head of this group's queue.
		continue
	}
}

// promoteHead performs one watched promotion of SOURCE's head into the
// tail of the correct per-group queue (§4.2 steps 1-6). The watch is
// registered on SOURCE only: the peek, decode, pop, and append all happen
// inside the watched function, so any concurrent mutation of SOURCE
// between watch and exec aborts the transaction and Store.Watch retries
// with a fresh read.
func (eng *Engine) promoteHead(ctx context.Context) (args []any, queuedAtMs int64, group string, qlen int64, found bool, err error) {
	var lenFn func() int64

	err = eng.Store.Watch(ctx, func(tx *store.Tx) error {
		head, ok, herr := tx.PeekHead(ctx, eng.Keys.Source)
		if herr != nil {
			return herr
		}
		if !ok {
			found = false
			return nil
		}

		a, ts, derr := wire.DecodeSource(head)
		if derr != nil {
			return derr
		}
		g, gerr := wire.GroupID(a)
		if gerr != nil {
			return gerr
		}
		queuedKey := keys.Queued(eng.Keys.Name, g)

		perr := tx.Pipelined(ctx, func(p *store.Pipe) {
			p.PopHead(ctx, eng.Keys.Source)
			p.AppendTail(ctx, queuedKey, head)
			lenFn = p.Len(ctx, queuedKey)
		})
		if perr != nil {
			return perr
		}

		args, queuedAtMs, group, found = a, ts, g, true
		return nil
	}, eng.Keys.Source)

	if err != nil {
		return nil, 0, "", 0, false, err
	}
	if found {
		qlen = lenFn()
	}
	return args, queuedAtMs, group, qlen, found, nil
}
