package dispatch

import (
	"context"

	"github.com/fairyq/fairy/internal/keys"
	"github.com/fairyq/fairy/internal/store"
	"github.com/fairyq/fairy/internal/wire"
)

// Reschedule collapses FAILED and the non-head survivors of every blocked
// group's queue back into SOURCE, clearing FAILED, those per-group queues,
// and BLOCKED, as one atomic action (§4.4). It self-retries on optimistic
// conflict.
//
// BLOCKED is watched before it is read: Store.Watch registers WATCH on
// FAILED and BLOCKED first, and only then does fn read BLOCKED's members,
// so a concurrent SADD/SREM against BLOCKED between the watch and the read
// is visible to this read (it lands before, not after) and a mutation
// landing after the read aborts the commit via the watch, forcing a retry
// with a fresh membership read (§4.4 step order: watch before read). The
// per-group queue keys named by that membership are then added to the
// watch too, before they're read, for the same reason.
func Reschedule(ctx context.Context, eng *Engine) error {
	return eng.Store.Watch(ctx, func(tx *store.Tx) error {
		groups, err := tx.SetMembers(ctx, eng.Keys.Blocked)
		if err != nil {
			return err
		}

		queuedKeys := make([]string, len(groups))
		for i, g := range groups {
			queuedKeys[i] = keys.Queued(eng.Keys.Name, g)
		}
		if len(queuedKeys) > 0 {
			if err := tx.Watch(ctx, queuedKeys...); err != nil {
				return err
			}
		}

		failedRaw, err := tx.Range(ctx, eng.Keys.Failed, 0, -1)
		if err != nil {
			return err
		}

		requeue := make([][]byte, 0, len(failedRaw))
		for _, raw := range failedRaw {
			args, queuedAt, _, _, derr := wire.DecodeFailed(raw)
			if derr != nil {
				return derr
			}
			restored, eerr := wire.EncodeSource(args, queuedAt)
			if eerr != nil {
				return eerr
			}
			requeue = append(requeue, restored)
		}

		toDelete := make([]string, 0, 2+len(queuedKeys))
		toDelete = append(toDelete, eng.Keys.Failed)
		for _, qk := range queuedKeys {
			tail, terr := tx.Range(ctx, qk, 1, -1)
			if terr != nil {
				return terr
			}
			requeue = append(requeue, tail...)
			toDelete = append(toDelete, qk)
		}
		toDelete = append(toDelete, eng.Keys.Blocked)

		return tx.Pipelined(ctx, func(p *store.Pipe) {
			p.AppendTailMany(ctx, eng.Keys.Source, requeue)
			p.DeleteKeys(ctx, toDelete...)
		})
	}, eng.Keys.Failed, eng.Keys.Blocked)
}
