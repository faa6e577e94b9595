package dispatch

import (
	"context"
	"errors"

	"github.com/fairyq/fairy/internal/herr"
	"github.com/fairyq/fairy/internal/wire"
)

// classify extracts the failure directive and message from a handler
// error. A plain error (or a wrapped one with no *herr.HandlerError in its
// chain) is treated as the "other/absent" case (§4.3's decision table).
func classify(err error) (herr.Directive, string) {
	var he *herr.HandlerError
	if errors.As(err, &he) {
		return he.Do, he.Message
	}
	return herr.None, err.Error()
}

// archive appends a FAILED record for rec, per §4.3's "Archive" primitive.
func (eng *Engine) archive(ctx context.Context, rec *invocation) error {
	raw, err := wire.EncodeFailed(rec.userArgs, rec.queuedAtMs, eng.now(), rec.errs)
	if err != nil {
		return err
	}
	return eng.Store.AppendTail(ctx, eng.Keys.Failed, raw)
}

// archiveAndBlock archives the task and marks its group blocked, per
// §4.3's "Archive" + "Mark blocked" primitives.
func (eng *Engine) archiveAndBlock(ctx context.Context, rec *invocation) error {
	if err := eng.archive(ctx, rec); err != nil {
		return err
	}
	if err := eng.Store.HashDel(ctx, eng.Keys.Processing, rec.token); err != nil {
		return err
	}
	return eng.Store.SetAdd(ctx, eng.Keys.Blocked, rec.group)
}
