// Package introspect implements the read-only aggregations of §4.5:
// statistics and the direct listings a dashboard would surface. Nothing
// here mutates state; statistics composes two plain transactions, the
// listings are direct decodes of their backing structures.
package introspect

import (
	"context"

	"github.com/fairyq/fairy/internal/keys"
	"github.com/fairyq/fairy/internal/store"
	"github.com/fairyq/fairy/internal/wire"
)

// Statistics is the derived-field aggregation of §4.5.
type Statistics struct {
	Total                  int64
	Finished               int64
	FailedTasks            int64
	AveragePendingTime     float64
	AveragePendingValid    bool
	AverageProcessingTime  float64
	AverageProcessingValid bool
	BlockedGroups          int64
	BlockedTasks           int64
	PendingTasks           int64
}

// FailedTask is one decoded FAILED record.
type FailedTask struct {
	Args       []any
	QueuedAtMs int64
	FailedAtMs int64
	Errors     []string
}

// RecentTask is one decoded RECENT record.
type RecentTask struct {
	Args         []any
	FinishedAtMs int64
}

// SlowestTask is one decoded SLOWEST record with its scored duration.
type SlowestTask struct {
	Args       []any
	DurationMs float64
}

// ProcessingTask is one decoded in-flight PROCESSING record.
type ProcessingTask struct {
	Token   string
	Args    []any
	StartMs int64
}

// Load computes the full §4.5 statistics aggregation for one queue using
// two transactions: the first reads STATISTICS, |FAILED|, and BLOCKED's
// members; the second reads the length of every blocked group's QUEUED:g.
func Load(ctx context.Context, st *store.Store, k keys.Queue, queueName string) (Statistics, error) {
	var statsFn func() map[string]int64
	var failedLenFn func() int64
	var blockedFn func() []string

	err := st.TxPipelined(ctx, func(p *store.Pipe) {
		statsFn = p.StatsGetAll(ctx, k.Statistics)
		failedLenFn = p.Len(ctx, k.Failed)
		blockedFn = p.SetMembers(ctx, k.Blocked)
	})
	if err != nil {
		return Statistics{}, err
	}

	rawStats := statsFn()
	total := rawStats["total"]
	finished := rawStats["finished"]
	totalPending := rawStats["total_pending_time"]
	totalProcessing := rawStats["total_processing_time"]
	failedLen := failedLenFn()
	blocked := blockedFn()

	queuedKeys := make([]string, len(blocked))
	for i, g := range blocked {
		queuedKeys[i] = keys.Queued(queueName, g)
	}

	var queuedLenFns []func() int64
	if len(queuedKeys) > 0 {
		err = st.TxPipelined(ctx, func(p *store.Pipe) {
			queuedLenFns = make([]func() int64, len(queuedKeys))
			for i, qk := range queuedKeys {
				queuedLenFns[i] = p.Len(ctx, qk)
			}
		})
		if err != nil {
			return Statistics{}, err
		}
	}

	var sumQueued int64
	for _, fn := range queuedLenFns {
		sumQueued += fn()
	}
	blockedGroups := int64(len(blocked))
	blockedTasks := sumQueued - blockedGroups

	result := Statistics{
		Total:         total,
		Finished:      finished,
		FailedTasks:   failedLen,
		BlockedGroups: blockedGroups,
		BlockedTasks:  blockedTasks,
		PendingTasks:  total - finished - blockedTasks - failedLen,
	}
	if finished > 0 {
		result.AveragePendingTime = round2(float64(totalPending) / float64(finished))
		result.AveragePendingValid = true
		result.AverageProcessingTime = round2(float64(totalProcessing) / float64(finished))
		result.AverageProcessingValid = true
	}
	return result, nil
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}

// RecentlyFinishedTasks decodes every element of RECENT, newest first.
func RecentlyFinishedTasks(ctx context.Context, st *store.Store, k keys.Queue) ([]RecentTask, error) {
	raw, err := st.Range(ctx, k.Recent, 0, -1)
	if err != nil {
		return nil, err
	}
	out := make([]RecentTask, 0, len(raw))
	for _, r := range raw {
		args, finishedAt, derr := wire.DecodeRecent(r)
		if derr != nil {
			return nil, derr
		}
		out = append(out, RecentTask{Args: args, FinishedAtMs: finishedAt})
	}
	return out, nil
}

// FailedTasks decodes every element of FAILED.
func FailedTasks(ctx context.Context, st *store.Store, k keys.Queue) ([]FailedTask, error) {
	raw, err := st.Range(ctx, k.Failed, 0, -1)
	if err != nil {
		return nil, err
	}
	out := make([]FailedTask, 0, len(raw))
	for _, r := range raw {
		args, queuedAt, failedAt, errs, derr := wire.DecodeFailed(r)
		if derr != nil {
			return nil, derr
		}
		out = append(out, FailedTask{Args: args, QueuedAtMs: queuedAt, FailedAtMs: failedAt, Errors: errs})
	}
	return out, nil
}

// BlockedGroups returns the raw group identifiers currently in BLOCKED.
func BlockedGroups(ctx context.Context, st *store.Store, k keys.Queue) ([]string, error) {
	return st.SetMembers(ctx, k.Blocked)
}

// SlowestTasks decodes every member of SLOWEST with its scored duration,
// descending by duration.
func SlowestTasks(ctx context.Context, st *store.Store, k keys.Queue) ([]SlowestTask, error) {
	card, err := st.ZCard(ctx, k.Slowest)
	if err != nil {
		return nil, err
	}
	members, err := st.ZRevRangeWithScores(ctx, k.Slowest, card)
	if err != nil {
		return nil, err
	}
	out := make([]SlowestTask, 0, len(members))
	for _, m := range members {
		args, derr := wire.DecodeSlowest(m.Member)
		if derr != nil {
			return nil, derr
		}
		out = append(out, SlowestTask{Args: args, DurationMs: m.Score})
	}
	return out, nil
}

// ProcessingTasks decodes every in-flight entry of PROCESSING.
func ProcessingTasks(ctx context.Context, st *store.Store, k keys.Queue) ([]ProcessingTask, error) {
	m, err := st.HashGetAll(ctx, k.Processing)
	if err != nil {
		return nil, err
	}
	out := make([]ProcessingTask, 0, len(m))
	for token, raw := range m {
		args, startMs, derr := wire.DecodeProcessing(raw)
		if derr != nil {
			return nil, derr
		}
		out = append(out, ProcessingTask{Token: token, Args: args, StartMs: startMs})
	}
	return out, nil
}
