package fairy

import "github.com/fairyq/fairy/internal/introspect"

// Statistics is the §4.5 derived-field aggregation for one queue.
type Statistics struct {
	Total                    int64
	Finished                 int64
	FailedTasks              int64
	AveragePendingTime       float64 // meaningless unless HasAveragePendingTime
	HasAveragePendingTime    bool
	AverageProcessingTime    float64 // meaningless unless HasAverageProcessingTime
	HasAverageProcessingTime bool
	BlockedGroups            int64
	BlockedTasks             int64
	PendingTasks             int64
}

func newStatistics(s introspect.Statistics) Statistics {
	return Statistics{
		Total:                    s.Total,
		Finished:                 s.Finished,
		FailedTasks:              s.FailedTasks,
		AveragePendingTime:       s.AveragePendingTime,
		HasAveragePendingTime:    s.AveragePendingValid,
		AverageProcessingTime:    s.AverageProcessingTime,
		HasAverageProcessingTime: s.AverageProcessingValid,
		BlockedGroups:            s.BlockedGroups,
		BlockedTasks:             s.BlockedTasks,
		PendingTasks:             s.PendingTasks,
	}
}

// FailedTask is one archived FAILED record (§3, §6).
type FailedTask struct {
	Args       []any
	QueuedAtMs int64
	FailedAtMs int64
	Errors     []string
}

func newFailedTask(t introspect.FailedTask) FailedTask {
	return FailedTask{Args: t.Args, QueuedAtMs: t.QueuedAtMs, FailedAtMs: t.FailedAtMs, Errors: t.Errors}
}

// RecentTask is one entry of the bounded RECENT list (§3).
type RecentTask struct {
	Args         []any
	FinishedAtMs int64
}

func newRecentTask(t introspect.RecentTask) RecentTask {
	return RecentTask{Args: t.Args, FinishedAtMs: t.FinishedAtMs}
}

// SlowestTask is one entry of the bounded-by-rank SLOWEST set (§3).
type SlowestTask struct {
	Args       []any
	DurationMs float64
}

func newSlowestTask(t introspect.SlowestTask) SlowestTask {
	return SlowestTask{Args: t.Args, DurationMs: t.DurationMs}
}

// ProcessingTask is one in-flight PROCESSING entry (§3).
type ProcessingTask struct {
	Token   string
	Args    []any
	StartMs int64
}

func newProcessingTask(t introspect.ProcessingTask) ProcessingTask {
	return ProcessingTask{Token: t.Token, Args: t.Args, StartMs: t.StartMs}
}
