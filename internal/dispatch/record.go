package dispatch

// invocation is the plain task-invocation record threaded through one
// worker's handling of one task. It replaces the callback-captured closure
// state of the source implementation (processing_token, queued_time,
// retry_count, errors) with a value the worker owns for the duration of
// one task attempt sequence (design note, SPEC_FULL.md §9).
type invocation struct {
	token      string
	group      string
	userArgs   []any
	queuedAtMs int64
	retryCount int
	errs       []string
}
