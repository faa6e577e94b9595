// Package keys centralizes the Redis key layout for the engine.
// It is kept in internal to avoid leaking the key format to public API.
package keys

// GlobalQueues is the single set key holding the registry of known queue names.
const GlobalQueues = "FAIRY:QUEUES"

// Queue holds the precomputed, fixed keys for a named queue. The one kind
// that is not fixed-shape, QUEUED:<queue>:<group>, is derived on demand by
// Queued since the set of groups is unbounded and data-dependent.
type Queue struct {
	Name       string
	Source     string
	Processing string
	Failed     string
	Blocked    string
	Recent     string
	Slowest    string
	Statistics string
}

// For returns the fixed key set for the given queue name.
func For(name string) Queue {
	prefix := "FAIRY:"
	return Queue{
		Name:       name,
		Source:     prefix + "SOURCE:" + name,
		Processing: prefix + "PROCESSING:" + name,
		Failed:     prefix + "FAILED:" + name,
		Blocked:    prefix + "BLOCKED:" + name,
		Recent:     prefix + "RECENT:" + name,
		Slowest:    prefix + "SLOWEST:" + name,
		Statistics: prefix + "STATISTICS:" + name,
	}
}

// Queued returns the per-group FIFO list key for a queue and group id.
func Queued(queue, group string) string {
	return "FAIRY:QUEUED:" + queue + ":" + group
}
