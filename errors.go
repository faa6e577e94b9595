package fairy

import "errors"

// ErrQueueNotFound reports a queue name that has never been registered with
// this client via Queue. Client.Queue creates queues on first access, so no
// method of this package currently returns it.
var ErrQueueNotFound = errors.New("fairy: queue not found")

// ErrHandlerRequired is returned by Regist when the handler is nil.
var ErrHandlerRequired = errors.New("fairy: handler is required")

// ErrAlreadyRegistered is returned by Regist when a handler was already
// registered for this queue; a queue drives at most one handler.
var ErrAlreadyRegistered = errors.New("fairy: handler already registered")

// ErrNotRegistered reports that no handler has been registered for a queue.
// No method of this package currently returns it: Reschedule runs without a
// registered handler.
var ErrNotRegistered = errors.New("fairy: no handler registered for queue")

// ErrClosed is returned by Regist when it is called after Queue.Close.
// Enqueue, Reschedule and the introspection readers still work after Close.
var ErrClosed = errors.New("fairy: queue is closed")
