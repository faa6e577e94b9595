// Package wire encodes and decodes the self-describing JSON arrays that
// cross the store boundary. Tasks are untyped, heterogeneous tuples; this
// package never imposes a schema on the user-supplied arguments, only on
// the engine-appended trailing metadata positions (§6 of the positional
// contract).
package wire

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// ErrEmptyArgs is returned when a task tuple has no positional arguments,
// so no group id (arg0) can be derived.
var ErrEmptyArgs = errors.New("fairy: task has no arguments")

// ErrMalformedTask is returned when a stored task cannot be decoded into
// the expected array shape. The engine treats this as a store-level fault.
var ErrMalformedTask = errors.New("fairy: malformed task record")

// encode appends extra trailing metadata positions to args and marshals the
// whole tuple as one JSON array, using the standard library encoder to keep
// field order deterministic.
func encode(args []any, extra ...any) ([]byte, error) {
	full := make([]any, 0, len(args)+len(extra))
	full = append(full, args...)
	full = append(full, extra...)
	return json.Marshal(full)
}

// decode unmarshals a stored JSON array using sonic, which the dispatch
// loop favors for decode latency on the hot path.
func decode(raw []byte) ([]any, error) {
	var v []any
	if err := sonic.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTask, err)
	}
	return v, nil
}

// asInt64 coerces a decoded JSON number (always float64 via encoding/json
// and sonic) into an int64 timestamp.
func asInt64(v any) (int64, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

// GroupID derives the stable string key for args[0], the group identifier.
// Any JSON-representable value is accepted: numbers and booleans are
// rendered with Go's %v formatting, null as "null", and any other value as
// its JSON encoding, so equal values always produce equal keys.
func GroupID(args []any) (string, error) {
	if len(args) == 0 {
		return "", ErrEmptyArgs
	}
	switch v := args[0].(type) {
	case string:
		return v, nil
	case float64:
		return fmt.Sprintf("%v", v), nil
	case bool:
		return fmt.Sprintf("%v", v), nil
	case nil:
		return "null", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// EncodeSource encodes a SOURCE/QUEUED element: [args..., enqueued_at_ms].
func EncodeSource(args []any, enqueuedAtMs int64) ([]byte, error) {
	return encode(args, enqueuedAtMs)
}

// DecodeSource splits a SOURCE/QUEUED element back into user args and the
// trailing enqueued_at timestamp.
func DecodeSource(raw []byte) (args []any, enqueuedAtMs int64, err error) {
	v, err := decode(raw)
	if err != nil {
		return nil, 0, err
	}
	if len(v) < 1 {
		return nil, 0, ErrMalformedTask
	}
	ts, ok := asInt64(v[len(v)-1])
	if !ok {
		return nil, 0, ErrMalformedTask
	}
	return v[:len(v)-1], ts, nil
}

// EncodeProcessing encodes a PROCESSING value: [args..., start_time_ms].
func EncodeProcessing(args []any, startMs int64) ([]byte, error) {
	return encode(args, startMs)
}

// DecodeProcessing splits a PROCESSING value back into user args and start time.
func DecodeProcessing(raw []byte) (args []any, startMs int64, err error) {
	v, err := decode(raw)
	if err != nil {
		return nil, 0, err
	}
	if len(v) < 1 {
		return nil, 0, ErrMalformedTask
	}
	ts, ok := asInt64(v[len(v)-1])
	if !ok {
		return nil, 0, ErrMalformedTask
	}
	return v[:len(v)-1], ts, nil
}

// EncodeFailed encodes a FAILED record: [args..., enqueued_at_ms, failed_at_ms, [err_msgs...]].
func EncodeFailed(args []any, queuedAtMs, failedAtMs int64, errs []string) ([]byte, error) {
	msgs := make([]any, len(errs))
	for i, m := range errs {
		msgs[i] = m
	}
	return encode(args, queuedAtMs, failedAtMs, msgs)
}

// DecodeFailed splits a FAILED record back into its four logical parts:
// user args, enqueued_at, failed_at, and the error messages.
func DecodeFailed(raw []byte) (args []any, queuedAtMs, failedAtMs int64, errs []string, err error) {
	v, derr := decode(raw)
	if derr != nil {
		return nil, 0, 0, nil, derr
	}
	if len(v) < 3 {
		return nil, 0, 0, nil, ErrMalformedTask
	}
	msgsRaw, ok := v[len(v)-1].([]any)
	if !ok {
		return nil, 0, 0, nil, ErrMalformedTask
	}
	msgs := make([]string, 0, len(msgsRaw))
	for _, m := range msgsRaw {
		s, ok := m.(string)
		if !ok {
			return nil, 0, 0, nil, ErrMalformedTask
		}
		msgs = append(msgs, s)
	}
	failedAt, ok := asInt64(v[len(v)-2])
	if !ok {
		return nil, 0, 0, nil, ErrMalformedTask
	}
	queuedAt, ok := asInt64(v[len(v)-3])
	if !ok {
		return nil, 0, 0, nil, ErrMalformedTask
	}
	return v[:len(v)-3], queuedAt, failedAt, msgs, nil
}

// EncodeRecent encodes a RECENT element: [args..., finished_at_ms].
func EncodeRecent(args []any, finishedAtMs int64) ([]byte, error) {
	return encode(args, finishedAtMs)
}

// DecodeRecent splits a RECENT element back into user args and finish time.
func DecodeRecent(raw []byte) (args []any, finishedAtMs int64, err error) {
	v, err := decode(raw)
	if err != nil {
		return nil, 0, err
	}
	if len(v) < 1 {
		return nil, 0, ErrMalformedTask
	}
	ts, ok := asInt64(v[len(v)-1])
	if !ok {
		return nil, 0, ErrMalformedTask
	}
	return v[:len(v)-1], ts, nil
}

// EncodeSlowest encodes a SLOWEST member: [args...] (the score carries the duration).
func EncodeSlowest(args []any) ([]byte, error) {
	return encode(args)
}

// DecodeSlowest decodes a SLOWEST member back into user args.
func DecodeSlowest(raw []byte) (args []any, err error) {
	return decode(raw)
}
