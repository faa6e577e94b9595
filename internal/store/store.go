// Package store is the thin typed adapter over the shared key-value
// store's list/hash/set/sorted-set/transaction primitives (§6). It knows
// nothing about tasks, groups, or the dispatch protocol — only Redis
// command shapes — so the dispatch engine stays testable against the
// primitives it actually needs instead of the full go-redis surface.
package store

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Store wraps a redis.UniversalClient with the operations the engine uses.
type Store struct {
	RDB redis.UniversalClient
}

// New wraps an existing Redis client.
func New(rdb redis.UniversalClient) *Store {
	return &Store{RDB: rdb}
}

// AppendTail appends a single encoded element to the tail of a list.
func (s *Store) AppendTail(ctx context.Context, key string, payload []byte) error {
	return s.RDB.RPush(ctx, key, payload).Err()
}

// PopHead removes and returns the head element of a list.
func (s *Store) PopHead(ctx context.Context, key string) (raw []byte, ok bool, err error) {
	v, err := s.RDB.LPop(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(v), true, nil
}

// PeekHead returns the head element of a list without removing it.
func (s *Store) PeekHead(ctx context.Context, key string) (raw []byte, ok bool, err error) {
	v, err := s.RDB.LIndex(ctx, key, 0).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(v), true, nil
}

// Len returns the length of a list.
func (s *Store) Len(ctx context.Context, key string) (int64, error) {
	return s.RDB.LLen(ctx, key).Result()
}

// Range returns list elements in [start, stop] (inclusive, -1 means "to the end").
func (s *Store) Range(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	vals, err := s.RDB.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, nil
}

// DeleteKeys removes zero or more keys unconditionally.
func (s *Store) DeleteKeys(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.RDB.Del(ctx, keys...).Err()
}

// SetAdd adds a member to a set.
func (s *Store) SetAdd(ctx context.Context, key, member string) error {
	return s.RDB.SAdd(ctx, key, member).Err()
}

// SetRem removes a member from a set.
func (s *Store) SetRem(ctx context.Context, key, member string) error {
	return s.RDB.SRem(ctx, key, member).Err()
}

// SetMembers returns every member of a set.
func (s *Store) SetMembers(ctx context.Context, key string) ([]string, error) {
	return s.RDB.SMembers(ctx, key).Result()
}

// SetCard returns the cardinality of a set.
func (s *Store) SetCard(ctx context.Context, key string) (int64, error) {
	return s.RDB.SCard(ctx, key).Result()
}

// HashSet sets a single field of a hash to a raw value.
func (s *Store) HashSet(ctx context.Context, key, field string, value []byte) error {
	return s.RDB.HSet(ctx, key, field, value).Err()
}

// HashGetAll returns every field/value pair of a hash.
func (s *Store) HashGetAll(ctx context.Context, key string) (map[string][]byte, error) {
	m, err := s.RDB.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(m))
	for k, v := range m {
		out[k] = []byte(v)
	}
	return out, nil
}

// HashDel removes a field from a hash.
func (s *Store) HashDel(ctx context.Context, key, field string) error {
	return s.RDB.HDel(ctx, key, field).Err()
}

// HashLen returns the number of fields in a hash.
func (s *Store) HashLen(ctx context.Context, key string) (int64, error) {
	return s.RDB.HLen(ctx, key).Result()
}

// StatsIncrBy atomically increments a counter field of the statistics hash.
func (s *Store) StatsIncrBy(ctx context.Context, key, field string, delta int64) error {
	return s.RDB.HIncrBy(ctx, key, field, delta).Err()
}

// StatsGetAll returns the statistics hash decoded as integers, defaulting
// absent fields to zero.
func (s *Store) StatsGetAll(ctx context.Context, key string) (map[string]int64, error) {
	m, err := s.RDB.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(m))
	for k, v := range m {
		n, _ := strconv.ParseInt(v, 10, 64)
		out[k] = n
	}
	return out, nil
}

// ScoredMember pairs a sorted-set member with its score.
type ScoredMember struct {
	Member []byte
	Score  float64
}

// ZAddScored adds one scored member to a sorted set.
func (s *Store) ZAddScored(ctx context.Context, key string, score float64, member []byte) error {
	return s.RDB.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err()
}

// ZRevRangeWithScores returns up to count members in descending score order.
func (s *Store) ZRevRangeWithScores(ctx context.Context, key string, count int64) ([]ScoredMember, error) {
	zs, err := s.RDB.ZRevRangeWithScores(ctx, key, 0, count-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]ScoredMember, len(zs))
	for i, z := range zs {
		member, _ := z.Member.(string)
		out[i] = ScoredMember{Member: []byte(member), Score: z.Score}
	}
	return out, nil
}

// ZTrimToSize keeps only the top `size` highest-scored members, evicting the
// lowest-scored ones beyond that rank.
func (s *Store) ZTrimToSize(ctx context.Context, key string, size int64) error {
	if size < 0 {
		return nil
	}
	return s.RDB.ZRemRangeByRank(ctx, key, 0, -(size + 1)).Err()
}

// ZCard returns the cardinality of a sorted set.
func (s *Store) ZCard(ctx context.Context, key string) (int64, error) {
	return s.RDB.ZCard(ctx, key).Result()
}

// Tx is the read/watch handle passed to the fn given to Store.Watch. It
// exposes the reads a caller needs to decide what to watch and what to
// commit, without leaking go-redis types to callers.
type Tx struct {
	tx *redis.Tx
}

// Watch adds more keys to this transaction's watch set. Redis accumulates
// watched keys across repeated WATCH calls on the same connection rather
// than replacing them, so a caller can watch a fixed set of keys up front
// via Store.Watch and then, after reading enough to know what else needs
// protecting, extend the watch before committing.
func (t *Tx) Watch(ctx context.Context, keys ...string) error {
	return t.tx.Watch(ctx, keys...).Err()
}

// PeekHead returns the head element of a list without removing it.
func (t *Tx) PeekHead(ctx context.Context, key string) (raw []byte, ok bool, err error) {
	v, err := t.tx.LIndex(ctx, key, 0).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(v), true, nil
}

// Range returns list elements in [start, stop] (inclusive, -1 means "to the end").
func (t *Tx) Range(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	vals, err := t.tx.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, nil
}

// SetMembers returns every member of a set.
func (t *Tx) SetMembers(ctx context.Context, key string) ([]string, error) {
	return t.tx.SMembers(ctx, key).Result()
}

// Pipelined opens the MULTI/EXEC block of a watched transaction. fn queues
// commands against the returned Pipe; any value fetchers it returns are
// only valid once Pipelined itself returns without error.
func (t *Tx) Pipelined(ctx context.Context, fn func(*Pipe)) error {
	_, err := t.tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
		fn(&Pipe{p: p})
		return nil
	})
	return err
}

// Pipe is the pipelined-command handle passed to the fn given to
// Tx.Pipelined or Store.TxPipelined. Queuing a command returns a fetcher
// func, when the command has a result a caller needs after commit; reading
// a fetcher before the enclosing Pipelined/TxPipelined call returns is
// invalid.
type Pipe struct {
	p redis.Pipeliner
}

// AppendTail queues appending a single encoded element to the tail of a list.
func (p *Pipe) AppendTail(ctx context.Context, key string, payload []byte) {
	p.p.RPush(ctx, key, payload)
}

// AppendTailMany queues appending several encoded elements to the tail of
// a list, in order. A no-op for an empty slice.
func (p *Pipe) AppendTailMany(ctx context.Context, key string, payloads [][]byte) {
	if len(payloads) == 0 {
		return
	}
	vals := make([]any, len(payloads))
	for i, v := range payloads {
		vals[i] = v
	}
	p.p.RPush(ctx, key, vals...)
}

// PopHead queues removing the head element of a list.
func (p *Pipe) PopHead(ctx context.Context, key string) {
	p.p.LPop(ctx, key)
}

// PrependHead queues prepending a single encoded element to the head of a list.
func (p *Pipe) PrependHead(ctx context.Context, key string, payload []byte) {
	p.p.LPush(ctx, key, payload)
}

// Trim queues trimming a list down to the elements in [start, stop].
func (p *Pipe) Trim(ctx context.Context, key string, start, stop int64) {
	p.p.LTrim(ctx, key, start, stop)
}

// DeleteKeys queues removing zero or more keys unconditionally.
func (p *Pipe) DeleteKeys(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	p.p.Del(ctx, keys...)
}

// Len queues a list-length read, returning a fetcher for its result.
func (p *Pipe) Len(ctx context.Context, key string) func() int64 {
	cmd := p.p.LLen(ctx, key)
	return func() int64 { return cmd.Val() }
}

// SetMembers queues a set-members read, returning a fetcher for its result.
func (p *Pipe) SetMembers(ctx context.Context, key string) func() []string {
	cmd := p.p.SMembers(ctx, key)
	return func() []string { return cmd.Val() }
}

// StatsGetAll queues a statistics-hash read, returning a fetcher that
// decodes the hash's fields as integers, defaulting absent fields to zero.
func (p *Pipe) StatsGetAll(ctx context.Context, key string) func() map[string]int64 {
	cmd := p.p.HGetAll(ctx, key)
	return func() map[string]int64 {
		m := cmd.Val()
		out := make(map[string]int64, len(m))
		for k, v := range m {
			n, _ := strconv.ParseInt(v, 10, 64)
			out[k] = n
		}
		return out
	}
}

// PeekHead queues a head-of-list read, returning a fetcher for its result.
// It reads with LRANGE 0 0 rather than LINDEX so that an empty list yields
// an empty reply (ok=false) instead of a nil reply that would fail the
// whole pipeline.
func (p *Pipe) PeekHead(ctx context.Context, key string) func() (raw []byte, ok bool) {
	cmd := p.p.LRange(ctx, key, 0, 0)
	return func() (raw []byte, ok bool) {
		vals, err := cmd.Result()
		if err != nil || len(vals) == 0 {
			return nil, false
		}
		return []byte(vals[0]), true
	}
}

// Watch runs fn in a transaction watching the given keys, retrying
// automatically while the commit aborts because a watched key was modified
// concurrently (§6's "optimistic watch-then-transactional-exec" primitive).
// fn may call Tx.Watch to extend the watch set once it has read enough to
// know what else needs protecting, before calling Tx.Pipelined to commit.
func (s *Store) Watch(ctx context.Context, fn func(*Tx) error, keys ...string) error {
	for {
		err := s.RDB.Watch(ctx, func(tx *redis.Tx) error {
			return fn(&Tx{tx: tx})
		}, keys...)
		if err == redis.TxFailedErr {
			continue
		}
		return err
	}
}

// TxPipelined runs fn as a plain MULTI/EXEC bundle with no WATCH — for
// commits whose correctness doesn't depend on a value read before the
// transaction opened.
func (s *Store) TxPipelined(ctx context.Context, fn func(*Pipe)) error {
	_, err := s.RDB.TxPipelined(ctx, func(p redis.Pipeliner) error {
		fn(&Pipe{p: p})
		return nil
	})
	return err
}

// PrependTrim atomically prepends payload to key's head and trims the list
// down to its size most-recent elements (§4.3 success step 5's RECENT list).
func (s *Store) PrependTrim(ctx context.Context, key string, payload []byte, size int64) error {
	return s.TxPipelined(ctx, func(p *Pipe) {
		p.PrependHead(ctx, key, payload)
		p.Trim(ctx, key, 0, size-1)
	})
}
