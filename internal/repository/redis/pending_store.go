package redis

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	redisclient "fiatrouter/internal/adapters/redis"
	"fiatrouter/internal/domain/pending"
	"fiatrouter/pkg/errors"
)

// Compile-time check
var _ pending.Store = (*PendingStore)(nil)

// putScript bumps the global generation counter and writes the entry and its
// generation in one step.
// KEYS: data hash, generation hash, counter. ARGV: field, payload.
var putScript = redis.NewScript(`
local gen = redis.call('INCR', KEYS[3])
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
redis.call('HSET', KEYS[2], ARGV[1], gen)
return gen
`)

// deleteIfGenerationScript removes the entry only while its generation is unchanged.
// KEYS: data hash, generation hash. ARGV: field, generation.
var deleteIfGenerationScript = redis.NewScript(`
if redis.call('HGET', KEYS[2], ARGV[1]) == ARGV[2] then
	redis.call('HDEL', KEYS[1], ARGV[1])
	redis.call('HDEL', KEYS[2], ARGV[1])
	return 1
end
return 0
`)

// PendingStore implements pending.Store on two Redis hashes: one holding the
// JSON-encoded requests and one holding their generations.
type PendingStore struct {
	client      *redis.Client
	dataKey     string
	generations string
	counter     string
}

// NewPendingStore creates a Redis-backed pending store
func NewPendingStore(client *redisclient.Client) *PendingStore {
	return &PendingStore{
		client:      client.Client(),
		dataKey:     client.Key("pending", "requests"),
		generations: client.Key("pending", "generations"),
		counter:     client.Key("pending", "generation_seq"),
	}
}

// Put upserts req under its correlation key
func (s *PendingStore) Put(ctx context.Context, req *pending.Request) error {
	if req == nil || !req.Kind.Valid() || req.Requester == "" {
		return errors.Wrap(errors.ErrInvalidInput, "pending request requires kind and requester")
	}

	data, err := json.Marshal(req)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal pending request: key=%s", req.Key())
	}

	gen, err := putScript.Run(ctx, s.client, []string{s.dataKey, s.generations, s.counter}, req.Key(), data).Int64()
	if err != nil {
		return errors.Wrapf(err, "failed to store pending request in redis: key=%s", req.Key())
	}

	req.Generation = uint64(gen)
	return nil
}

// GetAll returns a snapshot of every pending request ordered by key
func (s *PendingStore) GetAll(ctx context.Context) ([]*pending.Request, error) {
	var dataCmd, genCmd *redis.MapStringStringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		dataCmd = pipe.HGetAll(ctx, s.dataKey)
		genCmd = pipe.HGetAll(ctx, s.generations)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to read pending requests from redis")
	}

	gens := genCmd.Val()
	out := make([]*pending.Request, 0, len(dataCmd.Val()))
	for key, raw := range dataCmd.Val() {
		var req pending.Request
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal pending request: key=%s", key)
		}
		gen, err := strconv.ParseUint(gens[key], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid generation for pending request: key=%s", key)
		}
		req.Generation = gen
		out = append(out, &req)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out, nil
}

// Delete removes key; absent keys are ignored
func (s *PendingStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, s.dataKey, key)
		pipe.HDel(ctx, s.generations, key)
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "failed to delete pending request from redis: key=%s", key)
	}
	return nil
}

// DeleteIfGeneration removes key only if it still has generation
func (s *PendingStore) DeleteIfGeneration(ctx context.Context, key string, generation uint64) (bool, error) {
	n, err := deleteIfGenerationScript.Run(ctx, s.client,
		[]string{s.dataKey, s.generations}, key, strconv.FormatUint(generation, 10)).Int()
	if err != nil {
		return false, errors.Wrapf(err, "failed to conditionally delete pending request: key=%s", key)
	}
	return n == 1, nil
}

// Count returns the number of pending requests
func (s *PendingStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.HLen(ctx, s.dataKey).Result()
	if err != nil {
		return 0, errors.Wrap(err, "failed to count pending requests")
	}
	return int(n), nil
}
