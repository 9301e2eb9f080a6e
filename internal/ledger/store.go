package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"registry-program-sol/internal/types"
)

// Store 账户存储。Load 对不存在的账户返回 nil；Save 必须原子地写入全部记录。
type Store interface {
	Load(ctx context.Context, keys []types.Pubkey) ([]*Record, error)
	Save(ctx context.Context, records []*Record) error
}

// MemoryStore 进程内存储，主要用于测试与单次回放
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[types.Pubkey]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[types.Pubkey]*Record)}
}

func (s *MemoryStore) Load(_ context.Context, keys []types.Pubkey) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Record, len(keys))
	for i, k := range keys {
		if r, ok := s.accounts[k]; ok {
			result[i] = r.Clone()
		}
	}
	return result, nil
}

func (s *MemoryStore) Save(_ context.Context, records []*Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		s.accounts[r.Key] = r.Clone()
	}
	return nil
}

// RedisStore 每个账户一个 key：{prefix}:{base58 地址} → borsh(Record)
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// getKey 构造 Redis key
func (s *RedisStore) getKey(key types.Pubkey) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

func (s *RedisStore) Load(ctx context.Context, keys []types.Pubkey) ([]*Record, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	redisKeys := make([]string, len(keys))
	for i, k := range keys {
		redisKeys[i] = s.getKey(k)
	}

	values, err := s.rdb.MGet(ctx, redisKeys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	result := make([]*Record, len(keys))
	for i, v := range values {
		if v == nil {
			continue
		}
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected redis value type %T for %s", v, keys[i])
		}
		r, err := decodeRecord(keys[i], []byte(str))
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

// Save 通过 MULTI/EXEC 一次性写入，保证整次调用的账户修改要么全部可见，要么全部不可见
func (s *RedisStore) Save(ctx context.Context, records []*Record) error {
	if len(records) == 0 {
		return nil
	}
	payloads := make([][]byte, len(records))
	for i, r := range records {
		raw, err := encodeRecord(r)
		if err != nil {
			return fmt.Errorf("encode account %s: %w", r.Key, err)
		}
		payloads[i] = raw
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, r := range records {
			pipe.Set(ctx, s.getKey(r.Key), payloads[i], 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis commit %d accounts: %w", len(records), err)
	}
	return nil
}
