package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registry-program-sol/internal/consts"
	"registry-program-sol/internal/registry"
	"registry-program-sol/internal/types"
)

func TestRecordCodec(t *testing.T) {
	r := &Record{
		Key:        types.Pubkey{1},
		Owner:      consts.RegistryProgram,
		Lamports:   890880,
		Executable: true,
		Data:       []byte{1, 2, 3, 4},
	}
	raw, err := encodeRecord(r)
	require.NoError(t, err)
	// owner(32) + lamports(8) + executable(1) + len(4) + data
	assert.Len(t, raw, 32+8+1+4+4)

	got, err := decodeRecord(r.Key, raw)
	require.NoError(t, err)
	assert.Equal(t, r, got)

	_, err = decodeRecord(r.Key, raw[:10])
	assert.Error(t, err)
}

func TestMemoryStoreIsolation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	key := types.Pubkey{9}

	rec := &Record{Key: key, Data: []byte{1}}
	require.NoError(t, s.Save(ctx, []*Record{rec}))
	rec.Data[0] = 2

	got, err := s.Load(ctx, []types.Pubkey{key, {8}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []byte{1}, got[0].Data)
	assert.Nil(t, got[1])

	got[0].Data[0] = 3
	again, err := s.Load(ctx, []types.Pubkey{key})
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, again[0].Data)
}

// newTestRedis 本地没有 Redis 时跳过
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisStoreRoundTrip(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()
	prefix := fmt.Sprintf("test:ledger:%d", time.Now().UnixNano())
	s := NewRedisStore(rdb, prefix)

	a := &Record{Key: types.Pubkey{1}, Owner: consts.RegistryProgram, Lamports: 5, Data: []byte{1, 2}}
	b := &Record{Key: types.Pubkey{2}, Owner: consts.TokenProgram, Lamports: 6, Data: []byte{}}
	require.NoError(t, s.Save(ctx, []*Record{a, b}))
	t.Cleanup(func() {
		rdb.Del(context.Background(), s.getKey(a.Key), s.getKey(b.Key))
	})

	got, err := s.Load(ctx, []types.Pubkey{a.Key, {3}, b.Key})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, a, got[0])
	assert.Nil(t, got[1])
	assert.Equal(t, b.Owner, got[2].Owner)
	assert.Empty(t, got[2].Data)

	empty, err := s.Load(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLedgerOnRedisStore(t *testing.T) {
	rdb := newTestRedis(t)
	prefix := fmt.Sprintf("test:ledger:%d", time.Now().UnixNano())
	s := NewRedisStore(rdb, prefix)
	t.Cleanup(func() {
		rdb.Del(context.Background(), s.getKey(consumerListKey), s.getKey(storeListKey), s.getKey(targetKey))
	})

	mem, _ := newRegistryLedger(t, 2)
	seed, err := mem.Store().Load(context.Background(), []types.Pubkey{consumerListKey, storeListKey})
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), seed))

	l := New(s)
	l.Register(consts.RegistryProgram, mem.programs[consts.RegistryProgram])

	out, err := l.Execute(context.Background(), registryInvocation(t, registry.AddConsumer))
	require.NoError(t, err)
	require.True(t, out.Success())
	assert.True(t, loadList(t, s, consumerListKey).Contains(targetKey))
}
