package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registry-program-sol/internal/consts"
	"registry-program-sol/internal/ledger"
	"registry-program-sol/internal/types"
)

type fakeFetcher struct {
	infos []client.AccountInfo
	err   error
	calls int
}

func (f *fakeFetcher) GetMultipleAccounts(_ context.Context, bases []string) ([]client.AccountInfo, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.infos, nil
}

func TestSeedWritesExistingAccounts(t *testing.T) {
	existing := types.Pubkey{1}
	missing := types.Pubkey{2}
	fetcher := &fakeFetcher{infos: []client.AccountInfo{
		{Lamports: 10, Owner: common.TokenProgramID, Data: []byte{1, 2, 3}},
		{},
	}}
	store := ledger.NewMemoryStore()
	s := newRpcAccountSeedService(fetcher, []string{existing.String(), missing.String()}, time.Second, store)

	n, err := s.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.Load(context.Background(), []types.Pubkey{existing, missing})
	require.NoError(t, err)
	require.NotNil(t, got[0])
	assert.Equal(t, consts.TokenProgram, got[0].Owner)
	assert.Equal(t, uint64(10), got[0].Lamports)
	assert.Equal(t, []byte{1, 2, 3}, got[0].Data)
	assert.Nil(t, got[1])
}

func TestSeedRejectsMismatchedResponse(t *testing.T) {
	fetcher := &fakeFetcher{infos: []client.AccountInfo{{Lamports: 1}}}
	s := newRpcAccountSeedService(fetcher, []string{types.Pubkey{1}.String(), types.Pubkey{2}.String()}, time.Second, ledger.NewMemoryStore())
	_, err := s.Seed(context.Background())
	assert.Error(t, err)
}

func TestSeedRejectsInvalidAddress(t *testing.T) {
	fetcher := &fakeFetcher{}
	s := newRpcAccountSeedService(fetcher, []string{"not-base58-0OIl"}, time.Second, ledger.NewMemoryStore())
	_, err := s.Seed(context.Background())
	assert.Error(t, err)
	assert.Zero(t, fetcher.calls)
}

func TestSeedWithRetry(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("rpc down")}
	s := newRpcAccountSeedService(fetcher, []string{types.Pubkey{1}.String()}, time.Second, ledger.NewMemoryStore())

	_, err := s.SeedWithRetry(context.Background(), 2, time.Millisecond)
	assert.ErrorContains(t, err, "rpc down")
	assert.Equal(t, 3, fetcher.calls)
}

func TestSeedNoAccounts(t *testing.T) {
	fetcher := &fakeFetcher{}
	s := newRpcAccountSeedService(fetcher, nil, 0, ledger.NewMemoryStore())
	n, err := s.Seed(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, fetcher.calls)
}
