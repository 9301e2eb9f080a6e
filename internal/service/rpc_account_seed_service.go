package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/blocto/solana-go-sdk/client"

	"registry-program-sol/internal/config"
	"registry-program-sol/internal/ledger"
	"registry-program-sol/internal/types"
	"registry-program-sol/pkg/logger"
)

// AccountFetcher 批量拉取账户，*client.Client 满足该接口
type AccountFetcher interface {
	GetMultipleAccounts(ctx context.Context, bases []string) ([]client.AccountInfo, error)
}

// RpcAccountSeedService 从集群拉取账户写入本地账本，用于在真实状态上回放调用
type RpcAccountSeedService struct {
	fetcher  AccountFetcher
	store    ledger.Store
	accounts []string
	timeout  time.Duration
}

func NewRpcAccountSeedService(cfg *config.RpcConfig, timeConf *config.TimeConfig, store ledger.Store) (*RpcAccountSeedService, error) {
	c := client.NewClient(cfg.Endpoint)
	if c == nil {
		return nil, errors.New("rpc client init failed")
	}
	return newRpcAccountSeedService(c, cfg.Accounts, time.Duration(timeConf.SeedTimeoutMs)*time.Millisecond, store), nil
}

func newRpcAccountSeedService(fetcher AccountFetcher, accounts []string, timeout time.Duration, store ledger.Store) *RpcAccountSeedService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RpcAccountSeedService{
		fetcher:  fetcher,
		store:    store,
		accounts: accounts,
		timeout:  timeout,
	}
}

// SeedWithRetry 初始化时带重试地拉取
func (s *RpcAccountSeedService) SeedWithRetry(ctx context.Context, retryCount int, interval time.Duration) (int, error) {
	var lastErr error
	for i := 0; i <= retryCount; i++ {
		n, err := s.Seed(ctx)
		if err == nil {
			return n, nil
		}
		lastErr = err
		logger.Warnf("[RpcAccountSeedService] 第 %d 次 Seed() 失败: %v", i+1, err)

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(interval):
		}
	}
	return 0, fmt.Errorf("[RpcAccountSeedService] 初始拉取失败: %w", lastErr)
}

// Seed 拉取配置的账户并写入存储，返回写入的账户数；链上不存在的账户跳过
func (s *RpcAccountSeedService) Seed(ctx context.Context) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[RpcAccountSeedService] seed panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("seed panic: %v", r)
		}
	}()

	if len(s.accounts) == 0 {
		return 0, nil
	}
	keys := make([]types.Pubkey, len(s.accounts))
	for i, a := range s.accounts {
		if keys[i], err = types.TryPubkeyFromBase58(a); err != nil {
			return 0, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	infos, err := s.fetcher.GetMultipleAccounts(ctx, s.accounts)
	duration := time.Since(start)
	if err != nil {
		return 0, fmt.Errorf("GetMultipleAccounts failed: %w", err)
	}
	logger.Infof("[RpcAccountSeedService] GetMultipleAccounts 成功, 账户数: %d, 耗时: %v", len(s.accounts), duration)

	if len(infos) != len(s.accounts) {
		return 0, fmt.Errorf("返回账户数与请求不一致: got=%d want=%d", len(infos), len(s.accounts))
	}

	records := make([]*ledger.Record, 0, len(infos))
	for i, info := range infos {
		if isMissingAccount(info) {
			logger.Warnf("[RpcAccountSeedService] 账户不存在: %s", s.accounts[i])
			continue
		}
		records = append(records, &ledger.Record{
			Key:        keys[i],
			Owner:      types.PubkeyFromCommon(info.Owner),
			Lamports:   info.Lamports,
			Executable: info.Executable,
			Data:       info.Data,
		})
	}

	if err := s.store.Save(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// isMissingAccount RPC 对不存在的账户返回零值
func isMissingAccount(info client.AccountInfo) bool {
	return info.Lamports == 0 && len(info.Data) == 0 && types.PubkeyFromCommon(info.Owner).IsZero()
}
