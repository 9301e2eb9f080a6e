package svc

import (
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/redis/go-redis/v9"

	"registry-program-sol/internal/config"
	"registry-program-sol/internal/consts"
	"registry-program-sol/internal/ledger"
	"registry-program-sol/internal/mq"
	"registry-program-sol/internal/registry"
	"registry-program-sol/internal/service"
	"registry-program-sol/internal/tokenproc"
	"registry-program-sol/internal/types"
	"registry-program-sol/pkg/logger"
)

// ServiceContext 包含回放所需的全部资源
type ServiceContext struct {
	Config config.Config

	RegistryProgram types.Pubkey
	TokenProgram    types.Pubkey
	SPLTokenProgram types.Pubkey

	Redis  *redis.Client // 仅 redis 后端
	Store  ledger.Store
	Ledger *ledger.Ledger
	CPI    *ledger.CPIRouter

	Producer  *kafka.Producer                // brokers 为空时为 nil
	Publisher *OutcomePublisher              // brokers 为空时为 nil
	Seeder    *service.RpcAccountSeedService // rpc.endpoint 为空时为 nil
}

// NewServiceContext 创建服务上下文
func NewServiceContext(c config.Config) (*ServiceContext, error) {
	registryID, err := c.ProgramConf.RegistryProgramID()
	if err != nil {
		return nil, fmt.Errorf("registry_program: %w", err)
	}
	tokenID, err := c.ProgramConf.TokenProgramID()
	if err != nil {
		return nil, fmt.Errorf("token_program: %w", err)
	}
	splID, err := c.ProgramConf.SPLTokenProgramID()
	if err != nil {
		return nil, fmt.Errorf("spl_token_program: %w", err)
	}
	registryOpts, err := c.ProgramConf.RegistryOptions()
	if err != nil {
		return nil, err
	}

	ctx := &ServiceContext{
		Config:          c,
		RegistryProgram: registryID,
		TokenProgram:    tokenID,
		SPLTokenProgram: splID,
	}

	// 1. 账户存储
	switch c.LedgerConf.Backend {
	case "redis":
		ctx.Redis = redis.NewClient(&redis.Options{Addr: c.LedgerConf.RedisAddr})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := ctx.Redis.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			ctx.Close()
			return nil, fmt.Errorf("redis %s 连接失败: %w", c.LedgerConf.RedisAddr, err)
		}
		ctx.Store = ledger.NewRedisStore(ctx.Redis, c.LedgerConf.KeyPrefix)
	default:
		ctx.Store = ledger.NewMemoryStore()
	}

	// 2. 账本与程序注册
	ctx.Ledger = ledger.New(ctx.Store)
	ctx.CPI = ctx.Ledger.CPI()
	ctx.Ledger.Register(registryID, registry.NewProcessor(registryOpts...))
	ctx.Ledger.Register(tokenID, tokenproc.NewProcessor(
		tokenproc.NewSPLPrimitives(ctx.CPI),
		tokenproc.WithTokenProgram(splID),
	))

	// 3. 可选：RPC 拉取初始账户
	if c.RpcConf.Endpoint != "" {
		ctx.Seeder, err = service.NewRpcAccountSeedService(&c.RpcConf, &c.TimeConf, ctx.Store)
		if err != nil {
			ctx.Close()
			return nil, err
		}
	}

	// 4. 可选：Kafka 结果发布
	if c.KafkaProducerConf.Brokers != "" {
		ctx.Producer, err = mq.NewKafkaProducer(c.KafkaProducerConf)
		if err != nil {
			logger.Errorf("Kafka producer 初始化失败: %v", err)
			ctx.Close()
			return nil, err
		}
		ctx.Publisher = NewOutcomePublisher(
			ctx.Producer,
			c.KafkaProducerConf.Topic,
			c.KafkaProducerConf.Partitions,
			time.Duration(c.TimeConf.OutcomeSendTimeoutMs)*time.Millisecond,
			map[types.Pubkey]uint32{
				registryID: consts.EventTypeRegistryCall,
				tokenID:    consts.EventTypeTokenCall,
			},
		)
	}

	logger.Infof("服务上下文初始化完成: registry=%s token=%s backend=%s", registryID, tokenID, c.LedgerConf.Backend)
	return ctx, nil
}

// Close 关闭服务上下文中的资源
func (ctx *ServiceContext) Close() {
	if ctx.Producer != nil {
		ctx.Producer.Flush(1000)
		ctx.Producer.Close()
	}
	if ctx.Redis != nil {
		_ = ctx.Redis.Close()
	}
}
