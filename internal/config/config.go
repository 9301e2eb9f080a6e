package config

import (
	"fmt"
	"strings"

	"registry-program-sol/internal/consts"
	"registry-program-sol/internal/registry"
	"registry-program-sol/internal/types"
	"registry-program-sol/pkg/logger"
)

type LogConfig struct {
	Format   string `json:"format,default=console"` // 日志格式，支持 "console" 或 "json"
	LogDir   string `json:"log_dir,optional"`       // 日志目录（可为相对路径或绝对路径）
	Level    string `json:"level,default=info"`     // 日志级别：debug / info / warn / error
	Compress bool   `json:"compress,optional"`      // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// ProgramConfig 程序地址与名单行为配置
type ProgramConfig struct {
	RegistryProgram string `json:"registry_program,optional"`      // 名单程序地址（base58），为空使用默认值
	TokenProgram    string `json:"token_program,optional"`         // 指令程序地址（base58），为空使用默认值
	SPLTokenProgram string `json:"spl_token_program,optional"`     // mint 账户应归属的 SPL Token 程序
	LoadMode        string `json:"load_mode,default=persisted"`    // persisted / ephemeral
	DuplicatePolicy string `json:"duplicate_policy,default=allow"` // allow / reject
}

// TokenProgramIDStr Token 指令程序自身的默认地址
const TokenProgramIDStr = "FqUwnBMN1shpeqKVm7W5fN73tvrjVr19TQFFgkoFFzhq"

func (c *ProgramConfig) RegistryProgramID() (types.Pubkey, error) {
	return pubkeyOrDefault(c.RegistryProgram, consts.RegistryProgramStr)
}

func (c *ProgramConfig) TokenProgramID() (types.Pubkey, error) {
	return pubkeyOrDefault(c.TokenProgram, TokenProgramIDStr)
}

func (c *ProgramConfig) SPLTokenProgramID() (types.Pubkey, error) {
	return pubkeyOrDefault(c.SPLTokenProgram, consts.TokenProgramStr)
}

// RegistryOptions 将配置转换为名单处理器选项
func (c *ProgramConfig) RegistryOptions() ([]registry.Option, error) {
	var opts []registry.Option
	switch strings.ToLower(c.LoadMode) {
	case "", "persisted":
		opts = append(opts, registry.WithLoadMode(registry.LoadPersisted))
	case "ephemeral":
		opts = append(opts, registry.WithLoadMode(registry.LoadEphemeral))
	default:
		return nil, fmt.Errorf("unknown load_mode %q", c.LoadMode)
	}
	switch strings.ToLower(c.DuplicatePolicy) {
	case "", "allow":
		opts = append(opts, registry.WithDuplicatePolicy(registry.AllowDuplicates))
	case "reject":
		opts = append(opts, registry.WithDuplicatePolicy(registry.RejectDuplicates))
	default:
		return nil, fmt.Errorf("unknown duplicate_policy %q", c.DuplicatePolicy)
	}
	return opts, nil
}

func pubkeyOrDefault(s, def string) (types.Pubkey, error) {
	if s == "" {
		s = def
	}
	return types.TryPubkeyFromBase58(s)
}

// LedgerConfig 本地账本存储配置
type LedgerConfig struct {
	Backend   string `json:"backend,default=memory,options=memory|redis"` // 账户存储后端
	RedisAddr string `json:"redis_addr,optional"`                         // Redis 地址
	KeyPrefix string `json:"key_prefix,default=ledger:account"`           // Redis key 前缀
}

// RpcConfig 从集群拉取账户用于初始化本地账本
type RpcConfig struct {
	Endpoint string   `json:"endpoint,optional"` // Solana RPC 地址，为空则不拉取
	Accounts []string `json:"accounts,optional"` // 需要拉取的账户（base58）
}

// KafkaProducerConfig 表示 Kafka 生产者相关配置
type KafkaProducerConfig struct {
	Brokers    string `json:"brokers,optional"`                // Kafka broker 地址，多个用英文逗号分隔；为空则不发送
	BatchSize  int    `json:"batch_size,default=32768"`        // 批处理大小（单位字节）
	LingerMs   int    `json:"linger_ms,default=5"`             // 批处理最大延迟（毫秒）
	Topic      string `json:"topic,default=registry-outcomes"` // 调用结果 topic
	Partitions int    `json:"partitions,default=4"`            // topic 分区数
}

// TimeConfig 表示各种超时配置（单位：毫秒）
type TimeConfig struct {
	OutcomeSendTimeoutMs int `json:"outcome_send_timeout_ms,default=3000"` // 单条结果发送到 Kafka 并等待 ack 的超时时间
	SeedTimeoutMs        int `json:"seed_timeout_ms,default=5000"`         // RPC 拉取账户超时
}

// Config 是主配置结构体
type Config struct {
	LogConf           LogConfig           `json:"logger"`
	ProgramConf       ProgramConfig       `json:"program"`
	LedgerConf        LedgerConfig        `json:"ledger"`
	RpcConf           RpcConfig           `json:"rpc,optional"`
	KafkaProducerConf KafkaProducerConfig `json:"kafka_producer,optional"`
	TimeConf          TimeConfig          `json:"time_conf"`
}
