package svc

import (
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"google.golang.org/protobuf/types/known/structpb"

	"registry-program-sol/internal/consts"
	"registry-program-sol/internal/ledger"
	"registry-program-sol/internal/mq"
	"registry-program-sol/internal/types"
	"registry-program-sol/internal/utils"
	"registry-program-sol/pkg/logger"
)

// OutcomePublisher 将调用结果编码为事件并发送到 Kafka
type OutcomePublisher struct {
	producer   *kafka.Producer
	topic      string
	partitions uint32
	timeout    time.Duration
	eventTypes map[types.Pubkey]uint32
}

func NewOutcomePublisher(producer *kafka.Producer, topic string, partitions int, timeout time.Duration, eventTypes map[types.Pubkey]uint32) *OutcomePublisher {
	if partitions <= 0 {
		partitions = 1
	}
	return &OutcomePublisher{
		producer:   producer,
		topic:      topic,
		partitions: uint32(partitions),
		timeout:    timeout,
		eventTypes: eventTypes,
	}
}

// Publish 发送一批结果，返回第一条失败原因
func (p *OutcomePublisher) Publish(ctx context.Context, outcomes []*ledger.Outcome) error {
	jobs := make([]*mq.KafkaJob, 0, len(outcomes))
	for _, o := range outcomes {
		job, err := BuildOutcomeJob(p.topic, p.partitions, p.eventTypes[o.ProgramID], o)
		if err != nil {
			return err
		}
		jobs = append(jobs, job)
	}

	start := time.Now()
	ok, failed := mq.SendKafkaJobs(ctx, p.producer, jobs, p.timeout)
	if len(failed) > 0 {
		logger.Errorf("[OutcomePublisher] 发送失败 %d/%d 条: %v", len(failed), len(jobs), failed[0].Err)
		return fmt.Errorf("publish %d outcomes failed: %w", len(failed), failed[0].Err)
	}
	logger.Infof("[OutcomePublisher] 发送成功 %d 条, 耗时: %v", len(ok), time.Since(start))
	return nil
}

// BuildOutcomeJob 按程序地址选择分区，同一程序的结果保持顺序
func BuildOutcomeJob(topic string, partitions uint32, eventType uint32, o *ledger.Outcome) (*mq.KafkaJob, error) {
	msg, err := OutcomeToStruct(o)
	if err != nil {
		return nil, err
	}
	value, err := utils.EncodeEvent(eventType, msg)
	if err != nil {
		return nil, err
	}
	return &mq.KafkaJob{
		Topic:     topic,
		Partition: int32(utils.PartitionHashBytes(o.ProgramID[:], partitions)),
		Key:       o.ProgramID[:],
		Value:     value,
	}, nil
}

// OutcomeToStruct 结果事件的消息体
func OutcomeToStruct(o *ledger.Outcome) (*structpb.Struct, error) {
	logs := make([]any, len(o.Logs))
	for i, l := range o.Logs {
		logs[i] = l
	}
	changed := make([]any, len(o.Changed))
	for i, k := range o.Changed {
		changed[i] = k.String()
	}
	errText := ""
	if o.Err != nil {
		errText = o.Err.Error()
	}

	return structpb.NewStruct(map[string]any{
		"chain_id":    consts.ChainIDSolana,
		"program":     o.ProgramID.String(),
		"code":        o.Code,
		"error":       errText,
		"logs":        logs,
		"changed":     changed,
		"duration_us": o.Duration.Microseconds(),
	})
}
