package mq

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registry-program-sol/internal/config"
)

const (
	testBrokers = "127.0.0.1:9092"
	testTopic   = "test-registry-outcomes"
)

// requireKafka 本地没有 broker 时跳过
func requireKafka(t *testing.T) {
	t.Helper()
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{"bootstrap.servers": testBrokers})
	if err != nil {
		t.Skipf("kafka not available: %v", err)
	}
	defer admin.Close()
	if _, err := admin.GetMetadata(nil, false, 1000); err != nil {
		t.Skipf("kafka not available: %v", err)
	}
}

func createTestProducer(t *testing.T) *kafka.Producer {
	t.Helper()
	producer, err := NewKafkaProducer(config.KafkaProducerConfig{
		Brokers:    testBrokers,
		BatchSize:  32 * 1024,
		LingerMs:   5,
		Topic:      testTopic,
		Partitions: 2,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		producer.Flush(1000)
		producer.Close()
	})
	return producer
}

func TestProducerConfigDefaults(t *testing.T) {
	cm := producerConfig(config.KafkaProducerConfig{Brokers: testBrokers, BatchSize: 0, LingerMs: -1})

	v, err := cm.Get("batch.size", nil)
	require.NoError(t, err)
	assert.Equal(t, defaultBatchSize, v)

	v, err = cm.Get("linger.ms", nil)
	require.NoError(t, err)
	assert.Equal(t, defaultLingerMs, v)

	v, err = cm.Get("enable.idempotence", nil)
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestSendKafkaJobsEmpty(t *testing.T) {
	ok, failed := SendKafkaJobs(context.Background(), nil, nil, time.Second)
	assert.Empty(t, ok)
	assert.Empty(t, failed)
}

func TestSendKafkaJobs_RealKafka(t *testing.T) {
	requireKafka(t)
	producer := createTestProducer(t)

	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers": testBrokers,
		"group.id":          "test-group-" + time.Now().Format("20060102150405"),
		"auto.offset.reset": "latest",
	})
	require.NoError(t, err)
	defer consumer.Close()
	require.NoError(t, consumer.Subscribe(testTopic, nil))
	// 等待分区分配完成
	_, _ = consumer.ReadMessage(2 * time.Second)

	stamp := time.Now().UnixNano()
	jobs := []*KafkaJob{
		{Topic: testTopic, Partition: 0, Value: []byte(fmt.Sprintf("outcome-%d-1", stamp))},
		{Topic: testTopic, Partition: 1, Value: []byte(fmt.Sprintf("outcome-%d-2", stamp))},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ok, failed := SendKafkaJobs(ctx, producer, jobs, 2*time.Second)
	assert.Len(t, ok, 2)
	assert.Empty(t, failed)

	received := make(map[string]bool)
	for i := 0; i < 2; i++ {
		msg, err := consumer.ReadMessage(5 * time.Second)
		require.NoError(t, err)
		received[string(msg.Value)] = true
	}
	assert.True(t, received[string(jobs[0].Value)])
	assert.True(t, received[string(jobs[1].Value)])
}

func TestSendKafkaJobs_RealKafka_Cancelled(t *testing.T) {
	requireKafka(t)
	producer := createTestProducer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, failed := SendKafkaJobs(ctx, producer, []*KafkaJob{{Topic: testTopic, Value: []byte("x")}}, time.Second)
	// 已取消的 ctx 与回执竞争，二者之一必然胜出
	assert.Equal(t, 1, len(ok)+len(failed))
}
