package event

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/rushteam/feedkit/core"
)

// Sink 是事件镜像出口（分析/数仓侧消费）。
// 异步非阻塞：镜像失败不影响请求路径，事件的权威存储始终是 Log。
type Sink interface {
	// Mirror 异步镜像一条事件（不阻塞）
	Mirror(ev *core.InteractionEvent) error

	// Close 优雅关闭（等待缓冲数据发送完成）
	Close() error
}

// KafkaSink 把交互事件批量镜像到 Kafka（生产环境的分析出口）。
type KafkaSink struct {
	client        *kgo.Client
	topic         string
	batchSize     int
	flushInterval time.Duration

	mu        sync.Mutex
	buffer    []*core.InteractionEvent
	lastFlush time.Time
	closed    bool
	closeOnce sync.Once
	wg        sync.WaitGroup
	stopCh    chan struct{}
}

// KafkaSinkConfig Kafka 镜像配置。
type KafkaSinkConfig struct {
	Brokers []string // Kafka Broker 地址列表
	Topic   string   // Kafka Topic

	BatchSize     int           // 批量大小（建议 100-1000）
	FlushInterval time.Duration // 刷新间隔（建议 1-5 秒）

	ClientID     string // 客户端 ID
	RequiredAcks int16  // 需要的 ACK 数量（1=leader, -1=all）
	Compression  string // 压缩类型（gzip, snappy, lz4, zstd）
	MaxRetries   int    // 最大重试次数
}

// NewKafkaSink 创建 Kafka 镜像出口。
func NewKafkaSink(config KafkaSinkConfig) (*KafkaSink, error) {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 1 * time.Second
	}
	if config.ClientID == "" {
		config.ClientID = "feedkit-event-sink"
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(config.Brokers...),
		kgo.ClientID(config.ClientID),
		kgo.RecordRetries(config.MaxRetries),
	}

	switch config.RequiredAcks {
	case 0:
		opts = append(opts, kgo.RequiredAcks(kgo.NoAck()), kgo.DisableIdempotentWrite())
	case -1:
		opts = append(opts, kgo.RequiredAcks(kgo.AllISRAcks()))
	default:
		opts = append(opts, kgo.RequiredAcks(kgo.LeaderAck()), kgo.DisableIdempotentWrite())
	}

	switch config.Compression {
	case "gzip":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.GzipCompression()))
	case "snappy":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.SnappyCompression()))
	case "lz4":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.Lz4Compression()))
	case "zstd":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.ZstdCompression()))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}

	s := &KafkaSink{
		client:        client,
		topic:         config.Topic,
		batchSize:     config.BatchSize,
		flushInterval: config.FlushInterval,
		buffer:        make([]*core.InteractionEvent, 0, config.BatchSize),
		lastFlush:     time.Now(),
		stopCh:        make(chan struct{}),
	}

	s.wg.Add(1)
	go s.flushLoop()

	return s, nil
}

// Mirror 非阻塞缓冲一条事件。
func (s *KafkaSink) Mirror(ev *core.InteractionEvent) error {
	if ev == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.buffer = append(s.buffer, ev)

	// 达到批量大小，触发发送
	if len(s.buffer) >= s.batchSize {
		go s.flush()
	}
	return nil
}

// flushLoop 定时刷新循环。
func (s *KafkaSink) flushLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			shouldFlush := len(s.buffer) > 0 && time.Since(s.lastFlush) >= s.flushInterval
			s.mu.Unlock()

			if shouldFlush {
				s.flush()
			}
		case <-s.stopCh:
			return
		}
	}
}

// flush 刷新缓冲到 Kafka。
func (s *KafkaSink) flush() {
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return
	}
	events := make([]*core.InteractionEvent, len(s.buffer))
	copy(events, s.buffer)
	s.buffer = s.buffer[:0]
	s.lastFlush = time.Now()
	s.mu.Unlock()

	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		record := &kgo.Record{
			Topic: s.topic,
			Key:   []byte(ev.UserID), // UserID 作为 Key，保证同一用户的事件有序
			Value: data,
		}
		// 异步发送；镜像链路失败只丢弃，权威存储在 Log
		s.client.Produce(context.Background(), record, nil)
	}
}

// Close 优雅关闭（等待缓冲数据发送完成）。
func (s *KafkaSink) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		close(s.stopCh)
		s.flush()
		s.wg.Wait()
		s.client.Close()
	})
	return nil
}

var _ Sink = (*KafkaSink)(nil)
