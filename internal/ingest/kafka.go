// Kafka 기반 채팅 이벤트 수집
//
// 수집기가 토픽에 JSON IncidentEvent를 발행하면 Consumer가 읽어 파이프라인에 전달
// 처리 결과와 무관하게 오프셋을 커밋 (잘못된 메시지도 커밋 후 버림)

package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ffnexus/incident-watch/internal/config"
	"github.com/ffnexus/incident-watch/internal/metrics"
	"github.com/ffnexus/incident-watch/internal/model"
	"github.com/ffnexus/incident-watch/internal/service"
)

const maxBackoff = 10 * time.Second

// fetcher - kafka.Reader 중 Consumer가 사용하는 부분
type fetcher interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// eventHandler - 이벤트 파이프라인 인터페이스
type eventHandler interface {
	Handle(ctx context.Context, ev model.IncidentEvent) service.Outcome
}

// Consumer 구조체 정의
type Consumer struct {
	reader  fetcher
	handler eventHandler
	topic   string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewConsumer - 설정으로 kafka.Reader를 만들어 Consumer 생성
func NewConsumer(cfg config.KafkaConfig, handler eventHandler, logger *slog.Logger, m *metrics.Metrics) (*Consumer, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("no kafka brokers configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic must not be empty")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	return newConsumer(reader, cfg.Topic, handler, logger, m), nil
}

func newConsumer(reader fetcher, topic string, handler eventHandler, logger *slog.Logger, m *metrics.Metrics) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		reader:  reader,
		handler: handler,
		topic:   topic,
		logger:  logger.With(slog.String("topic", topic)),
		metrics: m,
	}
}

// Run - ctx가 끝날 때까지 메시지를 읽어 처리
// fetch 실패 시 지수 백오프 (최대 10초)
func (c *Consumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.Error("kafka reader close failed", "error", err)
		}
	}()
	c.logger.Info("kafka consumer started")

	backoff := time.Second
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.Info("kafka consumer stopped")
				return nil
			}
			c.logger.Error("kafka fetch failed", "error", err, "backoff", backoff)
			select {
			case <-time.After(backoff):
				backoff = nextBackoff(backoff)
				continue
			case <-ctx.Done():
				c.logger.Info("kafka consumer stopped")
				return nil
			}
		}
		backoff = time.Second

		c.handle(ctx, msg)
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("kafka commit failed", "error", err, "partition", msg.Partition, "offset", msg.Offset)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	var ev model.IncidentEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		c.metrics.Event(string(service.OutcomeMalformed))
		c.logger.Warn("dropping undecodable kafka message",
			"error", err,
			"partition", msg.Partition,
			"offset", msg.Offset,
		)
		return
	}
	outcome := c.handler.Handle(ctx, ev)
	c.logger.Debug("kafka event handled", "outcome", outcome, "offset", msg.Offset)
}

// nextBackoff - 두 배로 늘리되 maxBackoff를 넘지 않음
func nextBackoff(cur time.Duration) time.Duration {
	return min(cur*2, maxBackoff)
}
