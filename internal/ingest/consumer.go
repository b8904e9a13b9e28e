package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/Shopify/sarama"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/windcover/internal/config"
)

const (
	defaultBatchSize    = 500
	defaultBatchTimeout = 2 * time.Second
)

// Consumer reads wind samples from a Kafka consumer group.
type Consumer struct {
	group   sarama.ConsumerGroup
	topic   string
	handler *handler
}

// NewConsumer joins the consumer group described by cfg.
func NewConsumer(cfg config.KafkaConfig, w SampleWriter) (*Consumer, error) {
	sc := sarama.NewConfig()
	sc.Consumer.Return.Errors = true
	sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	sc.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	sc.Consumer.Fetch.Default = 1024 * 1024
	sc.Consumer.MaxWaitTime = 250 * time.Millisecond

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, sc)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: create consumer group")
	}
	return &Consumer{
		group:   group,
		topic:   cfg.Topic,
		handler: newHandler(w, cfg.BatchSize, time.Duration(cfg.BatchTimeoutMs)*time.Millisecond),
	}, nil
}

// Run consumes until ctx is cancelled. Rebalances re-enter Consume.
func (c *Consumer) Run(ctx context.Context) error {
	log := zap.L().With(zap.String("component", "ingest"), zap.String("topic", c.topic))

	go func() {
		for err := range c.group.Errors() {
			log.Warn("ingest: consumer error", zap.Error(err))
		}
	}()

	for {
		if err := c.group.Consume(ctx, []string{c.topic}, c.handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) || errors.Is(err, context.Canceled) {
				return nil
			}
			return eris.Wrap(err, "ingest: consume")
		}
		if ctx.Err() != nil {
			log.Info("ingest: stopped", zap.Int64("written", c.handler.written.Load()))
			return nil
		}
	}
}

// Close leaves the consumer group.
func (c *Consumer) Close() error {
	return eris.Wrap(c.group.Close(), "ingest: close consumer group")
}
