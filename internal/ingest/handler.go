package ingest

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Shopify/sarama"
	"go.uber.org/zap"
)

// handler implements sarama.ConsumerGroupHandler. Each claim batches its own
// messages and marks the last offset only after the batch is written, so a
// crash redelivers unwritten samples.
type handler struct {
	writer    SampleWriter
	batchSize int
	timeout   time.Duration
	written   atomic.Int64
	skipped   atomic.Int64
}

func newHandler(w SampleWriter, batchSize int, timeout time.Duration) *handler {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if timeout <= 0 {
		timeout = defaultBatchTimeout
	}
	return &handler{writer: w, batchSize: batchSize, timeout: timeout}
}

func (h *handler) Setup(_ sarama.ConsumerGroupSession) error   { return nil }
func (h *handler) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }

func (h *handler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	b := &batch{msgs: make([]Message, 0, h.batchSize)}

	ticker := time.NewTicker(h.timeout)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return h.flush(ctx, sess, b)
			}
			b.last = msg
			m, err := Decode(msg.Value)
			if err != nil {
				h.skipped.Add(1)
				zap.L().Warn("ingest: skipping bad message",
					zap.Int32("partition", msg.Partition),
					zap.Int64("offset", msg.Offset),
					zap.Error(err),
				)
				continue
			}
			b.msgs = append(b.msgs, m)
			if len(b.msgs) >= h.batchSize {
				if err := h.flush(ctx, sess, b); err != nil {
					return err
				}
			}
		case <-ticker.C:
			if err := h.flush(ctx, sess, b); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

type batch struct {
	msgs []Message
	last *sarama.ConsumerMessage
}

func (h *handler) flush(ctx context.Context, sess sarama.ConsumerGroupSession, b *batch) error {
	if b.last == nil {
		return nil
	}
	if len(b.msgs) > 0 {
		n, err := h.writer.WriteSamples(ctx, b.msgs)
		if err != nil {
			zap.L().Error("ingest: write batch failed", zap.Int("messages", len(b.msgs)), zap.Error(err))
			return err
		}
		h.written.Add(n)
		zap.L().Debug("ingest: batch written", zap.Int64("rows", n))
	}
	sess.MarkMessage(b.last, "")
	b.msgs = b.msgs[:0]
	b.last = nil
	return nil
}
