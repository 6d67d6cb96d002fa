package main

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Consumer interface {
	Consume(ctx context.Context) error
}

type shelfWriter interface {
	Write(ctx context.Context, shelf Shelf)
}

// drainer is implemented by queues losing their content on exit.
type drainer interface {
	Drain() []Shelf
}

const (
	drainTimeout  = 5 * time.Second
	popRetryDelay = time.Second
)

// snapshotConsumer is the single reader of the snapshot queue. Being
// alone it writes snapshots in the order they were pushed.
type snapshotConsumer struct {
	logger     *zap.Logger
	queue      Queuer
	writer     shelfWriter
	retryDelay time.Duration
}

func NewSnapshotConsumer(logger *zap.Logger, q Queuer, w shelfWriter) Consumer {
	return &snapshotConsumer{logger: logger, queue: q, writer: w, retryDelay: popRetryDelay}
}

func (sc *snapshotConsumer) Consume(ctx context.Context) error {
	for {
		shelf, err := sc.queue.Pop(ctx)
		if err != nil && ctx.Err() != nil {
			sc.logger.Info("consumer: queue pop call: context is done: exit", zap.String("reason", ctx.Err().Error()))
			sc.drain(ctx)
			return nil
		}

		if err != nil {
			sc.logger.Error("consumer: error on queue pop call", zap.Error(err), zap.Duration("retry.in", sc.retryDelay))
			select {
			case <-ctx.Done():
			case <-time.After(sc.retryDelay):
			}
			continue
		}

		sc.writer.Write(ctx, shelf)
	}
}

// drain writes the most recent pending snapshot. Each snapshot holds the
// whole shelf so the older ones are superseded.
func (sc *snapshotConsumer) drain(ctx context.Context) {
	d, ok := sc.queue.(drainer)
	if !ok {
		return
	}
	pending := d.Drain()
	if len(pending) == 0 {
		return
	}
	dCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()
	sc.logger.Info("consumer: writing last pending snapshot", zap.Int("pending", len(pending)))
	sc.writer.Write(dCtx, pending[len(pending)-1])
}
