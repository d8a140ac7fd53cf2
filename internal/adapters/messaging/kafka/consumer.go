// Package kafka ingiere eventos de dosis publicados por la app móvil.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ConsumerConfig struct {
	Brokers []string
	GroupID string
	Topic   string
	// StartOffset: "earliest" o "latest".
	StartOffset string
	// Reintentos de un record fallido: espera inicial y tope. Se reintenta
	// hasta que salga bien o se cancele el contexto.
	RetryInitial time.Duration
	RetryMax     time.Duration
}

// MessageHandler procesa un record. ErrSkip (envuelto) marca el record como
// descartable: se loguea y se confirma igual. Cualquier otro error se reintenta.
type MessageHandler func(ctx context.Context, key, value []byte) error

var ErrSkip = errors.New("skip record")

type Consumer struct {
	client     *kgo.Client
	log        *zap.Logger
	tracer     trace.Tracer
	handler    MessageHandler
	newBackOff func() backoff.BackOff
}

func NewConsumer(cfg ConsumerConfig, handler MessageHandler, log *zap.Logger) (*Consumer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if handler == nil {
		return nil, errors.New("message handler is required")
	}
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.GroupID == "" {
		return nil, errors.New("kafka brokers, topic and group are required")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.DisableAutoCommit(),
		kgo.OnPartitionsAssigned(func(ctx context.Context, _ *kgo.Client, assigned map[string][]int32) {
			log.Info("partitions assigned", zap.Any("partitions", assigned))
		}),
		kgo.OnPartitionsRevoked(func(ctx context.Context, _ *kgo.Client, revoked map[string][]int32) {
			log.Info("partitions revoked", zap.Any("partitions", revoked))
		}),
	}
	if cfg.StartOffset == "latest" {
		opts = append(opts, kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()))
	} else {
		opts = append(opts, kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &Consumer{
		client:     client,
		log:        log,
		tracer:     otel.Tracer("dose-consumer"),
		handler:    handler,
		newBackOff: exponential(cfg.RetryInitial, cfg.RetryMax),
	}, nil
}

func exponential(initial, max time.Duration) func() backoff.BackOff {
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	if max < initial {
		max = 30 * time.Second
	}
	return func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = initial
		b.MaxInterval = max
		return b
	}
}

// Run consume hasta que ctx se cancele. Cada partición se procesa en orden y
// un record fallido se reintenta antes de seguir: el offset confirmado nunca
// pasa por encima de un record sin procesar.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.close()

	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}

		// Los records que llegaron junto al error igual se procesan: la
		// posición de fetch ya avanzó sobre ellos.
		for _, fe := range fetches.Errors() {
			c.log.Error("fetch error",
				zap.String("topic", fe.Topic),
				zap.Int32("partition", fe.Partition),
				zap.Error(fe.Err))
		}

		fetches.EachPartition(func(p kgo.FetchTopicPartition) {
			c.processPartition(ctx, p.Records, c.client.MarkCommitRecords)
		})

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil && ctx.Err() == nil {
			c.log.Error("commit offsets failed", zap.Error(err))
		}
	}
}

// processPartition procesa recs en orden y marca cada uno al terminarlo.
// Si ctx se cancela antes de completar un record, corta ahí: ni ese ni los
// siguientes se marcan, y se vuelven a entregar tras reiniciar.
// Devuelve cuántos records quedaron marcados.
func (c *Consumer) processPartition(ctx context.Context, recs []*kgo.Record, mark func(...*kgo.Record)) int {
	for i, rec := range recs {
		if ctx.Err() != nil || !c.process(ctx, rec) {
			return i
		}
		mark(rec)
	}
	return len(recs)
}

// process devuelve false solo si ctx terminó antes de procesar el record.
func (c *Consumer) process(ctx context.Context, rec *kgo.Record) bool {
	ctx, span := c.tracer.Start(ctx, "process_dose_event",
		trace.WithAttributes(
			attribute.String("topic", rec.Topic),
			attribute.Int64("partition", int64(rec.Partition)),
			attribute.Int64("offset", rec.Offset),
		))
	defer span.End()

	attempt := 0
	handle := func() (struct{}, error) {
		attempt++
		err := c.handler(ctx, rec.Key, rec.Value)
		switch {
		case err == nil:
			return struct{}{}, nil
		case errors.Is(err, ErrSkip):
			c.log.Warn("dose event discarded",
				zap.Int32("partition", rec.Partition),
				zap.Int64("offset", rec.Offset),
				zap.Error(err))
			return struct{}{}, nil
		default:
			c.log.Error("dose event handler failed",
				zap.Int32("partition", rec.Partition),
				zap.Int64("offset", rec.Offset),
				zap.Int("attempt", attempt),
				zap.Error(err))
			span.RecordError(err)
			return struct{}{}, err
		}
	}

	_, err := backoff.Retry(ctx, handle,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxElapsedTime(0),
	)
	return err == nil
}

func (c *Consumer) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
		c.log.Warn("error committing offsets on stop", zap.Error(err))
	}
	c.client.Close()
}
