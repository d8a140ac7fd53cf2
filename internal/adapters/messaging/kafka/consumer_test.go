package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func testConsumer(h MessageHandler) *Consumer {
	return &Consumer{
		log:        zap.NewNop(),
		tracer:     otel.Tracer("test"),
		handler:    h,
		newBackOff: func() backoff.BackOff { return &backoff.ZeroBackOff{} },
	}
}

func records(n int) []*kgo.Record {
	out := make([]*kgo.Record, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &kgo.Record{
			Topic:  "doses",
			Offset: int64(i),
			Value:  []byte(fmt.Sprintf("o%d", i)),
		})
	}
	return out
}

type markLog []int64

func (m *markLog) mark(rs ...*kgo.Record) {
	for _, r := range rs {
		*m = append(*m, r.Offset)
	}
}

func TestProcessPartition_RetriesFailedRecordBeforeMovingOn(t *testing.T) {
	var calls []string
	failures := 2
	h := func(ctx context.Context, key, value []byte) error {
		calls = append(calls, string(value))
		switch string(value) {
		case "o0":
			if failures > 0 {
				failures--
				return errors.New("db down")
			}
		case "o2":
			return fmt.Errorf("%w: invalid json", ErrSkip)
		}
		return nil
	}

	var marked markLog
	n := testConsumer(h).processPartition(context.Background(), records(3), marked.mark)

	if n != 3 {
		t.Fatalf("expected 3 records marked, got %d", n)
	}
	want := []string{"o0", "o0", "o0", "o1", "o2"}
	if fmt.Sprint(calls) != fmt.Sprint(want) {
		t.Fatalf("expected calls %v, got %v", want, calls)
	}
	if fmt.Sprint(marked) != "[0 1 2]" {
		t.Fatalf("expected offsets marked in order, got %v", marked)
	}
}

func TestProcessPartition_StopsAtUnprocessedRecord(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls []string
	h := func(ctx context.Context, key, value []byte) error {
		calls = append(calls, string(value))
		if string(value) == "o1" {
			// El store sigue caído cuando el consumidor se detiene.
			cancel()
			return errors.New("db down")
		}
		return nil
	}

	var marked markLog
	n := testConsumer(h).processPartition(ctx, records(3), marked.mark)

	if n != 1 {
		t.Fatalf("expected 1 record marked, got %d", n)
	}
	if fmt.Sprint(marked) != "[0]" {
		t.Fatalf("expected only offset 0 marked, got %v", marked)
	}
	for _, c := range calls {
		if c == "o2" {
			t.Fatalf("record after the failed one must not be handled, calls %v", calls)
		}
	}
}

func TestExponential_Defaults(t *testing.T) {
	b, ok := exponential(0, 0)().(*backoff.ExponentialBackOff)
	if !ok {
		t.Fatalf("expected *backoff.ExponentialBackOff")
	}
	if b.InitialInterval != 500*time.Millisecond || b.MaxInterval != 30*time.Second {
		t.Fatalf("unexpected intervals: %v / %v", b.InitialInterval, b.MaxInterval)
	}
}
