package job

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type sweeperTestStub struct {
	calls *int32
}

func (s *sweeperTestStub) SweepAll(ctx context.Context) (int, []string) {
	atomic.AddInt32(s.calls, 1)
	return 5, nil
}

type prunerTestStub struct {
	cutoffs chan time.Time
	calls   *int32
}

func (p *prunerTestStub) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	atomic.AddInt32(p.calls, 1)
	select {
	case p.cutoffs <- cutoff:
	default:
	}
	return 0, nil
}

func TestValidationJobRunsAtLeastOnce(t *testing.T) {
	var sweeps, prunes int32
	sweeper := &sweeperTestStub{calls: &sweeps}
	pruner := &prunerTestStub{cutoffs: make(chan time.Time, 1), calls: &prunes}
	job := NewValidationJob(trace.NewNoopTracerProvider().Tracer("test"), sweeper, pruner,
		50*time.Millisecond, 24*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	if atomic.LoadInt32(&sweeps) == 0 {
		t.Fatal("expected at least one validation sweep")
	}
	if atomic.LoadInt32(&prunes) == 0 {
		t.Fatal("expected at least one retention prune")
	}

	cutoff := <-pruner.cutoffs
	age := time.Since(cutoff)
	if age < 23*time.Hour || age > 25*time.Hour {
		t.Fatalf("expected cutoff about 24h in the past, got %s", age)
	}
}

func TestValidationJobSkipsPruneWithoutRetention(t *testing.T) {
	var sweeps, prunes int32
	sweeper := &sweeperTestStub{calls: &sweeps}
	pruner := &prunerTestStub{cutoffs: make(chan time.Time, 1), calls: &prunes}
	job := NewValidationJob(trace.NewNoopTracerProvider().Tracer("test"), sweeper, pruner,
		50*time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	if atomic.LoadInt32(&prunes) != 0 {
		t.Fatal("prune must not run with zero retention")
	}
}

func TestValidationJobDefaultInterval(t *testing.T) {
	job := NewValidationJob(trace.NewNoopTracerProvider().Tracer("test"), nil, nil, 0, 0)
	if job.pollInterval != 15*time.Minute {
		t.Fatalf("expected 15m default interval, got %s", job.pollInterval)
	}
}
