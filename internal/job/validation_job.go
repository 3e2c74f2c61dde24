package job

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type Sweeper interface {
	SweepAll(ctx context.Context) (int, []string)
}

type RunPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ValidationJob revalidates every tracked symbol on a fixed interval and
// prunes persisted runs past the retention window.
type ValidationJob struct {
	tracer       trace.Tracer
	sweeper      Sweeper
	pruner       RunPruner
	pollInterval time.Duration
	retention    time.Duration
}

func NewValidationJob(tracer trace.Tracer, sweeper Sweeper, pruner RunPruner, pollInterval, retention time.Duration) *ValidationJob {
	if pollInterval <= 0 {
		pollInterval = 15 * time.Minute
	}
	return &ValidationJob{
		tracer:       tracer,
		sweeper:      sweeper,
		pruner:       pruner,
		pollInterval: pollInterval,
		retention:    retention,
	}
}

func (j *ValidationJob) Start(ctx context.Context) {
	if j.sweeper == nil {
		log.Println("Validation job disabled: no sweeper")
		<-ctx.Done()
		return
	}

	j.runOnce(ctx)
	ticker := time.NewTicker(j.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *ValidationJob) runOnce(ctx context.Context) {
	ctx, span := j.tracer.Start(ctx, "validation-job.run-once")
	defer span.End()

	validated, errs := j.sweeper.SweepAll(ctx)
	if len(errs) > 0 {
		log.Printf("Validation sweep finished with errors validated=%d errors=%v", validated, errs)
	}

	if j.pruner == nil || j.retention <= 0 {
		return
	}
	cutoff := time.Now().UTC().Add(-j.retention)
	removed, err := j.pruner.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Printf("Run retention prune error: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Pruned %d validation runs older than %s", removed, cutoff.Format(time.RFC3339))
	}
}
