package repository

import (
	"context"
	"encoding/json"
	"time"

	"sovereign-veritas/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

const createValidationRunsTable = `
CREATE TABLE IF NOT EXISTS validation_runs (
    id            BIGSERIAL   PRIMARY KEY,
    symbol        TEXT        NOT NULL,
    success       BOOLEAN     NOT NULL,
    halted        BOOLEAN     NOT NULL,
    halt_reason   TEXT        NOT NULL DEFAULT '',
    timed_out     BOOLEAN     NOT NULL,
    overall_score NUMERIC     NOT NULL,
    per_category  JSONB       NOT NULL,
    findings      JSONB       NOT NULL,
    summary       TEXT        NOT NULL,
    started_at    TIMESTAMPTZ NOT NULL,
    duration_ms   BIGINT      NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_validation_runs_symbol_started
    ON validation_runs (symbol, started_at DESC);
`

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// RunRecord is the persisted shape of a completed orchestration run.
type RunRecord struct {
	ID           int64                      `json:"id"`
	Symbol       string                     `json:"symbol"`
	Success      bool                       `json:"success"`
	Halted       bool                       `json:"halted"`
	HaltReason   string                     `json:"halt_reason"`
	TimedOut     bool                       `json:"timed_out"`
	OverallScore float64                    `json:"overall_score"`
	PerCategory  map[domain.Stage]float64   `json:"per_category"`
	Findings     []domain.ValidationFinding `json:"findings"`
	Summary      string                     `json:"summary"`
	StartedAt    time.Time                  `json:"started_at"`
	DurationMs   int64                      `json:"duration_ms"`
}

type RunRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewRunRepository(pool PgxPool, tracer trace.Tracer) *RunRepository {
	return &RunRepository{pool: pool, tracer: tracer}
}

func (r *RunRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "run-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createValidationRunsTable)
	return err
}

func (r *RunRepository) InsertRun(ctx context.Context, res domain.OrchestrationResult) error {
	_, span := r.tracer.Start(ctx, "run-repo.insert-run")
	defer span.End()

	perCategory, err := json.Marshal(res.Confidence.PerCategory)
	if err != nil {
		return err
	}
	findings := res.Confidence.Findings
	if findings == nil {
		findings = []domain.ValidationFinding{}
	}
	findingsJSON, err := json.Marshal(findings)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO validation_runs
		     (symbol, success, halted, halt_reason, timed_out, overall_score,
		      per_category, findings, summary, started_at, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		res.Symbol, res.Success, res.Halted, res.HaltReason, res.TimedOut,
		res.Confidence.Overall, perCategory, findingsJSON, res.Summary,
		res.StartedAt, res.Duration.Milliseconds(),
	)
	return err
}

func (r *RunRepository) GetRecentRuns(ctx context.Context, symbol string, limit int) ([]*RunRecord, error) {
	_, span := r.tracer.Start(ctx, "run-repo.get-recent-runs")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, symbol, success, halted, halt_reason, timed_out, overall_score,
		        per_category, findings, summary, started_at, duration_ms
		 FROM validation_runs
		 WHERE symbol = $1
		 ORDER BY started_at DESC
		 LIMIT $2`,
		symbol, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		rec := &RunRecord{}
		var perCategory, findings []byte
		if err := rows.Scan(&rec.ID, &rec.Symbol, &rec.Success, &rec.Halted, &rec.HaltReason,
			&rec.TimedOut, &rec.OverallScore, &perCategory, &findings, &rec.Summary,
			&rec.StartedAt, &rec.DurationMs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(perCategory, &rec.PerCategory); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(findings, &rec.Findings); err != nil {
			return nil, err
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// DeleteOlderThan trims history past the retention window and returns the
// number of rows removed.
func (r *RunRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	_, span := r.tracer.Start(ctx, "run-repo.delete-older-than")
	defer span.End()

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM validation_runs WHERE started_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
