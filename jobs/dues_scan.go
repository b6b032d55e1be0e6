package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/campusledger/campusledger/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DuesScanJob sweeps the ledger for students whose outstanding balance
// crossed the reporting thresholds.
type DuesScanJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewDuesScanJob initialises the dues scan handler.
func NewDuesScanJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *DuesScanJob {
	return &DuesScanJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the dues scan logic.
func (j *DuesScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("dues scan: handler not configured")
	}
	var payload DuesScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.MinDue <= 0 {
		payload.MinDue = 1000
	}
	if payload.HighDue <= payload.MinDue {
		payload.HighDue = payload.MinDue * 10
	}

	start := j.now()
	tracker := j.metrics().Track(TaskTypeDuesScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(
		slog.Float64("min_due", payload.MinDue),
		slog.Float64("high_due", payload.HighDue),
	)
	logger.Info("starting dues scan")

	scanned, overdue, err := j.scan(ctx, payload)
	if err != nil {
		resultErr = err
		logger.Error("scan failed", slog.Any("error", err))
		return resultErr
	}

	for _, o := range overdue {
		logger.Warn("student over dues threshold",
			slog.String("student_id", o.StudentID),
			slog.String("severity", o.Severity),
			slog.Float64("due", o.Due),
		)
		j.metrics().AddOverdueStudents(o.Severity, 1)
	}

	logger.Info("completed dues scan",
		slog.Int("students", scanned),
		slog.Int("overdue", len(overdue)),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

type overdueStudent struct {
	StudentID string
	Due       float64
	Severity  string
}

func (j *DuesScanJob) scan(ctx context.Context, payload DuesScanPayload) (int, []overdueStudent, error) {
	if j.Pool == nil {
		return 0, nil, errors.New("dues scan: pool not configured")
	}
	rows, err := j.Pool.Query(ctx, `
		SELECT student_id,
		       SUM(demand)::double precision AS demand,
		       SUM(paid)::double precision AS paid
		FROM (
			SELECT student_id, amount AS demand, 0 AS paid FROM student_fees
			UNION ALL
			SELECT student_id, 0, amount FROM fee_transactions
		) entries
		GROUP BY student_id
		ORDER BY SUM(demand) - SUM(paid) DESC`)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	students := 0
	var overdue []overdueStudent
	for rows.Next() {
		var studentID string
		var demand, paid float64
		if err := rows.Scan(&studentID, &demand, &paid); err != nil {
			return 0, nil, err
		}
		students++
		due := demand - paid
		if due < payload.MinDue {
			continue
		}
		severity := "MEDIUM"
		if due >= payload.HighDue {
			severity = "HIGH"
		}
		overdue = append(overdue, overdueStudent{StudentID: studentID, Due: due, Severity: severity})
	}
	if err := rows.Err(); err != nil {
		return 0, nil, err
	}
	return students, overdue, nil
}

func (j *DuesScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeDuesScan))
	}
	return slog.Default().With(slog.String("job", TaskTypeDuesScan))
}

func (j *DuesScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DuesScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
