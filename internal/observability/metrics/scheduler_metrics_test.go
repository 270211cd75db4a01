package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

func TestClassifySchedulerJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: SchedulerJobReasonDeadlineExceeded},
		{name: "wrapped_canceled", err: fmt.Errorf("job: %w", context.Canceled), want: SchedulerJobReasonDeadlineExceeded},
		{name: "db_lock_timeout", err: &pgconn.PgError{Code: "55P03"}, want: SchedulerJobReasonDBLockTimeout},
		{name: "serialization_failure", err: &pgconn.PgError{Code: "40001"}, want: SchedulerJobReasonSerializationFailure},
		{name: "unique_violation", err: gorm.ErrDuplicatedKey, want: SchedulerJobReasonUniqueViolation},
		{name: "unknown", err: errors.New("boom"), want: SchedulerJobReasonUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifySchedulerJobReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestSchedulerMetricsCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newSchedulerMetrics(registry, Config{ServiceName: "foundr", Environment: "test"})

	m.IncJobRun("expire_subscriptions")
	m.IncJobRun("expire_subscriptions")
	m.IncJobError("expire_subscriptions", &pgconn.PgError{Code: "40001"})
	m.AddBatchProcessed("expire_subscriptions", "member_subscriptions", 3)
	m.AddBatchProcessed("expire_subscriptions", "member_subscriptions", 0)
	m.ObserveJobDuration("expire_subscriptions", 20*time.Millisecond)

	if got := testutil.ToFloat64(m.jobRuns.WithLabelValues("expire_subscriptions")); got != 2 {
		t.Fatalf("expected 2 runs, got %v", got)
	}
	if got := testutil.ToFloat64(m.jobErrors.WithLabelValues("expire_subscriptions", SchedulerJobReasonSerializationFailure)); got != 1 {
		t.Fatalf("expected 1 error, got %v", got)
	}
	if got := testutil.ToFloat64(m.batchProcessed.WithLabelValues("expire_subscriptions", "member_subscriptions")); got != 3 {
		t.Fatalf("expected 3 processed, got %v", got)
	}
}

func TestNilSchedulerMetricsIsSafe(t *testing.T) {
	var m *SchedulerMetrics
	m.IncJobRun("job")
	m.IncJobTimeout("job")
	m.IncJobError("job", errors.New("boom"))
	m.AddBatchProcessed("job", "rows", 1)
	m.ObserveJobDuration("job", time.Second)
	m.ObserveRunLoopLag(time.Second)
}
