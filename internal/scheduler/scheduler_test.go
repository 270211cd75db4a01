package scheduler

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smallbiznis/foundr/internal/clock"
	"github.com/smallbiznis/foundr/internal/events"
	obsmetrics "github.com/smallbiznis/foundr/internal/observability/metrics"
	subscriptiondomain "github.com/smallbiznis/foundr/internal/subscription/domain"
	subscriptionrepo "github.com/smallbiznis/foundr/internal/subscription/repository"
	"github.com/smallbiznis/foundr/internal/testutil/dbtest"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

var schedulerNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T, db *gorm.DB, cfg Config) (*Scheduler, *recordingPublisher) {
	t.Helper()
	publisher := &recordingPublisher{}
	sched, err := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     dbtest.Node(t),
		Clock:     clock.NewFakeClock(schedulerNow),
		SubRepo:   subscriptionrepo.Provide(),
		Publisher: publisher,
		Config:    cfg,
	})
	require.NoError(t, err)
	return sched, publisher
}

func insertSubscription(t *testing.T, db *gorm.DB, node *snowflake.Node, active bool, endDate *time.Time) subscriptiondomain.MemberSubscription {
	t.Helper()
	sub := subscriptiondomain.MemberSubscription{
		ID:        node.Generate(),
		MemberID:  node.Generate(),
		TierID:    "forge",
		Status:    subscriptiondomain.StatusActive,
		IsActive:  active,
		StartDate: schedulerNow.AddDate(0, 0, -60),
		EndDate:   endDate,
		CreatedAt: schedulerNow.AddDate(0, 0, -60),
		UpdatedAt: schedulerNow.AddDate(0, 0, -60),
	}
	require.NoError(t, subscriptionrepo.Provide().Insert(context.Background(), db, &sub))
	return sub
}

func loadSubscription(t *testing.T, db *gorm.DB, id snowflake.ID) subscriptiondomain.MemberSubscription {
	t.Helper()
	var sub subscriptiondomain.MemberSubscription
	require.NoError(t, db.First(&sub, "id = ?", id).Error)
	return sub
}

func TestExpireSubscriptionsJobDeactivatesLapsedTerms(t *testing.T) {
	db := dbtest.Open(t)
	node := dbtest.Node(t)

	lapsedEnd := schedulerNow.AddDate(0, 0, -1)
	futureEnd := schedulerNow.AddDate(0, 0, 10)
	lapsed := insertSubscription(t, db, node, true, &lapsedEnd)
	running := insertSubscription(t, db, node, true, &futureEnd)
	free := insertSubscription(t, db, node, true, nil)
	alreadyOff := insertSubscription(t, db, node, false, &lapsedEnd)

	sched, publisher := newTestScheduler(t, db, Config{BatchSize: 10})
	require.NoError(t, sched.RunOnce(context.Background()))

	got := loadSubscription(t, db, lapsed.ID)
	require.False(t, got.IsActive)
	require.Equal(t, subscriptiondomain.StatusExpired, got.Status)

	require.True(t, loadSubscription(t, db, running.ID).IsActive)
	require.True(t, loadSubscription(t, db, free.ID).IsActive)
	require.Equal(t, subscriptiondomain.StatusActive, loadSubscription(t, db, alreadyOff.ID).Status)

	require.Len(t, publisher.events, 1)
	require.Equal(t, events.TypeSubscriptionExpired, publisher.events[0].Type)
	data, ok := publisher.events[0].Data.(subscriptionExpiredData)
	require.True(t, ok)
	require.Equal(t, lapsed.ID.String(), data.SubscriptionID)
}

func TestExpireSubscriptionsJobDrainsInBatches(t *testing.T) {
	db := dbtest.Open(t)
	node := dbtest.Node(t)

	for i := 0; i < 5; i++ {
		end := schedulerNow.Add(-time.Duration(i+1) * time.Hour)
		insertSubscription(t, db, node, true, &end)
	}

	sched, publisher := newTestScheduler(t, db, Config{BatchSize: 2})
	require.NoError(t, sched.RunOnce(context.Background()))

	var remaining int64
	require.NoError(t, db.Model(&subscriptiondomain.MemberSubscription{}).Where("is_active = ?", true).Count(&remaining).Error)
	require.Zero(t, remaining)
	require.Len(t, publisher.events, 5)
}

func TestRunOnceSkipsDisabledJobs(t *testing.T) {
	db := dbtest.Open(t)
	node := dbtest.Node(t)

	end := schedulerNow.AddDate(0, 0, -1)
	sub := insertSubscription(t, db, node, true, &end)

	sched, publisher := newTestScheduler(t, db, Config{EnabledJobs: []string{"something_else"}})
	require.NoError(t, sched.RunOnce(context.Background()))

	require.True(t, loadSubscription(t, db, sub.ID).IsActive)
	require.Empty(t, publisher.events)
}

func TestRunJobTimeoutDoesNotReturnErrorAndIncrementsTimeout(t *testing.T) {
	registry := prometheus.NewRegistry()
	oldRegisterer := prometheus.DefaultRegisterer
	prometheus.DefaultRegisterer = registry
	obsmetrics.ResetSchedulerMetricsForTest()
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = oldRegisterer
		obsmetrics.ResetSchedulerMetricsForTest()
	})

	sched := &Scheduler{
		log:     zap.NewNop(),
		genID:   dbtest.Node(t),
		clock:   clock.NewFakeClock(schedulerNow),
		cfg:     DefaultConfig(),
		metrics: obsmetrics.SchedulerWithConfig(obsmetrics.Config{ServiceName: "foundr", Environment: "test"}),
	}

	err := sched.runJob(context.Background(), "timeout_job", 5*time.Millisecond, func(ctx context.Context, _ *jobRun) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	expected := `
# HELP foundr_scheduler_job_timeouts_total Scheduler job timeouts.
# TYPE foundr_scheduler_job_timeouts_total counter
foundr_scheduler_job_timeouts_total{env="test",job="timeout_job",service="foundr"} 1
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "foundr_scheduler_job_timeouts_total"))
}

func TestNewRejectsMissingDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	require.ErrorIs(t, err, ErrInvalidConfig)
}
