package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/foundr/internal/clock"
	"github.com/smallbiznis/foundr/internal/events"
	"github.com/smallbiznis/foundr/internal/investor/domain"
	investorrepo "github.com/smallbiznis/foundr/internal/investor/repository"
	investorservice "github.com/smallbiznis/foundr/internal/investor/service"
	"github.com/smallbiznis/foundr/internal/ratelimit"
	"github.com/smallbiznis/foundr/internal/testutil/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func newService(t *testing.T, limit int) (domain.Service, *gorm.DB, *observer.ObservedLogs) {
	t.Helper()
	db := dbtest.Open(t)
	clk := clock.NewFakeClock(time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC))
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	svc := investorservice.New(investorservice.Params{
		DB:      db,
		Log:     log,
		GenID:   dbtest.Node(t),
		Clock:   clk,
		Repo:    investorrepo.Provide(),
		Limiter: ratelimit.NewLimiter(ratelimit.NewMemoryStore(clk), clk),
		Policies: ratelimit.Policies{
			InvestorInterest: ratelimit.Policy{Name: "investor_interest", Limit: limit, Window: 5 * time.Minute},
		},
		Publisher: events.NewLogPublisher(log),
	})
	return svc, db, logs
}

func validRequest() domain.SubmitRequest {
	return domain.SubmitRequest{
		FirstName:           "Marie",
		LastName:            "Curie",
		Email:               "Marie@Example.com",
		Country:             "France",
		UserType:            "Investor",
		Company:             "Radium Capital",
		Title:               "Partner",
		InvestorType:        "vc",
		AdditionalQuestions: "  When is the next demo day?  ",
	}
}

func TestSubmitStoresInterest(t *testing.T) {
	svc, db, logs := newService(t, 5)

	resp, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "Interest submitted successfully", resp.Message)
	assert.NotEmpty(t, resp.ID)

	var stored domain.InterestSubmission
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, resp.ID, stored.ID.String())
	assert.Equal(t, "marie@example.com", stored.Email)
	assert.Equal(t, "investor", stored.UserType)
	assert.Nil(t, stored.Phone)
	require.NotNil(t, stored.AdditionalQuestions)
	assert.Equal(t, "When is the next demo day?", *stored.AdditionalQuestions)

	published := logs.FilterMessage("event dropped, no broker configured").All()
	require.Len(t, published, 1)
	assert.Equal(t, events.TypeInvestorInterestSubmitted, published[0].ContextMap()["event_type"])
}

func TestSubmitRequiresFieldsInOrder(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.SubmitRequest)
		field  string
	}{
		{"first name", func(r *domain.SubmitRequest) { r.FirstName = "" }, "first_name"},
		{"last name and title", func(r *domain.SubmitRequest) { r.LastName = " "; r.Title = "" }, "last_name"},
		{"country", func(r *domain.SubmitRequest) { r.Country = "" }, "country"},
		{"investor type", func(r *domain.SubmitRequest) { r.InvestorType = "<script>x</script>" }, "investor_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, db, _ := newService(t, 5)
			req := validRequest()
			tt.mutate(&req)

			_, err := svc.Submit(context.Background(), req)
			var missing *domain.MissingFieldError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tt.field, missing.Field)
			assert.Equal(t, "Missing required field: "+tt.field, err.Error())

			var count int64
			require.NoError(t, db.Model(&domain.InterestSubmission{}).Count(&count).Error)
			assert.Zero(t, count)
		})
	}
}

func TestSubmitRejectsInvalidEmail(t *testing.T) {
	svc, _, _ := newService(t, 5)
	req := validRequest()
	req.Email = "marie-at-example"

	_, err := svc.Submit(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestSubmitRateLimitedByEmail(t *testing.T) {
	ctx := context.Background()
	svc, db, _ := newService(t, 2)

	for i := 0; i < 2; i++ {
		_, err := svc.Submit(ctx, validRequest())
		require.NoError(t, err)
	}

	_, err := svc.Submit(ctx, validRequest())
	require.ErrorIs(t, err, ratelimit.ErrLimitExceeded)
	assert.Equal(t, "Too many submissions. Please wait before trying again.", err.Error())

	other := validRequest()
	other.Email = "pierre@example.com"
	_, err = svc.Submit(ctx, other)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&domain.InterestSubmission{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}
