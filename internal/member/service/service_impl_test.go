package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/smallbiznis/foundr/internal/clock"
	"github.com/smallbiznis/foundr/internal/config"
	"github.com/smallbiznis/foundr/internal/events"
	"github.com/smallbiznis/foundr/internal/member/domain"
	memberrepo "github.com/smallbiznis/foundr/internal/member/repository"
	memberservice "github.com/smallbiznis/foundr/internal/member/service"
	paymentdomain "github.com/smallbiznis/foundr/internal/payment/domain"
	"github.com/smallbiznis/foundr/internal/payment/paymenttest"
	paymentrepo "github.com/smallbiznis/foundr/internal/payment/repository"
	paymentservice "github.com/smallbiznis/foundr/internal/payment/service"
	"github.com/smallbiznis/foundr/internal/ratelimit"
	referencerepo "github.com/smallbiznis/foundr/internal/reference/repository"
	referenceservice "github.com/smallbiznis/foundr/internal/reference/service"
	subscriptiondomain "github.com/smallbiznis/foundr/internal/subscription/domain"
	subscriptionrepo "github.com/smallbiznis/foundr/internal/subscription/repository"
	"github.com/smallbiznis/foundr/internal/testutil/dbtest"
	tierrepo "github.com/smallbiznis/foundr/internal/tier/repository"
	tierservice "github.com/smallbiznis/foundr/internal/tier/service"
	"github.com/smallbiznis/foundr/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
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

type fixture struct {
	db        *gorm.DB
	clock     *clock.FakeClock
	svc       domain.Service
	payments  paymentdomain.Service
	gateway   *paymenttest.Gateway
	publisher *recordingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	db := dbtest.Open(t)
	node := dbtest.Node(t)
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	tierSvc := tierservice.New(tierservice.Params{DB: db, Log: log, Clock: clk, Repo: tierrepo.Provide()})
	holder, err := config.NewStaticTierCatalogHolder(config.DefaultTierCatalog())
	require.NoError(t, err)
	require.NoError(t, tierSvc.SyncCatalog(ctx, holder.Get()))

	referenceSvc := referenceservice.New(referenceservice.Params{DB: db, Log: log, Repo: referencerepo.Provide()})
	_, err = referenceSvc.SeedCountries(ctx)
	require.NoError(t, err)

	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(clk), clk)
	policies := ratelimit.Policies{
		PaymentIntent: ratelimit.Policy{Name: "payment_intent", Limit: 100, Window: time.Minute},
		Registration:  ratelimit.Policy{Name: "register", Limit: 5, Window: 5 * time.Minute},
	}

	gateway := paymenttest.NewGateway()
	payments := paymentservice.NewService(paymentservice.Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    clk,
		Config:   config.Config{Payment: config.PaymentConfig{DefaultCurrency: "eur", VerifyTierPrice: true}},
		Repo:     paymentrepo.Provide(),
		Gateway:  gateway,
		TierSvc:  tierSvc,
		SubRepo:  subscriptionrepo.Provide(),
		Limiter:  limiter,
		Policies: policies,
	})

	publisher := &recordingPublisher{}
	svc := memberservice.New(memberservice.Params{
		DB:           db,
		Log:          log,
		GenID:        node,
		Clock:        clk,
		Repo:         memberrepo.Provide(),
		SubRepo:      subscriptionrepo.Provide(),
		PaymentRepo:  paymentrepo.Provide(),
		PaymentSvc:   payments,
		TierSvc:      tierSvc,
		ReferenceSvc: referenceSvc,
		Limiter:      limiter,
		Policies:     policies,
		Publisher:    publisher,
	})

	return fixture{db: db, clock: clk, svc: svc, payments: payments, gateway: gateway, publisher: publisher}
}

func founderInput(email string) domain.MemberInput {
	teamSize := 4
	return domain.MemberInput{
		UserType:     "founder",
		Email:        email,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Phone:        "+49 30 1234567",
		Country:      "DE",
		LinkedinURL:  "https://www.linkedin.com/in/ada",
		CompanyName:  "Engines GmbH",
		Industry:     "Computing",
		StartupStage: "mvp",
		TeamSize:     &teamSize,
	}
}

func TestRegisterFreeTier(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	resp, err := f.svc.Register(ctx, domain.RegisterRequest{
		Member: founderInput("ada@example.com"),
		TierID: "explorer",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.MemberID)

	var member domain.Member
	require.NoError(t, f.db.Where("email = ?", "ada@example.com").First(&member).Error)
	assert.Equal(t, resp.MemberID, member.ID.String())
	assert.Equal(t, domain.UserTypeFounder, member.UserType)
	require.NotNil(t, member.CountryID)
	assert.Nil(t, member.StripeCustomerID)

	var founder domain.Founder
	require.NoError(t, f.db.Where("member_id = ?", member.ID).First(&founder).Error)
	require.NotNil(t, founder.CompanyName)
	assert.Equal(t, "Engines GmbH", *founder.CompanyName)
	require.NotNil(t, founder.TeamSize)
	assert.Equal(t, 4, *founder.TeamSize)

	var sub subscriptiondomain.MemberSubscription
	require.NoError(t, f.db.Where("member_id = ?", member.ID).First(&sub).Error)
	assert.Equal(t, "explorer", sub.TierID)
	assert.Nil(t, sub.PaymentIntentID)
	assert.Nil(t, sub.EndDate)
	assert.True(t, sub.IsActive)

	assert.Empty(t, f.gateway.Customers)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.TypeMemberRegistered, f.publisher.events[0].Type)
}

func TestRegisterPaidTier(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	intent, err := f.payments.CreateIntent(ctx, paymentdomain.CreateIntentRequest{TierID: "forge", Amount: 29900})
	require.NoError(t, err)

	resp, err := f.svc.Register(ctx, domain.RegisterRequest{
		Member:          founderInput("grace@example.com"),
		TierID:          "forge",
		PaymentIntentID: intent.PaymentIntentID,
	})
	require.NoError(t, err)

	var member domain.Member
	require.NoError(t, f.db.Where("email = ?", "grace@example.com").First(&member).Error)
	require.NotNil(t, member.StripeCustomerID)
	assert.Equal(t, "cus_test_1", *member.StripeCustomerID)
	require.Len(t, f.gateway.Customers, 1)
	assert.Equal(t, "grace@example.com", f.gateway.Customers[0].Email)
	assert.Equal(t, "Ada Lovelace", f.gateway.Customers[0].Name)

	var sub subscriptiondomain.MemberSubscription
	require.NoError(t, f.db.Where("member_id = ?", member.ID).First(&sub).Error)
	assert.Equal(t, "forge", sub.TierID)
	require.NotNil(t, sub.PaymentIntentID)
	assert.Equal(t, intent.PaymentIntentID, *sub.PaymentIntentID)
	require.NotNil(t, sub.EndDate)
	assert.WithinDuration(t, f.clock.Now().Add(30*24*time.Hour), *sub.EndDate, time.Second)

	stored, err := paymentrepo.Provide().FindByStripeID(ctx, f.db, intent.PaymentIntentID)
	require.NoError(t, err)
	require.NotNil(t, stored.MemberID)
	assert.Equal(t, resp.MemberID, stored.MemberID.String())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Register(ctx, domain.RegisterRequest{Member: founderInput("dup@example.com")})
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, domain.RegisterRequest{Member: founderInput("DUP@example.com")})
	assert.ErrorIs(t, err, domain.ErrEmailExists)

	var count int64
	require.NoError(t, f.db.Model(&domain.Member{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	var profiles int64
	require.NoError(t, f.db.Model(&domain.Founder{}).Count(&profiles).Error)
	assert.Equal(t, int64(1), profiles)
}

func TestRegisterRateLimitedByEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for i := 0; i < 5; i++ {
		_, err := f.svc.Register(ctx, domain.RegisterRequest{Member: founderInput("busy@example.com")})
		if i == 0 {
			require.NoError(t, err)
		} else {
			require.ErrorIs(t, err, domain.ErrEmailExists)
		}
	}

	_, err := f.svc.Register(ctx, domain.RegisterRequest{Member: founderInput("busy@example.com")})
	require.ErrorIs(t, err, ratelimit.ErrLimitExceeded)
	assert.Equal(t, "Too many registration attempts. Please wait before trying again.", err.Error())

	f.clock.Advance(5 * time.Minute)
	_, err = f.svc.Register(ctx, domain.RegisterRequest{Member: founderInput("busy@example.com")})
	assert.ErrorIs(t, err, domain.ErrEmailExists)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.RegisterRequest)
		wantErr error
	}{
		{"user type", func(r *domain.RegisterRequest) { r.Member.UserType = "admin" }, domain.ErrInvalidUserType},
		{"email", func(r *domain.RegisterRequest) { r.Member.Email = "not-an-email" }, domain.ErrInvalidEmail},
		{"first name", func(r *domain.RegisterRequest) { r.Member.FirstName = "A" }, domain.ErrInvalidFirstName},
		{"last name", func(r *domain.RegisterRequest) { r.Member.LastName = "" }, domain.ErrInvalidLastName},
		{"linkedin", func(r *domain.RegisterRequest) { r.Member.LinkedinURL = "javascript:alert(1)" }, domain.ErrInvalidLinkedinURL},
		{"website", func(r *domain.RegisterRequest) { r.Member.WebsiteURL = "not a url" }, domain.ErrInvalidWebsiteURL},
		{"phone", func(r *domain.RegisterRequest) { r.Member.Phone = "call me" }, domain.ErrInvalidPhone},
		{"tier id", func(r *domain.RegisterRequest) { r.TierID = "forge;drop" }, domain.ErrInvalidTierID},
		{"unknown tier", func(r *domain.RegisterRequest) { r.TierID = "platinum" }, domain.ErrUnknownTier},
		{"payment intent", func(r *domain.RegisterRequest) { r.TierID = "forge"; r.PaymentIntentID = "ch_123" }, domain.ErrInvalidPaymentIntentID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := domain.RegisterRequest{Member: founderInput("val@example.com")}
			tt.mutate(&req)

			_, err := f.svc.Register(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)

			var count int64
			require.NoError(t, f.db.Model(&domain.Member{}).Count(&count).Error)
			assert.Zero(t, count)
		})
	}
}

func TestRegisterPartnerProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	years := 12
	_, err := f.svc.Register(ctx, domain.RegisterRequest{Member: domain.MemberInput{
		UserType:        "partner",
		Email:           "partner@example.com",
		FirstName:       "Linus",
		LastName:        "Partner",
		CompanyName:     "Law & Co",
		PartnershipType: "legal",
		YearsExperience: &years,
	}})
	require.NoError(t, err)

	var partner domain.Partner
	require.NoError(t, f.db.First(&partner).Error)
	require.NotNil(t, partner.PartnershipType)
	assert.Equal(t, "legal", *partner.PartnershipType)
	require.NotNil(t, partner.YearsExperience)
	assert.Equal(t, 12, *partner.YearsExperience)

	var founders int64
	require.NoError(t, f.db.Model(&domain.Founder{}).Count(&founders).Error)
	assert.Zero(t, founders)
}

func TestListMembersPaginates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, email := range []string{"one@example.com", "two@example.com", "three@example.com"} {
		_, err := f.svc.Register(ctx, domain.RegisterRequest{Member: founderInput(email), TierID: "explorer"})
		require.NoError(t, err)
		f.clock.Advance(time.Millisecond)
	}

	first, err := f.svc.List(ctx, domain.ListMembersRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Members, 2)
	assert.True(t, first.HasMore)
	assert.NotEmpty(t, first.NextPageToken)
	assert.Equal(t, "three@example.com", first.Members[0].Email)
	require.NotNil(t, first.Members[0].Country)
	assert.Equal(t, "DE", first.Members[0].Country.Code)
	require.Len(t, first.Members[0].Subscriptions, 1)

	second, err := f.svc.List(ctx, domain.ListMembersRequest{PageSize: 2, PageToken: first.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second.Members, 1)
	assert.False(t, second.HasMore)
	assert.Equal(t, "one@example.com", second.Members[0].Email)

	_, err = f.svc.List(ctx, domain.ListMembersRequest{PageToken: "%%%"})
	assert.ErrorIs(t, err, pagination.ErrInvalidPageToken)

	_, err = f.svc.List(ctx, domain.ListMembersRequest{UserType: "admin"})
	assert.ErrorIs(t, err, domain.ErrInvalidUserType)
}

func TestRegisterRollsBackWhenSubscriptionInsertFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.db.Exec("DROP TABLE member_subscriptions").Error)

	_, err := f.svc.Register(ctx, domain.RegisterRequest{
		Member: founderInput("atomic@example.com"),
		TierID: "explorer",
	})
	require.Error(t, err)

	var members, founders int64
	require.NoError(t, f.db.Model(&domain.Member{}).Count(&members).Error)
	require.NoError(t, f.db.Model(&domain.Founder{}).Count(&founders).Error)
	assert.Zero(t, members)
	assert.Zero(t, founders)
	assert.Empty(t, f.publisher.events)
	assert.Empty(t, f.gateway.Customers)
}

func TestRegisterPaidTierWithoutPaymentIntentHasOpenTerm(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	resp, err := f.svc.Register(ctx, domain.RegisterRequest{
		Member: founderInput("manual@example.com"),
		TierID: "forge",
	})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, resp.MemberID)
	require.NoError(t, err)
	require.Len(t, got.Subscriptions, 1)
	sub := got.Subscriptions[0]
	assert.Equal(t, "forge", sub.TierID)
	assert.True(t, sub.IsActive)
	assert.Nil(t, sub.PaymentIntentID)
	assert.Nil(t, sub.EndDate)
	assert.Empty(t, f.gateway.Customers)
}

func TestGetMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	resp, err := f.svc.Register(ctx, domain.RegisterRequest{
		Member: founderInput("lookup@example.com"),
		TierID: "explorer",
	})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, resp.MemberID)
	require.NoError(t, err)
	assert.Equal(t, resp.MemberID, got.ID.String())
	assert.Equal(t, "lookup@example.com", got.Email)
	require.NotNil(t, got.Country)
	assert.Equal(t, "DE", got.Country.Code)
	require.Len(t, got.Subscriptions, 1)
	assert.Equal(t, "explorer", got.Subscriptions[0].TierID)

	_, err = f.svc.Get(ctx, "123456789")
	assert.ErrorIs(t, err, domain.ErrMemberNotFound)

	_, err = f.svc.Get(ctx, "not-an-id")
	assert.ErrorIs(t, err, domain.ErrMemberNotFound)
}
