package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/foundr/internal/clock"
	"github.com/smallbiznis/foundr/internal/events"
	"github.com/smallbiznis/foundr/internal/investor/domain"
	obsmetrics "github.com/smallbiznis/foundr/internal/observability/metrics"
	"github.com/smallbiznis/foundr/internal/ratelimit"
	"github.com/smallbiznis/foundr/internal/sanitize"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	rateLimitMessage = "Too many submissions. Please wait before trying again."
	successMessage   = "Interest submitted successfully"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	Limiter    *ratelimit.Limiter
	Policies   ratelimit.Policies
	Publisher  events.Publisher
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	limiter    *ratelimit.Limiter
	policies   ratelimit.Policies
	publisher  events.Publisher
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("investor.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		limiter:    p.Limiter,
		policies:   p.Policies,
		publisher:  p.Publisher,
		obsMetrics: p.ObsMetrics,
	}
}

type submittedEvent struct {
	SubmissionID string `json:"submission_id"`
	Email        string `json:"email"`
	Company      string `json:"company"`
	InvestorType string `json:"investor_type"`
	Country      string `json:"country"`
}

func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (domain.SubmitResponse, error) {
	fields := []struct {
		name  string
		value *string
	}{
		{"first_name", &req.FirstName},
		{"last_name", &req.LastName},
		{"email", &req.Email},
		{"country", &req.Country},
		{"user_type", &req.UserType},
		{"company", &req.Company},
		{"title", &req.Title},
		{"investor_type", &req.InvestorType},
	}
	for _, f := range fields {
		*f.value = sanitize.Input(*f.value)
		if *f.value == "" {
			s.obsMetrics.RecordInvestorInterest(ctx, "rejected")
			return domain.SubmitResponse{}, &domain.MissingFieldError{Field: f.name}
		}
	}

	email, ok := sanitize.Email(req.Email)
	if !ok {
		s.obsMetrics.RecordInvestorInterest(ctx, "rejected")
		return domain.SubmitResponse{}, domain.ErrInvalidEmail
	}

	if err := s.limiter.Enforce(ctx, s.policies.InvestorInterest, email, rateLimitMessage); err != nil {
		s.obsMetrics.RecordInvestorInterest(ctx, "rate_limited")
		return domain.SubmitResponse{}, err
	}

	now := s.clock.Now()
	submission := domain.InterestSubmission{
		ID:                  s.genID.Generate(),
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Email:               email,
		Phone:               sanitize.OptionalInput(req.Phone),
		Country:             req.Country,
		UserType:            strings.ToLower(req.UserType),
		Company:             req.Company,
		Title:               req.Title,
		InvestorType:        req.InvestorType,
		AdditionalQuestions: sanitize.OptionalInput(req.AdditionalQuestions),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Insert(ctx, s.db, &submission); err != nil {
		s.obsMetrics.RecordInvestorInterest(ctx, "error")
		s.log.Error("failed to store investor interest", zap.Error(err))
		return domain.SubmitResponse{}, err
	}

	events.PublishSafely(ctx, s.publisher, s.log, events.New(events.TypeInvestorInterestSubmitted, now, submittedEvent{
		SubmissionID: submission.ID.String(),
		Email:        submission.Email,
		Company:      submission.Company,
		InvestorType: submission.InvestorType,
		Country:      submission.Country,
	}))

	s.log.Info("investor interest submitted",
		zap.String("submission_id", submission.ID.String()),
		zap.String("investor_type", submission.InvestorType),
	)
	s.obsMetrics.RecordInvestorInterest(ctx, "success")

	return domain.SubmitResponse{
		Success: true,
		Message: successMessage,
		ID:      submission.ID.String(),
	}, nil
}
