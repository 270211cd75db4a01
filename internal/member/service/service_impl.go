package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/foundr/internal/clock"
	"github.com/smallbiznis/foundr/internal/events"
	"github.com/smallbiznis/foundr/internal/member/domain"
	obsmetrics "github.com/smallbiznis/foundr/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/foundr/internal/payment/domain"
	"github.com/smallbiznis/foundr/internal/ratelimit"
	referencedomain "github.com/smallbiznis/foundr/internal/reference/domain"
	"github.com/smallbiznis/foundr/internal/sanitize"
	subscriptiondomain "github.com/smallbiznis/foundr/internal/subscription/domain"
	tierdomain "github.com/smallbiznis/foundr/internal/tier/domain"
	"github.com/smallbiznis/foundr/pkg/db"
	"github.com/smallbiznis/foundr/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	rateLimitMessage = "Too many registration attempts. Please wait before trying again."
	successMessage   = "Member registered successfully"
)

var paymentIntentIDPattern = regexp.MustCompile(`^pi_[A-Za-z0-9_]+$`)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	SubRepo      subscriptiondomain.Repository
	PaymentRepo  paymentdomain.Repository
	PaymentSvc   paymentdomain.Service
	TierSvc      tierdomain.Service
	ReferenceSvc referencedomain.Service
	Limiter      *ratelimit.Limiter
	Policies     ratelimit.Policies
	Publisher    events.Publisher
	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	subRepo      subscriptiondomain.Repository
	paymentRepo  paymentdomain.Repository
	paymentSvc   paymentdomain.Service
	tierSvc      tierdomain.Service
	referenceSvc referencedomain.Service
	limiter      *ratelimit.Limiter
	policies     ratelimit.Policies
	publisher    events.Publisher
	obsMetrics   *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("member.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		subRepo:      p.SubRepo,
		paymentRepo:  p.PaymentRepo,
		paymentSvc:   p.PaymentSvc,
		tierSvc:      p.TierSvc,
		referenceSvc: p.ReferenceSvc,
		limiter:      p.Limiter,
		policies:     p.Policies,
		publisher:    p.Publisher,
		obsMetrics:   p.ObsMetrics,
	}
}

type registeredEvent struct {
	MemberID        string  `json:"member_id"`
	UserType        string  `json:"user_type"`
	Email           string  `json:"email"`
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	CountryID       *int64  `json:"country_id,omitempty"`
	TierID          *string `json:"tier_id,omitempty"`
	PaymentIntentID *string `json:"payment_intent_id,omitempty"`
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (domain.RegisterResponse, error) {
	email := strings.ToLower(sanitize.Input(req.Member.Email))
	subject := email
	if subject == "" {
		subject = clientKey(req.ClientIP)
	}
	if err := s.limiter.Enforce(ctx, s.policies.Registration, subject, rateLimitMessage); err != nil {
		s.obsMetrics.RecordRegistration(ctx, "", "", "rate_limited")
		return domain.RegisterResponse{}, err
	}

	now := s.clock.Now()
	member, err := s.buildMember(req.Member, now)
	if err != nil {
		s.obsMetrics.RecordRegistration(ctx, "", "", "rejected")
		return domain.RegisterResponse{}, err
	}

	tierID := strings.TrimSpace(req.TierID)
	paymentIntentID := strings.TrimSpace(req.PaymentIntentID)
	if err := s.validateSubscription(ctx, tierID, paymentIntentID); err != nil {
		s.obsMetrics.RecordRegistration(ctx, member.UserType, "", "rejected")
		return domain.RegisterResponse{}, err
	}

	country, err := s.referenceSvc.ResolveCountry(ctx, req.Member.Country)
	if err != nil {
		return domain.RegisterResponse{}, err
	}
	if country != nil {
		member.CountryID = &country.ID
	}

	profile := s.buildProfile(member, req.Member, now)

	var sub *subscriptiondomain.MemberSubscription
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &member); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrEmailExists
			}
			return err
		}
		if err := s.repo.InsertProfile(ctx, tx, profile); err != nil {
			return err
		}

		if tierID != "" {
			sub = newSubscription(s.genID.Generate(), member.ID, tierID, paymentIntentID, now)
			if err := s.subRepo.Insert(ctx, tx, sub); err != nil {
				return err
			}
		}

		if paymentIntentID != "" {
			if _, err := s.paymentRepo.AttachMember(ctx, tx, paymentIntentID, member.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailExists) {
			s.obsMetrics.RecordRegistration(ctx, member.UserType, tierID, "duplicate")
			return domain.RegisterResponse{}, err
		}
		s.obsMetrics.RecordRegistration(ctx, member.UserType, tierID, "error")
		s.log.Error("failed to register member", zap.String("user_type", member.UserType), zap.Error(err))
		return domain.RegisterResponse{}, err
	}

	if paymentIntentID != "" {
		s.attachCustomer(ctx, &member)
	}

	event := registeredEvent{
		MemberID:  member.ID.String(),
		UserType:  member.UserType,
		Email:     member.Email,
		FirstName: member.FirstName,
		LastName:  member.LastName,
		CountryID: member.CountryID,
	}
	if sub != nil {
		event.TierID = &sub.TierID
		event.PaymentIntentID = sub.PaymentIntentID
	}
	events.PublishSafely(ctx, s.publisher, s.log, events.New(events.TypeMemberRegistered, now, event))

	s.log.Info("member registered",
		zap.String("member_id", member.ID.String()),
		zap.String("user_type", member.UserType),
		zap.String("tier_id", tierID),
		zap.Bool("paid", paymentIntentID != ""),
	)
	s.obsMetrics.RecordRegistration(ctx, member.UserType, tierID, "success")

	return domain.RegisterResponse{
		Success:  true,
		MemberID: member.ID.String(),
		Message:  successMessage,
	}, nil
}

func (s *Service) buildMember(in domain.MemberInput, now time.Time) (domain.Member, error) {
	userType := strings.ToLower(strings.TrimSpace(in.UserType))
	if userType == "" {
		userType = domain.UserTypeFounder
	}
	if !domain.IsValidUserType(userType) {
		return domain.Member{}, domain.ErrInvalidUserType
	}

	email, ok := sanitize.Email(in.Email)
	if !ok {
		return domain.Member{}, domain.ErrInvalidEmail
	}

	firstName := sanitize.Input(in.FirstName)
	if !sanitize.IsValidName(firstName) {
		return domain.Member{}, domain.ErrInvalidFirstName
	}
	lastName := sanitize.Input(in.LastName)
	if !sanitize.IsValidName(lastName) {
		return domain.Member{}, domain.ErrInvalidLastName
	}

	linkedin := sanitize.OptionalInput(in.LinkedinURL)
	if linkedin != nil && !sanitize.IsValidURL(*linkedin) {
		return domain.Member{}, domain.ErrInvalidLinkedinURL
	}
	website := sanitize.OptionalInput(in.WebsiteURL)
	if website != nil && !sanitize.IsValidURL(*website) {
		return domain.Member{}, domain.ErrInvalidWebsiteURL
	}

	var phone *string
	if raw := sanitize.Input(in.Phone); raw != "" {
		normalized, ok := sanitize.Phone(raw)
		if !ok {
			return domain.Member{}, domain.ErrInvalidPhone
		}
		phone = &normalized
	}

	return domain.Member{
		ID:          s.genID.Generate(),
		UserType:    userType,
		Email:       email,
		FirstName:   firstName,
		LastName:    lastName,
		Phone:       phone,
		LinkedinURL: linkedin,
		WebsiteURL:  website,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *Service) buildProfile(member domain.Member, in domain.MemberInput, now time.Time) any {
	switch member.UserType {
	case domain.UserTypePartner:
		return &domain.Partner{
			ID:                       s.genID.Generate(),
			MemberID:                 member.ID,
			CompanyName:              sanitize.OptionalInput(in.CompanyName),
			CompanyType:              sanitize.OptionalInput(in.CompanyType),
			CompanySize:              sanitize.OptionalInput(in.CompanySize),
			PartnershipType:          sanitize.OptionalInput(in.PartnershipType),
			PartnershipInterest:      sanitize.OptionalInput(in.PartnershipInterest),
			ServicesOffered:          sanitize.OptionalInput(in.ServicesOffered),
			ExpectedPartnershipModel: sanitize.OptionalInput(in.ExpectedPartnershipModel),
			AdditionalInformation:    sanitize.OptionalInput(in.AdditionalInformation),
			YearsExperience:          nonNegative(in.YearsExperience),
			CreatedAt:                now,
			UpdatedAt:                now,
		}
	case domain.UserTypeInvestor:
		return &domain.Investor{
			ID:              s.genID.Generate(),
			MemberID:        member.ID,
			InvestorType:    sanitize.OptionalInput(in.InvestorType),
			InvestmentFocus: sanitize.OptionalInput(in.InvestmentFocus),
			PreferredStages: sanitize.OptionalInput(in.PreferredStages),
			TicketSizeMin:   in.TicketSizeMin,
			TicketSizeMax:   in.TicketSizeMax,
			PortfolioSize:   nonNegative(in.PortfolioSize),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
	default:
		return &domain.Founder{
			ID:           s.genID.Generate(),
			MemberID:     member.ID,
			CompanyName:  sanitize.OptionalInput(in.CompanyName),
			Industry:     sanitize.OptionalInput(in.Industry),
			StartupStage: sanitize.OptionalInput(in.StartupStage),
			FundingStage: sanitize.OptionalInput(in.FundingStage),
			TeamSize:     nonNegative(in.TeamSize),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}
}

func (s *Service) validateSubscription(ctx context.Context, tierID, paymentIntentID string) error {
	if paymentIntentID != "" && !paymentIntentIDPattern.MatchString(paymentIntentID) {
		return domain.ErrInvalidPaymentIntentID
	}
	if tierID == "" {
		return nil
	}
	if !sanitize.IsValidTierID(tierID) {
		return domain.ErrInvalidTierID
	}
	if _, err := s.tierSvc.Get(ctx, tierID); err != nil {
		if errors.Is(err, tierdomain.ErrNotFound) {
			return domain.ErrUnknownTier
		}
		return err
	}
	return nil
}

// attachCustomer creates the processor customer for a paid registration. The
// member row is already committed, so failures are only logged.
func (s *Service) attachCustomer(ctx context.Context, member *domain.Member) {
	customerID, err := s.paymentSvc.CreateCustomer(ctx, paymentdomain.CreateCustomerParams{
		Email:          member.Email,
		Name:           member.FullName(),
		Metadata:       map[string]string{"member_id": member.ID.String(), "user_type": member.UserType},
		IdempotencyKey: "member-" + member.ID.String(),
	})
	if err != nil {
		if !errors.Is(err, paymentdomain.ErrNotConfigured) {
			s.log.Warn("failed to create processor customer",
				zap.String("member_id", member.ID.String()),
				zap.Error(err),
			)
		}
		return
	}
	if err := s.repo.SetStripeCustomerID(ctx, s.db, member.ID, customerID); err != nil {
		s.log.Warn("failed to store processor customer id",
			zap.String("member_id", member.ID.String()),
			zap.Error(err),
		)
		return
	}
	member.StripeCustomerID = &customerID
}

func (s *Service) List(ctx context.Context, req domain.ListMembersRequest) (domain.ListMembersResponse, error) {
	userType := strings.ToLower(strings.TrimSpace(req.UserType))
	if userType != "" && !domain.IsValidUserType(userType) {
		return domain.ListMembersResponse{}, domain.ErrInvalidUserType
	}

	filter := domain.ListFilter{UserType: userType}
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListMembersResponse{}, err
		}
		id, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return domain.ListMembersResponse{}, pagination.ErrInvalidPageToken
		}
		filter.AfterID = id
	}

	page := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}
	items, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return domain.ListMembersResponse{}, err
	}

	members, pageInfo, err := pagination.Trim(items, page.Limit(), func(m domain.Member) pagination.Cursor {
		return pagination.Cursor{ID: m.ID.String()}
	})
	if err != nil {
		return domain.ListMembersResponse{}, err
	}

	summaries, err := s.summarize(ctx, members)
	if err != nil {
		return domain.ListMembersResponse{}, err
	}

	return domain.ListMembersResponse{PageInfo: pageInfo, Members: summaries}, nil
}

// Get returns one member with its subscriptions and country.
func (s *Service) Get(ctx context.Context, id string) (domain.MemberSummary, error) {
	memberID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.MemberSummary{}, domain.ErrMemberNotFound
	}

	member, err := s.repo.FindByID(ctx, s.db, memberID)
	if err != nil {
		return domain.MemberSummary{}, err
	}
	if member == nil {
		return domain.MemberSummary{}, domain.ErrMemberNotFound
	}

	summaries, err := s.summarize(ctx, []domain.Member{*member})
	if err != nil {
		return domain.MemberSummary{}, err
	}
	return summaries[0], nil
}

func (s *Service) summarize(ctx context.Context, members []domain.Member) ([]domain.MemberSummary, error) {
	ids := make([]snowflake.ID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	subs, err := s.subRepo.ListByMemberIDs(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	subsByMember := make(map[snowflake.ID][]subscriptiondomain.MemberSubscription, len(members))
	for _, sub := range subs {
		subsByMember[sub.MemberID] = append(subsByMember[sub.MemberID], sub)
	}

	countries, err := s.referenceSvc.ListCountries(ctx)
	if err != nil {
		return nil, err
	}
	countryByID := make(map[int64]referencedomain.Country, len(countries))
	for _, c := range countries {
		countryByID[c.ID] = c
	}

	summaries := make([]domain.MemberSummary, 0, len(members))
	for _, m := range members {
		summary := domain.MemberSummary{
			Member:        m,
			Subscriptions: subsByMember[m.ID],
		}
		if summary.Subscriptions == nil {
			summary.Subscriptions = []subscriptiondomain.MemberSubscription{}
		}
		if m.CountryID != nil {
			if c, ok := countryByID[*m.CountryID]; ok {
				summary.Country = &c
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func newSubscription(id, memberID snowflake.ID, tierID, paymentIntentID string, now time.Time) *subscriptiondomain.MemberSubscription {
	sub := &subscriptiondomain.MemberSubscription{
		ID:        id,
		MemberID:  memberID,
		TierID:    tierID,
		Status:    subscriptiondomain.StatusActive,
		IsActive:  true,
		StartDate: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if paymentIntentID != "" {
		end := now.Add(subscriptiondomain.PaidTermDays * 24 * time.Hour)
		sub.PaymentIntentID = &paymentIntentID
		sub.EndDate = &end
	}
	return sub
}

func nonNegative(v *int) *int {
	if v == nil || *v < 0 {
		return nil
	}
	return v
}

func clientKey(ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return "unknown"
	}
	return ip
}
