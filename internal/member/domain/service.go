package domain

import (
	"context"
	"errors"
	"strings"

	referencedomain "github.com/smallbiznis/foundr/internal/reference/domain"
	subscriptiondomain "github.com/smallbiznis/foundr/internal/subscription/domain"
	"github.com/smallbiznis/foundr/pkg/db/pagination"
)

// MemberInput carries raw registration fields. Profile fields only apply to
// the matching user type.
type MemberInput struct {
	UserType    string
	Email       string
	FirstName   string
	LastName    string
	Phone       string
	Country     string
	LinkedinURL string
	WebsiteURL  string

	CompanyName  string
	Industry     string
	StartupStage string
	FundingStage string
	TeamSize     *int

	CompanyType              string
	CompanySize              string
	PartnershipType          string
	PartnershipInterest      string
	ServicesOffered          string
	ExpectedPartnershipModel string
	AdditionalInformation    string
	YearsExperience          *int

	InvestorType    string
	InvestmentFocus string
	PreferredStages string
	TicketSizeMin   *int64
	TicketSizeMax   *int64
	PortfolioSize   *int
}

type RegisterRequest struct {
	Member          MemberInput
	TierID          string
	PaymentIntentID string
	ClientIP        string
}

type RegisterResponse struct {
	Success  bool   `json:"success"`
	MemberID string `json:"memberId"`
	Message  string `json:"message"`
}

type ListMembersRequest struct {
	UserType  string
	PageToken string
	PageSize  int
}

type MemberSummary struct {
	Member
	Country       *referencedomain.Country                `json:"country,omitempty"`
	Subscriptions []subscriptiondomain.MemberSubscription `json:"subscriptions"`
}

type ListMembersResponse struct {
	pagination.PageInfo
	Members []MemberSummary `json:"members"`
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error)
	List(ctx context.Context, req ListMembersRequest) (ListMembersResponse, error)
	Get(ctx context.Context, id string) (MemberSummary, error)
}

var (
	ErrInvalidUserType        = errors.New("invalid_user_type")
	ErrInvalidEmail           = errors.New("invalid_email")
	ErrInvalidFirstName       = errors.New("invalid_first_name")
	ErrInvalidLastName        = errors.New("invalid_last_name")
	ErrInvalidLinkedinURL     = errors.New("invalid_linkedin_url")
	ErrInvalidWebsiteURL      = errors.New("invalid_website_url")
	ErrInvalidPhone           = errors.New("invalid_phone")
	ErrInvalidTierID          = errors.New("invalid_tier_id")
	ErrUnknownTier            = errors.New("invalid_tier")
	ErrInvalidPaymentIntentID = errors.New("invalid_payment_intent_id")
	ErrEmailExists            = errors.New("email_already_exists")
	ErrMemberNotFound         = errors.New("member_not_found")
)

// MissingFieldsError lists required request fields that were empty.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "Missing required fields: " + strings.Join(e.Fields, ", ")
}
