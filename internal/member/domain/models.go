package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	UserTypeFounder  = "founder"
	UserTypePartner  = "partner"
	UserTypeInvestor = "investor"
)

func IsValidUserType(userType string) bool {
	switch userType {
	case UserTypeFounder, UserTypePartner, UserTypeInvestor:
		return true
	default:
		return false
	}
}

type Member struct {
	ID               snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	UserType         string       `json:"user_type" gorm:"type:varchar(16);not null;index"`
	Email            string       `json:"email" gorm:"type:varchar(254);not null;uniqueIndex"`
	FirstName        string       `json:"first_name" gorm:"type:varchar(100);not null"`
	LastName         string       `json:"last_name" gorm:"type:varchar(100);not null"`
	Phone            *string      `json:"phone,omitempty" gorm:"type:varchar(32)"`
	CountryID        *int64       `json:"country_id,omitempty" gorm:"index"`
	LinkedinURL      *string      `json:"linkedin_url,omitempty" gorm:"type:text"`
	WebsiteURL       *string      `json:"website_url,omitempty" gorm:"type:text"`
	StripeCustomerID *string      `json:"stripe_customer_id,omitempty" gorm:"type:varchar(255)"`
	IsActive         bool         `json:"is_active" gorm:"not null"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

func (Member) TableName() string { return "members" }

// FullName joins first and last name for processor records.
func (m Member) FullName() string {
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}

type Founder struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	MemberID     snowflake.ID `json:"member_id" gorm:"not null;uniqueIndex"`
	CompanyName  *string      `json:"company_name,omitempty" gorm:"type:varchar(255)"`
	Industry     *string      `json:"industry,omitempty" gorm:"type:varchar(255)"`
	StartupStage *string      `json:"startup_stage,omitempty" gorm:"type:varchar(64)"`
	FundingStage *string      `json:"funding_stage,omitempty" gorm:"type:varchar(64)"`
	TeamSize     *int         `json:"team_size,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (Founder) TableName() string { return "founders" }

type Partner struct {
	ID                       snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	MemberID                 snowflake.ID `json:"member_id" gorm:"not null;uniqueIndex"`
	CompanyName              *string      `json:"company_name,omitempty" gorm:"type:varchar(255)"`
	CompanyType              *string      `json:"company_type,omitempty" gorm:"type:varchar(64)"`
	CompanySize              *string      `json:"company_size,omitempty" gorm:"type:varchar(64)"`
	PartnershipType          *string      `json:"partnership_type,omitempty" gorm:"type:varchar(64)"`
	PartnershipInterest      *string      `json:"partnership_interest,omitempty" gorm:"type:varchar(64)"`
	ServicesOffered          *string      `json:"services_offered,omitempty" gorm:"type:text"`
	ExpectedPartnershipModel *string      `json:"expected_partnership_model,omitempty" gorm:"type:text"`
	AdditionalInformation    *string      `json:"additional_information,omitempty" gorm:"type:text"`
	YearsExperience          *int         `json:"years_experience,omitempty"`
	CreatedAt                time.Time    `json:"created_at"`
	UpdatedAt                time.Time    `json:"updated_at"`
}

func (Partner) TableName() string { return "partners" }

type Investor struct {
	ID              snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	MemberID        snowflake.ID `json:"member_id" gorm:"not null;uniqueIndex"`
	InvestorType    *string      `json:"investor_type,omitempty" gorm:"type:varchar(64)"`
	InvestmentFocus *string      `json:"investment_focus,omitempty" gorm:"type:text"`
	PreferredStages *string      `json:"preferred_stages,omitempty" gorm:"type:text"`
	TicketSizeMin   *int64       `json:"ticket_size_min,omitempty"`
	TicketSizeMax   *int64       `json:"ticket_size_max,omitempty"`
	PortfolioSize   *int         `json:"portfolio_size,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func (Investor) TableName() string { return "investors" }
