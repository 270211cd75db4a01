package server

import (
	"encoding/json"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	memberdomain "github.com/smallbiznis/foundr/internal/member/domain"
)

// registrationFields reads a registration body. The site has sent camelCase
// and snake_case keys over time, so every field accepts both.
type registrationFields map[string]json.RawMessage

func (f registrationFields) str(keys ...string) string {
	for _, key := range keys {
		raw, ok := f[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
			continue
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil && n.String() != "" {
			return n.String()
		}
	}
	return ""
}

func (f registrationFields) number(keys ...string) (flexInt64, error) {
	for _, key := range keys {
		raw, ok := f[key]
		if !ok {
			continue
		}
		var v flexInt64
		if err := v.UnmarshalJSON(raw); err != nil {
			return flexInt64{}, newValidationError(key, "invalid_number", key+" must be a number")
		}
		if v.set {
			return v, nil
		}
	}
	return flexInt64{}, nil
}

// count reads a headcount-style field; the profile columns are 32-bit.
func (f registrationFields) count(keys ...string) (flexInt64, error) {
	v, err := f.number(keys...)
	if err != nil {
		return flexInt64{}, err
	}
	if v.set && (v.value > math.MaxInt32 || v.value < math.MinInt32) {
		return flexInt64{}, newValidationError(keys[0], "number_out_of_range", keys[0]+" is out of range")
	}
	return v, nil
}

func (f registrationFields) memberInput() (memberdomain.MemberInput, error) {
	teamSize, err := f.count("team_size", "teamSize")
	if err != nil {
		return memberdomain.MemberInput{}, err
	}
	years, err := f.count("years_experience", "yearsExperience")
	if err != nil {
		return memberdomain.MemberInput{}, err
	}
	ticketMin, err := f.number("ticket_size_min", "ticketSizeMin")
	if err != nil {
		return memberdomain.MemberInput{}, err
	}
	ticketMax, err := f.number("ticket_size_max", "ticketSizeMax")
	if err != nil {
		return memberdomain.MemberInput{}, err
	}
	portfolio, err := f.count("portfolio_size", "portfolioSize")
	if err != nil {
		return memberdomain.MemberInput{}, err
	}

	return memberdomain.MemberInput{
		UserType:    f.str("user_type", "userType"),
		Email:       f.str("email"),
		FirstName:   f.str("first_name", "firstName"),
		LastName:    f.str("last_name", "lastName"),
		Phone:       f.str("phone"),
		Country:     f.str("country_id", "countryId", "country"),
		LinkedinURL: f.str("linkedin_url", "linkedinUrl", "linkedin"),
		WebsiteURL:  f.str("website_url", "websiteUrl", "website"),

		CompanyName:  f.str("company_name", "companyName", "company"),
		Industry:     f.str("industry"),
		StartupStage: f.str("startup_stage", "startupStage"),
		FundingStage: f.str("funding_stage", "fundingStage"),
		TeamSize:     teamSize.IntPtr(),

		CompanyType:              f.str("company_type", "companyType"),
		CompanySize:              f.str("company_size", "companySize"),
		PartnershipType:          f.str("partnership_type", "partnershipType"),
		PartnershipInterest:      f.str("partnership_interest", "partnershipInterest"),
		ServicesOffered:          f.str("services_offered", "servicesOffered"),
		ExpectedPartnershipModel: f.str("expected_partnership_model", "expectedPartnershipModel"),
		AdditionalInformation:    f.str("additional_information", "additionalInformation"),
		YearsExperience:          years.IntPtr(),

		InvestorType:    f.str("investor_type", "investorType"),
		InvestmentFocus: f.str("investment_focus", "investmentFocus"),
		PreferredStages: f.str("preferred_stages", "preferredStages"),
		TicketSizeMin:   ticketMin.Int64Ptr(),
		TicketSizeMax:   ticketMax.Int64Ptr(),
		PortfolioSize:   portfolio.IntPtr(),
	}, nil
}

// missing returns the keys whose values are empty, in the order given.
func (f registrationFields) missing(keys ...string) []string {
	var out []string
	for _, key := range keys {
		if f.str(key) == "" {
			out = append(out, key)
		}
	}
	return out
}

// RegisterMember handles {memberData, tierId, paymentIntentId}. A body without
// memberData is read as the member itself.
func (s *Server) RegisterMember(c *gin.Context) {
	var body registrationFields
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	fields := body
	if raw, ok := body["memberData"]; ok {
		var nested registrationFields
		if err := json.Unmarshal(raw, &nested); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		fields = nested
	}

	input, err := fields.memberInput()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.register(c, memberdomain.RegisterRequest{
		Member:          input,
		TierID:          body.str("tierId", "tier_id"),
		PaymentIntentID: body.str("paymentIntentId", "payment_intent_id"),
	})
}

// RegisterMemberLegacy serves the flat form used by the first signup page.
func (s *Server) RegisterMemberLegacy(c *gin.Context) {
	s.registerFlat(c, "firstName", "lastName", "email", "phone", "country", "tier")
}

// RegisterMemberStrict is the flat form that also requires the startup stage.
func (s *Server) RegisterMemberStrict(c *gin.Context) {
	s.registerFlat(c, "firstName", "lastName", "email", "phone", "country", "startupStage", "tier")
}

func (s *Server) registerFlat(c *gin.Context, required ...string) {
	var body registrationFields
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if missing := body.missing(required...); len(missing) > 0 {
		AbortWithError(c, &memberdomain.MissingFieldsError{Fields: missing})
		return
	}

	input, err := body.memberInput()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	input.UserType = memberdomain.UserTypeFounder

	s.register(c, memberdomain.RegisterRequest{
		Member:          input,
		TierID:          body.str("tier", "tierId"),
		PaymentIntentID: body.str("paymentIntentId"),
	})
}

func (s *Server) register(c *gin.Context, req memberdomain.RegisterRequest) {
	req.ClientIP = c.ClientIP()
	resp, err := s.memberSvc.Register(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListMembers(c *gin.Context) {
	pageSize, err := parseOptionalInt(c.Query("page_size"))
	if err != nil || pageSize < 0 {
		AbortWithError(c, newValidationError("page_size", "invalid_page_size", "Invalid page size"))
		return
	}

	resp, err := s.memberSvc.List(c.Request.Context(), memberdomain.ListMembersRequest{
		UserType:  c.Query("user_type"),
		PageToken: strings.TrimSpace(c.Query("page_token")),
		PageSize:  pageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetMember(c *gin.Context) {
	resp, err := s.memberSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
