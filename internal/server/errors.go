package server

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	investordomain "github.com/smallbiznis/foundr/internal/investor/domain"
	memberdomain "github.com/smallbiznis/foundr/internal/member/domain"
	paymentdomain "github.com/smallbiznis/foundr/internal/payment/domain"
	"github.com/smallbiznis/foundr/internal/ratelimit"
	tierdomain "github.com/smallbiznis/foundr/internal/tier/domain"
	"github.com/smallbiznis/foundr/pkg/db/pagination"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	if len(v.Errors) == 1 {
		return v.Errors[0].Message
	}
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

// validationMessages holds the caller-facing text for each known validation
// code. Codes missing here fall back to a generic message.
var validationMessages = map[string]validationEntry{
	"invalid_request":           {"request", "Invalid request body"},
	"missing_required_fields":   {"request", "Missing required fields: tierId and amount are required"},
	"invalid_amount":            {"amount", "Invalid amount. Must be between €0.50 and €100,000."},
	"invalid_tier_id":           {"tierId", "Invalid tier ID format"},
	"invalid_tier":              {"tierId", "Invalid tier selected"},
	"amount_mismatch":           {"amount", "Amount does not match tier price"},
	"invalid_currency":          {"currency", "Invalid currency. Use a three letter ISO code."},
	"invalid_user_type":         {"userType", "Invalid user type"},
	"invalid_email":             {"email", "Valid email is required"},
	"invalid_first_name":        {"firstName", "First name must be between 2 and 100 characters"},
	"invalid_last_name":         {"lastName", "Last name must be between 2 and 100 characters"},
	"invalid_linkedin_url":      {"linkedinUrl", "Invalid LinkedIn URL"},
	"invalid_website_url":       {"websiteUrl", "Invalid website URL"},
	"invalid_phone":             {"phone", "Invalid phone number"},
	"invalid_payment_intent_id": {"paymentIntentId", "Invalid payment intent ID"},
	"invalid_page_token":        {"page_token", "Invalid page token"},
	"invalid_page_size":         {"page_size", "Invalid page size"},
	"invalid_signature":         {"Stripe-Signature", "Invalid webhook signature"},
	"invalid_payload":           {"payload", "Invalid webhook payload"},
}

type validationEntry struct {
	field   string
	message string
}

var validationSentinels = []error{
	ErrInvalidRequest,
	paymentdomain.ErrMissingFields,
	paymentdomain.ErrInvalidAmount,
	paymentdomain.ErrInvalidTierID,
	paymentdomain.ErrUnknownTier,
	paymentdomain.ErrAmountMismatch,
	paymentdomain.ErrInvalidCurrency,
	paymentdomain.ErrInvalidSignature,
	paymentdomain.ErrInvalidPayload,
	memberdomain.ErrInvalidUserType,
	memberdomain.ErrInvalidEmail,
	memberdomain.ErrInvalidFirstName,
	memberdomain.ErrInvalidLastName,
	memberdomain.ErrInvalidLinkedinURL,
	memberdomain.ErrInvalidWebsiteURL,
	memberdomain.ErrInvalidPhone,
	memberdomain.ErrInvalidTierID,
	memberdomain.ErrUnknownTier,
	memberdomain.ErrInvalidPaymentIntentID,
	investordomain.ErrInvalidEmail,
	tierdomain.ErrInvalidTierID,
	tierdomain.ErrInvalidUserType,
	pagination.ErrInvalidPageToken,
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		var exceeded *ratelimit.ExceededError
		if errors.As(lastErr.Err, &exceeded) {
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(exceeded)))
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "Invalid request body")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: vErr.Error(),
			Errors:  vErr.Errors,
		}
	}

	var missing *memberdomain.MissingFieldsError
	if errors.As(err, &missing) {
		errs := make([]ValidationError, 0, len(missing.Fields))
		for _, field := range missing.Fields {
			errs = append(errs, ValidationError{Field: field, Code: "required", Message: field + " is required"})
		}
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: missing.Error(),
			Errors:  errs,
		}
	}

	var missingField *investordomain.MissingFieldError
	if errors.As(err, &missingField) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: missingField.Error(),
			Errors:  []ValidationError{{Field: missingField.Field, Code: "required", Message: missingField.Error()}},
		}
	}

	if code, ok := validationErrorCode(err); ok {
		entry := validationEntryFor(code)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: entry.message,
			Errors: []ValidationError{
				{
					Field:   entry.field,
					Code:    code,
					Message: entry.message,
				},
			},
		}
	}

	switch {
	case errors.Is(err, ratelimit.ErrLimitExceeded):
		message := "Too many requests. Please try again later."
		var exceeded *ratelimit.ExceededError
		if errors.As(err, &exceeded) {
			message = exceeded.Error()
		}
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: message,
		}
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, memberdomain.ErrEmailExists):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "An account with this email already exists",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, paymentdomain.ErrNotConfigured):
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "Payment processing not configured",
		}
	case errors.Is(err, ratelimit.ErrUnavailable),
		errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func validationErrorCode(err error) (string, bool) {
	for _, sentinel := range validationSentinels {
		if errors.Is(err, sentinel) {
			return sentinel.Error(), true
		}
	}
	return "", false
}

func validationEntryFor(code string) validationEntry {
	if entry, ok := validationMessages[code]; ok {
		return entry
	}
	return validationEntry{message: "invalid value"}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, tierdomain.ErrNotFound),
		errors.Is(err, memberdomain.ErrMemberNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func retryAfterSeconds(err *ratelimit.ExceededError) int {
	seconds := int(math.Ceil(err.RetryAfter.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}

// classifyErrorForLog returns the envelope type and code for request logs.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return payload.Type, "internal"
	}
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	return payload.Type, payload.Type
}
