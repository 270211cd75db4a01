package domain

import (
	"context"
	"errors"
)

type SubmitRequest struct {
	FirstName           string `json:"first_name"`
	LastName            string `json:"last_name"`
	Email               string `json:"email"`
	Phone               string `json:"phone"`
	Country             string `json:"country"`
	UserType            string `json:"user_type"`
	Company             string `json:"company"`
	Title               string `json:"title"`
	InvestorType        string `json:"investor_type"`
	AdditionalQuestions string `json:"additional_questions"`

	ClientIP string `json:"-"`
}

type SubmitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (SubmitResponse, error)
}

var ErrInvalidEmail = errors.New("invalid_email")

// MissingFieldError names the first required field that was empty.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "Missing required field: " + e.Field
}
