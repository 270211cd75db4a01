package repository

import (
	"context"

	"github.com/smallbiznis/foundr/internal/investor/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, s *domain.InterestSubmission) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO investor_interest_submissions (
			id, first_name, last_name, email, phone, country, user_type,
			company, title, investor_type, additional_questions, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID,
		s.FirstName,
		s.LastName,
		s.Email,
		s.Phone,
		s.Country,
		s.UserType,
		s.Company,
		s.Title,
		s.InvestorType,
		s.AdditionalQuestions,
		s.CreatedAt,
		s.UpdatedAt,
	).Error
}
