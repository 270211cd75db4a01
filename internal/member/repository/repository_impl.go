package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/foundr/internal/member/domain"
	"github.com/smallbiznis/foundr/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, member *domain.Member) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO members (
			id, user_type, email, first_name, last_name, phone, country_id,
			linkedin_url, website_url, stripe_customer_id, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		member.ID,
		member.UserType,
		member.Email,
		member.FirstName,
		member.LastName,
		member.Phone,
		member.CountryID,
		member.LinkedinURL,
		member.WebsiteURL,
		member.StripeCustomerID,
		member.IsActive,
		member.CreatedAt,
		member.UpdatedAt,
	).Error
}

func (r *repo) InsertProfile(ctx context.Context, db *gorm.DB, profile any) error {
	return db.WithContext(ctx).Create(profile).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Member, error) {
	var member domain.Member
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&member).Error
	if err != nil {
		return nil, err
	}
	if member.ID == 0 {
		return nil, nil
	}
	return &member, nil
}

func (r *repo) SetStripeCustomerID(ctx context.Context, db *gorm.DB, id snowflake.ID, customerID string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE members SET stripe_customer_id = ?, updated_at = ? WHERE id = ?`,
		customerID,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]domain.Member, error) {
	var members []domain.Member
	stmt := db.WithContext(ctx).Model(&domain.Member{})
	if filter.UserType != "" {
		stmt = stmt.Where("user_type = ?", filter.UserType)
	}
	if filter.AfterID != 0 {
		stmt = stmt.Where("id < ?", filter.AfterID)
	}
	err := stmt.
		Order("id desc").
		Limit(page.Limit() + 1).
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}
