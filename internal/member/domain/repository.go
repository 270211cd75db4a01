package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/foundr/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	UserType string
	AfterID  snowflake.ID
}

type Repository interface {
	// Insert fails with a duplicate key error when the email is taken.
	Insert(ctx context.Context, db *gorm.DB, member *Member) error
	// InsertProfile stores the founder, partner or investor row.
	InsertProfile(ctx context.Context, db *gorm.DB, profile any) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Member, error)
	SetStripeCustomerID(ctx context.Context, db *gorm.DB, id snowflake.ID, customerID string) error
	// List returns members newest first. It fetches page.Limit()+1 rows so the
	// caller can tell whether another page exists.
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]Member, error)
}
