package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// InterestSubmission is an investor's expression of interest. It is not a
// member record and carries no tier.
type InterestSubmission struct {
	ID                  snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	FirstName           string       `json:"first_name" gorm:"type:varchar(100);not null"`
	LastName            string       `json:"last_name" gorm:"type:varchar(100);not null"`
	Email               string       `json:"email" gorm:"type:varchar(254);not null;index"`
	Phone               *string      `json:"phone,omitempty" gorm:"type:varchar(32)"`
	Country             string       `json:"country" gorm:"type:varchar(100);not null"`
	UserType            string       `json:"user_type" gorm:"type:varchar(32);not null"`
	Company             string       `json:"company" gorm:"type:varchar(255);not null"`
	Title               string       `json:"title" gorm:"type:varchar(255);not null"`
	InvestorType        string       `json:"investor_type" gorm:"type:varchar(64);not null"`
	AdditionalQuestions *string      `json:"additional_questions,omitempty" gorm:"type:text"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

func (InterestSubmission) TableName() string { return "investor_interest_submissions" }
