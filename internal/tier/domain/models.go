package domain

import (
	"database/sql"
	"database/sql/driver"
	"math"
	"slices"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type Tier struct {
	ID            string                      `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name          string                      `json:"name" gorm:"type:varchar(120);not null"`
	Description   *string                     `json:"description,omitempty"`
	Price         float64                     `json:"price" gorm:"type:numeric(10,2);not null"`
	DisplayPrice  string                      `json:"display_price" gorm:"type:varchar(32);not null"`
	OriginalPrice *float64                    `json:"original_price,omitempty" gorm:"type:numeric(10,2)"`
	Currency      string                      `json:"currency" gorm:"type:varchar(3);not null"`
	Features      datatypes.JSONSlice[string] `json:"features"`
	UserTypes     UserTypes                   `json:"user_types" gorm:"not null"`
	IsActive      bool                        `json:"is_active" gorm:"not null"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

func (Tier) TableName() string { return "tiers" }

// PriceCents converts the decimal price to minor units.
func (t Tier) PriceCents() int64 {
	return int64(math.Round(t.Price * 100))
}

func (t Tier) IsFree() bool {
	return t.PriceCents() == 0
}

func (t Tier) AppliesTo(userType string) bool {
	return slices.Contains(t.UserTypes, userType)
}

// UserTypes is stored as a Postgres text[] and as its text encoding elsewhere.
type UserTypes []string

func (u UserTypes) Value() (driver.Value, error) {
	return pq.StringArray(u).Value()
}

func (u *UserTypes) Scan(src any) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*u = UserTypes(arr)
	return nil
}

func (UserTypes) GormDataType() string {
	return "text"
}

func (UserTypes) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

var (
	_ driver.Valuer = UserTypes(nil)
	_ sql.Scanner   = (*UserTypes)(nil)
)
