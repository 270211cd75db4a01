package domain

import "time"

type Country struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Code      string    `json:"code" gorm:"type:varchar(2);not null;uniqueIndex"`
	Name      string    `json:"name" gorm:"type:varchar(120);not null"`
	CreatedAt time.Time `json:"created_at,omitempty" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at,omitempty" gorm:"not null"`
}

func (Country) TableName() string { return "countries" }
