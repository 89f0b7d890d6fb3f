package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Franchise is the account-management view of an operator. The compliance
// engine only reads it.
type Franchise struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Name      string       `gorm:"type:text;not null"`
	IsActive  bool         `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time    `gorm:"not null"`
}

func (Franchise) TableName() string { return "franchises" }
