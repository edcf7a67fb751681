package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuItem is a catalog entry of one category.
type MenuItem struct {
	ID          uint            `gorm:"primaryKey" json:"-" yaml:"-"`
	Category    string          `gorm:"type:varchar(50);not null;index" json:"category" yaml:"category"`
	Name        string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"name" yaml:"name"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price" yaml:"price"`
	Image       string          `gorm:"type:varchar(255)" json:"image" yaml:"image"`
	Description string          `gorm:"type:varchar(255)" json:"description" yaml:"description"`
	Position    int             `gorm:"not null;default:0" json:"-" yaml:"-"`
	CreatedAt   time.Time       `json:"-" yaml:"-"`
	UpdatedAt   time.Time       `json:"-" yaml:"-"`
}

func (MenuItem) TableName() string {
	return "menu_items"
}
