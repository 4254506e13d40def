package entities

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Creation is one persisted generation artifact. Likes is a JSONB array of
// user IDs.
type Creation struct {
	ID            string          `gorm:"type:varchar(40);primaryKey"`
	UserID        string          `gorm:"type:varchar(64);not null;index"`
	Prompt        string          `gorm:"type:text;not null"`
	Content       string          `gorm:"type:text;not null"`
	Type          string          `gorm:"type:varchar(32);not null;index"`
	Published     bool            `gorm:"not null;default:false;index"`
	Likes         datatypes.JSON  `gorm:"type:jsonb;not null;default:'[]'"`
	EstimatedCost decimal.Decimal `gorm:"column:estimated_cost;type:decimal(12,6)"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime"`
}

func (Creation) TableName() string {
	return "creations"
}
