// Package creation owns the append-only log of produced artifacts and the
// community listing/like operations layered on top of it.
package creation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Creation is one persisted artifact. The orchestrator only ever inserts;
// published and likes are mutated through the community operations.
type Creation struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Prompt        string          `json:"prompt"`
	Content       string          `json:"content"`
	Type          string          `json:"type"`
	Published     bool            `json:"published"`
	Likes         []string        `json:"likes"`
	EstimatedCost decimal.Decimal `json:"estimated_cost"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// LikedBy reports whether userID is in the likes set.
func (c *Creation) LikedBy(userID string) bool {
	for _, id := range c.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// Repository defines persistence operations for creations.
type Repository interface {
	Insert(ctx context.Context, creation *Creation) error
	GetByID(ctx context.Context, id string) (*Creation, error)
	ListByUser(ctx context.Context, userID string) ([]Creation, error)
	ListPublished(ctx context.Context) ([]Creation, error)
	UpdateLikes(ctx context.Context, id string, likes []string) error
	SetPublished(ctx context.Context, id string, published bool) error
}
