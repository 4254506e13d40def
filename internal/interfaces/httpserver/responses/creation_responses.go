package responses

import (
	"time"

	"creatorhub/services/creation-api/internal/domain/creation"
)

// CreationResponse is the public shape of one creation.
type CreationResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Prompt    string    `json:"prompt"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	Published bool      `json:"published"`
	Likes     []string  `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCreationResponse maps a domain creation.
func NewCreationResponse(c *creation.Creation) CreationResponse {
	likes := c.Likes
	if likes == nil {
		likes = []string{}
	}
	return CreationResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		Prompt:    c.Prompt,
		Content:   c.Content,
		Type:      c.Type,
		Published: c.Published,
		Likes:     likes,
		CreatedAt: c.CreatedAt,
	}
}

// NewCreationListResponse maps a slice of domain creations.
func NewCreationListResponse(list []creation.Creation) []CreationResponse {
	out := make([]CreationResponse, 0, len(list))
	for i := range list {
		out = append(out, NewCreationResponse(&list[i]))
	}
	return out
}
