package template

import (
	"time"

	"github.com/google/uuid"
)

// Template is reusable body text the operator copies into new messages.
type Template struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
