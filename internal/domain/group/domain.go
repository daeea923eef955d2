package group

import (
	"time"

	"github.com/google/uuid"
)

// Group is a delivery target. ChannelID is the LINE group or room identifier
// the push API understands; the dispatcher never edits groups.
type Group struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	ChannelID string    `json:"channel_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
