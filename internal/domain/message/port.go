package message

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repo interface {
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*Message, error)
	List(ctx context.Context) ([]*Message, error)
	Update(ctx context.Context, m *Message) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ListPending returns every message the dispatcher still has to look at:
	// status scheduled, plus partial (periodic retries).
	ListPending(ctx context.Context) ([]*Message, error)
	// MarkDelivered records a fully successful periodic firing: last_sent
	// moves to at and status returns to scheduled.
	MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error
	SetStatus(ctx context.Context, id uuid.UUID, st Status) error
}

// Notifier pushes a text body to one external channel. Implementations own
// their request timeout; an error covers exactly one target.
type Notifier interface {
	Push(ctx context.Context, channelID, text string) error
}

// DeliveryError lets callers tell rate limits and provider outages apart from
// permanently bad targets.
type DeliveryError interface {
	error
	Transient() bool
}

type Clock interface {
	Now() time.Time
}
