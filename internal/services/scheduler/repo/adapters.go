// Package repo holds the dispatcher's narrow views of the record store plus
// the adapters binding them to the concrete repositories.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hsinyuc/linecast/internal/domain/group"
	"github.com/hsinyuc/linecast/internal/domain/message"
	"github.com/hsinyuc/linecast/internal/domain/settings"
	kafkax "github.com/hsinyuc/linecast/internal/repository/kafka"
)

type Messages interface {
	ListPending(ctx context.Context) ([]*message.Message, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error
	SetStatus(ctx context.Context, id uuid.UUID, st message.Status) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type Groups interface {
	GetByID(ctx context.Context, id uuid.UUID) (*group.Group, error)
}

// Credentials yields the current channel access token; empty means the LINE
// channel is not connected and the whole tick short-circuits.
type Credentials interface {
	Token(ctx context.Context) (string, error)
}

// DeliveryReport is the advisory event emitted per fired message.
type DeliveryReport struct {
	MessageID string    `json:"message_id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Delivered int       `json:"delivered"`
	Failed    int       `json:"failed"`
	At        time.Time `json:"at"`
}

type Events interface {
	PublishReport(ctx context.Context, r DeliveryReport) error
}

// TokenFromSettings adapts the settings row into a Credentials source. It is
// read per tick, so a token saved through the API takes effect without a
// restart.
type TokenFromSettings struct{ S settings.Repo }

func (t TokenFromSettings) Token(ctx context.Context) (string, error) {
	s, err := t.S.Get(ctx)
	if err != nil {
		return "", err
	}
	return s.ChannelToken, nil
}

// ReportPublisher adapts the kafka producer to the Events port.
type ReportPublisher struct{ P *kafkax.Producer }

func (e ReportPublisher) PublishReport(ctx context.Context, r DeliveryReport) error {
	return e.P.PublishJSON(ctx, []byte(r.MessageID), r)
}
