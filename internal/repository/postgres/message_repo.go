package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hsinyuc/linecast/internal/domain/message"
)

var _ message.Repo = (*MessageRepoImpl)(nil)

type MessageRepoImpl struct {
	db *DB
}

func NewMessageRepo(db *DB) *MessageRepoImpl { return &MessageRepoImpl{db: db} }

const msgColumns = `id, title, body, group_ids, currency, amount, kind, period, active, last_sent, scheduled_at, status, created_at, updated_at`

const (
	qMsgInsert = `
INSERT INTO messages (id, title, body, group_ids, currency, amount, kind, period, active, scheduled_at, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + msgColumns + `;
`

	qMsgGetByID = `
SELECT ` + msgColumns + `
FROM messages
WHERE id = $1;
`

	qMsgList = `
SELECT ` + msgColumns + `
FROM messages
ORDER BY created_at DESC;
`

	qMsgUpdate = `
UPDATE messages
SET title = $2, body = $3, group_ids = $4, currency = $5, amount = $6,
    kind = $7, period = $8, active = $9, scheduled_at = $10, status = $11,
    updated_at = now()
WHERE id = $1;
`

	qMsgDelete = `DELETE FROM messages WHERE id = $1;`

	qMsgListPending = `
SELECT ` + msgColumns + `
FROM messages
WHERE status IN ('scheduled', 'partial')
ORDER BY scheduled_at NULLS LAST;
`

	qMsgMarkDelivered = `
UPDATE messages
SET last_sent = $2, status = 'scheduled', updated_at = now()
WHERE id = $1;
`

	qMsgSetStatus = `
UPDATE messages
SET status = $2, updated_at = now()
WHERE id = $1;
`
)

func scanMessage(row pgx.Row, m *message.Message) error {
	if err := row.Scan(
		&m.ID,
		&m.Title,
		&m.Body,
		&m.GroupIDs,
		&m.Currency,
		&m.Amount,
		&m.Kind,
		&m.Period,
		&m.Active,
		&m.LastSent,
		&m.ScheduledAt,
		&m.Status,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan message: %w", err)
	}
	return nil
}

func (r *MessageRepoImpl) Create(ctx context.Context, m *message.Message) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Status == "" {
		m.Status = message.StatusScheduled
	}

	row := r.db.Pool.QueryRow(ctx, qMsgInsert,
		m.ID, m.Title, m.Body, m.GroupIDs, m.Currency, m.Amount,
		m.Kind, m.Period, m.Active, m.ScheduledAt, m.Status,
	)
	return scanMessage(row, m)
}

func (r *MessageRepoImpl) GetByID(ctx context.Context, id uuid.UUID) (*message.Message, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var m message.Message
	if err := scanMessage(r.db.Pool.QueryRow(ctx, qMsgGetByID, id), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepoImpl) List(ctx context.Context) ([]*message.Message, error) {
	return r.queryMany(ctx, qMsgList)
}

func (r *MessageRepoImpl) ListPending(ctx context.Context) ([]*message.Message, error) {
	return r.queryMany(ctx, qMsgListPending)
}

func (r *MessageRepoImpl) queryMany(ctx context.Context, q string) ([]*message.Message, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []*message.Message
	for rows.Next() {
		var m message.Message
		if err := scanMessage(rows, &m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *MessageRepoImpl) Update(ctx context.Context, m *message.Message) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, qMsgUpdate,
		m.ID, m.Title, m.Body, m.GroupIDs, m.Currency, m.Amount,
		m.Kind, m.Period, m.Active, m.ScheduledAt, m.Status,
	)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MessageRepoImpl) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, qMsgDelete, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MessageRepoImpl) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, qMsgMarkDelivered, id, at)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MessageRepoImpl) SetStatus(ctx context.Context, id uuid.UUID, st message.Status) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, qMsgSetStatus, id, st)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
