package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hsinyuc/linecast/internal/domain/group"
)

var _ group.Repo = (*GroupRepoImpl)(nil)

type GroupRepoImpl struct {
	db *DB
}

func NewGroupRepo(db *DB) *GroupRepoImpl { return &GroupRepoImpl{db: db} }

const (
	qGroupInsert = `
INSERT INTO groups (id, name, channel_id)
VALUES ($1, $2, $3)
RETURNING id, name, channel_id, created_at, updated_at;
`

	qGroupGetByID = `
SELECT id, name, channel_id, created_at, updated_at
FROM groups
WHERE id = $1;
`

	qGroupList = `
SELECT id, name, channel_id, created_at, updated_at
FROM groups
ORDER BY name;
`

	qGroupUpdate = `
UPDATE groups
SET name = $2, channel_id = $3, updated_at = now()
WHERE id = $1;
`

	qGroupDelete = `DELETE FROM groups WHERE id = $1;`
)

func scanGroup(row pgx.Row, g *group.Group) error {
	if err := row.Scan(&g.ID, &g.Name, &g.ChannelID, &g.CreatedAt, &g.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan group: %w", err)
	}
	return nil
}

func (r *GroupRepoImpl) Create(ctx context.Context, g *group.Group) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	row := r.db.Pool.QueryRow(ctx, qGroupInsert, g.ID, g.Name, g.ChannelID)
	if err := scanGroup(row, g); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (r *GroupRepoImpl) GetByID(ctx context.Context, id uuid.UUID) (*group.Group, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var g group.Group
	if err := scanGroup(r.db.Pool.QueryRow(ctx, qGroupGetByID, id), &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GroupRepoImpl) List(ctx context.Context) ([]*group.Group, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qGroupList)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	var out []*group.Group
	for rows.Next() {
		var g group.Group
		if err := scanGroup(rows, &g); err != nil {
			return nil, err
		}
		out = append(out, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *GroupRepoImpl) Update(ctx context.Context, g *group.Group) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, qGroupUpdate, g.ID, g.Name, g.ChannelID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("update group: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GroupRepoImpl) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, qGroupDelete, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
