package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hsinyuc/linecast/internal/domain/template"
)

var _ template.Repo = (*TemplateRepoImpl)(nil)

type TemplateRepoImpl struct {
	db *DB
}

func NewTemplateRepo(db *DB) *TemplateRepoImpl { return &TemplateRepoImpl{db: db} }

const (
	qTmplInsert = `
INSERT INTO templates (id, title, body)
VALUES ($1, $2, $3)
RETURNING id, title, body, created_at, updated_at;
`

	qTmplGetByID = `
SELECT id, title, body, created_at, updated_at
FROM templates
WHERE id = $1;
`

	qTmplList = `
SELECT id, title, body, created_at, updated_at
FROM templates
ORDER BY created_at DESC;
`

	qTmplUpdate = `
UPDATE templates
SET title = $2, body = $3, updated_at = now()
WHERE id = $1;
`

	qTmplDelete = `DELETE FROM templates WHERE id = $1;`
)

func scanTemplate(row pgx.Row, t *template.Template) error {
	if err := row.Scan(&t.ID, &t.Title, &t.Body, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan template: %w", err)
	}
	return nil
}

func (r *TemplateRepoImpl) Create(ctx context.Context, t *template.Template) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	row := r.db.Pool.QueryRow(ctx, qTmplInsert, t.ID, t.Title, t.Body)
	return scanTemplate(row, t)
}

func (r *TemplateRepoImpl) GetByID(ctx context.Context, id uuid.UUID) (*template.Template, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var t template.Template
	if err := scanTemplate(r.db.Pool.QueryRow(ctx, qTmplGetByID, id), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepoImpl) List(ctx context.Context) ([]*template.Template, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qTmplList)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	var out []*template.Template
	for rows.Next() {
		var t template.Template
		if err := scanTemplate(rows, &t); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *TemplateRepoImpl) Update(ctx context.Context, t *template.Template) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, qTmplUpdate, t.ID, t.Title, t.Body)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TemplateRepoImpl) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, qTmplDelete, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
