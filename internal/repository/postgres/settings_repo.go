package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hsinyuc/linecast/internal/domain/settings"
)

var _ settings.Repo = (*SettingsRepoImpl)(nil)

// SettingsRepoImpl stores the single LINE credentials row.
type SettingsRepoImpl struct {
	db *DB
}

func NewSettingsRepo(db *DB) *SettingsRepoImpl { return &SettingsRepoImpl{db: db} }

const (
	qSettingsGet = `
SELECT channel_token, channel_secret, updated_at
FROM line_settings
WHERE id = 1;
`

	qSettingsPut = `
INSERT INTO line_settings (id, channel_token, channel_secret)
VALUES (1, $1, $2)
ON CONFLICT (id) DO UPDATE
SET channel_token = EXCLUDED.channel_token,
    channel_secret = EXCLUDED.channel_secret,
    updated_at = now();
`
)

func (r *SettingsRepoImpl) Get(ctx context.Context) (*settings.Settings, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var s settings.Settings
	err := r.db.Pool.QueryRow(ctx, qSettingsGet).Scan(&s.ChannelToken, &s.ChannelSecret, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &settings.Settings{}, nil
		}
		return nil, fmt.Errorf("scan settings: %w", err)
	}
	return &s, nil
}

func (r *SettingsRepoImpl) Put(ctx context.Context, s *settings.Settings) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.Pool.Exec(ctx, qSettingsPut, s.ChannelToken, s.ChannelSecret); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}
