package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ouroboros-study/ouroboros-api/internal/models"
)

const upsertSettingQuery = `INSERT INTO app_settings (key, value, updated_at)
VALUES (:key, :value, :updated_at)
ON CONFLICT (key)
DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

// SettingsRepository persists application preferences such as the selected plan.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get fetches a single setting by key. Missing keys return sql.ErrNoRows.
func (r *SettingsRepository) Get(ctx context.Context, key string) (*models.AppSetting, error) {
	query := r.db.Rebind(`SELECT key, value, updated_at FROM app_settings WHERE key = ?`)
	var setting models.AppSetting
	if err := r.db.GetContext(ctx, &setting, query, key); err != nil {
		return nil, err
	}
	return &setting, nil
}

// Upsert inserts or updates a setting.
func (r *SettingsRepository) Upsert(ctx context.Context, setting *models.AppSetting) error {
	setting.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, upsertSettingQuery, setting); err != nil {
		return fmt.Errorf("upsert setting %s: %w", setting.Key, err)
	}
	return nil
}

// Delete removes a setting; absent keys are ignored.
func (r *SettingsRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM app_settings WHERE key = ?`), key); err != nil {
		return fmt.Errorf("delete setting %s: %w", key, err)
	}
	return nil
}
