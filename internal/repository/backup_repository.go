package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ouroboros-study/ouroboros-api/internal/models"
)

// BackupRepository reads and replaces every collection in one transaction.
type BackupRepository struct {
	db *sqlx.DB
}

// NewBackupRepository constructs the repository.
func NewBackupRepository(db *sqlx.DB) *BackupRepository {
	return &BackupRepository{db: db}
}

// Snapshot reads plans, records and the selected plan from a single transaction.
func (r *BackupRepository) Snapshot(ctx context.Context) (snap *models.Snapshot, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	plans := []models.Plan{}
	if err = tx.SelectContext(ctx, &plans, `SELECT `+planColumns+` FROM plans ORDER BY name ASC, created_at ASC`); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	records, err := listStudyRecords(ctx, tx)
	if err != nil {
		return nil, err
	}

	var selected string
	err = tx.GetContext(ctx, &selected, tx.Rebind(`SELECT value FROM app_settings WHERE key = ?`), models.SettingSelectedPlan)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load selected plan: %w", err)
	}
	err = nil

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &models.Snapshot{
		App:            models.BackupApp,
		Version:        models.BackupVersion,
		ExportedAt:     time.Now().UTC(),
		SelectedPlanID: selected,
		Plans:          plans,
		StudyRecords:   records,
	}, nil
}

// ReplaceAll wipes every collection and loads the snapshot contents. Nothing changes on failure.
func (r *BackupRepository) ReplaceAll(ctx context.Context, snap *models.Snapshot) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = clearTables(ctx, tx); err != nil {
		return err
	}
	for i := range snap.Plans {
		if err = insertPlan(ctx, tx, &snap.Plans[i]); err != nil {
			return err
		}
	}
	for i := range snap.StudyRecords {
		if err = insertStudyRecord(ctx, tx, &snap.StudyRecords[i]); err != nil {
			return err
		}
	}
	if snap.SelectedPlanID != "" {
		setting := models.AppSetting{Key: models.SettingSelectedPlan, Value: snap.SelectedPlanID, UpdatedAt: time.Now().UTC()}
		if _, err = tx.NamedExecContext(ctx, upsertSettingQuery, setting); err != nil {
			return fmt.Errorf("restore selected plan: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ClearAll removes every plan, record and setting.
func (r *BackupRepository) ClearAll(ctx context.Context) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = clearTables(ctx, tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func clearTables(ctx context.Context, tx *sqlx.Tx) error {
	for _, table := range []string{"study_records", "plans", "app_settings"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
