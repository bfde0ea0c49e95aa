package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ouroboros-study/ouroboros-api/internal/models"
)

const (
	planColumns = `id, name, observations, cargo, edital, source_file, subjects, banca_topic_weights, created_at, updated_at`

	insertPlanQuery = `INSERT INTO plans (` + planColumns + `)
VALUES (:id, :name, :observations, :cargo, :edital, :source_file, :subjects, :banca_topic_weights, :created_at, :updated_at)`
)

// PlanRepository persists plans together with their syllabus tree.
type PlanRepository struct {
	db *sqlx.DB
}

// NewPlanRepository creates a new repository instance.
func NewPlanRepository(db *sqlx.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// List returns every plan ordered by name.
func (r *PlanRepository) List(ctx context.Context) ([]models.Plan, error) {
	plans := []models.Plan{}
	if err := r.db.SelectContext(ctx, &plans, `SELECT `+planColumns+` FROM plans ORDER BY name ASC, created_at ASC`); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

// FindByID returns a plan by id or sql.ErrNoRows.
func (r *PlanRepository) FindByID(ctx context.Context, id string) (*models.Plan, error) {
	query := r.db.Rebind(`SELECT ` + planColumns + ` FROM plans WHERE id = ?`)
	var plan models.Plan
	if err := r.db.GetContext(ctx, &plan, query, id); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Create persists a new plan.
func (r *PlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	return insertPlan(ctx, r.db, plan)
}

// Update replaces a plan. Unknown ids return sql.ErrNoRows.
func (r *PlanRepository) Update(ctx context.Context, plan *models.Plan) error {
	plan.UpdatedAt = time.Now().UTC()
	const query = `UPDATE plans SET name = :name, observations = :observations, cargo = :cargo, edital = :edital,
source_file = :source_file, subjects = :subjects, banca_topic_weights = :banca_topic_weights, updated_at = :updated_at
WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, plan)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a plan; absent ids are ignored.
func (r *PlanRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM plans WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return nil
}

func insertPlan(ctx context.Context, db sqlx.ExtContext, plan *models.Plan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	if plan.UpdatedAt.IsZero() {
		plan.UpdatedAt = now
	}
	if plan.Subjects == nil {
		plan.Subjects = models.Subjects{}
	}
	if _, err := sqlx.NamedExecContext(ctx, db, insertPlanQuery, plan); err != nil {
		return fmt.Errorf("create plan: %w", err)
	}
	return nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
