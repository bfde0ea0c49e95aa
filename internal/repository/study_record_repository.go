package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ouroboros-study/ouroboros-api/internal/models"
)

const (
	studyRecordColumns = `id, plan_id, study_date, subject, topic, subject_id, topic_id, study_time_ms,
questions_correct, questions_total, pages, videos, notes, category, review_periods,
teoria_finalizada, count_in_planning, created_at, updated_at`

	insertStudyRecordQuery = `INSERT INTO study_records (` + studyRecordColumns + `)
VALUES (:id, :plan_id, :study_date, :subject, :topic, :subject_id, :topic_id, :study_time_ms,
:questions_correct, :questions_total, :pages, :videos, :notes, :category, :review_periods,
:teoria_finalizada, :count_in_planning, :created_at, :updated_at)`

	updateStudyRecordQuery = `UPDATE study_records SET plan_id = :plan_id, study_date = :study_date, subject = :subject,
topic = :topic, subject_id = :subject_id, topic_id = :topic_id, study_time_ms = :study_time_ms,
questions_correct = :questions_correct, questions_total = :questions_total, pages = :pages, videos = :videos,
notes = :notes, category = :category, review_periods = :review_periods, teoria_finalizada = :teoria_finalizada,
count_in_planning = :count_in_planning, updated_at = :updated_at
WHERE id = :id`
)

// studyRecordRow is the flat table shape of a study record; nested values are JSON text.
type studyRecordRow struct {
	ID               string    `db:"id"`
	PlanID           string    `db:"plan_id"`
	StudyDate        string    `db:"study_date"`
	Subject          string    `db:"subject"`
	Topic            string    `db:"topic"`
	SubjectID        string    `db:"subject_id"`
	TopicID          string    `db:"topic_id"`
	StudyTimeMS      int64     `db:"study_time_ms"`
	QuestionsCorrect int       `db:"questions_correct"`
	QuestionsTotal   int       `db:"questions_total"`
	Pages            string    `db:"pages"`
	Videos           string    `db:"videos"`
	Notes            string    `db:"notes"`
	Category         string    `db:"category"`
	ReviewPeriods    string    `db:"review_periods"`
	TeoriaFinalizada bool      `db:"teoria_finalizada"`
	CountInPlanning  bool      `db:"count_in_planning"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func newStudyRecordRow(rec *models.StudyRecord) (*studyRecordRow, error) {
	pages, err := marshalList(rec.Pages)
	if err != nil {
		return nil, fmt.Errorf("encode pages: %w", err)
	}
	videos, err := marshalList(rec.Videos)
	if err != nil {
		return nil, fmt.Errorf("encode videos: %w", err)
	}
	periods, err := marshalList(rec.ReviewPeriods)
	if err != nil {
		return nil, fmt.Errorf("encode review periods: %w", err)
	}
	return &studyRecordRow{
		ID:               rec.ID,
		PlanID:           rec.PlanID,
		StudyDate:        rec.Date,
		Subject:          rec.Subject,
		Topic:            rec.Topic,
		SubjectID:        rec.SubjectID,
		TopicID:          rec.TopicID,
		StudyTimeMS:      rec.StudyTime,
		QuestionsCorrect: rec.Questions.Correct,
		QuestionsTotal:   rec.Questions.Total,
		Pages:            pages,
		Videos:           videos,
		Notes:            rec.Notes,
		Category:         string(rec.Category),
		ReviewPeriods:    periods,
		TeoriaFinalizada: rec.TeoriaFinalizada,
		CountInPlanning:  rec.CountInPlanning,
		CreatedAt:        rec.CreatedAt,
		UpdatedAt:        rec.UpdatedAt,
	}, nil
}

func (row studyRecordRow) model() (models.StudyRecord, error) {
	rec := models.StudyRecord{
		ID:               row.ID,
		PlanID:           row.PlanID,
		Date:             row.StudyDate,
		Subject:          row.Subject,
		Topic:            row.Topic,
		SubjectID:        row.SubjectID,
		TopicID:          row.TopicID,
		StudyTime:        row.StudyTimeMS,
		Questions:        models.Questions{Correct: row.QuestionsCorrect, Total: row.QuestionsTotal},
		Notes:            row.Notes,
		Category:         models.StudyCategory(row.Category),
		TeoriaFinalizada: row.TeoriaFinalizada,
		CountInPlanning:  row.CountInPlanning,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
	if err := unmarshalList(row.Pages, &rec.Pages); err != nil {
		return rec, fmt.Errorf("decode pages of %s: %w", row.ID, err)
	}
	if err := unmarshalList(row.Videos, &rec.Videos); err != nil {
		return rec, fmt.Errorf("decode videos of %s: %w", row.ID, err)
	}
	if err := unmarshalList(row.ReviewPeriods, &rec.ReviewPeriods); err != nil {
		return rec, fmt.Errorf("decode review periods of %s: %w", row.ID, err)
	}
	return rec, nil
}

// StudyRecordRepository persists the study history.
type StudyRecordRepository struct {
	db *sqlx.DB
}

// NewStudyRecordRepository constructs the repository.
func NewStudyRecordRepository(db *sqlx.DB) *StudyRecordRepository {
	return &StudyRecordRepository{db: db}
}

// List returns every record, newest study day first.
func (r *StudyRecordRepository) List(ctx context.Context) ([]models.StudyRecord, error) {
	return listStudyRecords(ctx, r.db)
}

// FindByID returns a record or sql.ErrNoRows.
func (r *StudyRecordRepository) FindByID(ctx context.Context, id string) (*models.StudyRecord, error) {
	var row studyRecordRow
	query := r.db.Rebind(`SELECT ` + studyRecordColumns + ` FROM study_records WHERE id = ?`)
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	rec, err := row.model()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create inserts a record. A missing id is generated; existing ids are never overwritten.
func (r *StudyRecordRepository) Create(ctx context.Context, rec *models.StudyRecord) error {
	return insertStudyRecord(ctx, r.db, rec)
}

// Update replaces the stored record with the same id. Unknown ids return sql.ErrNoRows.
func (r *StudyRecordRepository) Update(ctx context.Context, rec *models.StudyRecord) error {
	rec.UpdatedAt = time.Now().UTC()
	row, err := newStudyRecordRow(rec)
	if err != nil {
		return err
	}
	res, err := r.db.NamedExecContext(ctx, updateStudyRecordQuery, row)
	if err != nil {
		return fmt.Errorf("update study record: %w", err)
	}
	return requireAffected(res)
}

// UpdateMany applies several updates atomically.
func (r *StudyRecordRepository) UpdateMany(ctx context.Context, recs []models.StudyRecord) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for i := range recs {
		recs[i].UpdatedAt = now
		row, convErr := newStudyRecordRow(&recs[i])
		if convErr != nil {
			return convErr
		}
		res, execErr := tx.NamedExecContext(ctx, updateStudyRecordQuery, row)
		if execErr != nil {
			return fmt.Errorf("update study record %s: %w", recs[i].ID, execErr)
		}
		if err = requireAffected(res); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Delete removes a record; absent ids are ignored.
func (r *StudyRecordRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM study_records WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete study record: %w", err)
	}
	return nil
}

func listStudyRecords(ctx context.Context, q sqlx.QueryerContext) ([]models.StudyRecord, error) {
	var rows []studyRecordRow
	query := `SELECT ` + studyRecordColumns + ` FROM study_records ORDER BY study_date DESC, created_at DESC`
	if err := sqlx.SelectContext(ctx, q, &rows, query); err != nil {
		return nil, fmt.Errorf("list study records: %w", err)
	}
	out := make([]models.StudyRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.model()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func insertStudyRecord(ctx context.Context, db sqlx.ExtContext, rec *models.StudyRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	row, err := newStudyRecordRow(rec)
	if err != nil {
		return err
	}
	if _, err := sqlx.NamedExecContext(ctx, db, insertStudyRecordQuery, row); err != nil {
		return fmt.Errorf("create study record: %w", err)
	}
	return nil
}

func marshalList[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func unmarshalList[T any](raw string, dst *[]T) error {
	if raw == "" || raw == "null" {
		*dst = []T{}
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}
