package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ouroboros-study/ouroboros-api/internal/models"
	"github.com/ouroboros-study/ouroboros-api/pkg/database"
)

func newSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seed(t *testing.T, db *sqlx.DB) (*models.Plan, []models.StudyRecord) {
	t.Helper()
	ctx := context.Background()
	plan := &models.Plan{
		Name: "TRF 4",
		Subjects: models.Subjects{{
			ID:      "s1",
			Subject: "Direito Administrativo",
			Topics: []models.Topic{
				{ID: "t1", TopicText: "Atos administrativos"},
				{ID: "t2", TopicText: "Licitações", IsGroupingTopic: true, SubTopics: []models.Topic{{ID: "t3", TopicText: "Modalidades"}}},
			},
		}},
		BancaTopicWeights: models.TopicWeights{"Direito Administrativo": {"Atos administrativos": 4}},
	}
	require.NoError(t, NewPlanRepository(db).Create(ctx, plan))
	require.NoError(t, NewSettingsRepository(db).Upsert(ctx, &models.AppSetting{Key: models.SettingSelectedPlan, Value: plan.ID}))

	records := []models.StudyRecord{
		{
			PlanID: plan.ID, Date: "2024-03-01", Subject: "Direito Administrativo", Topic: "Atos administrativos",
			StudyTime: 3600000, Questions: models.Questions{Correct: 8, Total: 10},
			Pages:    []models.PageRange{{Start: 10, End: 25}},
			Videos:   []models.Video{{Title: "Aula 1", Start: "00:00", End: "45:10"}},
			Category: models.CategoryTeoria, ReviewPeriods: []string{"1d", "7d"}, TeoriaFinalizada: true, CountInPlanning: true,
		},
		{Date: "2024-03-02", Subject: "Direito Administrativo", Topic: "Modalidades", Category: models.CategoryQuestoes},
	}
	repo := NewStudyRecordRepository(db)
	for i := range records {
		require.NoError(t, repo.Create(ctx, &records[i]))
	}
	return plan, records
}

func TestStudyRecordRepositoryRoundTrip(t *testing.T) {
	db := newSQLite(t)
	_, records := seed(t, db)
	repo := NewStudyRecordRepository(db)
	ctx := context.Background()

	got, err := repo.FindByID(ctx, records[0].ID)
	require.NoError(t, err)
	assert.Equal(t, records[0].Pages, got.Pages)
	assert.Equal(t, records[0].Videos, got.Videos)
	assert.Equal(t, []string{"1d", "7d"}, got.ReviewPeriods)
	assert.True(t, got.TeoriaFinalizada)
	assert.Equal(t, models.Questions{Correct: 8, Total: 10}, got.Questions)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2024-03-02", list[0].Date)

	missing := models.StudyRecord{ID: "missing", Date: "2024-03-01", Subject: "x", Category: models.CategoryTeoria}
	assert.ErrorIs(t, repo.Update(ctx, &missing), sql.ErrNoRows)

	require.NoError(t, repo.Delete(ctx, records[1].ID))
	require.NoError(t, repo.Delete(ctx, records[1].ID))
	_, err = repo.FindByID(ctx, records[1].ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestBackupRepositoryExportClearImport(t *testing.T) {
	db := newSQLite(t)
	plan, _ := seed(t, db)
	repo := NewBackupRepository(db)
	ctx := context.Background()

	snap, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.BackupApp, snap.App)
	assert.Equal(t, plan.ID, snap.SelectedPlanID)
	require.Len(t, snap.Plans, 1)
	require.Len(t, snap.StudyRecords, 2)

	require.NoError(t, repo.ClearAll(ctx))
	empty, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Plans)
	assert.Empty(t, empty.StudyRecords)
	assert.Empty(t, empty.SelectedPlanID)

	require.NoError(t, repo.ReplaceAll(ctx, snap))
	restored, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.SelectedPlanID, restored.SelectedPlanID)
	assert.Equal(t, snap.Plans[0].Subjects, restored.Plans[0].Subjects)
	assert.Equal(t, snap.Plans[0].BancaTopicWeights, restored.Plans[0].BancaTopicWeights)
	require.Len(t, restored.StudyRecords, 2)
	assert.ElementsMatch(t,
		[]string{snap.StudyRecords[0].ID, snap.StudyRecords[1].ID},
		[]string{restored.StudyRecords[0].ID, restored.StudyRecords[1].ID})
}

func TestBackupRepositoryReplaceAllIsAtomic(t *testing.T) {
	db := newSQLite(t)
	seed(t, db)
	repo := NewBackupRepository(db)
	ctx := context.Background()

	dup := models.StudyRecord{ID: "dup", Date: "2024-01-01", Subject: "A", Category: models.CategoryTeoria}
	bad := &models.Snapshot{
		Plans:        []models.Plan{},
		StudyRecords: []models.StudyRecord{dup, dup},
	}
	require.Error(t, repo.ReplaceAll(ctx, bad))

	snap, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Plans, 1)
	assert.Len(t, snap.StudyRecords, 2)
}
