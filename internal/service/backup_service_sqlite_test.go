package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ouroboros-study/ouroboros-api/internal/repository"
	"github.com/ouroboros-study/ouroboros-api/pkg/database"
)

const richBackup = `{
  "app": "ouroboros",
  "version": 1,
  "selectedPlanId": "p-trf",
  "plans": [
    {"id": "p-trf", "name": "TRF 4", "cargo": "Analista", "edital": "2024",
     "subjects": [{"subject": "Direito Administrativo", "color": "#aa3300", "topics": [
       {"topic_text": "Atos administrativos"},
       {"topic_text": "Licitações", "sub_topics": [{"topic_text": "Modalidades"}, {"topic_text": "Conceito"}]}
     ]}],
     "bancaTopicWeights": {"Direito Administrativo": {"Atos administrativos": 4}}},
    {"id": "p-inss", "name": "INSS", "subjects": []}
  ],
  "studyRecords": [
    {"id": "r1", "planId": "p-trf", "date": "2024-03-01", "subject": "Direito Administrativo", "topic": "Atos administrativos",
     "studyTime": 3600000, "questions": {"correct": 8, "total": 10}, "pages": [{"start": 10, "end": 25}],
     "videos": [{"title": "Aula 1", "start": "00:00", "end": "45:10"}], "category": "teoria",
     "reviewPeriods": ["1d", "7d"], "teoriaFinalizada": true, "countInPlanning": true},
    {"id": "r2", "date": "2024-03-02", "subject": "Direito Administrativo", "topic": "Conceito", "category": "questoes",
     "questions": {"correct": 3, "total": 4}}
  ]
}`

func TestBackupServiceJSONRoundTripOnSQLite(t *testing.T) {
	db, err := database.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewBackupRepository(db)
	svc := NewBackupService(repo, nil, nil, validator.New(), nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 9, 22, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	_, err = svc.Import(ctx, []byte(richBackup))
	require.NoError(t, err)

	first, _, err := svc.Export(ctx)
	require.NoError(t, err)
	encoded, err := json.Marshal(first)
	require.NoError(t, err)

	result, err := svc.Import(ctx, encoded)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Plans)
	assert.Equal(t, 2, result.StudyRecords)
	assert.Equal(t, "p-trf", result.SelectedPlanID)

	second, _, err := svc.Export(ctx)
	require.NoError(t, err)
	reencoded, err := json.Marshal(second)
	require.NoError(t, err)

	assert.JSONEq(t, string(encoded), string(reencoded))
	assert.Equal(t, first.Plans, second.Plans)
	assert.Equal(t, first.StudyRecords, second.StudyRecords)
}
