package service

import (
	"sort"
	"strings"
	"time"

	"github.com/ouroboros-study/ouroboros-api/internal/dto"
	"github.com/ouroboros-study/ouroboros-api/internal/models"
	appErrors "github.com/ouroboros-study/ouroboros-api/pkg/errors"
)

// ParseFilter converts query parameters into a record filter. Durations arrive in minutes.
func ParseFilter(q dto.StudyRecordQuery, loc *time.Location) (models.StudyRecordFilter, error) {
	if loc == nil {
		loc = time.Local
	}
	f := models.StudyRecordFilter{
		PlanID:         strings.TrimSpace(q.PlanID),
		Subject:        strings.TrimSpace(q.Subject),
		Category:       models.StudyCategory(q.Category),
		MinPerformance: q.MinPerformance,
		MaxPerformance: q.MaxPerformance,
		Subjects:       trimAll(q.Subjects),
		Topics:         trimAll(q.Topics),
	}
	if q.StartDate != "" {
		d, err := parseDay(q.StartDate, loc)
		if err != nil {
			return f, appErrors.WithField("startDate", "must match layout 2006-01-02")
		}
		f.StartDate = &d
	}
	if q.EndDate != "" {
		d, err := parseDay(q.EndDate, loc)
		if err != nil {
			return f, appErrors.WithField("endDate", "must match layout 2006-01-02")
		}
		f.EndDate = &d
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return f, appErrors.WithField("endDate", "must not be before startDate")
	}
	if q.MinDuration != nil {
		d := time.Duration(*q.MinDuration) * time.Minute
		f.MinDuration = &d
	}
	if q.MaxDuration != nil {
		d := time.Duration(*q.MaxDuration) * time.Minute
		f.MaxDuration = &d
	}
	return f, nil
}

// FilterRecords returns the records satisfying every set field of f. Date bounds
// are inclusive on both ends.
func FilterRecords(records []models.StudyRecord, f models.StudyRecordFilter) []models.StudyRecord {
	var start, end string
	if f.StartDate != nil {
		start = f.StartDate.Format(models.DateLayout)
	}
	if f.EndDate != nil {
		end = f.EndDate.Format(models.DateLayout)
	}
	subjects := toSet(f.Subjects)
	topics := toSet(f.Topics)

	out := make([]models.StudyRecord, 0, len(records))
	for _, rec := range records {
		switch {
		case f.PlanID != "" && rec.PlanID != "" && rec.PlanID != f.PlanID:
			continue
		case f.Subject != "" && rec.Subject != f.Subject:
			continue
		case f.Category != "" && rec.Category != f.Category:
			continue
		case start != "" && rec.Date < start:
			continue
		case end != "" && rec.Date > end:
			continue
		case f.MinDuration != nil && rec.StudyDuration() < *f.MinDuration:
			continue
		case f.MaxDuration != nil && rec.StudyDuration() > *f.MaxDuration:
			continue
		case f.MinPerformance != nil && rec.Performance() < *f.MinPerformance:
			continue
		case f.MaxPerformance != nil && rec.Performance() > *f.MaxPerformance:
			continue
		}
		if subjects != nil {
			if _, ok := subjects[rec.Subject]; !ok {
				continue
			}
		}
		if topics != nil {
			if _, ok := topics[rec.Topic]; !ok {
				continue
			}
		}
		out = append(out, rec)
	}
	return out
}

// GroupByDay groups records by calendar day, most recent day first and, within a
// day, most recently created first.
func GroupByDay(records []models.StudyRecord) dto.History {
	byDay := make(map[string]*dto.HistoryDay)
	history := dto.History{Days: []dto.HistoryDay{}}
	for _, rec := range records {
		day, ok := byDay[rec.Date]
		if !ok {
			day = &dto.HistoryDay{Date: rec.Date}
			byDay[rec.Date] = day
		}
		day.Records = append(day.Records, rec)
		day.StudyTime += rec.StudyTime
		day.Questions.Correct += rec.Questions.Correct
		day.Questions.Total += rec.Questions.Total

		history.Records++
		history.StudyTime += rec.StudyTime
		history.Questions.Correct += rec.Questions.Correct
		history.Questions.Total += rec.Questions.Total
	}
	for _, day := range byDay {
		sort.SliceStable(day.Records, func(i, j int) bool {
			a, b := day.Records[i], day.Records[j]
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		})
		history.Days = append(history.Days, *day)
	}
	sort.Slice(history.Days, func(i, j int) bool {
		return history.Days[i].Date > history.Days[j].Date
	})
	return history
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
