package service

import (
	"context"
	"sort"
	"time"

	"github.com/ouroboros-study/ouroboros-api/internal/dto"
	"github.com/ouroboros-study/ouroboros-api/internal/models"
	appErrors "github.com/ouroboros-study/ouroboros-api/pkg/errors"
)

const (
	defaultReviewWindow = 7
	maxReviewWindow     = 365
)

// ReviewService derives spaced-repetition reviews from record review periods.
type ReviewService struct {
	records recordLister
	loc     *time.Location
	now     func() time.Time
}

// NewReviewService constructs the service. loc defaults to time.Local.
func NewReviewService(records recordLister, loc *time.Location) *ReviewService {
	if loc == nil {
		loc = time.Local
	}
	return &ReviewService{records: records, loc: loc, now: time.Now}
}

// Schedule lists reviews due on date (today when empty), overdue ones not yet
// covered by a later revisao record, and upcoming ones within days.
func (s *ReviewService) Schedule(ctx context.Context, date string, days int) (*dto.ReviewSchedule, error) {
	ref := s.now().In(s.loc)
	if date != "" {
		parsed, err := parseDay(date, s.loc)
		if err != nil {
			return nil, appErrors.WithField("date", "must match layout 2006-01-02")
		}
		ref = parsed
	}
	if days <= 0 {
		days = defaultReviewWindow
	}
	if days > maxReviewWindow {
		return nil, appErrors.WithField("days", "must be at most 365")
	}

	records, err := s.records.List(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list study records")
	}
	return BuildReviewSchedule(records, ref, days, s.loc), nil
}

// BuildReviewSchedule is the pure part of Schedule.
func BuildReviewSchedule(records []models.StudyRecord, ref time.Time, days int, loc *time.Location) *dto.ReviewSchedule {
	today := ref.Format(models.DateLayout)
	horizon := ref.AddDate(0, 0, days).Format(models.DateLayout)

	revisions := make(map[string][]string)
	for _, rec := range records {
		if rec.Category == models.CategoryRevisao {
			k := reviewKey(rec.Subject, rec.Topic)
			revisions[k] = append(revisions[k], rec.Date)
		}
	}
	covered := func(rec models.StudyRecord, due string) bool {
		for _, d := range revisions[reviewKey(rec.Subject, rec.Topic)] {
			if d > rec.Date && d >= due {
				return true
			}
		}
		return false
	}

	out := &dto.ReviewSchedule{
		Date:     today,
		Due:      []dto.ReviewItem{},
		Overdue:  []dto.ReviewItem{},
		Upcoming: []dto.ReviewItem{},
	}
	for _, rec := range records {
		if len(rec.ReviewPeriods) == 0 {
			continue
		}
		studied, err := rec.Day(loc)
		if err != nil {
			continue
		}
		for _, period := range rec.ReviewPeriods {
			n, ok := reviewOffset(period)
			if !ok {
				continue
			}
			due := studied.AddDate(0, 0, n).Format(models.DateLayout)
			item := dto.ReviewItem{
				RecordID:  rec.ID,
				Subject:   rec.Subject,
				Topic:     rec.Topic,
				Period:    period,
				StudyDate: rec.Date,
				DueDate:   due,
			}
			switch {
			case due > horizon:
			case due > today:
				out.Upcoming = append(out.Upcoming, item)
			case covered(rec, due):
			case due == today:
				out.Due = append(out.Due, item)
			default:
				out.Overdue = append(out.Overdue, item)
			}
		}
	}
	for _, list := range [][]dto.ReviewItem{out.Due, out.Overdue, out.Upcoming} {
		sortReviews(list)
	}
	return out
}

func sortReviews(items []dto.ReviewItem) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.DueDate != b.DueDate {
			return a.DueDate < b.DueDate
		}
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.Topic != b.Topic {
			return a.Topic < b.Topic
		}
		return a.RecordID < b.RecordID
	})
}

func reviewKey(subject, topic string) string {
	return subject + "\x00" + topic
}
