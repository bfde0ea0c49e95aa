package service

import (
	"database/sql"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ouroboros-study/ouroboros-api/internal/models"
	appErrors "github.com/ouroboros-study/ouroboros-api/pkg/errors"
)

var reviewPeriodPattern = regexp.MustCompile(`^[1-9][0-9]*d$`)

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// reviewOffset returns N for a period "Nd".
func reviewOffset(period string) (int, bool) {
	if !reviewPeriodPattern.MatchString(period) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(period, "d"))
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseClock parses HH:MM:SS or MM:SS into a duration.
func parseClock(raw string) (time.Duration, bool) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	var total int
	for i, part := range parts {
		if len(part) == 0 || len(part) > 2 && i > 0 {
			return 0, false
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, false
		}
		if i > 0 && n > 59 {
			return 0, false
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second, true
}

func parseDay(raw string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(models.DateLayout, raw, loc)
}
