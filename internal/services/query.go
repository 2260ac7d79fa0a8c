package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/centralrock/route-tracker/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// DefaultDateRangeDays is the completions window when none is requested.
	DefaultDateRangeDays = 30
	// CompletionsPageSize is the page size of the admin completions view.
	CompletionsPageSize = 50
	// RecentCompletionWindow caps completions shown on a route or profile.
	RecentCompletionWindow = 10
)

type groupCount struct {
	GroupKey uuid.UUID
	Count    int64
}

// countBy counts completions per value of column for the given ids.
func countBy(db *gorm.DB, column string, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	var rows []groupCount
	err := db.Model(&models.Completion{}).
		Select(column+" AS group_key, COUNT(*) AS count").
		Where(column+" IN ?", ids).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.GroupKey] = r.Count
	}
	return counts, nil
}

// DateCutoff turns a date_range value into the earliest date to include.
// Empty means the default window; "all", garbage and negative numbers mean
// no restriction.
func DateCutoff(dateRange string, now time.Time) (datatypes.Date, bool) {
	dateRange = strings.TrimSpace(dateRange)
	days := DefaultDateRangeDays
	if dateRange != "" {
		n, err := strconv.Atoi(dateRange)
		if err != nil || n < 0 {
			return datatypes.Date{}, false
		}
		days = n
	}
	return models.DateOf(now.AddDate(0, 0, -days)), true
}

// ParseID returns nil for empty or malformed ids so filters drop them.
func ParseID(raw string) *uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &id
}
