package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Completion records that a member sent a route. One per member and route.
type Completion struct {
	ID               uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	MemberID         uuid.UUID      `json:"memberId" gorm:"type:uuid;not null;uniqueIndex:idx_completion_member_route"`
	Member           Member         `json:"member,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	RouteID          uuid.UUID      `json:"routeId" gorm:"type:uuid;not null;uniqueIndex:idx_completion_member_route;index"`
	Route            Route          `json:"route,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	DateCompleted    datatypes.Date `json:"dateCompleted" gorm:"index"`
	DifficultyRating int            `json:"difficultyRating" gorm:"not null"`
	Notes            string         `json:"notes"`
	CreatedAt        time.Time      `json:"createdAt"`
}

func (c *Completion) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if time.Time(c.DateCompleted).IsZero() {
		c.DateCompleted = Today()
	}
	return nil
}

// Today is the current calendar date in UTC.
func Today() datatypes.Date {
	return DateOf(time.Now())
}

// DateOf truncates t to its calendar date in UTC so stored dates compare
// consistently across drivers.
func DateOf(t time.Time) datatypes.Date {
	y, m, d := t.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}
