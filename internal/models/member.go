package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MinMemberNumber is the first membership number handed out to profiles
// created without one.
const MinMemberNumber = 10000

type Member struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	UserID       *uuid.UUID     `json:"userId,omitempty" gorm:"type:uuid;uniqueIndex"`
	User         *User          `json:"user,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	FirstName    string         `json:"firstName" gorm:"size:50;not null"`
	LastName     string         `json:"lastName" gorm:"size:50;not null"`
	MemberNumber int            `json:"memberNumber" gorm:"uniqueIndex;not null"`
	Email        string         `json:"email"`
	IsAdmin      bool           `json:"isAdmin" gorm:"default:false"`
	DateJoined   datatypes.Date `json:"dateJoined" gorm:"<-:create"`
	DeviceToken  string         `json:"-"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func (m *Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if time.Time(m.DateJoined).IsZero() {
		m.DateJoined = Today()
	}
	return nil
}
