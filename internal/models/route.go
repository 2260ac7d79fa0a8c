package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Grades in ascending difficulty.
var Grades = []string{"VB", "V0", "V1", "V2", "V3", "V4", "V5"}

var Colors = []string{"red", "blue", "green", "yellow", "orange", "purple", "pink", "black"}

type Route struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Name       string         `json:"name" gorm:"size:100"`
	Grade      string         `json:"grade" gorm:"size:3;not null;index"`
	Color      string         `json:"color" gorm:"size:10;not null"`
	DateSet    datatypes.Date `json:"dateSet" gorm:"index"`
	AreaID     uuid.UUID      `json:"areaId" gorm:"type:uuid;not null;index"`
	Area       Area           `json:"area,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	SetterName string         `json:"setterName" gorm:"size:100"`
	IsActive   bool           `json:"isActive" gorm:"default:true;index"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// Label is how a route is shown to people: "Name (V3)" or "Red V3".
func (r *Route) Label() string {
	if r.Name != "" {
		return fmt.Sprintf("%s (%s)", r.Name, r.Grade)
	}
	color := r.Color
	if color != "" {
		color = strings.ToUpper(color[:1]) + color[1:]
	}
	return fmt.Sprintf("%s %s", color, r.Grade)
}

func (r *Route) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if time.Time(r.DateSet).IsZero() {
		r.DateSet = Today()
	}
	return nil
}

// GradeRank returns the position of grade in Grades, or -1.
func GradeRank(grade string) int {
	for i, g := range Grades {
		if g == grade {
			return i
		}
	}
	return -1
}

func IsColor(color string) bool {
	for _, c := range Colors {
		if c == color {
			return true
		}
	}
	return false
}
