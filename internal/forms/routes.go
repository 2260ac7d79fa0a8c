package forms

import (
	"strconv"
	"strings"

	"github.com/centralrock/route-tracker/internal/models"
	"github.com/centralrock/route-tracker/internal/services"
	"github.com/google/uuid"
)

type RouteForm struct {
	Name       string `form:"name" json:"name" validate:"max=100"`
	Grade      string `form:"grade" json:"grade" validate:"required"`
	Color      string `form:"color" json:"color" validate:"required"`
	Area       string `form:"area" json:"area" validate:"required,uuid"`
	DateSet    string `form:"date_set" json:"date_set"`
	SetterName string `form:"setter_name" json:"setter_name" validate:"required,max=100"`
}

// NewRouteForm is a blank form dated today.
func NewRouteForm() RouteForm {
	return RouteForm{DateSet: FormatDate(models.Today())}
}

// RouteFormFor fills the form from an existing route.
func RouteFormFor(r *models.Route) RouteForm {
	return RouteForm{
		Name:       r.Name,
		Grade:      r.Grade,
		Color:      r.Color,
		Area:       r.AreaID.String(),
		DateSet:    FormatDate(r.DateSet),
		SetterName: r.SetterName,
	}
}

// Clean validates the form. The setter must be one of setterChoices.
func (f *RouteForm) Clean(setterChoices []string) (services.RouteInput, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Grade = strings.TrimSpace(f.Grade)
	f.Color = strings.ToLower(strings.TrimSpace(f.Color))
	f.Area = strings.TrimSpace(f.Area)
	f.SetterName = strings.TrimSpace(f.SetterName)

	verr := check(f)
	if f.Grade != "" && models.GradeRank(f.Grade) < 0 {
		verr.Add("grade", "Select a valid choice.")
	}
	if f.Color != "" && !models.IsColor(f.Color) {
		verr.Add("color", "Select a valid choice.")
	}
	if f.SetterName != "" && !contains(setterChoices, f.SetterName) {
		verr.Add("setter_name", "Select a valid choice.")
	}
	dateSet, ok := parseDate(f.DateSet)
	if !ok {
		verr.Add("date_set", "Enter a valid date.")
	}
	if err := verr.orNil(); err != nil {
		return services.RouteInput{}, err
	}

	return services.RouteInput{
		Name:       f.Name,
		Grade:      f.Grade,
		Color:      f.Color,
		AreaID:     uuid.MustParse(f.Area),
		DateSet:    dateSet,
		SetterName: f.SetterName,
	}, nil
}

type CompletionForm struct {
	DateCompleted    string `form:"date_completed" json:"date_completed"`
	DifficultyRating string `form:"difficulty_rating" json:"difficulty_rating" validate:"required,number"`
	Notes            string `form:"notes" json:"notes" validate:"max=2000"`
}

func NewCompletionForm() CompletionForm {
	return CompletionForm{DateCompleted: FormatDate(models.Today())}
}

func (f *CompletionForm) Clean() (services.CompletionInput, error) {
	f.DifficultyRating = strings.TrimSpace(f.DifficultyRating)
	f.Notes = strings.TrimSpace(f.Notes)

	verr := check(f)
	rating := 0
	if !verr.Has("difficulty_rating") {
		rating, _ = strconv.Atoi(f.DifficultyRating)
		if rating < 1 || rating > 5 {
			verr.Add("difficulty_rating", "Rate the route from 1 to 5.")
		}
	}
	date, ok := parseDate(f.DateCompleted)
	if !ok {
		verr.Add("date_completed", "Enter a valid date.")
	}
	if err := verr.orNil(); err != nil {
		return services.CompletionInput{}, err
	}

	return services.CompletionInput{
		DateCompleted:    date,
		DifficultyRating: rating,
		Notes:            f.Notes,
	}, nil
}

// StatusForm is the route status checkbox. A missing is_active field means
// the box was left unticked and the route is archived.
type StatusForm struct {
	IsActive string `form:"is_active" json:"is_active"`
}

func (f *StatusForm) Active() bool {
	switch strings.ToLower(strings.TrimSpace(f.IsActive)) {
	case "", "0", "false", "off", "no":
		return false
	default:
		return true
	}
}

// Bulk route actions.
const (
	BulkArchive     = "archive"
	BulkRestore     = "restore"
	BulkArchiveArea = "archive_area"
)

type BulkForm struct {
	Action   string   `form:"action" json:"action" validate:"required,oneof=archive restore archive_area"`
	RouteIDs []string `form:"route_ids" json:"route_ids"`
	Area     string   `form:"area" json:"area"`
}

// Clean returns the parsed route ids and area. Malformed ids are reported
// rather than skipped so nothing is half applied.
func (f *BulkForm) Clean() ([]uuid.UUID, uuid.UUID, error) {
	f.Action = strings.TrimSpace(f.Action)
	verr := check(f)

	var ids []uuid.UUID
	var area uuid.UUID
	switch f.Action {
	case BulkArchive, BulkRestore:
		if len(f.RouteIDs) == 0 {
			verr.Add("route_ids", "Select at least one route.")
		}
		for _, raw := range f.RouteIDs {
			id, err := uuid.Parse(strings.TrimSpace(raw))
			if err != nil {
				verr.Add("route_ids", "Select a valid choice.")
				break
			}
			ids = append(ids, id)
		}
	case BulkArchiveArea:
		id, err := uuid.Parse(strings.TrimSpace(f.Area))
		if err != nil {
			verr.Add("area", "Select a valid choice.")
		}
		area = id
	}
	if err := verr.orNil(); err != nil {
		return nil, uuid.Nil, err
	}
	return ids, area, nil
}

type AreaForm struct {
	Name        string `form:"name" json:"name" validate:"required,max=100"`
	Description string `form:"description" json:"description"`
}

func (f *AreaForm) Validate() error {
	f.Name = strings.TrimSpace(f.Name)
	return check(f).orNil()
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
