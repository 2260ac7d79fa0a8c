package services

import (
	"context"
	"time"

	"github.com/centralrock/route-tracker/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CompletionService struct {
	db *gorm.DB
}

func NewCompletionService(db *gorm.DB) *CompletionService {
	return &CompletionService{db: db}
}

type CompletionInput struct {
	DateCompleted    datatypes.Date
	DifficultyRating int
	Notes            string
}

// CompletionFilter holds the admin completions query. Nil ids are ignored.
type CompletionFilter struct {
	RouteID   *uuid.UUID
	MemberID  *uuid.UUID
	AreaID    *uuid.UUID
	DateRange string
	Page      int
}

type CompletionPage struct {
	Completions      []models.Completion `json:"completions"`
	Page             int                 `json:"page"`
	PageSize         int                 `json:"pageSize"`
	TotalPages       int                 `json:"totalPages"`
	FilteredCount    int64               `json:"filteredCount"`
	TotalCompletions int64               `json:"totalCompletions"`
	RouteOptions     []models.Route      `json:"routeOptions"`
	MemberOptions    []models.Member     `json:"memberOptions"`
	AreaOptions      []models.Area       `json:"areaOptions"`
}

// Log records that member climbed the route. A second completion of the
// same route returns ErrAlreadyCompleted and leaves the first untouched.
func (s *CompletionService) Log(ctx context.Context, member *models.Member, routeID uuid.UUID, in CompletionInput) (*models.Completion, *models.Route, error) {
	db := s.db.WithContext(ctx)

	var route models.Route
	if err := db.First(&route, "id = ?", routeID).Error; err != nil {
		return nil, nil, notFound(err)
	}
	if !route.IsActive {
		return nil, &route, ErrRouteArchived
	}

	done, err := s.Exists(ctx, member.ID, routeID)
	if err != nil {
		return nil, nil, err
	}
	if done {
		return nil, &route, ErrAlreadyCompleted
	}

	completion := &models.Completion{
		MemberID:         member.ID,
		RouteID:          routeID,
		DateCompleted:    in.DateCompleted,
		DifficultyRating: in.DifficultyRating,
		Notes:            in.Notes,
	}
	if err := db.Omit(clause.Associations).Create(completion).Error; err != nil {
		if isDuplicate(err) {
			return nil, &route, ErrAlreadyCompleted
		}
		return nil, nil, err
	}
	return completion, &route, nil
}

// Exists reports whether the member has already logged the route.
func (s *CompletionService) Exists(ctx context.Context, memberID, routeID uuid.UUID) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Completion{}).
		Where("member_id = ? AND route_id = ?", memberID, routeID).
		Count(&n).Error
	return n > 0, err
}

// Recent returns the latest completions across the gym.
func (s *CompletionService) Recent(ctx context.Context, limit int) ([]models.Completion, error) {
	var completions []models.Completion
	err := s.db.WithContext(ctx).
		Preload("Member").
		Preload("Route").
		Order("date_completed DESC, created_at DESC").
		Limit(limit).
		Find(&completions).Error
	return completions, err
}

// Browse runs the admin completions query and loads the filter choices.
func (s *CompletionService) Browse(ctx context.Context, f CompletionFilter, now time.Time) (*CompletionPage, error) {
	db := s.db.WithContext(ctx)

	query := db.Model(&models.Completion{})
	if f.RouteID != nil {
		query = query.Where("completions.route_id = ?", *f.RouteID)
	}
	if f.MemberID != nil {
		query = query.Where("completions.member_id = ?", *f.MemberID)
	}
	if f.AreaID != nil {
		query = query.Joins("JOIN routes ON routes.id = completions.route_id").
			Where("routes.area_id = ?", *f.AreaID)
	}
	if cutoff, ok := DateCutoff(f.DateRange, now); ok {
		query = query.Where("completions.date_completed >= ?", cutoff)
	}

	page := &CompletionPage{Page: f.Page, PageSize: CompletionsPageSize}
	if page.Page < 1 {
		page.Page = 1
	}

	if err := query.Session(&gorm.Session{}).Count(&page.FilteredCount).Error; err != nil {
		return nil, err
	}
	page.TotalPages = int((page.FilteredCount + CompletionsPageSize - 1) / CompletionsPageSize)
	if last := max(page.TotalPages, 1); page.Page > last {
		page.Page = last
	}

	if err := query.Session(&gorm.Session{}).
		Preload("Member").
		Preload("Route.Area").
		Order("completions.date_completed DESC, completions.created_at DESC").
		Offset((page.Page - 1) * CompletionsPageSize).
		Limit(CompletionsPageSize).
		Find(&page.Completions).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.Completion{}).Count(&page.TotalCompletions).Error; err != nil {
		return nil, err
	}

	if err := db.Preload("Area").
		Joins("JOIN areas ON areas.id = routes.area_id").
		Where("routes.is_active = ?", true).
		Order("areas.name, routes.grade").
		Find(&page.RouteOptions).Error; err != nil {
		return nil, err
	}
	if err := db.Order("first_name, last_name").Find(&page.MemberOptions).Error; err != nil {
		return nil, err
	}
	if err := db.Order("name").Find(&page.AreaOptions).Error; err != nil {
		return nil, err
	}
	return page, nil
}
