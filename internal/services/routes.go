package services

import (
	"context"
	"sort"
	"strings"

	"github.com/centralrock/route-tracker/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Route status filters for the management view.
const (
	FilterActive   = "active"
	FilterArchived = "archived"
	FilterAll      = "all"
)

type RouteService struct {
	db *gorm.DB
}

func NewRouteService(db *gorm.DB) *RouteService {
	return &RouteService{db: db}
}

type RouteInput struct {
	Name       string
	Grade      string
	Color      string
	AreaID     uuid.UUID
	DateSet    datatypes.Date
	SetterName string
}

type RouteDetail struct {
	Route           models.Route        `json:"route"`
	Completions     []models.Completion `json:"completions"`
	CompletionCount int64               `json:"completionCount"`
	MyCompletion    *models.Completion  `json:"myCompletion,omitempty"`
}

// ListActive returns the public route list, newest first.
func (s *RouteService) ListActive(ctx context.Context) ([]models.Route, error) {
	var routes []models.Route
	err := s.db.WithContext(ctx).
		Preload("Area").
		Where("is_active = ?", true).
		Order("date_set DESC").
		Find(&routes).Error
	return routes, err
}

func (s *RouteService) Get(ctx context.Context, id uuid.UUID) (*models.Route, error) {
	var route models.Route
	if err := s.db.WithContext(ctx).Preload("Area").First(&route, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &route, nil
}

// Detail loads a route with its most recent completions and, when viewer is
// set, the viewer's own completion.
func (s *RouteService) Detail(ctx context.Context, id uuid.UUID, viewer *models.Member) (*RouteDetail, error) {
	route, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	detail := &RouteDetail{Route: *route}
	if err := db.Preload("Member").
		Where("route_id = ?", id).
		Order("date_completed DESC, created_at DESC").
		Limit(RecentCompletionWindow).
		Find(&detail.Completions).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Completion{}).Where("route_id = ?", id).Count(&detail.CompletionCount).Error; err != nil {
		return nil, err
	}

	if viewer != nil {
		var mine []models.Completion
		if err := db.Where("route_id = ? AND member_id = ?", id, viewer.ID).Limit(1).Find(&mine).Error; err != nil {
			return nil, err
		}
		if len(mine) > 0 {
			detail.MyCompletion = &mine[0]
		}
	}
	return detail, nil
}

func (s *RouteService) Create(ctx context.Context, in RouteInput) (*models.Route, error) {
	if err := s.requireArea(ctx, in.AreaID); err != nil {
		return nil, err
	}

	route := &models.Route{
		Name:       strings.TrimSpace(in.Name),
		Grade:      in.Grade,
		Color:      in.Color,
		AreaID:     in.AreaID,
		DateSet:    in.DateSet,
		SetterName: in.SetterName,
		IsActive:   true,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(route).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, route.ID)
}

func (s *RouteService) Update(ctx context.Context, id uuid.UUID, in RouteInput) (*models.Route, error) {
	if err := s.requireArea(ctx, in.AreaID); err != nil {
		return nil, err
	}

	result := s.db.WithContext(ctx).Model(&models.Route{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":        strings.TrimSpace(in.Name),
		"grade":       in.Grade,
		"color":       in.Color,
		"area_id":     in.AreaID,
		"date_set":    in.DateSet,
		"setter_name": in.SetterName,
	})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *RouteService) requireArea(ctx context.Context, areaID uuid.UUID) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Area{}).Where("id = ?", areaID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrAreaNotFound
	}
	return nil
}

// SetStatus sets the route to the given state. Setting the current state
// again is not an error.
func (s *RouteService) SetStatus(ctx context.Context, id uuid.UUID, active bool) (*models.Route, error) {
	route, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Route{}).
		Where("id = ?", id).
		Update("is_active", active).Error; err != nil {
		return nil, err
	}
	route.IsActive = active
	return route, nil
}

// Manage lists routes for administration. Unknown filters show everything.
func (s *RouteService) Manage(ctx context.Context, filter string) ([]models.Route, error) {
	query := s.db.WithContext(ctx).Preload("Area").Order("date_set DESC")
	switch filter {
	case FilterActive:
		query = query.Where("is_active = ?", true)
	case FilterArchived:
		query = query.Where("is_active = ?", false)
	}

	var routes []models.Route
	err := query.Find(&routes).Error
	return routes, err
}

// BulkSetActive archives or restores the given routes in one statement and
// reports how many changed.
func (s *RouteService) BulkSetActive(ctx context.Context, ids []uuid.UUID, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).Model(&models.Route{}).
		Where("id IN ? AND is_active = ?", ids, !active).
		Update("is_active", active)
	return result.RowsAffected, result.Error
}

// ArchiveArea archives every active route of an area in one statement.
func (s *RouteService) ArchiveArea(ctx context.Context, areaID uuid.UUID) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Route{}).
		Where("area_id = ? AND is_active = ?", areaID, true).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}

// SetterChoices lists the display names of staff users and admin members,
// without duplicates and sorted. A non-empty current value is always kept so
// editing an old route does not lose its setter.
func (s *RouteService) SetterChoices(ctx context.Context, current string) ([]string, error) {
	db := s.db.WithContext(ctx)

	var staff []models.User
	if err := db.Where("is_staff = ?", true).Find(&staff).Error; err != nil {
		return nil, err
	}
	var admins []models.Member
	if err := db.Where("is_admin = ?", true).Find(&admins).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}
	for i := range staff {
		add(staff[i].DisplayName())
	}
	for i := range admins {
		add(admins[i].FullName())
	}
	add(current)

	sort.Strings(names)
	return names, nil
}

// Counts returns total, active and archived route counts.
func (s *RouteService) Counts(ctx context.Context) (total, active, archived int64, err error) {
	db := s.db.WithContext(ctx)
	if err = db.Model(&models.Route{}).Count(&total).Error; err != nil {
		return
	}
	if err = db.Model(&models.Route{}).Where("is_active = ?", true).Count(&active).Error; err != nil {
		return
	}
	archived = total - active
	return
}
