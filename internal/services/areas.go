package services

import (
	"context"
	"sort"
	"strings"

	"github.com/centralrock/route-tracker/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AreaService struct {
	db    *gorm.DB
	order map[string]int
}

// NewAreaService takes the preferred display sequence of area names.
func NewAreaService(db *gorm.DB, order []string) *AreaService {
	rank := make(map[string]int, len(order))
	for i, name := range order {
		rank[strings.ToLower(name)] = i
	}
	return &AreaService{db: db, order: rank}
}

type AreaSummary struct {
	models.Area
	ActiveRouteCount int64 `json:"activeRouteCount"`
}

type RouteSummary struct {
	models.Route
	CompletionCount int64 `json:"completionCount"`
}

type AreaDetail struct {
	Area             models.Area    `json:"area"`
	Routes           []RouteSummary `json:"routes"`
	TotalCompletions int64          `json:"totalCompletions"`
}

// List returns all areas with their active route counts, known areas first
// in the configured sequence and the rest by name.
func (s *AreaService) List(ctx context.Context) ([]AreaSummary, error) {
	db := s.db.WithContext(ctx)

	var areas []models.Area
	if err := db.Find(&areas).Error; err != nil {
		return nil, err
	}

	var rows []groupCount
	err := db.Model(&models.Route{}).
		Select("area_id AS group_key, COUNT(*) AS count").
		Where("is_active = ?", true).
		Group("area_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	active := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		active[r.GroupKey] = r.Count
	}

	out := make([]AreaSummary, len(areas))
	for i, a := range areas {
		out[i] = AreaSummary{Area: a, ActiveRouteCount: active[a.ID]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return s.less(out[i].Name, out[j].Name)
	})
	return out, nil
}

func (s *AreaService) less(a, b string) bool {
	ra, okA := s.order[strings.ToLower(a)]
	rb, okB := s.order[strings.ToLower(b)]
	switch {
	case okA && okB:
		return ra < rb
	case okA != okB:
		return okA
	default:
		return strings.ToLower(a) < strings.ToLower(b)
	}
}

// Detail returns the area's active routes, newest first, with completion counts.
func (s *AreaService) Detail(ctx context.Context, id uuid.UUID) (*AreaDetail, error) {
	db := s.db.WithContext(ctx)

	var area models.Area
	if err := db.First(&area, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}

	var routes []models.Route
	if err := db.Where("area_id = ? AND is_active = ?", id, true).
		Order("date_set DESC").
		Find(&routes).Error; err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(routes))
	for i := range routes {
		ids[i] = routes[i].ID
	}
	counts, err := countBy(db, "route_id", ids)
	if err != nil {
		return nil, err
	}

	detail := &AreaDetail{Area: area, Routes: make([]RouteSummary, len(routes))}
	for i, r := range routes {
		detail.Routes[i] = RouteSummary{Route: r, CompletionCount: counts[r.ID]}
		detail.TotalCompletions += counts[r.ID]
	}
	return detail, nil
}

// All returns every area by name, for filter and form choices.
func (s *AreaService) All(ctx context.Context) ([]models.Area, error) {
	var areas []models.Area
	err := s.db.WithContext(ctx).Order("name").Find(&areas).Error
	return areas, err
}

func (s *AreaService) Create(ctx context.Context, name, description string) (*models.Area, error) {
	area := &models.Area{Name: strings.TrimSpace(name), Description: description}
	if err := s.db.WithContext(ctx).Create(area).Error; err != nil {
		return nil, err
	}
	return area, nil
}

// Delete removes an area; its routes and their completions cascade.
func (s *AreaService) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.Area{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
