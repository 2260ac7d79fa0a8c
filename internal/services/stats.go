package services

import (
	"context"
	"time"

	"github.com/centralrock/route-tracker/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

type HomeStats struct {
	TotalAreas        int64               `json:"totalAreas"`
	ActiveRoutes      int64               `json:"activeRoutes"`
	TotalMembers      int64               `json:"totalMembers"`
	RecentCompletions []models.Completion `json:"recentCompletions"`
}

type DashboardStats struct {
	TotalRoutes       int64               `json:"totalRoutes"`
	ActiveRoutes      int64               `json:"activeRoutes"`
	ArchivedRoutes    int64               `json:"archivedRoutes"`
	RecentCompletions []models.Completion `json:"recentCompletions"`
}

type ProfileStats struct {
	TotalCompletions  int64               `json:"totalCompletions"`
	UniqueRoutes      int64               `json:"uniqueRoutes"`
	RecentCount       int64               `json:"recentCount"`
	GradeCounts       map[string]int64    `json:"gradeCounts"`
	AreaCounts        map[string]int64    `json:"areaCounts"`
	AreaRanking       []LabelCount        `json:"areaRanking"`
	RecentCompletions []models.Completion `json:"recentCompletions"`
}

func (s *StatsService) Home(ctx context.Context) (*HomeStats, error) {
	db := s.db.WithContext(ctx)
	stats := &HomeStats{}

	if err := db.Model(&models.Area{}).Count(&stats.TotalAreas).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Route{}).Where("is_active = ?", true).Count(&stats.ActiveRoutes).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Member{}).Count(&stats.TotalMembers).Error; err != nil {
		return nil, err
	}

	recent, err := NewCompletionService(s.db).Recent(ctx, 5)
	if err != nil {
		return nil, err
	}
	stats.RecentCompletions = recent
	return stats, nil
}

func (s *StatsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	total, active, archived, err := NewRouteService(s.db).Counts(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := NewCompletionService(s.db).Recent(ctx, 10)
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		TotalRoutes:       total,
		ActiveRoutes:      active,
		ArchivedRoutes:    archived,
		RecentCompletions: recent,
	}, nil
}

// LabelCount is one row of a grouped count.
type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// Profile summarises one member's climbing.
func (s *StatsService) Profile(ctx context.Context, memberID uuid.UUID, now time.Time) (*ProfileStats, error) {
	db := s.db.WithContext(ctx)
	mine := func() *gorm.DB {
		return db.Model(&models.Completion{}).Where("completions.member_id = ?", memberID)
	}

	stats := &ProfileStats{
		GradeCounts: make(map[string]int64),
		AreaCounts:  make(map[string]int64),
	}

	if err := mine().Count(&stats.TotalCompletions).Error; err != nil {
		return nil, err
	}
	if err := mine().Distinct("route_id").Count(&stats.UniqueRoutes).Error; err != nil {
		return nil, err
	}
	cutoff := models.DateOf(now.AddDate(0, 0, -30))
	if err := mine().Where("date_completed >= ?", cutoff).Count(&stats.RecentCount).Error; err != nil {
		return nil, err
	}

	var grades []LabelCount
	if err := mine().
		Select("routes.grade AS label, COUNT(*) AS count").
		Joins("JOIN routes ON routes.id = completions.route_id").
		Group("routes.grade").
		Scan(&grades).Error; err != nil {
		return nil, err
	}
	for _, g := range grades {
		stats.GradeCounts[g.Label] = g.Count
	}

	// Most climbed area first.
	if err := mine().
		Select("areas.name AS label, COUNT(*) AS count").
		Joins("JOIN routes ON routes.id = completions.route_id").
		Joins("JOIN areas ON areas.id = routes.area_id").
		Group("areas.name").
		Order("count DESC, areas.name").
		Scan(&stats.AreaRanking).Error; err != nil {
		return nil, err
	}
	for _, a := range stats.AreaRanking {
		stats.AreaCounts[a.Label] = a.Count
	}

	if err := db.Preload("Route.Area").
		Where("member_id = ?", memberID).
		Order("date_completed DESC, created_at DESC").
		Limit(RecentCompletionWindow).
		Find(&stats.RecentCompletions).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
