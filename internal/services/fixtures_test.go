package services

import (
	"context"
	"testing"
	"time"

	"github.com/centralrock/route-tracker/internal/database"
	"github.com/centralrock/route-tracker/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var ctx = context.Background()

func setupDB(t *testing.T) *gorm.DB {
	return database.SetupSQLiteTestDB(t)
}

func createArea(t *testing.T, db *gorm.DB, name string) *models.Area {
	t.Helper()
	area := &models.Area{Name: name, Description: name + " wall"}
	require.NoError(t, db.Create(area).Error)
	return area
}

func createRoute(t *testing.T, db *gorm.DB, area *models.Area, grade string, active bool, daysAgo int) *models.Route {
	t.Helper()
	route := &models.Route{
		Grade:      grade,
		Color:      "red",
		AreaID:     area.ID,
		DateSet:    models.DateOf(time.Now().AddDate(0, 0, -daysAgo)),
		SetterName: "Sam Setter",
		IsActive:   true,
	}
	require.NoError(t, db.Create(route).Error)
	if !active {
		require.NoError(t, db.Model(route).Update("is_active", false).Error)
		route.IsActive = false
	}
	return route
}

func createMember(t *testing.T, db *gorm.DB, first, last string, number int) *models.Member {
	t.Helper()
	member := &models.Member{
		FirstName:    first,
		LastName:     last,
		MemberNumber: number,
		Email:        first + "@example.com",
	}
	require.NoError(t, db.Create(member).Error)
	return member
}

func createCompletion(t *testing.T, db *gorm.DB, member *models.Member, route *models.Route, daysAgo int) *models.Completion {
	t.Helper()
	completion := &models.Completion{
		MemberID:         member.ID,
		RouteID:          route.ID,
		DateCompleted:    models.DateOf(time.Now().AddDate(0, 0, -daysAgo)),
		DifficultyRating: 3,
	}
	require.NoError(t, db.Omit("Member", "Route").Create(completion).Error)
	return completion
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func registerInput(username, email string, number int) RegisterInput {
	return RegisterInput{
		Username:     username,
		FirstName:    "Alex",
		LastName:     "Honnold",
		Email:        email,
		MemberNumber: number,
		Password:     "crimpers-123",
	}
}

func idsOf(routes ...*models.Route) []uuid.UUID {
	ids := make([]uuid.UUID, len(routes))
	for i, r := range routes {
		ids[i] = r.ID
	}
	return ids
}
