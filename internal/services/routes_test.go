package services

import (
	"testing"

	"github.com/centralrock/route-tracker/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteCreateAndUpdate(t *testing.T) {
	db := setupDB(t)
	svc := NewRouteService(db)
	area := createArea(t, db, "The Cave")
	other := createArea(t, db, "The Slab")

	route, err := svc.Create(ctx, RouteInput{
		Name:       "Crimp City",
		Grade:      "V3",
		Color:      "blue",
		AreaID:     area.ID,
		DateSet:    models.Today(),
		SetterName: "Sam Setter",
	})
	require.NoError(t, err)
	assert.True(t, route.IsActive)
	assert.Equal(t, "The Cave", route.Area.Name)
	assert.Equal(t, "Crimp City (V3)", route.Label())

	updated, err := svc.Update(ctx, route.ID, RouteInput{
		Grade:      "V4",
		Color:      "green",
		AreaID:     other.ID,
		DateSet:    route.DateSet,
		SetterName: "Old Setter",
	})
	require.NoError(t, err)
	assert.Equal(t, "Green V4", updated.Label())
	assert.Equal(t, other.ID, updated.AreaID)

	_, err = svc.Create(ctx, RouteInput{Grade: "V1", Color: "red", AreaID: uuid.New()})
	assert.ErrorIs(t, err, ErrAreaNotFound)

	_, err = svc.Update(ctx, uuid.New(), RouteInput{Grade: "V1", Color: "red", AreaID: area.ID})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestArchiveRestoreKeepsCompletions(t *testing.T) {
	db := setupDB(t)
	svc := NewRouteService(db)
	route := createRoute(t, db, createArea(t, db, "The Cave"), "V2", true, 1)
	member := createMember(t, db, "Lynn", "Hill", 1)
	createCompletion(t, db, member, route, 1)

	archived, err := svc.SetStatus(ctx, route.ID, false)
	require.NoError(t, err)
	assert.False(t, archived.IsActive)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	restored, err := svc.SetStatus(ctx, route.ID, true)
	require.NoError(t, err)
	assert.True(t, restored.IsActive)

	stored, err := svc.Get(ctx, route.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
	assert.Equal(t, int64(1), countRows(t, db, &models.Completion{}, "route_id = ?", route.ID))
}

func TestManageFilters(t *testing.T) {
	db := setupDB(t)
	svc := NewRouteService(db)
	area := createArea(t, db, "The Cave")
	newest := createRoute(t, db, area, "V1", true, 0)
	oldest := createRoute(t, db, area, "V2", false, 20)
	middle := createRoute(t, db, area, "V3", true, 5)

	tests := []struct {
		filter string
		want   []uuid.UUID
	}{
		{FilterActive, idsOf(newest, middle)},
		{FilterArchived, idsOf(oldest)},
		{FilterAll, idsOf(newest, middle, oldest)},
		{"", idsOf(newest, middle, oldest)},
		{"bogus", idsOf(newest, middle, oldest)},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			routes, err := svc.Manage(ctx, tt.filter)
			require.NoError(t, err)
			var got []uuid.UUID
			for _, r := range routes {
				got = append(got, r.ID)
				assert.Equal(t, "The Cave", r.Area.Name)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBulkOperations(t *testing.T) {
	t.Run("archive area reports rows affected", func(t *testing.T) {
		db := setupDB(t)
		svc := NewRouteService(db)
		area := createArea(t, db, "The Dugout")
		other := createArea(t, db, "The Cave")
		for i := 0; i < 5; i++ {
			createRoute(t, db, area, "V1", true, i)
		}
		createRoute(t, db, area, "V2", false, 9)
		untouched := createRoute(t, db, other, "V3", true, 1)

		n, err := svc.ArchiveArea(ctx, area.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)
		assert.Equal(t, int64(0), countRows(t, db, &models.Route{}, "area_id = ? AND is_active = ?", area.ID, true))

		stored, err := svc.Get(ctx, untouched.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsActive)

		n, err = svc.ArchiveArea(ctx, area.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run("archive and restore selected", func(t *testing.T) {
		db := setupDB(t)
		svc := NewRouteService(db)
		area := createArea(t, db, "The Cave")
		a := createRoute(t, db, area, "V1", true, 1)
		b := createRoute(t, db, area, "V2", true, 1)
		c := createRoute(t, db, area, "V3", false, 1)

		n, err := svc.BulkSetActive(ctx, idsOf(a, b, c), false)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = svc.BulkSetActive(ctx, idsOf(a, c), true)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = svc.BulkSetActive(ctx, nil, true)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		assert.Equal(t, int64(2), countRows(t, db, &models.Route{}, "is_active = ?", true))
	})
}

func TestSetterChoices(t *testing.T) {
	db := setupDB(t)
	svc := NewRouteService(db)

	require.NoError(t, db.Create(&models.User{Username: "zed", Email: "z@example.com", FirstName: "Zoe", LastName: "Staff", IsStaff: true}).Error)
	require.NoError(t, db.Create(&models.User{Username: "bare", Email: "b@example.com", IsStaff: true}).Error)
	require.NoError(t, db.Create(&models.User{Username: "plain", Email: "p@example.com", FirstName: "Not", LastName: "Staff"}).Error)
	admin := createMember(t, db, "Zoe", "Staff", 1)
	require.NoError(t, db.Model(admin).Update("is_admin", true).Error)
	adminTwo := createMember(t, db, "Adam", "Ondra", 2)
	require.NoError(t, db.Model(adminTwo).Update("is_admin", true).Error)
	createMember(t, db, "Regular", "Member", 3)

	choices, err := svc.SetterChoices(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Adam Ondra", "Zoe Staff", "bare"}, choices)

	choices, err = svc.SetterChoices(ctx, "Former Setter")
	require.NoError(t, err)
	assert.Equal(t, []string{"Adam Ondra", "Former Setter", "Zoe Staff", "bare"}, choices)

	choices, err = svc.SetterChoices(ctx, "Adam Ondra")
	require.NoError(t, err)
	assert.Len(t, choices, 3)
}

func TestRouteDetail(t *testing.T) {
	db := setupDB(t)
	svc := NewRouteService(db)
	route := createRoute(t, db, createArea(t, db, "The Cave"), "V2", true, 30)
	viewer := createMember(t, db, "Lynn", "Hill", 1)
	for i := 0; i < RecentCompletionWindow+2; i++ {
		createCompletion(t, db, createMember(t, db, "M", "X", 100+i), route, i+1)
	}

	detail, err := svc.Detail(ctx, route.ID, viewer)
	require.NoError(t, err)
	assert.Len(t, detail.Completions, RecentCompletionWindow)
	assert.Equal(t, int64(RecentCompletionWindow+2), detail.CompletionCount)
	assert.Nil(t, detail.MyCompletion)
	assert.Equal(t, 100, detail.Completions[0].Member.MemberNumber)

	mine := createCompletion(t, db, viewer, route, 0)
	detail, err = svc.Detail(ctx, route.ID, viewer)
	require.NoError(t, err)
	require.NotNil(t, detail.MyCompletion)
	assert.Equal(t, mine.ID, detail.MyCompletion.ID)

	_, err = svc.Detail(ctx, uuid.New(), nil)
	assert.ErrorIs(t, err, ErrNotFound)
}
