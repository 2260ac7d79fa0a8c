package services

import (
	"errors"
	"testing"

	"github.com/centralrock/route-tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRegister(t *testing.T) {
	t.Run("creates user and linked member", func(t *testing.T) {
		db := setupDB(t)
		svc := NewMemberService(db)

		user, member, err := svc.Register(ctx, registerInput("alex", "alex@example.com", 1001))
		require.NoError(t, err)
		require.NotNil(t, member.UserID)
		assert.Equal(t, user.ID, *member.UserID)
		assert.Equal(t, 1001, member.MemberNumber)
		assert.NotEqual(t, "crimpers-123", user.Password)
		assert.False(t, member.IsAdmin)
	})

	t.Run("duplicate membership number is rejected", func(t *testing.T) {
		db := setupDB(t)
		svc := NewMemberService(db)

		_, _, err := svc.Register(ctx, registerInput("alex", "alex@example.com", 1001))
		require.NoError(t, err)
		_, _, err = svc.Register(ctx, registerInput("tommy", "tommy@example.com", 1001))
		assert.ErrorIs(t, err, ErrMemberNumberTaken)

		assert.Equal(t, int64(1), countRows(t, db, &models.Member{}, "member_number = ?", 1001))
		assert.Equal(t, int64(1), countRows(t, db, &models.User{}, ""))
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		db := setupDB(t)
		svc := NewMemberService(db)

		_, _, err := svc.Register(ctx, registerInput("alex", "alex@example.com", 1001))
		require.NoError(t, err)
		_, _, err = svc.Register(ctx, registerInput("tommy", "ALEX@example.com", 1002))
		assert.ErrorIs(t, err, ErrEmailTaken)
		assert.Equal(t, int64(1), countRows(t, db, &models.Member{}, ""))
	})

	t.Run("duplicate username is rejected", func(t *testing.T) {
		db := setupDB(t)
		svc := NewMemberService(db)

		_, _, err := svc.Register(ctx, registerInput("alex", "alex@example.com", 1001))
		require.NoError(t, err)
		_, _, err = svc.Register(ctx, registerInput("alex", "other@example.com", 1002))
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("member number held by an unlinked member is rejected", func(t *testing.T) {
		db := setupDB(t)
		svc := NewMemberService(db)
		createMember(t, db, "Lynn", "Hill", 1001)

		_, _, err := svc.Register(ctx, registerInput("alex", "alex@example.com", 1001))
		assert.ErrorIs(t, err, ErrMemberNumberTaken)
		assert.Equal(t, int64(0), countRows(t, db, &models.User{}, ""))
	})

	t.Run("failed member insert rolls back the user", func(t *testing.T) {
		db := setupDB(t)
		svc := NewMemberService(db)
		insertFailed := errors.New("member insert failed")
		require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_member", func(tx *gorm.DB) {
			if _, ok := tx.Statement.Dest.(*models.Member); ok {
				tx.AddError(insertFailed)
			}
		}))

		_, _, err := svc.Register(ctx, registerInput("alex", "alex@example.com", 1001))
		assert.ErrorIs(t, err, insertFailed)
		assert.Equal(t, int64(0), countRows(t, db, &models.User{}, ""))
		assert.Equal(t, int64(0), countRows(t, db, &models.Member{}, ""))
	})
}

func TestAuthenticate(t *testing.T) {
	db := setupDB(t)
	svc := NewMemberService(db)
	_, _, err := svc.Register(ctx, registerInput("alex", "alex@example.com", 1001))
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "alex", "crimpers-123")
	require.NoError(t, err)
	assert.Equal(t, "alex", user.Username)

	_, err = svc.Authenticate(ctx, "Alex@Example.com", "crimpers-123")
	assert.NoError(t, err)

	_, err = svc.Authenticate(ctx, "alex", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "crimpers-123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestEnsureMemberProfile(t *testing.T) {
	db := setupDB(t)
	svc := NewMemberService(db)

	user := &models.User{Username: "staffer", Email: "staff@example.com", IsStaff: true}
	require.NoError(t, db.Create(user).Error)

	_, member, err := svc.ResolvePrincipal(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, member)

	result, err := svc.EnsureMemberProfile(ctx, user)
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, "Unknown", result.Member.FirstName)
	assert.Equal(t, "User", result.Member.LastName)
	assert.Equal(t, models.MinMemberNumber, result.Member.MemberNumber)

	again, err := svc.EnsureMemberProfile(ctx, user)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, result.Member.ID, again.Member.ID)

	other := &models.User{Username: "second", Email: "second@example.com", FirstName: "Ashima"}
	require.NoError(t, db.Create(other).Error)
	second, err := svc.EnsureMemberProfile(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, models.MinMemberNumber+1, second.Member.MemberNumber)
	assert.Equal(t, "Ashima", second.Member.FirstName)
}

func TestUpdateProfile(t *testing.T) {
	db := setupDB(t)
	svc := NewMemberService(db)

	user, member, err := svc.Register(ctx, registerInput("alex", "alex@example.com", 1001))
	require.NoError(t, err)
	_, _, err = svc.Register(ctx, registerInput("tommy", "tommy@example.com", 1002))
	require.NoError(t, err)

	t.Run("updates member and user together", func(t *testing.T) {
		updated, err := svc.UpdateProfile(ctx, member.ID, ProfileInput{
			FirstName:    "Alexander",
			LastName:     "H",
			MemberNumber: 1005,
			Username:     "alexh",
			Email:        "alexh@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "Alexander", updated.FirstName)
		assert.Equal(t, 1005, updated.MemberNumber)

		var stored models.User
		require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
		assert.Equal(t, "alexh", stored.Username)
		assert.Equal(t, "alexh@example.com", stored.Email)
		assert.Equal(t, "Alexander", stored.FirstName)
	})

	t.Run("keeping own values is allowed", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, member.ID, ProfileInput{
			FirstName: "Alexander", LastName: "H", MemberNumber: 1005,
			Username: "alexh", Email: "alexh@example.com",
		})
		assert.NoError(t, err)
	})

	t.Run("conflicts leave both records untouched", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, member.ID, ProfileInput{
			FirstName: "Changed", LastName: "H", MemberNumber: 1002,
			Username: "alexh", Email: "alexh@example.com",
		})
		assert.ErrorIs(t, err, ErrMemberNumberTaken)

		_, err = svc.UpdateProfile(ctx, member.ID, ProfileInput{
			FirstName: "Changed", LastName: "H", MemberNumber: 1005,
			Username: "tommy", Email: "alexh@example.com",
		})
		assert.ErrorIs(t, err, ErrUsernameTaken)

		var stored models.Member
		require.NoError(t, db.First(&stored, "id = ?", member.ID).Error)
		assert.Equal(t, "Alexander", stored.FirstName)
	})
}

func TestSearchMembers(t *testing.T) {
	db := setupDB(t)
	svc := NewMemberService(db)
	area := createArea(t, db, "The Cave")
	route := createRoute(t, db, area, "V2", true, 1)

	lynn := createMember(t, db, "Lynn", "Hill", 1001)
	createMember(t, db, "Chris", "Sharma", 2002)
	createCompletion(t, db, lynn, route, 1)

	rows, total, err := svc.Search(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 2)
	assert.Equal(t, "Chris", rows[0].FirstName)
	assert.Equal(t, int64(0), rows[0].CompletionCount)
	assert.Equal(t, int64(1), rows[1].CompletionCount)

	tests := []struct {
		search string
		want   []string
	}{
		{"hill", []string{"Lynn"}},
		{"SHAR", []string{"Chris"}},
		{"2002", []string{"Chris"}},
		{"example.com", []string{"Chris", "Lynn"}},
		{"nobody", nil},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			rows, total, err := svc.Search(ctx, tt.search)
			require.NoError(t, err)
			assert.Equal(t, int64(2), total)
			var names []string
			for _, r := range rows {
				names = append(names, r.FirstName)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestDeleteMember(t *testing.T) {
	setup := func(t *testing.T) (*MemberService, *models.Member, *models.Route) {
		db := setupDB(t)
		svc := NewMemberService(db)
		_, member, err := svc.Register(ctx, registerInput("alex", "alex@example.com", 1001))
		require.NoError(t, err)
		route := createRoute(t, db, createArea(t, db, "The Slab"), "V1", true, 2)
		createCompletion(t, db, member, route, 1)
		return svc, member, route
	}

	for _, confirm := range []string{"delete", "", "DELETE ", "yes"} {
		t.Run("aborts on "+confirm, func(t *testing.T) {
			svc, member, _ := setup(t)
			_, err := svc.Delete(ctx, member.ID, confirm)
			assert.ErrorIs(t, err, ErrDeletionNotConfirmed)
			assert.Equal(t, int64(1), countRows(t, svc.db, &models.Member{}, ""))
			assert.Equal(t, int64(1), countRows(t, svc.db, &models.User{}, ""))
			assert.Equal(t, int64(1), countRows(t, svc.db, &models.Completion{}, ""))
		})
	}

	t.Run("linked member goes with its user", func(t *testing.T) {
		svc, member, _ := setup(t)
		deleted, err := svc.Delete(ctx, member.ID, "DELETE")
		require.NoError(t, err)
		assert.Equal(t, member.ID, deleted.ID)
		assert.Equal(t, int64(0), countRows(t, svc.db, &models.Member{}, ""))
		assert.Equal(t, int64(0), countRows(t, svc.db, &models.User{}, ""))
		assert.Equal(t, int64(0), countRows(t, svc.db, &models.Completion{}, ""))
	})

	t.Run("unlinked member is deleted directly", func(t *testing.T) {
		db := setupDB(t)
		svc := NewMemberService(db)
		member := createMember(t, db, "Lynn", "Hill", 1001)
		route := createRoute(t, db, createArea(t, db, "The Arch"), "V3", true, 2)
		createCompletion(t, db, member, route, 1)

		_, err := svc.Delete(ctx, member.ID, "DELETE")
		require.NoError(t, err)
		assert.Equal(t, int64(0), countRows(t, db, &models.Member{}, ""))
		assert.Equal(t, int64(0), countRows(t, db, &models.Completion{}, ""))
		assert.Equal(t, int64(1), countRows(t, db, &models.Route{}, ""))
	})

	t.Run("missing member", func(t *testing.T) {
		svc, _, route := setup(t)
		_, err := svc.Delete(ctx, route.ID, "DELETE")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestParseMemberNumber(t *testing.T) {
	n, err := ParseMemberNumber(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	for _, raw := range []string{"", "0", "-3", "abc"} {
		_, err := ParseMemberNumber(raw)
		assert.Error(t, err, raw)
	}
}
