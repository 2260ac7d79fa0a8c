package forms

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/centralrock/route-tracker/internal/models"
	"github.com/centralrock/route-tracker/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected a validation error, got %v", err)
	return verr.Fields
}

func validRegistration() RegistrationForm {
	return RegistrationForm{
		Username:     " alex ",
		FirstName:    "Alex",
		LastName:     "Honnold",
		Email:        " Alex@Example.com ",
		MemberNumber: "1001",
		Password1:    "crimpers-123",
		Password2:    "crimpers-123",
	}
}

func TestRegistrationForm(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		f := validRegistration()
		in, err := f.Clean()
		require.NoError(t, err)
		assert.Equal(t, "alex", in.Username)
		assert.Equal(t, "alex@example.com", in.Email)
		assert.Equal(t, 1001, in.MemberNumber)
		assert.Equal(t, "crimpers-123", in.Password)
	})

	tests := []struct {
		name  string
		edit  func(f *RegistrationForm)
		field string
	}{
		{"missing username", func(f *RegistrationForm) { f.Username = "  " }, "username"},
		{"bad email", func(f *RegistrationForm) { f.Email = "not-an-email" }, "email"},
		{"short password", func(f *RegistrationForm) { f.Password1, f.Password2 = "short", "short" }, "password1"},
		{"mismatched passwords", func(f *RegistrationForm) { f.Password2 = "crimpers-456" }, "password2"},
		{"non numeric member number", func(f *RegistrationForm) { f.MemberNumber = "12a" }, "member_number"},
		{"zero member number", func(f *RegistrationForm) { f.MemberNumber = "0" }, "member_number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validRegistration()
			tt.edit(&f)
			_, err := f.Clean()
			fields := fieldErrors(t, err)
			assert.Contains(t, fields, tt.field)
		})
	}

	t.Run("clear passwords", func(t *testing.T) {
		f := validRegistration()
		f.ClearPasswords()
		assert.Empty(t, f.Password1)
		assert.Empty(t, f.Password2)
	})
}

func TestFromServiceError(t *testing.T) {
	tests := []struct {
		err   error
		field string
		msg   string
	}{
		{services.ErrMemberNumberTaken, "member_number", "A member with this membership number is already registered."},
		{services.ErrEmailTaken, "email", "This email address is already in use."},
		{services.ErrUsernameTaken, "username", "A user with that username already exists."},
		{fmt.Errorf("wrapped: %w", services.ErrAreaNotFound), "area", ""},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			verr := FromServiceError(tt.err)
			require.NotNil(t, verr)
			require.True(t, verr.Has(tt.field))
			if tt.msg != "" {
				assert.Equal(t, []string{tt.msg}, verr.Fields[tt.field])
			}
		})
	}

	assert.NotEmpty(t, FromServiceError(services.ErrConflict).NonField)
	assert.Nil(t, FromServiceError(errors.New("boom")))
}

func TestRouteForm(t *testing.T) {
	areaID := uuid.New()
	setters := []string{"Adam Ondra", "Sam Setter"}

	t.Run("valid with default date", func(t *testing.T) {
		f := RouteForm{Grade: "V3", Color: "Blue", Area: areaID.String(), SetterName: "Sam Setter"}
		in, err := f.Clean(setters)
		require.NoError(t, err)
		assert.Equal(t, "blue", in.Color)
		assert.Equal(t, areaID, in.AreaID)
		assert.Equal(t, time.Time(models.Today()), time.Time(in.DateSet))
	})

	t.Run("explicit date", func(t *testing.T) {
		f := RouteForm{Grade: "VB", Color: "pink", Area: areaID.String(), SetterName: "Adam Ondra", DateSet: "2026-01-05"}
		in, err := f.Clean(setters)
		require.NoError(t, err)
		assert.Equal(t, "2026-01-05", FormatDate(in.DateSet))
	})

	t.Run("invalid choices", func(t *testing.T) {
		f := RouteForm{Grade: "V9", Color: "teal", Area: "nope", SetterName: "Stranger", DateSet: "05/01/2026"}
		_, err := f.Clean(setters)
		fields := fieldErrors(t, err)
		for _, field := range []string{"grade", "color", "area", "setter_name", "date_set"} {
			assert.Contains(t, fields, field)
		}
	})

	t.Run("edit keeps current values", func(t *testing.T) {
		route := &models.Route{Name: "Crimp City", Grade: "V2", Color: "red", AreaID: areaID, DateSet: models.DateOf(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)), SetterName: "Former Setter"}
		f := RouteFormFor(route)
		assert.Equal(t, "2025-12-01", f.DateSet)
		_, err := f.Clean(append(setters, route.SetterName))
		assert.NoError(t, err)
	})

	assert.Equal(t, FormatDate(models.Today()), NewRouteForm().DateSet)
}

func TestCompletionForm(t *testing.T) {
	for _, rating := range []string{"1", "5"} {
		f := CompletionForm{DifficultyRating: rating, Notes: "  fun  "}
		in, err := f.Clean()
		require.NoError(t, err, rating)
		assert.Equal(t, "fun", in.Notes)
	}

	for _, rating := range []string{"0", "6", "", "three"} {
		f := CompletionForm{DifficultyRating: rating}
		_, err := f.Clean()
		assert.Contains(t, fieldErrors(t, err), "difficulty_rating", rating)
	}

	f := CompletionForm{DifficultyRating: "3", DateCompleted: "yesterday"}
	_, err := f.Clean()
	assert.Contains(t, fieldErrors(t, err), "date_completed")
}

func TestStatusForm(t *testing.T) {
	for value, want := range map[string]bool{"on": true, "true": true, "1": true, "": false, "off": false, "false": false} {
		f := StatusForm{IsActive: value}
		assert.Equal(t, want, f.Active(), value)
	}
}

func TestBulkForm(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	f := BulkForm{Action: "archive", RouteIDs: []string{a.String(), b.String()}}
	ids, _, err := f.Clean()
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, ids)

	f = BulkForm{Action: "archive_area", Area: a.String()}
	_, area, err := f.Clean()
	require.NoError(t, err)
	assert.Equal(t, a, area)

	f = BulkForm{Action: "restore"}
	_, _, err = f.Clean()
	assert.Contains(t, fieldErrors(t, err), "route_ids")

	f = BulkForm{Action: "restore", RouteIDs: []string{a.String(), "junk"}}
	_, _, err = f.Clean()
	assert.Contains(t, fieldErrors(t, err), "route_ids")

	f = BulkForm{Action: "explode"}
	_, _, err = f.Clean()
	assert.Contains(t, fieldErrors(t, err), "action")
}

func TestProfileFormFor(t *testing.T) {
	member := &models.Member{FirstName: "Lynn", LastName: "Hill", MemberNumber: 42, Email: "old@example.com"}
	user := &models.User{Username: "lynn", Email: "lynn@example.com"}

	f := ProfileFormFor(member, user)
	assert.Equal(t, "42", f.MemberNumber)
	assert.Equal(t, "lynn", f.Username)
	assert.Equal(t, "lynn@example.com", f.Email)

	in, err := f.Clean()
	require.NoError(t, err)
	assert.Equal(t, 42, in.MemberNumber)
}
