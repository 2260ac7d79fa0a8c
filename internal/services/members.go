package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/centralrock/route-tracker/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type MemberService struct {
	db *gorm.DB
}

func NewMemberService(db *gorm.DB) *MemberService {
	return &MemberService{db: db}
}

type RegisterInput struct {
	Username     string
	FirstName    string
	LastName     string
	Email        string
	MemberNumber int
	Password     string
}

type ProfileInput struct {
	FirstName    string
	LastName     string
	MemberNumber int
	Username     string
	Email        string
}

// MemberRow is a member with the number of routes they have logged.
type MemberRow struct {
	models.Member
	CompletionCount int64 `json:"completionCount"`
}

// ProfileResult tells whether the member already existed or was just
// created for a principal that had none.
type ProfileResult struct {
	Member  *models.Member
	Created bool
}

// Register creates the user and its member record together.
func (s *MemberService) Register(ctx context.Context, in RegisterInput) (*models.User, *models.Member, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  string(hash),
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	member := &models.Member{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		MemberNumber: in.MemberNumber,
		Email:        in.Email,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkRegistrationConflicts(tx, in.Username, in.Email, in.MemberNumber); err != nil {
			return err
		}
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		member.UserID = &user.ID
		return tx.Create(member).Error
	})
	if isDuplicate(err) {
		// Lost a race with a concurrent registration; report which field.
		if conflict := checkRegistrationConflicts(s.db.WithContext(ctx), in.Username, in.Email, in.MemberNumber); conflict != nil {
			return nil, nil, conflict
		}
		return nil, nil, ErrConflict
	}
	if err != nil {
		return nil, nil, err
	}
	return user, member, nil
}

func checkRegistrationConflicts(tx *gorm.DB, username, email string, memberNumber int) error {
	var count int64
	if err := tx.Model(&models.Member{}).Where("member_number = ?", memberNumber).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrMemberNumberTaken
	}
	if err := tx.Model(&models.User{}).Where("LOWER(email) = ?", strings.ToLower(email)).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrEmailTaken
	}
	if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrUsernameTaken
	}
	return nil
}

// Authenticate checks a username (or email) and password pair.
func (s *MemberService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR LOWER(email) = ?", login, strings.ToLower(login)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// ResolvePrincipal loads a user and its linked member, if any. A nil member
// means the user has no profile yet.
func (s *MemberService) ResolvePrincipal(ctx context.Context, userID uuid.UUID) (*models.User, *models.Member, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, nil, notFound(err)
	}

	var members []models.Member
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&members).Error; err != nil {
		return nil, nil, err
	}
	if len(members) == 0 {
		return &user, nil, nil
	}
	return &user, &members[0], nil
}

// EnsureMemberProfile returns the user's member record, creating a default
// one when the user has none. This is the only place such profiles are made.
func (s *MemberService) EnsureMemberProfile(ctx context.Context, user *models.User) (ProfileResult, error) {
	var result ProfileResult
	for attempt := 0; attempt < 2; attempt++ {
		var existing []models.Member
		if err := s.db.WithContext(ctx).Where("user_id = ?", user.ID).Limit(1).Find(&existing).Error; err != nil {
			return result, err
		}
		if len(existing) > 0 {
			return ProfileResult{Member: &existing[0]}, nil
		}

		number, err := s.nextMemberNumber(ctx)
		if err != nil {
			return result, err
		}
		member := &models.Member{
			UserID:       &user.ID,
			FirstName:    orDefault(user.FirstName, "Unknown"),
			LastName:     orDefault(user.LastName, "User"),
			MemberNumber: number,
			Email:        user.Email,
		}
		err = s.db.WithContext(ctx).Create(member).Error
		if err == nil {
			return ProfileResult{Member: member, Created: true}, nil
		}
		if !isDuplicate(err) {
			return result, err
		}
	}
	return result, ErrConflict
}

func (s *MemberService) nextMemberNumber(ctx context.Context) (int, error) {
	var max *int
	if err := s.db.WithContext(ctx).Model(&models.Member{}).Select("MAX(member_number)").Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil || *max < models.MinMemberNumber {
		return models.MinMemberNumber, nil
	}
	return *max + 1, nil
}

// UpdateProfile writes the member and its linked user in one transaction.
func (s *MemberService) UpdateProfile(ctx context.Context, memberID uuid.UUID, in ProfileInput) (*models.Member, error) {
	var member models.Member
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&member, "id = ?", memberID).Error; err != nil {
			return notFound(err)
		}
		if err := checkProfileConflicts(tx, &member, in); err != nil {
			return err
		}

		if err := tx.Model(&member).Updates(map[string]interface{}{
			"first_name":    in.FirstName,
			"last_name":     in.LastName,
			"member_number": in.MemberNumber,
			"email":         in.Email,
		}).Error; err != nil {
			return err
		}

		if member.UserID == nil {
			return nil
		}
		return tx.Model(&models.User{}).Where("id = ?", *member.UserID).Updates(map[string]interface{}{
			"username":   in.Username,
			"email":      in.Email,
			"first_name": in.FirstName,
			"last_name":  in.LastName,
		}).Error
	})
	if isDuplicate(err) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).First(&member, "id = ?", memberID).Error; err != nil {
		return nil, notFound(err)
	}
	return &member, nil
}

func checkProfileConflicts(tx *gorm.DB, member *models.Member, in ProfileInput) error {
	var count int64
	if err := tx.Model(&models.Member{}).
		Where("member_number = ? AND id <> ?", in.MemberNumber, member.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrMemberNumberTaken
	}

	users := tx.Model(&models.User{})
	if member.UserID != nil {
		users = users.Where("id <> ?", *member.UserID)
	}
	if err := users.Session(&gorm.Session{}).Where("LOWER(email) = ?", strings.ToLower(in.Email)).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrEmailTaken
	}
	if member.UserID == nil {
		return nil
	}
	if err := users.Session(&gorm.Session{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrUsernameTaken
	}
	return nil
}

// List returns every member ordered by name.
func (s *MemberService) List(ctx context.Context) ([]models.Member, error) {
	var members []models.Member
	err := s.db.WithContext(ctx).Order("first_name, last_name").Find(&members).Error
	return members, err
}

// Search matches names, email and membership number, and also returns the
// total member count regardless of the search.
func (s *MemberService) Search(ctx context.Context, search string) ([]MemberRow, int64, error) {
	db := s.db.WithContext(ctx)

	query := db.Order("first_name, last_name")
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR CAST(member_number AS TEXT) LIKE ?",
			like, like, like, like,
		)
	}

	var members []models.Member
	if err := query.Find(&members).Error; err != nil {
		return nil, 0, err
	}

	ids := make([]uuid.UUID, len(members))
	for i := range members {
		ids[i] = members[i].ID
	}
	counts, err := countBy(db, "member_id", ids)
	if err != nil {
		return nil, 0, err
	}

	rows := make([]MemberRow, len(members))
	for i, m := range members {
		rows[i] = MemberRow{Member: m, CompletionCount: counts[m.ID]}
	}

	var total int64
	if err := db.Model(&models.Member{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Get returns a member and how many completions would go with it.
func (s *MemberService) Get(ctx context.Context, id uuid.UUID) (*models.Member, int64, error) {
	var member models.Member
	if err := s.db.WithContext(ctx).First(&member, "id = ?", id).Error; err != nil {
		return nil, 0, notFound(err)
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Completion{}).Where("member_id = ?", id).Count(&count).Error; err != nil {
		return nil, 0, err
	}
	return &member, count, nil
}

// Delete removes a member once confirm is exactly DeleteConfirmation. A
// linked user is deleted instead so the cascade takes the member with it.
func (s *MemberService) Delete(ctx context.Context, id uuid.UUID, confirm string) (*models.Member, error) {
	if confirm != DeleteConfirmation {
		return nil, ErrDeletionNotConfirmed
	}

	var member models.Member
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&member, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if member.UserID != nil {
			return tx.Delete(&models.User{}, "id = ?", *member.UserID).Error
		}
		return tx.Delete(&models.Member{}, "id = ?", member.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// SetDeviceToken stores the push token for new-route announcements.
func (s *MemberService) SetDeviceToken(ctx context.Context, memberID uuid.UUID, token string) error {
	return s.db.WithContext(ctx).Model(&models.Member{}).
		Where("id = ?", memberID).
		Update("device_token", token).Error
}

// ParseMemberNumber reads a positive membership number.
func ParseMemberNumber(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid membership number %q", raw)
	}
	return n, nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
