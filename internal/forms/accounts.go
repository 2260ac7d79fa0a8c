package forms

import (
	"strings"

	"github.com/centralrock/route-tracker/internal/models"
	"github.com/centralrock/route-tracker/internal/services"
)

type LoginForm struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
}

func (f *LoginForm) Validate() error {
	f.Username = strings.TrimSpace(f.Username)
	return check(f).orNil()
}

type RegistrationForm struct {
	Username     string `form:"username" json:"username" validate:"required,max=150"`
	FirstName    string `form:"first_name" json:"first_name" validate:"required,max=50"`
	LastName     string `form:"last_name" json:"last_name" validate:"required,max=50"`
	Email        string `form:"email" json:"email" validate:"required,email,max=254"`
	MemberNumber string `form:"member_number" json:"member_number" validate:"required,number"`
	Password1    string `form:"password1" json:"password1,omitempty" validate:"required,min=8"`
	Password2    string `form:"password2" json:"password2,omitempty" validate:"required,eqfield=Password1"`
}

// Clean validates the form and returns the registration input.
func (f *RegistrationForm) Clean() (services.RegisterInput, error) {
	f.Username = strings.TrimSpace(f.Username)
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.MemberNumber = strings.TrimSpace(f.MemberNumber)

	verr := check(f)
	number := 0
	if !verr.Has("member_number") {
		n, err := services.ParseMemberNumber(f.MemberNumber)
		if err != nil {
			verr.Add("member_number", "Ensure this value is greater than or equal to 1.")
		}
		number = n
	}
	if err := verr.orNil(); err != nil {
		return services.RegisterInput{}, err
	}

	return services.RegisterInput{
		Username:     f.Username,
		FirstName:    f.FirstName,
		LastName:     f.LastName,
		Email:        f.Email,
		MemberNumber: number,
		Password:     f.Password1,
	}, nil
}

// ClearPasswords blanks the secrets before the form is shown again.
func (f *RegistrationForm) ClearPasswords() {
	f.Password1, f.Password2 = "", ""
}

type ProfileForm struct {
	FirstName    string `form:"first_name" json:"first_name" validate:"required,max=50"`
	LastName     string `form:"last_name" json:"last_name" validate:"required,max=50"`
	MemberNumber string `form:"member_number" json:"member_number" validate:"required,number"`
	Username     string `form:"username" json:"username" validate:"required,max=150"`
	Email        string `form:"email" json:"email" validate:"required,email,max=254"`
}

// ProfileFormFor fills the form from the current records.
func ProfileFormFor(member *models.Member, user *models.User) ProfileForm {
	f := ProfileForm{
		FirstName:    member.FirstName,
		LastName:     member.LastName,
		MemberNumber: itoa(member.MemberNumber),
		Email:        member.Email,
	}
	if user != nil {
		f.Username = user.Username
		f.Email = user.Email
	}
	return f
}

func (f *ProfileForm) Clean() (services.ProfileInput, error) {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.MemberNumber = strings.TrimSpace(f.MemberNumber)

	verr := check(f)
	number := 0
	if !verr.Has("member_number") {
		n, err := services.ParseMemberNumber(f.MemberNumber)
		if err != nil {
			verr.Add("member_number", "Ensure this value is greater than or equal to 1.")
		}
		number = n
	}
	if err := verr.orNil(); err != nil {
		return services.ProfileInput{}, err
	}

	return services.ProfileInput{
		FirstName:    f.FirstName,
		LastName:     f.LastName,
		MemberNumber: number,
		Username:     f.Username,
		Email:        f.Email,
	}, nil
}

type DeleteMemberForm struct {
	Confirm string `form:"confirm" json:"confirm"`
}

type DeviceTokenForm struct {
	Token string `form:"token" json:"token" validate:"required,max=4096"`
}

func (f *DeviceTokenForm) Validate() error {
	f.Token = strings.TrimSpace(f.Token)
	return check(f).orNil()
}
