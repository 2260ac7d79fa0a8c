package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/centralrock/route-tracker/internal/forms"
	"github.com/centralrock/route-tracker/internal/metrics"
	"github.com/centralrock/route-tracker/internal/middleware"
	"github.com/centralrock/route-tracker/internal/models"
	"github.com/centralrock/route-tracker/internal/services"
	"github.com/gofiber/fiber/v2"
)

func LoginPage(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"form": forms.LoginForm{}})
}

func Login(c *fiber.Ctx) error {
	var form forms.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}
	if err := form.Validate(); err != nil {
		form.Password = ""
		return renderInvalid(c, "login", form, err, nil)
	}

	user, err := members.Authenticate(c.UserContext(), form.Username, form.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		form.Password = ""
		verr := &forms.ValidationError{NonField: []string{"Please enter a correct username and password."}}
		return renderInvalid(c, "login", form, verr, nil)
	}
	if err != nil {
		return failure(c, err)
	}

	token, err := startSession(c, user)
	if err != nil {
		return failure(c, err)
	}

	name := user.FirstName
	if name == "" {
		name = user.Username
	}
	flash(c, middleware.LevelSuccess, fmt.Sprintf("Welcome back, %s!", name))
	c.Set("X-Session-Token", token)
	return redirect(c, "/")
}

func Logout(c *fiber.Ctx) error {
	middleware.ClearTokenCookie(c)
	flash(c, middleware.LevelInfo, "You have been logged out.")
	return redirect(c, "/")
}

func RegisterPage(c *fiber.Ctx) error {
	return render(c, "register", fiber.Map{"form": forms.RegistrationForm{}})
}

// Register creates the account and its member profile, then logs the new
// member in.
func Register(c *fiber.Ctx) error {
	var form forms.RegistrationForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}

	in, err := form.Clean()
	if err != nil {
		form.ClearPasswords()
		return renderInvalid(c, "register", form, err, nil)
	}

	user, member, err := members.Register(c.UserContext(), in)
	if err != nil {
		if verr := forms.FromServiceError(err); verr != nil {
			form.ClearPasswords()
			return renderInvalid(c, "register", form, verr, nil)
		}
		return failure(c, err)
	}
	metrics.Registrations.Inc()
	slog.Info("member registered", "user", user.ID, "memberNumber", member.MemberNumber)

	token, err := startSession(c, user)
	if err != nil {
		return failure(c, err)
	}
	flash(c, middleware.LevelSuccess, "Account created successfully! Welcome to Central Rock Gym!")
	c.Set("X-Session-Token", token)
	return redirect(c, "/")
}

func startSession(c *fiber.Ctx, user *models.User) (string, error) {
	token, err := middleware.GenerateToken(cfg.JWTSecret, user.ID, user.Username)
	if err != nil {
		return "", err
	}
	middleware.SetTokenCookie(c, token)
	return token, nil
}
